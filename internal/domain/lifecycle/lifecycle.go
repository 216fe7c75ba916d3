// Package lifecycle holds shared timing constants for start and stop hooks.
package lifecycle

import "time"

// DefaultTimeout bounds connect, ping and graceful shutdown steps.
const DefaultTimeout = 10 * time.Second
