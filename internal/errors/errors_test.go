package errors

import (
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type codedError struct{ code int }

func (e *codedError) Error() string { return "coded" }

func TestAsType(t *testing.T) {
	wrapped := Wrap(&codedError{code: 7}, "outer")

	got, ok := AsType[*codedError](wrapped)
	assert.True(t, ok)
	assert.Equal(t, 7, got.code)

	_, ok = AsType[*codedError](New("plain"))
	assert.False(t, ok)
}

func TestWrapKeepsCause(t *testing.T) {
	base := New("base")
	err := Wrapf(base, "step %d", 2)

	assert.True(t, Is(err, base))
	assert.True(t, As(err, new(interface{ StackTrace() pkgerrors.StackTrace })))
	assert.Equal(t, "step 2: base", err.Error())
}
