package persistence

import (
	"io"
	"log/slog"
	"testing"

	"userhub/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
)

func newParams(t *testing.T, driver string) RepositoryParams {
	cfg := &config.Config{}
	cfg.Store.Driver = driver

	return RepositoryParams{
		Lc:     fxtest.NewLifecycle(t),
		Config: cfg,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestNewUserRepository_Memory(t *testing.T) {
	repo, err := NewUserRepository(newParams(t, config.StoreDriverMemory))

	require.NoError(t, err)
	assert.NotNil(t, repo)
}

func TestNewUserRepository_UnknownDriver(t *testing.T) {
	_, err := NewUserRepository(newParams(t, "cassandra"))

	assert.ErrorContains(t, err, "unknown store driver: cassandra")
}
