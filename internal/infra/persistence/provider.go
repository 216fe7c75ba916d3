// Package persistence selects the user store backend from configuration.
package persistence

import (
	"log/slog"

	"userhub/config"
	"userhub/internal/domain/repository"
	"userhub/internal/infra/persistence/memory"
	"userhub/internal/infra/persistence/mongodb"
	"userhub/internal/infra/persistence/postgres"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// RepositoryParams holds dependencies for the user store, injected by Fx
type RepositoryParams struct {
	fx.In

	Lc     fx.Lifecycle
	Config *config.Config
	Logger *slog.Logger
}

// NewUserRepository creates the UserRepository for the configured store driver.
// Connections are opened by lifecycle hooks, so a failing backend stops startup.
func NewUserRepository(params RepositoryParams) (repository.UserRepository, error) {
	cfg := params.Config
	logger := params.Logger

	switch cfg.Store.Driver {
	case config.StoreDriverMongo:
		logger.Info("Using MongoDB user store", slog.String("database", cfg.Mongo.Database))

		db, err := mongodb.New(mongodb.Params{Lifecycle: params.Lc, Config: cfg, Logger: logger})
		if err != nil {
			return nil, err
		}

		return mongodb.NewUserRepository(db, cfg), nil

	case config.StoreDriverPostgres:
		logger.Info("Using PostgreSQL user store")

		db, err := postgres.New(postgres.Params{Lifecycle: params.Lc, Config: cfg, Logger: logger})
		if err != nil {
			return nil, err
		}

		return postgres.NewUserRepository(db), nil

	case config.StoreDriverMemory:
		logger.Warn("Using in-memory user store, data is lost on restart")

		return memory.NewUserRepository(), nil

	default:
		return nil, errors.Errorf("unknown store driver: %s", cfg.Store.Driver)
	}
}

// Module provides the persistence FX module
//
//nolint:gochecknoglobals
var Module = fx.Options(
	fx.Provide(NewUserRepository),
)
