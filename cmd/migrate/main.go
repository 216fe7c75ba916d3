package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"userhub/config"
	"userhub/internal/domain/lifecycle"
	"userhub/internal/domain/repository"
	logs "userhub/internal/infra/log"
	"userhub/internal/infra/persistence"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// Prepares the configured store: the postgres users table, or the mongo
// collection validator and unique email index. Safe to run repeatedly.
func main() {
	driver := flag.String("driver", "", "Override store.driver (mongo, postgres)")
	flag.Parse()

	if err := run(*driver); err != nil {
		fmt.Fprintf(os.Stderr, "migrate failed: %+v\n", err)
		os.Exit(1)
	}
}

func run(driver string) error {
	var logger *slog.Logger
	app := fx.New(
		fx.NopLogger,
		fx.Provide(
			newMigrateConfig(driver),
			logs.New,
		),
		persistence.Module,
		// Resolving the repository registers the store's start hooks.
		fx.Invoke(func(repository.UserRepository) {}),
		fx.Populate(&logger),
	)
	if err := app.Err(); err != nil {
		return errors.Wrap(err, "failed to build migrate app")
	}

	ctx, cancel := context.WithTimeout(context.Background(), lifecycle.DefaultTimeout)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		return errors.Wrap(err, "failed to migrate store")
	}
	logger.Info("Store migrated")

	return errors.WithStack(app.Stop(ctx))
}

func newMigrateConfig(driver string) func() (*config.Config, error) {
	return func() (*config.Config, error) {
		cfg, err := config.New()
		if err != nil {
			return nil, err
		}
		if driver != "" {
			cfg.Store.Driver = driver
		}
		if cfg.Store.Driver == config.StoreDriverMemory {
			return nil, errors.New("the memory store has no schema to migrate")
		}
		cfg.Store.Migrate = true

		return cfg, cfg.Validate()
	}
}
