package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/docflow/internal/common"
	repo "github.com/joseph-ayodele/docflow/internal/repository"
)

// ConnectDB opens the configured database, pings it and applies the schema.
func ConnectDB(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*repo.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("connecting to database")
	store, err := repo.Open(ctx, repo.ConfigFrom(cfg), logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}
	if err := PingDB(ctx, store, logger, 5*time.Second); err != nil {
		store.Close()
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}
	logger.Info("successfully connected to database", "dialect", store.Dialect())
	return store, nil
}

// PingDB pings the database to ensure it's responsive
func PingDB(ctx context.Context, store *repo.Store, logger *slog.Logger, timeout time.Duration) error {
	logger.Debug("pinging database")
	if err := store.HealthCheck(ctx, timeout); err != nil {
		logger.Error("database ping failed", "error", err)
		return err
	}
	logger.Debug("database ping successful")
	return nil
}

// CloseDB closes the database connections gracefully
func CloseDB(store *repo.Store, logger *slog.Logger) {
	if store == nil {
		return
	}
	logger.Info("closing database connections")
	store.Close()
	logger.Info("database connections closed")
}
