package main

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/hamed0406/certwatch/internal/config"
	"github.com/hamed0406/certwatch/internal/repo"
	"github.com/hamed0406/certwatch/internal/repo/file"
	"github.com/hamed0406/certwatch/internal/repo/postgres"
)

// openHistory picks the alert-history backend. An unreachable or unmigratable
// Postgres falls back to the JSON file under DataDir. The returned close func
// is never nil.
func openHistory(ctx context.Context, cfg config.Config, logger *zap.Logger) (repo.AlertHistoryStore, func()) {
	if cfg.DatabaseURL != "" {
		pg, err := postgres.New(ctx, cfg.DatabaseURL, logger)
		if err == nil {
			return pg, pg.Close
		}
		logger.Warn("pg_connect_failed", zap.Error(err), zap.String("fallback", cfg.AlertHistoryFile()))
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Warn("data_dir_error", zap.String("dir", cfg.DataDir), zap.Error(err))
	}
	return file.New(cfg.AlertHistoryFile()), func() {}
}
