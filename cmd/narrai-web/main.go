// Command narrai-web serves the NarrAI web front end.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/narrai/narrai-web/config"
	"github.com/narrai/narrai-web/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) (err error) {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "starting narrai-web",
		"addr", cfg.HTTP.Addr,
		"base_url", cfg.HTTP.BaseURL,
		"auth_mode", cfg.Auth.Mode,
		"backend", cfg.Backend.BaseURL,
		"dev", cfg.IsDev)

	var closers []namedCloser
	defer func() {
		// Close in reverse order of acquisition.
		for i := len(closers) - 1; i >= 0; i-- {
			if cerr := closers[i].c.Close(); cerr != nil {
				logger.ErrorContext(ctx, "close failed", "resource", closers[i].name, "error", cerr)
				err = errors.Join(err, fmt.Errorf("close %s: %w", closers[i].name, cerr))
			}
		}
	}()

	dbCfg := bootstrap.DatabaseConfig{DBConfig: cfg.Postgres, RedisConfig: cfg.Redis, Logger: logger}
	db, err := bootstrap.ConnectDB(dbCfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	closers = append(closers, namedCloser{"database", db})

	redisClient, err := bootstrap.ConnectRedis(dbCfg)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	closers = append(closers, namedCloser{"redis", redisClient})

	if err = migrateOnStart(ctx, &cfg, db, logger); err != nil {
		return err
	}

	services, err := bootstrap.NewServices(ctx, &bootstrap.ServiceDeps{
		Config:      &cfg,
		DB:          db,
		RedisClient: redisClient,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	closers = append(closers, namedCloser{"metrics", services})

	return bootstrap.Run(ctx, bootstrap.RunConfig{
		Config:   &cfg,
		Services: services,
		Logger:   logger,
	})
}

type namedCloser struct {
	name string
	c    io.Closer
}

func migrateOnStart(ctx context.Context, cfg *config.AppConfig, db *sql.DB, logger *slog.Logger) error {
	if !cfg.Postgres.RunMigrationsOnStart {
		logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
		return nil
	}
	return bootstrap.RunMigrations(ctx, db, logger)
}
