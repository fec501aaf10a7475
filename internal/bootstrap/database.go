package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/narrai/narrai-web/config"
	"github.com/narrai/narrai-web/internal/migrate"
)

const connectTimeout = 5 * time.Second

// DatabaseConfig contains configuration for database connections.
type DatabaseConfig struct {
	DBConfig    config.DBConfig
	RedisConfig config.RedisConfig
	Logger      *slog.Logger
}

// postgresURL builds the connection URL so credentials with special characters survive.
func postgresURL(cfg config.DBConfig) string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Name,
		RawQuery: url.Values{"sslmode": []string{cfg.SSLMode}}.Encode(),
	}
	return u.String()
}

// ConnectDB opens a database/sql pool backed by the pgx driver and pings it.
func ConnectDB(cfg DatabaseConfig) (*sql.DB, error) {
	connCfg, err := pgx.ParseConfig(postgresURL(cfg.DBConfig))
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	connCfg.RuntimeParams["application_name"] = "narrai-web"

	db := stdlib.OpenDB(*connCfg)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if pingErr := db.PingContext(ctx); pingErr != nil {
		if closeErr := db.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close database connection: %w", closeErr))
		}
		return nil, fmt.Errorf("ping database: %w", pingErr)
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("database connected",
			"host", cfg.DBConfig.Host,
			"port", cfg.DBConfig.Port,
			"database", cfg.DBConfig.Name,
		)
	}
	return db, nil
}

// ConnectRedis connects to a single node, a sentinel-managed primary or a cluster,
// depending on configuration, and pings it.
//
//nolint:ireturn // the concrete client type depends on the deployment topology.
func ConnectRedis(cfg DatabaseConfig) (redis.UniversalClient, error) {
	opts, desc, err := redisOptions(cfg.RedisConfig)
	if err != nil {
		return nil, err
	}
	client := redis.NewUniversalClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if pingErr := client.Ping(ctx).Err(); pingErr != nil {
		if closeErr := client.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close redis client: %w", closeErr))
		}
		return nil, fmt.Errorf("ping redis: %w", pingErr)
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("redis connected", "addr", desc)
	}
	return client, nil
}

// redisOptions maps RedisConfig onto go-redis universal options. The description is
// safe to log.
func redisOptions(cfg config.RedisConfig) (*redis.UniversalOptions, string, error) {
	opts := &redis.UniversalOptions{Password: cfg.Password, DB: cfg.DB}

	switch {
	case cfg.UseCluster:
		opts.IsClusterMode = true
		opts.DB = 0 // clusters only have db 0
		opts.Addrs = nonEmpty(cfg.ClusterNodes)
		if len(opts.Addrs) == 0 {
			if err := applyRedisURI(opts, cfg.URI); err != nil {
				return nil, "", err
			}
		}
		if len(opts.Addrs) == 0 {
			return nil, "", errors.New("redis cluster configuration requires at least one address")
		}
		return opts, "cluster:" + strings.Join(opts.Addrs, ","), nil

	case cfg.UseSentinel:
		opts.Addrs = nonEmpty(cfg.SentinelNodes)
		if len(opts.Addrs) == 0 {
			return nil, "", errors.New("redis sentinel configuration requires at least one sentinel node")
		}
		opts.MasterName = cfg.SentinelMasterName
		opts.SentinelPassword = cfg.SentinelPassword
		return opts, "sentinel:" + cfg.SentinelMasterName, nil

	default:
		if strings.TrimSpace(cfg.URI) == "" {
			return nil, "", errors.New("redis direct configuration requires a URI")
		}
		if err := applyRedisURI(opts, cfg.URI); err != nil {
			return nil, "", err
		}
		return opts, opts.Addrs[0], nil
	}
}

// applyRedisURI accepts either host:port or a redis:// / rediss:// URL.
func applyRedisURI(opts *redis.UniversalOptions, uri string) error {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil
	}
	if !strings.HasPrefix(uri, "redis://") && !strings.HasPrefix(uri, "rediss://") {
		opts.Addrs = []string{uri}
		return nil
	}
	parsed, err := redis.ParseURL(uri)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	opts.Addrs = []string{parsed.Addr}
	opts.Username = parsed.Username
	if parsed.Password != "" {
		opts.Password = parsed.Password
	}
	if !opts.IsClusterMode {
		opts.DB = parsed.DB
	}
	opts.TLSConfig = parsed.TLSConfig
	return nil
}

func nonEmpty(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// RunMigrations runs database migrations.
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if err := migrate.Run(ctx, db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	if logger != nil {
		logger.InfoContext(ctx, "database migrations completed")
	}
	return nil
}
