package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/narrai/narrai-web/config"
	"github.com/narrai/narrai-web/internal/adapters/narrapi"
	"github.com/narrai/narrai-web/internal/data"
	httpx "github.com/narrai/narrai-web/internal/http"
	"github.com/narrai/narrai-web/internal/observability/statsd"
	"github.com/narrai/narrai-web/internal/ports"
	"github.com/narrai/narrai-web/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Auth         *service.AuthService
	Accounts     *service.AccountService
	Onboarding   *service.OnboardingService
	Verification *service.VerificationService
	Readiness    []httpx.ReadinessCheck
	Metrics      *statsd.Client
}

// Close releases resources owned by the container.
func (c ServiceContainer) Close() error {
	if c.Metrics == nil {
		return nil
	}
	return c.Metrics.Close()
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger

	// Optional overrides used by tests.
	Accounts   ports.AccountAPI
	Sessions   ports.SessionStore
	Onboarding ports.OnboardingStore
}

// NewServices builds every service the HTTP layer needs.
func NewServices(ctx context.Context, deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps: config is required")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	metrics, err := buildMetrics(logger, cfg.Observability.Metrics)
	if err != nil {
		return ServiceContainer{}, err
	}

	accounts := deps.Accounts
	if accounts == nil {
		client, cerr := narrapi.New(narrapi.Config{
			BaseURL: cfg.Backend.BaseURL,
			Timeout: cfg.Backend.Timeout,
			Logger:  logger,
			Metrics: metrics,
		})
		if cerr != nil {
			return ServiceContainer{}, fmt.Errorf("backend client: %w", cerr)
		}
		accounts = client
	}

	auth, err := BuildAuthService(ctx, AuthConfig{
		Auth:        cfg.Auth,
		BaseURL:     cfg.HTTP.BaseURL,
		RedisClient: deps.RedisClient,
		Accounts:    accounts,
		Logger:      logger,
		Sessions:    deps.Sessions,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("auth service: %w", err)
	}

	onboardingStore := deps.Onboarding
	if onboardingStore == nil {
		if deps.DB == nil {
			return ServiceContainer{}, errors.New("onboarding store: database not configured")
		}
		onboardingStore = data.NewOnboardingRepo(deps.DB)
	}

	verify, err := service.NewVerificationService(service.VerificationServiceOptions{
		API:             accounts,
		TTL:             cfg.Verification.MountTTL,
		JanitorInterval: cfg.Verification.JanitorInterval,
		MaxMounts:       cfg.Verification.MaxMounts,
		Logger:          logger,
		Metrics:         metrics,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("verification service: %w", err)
	}

	return ServiceContainer{
		Auth:         auth,
		Accounts:     service.NewAccountService(accounts, logger),
		Onboarding:   service.NewOnboardingService(onboardingStore, logger),
		Verification: verify,
		Readiness:    readinessChecks(deps.DB, deps.RedisClient),
		Metrics:      metrics,
	}, nil
}

func buildMetrics(logger *slog.Logger, cfg config.ObservabilityMetricsConfig) (*statsd.Client, error) {
	client, err := statsd.NewClient(statsd.Config{
		Enabled: cfg.IsEnabled(),
		Address: cfg.StatsdAddress,
		Prefix:  cfg.Prefix,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("statsd client: %w", err)
	}
	if client.Enabled() {
		logger.Info("statsd metrics enabled", "addr", cfg.StatsdAddress, "prefix", cfg.Prefix)
	}
	return client, nil
}

// readinessChecks probes the stores a request depends on. Missing clients are skipped.
func readinessChecks(db *sql.DB, rdb redis.UniversalClient) []httpx.ReadinessCheck {
	var checks []httpx.ReadinessCheck
	if db != nil {
		checks = append(checks, httpx.ReadinessCheck{Name: "postgres", Check: db.PingContext})
	}
	if rdb != nil {
		checks = append(checks, httpx.ReadinessCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}
	return checks
}
