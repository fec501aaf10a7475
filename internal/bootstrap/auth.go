package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/narrai/narrai-web/config"
	"github.com/narrai/narrai-web/internal/adapters/authroles"
	"github.com/narrai/narrai-web/internal/adapters/devauth"
	"github.com/narrai/narrai-web/internal/adapters/oidc"
	redisadapter "github.com/narrai/narrai-web/internal/adapters/redis"
	domainauth "github.com/narrai/narrai-web/internal/domain/auth"
	"github.com/narrai/narrai-web/internal/ports"
	"github.com/narrai/narrai-web/internal/service"
)

// AuthConfig contains configuration for the auth service.
type AuthConfig struct {
	Auth        config.AuthConfig
	BaseURL     string
	RedisClient redis.UniversalClient
	Accounts    ports.AccountAPI
	Logger      *slog.Logger

	// Sessions overrides the Redis session store (tests).
	Sessions ports.SessionStore
}

// BuildAuthService wires password sign-in against the backend plus the SSO provider
// selected by the auth mode.
func BuildAuthService(ctx context.Context, cfg AuthConfig) (*service.AuthService, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sessions := cfg.Sessions
	if sessions == nil {
		if cfg.RedisClient == nil {
			return nil, errors.New("session store: redis client not configured")
		}
		sessions = redisadapter.NewSessionStoreWithPrefix(cfg.RedisClient, cfg.Auth.SessionKeyPrefix)
	}

	roles, err := buildRoleMapper(cfg.Auth, logger)
	if err != nil {
		return nil, err
	}

	provider, err := buildProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "auth configured", "mode", cfg.Auth.Mode, "sso", provider != nil)

	return service.NewAuthService(service.AuthServiceOptions{
		Provider:   provider,
		Accounts:   cfg.Accounts,
		Sessions:   sessions,
		Roles:      roles,
		SessionTTL: cfg.Auth.SessionTTL,
		Logger:     logger,
	}), nil
}

//nolint:ireturn // the mapper is chosen at runtime.
func buildRoleMapper(cfg config.AuthConfig, logger *slog.Logger) (ports.RoleMapper, error) {
	static := authroles.StaticRoleMapper{
		AdminGroup: cfg.AdminGroup,
		UserGroup:  cfg.UserGroup,
	}
	if !cfg.UsesRoleExpressions() {
		return static, nil
	}
	mapper, err := authroles.NewClaimMapper(authroles.ClaimMapperConfig{
		AdminExpr: cfg.AdminRoleExpr,
		UserExpr:  cfg.UserRoleExpr,
		Fallback:  static,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("role expressions: %w", err)
	}
	return mapper, nil
}

// buildProvider returns nil in password mode.
//
//nolint:ireturn,nilnil // provider implementation depends on the auth mode.
func buildProvider(ctx context.Context, cfg AuthConfig) (ports.AuthProvider, error) {
	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		prov, err := devauth.NewProvider(devauth.Config{
			UserID:    cfg.Auth.DevAuth.UserID,
			Email:     cfg.Auth.DevAuth.Email,
			FirstName: cfg.Auth.DevAuth.FirstName,
			Role:      domainauth.ParseRole(cfg.Auth.DevAuth.Role),
		})
		if err != nil {
			return nil, fmt.Errorf("dev auth provider: %w", err)
		}
		return prov, nil

	case config.AuthModeOIDC:
		o := cfg.Auth.OIDC
		prov, err := oidc.NewProvider(ctx, oidc.ProviderConfig{
			ClientID:     o.ClientID,
			ClientSecret: o.ClientSecret,
			RedirectURL:  cfg.Auth.CallbackURL(cfg.BaseURL),
			Scope:        o.Scope,
			IssuerURL:    o.IssuerURL,
		})
		if err != nil {
			return nil, fmt.Errorf("oidc provider: %w", err)
		}
		return prov, nil

	default:
		return nil, nil
	}
}
