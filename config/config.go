package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: sign-in modes, SSO and role mapping
//   - database.go: Postgres and Redis
//   - http.go: HTTP server and cookies
//   - services.go: NarrAI backend API and the verification mount registry
//   - observability.go: StatsD metrics
type AppConfig struct {
	// IsDev reads templates and static assets from disk instead of the embedded copies.
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	Auth AuthConfig

	Backend      BackendConfig      `envPrefix:"NARRAI_API_"`
	Verification VerificationConfig `envPrefix:"VERIFY_"`

	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	HTTP HTTPConfig

	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.HTTP.Sanitize()
	c.Auth.Sanitize()
	c.Backend.Sanitize()
	c.Verification.Sanitize()
	c.Observability.Sanitize()

	c.detectDevMode()
}

// Validate reports settings that would make the server unusable. Call it after Sanitize.
func (c *AppConfig) Validate() error {
	var errs []error
	if err := c.HTTP.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("http: %w", err))
	}
	if err := c.Auth.Validate(c.IsDev); err != nil {
		errs = append(errs, fmt.Errorf("auth: %w", err))
	}
	if err := c.Backend.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("backend: %w", err))
	}
	return errors.Join(errs...)
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}
