package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// AuthMode represents how users sign in.
type AuthMode string

const (
	// AuthModePassword uses the NarrAI backend's email and password login only.
	AuthModePassword AuthMode = "password"
	// AuthModeOIDC adds single sign-on through an OpenID Connect provider.
	AuthModeOIDC AuthMode = "oidc"
	// AuthModeMock adds a dev SSO provider that signs in a fixed identity (development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "password", "oidc", "mock":
		*a = AuthMode(v)
		return nil
	case "oauth":
		*a = AuthModeOIDC
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: password, oidc, mock)", v)
	}
}

// OIDCConfig contains OpenID Connect configuration.
type OIDCConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	// RedirectURL defaults to APP_BASE_URL + /auth/callback.
	RedirectURL string `env:"REDIRECT_URL"`
	Scope       string `env:"SCOPE"        envDefault:"openid profile email groups"`
	IssuerURL   string `env:"ISSUER_URL"`
}

// DevAuthConfig controls the mock SSO identity.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	UserID    string `env:"USER_ID"    envDefault:"dev-user"`
	Email     string `env:"EMAIL"      envDefault:"dev@narrai.local"`
	FirstName string `env:"FIRST_NAME" envDefault:"Dev"`
	Role      string `env:"ROLE"       envDefault:"admin"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which sign-in options are offered.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"password"`

	// OIDC configuration (used when Mode=oidc).
	OIDC OIDCConfig `envPrefix:"OIDC_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// AdminGroup and UserGroup map SSO group membership onto roles.
	AdminGroup string `env:"ADMIN_GROUP" envDefault:"narrai-admins"`
	UserGroup  string `env:"USER_GROUP"  envDefault:"narrai-readers"`

	// AdminRoleExpr and UserRoleExpr are JMESPath expressions evaluated against the
	// SSO claims. When either is set they replace group matching.
	AdminRoleExpr string `env:"ADMIN_ROLE_EXPR"`
	UserRoleExpr  string `env:"USER_ROLE_EXPR"`

	// SessionTTL bounds the lifetime of a session created by password sign-in.
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"12h"`

	// SessionKeyPrefix namespaces session keys in Redis.
	SessionKeyPrefix string `env:"SESSION_KEY_PREFIX" envDefault:"narrai:session:"`
}

// Sanitize trims values and applies defaults that depend on other fields.
func (c *AuthConfig) Sanitize() {
	c.OIDC.ClientID = strings.TrimSpace(c.OIDC.ClientID)
	c.OIDC.IssuerURL = strings.TrimSpace(c.OIDC.IssuerURL)
	c.OIDC.RedirectURL = strings.TrimSpace(c.OIDC.RedirectURL)
	c.AdminRoleExpr = strings.TrimSpace(c.AdminRoleExpr)
	c.UserRoleExpr = strings.TrimSpace(c.UserRoleExpr)
	if c.Mode == "" {
		c.Mode = AuthModePassword
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = 12 * time.Hour
	}
}

// UsesRoleExpressions reports whether claim expressions should drive role mapping.
func (c *AuthConfig) UsesRoleExpressions() bool {
	return c.AdminRoleExpr != "" || c.UserRoleExpr != ""
}

// Validate checks the settings required by the selected mode.
func (c *AuthConfig) Validate(isDev bool) error {
	switch c.Mode {
	case AuthModeOIDC:
		var errs []error
		if c.OIDC.IssuerURL == "" {
			errs = append(errs, errors.New("OIDC_ISSUER_URL is required when AUTH_MODE=oidc"))
		}
		if c.OIDC.ClientID == "" {
			errs = append(errs, errors.New("OIDC_CLIENT_ID is required when AUTH_MODE=oidc"))
		}
		if c.OIDC.ClientSecret == "" {
			errs = append(errs, errors.New("OIDC_CLIENT_SECRET is required when AUTH_MODE=oidc"))
		}
		return errors.Join(errs...)
	case AuthModeMock:
		if !isDev {
			return errors.New("AUTH_MODE=mock is only allowed in development")
		}
	}
	return nil
}

// CallbackURL returns the SSO redirect URL, derived from baseURL when not set explicitly.
func (c *AuthConfig) CallbackURL(baseURL string) string {
	if c.OIDC.RedirectURL != "" {
		return c.OIDC.RedirectURL
	}
	return strings.TrimSuffix(baseURL, "/") + "/auth/callback"
}
