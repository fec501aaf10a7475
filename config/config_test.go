package config

import (
	"reflect"
	"strings"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func parse(t *testing.T, vars map[string]string) AppConfig {
	t.Helper()
	t.Setenv("NODE_ENV", "")
	var cfg AppConfig
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()
	return cfg
}

func TestAppConfig_Defaults(t *testing.T) {
	cfg := parse(t, map[string]string{})

	if cfg.Auth.Mode != AuthModePassword {
		t.Errorf("Auth.Mode = %q, want password", cfg.Auth.Mode)
	}
	if cfg.Auth.SessionTTL != 12*time.Hour {
		t.Errorf("Auth.SessionTTL = %v, want 12h", cfg.Auth.SessionTTL)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("HTTP.Addr = %q", cfg.HTTP.Addr)
	}
	if cfg.Backend.BaseURL != "http://localhost:8000" || cfg.Backend.Timeout != 10*time.Second {
		t.Errorf("unexpected backend config: %#v", cfg.Backend)
	}
	if cfg.Verification.MountTTL != 15*time.Minute || cfg.Verification.MaxMounts != 10000 {
		t.Errorf("unexpected verification config: %#v", cfg.Verification)
	}
	if cfg.Observability.Metrics.Prefix != "narrai_web" {
		t.Errorf("metrics prefix = %q", cfg.Observability.Metrics.Prefix)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestAppConfig_ParseAuthEnv(t *testing.T) {
	cfg := parse(t, map[string]string{
		"AUTH_MODE":           "oidc",
		"ADMIN_GROUP":         "cn=admins,ou=groups,dc=narrai,dc=example",
		"USER_GROUP":          "cn=readers,ou=groups,dc=narrai,dc=example",
		"OIDC_CLIENT_ID":      " narrai-web ",
		"OIDC_CLIENT_SECRET":  "super-secret",
		"OIDC_ISSUER_URL":     "https://login.narrai.example",
		"OIDC_SCOPE":          "openid profile email",
		"DEV_AUTH_USER_ID":    "dev-user",
		"DEV_AUTH_EMAIL":      "dev@narrai.example",
		"DEV_AUTH_FIRST_NAME": "Ada",
		"DEV_AUTH_ROLE":       "user",
		"ADMIN_ROLE_EXPR":     "contains(groups, 'authors')",
		"SESSION_TTL":         "2h",
		"SESSION_KEY_PREFIX":  "test:session:",
	})

	expected := AuthConfig{
		Mode: AuthModeOIDC,
		OIDC: OIDCConfig{
			ClientID:     "narrai-web",
			ClientSecret: "super-secret",
			Scope:        "openid profile email",
			IssuerURL:    "https://login.narrai.example",
		},
		DevAuth: DevAuthConfig{
			UserID:    "dev-user",
			Email:     "dev@narrai.example",
			FirstName: "Ada",
			Role:      "user",
		},
		AdminGroup:       "cn=admins,ou=groups,dc=narrai,dc=example",
		UserGroup:        "cn=readers,ou=groups,dc=narrai,dc=example",
		AdminRoleExpr:    "contains(groups, 'authors')",
		SessionTTL:       2 * time.Hour,
		SessionKeyPrefix: "test:session:",
	}

	if !reflect.DeepEqual(cfg.Auth, expected) {
		t.Fatalf("unexpected auth configuration:\nexpected: %#v\ngot:      %#v", expected, cfg.Auth)
	}
	if !cfg.Auth.UsesRoleExpressions() {
		t.Error("UsesRoleExpressions() = false")
	}
	if got := cfg.Auth.CallbackURL(cfg.HTTP.BaseURL); got != "http://localhost:8080/auth/callback" {
		t.Errorf("CallbackURL() = %q", got)
	}
}

func TestAuthMode_UnmarshalText(t *testing.T) {
	tests := []struct {
		in      string
		want    AuthMode
		wantErr bool
	}{
		{in: "password", want: AuthModePassword},
		{in: "OIDC", want: AuthModeOIDC},
		{in: "oauth", want: AuthModeOIDC},
		{in: " mock ", want: AuthModeMock},
		{in: "saml", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var m AuthMode
			err := m.UnmarshalText([]byte(tt.in))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if m != tt.want {
				t.Errorf("got %q, want %q", m, tt.want)
			}
		})
	}
}

func TestAppConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		vars    map[string]string
		wantErr string
	}{
		{
			name:    "oidc without issuer or client",
			vars:    map[string]string{"AUTH_MODE": "oidc"},
			wantErr: "OIDC_ISSUER_URL is required",
		},
		{
			name: "oidc complete",
			vars: map[string]string{
				"AUTH_MODE":          "oidc",
				"OIDC_ISSUER_URL":    "https://login.narrai.example",
				"OIDC_CLIENT_ID":     "narrai-web",
				"OIDC_CLIENT_SECRET": "s3cret",
			},
		},
		{
			name:    "mock outside development",
			vars:    map[string]string{"AUTH_MODE": "mock"},
			wantErr: "only allowed in development",
		},
		{
			name: "mock in development",
			vars: map[string]string{"AUTH_MODE": "mock", "DEV": "true"},
		},
		{
			name:    "relative backend url",
			vars:    map[string]string{"NARRAI_API_BASE_URL": "/api"},
			wantErr: "NARRAI_API_BASE_URL",
		},
		{
			name:    "public suffix cookie domain",
			vars:    map[string]string{"APP_COOKIE_DOMAIN": "co.uk"},
			wantErr: "public suffix",
		},
		{
			name: "registrable cookie domain",
			vars: map[string]string{"APP_COOKIE_DOMAIN": ".narrai.example.com"},
		},
		{
			name:    "cookie domain with port",
			vars:    map[string]string{"APP_COOKIE_DOMAIN": "narrai.example.com:8080"},
			wantErr: "bare host name",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := parse(t, tt.vars)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestHTTPConfig_Sanitize(t *testing.T) {
	h := HTTPConfig{BaseURL: " https://narrai.example/ ", CookieDomain: ".NarrAI.Example", CompressionLevel: 42}
	h.Sanitize()

	if h.BaseURL != "https://narrai.example" {
		t.Errorf("BaseURL = %q", h.BaseURL)
	}
	if h.CookieDomain != "narrai.example" {
		t.Errorf("CookieDomain = %q", h.CookieDomain)
	}
	if h.CompressionLevel != 9 {
		t.Errorf("CompressionLevel = %d, want 9", h.CompressionLevel)
	}

	h.CompressionLevel = -3
	h.Sanitize()
	if h.CompressionLevel != 1 {
		t.Errorf("CompressionLevel = %d, want 1", h.CompressionLevel)
	}
}

func TestVerificationConfig_Sanitize(t *testing.T) {
	c := VerificationConfig{MountTTL: 30 * time.Second, JanitorInterval: time.Minute}
	c.Sanitize()

	if c.JanitorInterval != 30*time.Second {
		t.Errorf("JanitorInterval = %v, want clamp to MountTTL", c.JanitorInterval)
	}
	if c.MaxMounts != 10000 {
		t.Errorf("MaxMounts = %d", c.MaxMounts)
	}
}

func TestObservabilityMetricsConfig_Sanitize(t *testing.T) {
	tests := []struct {
		name        string
		cfg         ObservabilityMetricsConfig
		wantEnabled bool
		wantPrefix  string
	}{
		{
			name:        "enabled with address",
			cfg:         ObservabilityMetricsConfig{Enabled: true, StatsdAddress: " 127.0.0.1:8125 ", Prefix: "web."},
			wantEnabled: true,
			wantPrefix:  "web",
		},
		{
			name:       "blank address disables",
			cfg:        ObservabilityMetricsConfig{Enabled: true, StatsdAddress: "  "},
			wantPrefix: defaultMetricsPrefix,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.Sanitize()
			if tt.cfg.IsEnabled() != tt.wantEnabled {
				t.Errorf("IsEnabled() = %v, want %v", tt.cfg.IsEnabled(), tt.wantEnabled)
			}
			if tt.cfg.Prefix != tt.wantPrefix {
				t.Errorf("Prefix = %q, want %q", tt.cfg.Prefix, tt.wantPrefix)
			}
		})
	}
}
