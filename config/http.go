package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// BaseURL is the public URL of the application (e.g., "https://app.narrai.example").
	// The SSO callback defaults to BaseURL + /auth/callback.
	BaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`

	// CookieDomain is the domain for session and CSRF cookies.
	// Leave empty to use the request host.
	CookieDomain string `env:"APP_COOKIE_DOMAIN" envDefault:""`

	// CompressionEnabled enables gzip compression for text-based responses.
	CompressionEnabled bool `env:"HTTP_COMPRESSION_ENABLED" envDefault:"false"`

	// CompressionLevel is the gzip compression level (1-9).
	CompressionLevel int `env:"HTTP_COMPRESSION_LEVEL" envDefault:"6"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	h.BaseURL = strings.TrimSuffix(strings.TrimSpace(h.BaseURL), "/")
	h.CookieDomain = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(h.CookieDomain), "."))

	// Clamp compression level to valid gzip range (1-9)
	if h.CompressionLevel < 1 {
		h.CompressionLevel = 1
	}
	if h.CompressionLevel > 9 {
		h.CompressionLevel = 9
	}
}

// Validate rejects a base URL that is not absolute and a cookie domain browsers would refuse.
func (h *HTTPConfig) Validate() error {
	u, err := url.Parse(h.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("APP_BASE_URL must be an absolute http(s) URL, got %q", h.BaseURL)
	}
	return validateCookieDomain(h.CookieDomain)
}

// validateCookieDomain refuses public suffixes such as "com" or "co.uk"; browsers drop
// cookies scoped to them.
func validateCookieDomain(domain string) error {
	if domain == "" || domain == "localhost" {
		return nil
	}
	if strings.ContainsAny(domain, ":/ ") {
		return fmt.Errorf("APP_COOKIE_DOMAIN %q must be a bare host name", domain)
	}
	suffix, icann := publicsuffix.PublicSuffix(domain)
	if suffix == domain && (icann || !strings.Contains(domain, ".")) {
		return fmt.Errorf("APP_COOKIE_DOMAIN %q is a public suffix", domain)
	}
	if _, err := publicsuffix.EffectiveTLDPlusOne(domain); err != nil {
		return errors.Join(fmt.Errorf("APP_COOKIE_DOMAIN %q is not registrable", domain), err)
	}
	return nil
}
