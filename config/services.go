package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// BackendConfig points at the NarrAI account API.
type BackendConfig struct {
	BaseURL string        `env:"BASE_URL" envDefault:"http://localhost:8000"`
	Timeout time.Duration `env:"TIMEOUT"  envDefault:"10s"`
}

// Sanitize trims the base URL and bounds the timeout.
func (c *BackendConfig) Sanitize() {
	c.BaseURL = strings.TrimSuffix(strings.TrimSpace(c.BaseURL), "/")
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
}

// Validate requires an absolute http(s) base URL.
func (c *BackendConfig) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("NARRAI_API_BASE_URL must be an absolute http(s) URL, got %q", c.BaseURL)
	}
	return nil
}

// VerificationConfig bounds the in-memory registry of email verification mounts.
type VerificationConfig struct {
	MountTTL        time.Duration `env:"MOUNT_TTL"        envDefault:"15m"`
	JanitorInterval time.Duration `env:"JANITOR_INTERVAL" envDefault:"1m"`
	MaxMounts       int           `env:"MAX_MOUNTS"       envDefault:"10000"`
}

// Sanitize restores defaults for non-positive values.
func (c *VerificationConfig) Sanitize() {
	if c.MountTTL <= 0 {
		c.MountTTL = 15 * time.Minute
	}
	if c.JanitorInterval <= 0 {
		c.JanitorInterval = time.Minute
	}
	if c.JanitorInterval > c.MountTTL {
		c.JanitorInterval = c.MountTTL
	}
	if c.MaxMounts <= 0 {
		c.MaxMounts = 10000
	}
}
