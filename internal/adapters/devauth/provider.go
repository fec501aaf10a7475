// Package devauth provides the mock SSO provider used in AUTH_MODE=mock for local development.
package devauth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/url"
	"time"

	domainauth "github.com/narrai/narrai-web/internal/domain/auth"
	"github.com/narrai/narrai-web/internal/ports"
)

var _ ports.AuthProvider = (*Provider)(nil)

// Config controls the dev identity.
type Config struct {
	UserID          string
	Email           string
	FirstName       string
	Role            domainauth.Role
	SessionDuration time.Duration // default 8h when zero
	CallbackPath    string        // default /auth/callback
}

// Provider short-circuits the SSO round trip: Begin points straight back at our callback
// and Exchange returns the configured identity.
type Provider struct {
	identity        domainauth.Identity
	sessionDuration time.Duration
	callbackPath    string
	now             func() time.Time
}

// NewProvider constructs a dev auth provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.UserID == "" {
		return nil, errors.New("dev auth: UserID is required")
	}
	if cfg.Email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	p := &Provider{
		identity: domainauth.Identity{
			UserID:    cfg.UserID,
			Email:     cfg.Email,
			FirstName: cfg.FirstName,
			Role:      domainauth.ParseRole(string(cfg.Role)),
		},
		sessionDuration: cfg.SessionDuration,
		callbackPath:    cfg.CallbackPath,
		now:             time.Now,
	}
	if p.sessionDuration <= 0 {
		p.sessionDuration = 8 * time.Hour
	}
	if p.callbackPath == "" {
		p.callbackPath = "/auth/callback"
	}
	return p, nil
}

func (p *Provider) Begin(_ context.Context, _ ports.BeginInput) (string, string, string, error) {
	state := rand.Text()
	nonce := rand.Text()
	q := url.Values{"code": []string{"dev"}, "state": []string{state}}
	return fmt.Sprintf("%s?%s", p.callbackPath, q.Encode()), state, nonce, nil
}

// Exchange ignores the code; state and nonce are validated by the caller.
func (p *Provider) Exchange(_ context.Context, _ ports.ExchangeInput) (domainauth.Identity, error) {
	id := p.identity
	id.ExpiresAt = p.now().Add(p.sessionDuration)
	return id, nil
}
