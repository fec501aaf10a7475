package ports

// Package ports defines interfaces (hexagonal ports) for the collaborators the web front end consumes.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"

	domainauth "github.com/narrai/narrai-web/internal/domain/auth"
)

// BeginInput carries inputs for initiating an SSO flow.
type BeginInput struct {
	RedirectURL string
}

// AuthProvider initiates and completes an SSO authentication flow against an IdP.
type AuthProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce, and returns the authenticated identity.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Identity, error)
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// SessionStore persists and retrieves user sessions.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// RoleMapper derives the application role of an SSO identity.
type RoleMapper interface {
	Map(id domainauth.Identity) domainauth.Role
}
