package httpx

import (
	"context"

	domainauth "github.com/narrai/narrai-web/internal/domain/auth"
)

// sessionKey and stateKey are unexported context key types to avoid collisions across packages.
type (
	sessionKey struct{}
	stateKey   struct{}
)

// SetSessionInContext returns a child context that carries the given session.
// If session is nil, the original ctx is returned unchanged.
func SetSessionInContext(ctx context.Context, session *domainauth.Session) context.Context {
	if session == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, session)
}

// GetSessionFromContext retrieves the session from the request context, or nil.
func GetSessionFromContext(ctx context.Context) *domainauth.Session {
	if s, ok := ctx.Value(sessionKey{}).(*domainauth.Session); ok {
		return s
	}
	return nil
}

// SetAuthStateInContext stores the routing view of the session.
func SetAuthStateInContext(ctx context.Context, st domainauth.State) context.Context {
	return context.WithValue(ctx, stateKey{}, st)
}

// AuthStateFromContext returns the resolved auth state. Requests that skipped the
// session middleware are anonymous.
func AuthStateFromContext(ctx context.Context) domainauth.State {
	if st, ok := ctx.Value(stateKey{}).(domainauth.State); ok {
		return st
	}
	return domainauth.Anonymous()
}
