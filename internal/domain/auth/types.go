package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import "time"

// Role represents an application's authorization role.
// Keep string form for easy persistence and cookies.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleGuest Role = "guest"
)

// ParseRole maps a backend or claim value onto a known role. Unknown values become guest.
func ParseRole(v string) Role {
	switch Role(v) {
	case RoleAdmin, RoleUser:
		return Role(v)
	default:
		return RoleGuest
	}
}

// Identity represents the authenticated principal returned by the account backend or an SSO IdP.
// Adapters map provider-specific claims into this shape.
type Identity struct {
	UserID      string
	FirstName   string
	LastName    string
	Email       string
	Groups      []string
	Role        Role           // set when the provider already knows the role (backend login)
	AccessToken string         // backend bearer token, empty for SSO identities
	Claims      map[string]any // raw IdP claims, SSO only
	ExpiresAt   time.Time
}

// Session is the server-side record we persist for an authenticated user.
// ID is an opaque session identifier placed in the session_id cookie.
type Session struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	Role        Role      `json:"role"`
	AccessToken string    `json:"access_token,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// IsGuest returns true if the session role is guest.
func (s Session) IsGuest() bool { return s.Role == RoleGuest }

// State is the view of authentication that routing decisions consume.
// Loading means the session could not be resolved yet, not that it is absent.
type State struct {
	Authenticated bool
	Loading       bool
	Role          Role
}

// Anonymous is the state of a request that carries no usable session.
func Anonymous() State { return State{Role: RoleGuest} }

// Pending is the state of a request whose session lookup has not completed.
func Pending() State { return State{Loading: true, Role: RoleGuest} }

// StateOf derives the routing state from a resolved session. A nil session is anonymous.
func StateOf(s *Session) State {
	if s == nil {
		return Anonymous()
	}
	return State{Authenticated: true, Role: s.Role}
}

// IsAdmin reports whether the state carries the admin role.
func (s State) IsAdmin() bool { return s.Authenticated && s.Role == RoleAdmin }
