package auth

// Package auth contains hand-written test doubles for the auth and onboarding ports.
// They are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domainauth "github.com/narrai/narrai-web/internal/domain/auth"
	"github.com/narrai/narrai-web/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthProvider    = (*MockAuthProvider)(nil)
	_ ports.SessionStore    = (*MemorySessionStore)(nil)
	_ ports.RoleMapper      = (*StaticRoleMapper)(nil)
	_ ports.OnboardingStore = (*MemoryOnboardingStore)(nil)
)

// ErrNotFound is returned by the doubles when an entity is not present.
var ErrNotFound = errors.New("not found")

// MockAuthProvider simulates an IdP with deterministic state/nonce values.
type MockAuthProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (authURL, state, nonce string, err error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error)

	AuthURL     string
	DefaultUser domainauth.Identity

	mu    sync.Mutex
	calls int
}

// NewMockAuthProvider creates a MockAuthProvider with a default reader identity.
func NewMockAuthProvider() *MockAuthProvider {
	return &MockAuthProvider{
		AuthURL: "https://mock-idp/auth",
		DefaultUser: domainauth.Identity{
			UserID:    "reader-1",
			FirstName: "Ada",
			LastName:  "Reader",
			Email:     "ada.reader@example.com",
			Groups:    []string{"readers"},
		},
	}
}

func (m *MockAuthProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}
	m.mu.Lock()
	m.calls++
	n := m.calls
	m.mu.Unlock()

	authURL := m.AuthURL
	if authURL == "" {
		authURL = "https://mock-idp/auth"
	}
	return authURL, fmt.Sprintf("state-%d", n), fmt.Sprintf("nonce-%d", n), nil
}

func (m *MockAuthProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}
	user := m.DefaultUser
	user.ExpiresAt = time.Now().Add(time.Hour)
	return user, nil
}

// MemorySessionStore is an in-memory session store. Set Err to simulate an unreachable store.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]domainauth.Session
	Err      error
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]domainauth.Session)}
}

func (m *MemorySessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sessions[sess.ID] = sess
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return domainauth.Session{}, m.Err
	}
	sess, ok := m.sessions[id]
	if !ok {
		return domainauth.Session{}, ErrNotFound
	}
	return sess, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	delete(m.sessions, id)
	return nil
}

// Len returns the number of stored sessions.
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// StaticRoleMapper maps identities by group membership, honoring a role already set on the identity.
type StaticRoleMapper struct {
	AdminGroup string
	UserGroup  string
}

func (m StaticRoleMapper) Map(id domainauth.Identity) domainauth.Role {
	if id.Role != "" {
		return id.Role
	}
	for _, g := range id.Groups {
		if m.AdminGroup != "" && g == m.AdminGroup {
			return domainauth.RoleAdmin
		}
	}
	for _, g := range id.Groups {
		if m.UserGroup != "" && g == m.UserGroup {
			return domainauth.RoleUser
		}
	}
	return domainauth.RoleGuest
}

// MemoryOnboardingStore records carousel dismissals and counts persistence calls.
type MemoryOnboardingStore struct {
	mu        sync.Mutex
	seen      map[string]bool
	markCalls map[string]int
	Err       error
}

// NewMemoryOnboardingStore creates an empty onboarding store.
func NewMemoryOnboardingStore() *MemoryOnboardingStore {
	return &MemoryOnboardingStore{seen: map[string]bool{}, markCalls: map[string]int{}}
}

func (m *MemoryOnboardingStore) HasSeenCarousel(_ context.Context, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	return m.seen[userID], nil
}

func (m *MemoryOnboardingStore) MarkCarouselSeen(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markCalls[userID]++
	if m.Err != nil {
		return m.Err
	}
	m.seen[userID] = true
	return nil
}

func (m *MemoryOnboardingStore) ResetCarousel(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	delete(m.seen, userID)
	return nil
}

// MarkCalls returns how many times MarkCarouselSeen was called for userID.
func (m *MemoryOnboardingStore) MarkCalls(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.markCalls[userID]
}
