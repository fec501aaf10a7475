package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainauth "github.com/narrai/narrai-web/internal/domain/auth"
	apperrors "github.com/narrai/narrai-web/internal/errors"
	"github.com/narrai/narrai-web/internal/mocks"
	authmocks "github.com/narrai/narrai-web/internal/mocks/auth"
	"github.com/narrai/narrai-web/internal/ports"
)

// mockSessionStore is a test helper for testing session store errors.
type mockSessionStore struct {
	saveFunc   func(context.Context, domainauth.Session) error
	getFunc    func(context.Context, string) (domainauth.Session, error)
	deleteFunc func(context.Context, string) error
}

func (m *mockSessionStore) Save(ctx context.Context, sess domainauth.Session) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, sess)
	}
	return nil
}

func (m *mockSessionStore) Get(ctx context.Context, id string) (domainauth.Session, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return domainauth.Session{}, nil
}

func (m *mockSessionStore) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

var testRoles = authmocks.StaticRoleMapper{AdminGroup: "admins", UserGroup: "readers"}

func newSSOService(provider ports.AuthProvider, sessions ports.SessionStore) *AuthService {
	return NewAuthService(AuthServiceOptions{Provider: provider, Sessions: sessions, Roles: testRoles})
}

func TestAuthService_BeginLogin(t *testing.T) {
	svc := newSSOService(authmocks.NewMockAuthProvider(), authmocks.NewMemorySessionStore())

	result, err := svc.BeginLogin(context.Background(), "http://localhost:8080/auth/callback")

	require.NoError(t, err)
	assert.Equal(t, "https://mock-idp/auth", result.AuthURL)
	assert.Equal(t, "state-1", result.State)
	assert.Equal(t, "nonce-1", result.Nonce)
}

func TestAuthService_BeginLogin_Errors(t *testing.T) {
	t.Run("empty redirect", func(t *testing.T) {
		svc := newSSOService(authmocks.NewMockAuthProvider(), authmocks.NewMemorySessionStore())
		_, err := svc.BeginLogin(context.Background(), "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redirect URL is required")
	})

	t.Run("provider error", func(t *testing.T) {
		provider := &authmocks.MockAuthProvider{
			BeginFunc: func(context.Context, ports.BeginInput) (string, string, string, error) {
				return "", "", "", errors.New("provider error")
			},
		}
		svc := newSSOService(provider, authmocks.NewMemorySessionStore())
		_, err := svc.BeginLogin(context.Background(), "http://localhost/cb")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "begin auth flow")
	})

	t.Run("sso disabled", func(t *testing.T) {
		svc := newSSOService(nil, authmocks.NewMemorySessionStore())
		assert.False(t, svc.SSOEnabled())
		_, err := svc.BeginLogin(context.Background(), "http://localhost/cb")
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestAuthService_CompleteLogin(t *testing.T) {
	sessions := authmocks.NewMemorySessionStore()
	svc := newSSOService(authmocks.NewMockAuthProvider(), sessions)

	sess, err := svc.CompleteLogin(context.Background(), CompleteLoginInput{Code: "c", State: "s", Nonce: "n"})

	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "reader-1", sess.UserID)
	assert.Equal(t, "Ada", sess.FirstName)
	assert.Equal(t, domainauth.RoleUser, sess.Role)
	assert.True(t, sess.ExpiresAt.After(time.Now()))
	assert.Equal(t, 1, sessions.Len())
}

func TestAuthService_CompleteLogin_AdminRole(t *testing.T) {
	provider := &authmocks.MockAuthProvider{DefaultUser: domainauth.Identity{
		UserID: "admin-1",
		Email:  "admin@example.com",
		Groups: []string{"admins", "readers"},
	}}
	svc := newSSOService(provider, authmocks.NewMemorySessionStore())

	sess, err := svc.CompleteLogin(context.Background(), CompleteLoginInput{Code: "c", State: "s", Nonce: "n"})

	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, sess.Role)
}

func TestAuthService_CompleteLogin_MissingParams(t *testing.T) {
	svc := newSSOService(authmocks.NewMockAuthProvider(), authmocks.NewMemorySessionStore())
	tests := []struct {
		name  string
		input CompleteLoginInput
		want  string
	}{
		{"code", CompleteLoginInput{State: "s", Nonce: "n"}, "authorization code is required"},
		{"state", CompleteLoginInput{Code: "c", Nonce: "n"}, "state parameter is required"},
		{"nonce", CompleteLoginInput{Code: "c", State: "s"}, "nonce parameter is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CompleteLogin(context.Background(), tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestAuthService_CompleteLogin_SaveError(t *testing.T) {
	store := &mockSessionStore{saveFunc: func(context.Context, domainauth.Session) error {
		return errors.New("redis down")
	}}
	svc := newSSOService(authmocks.NewMockAuthProvider(), store)

	_, err := svc.CompleteLogin(context.Background(), CompleteLoginInput{Code: "c", State: "s", Nonce: "n"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "save session")
}

func TestAuthService_PasswordLogin(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mocks.NewMockAccountAPI(ctrl)
	sessions := authmocks.NewMemorySessionStore()
	svc := NewAuthService(AuthServiceOptions{Accounts: api, Sessions: sessions, Roles: testRoles, SessionTTL: time.Hour})

	exp := time.Now().Add(30 * time.Minute)
	api.EXPECT().
		Login(gomock.Any(), ports.LoginInput{Email: "ada@example.com", Password: "secret"}).
		Return(domainauth.Identity{
			UserID:      "u-1",
			Email:       "ada@example.com",
			Role:        domainauth.RoleAdmin,
			AccessToken: "tok",
			ExpiresAt:   exp,
		}, nil)

	sess, err := svc.PasswordLogin(context.Background(), LoginForm{Email: " ada@example.com ", Password: "secret"})

	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, sess.Role)
	assert.Equal(t, "tok", sess.AccessToken)
	assert.WithinDuration(t, exp, sess.ExpiresAt, time.Second)
}

func TestAuthService_PasswordLogin_CapsExpiry(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mocks.NewMockAccountAPI(ctrl)
	svc := NewAuthService(AuthServiceOptions{
		Accounts: api, Sessions: authmocks.NewMemorySessionStore(), Roles: testRoles, SessionTTL: time.Hour,
	})
	api.EXPECT().Login(gomock.Any(), gomock.Any()).
		Return(domainauth.Identity{UserID: "u-1", Role: domainauth.RoleUser}, nil)

	sess, err := svc.PasswordLogin(context.Background(), LoginForm{Email: "a@b.co", Password: "x"})

	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), sess.ExpiresAt, 5*time.Second)
}

func TestAuthService_PasswordLogin_InvalidFormSkipsBackend(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mocks.NewMockAccountAPI(ctrl) // no expectations: any call fails the test
	svc := NewAuthService(AuthServiceOptions{Accounts: api, Sessions: authmocks.NewMemorySessionStore(), Roles: testRoles})

	_, err := svc.PasswordLogin(context.Background(), LoginForm{Email: "not-an-email", Password: "x"})

	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "email", apperrors.GetField(err))
}

func TestAuthService_PasswordLogin_BackendRejects(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mocks.NewMockAccountAPI(ctrl)
	sessions := authmocks.NewMemorySessionStore()
	svc := NewAuthService(AuthServiceOptions{Accounts: api, Sessions: sessions, Roles: testRoles})
	api.EXPECT().Login(gomock.Any(), gomock.Any()).Return(domainauth.Identity{}, apperrors.Unauthorized("Invalid email or password."))

	_, err := svc.PasswordLogin(context.Background(), LoginForm{Email: "a@b.co", Password: "wrong"})

	assert.True(t, apperrors.IsUnauthorized(err))
	assert.Equal(t, 0, sessions.Len())
}

func TestAuthService_GetSession_Expired(t *testing.T) {
	deleted := ""
	store := &mockSessionStore{
		getFunc: func(_ context.Context, id string) (domainauth.Session, error) {
			return domainauth.Session{ID: id, ExpiresAt: time.Now().Add(-time.Minute)}, nil
		},
		deleteFunc: func(_ context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	svc := newSSOService(nil, store)

	_, err := svc.GetSession(context.Background(), "s-1")

	require.ErrorIs(t, err, errSessionExpired)
	assert.Equal(t, "s-1", deleted)
}

func TestAuthService_ResolveState(t *testing.T) {
	ctx := context.Background()
	sessions := authmocks.NewMemorySessionStore()
	require.NoError(t, sessions.Save(ctx, domainauth.Session{
		ID: "admin", UserID: "u-1", Role: domainauth.RoleAdmin, ExpiresAt: time.Now().Add(time.Hour),
	}))
	svc := newSSOService(nil, sessions)

	t.Run("no cookie is anonymous", func(t *testing.T) {
		st, sess := svc.ResolveState(ctx, "")
		assert.Equal(t, domainauth.Anonymous(), st)
		assert.Nil(t, sess)
	})

	t.Run("unknown session is anonymous", func(t *testing.T) {
		st, _ := svc.ResolveState(ctx, "missing")
		assert.False(t, st.Authenticated)
		assert.False(t, st.Loading)
	})

	t.Run("live session is authenticated", func(t *testing.T) {
		st, sess := svc.ResolveState(ctx, "admin")
		assert.True(t, st.Authenticated)
		assert.True(t, st.IsAdmin())
		require.NotNil(t, sess)
		assert.Equal(t, "u-1", sess.UserID)
	})

	t.Run("store outage is loading", func(t *testing.T) {
		down := authmocks.NewMemorySessionStore()
		down.Err = apperrors.Unavailable(errors.New("dial tcp: refused"), "session store unavailable")
		st, sess := newSSOService(nil, down).ResolveState(ctx, "admin")
		assert.Equal(t, domainauth.Pending(), st)
		assert.Nil(t, sess)
	})
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()
	sessions := authmocks.NewMemorySessionStore()
	require.NoError(t, sessions.Save(ctx, domainauth.Session{ID: "s-1", ExpiresAt: time.Now().Add(time.Hour)}))
	svc := newSSOService(nil, sessions)

	require.NoError(t, svc.Logout(ctx, ""))
	require.NoError(t, svc.Logout(ctx, "s-1"))
	assert.Equal(t, 0, sessions.Len())
}
