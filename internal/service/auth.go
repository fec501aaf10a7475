package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	domainauth "github.com/narrai/narrai-web/internal/domain/auth"
	apperrors "github.com/narrai/narrai-web/internal/errors"
	"github.com/narrai/narrai-web/internal/ports"
	"github.com/narrai/narrai-web/internal/validation"
)

// DefaultSessionTTL applies when the identity carries no expiry of its own.
const DefaultSessionTTL = 12 * time.Hour

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Provider   ports.AuthProvider // optional; nil disables SSO
	Accounts   ports.AccountAPI   // optional; nil disables password login
	Sessions   ports.SessionStore
	Roles      ports.RoleMapper
	SessionTTL time.Duration
	Logger     *slog.Logger
}

// AuthService orchestrates sign-in flows and resolves request sessions into routing state.
type AuthService struct {
	provider ports.AuthProvider
	accounts ports.AccountAPI
	sessions ports.SessionStore
	roles    ports.RoleMapper
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

var errSessionExpired = errors.New("session expired")

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		provider: opts.Provider,
		accounts: opts.Accounts,
		sessions: opts.Sessions,
		roles:    opts.Roles,
		ttl:      ttl,
		logger:   logger.With("component", "auth_service"),
		now:      time.Now,
	}
}

// SSOEnabled reports whether an SSO provider is configured.
func (s *AuthService) SSOEnabled() bool { return s.provider != nil }

// BeginLoginResult contains the result of beginning a login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginLogin initiates an SSO flow and returns the provider auth URL with state and nonce.
func (s *AuthService) BeginLogin(ctx context.Context, redirectURL string) (*BeginLoginResult, error) {
	if s.provider == nil {
		return nil, apperrors.NotFound("single sign-on is not enabled")
	}
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	authURL, state, nonce, err := s.provider.Begin(ctx, ports.BeginInput{RedirectURL: redirectURL})
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}
	return &BeginLoginResult{AuthURL: authURL, State: state, Nonce: nonce}, nil
}

// CompleteLoginInput groups parameters for completing an SSO flow.
type CompleteLoginInput struct {
	Code  string
	State string
	Nonce string
}

// CompleteLogin exchanges the code for an identity, maps its role and persists a session.
func (s *AuthService) CompleteLogin(ctx context.Context, input CompleteLoginInput) (*domainauth.Session, error) {
	if s.provider == nil {
		return nil, apperrors.NotFound("single sign-on is not enabled")
	}
	if input.Code == "" {
		return nil, errors.New("authorization code is required")
	}
	if input.State == "" {
		return nil, errors.New("state parameter is required")
	}
	if input.Nonce == "" {
		return nil, errors.New("nonce parameter is required")
	}

	identity, err := s.provider.Exchange(ctx, ports.ExchangeInput(input))
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return s.startSession(ctx, identity)
}

// LoginForm is the password sign-in form.
type LoginForm struct {
	Email    string `form:"email" validate:"required,email,max=254"`
	Password string `form:"password" validate:"required,max=128"`
}

// PasswordLogin authenticates against the account backend and persists a session.
func (s *AuthService) PasswordLogin(ctx context.Context, form LoginForm) (*domainauth.Session, error) {
	if s.accounts == nil {
		return nil, apperrors.NotFound("password sign-in is not enabled")
	}
	form.Email = strings.TrimSpace(form.Email)
	if err := validationError(validation.Struct(form)); err != nil {
		return nil, err
	}

	identity, err := s.accounts.Login(ctx, ports.LoginInput{Email: form.Email, Password: form.Password})
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return s.startSession(ctx, identity)
}

func (s *AuthService) startSession(ctx context.Context, identity domainauth.Identity) (*domainauth.Session, error) {
	expires := identity.ExpiresAt
	if limit := s.now().Add(s.ttl); expires.IsZero() || expires.After(limit) {
		expires = limit
	}
	session := domainauth.Session{
		ID:          uuid.NewString(),
		UserID:      identity.UserID,
		FirstName:   identity.FirstName,
		LastName:    identity.LastName,
		Email:       identity.Email,
		Role:        s.roles.Map(identity),
		AccessToken: identity.AccessToken,
		ExpiresAt:   expires,
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	s.logger.InfoContext(ctx, "session started", "user_id", session.UserID, "role", session.Role)
	return &session, nil
}

// GetSession retrieves a live session by ID.
func (s *AuthService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, errors.New("session ID is required")
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if !s.now().Before(session.ExpiresAt) {
		if deleteErr := s.sessions.Delete(ctx, sessionID); deleteErr != nil {
			return nil, errors.Join(errSessionExpired, fmt.Errorf("delete session: %w", deleteErr))
		}
		return nil, errSessionExpired
	}
	return &session, nil
}

// ResolveState maps a session cookie value onto routing state. A store outage yields the
// loading state rather than anonymous so the user is not bounced to the login page.
func (s *AuthService) ResolveState(ctx context.Context, sessionID string) (domainauth.State, *domainauth.Session) {
	if sessionID == "" {
		return domainauth.Anonymous(), nil
	}
	session, err := s.GetSession(ctx, sessionID)
	switch {
	case err == nil:
		return domainauth.StateOf(session), session
	case apperrors.IsUnavailable(err), apperrors.IsTimeout(err), errors.Is(err, context.DeadlineExceeded):
		s.logger.WarnContext(ctx, "session lookup unavailable", "error", err)
		return domainauth.Pending(), nil
	default:
		return domainauth.Anonymous(), nil
	}
}

// Logout removes a session.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// validationError converts field errors into a validation AppError carrying them as its cause.
func validationError(fe validation.FieldErrors) error {
	if len(fe) == 0 {
		return nil
	}
	field, msg := fe.First()
	err := apperrors.Wrap(fe, apperrors.ErrCodeValidation, msg)
	err.Field = field
	return err
}
