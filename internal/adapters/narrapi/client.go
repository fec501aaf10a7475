// Package narrapi is the HTTP client for the NarrAI backend account API.
package narrapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domainauth "github.com/narrai/narrai-web/internal/domain/auth"
	"github.com/narrai/narrai-web/internal/domain/verification"
	apperrors "github.com/narrai/narrai-web/internal/errors"
	"github.com/narrai/narrai-web/internal/observability/metrics"
	"github.com/narrai/narrai-web/internal/observability/statsd"
	"github.com/narrai/narrai-web/internal/ports"
)

var _ ports.AccountAPI = (*Client)(nil)

const (
	defaultTimeout    = 10 * time.Second
	maxErrorBodyBytes = 64 << 10
	msgUnreachable    = "We could not reach NarrAI. Please try again in a moment."
)

// Config configures a Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client // optional
	Logger     *slog.Logger
	Metrics    statsd.Sink // optional
}

// Client talks to the NarrAI backend.
type Client struct {
	base    *url.URL
	http    *http.Client
	logger  *slog.Logger
	metrics statsd.Sink
	now     func() time.Time
}

// New creates a Client for cfg.BaseURL.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("backend base URL is required")
	}
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("backend base URL must be http(s), got %q", base.Scheme)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		base:    base,
		http:    hc,
		logger:  logger.With("component", "narrapi"),
		metrics: cfg.Metrics,
		now:     time.Now,
	}, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userPayload struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

type loginResponse struct {
	AccessToken string      `json:"access_token"`
	User        userPayload `json:"user"`
}

// Login exchanges credentials for a backend access token and the user profile.
func (c *Client) Login(ctx context.Context, in ports.LoginInput) (domainauth.Identity, error) {
	var out loginResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", nil, loginRequest(in), &out, tokenUnused)
	if err != nil {
		return domainauth.Identity{}, err
	}
	if out.AccessToken == "" {
		return domainauth.Identity{}, apperrors.Internal("login response did not include an access token")
	}
	claims := c.tokenClaims(out.AccessToken)

	id := domainauth.Identity{
		UserID:      firstNonEmpty(out.User.ID, claims.Subject),
		FirstName:   out.User.FirstName,
		LastName:    out.User.LastName,
		Email:       firstNonEmpty(out.User.Email, claims.Email),
		Role:        domainauth.ParseRole(firstNonEmpty(out.User.Role, claims.Role)),
		AccessToken: out.AccessToken,
		ExpiresAt:   c.now().Add(24 * time.Hour),
	}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}

type registerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Register creates an account. The backend sends the verification e-mail.
func (c *Client) Register(ctx context.Context, in ports.RegisterInput) (string, error) {
	var out messageResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, registerRequest(in), &out, tokenUnused); err != nil {
		return "", err
	}
	return out.Message, nil
}

// ForgotPassword asks the backend to e-mail a reset link.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return c.do(ctx, http.MethodPost, "/auth/forgot-password", nil, body, nil, tokenUnused)
}

// ResetPassword consumes a reset token.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	body := map[string]string{"token": token, "new_password": newPassword}
	return c.do(ctx, http.MethodPost, "/auth/reset-password", nil, body, nil, tokenBearing)
}

// CheckVerificationToken inspects a verification token. It does not consume it.
func (c *Client) CheckVerificationToken(ctx context.Context, token string) (verification.CheckResult, error) {
	var out verification.CheckResult
	q := url.Values{"token": []string{token}}
	if err := c.do(ctx, http.MethodGet, "/auth/verify-email/check", q, nil, &out, tokenBearing); err != nil {
		return verification.CheckResult{}, err
	}
	return out, nil
}

// VerifyEmail consumes a verification token.
func (c *Client) VerifyEmail(ctx context.Context, token string) (verification.ConfirmResult, error) {
	var out verification.ConfirmResult
	body := map[string]string{"token": token}
	if err := c.do(ctx, http.MethodPost, "/auth/verify-email", nil, body, &out, tokenBearing); err != nil {
		return verification.ConfirmResult{}, err
	}
	return out, nil
}

// tokenUse selects how 4xx responses are classified.
type tokenUse bool

const (
	tokenUnused  tokenUse = false
	tokenBearing tokenUse = true
)

func (c *Client) do(
	ctx context.Context,
	method, path string,
	query url.Values,
	body, out any,
	use tokenUse,
) error {
	start := c.now()
	err := c.send(ctx, method, path, query, body, out, use)
	metrics.EmitBackendCall(c.metrics, opName(path), c.now().Sub(start), err)
	return err
}

// opName turns an API path into a metric tag value, e.g. auth.verify-email.check.
func opName(path string) string {
	return strings.ReplaceAll(strings.Trim(path, "/"), "/", ".")
}

func (c *Client) send(
	ctx context.Context,
	method, path string,
	query url.Values,
	body, out any,
	use tokenUse,
) error {
	u := *c.base
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s body: %w", path, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return apperrors.Wrap(err, apperrors.ErrCodeCanceled, "Request was canceled.")
		}
		c.logger.WarnContext(ctx, "backend request failed", "method", method, "path", path, "error", err)
		return apperrors.Network(err, msgUnreachable)
	}
	defer resp.Body.Close()

	c.logger.DebugContext(ctx, "backend request",
		"method", method, "path", path, "status", resp.StatusCode, "duration", c.now().Sub(start))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}
		if decErr := json.NewDecoder(resp.Body).Decode(out); decErr != nil && !errors.Is(decErr, io.EOF) {
			return apperrors.Network(decErr, msgUnreachable)
		}
		return nil
	}
	return classify(resp, use)
}

type errorBody struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// classify maps a non-2xx backend response onto the error taxonomy.
func classify(resp *http.Response, use tokenUse) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	var eb errorBody
	_ = json.Unmarshal(raw, &eb)
	msg := firstNonEmpty(eb.Detail, eb.Message, eb.Error)
	cause := fmt.Errorf("backend status %d", resp.StatusCode)

	switch {
	case resp.StatusCode >= 500:
		return apperrors.Network(cause, msgUnreachable)
	case resp.StatusCode == http.StatusUnauthorized:
		return apperrors.Wrap(cause, apperrors.ErrCodeUnauthorized, firstNonEmpty(msg, "Invalid email or password."))
	case resp.StatusCode == http.StatusConflict:
		return apperrors.Wrap(cause, apperrors.ErrCodeConflict, firstNonEmpty(msg, "An account with this email already exists."))
	case use == tokenBearing && (resp.StatusCode == http.StatusBadRequest ||
		resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone):
		return apperrors.Wrap(cause, apperrors.ErrCodeInvalidToken, firstNonEmpty(msg, "This link is invalid or has expired."))
	case resp.StatusCode == http.StatusTooManyRequests:
		return apperrors.Wrap(cause, apperrors.ErrCodeNetwork, firstNonEmpty(msg, "Too many attempts. Please wait and try again."))
	default:
		return apperrors.Wrap(cause, apperrors.ErrCodeValidation, firstNonEmpty(msg, "The request was rejected."))
	}
}

// accessClaims are the backend token claims the front end reads.
type accessClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// tokenClaims decodes the access token without verifying it. The backend is the
// verifier; the front end only reads expiry and role for session bookkeeping.
func (c *Client) tokenClaims(token string) accessClaims {
	var claims accessClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		c.logger.Debug("access token is not a readable JWT", "error", err)
		return accessClaims{}
	}
	return claims
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
