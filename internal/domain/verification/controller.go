// Package verification implements the two-phase e-mail verification flow: the token is
// checked without being consumed, and only an explicit user confirmation consumes it.
package verification

import (
	"context"
	"log/slog"
	"sync"

	apperrors "github.com/narrai/narrai-web/internal/errors"
)

// Status is the controller state.
type Status string

const (
	StatusLoading         Status = "loading"
	StatusReady           Status = "ready"
	StatusVerifying       Status = "verifying"
	StatusSuccess         Status = "success"
	StatusAlreadyVerified Status = "already_verified"
	StatusError           Status = "error"
)

// Terminal reports whether no further transition can happen for this mount.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusAlreadyVerified || s == StatusError
}

const (
	msgMissingToken   = "Invalid verification link. No token was provided."
	msgInvalidToken   = "This verification link is invalid or has expired."
	msgCheckFailed    = "We could not check your verification link. Please try again later."
	msgAlreadyDone    = "Your email address is already verified. You can sign in."
	msgConfirmed      = "Your email address has been verified. You can now sign in."
	msgConfirmFailed  = "Verification failed. The link may have expired; request a new one."
	msgReadyToConfirm = "Confirm to verify your email address."
)

// CheckResult is the backend answer to a read-only token check.
type CheckResult struct {
	Valid           bool   `json:"valid"`
	AlreadyVerified bool   `json:"already_verified"`
	Email           string `json:"email"`
	Message         string `json:"message"`
}

// ConfirmResult is the backend answer to a token confirmation.
type ConfirmResult struct {
	Message string `json:"message"`
}

// TokenAPI is the part of the account backend the controller calls.
// CheckVerificationToken must not consume the token; VerifyEmail does.
type TokenAPI interface {
	CheckVerificationToken(ctx context.Context, token string) (CheckResult, error)
	VerifyEmail(ctx context.Context, token string) (ConfirmResult, error)
}

// Snapshot is a copy of the controller state.
type Snapshot struct {
	Status  Status
	Email   string
	Message string
	Err     error
}

// TransitionFunc observes state changes. It runs with the controller lock held and must not call back into it.
type TransitionFunc func(from, to Status)

// Options configures a Controller.
type Options struct {
	Token        string
	API          TokenAPI
	Logger       *slog.Logger
	OnTransition TransitionFunc
}

// Controller drives one mounted verification view. It is safe for concurrent use.
type Controller struct {
	api    TokenAPI
	token  string
	logger *slog.Logger
	notify TransitionFunc

	mountCtx context.Context
	unmount  context.CancelFunc

	mu        sync.Mutex
	state     Snapshot
	checked   bool
	unmounted bool
}

// NewController mounts a controller. Without a token it starts in error and never calls the API.
func NewController(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		api:      opts.API,
		token:    opts.Token,
		logger:   logger.With("component", "verification"),
		notify:   opts.OnTransition,
		mountCtx: ctx,
		unmount:  cancel,
		state:    Snapshot{Status: StatusLoading},
	}
	if opts.Token == "" {
		c.state = Snapshot{
			Status:  StatusError,
			Message: msgMissingToken,
			Err:     apperrors.MissingToken(msgMissingToken),
		}
		c.checked = true
	}
	return c
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start checks the token once. Later calls return the current state without another check.
func (c *Controller) Start(ctx context.Context) Snapshot {
	c.mu.Lock()
	if c.checked || c.unmounted {
		s := c.state
		c.mu.Unlock()
		return s
	}
	c.checked = true
	c.mu.Unlock()

	callCtx, done := c.callContext(ctx)
	res, err := c.api.CheckVerificationToken(callCtx, c.token)
	done()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unmounted {
		return c.state
	}
	switch {
	case err != nil:
		c.logger.Warn("verification token check failed", "error", err)
		c.transition(Snapshot{Status: StatusError, Message: apperrors.UserMessage(err, msgCheckFailed), Err: err})
	case res.AlreadyVerified:
		c.transition(Snapshot{
			Status:  StatusAlreadyVerified,
			Email:   res.Email,
			Message: orDefault(res.Message, msgAlreadyDone),
		})
	case res.Valid:
		c.transition(Snapshot{Status: StatusReady, Email: res.Email, Message: msgReadyToConfirm})
	default:
		msg := orDefault(res.Message, msgInvalidToken)
		c.transition(Snapshot{Status: StatusError, Email: res.Email, Message: msg, Err: apperrors.InvalidToken(msg)})
	}
	return c.state
}

// Confirm consumes the token. It only acts in the ready state; any other state,
// including an in-flight confirmation, makes it a no-op that returns the current state.
func (c *Controller) Confirm(ctx context.Context) Snapshot {
	c.mu.Lock()
	if c.unmounted || c.state.Status != StatusReady {
		s := c.state
		c.mu.Unlock()
		return s
	}
	email := c.state.Email
	c.transition(Snapshot{Status: StatusVerifying, Email: email})
	c.mu.Unlock()

	callCtx, done := c.callContext(ctx)
	res, err := c.api.VerifyEmail(callCtx, c.token)
	done()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unmounted {
		return c.state
	}
	if err != nil {
		c.logger.Warn("email verification failed", "error", err)
		c.transition(Snapshot{Status: StatusError, Email: email, Message: apperrors.UserMessage(err, msgConfirmFailed), Err: err})
		return c.state
	}
	c.transition(Snapshot{Status: StatusSuccess, Email: email, Message: orDefault(res.Message, msgConfirmed)})
	return c.state
}

// Unmount cancels in-flight calls. Their results are discarded.
func (c *Controller) Unmount() {
	c.mu.Lock()
	c.unmounted = true
	c.mu.Unlock()
	c.unmount()
}

// Unmounted reports whether Unmount was called.
func (c *Controller) Unmounted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unmounted
}

// callContext derives a context cancelled by either the caller or Unmount.
func (c *Controller) callContext(ctx context.Context) (context.Context, func()) {
	callCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.mountCtx, cancel)
	return callCtx, func() {
		stop()
		cancel()
	}
}

// transition must be called with mu held.
func (c *Controller) transition(next Snapshot) {
	from := c.state.Status
	c.state = next
	if c.notify != nil && from != next.Status {
		c.notify(from, next.Status)
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
