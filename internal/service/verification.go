package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/narrai/narrai-web/internal/domain/verification"
	apperrors "github.com/narrai/narrai-web/internal/errors"
	"github.com/narrai/narrai-web/internal/observability/metrics"
	"github.com/narrai/narrai-web/internal/observability/statsd"
)

const (
	defaultMountTTL        = 15 * time.Minute
	defaultJanitorInterval = time.Minute
	defaultMaxMounts       = 10000
)

// ErrMountNotFound is returned for unknown or expired verification mounts.
var ErrMountNotFound = apperrors.NotFound("This verification page has expired. Open the link from your email again.")

// VerificationServiceOptions groups dependencies for VerificationService.
type VerificationServiceOptions struct {
	API             verification.TokenAPI // Required
	TTL             time.Duration         // idle lifetime of a mount
	JanitorInterval time.Duration
	MaxMounts       int
	Logger          *slog.Logger
	Metrics         statsd.Sink
}

// VerificationService keeps one verification controller per mounted page, addressed by a
// random mount id so the confirm post reaches the controller that did the check.
type VerificationService struct {
	api       verification.TokenAPI
	ttl       time.Duration
	interval  time.Duration
	maxMounts int
	logger    *slog.Logger
	metrics   statsd.Sink
	now       func() time.Time

	mu     sync.Mutex
	mounts map[string]*mount
}

type mount struct {
	ctrl    *verification.Controller
	expires time.Time
}

// NewVerificationService constructs a VerificationService.
func NewVerificationService(opts VerificationServiceOptions) (*VerificationService, error) {
	if opts.API == nil {
		return nil, errors.New("verification API is required")
	}
	s := &VerificationService{
		api:       opts.API,
		ttl:       opts.TTL,
		interval:  opts.JanitorInterval,
		maxMounts: opts.MaxMounts,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		now:       time.Now,
		mounts:    make(map[string]*mount),
	}
	if s.ttl <= 0 {
		s.ttl = defaultMountTTL
	}
	if s.interval <= 0 {
		s.interval = defaultJanitorInterval
	}
	if s.maxMounts <= 0 {
		s.maxMounts = defaultMaxMounts
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "verification_service")
	return s, nil
}

// Mount creates a controller for token, checks the token once and returns the mount id.
func (s *VerificationService) Mount(ctx context.Context, token string) (string, verification.Snapshot) {
	ctrl := verification.NewController(verification.Options{
		Token:  token,
		API:    s.api,
		Logger: s.logger,
		OnTransition: func(from, to verification.Status) {
			metrics.EmitVerificationTransition(s.metrics, string(from), string(to))
		},
	})
	id := uuid.NewString()

	s.mu.Lock()
	if len(s.mounts) >= s.maxMounts {
		s.evictLocked()
	}
	s.mounts[id] = &mount{ctrl: ctrl, expires: s.now().Add(s.ttl)}
	n := len(s.mounts)
	s.mu.Unlock()
	metrics.EmitVerificationMounts(s.metrics, n)

	return id, ctrl.Start(ctx)
}

// Confirm forwards an explicit user confirmation to the mounted controller.
func (s *VerificationService) Confirm(ctx context.Context, id string) (verification.Snapshot, error) {
	ctrl, ok := s.lookup(id)
	if !ok {
		return verification.Snapshot{}, ErrMountNotFound
	}
	return ctrl.Confirm(ctx), nil
}

// State returns the current snapshot of a mount.
func (s *VerificationService) State(id string) (verification.Snapshot, error) {
	ctrl, ok := s.lookup(id)
	if !ok {
		return verification.Snapshot{}, ErrMountNotFound
	}
	return ctrl.Snapshot(), nil
}

// Unmount discards a mount and cancels anything it has in flight.
func (s *VerificationService) Unmount(id string) {
	s.mu.Lock()
	m, ok := s.mounts[id]
	delete(s.mounts, id)
	s.mu.Unlock()
	if ok {
		m.ctrl.Unmount()
	}
}

// Len returns the number of live mounts.
func (s *VerificationService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.mounts)
}

// Run sweeps expired mounts until ctx is cancelled, then unmounts everything left.
func (s *VerificationService) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.unmountAll()
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.DebugContext(ctx, "expired verification mounts removed", "count", n)
			}
		}
	}
}

// Sweep unmounts every expired mount and returns how many were removed.
func (s *VerificationService) Sweep() int {
	now := s.now()
	var expired []*verification.Controller

	s.mu.Lock()
	for id, m := range s.mounts {
		if !now.Before(m.expires) {
			expired = append(expired, m.ctrl)
			delete(s.mounts, id)
		}
	}
	n := len(s.mounts)
	s.mu.Unlock()

	for _, c := range expired {
		c.Unmount()
	}
	metrics.EmitVerificationMounts(s.metrics, n)
	return len(expired)
}

func (s *VerificationService) lookup(id string) (*verification.Controller, bool) {
	if id == "" {
		return nil, false
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.mounts[id]
	if !ok {
		return nil, false
	}
	if !now.Before(m.expires) {
		delete(s.mounts, id)
		m.ctrl.Unmount()
		return nil, false
	}
	m.expires = now.Add(s.ttl)
	return m.ctrl, true
}

// evictLocked drops the mount closest to expiry. Must be called with mu held.
func (s *VerificationService) evictLocked() {
	var (
		oldestID string
		oldest   *mount
	)
	for id, m := range s.mounts {
		if oldest == nil || m.expires.Before(oldest.expires) {
			oldestID, oldest = id, m
		}
	}
	if oldest != nil {
		delete(s.mounts, oldestID)
		oldest.ctrl.Unmount()
	}
}

func (s *VerificationService) unmountAll() {
	s.mu.Lock()
	mounts := s.mounts
	s.mounts = make(map[string]*mount)
	s.mu.Unlock()
	for _, m := range mounts {
		m.ctrl.Unmount()
	}
}
