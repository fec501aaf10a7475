package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/narrai/narrai-web/internal/ports"
)

// DismissAction is how the user left the onboarding carousel.
type DismissAction string

const (
	DismissComplete DismissAction = "complete"
	DismissSkip     DismissAction = "skip"
)

// OnboardingService tracks whether a user has seen the onboarding carousel.
type OnboardingService struct {
	store  ports.OnboardingStore
	logger *slog.Logger
}

// NewOnboardingService constructs an OnboardingService.
func NewOnboardingService(store ports.OnboardingStore, logger *slog.Logger) *OnboardingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnboardingService{store: store, logger: logger.With("component", "onboarding_service")}
}

// HasSeenCarousel reports whether userID dismissed the carousel. A store failure is
// reported as seen so the user is not trapped behind the carousel.
func (s *OnboardingService) HasSeenCarousel(ctx context.Context, userID string) bool {
	seen, err := s.store.HasSeenCarousel(ctx, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "onboarding lookup failed", "user_id", userID, "error", err)
		return true
	}
	return seen
}

// Dismiss records a complete or skip action. Each call persists exactly once.
func (s *OnboardingService) Dismiss(ctx context.Context, userID string, action DismissAction) error {
	if userID == "" {
		return errors.New("user ID is required")
	}
	switch action {
	case DismissComplete, DismissSkip:
	default:
		return fmt.Errorf("unknown onboarding action %q", action)
	}
	if err := s.store.MarkCarouselSeen(ctx, userID); err != nil {
		return fmt.Errorf("mark carousel seen: %w", err)
	}
	s.logger.InfoContext(ctx, "onboarding dismissed", "user_id", userID, "action", action)
	return nil
}

// Reset shows the carousel again on the user's next visit.
func (s *OnboardingService) Reset(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.New("user ID is required")
	}
	if err := s.store.ResetCarousel(ctx, userID); err != nil {
		return fmt.Errorf("reset carousel: %w", err)
	}
	return nil
}
