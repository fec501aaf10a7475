package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/narrai/narrai-web/internal/data/pgxutil"
	apperrors "github.com/narrai/narrai-web/internal/errors"
	"github.com/narrai/narrai-web/internal/ports"
)

var _ ports.OnboardingStore = (*OnboardingRepo)(nil)

// OnboardingRepo persists the onboarding carousel flag in user_onboarding.
type OnboardingRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewOnboardingRepo creates a new OnboardingRepo with real time provider.
func NewOnboardingRepo(db *sql.DB) *OnboardingRepo {
	return &OnboardingRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewOnboardingRepoWithTimeProvider creates a new OnboardingRepo with a custom time provider (useful for tests).
func NewOnboardingRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *OnboardingRepo {
	return &OnboardingRepo{DB: db, timeProvider: tp}
}

// HasSeenCarousel reports whether userID dismissed the carousel. Unknown users have not.
func (r *OnboardingRepo) HasSeenCarousel(ctx context.Context, userID string) (bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, ErrUserIDRequired
	}
	var seen bool
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx,
			`SELECT carousel_seen_at IS NOT NULL FROM user_onboarding WHERE user_id = $1`,
			userID,
		).Scan(&seen)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query onboarding: %w", apperrors.MapDBError(err))
	}
	return seen, nil
}

// MarkCarouselSeen records a dismissal. The first dismissal time is kept; the counter always increments.
func (r *OnboardingRepo) MarkCarouselSeen(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrUserIDRequired
	}
	now := r.timeProvider.Now().UTC()
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, `
			INSERT INTO user_onboarding (user_id, carousel_seen_at, dismissals, created_at, updated_at)
			VALUES ($1, $2, 1, $2, $2)
			ON CONFLICT (user_id) DO UPDATE SET
				carousel_seen_at = COALESCE(user_onboarding.carousel_seen_at, EXCLUDED.carousel_seen_at),
				dismissals = user_onboarding.dismissals + 1,
				updated_at = EXCLUDED.updated_at
		`, userID, now)
		return err
	})
	if err != nil {
		return fmt.Errorf("mark onboarding seen: %w", apperrors.MapDBError(err))
	}
	return nil
}

// ResetCarousel clears the flag so the carousel is shown on next sign-in.
func (r *OnboardingRepo) ResetCarousel(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrUserIDRequired
	}
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, err := conn.Exec(ctx,
			`UPDATE user_onboarding SET carousel_seen_at = NULL, updated_at = $2 WHERE user_id = $1`,
			userID, r.timeProvider.Now().UTC(),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("reset onboarding: %w", apperrors.MapDBError(err))
	}
	return nil
}

// Dismissals returns how many times userID dismissed the carousel.
func (r *OnboardingRepo) Dismissals(ctx context.Context, userID string) (int, error) {
	var n int
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx,
			`SELECT dismissals FROM user_onboarding WHERE user_id = $1`, userID,
		).Scan(&n)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query dismissals: %w", apperrors.MapDBError(err))
	}
	return n, nil
}
