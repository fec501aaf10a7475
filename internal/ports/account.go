package ports

import (
	"context"

	domainauth "github.com/narrai/narrai-web/internal/domain/auth"
	"github.com/narrai/narrai-web/internal/domain/verification"
)

// LoginInput carries password credentials.
type LoginInput struct {
	Email    string
	Password string
}

// RegisterInput carries the sign-up form.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// AccountAPI is the NarrAI backend account surface.
//
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=../mocks/account_api_mock.go github.com/narrai/narrai-web/internal/ports AccountAPI
type AccountAPI interface {
	Login(ctx context.Context, in LoginInput) (domainauth.Identity, error)
	// Register creates the account and triggers the verification e-mail. It returns the backend message.
	Register(ctx context.Context, in RegisterInput) (string, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	// CheckVerificationToken inspects a verification token without consuming it.
	CheckVerificationToken(ctx context.Context, token string) (verification.CheckResult, error)
	// VerifyEmail consumes a verification token.
	VerifyEmail(ctx context.Context, token string) (verification.ConfirmResult, error)
}

// OnboardingStore persists whether a user has dismissed the onboarding carousel.
type OnboardingStore interface {
	HasSeenCarousel(ctx context.Context, userID string) (bool, error)
	// MarkCarouselSeen records the dismissal. Marking twice is harmless.
	MarkCarouselSeen(ctx context.Context, userID string) error
	// ResetCarousel clears the flag so the carousel shows again.
	ResetCarousel(ctx context.Context, userID string) error
}
