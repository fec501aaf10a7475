package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	apperrors "github.com/narrai/narrai-web/internal/errors"
	"github.com/narrai/narrai-web/internal/ports"
	"github.com/narrai/narrai-web/internal/validation"
)

// AccountService validates account forms locally and forwards them to the account backend.
// Invalid input never reaches the backend.
type AccountService struct {
	api    ports.AccountAPI
	logger *slog.Logger
}

// NewAccountService constructs an AccountService.
func NewAccountService(api ports.AccountAPI, logger *slog.Logger) *AccountService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountService{api: api, logger: logger.With("component", "account_service")}
}

// RegisterForm is the sign-up form.
type RegisterForm struct {
	FirstName       string `form:"first_name" validate:"required,max=100"`
	LastName        string `form:"last_name" validate:"required,max=100"`
	Email           string `form:"email" validate:"required,email,max=254"`
	Password        string `form:"password" validate:"required,min=6,max=128"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=Password"`
}

// Register creates an account and returns the message to show the user.
func (s *AccountService) Register(ctx context.Context, form RegisterForm) (string, error) {
	form.FirstName = strings.TrimSpace(form.FirstName)
	form.LastName = strings.TrimSpace(form.LastName)
	form.Email = strings.TrimSpace(form.Email)
	if err := validationError(validation.Struct(form)); err != nil {
		return "", err
	}

	msg, err := s.api.Register(ctx, ports.RegisterInput{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Password:  form.Password,
	})
	if err != nil {
		return "", fmt.Errorf("register: %w", err)
	}
	if msg == "" {
		msg = "Account created. Check your inbox to verify your email address."
	}
	return msg, nil
}

// ForgotPasswordForm requests a reset e-mail.
type ForgotPasswordForm struct {
	Email string `form:"email" validate:"required,email,max=254"`
}

// ForgotPassword asks the backend to send a reset link. The reply does not reveal whether
// the address is registered.
func (s *AccountService) ForgotPassword(ctx context.Context, form ForgotPasswordForm) (string, error) {
	form.Email = strings.TrimSpace(form.Email)
	if err := validationError(validation.Struct(form)); err != nil {
		return "", err
	}
	if err := s.api.ForgotPassword(ctx, form.Email); err != nil {
		if apperrors.IsNotFound(err) {
			s.logger.DebugContext(ctx, "forgot password for unknown address")
		} else {
			return "", fmt.Errorf("forgot password: %w", err)
		}
	}
	return "If an account exists for that address, a reset link is on its way.", nil
}

// ResetPasswordForm sets a new password using a reset token.
type ResetPasswordForm struct {
	Token           string `form:"token"`
	Password        string `form:"password" validate:"required,min=6,max=128"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=Password"`
}

// ResetPassword validates the new password locally, then consumes the reset token.
func (s *AccountService) ResetPassword(ctx context.Context, form ResetPasswordForm) (string, error) {
	if strings.TrimSpace(form.Token) == "" {
		return "", apperrors.MissingToken("Invalid reset link. No token was provided.")
	}
	if err := validationError(validation.Struct(form)); err != nil {
		return "", err
	}
	if err := s.api.ResetPassword(ctx, form.Token, form.Password); err != nil {
		return "", fmt.Errorf("reset password: %w", err)
	}
	return "Your password has been reset. You can now sign in.", nil
}
