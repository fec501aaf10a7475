package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	apperrors "github.com/narrai/narrai-web/internal/errors"
	"github.com/narrai/narrai-web/internal/mocks"
	"github.com/narrai/narrai-web/internal/ports"
	"github.com/narrai/narrai-web/internal/validation"
)

func TestAccountService_ResetPassword_Validation(t *testing.T) {
	tests := []struct {
		name      string
		form      ResetPasswordForm
		wantField string
	}{
		{"five characters rejected", ResetPasswordForm{Token: "t", Password: "12345", ConfirmPassword: "12345"}, "password"},
		{"six characters with mismatch rejected", ResetPasswordForm{Token: "t", Password: "123456", ConfirmPassword: "123457"}, "confirm_password"},
		{"empty confirmation rejected", ResetPasswordForm{Token: "t", Password: "123456"}, "confirm_password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			api := mocks.NewMockAccountAPI(ctrl) // any backend call fails the test
			svc := NewAccountService(api, nil)

			_, err := svc.ResetPassword(context.Background(), tt.form)

			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
			var fe validation.FieldErrors
			require.ErrorAs(t, err, &fe)
			assert.Contains(t, fe, tt.wantField)
		})
	}
}

func TestAccountService_ResetPassword_Submits(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mocks.NewMockAccountAPI(ctrl)
	api.EXPECT().ResetPassword(gomock.Any(), "tok", "123456").Return(nil).Times(1)
	svc := NewAccountService(api, nil)

	msg, err := svc.ResetPassword(context.Background(), ResetPasswordForm{
		Token: "tok", Password: "123456", ConfirmPassword: "123456",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, msg)
}

func TestAccountService_ResetPassword_MissingToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := NewAccountService(mocks.NewMockAccountAPI(ctrl), nil)

	_, err := svc.ResetPassword(context.Background(), ResetPasswordForm{Password: "123456", ConfirmPassword: "123456"})

	assert.True(t, apperrors.IsMissingToken(err))
}

func TestAccountService_ResetPassword_InvalidToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mocks.NewMockAccountAPI(ctrl)
	api.EXPECT().ResetPassword(gomock.Any(), "old", "123456").Return(apperrors.InvalidToken("This reset link is invalid or has expired."))
	svc := NewAccountService(api, nil)

	_, err := svc.ResetPassword(context.Background(), ResetPasswordForm{Token: "old", Password: "123456", ConfirmPassword: "123456"})

	assert.True(t, apperrors.IsInvalidToken(err))
	assert.Equal(t, "This reset link is invalid or has expired.", apperrors.UserMessage(err, ""))
}

func TestAccountService_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mocks.NewMockAccountAPI(ctrl)
	api.EXPECT().Register(gomock.Any(), ports.RegisterInput{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Password: "analytical",
	}).Return("", nil)
	svc := NewAccountService(api, nil)

	msg, err := svc.Register(context.Background(), RegisterForm{
		FirstName: " Ada ", LastName: "Lovelace", Email: "ada@example.com",
		Password: "analytical", ConfirmPassword: "analytical",
	})

	require.NoError(t, err)
	assert.Contains(t, msg, "verify your email")
}

func TestAccountService_Register_Invalid(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := NewAccountService(mocks.NewMockAccountAPI(ctrl), nil)

	_, err := svc.Register(context.Background(), RegisterForm{Email: "ada@example.com", Password: "analytical", ConfirmPassword: "analytical"})

	require.Error(t, err)
	var fe validation.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "first_name")
	assert.Contains(t, fe, "last_name")
}

func TestAccountService_ForgotPassword(t *testing.T) {
	t.Run("unknown address looks like success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		api := mocks.NewMockAccountAPI(ctrl)
		api.EXPECT().ForgotPassword(gomock.Any(), "ghost@example.com").Return(apperrors.NotFound("no such user"))
		svc := NewAccountService(api, nil)

		msg, err := svc.ForgotPassword(context.Background(), ForgotPasswordForm{Email: "ghost@example.com"})

		require.NoError(t, err)
		assert.NotEmpty(t, msg)
	})

	t.Run("network failure surfaces", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		api := mocks.NewMockAccountAPI(ctrl)
		api.EXPECT().ForgotPassword(gomock.Any(), gomock.Any()).Return(apperrors.Network(errors.New("eof"), "unreachable"))
		svc := NewAccountService(api, nil)

		_, err := svc.ForgotPassword(context.Background(), ForgotPasswordForm{Email: "ada@example.com"})

		assert.True(t, apperrors.IsNetwork(err))
	})
}
