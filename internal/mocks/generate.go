// Package mocks provides gomock implementations of the ports consumed by services and handlers.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/ports
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	api := mocks.NewMockAccountAPI(ctrl)
//	api.EXPECT().CheckVerificationToken(gomock.Any(), "tok").Return(verification.CheckResult{Valid: true}, nil)
package mocks
