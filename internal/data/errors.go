package data

import "errors"

// ErrUserIDRequired is returned when an onboarding operation has no user.
var ErrUserIDRequired = errors.New("user id is required")
