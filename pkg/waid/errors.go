package waid

import (
	"errors"
)

// AppName attributes WAID errors.
const AppName = "waid"

// Static errors for err113 compliance.
var (
	ErrClientIDRequired       = errors.New("waid: client id is required")
	ErrAuthRequired           = errors.New("waid: no user authentication configured")
	ErrFreshTokenUnavailable  = errors.New("waid: fresh user access token unavailable")
	ErrEmailOrPhoneRequired   = errors.New("waid: either email or phone is required")
	ErrEmailAndPhoneExclusive = errors.New("waid: email and phone are mutually exclusive")
	ErrCodeRequired           = errors.New("waid: confirmation code is required")
	ErrUnexpectedStatus       = errors.New("waid: unexpected response status")
)
