package constants

import "errors"

// Configuration errors.
var (
	ErrNotLoggedIn         = errors.New("not signed in to WAID, use 'wasdk login' first")
	ErrNoRefreshToken      = errors.New("no refresh token available, please run 'wasdk login' again")
	ErrClientIDMissing     = errors.New("client id is not configured, use --client-id or WASDK_CLIENT_ID")
	ErrFailedRetrieveToken = errors.New("failed to retrieve refreshed token")
)

// Required field errors.
var (
	ErrInstallationRequired = errors.New("installation id is required")
	ErrEmailOrPhoneRequired = errors.New("either --email or --phone is required")
	ErrCodeRequired         = errors.New("confirmation code is required")
)
