package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0o750

	// ConfigFilePerm is the permission for configuration and cache files.
	ConfigFilePerm = 0o600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for token exchanges and other quick calls.
	ShortHTTPTimeout = 10 * time.Second

	// BoltOpenTimeout bounds the wait for the bolt database file lock.
	BoltOpenTimeout = 5 * time.Second
)

// Retry limits.
const (
	// DefaultRetryMax is the default maximum number of retries.
	DefaultRetryMax = 3

	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 500 * time.Millisecond

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// HTTP status codes commonly used.
const (
	// HTTPStatusOK represents a successful HTTP response.
	HTTPStatusOK = 200

	// HTTPStatusCreated is returned by some installer endpoints.
	HTTPStatusCreated = 201

	// HTTPStatusNoContent is the only success status of cloud extension.
	HTTPStatusNoContent = 204

	// HTTPStatusBadRequest is the first error status.
	HTTPStatusBadRequest = 400

	// HTTPStatusInternalServerError represents server errors.
	HTTPStatusInternalServerError = 500
)

// Token cache defaults.
const (
	// DefaultTokenTTL is how long the memory cache keeps an access token.
	DefaultTokenTTL = 24 * time.Hour

	// DefaultAuthCodeTTL is how long an authorization code stays usable.
	DefaultAuthCodeTTL = 5 * time.Minute

	// DefaultNATSBucket is the key-value bucket used by the NATS cache.
	DefaultNATSBucket = "webasyst_tokens"

	// DefaultKeyringService is the keychain service name of the keyring cache.
	DefaultKeyringService = "webasyst-go"
)

// Sign-in defaults.
const (
	// CodeChallengeLength is the length of the headless sign-in password.
	CodeChallengeLength = 64

	// DefaultWAIDHost is the production identity service.
	DefaultWAIDHost = "https://www.webasyst.com"

	// DefaultShopOrderLimit is the page size of the shop order search.
	DefaultShopOrderLimit = 10
)
