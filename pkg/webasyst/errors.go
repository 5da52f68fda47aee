package webasyst

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/tidwall/gjson"
	wahttp "github.com/webasyst/webasyst-go/internal/http"
)

// Machine readable error codes. Server codes not listed here pass through
// verbatim.
const (
	CodeUnrecognized       = "unrecognized_error"
	CodeWAIDError          = "waid_error"
	CodeInvalidErrorObject = "invalid_error_object"
	CodeInvalidClient      = "invalid_client"
	CodeConnectionFailed   = "connection_failed"
	CodeAppNotInstalled    = "app_not_installed"
	CodeAccountSuspended   = "account_suspended"
	CodeDisabled           = "disabled"
)

const (
	messageMalformedError   = "Malformed error received from server."
	messageConnectionFailed = "Connection failed"
)

// Static errors for err113 compliance. Everything wrapping ErrConfiguration
// is a wiring bug reported at construction time.
var (
	ErrConfiguration          = errors.New("webasyst: invalid configuration")
	ErrClientIDRequired       = errors.New("client id is required")
	ErrAuthenticatorRequired  = errors.New("WAID authenticator is required")
	ErrHTTPClientRequired     = errors.New("HTTP client engine is required")
	ErrModuleNotRegistered    = errors.New("module is not registered")
	ErrDuplicateModule        = errors.New("module is registered twice")
	ErrCacheMiss              = errors.New("token cache miss")
	ErrUnsupportedCacheType   = errors.New("unsupported cache type")
	ErrNATSConfigRequired     = errors.New("NATS configuration required for NATS cache")
	ErrBoltPathRequired       = errors.New("bolt cache path is required")
	ErrAuthCodeUnavailable    = errors.New("failed to obtain authorization code")
	ErrEmptyAccessToken       = errors.New("token endpoint returned an empty access token")
	ErrInterceptorRejected    = errors.New("request rejected by interceptor")
	ErrRegistrationIncomplete = errors.New("registration has no constructor")
)

func configError(err error) error {
	return fmt.Errorf("%w: %w", ErrConfiguration, err)
}

// Error is the single error type returned by installation modules and the
// WAID client.
type Error struct {
	Code    string
	Message string
	App     string
	Host    string
	// StatusCode is zero when no HTTP response was received.
	StatusCode int
	// ResponseBody is nil when no HTTP response was received.
	ResponseBody []byte
	Cause        error
}

func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString("webasyst")

	if e.App != "" {
		b.WriteString(" " + e.App)
	}

	if e.Host != "" {
		b.WriteString(" (" + e.Host + ")")
	}

	b.WriteString(": " + e.Code)

	if e.Message != "" && e.Message != e.Code {
		b.WriteString(": " + e.Message)
	}

	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " [HTTP %d]", e.StatusCode)
	}

	if e.Cause != nil {
		b.WriteString(": " + e.Cause.Error())
	}

	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ErrorBody is a server error object reduced to code and message.
type ErrorBody struct {
	Code    string
	Message string
}

// ParseErrorBody classifies a server error body. It never fails: bodies that
// are not JSON objects with a string "error" become invalid_error_object.
func ParseErrorBody(body []byte) ErrorBody {
	malformed := ErrorBody{Code: CodeInvalidErrorObject, Message: messageMalformedError}

	if len(body) == 0 || !gjson.ValidBytes(body) {
		return malformed
	}

	parsed := gjson.ParseBytes(body)
	if !parsed.IsObject() {
		return malformed
	}

	code := parsed.Get("error")
	if code.Type != gjson.String || code.Str == "" {
		return malformed
	}

	message := code.Str

	for _, key := range []string{"error_message", "error_description"} {
		if field := parsed.Get(key); field.Type == gjson.String && field.Str != "" {
			message = field.Str

			break
		}
	}

	return ErrorBody{Code: code.Str, Message: message}
}

// ErrorBuilder assembles an Error from partial context. The last source
// that supplies a code and message wins; WithHTTPResponse always records
// status and body.
type ErrorBuilder struct {
	err Error
}

// NewErrorBuilder returns an empty builder.
func NewErrorBuilder() *ErrorBuilder {
	return &ErrorBuilder{}
}

// WithModule attributes the error to a module.
func (b *ErrorBuilder) WithModule(info ModuleInfo) *ErrorBuilder {
	b.err.App = info.App
	b.err.Host = info.Host

	return b
}

// WithErrorInfo sets code and message.
func (b *ErrorBuilder) WithErrorInfo(code, message string) *ErrorBuilder {
	b.err.Code = code
	b.err.Message = message

	return b
}

// WithCause records the underlying error. Transport failures and
// cancellations set connection_failed.
func (b *ErrorBuilder) WithCause(cause error) *ErrorBuilder {
	b.err.Cause = cause

	if isConnectionFailure(cause) {
		b.err.Code = CodeConnectionFailed
		b.err.Message = messageConnectionFailed
	}

	return b
}

// WithHTTPResponse records status and body and classifies the body.
func (b *ErrorBuilder) WithHTTPResponse(statusCode int, body []byte) *ErrorBuilder {
	b.err.StatusCode = statusCode
	b.err.ResponseBody = body

	parsed := ParseErrorBody(body)
	b.err.Code = parsed.Code
	b.err.Message = parsed.Message

	return b
}

// Build returns the error. A builder that never saw a code yields
// unrecognized_error.
func (b *ErrorBuilder) Build() *Error {
	built := b.err

	if built.Code == "" {
		built.Code = CodeUnrecognized
	}

	if built.Message == "" {
		if built.Cause != nil {
			built.Message = built.Cause.Error()
		} else {
			built.Message = built.Code
		}
	}

	return &built
}

// WrapError converts any error into an *Error attributed to info. An error
// that already is, or wraps, an *Error is returned unchanged.
func WrapError(err error, info ModuleInfo) *Error {
	if err == nil {
		return nil
	}

	if existing, ok := AsError(err); ok {
		return existing
	}

	if statusErr := (&wahttp.StatusError{}); errors.As(err, &statusErr) {
		return NewErrorBuilder().
			WithModule(info).
			WithHTTPResponse(statusErr.StatusCode, statusErr.Body).
			Build()
	}

	return NewErrorBuilder().WithModule(info).WithCause(err).Build()
}

// AsError finds the first *Error in err's chain.
func AsError(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}

	return nil, false
}

// IsCode reports whether err carries an *Error with the given code.
func IsCode(err error, code string) bool {
	if target, ok := AsError(err); ok {
		return target.Code == code
	}

	return false
}

func isConnectionFailure(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, wahttp.ErrTransport) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr)
}
