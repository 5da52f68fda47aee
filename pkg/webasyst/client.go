package webasyst

import (
	"fmt"
	"net/http"
	"reflect"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/webasyst/webasyst-go/internal/constants"
	wahttp "github.com/webasyst/webasyst-go/internal/http"
	"golang.org/x/sync/singleflight"
)

// Config represents the configuration of an APIClient.
type Config struct {
	// ClientID is the application client id registered with WAID. Required.
	ClientID string
	// Authenticator issues authorization codes, usually a *waid.Client. Required.
	Authenticator Authenticator
	// HTTPClient is the network engine. Required; DefaultConfig fills it.
	HTTPClient *http.Client
	// TokenCache defaults to a memory cache with default TTLs.
	TokenCache TokenCache
	// Codec defaults to JSONCodec.
	Codec Codec
	// Logger defaults to a no-op logger.
	Logger Logger
	// Debug enables request/response debug lines in the transport.
	Debug bool
	// UserAgent overrides the default User-Agent header.
	UserAgent string
	// RetryMax is the retry budget for 5xx, 429 and connection errors.
	// Negative disables retries, zero uses the default.
	RetryMax int
	// RetryWaitMin and RetryWaitMax bound the backoff between retries.
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// Interceptors run around every installation API call.
	Interceptors *InterceptorChain
	// CoalesceTokenRequests shares one token fetch between concurrent
	// callers that miss the cache for the same installation.
	CoalesceTokenRequests bool
}

// DefaultConfig returns a Config with a pooled HTTP engine and a memory
// cache. ClientID and Authenticator still have to be set.
func DefaultConfig() *Config {
	return &Config{
		HTTPClient: cleanhttp.DefaultPooledClient(),
		TokenCache: NewMemoryTokenCache(
			WithTokenTTL(constants.DefaultTokenTTL),
			WithAuthCodeTTL(constants.DefaultAuthCodeTTL),
		),
		Codec:        JSONCodec{},
		Logger:       NopLogger(),
		RetryMax:     constants.DefaultRetryMax,
		RetryWaitMin: constants.DefaultRetryWaitMin,
		RetryWaitMax: constants.DefaultRetryWaitMax,
	}
}

// Registration binds a module type to its scope and constructor.
type Registration struct {
	moduleType reflect.Type
	scope      string
	create     func(*Module) interface{}
}

// Register declares a per-app module of type T for scope. create wraps the
// shared request engine into the app client.
func Register[T any](scope string, create func(*Module) T) Registration {
	registration := Registration{
		moduleType: reflect.TypeFor[T](),
		scope:      scope,
	}

	if create != nil {
		registration.create = func(m *Module) interface{} { return create(m) }
	}

	return registration
}

// Scope returns the app slug of the registration.
func (r Registration) Scope() string {
	return r.scope
}

// APIClient is the module registry of one embedding application.
type APIClient struct {
	config    *Configuration
	factories map[reflect.Type]Registration
}

// NewAPIClient validates the configuration and builds the registry. All
// errors wrap ErrConfiguration.
func NewAPIClient(cfg *Config, registrations ...Registration) (*APIClient, error) {
	if cfg == nil {
		return nil, configError(ErrClientIDRequired)
	}

	if cfg.ClientID == "" {
		return nil, configError(ErrClientIDRequired)
	}

	if cfg.Authenticator == nil {
		return nil, configError(ErrAuthenticatorRequired)
	}

	if cfg.HTTPClient == nil {
		return nil, configError(ErrHTTPClientRequired)
	}

	factories := make(map[reflect.Type]Registration, len(registrations))
	scope := make(Scope, 0, len(registrations))

	for _, registration := range registrations {
		if registration.create == nil || registration.moduleType == nil {
			return nil, configError(ErrRegistrationIncomplete)
		}

		if _, exists := factories[registration.moduleType]; exists {
			return nil, configError(fmt.Errorf("%w: %s", ErrDuplicateModule, registration.moduleType))
		}

		factories[registration.moduleType] = registration
		scope = append(scope, registration.scope)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = NopLogger()
	}

	cache := cfg.TokenCache
	if cache == nil {
		cache = NewMemoryTokenCache(
			WithTokenTTL(constants.DefaultTokenTTL),
			WithAuthCodeTTL(constants.DefaultAuthCodeTTL),
		)
	}

	codec := cfg.Codec
	if codec == nil {
		codec = JSONCodec{}
	}

	transportOpts := []wahttp.Option{
		wahttp.WithHTTPClient(cfg.HTTPClient),
		wahttp.WithLogger(logger),
		wahttp.WithDebug(cfg.Debug),
		wahttp.WithRetryConfig(retryMax(cfg.RetryMax),
			orDefault(cfg.RetryWaitMin, constants.DefaultRetryWaitMin),
			orDefault(cfg.RetryWaitMax, constants.DefaultRetryWaitMax)),
	}

	if cfg.UserAgent != "" {
		transportOpts = append(transportOpts, wahttp.WithUserAgent(cfg.UserAgent))
	}

	configuration := &Configuration{
		clientID:      cfg.ClientID,
		scope:         scope,
		joinedScope:   scope.Join(),
		authenticator: cfg.Authenticator,
		cache:         cache,
		transport:     wahttp.NewClient("", nil, transportOpts...),
		codec:         codec,
		logger:        logger,
		interceptors:  cfg.Interceptors,
	}

	if cfg.CoalesceTokenRequests {
		configuration.tokenFlights = &singleflight.Group{}
	}

	return &APIClient{config: configuration, factories: factories}, nil
}

func retryMax(configured int) int {
	switch {
	case configured < 0:
		return 0
	case configured == 0:
		return constants.DefaultRetryMax
	default:
		return configured
	}
}

func orDefault(value, fallback time.Duration) time.Duration {
	if value <= 0 {
		return fallback
	}

	return value
}

// Configuration returns the configuration shared by all modules.
func (c *APIClient) Configuration() *Configuration {
	return c.config
}

// ClientID returns the application client id.
func (c *APIClient) ClientID() string {
	return c.config.clientID
}

// Scope returns the scopes of all registered modules in registration order.
func (c *APIClient) Scope() Scope {
	return c.config.Scope()
}

// TokenCache returns the shared token cache.
func (c *APIClient) TokenCache() TokenCache {
	return c.config.cache
}

// Factory creates modules of type T.
type Factory[T any] struct {
	config       *Configuration
	registration Registration
}

// GetFactory returns the factory for T. A missing registration is a wiring
// bug and returns an error wrapping ErrModuleNotRegistered and ErrConfiguration.
func GetFactory[T any](c *APIClient) (*Factory[T], error) {
	registration, ok := c.factories[reflect.TypeFor[T]()]
	if !ok {
		return nil, configError(fmt.Errorf("%w: %s", ErrModuleNotRegistered, reflect.TypeFor[T]()))
	}

	return &Factory[T]{config: c.config, registration: registration}, nil
}

// MustGetFactory is GetFactory that panics on a missing registration.
func MustGetFactory[T any](c *APIClient) *Factory[T] {
	factory, err := GetFactory[T](c)
	if err != nil {
		panic(err)
	}

	return factory
}

// Scope returns the app slug of the module.
func (f *Factory[T]) Scope() string {
	return f.registration.scope
}

// ForInstallation creates a new module for installation. Nothing is cached.
func (f *Factory[T]) ForInstallation(installation Installation) T {
	module := NewModule(f.config, installation, f.registration.scope)

	instance, _ := f.registration.create(module).(T)

	return instance
}
