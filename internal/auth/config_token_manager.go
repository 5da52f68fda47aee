// Package auth keeps the end user's WAID token fresh for the CLI and writes
// every refreshed token back to the config file.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/webasyst/webasyst-go/internal/constants"
	"github.com/webasyst/webasyst-go/pkg/waid"
	"github.com/webasyst/webasyst-go/pkg/webasyst"
	"golang.org/x/oauth2"
)

// Static errors for err113 compliance.
var (
	ErrNoConfigPersister = errors.New("no config persister configured")
)

// ConfigPersister defines the interface for persisting config changes.
type ConfigPersister interface {
	UpdateAPIToken(apiDomain, token string, expiresAt time.Time, refreshToken string) error
}

// Option configures a ConfigTokenManager.
type Option func(*ConfigTokenManager)

// WithHTTPClient sets the engine used for refresh requests.
func WithHTTPClient(client *http.Client) Option {
	return func(m *ConfigTokenManager) {
		if client != nil {
			m.httpClient = client
		}
	}
}

// WithLogger sets the logger. Persist failures are logged, not returned.
func WithLogger(logger webasyst.Logger) Option {
	return func(m *ConfigTokenManager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// ConfigTokenManager refreshes the WAID user token through the OAuth2
// refresh grant and persists every new token to config.
type ConfigTokenManager struct {
	config          *oauth2.Config
	configPersister ConfigPersister
	apiDomain       string
	httpClient      *http.Client
	logger          webasyst.Logger

	mutex sync.Mutex
	last  *oauth2.Token
}

var _ waid.AuthInterface = (*ConfigTokenManager)(nil)

// NewConfigTokenManager creates a config-persisting token manager. initial
// may be nil when the user has not signed in yet.
func NewConfigTokenManager(config *oauth2.Config, configPersister ConfigPersister, apiDomain string, initial *oauth2.Token, opts ...Option) *ConfigTokenManager {
	manager := &ConfigTokenManager{
		config:          config,
		configPersister: configPersister,
		apiDomain:       apiDomain,
		httpClient:      &http.Client{Timeout: constants.ShortHTTPTimeout},
		logger:          webasyst.NopLogger(),
	}

	for _, opt := range opts {
		opt(manager)
	}

	manager.last = initial

	return manager
}

// tokenSource refreshes through ctx, so cancelling the caller aborts the
// refresh request.
func (m *ConfigTokenManager) tokenSource(ctx context.Context, token *oauth2.Token) oauth2.TokenSource {
	return m.config.TokenSource(context.WithValue(ctx, oauth2.HTTPClient, m.httpClient), token)
}

// GetToken returns a valid access token, refreshing if necessary.
func (m *ConfigTokenManager) GetToken(ctx context.Context) (string, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.last == nil {
		return "", constants.ErrNotLoggedIn
	}

	token, err := m.tokenSource(ctx, m.last).Token()
	if err != nil {
		return "", fmt.Errorf("%w: %w", constants.ErrFailedRetrieveToken, err)
	}

	if m.changed(token) {
		m.persist(token)
		m.last = token
	}

	return token.AccessToken, nil
}

// WithFreshAccessToken implements waid.AuthInterface.
func (m *ConfigTokenManager) WithFreshAccessToken(ctx context.Context, fn func(ctx context.Context, accessToken string) error) error {
	token, err := m.GetToken(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", waid.ErrFreshTokenUnavailable, err)
	}

	return fn(ctx, token)
}

// RefreshToken forces a token refresh.
func (m *ConfigTokenManager) RefreshToken(ctx context.Context) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.last == nil || m.last.RefreshToken == "" {
		return constants.ErrNoRefreshToken
	}

	token, err := m.tokenSource(ctx, &oauth2.Token{RefreshToken: m.last.RefreshToken}).Token()
	if err != nil {
		return fmt.Errorf("%w: %w", constants.ErrFailedRetrieveToken, err)
	}

	m.persist(token)
	m.last = token

	return nil
}

// SetToken replaces the token, after a fresh sign-in. It is persisted too.
func (m *ConfigTokenManager) SetToken(token *oauth2.Token) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.last = token

	if token != nil {
		m.persist(token)
	}
}

// IsTokenExpiringSoon returns true if the token expires within the given duration.
func (m *ConfigTokenManager) IsTokenExpiringSoon(within time.Duration) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.last == nil {
		return true
	}

	if m.last.Expiry.IsZero() {
		return false
	}

	return time.Now().Add(within).After(m.last.Expiry)
}

// GetTokenExpiry returns the current token's expiration time.
func (m *ConfigTokenManager) GetTokenExpiry() time.Time {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.last == nil {
		return time.Time{}
	}

	return m.last.Expiry
}

func (m *ConfigTokenManager) changed(token *oauth2.Token) bool {
	return m.last == nil ||
		token.AccessToken != m.last.AccessToken ||
		!token.Expiry.Equal(m.last.Expiry)
}

// persist saves the token to config and logs failures.
func (m *ConfigTokenManager) persist(token *oauth2.Token) {
	err := m.persistToken(token)
	if err != nil {
		m.logger.Warn("failed to persist refreshed token", map[string]interface{}{
			"domain": m.apiDomain,
			"error":  err.Error(),
		})
	}
}

func (m *ConfigTokenManager) persistToken(token *oauth2.Token) error {
	if m.configPersister == nil {
		return ErrNoConfigPersister
	}

	err := m.configPersister.UpdateAPIToken(m.apiDomain, token.AccessToken, token.Expiry, token.RefreshToken)
	if err != nil {
		return fmt.Errorf("failed to update API token: %w", err)
	}

	return nil
}
