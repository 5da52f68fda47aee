package webasyst

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/webasyst/webasyst-go/internal/constants"
	"github.com/zalando/go-keyring"
)

// KeyringTokenCache keeps entries in the operating system keychain.
type KeyringTokenCache struct {
	service string
}

// NewKeyringTokenCache creates a keychain cache under service. An empty
// service uses constants.DefaultKeyringService.
func NewKeyringTokenCache(service string) *KeyringTokenCache {
	if service == "" {
		service = constants.DefaultKeyringService
	}

	return &KeyringTokenCache{service: service}
}

func keyringTokenUser(url, scope string) string {
	return fmt.Sprintf("token::%s::%s", url, scope)
}

func keyringCodeUser(installationID string) string {
	return "code::" + installationID
}

func (c *KeyringTokenCache) get(user string) (string, error) {
	value, err := keyring.Get(c.service, user)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrCacheMiss
		}

		return "", fmt.Errorf("reading keyring: %w", err)
	}

	return value, nil
}

// Get returns a cached access token.
func (c *KeyringTokenCache) Get(ctx context.Context, url, scope string) (*AccessToken, error) {
	data, err := c.get(keyringTokenUser(url, scope))
	if err != nil {
		return nil, err
	}

	token := &AccessToken{}
	if err := json.Unmarshal([]byte(data), token); err != nil {
		return nil, fmt.Errorf("invalid cached token: %w", err)
	}

	return token, nil
}

// Set stores an access token.
func (c *KeyringTokenCache) Set(ctx context.Context, url, scope string, token *AccessToken) error {
	if token == nil {
		return nil
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}

	if err := keyring.Set(c.service, keyringTokenUser(url, scope), string(data)); err != nil {
		return fmt.Errorf("storing token: %w", err)
	}

	return nil
}

// GetAuthCode returns a cached authorization code.
func (c *KeyringTokenCache) GetAuthCode(ctx context.Context, installationID string) (string, error) {
	return c.get(keyringCodeUser(installationID))
}

// SetAuthCode stores or removes an authorization code.
func (c *KeyringTokenCache) SetAuthCode(ctx context.Context, installationID, code string) error {
	user := keyringCodeUser(installationID)

	if code == "" {
		if err := keyring.Delete(c.service, user); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("deleting authorization code: %w", err)
		}

		return nil
	}

	if err := keyring.Set(c.service, user, code); err != nil {
		return fmt.Errorf("storing authorization code: %w", err)
	}

	return nil
}

// Clear removes every item of the service.
func (c *KeyringTokenCache) Clear(ctx context.Context) error {
	if err := keyring.DeleteAll(c.service); err != nil {
		return fmt.Errorf("clearing keyring: %w", err)
	}

	return nil
}
