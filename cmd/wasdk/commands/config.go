package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"github.com/webasyst/webasyst-go/internal/constants"
	"github.com/webasyst/webasyst-go/pkg/webasyst"
	"golang.org/x/oauth2"
	"gopkg.in/yaml.v3"
)

const configDirName = ".wasdk"

// Config is the content of ~/.wasdk/config.yml.
type Config struct {
	WAIDHost       string        `yaml:"waid_host,omitempty"`
	ClientID       string        `yaml:"client_id,omitempty"`
	DeviceID       string        `yaml:"device_id,omitempty"`
	Locale         string        `yaml:"locale,omitempty"`
	Token          string        `yaml:"token,omitempty"`
	RefreshToken   string        `yaml:"refresh_token,omitempty"`
	TokenExpiresAt *time.Time    `yaml:"token_expires_at,omitempty"`
	LastRefreshed  *time.Time    `yaml:"last_refreshed,omitempty"`
	Cache          CacheSettings `yaml:"cache,omitempty"`
}

// CacheSettings selects where installation tokens are kept between runs.
type CacheSettings struct {
	Type    string `yaml:"type,omitempty"`
	Path    string `yaml:"path,omitempty"`
	NATSURL string `yaml:"nats_url,omitempty"`
	Bucket  string `yaml:"bucket,omitempty"`
}

// ConfigDir returns ~/.wasdk.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, configDirName), nil
}

func loadConfig() *Config {
	config := &Config{
		WAIDHost:     viper.GetString("waid_host"),
		ClientID:     viper.GetString("client_id"),
		DeviceID:     viper.GetString("device_id"),
		Locale:       viper.GetString("locale"),
		Token:        viper.GetString("token"),
		RefreshToken: viper.GetString("refresh_token"),
		Cache: CacheSettings{
			Type:    viper.GetString("cache.type"),
			Path:    viper.GetString("cache.path"),
			NATSURL: viper.GetString("cache.nats_url"),
			Bucket:  viper.GetString("cache.bucket"),
		},
	}

	if config.WAIDHost == "" {
		config.WAIDHost = constants.DefaultWAIDHost
	}

	if expiresAt := viper.GetTime("token_expires_at"); !expiresAt.IsZero() {
		config.TokenExpiresAt = &expiresAt
	}

	if refreshed := viper.GetTime("last_refreshed"); !refreshed.IsZero() {
		config.LastRefreshed = &refreshed
	}

	return config
}

func saveConfigStruct(config *Config) error {
	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		configDir, err := ConfigDir()
		if err != nil {
			return err
		}

		err = os.MkdirAll(configDir, constants.ConfigDirPerm)
		if err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}

		configFile = filepath.Join(configDir, "config.yml")
		viper.SetConfigFile(configFile)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	// Later loads in this process must see what was just written.
	viper.Set("device_id", config.DeviceID)
	viper.Set("token", config.Token)
	viper.Set("refresh_token", config.RefreshToken)
	viper.Set("token_expires_at", timeOrZero(config.TokenExpiresAt))
	viper.Set("last_refreshed", timeOrZero(config.LastRefreshed))

	return nil
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}

	return *t
}

// userToken returns the stored WAID token, nil when signed out.
func (c *Config) userToken() *oauth2.Token {
	if c.Token == "" && c.RefreshToken == "" {
		return nil
	}

	return &oauth2.Token{
		AccessToken:  c.Token,
		RefreshToken: c.RefreshToken,
		Expiry:       timeOrZero(c.TokenExpiresAt),
	}
}

// cacheConfig maps the settings onto a webasyst cache. The default is a
// bolt file next to the config so tokens survive between runs.
func (c *Config) cacheConfig() (*webasyst.CacheConfig, error) {
	cacheConfig := webasyst.DefaultCacheConfig()

	cacheType := webasyst.CacheType(c.Cache.Type)
	if cacheType == "" {
		cacheType = webasyst.CacheTypeBolt
	}

	cacheConfig.Type = cacheType

	switch cacheType {
	case webasyst.CacheTypeBolt:
		path := c.Cache.Path
		if path == "" {
			configDir, err := ConfigDir()
			if err != nil {
				return nil, err
			}

			path = filepath.Join(configDir, "tokens.db")
		}

		cacheConfig.Bolt = &webasyst.BoltCacheConfig{
			Path:        path,
			TokenTTL:    constants.DefaultTokenTTL,
			AuthCodeTTL: constants.DefaultAuthCodeTTL,
		}
	case webasyst.CacheTypeNATS:
		cacheConfig.NATS = &webasyst.NATSKVConfig{
			URL:    c.Cache.NATSURL,
			Bucket: c.Cache.Bucket,
			TTL:    constants.DefaultTokenTTL,
		}
	case webasyst.CacheTypeKeyring:
		cacheConfig.KeyringService = constants.DefaultKeyringService
	case webasyst.CacheTypeMemory, webasyst.CacheTypeNone:
	}

	return cacheConfig, nil
}

// openTokenCache builds the cache and a func releasing it.
func (c *Config) openTokenCache(ctx context.Context) (webasyst.TokenCache, func(), error) {
	cacheConfig, err := c.cacheConfig()
	if err != nil {
		return nil, nil, err
	}

	cache, err := webasyst.NewTokenCacheFromConfig(ctx, cacheConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open token cache: %w", err)
	}

	release := func() {}

	switch closer := cache.(type) {
	case interface{ Close() error }:
		release = func() { _ = closer.Close() }
	case interface{ Close() }:
		release = closer.Close
	}

	return cache, release, nil
}
