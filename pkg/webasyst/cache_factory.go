package webasyst

import (
	"context"
	"fmt"
	"time"

	"github.com/webasyst/webasyst-go/internal/constants"
)

// CacheType represents the type of token cache backend.
type CacheType string

const (
	// CacheTypeMemory keeps tokens in process memory.
	CacheTypeMemory CacheType = "memory"

	// CacheTypeBolt persists tokens in a bbolt file.
	CacheTypeBolt CacheType = "bolt"

	// CacheTypeNATS shares tokens through a NATS key-value bucket.
	CacheTypeNATS CacheType = "nats"

	// CacheTypeKeyring keeps tokens in the OS keychain.
	CacheTypeKeyring CacheType = "keyring"

	// CacheTypeNone disables caching.
	CacheTypeNone CacheType = "none"
)

// CacheConfig configures a token cache backend.
type CacheConfig struct {
	// Type is the cache backend type
	Type CacheType

	// Memory cache configuration
	Memory *MemoryCacheConfig

	// Bolt cache configuration
	Bolt *BoltCacheConfig

	// NATS KV cache configuration
	NATS *NATSKVConfig

	// KeyringService names the keychain service for CacheTypeKeyring.
	KeyringService string
}

// MemoryCacheConfig configures the memory cache.
type MemoryCacheConfig struct {
	TokenTTL    time.Duration
	AuthCodeTTL time.Duration
}

// DefaultCacheConfig returns the default cache configuration.
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Type: CacheTypeMemory,
		Memory: &MemoryCacheConfig{
			TokenTTL:    constants.DefaultTokenTTL,
			AuthCodeTTL: constants.DefaultAuthCodeTTL,
		},
	}
}

// NewTokenCacheFromConfig creates a cache backend from configuration.
func NewTokenCacheFromConfig(ctx context.Context, config *CacheConfig) (TokenCache, error) {
	if config == nil {
		config = DefaultCacheConfig()
	}

	switch config.Type {
	case CacheTypeMemory, "":
		memory := config.Memory
		if memory == nil {
			memory = DefaultCacheConfig().Memory
		}

		return NewMemoryTokenCache(WithTokenTTL(memory.TokenTTL), WithAuthCodeTTL(memory.AuthCodeTTL)), nil

	case CacheTypeBolt:
		if config.Bolt == nil {
			return nil, ErrBoltPathRequired
		}

		return NewBoltTokenCache(config.Bolt)

	case CacheTypeNATS:
		if config.NATS == nil {
			return nil, ErrNATSConfigRequired
		}

		return NewNATSKVTokenCache(ctx, config.NATS)

	case CacheTypeKeyring:
		return NewKeyringTokenCache(config.KeyringService), nil

	case CacheTypeNone:
		return NewNoOpTokenCache(), nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCacheType, config.Type)
	}
}

// TokenCacheBuilder helps build cache configurations.
type TokenCacheBuilder struct {
	config *CacheConfig
}

// NewTokenCacheBuilder creates a builder defaulting to the memory cache.
func NewTokenCacheBuilder() *TokenCacheBuilder {
	return &TokenCacheBuilder{config: DefaultCacheConfig()}
}

// WithType sets the cache type.
func (b *TokenCacheBuilder) WithType(cacheType CacheType) *TokenCacheBuilder {
	b.config.Type = cacheType

	return b
}

// WithMemoryConfig sets memory cache TTLs.
func (b *TokenCacheBuilder) WithMemoryConfig(tokenTTL, authCodeTTL time.Duration) *TokenCacheBuilder {
	b.config.Memory = &MemoryCacheConfig{TokenTTL: tokenTTL, AuthCodeTTL: authCodeTTL}

	return b
}

// WithBoltConfig sets bolt cache configuration.
func (b *TokenCacheBuilder) WithBoltConfig(config *BoltCacheConfig) *TokenCacheBuilder {
	b.config.Bolt = config

	return b
}

// WithNATSConfig sets NATS cache configuration.
func (b *TokenCacheBuilder) WithNATSConfig(config *NATSKVConfig) *TokenCacheBuilder {
	b.config.NATS = config

	return b
}

// WithKeyringService sets the keychain service name.
func (b *TokenCacheBuilder) WithKeyringService(service string) *TokenCacheBuilder {
	b.config.KeyringService = service

	return b
}

// Build creates the cache from the configuration.
func (b *TokenCacheBuilder) Build(ctx context.Context) (TokenCache, error) {
	return NewTokenCacheFromConfig(ctx, b.config)
}
