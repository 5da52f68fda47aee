package webasyst

import (
	"context"
	"sync"
	"time"
)

// TokenCache stores access tokens keyed by (url, scope) and authorization
// codes keyed by installation id. Implementations must be safe for
// concurrent use. Lookups that find nothing return ErrCacheMiss.
type TokenCache interface {
	Get(ctx context.Context, url, scope string) (*AccessToken, error)
	Set(ctx context.Context, url, scope string, token *AccessToken) error
	GetAuthCode(ctx context.Context, installationID string) (string, error)
	// SetAuthCode with an empty code removes the cached code.
	SetAuthCode(ctx context.Context, installationID, code string) error
	Clear(ctx context.Context) error
}

type tokenKey struct {
	url   string
	scope string
}

type memoryEntry[T any] struct {
	value     T
	expiresAt time.Time
}

func (e memoryEntry[T]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryTokenCache keeps entries in process memory with optional TTLs.
type MemoryTokenCache struct {
	mutex    sync.RWMutex
	tokens   map[tokenKey]memoryEntry[AccessToken]
	codes    map[string]memoryEntry[string]
	tokenTTL time.Duration
	codeTTL  time.Duration
	now      func() time.Time
}

// MemoryCacheOption configures a MemoryTokenCache.
type MemoryCacheOption func(*MemoryTokenCache)

// WithTokenTTL expires access tokens after ttl. Zero keeps them forever.
func WithTokenTTL(ttl time.Duration) MemoryCacheOption {
	return func(c *MemoryTokenCache) {
		c.tokenTTL = ttl
	}
}

// WithAuthCodeTTL expires authorization codes after ttl. Zero keeps them forever.
func WithAuthCodeTTL(ttl time.Duration) MemoryCacheOption {
	return func(c *MemoryTokenCache) {
		c.codeTTL = ttl
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) MemoryCacheOption {
	return func(c *MemoryTokenCache) {
		c.now = now
	}
}

// NewMemoryTokenCache creates an empty memory cache.
func NewMemoryTokenCache(opts ...MemoryCacheOption) *MemoryTokenCache {
	cache := &MemoryTokenCache{
		tokens: make(map[tokenKey]memoryEntry[AccessToken]),
		codes:  make(map[string]memoryEntry[string]),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache
}

func (c *MemoryTokenCache) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}

	return c.now().Add(ttl)
}

// Get returns a copy of the cached token.
func (c *MemoryTokenCache) Get(ctx context.Context, url, scope string) (*AccessToken, error) {
	c.mutex.RLock()
	entry, ok := c.tokens[tokenKey{url: url, scope: scope}]
	c.mutex.RUnlock()

	if !ok || entry.expired(c.now()) {
		return nil, ErrCacheMiss
	}

	token := entry.value

	return &token, nil
}

// Set stores a copy of token.
func (c *MemoryTokenCache) Set(ctx context.Context, url, scope string, token *AccessToken) error {
	if token == nil {
		return nil
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.tokens[tokenKey{url: url, scope: scope}] = memoryEntry[AccessToken]{
		value:     *token,
		expiresAt: c.expiry(c.tokenTTL),
	}

	return nil
}

// GetAuthCode returns the cached authorization code.
func (c *MemoryTokenCache) GetAuthCode(ctx context.Context, installationID string) (string, error) {
	c.mutex.RLock()
	entry, ok := c.codes[installationID]
	c.mutex.RUnlock()

	if !ok || entry.expired(c.now()) {
		return "", ErrCacheMiss
	}

	return entry.value, nil
}

// SetAuthCode stores or, for an empty code, removes an authorization code.
func (c *MemoryTokenCache) SetAuthCode(ctx context.Context, installationID, code string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if code == "" {
		delete(c.codes, installationID)

		return nil
	}

	c.codes[installationID] = memoryEntry[string]{value: code, expiresAt: c.expiry(c.codeTTL)}

	return nil
}

// Clear drops both mappings.
func (c *MemoryTokenCache) Clear(ctx context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.tokens = make(map[tokenKey]memoryEntry[AccessToken])
	c.codes = make(map[string]memoryEntry[string])

	return nil
}

// NoOpTokenCache never stores anything.
type NoOpTokenCache struct{}

// NewNoOpTokenCache creates a cache that disables caching.
func NewNoOpTokenCache() *NoOpTokenCache {
	return &NoOpTokenCache{}
}

func (NoOpTokenCache) Get(context.Context, string, string) (*AccessToken, error) {
	return nil, ErrCacheMiss
}

func (NoOpTokenCache) Set(context.Context, string, string, *AccessToken) error {
	return nil
}

func (NoOpTokenCache) GetAuthCode(context.Context, string) (string, error) {
	return "", ErrCacheMiss
}

func (NoOpTokenCache) SetAuthCode(context.Context, string, string) error {
	return nil
}

func (NoOpTokenCache) Clear(context.Context) error {
	return nil
}

// TokenCacheChain layers caches, fastest first. Hits in a later cache are
// copied into the earlier ones.
type TokenCacheChain struct {
	caches []TokenCache
}

// NewTokenCacheChain creates a chain.
func NewTokenCacheChain(caches ...TokenCache) *TokenCacheChain {
	return &TokenCacheChain{caches: caches}
}

// Get retrieves a token from the first cache that has it.
func (c *TokenCacheChain) Get(ctx context.Context, url, scope string) (*AccessToken, error) {
	for i, cache := range c.caches {
		token, err := cache.Get(ctx, url, scope)
		if err == nil {
			for j := range i {
				_ = c.caches[j].Set(ctx, url, scope, token)
			}

			return token, nil
		}
	}

	return nil, ErrCacheMiss
}

// Set stores a token in all caches.
func (c *TokenCacheChain) Set(ctx context.Context, url, scope string, token *AccessToken) error {
	var lastErr error

	for _, cache := range c.caches {
		if err := cache.Set(ctx, url, scope, token); err != nil {
			lastErr = err
		}
	}

	return lastErr
}

// GetAuthCode retrieves a code from the first cache that has it.
func (c *TokenCacheChain) GetAuthCode(ctx context.Context, installationID string) (string, error) {
	for i, cache := range c.caches {
		code, err := cache.GetAuthCode(ctx, installationID)
		if err == nil {
			for j := range i {
				_ = c.caches[j].SetAuthCode(ctx, installationID, code)
			}

			return code, nil
		}
	}

	return "", ErrCacheMiss
}

// SetAuthCode stores a code in all caches.
func (c *TokenCacheChain) SetAuthCode(ctx context.Context, installationID, code string) error {
	var lastErr error

	for _, cache := range c.caches {
		if err := cache.SetAuthCode(ctx, installationID, code); err != nil {
			lastErr = err
		}
	}

	return lastErr
}

// Clear clears all caches.
func (c *TokenCacheChain) Clear(ctx context.Context) error {
	var lastErr error

	for _, cache := range c.caches {
		if err := cache.Clear(ctx); err != nil {
			lastErr = err
		}
	}

	return lastErr
}
