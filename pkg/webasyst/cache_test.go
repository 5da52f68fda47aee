package webasyst_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webasyst/webasyst-go/pkg/webasyst"
	"github.com/zalando/go-keyring"
	"pgregory.net/rapid"
)

func token(value string) *webasyst.AccessToken {
	return &webasyst.AccessToken{Token: value}
}

func TestMemoryTokenCache_SetAndGet(t *testing.T) {
	t.Parallel()

	cache := webasyst.NewMemoryTokenCache()
	ctx := context.Background()

	err := cache.Set(ctx, "https://a.example", "shop,blog", token("t1"))
	require.NoError(t, err)

	got, err := cache.Get(ctx, "https://a.example", "shop,blog")
	require.NoError(t, err)
	assert.Equal(t, "t1", got.Token)

	// Scope is part of the key
	_, err = cache.Get(ctx, "https://a.example", "shop")
	require.ErrorIs(t, err, webasyst.ErrCacheMiss)
}

func TestMemoryTokenCache_ReturnsCopy(t *testing.T) {
	t.Parallel()

	cache := webasyst.NewMemoryTokenCache()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "u", "s", token("original")))

	got, err := cache.Get(ctx, "u", "s")
	require.NoError(t, err)

	got.Token = "mutated"

	again, err := cache.Get(ctx, "u", "s")
	require.NoError(t, err)
	assert.Equal(t, "original", again.Token)
}

func TestMemoryTokenCache_LastWriteWins(t *testing.T) {
	t.Parallel()

	cache := webasyst.NewMemoryTokenCache()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "u", "s", token("first")))
	require.NoError(t, cache.Set(ctx, "u", "s", token("second")))

	got, err := cache.Get(ctx, "u", "s")
	require.NoError(t, err)
	assert.Equal(t, "second", got.Token)
}

func TestMemoryTokenCache_Expiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cache := webasyst.NewMemoryTokenCache(
		webasyst.WithTokenTTL(time.Hour),
		webasyst.WithAuthCodeTTL(time.Minute),
		webasyst.WithClock(func() time.Time { return now }),
	)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "u", "s", token("t")))
	require.NoError(t, cache.SetAuthCode(ctx, "inst", "code"))

	now = now.Add(2 * time.Minute)

	_, err := cache.GetAuthCode(ctx, "inst")
	require.ErrorIs(t, err, webasyst.ErrCacheMiss)

	got, err := cache.Get(ctx, "u", "s")
	require.NoError(t, err)
	assert.Equal(t, "t", got.Token)

	now = now.Add(time.Hour)

	_, err = cache.Get(ctx, "u", "s")
	require.ErrorIs(t, err, webasyst.ErrCacheMiss)
}

func TestMemoryTokenCache_AuthCodes(t *testing.T) {
	t.Parallel()

	cache := webasyst.NewMemoryTokenCache()
	ctx := context.Background()

	_, err := cache.GetAuthCode(ctx, "inst")
	require.ErrorIs(t, err, webasyst.ErrCacheMiss)

	require.NoError(t, cache.SetAuthCode(ctx, "inst", "c1"))

	code, err := cache.GetAuthCode(ctx, "inst")
	require.NoError(t, err)
	assert.Equal(t, "c1", code)

	// An empty code removes the entry
	require.NoError(t, cache.SetAuthCode(ctx, "inst", ""))

	_, err = cache.GetAuthCode(ctx, "inst")
	require.ErrorIs(t, err, webasyst.ErrCacheMiss)

	locked := errors.New("keychain locked")

	keyring.MockInitWithError(locked)
	defer keyring.MockInit()

	err = cache.Set(ctx, "u", "s", token("secret"))
	require.ErrorIs(t, err, locked)
	assert.Contains(t, err.Error(), "storing token")

	err = cache.SetAuthCode(ctx, "inst", "code")
	require.ErrorIs(t, err, locked)
	assert.Contains(t, err.Error(), "storing authorization code")
}

func TestMemoryTokenCache_Clear(t *testing.T) {
	t.Parallel()

	cache := webasyst.NewMemoryTokenCache()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "u", "s", token("t")))
	require.NoError(t, cache.SetAuthCode(ctx, "inst", "c"))
	require.NoError(t, cache.Clear(ctx))

	_, err := cache.Get(ctx, "u", "s")
	require.ErrorIs(t, err, webasyst.ErrCacheMiss)

	_, err = cache.GetAuthCode(ctx, "inst")
	require.ErrorIs(t, err, webasyst.ErrCacheMiss)
}

func TestMemoryTokenCache_Concurrency(t *testing.T) {
	t.Parallel()

	cache := webasyst.NewMemoryTokenCache()
	ctx := context.Background()

	var wg sync.WaitGroup

	for i := range 50 {
		wg.Add(1)

		go func(n int) {
			defer wg.Done()

			_ = cache.Set(ctx, "u", "s", token("t"))
			_, _ = cache.Get(ctx, "u", "s")
			_ = cache.SetAuthCode(ctx, "inst", "c")
			_, _ = cache.GetAuthCode(ctx, "inst")

			if n%10 == 0 {
				_ = cache.Clear(ctx)
			}
		}(i)
	}

	wg.Wait()
}

func TestMemoryTokenCache_RoundTripProperty(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		cache := webasyst.NewMemoryTokenCache()
		ctx := context.Background()

		url := rapid.String().Draw(t, "url")
		scope := rapid.String().Draw(t, "scope")
		value := rapid.String().Draw(t, "token")
		installation := rapid.String().Draw(t, "installation")
		code := rapid.StringN(1, -1, -1).Draw(t, "code")

		if err := cache.Set(ctx, url, scope, token(value)); err != nil {
			t.Fatalf("set: %v", err)
		}

		if err := cache.SetAuthCode(ctx, installation, code); err != nil {
			t.Fatalf("set code: %v", err)
		}

		got, err := cache.Get(ctx, url, scope)
		if err != nil || got.Token != value {
			t.Fatalf("token round trip: got %v, %v", got, err)
		}

		gotCode, err := cache.GetAuthCode(ctx, installation)
		if err != nil || gotCode != code {
			t.Fatalf("code round trip: got %q, %v", gotCode, err)
		}
	})
}

func TestNoOpTokenCache(t *testing.T) {
	t.Parallel()

	cache := webasyst.NewNoOpTokenCache()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "u", "s", token("t")))
	require.NoError(t, cache.SetAuthCode(ctx, "inst", "c"))

	_, err := cache.Get(ctx, "u", "s")
	require.ErrorIs(t, err, webasyst.ErrCacheMiss)

	_, err = cache.GetAuthCode(ctx, "inst")
	require.ErrorIs(t, err, webasyst.ErrCacheMiss)

	require.NoError(t, cache.Clear(ctx))
}

func TestTokenCacheChain_BackFill(t *testing.T) {
	t.Parallel()

	l1 := webasyst.NewMemoryTokenCache()
	l2 := webasyst.NewMemoryTokenCache()
	chain := webasyst.NewTokenCacheChain(l1, l2)
	ctx := context.Background()

	require.NoError(t, l2.Set(ctx, "u", "s", token("from-l2")))
	require.NoError(t, l2.SetAuthCode(ctx, "inst", "code-l2"))

	got, err := chain.Get(ctx, "u", "s")
	require.NoError(t, err)
	assert.Equal(t, "from-l2", got.Token)

	code, err := chain.GetAuthCode(ctx, "inst")
	require.NoError(t, err)
	assert.Equal(t, "code-l2", code)

	// L1 now has both entries
	got, err = l1.Get(ctx, "u", "s")
	require.NoError(t, err)
	assert.Equal(t, "from-l2", got.Token)

	code, err = l1.GetAuthCode(ctx, "inst")
	require.NoError(t, err)
	assert.Equal(t, "code-l2", code)
}

func TestTokenCacheChain_WritesAndClear(t *testing.T) {
	t.Parallel()

	l1 := webasyst.NewMemoryTokenCache()
	l2 := webasyst.NewMemoryTokenCache()
	chain := webasyst.NewTokenCacheChain(l1, l2)
	ctx := context.Background()

	require.NoError(t, chain.Set(ctx, "u", "s", token("t")))

	for _, cache := range []webasyst.TokenCache{l1, l2} {
		got, err := cache.Get(ctx, "u", "s")
		require.NoError(t, err)
		assert.Equal(t, "t", got.Token)
	}

	require.NoError(t, chain.Clear(ctx))

	_, err := chain.Get(ctx, "u", "s")
	require.ErrorIs(t, err, webasyst.ErrCacheMiss)
}

func TestBoltTokenCache(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "tokens.db")
	ctx := context.Background()

	cache, err := webasyst.NewBoltTokenCache(&webasyst.BoltCacheConfig{Path: path, TokenTTL: time.Hour})
	require.NoError(t, err)

	_, err = cache.Get(ctx, "u", "s")
	require.ErrorIs(t, err, webasyst.ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, "u", "s", token("persisted")))
	require.NoError(t, cache.SetAuthCode(ctx, "inst", "code"))
	require.NoError(t, cache.Close())

	// Entries survive reopening
	reopened, err := webasyst.NewBoltTokenCache(&webasyst.BoltCacheConfig{Path: path})
	require.NoError(t, err)

	defer reopened.Close()

	got, err := reopened.Get(ctx, "u", "s")
	require.NoError(t, err)
	assert.Equal(t, "persisted", got.Token)

	code, err := reopened.GetAuthCode(ctx, "inst")
	require.NoError(t, err)
	assert.Equal(t, "code", code)

	require.NoError(t, reopened.SetAuthCode(ctx, "inst", ""))

	_, err = reopened.GetAuthCode(ctx, "inst")
	require.ErrorIs(t, err, webasyst.ErrCacheMiss)

	require.NoError(t, reopened.Clear(ctx))

	_, err = reopened.Get(ctx, "u", "s")
	require.ErrorIs(t, err, webasyst.ErrCacheMiss)
}

func TestBoltTokenCache_CanceledContext(t *testing.T) {
	t.Parallel()

	cache, err := webasyst.NewBoltTokenCache(&webasyst.BoltCacheConfig{Path: filepath.Join(t.TempDir(), "tokens.db")})
	require.NoError(t, err)

	defer cache.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = cache.Set(ctx, "u", "s", token("t"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestBoltTokenCache_PathRequired(t *testing.T) {
	t.Parallel()

	_, err := webasyst.NewBoltTokenCache(&webasyst.BoltCacheConfig{})
	require.ErrorIs(t, err, webasyst.ErrBoltPathRequired)
}

// The keyring mock provider is process global, so this test is not parallel.
func TestKeyringTokenCache(t *testing.T) {
	keyring.MockInit()

	cache := webasyst.NewKeyringTokenCache("webasyst-go-test")
	ctx := context.Background()

	_, err := cache.Get(ctx, "u", "s")
	require.ErrorIs(t, err, webasyst.ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, "u", "s", token("secret")))
	require.NoError(t, cache.SetAuthCode(ctx, "inst", "code"))

	got, err := cache.Get(ctx, "u", "s")
	require.NoError(t, err)
	assert.Equal(t, "secret", got.Token)

	code, err := cache.GetAuthCode(ctx, "inst")
	require.NoError(t, err)
	assert.Equal(t, "code", code)

	require.NoError(t, cache.SetAuthCode(ctx, "inst", ""))
	require.NoError(t, cache.SetAuthCode(ctx, "inst", ""))

	_, err = cache.GetAuthCode(ctx, "inst")
	require.ErrorIs(t, err, webasyst.ErrCacheMiss)
}

func TestNATSKVTokenCache_ConfigRequired(t *testing.T) {
	t.Parallel()

	_, err := webasyst.NewNATSKVTokenCache(context.Background(), nil)
	require.ErrorIs(t, err, webasyst.ErrNATSConfigRequired)

	_, err = webasyst.NewNATSKVTokenCache(context.Background(), &webasyst.NATSKVConfig{})
	require.ErrorIs(t, err, webasyst.ErrNATSConfigRequired)
}
