package webasyst

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/webasyst/webasyst-go/internal/constants"
)

const (
	natsTokenPrefix = "token."
	natsCodePrefix  = "code."
)

// NATSKVConfig configures the NATS JetStream key-value cache.
type NATSKVConfig struct {
	// URL of the NATS server, used when Conn is nil.
	URL string
	// Conn reuses an existing connection.
	Conn *nats.Conn
	// Bucket name, defaults to constants.DefaultNATSBucket.
	Bucket string
	// TTL applies to every entry in the bucket. Zero disables expiry.
	TTL time.Duration
	// Replicas for the bucket stream.
	Replicas int
}

// NATSKVTokenCache shares tokens between processes through a JetStream
// key-value bucket.
type NATSKVTokenCache struct {
	kv    jetstream.KeyValue
	conn  *nats.Conn
	owned bool
}

// NewNATSKVTokenCache connects and creates the bucket if needed.
func NewNATSKVTokenCache(ctx context.Context, config *NATSKVConfig) (*NATSKVTokenCache, error) {
	if config == nil || (config.Conn == nil && config.URL == "") {
		return nil, ErrNATSConfigRequired
	}

	conn := config.Conn
	owned := false

	if conn == nil {
		var err error

		conn, err = nats.Connect(config.URL, nats.Name("webasyst-go token cache"))
		if err != nil {
			return nil, fmt.Errorf("connecting to NATS: %w", err)
		}

		owned = true
	}

	js, err := jetstream.New(conn)
	if err != nil {
		if owned {
			conn.Close()
		}

		return nil, fmt.Errorf("creating JetStream context: %w", err)
	}

	bucket := config.Bucket
	if bucket == "" {
		bucket = constants.DefaultNATSBucket
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "Webasyst access tokens and authorization codes",
		TTL:         config.TTL,
		Replicas:    config.Replicas,
	})
	if err != nil {
		if owned {
			conn.Close()
		}

		return nil, fmt.Errorf("creating key-value bucket %q: %w", bucket, err)
	}

	return &NATSKVTokenCache{kv: kv, conn: conn, owned: owned}, nil
}

// NewNATSKVTokenCacheFromKeyValue wraps an existing bucket handle.
func NewNATSKVTokenCacheFromKeyValue(kv jetstream.KeyValue) *NATSKVTokenCache {
	return &NATSKVTokenCache{kv: kv}
}

// Close closes the connection if the cache opened it.
func (c *NATSKVTokenCache) Close() {
	if c.owned && c.conn != nil {
		c.conn.Close()
	}
}

// natsTokenKey encodes url and scope into the key alphabet NATS accepts.
func natsTokenKey(url, scope string) string {
	return natsTokenPrefix + base64.RawURLEncoding.EncodeToString([]byte(url+"\x00"+scope))
}

func natsCodeKey(installationID string) string {
	return natsCodePrefix + base64.RawURLEncoding.EncodeToString([]byte(installationID))
}

func (c *NATSKVTokenCache) get(ctx context.Context, key string) ([]byte, error) {
	entry, err := c.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) || errors.Is(err, jetstream.ErrKeyDeleted) {
			return nil, ErrCacheMiss
		}

		return nil, fmt.Errorf("reading %s: %w", key, err)
	}

	return entry.Value(), nil
}

// Get returns a cached access token.
func (c *NATSKVTokenCache) Get(ctx context.Context, url, scope string) (*AccessToken, error) {
	data, err := c.get(ctx, natsTokenKey(url, scope))
	if err != nil {
		return nil, err
	}

	token := &AccessToken{}
	if err := json.Unmarshal(data, token); err != nil {
		return nil, fmt.Errorf("decoding cached token: %w", err)
	}

	return token, nil
}

// Set stores an access token.
func (c *NATSKVTokenCache) Set(ctx context.Context, url, scope string, token *AccessToken) error {
	if token == nil {
		return nil
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}

	if _, err := c.kv.Put(ctx, natsTokenKey(url, scope), data); err != nil {
		return fmt.Errorf("storing token: %w", err)
	}

	return nil
}

// GetAuthCode returns a cached authorization code.
func (c *NATSKVTokenCache) GetAuthCode(ctx context.Context, installationID string) (string, error) {
	data, err := c.get(ctx, natsCodeKey(installationID))
	if err != nil {
		return "", err
	}

	if len(data) == 0 {
		return "", ErrCacheMiss
	}

	return string(data), nil
}

// SetAuthCode stores or removes an authorization code.
func (c *NATSKVTokenCache) SetAuthCode(ctx context.Context, installationID, code string) error {
	key := natsCodeKey(installationID)

	if code == "" {
		if err := c.kv.Delete(ctx, key); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
			return fmt.Errorf("deleting authorization code: %w", err)
		}

		return nil
	}

	if _, err := c.kv.Put(ctx, key, []byte(code)); err != nil {
		return fmt.Errorf("storing authorization code: %w", err)
	}

	return nil
}

// Clear purges every token and code key in the bucket.
func (c *NATSKVTokenCache) Clear(ctx context.Context) error {
	lister, err := c.kv.ListKeys(ctx)
	if err != nil {
		return fmt.Errorf("listing keys: %w", err)
	}
	defer func() { _ = lister.Stop() }()

	var keys []string

	for key := range lister.Keys() {
		if strings.HasPrefix(key, natsTokenPrefix) || strings.HasPrefix(key, natsCodePrefix) {
			keys = append(keys, key)
		}
	}

	for _, key := range keys {
		if err := c.kv.Purge(ctx, key); err != nil {
			return fmt.Errorf("purging %s: %w", key, err)
		}
	}

	return nil
}
