package webasyst

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/webasyst/webasyst-go/internal/constants"
	bolt "go.etcd.io/bbolt"
)

var (
	boltTokensBucket = []byte("tokens")
	boltCodesBucket  = []byte("auth_codes")
)

// BoltCacheConfig configures the bolt backed cache.
type BoltCacheConfig struct {
	// Path is the database file. Its directory is created if missing.
	Path string
	// TokenTTL expires access tokens. Zero keeps them until cleared.
	TokenTTL time.Duration
	// AuthCodeTTL expires authorization codes. Zero keeps them until cleared.
	AuthCodeTTL time.Duration
}

type boltRecord struct {
	Token     *AccessToken `json:"token,omitempty"`
	Code      string       `json:"code,omitempty"`
	ExpiresAt int64        `json:"expires_at,omitempty"`
}

// BoltTokenCache persists entries in a bbolt database so tokens survive
// process restarts.
type BoltTokenCache struct {
	db          *bolt.DB
	tokenTTL    time.Duration
	authCodeTTL time.Duration
	now         func() time.Time
}

// NewBoltTokenCache opens or creates the database at config.Path.
func NewBoltTokenCache(config *BoltCacheConfig) (*BoltTokenCache, error) {
	if config == nil || config.Path == "" {
		return nil, ErrBoltPathRequired
	}

	if err := os.MkdirAll(filepath.Dir(config.Path), constants.ConfigDirPerm); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := bolt.Open(config.Path, constants.ConfigFilePerm, &bolt.Options{Timeout: constants.BoltOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("opening token cache: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(boltTokensBucket); err != nil {
			return err
		}

		_, err := tx.CreateBucketIfNotExists(boltCodesBucket)

		return err
	})
	if err != nil {
		db.Close()

		return nil, fmt.Errorf("initializing token cache: %w", err)
	}

	return &BoltTokenCache{
		db:          db,
		tokenTTL:    config.TokenTTL,
		authCodeTTL: config.AuthCodeTTL,
		now:         time.Now,
	}, nil
}

// Close releases the database file lock.
func (c *BoltTokenCache) Close() error {
	return c.db.Close()
}

func boltTokenKey(url, scope string) []byte {
	return []byte(url + "\x00" + scope)
}

func (c *BoltTokenCache) expiry(ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}

	return c.now().Add(ttl).Unix()
}

func (c *BoltTokenCache) read(bucket, key []byte) (*boltRecord, error) {
	var record *boltRecord

	err := c.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucket).Get(key)
		if data == nil {
			return nil
		}

		record = &boltRecord{}

		return json.Unmarshal(data, record)
	})
	if err != nil {
		return nil, fmt.Errorf("reading token cache: %w", err)
	}

	if record == nil || (record.ExpiresAt != 0 && c.now().Unix() > record.ExpiresAt) {
		return nil, ErrCacheMiss
	}

	return record, nil
}

func (c *BoltTokenCache) write(bucket, key []byte, record *boltRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding cache record: %w", err)
	}

	err = c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put(key, data)
	})
	if err != nil {
		return fmt.Errorf("writing token cache: %w", err)
	}

	return nil
}

// Get returns a cached access token.
func (c *BoltTokenCache) Get(ctx context.Context, url, scope string) (*AccessToken, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	record, err := c.read(boltTokensBucket, boltTokenKey(url, scope))
	if err != nil {
		return nil, err
	}

	if record.Token == nil {
		return nil, ErrCacheMiss
	}

	return record.Token, nil
}

// Set stores an access token.
func (c *BoltTokenCache) Set(ctx context.Context, url, scope string, token *AccessToken) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if token == nil {
		return nil
	}

	return c.write(boltTokensBucket, boltTokenKey(url, scope), &boltRecord{
		Token:     token,
		ExpiresAt: c.expiry(c.tokenTTL),
	})
}

// GetAuthCode returns a cached authorization code.
func (c *BoltTokenCache) GetAuthCode(ctx context.Context, installationID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	record, err := c.read(boltCodesBucket, []byte(installationID))
	if err != nil {
		return "", err
	}

	if record.Code == "" {
		return "", ErrCacheMiss
	}

	return record.Code, nil
}

// SetAuthCode stores or removes an authorization code.
func (c *BoltTokenCache) SetAuthCode(ctx context.Context, installationID, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if code == "" {
		err := c.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(boltCodesBucket).Delete([]byte(installationID))
		})
		if err != nil {
			return fmt.Errorf("deleting authorization code: %w", err)
		}

		return nil
	}

	return c.write(boltCodesBucket, []byte(installationID), &boltRecord{
		Code:      code,
		ExpiresAt: c.expiry(c.authCodeTTL),
	})
}

// Clear recreates both buckets.
func (c *BoltTokenCache) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := c.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{boltTokensBucket, boltCodesBucket} {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}

			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("clearing token cache: %w", err)
	}

	return nil
}
