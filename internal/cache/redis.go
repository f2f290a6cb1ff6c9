package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// MembershipTTL bounds how long a cached membership list may be served
// after a write whose Bump failed.
const MembershipTTL = 5 * time.Minute

// versionTTL outlives any entry, so an expired version counter can never
// make an old entry current again.
const versionTTL = 24 * time.Hour

// Cache is a JSON cache over Redis. A nil or disabled Cache misses on every
// read and ignores writes, so callers never branch on whether Redis exists.
type Cache struct {
	client *redis.Client
	logger *slog.Logger
}

// New connects to redisURL. An empty URL or a failed ping yields a disabled
// cache rather than an error.
func New(redisURL string, logger *slog.Logger) *Cache {
	c := &Cache{logger: logger}
	if redisURL == "" {
		logger.Info("redis URL not provided, caching disabled")
		return c
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn("failed to parse redis URL, caching disabled", "error", err)
		return c
	}

	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("failed to connect to redis, caching disabled", "error", err)
		client.Close()
		return c
	}

	c.client = client
	logger.Info("redis cache initialized")
	return c
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, logger *slog.Logger) *Cache {
	return &Cache{client: client, logger: logger}
}

func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

func (c *Cache) Close() {
	if c.Enabled() {
		c.client.Close()
	}
}

// Set stores a value in cache with expiration.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if !c.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, key, data, expiration).Err()
}

type versioned struct {
	Version int64           `json:"v"`
	Data    json.RawMessage `json:"d"`
}

// Version returns the current version of key, zero when it was never
// bumped. Readers take it before loading from the source of truth and
// store the result with SetVersioned.
func (c *Cache) Version(ctx context.Context, key string) (int64, error) {
	if !c.Enabled() {
		return 0, nil
	}
	v, err := c.client.Get(ctx, versionKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// SetVersioned stores value as of version.
func (c *Cache) SetVersioned(ctx context.Context, key string, version int64, value interface{}, expiration time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, versioned{Version: version, Data: data}, expiration)
}

// GetVersioned decodes the cached value into dest. A miss, or a value
// stored under a version older than the current one, returns redis.Nil.
func (c *Cache) GetVersioned(ctx context.Context, key string, dest interface{}) error {
	if !c.Enabled() {
		return redis.Nil
	}

	vals, err := c.client.MGet(ctx, key, versionKey(key)).Result()
	if err != nil {
		return err
	}
	raw, ok := vals[0].(string)
	if !ok {
		return redis.Nil
	}
	var current int64
	if s, ok := vals[1].(string); ok {
		if current, err = strconv.ParseInt(s, 10, 64); err != nil {
			return err
		}
	}

	var entry versioned
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return err
	}
	if entry.Version != current {
		return redis.Nil
	}
	return json.Unmarshal(entry.Data, dest)
}

// Bump invalidates key. Fills that read the old version before the bump
// are never served afterwards, even if they land later.
func (c *Cache) Bump(ctx context.Context, key string) error {
	if !c.Enabled() {
		return nil
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(key))
		pipe.Expire(ctx, versionKey(key), versionTTL)
		pipe.Del(ctx, key)
		return nil
	})
	return err
}

func versionKey(key string) string {
	return key + ":version"
}

// MembershipKey is where a user's membership rows are cached.
func MembershipKey(userID string) string {
	return "memberships:" + userID
}
