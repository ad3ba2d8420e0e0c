package database

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrKeyNotFound is returned when a key does not exist.
var ErrKeyNotFound = errors.New("key not found")

// ErrLockNotAcquired is returned when a lock is held by someone else.
var ErrLockNotAcquired = errors.New("lock not acquired")

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Host        string
	Port        int
	Password    string
	DB          int
	TLSEnabled  bool
	PoolSize    int
	MinIdleConn int
}

// DefaultRedisConfig returns sensible defaults.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Port:        6380, // Azure Cache for Redis uses 6380 for TLS
		TLSEnabled:  true,
		PoolSize:    20,
		MinIdleConn: 2,
	}
}

// Addr returns the host:port address.
func (c RedisConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// RedisClient wraps the Redis client.
type RedisClient struct {
	client *redis.Client
	config RedisConfig
}

// NewRedisClient creates a new Redis client and verifies the connection.
func NewRedisClient(ctx context.Context, config RedisConfig) (*RedisClient, error) {
	opts := &redis.Options{
		Addr:         config.Addr(),
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConn,
	}

	if config.TLSEnabled {
		opts.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
			ServerName: config.Host,
		}
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisClient{
		client: client,
		config: config,
	}, nil
}

// NewRedisClientFrom wraps an existing go-redis client.
func NewRedisClientFrom(client *redis.Client) *RedisClient {
	return &RedisClient{client: client}
}

// Client returns the underlying redis client.
func (r *RedisClient) Client() *redis.Client {
	return r.client
}

// Ping checks the connection.
func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the client.
func (r *RedisClient) Close() error {
	return r.client.Close()
}

// Get retrieves a string value.
func (r *RedisClient) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrKeyNotFound
	}
	return val, err
}

// Set sets a string value with optional expiration.
func (r *RedisClient) Set(ctx context.Context, key, value string, expiration time.Duration) error {
	return r.client.Set(ctx, key, value, expiration).Err()
}

// Delete removes keys, retrying transient failures. Summary invalidation
// relies on it, so a blip must not leave stale totals behind.
func (r *RedisClient) Delete(ctx context.Context, keys ...string) error {
	return RetryRedisOperation(ctx, func() error {
		return r.client.Del(ctx, keys...).Err()
	})
}

// GetJSON retrieves and unmarshals a JSON value.
func (r *RedisClient) GetJSON(ctx context.Context, key string, dest any) error {
	val, err := r.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(val), dest)
}

// SetJSON marshals and sets a JSON value.
func (r *RedisClient) SetJSON(ctx context.Context, key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return r.Set(ctx, key, string(data), expiration)
}

// GetInt reads an integer counter. A missing key reads as zero.
func (r *RedisClient) GetInt(ctx context.Context, key string) (int64, error) {
	n, err := r.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// Incr increments an integer counter, retrying transient failures.
func (r *RedisClient) Incr(ctx context.Context, key string) (int64, error) {
	return RetryWithResult(ctx, redisRetryConfig(), func() (int64, error) {
		return r.client.Incr(ctx, key).Result()
	})
}

// setIfVersionScript writes KEYS[1] only while the counter at KEYS[2] still
// equals ARGV[2]; a missing counter counts as zero.
var setIfVersionScript = redis.NewScript(`
if (redis.call("get", KEYS[2]) or "0") ~= ARGV[2] then
	return 0
end
redis.call("set", KEYS[1], ARGV[1], "PX", ARGV[3])
return 1
`)

// SetJSONIfVersion stores value at key only if the counter at versionKey
// still equals version. It reports whether the value was written.
func (r *RedisClient) SetJSONIfVersion(ctx context.Context, key string, value any, expiration time.Duration, versionKey string, version int64) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("failed to marshal value: %w", err)
	}
	written, err := setIfVersionScript.Run(ctx, r.client,
		[]string{key, versionKey},
		string(data), strconv.FormatInt(version, 10), expiration.Milliseconds(),
	).Int()
	if err != nil {
		return false, err
	}
	return written == 1, nil
}

// releaseScript deletes the lock key only while it still holds the owner's token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Lock is a lock held on a single key until released or expired.
type Lock struct {
	client *redis.Client
	key    string
	token  string
}

// AcquireLock takes the lock on key without waiting. It returns
// ErrLockNotAcquired while another owner holds it.
func (r *RedisClient) AcquireLock(ctx context.Context, key string, ttl time.Duration) (*Lock, error) {
	token := uuid.NewString()
	acquired, err := r.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !acquired {
		return nil, ErrLockNotAcquired
	}
	return &Lock{client: r.client, key: key, token: token}, nil
}

// Release frees the lock if this owner still holds it. A lock that already
// expired is left to its new owner.
func (l *Lock) Release(ctx context.Context) error {
	return RetryRedisOperation(ctx, func() error {
		return releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err()
	})
}
