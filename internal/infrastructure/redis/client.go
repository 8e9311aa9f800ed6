package redis

import (
	"context"
	"log/slog"
	"time"

	stderrors "errors"

	"github.com/redis/go-redis/v9"
)

//go:generate mockgen -source=client.go -destination=mocks/client_mock.go -package=mocks

var ErrKeyNotFound = stderrors.New("key not found")

// RedisClient defines the interface for Redis operations.
type RedisClient interface {
	Get(ctx context.Context, key string) (string, error)
	SetIfVersion(ctx context.Context, key, versionKey, version, value string, expiration time.Duration) (bool, error)
	DelAndBump(ctx context.Context, key, versionKey string, versionTTL time.Duration) error
	Ping(ctx context.Context) error
	Close() error
}

// A missing version key reads as "0".
var setIfVersion = redis.NewScript(`
local v = redis.call('GET', KEYS[2])
if not v then v = '0' end
if v ~= ARGV[1] then return 0 end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

var delAndBump = redis.NewScript(`
redis.call('INCR', KEYS[2])
redis.call('PEXPIRE', KEYS[2], ARGV[1])
redis.call('DEL', KEYS[1])
return 1
`)

// Client is the implementation of RedisClient.
type Client struct {
	client *redis.Client
}

// NewClient connects to addr and verifies the connection with a PING.
func NewClient(ctx context.Context, addr string) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		slog.Error("failed to connect to Redis", "addr", addr, "error", err)
		_ = client.Close()
		return nil, err
	}

	slog.Info("connected to Redis", "addr", addr)
	return &Client{client: client}, nil
}

func (c *Client) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if stderrors.Is(err, redis.Nil) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

// SetIfVersion stores value under key only while versionKey still holds
// version. It reports whether the value was written.
func (c *Client) SetIfVersion(ctx context.Context, key, versionKey, version, value string, expiration time.Duration) (bool, error) {
	n, err := setIfVersion.Run(ctx, c.client, []string{key, versionKey}, version, value, expiration.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// DelAndBump deletes key and increments versionKey in one step, so a writer
// holding the old version can no longer store under key.
func (c *Client) DelAndBump(ctx context.Context, key, versionKey string, versionTTL time.Duration) error {
	return delAndBump.Run(ctx, c.client, []string{key, versionKey}, versionTTL.Milliseconds()).Err()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.client.Close()
}
