package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionCache holds recently validated sessions. Get returns nil, nil on a miss.
type SessionCache interface {
	Get(ctx context.Context, key string) (*SessionUser, error)
	Set(ctx context.Context, key string, user *SessionUser) error
}

// SessionKey derives a cache key from the cookie and the roles it was validated for
func SessionKey(cookie string, roles []string) string {
	sum := sha256.Sum256([]byte(cookie + "|" + strings.Join(roles, ",")))
	return hex.EncodeToString(sum[:])
}

// RedisSessionCache implements SessionCache on Redis
type RedisSessionCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisSessionCache connects to redisURL and checks the connection
func NewRedisSessionCache(redisURL string, ttl time.Duration) (*RedisSessionCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisSessionCacheWithClient(client, ttl), nil
}

// NewRedisSessionCacheWithClient creates a cache from an existing client
func NewRedisSessionCacheWithClient(client *redis.Client, ttl time.Duration) *RedisSessionCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisSessionCache{
		client: client,
		prefix: "session:",
		ttl:    ttl,
	}
}

func (s *RedisSessionCache) key(k string) string {
	return s.prefix + k
}

// Get returns the cached user or nil
func (s *RedisSessionCache) Get(ctx context.Context, key string) (*SessionUser, error) {
	raw, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}

	var user SessionUser
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &user, nil
}

// Set caches the user for the configured TTL
func (s *RedisSessionCache) Set(ctx context.Context, key string, user *SessionUser) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(key), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Ping checks if Redis is reachable
func (s *RedisSessionCache) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *RedisSessionCache) Close() error {
	return s.client.Close()
}
