package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisBlacklist stores revoked refresh-token ids as expiring Redis keys.
// Key: blacklist:refresh:<jti>, value: the owning user id.
type RedisBlacklist struct {
	client *redis.Client
	prefix string
}

// NewRedisBlacklist creates a RedisBlacklist on top of an existing client.
func NewRedisBlacklist(client *redis.Client) *RedisBlacklist {
	return &RedisBlacklist{client: client, prefix: "blacklist:refresh:"}
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}

// Add blacklists jti until expiresAt. SETNX makes the membership check and
// the write a single step.
func (b *RedisBlacklist) Add(ctx context.Context, jti string, userID int64, expiresAt time.Time) (bool, error) {
	ttl := time.Until(expiresAt)
	if ttl < time.Second {
		ttl = time.Second
	}
	added, err := b.client.SetNX(ctx, b.prefix+jti, strconv.FormatInt(userID, 10), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("blacklist token: %w", err)
	}
	return added, nil
}

// Contains reports whether jti is blacklisted.
func (b *RedisBlacklist) Contains(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, b.prefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("check token blacklist: %w", err)
	}
	return n > 0, nil
}

// PurgeExpired is a no-op: Redis expires the keys itself.
func (b *RedisBlacklist) PurgeExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}
