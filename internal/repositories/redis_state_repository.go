package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisCmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// RedisStateRepo stores each document under <prefix>:<user>:<key>.
type RedisStateRepo struct {
	client redisCmdable
	prefix string
}

// NewRedisStateRepo constructs a RedisStateRepo.
func NewRedisStateRepo(client redisCmdable, prefix string) *RedisStateRepo {
	return &RedisStateRepo{client: client, prefix: strings.TrimSuffix(prefix, ":")}
}

// Key returns the redis key used for a document.
func (r *RedisStateRepo) Key(userID string, key string) string {
	return r.prefix + ":" + userID + ":" + key
}

// LoadState returns the stored document or ErrStateNotFound.
func (r *RedisStateRepo) LoadState(ctx context.Context, userID string, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.Key(userID, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrStateNotFound
	}
	return data, err
}

// SaveState writes the document without expiry.
func (r *RedisStateRepo) SaveState(ctx context.Context, userID string, key string, payload []byte) error {
	return r.client.Set(ctx, r.Key(userID, key), payload, 0).Err()
}
