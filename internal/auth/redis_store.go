package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
)

const refreshKeyPrefix = "refresh:"

// RedisRefreshTokenStore keeps live refresh tokens in Redis, keyed by their
// SHA-256 digest and expiring with the token.
type RedisRefreshTokenStore struct {
	rdb *redis.Client
}

// NewRedisRefreshTokenStore creates a store on rdb.
func NewRedisRefreshTokenStore(rdb *redis.Client) *RedisRefreshTokenStore {
	return &RedisRefreshTokenStore{rdb: rdb}
}

func (s *RedisRefreshTokenStore) Add(ctx context.Context, token string, ttl time.Duration) error {
	return s.rdb.Set(ctx, refreshKey(token), 1, ttl).Err()
}

func (s *RedisRefreshTokenStore) Remove(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, refreshKey(token)).Err()
}

func (s *RedisRefreshTokenStore) Contains(ctx context.Context, token string) (bool, error) {
	n, err := s.rdb.Exists(ctx, refreshKey(token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func refreshKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return refreshKeyPrefix + hex.EncodeToString(sum[:])
}
