package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

const lockPrefix = keyPrefix + "lock:"

// releaseScript deletes the lock only while it still holds our token, so an
// expired lock taken over by another instance is left alone
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// lockClient is the subset of the Redis client the locker needs
type lockClient interface {
	redis.Scripter
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// RedisLocker implements shared.Locker with SET NX and a token-checked release
type RedisLocker struct {
	client lockClient
}

// NewRedisLocker creates a Redis-backed locker
func NewRedisLocker(client lockClient) *RedisLocker {
	return &RedisLocker{client: client}
}

// TryLock acquires key for ttl or returns shared.ErrConflict when it is held
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, lockPrefix+key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, shared.ErrConflict
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{lockPrefix + key}, token).Err(); err != nil {
			return fmt.Errorf("failed to release lock %s: %w", key, err)
		}
		return nil
	}
	return release, nil
}

var _ shared.Locker = (*RedisLocker)(nil)
