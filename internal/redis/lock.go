package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const catalogLockKey = "lock:catalog"

// releaseScript deletes the lock only while it still carries the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireCatalogLock attempts to take the catalog write lock.
// Returns the holder token and true if acquired, false if already held.
func (s *LockStore) AcquireCatalogLock(ctx context.Context, ttl time.Duration) (string, bool, error) {
	token := uuid.New().String()

	ok, err := s.client.SetNX(ctx, catalogLockKey, token, ttl).Result()
	if err != nil {
		return "", false, err
	}

	return token, ok, nil
}

// ReleaseCatalogLock releases the catalog lock if token still holds it.
func (s *LockStore) ReleaseCatalogLock(ctx context.Context, token string) error {
	return releaseScript.Run(ctx, s.client, []string{catalogLockKey}, token).Err()
}
