package shared

import (
	"context"
	"time"
)

// Locker hands out named, expiring locks so that a job or a write runs at
// most once at a time across server instances.
type Locker interface {
	// TryLock acquires key for ttl. It returns ErrConflict when the key is
	// already held. The returned function releases the lock.
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}
