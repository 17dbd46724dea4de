package cache

import (
	"context"
	"sync"
	"time"

	"github.com/ispbill/backend/internal/domain/shared"
)

// lease is a held lock with its expiry
type lease struct {
	token     uint64
	expiresAt time.Time
}

// InMemoryLocker implements shared.Locker inside one process.
// WARNING: locks are not shared across instances; use RedisLocker when more
// than one server runs the scheduler or accepts payments
type InMemoryLocker struct {
	mu     sync.Mutex
	leases map[string]lease
	next   uint64
	now    func() time.Time
}

// NewInMemoryLocker creates an in-process locker
func NewInMemoryLocker() *InMemoryLocker {
	return &InMemoryLocker{
		leases: make(map[string]lease),
		now:    time.Now,
	}
}

// TryLock acquires key for ttl or returns shared.ErrConflict when it is held.
// An expired lease is taken over.
func (l *InMemoryLocker) TryLock(_ context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if held, ok := l.leases[key]; ok && now.Before(held.expiresAt) {
		return nil, shared.ErrConflict
	}

	l.next++
	token := l.next
	l.leases[key] = lease{token: token, expiresAt: now.Add(ttl)}

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if held, ok := l.leases[key]; ok && held.token == token {
			delete(l.leases, key)
		}
		return nil
	}, nil
}

// Held returns the number of unexpired locks (for testing/monitoring)
func (l *InMemoryLocker) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	n := 0
	for _, held := range l.leases {
		if now.Before(held.expiresAt) {
			n++
		}
	}
	return n
}

var _ shared.Locker = (*InMemoryLocker)(nil)
