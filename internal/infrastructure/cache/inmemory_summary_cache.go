package cache

import (
	"context"
	"sync"
	"time"

	"github.com/ispbill/backend/internal/domain/report"
	"github.com/ispbill/backend/internal/domain/shared"
)

// InMemorySummaryCache keeps the summary in process.
// This is suitable for single-instance deployments and testing
type InMemorySummaryCache struct {
	mu        sync.RWMutex
	summary   *report.SummaryReport
	expiresAt time.Time
	ttl       time.Duration
	now       func() time.Time
}

// NewInMemorySummaryCache creates an in-process summary cache; a zero ttl
// keeps the entry until it is invalidated
func NewInMemorySummaryCache(ttl time.Duration) *InMemorySummaryCache {
	return &InMemorySummaryCache{ttl: ttl, now: time.Now}
}

// Get returns a copy of the cached summary or shared.ErrNotFound
func (c *InMemorySummaryCache) Get(_ context.Context) (*report.SummaryReport, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.summary == nil || (!c.expiresAt.IsZero() && c.now().After(c.expiresAt)) {
		return nil, shared.ErrNotFound
	}
	s := *c.summary
	return &s, nil
}

// Set stores a copy of the summary
func (c *InMemorySummaryCache) Set(_ context.Context, summary *report.SummaryReport) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := *summary
	c.summary = &s
	c.expiresAt = time.Time{}
	if c.ttl > 0 {
		c.expiresAt = c.now().Add(c.ttl)
	}
	return nil
}

// Invalidate drops the cached summary
func (c *InMemorySummaryCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.summary = nil
	return nil
}
