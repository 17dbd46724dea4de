package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ispbill/backend/internal/domain/report"
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

const summaryKey = keyPrefix + "summary:latest"

// RedisSummaryCache keeps the latest dashboard summary in Redis so every
// server instance serves the same figures and sees the same invalidations
type RedisSummaryCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisSummaryCache creates a summary cache; a zero ttl keeps entries
// until they are invalidated
func NewRedisSummaryCache(client redis.Cmdable, ttl time.Duration) *RedisSummaryCache {
	return &RedisSummaryCache{client: client, ttl: ttl}
}

// Get returns the cached summary or shared.ErrNotFound
func (c *RedisSummaryCache) Get(ctx context.Context) (*report.SummaryReport, error) {
	data, err := c.client.Get(ctx, summaryKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read cached summary: %w", err)
	}

	var summary report.SummaryReport
	if err := json.Unmarshal(data, &summary); err != nil {
		// an unreadable entry is a miss; the next recompute overwrites it
		return nil, shared.ErrNotFound
	}
	return &summary, nil
}

// Set stores the summary
func (c *RedisSummaryCache) Set(ctx context.Context, summary *report.SummaryReport) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	if err := c.client.Set(ctx, summaryKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache summary: %w", err)
	}
	return nil
}

// Invalidate drops the cached summary
func (c *RedisSummaryCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, summaryKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate summary: %w", err)
	}
	return nil
}
