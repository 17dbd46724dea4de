package cache

import (
	"context"
	"fmt"

	"github.com/ispbill/backend/internal/domain/report"
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/ispbill/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SummaryStore is the cache contract the report service consumes
type SummaryStore interface {
	Get(ctx context.Context) (*report.SummaryReport, error)
	Set(ctx context.Context, summary *report.SummaryReport) error
	Invalidate(ctx context.Context) error
}

// Backend bundles the summary cache and the locker picked for this process
type Backend struct {
	Summary SummaryStore
	Locker  shared.Locker
	// Distributed is true when both live in Redis
	Distributed bool

	client *redis.Client
}

// Close releases the Redis connection, if any
func (b *Backend) Close() error {
	if b.client == nil {
		return nil
	}
	return b.client.Close()
}

// Factory creates the cache backend based on configuration
type Factory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-process storage
// when Redis is enabled but unreachable. Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFactory creates a new factory
func NewFactory(cfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns a Redis backend when Redis is enabled and reachable, and an
// in-process one otherwise
func (f *Factory) Create(ctx context.Context) (*Backend, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory summary cache and locks")
		return f.inMemory(), nil
	}

	client, err := NewRedisClient(ctx, f.redisConfig)
	if err == nil {
		f.logger.Info("using Redis summary cache and locks", zap.String("addr", f.redisConfig.Addr()))
		return &Backend{
			Summary:     NewRedisSummaryCache(client, f.redisConfig.SummaryTTL),
			Locker:      NewRedisLocker(client),
			Distributed: true,
			client:      client,
		}, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for summary cache but unavailable: %w", err)
	}
	f.logger.Warn("Redis unavailable, falling back to in-memory summary cache and locks. "+
		"Jobs and payments are only serialized within this instance.",
		zap.Error(err),
	)
	return f.inMemory(), nil
}

func (f *Factory) inMemory() *Backend {
	return &Backend{
		Summary: NewInMemorySummaryCache(f.redisConfig.SummaryTTL),
		Locker:  NewInMemoryLocker(),
	}
}
