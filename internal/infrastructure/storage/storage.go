// Package storage provides the object stores archive exports are written to.
package storage

import (
	"context"
	"fmt"

	billingapp "github.com/ispbill/backend/internal/application/billing"
	infraconfig "github.com/ispbill/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ArchiveStore is an ObjectStore that can prepare itself at startup
type ArchiveStore interface {
	billingapp.ObjectStore
	EnsureBucket(ctx context.Context) error
}

// New returns the S3 store when storage is enabled and the local directory
// store otherwise
func New(cfg *infraconfig.StorageConfig, logger *zap.Logger) (ArchiveStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil || !cfg.Enabled {
		dir := "./data/archive"
		if cfg != nil && cfg.LocalDir != "" {
			dir = cfg.LocalDir
		}
		logger.Info("S3 storage disabled, writing archives to local directory", zap.String("dir", dir))
		return NewLocalArchiveStore(dir), nil
	}

	store, err := NewS3ObjectStorage(cfg, WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 storage: %w", err)
	}
	return store, nil
}
