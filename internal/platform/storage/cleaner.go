// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storage

import (
	"context"
	"log/slog"
	"time"

	"github.com/taibuivan/komik/internal/platform/constants"
	"github.com/taibuivan/komik/internal/platform/ctxutil"
)

// cleanupTimeout bounds each batch once the request that triggered it is gone.
const cleanupTimeout = 30 * time.Second

// Cleaner removes objects without ever failing the caller.
//
// It runs after the database has committed, so a storage hiccup can only leave
// an orphaned object behind. Every failed batch is logged with enough context
// (bucket, paths, operation) to reconcile it by hand or by the reaper.
type Cleaner struct {
	storage   ObjectStorage
	logger    *slog.Logger
	batchSize int
}

// NewCleaner wraps storage with the standard batch size.
func NewCleaner(storage ObjectStorage, logger *slog.Logger) *Cleaner {
	return &Cleaner{storage: storage, logger: logger, batchSize: constants.StorageRemoveBatchSize}
}

// Remove deletes paths in batches and reports how many were confirmed removed.
func (cleaner *Cleaner) Remove(ctx context.Context, bucket string, paths []string, operation string) int {
	paths = compact(paths)
	if len(paths) == 0 {
		return 0
	}

	logger := ctxutil.LoggerOr(ctx, cleaner.logger)

	// The client may already have hung up; cleanup still has to run.
	detached := context.WithoutCancel(ctx)

	removed := 0
	for start := 0; start < len(paths); start += cleaner.batchSize {
		end := min(start+cleaner.batchSize, len(paths))
		batch := paths[start:end]

		batchContext, cancel := context.WithTimeout(detached, cleanupTimeout)
		err := cleaner.storage.Remove(batchContext, bucket, batch)
		cancel()

		if err != nil {
			logger.WarnContext(ctx, "storage_cleanup_failed",
				slog.String("bucket", bucket),
				slog.Any("paths", batch),
				slog.String("operation", operation),
				slog.Any("error", err),
			)
			continue
		}
		removed += len(batch)
	}

	logger.DebugContext(ctx, "storage_cleanup_finished",
		slog.String("bucket", bucket),
		slog.String("operation", operation),
		slog.Int("requested", len(paths)),
		slog.Int("removed", removed),
	)
	return removed
}

// compact drops empty and duplicate paths while keeping order.
func compact(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	result := make([]string, 0, len(paths))
	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, duplicate := seen[path]; duplicate {
			continue
		}
		seen[path] = struct{}{}
		result = append(result, path)
	}
	return result
}
