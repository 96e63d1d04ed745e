// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package reaper sweeps stored objects that no catalog row points at anymore.

Workflows remove objects best-effort after their database writes commit, so a
storage outage can leave files behind. The reaper reconciles both buckets on a
cron schedule.

Safety rules:

  - Objects younger than MinAge are never touched; an upload may still be
    waiting for the row that will reference it.
  - A row that only stores a public URL still protects its object.
  - DryRun logs what would be removed and removes nothing.
*/
package reaper

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/taibuivan/komik/internal/platform/storage"
)

// sweepTimeout bounds one scheduled run.
const sweepTimeout = 10 * time.Minute

// Store is the object store surface a sweep needs.
type Store interface {
	storage.ObjectStorage
	storage.Lister
}

// Options tunes a sweep.
type Options struct {
	MinAge time.Duration
	DryRun bool
}

// Report summarises the sweep of one bucket.
type Report struct {
	Bucket     string
	Scanned    int
	Young      int
	Referenced int
	Orphans    []string
	Removed    int
}

// Reaper reconciles the object store against the catalog.
type Reaper struct {
	repo    Repository
	store   Store
	cleaner *storage.Cleaner
	buckets storage.Buckets
	options Options
	logger  *slog.Logger
	now     func() time.Time
}

// New constructs a [Reaper].
func New(repo Repository, store Store, buckets storage.Buckets, options Options, logger *slog.Logger) *Reaper {
	return &Reaper{
		repo:    repo,
		store:   store,
		cleaner: storage.NewCleaner(store, logger),
		buckets: buckets,
		options: options,
		logger:  logger,
		now:     time.Now,
	}
}

/*
Run sweeps the cover bucket and then the chapter bucket.

Parameters:
  - context: context.Context

Returns:
  - []Report: one report per bucket swept
  - error: reference or listing failures; nothing is removed from a bucket
    whose references could not be loaded
*/
func (reaper *Reaper) Run(context stdctx.Context) ([]Report, error) {
	sweeps := []struct {
		bucket     string
		references func(stdctx.Context) ([]Reference, error)
	}{
		{reaper.buckets.Covers, reaper.repo.CoverReferences},
		{reaper.buckets.Chapters, reaper.repo.PageReferences},
	}

	reports := make([]Report, 0, len(sweeps))
	for _, sweep := range sweeps {
		report, err := reaper.sweep(context, sweep.bucket, sweep.references)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func (reaper *Reaper) sweep(context stdctx.Context, bucket string, load func(stdctx.Context) ([]Reference, error)) (Report, error) {
	report := Report{Bucket: bucket}

	// 1. Snapshot references before listing
	references, err := load(context)
	if err != nil {
		return report, fmt.Errorf("reaper: load references for %s: %w", bucket, err)
	}
	referenced := make(map[string]struct{}, len(references))
	for _, reference := range references {
		if path, ok := storage.ResolvePath(reference.StoragePath, reference.URL, bucket); ok {
			referenced[path] = struct{}{}
		}
	}

	// 2. Walk the bucket
	cutoff := reaper.now().Add(-reaper.options.MinAge)
	err = reaper.store.Walk(context, bucket, func(object storage.ObjectInfo) error {
		report.Scanned++
		switch {
		case object.LastModified.After(cutoff):
			report.Young++
		case hasKey(referenced, object.Path):
			report.Referenced++
		default:
			report.Orphans = append(report.Orphans, object.Path)
		}
		return nil
	})
	if err != nil {
		return report, fmt.Errorf("reaper: walk %s: %w", bucket, err)
	}

	// 3. Remove
	if !reaper.options.DryRun {
		report.Removed = reaper.cleaner.Remove(context, bucket, report.Orphans, "reaper")
	}

	reaper.logger.InfoContext(context, "reaper_swept",
		slog.String("bucket", bucket),
		slog.Int("scanned", report.Scanned),
		slog.Int("young", report.Young),
		slog.Int("referenced", report.Referenced),
		slog.Int("orphans", len(report.Orphans)),
		slog.Int("removed", report.Removed),
		slog.Bool("dry_run", reaper.options.DryRun),
	)
	if reaper.options.DryRun && len(report.Orphans) > 0 {
		reaper.logger.InfoContext(context, "reaper_dry_run_orphans",
			slog.String("bucket", bucket), slog.Any("paths", report.Orphans))
	}

	return report, nil
}

func hasKey(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}

// # Scheduling

/*
Schedule registers the sweep on a new cron scheduler.

Description: Overlapping runs are skipped. The caller owns the returned
scheduler and must Start and Stop it.

Parameters:
  - parent: context.Context (cancelled on shutdown)
  - schedule: string (standard five-field cron expression)

Returns:
  - *cron.Cron: the scheduler, not yet started
  - error: an invalid schedule expression
*/
func (reaper *Reaper) Schedule(parent stdctx.Context, schedule string) (*cron.Cron, error) {
	logger := cronLogger{reaper.logger}
	scheduler := cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))

	_, err := scheduler.AddFunc(schedule, func() {
		ctx, cancel := stdctx.WithTimeout(parent, sweepTimeout)
		defer cancel()

		if _, err := reaper.Run(ctx); err != nil {
			reaper.logger.ErrorContext(ctx, "reaper_failed", slog.Any("error", err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("reaper: invalid schedule %q: %w", schedule, err)
	}

	reaper.logger.Info("reaper_scheduled",
		slog.String("schedule", schedule),
		slog.Duration("min_age", reaper.options.MinAge),
		slog.Bool("dry_run", reaper.options.DryRun),
	)
	return scheduler, nil
}

// cronLogger adapts slog to [cron.Logger].
type cronLogger struct {
	logger *slog.Logger
}

func (adapter cronLogger) Info(message string, keysAndValues ...any) {
	adapter.logger.Debug("cron_"+message, keysAndValues...)
}

func (adapter cronLogger) Error(err error, message string, keysAndValues ...any) {
	adapter.logger.Error("cron_"+message, append(keysAndValues, slog.Any("error", err))...)
}
