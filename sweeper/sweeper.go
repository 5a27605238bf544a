package sweeper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"docConverter/cache"
	"docConverter/metrics"
	"docConverter/models"
	"docConverter/storage"
	"docConverter/store"
)

// Sweeper bounds storage growth. Each sweep reclaims result artifacts that
// were fetched at least once or whose retention window has passed, fails
// tasks stuck in processing past the stale timeout, and finally deletes
// terminal records that outlived the post-sweep grace period.
type Sweeper struct {
	store     store.Store
	storage   storage.Store
	cache     *cache.StatusCache
	retention time.Duration
	grace     time.Duration
	stale     time.Duration
	interval  time.Duration
	logger    *zap.Logger
}

type Config struct {
	Retention time.Duration // artifact lifetime after completion
	Grace     time.Duration // record lifetime beyond the retention window
	Stale     time.Duration // processing watchdog timeout
	Interval  time.Duration
}

func New(st store.Store, blobs storage.Store, statusCache *cache.StatusCache, cfg Config, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		store:     st,
		storage:   blobs,
		cache:     statusCache,
		retention: cfg.Retention,
		grace:     cfg.Grace,
		stale:     cfg.Stale,
		interval:  cfg.Interval,
		logger:    logger.With(zap.String("component", "sweeper")),
	}
}

func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("Cleanup sweeper started",
		zap.Duration("retention", s.retention),
		zap.Duration("grace", s.grace),
		zap.Duration("interval", s.interval),
	)

	s.Sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Cleanup sweeper stopping")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one pass. Safe to call concurrently with executors: all
// mutation goes through the store's atomic operations.
func (s *Sweeper) Sweep(ctx context.Context) {
	tasks, err := s.store.List(ctx)
	if err != nil {
		s.logger.Error("Task listing failed", zap.Error(err))
		return
	}

	now := time.Now()
	for _, task := range tasks {
		switch task.Status {
		case models.StatusProcessing:
			s.failStale(ctx, task, now)
		case models.StatusCompleted:
			if !task.Swept && s.reclaimable(task, now) {
				s.reclaim(ctx, task)
			}
		}

		if task.Terminal() && task.CompletedAt != nil && now.Sub(*task.CompletedAt) > s.retention+s.grace {
			s.expireRecord(ctx, task)
		}
	}
}

func (s *Sweeper) reclaimable(task *models.Task, now time.Time) bool {
	if task.FetchedAt != nil {
		return true
	}
	return task.CompletedAt != nil && now.Sub(*task.CompletedAt) > s.retention
}

func (s *Sweeper) reclaim(ctx context.Context, task *models.Task) {
	if err := s.storage.Delete(ctx, task.ResultKey); err != nil {
		s.logger.Error("Artifact removal failed",
			zap.String("task_id", task.ID),
			zap.String("key", task.ResultKey),
			zap.Error(err),
		)
		return
	}
	if err := s.store.MarkSwept(ctx, task.ID); err != nil {
		s.logger.Error("Sweep bookkeeping failed", zap.String("task_id", task.ID), zap.Error(err))
		return
	}
	metrics.ArtifactSwept()
	s.logger.Info("Artifact reclaimed",
		zap.String("task_id", task.ID),
		zap.Bool("fetched", task.FetchedAt != nil),
	)
}

// failStale is the watchdog for orphaned processing tasks: an executor that
// never reached a terminal transition within the stale timeout is treated
// as dead and its task failed.
func (s *Sweeper) failStale(ctx context.Context, task *models.Task, now time.Time) {
	if task.StartedAt == nil || now.Sub(*task.StartedAt) <= s.stale {
		return
	}

	payload := store.TransitionPayload{ErrorMessage: "conversion timed out"}
	if err := s.store.Transition(ctx, task.ID, models.StatusFailed, payload); err != nil {
		// the executor may have finished in the meantime; that race is fine
		return
	}
	metrics.RecordTransition(string(models.StatusFailed))
	if s.cache != nil {
		_ = s.cache.Set(ctx, task.ID, models.StatusFailed)
	}
	for _, in := range task.Inputs {
		_ = s.storage.Delete(ctx, in.Key)
	}
	s.logger.Warn("Stale processing task failed by watchdog",
		zap.String("task_id", task.ID),
		zap.Duration("age", now.Sub(*task.StartedAt)),
	)
}

func (s *Sweeper) expireRecord(ctx context.Context, task *models.Task) {
	if !task.Swept && task.ResultKey != "" {
		if err := s.storage.Delete(ctx, task.ResultKey); err != nil {
			s.logger.Error("Artifact removal failed",
				zap.String("task_id", task.ID),
				zap.Error(err),
			)
			return
		}
	}
	if err := s.store.Delete(ctx, task.ID); err != nil {
		s.logger.Error("Record removal failed", zap.String("task_id", task.ID), zap.Error(err))
		return
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, task.ID)
	}
	s.logger.Info("Expired record removed", zap.String("task_id", task.ID))
}
