package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"docConverter/cache"
	"docConverter/converter"
	"docConverter/formats"
	"docConverter/metrics"
	"docConverter/models"
	"docConverter/storage"
	"docConverter/store"
)

// Executor runs one conversion per task off the request path. The claim
// transition is the at-most-once point: whichever caller moves the task
// from queued to processing does the work, every other caller backs off.
type Executor struct {
	store    store.Store
	storage  storage.Store
	registry *converter.Registry
	cache    *cache.StatusCache
	timeout  time.Duration
	logger   *zap.Logger
}

func New(st store.Store, blobs storage.Store, registry *converter.Registry, statusCache *cache.StatusCache, timeout time.Duration, logger *zap.Logger) *Executor {
	return &Executor{
		store:    st,
		storage:  blobs,
		registry: registry,
		cache:    statusCache,
		timeout:  timeout,
		logger:   logger.With(zap.String("component", "executor")),
	}
}

// Execute claims and converts one task. Converter failures and panics end
// in the failed state and never propagate; a task already claimed elsewhere
// is a silent no-op.
func (e *Executor) Execute(ctx context.Context, taskID string) {
	task, err := e.store.Get(ctx, taskID)
	if err != nil {
		e.logger.Warn("Task lookup failed", zap.String("task_id", taskID), zap.Error(err))
		return
	}

	if err := e.store.Transition(ctx, taskID, models.StatusProcessing, store.TransitionPayload{}); err != nil {
		if errors.Is(err, store.ErrInvalidTransition) {
			// already claimed
			return
		}
		e.logger.Error("Claim failed", zap.String("task_id", taskID), zap.Error(err))
		return
	}
	e.setStatus(ctx, taskID, models.StatusProcessing)
	metrics.RecordTransition(string(models.StatusProcessing))
	metrics.TaskStarted()
	defer metrics.TaskFinished()

	// staged inputs never outlive the execution, success or failure
	defer e.discardStaging(ctx, task)

	e.logger.Info("Conversion started",
		zap.String("task_id", taskID),
		zap.String("source", task.SourceKind),
		zap.String("target", task.TargetFormat),
		zap.Int("inputs", len(task.Inputs)),
	)

	start := time.Now()
	result, err := e.convert(ctx, task)
	if err != nil {
		e.fail(ctx, task, err)
		return
	}
	if len(result) == 0 {
		e.fail(ctx, task, &converter.ConversionError{
			Source: task.SourceKind,
			Target: task.TargetFormat,
			Cause:  errors.New("converter produced no output"),
		})
		return
	}

	resultKey := fmt.Sprintf("results/%s.%s", task.ID, task.TargetFormat)
	if err := e.storage.Put(ctx, resultKey, result); err != nil {
		e.fail(ctx, task, fmt.Errorf("store result: %w", err))
		return
	}

	payload := store.TransitionPayload{
		ResultKey:   resultKey,
		ContentType: formats.ContentType(task.TargetFormat),
	}
	if err := e.store.Transition(ctx, task.ID, models.StatusCompleted, payload); err != nil {
		// lost the race with the watchdog: the record is already terminal
		// and will never point at this blob, so reclaim it now
		if delErr := e.storage.Delete(ctx, resultKey); delErr != nil {
			e.logger.Error("Orphaned result cleanup failed",
				zap.String("task_id", task.ID),
				zap.String("key", resultKey),
				zap.Error(delErr),
			)
		}
		e.logger.Error("Completion transition failed", zap.String("task_id", task.ID), zap.Error(err))
		return
	}
	e.setStatus(ctx, task.ID, models.StatusCompleted)
	metrics.RecordTransition(string(models.StatusCompleted))
	metrics.ObserveConversion(task.SourceKind, task.TargetFormat, time.Since(start))

	e.logger.Info("Conversion completed",
		zap.String("task_id", task.ID),
		zap.Duration("duration", time.Since(start)),
		zap.Int("result_bytes", len(result)),
	)
}

func (e *Executor) convert(ctx context.Context, task *models.Task) (out []byte, err error) {
	fn, ok := e.registry.Lookup(task.SourceKind, task.TargetFormat)
	if !ok {
		// admission validates pairs against the registry, so this means
		// the table and registry diverged after startup
		return nil, fmt.Errorf("no converter registered for %s to %s", task.SourceKind, task.TargetFormat)
	}

	inputs := make([]converter.Input, len(task.Inputs))
	for i, in := range task.Inputs {
		data, err := e.storage.Get(ctx, in.Key)
		if err != nil {
			return nil, fmt.Errorf("load staged input %s: %w", in.Name, err)
		}
		inputs[i] = converter.Input{Name: in.Name, Kind: in.Kind, Data: data}
	}

	cctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = &converter.ConversionError{
				Source: task.SourceKind,
				Target: task.TargetFormat,
				Cause:  fmt.Errorf("converter panic: %v", r),
			}
		}
	}()

	out, err = fn(cctx, inputs, task.TargetFormat)
	if err != nil {
		return nil, &converter.ConversionError{
			Source: task.SourceKind,
			Target: task.TargetFormat,
			Cause:  err,
		}
	}
	return out, nil
}

func (e *Executor) fail(ctx context.Context, task *models.Task, cause error) {
	e.logger.Error("Conversion failed",
		zap.String("task_id", task.ID),
		zap.String("source", task.SourceKind),
		zap.String("target", task.TargetFormat),
		zap.Error(cause),
	)

	payload := store.TransitionPayload{ErrorMessage: cause.Error()}
	if err := e.store.Transition(ctx, task.ID, models.StatusFailed, payload); err != nil {
		e.logger.Error("Failure transition failed", zap.String("task_id", task.ID), zap.Error(err))
		return
	}
	e.setStatus(ctx, task.ID, models.StatusFailed)
	metrics.RecordTransition(string(models.StatusFailed))
}

func (e *Executor) discardStaging(ctx context.Context, task *models.Task) {
	for _, in := range task.Inputs {
		if err := e.storage.Delete(ctx, in.Key); err != nil {
			e.logger.Warn("Staged input cleanup failed",
				zap.String("task_id", task.ID),
				zap.String("key", in.Key),
				zap.Error(err),
			)
		}
	}
}

func (e *Executor) setStatus(ctx context.Context, taskID string, status models.TaskStatus) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Set(ctx, taskID, status); err != nil {
		e.logger.Warn("Status cache update failed", zap.String("task_id", taskID), zap.Error(err))
	}
}
