package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docConverter/cache"
	"docConverter/formats"
	"docConverter/metrics"
	"docConverter/models"
	"docConverter/queue"
	"docConverter/storage"
	"docConverter/store"
)

// Admission errors. All are client-caused, surfaced synchronously, and
// never create a task.
var (
	ErrEmptyUpload       = errors.New("no files uploaded")
	ErrPayloadTooLarge   = errors.New("combined upload size exceeds the limit")
	ErrUnsupportedSource = errors.New("unsupported source format")
	ErrUnsupportedTarget = errors.New("unsupported conversion target")
	ErrMergeTargetNotPDF = errors.New("multi-file conversion only supports pdf output")
)

// Retrieval errors.
var (
	ErrNotReady        = errors.New("conversion result not ready")
	ErrArtifactExpired = errors.New("conversion result has expired")
)

var admissionErrors = []error{
	ErrEmptyUpload,
	ErrPayloadTooLarge,
	ErrUnsupportedSource,
	ErrUnsupportedTarget,
	ErrMergeTargetNotPDF,
}

func IsAdmissionError(err error) bool {
	for _, sentinel := range admissionErrors {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// UploadedFile is one file of a submission, in submission order.
type UploadedFile struct {
	Name string
	Data []byte
}

// Artifact is a fetched conversion result.
type Artifact struct {
	Name        string
	ContentType string
	Data        []byte
}

type Limits struct {
	SingleUploadBytes int64
	MergeUploadBytes  int64
}

// TaskService is the admission gate plus the poll and fetch operations of
// the pipeline.
type TaskService struct {
	store   store.Store
	storage storage.Store
	queue   queue.Queue
	cache   *cache.StatusCache
	limits  Limits
	logger  *zap.Logger
}

func NewTaskService(st store.Store, blobs storage.Store, q queue.Queue, statusCache *cache.StatusCache, limits Limits, logger *zap.Logger) *TaskService {
	return &TaskService{
		store:   st,
		storage: blobs,
		queue:   q,
		cache:   statusCache,
		limits:  limits,
		logger:  logger.With(zap.String("component", "admission")),
	}
}

// Submit validates a submission, stages its inputs, creates the task in
// the queued state and hands its ID to the executor queue. The returned ID
// is valid for polling the instant this returns.
func (s *TaskService) Submit(ctx context.Context, files []UploadedFile, targetFormat string) (string, error) {
	sourceKind, err := s.validate(files, formats.Normalize(targetFormat))
	if err != nil {
		metrics.RecordSubmission(false)
		return "", err
	}
	target := formats.Normalize(targetFormat)

	id := uuid.New().String()
	inputs := make([]models.InputFile, len(files))
	for i, f := range files {
		name := filepath.Base(f.Name)
		kind := formats.Normalize(filepath.Ext(name))
		key := fmt.Sprintf("staging/%s/%03d_%s", id, i, name)
		if err := s.storage.Put(ctx, key, f.Data); err != nil {
			s.discard(ctx, inputs[:i])
			return "", fmt.Errorf("stage upload: %w", err)
		}
		inputs[i] = models.InputFile{Name: name, Key: key, Kind: kind, Size: int64(len(f.Data))}
	}

	task := &models.Task{
		ID:           id,
		SourceKind:   sourceKind,
		TargetFormat: target,
		Inputs:       inputs,
		Status:       models.StatusQueued,
		CreatedAt:    time.Now(),
	}
	if err := s.store.Create(ctx, task); err != nil {
		s.discard(ctx, inputs)
		return "", fmt.Errorf("create task: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, id, models.StatusQueued); err != nil {
			s.logger.Warn("Status cache update failed", zap.String("task_id", id), zap.Error(err))
		}
	}

	if err := s.queue.Enqueue(ctx, id); err != nil {
		_ = s.store.Delete(ctx, id)
		s.discard(ctx, inputs)
		return "", fmt.Errorf("enqueue task: %w", err)
	}

	metrics.RecordSubmission(true)
	s.logger.Info("Task admitted",
		zap.String("task_id", id),
		zap.String("source", sourceKind),
		zap.String("target", target),
		zap.Int("files", len(files)),
	)
	return id, nil
}

func (s *TaskService) validate(files []UploadedFile, target string) (string, error) {
	if len(files) == 0 {
		return "", ErrEmptyUpload
	}

	var total int64
	for _, f := range files {
		total += int64(len(f.Data))
	}

	if len(files) == 1 {
		kind, ok := formats.KindFromFilename(files[0].Name)
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrUnsupportedSource, filepath.Ext(files[0].Name))
		}
		if !formats.Allowed(kind, target) {
			return "", fmt.Errorf("%w: %s to %s", ErrUnsupportedTarget, kind, target)
		}
		if total > s.limits.SingleUploadBytes {
			return "", fmt.Errorf("%w: %d bytes (limit %d)", ErrPayloadTooLarge, total, s.limits.SingleUploadBytes)
		}
		return kind, nil
	}

	if target != formats.MergeTarget {
		return "", fmt.Errorf("%w: requested %s", ErrMergeTargetNotPDF, target)
	}
	for _, f := range files {
		if _, ok := formats.KindFromFilename(f.Name); !ok {
			return "", fmt.Errorf("%w: %q", ErrUnsupportedSource, filepath.Ext(f.Name))
		}
	}
	if total > s.limits.MergeUploadBytes {
		return "", fmt.Errorf("%w: %d bytes (limit %d)", ErrPayloadTooLarge, total, s.limits.MergeUploadBytes)
	}
	return formats.MergeKind, nil
}

// Status answers a poll. The redis cache usually short-circuits the store;
// failed statuses always fall through so the error payload is included.
func (s *TaskService) Status(ctx context.Context, taskID string) (models.TaskStatus, string, error) {
	if s.cache != nil {
		status, err := s.cache.Get(ctx, taskID)
		if err == nil && status != models.StatusFailed {
			return status, "", nil
		}
	}

	task, err := s.store.Get(ctx, taskID)
	if err != nil {
		return "", "", err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, taskID, task.Status); err != nil {
			s.logger.Warn("Status cache update failed", zap.String("task_id", taskID), zap.Error(err))
		}
	}
	return task.Status, task.ErrorMessage, nil
}

// Fetch returns a completed task's artifact and marks it fetched so the
// sweeper can reclaim it. A swept artifact reports ErrArtifactExpired,
// distinct from an unknown or unfinished task.
func (s *TaskService) Fetch(ctx context.Context, taskID string) (*Artifact, error) {
	task, err := s.store.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status != models.StatusCompleted {
		return nil, ErrNotReady
	}
	if task.Swept {
		return nil, ErrArtifactExpired
	}

	data, err := s.storage.Get(ctx, task.ResultKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrArtifactExpired
		}
		return nil, fmt.Errorf("load result: %w", err)
	}

	if err := s.store.MarkFetched(ctx, taskID, time.Now()); err != nil {
		s.logger.Warn("Fetch bookkeeping failed", zap.String("task_id", taskID), zap.Error(err))
	}

	return &Artifact{
		Name:        downloadName(task),
		ContentType: task.ContentType,
		Data:        data,
	}, nil
}

func (s *TaskService) discard(ctx context.Context, inputs []models.InputFile) {
	for _, in := range inputs {
		if err := s.storage.Delete(ctx, in.Key); err != nil {
			s.logger.Warn("Staged input cleanup failed", zap.String("key", in.Key), zap.Error(err))
		}
	}
}

func downloadName(task *models.Task) string {
	first := task.Inputs[0].Name
	stem := strings.TrimSuffix(first, filepath.Ext(first))
	return stem + "." + task.TargetFormat
}
