package store

import (
	"context"
	"errors"
	"time"

	"docConverter/models"
)

var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrTaskAlreadyExists = errors.New("task already exists")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// TransitionPayload carries the fields swapped in atomically with a status
// change. ResultKey and ContentType apply to completed, ErrorMessage to
// failed.
type TransitionPayload struct {
	ResultKey    string
	ContentType  string
	ErrorMessage string
}

// Store owns the mutable task records. Transition is the single mutation
// point for the status machine: it enforces queued -> processing ->
// {completed, failed} and rejects every other edge with
// ErrInvalidTransition. Readers always observe a complete snapshot.
type Store interface {
	Create(ctx context.Context, task *models.Task) error
	Get(ctx context.Context, id string) (*models.Task, error)
	Transition(ctx context.Context, id string, to models.TaskStatus, payload TransitionPayload) error
	MarkFetched(ctx context.Context, id string, at time.Time) error
	MarkSwept(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.Task, error)
}

// allowedFrom maps a requested status to the only status it may be entered
// from. Queued has no entry: tasks are created queued and never return.
var allowedFrom = map[models.TaskStatus]models.TaskStatus{
	models.StatusProcessing: models.StatusQueued,
	models.StatusCompleted:  models.StatusProcessing,
	models.StatusFailed:     models.StatusProcessing,
}
