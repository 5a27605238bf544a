package store

import (
	"context"
	"sync"
	"time"

	"docConverter/models"
)

// Memory is the default, ephemeral Store. All records live in a map behind
// a mutex; reads return copies so a concurrent transition can never expose
// a half-updated record.
type Memory struct {
	mu    sync.RWMutex
	tasks map[string]*models.Task
}

func NewMemory() *Memory {
	return &Memory{tasks: make(map[string]*models.Task)}
}

func (m *Memory) Create(ctx context.Context, task *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tasks[task.ID]; ok {
		return ErrTaskAlreadyExists
	}
	m.tasks[task.ID] = clone(task)
	return nil
}

func (m *Memory) Get(ctx context.Context, id string) (*models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	task, ok := m.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	return clone(task), nil
}

func (m *Memory) Transition(ctx context.Context, id string, to models.TaskStatus, payload TransitionPayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.tasks[id]
	if !ok {
		return ErrTaskNotFound
	}

	from, ok := allowedFrom[to]
	if !ok || task.Status != from {
		return ErrInvalidTransition
	}

	now := time.Now()
	task.Status = to
	switch to {
	case models.StatusProcessing:
		task.StartedAt = &now
	case models.StatusCompleted:
		task.ResultKey = payload.ResultKey
		task.ContentType = payload.ContentType
		task.CompletedAt = &now
	case models.StatusFailed:
		task.ErrorMessage = payload.ErrorMessage
		task.CompletedAt = &now
	}
	return nil
}

func (m *Memory) MarkFetched(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.tasks[id]
	if !ok {
		return ErrTaskNotFound
	}
	if task.FetchedAt == nil {
		task.FetchedAt = &at
	}
	return nil
}

func (m *Memory) MarkSwept(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.tasks[id]
	if !ok {
		return ErrTaskNotFound
	}
	task.Swept = true
	return nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.tasks, id)
	return nil
}

func (m *Memory) List(ctx context.Context) ([]*models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tasks := make([]*models.Task, 0, len(m.tasks))
	for _, task := range m.tasks {
		tasks = append(tasks, clone(task))
	}
	return tasks, nil
}

func clone(task *models.Task) *models.Task {
	c := *task
	c.Inputs = make([]models.InputFile, len(task.Inputs))
	copy(c.Inputs, task.Inputs)
	c.StartedAt = cloneTime(task.StartedAt)
	c.CompletedAt = cloneTime(task.CompletedAt)
	c.FetchedAt = cloneTime(task.FetchedAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
