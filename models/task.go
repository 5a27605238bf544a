package models

import (
	"time"
)

type TaskStatus string

const (
	StatusQueued     TaskStatus = "queued"
	StatusProcessing TaskStatus = "processing"
	StatusCompleted  TaskStatus = "completed"
	StatusFailed     TaskStatus = "failed"
)

// InputFile is one staged upload. Key points at the staged blob in artifact
// storage; Kind is the normalized extension.
type InputFile struct {
	Name string `json:"name"`
	Key  string `json:"key"`
	Kind string `json:"kind"`
	Size int64  `json:"size"`
}

// Task tracks one conversion request from admission to a terminal state.
// Inputs are ordered and immutable after admission; order is significant
// for merge conversions.
type Task struct {
	ID           string
	SourceKind   string // normalized extension, or "merge" for multi-file
	TargetFormat string
	Inputs       []InputFile
	Status       TaskStatus
	ErrorMessage string
	ResultKey    string
	ContentType  string
	Swept        bool
	CreatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
	FetchedAt    *time.Time
}

func (t *Task) Terminal() bool {
	return t.Status == StatusCompleted || t.Status == StatusFailed
}

func (t *Task) TotalSize() int64 {
	var total int64
	for _, in := range t.Inputs {
		total += in.Size
	}
	return total
}
