// Package state persists batch run records in SQLite so pipeline
// executions can be audited after the fact.
package state

import "time"

// RunStatus is the lifecycle status of a pipeline run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// TaskStatus is the outcome of one pipeline task.
type TaskStatus string

const (
	TaskStatusSuccess TaskStatus = "success"
	TaskStatusFailed  TaskStatus = "failed"
	TaskStatusSkipped TaskStatus = "skipped"
)

// Run is one pipeline execution.
type Run struct {
	ID          string
	Script      string
	Status      RunStatus
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
}

// TaskRun is one task within a run.
type TaskRun struct {
	ID          int64
	RunID       string
	Name        string
	Status      TaskStatus
	Rows        int64
	Error       string
	ExecutionMS int64
}

// Store records pipeline runs.
type Store interface {
	// Open opens the store at path (":memory:" for in-memory).
	Open(path string) error

	// Close releases the store.
	Close() error

	// InitSchema initializes the schema.
	InitSchema() error

	// CreateRun starts a new run record for a script.
	CreateRun(script string) (*Run, error)

	// CompleteRun marks a run finished with the given status.
	CompleteRun(id string, status RunStatus, errMsg string) error

	// RecordTask appends a task outcome to a run.
	RecordTask(task *TaskRun) error

	// GetRun retrieves a run by ID.
	GetRun(id string) (*Run, error)

	// ListRuns returns the most recent runs, newest first.
	ListRuns(limit int) ([]*Run, error)

	// ListTasks returns a run's task records in execution order.
	ListTasks(runID string) ([]*TaskRun, error)
}
