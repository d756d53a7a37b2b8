package task

import (
	"context"

	"github.com/google/uuid"
)

// Task type constants
const (
	// TaskTypeRenderPage renders one print page to PNG.
	TaskTypeRenderPage = "render_page"

	// TaskTypeInvalidateExports drops cached exports for a deck.
	TaskTypeInvalidateExports = "invalidate_exports"
)

// Task represents a unit of background work to be processed
type Task interface {
	// ID returns the task's unique identifier
	ID() uuid.UUID

	// Type returns the task type identifier
	Type() string

	// Execute runs the task logic
	Execute(ctx context.Context) error
}

// TaskQueueReader provides read-only access to the task channel
// allowing workers to consume tasks without the ability to enqueue
type TaskQueueReader interface {
	// GetChannel returns a read-only channel for consuming tasks
	GetChannel() <-chan Task
}

// TaskQueueWriter provides write access to the task queue
// allowing services to enqueue tasks for processing
type TaskQueueWriter interface {
	// Enqueue adds a task to the queue without blocking.
	// Returns an error if the queue is full or closed
	Enqueue(task Task) error

	// EnqueueContext waits for room in the queue until ctx is done.
	EnqueueContext(ctx context.Context, task Task) error

	// Close closes the task queue, preventing further task submission
	Close()
}

// FuncTask is a Task backed by a function.
type FuncTask struct {
	id       uuid.UUID
	taskType string
	fn       func(ctx context.Context) error
}

var _ Task = (*FuncTask)(nil)

// NewFuncTask wraps fn as a task of the given type.
func NewFuncTask(taskType string, fn func(ctx context.Context) error) *FuncTask {
	return &FuncTask{id: uuid.New(), taskType: taskType, fn: fn}
}

// ID implements Task.
func (t *FuncTask) ID() uuid.UUID { return t.id }

// Type implements Task.
func (t *FuncTask) Type() string { return t.taskType }

// Execute implements Task.
func (t *FuncTask) Execute(ctx context.Context) error { return t.fn(ctx) }
