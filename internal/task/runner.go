package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrRunnerStopped is returned for work that can no longer complete because
// the runner was stopped.
var ErrRunnerStopped = errors.New("task runner stopped")

// TaskRunnerConfig holds configuration for the task runner
type TaskRunnerConfig struct {
	// WorkerCount determines how many concurrent workers process tasks
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory task queue
	QueueSize int
}

// DefaultTaskRunnerConfig returns a TaskRunnerConfig with reasonable defaults
func DefaultTaskRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount: 2,
		QueueSize:   100,
	}
}

// TaskRunner owns a queue and the worker pool draining it.
type TaskRunner struct {
	queue    *TaskQueue
	pool     *WorkerPool
	logger   *slog.Logger
	stopOnce sync.Once
}

// NewTaskRunner creates a runner. Call Start before submitting work.
func NewTaskRunner(config TaskRunnerConfig, logger *slog.Logger) *TaskRunner {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "task_runner"))
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultTaskRunnerConfig().QueueSize
	}

	queue := NewTaskQueue(config.QueueSize, logger)
	return &TaskRunner{
		queue:  queue,
		pool:   NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: config.WorkerCount}, logger),
		logger: logger,
	}
}

// SetErrorHandler sets the handler called for failed tasks.
func (r *TaskRunner) SetErrorHandler(handler func(task Task, err error)) {
	r.pool.SetErrorHandler(handler)
}

// Start launches the workers.
func (r *TaskRunner) Start() {
	r.pool.Start()
}

// Stop stops the workers and closes the queue. Tasks still buffered are
// dropped.
func (r *TaskRunner) Stop() {
	r.stopOnce.Do(func() {
		r.pool.Stop()
		r.queue.Close()
		if n := r.queue.Len(); n > 0 {
			r.logger.Warn("dropping queued tasks on shutdown", slog.Int("count", n))
		}
	})
}

// Submit queues task for asynchronous execution without waiting for it.
func (r *TaskRunner) Submit(task Task) error {
	if err := r.queue.Enqueue(task); err != nil {
		return fmt.Errorf("failed to submit task: %w", err)
	}
	return nil
}

// RunAll executes tasks on the pool and waits for all of them. The first
// failure cancels the context the remaining tasks see and is returned.
func (r *TaskRunner) RunAll(ctx context.Context, tasks []Task) error {
	if len(tasks) == 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan error, len(tasks))
	submitted := 0
	for _, t := range tasks {
		if err := r.queue.EnqueueContext(ctx, &trackedTask{Task: t, ctx: ctx, results: results}); err != nil {
			cancel()
			return fmt.Errorf("failed to submit task: %w", err)
		}
		submitted++
	}

	var firstErr error
	for i := 0; i < submitted; i++ {
		select {
		case err := <-results:
			if err != nil && firstErr == nil {
				firstErr = err
				cancel()
			}
		case <-ctx.Done():
			if firstErr != nil {
				return firstErr
			}
			return ctx.Err()
		case <-r.pool.Done():
			return ErrRunnerStopped
		}
	}
	return firstErr
}

// trackedTask runs the wrapped task under the caller's context and reports
// its outcome.
type trackedTask struct {
	Task
	ctx     context.Context
	results chan<- error
}

func (t *trackedTask) Execute(context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
		t.results <- err
	}()
	if err := t.ctx.Err(); err != nil {
		return err
	}
	return t.Task.Execute(t.ctx)
}
