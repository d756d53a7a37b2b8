package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/cardstock/internal/events"
)

// Submitter accepts tasks for asynchronous execution.
type Submitter interface {
	Submit(task Task) error
}

// TaskFactory builds the task that reacts to an event.
type TaskFactory func(event *events.Event) (Task, error)

// EventTaskHandler implements events.EventHandler by turning events into
// background tasks.
type EventTaskHandler struct {
	factory TaskFactory
	runner  Submitter
	logger  *slog.Logger
}

var _ events.EventHandler = (*EventTaskHandler)(nil)

// NewEventTaskHandler creates a handler that submits factory's task to runner
// for every event it receives.
func NewEventTaskHandler(factory TaskFactory, runner Submitter, logger *slog.Logger) *EventTaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventTaskHandler{
		factory: factory,
		runner:  runner,
		logger:  logger.With(slog.String("component", "event_task_handler")),
	}
}

// HandleEvent implements events.EventHandler.
func (h *EventTaskHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	task, err := h.factory(event)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create task",
			slog.String("error", err.Error()),
			slog.String("event_id", event.ID.String()),
			slog.String("event_type", event.Type))
		return fmt.Errorf("failed to create task: %w", err)
	}

	if err := h.runner.Submit(task); err != nil {
		h.logger.ErrorContext(ctx, "failed to submit task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID().String()),
			slog.String("event_id", event.ID.String()))
		return err
	}

	h.logger.DebugContext(ctx, "task submitted for event",
		slog.String("task_id", task.ID().String()),
		slog.String("task_type", task.Type()),
		slog.String("event_id", event.ID.String()))
	return nil
}
