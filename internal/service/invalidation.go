package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/phrazzld/cardstock/internal/events"
	"github.com/phrazzld/cardstock/internal/task"
)

// ExportInvalidationTasks returns a task factory for card.saved and
// cards.imported events that drops the cached exports of the event's deck.
func ExportInvalidationTasks(prints PrintService) task.TaskFactory {
	return func(event *events.Event) (task.Task, error) {
		var payload struct {
			DeckID uuid.UUID `json:"deck_id"`
		}
		if err := event.UnmarshalPayload(&payload); err != nil {
			return nil, fmt.Errorf("failed to decode %s payload: %w", event.Type, err)
		}
		if payload.DeckID == uuid.Nil {
			return nil, fmt.Errorf("%s event %s has no deck id", event.Type, event.ID)
		}

		return task.NewFuncTask(task.TaskTypeInvalidateExports, func(ctx context.Context) error {
			return prints.InvalidateDeck(ctx, payload.DeckID)
		}), nil
	}
}
