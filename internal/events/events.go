package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types published by the services.
const (
	// TypeCardSaved is emitted after a card's content has been persisted.
	TypeCardSaved = "card.saved"

	// TypeCardsImported is emitted after cards were created from an upload.
	TypeCardsImported = "cards.imported"
)

// Event is a domain event with a JSON payload.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type names the event, e.g. card.saved
	Type string `json:"type"`

	// Payload contains the event-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// CardSavedPayload is the payload of TypeCardSaved events.
type CardSavedPayload struct {
	CardID uuid.UUID `json:"card_id"`
	DeckID uuid.UUID `json:"deck_id"`
	UserID uuid.UUID `json:"user_id"`
}

// CardsImportedPayload is the payload of TypeCardsImported events.
type CardsImportedPayload struct {
	DeckID  uuid.UUID   `json:"deck_id"`
	UserID  uuid.UUID   `json:"user_id"`
	CardIDs []uuid.UUID `json:"card_ids"`
}

// NewEvent creates an event of the given type, serializing payload to JSON.
func NewEvent(eventType string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   data,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// UnmarshalPayload decodes the event payload into v.
func (e *Event) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// EventHandler reacts to events.
type EventHandler interface {
	// HandleEvent processes the given event. Handlers ignore event types
	// they are not interested in.
	HandleEvent(ctx context.Context, event *Event) error
}

// HandlerFunc adapts a function to EventHandler.
type HandlerFunc func(ctx context.Context, event *Event) error

// HandleEvent calls f.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// EventEmitter publishes events to interested handlers.
type EventEmitter interface {
	EmitEvent(ctx context.Context, event *Event) error
}
