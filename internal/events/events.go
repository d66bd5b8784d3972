package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/deckforge/internal/domain"
)

// StatusChangedEvent records one lifecycle transition of a presentation.
type StatusChangedEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	PresentationID uuid.UUID                 `json:"presentation_id"`
	From           domain.PresentationStatus `json:"from,omitempty"`
	To             domain.PresentationStatus `json:"to"`

	// Reason is the failure message for transitions into failed.
	Reason string `json:"reason,omitempty"`

	OccurredAt time.Time `json:"occurred_at"`
}

// NewStatusChangedEvent creates an event for a transition. From is empty for
// newly created records.
func NewStatusChangedEvent(id uuid.UUID, from, to domain.PresentationStatus) *StatusChangedEvent {
	return &StatusChangedEvent{
		ID:             uuid.New(),
		PresentationID: id,
		From:           from,
		To:             to,
		OccurredAt:     time.Now().UTC(),
	}
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	HandleEvent(ctx context.Context, event *StatusChangedEvent) error
}

// HandlerFunc adapts a function to EventHandler.
type HandlerFunc func(ctx context.Context, event *StatusChangedEvent) error

// HandleEvent calls f.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *StatusChangedEvent) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *StatusChangedEvent) error
}

// NopEmitter discards every event.
type NopEmitter struct{}

// EmitEvent implements EventEmitter.
func (NopEmitter) EmitEvent(context.Context, *StatusChangedEvent) error { return nil }
