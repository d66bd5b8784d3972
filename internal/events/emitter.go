package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// InMemoryEventEmitter stores registered handlers in memory and dispatches
// events to them in registration order.
type InMemoryEventEmitter struct {
	handlers []EventHandler
	mu       sync.RWMutex
	logger   *slog.Logger
}

// NewInMemoryEventEmitter creates a new instance of InMemoryEventEmitter.
func NewInMemoryEventEmitter(logger *slog.Logger) *InMemoryEventEmitter {
	return &InMemoryEventEmitter{
		handlers: make([]EventHandler, 0),
		logger:   logger.With("component", "in_memory_event_emitter"),
	}
}

// RegisterHandler adds a new event handler to receive events.
func (e *InMemoryEventEmitter) RegisterHandler(handler EventHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, handler)
	e.logger.Debug("registered new event handler", "handler_count", len(e.handlers))
}

// EmitEvent publishes the given event to all registered handlers.
// Every handler sees the event even when an earlier one fails; the returned
// error joins all handler failures. A panicking handler is reported as an
// error.
func (e *InMemoryEventEmitter) EmitEvent(ctx context.Context, event *StatusChangedEvent) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}

	e.mu.RLock()
	handlers := make([]EventHandler, len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.RUnlock()

	e.logger.DebugContext(ctx, "emitting event",
		"event_id", event.ID,
		"presentation_id", event.PresentationID,
		"from", event.From,
		"to", event.To,
		"handler_count", len(handlers))

	var errs []error
	for i, handler := range handlers {
		if err := safeHandle(ctx, handler, event); err != nil {
			e.logger.ErrorContext(ctx, "handler failed to process event",
				"error", err,
				"handler_index", i,
				"event_id", event.ID,
				"presentation_id", event.PresentationID)
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func safeHandle(ctx context.Context, h EventHandler, event *StatusChangedEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("event handler panic: %v", r)
		}
	}()
	return h.HandleEvent(ctx, event)
}

// LogHandler writes every transition to the logger at info level.
func LogHandler(logger *slog.Logger) EventHandler {
	return HandlerFunc(func(ctx context.Context, event *StatusChangedEvent) error {
		logger.InfoContext(ctx, "presentation status changed",
			"presentation_id", event.PresentationID,
			"from", event.From,
			"to", event.To,
			"reason", event.Reason)
		return nil
	})
}
