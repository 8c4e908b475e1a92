package eventledger

import (
	"context"
	"fmt"
	"sort"
)

// EventHandler processes a single Event.
type EventHandler interface {
	// Handle processes the given Event within the provided context.
	Handle(ctx context.Context, event Event) error
}

// NewEventHandlerFunc adapts a plain function into an EventHandler.
//
// The function receives every event it is invoked with; there is no type
// filtering. Use OnEvent for a typed handler.
func NewEventHandlerFunc(fn func(ctx context.Context, event Event) error) EventHandler {
	return eventHandlerFunc(fn)
}

type eventHandlerFunc func(ctx context.Context, event Event) error

func (h eventHandlerFunc) Handle(ctx context.Context, event Event) error {
	return h(ctx, event)
}

// typedEventHandler is a strongly typed event handler for one Event type T.
type typedEventHandler[T Event] func(ctx context.Context, ev T) error

// EventName returns the name of the event type T, used for routing.
func (h typedEventHandler[T]) EventName() string {
	var zero T
	return TypeName(zero)
}

// Handle processes the event if it is of type T, and returns ErrSkippedEvent
// otherwise.
func (h typedEventHandler[T]) Handle(ctx context.Context, event Event) error {
	ev, ok := event.(T)
	if !ok {
		return &ErrSkippedEvent{Event: event}
	}
	return h(ctx, ev)
}

// OnEvent creates a strongly typed EventHandler for one event type. The
// resulting handler only accepts events of type T and reports its event name
// for routing, so it can be placed in an EventGroupProcessor.
//
//	group := NewEventGroupProcessor(
//	    OnEvent(p.onAccountOpened),
//	    OnEvent(p.onMoneyDeposited),
//	)
func OnEvent[T Event](fn func(ctx context.Context, ev T) error) EventHandler {
	return typedEventHandler[T](fn)
}

// EventGroupProcessor routes events to typed handlers by event type name.
type EventGroupProcessor struct {
	handlers map[string]EventHandler // key = EventName()
}

// NewEventGroupProcessor builds a processor from typed handlers (created via
// OnEvent). It panics on handlers without an EventName or on duplicates for
// the same event type, since both are wiring bugs.
func NewEventGroupProcessor(handlers ...EventHandler) *EventGroupProcessor {
	m := make(map[string]EventHandler, len(handlers))
	for _, h := range handlers {
		u, ok := h.(interface{ EventName() string })
		if !ok {
			panic(fmt.Errorf("handler %T does not have a function `EventName()`", h))
		}

		name := u.EventName()
		if _, exists := m[name]; exists {
			panic(fmt.Errorf("handler for event %s: %w", name, ErrDuplicateHandler))
		}
		m[name] = h
	}

	return &EventGroupProcessor{handlers: m}
}

// Handle routes the event to the handler registered for its type. Events
// without a registered handler yield ErrSkippedEvent.
func (p *EventGroupProcessor) Handle(ctx context.Context, ev Event) error {
	h, ok := p.handlers[ev.EventType()]
	if !ok {
		return &ErrSkippedEvent{Event: ev}
	}
	return h.Handle(ctx, ev)
}

// StreamFilter returns the sorted list of event names this group handles,
// for use as a subscription filter.
func (p *EventGroupProcessor) StreamFilter() []string {
	out := make([]string, 0, len(p.handlers))
	for name := range p.handlers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
