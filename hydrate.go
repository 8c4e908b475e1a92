package eventledger

import (
	"context"
)

// HydrateHandler applies one event type to some state during replay.
type HydrateHandler interface {
	NewEvent() Event
	Apply(ctx context.Context, event Event)
}

type genericHydrateHandler[T Event] struct {
	handleFunc func(ctx context.Context, event T)
}

// NewHydrateHandler creates a HydrateHandler from a function; the handled
// event type is inferred from the function argument.
func NewHydrateHandler[T Event](
	handleFunc func(ctx context.Context, event T),
) HydrateHandler {
	return &genericHydrateHandler[T]{
		handleFunc: handleFunc,
	}
}

func (c genericHydrateHandler[T]) NewEvent() Event {
	tVar := new(T)
	return *tVar
}

func (c genericHydrateHandler[T]) Apply(ctx context.Context, e Event) {
	event := e.(T)
	c.handleFunc(ctx, event)
}

// Hydrate combines typed apply functions into a single replay function.
// Events without a matching handler are ignored, which lets a fold consume
// only the event kinds it cares about.
func Hydrate(handlers ...HydrateHandler) func(ctx context.Context, ev Event) {
	eventHandlers := make(map[string]HydrateHandler)

	for _, handler := range handlers {
		eventHandlers[TypeName(handler.NewEvent())] = handler
	}

	return func(ctx context.Context, ev Event) {
		if handler, ok := eventHandlers[ev.EventType()]; ok {
			handler.Apply(ctx, ev)
		}
	}
}
