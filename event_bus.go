package eventledger

import "context"

// SubscriberConfig holds per-subscription settings.
type SubscriberConfig struct {
	// Filter decides which events the subscriber receives. A nil filter
	// receives everything.
	Filter func(Event) bool
}

// SubscriberOption customizes a subscription.
type SubscriberOption func(cfg *SubscriberConfig)

// WithFilter limits a subscription to events accepted by fn.
func WithFilter(fn func(Event) bool) SubscriberOption {
	return func(cfg *SubscriberConfig) { cfg.Filter = fn }
}

// WithEventTypes limits a subscription to the named event types.
func WithEventTypes(names ...string) SubscriberOption {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return WithFilter(func(ev Event) bool {
		_, ok := set[ev.EventType()]
		return ok
	})
}

// EventBus distributes appended events to subscribed handlers. Delivery is
// asynchronous and per-subscriber ordered; handler errors surface on the
// Errors channel rather than failing the append that produced the event.
type EventBus interface {
	// Subscribe registers a named handler. Subscribing the same name twice
	// is an error. The subscription ends when ctx is done or the bus is
	// closed.
	Subscribe(ctx context.Context, name string, handler EventHandler, options ...SubscriberOption) error

	// Dispatch delivers an envelope to all matching subscribers.
	Dispatch(ctx context.Context, env *Envelope)

	// Errors returns a channel where async handler errors are sent.
	Errors() <-chan error

	// Close shuts the bus down and waits for all handlers to finish.
	Close() error
}
