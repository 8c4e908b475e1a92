// Package memory provides the in-process EventBus. Each subscriber owns a
// buffered channel drained by its own worker goroutine, so a slow handler
// never blocks appends or other subscribers.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/novaledger/eventledger"
)

type subscriber struct {
	name    string
	filter  func(eventledger.Event) bool
	handler eventledger.EventHandler
	events  chan *eventledger.Envelope
	cancel  context.CancelFunc
}

type eventBus struct {
	mu         sync.RWMutex
	subs       map[string]*subscriber
	closed     bool
	errs       chan error
	wg         sync.WaitGroup
	bufferSize int
}

// NewEventBus constructs a new bus with a given subscriber buffer size.
func NewEventBus(bufferSize int) eventledger.EventBus {
	return &eventBus{
		subs:       make(map[string]*subscriber),
		errs:       make(chan error, 64),
		bufferSize: bufferSize,
	}
}

// Subscribe registers a named handler. The subscription runs until ctx is
// done or the bus is closed.
func (b *eventBus) Subscribe(
	ctx context.Context,
	name string,
	handler eventledger.EventHandler,
	options ...eventledger.SubscriberOption,
) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	cfg := eventledger.SubscriberConfig{}
	for _, opt := range options {
		opt(&cfg)
	}
	filter := cfg.Filter
	if filter == nil {
		filter = func(eventledger.Event) bool { return true }
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return errors.New("eventbus is closed")
	}

	if _, exists := b.subs[name]; exists {
		return fmt.Errorf("%w: subscriber %q", eventledger.ErrDuplicateHandler, name)
	}

	workerCtx, cancel := context.WithCancel(context.Background())
	s := &subscriber{
		name:    name,
		filter:  filter,
		handler: handler,
		events:  make(chan *eventledger.Envelope, b.bufferSize),
		cancel:  cancel,
	}

	b.subs[name] = s

	b.wg.Add(1)
	go b.runSubscriber(workerCtx, s)

	// Automatically remove when the caller's ctx finishes.
	go func() {
		<-ctx.Done()
		b.removeSubscriber(name)
	}()

	return nil
}

func (b *eventBus) Errors() <-chan error {
	return b.errs
}

// Close shuts down the bus and waits for all workers.
func (b *eventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true

	for name, s := range b.subs {
		s.cancel()
		close(s.events)
		delete(b.subs, name)
	}
	b.mu.Unlock()

	// Wait until all workers finish
	b.wg.Wait()

	close(b.errs)

	return nil
}

// runSubscriber processes events for a single handler.
func (b *eventBus) runSubscriber(ctx context.Context, s *subscriber) {
	defer b.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case env, ok := <-s.events:
			if !ok {
				return
			}

			handlerCtx := eventledger.WithEnvelope(ctx, env)
			if err := s.handler.Handle(handlerCtx, env.Event); err != nil {
				select {
				case b.errs <- fmt.Errorf("handler %q: %w", s.name, err):
				default:
					// Drop error if channel full
				}
			}
		}
	}
}

func (b *eventBus) removeSubscriber(name string) {
	b.mu.Lock()
	s, ok := b.subs[name]
	if !ok {
		b.mu.Unlock()
		return
	}
	delete(b.subs, name)
	b.mu.Unlock()

	s.cancel()
	close(s.events)
}

// Dispatch sends an envelope to all matching subscribers. Delivery is
// best-effort: a subscriber whose buffer is full misses the event.
func (b *eventBus) Dispatch(ctx context.Context, env *eventledger.Envelope) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	for _, s := range b.subs {
		if s.filter(env.Event) {
			select {
			case s.events <- env:
			default:
				// Drop event if subscriber is busy
			}
		}
	}
}
