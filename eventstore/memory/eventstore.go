// Package memory provides the in-process EventStore used by single-node
// deployments and tests. Streams live in maps guarded by a single RWMutex;
// a global slice preserves append order across all streams.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/novaledger/eventledger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var _ eventledger.EventStore = (*MemoryStore)(nil)

// MemoryStore is an append-only in-memory event store. It keeps one ordered
// log per stream plus a global chronological log, and optionally publishes
// every appended envelope to an EventBus.
type MemoryStore struct {
	tracer trace.Tracer
	mu     sync.RWMutex
	bus    eventledger.EventBus
	global []*eventledger.Envelope
	events map[string][]*eventledger.Envelope
	closed bool
}

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithEventBus makes the store dispatch every appended envelope to bus.
func WithEventBus(bus eventledger.EventBus) Option {
	return func(m *MemoryStore) { m.bus = bus }
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(opts ...Option) *MemoryStore {
	m := &MemoryStore{
		events: make(map[string][]*eventledger.Envelope),
		global: make([]*eventledger.Envelope, 0),
		tracer: otel.Tracer("eventledger.eventstore.memory"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Save appends the batch to its stream and to the global log. The batch is
// validated in full before the first envelope is stored, so a rejected batch
// leaves the log untouched.
func (m *MemoryStore) Save(ctx context.Context, events []eventledger.Envelope, revision eventledger.StreamState) (eventledger.AppendResult, error) {
	ctx, span := m.tracer.Start(ctx, "eventstore.save",
		trace.WithAttributes(attribute.Int("event.count", len(events))),
	)
	defer span.End()

	m.mu.Lock()

	if len(events) == 0 {
		m.mu.Unlock()
		return eventledger.AppendResult{Successful: true}, nil
	}

	streamID := events[0].StreamID
	for i, env := range events {
		if env.StreamID != streamID {
			m.mu.Unlock()
			return eventledger.AppendResult{}, fmt.Errorf(
				"save events to stream %q: %w: event %d has different stream ID %q",
				streamID, eventledger.ErrInvalidEventBatch, i, env.StreamID,
			)
		}
	}

	currentVersion := uint64(len(m.events[streamID]))

	switch rev := revision.(type) {
	case eventledger.Any:
		// No concurrency check.
	case eventledger.NoStream:
		if currentVersion != 0 {
			m.mu.Unlock()
			return eventledger.AppendResult{Successful: false, StreamID: streamID},
				fmt.Errorf("stream %q: %w", streamID, eventledger.ErrStreamExists)
		}
	case eventledger.StreamExists:
		if currentVersion == 0 {
			m.mu.Unlock()
			return eventledger.AppendResult{Successful: false, StreamID: streamID},
				fmt.Errorf("stream %q: %w", streamID, eventledger.ErrStreamNotFound)
		}
	case eventledger.Revision:
		if currentVersion != uint64(rev) {
			m.mu.Unlock()
			return eventledger.AppendResult{Successful: false, StreamID: streamID}, &eventledger.StreamRevisionConflictError{
				Stream:           streamID,
				ExpectedRevision: rev,
				ActualRevision:   eventledger.Revision(currentVersion),
			}
		}
	default:
		m.mu.Unlock()
		return eventledger.AppendResult{Successful: false, StreamID: streamID},
			fmt.Errorf("unsupported revision type %T for stream %q: %w", revision, streamID, eventledger.ErrInvalidRevision)
	}

	appended := make([]*eventledger.Envelope, 0, len(events))
	for i := range events {
		currentVersion++
		events[i].Version = currentVersion
		events[i].GlobalVersion = uint64(len(m.global)) + 1
		env := events[i]
		m.events[streamID] = append(m.events[streamID], &env)
		m.global = append(m.global, &env)
		appended = append(appended, &env)

		span.AddEvent("stored event", trace.WithAttributes(
			attribute.String("event.type", env.Event.EventType()),
			attribute.Int64("event.version", int64(env.Version)),
		))
	}
	m.mu.Unlock()

	if m.bus != nil {
		for _, env := range appended {
			m.bus.Dispatch(ctx, env)
		}
	}

	return eventledger.AppendResult{
		Successful:          true,
		StreamID:            streamID,
		NextExpectedVersion: currentVersion,
	}, nil
}

// LoadStream returns all events of the stream in append order. An unknown
// stream yields an empty iterator: no events means the aggregate does not
// exist, which the store does not treat as an error.
func (m *MemoryStore) LoadStream(ctx context.Context, id string) (*eventledger.Iterator[*eventledger.Envelope], error) {
	m.mu.RLock()
	events := m.events[id]
	m.mu.RUnlock()

	return eventledger.NewSliceIterator(events), nil
}

// LoadStreamFrom returns the stream's events after the given revision.
func (m *MemoryStore) LoadStreamFrom(ctx context.Context, id string, version uint64) (*eventledger.Iterator[*eventledger.Envelope], error) {
	m.mu.RLock()
	events := m.events[id]
	m.mu.RUnlock()

	if version > uint64(len(events)) {
		return nil, fmt.Errorf(
			"load stream %q: requested version %d but stream has %d: %w",
			id, version, len(events), eventledger.ErrInvalidRevision,
		)
	}

	return eventledger.NewSliceIterator(events[version:]), nil
}

// LoadFromAll returns events across all streams in global append order,
// starting after the given position.
func (m *MemoryStore) LoadFromAll(ctx context.Context, position uint64) (*eventledger.Iterator[*eventledger.Envelope], error) {
	m.mu.RLock()
	global := m.global
	m.mu.RUnlock()

	if position > uint64(len(global)) {
		return nil, fmt.Errorf(
			"load all from position %d but store has %d: %w",
			position, len(global), eventledger.ErrInvalidRevision,
		)
	}

	return eventledger.NewSliceIterator(global[position:]), nil
}

// Count returns the total number of events across all streams.
func (m *MemoryStore) Count(ctx context.Context) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return uint64(len(m.global)), nil
}

// Close drops all stored events. Close is idempotent.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	m.events = make(map[string][]*eventledger.Envelope)
	m.global = nil
	return nil
}
