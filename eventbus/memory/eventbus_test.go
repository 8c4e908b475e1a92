package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/novaledger/eventledger"
	"github.com/novaledger/eventledger/eventbus/memory"
)

type EntryPosted struct {
	LedgerID string
	Amount   int64
}

func (e EntryPosted) AggregateID() string { return e.LedgerID }
func (e EntryPosted) EventType() string   { return "EntryPosted" }

type LedgerClosed struct {
	LedgerID string
}

func (e LedgerClosed) AggregateID() string { return e.LedgerID }
func (e LedgerClosed) EventType() string   { return "LedgerClosed" }

func newEnvelope(event eventledger.Event) *eventledger.Envelope {
	return &eventledger.Envelope{
		EventID:    uuid.New(),
		StreamID:   event.AggregateID(),
		Event:      event,
		Version:    1,
		OccurredAt: time.Now(),
	}
}

// recorder collects handled events behind a mutex and signals on a channel.
type recorder struct {
	mu     sync.Mutex
	events []eventledger.Event
	seen   chan struct{}
}

func newRecorder(capacity int) *recorder {
	return &recorder{seen: make(chan struct{}, capacity)}
}

func (r *recorder) Handle(ctx context.Context, event eventledger.Event) error {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	r.seen <- struct{}{}
	return nil
}

func (r *recorder) wait(t *testing.T, n int) []eventledger.Event {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-r.seen:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for event %d of %d", i+1, n)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]eventledger.Event(nil), r.events...)
}

func TestDispatch_DeliversToSubscriber(t *testing.T) {
	bus := memory.NewEventBus(16)
	defer bus.Close()

	rec := newRecorder(8)
	if err := bus.Subscribe(context.Background(), "recorder", rec); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	bus.Dispatch(context.Background(), newEnvelope(EntryPosted{LedgerID: "ledger-1", Amount: 100}))
	bus.Dispatch(context.Background(), newEnvelope(EntryPosted{LedgerID: "ledger-1", Amount: 200}))

	events := rec.wait(t, 2)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if posted, ok := events[0].(EntryPosted); !ok || posted.Amount != 100 {
		t.Errorf("unexpected first event: %#v", events[0])
	}
}

func TestSubscribe_DuplicateNameRejected(t *testing.T) {
	bus := memory.NewEventBus(16)
	defer bus.Close()

	rec := newRecorder(1)
	if err := bus.Subscribe(context.Background(), "recorder", rec); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	err := bus.Subscribe(context.Background(), "recorder", rec)
	if !errors.Is(err, eventledger.ErrDuplicateHandler) {
		t.Fatalf("expected ErrDuplicateHandler, got %v", err)
	}
}

func TestSubscribe_EventTypeFilter(t *testing.T) {
	bus := memory.NewEventBus(16)
	defer bus.Close()

	rec := newRecorder(8)
	err := bus.Subscribe(context.Background(), "closures", rec,
		eventledger.WithEventTypes("LedgerClosed"),
	)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	bus.Dispatch(context.Background(), newEnvelope(EntryPosted{LedgerID: "ledger-1", Amount: 100}))
	bus.Dispatch(context.Background(), newEnvelope(LedgerClosed{LedgerID: "ledger-1"}))

	events := rec.wait(t, 1)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if _, ok := events[0].(LedgerClosed); !ok {
		t.Errorf("expected LedgerClosed, got %T", events[0])
	}
}

func TestHandler_SeesEnvelopeContext(t *testing.T) {
	bus := memory.NewEventBus(16)
	defer bus.Close()

	versions := make(chan uint64, 1)
	handler := eventledger.NewEventHandlerFunc(func(ctx context.Context, event eventledger.Event) error {
		versions <- eventledger.VersionFromContext(ctx)
		return nil
	})
	if err := bus.Subscribe(context.Background(), "ctx-check", handler); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	env := newEnvelope(EntryPosted{LedgerID: "ledger-1", Amount: 100})
	env.Version = 7
	bus.Dispatch(context.Background(), env)

	select {
	case v := <-versions:
		if v != 7 {
			t.Errorf("expected version 7 in context, got %d", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for handler")
	}
}

func TestHandlerErrors_SurfaceOnErrorsChannel(t *testing.T) {
	bus := memory.NewEventBus(16)
	defer bus.Close()

	handlerErr := errors.New("projection lagging")
	handler := eventledger.NewEventHandlerFunc(func(ctx context.Context, event eventledger.Event) error {
		return handlerErr
	})
	if err := bus.Subscribe(context.Background(), "failing", handler); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	bus.Dispatch(context.Background(), newEnvelope(EntryPosted{LedgerID: "ledger-1", Amount: 100}))

	select {
	case err := <-bus.Errors():
		if !errors.Is(err, handlerErr) {
			t.Errorf("expected wrapped handler error, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for error")
	}
}

func TestClose_StopsDelivery(t *testing.T) {
	bus := memory.NewEventBus(16)

	rec := newRecorder(8)
	if err := bus.Subscribe(context.Background(), "recorder", rec); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Dispatch after close is a no-op.
	bus.Dispatch(context.Background(), newEnvelope(EntryPosted{LedgerID: "ledger-1", Amount: 100}))

	select {
	case <-rec.seen:
		t.Fatal("received event after close")
	case <-time.After(100 * time.Millisecond):
	}
}
