package eventledger_test

import (
	"context"
	"errors"
	"testing"

	es "github.com/novaledger/eventledger"
	"github.com/novaledger/eventledger/fixtures"
)

func TestOnEvent_HandlesMatchingType(t *testing.T) {
	var got fixtures.TestEvent
	handler := es.OnEvent(func(ctx context.Context, ev fixtures.TestEvent) error {
		got = ev
		return nil
	})

	err := handler.Handle(context.Background(), fixtures.TestEvent{ID: "agg-1", Type: "TestEvent", Data: "x"})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if got.Data != "x" {
		t.Errorf("handler saw wrong event: %+v", got)
	}
}

func TestOnEvent_SkipsOtherTypes(t *testing.T) {
	handler := es.OnEvent(func(ctx context.Context, ev fixtures.TestEvent) error {
		t.Fatal("handler must not run for foreign event types")
		return nil
	})

	err := handler.Handle(context.Background(), fixtures.NewDomainEvent().Build())

	var skipped *es.ErrSkippedEvent
	if !errors.As(err, &skipped) {
		t.Fatalf("expected ErrSkippedEvent, got %v", err)
	}
}

func TestEventGroupProcessor_RoutesByEventType(t *testing.T) {
	var testEvents, domainEvents int
	group := es.NewEventGroupProcessor(
		es.OnEvent(func(ctx context.Context, ev fixtures.TestEvent) error {
			testEvents++
			return nil
		}),
		es.OnEvent(func(ctx context.Context, ev fixtures.DomainEvent) error {
			domainEvents++
			return nil
		}),
	)

	ctx := context.Background()
	if err := group.Handle(ctx, fixtures.TestEvent{ID: "a", Type: "TestEvent"}); err != nil {
		t.Fatalf("handle test event: %v", err)
	}
	if err := group.Handle(ctx, fixtures.NewDomainEvent().Build()); err != nil {
		t.Fatalf("handle domain event: %v", err)
	}

	if testEvents != 1 || domainEvents != 1 {
		t.Errorf("routing mismatch: test=%d domain=%d", testEvents, domainEvents)
	}
}

func TestEventGroupProcessor_UnknownTypeIsSkipped(t *testing.T) {
	group := es.NewEventGroupProcessor(
		es.OnEvent(func(ctx context.Context, ev fixtures.TestEvent) error { return nil }),
	)

	err := group.Handle(context.Background(), fixtures.NewDomainEvent().WithEventName("SomethingElse").Build())

	var skipped *es.ErrSkippedEvent
	if !errors.As(err, &skipped) {
		t.Fatalf("expected ErrSkippedEvent, got %v", err)
	}
}

func TestEventGroupProcessor_DuplicateHandlerPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate handler for one event type")
		}
	}()
	es.NewEventGroupProcessor(
		es.OnEvent(func(ctx context.Context, ev fixtures.TestEvent) error { return nil }),
		es.OnEvent(func(ctx context.Context, ev fixtures.TestEvent) error { return nil }),
	)
}

func TestEventGroupProcessor_UntypedHandlerPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for a handler without an event name")
		}
	}()
	es.NewEventGroupProcessor(
		es.NewEventHandlerFunc(func(ctx context.Context, ev es.Event) error { return nil }),
	)
}

func TestEventGroupProcessor_StreamFilterSorted(t *testing.T) {
	group := es.NewEventGroupProcessor(
		es.OnEvent(func(ctx context.Context, ev fixtures.TestEvent) error { return nil }),
		es.OnEvent(func(ctx context.Context, ev fixtures.DomainEvent) error { return nil }),
	)

	names := group.StreamFilter()
	if len(names) != 2 {
		t.Fatalf("expected 2 names, got %v", names)
	}
	if names[0] != "DomainEvent" || names[1] != "TestEvent" {
		t.Errorf("expected sorted type names, got %v", names)
	}
}
