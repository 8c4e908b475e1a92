package eventledger_test

import (
	"testing"

	es "github.com/novaledger/eventledger"
	"github.com/novaledger/eventledger/fixtures"
)

func TestRegisterEventByType_RoundTrip(t *testing.T) {
	es.RegisterEventByType(func() es.Event {
		return fixtures.TestEvent{ID: "registry-1", Type: "RegistryRoundTrip"}
	})

	ev, err := es.NewEventByName("RegistryRoundTrip")
	if err != nil {
		t.Fatalf("new by name: %v", err)
	}
	if ev.EventType() != "RegistryRoundTrip" {
		t.Errorf("expected RegistryRoundTrip, got %s", ev.EventType())
	}
}

func TestRegisterEventByName_CustomName(t *testing.T) {
	es.RegisterEventByName("registry.custom.v1", func() es.Event {
		return fixtures.TestEvent{Type: "RegistryCustom"}
	})

	ev, err := es.NewEventByName("registry.custom.v1")
	if err != nil {
		t.Fatalf("new by name: %v", err)
	}
	if ev.EventType() != "RegistryCustom" {
		t.Errorf("expected RegistryCustom, got %s", ev.EventType())
	}
}

func TestNewEventByName_Unknown(t *testing.T) {
	if _, err := es.NewEventByName("NeverRegistered"); err == nil {
		t.Fatal("expected error for unknown event name")
	}
}

func TestRegisterEventByName_DuplicatePanics(t *testing.T) {
	es.RegisterEventByName("registry.dup.v1", func() es.Event {
		return fixtures.TestEvent{Type: "RegistryDup"}
	})

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	es.RegisterEventByName("registry.dup.v1", func() es.Event {
		return fixtures.TestEvent{Type: "RegistryDup"}
	})
}

func TestRegisterEventByName_NilFactoryPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on nil factory")
		}
	}()
	es.RegisterEventByName("registry.nil.v1", nil)
}

func TestEventFactories_ProduceFreshInstances(t *testing.T) {
	es.RegisterEventByName("registry.fresh.v1", func() es.Event {
		return &fixtures.DomainEvent{EventName: "RegistryFresh", Payload: map[string]any{}}
	})

	a, err := es.NewEventByName("registry.fresh.v1")
	if err != nil {
		t.Fatalf("new by name: %v", err)
	}
	b, err := es.NewEventByName("registry.fresh.v1")
	if err != nil {
		t.Fatalf("new by name: %v", err)
	}
	if a.(*fixtures.DomainEvent) == b.(*fixtures.DomainEvent) {
		t.Error("expected a fresh instance per call")
	}
}
