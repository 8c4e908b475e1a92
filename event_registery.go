package eventledger

import (
	"fmt"
	"sync"
)

var (
	// registry maps event names to their factory functions. Each factory
	// must return a new instance of a concrete Event type.
	registry = map[string]func() Event{}

	// mu protects the registry.
	mu sync.RWMutex

	// RegisterEventByType registers an Event type under its EventType name.
	// The factory must not return nil. Panics on nil factories and on
	// duplicate names, since registration happens at wiring time.
	//
	//	RegisterEventByType(func() Event { return &MoneyDeposited{} })
	RegisterEventByType func(fn func() Event) = func(fn func() Event) {
		registerEventNameDefault(fn().EventType(), fn)
	}

	// RegisterEventByName registers an Event type under a custom name,
	// independent of EventType().
	RegisterEventByName func(name string, fn func() Event) = func(name string, fn func() Event) {
		registerEventNameDefault(name, fn)
	}

	// NewEventByName creates a new instance of a registered Event by name.
	// Returns an error if the name is unknown or the factory returns nil.
	NewEventByName func(name string) (Event, error) = newEventByNameDefault
)

func registerEventNameDefault(name string, fn func() Event) {
	if fn == nil {
		panic("cannot register nil factory")
	}

	mu.Lock()
	defer mu.Unlock()

	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("event already registered: %s", name))
	}

	ev := fn()
	if ev == nil {
		panic(fmt.Sprintf("factory returned nil for event: %s", name))
	}

	registry[name] = fn
}

func newEventByNameDefault(name string) (Event, error) {
	mu.RLock()
	factory, ok := registry[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("event not registered: %s", name)
	}
	ev := factory()
	if ev == nil {
		return nil, fmt.Errorf("factory returned nil for event: %s", name)
	}
	return ev, nil
}
