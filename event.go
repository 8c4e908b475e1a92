package eventledger

import (
	"reflect"
	"time"

	"github.com/google/uuid"
)

// InstrumentationVersion is reported on all telemetry emitted by this module.
const InstrumentationVersion = "0.3.0"

// Event is a domain event describing a change that has already happened to an
// aggregate. Events are plain immutable values; once appended to a store they
// are never mutated or removed.
type Event interface {
	// AggregateID returns the identifier of the aggregate the event belongs to.
	AggregateID() string

	// EventType returns the name of the event kind, used for routing and
	// registry lookups. By convention it matches the Go type name.
	EventType() string
}

// Envelope wraps an Event with the storage metadata assigned when the event
// is appended to a stream.
type Envelope struct {
	// EventID uniquely identifies this occurrence.
	EventID uuid.UUID

	// StreamID names the stream the event was appended to. It defaults to
	// the event's aggregate ID unless a custom StreamNamer is in use.
	StreamID string

	// Metadata carries out-of-band data such as correlation/causation IDs.
	Metadata map[string]any

	// Event is the domain event itself.
	Event Event

	// Version is the 1-based position of the event within its stream.
	// It increases by exactly one per appended event.
	Version uint64

	// GlobalVersion is the 1-based position of the event across all streams
	// of the store, in append order. Assigned by the store on Save.
	GlobalVersion uint64

	// OccurredAt is the wall-clock time the event was recorded.
	OccurredAt time.Time
}

// TypeName returns the bare type name of v, without package path or pointer
// markers. It is the canonical name used for handler routing and the event
// registry.
func TypeName(v any) string {
	if v == nil {
		return ""
	}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}
