package eventledger

import (
	"context"
)

// EventStore is an append-only, per-stream ordered log of events. There is
// deliberately no update or delete operation; the log is the source of truth
// and history is retained forever.
//
// Implementations must guarantee:
//   - Events within a stream keep their append order; earlier entries are
//     never reordered or mutated by later appends.
//   - Save is all-or-nothing for the batch: on any failure no envelope of
//     the batch is visible.
//   - Concurrency control according to the StreamState passed to Save.
//   - Reads are safe while appends to other streams are in flight.
//
// The Load* methods return lazy iterators yielding envelopes oldest to
// newest. Iterators should be consumed promptly and are not reusable.
type EventStore interface {
	// Save appends all envelopes to the stream they name, in order, and to
	// the store's global log. All envelopes of a batch must belong to one
	// stream (ErrInvalidEventBatch otherwise).
	//
	// The revision argument expresses the expected stream state:
	//   - Any: append unconditionally.
	//   - NoStream: the stream must not exist (ErrStreamExists otherwise).
	//   - StreamExists: the stream must exist (ErrStreamNotFound otherwise).
	//   - Revision(n): the stream must hold exactly n events; a mismatch
	//     fails with *StreamRevisionConflictError.
	Save(ctx context.Context, events []Envelope, revision StreamState) (AppendResult, error)

	// LoadStream loads all events of one stream in append order. A stream
	// with no events yields an empty iterator: absence of events means the
	// aggregate does not exist, which is not an error by itself.
	LoadStream(ctx context.Context, id string) (*Iterator[*Envelope], error)

	// LoadStreamFrom loads a stream's events starting after the given
	// revision, i.e. version is the number of events to skip. Fails with
	// ErrInvalidRevision if version lies beyond the end of the stream.
	LoadStreamFrom(ctx context.Context, id string, version uint64) (*Iterator[*Envelope], error)

	// LoadFromAll loads events across all streams in global append order,
	// skipping the first position events. Used for audit display and for
	// rebuilding projections, never by command handling.
	LoadFromAll(ctx context.Context, position uint64) (*Iterator[*Envelope], error)

	// Count returns the total number of events stored across all streams.
	Count(ctx context.Context) (uint64, error)

	// Close releases resources held by the store. Close is idempotent; the
	// store must not be used afterwards.
	Close() error
}

// AppendResult describes the outcome of handling a save or a command.
type AppendResult struct {
	// Successful is true when the events were appended (or the command
	// produced no events and there was nothing to append).
	Successful bool

	// StreamID is the stream the result refers to.
	StreamID string

	// NextExpectedVersion is the stream's revision after the append, i.e.
	// the Version of its newest event.
	NextExpectedVersion uint64

	// Events holds the envelopes that were appended, in order. Empty when
	// the command produced no events.
	Events []Envelope
}
