package eventledger

import (
	"errors"
	"fmt"
)

var (
	// ErrStreamNotFound is returned when a stream was required to exist.
	ErrStreamNotFound = errors.New("stream not found")

	// ErrStreamExists is returned when a stream was required to not exist.
	ErrStreamExists = errors.New("stream already exists")

	// ErrInvalidRevision is returned when a revision lies outside the stream.
	ErrInvalidRevision = errors.New("invalid stream revision")

	// ErrInvalidEventBatch is returned when a batch of envelopes is not
	// appendable as a unit, for example when it spans multiple streams.
	ErrInvalidEventBatch = errors.New("invalid event batch")

	// ErrBusinessRuleViolation marks command rejections. Errors wrapping it
	// are recoverable by the caller and never mutate the log.
	ErrBusinessRuleViolation = errors.New("business rule violation")

	// ErrDuplicateHandler is returned when two handlers are registered for
	// the same command, event or query type.
	ErrDuplicateHandler = errors.New("duplicate handler")

	// ErrHandlerNotFound is returned when no handler is registered for a
	// dispatched command or query.
	ErrHandlerNotFound = errors.New("handler not found")
)

// StreamRevisionConflictError reports that a stream advanced between loading
// and saving, i.e. another writer appended first.
type StreamRevisionConflictError struct {
	Stream           string
	ExpectedRevision Revision
	ActualRevision   Revision
}

func (e *StreamRevisionConflictError) Error() string {
	return fmt.Sprintf("stream %q revision conflict: expected %d, at %d",
		e.Stream, e.ExpectedRevision, e.ActualRevision)
}

// ErrSkippedEvent is returned when a handler cannot handle the event type.
type ErrSkippedEvent struct {
	Event Event
}

func (e *ErrSkippedEvent) Error() string {
	return fmt.Sprintf("skipped event of type %T", e.Event)
}

// Is reports a match against any other ErrSkippedEvent, so callers can use
// errors.Is(err, &ErrSkippedEvent{}) without caring about the event value.
func (e *ErrSkippedEvent) Is(target error) bool {
	_, ok := target.(*ErrSkippedEvent)
	return ok
}

// EventStoreError wraps a low-level persistence failure. Such an error is
// fatal for the current operation but leaves the log in its pre-call state.
type EventStoreError struct {
	Err error
}

func (e *EventStoreError) Error() string {
	return fmt.Sprintf("eventstore error: %v", e.Err)
}

func (e *EventStoreError) Unwrap() error {
	return e.Err
}

// WrapEventStoreError wraps err in an EventStoreError, or returns nil.
func WrapEventStoreError(err error) error {
	if err == nil {
		return nil
	}
	return &EventStoreError{Err: err}
}
