package eventledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

// StreamNamer produces the stream name for a command, with access to context.
type StreamNamer func(ctx context.Context, cmd Command) string

// DefaultStreamNamer is used when no custom StreamNamer is configured. It
// names the stream after the command's aggregate ID. It can be overridden
// globally, for example to prefix streams per tenant.
var DefaultStreamNamer StreamNamer = func(ctx context.Context, cmd Command) string {
	return cmd.AggregateID()
}

// CommandHandler handles commands of one concrete type C. It validates the
// command, and on success persists the resulting events and reports them in
// the AppendResult. On failure it returns an error and appends nothing.
//
// Handlers should not panic; all failures are reported via the error value.
type CommandHandler[C Command] func(ctx context.Context, command C) (AppendResult, error)

// Evolver folds one stored event into the aggregate state, returning the new
// state. It must be pure: no I/O, no side effects, deterministic for a given
// (state, envelope) pair.
type Evolver[T any] func(currentState T, envelope *Envelope) T

// Decider decides which events should occur given the current state and a
// command. It returns an error wrapping ErrBusinessRuleViolation semantics
// when the command is rejected; returning an empty slice means the command
// was accepted but has no effect.
//
// Deciders must not mutate state; all changes are expressed as events.
type Decider[T any, C Command] func(state T, cmd C) ([]Event, error)

// CommandHandlerOption customizes NewCommandHandler.
type CommandHandlerOption func(configuration *handlerOptions)

// NewCommandHandler builds the canonical command pipeline for an aggregate:
//
//  1. Load the aggregate's event history from the store.
//  2. Fold the history through evolve to reconstruct current state.
//  3. Run decide against that state to validate the command and produce
//     new events.
//  4. Wrap the events in envelopes with strictly increasing versions.
//  5. Save the envelopes, enforcing the configured StreamState.
//
// A rejected command (decide returns an error) is wrapped with
// ErrBusinessRuleViolation and nothing is appended. Save conflicts
// (*StreamRevisionConflictError) are retried according to the configured
// backoff strategy, refolding only the events appended since the last
// attempt.
func NewCommandHandler[T any, C Command](
	store EventStore,
	initialState T,
	evolve Evolver[T],
	decide Decider[T, C],
	opts ...CommandHandlerOption,
) CommandHandler[C] {
	return func(ctx context.Context, command C) (AppendResult, error) {
		cfg := &handlerOptions{
			Revision:      Any{},
			RetryStrategy: func() backoff.BackOff { return &backoff.StopBackOff{} },
			StreamNamer:   DefaultStreamNamer,
		}
		for _, o := range opts {
			o(cfg)
		}

		stream := cfg.StreamNamer(ctx, command)

		state := initialState
		var revision uint64

		result, err := backoff.RetryWithData(func() (AppendResult, error) {
			iter, err := store.LoadStreamFrom(ctx, stream, revision)
			if err != nil {
				return AppendResult{Successful: false, StreamID: stream},
					backoff.Permanent(fmt.Errorf("handle command %T for aggregate %q (stream %q): load failed: %w", command, command.AggregateID(), stream, err))
			}

			for iter.Next(ctx) {
				envelope := iter.Value()
				revision = envelope.Version
				state = evolve(state, envelope)
			}
			if err := iter.Err(); err != nil {
				return AppendResult{Successful: false, StreamID: stream},
					fmt.Errorf("handle command %T for aggregate %q (stream %q): iter failed: %w", command, command.AggregateID(), stream, err)
			}

			// A configured Revision expectation tracks the loaded head.
			if _, ok := cfg.Revision.(Revision); ok {
				cfg.Revision = Revision(revision)
			}

			events, err := decide(state, command)
			if err != nil {
				return AppendResult{Successful: false, StreamID: stream, NextExpectedVersion: revision},
					backoff.Permanent(fmt.Errorf("handle command %T for aggregate %q (stream %q): %w: %w", command, command.AggregateID(), stream, ErrBusinessRuleViolation, err))
			}

			if len(events) == 0 {
				return AppendResult{Successful: true, StreamID: stream, NextExpectedVersion: revision}, nil
			}

			envelopes := make([]Envelope, len(events))
			baseMetadata := make(map[string]any)
			for _, fn := range cfg.MetadataFuncs {
				for k, v := range fn(ctx) {
					baseMetadata[k] = v
				}
			}

			expectedVersion := revision
			for i, event := range events {
				expectedVersion++
				envelopes[i] = Envelope{
					EventID:    uuid.New(),
					StreamID:   stream,
					Event:      event,
					Metadata:   baseMetadata,
					Version:    expectedVersion,
					OccurredAt: time.Now(),
				}
			}

			result, err := store.Save(ctx, envelopes, cfg.Revision)
			if err != nil {
				var conflict *StreamRevisionConflictError
				if errors.As(err, &conflict) {
					// Another writer appended first; retry refolds from
					// the conflicting revision onward.
					return AppendResult{Successful: false, StreamID: stream, NextExpectedVersion: revision}, conflict
				}
				return result, backoff.Permanent(fmt.Errorf("handle command %T for aggregate %q (stream %q): failed to save events: %w", command, command.AggregateID(), stream, err))
			}

			result.Events = envelopes
			return result, nil
		}, cfg.RetryStrategy())

		return result, err
	}
}

// handlerOptions configures a CommandHandler built by NewCommandHandler.
type handlerOptions struct {
	// Revision is the stream expectation applied on Save (default Any).
	// When set to a Revision, it is updated to the loaded head before
	// saving, which gives optimistic concurrency.
	Revision StreamState

	// RetryStrategy builds the backoff used to retry revision conflicts,
	// called once per command invocation. backoff.BackOff implementations
	// are stateful, so an instance must never be shared between concurrent
	// invocations. The default performs no retries.
	RetryStrategy func() backoff.BackOff

	// MetadataFuncs enrich every produced envelope with metadata derived
	// from the context. Later funcs win on key collisions.
	MetadataFuncs []func(ctx context.Context) map[string]any

	// StreamNamer produces the stream name for a command.
	StreamNamer StreamNamer
}

// WithRevision sets the stream expectation applied when saving events.
//
//	handler := NewCommandHandler(store, initial, evolve, decide, WithRevision(NoStream{}))
func WithRevision(rev StreamState) CommandHandlerOption {
	return func(cfg *handlerOptions) { cfg.Revision = rev }
}

// WithRetryStrategy sets the factory for the backoff strategy used to retry
// saves that fail with a revision conflict. The factory runs once per
// command invocation, giving every invocation a fresh retry budget.
//
//	WithRetryStrategy(func() backoff.BackOff {
//	    return backoff.WithMaxRetries(backoff.NewConstantBackOff(10*time.Millisecond), 3)
//	})
func WithRetryStrategy(strategy func() backoff.BackOff) CommandHandlerOption {
	return func(cfg *handlerOptions) { cfg.RetryStrategy = strategy }
}

// WithMetadataExtractor registers a metadata function applied to every
// produced envelope. Extractors run in registration order; later values win.
func WithMetadataExtractor(fn func(ctx context.Context) map[string]any) CommandHandlerOption {
	return func(h *handlerOptions) {
		h.MetadataFuncs = append(h.MetadataFuncs, fn)
	}
}

// WithStreamNamer overrides how the target stream is named for a command.
func WithStreamNamer(namer StreamNamer) CommandHandlerOption {
	return func(h *handlerOptions) {
		h.StreamNamer = namer
	}
}
