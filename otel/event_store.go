package otel

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/novaledger/eventledger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

var _ eventledger.EventStore = (*TelemetryStore)(nil)

// TelemetryStore decorates an EventStore with spans, metrics and trace
// propagation. On Save it injects the current trace context, a correlation ID
// and the causation ID from the context into each envelope's metadata, so the
// producing command can be linked from downstream subscribers.
type TelemetryStore struct {
	next eventledger.EventStore
}

// WithEventStoreTelemetry wraps an EventStore with OpenTelemetry tracing and metrics.
func WithEventStoreTelemetry(next eventledger.EventStore, options ...Option) eventledger.EventStore {
	return TelemetryStore{next: next}
}

func (t TelemetryStore) Save(ctx context.Context, events []eventledger.Envelope, revision eventledger.StreamState) (eventledger.AppendResult, error) {
	var streamID string
	if len(events) > 0 {
		streamID = events[0].StreamID
	}

	ctx, span := tracer.Start(ctx, "EventStore.Save",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			AttrOperation.String("save"),
			AttrStreamID.String(streamID),
			AttrEventCount.Int64(int64(len(events))),
			AttrConflictType.String(fmt.Sprintf("%T", revision)),
		),
	)
	defer span.End()

	{
		carrier := propagation.MapCarrier{}
		causationID := eventledger.CausationFromContext(ctx)

		otel.GetTextMapPropagator().Inject(ctx, carrier)
		for i := range events {
			if events[i].Metadata == nil {
				events[i].Metadata = make(map[string]any)
			}
			if causationID != "" {
				events[i].Metadata["causationId"] = causationID
			}

			if span.SpanContext().HasTraceID() {
				events[i].Metadata["correlationId"] = span.SpanContext().TraceID().String()
			}

			for key, value := range carrier {
				events[i].Metadata[key] = value
			}
		}
	}

	start := time.Now()
	result, err := t.next.Save(ctx, events, revision)

	EventStoreDuration.Record(ctx, float64(time.Since(start).Milliseconds()),
		metric.WithAttributes(AttrOperation.String("save")),
	)
	EventStoreSaves.Add(ctx, 1)
	EventsAppended.Add(ctx, int64(len(events)))

	if err != nil {
		EventStoreErrors.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return result, err
}

func (t TelemetryStore) LoadStream(ctx context.Context, id string) (*eventledger.Iterator[*eventledger.Envelope], error) {
	iter, err := t.next.LoadStream(ctx, id)
	if err != nil {
		EventStoreErrors.Add(ctx, 1)
		return iter, err
	}
	return t.instrumentIterator(iter, "EventStore.LoadStream", AttrStreamID.String(id)), nil
}

func (t TelemetryStore) LoadStreamFrom(ctx context.Context, id string, version uint64) (*eventledger.Iterator[*eventledger.Envelope], error) {
	iter, err := t.next.LoadStreamFrom(ctx, id, version)
	if err != nil {
		EventStoreErrors.Add(ctx, 1)
		return iter, err
	}
	return t.instrumentIterator(iter, "EventStore.LoadStreamFrom",
		AttrStreamID.String(id),
		AttrEventStreamPos.Int64(int64(version)),
	), nil
}

func (t TelemetryStore) LoadFromAll(ctx context.Context, position uint64) (*eventledger.Iterator[*eventledger.Envelope], error) {
	iter, err := t.next.LoadFromAll(ctx, position)
	if err != nil {
		EventStoreErrors.Add(ctx, 1)
		return iter, err
	}
	return t.instrumentIterator(iter, "EventStore.LoadFromAll",
		AttrEventGlobalPos.Int64(int64(position)),
	), nil
}

func (t TelemetryStore) Count(ctx context.Context) (uint64, error) {
	count, err := t.next.Count(ctx)
	if err != nil {
		EventStoreErrors.Add(ctx, 1)
	}
	return count, err
}

func (t TelemetryStore) Close() error {
	return t.next.Close()
}

// instrumentIterator wraps a lazy stream read in a span that opens at the
// first pull and closes when the iterator is exhausted or fails. Tracking
// iteration rather than the Load call itself keeps lazy loads honest: a load
// that is never consumed never shows up as work.
func (t TelemetryStore) instrumentIterator(
	iter *eventledger.Iterator[*eventledger.Envelope],
	operation string,
	attrs ...attribute.KeyValue,
) *eventledger.Iterator[*eventledger.Envelope] {
	started := false
	var startedAt time.Time
	var span trace.Span
	var eventCount int64

	return eventledger.NewIteratorFunc(func(ctx context.Context) (*eventledger.Envelope, error) {
		if !started {
			started = true
			startedAt = time.Now()
			ctx, span = tracer.Start(ctx, operation,
				trace.WithSpanKind(trace.SpanKindClient),
				trace.WithAttributes(attrs...),
			)
		}

		if !iter.Next(ctx) {
			span.SetAttributes(AttrEventCount.Int64(eventCount))

			err := iter.Err()
			if err == nil {
				EventStoreDuration.Record(ctx, float64(time.Since(startedAt).Milliseconds()),
					metric.WithAttributes(AttrOperation.String(operation)),
				)
				span.End()
				return nil, io.EOF
			}

			EventStoreErrors.Add(ctx, 1)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
			return nil, err
		}

		eventCount++
		EventsLoaded.Add(ctx, 1)

		return iter.Value(), nil
	})
}
