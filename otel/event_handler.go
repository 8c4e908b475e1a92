package otel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/novaledger/eventledger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// WithEventTelemetry wraps an EventHandler with a span and duration metrics.
// A skipped event keeps the span status OK; any other handler error marks the
// span as failed.
func WithEventTelemetry(next eventledger.EventHandler) eventledger.EventHandler {
	return eventledger.NewEventHandlerFunc(func(ctx context.Context, event eventledger.Event) error {
		attr := []attribute.KeyValue{
			AttrEventType.String(event.EventType()),
			AttrEventID.String(eventledger.EventIDFromContext(ctx).String()),
			AttrEventGlobalPos.Int64(int64(eventledger.GlobalVersionFromContext(ctx))),
			AttrEventStreamPos.Int64(int64(eventledger.VersionFromContext(ctx))),
			AttrStreamID.String(eventledger.StreamIDFromContext(ctx)),
		}

		ctx, span := tracer.Start(ctx, fmt.Sprintf("events.handle %s", event.EventType()),
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(attr...),
		)
		defer span.End()

		EventBusHandled.Add(ctx, 1, metric.WithAttributes(AttrEventType.String(event.EventType())))

		startTime := time.Now()
		err := next.Handle(ctx, event)
		EventBusDuration.Record(ctx,
			float64(time.Since(startTime).Milliseconds()),
			metric.WithAttributes(AttrEventType.String(event.EventType())),
		)

		if err != nil {
			var skipped *eventledger.ErrSkippedEvent
			if errors.As(err, &skipped) {
				span.SetStatus(codes.Ok, "event skipped")
			} else {
				span.SetStatus(codes.Error, err.Error())
				span.RecordError(err)
			}
			return err
		}
		span.SetStatus(codes.Ok, "")
		return nil
	})
}
