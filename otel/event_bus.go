package otel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/novaledger/eventledger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

var _ eventledger.EventBus = (*TelemetryEventBus)(nil)

// TelemetryEventBus wraps an EventBus with OpenTelemetry tracing and metrics.
//
// Subscriptions are decorated with a consumer span per received event. The
// span is linked to the producing trace via the context propagation metadata
// that TelemetryStore wrote into the envelope on append, so a command and
// every projection it touched show up as one distributed trace.
type TelemetryEventBus struct {
	next eventledger.EventBus
	cfg  *config
}

// WithEventBusTelemetry wraps an EventBus with OpenTelemetry tracing and metrics.
//
// Example Usage:
//
//	bus := otel.WithEventBusTelemetry(eventBus,
//	    otel.WithAttributes(attribute.String("service", "accounts")),
//	)
//	err := bus.Subscribe(ctx, "account-summary", handler)
func WithEventBusTelemetry(next eventledger.EventBus, options ...Option) *TelemetryEventBus {
	cfg := &config{}
	for _, o := range options {
		o.apply(cfg)
	}

	return &TelemetryEventBus{
		next: next,
		cfg:  cfg,
	}
}

// Subscribe registers an event handler wrapped with telemetry instrumentation.
//
// For each received event the wrapper extracts the producer's trace context
// from the envelope metadata, opens a consumer span linked to it, records the
// handled count and duration, and classifies the outcome. A skipped event is
// an intentional no-op and keeps the span status OK.
func (t *TelemetryEventBus) Subscribe(ctx context.Context, name string, next eventledger.EventHandler, options ...eventledger.SubscriberOption) error {
	return t.next.Subscribe(ctx, name, eventledger.NewEventHandlerFunc(func(ctx context.Context, event eventledger.Event) error {
		// Extract the original trace context from event metadata
		var carrier = make(propagation.MapCarrier)
		if metadata := eventledger.MetadataFromContext(ctx); len(metadata) > 0 {
			for k, v := range metadata {
				if stringV, ok := v.(string); ok && len(stringV) > 0 {
					carrier[k] = stringV
				}
			}
		}

		attr := []attribute.KeyValue{
			AttrEventType.String(event.EventType()),
			AttrEventID.String(eventledger.EventIDFromContext(ctx).String()),
			AttrEventGlobalPos.Int64(int64(eventledger.GlobalVersionFromContext(ctx))),
			AttrEventStreamPos.Int64(int64(eventledger.VersionFromContext(ctx))),
			AttrStreamID.String(eventledger.StreamIDFromContext(ctx)),
			AttrSubscriberName.String(name),
		}

		attr = append(attr, t.cfg.Attributes...)
		if t.cfg.GetAttributes != nil {
			attr = append(attr, t.cfg.GetAttributes(ctx)...)
		}

		originalCtx := otel.GetTextMapPropagator().Extract(context.Background(), carrier)
		originalSpanContext := trace.SpanContextFromContext(originalCtx)

		ctx, span := tracer.Start(ctx, fmt.Sprintf("subscription.receive %s", name),
			trace.WithSpanKind(trace.SpanKindConsumer),
			trace.WithLinks(trace.Link{
				SpanContext: originalSpanContext,
				Attributes: []attribute.KeyValue{
					attribute.String("link.reason", "event.consumed.from.stream"),
				},
			}),
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
				span.SetStatus(codes.Ok, "")
			} else {
				EventBusErrors.Add(ctx, 1, metric.WithAttributes(AttrEventType.String(event.EventType())))
				span.SetStatus(codes.Error, err.Error())
				span.RecordError(err)
			}
			return err
		}
		span.SetStatus(codes.Ok, "")
		return nil
	}), options...)
}

// Dispatch forwards to the underlying bus and counts the published event.
func (t *TelemetryEventBus) Dispatch(ctx context.Context, env *eventledger.Envelope) {
	EventBusPublished.Add(ctx, 1, metric.WithAttributes(AttrEventType.String(env.Event.EventType())))
	t.next.Dispatch(ctx, env)
}

// Errors returns the error channel from the underlying event bus.
func (t *TelemetryEventBus) Errors() <-chan error {
	return t.next.Errors()
}

// Close closes the underlying event bus and waits for all handlers to finish.
func (t *TelemetryEventBus) Close() error {
	return t.next.Close()
}
