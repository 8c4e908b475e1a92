package otel

import (
	"context"
	"fmt"
	"time"

	"github.com/novaledger/eventledger"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// WithQueryTelemetry wraps a QueryHandler with OpenTelemetry tracing and
// metrics. Use it for handlers executed outside a QueryBus; the bus already
// instruments everything registered on it.
func WithQueryTelemetry[T eventledger.Query, R any](next eventledger.QueryHandler[T, R]) eventledger.QueryHandler[T, R] {
	var zero T
	queryType := fmt.Sprintf("%T", zero)

	return &telemetryQueryHandler[T, R]{
		next:      next,
		queryType: queryType,
	}
}

type telemetryQueryHandler[T eventledger.Query, R any] struct {
	next      eventledger.QueryHandler[T, R]
	queryType string
}

func (h *telemetryQueryHandler[T, R]) HandleQuery(ctx context.Context, qry T) (R, error) {
	ctx, span := tracer.Start(ctx, fmt.Sprintf("query.handle %s", h.queryType),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			AttrQueryType.String(h.queryType),
			AttrQueryID.String(string(qry.ID())),
		),
	)
	defer span.End()

	startTime := time.Now()
	result, err := h.next.HandleQuery(ctx, qry)

	queryDurationMs := float64(time.Since(startTime).Milliseconds())
	eventledger.QueriesDuration.Record(ctx, queryDurationMs,
		metric.WithAttributes(eventledger.AttrQueryType.String(h.queryType)))

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		eventledger.QueriesFailed.Add(ctx, 1,
			metric.WithAttributes(eventledger.AttrQueryType.String(h.queryType)))
		return result, err
	}

	span.SetStatus(codes.Ok, "")
	eventledger.QueriesHandled.Add(ctx, 1,
		metric.WithAttributes(eventledger.AttrQueryType.String(h.queryType)))

	return result, nil
}
