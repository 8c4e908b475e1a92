package eventledger

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/novaledger/eventledger"

// Attribute keys used by the built-in query instrumentation. The otel
// subpackage defines the full set for its decorators.
const (
	AttrQueryType  = attribute.Key("eventledger.query.type")
	AttrResultType = attribute.Key("eventledger.query.result_type")
	AttrErrorType  = attribute.Key("eventledger.error.type")
)

var (
	meterProvider = otel.Meter(instrumentationName, metric.WithInstrumentationVersion(InstrumentationVersion))
	tracer        = otel.Tracer(instrumentationName, trace.WithInstrumentationVersion(InstrumentationVersion))

	// Query metrics
	QueriesHandled, _ = meterProvider.Int64Counter(
		"eventledger.queries.handled",
		metric.WithDescription("Total number of queries handled"),
		metric.WithUnit("{query}"),
	)

	QueriesFailed, _ = meterProvider.Int64Counter(
		"eventledger.queries.failed",
		metric.WithDescription("Number of failed queries"),
		metric.WithUnit("{query}"),
	)

	QueriesInFlight, _ = meterProvider.Int64UpDownCounter(
		"eventledger.queries.in_flight",
		metric.WithDescription("Number of queries currently being processed"),
		metric.WithUnit("{query}"),
	)

	QueriesDuration, _ = meterProvider.Float64Histogram(
		"eventledger.queries.duration",
		metric.WithDescription("Query handling duration"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000),
	)
)

// StartQuerySpan starts the span covering one query execution.
func StartQuerySpan(ctx context.Context, qry any) (context.Context, trace.Span) {
	return tracer.Start(ctx, fmt.Sprintf("query.handle %s", TypeName(qry)),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(AttrQueryType.String(TypeName(qry))),
	)
}

// EndQuerySpan records the outcome on a query span.
func EndQuerySpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}
