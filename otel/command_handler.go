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

// WithCommandTelemetry wraps a CommandHandler with OpenTelemetry tracing and
// metrics.
//
// For each command the decorator starts an internal span named after the
// command type, tracks in-flight and duration metrics, and classifies the
// outcome:
//   - a StreamRevisionConflictError counts towards ConcurrencyConflicts and
//     is recorded as a span event; the operation itself still executed.
//   - a business rule rejection keeps the span status OK (the pipeline worked,
//     the command was invalid) and counts towards CommandsRejected.
//   - any other error marks the span as failed and counts towards
//     CommandsFailed.
//
// Example Usage:
//
//	handler := otel.WithCommandTelemetry(openAccountHandler)
//	result, err := handler(ctx, cmd)
func WithCommandTelemetry[C eventledger.Command](next eventledger.CommandHandler[C]) eventledger.CommandHandler[C] {
	var zero C
	commandType := fmt.Sprintf("%T", zero)

	baseAttributes := []attribute.KeyValue{
		AttrCommandType.String(commandType),
	}

	return func(ctx context.Context, cmd C) (eventledger.AppendResult, error) {
		attr := append(baseAttributes, AttrAggregateID.String(cmd.AggregateID()))

		ctx, span := tracer.Start(ctx, fmt.Sprintf("command.handle %s", commandType),
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(attr...),
		)
		defer span.End()

		CommandsInFlight.Add(ctx, 1, metric.WithAttributes(AttrCommandType.String(commandType)))
		defer CommandsInFlight.Add(ctx, -1, metric.WithAttributes(AttrCommandType.String(commandType)))

		startTime := time.Now()
		result, err := next(ctx, cmd)

		attr = append(attr,
			AttrStreamID.String(result.StreamID),
			AttrStreamVersion.Int64(int64(result.NextExpectedVersion)),
		)

		CommandsDuration.Record(ctx, float64(time.Since(startTime).Milliseconds()),
			metric.WithAttributes(AttrCommandType.String(commandType)))

		span.SetAttributes(attr...)

		if err != nil {
			var conflict *eventledger.StreamRevisionConflictError
			if errors.As(err, &conflict) {
				ConcurrencyConflicts.Add(ctx, 1, metric.WithAttributes(AttrCommandType.String(commandType)))
				// The operation executed; only the revision check lost.
				span.AddEvent("concurrency_conflict", trace.WithAttributes(
					AttrStreamID.String(result.StreamID),
				))
			}

			if errors.Is(err, eventledger.ErrBusinessRuleViolation) {
				span.SetStatus(codes.Ok, fmt.Sprintf("business rule violation: %v", err))
				span.AddEvent("business_rule_violation", trace.WithAttributes(
					AttrCommandType.String(commandType),
					AttrAggregateID.String(cmd.AggregateID()),
					AttrStreamID.String(result.StreamID),
				))
				CommandsRejected.Add(ctx, 1, metric.WithAttributes(AttrCommandType.String(commandType)))
				return result, err
			}

			// Real system error
			span.SetStatus(codes.Error, err.Error())
			span.RecordError(err)
			CommandsFailed.Add(ctx, 1, metric.WithAttributes(AttrCommandType.String(commandType)))
			return result, err
		}

		span.SetStatus(codes.Ok, "")
		StreamVersionGauge.Record(ctx, int64(result.NextExpectedVersion),
			metric.WithAttributes(AttrStreamID.String(result.StreamID)))
		CommandsHandled.Add(ctx, 1, metric.WithAttributes(AttrCommandType.String(commandType)))

		return result, err
	}
}
