package eventledger

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// QueryBus is a registry of query handlers keyed by their query and result
// types. Multiple query types can live on one bus; execution goes through a
// typed GenericQueryGateway.
//
//	bus := NewQueryBus()
//	RegisterQueryHandler[AccountByID, Account](bus, handler)
type QueryBus struct {
	handlers map[string]any
}

// NewQueryBus creates an empty QueryBus.
func NewQueryBus() *QueryBus {
	return &QueryBus{
		handlers: make(map[string]any),
	}
}

// HandlerOption is reserved for future per-handler configuration such as
// timeouts or rate limits.
type HandlerOption func(*handlerSettings)

type handlerSettings struct {
}

// RegisterQueryHandler registers a QueryHandler for query type T and result
// type R. The handler is wrapped with query telemetry (span, in-flight and
// duration metrics) before storage.
func RegisterQueryHandler[T Query, R any](bus *QueryBus, handler QueryHandler[T, R], opts ...HandlerOption) {
	key := fmt.Sprintf("%T|%T", *new(T), *new(R))

	wrapped := NewQueryHandlerFunc(func(ctx context.Context, qry T) (R, error) {
		startTime := time.Now()

		ctx, span := StartQuerySpan(ctx, qry)
		defer span.End()

		QueriesInFlight.Add(ctx, 1,
			metric.WithAttributes(AttrQueryType.String(TypeName(qry))),
		)
		defer QueriesInFlight.Add(ctx, -1,
			metric.WithAttributes(AttrQueryType.String(TypeName(qry))),
		)

		result, err := handler.HandleQuery(ctx, qry)

		duration := float64(time.Since(startTime).Milliseconds())
		QueriesDuration.Record(ctx, duration,
			metric.WithAttributes(AttrQueryType.String(TypeName(qry))),
		)

		if err != nil {
			QueriesFailed.Add(ctx, 1,
				metric.WithAttributes(
					AttrQueryType.String(TypeName(qry)),
					AttrErrorType.String("handler_error"),
				),
			)
			EndQuerySpan(span, err)
			return result, err
		}

		QueriesHandled.Add(ctx, 1,
			metric.WithAttributes(AttrQueryType.String(TypeName(qry))),
		)
		EndQuerySpan(span, nil)
		return result, nil
	})

	settings := &handlerSettings{}
	for _, opt := range opts {
		opt(settings)
	}

	bus.handlers[key] = wrapped
}
