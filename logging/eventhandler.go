package logging

import (
	"context"
	"log/slog"

	"github.com/novaledger/eventledger"
)

func WithLoggingMiddleware(logger *slog.Logger, next eventledger.EventHandler) eventledger.EventHandler {
	return eventledger.NewEventHandlerFunc(func(ctx context.Context, event eventledger.Event) error {
		l := logger.With(
			"stream-id", eventledger.StreamIDFromContext(ctx),
			"event-type", event.EventType(),
			"causation", eventledger.CausationFromContext(ctx),
			"version", eventledger.VersionFromContext(ctx),
			"global-version", eventledger.GlobalVersionFromContext(ctx),
			"aggregateId", eventledger.AggregateIDFromContext(ctx),
		)

		l.DebugContext(ctx, "event processing started")

		err := next.Handle(ctx, event)

		if err != nil {
			l.ErrorContext(ctx, "error processing event", "error", err)
		} else {
			l.DebugContext(ctx, "event processed successfully")
		}

		return err
	})
}
