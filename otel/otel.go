// Package otel provides OpenTelemetry decorators for command handlers,
// event handlers, the event store and the event bus.
package otel

import (
	"github.com/novaledger/eventledger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/novaledger/eventledger"
)

// Semantic attribute keys following OpenTelemetry conventions
const (
	// Command attributes
	AttrCommandType = attribute.Key("eventledger.command.type")
	AttrAggregateID = attribute.Key("eventledger.aggregate.id")

	// Stream attributes
	AttrStreamID      = attribute.Key("eventledger.stream.id")
	AttrStreamVersion = attribute.Key("eventledger.stream.version")

	// Event attributes
	AttrEventType      = attribute.Key("eventledger.event.type")
	AttrEventID        = attribute.Key("eventledger.event.id")
	AttrEventCount     = attribute.Key("eventledger.events.count")
	AttrEventGlobalPos = attribute.Key("eventledger.event.global_position")
	AttrEventStreamPos = attribute.Key("eventledger.event.stream_position")

	// Query attributes
	AttrQueryType  = attribute.Key("eventledger.query.type")
	AttrQueryID    = attribute.Key("eventledger.query.id")
	AttrResultType = attribute.Key("eventledger.query.result_type")

	// EventBus attributes
	AttrSubscriberName = attribute.Key("eventledger.subscriber.name")
	AttrHandlerName    = attribute.Key("eventledger.handler.name")

	// Error attributes
	AttrErrorType    = attribute.Key("eventledger.error.type")
	AttrConflictType = attribute.Key("eventledger.conflict.type")

	// Operation attributes
	AttrOperation = attribute.Key("eventledger.operation")
)

var (
	meter  = otel.Meter(instrumentationName, metric.WithInstrumentationVersion(eventledger.InstrumentationVersion))
	tracer = otel.Tracer(instrumentationName, trace.WithInstrumentationVersion(eventledger.InstrumentationVersion))

	// Command metrics
	CommandsHandled, _ = meter.Int64Counter(
		"eventledger.commands.handled",
		metric.WithDescription("Total number of commands handled"),
		metric.WithUnit("{command}"),
	)

	CommandsDuration, _ = meter.Float64Histogram(
		"eventledger.commands.duration",
		metric.WithDescription("Command handling duration"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000),
	)

	CommandsInFlight, _ = meter.Int64UpDownCounter(
		"eventledger.commands.in_flight",
		metric.WithDescription("Number of commands currently being processed"),
		metric.WithUnit("{command}"),
	)

	CommandsFailed, _ = meter.Int64Counter(
		"eventledger.commands.failed",
		metric.WithDescription("Number of failed commands"),
		metric.WithUnit("{command}"),
	)

	CommandsRejected, _ = meter.Int64Counter(
		"eventledger.commands.rejected",
		metric.WithDescription("Number of commands rejected by business rules"),
		metric.WithUnit("{command}"),
	)

	// Event metrics
	EventsAppended, _ = meter.Int64Counter(
		"eventledger.events.appended",
		metric.WithDescription("Number of events appended to streams"),
		metric.WithUnit("{event}"),
	)

	EventsLoaded, _ = meter.Int64Counter(
		"eventledger.events.loaded",
		metric.WithDescription("Number of events loaded from streams"),
		metric.WithUnit("{event}"),
	)

	// EventBus metrics
	EventBusPublished, _ = meter.Int64Counter(
		"eventledger.eventbus.published",
		metric.WithDescription("Number of events published to the event bus"),
		metric.WithUnit("{event}"),
	)

	EventBusHandled, _ = meter.Int64Counter(
		"eventledger.eventbus.handled",
		metric.WithDescription("Number of events handled by subscribers"),
		metric.WithUnit("{event}"),
	)

	EventBusErrors, _ = meter.Int64Counter(
		"eventledger.eventbus.errors",
		metric.WithDescription("Number of event bus handler errors"),
		metric.WithUnit("{error}"),
	)

	EventBusDuration, _ = meter.Float64Histogram(
		"eventledger.eventbus.duration",
		metric.WithDescription("Event bus handler duration"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000),
	)

	// EventStore metrics
	EventStoreSaves, _ = meter.Int64Counter(
		"eventledger.eventstore.saves",
		metric.WithDescription("Number of save operations"),
		metric.WithUnit("{operation}"),
	)

	EventStoreDuration, _ = meter.Float64Histogram(
		"eventledger.eventstore.duration",
		metric.WithDescription("Event store operation duration"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000),
	)

	EventStoreErrors, _ = meter.Int64Counter(
		"eventledger.eventstore.errors",
		metric.WithDescription("Number of event store errors"),
		metric.WithUnit("{error}"),
	)

	// System metrics
	ConcurrencyConflicts, _ = meter.Int64Counter(
		"eventledger.concurrency.conflicts",
		metric.WithDescription("Number of optimistic concurrency conflicts"),
		metric.WithUnit("{conflict}"),
	)

	StreamVersionGauge, _ = meter.Int64Gauge(
		"eventledger.stream.version",
		metric.WithDescription("Current version of streams"),
		metric.WithUnit("{version}"),
	)
)
