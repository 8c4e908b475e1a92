package eventledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	es "github.com/novaledger/eventledger"
	"github.com/novaledger/eventledger/fixtures"
)

func TestWithEnvelope_ExposesEnvelopeIdentity(t *testing.T) {
	eventID := uuid.New()
	occurred := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	env := fixtures.NewEnvelope(
		fixtures.TestEvent{ID: "account-1", Type: "AccountOpened"},
		fixtures.WithEventID(eventID),
		fixtures.WithStreamID("account-1"),
		fixtures.WithVersion(7),
		fixtures.WithGlobalVersion(42),
		fixtures.WithTimestamp(occurred),
		fixtures.WithMetadataField("correlationId", "corr-1"),
	)

	ctx := es.WithEnvelope(context.Background(), env)

	if got := es.StreamIDFromContext(ctx); got != "account-1" {
		t.Errorf("stream id: got %q", got)
	}
	if got := es.AggregateIDFromContext(ctx); got != "account-1" {
		t.Errorf("aggregate id: got %q", got)
	}
	if got := es.EventIDFromContext(ctx); got != eventID {
		t.Errorf("event id: got %s", got)
	}
	if got := es.VersionFromContext(ctx); got != 7 {
		t.Errorf("version: got %d", got)
	}
	if got := es.GlobalVersionFromContext(ctx); got != 42 {
		t.Errorf("global version: got %d", got)
	}
	if got := es.OccurredAtFromContext(ctx); !got.Equal(occurred) {
		t.Errorf("occurred at: got %v", got)
	}
	if md := es.MetadataFromContext(ctx); md["correlationId"] != "corr-1" {
		t.Errorf("metadata: got %v", md)
	}
}

func TestContextAccessors_ZeroValuesWhenAbsent(t *testing.T) {
	ctx := context.Background()

	if es.StreamIDFromContext(ctx) != "" {
		t.Error("expected empty stream id")
	}
	if es.AggregateIDFromContext(ctx) != "" {
		t.Error("expected empty aggregate id")
	}
	if es.EventIDFromContext(ctx) != uuid.Nil {
		t.Error("expected uuid.Nil event id")
	}
	if es.VersionFromContext(ctx) != 0 {
		t.Error("expected version 0")
	}
	if es.GlobalVersionFromContext(ctx) != 0 {
		t.Error("expected global version 0")
	}
	if !es.OccurredAtFromContext(ctx).IsZero() {
		t.Error("expected zero time")
	}
	if es.MetadataFromContext(ctx) != nil {
		t.Error("expected nil metadata")
	}
	if es.CausationFromContext(ctx) != "" {
		t.Error("expected empty causation")
	}
}

func TestWithCausation(t *testing.T) {
	ctx := es.WithCausation(context.Background(), "cmd-123")
	if got := es.CausationFromContext(ctx); got != "cmd-123" {
		t.Errorf("causation: got %q", got)
	}
}
