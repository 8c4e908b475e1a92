package account

import (
	"context"
	"fmt"

	"github.com/io-da/query"
	"github.com/novaledger/eventledger"
	"github.com/novaledger/eventledger/logging"
	"github.com/novaledger/eventledger/otel"
)

// AccountByID asks for the current write-side state of one account.
type AccountByID struct {
	AccountID string
}

func (q AccountByID) ID() []byte { return []byte(q.AccountID) }

// SummaryByID asks for the read-side summary of one account.
type SummaryByID struct {
	AccountID string
}

func (q SummaryByID) ID() []byte { return []byte(q.AccountID) }

// accountQueryHandler is the AccountByID handler with query logging attached.
func (s *Service) accountQueryHandler() eventledger.QueryHandler[AccountByID, Account] {
	return logging.WithQueryLogging(s.logger, eventledger.NewQueryHandlerFunc(
		func(ctx context.Context, q AccountByID) (Account, error) {
			return s.Account(ctx, q.AccountID)
		},
	))
}

// summaryQueryHandler is the SummaryByID handler with query logging attached.
func (s *Service) summaryQueryHandler() eventledger.QueryHandler[SummaryByID, Summary] {
	return logging.WithQueryLogging(s.logger, eventledger.NewQueryHandlerFunc(
		func(ctx context.Context, q SummaryByID) (Summary, error) {
			return s.Summary(ctx, q.AccountID)
		},
	))
}

// RegisterQueries registers the account queries on a QueryBus. Execute them
// through typed gateways:
//
//	gateway := eventledger.NewQueryGateway[AccountByID, Account](bus)
//	state, err := gateway.HandleQuery(ctx, AccountByID{AccountID: id})
func (s *Service) RegisterQueries(bus *eventledger.QueryBus) {
	eventledger.RegisterQueryHandler(bus, s.accountQueryHandler())
	eventledger.RegisterQueryHandler(bus, s.summaryQueryHandler())
}

// RegisterQueryProvider registers the account queries on an io-da/query bus
// adapter, routing by type name. The provider path does not go through the
// instrumented QueryBus, so telemetry is attached here.
func (s *Service) RegisterQueryProvider(provider eventledger.QueryProvider) {
	accounts := otel.WithQueryTelemetry(s.accountQueryHandler())
	provider.RegisterHandler(eventledger.TypeName(AccountByID{}), queryAdapter[AccountByID](
		func(ctx context.Context, q AccountByID) (eventledger.ReadModel, error) {
			return accounts.HandleQuery(ctx, q)
		},
	))

	summaries := otel.WithQueryTelemetry(s.summaryQueryHandler())
	provider.RegisterHandler(eventledger.TypeName(SummaryByID{}), queryAdapter[SummaryByID](
		func(ctx context.Context, q SummaryByID) (eventledger.ReadModel, error) {
			return summaries.HandleQuery(ctx, q)
		},
	))
}

// queryAdapter bridges a typed account query handler onto the untyped shape
// the io-da provider expects.
type queryAdapter[T any] func(ctx context.Context, q T) (eventledger.ReadModel, error)

func (f queryAdapter[T]) HandleQuery(ctx context.Context, qry query.Query) (eventledger.ReadModel, error) {
	q, ok := qry.(T)
	if !ok {
		return nil, fmt.Errorf("unexpected query type %T", qry)
	}
	return f(ctx, q)
}
