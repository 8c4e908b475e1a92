package eventledger_test

import (
	"context"
	"errors"
	"testing"

	es "github.com/novaledger/eventledger"
)

type balanceQuery struct {
	Account string
}

func (q balanceQuery) ID() []byte { return []byte(q.Account) }

type balanceResult struct {
	Balance int64
}

type historyQuery struct {
	Account string
}

func (q historyQuery) ID() []byte { return []byte(q.Account) }

type historyResult struct {
	Entries []string
}

func TestQueryGateway_RoutesToRegisteredHandler(t *testing.T) {
	bus := es.NewQueryBus()
	es.RegisterQueryHandler(bus, es.NewQueryHandlerFunc(func(ctx context.Context, q balanceQuery) (balanceResult, error) {
		return balanceResult{Balance: 1000}, nil
	}))

	gateway := es.NewQueryGateway[balanceQuery, balanceResult](bus)
	result, err := gateway.HandleQuery(context.Background(), balanceQuery{Account: "acc-1"})
	if err != nil {
		t.Fatalf("handle query: %v", err)
	}
	if result.Balance != 1000 {
		t.Errorf("expected balance 1000, got %d", result.Balance)
	}
}

func TestQueryGateway_MultipleQueryTypesOnOneBus(t *testing.T) {
	bus := es.NewQueryBus()
	es.RegisterQueryHandler(bus, es.NewQueryHandlerFunc(func(ctx context.Context, q balanceQuery) (balanceResult, error) {
		return balanceResult{Balance: 50}, nil
	}))
	es.RegisterQueryHandler(bus, es.NewQueryHandlerFunc(func(ctx context.Context, q historyQuery) (historyResult, error) {
		return historyResult{Entries: []string{"open", "deposit"}}, nil
	}))

	balances := es.NewQueryGateway[balanceQuery, balanceResult](bus)
	if result, err := balances.HandleQuery(context.Background(), balanceQuery{}); err != nil || result.Balance != 50 {
		t.Errorf("balance query: result=%+v err=%v", result, err)
	}

	histories := es.NewQueryGateway[historyQuery, historyResult](bus)
	if result, err := histories.HandleQuery(context.Background(), historyQuery{}); err != nil || len(result.Entries) != 2 {
		t.Errorf("history query: result=%+v err=%v", result, err)
	}
}

func TestQueryGateway_UnregisteredQuery(t *testing.T) {
	bus := es.NewQueryBus()

	gateway := es.NewQueryGateway[balanceQuery, balanceResult](bus)
	_, err := gateway.HandleQuery(context.Background(), balanceQuery{Account: "acc-1"})
	if !errors.Is(err, es.ErrHandlerNotFound) {
		t.Fatalf("expected ErrHandlerNotFound, got %v", err)
	}
}

func TestQueryGateway_HandlerErrorPropagates(t *testing.T) {
	bus := es.NewQueryBus()
	boom := errors.New("read model unavailable")
	es.RegisterQueryHandler(bus, es.NewQueryHandlerFunc(func(ctx context.Context, q balanceQuery) (balanceResult, error) {
		return balanceResult{}, boom
	}))

	gateway := es.NewQueryGateway[balanceQuery, balanceResult](bus)
	_, err := gateway.HandleQuery(context.Background(), balanceQuery{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected handler error, got %v", err)
	}
}

func TestQueryGateway_ResultTypeDisambiguates(t *testing.T) {
	// The same query type can serve different result shapes; the pair
	// (query, result) selects the handler.
	bus := es.NewQueryBus()
	es.RegisterQueryHandler(bus, es.NewQueryHandlerFunc(func(ctx context.Context, q balanceQuery) (balanceResult, error) {
		return balanceResult{Balance: 10}, nil
	}))
	es.RegisterQueryHandler(bus, es.NewQueryHandlerFunc(func(ctx context.Context, q balanceQuery) (historyResult, error) {
		return historyResult{Entries: []string{"only"}}, nil
	}))

	asBalance := es.NewQueryGateway[balanceQuery, balanceResult](bus)
	if result, err := asBalance.HandleQuery(context.Background(), balanceQuery{}); err != nil || result.Balance != 10 {
		t.Errorf("balance view: result=%+v err=%v", result, err)
	}

	asHistory := es.NewQueryGateway[balanceQuery, historyResult](bus)
	if result, err := asHistory.HandleQuery(context.Background(), balanceQuery{}); err != nil || len(result.Entries) != 1 {
		t.Errorf("history view: result=%+v err=%v", result, err)
	}
}
