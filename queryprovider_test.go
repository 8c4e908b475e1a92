package eventledger_test

import (
	"context"
	"testing"

	"github.com/io-da/query"

	es "github.com/novaledger/eventledger"
)

type providerQuery struct {
	Account string
}

func (q providerQuery) ID() []byte { return []byte(q.Account) }

type providerAdapter func(ctx context.Context, qry query.Query) (es.ReadModel, error)

func (f providerAdapter) HandleQuery(ctx context.Context, qry query.Query) (es.ReadModel, error) {
	return f(ctx, qry)
}

func TestQueryProvider_UnknownQueryType(t *testing.T) {
	provider := es.NewQueryHandler()

	err := provider.Handle(context.Background(), providerQuery{Account: "acc-1"}, nil)
	if err == nil {
		t.Fatal("expected error for unregistered query type")
	}
}

func TestQueryProvider_DuplicateRegistrationPanics(t *testing.T) {
	provider := es.NewQueryHandler()

	adapter := providerAdapter(func(ctx context.Context, qry query.Query) (es.ReadModel, error) {
		return nil, nil
	})
	provider.RegisterHandler("providerQuery", adapter)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	provider.RegisterHandler("providerQuery", adapter)
}

func TestQueryIteratorProvider_UnknownQueryType(t *testing.T) {
	provider := es.NewQueryIteratorHandler()

	err := provider.Handle(context.Background(), providerQuery{Account: "acc-1"}, nil)
	if err == nil {
		t.Fatal("expected error for unregistered query type")
	}
}
