package eventledger

import (
	"context"
	"fmt"

	"github.com/io-da/query"
)

// GenericQueryHandler is the handler shape the io-da/query adapters accept.
type GenericQueryHandler[T query.Query, R ReadModel] interface {
	HandleQuery(ctx context.Context, qry T) (R, error)
}

// QueryIteratorProvider adapts registered handlers onto an io-da/query
// iterator-style bus handler.
type QueryIteratorProvider interface {
	query.IteratorHandler
	RegisterHandler(queryType string, handler GenericQueryHandler[query.Query, ReadModel])
}

// QueryProvider adapts registered handlers onto an io-da/query bus handler,
// routing incoming queries by type name.
type QueryProvider interface {
	query.Handler
	RegisterHandler(queryType string, handler GenericQueryHandler[query.Query, ReadModel])
}

type providerHandler struct {
	handlers map[string]GenericQueryHandler[query.Query, ReadModel]
}

// NewQueryHandler creates a QueryProvider for scalar results.
func NewQueryHandler() QueryProvider {
	return &providerHandler{
		handlers: make(map[string]GenericQueryHandler[query.Query, ReadModel]),
	}
}

func (t *providerHandler) RegisterHandler(queryType string, handler GenericQueryHandler[query.Query, ReadModel]) {
	if _, ok := t.handlers[queryType]; ok {
		panic("duplicate query handler " + queryType)
	}
	t.handlers[queryType] = handler
}

func (t *providerHandler) Handle(ctx context.Context, qry query.Query, res *query.Result) error {
	provider, exists := t.handlers[TypeName(qry)]
	if !exists {
		return fmt.Errorf("unknown query type: %s", TypeName(qry))
	}

	result, err := provider.HandleQuery(ctx, qry)
	if err != nil {
		return err
	}

	res.Add(result)
	res.Done()

	return nil
}

type iteratorHandler struct {
	handlers map[string]GenericQueryHandler[query.Query, ReadModel]
}

// NewQueryIteratorHandler creates a QueryIteratorProvider for streamed
// results.
func NewQueryIteratorHandler() QueryIteratorProvider {
	return &iteratorHandler{
		handlers: make(map[string]GenericQueryHandler[query.Query, ReadModel]),
	}
}

func (t *iteratorHandler) RegisterHandler(queryType string, handler GenericQueryHandler[query.Query, ReadModel]) {
	if _, ok := t.handlers[queryType]; ok {
		panic("duplicate query handler " + queryType)
	}
	t.handlers[queryType] = handler
}

func (t *iteratorHandler) Handle(ctx context.Context, qry query.Query, res *query.IteratorResult) error {
	provider, exists := t.handlers[TypeName(qry)]
	if !exists {
		return fmt.Errorf("unknown query type: %s", TypeName(qry))
	}

	result, err := provider.HandleQuery(ctx, qry)
	if err != nil {
		return err
	}

	res.Yield(result)
	res.Done()

	return nil
}
