package eventledger

import (
	"context"
	"fmt"
)

// GenericQueryGateway is the typed front door for executing queries
// registered on a QueryBus. It implements QueryHandler[T, R] itself, so it
// can be decorated and passed wherever a handler is expected.
//
//	gateway := NewQueryGateway[AccountByID, Account](bus)
//	account, err := gateway.HandleQuery(ctx, AccountByID{Account: "acc-1"})
type GenericQueryGateway[T Query, R any] struct {
	bus *QueryBus
}

// NewQueryGateway creates a typed gateway backed by a QueryBus.
func NewQueryGateway[T Query, R any](bus *QueryBus) GenericQueryGateway[T, R] {
	return GenericQueryGateway[T, R]{bus: bus}
}

// HandleQuery executes the registered handler for the query. It fails with
// ErrHandlerNotFound when no handler is registered for the (T, R) pair.
func (g GenericQueryGateway[T, R]) HandleQuery(ctx context.Context, qry T) (R, error) {
	key := fmt.Sprintf("%T|%T", qry, *new(R))

	h, ok := g.bus.handlers[key]
	if !ok {
		var zero R
		return zero, fmt.Errorf("no handler registered for query %T -> %T: %w", qry, *new(R), ErrHandlerNotFound)
	}

	handler, ok := h.(QueryHandler[T, R])
	if !ok {
		var zero R
		return zero, fmt.Errorf("handler type mismatch for query %T -> %T", qry, *new(R))
	}

	return handler.HandleQuery(ctx, qry)
}
