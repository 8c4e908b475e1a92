package eventledger

import (
	"context"
)

// Query is the interface implemented by every query type.
type Query interface {
	ID() []byte
}

// QueryHandler handles a query of type T and produces a result of type R,
// which is either a single read model or an Iterator.
//
//	handler := NewQueryHandlerFunc(func(ctx context.Context, q AccountByID) (*Account, error) {
//	    ...
//	})
type QueryHandler[T Query, R any] interface {
	HandleQuery(ctx context.Context, qry T) (R, error)
}

// queryHandlerFunc lets ordinary functions implement QueryHandler[T, R].
type queryHandlerFunc[T Query, R any] func(ctx context.Context, qry T) (R, error)

// HandleQuery calls the underlying function.
func (f queryHandlerFunc[T, R]) HandleQuery(ctx context.Context, qry T) (R, error) {
	return f(ctx, qry)
}

// NewQueryHandlerFunc creates a QueryHandler from a function.
func NewQueryHandlerFunc[T Query, R any](fn func(ctx context.Context, qry T) (R, error)) QueryHandler[T, R] {
	return queryHandlerFunc[T, R](fn)
}
