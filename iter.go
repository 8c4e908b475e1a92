package eventledger

import (
	"context"
	"errors"
	"io"
)

// Iterator is a lazy, pull-based iterator over items produced by a store.
// A nil-safe pattern for use:
//
//	for it.Next(ctx) {
//	    item := it.Value()
//	    ...
//	}
//	if err := it.Err(); err != nil { ... }
//
// Iterators are single-use and not safe for concurrent consumption.
type Iterator[T any] struct {
	nextFunc func(ctx context.Context) (T, error)
	current  T
	err      error
	done     bool
}

// NewIteratorFunc creates an Iterator from a producer function. The producer
// returns io.EOF when exhausted, or any other error on failure.
func NewIteratorFunc[T any](nextFunc func(ctx context.Context) (T, error)) *Iterator[T] {
	return &Iterator[T]{nextFunc: nextFunc}
}

// NewSliceIterator creates an Iterator over a fixed slice. The slice is not
// copied; callers must not mutate it while iterating.
func NewSliceIterator[T any](items []T) *Iterator[T] {
	index := 0
	return NewIteratorFunc(func(ctx context.Context) (T, error) {
		var zero T
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		if index >= len(items) {
			return zero, io.EOF
		}
		item := items[index]
		index++
		return item, nil
	})
}

// Next advances the iterator. It returns false once the iterator is exhausted
// or a producer error occurred; check Err afterwards.
func (it *Iterator[T]) Next(ctx context.Context) bool {
	if it.done {
		return false
	}

	v, err := it.nextFunc(ctx)
	if err != nil {
		it.done = true
		if !errors.Is(err, io.EOF) {
			it.err = err
		}
		return false
	}

	it.current = v
	return true
}

// Value returns the item produced by the last successful Next.
func (it *Iterator[T]) Value() T {
	return it.current
}

// Err returns the first error encountered during iteration. A clean end of
// iteration is not an error.
func (it *Iterator[T]) Err() error {
	return it.err
}

// All consumes the iterator and collects the remaining items.
func (it *Iterator[T]) All(ctx context.Context) ([]T, error) {
	var results []T
	for it.Next(ctx) {
		results = append(results, it.Value())
	}
	return results, it.Err()
}
