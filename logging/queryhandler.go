package logging

import (
	"context"
	"reflect"

	"github.com/novaledger/eventledger"
	"github.com/sirupsen/logrus"
)

type queryHandlerLogger[T eventledger.Query, R any] struct {
	logger *logrus.Entry
	next   eventledger.QueryHandler[T, R]
}

func (q *queryHandlerLogger[T, R]) HandleQuery(ctx context.Context, qry T) (R, error) {
	qryType := reflect.TypeOf(qry).String()
	q.logger.Infof("Query: %s", qryType)

	result, err := q.next.HandleQuery(ctx, qry)
	if err != nil {
		q.logger.Errorf("Query failed: %s: %v", qryType, err)
	}

	return result, err
}

// WithQueryLogging wraps a QueryHandler with logging functionality.
// It logs the query type before execution, and logs errors if the query fails.
func WithQueryLogging[T eventledger.Query, R any](logger *logrus.Entry, next eventledger.QueryHandler[T, R]) eventledger.QueryHandler[T, R] {
	return &queryHandlerLogger[T, R]{
		logger: logger,
		next:   next,
	}
}
