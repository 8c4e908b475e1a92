package logging

import (
	"context"
	"errors"
	"reflect"

	"github.com/novaledger/eventledger"
	"github.com/sirupsen/logrus"
)

// WithCommandLogging wraps a CommandHandler with logging functionality.
// It logs the command type and aggregate ID before execution, and logs
// errors if the command fails. Business rule rejections are expected
// outcomes and log at warn level rather than error.
func WithCommandLogging[C eventledger.Command](logger *logrus.Entry, next eventledger.CommandHandler[C]) eventledger.CommandHandler[C] {
	return func(ctx context.Context, command C) (eventledger.AppendResult, error) {
		cmdType := reflect.TypeOf(command).String()
		logger.Infof("Dispatch: %s (aggregateID: %s)", cmdType, command.AggregateID())

		result, err := next(ctx, command)
		if err != nil {
			if errors.Is(err, eventledger.ErrBusinessRuleViolation) {
				logger.Warnf("Dispatch rejected: %s (aggregateID: %s): %v", cmdType, command.AggregateID(), err)
			} else {
				logger.Errorf("Dispatch failed: %s (aggregateID: %s): %v", cmdType, command.AggregateID(), err)
			}
		}

		return result, err
	}
}
