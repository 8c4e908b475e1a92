package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
)

// config holds the options for instrumenting a component.
type config struct {
	// Operation identifies the current operation and serves as a span name.
	Operation string

	// GetOperation can override the span name based on information in the
	// context. If nil, or if it returns an empty string, Operation is used.
	GetOperation func(ctx context.Context, operation string) string

	// Attributes holds the default attributes for each span created by this
	// decorator.
	Attributes []attribute.KeyValue

	// GetAttributes extracts additional trace attributes from the context.
	GetAttributes func(ctx context.Context) []attribute.KeyValue
}

// Option configures a telemetry decorator.
type Option interface {
	apply(*config)
}

type optionFunc func(*config)

func (o optionFunc) apply(c *config) {
	o(c)
}

// WithOperation sets the span operation name.
func WithOperation(operation string) Option {
	return optionFunc(func(o *config) {
		o.Operation = operation
	})
}

// WithOperationGetter sets an operation name getter function.
func WithOperationGetter(fn func(ctx context.Context, name string) string) Option {
	return optionFunc(func(o *config) {
		o.GetOperation = fn
	})
}

// WithAttributes sets default attributes for the created spans.
func WithAttributes(attrs ...attribute.KeyValue) Option {
	return optionFunc(func(o *config) {
		o.Attributes = attrs
	})
}

// WithAttributeGetter extracts additional attributes from the context.
func WithAttributeGetter(fn func(ctx context.Context) []attribute.KeyValue) Option {
	return optionFunc(func(o *config) {
		o.GetAttributes = fn
	})
}
