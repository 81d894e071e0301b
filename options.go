package nasc

import (
	"errors"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// Option configures the root scope of a container.
type Option func(*options) error

// options is shared by every scope of one tree.
type options struct {
	logger    *zap.Logger
	tracer    trace.Tracer
	metrics   *Metrics
	observers []Observer
}

func defaultOptions() *options {
	return &options{
		logger: zap.NewNop(),
		tracer: noop.NewTracerProvider().Tracer(tracerName),
	}
}

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		o.logger = logger
		return nil
	}
}

// WithTracer wraps every activation in a span started from tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) error {
		if tracer == nil {
			return errors.New("tracer cannot be nil")
		}
		o.tracer = tracer
		return nil
	}
}

// WithMetrics records activations, live scopes and disposals in m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) error {
		if m == nil {
			return errors.New("metrics cannot be nil")
		}
		o.metrics = m
		return nil
	}
}

// WithObserver subscribes fn to activations in the root scope and every
// scope created from it.
func WithObserver(fn Observer) Option {
	return func(o *options) error {
		if fn == nil {
			return errors.New("observer cannot be nil")
		}
		o.observers = append(o.observers, fn)
		return nil
	}
}
