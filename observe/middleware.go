package observe

import (
	"context"
	"time"
)

// ExecuteFunc is the function shape Middleware wraps. Results travel
// through the closure.
type ExecuteFunc func(ctx context.Context, op Op) error

// Middleware wraps an operation with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: Wrap() returns a thread-safe ExecuteFunc.
//   - Context: the wrapped function receives the span context.
//   - Errors: errors from the wrapped function are recorded and returned unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware with the given components.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// NopMiddleware returns a Middleware that only runs the wrapped function.
func NopMiddleware() *Middleware {
	return NewMiddleware(newNoopTracer(), noopMetrics{}, NopLogger())
}

// MiddlewareFromObserver builds a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}

// Wrap wraps fn with tracing, metrics and logging.
func (m *Middleware) Wrap(fn ExecuteFunc) ExecuteFunc {
	return func(ctx context.Context, op Op) error {
		ctx, span := m.tracer.StartSpan(ctx, op)
		start := time.Now()

		err := fn(ctx, op)

		duration := time.Since(start)
		m.tracer.EndSpan(span, err)
		m.metrics.RecordOperation(ctx, op, duration, err)

		log := m.logger.With(Field{Key: "op", Value: op.ID()})
		fields := []Field{{Key: "duration_ms", Value: duration.Milliseconds()}}
		if err != nil {
			log.Warn(ctx, "operation failed", append(fields, Err(err))...)
		} else {
			log.Debug(ctx, "operation completed", fields...)
		}
		return err
	}
}

// Run executes fn once under op.
func (m *Middleware) Run(ctx context.Context, op Op, fn func(ctx context.Context) error) error {
	return m.Wrap(func(ctx context.Context, _ Op) error { return fn(ctx) })(ctx, op)
}

// Logger returns the middleware's logger.
func (m *Middleware) Logger() Logger {
	return m.logger
}
