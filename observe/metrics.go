package observe

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrorClasser is implemented by errors that report their own class, such as
// "http_4xx" or "http_5xx". The class becomes the error.class attribute on
// the failure counter.
type ErrorClasser interface {
	ErrorClass() string
}

// ErrorClass returns the class of err: the error's own class when it
// implements ErrorClasser, "timeout" or "canceled" for context errors, and
// "error" otherwise.
func ErrorClass(err error) string {
	var ec ErrorClasser
	switch {
	case errors.As(err, &ec):
		return ec.ErrorClass()
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}

// Metrics records operation outcomes.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	RecordOperation(ctx context.Context, op Op, duration time.Duration, err error)
}

type metricsImpl struct {
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	durationHist metric.Float64Histogram
}

// NewMetrics creates the operation instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	return newMetrics(meter)
}

func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	totalCount, err := meter.Int64Counter(
		"vendora.op.total",
		metric.WithDescription("Total number of observed operations"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"vendora.op.errors",
		metric.WithDescription("Total number of failed operations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"vendora.op.duration_ms",
		metric.WithDescription("Operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		totalCount:   totalCount,
		errorCount:   errorCount,
		durationHist: durationHist,
	}, nil
}

func (m *metricsImpl) RecordOperation(ctx context.Context, op Op, duration time.Duration, err error) {
	attrs := op.attributes()
	opt := metric.WithAttributes(attrs...)

	m.totalCount.Add(ctx, 1, opt)
	if err != nil {
		classed := append(attrs[:len(attrs):len(attrs)], attribute.String("error.class", ErrorClass(err)))
		m.errorCount.Add(ctx, 1, metric.WithAttributes(classed...))
	}
	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

type noopMetrics struct{}

func (noopMetrics) RecordOperation(context.Context, Op, time.Duration, error) {}
