package cache

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

type cacheMetrics struct {
	hits        metric.Int64Counter
	misses      metric.Int64Counter
	expirations metric.Int64Counter
	faults      metric.Int64Counter
}

func newCacheMetrics(meter metric.Meter) (*cacheMetrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("noop")
	}

	hits, err := meter.Int64Counter("vendora.cache.hits",
		metric.WithDescription("Cache lookups served from a live entry"),
		metric.WithUnit("{lookup}"))
	if err != nil {
		return nil, err
	}
	misses, err := meter.Int64Counter("vendora.cache.misses",
		metric.WithDescription("Cache lookups that found no usable entry"),
		metric.WithUnit("{lookup}"))
	if err != nil {
		return nil, err
	}
	expirations, err := meter.Int64Counter("vendora.cache.expirations",
		metric.WithDescription("Entries evicted on read after their expiry"),
		metric.WithUnit("{entry}"))
	if err != nil {
		return nil, err
	}
	faults, err := meter.Int64Counter("vendora.cache.faults",
		metric.WithDescription("Swallowed store and codec failures"),
		metric.WithUnit("{fault}"))
	if err != nil {
		return nil, err
	}

	return &cacheMetrics{hits: hits, misses: misses, expirations: expirations, faults: faults}, nil
}

func (m *cacheMetrics) fault(ctx context.Context, f *Fault) {
	m.faults.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache.op", f.Op),
		attribute.String("cache.fault", string(f.Kind)),
	))
}
