// Package telemetry provides OpenTelemetry metrics for the browsing
// layer. Instruments are no-ops unless a global meter provider is
// installed by the embedding application.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsProvider provides access to metrics instruments.
type MetricsProvider struct {
	meter metric.Meter

	cacheHits     metric.Int64Counter
	cacheMisses   metric.Int64Counter
	invalidations metric.Int64Counter
	scanPages     metric.Int64Counter
	bulkDeletes   metric.Int64Counter

	scanDuration metric.Float64Histogram

	initOnce sync.Once
	initErr  error
}

// MetricsConfig configures the metrics provider.
type MetricsConfig struct {
	// MeterName is the name of the meter.
	MeterName string
	// MeterVersion is the version of the meter.
	MeterVersion string
}

// DefaultMetricsConfig returns a default metrics configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		MeterName:    "github.com/felixgeelhaar/keyscope",
		MeterVersion: "1.0.0",
	}
}

// NewMetricsProvider creates a new metrics provider.
func NewMetricsProvider(config MetricsConfig) *MetricsProvider {
	if config.MeterName == "" {
		config = DefaultMetricsConfig()
	}

	provider := otel.GetMeterProvider()
	meter := provider.Meter(
		config.MeterName,
		metric.WithInstrumentationVersion(config.MeterVersion),
	)

	mp := &MetricsProvider{meter: meter}

	mp.initOnce.Do(func() {
		mp.initErr = mp.initInstruments()
	})

	return mp
}

// initInstruments initializes all metric instruments.
func (mp *MetricsProvider) initInstruments() error {
	var err error

	mp.cacheHits, err = mp.meter.Int64Counter(
		"keyscope.cache.hits",
		metric.WithDescription("Number of cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return err
	}

	mp.cacheMisses, err = mp.meter.Int64Counter(
		"keyscope.cache.misses",
		metric.WithDescription("Number of cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return err
	}

	mp.invalidations, err = mp.meter.Int64Counter(
		"keyscope.cache.invalidations",
		metric.WithDescription("Number of cache entries removed by invalidation"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return err
	}

	mp.scanPages, err = mp.meter.Int64Counter(
		"keyscope.scan.pages",
		metric.WithDescription("Number of scan pages fetched"),
		metric.WithUnit("{page}"),
	)
	if err != nil {
		return err
	}

	mp.bulkDeletes, err = mp.meter.Int64Counter(
		"keyscope.scan.bulk_deletes",
		metric.WithDescription("Number of keys removed by bulk cleanup"),
		metric.WithUnit("{key}"),
	)
	if err != nil {
		return err
	}

	mp.scanDuration, err = mp.meter.Float64Histogram(
		"keyscope.scan.duration",
		metric.WithDescription("Duration of full pattern enumerations"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Error returns any initialization error.
func (mp *MetricsProvider) Error() error {
	return mp.initErr
}

// RecordCacheHit records a cache hit for a namespace.
func (mp *MetricsProvider) RecordCacheHit(ctx context.Context, namespace string) {
	mp.cacheHits.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache.namespace", namespace),
	))
}

// RecordCacheMiss records a cache miss for a namespace.
func (mp *MetricsProvider) RecordCacheMiss(ctx context.Context, namespace string) {
	mp.cacheMisses.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache.namespace", namespace),
	))
}

// RecordInvalidation records entries removed by an invalidation.
func (mp *MetricsProvider) RecordInvalidation(ctx context.Context, removed int) {
	mp.invalidations.Add(ctx, int64(removed))
}

// RecordScanPage records one fetched scan page.
func (mp *MetricsProvider) RecordScanPage(ctx context.Context, connID string) {
	mp.scanPages.Add(ctx, 1, metric.WithAttributes(
		attribute.String("conn.id", connID),
	))
}

// RecordScanDuration records the duration of a full pattern enumeration.
func (mp *MetricsProvider) RecordScanDuration(ctx context.Context, connID string, duration time.Duration, keys int) {
	mp.scanDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(
		attribute.String("conn.id", connID),
		attribute.Int("keys", keys),
	))
}

// RecordBulkDelete records keys removed by bulk cleanup.
func (mp *MetricsProvider) RecordBulkDelete(ctx context.Context, removed int) {
	mp.bulkDeletes.Add(ctx, int64(removed))
}

// NoopMetricsProvider is a no-op metrics provider for testing or when
// metrics are disabled.
type NoopMetricsProvider struct{}

// RecordCacheHit is a no-op.
func (n *NoopMetricsProvider) RecordCacheHit(ctx context.Context, namespace string) {}

// RecordCacheMiss is a no-op.
func (n *NoopMetricsProvider) RecordCacheMiss(ctx context.Context, namespace string) {}

// RecordInvalidation is a no-op.
func (n *NoopMetricsProvider) RecordInvalidation(ctx context.Context, removed int) {}

// RecordScanPage is a no-op.
func (n *NoopMetricsProvider) RecordScanPage(ctx context.Context, connID string) {}

// RecordScanDuration is a no-op.
func (n *NoopMetricsProvider) RecordScanDuration(ctx context.Context, connID string, duration time.Duration, keys int) {
}

// RecordBulkDelete is a no-op.
func (n *NoopMetricsProvider) RecordBulkDelete(ctx context.Context, removed int) {}

// Metrics defines the interface for metrics recording.
type Metrics interface {
	RecordCacheHit(ctx context.Context, namespace string)
	RecordCacheMiss(ctx context.Context, namespace string)
	RecordInvalidation(ctx context.Context, removed int)
	RecordScanPage(ctx context.Context, connID string)
	RecordScanDuration(ctx context.Context, connID string, duration time.Duration, keys int)
	RecordBulkDelete(ctx context.Context, removed int)
}

// Ensure implementations satisfy the interface.
var (
	_ Metrics = (*MetricsProvider)(nil)
	_ Metrics = (*NoopMetricsProvider)(nil)
)
