package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

// Metrics holds the quote engine instruments.
type Metrics struct {
	meter metric.Meter

	QuotesComputed  metric.Int64Counter
	QuoteFailures   metric.Int64Counter
	QuoteDuration   metric.Float64Histogram
	RoutesSelected  metric.Int64Counter
	RoutesNotFound  metric.Int64Counter
	SnapshotFetches metric.Float64Histogram
	StaleSnapshots  metric.Int64Counter
	BreakerChanges  metric.Int64Counter

	// nil when metrics are disabled
	exporter *prometheus.Exporter
}

// NewMetrics creates the instruments. When disabled every instrument comes
// from the otel no-op meter, so callers never need nil checks.
func NewMetrics(serviceName string, enabled bool) (*Metrics, error) {
	if !enabled {
		m := &Metrics{meter: noop.NewMeterProvider().Meter(serviceName)}
		if err := m.initMetrics(); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
		return m, nil
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String("1.0.0"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	m := &Metrics{
		meter:    provider.Meter(serviceName),
		exporter: exporter,
	}
	if err := m.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	return m, nil
}

// NewNopMetrics returns disabled metrics.
func NewNopMetrics() *Metrics {
	m, _ := NewMetrics("noop", false)
	return m
}

func (m *Metrics) initMetrics() error {
	var err error

	m.QuotesComputed, err = m.meter.Int64Counter(
		"quote.computed",
		metric.WithDescription("Pool quotes computed successfully"),
	)
	if err != nil {
		return err
	}

	m.QuoteFailures, err = m.meter.Int64Counter(
		"quote.failures",
		metric.WithDescription("Pool quotes that failed, by reason"),
	)
	if err != nil {
		return err
	}

	m.QuoteDuration, err = m.meter.Float64Histogram(
		"quote.duration",
		metric.WithDescription("Time to fetch and quote one pool in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	m.RoutesSelected, err = m.meter.Int64Counter(
		"route.selected",
		metric.WithDescription("Routes selected, by winning pool kind"),
	)
	if err != nil {
		return err
	}

	m.RoutesNotFound, err = m.meter.Int64Counter(
		"route.not_found",
		metric.WithDescription("Route requests with no qualifying pool"),
	)
	if err != nil {
		return err
	}

	m.SnapshotFetches, err = m.meter.Float64Histogram(
		"snapshot.fetch.duration",
		metric.WithDescription("Pool snapshot fetch duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	m.StaleSnapshots, err = m.meter.Int64Counter(
		"snapshot.stale_served",
		metric.WithDescription("Cached snapshots served after a failed fetch"),
	)
	if err != nil {
		return err
	}

	m.BreakerChanges, err = m.meter.Int64Counter(
		"snapshot.breaker.transitions",
		metric.WithDescription("Pool circuit breaker state changes, by new state"),
	)
	return err
}

// RecordQuote records one successful pool quote.
func (m *Metrics) RecordQuote(ctx context.Context, kind, direction string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("direction", direction),
	)
	m.QuotesComputed.Add(ctx, 1, attrs)
	m.QuoteDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordQuoteFailure records one failed pool quote.
func (m *Metrics) RecordQuoteFailure(ctx context.Context, kind, reason string) {
	m.QuoteFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("reason", reason),
	))
}

// RecordRoute records the outcome of a route request. An empty kind means
// nothing qualified.
func (m *Metrics) RecordRoute(ctx context.Context, kind string) {
	if kind == "" {
		m.RoutesNotFound.Add(ctx, 1)
		return
	}
	m.RoutesSelected.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordSnapshotFetch records one snapshot read.
func (m *Metrics) RecordSnapshotFetch(ctx context.Context, duration time.Duration, ok bool) {
	m.SnapshotFetches.Record(ctx, float64(duration.Milliseconds()),
		metric.WithAttributes(attribute.Bool("ok", ok)))
}

// RecordStaleSnapshot records a cached snapshot served in place of a
// failed fetch.
func (m *Metrics) RecordStaleSnapshot(ctx context.Context, reason string) {
	m.StaleSnapshots.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordBreakerChange records a circuit breaker transition.
func (m *Metrics) RecordBreakerChange(ctx context.Context, to string) {
	m.BreakerChanges.Add(ctx, 1, metric.WithAttributes(attribute.String("state", to)))
}

// Handler serves the Prometheus scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.exporter == nil {
		return http.NotFoundHandler()
	}
	return promhttp.Handler()
}
