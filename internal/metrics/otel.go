package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

const defaultServiceName = "game-sync-service"

var (
	promReaderFactory = prometheusComponents
	otlpReaderFactory = buildOTLPReader
	instrumentFactory = newOtelInstruments
)

// TelemetryConfig controls how metrics are exported.
type TelemetryConfig struct {
	Enabled      bool
	Port         string
	ServiceName  string
	OtlpEndpoint string
	OtlpInsecure bool
}

// Setup configures OpenTelemetry metrics with a Prometheus exporter and optional OTLP exporter.
// It returns a Recorder, the Prometheus HTTP handler, and a shutdown function.
func Setup(ctx context.Context, cfg TelemetryConfig) (*Recorder, http.Handler, func(context.Context) error, error) {
	if !cfg.Enabled {
		return NewRecorder(), nil, func(context.Context) error { return nil }, nil
	}

	if cfg.ServiceName == "" {
		cfg.ServiceName = defaultServiceName
	}

	promReader, promHandler, err := promReaderFactory()
	if err != nil {
		return nil, nil, nil, err
	}

	opts := []sdkmetric.Option{sdkmetric.WithReader(promReader)}

	if cfg.OtlpEndpoint != "" {
		otlpReader, err := otlpReaderFactory(ctx, cfg.OtlpEndpoint, cfg.OtlpInsecure)
		if err != nil {
			return nil, nil, nil, err
		}
		opts = append(opts, sdkmetric.WithReader(otlpReader))
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)),
	)
	if err != nil {
		return nil, nil, nil, err
	}

	opts = append(opts, sdkmetric.WithResource(res))

	provider := sdkmetric.NewMeterProvider(opts...)

	otelInst, err := instrumentFactory(provider)
	if err != nil {
		return nil, nil, nil, err
	}

	rec := newRecorder(otelInst)
	shutdown := func(c context.Context) error {
		return provider.Shutdown(c)
	}

	return rec, promHandler, shutdown, nil
}

func buildOTLPReader(ctx context.Context, endpoint string, insecure bool) (sdkmetric.Reader, error) {
	otlpOpts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(endpoint)}
	if insecure {
		otlpOpts = append(otlpOpts, otlpmetrichttp.WithInsecure())
	}
	otlpExp, err := otlpmetrichttp.New(ctx, otlpOpts...)
	if err != nil {
		return nil, err
	}
	return sdkmetric.NewPeriodicReader(otlpExp, sdkmetric.WithInterval(15*time.Second)), nil
}

type otelInstruments struct {
	ctx               context.Context
	requests          metric.Int64Counter
	requestLatencyMs  metric.Float64Histogram
	upstreamAttempts  metric.Int64Counter
	upstreamErrors    metric.Int64Counter
	upstreamLatencyMs metric.Float64Histogram
	rateLimitHits     metric.Int64Counter
	retryAfterMs      metric.Float64Histogram
	statusLookups     metric.Int64Counter
	syncCycles        metric.Int64Counter
	syncErrors        metric.Int64Counter
	syncSkipped       metric.Int64Counter
	syncLatencyMs     metric.Float64Histogram
	challengeErrors   metric.Int64Counter
	transitions       metric.Int64Counter
	conflicts         metric.Int64Counter
	eventsPublished   metric.Int64Counter
	eventsFailed      metric.Int64Counter
}

func prometheusComponents() (sdkmetric.Reader, http.Handler, error) {
	reg := prometheus.NewRegistry()
	promExp, err := promexporter.New(promexporter.WithRegisterer(reg))
	if err != nil {
		return nil, nil, err
	}
	return promExp, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), nil
}

// instrumentBuilder collects the first creation error so construction reads linearly.
type instrumentBuilder struct {
	meter metric.Meter
	err   error
}

func (b *instrumentBuilder) counter(name, desc string) metric.Int64Counter {
	c, err := b.meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil && b.err == nil {
		b.err = err
	}
	return c
}

func (b *instrumentBuilder) histogram(name, desc string) metric.Float64Histogram {
	h, err := b.meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("ms"))
	if err != nil && b.err == nil {
		b.err = err
	}
	return h
}

func newOtelInstruments(provider metric.MeterProvider) (*otelInstruments, error) {
	b := &instrumentBuilder{meter: provider.Meter(defaultServiceName)}

	inst := &otelInstruments{
		ctx:               context.Background(),
		requests:          b.counter("http_requests_total", "HTTP requests served"),
		requestLatencyMs:  b.histogram("http_request_duration_ms", "HTTP request latency"),
		upstreamAttempts:  b.counter("upstream_attempts_total", "Calls made to the game-data upstream"),
		upstreamErrors:    b.counter("upstream_errors_total", "Failed upstream calls"),
		upstreamLatencyMs: b.histogram("upstream_duration_ms", "Upstream call latency"),
		rateLimitHits:     b.counter("upstream_rate_limit_hits_total", "Upstream 429 responses"),
		retryAfterMs:      b.histogram("upstream_retry_after_ms", "Retry-After advertised by the upstream"),
		statusLookups:     b.counter("game_status_lookups_total", "Game status resolutions by outcome"),
		syncCycles:        b.counter("sync_cycles_total", "Completed sync cycles"),
		syncErrors:        b.counter("sync_cycle_errors_total", "Sync cycles aborted by an error"),
		syncSkipped:       b.counter("sync_cycles_skipped_total", "Ticks skipped while a cycle was running"),
		syncLatencyMs:     b.histogram("sync_cycle_duration_ms", "Sync cycle duration"),
		challengeErrors:   b.counter("sync_challenge_errors_total", "Per-challenge errors inside sync cycles"),
		transitions:       b.counter("challenge_transitions_total", "Persisted challenge status changes"),
		conflicts:         b.counter("challenge_conflicts_total", "Lost optimistic writes"),
		eventsPublished:   b.counter("realtime_events_published_total", "Realtime events published"),
		eventsFailed:      b.counter("realtime_events_failed_total", "Realtime events that failed to publish"),
	}
	if b.err != nil {
		return nil, b.err
	}
	return inst, nil
}

func (o *otelInstruments) recordHTTPRequest(method, path string, status int, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String(AttrMethod, method),
		attribute.String(AttrPath, path),
		attribute.Int(AttrStatus, status),
	}
	o.recordCounter(o.requests, 1, attrs...)
	o.recordHistogram(o.requestLatencyMs, float64(duration.Milliseconds()), attrs...)
}

func (o *otelInstruments) recordUpstreamAttempt(source string, duration time.Duration, err error) {
	if o == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.String(AttrSource, source)}
	o.recordCounter(o.upstreamAttempts, 1, attrs...)
	o.recordHistogram(o.upstreamLatencyMs, float64(duration.Milliseconds()), attrs...)
	if err != nil {
		o.recordCounter(o.upstreamErrors, 1, attrs...)
	}
}

func (o *otelInstruments) recordRateLimit(source string, retryAfter time.Duration) {
	if o == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.String(AttrSource, source)}
	o.recordCounter(o.rateLimitHits, 1, attrs...)
	if retryAfter > 0 {
		o.recordHistogram(o.retryAfterMs, float64(retryAfter.Milliseconds()), attrs...)
	}
}

func (o *otelInstruments) recordStatusLookup(outcome string) {
	if o == nil {
		return
	}
	o.recordCounter(o.statusLookups, 1, attribute.String(AttrOutcome, outcome))
}

func (o *otelInstruments) recordSyncCycle(duration time.Duration, challengeErrors int, err error) {
	if o == nil {
		return
	}
	o.recordCounter(o.syncCycles, 1)
	o.recordHistogram(o.syncLatencyMs, float64(duration.Milliseconds()))
	if challengeErrors > 0 {
		o.recordCounter(o.challengeErrors, int64(challengeErrors))
	}
	if err != nil {
		o.recordCounter(o.syncErrors, 1)
	}
}

func (o *otelInstruments) recordSyncSkipped() {
	if o == nil {
		return
	}
	o.recordCounter(o.syncSkipped, 1)
}

func (o *otelInstruments) recordTransition(from, to string) {
	if o == nil {
		return
	}
	o.recordCounter(o.transitions, 1, attribute.String(AttrFrom, from), attribute.String(AttrTo, to))
}

func (o *otelInstruments) recordConflict(operation string) {
	if o == nil {
		return
	}
	o.recordCounter(o.conflicts, 1, attribute.String(AttrOperation, operation))
}

func (o *otelInstruments) recordEvent(eventType string, err error) {
	if o == nil {
		return
	}
	attrs := attribute.String(AttrEventType, eventType)
	if err != nil {
		o.recordCounter(o.eventsFailed, 1, attrs)
		return
	}
	o.recordCounter(o.eventsPublished, 1, attrs)
}

func (o *otelInstruments) recordCounter(counter metric.Int64Counter, value int64, attrs ...attribute.KeyValue) {
	counter.Add(o.ctx, value, metric.WithAttributes(attrs...))
}

func (o *otelInstruments) recordHistogram(hist metric.Float64Histogram, value float64, attrs ...attribute.KeyValue) {
	hist.Record(o.ctx, value, metric.WithAttributes(attrs...))
}
