// Package observe provides application-wide observability primitives for
// banitrack: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all banitrack metrics.
const meterName = "github.com/banilabs/banitrack"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// SearchDuration tracks fuzzy search latency. Use with attribute:
	//   attribute.String("mode", ...) — "cold_start", "windowed", or "sequence"
	SearchDuration metric.Float64Histogram

	// FetchDuration tracks corpus document fetch latency.
	FetchDuration metric.Float64Histogram

	// --- Counters ---

	// Anchors counts alignment position updates. Use with attributes:
	//   attribute.String("stage", ...), attribute.String("kind", ...) — "cold", "advance", "re_anchor"
	Anchors metric.Int64Counter

	// Fetches counts corpus document fetches. Use with attributes:
	//   attribute.String("trigger", ...), attribute.String("status", ...)
	Fetches metric.Int64Counter

	// SpeechRestarts counts dictation session restarts. Use with attribute:
	//   attribute.String("reason", ...) — "no_speech", "error", "voice", "clean"
	SpeechRestarts metric.Int64Counter

	// SacredMatches counts liturgical phrase detections. Use with attribute:
	//   attribute.String("phrase", ...)
	SacredMatches metric.Int64Counter

	// --- Error counters ---

	// SourceErrors counts corpus source errors. Use with attribute:
	//   attribute.String("op", ...) — "fetch" or "resolve"
	SourceErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions tracks the number of live alignment sessions.
	ActiveSessions metric.Int64UpDownCounter

	// ActiveStreams tracks the number of connected event-stream subscribers.
	ActiveStreams metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) optimised
// for live-captioning latencies.
var latencyBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.SearchDuration, err = m.Float64Histogram("banitrack.search.duration",
		metric.WithDescription("Latency of fuzzy corpus search by mode."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.FetchDuration, err = m.Float64Histogram("banitrack.fetch.duration",
		metric.WithDescription("Latency of corpus document fetches."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.Anchors, err = m.Int64Counter("banitrack.anchors",
		metric.WithDescription("Total alignment position updates by stage and kind."),
	); err != nil {
		return nil, err
	}
	if met.Fetches, err = m.Int64Counter("banitrack.fetches",
		metric.WithDescription("Total corpus document fetches by trigger and status."),
	); err != nil {
		return nil, err
	}
	if met.SpeechRestarts, err = m.Int64Counter("banitrack.speech.restarts",
		metric.WithDescription("Total dictation session restarts by reason."),
	); err != nil {
		return nil, err
	}
	if met.SacredMatches, err = m.Int64Counter("banitrack.sacred.matches",
		metric.WithDescription("Total liturgical phrase detections by phrase name."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.SourceErrors, err = m.Int64Counter("banitrack.source.errors",
		metric.WithDescription("Total corpus source errors by operation."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSessions, err = m.Int64UpDownCounter("banitrack.active_sessions",
		metric.WithDescription("Number of live alignment sessions."),
	); err != nil {
		return nil, err
	}
	if met.ActiveStreams, err = m.Int64UpDownCounter("banitrack.active_streams",
		metric.WithDescription("Number of connected event-stream subscribers."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("banitrack.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordSearch records one fuzzy search with its mode and duration in
// seconds.
func (m *Metrics) RecordSearch(ctx context.Context, mode string, seconds float64) {
	m.SearchDuration.Record(ctx, seconds,
		metric.WithAttributes(attribute.String("mode", mode)),
	)
}

// RecordAnchor records an alignment position update with the matcher stage
// that produced it and the kind of movement.
func (m *Metrics) RecordAnchor(ctx context.Context, stage, kind string) {
	m.Anchors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("stage", stage),
			attribute.String("kind", kind),
		),
	)
}

// RecordFetch records a corpus document fetch counter increment with the
// standard attribute set.
func (m *Metrics) RecordFetch(ctx context.Context, trigger, status string) {
	m.Fetches.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("trigger", trigger),
			attribute.String("status", status),
		),
	)
}

// RecordSpeechRestart records a dictation restart counter increment.
func (m *Metrics) RecordSpeechRestart(ctx context.Context, reason string) {
	m.SpeechRestarts.Add(ctx, 1,
		metric.WithAttributes(attribute.String("reason", reason)),
	)
}

// RecordSacredMatch records a liturgical phrase detection.
func (m *Metrics) RecordSacredMatch(ctx context.Context, phrase string) {
	m.SacredMatches.Add(ctx, 1,
		metric.WithAttributes(attribute.String("phrase", phrase)),
	)
}

// RecordSourceError records a corpus source error counter increment.
func (m *Metrics) RecordSourceError(ctx context.Context, op string) {
	m.SourceErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("op", op)),
	)
}
