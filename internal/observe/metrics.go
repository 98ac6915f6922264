// Package observe provides application-wide observability primitives for
// stagecue: OpenTelemetry metrics, distributed tracing, structured logging,
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

// meterName is the instrumentation scope name used for all stagecue metrics.
const meterName = "github.com/stagecue/stagecue"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// PromptAssemblyDuration tracks identity prompt assembly latency.
	PromptAssemblyDuration metric.Float64Histogram

	// LLMDuration tracks LLM completion latency.
	LLMDuration metric.Float64Histogram

	// TurnDuration tracks full perform-turn latency, prompt to resolved segments.
	TurnDuration metric.Float64Histogram

	// --- Counters ---

	// DirectiveParses counts directive payload parses. Use with attribute:
	//   attribute.String("status", ...) — "applied" or "defaulted"
	DirectiveParses metric.Int64Counter

	// DirectiveFieldsDropped counts individual directive fields discarded
	// during validation. Use with attribute:
	//   attribute.String("field", ...)
	DirectiveFieldsDropped metric.Int64Counter

	// ProviderRequests counts provider API calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// Utterances counts performed character responses. Use with attribute:
	//   attribute.String("character_id", ...)
	Utterances metric.Int64Counter

	// --- Error counters ---

	// ProviderErrors counts provider errors. Use with attribute:
	//   attribute.String("provider", ...)
	ProviderErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveScenes tracks the number of currently running scenes.
	ActiveScenes metric.Int64UpDownCounter

	// ActiveFeedClients tracks the number of connected renderer feed clients.
	ActiveFeedClients metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) optimised
// for turn-pipeline latencies.
var latencyBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.PromptAssemblyDuration, err = m.Float64Histogram("stagecue.prompt.assembly.duration",
		metric.WithDescription("Latency of identity prompt assembly."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.LLMDuration, err = m.Float64Histogram("stagecue.llm.duration",
		metric.WithDescription("Latency of LLM completion."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TurnDuration, err = m.Float64Histogram("stagecue.turn.duration",
		metric.WithDescription("End-to-end perform-turn latency."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.DirectiveParses, err = m.Int64Counter("stagecue.directive.parses",
		metric.WithDescription("Total directive payload parses by status."),
	); err != nil {
		return nil, err
	}
	if met.DirectiveFieldsDropped, err = m.Int64Counter("stagecue.directive.fields_dropped",
		metric.WithDescription("Total directive fields discarded during validation, by field."),
	); err != nil {
		return nil, err
	}
	if met.ProviderRequests, err = m.Int64Counter("stagecue.provider.requests",
		metric.WithDescription("Total provider API requests by provider and status."),
	); err != nil {
		return nil, err
	}
	if met.Utterances, err = m.Int64Counter("stagecue.utterances",
		metric.WithDescription("Total performed character responses by character ID."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.ProviderErrors, err = m.Int64Counter("stagecue.provider.errors",
		metric.WithDescription("Total provider errors by provider."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveScenes, err = m.Int64UpDownCounter("stagecue.active_scenes",
		metric.WithDescription("Number of currently running scenes."),
	); err != nil {
		return nil, err
	}
	if met.ActiveFeedClients, err = m.Int64UpDownCounter("stagecue.active_feed_clients",
		metric.WithDescription("Number of connected renderer feed clients."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("stagecue.http.request.duration",
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

// RecordDirectiveParse records a directive parse counter increment.
// Status should be "applied" (a directive was extracted) or "defaulted"
// (nothing usable; the segment falls back to profile and system defaults).
func (m *Metrics) RecordDirectiveParse(ctx context.Context, status string) {
	m.DirectiveParses.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)),
	)
}

// RecordDroppedField records a discarded directive field.
func (m *Metrics) RecordDroppedField(ctx context.Context, field string) {
	m.DirectiveFieldsDropped.Add(ctx, 1,
		metric.WithAttributes(attribute.String("field", field)),
	)
}

// RecordProviderRequest records a provider request counter increment with the
// standard attribute set.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, status string) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("status", status),
		),
	)
}

// RecordUtterance records a performed character response.
func (m *Metrics) RecordUtterance(ctx context.Context, characterID string) {
	m.Utterances.Add(ctx, 1,
		metric.WithAttributes(attribute.String("character_id", characterID)),
	)
}

// RecordProviderError records a provider error counter increment.
func (m *Metrics) RecordProviderError(ctx context.Context, provider string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("provider", provider)),
	)
}
