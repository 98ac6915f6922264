package observe

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

// collect gathers all metric data from the reader.
func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

// findMetric searches for a metric by name across all scope metrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestNewMetrics_CreatesWithoutError(t *testing.T) {
	m, _ := newTestMetrics(t)
	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}
}

func TestHistogramObservation(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	histograms := []struct {
		name string
		h    metric.Float64Histogram
	}{
		{"stagecue.prompt.assembly.duration", m.PromptAssemblyDuration},
		{"stagecue.llm.duration", m.LLMDuration},
		{"stagecue.turn.duration", m.TurnDuration},
	}

	for _, tc := range histograms {
		tc.h.Record(ctx, 0.123)
		tc.h.Record(ctx, 0.456)
	}

	rm := collect(t, reader)

	for _, tc := range histograms {
		t.Run(tc.name, func(t *testing.T) {
			met := findMetric(rm, tc.name)
			if met == nil {
				t.Fatalf("metric %q not found", tc.name)
			}
			hist, ok := met.Data.(metricdata.Histogram[float64])
			if !ok {
				t.Fatalf("metric %q is not a histogram", tc.name)
			}
			if len(hist.DataPoints) == 0 {
				t.Fatalf("metric %q has no data points", tc.name)
			}
			if got := hist.DataPoints[0].Count; got != 2 {
				t.Errorf("metric %q count = %d, want 2", tc.name, got)
			}
		})
	}
}

func TestDirectiveParseCounter(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordDirectiveParse(ctx, "applied")
	m.RecordDirectiveParse(ctx, "applied")
	m.RecordDirectiveParse(ctx, "defaulted")

	rm := collect(t, reader)
	met := findMetric(rm, "stagecue.directive.parses")
	if met == nil {
		t.Fatal("directive parse metric not found")
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("directive parse metric is not a sum")
	}

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	if total != 3 {
		t.Errorf("total directive parses = %d, want 3", total)
	}
	if len(sum.DataPoints) != 2 {
		t.Errorf("status attribute sets = %d, want 2 (applied, defaulted)", len(sum.DataPoints))
	}
}

func TestDroppedFieldCounter(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordDroppedField(ctx, "pitch")
	m.RecordDroppedField(ctx, "pitch")
	m.RecordDroppedField(ctx, "gesture")

	rm := collect(t, reader)
	met := findMetric(rm, "stagecue.directive.fields_dropped")
	if met == nil {
		t.Fatal("dropped field metric not found")
	}
	sum := met.Data.(metricdata.Sum[int64])

	found := false
	for _, dp := range sum.DataPoints {
		for _, kv := range dp.Attributes.ToSlice() {
			if string(kv.Key) == "field" && kv.Value.AsString() == "pitch" {
				found = true
				if dp.Value != 2 {
					t.Errorf("pitch drops = %d, want 2", dp.Value)
				}
			}
		}
	}
	if !found {
		t.Error("data point with field=pitch not found")
	}
}

func TestProviderRequestCounter(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordProviderRequest(ctx, "openai", "ok")
	m.RecordProviderRequest(ctx, "openai", "error")

	rm := collect(t, reader)
	met := findMetric(rm, "stagecue.provider.requests")
	if met == nil {
		t.Fatal("provider request metric not found")
	}
	sum := met.Data.(metricdata.Sum[int64])
	if len(sum.DataPoints) != 2 {
		t.Errorf("attribute sets = %d, want 2", len(sum.DataPoints))
	}
}

func TestUtteranceCounter(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordUtterance(ctx, "bartender_01")
	m.RecordUtterance(ctx, "bartender_01")
	m.RecordUtterance(ctx, "guard_02")

	rm := collect(t, reader)
	met := findMetric(rm, "stagecue.utterances")
	if met == nil {
		t.Fatal("utterance metric not found")
	}
	sum := met.Data.(metricdata.Sum[int64])

	found := false
	for _, dp := range sum.DataPoints {
		for _, kv := range dp.Attributes.ToSlice() {
			if string(kv.Key) == "character_id" && kv.Value.AsString() == "bartender_01" {
				found = true
				if dp.Value != 2 {
					t.Errorf("bartender_01 utterances = %d, want 2", dp.Value)
				}
			}
		}
	}
	if !found {
		t.Error("data point with character_id=bartender_01 not found")
	}
}

func TestProviderErrorCounter(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordProviderError(ctx, "openai")

	rm := collect(t, reader)
	met := findMetric(rm, "stagecue.provider.errors")
	if met == nil {
		t.Fatal("provider error metric not found")
	}
	sum := met.Data.(metricdata.Sum[int64])
	if len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 1 {
		t.Errorf("provider errors = %+v, want single data point of 1", sum.DataPoints)
	}
}

func TestGauges(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.ActiveScenes.Add(ctx, 2)
	m.ActiveScenes.Add(ctx, -1)
	m.ActiveFeedClients.Add(ctx, 3)

	rm := collect(t, reader)

	gauges := []struct {
		name string
		want int64
	}{
		{"stagecue.active_scenes", 1},
		{"stagecue.active_feed_clients", 3},
	}

	for _, tc := range gauges {
		t.Run(tc.name, func(t *testing.T) {
			met := findMetric(rm, tc.name)
			if met == nil {
				t.Fatalf("metric %q not found", tc.name)
			}
			sum, ok := met.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("metric %q is not a sum", tc.name)
			}
			if got := sum.DataPoints[0].Value; got != tc.want {
				t.Errorf("metric %q = %d, want %d", tc.name, got, tc.want)
			}
		})
	}
}

func TestAttrHelper(t *testing.T) {
	kv := Attr("provider", "openai")
	if kv.Key != attribute.Key("provider") || kv.Value.AsString() != "openai" {
		t.Errorf("Attr() = %+v", kv)
	}
}
