package observe

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// withTestTracer installs an in-memory tracer provider as the global provider
// for the duration of the test.
func withTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	orig := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(orig) })
	return exp
}

var hexID = regexp.MustCompile(`^[0-9a-f]{32}$`)

func TestStartSpan_RecordsNamedSpan(t *testing.T) {
	exp := withTestTracer(t)

	ctx, span := StartSpan(context.Background(), "performer.turn")
	if !hexID.MatchString(CorrelationID(ctx)) {
		t.Errorf("CorrelationID(ctx) = %q, want 32 lowercase hex chars", CorrelationID(ctx))
	}
	span.End()

	spans := exp.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("recorded spans = %d, want 1", len(spans))
	}
	if spans[0].Name != "performer.turn" {
		t.Errorf("span name = %q, want performer.turn", spans[0].Name)
	}
}

func TestStartSpan_ChildSharesTraceID(t *testing.T) {
	withTestTracer(t)

	ctx, parent := StartSpan(context.Background(), "scene.speak")
	defer parent.End()
	childCtx, child := StartSpan(ctx, "performer.turn")
	defer child.End()

	if got, want := CorrelationID(childCtx), CorrelationID(ctx); got != want {
		t.Errorf("child trace ID = %q, want parent's %q", got, want)
	}
}

func TestCorrelationID_NoSpan(t *testing.T) {
	if got := CorrelationID(context.Background()); got != "" {
		t.Errorf("CorrelationID(background) = %q, want empty", got)
	}
}

func TestLogger_AnnotatesWithSpanContext(t *testing.T) {
	withTestTracer(t)

	var buf strings.Builder
	orig := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(orig) })

	ctx, span := StartSpan(context.Background(), "feed.broadcast")
	defer span.End()

	Logger(ctx).Info("segment dispatched")
	out := buf.String()
	if !strings.Contains(out, "trace_id="+CorrelationID(ctx)) {
		t.Errorf("log line missing trace_id: %s", out)
	}
	if !strings.Contains(out, "span_id=") {
		t.Errorf("log line missing span_id: %s", out)
	}

	// Without a span the logger stays bare.
	buf.Reset()
	Logger(context.Background()).Info("no span")
	if strings.Contains(buf.String(), "trace_id") {
		t.Errorf("log line without span carries trace_id: %s", buf.String())
	}
}
