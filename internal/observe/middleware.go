package observe

import (
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// responseCapture wraps [http.ResponseWriter] so the middleware can read the
// status code after the handler returns.
type responseCapture struct {
	http.ResponseWriter
	status int
}

func (c *responseCapture) WriteHeader(code int) {
	c.status = code
	c.ResponseWriter.WriteHeader(code)
}

// routeLabel returns the low-cardinality label for a request: the ServeMux
// pattern that matched (e.g. "POST /v1/speak") when available, otherwise the
// raw method and path. Unmatched requests would otherwise explode the metric
// label space with every probing URL a scanner throws at the server.
func routeLabel(r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	return r.Method + " " + r.URL.Path
}

// Middleware wraps an [http.Handler] with the stagecue request telemetry:
// a server span per request (joining an incoming W3C trace context when one
// is present), the X-Correlation-ID response header derived from the trace
// ID, a [Metrics.HTTPRequestDuration] sample labelled by matched route, and
// a completion log line.
func Middleware(m *Metrics) func(http.Handler) http.Handler {
	prop := propagation.TraceContext{}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ctx := prop.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := StartSpan(ctx, "HTTP "+r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.URLPath(r.URL.Path),
				),
			)
			defer span.End()

			cid := CorrelationID(ctx)
			if cid != "" {
				w.Header().Set("X-Correlation-ID", cid)
			}
			prop.Inject(ctx, propagation.HeaderCarrier(w.Header()))

			// The mux annotates the request it receives with the matched
			// pattern, so hold on to the rewired request for routeLabel.
			r = r.WithContext(ctx)

			cw := &responseCapture{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(cw, r)

			// The matched pattern is only known after routing.
			route := routeLabel(r)
			span.SetName(route)
			span.SetAttributes(semconv.HTTPResponseStatusCode(cw.status))

			elapsed := time.Since(start)
			m.HTTPRequestDuration.Record(ctx, elapsed.Seconds(),
				metric.WithAttributes(
					attribute.String("route", route),
					attribute.Int("status", cw.status),
				),
			)

			slog.LogAttrs(ctx, slog.LevelInfo, "request completed",
				slog.String("trace_id", cid),
				slog.String("route", route),
				slog.Int("status", cw.status),
				slog.Duration("duration", elapsed),
			)
		})
	}
}
