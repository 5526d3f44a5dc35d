package tracing

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// HTTPMiddleware wraps every request in a span named
// "<serviceName> <method> <path>",
// recording the same request/response attributes StartHTTPSpan/EndHTTPSpan
// use for handlers that build their own spans.
func HTTPMiddleware(serviceName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			span, r := StartHTTPSpan(r, serviceName+" "+r.Method+" "+r.URL.Path)
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			EndHTTPSpan(span, sw.status, sw.size)
		})
	}
}

// statusWriter records the status code and byte count a handler wrote, since
// http.ResponseWriter doesn't expose either after the fact.
type statusWriter struct {
	http.ResponseWriter
	status int
	size   int64
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.size += int64(n)
	return n, err
}

// StartHTTPSpan starts a new span for HTTP requests with common attributes
func StartHTTPSpan(r *http.Request, operationName string) (oteltrace.Span, *http.Request) {
	tracer := otel.Tracer("http-server")
	ctx, span := tracer.Start(r.Context(), operationName)

	// Add common HTTP attributes
	span.SetAttributes(
		attribute.String("http.method", r.Method),
		attribute.String("http.url", r.URL.String()),
		attribute.String("http.route", r.URL.Path),
		attribute.String("http.user_agent", r.UserAgent()),
	)

	// Create new request with traced context
	r = r.WithContext(ctx)

	return span, r
}

// EndHTTPSpan ends an HTTP span with response information
func EndHTTPSpan(span oteltrace.Span, statusCode int, responseSize int64) {
	span.SetAttributes(
		attribute.Int("http.status_code", statusCode),
		attribute.Int64("http.response_size", responseSize),
	)

	// Set span status based on HTTP status code
	if statusCode >= 400 {
		span.SetAttributes(attribute.Bool("error", true))
	}

	span.End()
}
