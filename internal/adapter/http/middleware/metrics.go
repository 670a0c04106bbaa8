package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pirnawaz/agroledger/internal/infrastructure/metrics"
)

// MetricsMiddleware records HTTP metrics.
type MetricsMiddleware struct {
	metrics *metrics.Metrics
}

// NewMetricsMiddleware creates a new MetricsMiddleware.
func NewMetricsMiddleware(m *metrics.Metrics) *MetricsMiddleware {
	return &MetricsMiddleware{metrics: m}
}

// Wrap wraps an http.Handler with request counting and latency recording.
func (m *MetricsMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &metricsRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		path := normalizePath(r.URL.Path)
		m.metrics.HTTPRequests.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		m.metrics.HTTPDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

type metricsRecorder struct {
	http.ResponseWriter

	statusCode int
}

func (r *metricsRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

// normalizePath replaces resource IDs with a placeholder to keep metric
// cardinality bounded.
func normalizePath(path string) string {
	parts := strings.Split(path, "/")
	for i := 1; i < len(parts); i++ {
		switch parts[i-1] {
		case "postings", "crop-cycles", "settlement-packs", "accounts":
			if parts[i] != "" {
				parts[i] = ":id"
			}
		}
	}

	return strings.Join(parts, "/")
}
