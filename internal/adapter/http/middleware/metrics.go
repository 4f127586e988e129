package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/iho/walletledger/internal/infrastructure/metrics"
)

// Metrics returns a middleware that records HTTP metrics.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			m.HTTPInFlight.Inc()
			defer m.HTTPInFlight.Dec()

			// Wrap response writer to capture status code
			wrapped := &metricsRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			path := normalizePath(r.URL.Path)

			m.HTTPRequests.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
			m.HTTPDuration.WithLabelValues(r.Method, path).Observe(duration)
		})
	}
}

type metricsRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *metricsRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

// idSegments are collections whose next path segment is an identifier.
var idSegments = map[string]string{
	"withdrawals": ":id",
	"wallets":     ":user_id",
}

// normalizePath replaces path identifiers with placeholders to bound label cardinality.
func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/api/v1/") {
		return path
	}

	parts := strings.Split(path, "/")
	for i := 1; i < len(parts)-1; i++ {
		placeholder, ok := idSegments[parts[i]]
		if !ok || parts[i+1] == "" {
			continue
		}
		parts[i+1] = placeholder
		i++
	}

	return strings.Join(parts, "/")
}
