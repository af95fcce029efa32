package middleware

import (
	"net/http"
	"strconv"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/normrepo/nrs-go/internal/metrics"
)

// Metrics records request counts and latencies. Routes are labeled by their
// chi pattern, not the raw path.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func(start time.Time) {
				route := routePattern(r)
				m.Requests.WithLabelValues(r.Method, route, strconv.Itoa(statusCode(ww))).Inc()
				m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
			}(time.Now())

			next.ServeHTTP(ww, r)
		})
	}
}
