package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const unmatched = "unmatched"

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vaultchain_http_requests_total",
			Help: "Total number of HTTP requests by route, method and status.",
		},
		[]string{"method", "path", "status"},
	)

	// Log streams stay open for minutes, so they are left out of the
	// duration histogram and counted by logStreamsOpen instead.
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vaultchain_http_request_duration_seconds",
			Help:    "Duration of non-streaming HTTP requests in seconds.",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 15, 30},
		},
		[]string{"method", "path"},
	)

	logStreamsOpen = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "vaultchain_log_streams_open",
		Help: "Number of open vault log SSE streams.",
	})

	storeUp = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "vaultchain_store_up",
		Help: "1 when the last health check reached the store, 0 otherwise.",
	})
)

func init() {
	prometheus.MustRegister(httpRequestsTotal, httpRequestDuration, logStreamsOpen, storeUp)
}

// metricsMiddleware records request count and duration per chi route
// pattern, which keeps vault ids out of the label set.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		path := routePattern(r)
		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
		if path != logStreamRoute {
			httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		}
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}
	return unmatched
}

func metricsHandler() http.Handler {
	return promhttp.Handler()
}
