package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the server's Prometheus collectors.
type Metrics struct {
	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	estimates *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "perfutils",
			Name:      "http_requests_total",
			Help:      "Number of HTTP requests partitioned by status code, method and route.",
		}, []string{"code", "method", "route"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "perfutils",
			Name:      "http_request_duration_seconds",
			Help:      "Time spent on the request partitioned by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		estimates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "perfutils",
			Name:      "estimates_total",
			Help:      "Formula evaluations partitioned by formula, operation and result.",
		}, []string{"formula", "op", "result"}),
	}
	reg.MustRegister(m.requests, m.latency, m.estimates)
	return m
}

// Handler records request count and latency per chi route pattern.
func (m *Metrics) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		m.requests.WithLabelValues(strconv.Itoa(ww.Status()), r.Method, route).Inc()
		m.latency.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// observe counts one formula evaluation.
func (m *Metrics) observe(formulaName, op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.estimates.WithLabelValues(formulaName, op, result).Inc()
}
