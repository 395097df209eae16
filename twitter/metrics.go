package main

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the server's Prometheus collectors.
type Metrics struct {
	toolCalls   *prometheus.CounterVec
	rateLimited *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
}

// NewMetrics registers the collectors on reg. A nil reg uses the default
// registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "twitter_mcp_tool_calls_total",
			Help: "Tool calls by tool name and outcome",
		}, []string{"tool", "outcome"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "twitter_mcp_rate_limited_total",
			Help: "Rate-limited calls by endpoint and source (local or remote)",
		}, []string{"endpoint", "source"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "twitter_mcp_api_request_duration_seconds",
			Help:    "Latency of Twitter API requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
	reg.MustRegister(m.toolCalls, m.rateLimited, m.apiLatency)
	return m
}

func (m *Metrics) observeCall(tool, outcome string) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, outcome).Inc()
}

func (m *Metrics) observeAPI(endpoint string, start time.Time) {
	if m == nil {
		return
	}
	m.apiLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

func (m *Metrics) observeRemoteRateLimit(endpoint string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(endpoint, "remote").Inc()
}

// startMetricsServer serves /metrics and /health on addr in the background.
// An empty addr disables it.
func startMetricsServer(addr string, gatherer prometheus.Gatherer) *http.Server {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			operatorf("metrics server: %v", err)
		}
	}()
	return srv
}
