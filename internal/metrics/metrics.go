// Package metrics provides Prometheus instrumentation for m3u8kit.
//
// All metrics are prefixed with "m3u8kit_" and registered with the default
// registry, which the server exposes at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch and collection metrics
var (
	FetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "m3u8kit_fetch_total",
			Help: "Total number of playlist fetches by result",
		},
		[]string{"result"},
	)

	FetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "m3u8kit_fetch_duration_seconds",
			Help:    "Playlist fetch duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	CollectTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "m3u8kit_collect_total",
			Help: "Total number of playlist collections by result",
		},
		[]string{"result"},
	)
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "m3u8kit_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "m3u8kit_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Live window metrics
var (
	PlayheadPosition = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "m3u8kit_playhead_position_seconds",
			Help: "Current playhead position of the live loop in seconds",
		},
	)

	PlayheadLoops = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "m3u8kit_playhead_loops",
			Help: "Number of times the live loop wrapped around",
		},
	)
)

// Result labels.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Result maps an error to a result label.
func Result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}
