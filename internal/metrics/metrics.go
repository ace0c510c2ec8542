// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	ActiveRequests      prometheus.Gauge
	CheckinsTotal       *prometheus.CounterVec
	WebsocketClients    prometheus.GaugeFunc
}

// New registers all collectors on a fresh registry, so several instances
// can coexist in tests. clients reports the live websocket count.
func New(clients func() int) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),
		ActiveRequests: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_active_requests",
				Help: "Current number of active HTTP requests",
			},
		),
		CheckinsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkins_total",
				Help: "Check-in attempts by outcome",
			},
			[]string{"outcome"}, // recorded, not_started, ended, limit_reached, ...
		),
	}
	if clients != nil {
		m.WebsocketClients = f.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "websocket_clients",
				Help: "Connected live-update clients",
			},
			func() float64 { return float64(clients()) },
		)
	}
	return m
}

// TrackCheckin increments the check-in counter for an outcome.
func (m *Metrics) TrackCheckin(outcome string) {
	if m == nil {
		return
	}
	m.CheckinsTotal.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
