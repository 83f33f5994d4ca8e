// Package metrics provides Prometheus metrics for the taskhub client.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the client.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	ChatMessagesTotal   *prometheus.CounterVec
	ChatConnected       prometheus.Gauge
	NotificationsTotal  *prometheus.CounterVec
	FetchSuperseded     *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskhub_http_requests_total",
				Help: "Total REST calls by method and response status (0 = no response).",
			},
			[]string{"method", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "taskhub_http_request_duration_seconds",
				Help:    "REST call duration by method.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		ChatMessagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskhub_chat_messages_total",
				Help: "Chat messages by direction (in, out, dropped).",
			},
			[]string{"direction"},
		),
		ChatConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "taskhub_chat_connected",
				Help: "1 while the chat transport is connected.",
			},
		),
		NotificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskhub_notifications_total",
				Help: "Transient notifications shown by level.",
			},
			[]string{"level"},
		),
		FetchSuperseded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskhub_fetch_superseded_total",
				Help: "Fetch responses discarded because a newer fetch was issued.",
			},
			[]string{"resource"},
		),
		registry: reg,
	}

	reg.MustRegister(m.HTTPRequestsTotal)
	reg.MustRegister(m.HTTPRequestDuration)
	reg.MustRegister(m.ChatMessagesTotal)
	reg.MustRegister(m.ChatConnected)
	reg.MustRegister(m.NotificationsTotal)
	reg.MustRegister(m.FetchSuperseded)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry (for testing).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTP records one REST call.
func (m *Metrics) RecordHTTP(method string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method).Observe(seconds)
}

// RecordChatMessage increments the chat message counter.
func (m *Metrics) RecordChatMessage(direction string) {
	if m == nil {
		return
	}
	m.ChatMessagesTotal.WithLabelValues(direction).Inc()
}

// SetChatConnected sets the chat state gauge.
func (m *Metrics) SetChatConnected(connected bool) {
	if m == nil {
		return
	}
	if connected {
		m.ChatConnected.Set(1)
		return
	}
	m.ChatConnected.Set(0)
}

// RecordNotification increments the notification counter.
func (m *Metrics) RecordNotification(level string) {
	if m == nil {
		return
	}
	m.NotificationsTotal.WithLabelValues(level).Inc()
}

// RecordSuperseded counts a discarded fetch response.
func (m *Metrics) RecordSuperseded(resource string) {
	if m == nil {
		return
	}
	m.FetchSuperseded.WithLabelValues(resource).Inc()
}
