package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dexter939/EvoAcs-sub001/pkg/version"
)

// ACSMetrics holds the Prometheus collectors of the protocol core.
// All Record* helpers are no-ops on a nil receiver so components can run without metrics.
type ACSMetrics struct {
	ServiceInfo *prometheus.GaugeVec

	CWMPMessagesTotal   *prometheus.CounterVec
	CWMPRequestDuration *prometheus.HistogramVec
	CWMPSessionsTotal   *prometheus.CounterVec
	CWMPActiveSessions  prometheus.Gauge

	USPMessagesTotal *prometheus.CounterVec
	USPMessageErrors *prometheus.CounterVec

	WebSocketClients prometheus.Gauge
	MTPPublishErrors *prometheus.CounterVec

	ConnectionRequests *prometheus.CounterVec
	DevicesRegistered  *prometheus.CounterVec
	TaskTransitions    *prometheus.CounterVec
}

// NewACSMetrics creates the collectors and registers them on reg.
// A nil reg registers on prometheus.DefaultRegisterer.
func NewACSMetrics(serviceName string, reg prometheus.Registerer) *ACSMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &ACSMetrics{
		ServiceInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "evoacs_service_info",
				Help: "Information about the EvoACS service",
			},
			[]string{"service", "version", "cwmp_version", "usp_version"},
		),

		CWMPMessagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evoacs_cwmp_messages_total",
				Help: "Total number of CWMP messages received, by kind",
			},
			[]string{"kind"},
		),

		CWMPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "evoacs_cwmp_request_duration_seconds",
				Help:    "CWMP HTTP exchange duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),

		CWMPSessionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evoacs_cwmp_sessions_total",
				Help: "CWMP session lifecycle events",
			},
			[]string{"event"},
		),

		CWMPActiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "evoacs_cwmp_active_sessions",
				Help: "Number of active CWMP sessions",
			},
		),

		USPMessagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evoacs_usp_messages_total",
				Help: "Total number of USP messages processed",
			},
			[]string{"message_type", "transport"},
		),

		USPMessageErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evoacs_usp_message_errors_total",
				Help: "Total number of USP message errors",
			},
			[]string{"transport", "error_type"},
		),

		WebSocketClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "evoacs_websocket_clients",
				Help: "Number of handshake-complete WebSocket MTP clients",
			},
		),

		MTPPublishErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evoacs_mtp_publish_errors_total",
				Help: "Outbound USP record delivery failures",
			},
			[]string{"transport"},
		),

		ConnectionRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evoacs_connection_requests_total",
				Help: "Connection requests sent to CPEs, by outcome",
			},
			[]string{"outcome"},
		),

		DevicesRegistered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evoacs_devices_registered_total",
				Help: "Devices auto-registered on first contact",
			},
			[]string{"protocol"},
		),

		TaskTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evoacs_task_transitions_total",
				Help: "Provisioning task status transitions",
			},
			[]string{"status"},
		),
	}

	reg.MustRegister(
		m.ServiceInfo,
		m.CWMPMessagesTotal,
		m.CWMPRequestDuration,
		m.CWMPSessionsTotal,
		m.CWMPActiveSessions,
		m.USPMessagesTotal,
		m.USPMessageErrors,
		m.WebSocketClients,
		m.MTPPublishErrors,
		m.ConnectionRequests,
		m.DevicesRegistered,
		m.TaskTransitions,
	)

	m.ServiceInfo.WithLabelValues(serviceName, version.Version, version.CWMPVersion, version.USPVersion).Set(1)

	return m
}

// HTTPHandler returns the Prometheus HTTP handler for the default registry
func HTTPHandler() http.Handler {
	return promhttp.Handler()
}

// HandlerFor returns the Prometheus HTTP handler for a specific gatherer
func HandlerFor(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// RecordCWMPMessage records one CWMP exchange
func (m *ACSMetrics) RecordCWMPMessage(kind string, duration time.Duration) {
	if m == nil {
		return
	}
	m.CWMPMessagesTotal.WithLabelValues(kind).Inc()
	m.CWMPRequestDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordSessionOpened records a new CWMP session
func (m *ACSMetrics) RecordSessionOpened() {
	if m == nil {
		return
	}
	m.CWMPSessionsTotal.WithLabelValues("created").Inc()
	m.CWMPActiveSessions.Inc()
}

// RecordSessionClosed records a session leaving the active state with the given status
func (m *ACSMetrics) RecordSessionClosed(status string) {
	if m == nil {
		return
	}
	m.CWMPSessionsTotal.WithLabelValues(status).Inc()
	m.CWMPActiveSessions.Dec()
}

// RecordUSPMessage records USP message metrics
func (m *ACSMetrics) RecordUSPMessage(messageType, transport string) {
	if m == nil {
		return
	}
	m.USPMessagesTotal.WithLabelValues(messageType, transport).Inc()
}

// RecordUSPError records USP error metrics
func (m *ACSMetrics) RecordUSPError(transport, errorType string) {
	if m == nil {
		return
	}
	m.USPMessageErrors.WithLabelValues(transport, errorType).Inc()
}

// SetWebSocketClients sets the connected client gauge
func (m *ACSMetrics) SetWebSocketClients(count int) {
	if m == nil {
		return
	}
	m.WebSocketClients.Set(float64(count))
}

// RecordPublishError records an outbound delivery failure
func (m *ACSMetrics) RecordPublishError(transport string) {
	if m == nil {
		return
	}
	m.MTPPublishErrors.WithLabelValues(transport).Inc()
}

// RecordConnectionRequest records a connection-request outcome
func (m *ACSMetrics) RecordConnectionRequest(outcome string) {
	if m == nil {
		return
	}
	m.ConnectionRequests.WithLabelValues(outcome).Inc()
}

// RecordDeviceRegistered increments the auto-registration counter
func (m *ACSMetrics) RecordDeviceRegistered(protocol string) {
	if m == nil {
		return
	}
	m.DevicesRegistered.WithLabelValues(protocol).Inc()
}

// RecordTaskTransition records a provisioning task moving to status
func (m *ACSMetrics) RecordTaskTransition(status string) {
	if m == nil {
		return
	}
	m.TaskTransitions.WithLabelValues(status).Inc()
}
