package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordersUpdateCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewACSMetrics("evoacs-test", reg)

	m.RecordCWMPMessage("Inform", 5*time.Millisecond)
	m.RecordCWMPMessage("Inform", 5*time.Millisecond)
	m.RecordSessionOpened()
	m.RecordSessionOpened()
	m.RecordSessionClosed("closed")
	m.RecordConnectionRequest("success")
	m.RecordDeviceRegistered("tr369")
	m.SetWebSocketClients(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CWMPMessagesTotal.WithLabelValues("Inform")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CWMPActiveSessions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConnectionRequests.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DevicesRegistered.WithLabelValues("tr369")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.WebSocketClients))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *ACSMetrics
	assert.NotPanics(t, func() {
		m.RecordCWMPMessage("Inform", time.Millisecond)
		m.RecordSessionOpened()
		m.RecordSessionClosed("timeout")
		m.RecordUSPMessage("GET", "mqtt")
		m.RecordUSPError("mqtt", "decode")
		m.RecordPublishError("websocket")
		m.RecordTaskTransition("completed")
	})
}
