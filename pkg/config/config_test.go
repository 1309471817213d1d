package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "evoacs.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadWithPathDefaults(t *testing.T) {
	cfg := LoadWithPath(filepath.Join(t.TempDir(), "missing.yml"))

	assert.Equal(t, ":7547", cfg.HTTP.Addr)
	assert.Equal(t, 30*time.Second, cfg.CWMP.SessionTimeout)
	assert.Equal(t, "TR069SessionID", cfg.CWMP.CookieName)
	assert.Equal(t, "1.3", cfg.USP.RecordVersion)
	assert.Equal(t, time.Hour, cfg.USP.PendingRequestTTL)
	assert.Equal(t, 200*time.Millisecond, cfg.WebSocket.PollInterval)
	assert.Equal(t, "/usp", cfg.WebSocket.Path)
	assert.Equal(t, "usp/agent/+/request", cfg.MQTT.SubscribeTopic)
}

func TestLoadWithPathYAML(t *testing.T) {
	path := writeYAML(t, `
cwmp:
  session_timeout: 45s
usp:
  controller_endpoint_id: "proto::ctrl"
mtp:
  websocket:
    port: 9100
database:
  driver: sqlite
  path: /tmp/acs.db
kafka:
  brokers: [k1:9092, k2:9092]
`)
	cfg := LoadWithPath(path)

	assert.Equal(t, 45*time.Second, cfg.CWMP.SessionTimeout)
	assert.Equal(t, "proto::ctrl", cfg.USP.ControllerEndpointID)
	assert.Equal(t, 9100, cfg.WebSocket.Port)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "/tmp/acs.db", cfg.GetDSN())
	assert.Equal(t, "usp/agent/+/request", cfg.MQTT.SubscribeTopic)
	require.NoError(t, cfg.Validate())
}

func TestEnvOverridesYAML(t *testing.T) {
	path := writeYAML(t, `
cwmp:
  session_timeout: 45s
mtp:
  websocket:
    port: 9100
`)
	t.Setenv("CWMP_SESSION_TIMEOUT", "10s")
	t.Setenv("MTP_WEBSOCKET_PORT", "9200")
	t.Setenv("KAFKA_BROKERS", "a:1, b:2")

	cfg := LoadWithPath(path)

	assert.Equal(t, 10*time.Second, cfg.CWMP.SessionTimeout)
	assert.Equal(t, 9200, cfg.WebSocket.Port)
	assert.Equal(t, []string{"a:1", "b:2"}, cfg.Kafka.Brokers)
}

func TestValidate(t *testing.T) {
	cfg := LoadWithPath(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, cfg.Validate())

	cfg.Database.Driver = "oracle"
	assert.Error(t, cfg.Validate())

	cfg.Database.Driver = "postgres"
	cfg.WebSocket.QueueBackend = "redis"
	assert.Error(t, cfg.Validate())

	cfg.WebSocket.QueueBackend = "memory"
	cfg.CWMP.AuthEnabled = true
	cfg.CWMP.Password = ""
	assert.Error(t, cfg.Validate())
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("EVOACS_TEST_VALUE=from-dotenv\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("EVOACS_TEST_VALUE") })

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "from-dotenv", os.Getenv("EVOACS_TEST_VALUE"))

	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "absent.env")))
}
