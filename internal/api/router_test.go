package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dexter939/EvoAcs-sub001/internal/connreq"
	"github.com/dexter939/EvoAcs-sub001/internal/mtp"
	"github.com/dexter939/EvoAcs-sub001/internal/store"
	"github.com/dexter939/EvoAcs-sub001/pkg/redis"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeProcessor struct {
	resp []byte
	err  error
	got  []byte
	mtp  string
}

func (f *fakeProcessor) Process(_ context.Context, raw []byte, mtp string) ([]byte, error) {
	f.got, f.mtp = raw, mtp
	return f.resp, f.err
}

type fakeRequester struct {
	err error
}

func (f *fakeRequester) RequestDevice(_ context.Context, _ uint) (*connreq.Result, error) {
	if f.err != nil {
		return &connreq.Result{Attempts: 2}, f.err
	}
	return &connreq.Result{Attempts: 1, StatusCode: http.StatusNoContent}, nil
}

type fakeWaker struct {
	woken []uint
	err   error
}

func (f *fakeWaker) Wake(_ context.Context, id uint) error {
	f.woken = append(f.woken, id)
	return f.err
}

type fakeAgents struct{ mtp string }

func (f *fakeAgents) List(_ context.Context, mtp string) ([]*redis.AgentConnection, error) {
	f.mtp = mtp
	return []*redis.AgentConnection{{EndpointID: "proto::a", MTPProtocol: "websocket", Status: "connected"}}, nil
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type fixture struct {
	repos     *store.Repositories
	processor *fakeProcessor
	requester *fakeRequester
	waker     *fakeWaker
	agents    *fakeAgents
	poll      *mtp.PollStore
	router    *gin.Engine
}

func newFixture(t *testing.T, checks map[string]Pinger) *fixture {
	t.Helper()
	db, err := store.OpenSQLite(":memory:", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	f := &fixture{
		repos:     store.NewRepositories(db.DB),
		processor: &fakeProcessor{},
		requester: &fakeRequester{},
		waker:     &fakeWaker{},
		agents:    &fakeAgents{},
	}
	f.poll = mtp.NewPollStore(f.repos.Pending, 0, zerolog.Nop())
	f.router = NewRouter(Config{
		ServiceName: "evoacs-test",
		CWMP: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}),
		Processor: f.processor,
		Poll:      f.poll,
		Devices:   f.repos.Devices,
		Tasks:     f.repos.Tasks,
		Requester: f.requester,
		Waker:     f.waker,
		Agents:    f.agents,
		Checks:    checks,
		Gatherer:  prometheus.NewRegistry(),
		Logger:    zerolog.Nop(),
	})
	return f
}

func (f *fixture) do(method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) device(t *testing.T) *store.Device {
	t.Helper()
	dev, _, err := f.repos.Devices.FindOrCreateTR069(context.Background(),
		store.DeviceIdentity{OUI: "00259E", ProductClass: "IGD", SerialNumber: "API-1"}, "10.0.0.1")
	require.NoError(t, err)
	return dev
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	f := newFixture(t, map[string]Pinger{"database": pingFunc(func(context.Context) error { return nil })})
	rec := f.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode(t, rec)["status"])

	f = newFixture(t, map[string]Pinger{"redis": pingFunc(func(context.Context) error { return errors.New("down") })})
	rec = f.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "down", body["components"].(map[string]interface{})["redis"])
}

func TestCWMPMounted(t *testing.T) {
	f := newFixture(t, nil)
	assert.Equal(t, http.StatusNoContent, f.do(http.MethodPost, "/acs", nil).Code)
}

func TestPostRecord(t *testing.T) {
	f := newFixture(t, nil)

	f.processor.resp = []byte{0x0a, 0x03, '1', '.', '3'}
	rec := f.do(http.MethodPost, "/usp", []byte{0x01, 0x02})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, f.processor.resp, rec.Body.Bytes())
	assert.Equal(t, []byte{0x01, 0x02}, f.processor.got)
	assert.Equal(t, "http", f.processor.mtp)

	f.processor.resp = nil
	assert.Equal(t, http.StatusNoContent, f.do(http.MethodPost, "/usp", []byte{0x01}).Code)

	f.processor.err = errors.New("usp: decode error")
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/usp", []byte{0xff}).Code)
}

func TestPollDeliversOnce(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.poll.Enqueue(context.Background(), "proto::poller", "msg-1", []byte{0xAA, 0xBB}))

	rec := f.do(http.MethodGet, "/usp/poll/proto::poller", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Records []polledRecord `json:"records"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Records, 1)
	assert.Equal(t, "msg-1", body.Records[0].MessageID)
	assert.Equal(t, []byte{0xAA, 0xBB}, body.Records[0].Record)

	require.NoError(t, json.Unmarshal(f.do(http.MethodGet, "/usp/poll/proto::poller", nil).Body.Bytes(), &body))
	assert.Empty(t, body.Records)
}

func TestDevices(t *testing.T) {
	f := newFixture(t, nil)
	dev := f.device(t)

	rec := f.do(http.MethodGet, "/api/devices", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["total"])

	rec = f.do(http.MethodGet, "/api/devices/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, dev.EndpointID, decode(t, rec)["endpoint_id"])

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/devices/42", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/devices/abc", nil).Code)
}

func TestConnectionRequestStatusMapping(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodPost, "/api/devices/1/connection-request", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["attempts"])

	cases := map[error]int{
		connreq.ErrNoURL:         http.StatusConflict,
		connreq.ErrDeviceOffline: http.StatusConflict,
		connreq.ErrNetwork:       http.StatusGatewayTimeout,
		connreq.ErrUnauthorized:  http.StatusBadGateway,
		store.ErrNotFound:        http.StatusNotFound,
	}
	for err, want := range cases {
		f.requester.err = err
		assert.Equal(t, want, f.do(http.MethodPost, "/api/devices/1/connection-request", nil).Code, err.Error())
	}
}

func TestCreateTaskWakesDevice(t *testing.T) {
	f := newFixture(t, nil)
	dev := f.device(t)

	body := []byte(`{"type":"get_parameters","data":{"parameters":["Device.DeviceInfo."]}}`)
	rec := f.do(http.MethodPost, "/api/devices/1/tasks", body)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, true, decode(t, rec)["woken"])
	assert.Equal(t, []uint{dev.ID}, f.waker.woken)

	list, err := f.repos.Tasks.ListByDevice(context.Background(), dev.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, store.TaskPending, list[0].Status)

	f.waker.err = connreq.ErrNoURL
	rec = f.do(http.MethodPost, "/api/devices/1/tasks", []byte(`{"type":"reboot"}`))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, false, decode(t, rec)["woken"])

	rec = f.do(http.MethodGet, "/api/devices/1/tasks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decode(t, rec)["count"])
}

func TestCreateTaskRejectsBadInput(t *testing.T) {
	f := newFixture(t, nil)
	f.device(t)

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/devices/1/tasks", []byte(`{"type":"format_disk"}`)).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/devices/1/tasks", []byte(`{`)).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodPost, "/api/devices/9/tasks", []byte(`{"type":"reboot"}`)).Code)
	assert.Empty(t, f.waker.woken)
}

func TestListAgents(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(http.MethodGet, "/api/agents?mtp=websocket", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["count"])
	assert.Equal(t, "websocket", f.agents.mtp)
}
