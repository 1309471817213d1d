package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dexter939/EvoAcs-sub001/internal/connreq"
	"github.com/dexter939/EvoAcs-sub001/internal/cwmp"
	"github.com/dexter939/EvoAcs-sub001/internal/session"
	"github.com/dexter939/EvoAcs-sub001/pkg/config"
)

const sessionCookie = "TR069SessionID"

// exchange is one POST seen by the scripted ACS.
type exchange struct {
	kind   cwmp.Kind
	env    *cwmp.Envelope
	cookie string
}

// step answers one POST with a status and body.
type step func(t *testing.T, ex exchange) (int, []byte)

type scriptedACS struct {
	t     *testing.T
	mu    sync.Mutex
	steps []step
	seen  []exchange
}

func (a *scriptedACS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	env, kind, err := cwmp.Parse(raw)
	require.NoError(a.t, err)
	ex := exchange{kind: kind, env: env}
	if c, err := r.Cookie(sessionCookie); err == nil {
		ex.cookie = c.Value
	}

	a.mu.Lock()
	a.seen = append(a.seen, ex)
	if len(a.steps) == 0 {
		a.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
		return
	}
	next := a.steps[0]
	a.steps = a.steps[1:]
	a.mu.Unlock()

	if kind == cwmp.KindInform {
		http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "sess-1", Path: "/"})
	}
	status, body := next(a.t, ex)
	if body == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func reply(body []byte) step {
	return func(*testing.T, exchange) (int, []byte) { return http.StatusOK, body }
}

func newTestCPE(acsURL string) *CPE {
	return NewCPE(&config.TR069Config{
		AgentConfig: config.AgentConfig{
			OUI: "00D04F", ProductClass: "IGD", Manufacturer: "EvoACS", SerialNumber: "SIM-7",
			SoftwareVersion: "1.0.0", HardwareVersion: "1.0",
		},
		ACSURL:               acsURL,
		ConnectionRequestURL: "http://127.0.0.1:7548/cr",
	}, zerolog.Nop())
}

func eventsOf(env *cwmp.Envelope) []string {
	var out []string
	for _, e := range env.Body.Inform.Event {
		out = append(out, e.EventCode)
	}
	return out
}

func TestSessionRunsRPCsAndReportsTransferComplete(t *testing.T) {
	acs := &scriptedACS{t: t}
	acs.steps = []step{
		func(t *testing.T, ex exchange) (int, []byte) {
			require.Equal(t, cwmp.KindInform, ex.kind)
			assert.Equal(t, "SIM-7", ex.env.Body.Inform.DeviceId.SerialNumber)
			assert.Equal(t, []string{EventBootstrap, EventBoot}, eventsOf(ex.env))
			return http.StatusOK, cwmp.RenderInformResponse("1")
		},
		func(t *testing.T, ex exchange) (int, []byte) {
			assert.Equal(t, cwmp.KindEmpty, ex.kind)
			assert.Equal(t, "sess-1", ex.cookie)
			return http.StatusOK, cwmp.RenderGetParameterValues("gpv-1", []string{"Device.DeviceInfo.SerialNumber", "Device.WiFi."})
		},
		func(t *testing.T, ex exchange) (int, []byte) {
			require.Equal(t, cwmp.KindGetParameterValuesResponse, ex.kind)
			assert.Equal(t, "gpv-1", ex.env.Header.ID)
			params := ex.env.Body.GetParameterValuesResponse.ParameterList
			require.Len(t, params, 3)
			assert.Equal(t, "Device.DeviceInfo.SerialNumber", params[0].Name)
			assert.Equal(t, "SIM-7", params[0].Value.Value)
			assert.Equal(t, "xsd:string", params[0].Value.Type)
			return http.StatusOK, cwmp.RenderSetParameterValues("spv-1",
				[]session.ParameterValue{{Name: "Device.WiFi.Radio.1.Channel", Value: "11"}}, "key-1")
		},
		func(t *testing.T, ex exchange) (int, []byte) {
			require.Equal(t, cwmp.KindSetParameterValuesResponse, ex.kind)
			assert.Equal(t, 0, ex.env.Body.SetParameterValuesResponse.Status)
			return http.StatusOK, cwmp.RenderDownload("dl-1", "fw-42", session.DownloadArgs{
				FileType: "1 Firmware Upgrade Image",
				URL:      "http://files.example/fw.bin",
			})
		},
		func(t *testing.T, ex exchange) (int, []byte) {
			require.Equal(t, cwmp.KindDownloadResponse, ex.kind)
			assert.Equal(t, 1, ex.env.Body.DownloadResponse.Status)
			return http.StatusNoContent, nil
		},
		func(t *testing.T, ex exchange) (int, []byte) {
			require.Equal(t, cwmp.KindInform, ex.kind)
			assert.Equal(t, []string{EventTransferComplete, EventMDownload}, eventsOf(ex.env))
			assert.Equal(t, "fw-42", ex.env.Body.Inform.Event[1].CommandKey)
			return http.StatusOK, cwmp.RenderInformResponse("1")
		},
		func(t *testing.T, ex exchange) (int, []byte) {
			require.Equal(t, cwmp.KindTransferComplete, ex.kind)
			assert.Equal(t, "fw-42", ex.env.Body.TransferComplete.CommandKey)
			assert.Equal(t, 0, ex.env.Body.TransferComplete.FaultStruct.FaultCode)
			return http.StatusOK, cwmp.RenderTransferCompleteResponse("2")
		},
	}
	srv := httptest.NewServer(acs)
	defer srv.Close()

	cpe := newTestCPE(srv.URL)
	require.NoError(t, cpe.Session(context.Background(), EventBootstrap, EventBoot))

	assert.Empty(t, acs.steps)
	assert.Len(t, acs.seen, 8)
	assert.Equal(t, cwmp.KindEmpty, acs.seen[7].kind)

	params, missing := cpe.get([]string{"Device.WiFi.Radio.1.Channel", "Device.ManagementServer.ParameterKey"})
	assert.Empty(t, missing)
	assert.Equal(t, "11", params[0].Value.Value)
	assert.Equal(t, "key-1", params[1].Value.Value)
}

func TestRebootStartsBootSession(t *testing.T) {
	acs := &scriptedACS{t: t}
	acs.steps = []step{
		reply(cwmp.RenderInformResponse("1")),
		reply(cwmp.RenderReboot("rb-1", "reboot-now")),
		func(t *testing.T, ex exchange) (int, []byte) {
			require.Equal(t, cwmp.KindRebootResponse, ex.kind)
			return http.StatusNoContent, nil
		},
		func(t *testing.T, ex exchange) (int, []byte) {
			require.Equal(t, cwmp.KindInform, ex.kind)
			assert.Equal(t, []string{EventBoot, EventMReboot}, eventsOf(ex.env))
			assert.Equal(t, "reboot-now", ex.env.Body.Inform.Event[1].CommandKey)
			return http.StatusOK, cwmp.RenderInformResponse("1")
		},
	}
	srv := httptest.NewServer(acs)
	defer srv.Close()

	require.NoError(t, newTestCPE(srv.URL).Session(context.Background(), EventPeriodic))
	assert.Len(t, acs.seen, 5)
}

func TestUnknownParameterIsFaulted(t *testing.T) {
	acs := &scriptedACS{t: t}
	acs.steps = []step{
		reply(cwmp.RenderInformResponse("1")),
		reply(cwmp.RenderGetParameterValues("gpv-9", []string{"Device.Nope."})),
		func(t *testing.T, ex exchange) (int, []byte) {
			require.Equal(t, cwmp.KindFault, ex.kind)
			assert.Equal(t, faultInvalidName, ex.env.Body.Fault.Detail.CWMPFault.FaultCode)
			return http.StatusNoContent, nil
		},
	}
	srv := httptest.NewServer(acs)
	defer srv.Close()

	require.NoError(t, newTestCPE(srv.URL).Session(context.Background(), EventConnectionRequest))
}

func TestSessionFailsWithoutInformResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write(cwmp.RenderFault("", cwmp.FaultInternalError, "boom"))
	}))
	defer srv.Close()

	err := newTestCPE(srv.URL).Session(context.Background(), EventPeriodic)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestConnectionRequestRequiresDigest(t *testing.T) {
	var woken int32
	h := NewConnectionRequestHandler("acs", "secret", "EvoACS CPE", func() { atomic.AddInt32(&woken, 1) }, zerolog.Nop())
	srv := httptest.NewServer(h)
	defer srv.Close()

	client := connreq.NewClient(connreq.Config{Timeout: 2 * time.Second, Logger: zerolog.Nop()})
	res, err := client.Request(context.Background(), connreq.Target{URL: srv.URL + "/cr", Username: "acs", Password: "secret", AuthMethod: "digest"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, int32(1), atomic.LoadInt32(&woken))

	_, err = client.Request(context.Background(), connreq.Target{URL: srv.URL + "/cr", Username: "acs", Password: "wrong", AuthMethod: "digest"})
	assert.ErrorIs(t, err, connreq.ErrUnauthorized)
	assert.Equal(t, int32(1), atomic.LoadInt32(&woken))

	resp, err := http.Get(srv.URL + "/cr")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("WWW-Authenticate"), `realm="EvoACS CPE"`)
}

func TestWakeCoalesces(t *testing.T) {
	cpe := newTestCPE("http://127.0.0.1:1")
	cpe.Wake()
	cpe.Wake()
	assert.Len(t, cpe.wake, 1)
}
