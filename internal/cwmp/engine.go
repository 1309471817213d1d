package cwmp

import (
	"context"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/dexter939/EvoAcs-sub001/internal/session"
	"github.com/dexter939/EvoAcs-sub001/internal/store"
	"github.com/dexter939/EvoAcs-sub001/pkg/metrics"
)

// DeviceStore resolves Inform DeviceIds to devices.
type DeviceStore interface {
	FindOrCreateTR069(ctx context.Context, id store.DeviceIdentity, remoteIP string) (*store.Device, bool, error)
	UpdateConnectionRequest(ctx context.Context, id uint, url, username, password string) error
	UpdateSoftwareVersion(ctx context.Context, id uint, version string) error
}

// ParameterStore persists parameter values reported by CPEs.
type ParameterStore interface {
	Upsert(ctx context.Context, deviceID uint, params []store.Parameter) error
}

// TaskSource feeds provisioning tasks to sessions and records their outcome.
type TaskSource interface {
	// Next returns the oldest pending task of a device as a command, already marked processing.
	Next(ctx context.Context, deviceID uint) (session.Command, bool, error)
	// MarkSent marks the task behind a session-queued command as processing.
	MarkSent(ctx context.Context, cmd session.Command) error
	Complete(ctx context.Context, taskID string, result interface{}) error
	Fail(ctx context.Context, taskID string, result interface{}) error
	// FindTransfer returns the processing download task matching commandKey, or "".
	FindTransfer(ctx context.Context, deviceID uint, commandKey string) (string, error)
}

// EventSink is told about every accepted Inform.
type EventSink interface {
	DeviceInformed(ctx context.Context, dev *store.Device, created bool, events []string)
}

// Config wires an Engine.
type Config struct {
	Sessions   *session.Manager
	Devices    DeviceStore
	Parameters ParameterStore
	Tasks      TaskSource
	Events     EventSink
	Logger     zerolog.Logger
	Metrics    *metrics.ACSMetrics
}

// Engine drives CWMP sessions: InformResponse on Inform, then one queued RPC
// per following POST until nothing is left and the session is closed.
type Engine struct {
	sessions *session.Manager
	devices  DeviceStore
	params   ParameterStore
	tasks    TaskSource
	events   EventSink
	log      zerolog.Logger
	metrics  *metrics.ACSMetrics
}

// NewEngine creates an engine.
func NewEngine(cfg Config) *Engine {
	return &Engine{
		sessions: cfg.Sessions,
		devices:  cfg.Devices,
		params:   cfg.Parameters,
		tasks:    cfg.Tasks,
		events:   cfg.Events,
		log:      cfg.Logger,
		metrics:  cfg.Metrics,
	}
}

// Request is one inbound CWMP POST.
type Request struct {
	Body     []byte
	Cookie   string
	RemoteIP string
}

// Response is what the HTTP layer writes back.
// A 204 with no body ends the CWMP session.
type Response struct {
	Status       int
	Body         []byte
	SessionToken string
	Kind         Kind
}

// Handle processes one POST. The returned error is non-nil only for undecodable
// bodies, which get a 400 response and cause no state change.
func (e *Engine) Handle(ctx context.Context, req Request) (*Response, error) {
	env, kind, err := Parse(req.Body)
	if err != nil {
		e.log.Warn().Err(err).Str("remote_ip", req.RemoteIP).Msg("⚠️ Malformed CWMP request")
		return &Response{Status: http.StatusBadRequest, Kind: KindUnknown}, err
	}
	if kind == KindInform {
		return e.handleInform(ctx, env, req), nil
	}

	s, err := e.sessions.FindByCookie(req.Cookie)
	if err != nil {
		e.log.Warn().Err(err).Str("kind", string(kind)).Str("remote_ip", req.RemoteIP).Msg("⚠️ CWMP request without active session")
		return e.fault(env.Header.ID, FaultRetryRequest, "no active session, send Inform first", kind), nil
	}

	unlock := e.sessions.LockDevice(s.DeviceID())
	defer unlock()
	e.sessions.Touch(s)

	b := &env.Body
	switch kind {
	case KindGetParameterValuesResponse:
		e.onGetParameterValuesResponse(ctx, s, b.GetParameterValuesResponse)
	case KindSetParameterValuesResponse:
		e.onSetParameterValuesResponse(ctx, s, b.SetParameterValuesResponse)
	case KindRebootResponse:
		e.onRebootResponse(ctx, s)
	case KindDownloadResponse:
		e.onDownloadResponse(ctx, s, b.DownloadResponse)
	case KindFault:
		e.onFault(ctx, s, b.Fault)
	case KindTransferComplete:
		e.onTransferComplete(ctx, s, b.TransferComplete)
		return e.reply(s, kind, RenderTransferCompleteResponse(e.echoID(s, env.Header.ID))), nil
	case KindGetRPCMethods:
		return e.reply(s, kind, RenderGetRPCMethodsResponse(e.echoID(s, env.Header.ID), ACSMethods)), nil
	case KindUnknown:
		e.log.Warn().Str("element", env.UnknownElement()).Uint("device_id", s.DeviceID()).Msg("⚠️ Unsupported CWMP method")
		resp := e.fault(env.Header.ID, FaultMethodNotSupported, "method not supported: "+env.UnknownElement(), kind)
		resp.SessionToken = s.Token()
		return resp, nil
	}
	return e.next(ctx, s, kind), nil
}

func (e *Engine) handleInform(ctx context.Context, env *Envelope, req Request) *Response {
	inf := env.Body.Inform
	details, err := parseInform(inf)
	if err != nil {
		e.log.Warn().Err(err).Str("remote_ip", req.RemoteIP).Msg("⚠️ Invalid Inform DeviceId")
		return e.fault(env.Header.ID, FaultInvalidArguments, err.Error(), KindInform)
	}

	e.log.Info().
		Str("serial", details.identity.SerialNumber).
		Str("oui", details.identity.OUI).
		Str("product_class", details.identity.ProductClass).
		Strs("events", details.events).
		Str("reason", details.reason()).
		Int("parameters", len(details.params)).
		Msg("📥 CWMP Inform received")

	dev, created, err := e.devices.FindOrCreateTR069(ctx, details.identity, req.RemoteIP)
	if err != nil {
		e.log.Error().Err(err).Str("serial", details.identity.SerialNumber).Msg("❌ Device lookup failed")
		return e.fault(env.Header.ID, FaultInternalError, "device registration failed", KindInform)
	}
	if created {
		e.metrics.RecordDeviceRegistered("tr069")
		e.log.Info().Uint("device_id", dev.ID).Str("endpoint_id", dev.EndpointID).Msg("🆕 TR-069 device auto-registered")
	} else if details.hasEvent(EventBootstrap) {
		e.log.Warn().Uint("device_id", dev.ID).Str("endpoint_id", dev.EndpointID).Msg("🔁 Known CPE bootstrapped, configuration may have been reset")
	}
	if details.hasEvent(EventConnectionReq) {
		e.metrics.RecordConnectionRequest("answered")
	}

	unlock := e.sessions.LockDevice(dev.ID)
	defer unlock()

	if len(details.params) > 0 {
		if err := e.params.Upsert(ctx, dev.ID, details.params); err != nil {
			e.log.Error().Err(err).Uint("device_id", dev.ID).Msg("❌ Inform parameters not stored")
		}
		for _, p := range details.params {
			if isKeyParameter(p.Path) {
				e.log.Debug().Str("path", p.Path).Str("value", p.Value).Msg("📋 Inform parameter")
			}
		}
	}
	if details.connectionRequestURL != "" && details.connectionRequestURL != dev.ConnectionRequestURL {
		if err := e.devices.UpdateConnectionRequest(ctx, dev.ID, details.connectionRequestURL, "", ""); err != nil {
			e.log.Warn().Err(err).Uint("device_id", dev.ID).Msg("⚠️ Connection request URL not stored")
		}
	}
	if details.softwareVersion != "" && details.softwareVersion != dev.SoftwareVersion {
		if err := e.devices.UpdateSoftwareVersion(ctx, dev.ID, details.softwareVersion); err != nil {
			e.log.Warn().Err(err).Uint("device_id", dev.ID).Msg("⚠️ Software version not stored")
		}
	}

	s, err := e.sessions.FindByCookie(req.Cookie)
	if err != nil || s.DeviceID() != dev.ID {
		s = e.sessions.Create(dev.ID, req.RemoteIP)
	} else {
		e.sessions.Touch(s)
	}

	if e.events != nil {
		e.events.DeviceInformed(ctx, dev, created, details.events)
	}
	return e.reply(s, KindInform, RenderInformResponse(e.echoID(s, env.Header.ID)))
}

func (e *Engine) onGetParameterValuesResponse(ctx context.Context, s *session.Session, r *GetParameterValuesResponse) {
	params := make([]store.Parameter, 0, len(r.ParameterList))
	values := make(map[string]string, len(r.ParameterList))
	for _, p := range r.ParameterList {
		params = append(params, store.Parameter{Path: p.Name, Value: p.Value.Value, Type: p.Value.Type})
		values[p.Name] = p.Value.Value
	}
	if err := e.params.Upsert(ctx, s.DeviceID(), params); err != nil {
		e.log.Error().Err(err).Uint("device_id", s.DeviceID()).Msg("❌ GetParameterValues result not stored")
	}

	cmd, ok := e.expect(ctx, s, session.GetParameterValues)
	if ok {
		e.complete(ctx, cmd.TaskID, map[string]interface{}{"parameters": values})
	}
}

func (e *Engine) onSetParameterValuesResponse(ctx context.Context, s *session.Session, r *SetParameterValuesResponse) {
	cmd, ok := e.expect(ctx, s, session.SetParameterValues)
	if !ok {
		return
	}
	params := make([]store.Parameter, 0, len(cmd.Values))
	for _, v := range cmd.Values {
		params = append(params, store.Parameter{Path: v.Name, Value: v.Value, Type: v.Type})
	}
	if err := e.params.Upsert(ctx, s.DeviceID(), params); err != nil {
		e.log.Error().Err(err).Uint("device_id", s.DeviceID()).Msg("❌ Applied values not stored")
	}
	e.complete(ctx, cmd.TaskID, map[string]interface{}{"status": r.Status})
}

func (e *Engine) onRebootResponse(ctx context.Context, s *session.Session) {
	if cmd, ok := e.expect(ctx, s, session.Reboot); ok {
		e.complete(ctx, cmd.TaskID, map[string]interface{}{"status": "rebooting"})
	}
}

// onDownloadResponse completes the task for Status 0; Status 1 waits for TransferComplete.
func (e *Engine) onDownloadResponse(ctx context.Context, s *session.Session, r *DownloadResponse) {
	cmd, ok := e.expect(ctx, s, session.Download)
	if !ok {
		return
	}
	if r.Status != 0 {
		e.log.Info().Str("task_id", cmd.TaskID).Str("command_key", cmd.CommandKey).Msg("⏳ Download accepted, awaiting TransferComplete")
		return
	}
	e.complete(ctx, cmd.TaskID, map[string]interface{}{
		"fault_code":    0,
		"fault_string":  "Success",
		"start_time":    r.StartTime,
		"complete_time": r.CompleteTime,
	})
}

func (e *Engine) onFault(ctx context.Context, s *session.Session, f *Fault) {
	cmd, ok := e.sessions.Acknowledge(s)
	code, text := f.Detail.CWMPFault.FaultCode, f.Detail.CWMPFault.FaultString
	e.log.Warn().Int("fault_code", code).Str("fault_string", text).Uint("device_id", s.DeviceID()).Msg("⚠️ CPE returned fault")
	if !ok {
		return
	}
	e.fail(ctx, cmd.TaskID, map[string]interface{}{
		"rpc":          string(cmd.Type),
		"fault_code":   code,
		"fault_string": text,
	})
}

func (e *Engine) onTransferComplete(ctx context.Context, s *session.Session, tc *TransferComplete) {
	if e.tasks == nil {
		return
	}
	taskID, err := e.tasks.FindTransfer(ctx, s.DeviceID(), tc.CommandKey)
	if err != nil {
		e.log.Error().Err(err).Str("command_key", tc.CommandKey).Msg("❌ TransferComplete correlation failed")
		return
	}
	if taskID == "" {
		e.log.Warn().Str("command_key", tc.CommandKey).Uint("device_id", s.DeviceID()).Msg("⚠️ TransferComplete for unknown transfer")
		return
	}

	code := tc.FaultStruct.FaultCode
	if code == 0 {
		e.complete(ctx, taskID, map[string]interface{}{
			"fault_code":    0,
			"fault_string":  "Success",
			"start_time":    tc.StartTime,
			"complete_time": tc.CompleteTime,
		})
		return
	}
	e.fail(ctx, taskID, map[string]interface{}{
		"fault_code":    code,
		"fault_string":  tc.FaultStruct.FaultString,
		"start_time":    tc.StartTime,
		"complete_time": tc.CompleteTime,
	})
}

// next sends the next queued RPC, or ends the session when nothing is queued.
func (e *Engine) next(ctx context.Context, s *session.Session, kind Kind) *Response {
	if kind == KindEmpty {
		if cmd, ok := e.sessions.Acknowledge(s); ok {
			e.log.Warn().Str("rpc", string(cmd.Type)).Str("task_id", cmd.TaskID).Uint("device_id", s.DeviceID()).Msg("⚠️ Empty POST with RPC unanswered")
			e.fail(ctx, cmd.TaskID, map[string]interface{}{"rpc": string(cmd.Type), "error": "empty POST before response"})
		}
	}
	for {
		cmd, ok := e.sessions.PopNextCommand(s)
		if ok && cmd.TaskID != "" && e.tasks != nil {
			if err := e.tasks.MarkSent(ctx, cmd); err != nil {
				e.log.Warn().Err(err).Str("task_id", cmd.TaskID).Msg("⚠️ Task not marked processing")
			}
		}
		if !ok && e.tasks != nil {
			c, found, err := e.tasks.Next(ctx, s.DeviceID())
			if err != nil {
				e.log.Error().Err(err).Uint("device_id", s.DeviceID()).Msg("❌ Task lookup failed")
			}
			if found {
				e.sessions.AddPendingCommand(s, c)
				cmd, ok = e.sessions.PopNextCommand(s)
			}
		}
		if !ok {
			e.sessions.Close(s, session.StatusClosed)
			return &Response{Status: http.StatusNoContent, Kind: kind}
		}

		id := strconv.FormatUint(e.sessions.NextMessageID(s), 10)
		body, valid := RenderCommand(id, cmd)
		if !valid {
			e.sessions.Acknowledge(s)
			e.fail(ctx, cmd.TaskID, map[string]interface{}{"error": "invalid command " + string(cmd.Type)})
			continue
		}
		e.log.Info().Str("rpc", string(cmd.Type)).Str("cwmp_id", id).Str("task_id", cmd.TaskID).Uint("device_id", s.DeviceID()).Msg("📤 CWMP RPC sent")
		return e.reply(s, kind, body)
	}
}

// expect acknowledges the in-flight command and checks it is of type want.
func (e *Engine) expect(ctx context.Context, s *session.Session, want session.CommandType) (session.Command, bool) {
	cmd, ok := e.sessions.Acknowledge(s)
	if !ok {
		e.log.Warn().Str("expected", string(want)).Uint("device_id", s.DeviceID()).Msg("⚠️ Response with no RPC in flight")
		return session.Command{}, false
	}
	if cmd.Type != want {
		e.log.Warn().Str("expected", string(cmd.Type)).Str("got", string(want)+"Response").Msg("⚠️ Response does not match RPC in flight")
		e.fail(ctx, cmd.TaskID, map[string]interface{}{"error": "unexpected " + string(want) + "Response"})
		return session.Command{}, false
	}
	return cmd, true
}

func (e *Engine) complete(ctx context.Context, taskID string, result interface{}) {
	if taskID == "" || e.tasks == nil {
		return
	}
	if err := e.tasks.Complete(ctx, taskID, result); err != nil {
		e.log.Error().Err(err).Str("task_id", taskID).Msg("❌ Task completion not stored")
		return
	}
	e.log.Info().Str("task_id", taskID).Msg("✅ Task completed")
}

func (e *Engine) fail(ctx context.Context, taskID string, result interface{}) {
	if taskID == "" || e.tasks == nil {
		return
	}
	if err := e.tasks.Fail(ctx, taskID, result); err != nil {
		e.log.Error().Err(err).Str("task_id", taskID).Msg("❌ Task failure not stored")
		return
	}
	e.log.Warn().Str("task_id", taskID).Msg("❌ Task failed")
}

// echoID returns the request cwmp:ID, or the next session id when the CPE sent none.
func (e *Engine) echoID(s *session.Session, id string) string {
	if id != "" {
		return id
	}
	return strconv.FormatUint(e.sessions.NextMessageID(s), 10)
}

func (e *Engine) reply(s *session.Session, kind Kind, body []byte) *Response {
	return &Response{Status: http.StatusOK, Body: body, SessionToken: s.Token(), Kind: kind}
}

func (e *Engine) fault(id string, code int, text string, kind Kind) *Response {
	return &Response{Status: http.StatusInternalServerError, Body: RenderFault(id, code, text), Kind: kind}
}

// queueCommand appends cmd to the active session of a device.
// It reports false when the device has no active session.
func (e *Engine) queueCommand(deviceID uint, cmd session.Command) bool {
	unlock := e.sessions.LockDevice(deviceID)
	defer unlock()
	s, ok := e.sessions.ActiveForDevice(deviceID)
	if !ok {
		return false
	}
	e.sessions.AddPendingCommand(s, cmd)
	return true
}
