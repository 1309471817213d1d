package usp

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dexter939/EvoAcs-sub001/pkg/metrics"
)

// MTP names recorded on devices and in metrics.
const (
	MTPMQTT      = "mqtt"
	MTPWebSocket = "websocket"
	MTPHTTP      = "http"
)

// RebootCommand is handled by the controller itself.
const RebootCommand = "Device.Reboot()"

// ErrNoSender is returned for a message-carrying record with an empty from_id; no reply can be addressed.
var ErrNoSender = errors.New("usp: record has no from_id")

// ErrCodePathNotFound is returned in GET results for unknown exact paths.
const ErrCodePathNotFound uint32 = 7026

// DeviceRegistry resolves USP endpoint ids to device ids.
type DeviceRegistry interface {
	// FindOrCreateUSP returns the device for endpointID, creating it atomically when absent.
	// Existing devices are marked online with a fresh last-contact time.
	FindOrCreateUSP(ctx context.Context, endpointID, mtp string) (deviceID uint, created bool, err error)
}

// ParameterStore reads and writes device parameter values by full path.
type ParameterStore interface {
	// GetParameters returns values for exact paths and every parameter below partial paths ending in ".".
	GetParameters(ctx context.Context, deviceID uint, paths []string) (map[string]string, error)
	SetParameters(ctx context.Context, deviceID uint, values map[string]string) error
}

// CommandHandler executes an OPERATE command and returns its output arguments.
type CommandHandler func(ctx context.Context, deviceID uint, op *Operate) (map[string]string, error)

// ResponseHandler receives responses and errors sent by agents for controller-initiated requests.
type ResponseHandler func(ctx context.Context, deviceID uint, endpointID string, msg *Msg)

// RegistrationHandler is told about agents registered on first contact.
type RegistrationHandler func(ctx context.Context, deviceID uint, endpointID, mtp string)

// ProcessorConfig configures a Processor.
type ProcessorConfig struct {
	Version      string
	Logger       zerolog.Logger
	Metrics      *metrics.ACSMetrics
	OnResponse   ResponseHandler
	OnRegistered RegistrationHandler
}

// Processor is the transport-independent USP message routine shared by all MTPs.
type Processor struct {
	devices    DeviceRegistry
	params     ParameterStore
	version    string
	log        zerolog.Logger
	metrics    *metrics.ACSMetrics
	onResponse ResponseHandler
	onRegister RegistrationHandler
	parser     *Parser

	mu       sync.RWMutex
	commands map[string]CommandHandler
}

// NewProcessor creates a Processor over the device and parameter collaborators.
func NewProcessor(devices DeviceRegistry, params ParameterStore, cfg ProcessorConfig) *Processor {
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}
	return &Processor{
		devices:    devices,
		params:     params,
		version:    cfg.Version,
		log:        cfg.Logger,
		metrics:    cfg.Metrics,
		onResponse: cfg.OnResponse,
		onRegister: cfg.OnRegistered,
		parser:     NewParser(),
		commands:   make(map[string]CommandHandler),
	}
}

// RegisterCommand installs a handler for an OPERATE command path such as "Device.WiFi.Radio.1.Reset()".
func (p *Processor) RegisterCommand(command string, h CommandHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.commands[command] = h
}

// Process decodes an inbound record, applies it and returns the serialized response record.
// A nil response with a nil error means the record needs no reply.
// Panics raised while handling are recovered and reported as errors.
func (p *Processor) Process(ctx context.Context, raw []byte, mtp string) (resp []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Interface("panic", r).Str("mtp", mtp).Msg("❌ USP processing panic recovered")
			p.metrics.RecordUSPError(mtp, "panic")
			resp, err = nil, fmt.Errorf("usp: processing panic: %v", r)
		}
	}()

	parsed, err := p.parser.Parse(raw)
	if parsed == nil {
		p.metrics.RecordUSPError(mtp, "decode")
		return nil, err
	}
	rec := parsed.Record

	if !rec.CarriesMsg() {
		p.log.Debug().Str("from", rec.FromID).Str("record_type", rec.Type.String()).Str("mtp", mtp).Msg("USP connect/disconnect record")
		return nil, nil
	}
	if rec.FromID == "" {
		p.metrics.RecordUSPError(mtp, "no_sender")
		p.log.Warn().Str("to", rec.ToID).Str("mtp", mtp).Msg("⚠️ Dropping USP record without from_id")
		return nil, ErrNoSender
	}
	if err != nil {
		p.metrics.RecordUSPError(mtp, "decode")
		p.log.Warn().Err(err).Str("from", rec.FromID).Msg("⚠️ Undecodable USP message payload")
		return p.reply(rec, NewError("", ErrCodeMessageFailed, "message could not be decoded: "+err.Error()))
	}
	for _, w := range parsed.Warnings {
		p.log.Debug().Str("from", rec.FromID).Str("warning", w).Msg("USP validation warning")
	}
	msg := parsed.Message

	p.metrics.RecordUSPMessage(MessageType(msg).String(), mtp)

	deviceID, created, err := p.devices.FindOrCreateUSP(ctx, rec.FromID, mtp)
	if err != nil {
		p.log.Error().Err(err).Str("endpoint_id", rec.FromID).Msg("❌ Device resolution failed")
		return p.reply(rec, NewError(msg.Header.MsgID, ErrCodeInternalError, "device resolution failed"))
	}
	if created {
		p.metrics.RecordDeviceRegistered("tr369")
		p.log.Info().Str("endpoint_id", rec.FromID).Uint("device_id", deviceID).Str("mtp", mtp).Msg("🆕 USP device auto-registered")
		if p.onRegister != nil {
			p.onRegister(ctx, deviceID, rec.FromID, mtp)
		}
	}

	out := p.Dispatch(ctx, deviceID, rec.FromID, msg)
	if out == nil {
		return nil, nil
	}
	return p.reply(rec, out)
}

// reply addresses the response back to the sender of rec.
func (p *Processor) reply(rec *Record, msg *Msg) ([]byte, error) {
	return SerializeMsgInRecord(msg, rec.FromID, rec.ToID, p.version)
}

// Dispatch produces the response for msg, or nil when none is due.
// Failures are reported as USP Error messages, never as Go errors.
func (p *Processor) Dispatch(ctx context.Context, deviceID uint, endpointID string, msg *Msg) *Msg {
	id := msg.Header.MsgID

	switch body := msg.Body.(type) {
	case *Get:
		return p.handleGet(ctx, deviceID, id, body)
	case *Set:
		return p.handleSet(ctx, deviceID, id, body)
	case *Operate:
		return p.handleOperate(ctx, deviceID, id, body)
	case *Add:
		resp := &AddResp{}
		for _, obj := range body.CreateObjs {
			resp.CreatedObjResults = append(resp.CreatedObjResults, CreatedObjectResult{RequestedPath: obj.ObjPath})
		}
		return newMsg(id, resp)
	case *Delete:
		resp := &DeleteResp{}
		for _, path := range body.ObjPaths {
			resp.DeletedObjResults = append(resp.DeletedObjResults, DeletedObjectResult{RequestedPath: path})
		}
		return newMsg(id, resp)
	case *Notify:
		return p.handleNotify(ctx, deviceID, endpointID, id, body)
	case *GetResp, *SetResp, *OperateResp, *AddResp, *DeleteResp, *Error:
		if p.onResponse != nil {
			p.onResponse(ctx, deviceID, endpointID, msg)
		}
		return nil
	default:
		p.log.Warn().Str("endpoint_id", endpointID).Str("msg_type", MessageType(msg).String()).Msg("⚠️ Unsupported USP message type")
		return NewError(id, ErrCodeUnsupported, fmt.Sprintf("unsupported message type %s", MessageType(msg)))
	}
}

func (p *Processor) handleGet(ctx context.Context, deviceID uint, id string, get *Get) *Msg {
	values, err := p.params.GetParameters(ctx, deviceID, get.ParamPaths)
	if err != nil {
		p.log.Error().Err(err).Uint("device_id", deviceID).Msg("❌ Parameter read failed")
		return NewError(id, ErrCodeInternalError, "parameter read failed")
	}

	resp := &GetResp{}
	for _, requested := range get.ParamPaths {
		rp := RequestedPathResult{RequestedPath: requested}
		matched := make(map[string]string)
		for path, value := range values {
			if path == requested || (IsPartialPath(requested) && strings.HasPrefix(path, requested)) {
				matched[path] = value
			}
		}
		if len(matched) == 0 && !IsPartialPath(requested) {
			rp.ErrCode = ErrCodePathNotFound
			rp.ErrMsg = "invalid path: " + requested
		}
		grouped := GroupParamPaths(matched)
		for _, obj := range sortedKeys(grouped) {
			rp.ResolvedPathResults = append(rp.ResolvedPathResults, ResolvedPathResult{
				ResolvedPath: obj,
				ResultParams: grouped[obj],
			})
		}
		resp.ReqPathResults = append(resp.ReqPathResults, rp)
	}
	return newMsg(id, resp)
}

func (p *Processor) handleSet(ctx context.Context, deviceID uint, id string, set *Set) *Msg {
	grouped := make(map[string]map[string]string)
	for _, obj := range set.UpdateObjs {
		if grouped[obj.ObjPath] == nil {
			grouped[obj.ObjPath] = make(map[string]string)
		}
		for _, ps := range obj.ParamSettings {
			grouped[obj.ObjPath][ps.Param] = ps.Value
		}
	}

	if err := p.params.SetParameters(ctx, deviceID, FlattenParams(grouped)); err != nil {
		p.log.Error().Err(err).Uint("device_id", deviceID).Msg("❌ Parameter write failed")
		return NewError(id, ErrCodeInternalError, "parameter write failed")
	}
	return NewSetResp(id, grouped)
}

func (p *Processor) handleOperate(ctx context.Context, deviceID uint, id string, op *Operate) *Msg {
	if op.Command == RebootCommand {
		p.log.Info().Uint("device_id", deviceID).Msg("🔄 Device.Reboot() requested")
		return NewOperateResp(id, op.Command, map[string]string{
			"status":   "success",
			"executed": "true",
		})
	}

	p.mu.RLock()
	h, ok := p.commands[op.Command]
	p.mu.RUnlock()
	if !ok {
		return NewOperateFailure(id, op.Command, ErrCodeCommandFailure, "command not implemented: "+op.Command)
	}

	out, err := h(ctx, deviceID, op)
	if err != nil {
		var uspErr *Error
		if errors.As(err, &uspErr) {
			return NewOperateFailure(id, op.Command, uspErr.ErrCode, uspErr.ErrMsg)
		}
		return NewOperateFailure(id, op.Command, ErrCodeCommandFailure, err.Error())
	}
	return NewOperateResp(id, op.Command, out)
}

func (p *Processor) handleNotify(ctx context.Context, deviceID uint, endpointID, id string, n *Notify) *Msg {
	switch {
	case n.OnBoardReq != nil:
		p.log.Info().
			Str("endpoint_id", endpointID).
			Str("oui", n.OnBoardReq.OUI).
			Str("product_class", n.OnBoardReq.ProductClass).
			Str("serial", n.OnBoardReq.SerialNumber).
			Msg("📋 USP OnBoardRequest")
	case n.ValueChange != nil:
		err := p.params.SetParameters(ctx, deviceID, map[string]string{n.ValueChange.ParamPath: n.ValueChange.ParamValue})
		if err != nil {
			p.log.Error().Err(err).Str("path", n.ValueChange.ParamPath).Msg("❌ ValueChange not stored")
		}
	case n.Event != nil:
		p.log.Info().Str("endpoint_id", endpointID).Str("event", n.Event.ObjPath+n.Event.EventName).Msg("📣 USP Event notification")
	}

	if !n.SendResp {
		return nil
	}
	return NewNotifyResp(id, n.SubscriptionID)
}

// DeriveSerial builds the serial number given to auto-registered USP devices.
func DeriveSerial(endpointID string, at time.Time) string {
	sum := sha256.Sum256([]byte(endpointID + strconv.FormatInt(at.UnixNano(), 10)))
	return "USP-" + strings.ToUpper(hex.EncodeToString(sum[:])[:12])
}
