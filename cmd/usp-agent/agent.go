package main

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dexter939/EvoAcs-sub001/internal/usp"
	"github.com/dexter939/EvoAcs-sub001/pkg/config"
)

// dataModel is the agent's flat parameter tree.
type dataModel struct {
	mu     sync.Mutex
	params map[string]string
	next   map[string]int
}

func newDataModel(cfg config.AgentConfig) *dataModel {
	return &dataModel{
		params: map[string]string{
			"Device.DeviceInfo.Manufacturer":    cfg.Manufacturer,
			"Device.DeviceInfo.ManufacturerOUI": cfg.OUI,
			"Device.DeviceInfo.ProductClass":    cfg.ProductClass,
			"Device.DeviceInfo.SerialNumber":    cfg.SerialNumber,
			"Device.DeviceInfo.SoftwareVersion": cfg.SoftwareVersion,
			"Device.DeviceInfo.HardwareVersion": cfg.HardwareVersion,
			"Device.DeviceInfo.UpTime":          "0",
			"Device.WiFi.Radio.1.Enable":        "true",
			"Device.WiFi.Radio.1.Channel":       "6",
			"Device.WiFi.SSID.1.SSID":           "EvoACS-" + cfg.SerialNumber,
		},
		next: map[string]int{},
	}
}

// get resolves exact paths and partial paths ending in ".". Unknown paths are reported back.
func (d *dataModel) get(paths []string) (map[string]string, []string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := map[string]string{}
	var missing []string
	for _, p := range paths {
		if usp.IsPartialPath(p) {
			for k, v := range d.params {
				if strings.HasPrefix(k, p) {
					out[k] = v
				}
			}
			continue
		}
		v, ok := d.params[p]
		if !ok {
			missing = append(missing, p)
			continue
		}
		out[p] = v
	}
	return out, missing
}

func (d *dataModel) set(path, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.params[path] = value
}

// add creates the next instance of a multi-instance object such as "Device.IP.Interface.".
func (d *dataModel) add(objPath string, settings []usp.ParamSetting) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	objPath = strings.TrimSuffix(objPath, ".") + "."
	d.next[objPath]++
	inst := objPath + strconv.Itoa(d.next[objPath]) + "."
	for _, s := range settings {
		d.params[inst+s.Param] = s.Value
	}
	if len(settings) == 0 {
		d.params[inst+"Enable"] = "false"
	}
	return inst
}

func (d *dataModel) remove(objPath string) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	prefix := strings.TrimSuffix(objPath, ".") + "."
	n := 0
	for k := range d.params {
		if strings.HasPrefix(k, prefix) {
			delete(d.params, k)
			n++
		}
	}
	return n
}

// Agent answers controller requests from its data model.
type Agent struct {
	endpointID   string
	controllerID string
	version      string
	model        *dataModel
	log          zerolog.Logger

	rebootMu sync.Mutex
	reboots  int
}

// NewAgent creates an agent for cfg.
func NewAgent(cfg *config.TR369Config, log zerolog.Logger) *Agent {
	return &Agent{
		endpointID:   cfg.EndpointID,
		controllerID: cfg.ControllerID,
		version:      usp.DefaultVersion,
		model:        newDataModel(cfg.AgentConfig),
		log:          log,
	}
}

// BootRecord is the Boot! event notification sent after connecting.
func (a *Agent) BootRecord() ([]byte, error) {
	msg := &usp.Msg{
		Header: usp.Header{MsgID: usp.NewMsgID(), MsgType: usp.MsgTypeNotify},
		Body: &usp.Notify{
			SubscriptionID: "boot",
			SendResp:       true,
			Event: &usp.NotifyEvent{
				ObjPath:   "Device.",
				EventName: "Boot!",
				Params: map[string]string{
					"Cause":           "LocalReboot",
					"FirmwareUpdated": "false",
				},
			},
		},
	}
	return a.wrap(msg, a.controllerID)
}

// HandleRecord applies one inbound record and returns the reply record, or nil when none is due.
func (a *Agent) HandleRecord(raw []byte) ([]byte, error) {
	rec, err := usp.UnmarshalRecord(raw)
	if err != nil {
		return nil, err
	}
	if !rec.CarriesMsg() {
		return nil, nil
	}
	msg, err := usp.UnmarshalMsg(rec.Payload)
	if err != nil {
		return a.wrap(usp.NewError("", usp.ErrCodeMessageFailed, err.Error()), rec.FromID)
	}

	resp := a.handle(msg)
	if resp == nil {
		return nil, nil
	}
	return a.wrap(resp, rec.FromID)
}

func (a *Agent) handle(msg *usp.Msg) *usp.Msg {
	id := msg.Header.MsgID
	a.log.Info().Str("msg_id", id).Str("type", usp.MessageType(msg).String()).Msg("📥 Controller message received")

	switch b := msg.Body.(type) {
	case *usp.Get:
		values, missing := a.model.get(b.ParamPaths)
		resp := usp.NewGetResp(id, values)
		body := resp.Body.(*usp.GetResp)
		for _, p := range missing {
			body.ReqPathResults = append(body.ReqPathResults, usp.RequestedPathResult{
				RequestedPath: p,
				ErrCode:       usp.ErrCodePathNotFound,
				ErrMsg:        "path not found",
			})
		}
		return resp

	case *usp.Set:
		updated := map[string]map[string]string{}
		for _, obj := range b.UpdateObjs {
			for _, s := range obj.ParamSettings {
				a.model.set(obj.ObjPath+s.Param, s.Value)
				if updated[obj.ObjPath] == nil {
					updated[obj.ObjPath] = map[string]string{}
				}
				updated[obj.ObjPath][s.Param] = s.Value
			}
		}
		return usp.NewSetResp(id, updated)

	case *usp.Add:
		if len(b.CreateObjs) == 0 {
			return usp.NewError(id, usp.ErrCodeMessageFailed, "no objects to create")
		}
		obj := b.CreateObjs[0]
		return usp.NewAddResp(id, obj.ObjPath, a.model.add(obj.ObjPath, obj.ParamSettings))

	case *usp.Delete:
		for _, p := range b.ObjPaths {
			a.model.remove(p)
		}
		return usp.NewDeleteResp(id, b.ObjPaths)

	case *usp.Operate:
		return a.operate(id, b)

	case *usp.NotifyResp, *usp.GetResp, *usp.SetResp, *usp.Error:
		return nil

	default:
		return usp.NewError(id, usp.ErrCodeUnsupported, fmt.Sprintf("unsupported message type %s", usp.MessageType(msg)))
	}
}

func (a *Agent) operate(id string, op *usp.Operate) *usp.Msg {
	switch op.Command {
	case usp.RebootCommand:
		a.rebootMu.Lock()
		a.reboots++
		a.rebootMu.Unlock()
		a.log.Info().Msg("🔄 Reboot requested")
		return usp.NewOperateResp(id, op.Command, nil)
	case "Device.DeviceInfo.FirmwareImage.1.Download()":
		a.model.set("Device.DeviceInfo.FirmwareImage.1.Name", op.InputArgs["URL"])
		return usp.NewOperateResp(id, op.Command, map[string]string{"Status": "Downloaded"})
	default:
		return usp.NewOperateFailure(id, op.Command, usp.ErrCodeCommandFailure, "command not supported")
	}
}

func (a *Agent) wrap(msg *usp.Msg, to string) ([]byte, error) {
	return usp.SerializeMsgInRecord(msg, to, a.endpointID, a.version)
}
