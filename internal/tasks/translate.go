// Package tasks turns queued provisioning tasks into CWMP commands and USP
// requests and writes their outcome back to the task store.
package tasks

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/dexter939/EvoAcs-sub001/internal/session"
	"github.com/dexter939/EvoAcs-sub001/internal/store"
	"github.com/dexter939/EvoAcs-sub001/internal/usp"
)

// Task types understood by the dispatcher.
const (
	TypeGetParameters   = "get_parameters"
	TypeSetParameters   = "set_parameters"
	TypeReboot          = "reboot"
	TypeDownload        = "download"
	TypeFirmwareUpgrade = "firmware_upgrade"
	TypeOperate         = "operate"
	TypeAddObject       = "add_object"
	TypeDeleteObject    = "delete_object"
)

// FirmwareDownloadCommand is the USP command used for download tasks.
const FirmwareDownloadCommand = "Device.DeviceInfo.FirmwareImage.1.Download()"

// DefaultFirmwareFileType is the TR-069 file type of firmware images.
const DefaultFirmwareFileType = "1 Firmware Upgrade Image"

// ErrUnsupportedTask is returned for task types a protocol cannot express.
var ErrUnsupportedTask = errors.New("tasks: unsupported task type")

// taskData is the union of the task_data documents.
type taskData struct {
	// Parameters is a list of names for get_parameters, or a name->value map
	// or list of {name,value,type} for set_parameters.
	Parameters   json.RawMessage   `json:"parameters"`
	ParameterKey string            `json:"parameter_key"`
	CommandKey   string            `json:"command_key"`
	Command      string            `json:"command"`
	Args         map[string]string `json:"args"`
	ObjectPath   string            `json:"object_path"`
	ObjectPaths  []string          `json:"object_paths"`

	URL            string `json:"url"`
	FileType       string `json:"file_type"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	FileSize       uint64 `json:"file_size"`
	TargetFileName string `json:"target_file_name"`
	DelaySeconds   uint32 `json:"delay_seconds"`
}

func decodeTaskData(t *store.ProvisioningTask) (*taskData, error) {
	d := &taskData{}
	if t.TaskData == "" || t.TaskData == "null" {
		return d, nil
	}
	if err := json.Unmarshal([]byte(t.TaskData), d); err != nil {
		return nil, fmt.Errorf("task %s: invalid task_data: %w", t.ID, err)
	}
	return d, nil
}

func (d *taskData) names() ([]string, error) {
	var names []string
	if len(d.Parameters) == 0 {
		return nil, errors.New("parameters are required")
	}
	if err := json.Unmarshal(d.Parameters, &names); err != nil {
		return nil, fmt.Errorf("parameters must be a list of names: %w", err)
	}
	if len(names) == 0 {
		return nil, errors.New("parameters are required")
	}
	return names, nil
}

func (d *taskData) values() ([]session.ParameterValue, error) {
	if len(d.Parameters) == 0 {
		return nil, errors.New("parameters are required")
	}
	var list []session.ParameterValue
	if err := json.Unmarshal(d.Parameters, &list); err == nil {
		if len(list) == 0 {
			return nil, errors.New("parameters are required")
		}
		return list, nil
	}

	var m map[string]interface{}
	if err := json.Unmarshal(d.Parameters, &m); err != nil {
		return nil, fmt.Errorf("parameters must be a map or a list of values: %w", err)
	}
	if len(m) == 0 {
		return nil, errors.New("parameters are required")
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		list = append(list, typedValue(name, m[name]))
	}
	return list, nil
}

func typedValue(name string, v interface{}) session.ParameterValue {
	switch x := v.(type) {
	case bool:
		return session.ParameterValue{Name: name, Value: strconv.FormatBool(x), Type: "xsd:boolean"}
	case float64:
		if x == float64(int64(x)) {
			if x >= 0 {
				return session.ParameterValue{Name: name, Value: strconv.FormatInt(int64(x), 10), Type: "xsd:unsignedInt"}
			}
			return session.ParameterValue{Name: name, Value: strconv.FormatInt(int64(x), 10), Type: "xsd:int"}
		}
		return session.ParameterValue{Name: name, Value: strconv.FormatFloat(x, 'f', -1, 64), Type: "xsd:string"}
	case string:
		return session.ParameterValue{Name: name, Value: x, Type: "xsd:string"}
	case nil:
		return session.ParameterValue{Name: name, Type: "xsd:string"}
	}
	return session.ParameterValue{Name: name, Value: fmt.Sprint(v), Type: "xsd:string"}
}

// ToCommand translates a task into the CWMP command that carries it.
// Reboot and Download commands use the task id as CommandKey unless task_data names one.
func ToCommand(t *store.ProvisioningTask) (session.Command, error) {
	d, err := decodeTaskData(t)
	if err != nil {
		return session.Command{}, err
	}
	cmd := session.Command{TaskID: t.ID}
	commandKey := d.CommandKey
	if commandKey == "" {
		commandKey = t.ID
	}

	switch t.Type {
	case TypeGetParameters:
		if cmd.Names, err = d.names(); err != nil {
			return session.Command{}, fmt.Errorf("task %s: %w", t.ID, err)
		}
		cmd.Type = session.GetParameterValues
	case TypeSetParameters:
		if cmd.Values, err = d.values(); err != nil {
			return session.Command{}, fmt.Errorf("task %s: %w", t.ID, err)
		}
		cmd.Type = session.SetParameterValues
		cmd.ParameterKey = d.ParameterKey
		if cmd.ParameterKey == "" {
			cmd.ParameterKey = t.ID
		}
	case TypeReboot:
		cmd.Type = session.Reboot
		cmd.CommandKey = commandKey
	case TypeDownload, TypeFirmwareUpgrade:
		if d.URL == "" {
			return session.Command{}, fmt.Errorf("task %s: url is required", t.ID)
		}
		fileType := d.FileType
		if fileType == "" {
			fileType = DefaultFirmwareFileType
		}
		cmd.Type = session.Download
		cmd.CommandKey = commandKey
		cmd.Download = &session.DownloadArgs{
			FileType:       fileType,
			URL:            d.URL,
			Username:       d.Username,
			Password:       d.Password,
			FileSize:       d.FileSize,
			TargetFileName: d.TargetFileName,
			DelaySeconds:   d.DelaySeconds,
		}
	default:
		return session.Command{}, fmt.Errorf("%w %q for CWMP", ErrUnsupportedTask, t.Type)
	}
	return cmd, nil
}

// BuildUSPRequest translates a task into a USP request whose message id is the task id,
// so responses correlate back to the task.
func BuildUSPRequest(t *store.ProvisioningTask) (*usp.Msg, error) {
	d, err := decodeTaskData(t)
	if err != nil {
		return nil, err
	}

	switch t.Type {
	case TypeGetParameters:
		names, err := d.names()
		if err != nil {
			return nil, fmt.Errorf("task %s: %w", t.ID, err)
		}
		return usp.NewGet(names, t.ID), nil
	case TypeSetParameters:
		values, err := d.values()
		if err != nil {
			return nil, fmt.Errorf("task %s: %w", t.ID, err)
		}
		flat := make(map[string]string, len(values))
		for _, v := range values {
			flat[v.Name] = v.Value
		}
		return usp.NewSet(usp.GroupParamPaths(flat), false, t.ID), nil
	case TypeReboot:
		return usp.NewOperate(usp.RebootCommand, nil, t.ID), nil
	case TypeDownload, TypeFirmwareUpgrade:
		if d.URL == "" {
			return nil, fmt.Errorf("task %s: url is required", t.ID)
		}
		args := map[string]string{"URL": d.URL, "AutoActivate": "true"}
		if d.Username != "" {
			args["Username"] = d.Username
			args["Password"] = d.Password
		}
		if d.FileSize > 0 {
			args["FileSize"] = strconv.FormatUint(d.FileSize, 10)
		}
		return usp.NewOperate(FirmwareDownloadCommand, args, t.ID), nil
	case TypeOperate:
		if d.Command == "" {
			return nil, fmt.Errorf("task %s: command is required", t.ID)
		}
		return usp.NewOperate(d.Command, d.Args, t.ID), nil
	case TypeAddObject:
		if d.ObjectPath == "" {
			return nil, fmt.Errorf("task %s: object_path is required", t.ID)
		}
		return usp.NewAdd(d.ObjectPath, d.Args, false, t.ID), nil
	case TypeDeleteObject:
		if len(d.ObjectPaths) == 0 {
			return nil, fmt.Errorf("task %s: object_paths are required", t.ID)
		}
		return usp.NewDelete(d.ObjectPaths, false, t.ID), nil
	}
	return nil, fmt.Errorf("%w %q for USP", ErrUnsupportedTask, t.Type)
}

// KnownType reports whether taskType is handled by the dispatcher.
func KnownType(taskType string) bool {
	switch taskType {
	case TypeGetParameters, TypeSetParameters, TypeReboot, TypeDownload, TypeFirmwareUpgrade,
		TypeOperate, TypeAddObject, TypeDeleteObject:
		return true
	}
	return false
}
