// Package usp implements the TR-369 USP Msg and Record structures, their protobuf
// wire encoding, and the controller-side processing shared by every MTP.
package usp

import "fmt"

// MsgType mirrors Header.MsgType of usp-msg-1-3.proto.
type MsgType int32

const (
	MsgTypeError       MsgType = 0
	MsgTypeGet         MsgType = 1
	MsgTypeGetResp     MsgType = 2
	MsgTypeNotify      MsgType = 3
	MsgTypeSet         MsgType = 4
	MsgTypeSetResp     MsgType = 5
	MsgTypeOperate     MsgType = 6
	MsgTypeOperateResp MsgType = 7
	MsgTypeAdd         MsgType = 8
	MsgTypeAddResp     MsgType = 9
	MsgTypeDelete      MsgType = 10
	MsgTypeDeleteResp  MsgType = 11
	MsgTypeNotifyResp  MsgType = 16
)

var msgTypeNames = map[MsgType]string{
	MsgTypeError:       "ERROR",
	MsgTypeGet:         "GET",
	MsgTypeGetResp:     "GET_RESP",
	MsgTypeNotify:      "NOTIFY",
	MsgTypeSet:         "SET",
	MsgTypeSetResp:     "SET_RESP",
	MsgTypeOperate:     "OPERATE",
	MsgTypeOperateResp: "OPERATE_RESP",
	MsgTypeAdd:         "ADD",
	MsgTypeAddResp:     "ADD_RESP",
	MsgTypeDelete:      "DELETE",
	MsgTypeDeleteResp:  "DELETE_RESP",
	MsgTypeNotifyResp:  "NOTIFY_RESP",
}

func (t MsgType) String() string {
	if name, ok := msgTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("MSG_TYPE_%d", int32(t))
}

// ResponseType returns the response type paired with a request type.
// ok is false for types that are not requests.
func ResponseType(t MsgType) (resp MsgType, ok bool) {
	switch t {
	case MsgTypeGet:
		return MsgTypeGetResp, true
	case MsgTypeSet:
		return MsgTypeSetResp, true
	case MsgTypeOperate:
		return MsgTypeOperateResp, true
	case MsgTypeAdd:
		return MsgTypeAddResp, true
	case MsgTypeDelete:
		return MsgTypeDeleteResp, true
	case MsgTypeNotify:
		return MsgTypeNotifyResp, true
	}
	return 0, false
}

// USP error codes used by the controller.
const (
	ErrCodeMessageFailed    uint32 = 7000
	ErrCodeRequestDenied    uint32 = 7002
	ErrCodeInternalError    uint32 = 7003
	ErrCodeInvalidArguments uint32 = 7004
	ErrCodeCommandFailure   uint32 = 7022
	ErrCodeUnsupported      uint32 = 9000
)

// Msg is a USP message: header plus exactly one body.
type Msg struct {
	Header Header
	Body   Body
}

// Header carries the message id and type.
type Header struct {
	MsgID   string
	MsgType MsgType
}

// Body is implemented by every request, response and error body.
// The set is closed; dispatch with a type switch.
type Body interface {
	msgType() MsgType
}

// Get requests parameter values.
type Get struct {
	ParamPaths []string
	MaxDepth   uint32
}

// GetResp answers a Get.
type GetResp struct {
	ReqPathResults []RequestedPathResult
}

// RequestedPathResult is the outcome for one requested path.
type RequestedPathResult struct {
	RequestedPath       string
	ErrCode             uint32
	ErrMsg              string
	ResolvedPathResults []ResolvedPathResult
}

// ResolvedPathResult holds the parameters of one resolved object.
type ResolvedPathResult struct {
	ResolvedPath string
	ResultParams map[string]string
}

// Set updates parameters of existing objects.
type Set struct {
	AllowPartial bool
	UpdateObjs   []UpdateObject
}

// UpdateObject groups the settings for one object path.
type UpdateObject struct {
	ObjPath       string
	ParamSettings []ParamSetting
}

// ParamSetting is one parameter assignment in a Set or Add.
type ParamSetting struct {
	Param    string
	Value    string
	Required bool
}

// SetResp answers a Set.
type SetResp struct {
	UpdatedObjResults []UpdatedObjectResult
}

// UpdatedObjectResult is the outcome for one UpdateObject. A nil Failure means success.
type UpdatedObjectResult struct {
	RequestedPath      string
	Failure            *OperationFailure
	UpdatedInstResults []UpdatedInstanceResult
}

// UpdatedInstanceResult lists the parameters changed on one instance.
type UpdatedInstanceResult struct {
	AffectedPath  string
	ParamErrs     []ParameterError
	UpdatedParams map[string]string
}

// OperationFailure is the failure branch of an operation status.
type OperationFailure struct {
	ErrCode uint32
	ErrMsg  string
}

// ParameterError reports a per-parameter failure inside a successful operation.
type ParameterError struct {
	Param   string
	ErrCode uint32
	ErrMsg  string
}

// Add creates object instances.
type Add struct {
	AllowPartial bool
	CreateObjs   []CreateObject
}

// CreateObject describes one instance to create.
type CreateObject struct {
	ObjPath       string
	ParamSettings []ParamSetting
}

// AddResp answers an Add.
type AddResp struct {
	CreatedObjResults []CreatedObjectResult
}

// CreatedObjectResult is the outcome for one CreateObject. A nil Failure means success.
type CreatedObjectResult struct {
	RequestedPath    string
	Failure          *OperationFailure
	InstantiatedPath string
	ParamErrs        []ParameterError
	UniqueKeys       map[string]string
}

// Delete removes object instances.
type Delete struct {
	AllowPartial bool
	ObjPaths     []string
}

// DeleteResp answers a Delete.
type DeleteResp struct {
	DeletedObjResults []DeletedObjectResult
}

// DeletedObjectResult is the outcome for one path. A nil Failure means success.
type DeletedObjectResult struct {
	RequestedPath string
	Failure       *OperationFailure
	AffectedPaths []string
}

// Operate invokes a command such as Device.Reboot().
type Operate struct {
	Command    string
	CommandKey string
	SendResp   bool
	InputArgs  map[string]string
}

// OperateResp answers an Operate.
type OperateResp struct {
	OperationResults []OperationResult
}

// OperationResult is the outcome of one executed command.
// Exactly one of Failure, ReqObjPath or OutputArgs is meaningful; Failure wins, then ReqObjPath.
type OperationResult struct {
	ExecutedCommand string
	ReqObjPath      string
	OutputArgs      map[string]string
	Failure         *OperationFailure
}

// Notify is sent by agents for subscriptions and onboarding.
type Notify struct {
	SubscriptionID string
	SendResp       bool
	Event          *NotifyEvent
	ValueChange    *ValueChange
	OnBoardReq     *OnBoardRequest
}

// NotifyEvent is the Event notification.
type NotifyEvent struct {
	ObjPath   string
	EventName string
	Params    map[string]string
}

// ValueChange is the ValueChange notification.
type ValueChange struct {
	ParamPath  string
	ParamValue string
}

// OnBoardRequest is sent by an agent the first time it contacts a controller.
type OnBoardRequest struct {
	OUI                            string
	ProductClass                   string
	SerialNumber                   string
	AgentSupportedProtocolVersions string
}

// NotifyResp acknowledges a Notify.
type NotifyResp struct {
	SubscriptionID string
}

// Error is the USP Error body. It also satisfies the error interface.
type Error struct {
	ErrCode   uint32
	ErrMsg    string
	ParamErrs []ParamError
}

// ParamError is a per-path entry of an Error body.
type ParamError struct {
	ParamPath string
	ErrCode   uint32
	ErrMsg    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("usp error %d: %s", e.ErrCode, e.ErrMsg)
}

func (*Get) msgType() MsgType         { return MsgTypeGet }
func (*GetResp) msgType() MsgType     { return MsgTypeGetResp }
func (*Set) msgType() MsgType         { return MsgTypeSet }
func (*SetResp) msgType() MsgType     { return MsgTypeSetResp }
func (*Add) msgType() MsgType         { return MsgTypeAdd }
func (*AddResp) msgType() MsgType     { return MsgTypeAddResp }
func (*Delete) msgType() MsgType      { return MsgTypeDelete }
func (*DeleteResp) msgType() MsgType  { return MsgTypeDeleteResp }
func (*Operate) msgType() MsgType     { return MsgTypeOperate }
func (*OperateResp) msgType() MsgType { return MsgTypeOperateResp }
func (*Notify) msgType() MsgType      { return MsgTypeNotify }
func (*NotifyResp) msgType() MsgType  { return MsgTypeNotifyResp }
func (*Error) msgType() MsgType       { return MsgTypeError }

// MessageType returns the dispatch type of m, taken from its header.
func MessageType(m *Msg) MsgType {
	return m.Header.MsgType
}

// IsRequest reports whether t is a request sent by a controller or a Notify from an agent.
func IsRequest(t MsgType) bool {
	_, ok := ResponseType(t)
	return ok
}

// Unsupported stands in for a structurally valid body this controller does not implement,
// such as GetSupportedDM or GetInstances. It is decoded so a 9000 Error can be returned.
type Unsupported struct {
	// Kind is "request" or "response".
	Kind string
	// Field is the oneof field number inside Request or Response.
	Field int32
	typ   MsgType
}

func (u *Unsupported) msgType() MsgType { return u.typ }
