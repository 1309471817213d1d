package usp

import (
	"github.com/google/uuid"
)

// NewMsgID returns a random message id.
func NewMsgID() string {
	return uuid.NewString()
}

func newMsg(msgID string, body Body) *Msg {
	if msgID == "" {
		msgID = NewMsgID()
	}
	return &Msg{
		Header: Header{MsgID: msgID, MsgType: body.msgType()},
		Body:   body,
	}
}

// NewGet builds a GET for paths. An empty msgID is replaced by a random one.
func NewGet(paths []string, msgID string) *Msg {
	return newMsg(msgID, &Get{ParamPaths: append([]string(nil), paths...)})
}

// NewSet builds a SET from parameters grouped by object path.
func NewSet(updates map[string]map[string]string, allowPartial bool, msgID string) *Msg {
	set := &Set{AllowPartial: allowPartial}
	for _, obj := range sortedKeys(updates) {
		uo := UpdateObject{ObjPath: obj}
		for _, param := range sortedKeys(updates[obj]) {
			uo.ParamSettings = append(uo.ParamSettings, ParamSetting{
				Param:    param,
				Value:    updates[obj][param],
				Required: true,
			})
		}
		set.UpdateObjs = append(set.UpdateObjs, uo)
	}
	return newMsg(msgID, set)
}

// NewOperate builds an OPERATE for command with optional input arguments.
func NewOperate(command string, params map[string]string, msgID string) *Msg {
	m := newMsg(msgID, &Operate{
		Command:   command,
		SendResp:  true,
		InputArgs: copyMap(params),
	})
	m.Body.(*Operate).CommandKey = m.Header.MsgID
	return m
}

// NewAdd builds an ADD creating one instance of objPath.
func NewAdd(objPath string, params map[string]string, allowPartial bool, msgID string) *Msg {
	obj := CreateObject{ObjPath: objPath}
	for _, k := range sortedKeys(params) {
		obj.ParamSettings = append(obj.ParamSettings, ParamSetting{Param: k, Value: params[k], Required: true})
	}
	return newMsg(msgID, &Add{AllowPartial: allowPartial, CreateObjs: []CreateObject{obj}})
}

// NewDelete builds a DELETE for objPaths.
func NewDelete(objPaths []string, allowPartial bool, msgID string) *Msg {
	return newMsg(msgID, &Delete{AllowPartial: allowPartial, ObjPaths: append([]string(nil), objPaths...)})
}

// NewGetResp builds a GET_RESP with one requested-path result per full parameter path.
func NewGetResp(msgID string, values map[string]string) *Msg {
	resp := &GetResp{}
	for _, path := range sortedKeys(values) {
		obj, param := SplitParamPath(path)
		resp.ReqPathResults = append(resp.ReqPathResults, RequestedPathResult{
			RequestedPath: path,
			ResolvedPathResults: []ResolvedPathResult{{
				ResolvedPath: obj,
				ResultParams: map[string]string{param: values[path]},
			}},
		})
	}
	return newMsg(msgID, resp)
}

// NewSetResp builds a successful SET_RESP from the applied parameters grouped by object path.
func NewSetResp(msgID string, updated map[string]map[string]string) *Msg {
	resp := &SetResp{}
	for _, obj := range sortedKeys(updated) {
		resp.UpdatedObjResults = append(resp.UpdatedObjResults, UpdatedObjectResult{
			RequestedPath: obj,
			UpdatedInstResults: []UpdatedInstanceResult{{
				AffectedPath:  obj,
				UpdatedParams: copyMap(updated[obj]),
			}},
		})
	}
	return newMsg(msgID, resp)
}

// NewOperateResp builds an OPERATE_RESP carrying output arguments.
func NewOperateResp(msgID, command string, outputArgs map[string]string) *Msg {
	return newMsg(msgID, &OperateResp{OperationResults: []OperationResult{{
		ExecutedCommand: command,
		OutputArgs:      copyMap(outputArgs),
	}}})
}

// NewOperateFailure builds an OPERATE_RESP reporting a command failure.
func NewOperateFailure(msgID, command string, code uint32, text string) *Msg {
	return newMsg(msgID, &OperateResp{OperationResults: []OperationResult{{
		ExecutedCommand: command,
		Failure:         &OperationFailure{ErrCode: code, ErrMsg: text},
	}}})
}

// NewAddResp builds an ADD_RESP reporting the created instance.
func NewAddResp(msgID, objPath, instantiatedPath string) *Msg {
	return newMsg(msgID, &AddResp{CreatedObjResults: []CreatedObjectResult{{
		RequestedPath:    objPath,
		InstantiatedPath: instantiatedPath,
	}}})
}

// NewDeleteResp builds a DELETE_RESP with one successful result per path.
func NewDeleteResp(msgID string, objPaths []string) *Msg {
	resp := &DeleteResp{}
	for _, p := range objPaths {
		resp.DeletedObjResults = append(resp.DeletedObjResults, DeletedObjectResult{
			RequestedPath: p,
			AffectedPaths: []string{p},
		})
	}
	return newMsg(msgID, resp)
}

// NewNotifyResp acknowledges a NOTIFY.
func NewNotifyResp(msgID, subscriptionID string) *Msg {
	return newMsg(msgID, &NotifyResp{SubscriptionID: subscriptionID})
}

// NewError builds an ERROR message.
func NewError(msgID string, code uint32, text string) *Msg {
	return newMsg(msgID, &Error{ErrCode: code, ErrMsg: text})
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
