package usp

import (
	"errors"
	"fmt"

	"github.com/dexter939/EvoAcs-sub001/pkg/proto/v1_3"
)

// ErrDecode wraps every failure to parse a Record or Msg.
var ErrDecode = errors.New("usp: decode error")

// MarshalMsg serializes m to the USP Msg protobuf encoding.
func MarshalMsg(m *Msg) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("usp: nil message")
	}
	body, err := toWireBody(m.Body)
	if err != nil {
		return nil, err
	}
	b, err := v1_3.Marshal(&v1_3.Msg{
		Header: &v1_3.Header{MsgId: m.Header.MsgID, MsgType: v1_3.Header_MsgType(m.Header.MsgType)},
		Body:   body,
	})
	if err != nil {
		return nil, fmt.Errorf("usp: marshal msg: %w", err)
	}
	return b, nil
}

// UnmarshalMsg parses a USP Msg. Truncated or malformed input fails with ErrDecode.
func UnmarshalMsg(b []byte) (*Msg, error) {
	var w v1_3.Msg
	if err := v1_3.Unmarshal(b, &w); err != nil {
		return nil, fmt.Errorf("%w: msg: %v", ErrDecode, err)
	}
	if w.Header == nil {
		return nil, fmt.Errorf("%w: msg has no header", ErrDecode)
	}
	if w.Body == nil {
		return nil, fmt.Errorf("%w: msg has no body", ErrDecode)
	}

	m := &Msg{Header: Header{MsgID: w.Header.MsgId, MsgType: MsgType(w.Header.MsgType)}}
	body, err := fromWireBody(w.Body, m.Header.MsgType)
	if err != nil {
		return nil, err
	}
	m.Body = body
	if _, unsupported := body.(*Unsupported); !unsupported && body.msgType() != m.Header.MsgType {
		return nil, fmt.Errorf("%w: header type %s does not match body type %s",
			ErrDecode, m.Header.MsgType, body.msgType())
	}
	return m, nil
}

func request(r *v1_3.Request) *v1_3.Body {
	return &v1_3.Body{MsgBody: &v1_3.Body_Request{Request: r}}
}

func response(r *v1_3.Response) *v1_3.Body {
	return &v1_3.Body{MsgBody: &v1_3.Body_Response{Response: r}}
}

func toWireBody(body Body) (*v1_3.Body, error) {
	switch v := body.(type) {
	case *Get:
		return request(&v1_3.Request{ReqType: &v1_3.Request_Get{Get: &v1_3.Get{ParamPaths: v.ParamPaths, MaxDepth: v.MaxDepth}}}), nil
	case *Set:
		return request(&v1_3.Request{ReqType: &v1_3.Request_Set{Set: toWireSet(v)}}), nil
	case *Add:
		return request(&v1_3.Request{ReqType: &v1_3.Request_Add{Add: toWireAdd(v)}}), nil
	case *Delete:
		return request(&v1_3.Request{ReqType: &v1_3.Request_Delete{Delete: &v1_3.Delete{AllowPartial: v.AllowPartial, ObjPaths: v.ObjPaths}}}), nil
	case *Operate:
		return request(&v1_3.Request{ReqType: &v1_3.Request_Operate{Operate: &v1_3.Operate{
			Command:    v.Command,
			CommandKey: v.CommandKey,
			SendResp:   v.SendResp,
			InputArgs:  v.InputArgs,
		}}}), nil
	case *Notify:
		return request(&v1_3.Request{ReqType: &v1_3.Request_Notify{Notify: toWireNotify(v)}}), nil
	case *GetResp:
		return response(&v1_3.Response{RespType: &v1_3.Response_GetResp{GetResp: toWireGetResp(v)}}), nil
	case *SetResp:
		return response(&v1_3.Response{RespType: &v1_3.Response_SetResp{SetResp: toWireSetResp(v)}}), nil
	case *AddResp:
		return response(&v1_3.Response{RespType: &v1_3.Response_AddResp{AddResp: toWireAddResp(v)}}), nil
	case *DeleteResp:
		return response(&v1_3.Response{RespType: &v1_3.Response_DeleteResp{DeleteResp: toWireDeleteResp(v)}}), nil
	case *OperateResp:
		return response(&v1_3.Response{RespType: &v1_3.Response_OperateResp{OperateResp: toWireOperateResp(v)}}), nil
	case *NotifyResp:
		return response(&v1_3.Response{RespType: &v1_3.Response_NotifyResp{NotifyResp: &v1_3.NotifyResp{SubscriptionId: v.SubscriptionID}}}), nil
	case *Error:
		e := &v1_3.Error{ErrCode: v.ErrCode, ErrMsg: v.ErrMsg}
		for _, pe := range v.ParamErrs {
			e.ParamErrs = append(e.ParamErrs, &v1_3.Error_ParamError{ParamPath: pe.ParamPath, ErrCode: pe.ErrCode, ErrMsg: pe.ErrMsg})
		}
		return &v1_3.Body{MsgBody: &v1_3.Body_Error{Error: e}}, nil
	case nil:
		return nil, fmt.Errorf("usp: message has no body")
	default:
		return nil, fmt.Errorf("usp: unsupported body type %T", body)
	}
}

func toWireSet(s *Set) *v1_3.Set {
	out := &v1_3.Set{AllowPartial: s.AllowPartial}
	for _, obj := range s.UpdateObjs {
		o := &v1_3.Set_UpdateObject{ObjPath: obj.ObjPath}
		for _, ps := range obj.ParamSettings {
			o.ParamSettings = append(o.ParamSettings, &v1_3.Set_UpdateParamSetting{Param: ps.Param, Value: ps.Value, Required: ps.Required})
		}
		out.UpdateObjs = append(out.UpdateObjs, o)
	}
	return out
}

func toWireAdd(a *Add) *v1_3.Add {
	out := &v1_3.Add{AllowPartial: a.AllowPartial}
	for _, obj := range a.CreateObjs {
		o := &v1_3.Add_CreateObject{ObjPath: obj.ObjPath}
		for _, ps := range obj.ParamSettings {
			o.ParamSettings = append(o.ParamSettings, &v1_3.Add_CreateParamSetting{Param: ps.Param, Value: ps.Value, Required: ps.Required})
		}
		out.CreateObjs = append(out.CreateObjs, o)
	}
	return out
}

func toWireNotify(n *Notify) *v1_3.Notify {
	out := &v1_3.Notify{SubscriptionId: n.SubscriptionID, SendResp: n.SendResp}
	switch {
	case n.Event != nil:
		out.Notification = &v1_3.Notify_Event_{Event: &v1_3.Notify_Event{
			ObjPath:   n.Event.ObjPath,
			EventName: n.Event.EventName,
			Params:    n.Event.Params,
		}}
	case n.ValueChange != nil:
		out.Notification = &v1_3.Notify_ValueChange_{ValueChange: &v1_3.Notify_ValueChange{
			ParamPath:  n.ValueChange.ParamPath,
			ParamValue: n.ValueChange.ParamValue,
		}}
	case n.OnBoardReq != nil:
		out.Notification = &v1_3.Notify_OnBoardReq{OnBoardReq: &v1_3.Notify_OnBoardRequest{
			Oui:                            n.OnBoardReq.OUI,
			ProductClass:                   n.OnBoardReq.ProductClass,
			SerialNumber:                   n.OnBoardReq.SerialNumber,
			AgentSupportedProtocolVersions: n.OnBoardReq.AgentSupportedProtocolVersions,
		}}
	}
	return out
}

func toWireGetResp(r *GetResp) *v1_3.GetResp {
	out := &v1_3.GetResp{}
	for _, rp := range r.ReqPathResults {
		req := &v1_3.GetResp_RequestedPathResult{RequestedPath: rp.RequestedPath, ErrCode: rp.ErrCode, ErrMsg: rp.ErrMsg}
		for _, res := range rp.ResolvedPathResults {
			req.ResolvedPathResults = append(req.ResolvedPathResults, &v1_3.GetResp_ResolvedPathResult{
				ResolvedPath: res.ResolvedPath,
				ResultParams: res.ResultParams,
			})
		}
		out.ReqPathResults = append(out.ReqPathResults, req)
	}
	return out
}

func toWireSetResp(r *SetResp) *v1_3.SetResp {
	out := &v1_3.SetResp{}
	for _, res := range r.UpdatedObjResults {
		status := &v1_3.SetResp_UpdatedObjectResult_OperationStatus{}
		if res.Failure != nil {
			status.OperStatus = &v1_3.SetResp_UpdatedObjectResult_OperationStatus_OperFailure{
				OperFailure: &v1_3.SetResp_UpdatedObjectResult_OperationStatus_OperationFailure{
					ErrCode: res.Failure.ErrCode,
					ErrMsg:  res.Failure.ErrMsg,
				},
			}
		} else {
			success := &v1_3.SetResp_UpdatedObjectResult_OperationStatus_OperationSuccess{}
			for _, inst := range res.UpdatedInstResults {
				i := &v1_3.SetResp_UpdatedInstanceResult{AffectedPath: inst.AffectedPath, UpdatedParams: inst.UpdatedParams}
				for _, pe := range inst.ParamErrs {
					i.ParamErrs = append(i.ParamErrs, &v1_3.SetResp_ParameterError{Param: pe.Param, ErrCode: pe.ErrCode, ErrMsg: pe.ErrMsg})
				}
				success.UpdatedInstResults = append(success.UpdatedInstResults, i)
			}
			status.OperStatus = &v1_3.SetResp_UpdatedObjectResult_OperationStatus_OperSuccess{OperSuccess: success}
		}
		out.UpdatedObjResults = append(out.UpdatedObjResults, &v1_3.SetResp_UpdatedObjectResult{
			RequestedPath: res.RequestedPath,
			OperStatus:    status,
		})
	}
	return out
}

func toWireAddResp(r *AddResp) *v1_3.AddResp {
	out := &v1_3.AddResp{}
	for _, res := range r.CreatedObjResults {
		status := &v1_3.AddResp_CreatedObjectResult_OperationStatus{}
		if res.Failure != nil {
			status.OperStatus = &v1_3.AddResp_CreatedObjectResult_OperationStatus_OperFailure{
				OperFailure: &v1_3.AddResp_CreatedObjectResult_OperationStatus_OperationFailure{
					ErrCode: res.Failure.ErrCode,
					ErrMsg:  res.Failure.ErrMsg,
				},
			}
		} else {
			success := &v1_3.AddResp_CreatedObjectResult_OperationStatus_OperationSuccess{
				InstantiatedPath: res.InstantiatedPath,
				UniqueKeys:       res.UniqueKeys,
			}
			for _, pe := range res.ParamErrs {
				success.ParamErrs = append(success.ParamErrs, &v1_3.AddResp_ParameterError{Param: pe.Param, ErrCode: pe.ErrCode, ErrMsg: pe.ErrMsg})
			}
			status.OperStatus = &v1_3.AddResp_CreatedObjectResult_OperationStatus_OperSuccess{OperSuccess: success}
		}
		out.CreatedObjResults = append(out.CreatedObjResults, &v1_3.AddResp_CreatedObjectResult{
			RequestedPath: res.RequestedPath,
			OperStatus:    status,
		})
	}
	return out
}

func toWireDeleteResp(r *DeleteResp) *v1_3.DeleteResp {
	out := &v1_3.DeleteResp{}
	for _, res := range r.DeletedObjResults {
		status := &v1_3.DeleteResp_DeletedObjectResult_OperationStatus{}
		if res.Failure != nil {
			status.OperStatus = &v1_3.DeleteResp_DeletedObjectResult_OperationStatus_OperFailure{
				OperFailure: &v1_3.DeleteResp_DeletedObjectResult_OperationStatus_OperationFailure{
					ErrCode: res.Failure.ErrCode,
					ErrMsg:  res.Failure.ErrMsg,
				},
			}
		} else {
			status.OperStatus = &v1_3.DeleteResp_DeletedObjectResult_OperationStatus_OperSuccess{
				OperSuccess: &v1_3.DeleteResp_DeletedObjectResult_OperationStatus_OperationSuccess{AffectedPaths: res.AffectedPaths},
			}
		}
		out.DeletedObjResults = append(out.DeletedObjResults, &v1_3.DeleteResp_DeletedObjectResult{
			RequestedPath: res.RequestedPath,
			OperStatus:    status,
		})
	}
	return out
}

func toWireOperateResp(r *OperateResp) *v1_3.OperateResp {
	out := &v1_3.OperateResp{}
	for _, res := range r.OperationResults {
		o := &v1_3.OperateResp_OperationResult{ExecutedCommand: res.ExecutedCommand}
		switch {
		case res.Failure != nil:
			o.OperationResp = &v1_3.OperateResp_OperationResult_CmdFailure{
				CmdFailure: &v1_3.OperateResp_OperationResult_CommandFailure{ErrCode: res.Failure.ErrCode, ErrMsg: res.Failure.ErrMsg},
			}
		case res.ReqObjPath != "":
			o.OperationResp = &v1_3.OperateResp_OperationResult_ReqObjPath{ReqObjPath: res.ReqObjPath}
		default:
			o.OperationResp = &v1_3.OperateResp_OperationResult_ReqOutputArgs{
				ReqOutputArgs: &v1_3.OperateResp_OperationResult_OutputArgs{OutputArgs: res.OutputArgs},
			}
		}
		out.OperationResults = append(out.OperationResults, o)
	}
	return out
}

func fromWireBody(b *v1_3.Body, hdrType MsgType) (Body, error) {
	switch v := b.MsgBody.(type) {
	case *v1_3.Body_Request:
		if v.Request == nil || v.Request.ReqType == nil {
			return nil, fmt.Errorf("%w: empty request", ErrDecode)
		}
		return fromWireRequest(v.Request, hdrType), nil
	case *v1_3.Body_Response:
		if v.Response == nil || v.Response.RespType == nil {
			return nil, fmt.Errorf("%w: empty response", ErrDecode)
		}
		return fromWireResponse(v.Response, hdrType), nil
	case *v1_3.Body_Error:
		return fromWireError(v.Error), nil
	}
	return nil, fmt.Errorf("%w: body has no request, response or error", ErrDecode)
}

func fromWireRequest(r *v1_3.Request, hdrType MsgType) Body {
	switch v := r.ReqType.(type) {
	case *v1_3.Request_Get:
		g := &Get{}
		if v.Get != nil {
			g.ParamPaths, g.MaxDepth = v.Get.ParamPaths, v.Get.MaxDepth
		}
		return g
	case *v1_3.Request_Set:
		return fromWireSet(v.Set)
	case *v1_3.Request_Add:
		return fromWireAdd(v.Add)
	case *v1_3.Request_Delete:
		d := &Delete{}
		if v.Delete != nil {
			d.AllowPartial, d.ObjPaths = v.Delete.AllowPartial, v.Delete.ObjPaths
		}
		return d
	case *v1_3.Request_Operate:
		o := &Operate{}
		if v.Operate != nil {
			o.Command, o.CommandKey, o.SendResp, o.InputArgs = v.Operate.Command, v.Operate.CommandKey, v.Operate.SendResp, v.Operate.InputArgs
		}
		return o
	case *v1_3.Request_Notify:
		return fromWireNotify(v.Notify)
	case *v1_3.Request_GetSupportedDm:
		return &Unsupported{Kind: "request", Field: 2, typ: hdrType}
	case *v1_3.Request_GetInstances:
		return &Unsupported{Kind: "request", Field: 3, typ: hdrType}
	case *v1_3.Request_GetSupportedProtocol:
		return &Unsupported{Kind: "request", Field: 9, typ: hdrType}
	case *v1_3.Request_Register:
		return &Unsupported{Kind: "request", Field: 10, typ: hdrType}
	default:
		return &Unsupported{Kind: "request", Field: 11, typ: hdrType}
	}
}

func fromWireResponse(r *v1_3.Response, hdrType MsgType) Body {
	switch v := r.RespType.(type) {
	case *v1_3.Response_GetResp:
		return fromWireGetResp(v.GetResp)
	case *v1_3.Response_SetResp:
		return fromWireSetResp(v.SetResp)
	case *v1_3.Response_AddResp:
		return fromWireAddResp(v.AddResp)
	case *v1_3.Response_DeleteResp:
		return fromWireDeleteResp(v.DeleteResp)
	case *v1_3.Response_OperateResp:
		return fromWireOperateResp(v.OperateResp)
	case *v1_3.Response_NotifyResp:
		n := &NotifyResp{}
		if v.NotifyResp != nil {
			n.SubscriptionID = v.NotifyResp.SubscriptionId
		}
		return n
	case *v1_3.Response_GetSupportedDmResp:
		return &Unsupported{Kind: "response", Field: 2, typ: hdrType}
	case *v1_3.Response_GetInstancesResp:
		return &Unsupported{Kind: "response", Field: 3, typ: hdrType}
	case *v1_3.Response_GetSupportedProtocolResp:
		return &Unsupported{Kind: "response", Field: 9, typ: hdrType}
	case *v1_3.Response_RegisterResp:
		return &Unsupported{Kind: "response", Field: 10, typ: hdrType}
	default:
		return &Unsupported{Kind: "response", Field: 11, typ: hdrType}
	}
}

func fromWireSet(s *v1_3.Set) *Set {
	out := &Set{}
	if s == nil {
		return out
	}
	out.AllowPartial = s.AllowPartial
	for _, obj := range s.UpdateObjs {
		o := UpdateObject{ObjPath: obj.ObjPath}
		for _, ps := range obj.ParamSettings {
			o.ParamSettings = append(o.ParamSettings, ParamSetting{Param: ps.Param, Value: ps.Value, Required: ps.Required})
		}
		out.UpdateObjs = append(out.UpdateObjs, o)
	}
	return out
}

func fromWireAdd(a *v1_3.Add) *Add {
	out := &Add{}
	if a == nil {
		return out
	}
	out.AllowPartial = a.AllowPartial
	for _, obj := range a.CreateObjs {
		o := CreateObject{ObjPath: obj.ObjPath}
		for _, ps := range obj.ParamSettings {
			o.ParamSettings = append(o.ParamSettings, ParamSetting{Param: ps.Param, Value: ps.Value, Required: ps.Required})
		}
		out.CreateObjs = append(out.CreateObjs, o)
	}
	return out
}

func fromWireNotify(n *v1_3.Notify) *Notify {
	out := &Notify{}
	if n == nil {
		return out
	}
	out.SubscriptionID, out.SendResp = n.SubscriptionId, n.SendResp
	switch v := n.Notification.(type) {
	case *v1_3.Notify_Event_:
		if v.Event != nil {
			out.Event = &NotifyEvent{ObjPath: v.Event.ObjPath, EventName: v.Event.EventName, Params: v.Event.Params}
		}
	case *v1_3.Notify_ValueChange_:
		if v.ValueChange != nil {
			out.ValueChange = &ValueChange{ParamPath: v.ValueChange.ParamPath, ParamValue: v.ValueChange.ParamValue}
		}
	case *v1_3.Notify_OnBoardReq:
		if v.OnBoardReq != nil {
			out.OnBoardReq = &OnBoardRequest{
				OUI:                            v.OnBoardReq.Oui,
				ProductClass:                   v.OnBoardReq.ProductClass,
				SerialNumber:                   v.OnBoardReq.SerialNumber,
				AgentSupportedProtocolVersions: v.OnBoardReq.AgentSupportedProtocolVersions,
			}
		}
	}
	return out
}

func fromWireGetResp(r *v1_3.GetResp) *GetResp {
	out := &GetResp{}
	if r == nil {
		return out
	}
	for _, rp := range r.ReqPathResults {
		req := RequestedPathResult{RequestedPath: rp.RequestedPath, ErrCode: rp.ErrCode, ErrMsg: rp.ErrMsg}
		for _, res := range rp.ResolvedPathResults {
			req.ResolvedPathResults = append(req.ResolvedPathResults, ResolvedPathResult{
				ResolvedPath: res.ResolvedPath,
				ResultParams: res.ResultParams,
			})
		}
		out.ReqPathResults = append(out.ReqPathResults, req)
	}
	return out
}

func fromWireSetResp(r *v1_3.SetResp) *SetResp {
	out := &SetResp{}
	if r == nil {
		return out
	}
	for _, res := range r.UpdatedObjResults {
		u := UpdatedObjectResult{RequestedPath: res.RequestedPath}
		if res.OperStatus != nil {
			switch s := res.OperStatus.OperStatus.(type) {
			case *v1_3.SetResp_UpdatedObjectResult_OperationStatus_OperFailure:
				if s.OperFailure != nil {
					u.Failure = &OperationFailure{ErrCode: s.OperFailure.ErrCode, ErrMsg: s.OperFailure.ErrMsg}
				}
			case *v1_3.SetResp_UpdatedObjectResult_OperationStatus_OperSuccess:
				if s.OperSuccess != nil {
					for _, inst := range s.OperSuccess.UpdatedInstResults {
						u.UpdatedInstResults = append(u.UpdatedInstResults, UpdatedInstanceResult{
							AffectedPath:  inst.AffectedPath,
							ParamErrs:     fromWireSetParamErrs(inst.ParamErrs),
							UpdatedParams: inst.UpdatedParams,
						})
					}
				}
			}
		}
		out.UpdatedObjResults = append(out.UpdatedObjResults, u)
	}
	return out
}

func fromWireSetParamErrs(errs []*v1_3.SetResp_ParameterError) []ParameterError {
	var out []ParameterError
	for _, pe := range errs {
		out = append(out, ParameterError{Param: pe.Param, ErrCode: pe.ErrCode, ErrMsg: pe.ErrMsg})
	}
	return out
}

func fromWireAddResp(r *v1_3.AddResp) *AddResp {
	out := &AddResp{}
	if r == nil {
		return out
	}
	for _, res := range r.CreatedObjResults {
		c := CreatedObjectResult{RequestedPath: res.RequestedPath}
		if res.OperStatus != nil {
			switch s := res.OperStatus.OperStatus.(type) {
			case *v1_3.AddResp_CreatedObjectResult_OperationStatus_OperFailure:
				if s.OperFailure != nil {
					c.Failure = &OperationFailure{ErrCode: s.OperFailure.ErrCode, ErrMsg: s.OperFailure.ErrMsg}
				}
			case *v1_3.AddResp_CreatedObjectResult_OperationStatus_OperSuccess:
				if s.OperSuccess != nil {
					c.InstantiatedPath = s.OperSuccess.InstantiatedPath
					c.UniqueKeys = s.OperSuccess.UniqueKeys
					for _, pe := range s.OperSuccess.ParamErrs {
						c.ParamErrs = append(c.ParamErrs, ParameterError{Param: pe.Param, ErrCode: pe.ErrCode, ErrMsg: pe.ErrMsg})
					}
				}
			}
		}
		out.CreatedObjResults = append(out.CreatedObjResults, c)
	}
	return out
}

func fromWireDeleteResp(r *v1_3.DeleteResp) *DeleteResp {
	out := &DeleteResp{}
	if r == nil {
		return out
	}
	for _, res := range r.DeletedObjResults {
		d := DeletedObjectResult{RequestedPath: res.RequestedPath}
		if res.OperStatus != nil {
			switch s := res.OperStatus.OperStatus.(type) {
			case *v1_3.DeleteResp_DeletedObjectResult_OperationStatus_OperFailure:
				if s.OperFailure != nil {
					d.Failure = &OperationFailure{ErrCode: s.OperFailure.ErrCode, ErrMsg: s.OperFailure.ErrMsg}
				}
			case *v1_3.DeleteResp_DeletedObjectResult_OperationStatus_OperSuccess:
				if s.OperSuccess != nil {
					d.AffectedPaths = s.OperSuccess.AffectedPaths
				}
			}
		}
		out.DeletedObjResults = append(out.DeletedObjResults, d)
	}
	return out
}

func fromWireOperateResp(r *v1_3.OperateResp) *OperateResp {
	out := &OperateResp{}
	if r == nil {
		return out
	}
	for _, res := range r.OperationResults {
		o := OperationResult{ExecutedCommand: res.ExecutedCommand}
		switch v := res.OperationResp.(type) {
		case *v1_3.OperateResp_OperationResult_ReqObjPath:
			o.ReqObjPath = v.ReqObjPath
		case *v1_3.OperateResp_OperationResult_ReqOutputArgs:
			if v.ReqOutputArgs != nil {
				o.OutputArgs = v.ReqOutputArgs.OutputArgs
			}
		case *v1_3.OperateResp_OperationResult_CmdFailure:
			if v.CmdFailure != nil {
				o.Failure = &OperationFailure{ErrCode: v.CmdFailure.ErrCode, ErrMsg: v.CmdFailure.ErrMsg}
			}
		}
		out.OperationResults = append(out.OperationResults, o)
	}
	return out
}

func fromWireError(e *v1_3.Error) *Error {
	out := &Error{}
	if e == nil {
		return out
	}
	out.ErrCode, out.ErrMsg = e.ErrCode, e.ErrMsg
	for _, pe := range e.ParamErrs {
		out.ParamErrs = append(out.ParamErrs, ParamError{ParamPath: pe.ParamPath, ErrCode: pe.ErrCode, ErrMsg: pe.ErrMsg})
	}
	return out
}
