package v1_3

type Header_MsgType int32

const (
	Header_ERROR                    Header_MsgType = 0
	Header_GET                      Header_MsgType = 1
	Header_GET_RESP                 Header_MsgType = 2
	Header_NOTIFY                   Header_MsgType = 3
	Header_SET                      Header_MsgType = 4
	Header_SET_RESP                 Header_MsgType = 5
	Header_OPERATE                  Header_MsgType = 6
	Header_OPERATE_RESP             Header_MsgType = 7
	Header_ADD                      Header_MsgType = 8
	Header_ADD_RESP                 Header_MsgType = 9
	Header_DELETE                   Header_MsgType = 10
	Header_DELETE_RESP              Header_MsgType = 11
	Header_GET_SUPPORTED_DM         Header_MsgType = 12
	Header_GET_SUPPORTED_DM_RESP    Header_MsgType = 13
	Header_GET_INSTANCES            Header_MsgType = 14
	Header_GET_INSTANCES_RESP       Header_MsgType = 15
	Header_NOTIFY_RESP              Header_MsgType = 16
	Header_GET_SUPPORTED_PROTO      Header_MsgType = 17
	Header_GET_SUPPORTED_PROTO_RESP Header_MsgType = 18
	Header_REGISTER                 Header_MsgType = 19
	Header_REGISTER_RESP            Header_MsgType = 20
	Header_DEREGISTER               Header_MsgType = 21
	Header_DEREGISTER_RESP          Header_MsgType = 22
)

type Msg struct {
	Header *Header `protobuf:"bytes,1,opt,name=header,proto3"`
	Body   *Body   `protobuf:"bytes,2,opt,name=body,proto3"`
}

func (m *Msg) Reset()         { *m = Msg{} }
func (m *Msg) String() string { return format(m) }
func (*Msg) ProtoMessage()    {}

type Header struct {
	MsgId   string         `protobuf:"bytes,1,opt,name=msg_id,json=msgId,proto3"`
	MsgType Header_MsgType `protobuf:"varint,2,opt,name=msg_type,json=msgType,proto3,enum=usp.Header_MsgType"`
}

type Body struct {
	// Types that are valid to be assigned to MsgBody:
	//
	//	*Body_Request
	//	*Body_Response
	//	*Body_Error
	MsgBody isBody_MsgBody `protobuf_oneof:"msg_body"`
}

// XXX_OneofWrappers is for the internal use of the proto package.
func (*Body) XXX_OneofWrappers() []interface{} {
	return []interface{}{
		(*Body_Request)(nil),
		(*Body_Response)(nil),
		(*Body_Error)(nil),
	}
}

type isBody_MsgBody interface {
	isBody_MsgBody()
}

type Body_Request struct {
	Request *Request `protobuf:"bytes,1,opt,name=request,proto3,oneof"`
}

type Body_Response struct {
	Response *Response `protobuf:"bytes,2,opt,name=response,proto3,oneof"`
}

type Body_Error struct {
	Error *Error `protobuf:"bytes,3,opt,name=error,proto3,oneof"`
}

func (*Body_Request) isBody_MsgBody()  {}
func (*Body_Response) isBody_MsgBody() {}
func (*Body_Error) isBody_MsgBody()    {}

type Request struct {
	// Types that are valid to be assigned to ReqType:
	//
	//	*Request_Get
	//	*Request_GetSupportedDm
	//	*Request_GetInstances
	//	*Request_Set
	//	*Request_Add
	//	*Request_Delete
	//	*Request_Operate
	//	*Request_Notify
	//	*Request_GetSupportedProtocol
	//	*Request_Register
	//	*Request_Deregister
	ReqType isRequest_ReqType `protobuf_oneof:"req_type"`
}

// XXX_OneofWrappers is for the internal use of the proto package.
func (*Request) XXX_OneofWrappers() []interface{} {
	return []interface{}{
		(*Request_Get)(nil),
		(*Request_GetSupportedDm)(nil),
		(*Request_GetInstances)(nil),
		(*Request_Set)(nil),
		(*Request_Add)(nil),
		(*Request_Delete)(nil),
		(*Request_Operate)(nil),
		(*Request_Notify)(nil),
		(*Request_GetSupportedProtocol)(nil),
		(*Request_Register)(nil),
		(*Request_Deregister)(nil),
	}
}

type isRequest_ReqType interface {
	isRequest_ReqType()
}

type Request_Get struct {
	Get *Get `protobuf:"bytes,1,opt,name=get,proto3,oneof"`
}

type Request_GetSupportedDm struct {
	GetSupportedDm *GetSupportedDM `protobuf:"bytes,2,opt,name=get_supported_dm,json=getSupportedDm,proto3,oneof"`
}

type Request_GetInstances struct {
	GetInstances *GetInstances `protobuf:"bytes,3,opt,name=get_instances,json=getInstances,proto3,oneof"`
}

type Request_Set struct {
	Set *Set `protobuf:"bytes,4,opt,name=set,proto3,oneof"`
}

type Request_Add struct {
	Add *Add `protobuf:"bytes,5,opt,name=add,proto3,oneof"`
}

type Request_Delete struct {
	Delete *Delete `protobuf:"bytes,6,opt,name=delete,proto3,oneof"`
}

type Request_Operate struct {
	Operate *Operate `protobuf:"bytes,7,opt,name=operate,proto3,oneof"`
}

type Request_Notify struct {
	Notify *Notify `protobuf:"bytes,8,opt,name=notify,proto3,oneof"`
}

type Request_GetSupportedProtocol struct {
	GetSupportedProtocol *GetSupportedProtocol `protobuf:"bytes,9,opt,name=get_supported_protocol,json=getSupportedProtocol,proto3,oneof"`
}

type Request_Register struct {
	Register *Register `protobuf:"bytes,10,opt,name=register,proto3,oneof"`
}

type Request_Deregister struct {
	Deregister *Deregister `protobuf:"bytes,11,opt,name=deregister,proto3,oneof"`
}

func (*Request_Get) isRequest_ReqType()                  {}
func (*Request_GetSupportedDm) isRequest_ReqType()       {}
func (*Request_GetInstances) isRequest_ReqType()         {}
func (*Request_Set) isRequest_ReqType()                  {}
func (*Request_Add) isRequest_ReqType()                  {}
func (*Request_Delete) isRequest_ReqType()               {}
func (*Request_Operate) isRequest_ReqType()              {}
func (*Request_Notify) isRequest_ReqType()               {}
func (*Request_GetSupportedProtocol) isRequest_ReqType() {}
func (*Request_Register) isRequest_ReqType()             {}
func (*Request_Deregister) isRequest_ReqType()           {}

type Response struct {
	// Types that are valid to be assigned to RespType:
	//
	//	*Response_GetResp
	//	*Response_GetSupportedDmResp
	//	*Response_GetInstancesResp
	//	*Response_SetResp
	//	*Response_AddResp
	//	*Response_DeleteResp
	//	*Response_OperateResp
	//	*Response_NotifyResp
	//	*Response_GetSupportedProtocolResp
	//	*Response_RegisterResp
	//	*Response_DeregisterResp
	RespType isResponse_RespType `protobuf_oneof:"resp_type"`
}

// XXX_OneofWrappers is for the internal use of the proto package.
func (*Response) XXX_OneofWrappers() []interface{} {
	return []interface{}{
		(*Response_GetResp)(nil),
		(*Response_GetSupportedDmResp)(nil),
		(*Response_GetInstancesResp)(nil),
		(*Response_SetResp)(nil),
		(*Response_AddResp)(nil),
		(*Response_DeleteResp)(nil),
		(*Response_OperateResp)(nil),
		(*Response_NotifyResp)(nil),
		(*Response_GetSupportedProtocolResp)(nil),
		(*Response_RegisterResp)(nil),
		(*Response_DeregisterResp)(nil),
	}
}

type isResponse_RespType interface {
	isResponse_RespType()
}

type Response_GetResp struct {
	GetResp *GetResp `protobuf:"bytes,1,opt,name=get_resp,json=getResp,proto3,oneof"`
}

type Response_GetSupportedDmResp struct {
	GetSupportedDmResp *GetSupportedDMResp `protobuf:"bytes,2,opt,name=get_supported_dm_resp,json=getSupportedDmResp,proto3,oneof"`
}

type Response_GetInstancesResp struct {
	GetInstancesResp *GetInstancesResp `protobuf:"bytes,3,opt,name=get_instances_resp,json=getInstancesResp,proto3,oneof"`
}

type Response_SetResp struct {
	SetResp *SetResp `protobuf:"bytes,4,opt,name=set_resp,json=setResp,proto3,oneof"`
}

type Response_AddResp struct {
	AddResp *AddResp `protobuf:"bytes,5,opt,name=add_resp,json=addResp,proto3,oneof"`
}

type Response_DeleteResp struct {
	DeleteResp *DeleteResp `protobuf:"bytes,6,opt,name=delete_resp,json=deleteResp,proto3,oneof"`
}

type Response_OperateResp struct {
	OperateResp *OperateResp `protobuf:"bytes,7,opt,name=operate_resp,json=operateResp,proto3,oneof"`
}

type Response_NotifyResp struct {
	NotifyResp *NotifyResp `protobuf:"bytes,8,opt,name=notify_resp,json=notifyResp,proto3,oneof"`
}

type Response_GetSupportedProtocolResp struct {
	GetSupportedProtocolResp *GetSupportedProtocolResp `protobuf:"bytes,9,opt,name=get_supported_protocol_resp,json=getSupportedProtocolResp,proto3,oneof"`
}

type Response_RegisterResp struct {
	RegisterResp *RegisterResp `protobuf:"bytes,10,opt,name=register_resp,json=registerResp,proto3,oneof"`
}

type Response_DeregisterResp struct {
	DeregisterResp *DeregisterResp `protobuf:"bytes,11,opt,name=deregister_resp,json=deregisterResp,proto3,oneof"`
}

func (*Response_GetResp) isResponse_RespType()                  {}
func (*Response_GetSupportedDmResp) isResponse_RespType()       {}
func (*Response_GetInstancesResp) isResponse_RespType()         {}
func (*Response_SetResp) isResponse_RespType()                  {}
func (*Response_AddResp) isResponse_RespType()                  {}
func (*Response_DeleteResp) isResponse_RespType()               {}
func (*Response_OperateResp) isResponse_RespType()              {}
func (*Response_NotifyResp) isResponse_RespType()               {}
func (*Response_GetSupportedProtocolResp) isResponse_RespType() {}
func (*Response_RegisterResp) isResponse_RespType()             {}
func (*Response_DeregisterResp) isResponse_RespType()           {}

type Error struct {
	ErrCode   uint32              `protobuf:"fixed32,1,opt,name=err_code,json=errCode,proto3"`
	ErrMsg    string              `protobuf:"bytes,2,opt,name=err_msg,json=errMsg,proto3"`
	ParamErrs []*Error_ParamError `protobuf:"bytes,3,rep,name=param_errs,json=paramErrs,proto3"`
}

type Error_ParamError struct {
	ParamPath string `protobuf:"bytes,1,opt,name=param_path,json=paramPath,proto3"`
	ErrCode   uint32 `protobuf:"fixed32,2,opt,name=err_code,json=errCode,proto3"`
	ErrMsg    string `protobuf:"bytes,3,opt,name=err_msg,json=errMsg,proto3"`
}

type Get struct {
	ParamPaths []string `protobuf:"bytes,1,rep,name=param_paths,json=paramPaths,proto3"`
	MaxDepth   uint32   `protobuf:"fixed32,2,opt,name=max_depth,json=maxDepth,proto3"`
}

type GetResp struct {
	ReqPathResults []*GetResp_RequestedPathResult `protobuf:"bytes,1,rep,name=req_path_results,json=reqPathResults,proto3"`
}

type GetResp_RequestedPathResult struct {
	RequestedPath       string                         `protobuf:"bytes,1,opt,name=requested_path,json=requestedPath,proto3"`
	ErrCode             uint32                         `protobuf:"fixed32,2,opt,name=err_code,json=errCode,proto3"`
	ErrMsg              string                         `protobuf:"bytes,3,opt,name=err_msg,json=errMsg,proto3"`
	ResolvedPathResults []*GetResp_ResolvedPathResult `protobuf:"bytes,4,rep,name=resolved_path_results,json=resolvedPathResults,proto3"`
}

type GetResp_ResolvedPathResult struct {
	ResolvedPath string            `protobuf:"bytes,1,opt,name=resolved_path,json=resolvedPath,proto3"`
	ResultParams map[string]string `protobuf:"bytes,2,rep,name=result_params,json=resultParams,proto3" protobuf_key:"bytes,1,opt,name=key,proto3" protobuf_val:"bytes,2,opt,name=value,proto3"`
}

// GetSupportedDM, GetInstances and GetSupportedProtocol carry only the fields this controller reads.

type GetSupportedDM struct {
	ObjPaths       []string `protobuf:"bytes,1,rep,name=obj_paths,json=objPaths,proto3"`
	FirstLevelOnly bool     `protobuf:"varint,2,opt,name=first_level_only,json=firstLevelOnly,proto3"`
	ReturnCommands bool     `protobuf:"varint,3,opt,name=return_commands,json=returnCommands,proto3"`
	ReturnEvents   bool     `protobuf:"varint,4,opt,name=return_events,json=returnEvents,proto3"`
	ReturnParams   bool     `protobuf:"varint,5,opt,name=return_params,json=returnParams,proto3"`
}

type GetSupportedDMResp struct{}

type GetInstances struct {
	ObjPaths       []string `protobuf:"bytes,1,rep,name=obj_paths,json=objPaths,proto3"`
	FirstLevelOnly bool     `protobuf:"varint,2,opt,name=first_level_only,json=firstLevelOnly,proto3"`
}

type GetInstancesResp struct{}

type GetSupportedProtocol struct {
	ControllerSupportedProtocolVersions string `protobuf:"bytes,1,opt,name=controller_supported_protocol_versions,json=controllerSupportedProtocolVersions,proto3"`
}

type GetSupportedProtocolResp struct {
	AgentSupportedProtocolVersions string `protobuf:"bytes,1,opt,name=agent_supported_protocol_versions,json=agentSupportedProtocolVersions,proto3"`
}

type Register struct {
	AllowPartial bool `protobuf:"varint,1,opt,name=allow_partial,json=allowPartial,proto3"`
}

type RegisterResp struct{}

type Deregister struct {
	Paths []string `protobuf:"bytes,1,rep,name=paths,proto3"`
}

type DeregisterResp struct{}

type Set struct {
	AllowPartial bool                `protobuf:"varint,1,opt,name=allow_partial,json=allowPartial,proto3"`
	UpdateObjs   []*Set_UpdateObject `protobuf:"bytes,2,rep,name=update_objs,json=updateObjs,proto3"`
}

type Set_UpdateObject struct {
	ObjPath       string                    `protobuf:"bytes,1,opt,name=obj_path,json=objPath,proto3"`
	ParamSettings []*Set_UpdateParamSetting `protobuf:"bytes,2,rep,name=param_settings,json=paramSettings,proto3"`
}

type Set_UpdateParamSetting struct {
	Param    string `protobuf:"bytes,1,opt,name=param,proto3"`
	Value    string `protobuf:"bytes,2,opt,name=value,proto3"`
	Required bool   `protobuf:"varint,3,opt,name=required,proto3"`
}

type SetResp struct {
	UpdatedObjResults []*SetResp_UpdatedObjectResult `protobuf:"bytes,1,rep,name=updated_obj_results,json=updatedObjResults,proto3"`
}

type SetResp_UpdatedObjectResult struct {
	RequestedPath string                                       `protobuf:"bytes,1,opt,name=requested_path,json=requestedPath,proto3"`
	OperStatus    *SetResp_UpdatedObjectResult_OperationStatus `protobuf:"bytes,2,opt,name=oper_status,json=operStatus,proto3"`
}

type SetResp_UpdatedObjectResult_OperationStatus struct {
	// Types that are valid to be assigned to OperStatus:
	//
	//	*SetResp_UpdatedObjectResult_OperationStatus_OperFailure
	//	*SetResp_UpdatedObjectResult_OperationStatus_OperSuccess
	OperStatus isSetResp_UpdatedObjectResult_OperationStatus_OperStatus `protobuf_oneof:"oper_status"`
}

// XXX_OneofWrappers is for the internal use of the proto package.
func (*SetResp_UpdatedObjectResult_OperationStatus) XXX_OneofWrappers() []interface{} {
	return []interface{}{
		(*SetResp_UpdatedObjectResult_OperationStatus_OperFailure)(nil),
		(*SetResp_UpdatedObjectResult_OperationStatus_OperSuccess)(nil),
	}
}

type isSetResp_UpdatedObjectResult_OperationStatus_OperStatus interface {
	isSetResp_UpdatedObjectResult_OperationStatus_OperStatus()
}

type SetResp_UpdatedObjectResult_OperationStatus_OperFailure struct {
	OperFailure *SetResp_UpdatedObjectResult_OperationStatus_OperationFailure `protobuf:"bytes,1,opt,name=oper_failure,json=operFailure,proto3,oneof"`
}

type SetResp_UpdatedObjectResult_OperationStatus_OperSuccess struct {
	OperSuccess *SetResp_UpdatedObjectResult_OperationStatus_OperationSuccess `protobuf:"bytes,2,opt,name=oper_success,json=operSuccess,proto3,oneof"`
}

func (*SetResp_UpdatedObjectResult_OperationStatus_OperFailure) isSetResp_UpdatedObjectResult_OperationStatus_OperStatus() {
}
func (*SetResp_UpdatedObjectResult_OperationStatus_OperSuccess) isSetResp_UpdatedObjectResult_OperationStatus_OperStatus() {
}

type SetResp_UpdatedObjectResult_OperationStatus_OperationFailure struct {
	ErrCode             uint32                            `protobuf:"fixed32,1,opt,name=err_code,json=errCode,proto3"`
	ErrMsg              string                            `protobuf:"bytes,2,opt,name=err_msg,json=errMsg,proto3"`
	UpdatedInstFailures []*SetResp_UpdatedInstanceFailure `protobuf:"bytes,3,rep,name=updated_inst_failures,json=updatedInstFailures,proto3"`
}

type SetResp_UpdatedObjectResult_OperationStatus_OperationSuccess struct {
	UpdatedInstResults []*SetResp_UpdatedInstanceResult `protobuf:"bytes,1,rep,name=updated_inst_results,json=updatedInstResults,proto3"`
}

type SetResp_UpdatedInstanceFailure struct {
	AffectedPath string                    `protobuf:"bytes,1,opt,name=affected_path,json=affectedPath,proto3"`
	ParamErrs    []*SetResp_ParameterError `protobuf:"bytes,2,rep,name=param_errs,json=paramErrs,proto3"`
}

type SetResp_UpdatedInstanceResult struct {
	AffectedPath  string                    `protobuf:"bytes,1,opt,name=affected_path,json=affectedPath,proto3"`
	ParamErrs     []*SetResp_ParameterError `protobuf:"bytes,2,rep,name=param_errs,json=paramErrs,proto3"`
	UpdatedParams map[string]string         `protobuf:"bytes,3,rep,name=updated_params,json=updatedParams,proto3" protobuf_key:"bytes,1,opt,name=key,proto3" protobuf_val:"bytes,2,opt,name=value,proto3"`
}

type SetResp_ParameterError struct {
	Param   string `protobuf:"bytes,1,opt,name=param,proto3"`
	ErrCode uint32 `protobuf:"fixed32,2,opt,name=err_code,json=errCode,proto3"`
	ErrMsg  string `protobuf:"bytes,3,opt,name=err_msg,json=errMsg,proto3"`
}

type Add struct {
	AllowPartial bool                `protobuf:"varint,1,opt,name=allow_partial,json=allowPartial,proto3"`
	CreateObjs   []*Add_CreateObject `protobuf:"bytes,2,rep,name=create_objs,json=createObjs,proto3"`
}

type Add_CreateObject struct {
	ObjPath       string                    `protobuf:"bytes,1,opt,name=obj_path,json=objPath,proto3"`
	ParamSettings []*Add_CreateParamSetting `protobuf:"bytes,2,rep,name=param_settings,json=paramSettings,proto3"`
}

type Add_CreateParamSetting struct {
	Param    string `protobuf:"bytes,1,opt,name=param,proto3"`
	Value    string `protobuf:"bytes,2,opt,name=value,proto3"`
	Required bool   `protobuf:"varint,3,opt,name=required,proto3"`
}

type AddResp struct {
	CreatedObjResults []*AddResp_CreatedObjectResult `protobuf:"bytes,1,rep,name=created_obj_results,json=createdObjResults,proto3"`
}

type AddResp_CreatedObjectResult struct {
	RequestedPath string                                       `protobuf:"bytes,1,opt,name=requested_path,json=requestedPath,proto3"`
	OperStatus    *AddResp_CreatedObjectResult_OperationStatus `protobuf:"bytes,2,opt,name=oper_status,json=operStatus,proto3"`
}

type AddResp_CreatedObjectResult_OperationStatus struct {
	// Types that are valid to be assigned to OperStatus:
	//
	//	*AddResp_CreatedObjectResult_OperationStatus_OperFailure
	//	*AddResp_CreatedObjectResult_OperationStatus_OperSuccess
	OperStatus isAddResp_CreatedObjectResult_OperationStatus_OperStatus `protobuf_oneof:"oper_status"`
}

// XXX_OneofWrappers is for the internal use of the proto package.
func (*AddResp_CreatedObjectResult_OperationStatus) XXX_OneofWrappers() []interface{} {
	return []interface{}{
		(*AddResp_CreatedObjectResult_OperationStatus_OperFailure)(nil),
		(*AddResp_CreatedObjectResult_OperationStatus_OperSuccess)(nil),
	}
}

type isAddResp_CreatedObjectResult_OperationStatus_OperStatus interface {
	isAddResp_CreatedObjectResult_OperationStatus_OperStatus()
}

type AddResp_CreatedObjectResult_OperationStatus_OperFailure struct {
	OperFailure *AddResp_CreatedObjectResult_OperationStatus_OperationFailure `protobuf:"bytes,1,opt,name=oper_failure,json=operFailure,proto3,oneof"`
}

type AddResp_CreatedObjectResult_OperationStatus_OperSuccess struct {
	OperSuccess *AddResp_CreatedObjectResult_OperationStatus_OperationSuccess `protobuf:"bytes,2,opt,name=oper_success,json=operSuccess,proto3,oneof"`
}

func (*AddResp_CreatedObjectResult_OperationStatus_OperFailure) isAddResp_CreatedObjectResult_OperationStatus_OperStatus() {
}
func (*AddResp_CreatedObjectResult_OperationStatus_OperSuccess) isAddResp_CreatedObjectResult_OperationStatus_OperStatus() {
}

type AddResp_CreatedObjectResult_OperationStatus_OperationFailure struct {
	ErrCode uint32 `protobuf:"fixed32,1,opt,name=err_code,json=errCode,proto3"`
	ErrMsg  string `protobuf:"bytes,2,opt,name=err_msg,json=errMsg,proto3"`
}

type AddResp_CreatedObjectResult_OperationStatus_OperationSuccess struct {
	InstantiatedPath string                    `protobuf:"bytes,1,opt,name=instantiated_path,json=instantiatedPath,proto3"`
	ParamErrs        []*AddResp_ParameterError `protobuf:"bytes,2,rep,name=param_errs,json=paramErrs,proto3"`
	UniqueKeys       map[string]string         `protobuf:"bytes,3,rep,name=unique_keys,json=uniqueKeys,proto3" protobuf_key:"bytes,1,opt,name=key,proto3" protobuf_val:"bytes,2,opt,name=value,proto3"`
}

type AddResp_ParameterError struct {
	Param   string `protobuf:"bytes,1,opt,name=param,proto3"`
	ErrCode uint32 `protobuf:"fixed32,2,opt,name=err_code,json=errCode,proto3"`
	ErrMsg  string `protobuf:"bytes,3,opt,name=err_msg,json=errMsg,proto3"`
}

type Delete struct {
	AllowPartial bool     `protobuf:"varint,1,opt,name=allow_partial,json=allowPartial,proto3"`
	ObjPaths     []string `protobuf:"bytes,2,rep,name=obj_paths,json=objPaths,proto3"`
}

type DeleteResp struct {
	DeletedObjResults []*DeleteResp_DeletedObjectResult `protobuf:"bytes,1,rep,name=deleted_obj_results,json=deletedObjResults,proto3"`
}

type DeleteResp_DeletedObjectResult struct {
	RequestedPath string                                          `protobuf:"bytes,1,opt,name=requested_path,json=requestedPath,proto3"`
	OperStatus    *DeleteResp_DeletedObjectResult_OperationStatus `protobuf:"bytes,2,opt,name=oper_status,json=operStatus,proto3"`
}

type DeleteResp_DeletedObjectResult_OperationStatus struct {
	// Types that are valid to be assigned to OperStatus:
	//
	//	*DeleteResp_DeletedObjectResult_OperationStatus_OperFailure
	//	*DeleteResp_DeletedObjectResult_OperationStatus_OperSuccess
	OperStatus isDeleteResp_DeletedObjectResult_OperationStatus_OperStatus `protobuf_oneof:"oper_status"`
}

// XXX_OneofWrappers is for the internal use of the proto package.
func (*DeleteResp_DeletedObjectResult_OperationStatus) XXX_OneofWrappers() []interface{} {
	return []interface{}{
		(*DeleteResp_DeletedObjectResult_OperationStatus_OperFailure)(nil),
		(*DeleteResp_DeletedObjectResult_OperationStatus_OperSuccess)(nil),
	}
}

type isDeleteResp_DeletedObjectResult_OperationStatus_OperStatus interface {
	isDeleteResp_DeletedObjectResult_OperationStatus_OperStatus()
}

type DeleteResp_DeletedObjectResult_OperationStatus_OperFailure struct {
	OperFailure *DeleteResp_DeletedObjectResult_OperationStatus_OperationFailure `protobuf:"bytes,1,opt,name=oper_failure,json=operFailure,proto3,oneof"`
}

type DeleteResp_DeletedObjectResult_OperationStatus_OperSuccess struct {
	OperSuccess *DeleteResp_DeletedObjectResult_OperationStatus_OperationSuccess `protobuf:"bytes,2,opt,name=oper_success,json=operSuccess,proto3,oneof"`
}

func (*DeleteResp_DeletedObjectResult_OperationStatus_OperFailure) isDeleteResp_DeletedObjectResult_OperationStatus_OperStatus() {
}
func (*DeleteResp_DeletedObjectResult_OperationStatus_OperSuccess) isDeleteResp_DeletedObjectResult_OperationStatus_OperStatus() {
}

type DeleteResp_DeletedObjectResult_OperationStatus_OperationFailure struct {
	ErrCode uint32 `protobuf:"fixed32,1,opt,name=err_code,json=errCode,proto3"`
	ErrMsg  string `protobuf:"bytes,2,opt,name=err_msg,json=errMsg,proto3"`
}

type DeleteResp_DeletedObjectResult_OperationStatus_OperationSuccess struct {
	AffectedPaths      []string                          `protobuf:"bytes,1,rep,name=affected_paths,json=affectedPaths,proto3"`
	UnaffectedPathErrs []*DeleteResp_UnaffectedPathError `protobuf:"bytes,2,rep,name=unaffected_path_errs,json=unaffectedPathErrs,proto3"`
}

type DeleteResp_UnaffectedPathError struct {
	UnaffectedPath string `protobuf:"bytes,1,opt,name=unaffected_path,json=unaffectedPath,proto3"`
	ErrCode        uint32 `protobuf:"fixed32,2,opt,name=err_code,json=errCode,proto3"`
	ErrMsg         string `protobuf:"bytes,3,opt,name=err_msg,json=errMsg,proto3"`
}

type Operate struct {
	Command    string            `protobuf:"bytes,1,opt,name=command,proto3"`
	CommandKey string            `protobuf:"bytes,2,opt,name=command_key,json=commandKey,proto3"`
	SendResp   bool              `protobuf:"varint,3,opt,name=send_resp,json=sendResp,proto3"`
	InputArgs  map[string]string `protobuf:"bytes,4,rep,name=input_args,json=inputArgs,proto3" protobuf_key:"bytes,1,opt,name=key,proto3" protobuf_val:"bytes,2,opt,name=value,proto3"`
}

type OperateResp struct {
	OperationResults []*OperateResp_OperationResult `protobuf:"bytes,1,rep,name=operation_results,json=operationResults,proto3"`
}

type OperateResp_OperationResult struct {
	ExecutedCommand string `protobuf:"bytes,1,opt,name=executed_command,json=executedCommand,proto3"`
	// Types that are valid to be assigned to OperationResp:
	//
	//	*OperateResp_OperationResult_ReqObjPath
	//	*OperateResp_OperationResult_ReqOutputArgs
	//	*OperateResp_OperationResult_CmdFailure
	OperationResp isOperateResp_OperationResult_OperationResp `protobuf_oneof:"operation_resp"`
}

// XXX_OneofWrappers is for the internal use of the proto package.
func (*OperateResp_OperationResult) XXX_OneofWrappers() []interface{} {
	return []interface{}{
		(*OperateResp_OperationResult_ReqObjPath)(nil),
		(*OperateResp_OperationResult_ReqOutputArgs)(nil),
		(*OperateResp_OperationResult_CmdFailure)(nil),
	}
}

type isOperateResp_OperationResult_OperationResp interface {
	isOperateResp_OperationResult_OperationResp()
}

type OperateResp_OperationResult_ReqObjPath struct {
	ReqObjPath string `protobuf:"bytes,2,opt,name=req_obj_path,json=reqObjPath,proto3,oneof"`
}

type OperateResp_OperationResult_ReqOutputArgs struct {
	ReqOutputArgs *OperateResp_OperationResult_OutputArgs `protobuf:"bytes,3,opt,name=req_output_args,json=reqOutputArgs,proto3,oneof"`
}

type OperateResp_OperationResult_CmdFailure struct {
	CmdFailure *OperateResp_OperationResult_CommandFailure `protobuf:"bytes,4,opt,name=cmd_failure,json=cmdFailure,proto3,oneof"`
}

func (*OperateResp_OperationResult_ReqObjPath) isOperateResp_OperationResult_OperationResp()    {}
func (*OperateResp_OperationResult_ReqOutputArgs) isOperateResp_OperationResult_OperationResp() {}
func (*OperateResp_OperationResult_CmdFailure) isOperateResp_OperationResult_OperationResp()    {}

type OperateResp_OperationResult_OutputArgs struct {
	OutputArgs map[string]string `protobuf:"bytes,1,rep,name=output_args,json=outputArgs,proto3" protobuf_key:"bytes,1,opt,name=key,proto3" protobuf_val:"bytes,2,opt,name=value,proto3"`
}

type OperateResp_OperationResult_CommandFailure struct {
	ErrCode uint32 `protobuf:"fixed32,1,opt,name=err_code,json=errCode,proto3"`
	ErrMsg  string `protobuf:"bytes,2,opt,name=err_msg,json=errMsg,proto3"`
}

type Notify struct {
	SubscriptionId string `protobuf:"bytes,1,opt,name=subscription_id,json=subscriptionId,proto3"`
	SendResp       bool   `protobuf:"varint,2,opt,name=send_resp,json=sendResp,proto3"`
	// Types that are valid to be assigned to Notification:
	//
	//	*Notify_Event_
	//	*Notify_ValueChange_
	//	*Notify_ObjCreation
	//	*Notify_ObjDeletion
	//	*Notify_OperComplete
	//	*Notify_OnBoardReq
	Notification isNotify_Notification `protobuf_oneof:"notification"`
}

// XXX_OneofWrappers is for the internal use of the proto package.
func (*Notify) XXX_OneofWrappers() []interface{} {
	return []interface{}{
		(*Notify_Event_)(nil),
		(*Notify_ValueChange_)(nil),
		(*Notify_ObjCreation)(nil),
		(*Notify_ObjDeletion)(nil),
		(*Notify_OperComplete)(nil),
		(*Notify_OnBoardReq)(nil),
	}
}

type isNotify_Notification interface {
	isNotify_Notification()
}

type Notify_Event_ struct {
	Event *Notify_Event `protobuf:"bytes,3,opt,name=event,proto3,oneof"`
}

type Notify_ValueChange_ struct {
	ValueChange *Notify_ValueChange `protobuf:"bytes,4,opt,name=value_change,json=valueChange,proto3,oneof"`
}

type Notify_ObjCreation struct {
	ObjCreation *Notify_ObjectCreation `protobuf:"bytes,5,opt,name=obj_creation,json=objCreation,proto3,oneof"`
}

type Notify_ObjDeletion struct {
	ObjDeletion *Notify_ObjectDeletion `protobuf:"bytes,6,opt,name=obj_deletion,json=objDeletion,proto3,oneof"`
}

type Notify_OperComplete struct {
	OperComplete *Notify_OperationComplete `protobuf:"bytes,7,opt,name=oper_complete,json=operComplete,proto3,oneof"`
}

type Notify_OnBoardReq struct {
	OnBoardReq *Notify_OnBoardRequest `protobuf:"bytes,8,opt,name=on_board_req,json=onBoardReq,proto3,oneof"`
}

func (*Notify_Event_) isNotify_Notification()       {}
func (*Notify_ValueChange_) isNotify_Notification() {}
func (*Notify_ObjCreation) isNotify_Notification()  {}
func (*Notify_ObjDeletion) isNotify_Notification()  {}
func (*Notify_OperComplete) isNotify_Notification() {}
func (*Notify_OnBoardReq) isNotify_Notification()   {}

type Notify_Event struct {
	ObjPath   string            `protobuf:"bytes,1,opt,name=obj_path,json=objPath,proto3"`
	EventName string            `protobuf:"bytes,2,opt,name=event_name,json=eventName,proto3"`
	Params    map[string]string `protobuf:"bytes,3,rep,name=params,proto3" protobuf_key:"bytes,1,opt,name=key,proto3" protobuf_val:"bytes,2,opt,name=value,proto3"`
}

type Notify_ValueChange struct {
	ParamPath  string `protobuf:"bytes,1,opt,name=param_path,json=paramPath,proto3"`
	ParamValue string `protobuf:"bytes,2,opt,name=param_value,json=paramValue,proto3"`
}

type Notify_ObjectCreation struct {
	ObjPath    string            `protobuf:"bytes,1,opt,name=obj_path,json=objPath,proto3"`
	UniqueKeys map[string]string `protobuf:"bytes,2,rep,name=unique_keys,json=uniqueKeys,proto3" protobuf_key:"bytes,1,opt,name=key,proto3" protobuf_val:"bytes,2,opt,name=value,proto3"`
}

type Notify_ObjectDeletion struct {
	ObjPath string `protobuf:"bytes,1,opt,name=obj_path,json=objPath,proto3"`
}

type Notify_OperationComplete struct {
	ObjPath     string `protobuf:"bytes,1,opt,name=obj_path,json=objPath,proto3"`
	CommandName string `protobuf:"bytes,2,opt,name=command_name,json=commandName,proto3"`
	CommandKey  string `protobuf:"bytes,3,opt,name=command_key,json=commandKey,proto3"`
	// Types that are valid to be assigned to OperationResp:
	//
	//	*Notify_OperationComplete_ReqOutputArgs
	//	*Notify_OperationComplete_CmdFailure
	OperationResp isNotify_OperationComplete_OperationResp `protobuf_oneof:"operation_resp"`
}

// XXX_OneofWrappers is for the internal use of the proto package.
func (*Notify_OperationComplete) XXX_OneofWrappers() []interface{} {
	return []interface{}{
		(*Notify_OperationComplete_ReqOutputArgs)(nil),
		(*Notify_OperationComplete_CmdFailure)(nil),
	}
}

type isNotify_OperationComplete_OperationResp interface {
	isNotify_OperationComplete_OperationResp()
}

type Notify_OperationComplete_ReqOutputArgs struct {
	ReqOutputArgs *Notify_OperationComplete_OutputArgs `protobuf:"bytes,4,opt,name=req_output_args,json=reqOutputArgs,proto3,oneof"`
}

type Notify_OperationComplete_CmdFailure struct {
	CmdFailure *Notify_OperationComplete_CommandFailure `protobuf:"bytes,5,opt,name=cmd_failure,json=cmdFailure,proto3,oneof"`
}

func (*Notify_OperationComplete_ReqOutputArgs) isNotify_OperationComplete_OperationResp() {}
func (*Notify_OperationComplete_CmdFailure) isNotify_OperationComplete_OperationResp()    {}

type Notify_OperationComplete_OutputArgs struct {
	OutputArgs map[string]string `protobuf:"bytes,1,rep,name=output_args,json=outputArgs,proto3" protobuf_key:"bytes,1,opt,name=key,proto3" protobuf_val:"bytes,2,opt,name=value,proto3"`
}

type Notify_OperationComplete_CommandFailure struct {
	ErrCode uint32 `protobuf:"fixed32,1,opt,name=err_code,json=errCode,proto3"`
	ErrMsg  string `protobuf:"bytes,2,opt,name=err_msg,json=errMsg,proto3"`
}

type Notify_OnBoardRequest struct {
	Oui                            string `protobuf:"bytes,1,opt,name=oui,proto3"`
	ProductClass                   string `protobuf:"bytes,2,opt,name=product_class,json=productClass,proto3"`
	SerialNumber                   string `protobuf:"bytes,3,opt,name=serial_number,json=serialNumber,proto3"`
	AgentSupportedProtocolVersions string `protobuf:"bytes,4,opt,name=agent_supported_protocol_versions,json=agentSupportedProtocolVersions,proto3"`
}

type NotifyResp struct {
	SubscriptionId string `protobuf:"bytes,1,opt,name=subscription_id,json=subscriptionId,proto3"`
}
