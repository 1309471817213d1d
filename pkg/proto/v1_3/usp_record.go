// Package v1_3 holds the TR-369 USP 1.3 Record and Msg messages (usp-record-1-3.proto and
// usp-msg-1-3.proto) as protobuf-tagged Go structs. They are encoded and decoded by
// google.golang.org/protobuf through Marshal and Unmarshal.
package v1_3

import (
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/protoadapt"
)

var marshalOptions = proto.MarshalOptions{Deterministic: true}

// Marshal encodes a Record or Msg to its protobuf wire form. Map entries are emitted in key order.
func Marshal(m protoadapt.MessageV1) ([]byte, error) {
	return marshalOptions.Marshal(protoadapt.MessageV2Of(m))
}

// Unmarshal decodes b into a Record or Msg.
func Unmarshal(b []byte, m protoadapt.MessageV1) error {
	return proto.Unmarshal(b, protoadapt.MessageV2Of(m))
}

func format(m protoadapt.MessageV1) string {
	return prototext.Format(protoadapt.MessageV2Of(m))
}

type Record_PayloadSecurity int32

const (
	Record_PLAINTEXT Record_PayloadSecurity = 0
	Record_TLS12     Record_PayloadSecurity = 1
)

type Record struct {
	Version         string                 `protobuf:"bytes,1,opt,name=version,proto3"`
	ToId            string                 `protobuf:"bytes,2,opt,name=to_id,json=toId,proto3"`
	FromId          string                 `protobuf:"bytes,3,opt,name=from_id,json=fromId,proto3"`
	PayloadSecurity Record_PayloadSecurity `protobuf:"varint,4,opt,name=payload_security,json=payloadSecurity,proto3,enum=usp_record.Record_PayloadSecurity"`
	MacSignature    []byte                 `protobuf:"bytes,5,opt,name=mac_signature,json=macSignature,proto3"`
	SenderCert      []byte                 `protobuf:"bytes,6,opt,name=sender_cert,json=senderCert,proto3"`
	// Types that are valid to be assigned to RecordType:
	//
	//	*Record_NoSessionContext
	//	*Record_SessionContext
	//	*Record_WebsocketConnect
	//	*Record_MqttConnect
	//	*Record_StompConnect
	//	*Record_Disconnect
	//	*Record_UdsConnect
	RecordType isRecord_RecordType `protobuf_oneof:"record_type"`
}

func (m *Record) Reset()         { *m = Record{} }
func (m *Record) String() string { return format(m) }
func (*Record) ProtoMessage()    {}

// XXX_OneofWrappers is for the internal use of the proto package.
func (*Record) XXX_OneofWrappers() []interface{} {
	return []interface{}{
		(*Record_NoSessionContext)(nil),
		(*Record_SessionContext)(nil),
		(*Record_WebsocketConnect)(nil),
		(*Record_MqttConnect)(nil),
		(*Record_StompConnect)(nil),
		(*Record_Disconnect)(nil),
		(*Record_UdsConnect)(nil),
	}
}

type isRecord_RecordType interface {
	isRecord_RecordType()
}

type Record_NoSessionContext struct {
	NoSessionContext *NoSessionContextRecord `protobuf:"bytes,7,opt,name=no_session_context,json=noSessionContext,proto3,oneof"`
}

type Record_SessionContext struct {
	SessionContext *SessionContextRecord `protobuf:"bytes,8,opt,name=session_context,json=sessionContext,proto3,oneof"`
}

type Record_WebsocketConnect struct {
	WebsocketConnect *WebSocketConnectRecord `protobuf:"bytes,9,opt,name=websocket_connect,json=websocketConnect,proto3,oneof"`
}

type Record_MqttConnect struct {
	MqttConnect *MQTTConnectRecord `protobuf:"bytes,10,opt,name=mqtt_connect,json=mqttConnect,proto3,oneof"`
}

type Record_StompConnect struct {
	StompConnect *STOMPConnectRecord `protobuf:"bytes,11,opt,name=stomp_connect,json=stompConnect,proto3,oneof"`
}

type Record_Disconnect struct {
	Disconnect *DisconnectRecord `protobuf:"bytes,12,opt,name=disconnect,proto3,oneof"`
}

type Record_UdsConnect struct {
	UdsConnect *UDSConnectRecord `protobuf:"bytes,13,opt,name=uds_connect,json=udsConnect,proto3,oneof"`
}

func (*Record_NoSessionContext) isRecord_RecordType() {}
func (*Record_SessionContext) isRecord_RecordType()   {}
func (*Record_WebsocketConnect) isRecord_RecordType() {}
func (*Record_MqttConnect) isRecord_RecordType()      {}
func (*Record_StompConnect) isRecord_RecordType()     {}
func (*Record_Disconnect) isRecord_RecordType()       {}
func (*Record_UdsConnect) isRecord_RecordType()       {}

func (m *Record) GetNoSessionContext() *NoSessionContextRecord {
	if x, ok := m.RecordType.(*Record_NoSessionContext); ok {
		return x.NoSessionContext
	}
	return nil
}

func (m *Record) GetSessionContext() *SessionContextRecord {
	if x, ok := m.RecordType.(*Record_SessionContext); ok {
		return x.SessionContext
	}
	return nil
}

func (m *Record) GetMqttConnect() *MQTTConnectRecord {
	if x, ok := m.RecordType.(*Record_MqttConnect); ok {
		return x.MqttConnect
	}
	return nil
}

func (m *Record) GetStompConnect() *STOMPConnectRecord {
	if x, ok := m.RecordType.(*Record_StompConnect); ok {
		return x.StompConnect
	}
	return nil
}

func (m *Record) GetDisconnect() *DisconnectRecord {
	if x, ok := m.RecordType.(*Record_Disconnect); ok {
		return x.Disconnect
	}
	return nil
}

type NoSessionContextRecord struct {
	Payload []byte `protobuf:"bytes,2,opt,name=payload,proto3"`
}

type SessionContextRecord_PayloadSARState int32

const (
	SessionContextRecord_NONE      SessionContextRecord_PayloadSARState = 0
	SessionContextRecord_BEGIN     SessionContextRecord_PayloadSARState = 1
	SessionContextRecord_INPROCESS SessionContextRecord_PayloadSARState = 2
	SessionContextRecord_COMPLETE  SessionContextRecord_PayloadSARState = 3
)

type SessionContextRecord struct {
	SessionId          uint64                               `protobuf:"varint,1,opt,name=session_id,json=sessionId,proto3"`
	SequenceId         uint64                               `protobuf:"varint,2,opt,name=sequence_id,json=sequenceId,proto3"`
	ExpectedId         uint64                               `protobuf:"varint,3,opt,name=expected_id,json=expectedId,proto3"`
	RetransmitId       uint64                               `protobuf:"varint,4,opt,name=retransmit_id,json=retransmitId,proto3"`
	PayloadSarState    SessionContextRecord_PayloadSARState `protobuf:"varint,5,opt,name=payload_sar_state,json=payloadSarState,proto3,enum=usp_record.SessionContextRecord_PayloadSARState"`
	PayloadrecSarState SessionContextRecord_PayloadSARState `protobuf:"varint,6,opt,name=payloadrec_sar_state,json=payloadrecSarState,proto3,enum=usp_record.SessionContextRecord_PayloadSARState"`
	Payload            [][]byte                             `protobuf:"bytes,7,rep,name=payload,proto3"`
}

type WebSocketConnectRecord struct{}

type MQTTConnectRecord_MQTTVersion int32

const (
	MQTTConnectRecord_V3_1_1 MQTTConnectRecord_MQTTVersion = 0
	MQTTConnectRecord_V5     MQTTConnectRecord_MQTTVersion = 1
)

type MQTTConnectRecord struct {
	Version         MQTTConnectRecord_MQTTVersion `protobuf:"varint,1,opt,name=version,proto3,enum=usp_record.MQTTConnectRecord_MQTTVersion"`
	SubscribedTopic string                        `protobuf:"bytes,2,opt,name=subscribed_topic,json=subscribedTopic,proto3"`
}

type STOMPConnectRecord_STOMPVersion int32

const (
	STOMPConnectRecord_V1_2 STOMPConnectRecord_STOMPVersion = 0
)

type STOMPConnectRecord struct {
	Version               STOMPConnectRecord_STOMPVersion `protobuf:"varint,1,opt,name=version,proto3,enum=usp_record.STOMPConnectRecord_STOMPVersion"`
	SubscribedDestination string                          `protobuf:"bytes,2,opt,name=subscribed_destination,json=subscribedDestination,proto3"`
}

type DisconnectRecord struct {
	Reason     string `protobuf:"bytes,1,opt,name=reason,proto3"`
	ReasonCode uint32 `protobuf:"fixed32,2,opt,name=reason_code,json=reasonCode,proto3"`
}

type UDSConnectRecord struct{}
