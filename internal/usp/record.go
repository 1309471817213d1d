package usp

import (
	"fmt"

	"github.com/dexter939/EvoAcs-sub001/pkg/proto/v1_3"
)

// DefaultVersion is the USP record version the controller emits.
const DefaultVersion = "1.3"

// RecordType identifies the record_type oneof of usp-record-1-3.proto.
type RecordType int

const (
	RecordNoSessionContext RecordType = 7
	RecordSessionContext   RecordType = 8
	RecordWebSocketConnect RecordType = 9
	RecordMQTTConnect      RecordType = 10
	RecordSTOMPConnect     RecordType = 11
	RecordDisconnect       RecordType = 12
	RecordUDSConnect       RecordType = 13
)

func (t RecordType) String() string {
	switch t {
	case RecordNoSessionContext:
		return "no_session_context"
	case RecordSessionContext:
		return "session_context"
	case RecordWebSocketConnect:
		return "websocket_connect"
	case RecordMQTTConnect:
		return "mqtt_connect"
	case RecordSTOMPConnect:
		return "stomp_connect"
	case RecordDisconnect:
		return "disconnect"
	case RecordUDSConnect:
		return "uds_connect"
	default:
		return fmt.Sprintf("record_type_%d", int(t))
	}
}

// Record is the USP outer envelope. Payload holds the serialized Msg for
// NoSessionContext and SessionContext records.
type Record struct {
	Version string
	ToID    string
	FromID  string
	Type    RecordType
	Payload []byte

	// SessionContext fields
	SessionID  uint64
	SequenceID uint64
	ExpectedID uint64

	// MQTTConnect / STOMPConnect
	SubscribedTopic string

	// Disconnect
	DisconnectReason string
	DisconnectCode   uint32
}

// WrapInRecord serializes msg into a NoSessionContext record. An empty version means DefaultVersion.
func WrapInRecord(msg *Msg, toID, fromID, version string) (*Record, error) {
	payload, err := MarshalMsg(msg)
	if err != nil {
		return nil, err
	}
	if version == "" {
		version = DefaultVersion
	}
	return &Record{
		Version: version,
		ToID:    toID,
		FromID:  fromID,
		Type:    RecordNoSessionContext,
		Payload: payload,
	}, nil
}

// MarshalRecord serializes r to the USP Record protobuf encoding.
func MarshalRecord(r *Record) ([]byte, error) {
	w := &v1_3.Record{Version: r.Version, ToId: r.ToID, FromId: r.FromID}
	switch r.Type {
	case RecordSessionContext:
		sc := &v1_3.SessionContextRecord{SessionId: r.SessionID, SequenceId: r.SequenceID, ExpectedId: r.ExpectedID}
		if len(r.Payload) > 0 {
			sc.Payload = [][]byte{r.Payload}
		}
		w.RecordType = &v1_3.Record_SessionContext{SessionContext: sc}
	case RecordMQTTConnect:
		w.RecordType = &v1_3.Record_MqttConnect{MqttConnect: &v1_3.MQTTConnectRecord{
			Version:         v1_3.MQTTConnectRecord_V5,
			SubscribedTopic: r.SubscribedTopic,
		}}
	case RecordSTOMPConnect:
		w.RecordType = &v1_3.Record_StompConnect{StompConnect: &v1_3.STOMPConnectRecord{SubscribedDestination: r.SubscribedTopic}}
	case RecordDisconnect:
		w.RecordType = &v1_3.Record_Disconnect{Disconnect: &v1_3.DisconnectRecord{Reason: r.DisconnectReason, ReasonCode: r.DisconnectCode}}
	case RecordWebSocketConnect:
		w.RecordType = &v1_3.Record_WebsocketConnect{WebsocketConnect: &v1_3.WebSocketConnectRecord{}}
	case RecordUDSConnect:
		w.RecordType = &v1_3.Record_UdsConnect{UdsConnect: &v1_3.UDSConnectRecord{}}
	default:
		w.RecordType = &v1_3.Record_NoSessionContext{NoSessionContext: &v1_3.NoSessionContextRecord{Payload: r.Payload}}
	}
	b, err := v1_3.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("usp: marshal record: %w", err)
	}
	return b, nil
}

// UnmarshalRecord parses a USP Record. Input without a record type, or truncated input,
// fails with ErrDecode.
func UnmarshalRecord(b []byte) (*Record, error) {
	var w v1_3.Record
	if err := v1_3.Unmarshal(b, &w); err != nil {
		return nil, fmt.Errorf("%w: record: %v", ErrDecode, err)
	}

	r := &Record{Version: w.Version, ToID: w.ToId, FromID: w.FromId}
	switch v := w.RecordType.(type) {
	case *v1_3.Record_NoSessionContext:
		r.Type = RecordNoSessionContext
		if v.NoSessionContext != nil {
			r.Payload = v.NoSessionContext.Payload
		}
	case *v1_3.Record_SessionContext:
		r.Type = RecordSessionContext
		if sc := v.SessionContext; sc != nil {
			r.SessionID, r.SequenceID, r.ExpectedID = sc.SessionId, sc.SequenceId, sc.ExpectedId
			for _, chunk := range sc.Payload {
				r.Payload = append(r.Payload, chunk...)
			}
		}
	case *v1_3.Record_WebsocketConnect:
		r.Type = RecordWebSocketConnect
	case *v1_3.Record_MqttConnect:
		r.Type = RecordMQTTConnect
		if v.MqttConnect != nil {
			r.SubscribedTopic = v.MqttConnect.SubscribedTopic
		}
	case *v1_3.Record_StompConnect:
		r.Type = RecordSTOMPConnect
		if v.StompConnect != nil {
			r.SubscribedTopic = v.StompConnect.SubscribedDestination
		}
	case *v1_3.Record_Disconnect:
		r.Type = RecordDisconnect
		if v.Disconnect != nil {
			r.DisconnectReason, r.DisconnectCode = v.Disconnect.Reason, v.Disconnect.ReasonCode
		}
	case *v1_3.Record_UdsConnect:
		r.Type = RecordUDSConnect
	default:
		return nil, fmt.Errorf("%w: record has no record_type", ErrDecode)
	}
	return r, nil
}

// CarriesMsg reports whether the record type transports a Msg payload.
func (r *Record) CarriesMsg() bool {
	return r.Type == RecordNoSessionContext || r.Type == RecordSessionContext
}

// ExtractMsg decodes the Msg carried by r.
func ExtractMsg(r *Record) (*Msg, error) {
	if !r.CarriesMsg() {
		return nil, fmt.Errorf("%w: %s record carries no message", ErrDecode, r.Type)
	}
	if len(r.Payload) == 0 {
		return nil, fmt.Errorf("%w: empty record payload", ErrDecode)
	}
	return UnmarshalMsg(r.Payload)
}

// SerializeMsgInRecord is the common outbound path: wrap msg and return the record bytes.
func SerializeMsgInRecord(msg *Msg, toID, fromID, version string) ([]byte, error) {
	rec, err := WrapInRecord(msg, toID, fromID, version)
	if err != nil {
		return nil, err
	}
	return MarshalRecord(rec)
}

// DecodeRecordMsg is the common inbound path: parse record bytes and extract the Msg.
func DecodeRecordMsg(b []byte) (*Record, *Msg, error) {
	rec, err := UnmarshalRecord(b)
	if err != nil {
		return nil, nil, err
	}
	msg, err := ExtractMsg(rec)
	if err != nil {
		return rec, nil, err
	}
	return rec, msg, nil
}
