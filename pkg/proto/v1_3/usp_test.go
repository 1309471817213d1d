package v1_3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRoundTrip(t *testing.T) {
	in := &Record{
		Version: "1.3",
		ToId:    "proto::agent",
		FromId:  "proto::controller",
		RecordType: &Record_SessionContext{SessionContext: &SessionContextRecord{
			SessionId:  9,
			SequenceId: 2,
			Payload:    [][]byte{[]byte("ab"), []byte("cd")},
		}},
	}
	raw, err := Marshal(in)
	require.NoError(t, err)

	var out Record
	require.NoError(t, Unmarshal(raw, &out))
	assert.Equal(t, "proto::controller", out.FromId)
	sc := out.GetSessionContext()
	require.NotNil(t, sc)
	assert.Equal(t, uint64(9), sc.SessionId)
	assert.Equal(t, [][]byte{[]byte("ab"), []byte("cd")}, sc.Payload)
	assert.Nil(t, out.GetNoSessionContext())
}

func TestMsgMapsAreDeterministic(t *testing.T) {
	msg := &Msg{
		Header: &Header{MsgId: "op-1", MsgType: Header_OPERATE},
		Body: &Body{MsgBody: &Body_Request{Request: &Request{ReqType: &Request_Operate{Operate: &Operate{
			Command:   "Device.Reboot()",
			InputArgs: map[string]string{"b": "2", "a": "1", "c": "3"},
		}}}}},
	}
	first, err := Marshal(msg)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Marshal(msg)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	var out Msg
	require.NoError(t, Unmarshal(first, &out))
	op := out.Body.MsgBody.(*Body_Request).Request.ReqType.(*Request_Operate).Operate
	assert.Equal(t, map[string]string{"a": "1", "b": "2", "c": "3"}, op.InputArgs)
	assert.Equal(t, Header_OPERATE, out.Header.MsgType)
}

func TestUnmarshalTruncatedFails(t *testing.T) {
	raw, err := Marshal(&Record{Version: "1.3", RecordType: &Record_NoSessionContext{NoSessionContext: &NoSessionContextRecord{Payload: []byte("xyz")}}})
	require.NoError(t, err)

	var out Record
	assert.Error(t, Unmarshal(raw[:len(raw)-1], &out))
}
