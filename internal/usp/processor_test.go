package usp

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dexter939/EvoAcs-sub001/pkg/proto/v1_3"
)

type fakeDevices struct {
	mu      sync.Mutex
	ids     map[string]uint
	mtps    map[string]string
	failErr error
}

func newFakeDevices() *fakeDevices {
	return &fakeDevices{ids: map[string]uint{}, mtps: map[string]string{}}
}

func (f *fakeDevices) FindOrCreateUSP(_ context.Context, endpointID, mtp string) (uint, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return 0, false, f.failErr
	}
	f.mtps[endpointID] = mtp
	if id, ok := f.ids[endpointID]; ok {
		return id, false, nil
	}
	id := uint(len(f.ids) + 1)
	f.ids[endpointID] = id
	return id, true, nil
}

type fakeParams struct {
	mu     sync.Mutex
	values map[uint]map[string]string
}

func newFakeParams() *fakeParams {
	return &fakeParams{values: map[uint]map[string]string{}}
}

func (f *fakeParams) GetParameters(_ context.Context, deviceID uint, paths []string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]string{}
	for path, v := range f.values[deviceID] {
		for _, req := range paths {
			if path == req || (strings.HasSuffix(req, ".") && strings.HasPrefix(path, req)) {
				out[path] = v
			}
		}
	}
	return out, nil
}

func (f *fakeParams) SetParameters(_ context.Context, deviceID uint, values map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.values[deviceID] == nil {
		f.values[deviceID] = map[string]string{}
	}
	for k, v := range values {
		f.values[deviceID][k] = v
	}
	return nil
}

func newTestProcessor(devices *fakeDevices, params *fakeParams) *Processor {
	return NewProcessor(devices, params, ProcessorConfig{Logger: zerolog.Nop()})
}

func process(t *testing.T, p *Processor, m *Msg) (*Record, *Msg) {
	t.Helper()
	raw, err := SerializeMsgInRecord(m, "proto::controller", "proto::test-agent", "")
	require.NoError(t, err)

	out, err := p.Process(context.Background(), raw, MTPMQTT)
	require.NoError(t, err)
	if out == nil {
		return nil, nil
	}
	rec, msg, err := DecodeRecordMsg(out)
	require.NoError(t, err)
	return rec, msg
}

func TestProcessAutoRegistersAndAddressesReply(t *testing.T) {
	devices := newFakeDevices()
	p := newTestProcessor(devices, newFakeParams())

	rec, resp := process(t, p, NewGet([]string{"Device.DeviceInfo."}, "g-1"))

	assert.Equal(t, uint(1), devices.ids["proto::test-agent"])
	assert.Equal(t, MTPMQTT, devices.mtps["proto::test-agent"])
	assert.Equal(t, "proto::test-agent", rec.ToID)
	assert.Equal(t, "proto::controller", rec.FromID)
	assert.Equal(t, "g-1", resp.Header.MsgID)
	assert.Equal(t, MsgTypeGetResp, MessageType(resp))
}

func TestProcessReportsRegistrationOnce(t *testing.T) {
	var registered []string
	p := NewProcessor(newFakeDevices(), newFakeParams(), ProcessorConfig{
		Logger: zerolog.Nop(),
		OnRegistered: func(_ context.Context, deviceID uint, endpointID, mtp string) {
			registered = append(registered, endpointID+"/"+mtp)
		},
	})

	process(t, p, NewGet([]string{"Device."}, "g-1"))
	process(t, p, NewGet([]string{"Device."}, "g-2"))
	assert.Equal(t, []string{"proto::test-agent/mqtt"}, registered)
}

func TestProcessSetThenGet(t *testing.T) {
	params := newFakeParams()
	p := newTestProcessor(newFakeDevices(), params)

	_, setResp := process(t, p, NewSet(GroupParamPaths(map[string]string{
		"Device.WiFi.Radio.1.Channel": "11",
		"Device.WiFi.Radio.1.Enable":  "true",
	}), false, "s-1"))
	require.Equal(t, MsgTypeSetResp, MessageType(setResp))
	assert.Equal(t, "11", params.values[1]["Device.WiFi.Radio.1.Channel"])

	_, getResp := process(t, p, NewGet([]string{"Device.WiFi.Radio.1.", "Device.Missing.Param"}, "g-2"))
	results := getResp.Body.(*GetResp).ReqPathResults
	require.Len(t, results, 2)
	assert.Equal(t, []ResolvedPathResult{{
		ResolvedPath: "Device.WiFi.Radio.1.",
		ResultParams: map[string]string{"Channel": "11", "Enable": "true"},
	}}, results[0].ResolvedPathResults)
	assert.Equal(t, ErrCodePathNotFound, results[1].ErrCode)
}

func TestProcessOperate(t *testing.T) {
	p := newTestProcessor(newFakeDevices(), newFakeParams())

	_, reboot := process(t, p, NewOperate(RebootCommand, nil, "op-1"))
	result := reboot.Body.(*OperateResp).OperationResults[0]
	assert.Nil(t, result.Failure)
	assert.Equal(t, map[string]string{"status": "success", "executed": "true"}, result.OutputArgs)

	_, unknown := process(t, p, NewOperate("Device.SelfTest()", nil, "op-2"))
	failure := unknown.Body.(*OperateResp).OperationResults[0].Failure
	require.NotNil(t, failure)
	assert.Contains(t, failure.ErrMsg, "not implemented")

	p.RegisterCommand("Device.SelfTest()", func(_ context.Context, _ uint, op *Operate) (map[string]string, error) {
		return map[string]string{"result": "pass"}, nil
	})
	_, handled := process(t, p, NewOperate("Device.SelfTest()", nil, "op-3"))
	assert.Equal(t, map[string]string{"result": "pass"}, handled.Body.(*OperateResp).OperationResults[0].OutputArgs)
}

func TestProcessAddDeleteReturnSuccess(t *testing.T) {
	p := newTestProcessor(newFakeDevices(), newFakeParams())

	_, add := process(t, p, NewAdd("Device.NAT.PortMapping.", nil, false, "a-1"))
	assert.Equal(t, MsgTypeAddResp, MessageType(add))
	assert.Nil(t, add.Body.(*AddResp).CreatedObjResults[0].Failure)

	_, del := process(t, p, NewDelete([]string{"Device.NAT.PortMapping.1."}, false, "d-1"))
	assert.Equal(t, MsgTypeDeleteResp, MessageType(del))
}

func TestProcessNotify(t *testing.T) {
	params := newFakeParams()
	p := newTestProcessor(newFakeDevices(), params)

	rec, resp := process(t, p, &Msg{
		Header: Header{MsgID: "n-1", MsgType: MsgTypeNotify},
		Body:   &Notify{SubscriptionID: "sub-1", ValueChange: &ValueChange{ParamPath: "Device.X.Y", ParamValue: "z"}},
	})
	assert.Nil(t, rec)
	assert.Nil(t, resp)
	assert.Equal(t, "z", params.values[1]["Device.X.Y"])

	_, resp = process(t, p, &Msg{
		Header: Header{MsgID: "n-2", MsgType: MsgTypeNotify},
		Body:   &Notify{SubscriptionID: "sub-2", SendResp: true, OnBoardReq: &OnBoardRequest{OUI: "00259E"}},
	})
	assert.Equal(t, &NotifyResp{SubscriptionID: "sub-2"}, resp.Body)
}

func TestProcessUnsupportedTypeYieldsError9000(t *testing.T) {
	raw := wireMsg(t, &v1_3.Msg{
		Header: &v1_3.Header{MsgId: "gi-1", MsgType: v1_3.Header_GET_INSTANCES},
		Body: &v1_3.Body{MsgBody: &v1_3.Body_Request{Request: &v1_3.Request{
			ReqType: &v1_3.Request_GetInstances{GetInstances: &v1_3.GetInstances{ObjPaths: []string{"Device.WiFi.SSID."}}},
		}}},
	})
	rec := marshalRecord(t, &Record{Version: "1.3", ToID: "ctrl", FromID: "agent", Type: RecordNoSessionContext, Payload: raw})

	p := newTestProcessor(newFakeDevices(), newFakeParams())
	out, err := p.Process(context.Background(), rec, MTPWebSocket)
	require.NoError(t, err)

	_, resp, err := DecodeRecordMsg(out)
	require.NoError(t, err)
	assert.Equal(t, "gi-1", resp.Header.MsgID)
	uspErr, ok := resp.Body.(*Error)
	require.True(t, ok)
	assert.Equal(t, ErrCodeUnsupported, uspErr.ErrCode)
}

func TestProcessResponsesGoToHandler(t *testing.T) {
	var got *Msg
	p := NewProcessor(newFakeDevices(), newFakeParams(), ProcessorConfig{
		Logger: zerolog.Nop(),
		OnResponse: func(_ context.Context, _ uint, endpointID string, msg *Msg) {
			assert.Equal(t, "proto::test-agent", endpointID)
			got = msg
		},
	})

	rec, resp := process(t, p, NewGetResp("g-9", map[string]string{"Device.X": "1"}))
	assert.Nil(t, rec)
	assert.Nil(t, resp)
	require.NotNil(t, got)
	assert.Equal(t, "g-9", got.Header.MsgID)
}

func TestProcessDeviceFailureYieldsError(t *testing.T) {
	devices := newFakeDevices()
	devices.failErr = errors.New("db down")
	p := newTestProcessor(devices, newFakeParams())

	_, resp := process(t, p, NewGet([]string{"Device."}, "g-1"))
	assert.Equal(t, ErrCodeInternalError, resp.Body.(*Error).ErrCode)
}

func TestProcessCorruptInput(t *testing.T) {
	p := newTestProcessor(newFakeDevices(), newFakeParams())

	_, err := p.Process(context.Background(), []byte{0x0a, 0x10, 0x01}, MTPHTTP)
	assert.ErrorIs(t, err, ErrDecode)

	rec := marshalRecord(t, &Record{Version: "1.3", ToID: "ctrl", FromID: "agent", Type: RecordNoSessionContext, Payload: []byte{0x0a, 0x05}})
	out, err := p.Process(context.Background(), rec, MTPHTTP)
	require.NoError(t, err)
	_, resp, err := DecodeRecordMsg(out)
	require.NoError(t, err)
	assert.Equal(t, ErrCodeMessageFailed, resp.Body.(*Error).ErrCode)
}

func TestProcessDropsRecordWithoutSender(t *testing.T) {
	devices := newFakeDevices()
	p := newTestProcessor(devices, newFakeParams())

	raw, err := SerializeMsgInRecord(NewGet([]string{"Device."}, "g-x"), "proto::controller", "", "")
	require.NoError(t, err)

	out, err := p.Process(context.Background(), raw, MTPMQTT)
	assert.ErrorIs(t, err, ErrNoSender)
	assert.Nil(t, out)
	assert.Empty(t, devices.ids)
}

func TestProcessRecoversFromHandlerPanic(t *testing.T) {
	p := newTestProcessor(newFakeDevices(), newFakeParams())
	p.RegisterCommand("Device.Crash()", func(context.Context, uint, *Operate) (map[string]string, error) {
		panic("boom")
	})

	raw, err := SerializeMsgInRecord(NewOperate("Device.Crash()", nil, ""), "ctrl", "agent", "")
	require.NoError(t, err)
	_, err = p.Process(context.Background(), raw, MTPWebSocket)
	assert.Error(t, err)
}

func TestDeriveSerial(t *testing.T) {
	at := time.Unix(1700000000, 0)
	s := DeriveSerial("proto::agent-001", at)
	assert.Equal(t, s, DeriveSerial("proto::agent-001", at))
	assert.True(t, strings.HasPrefix(s, "USP-"))
	assert.Len(t, s, 16)
	assert.NotEqual(t, s, DeriveSerial("proto::agent-002", at))
}
