package tasks

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dexter939/EvoAcs-sub001/internal/connreq"
	"github.com/dexter939/EvoAcs-sub001/internal/store"
	"github.com/dexter939/EvoAcs-sub001/internal/usp"
)

type fakeRequester struct {
	requested []uint
	err       error
}

func (f *fakeRequester) RequestDevice(_ context.Context, id uint) (*connreq.Result, error) {
	f.requested = append(f.requested, id)
	if f.err != nil {
		return &connreq.Result{Attempts: 1}, f.err
	}
	return &connreq.Result{Attempts: 1, StatusCode: 200}, nil
}

func TestWakeRoutesByProtocol(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := &fakeRequester{}
	w := NewWaker(f.repos.Devices, req, f.d, zerolog.Nop())

	cpe, _, err := f.repos.Devices.FindOrCreateTR069(ctx, store.DeviceIdentity{OUI: "00D09E", ProductClass: "HGW", SerialNumber: "SN9"}, "10.0.0.9")
	require.NoError(t, err)
	require.NoError(t, w.Wake(ctx, cpe.ID))
	assert.Equal(t, []uint{cpe.ID}, req.requested)

	agent := newUSPDevice(t, f, "proto::wake-me", usp.MTPWebSocket)
	sender := &fakeSender{}
	f.d.RegisterSender(usp.MTPWebSocket, sender)
	tasks := f.queue(t, agent.ID, job(TypeReboot, nil))

	require.NoError(t, w.Wake(ctx, agent.ID))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, tasks[0].ID, sender.sent[0].msgID)
	assert.Len(t, req.requested, 1)

	assert.ErrorIs(t, w.Wake(ctx, 999), store.ErrNotFound)
}

func TestWakeSurfacesConnectionRequestErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := NewWaker(f.repos.Devices, &fakeRequester{err: connreq.ErrDeviceOffline}, f.d, zerolog.Nop())

	cpe, _, err := f.repos.Devices.FindOrCreateTR069(ctx, store.DeviceIdentity{OUI: "00D09E", ProductClass: "HGW", SerialNumber: "SN10"}, "")
	require.NoError(t, err)
	assert.ErrorIs(t, w.Wake(ctx, cpe.ID), connreq.ErrDeviceOffline)
}

func TestWakeEndpointPushesPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := NewWaker(f.repos.Devices, nil, f.d, zerolog.Nop())

	agent := newUSPDevice(t, f, "proto::late-joiner", usp.MTPMQTT)
	sender := &fakeSender{}
	f.d.RegisterSender(usp.MTPMQTT, sender)
	f.queue(t, agent.ID, job(TypeGetParameters, map[string]interface{}{"parameters": []string{"Device.DeviceInfo."}}))

	w.WakeEndpoint(ctx, "proto::late-joiner")
	assert.Len(t, sender.sent, 1)

	w.WakeEndpoint(ctx, "proto::unknown")
	assert.Len(t, sender.sent, 1)
}
