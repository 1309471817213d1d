package store

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepos(t *testing.T) (*Database, *Repositories) {
	t.Helper()
	db, err := OpenSQLite(":memory:", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, NewRepositories(db.DB)
}

func TestFindOrCreateUSP(t *testing.T) {
	_, repos := newTestRepos(t)
	ctx := context.Background()

	id, created, err := repos.Devices.FindOrCreateUSP(ctx, "proto::agent-001", "mqtt")
	require.NoError(t, err)
	assert.True(t, created)

	dev, err := repos.Devices.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, ProtocolTR369, dev.ProtocolType)
	assert.Equal(t, "mqtt", dev.MTPType)
	assert.Equal(t, StatusOnline, dev.Status)
	assert.True(t, strings.HasPrefix(dev.SerialNumber, "USP-"))

	require.NoError(t, repos.Devices.MarkOffline(ctx, "proto::agent-001"))
	again, created, err := repos.Devices.FindOrCreateUSP(ctx, "proto::agent-001", "websocket")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, id, again)

	dev, err = repos.Devices.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusOnline, dev.Status)
	assert.Equal(t, "websocket", dev.MTPType)
}

func TestFindOrCreateUSPConcurrentFirstContact(t *testing.T) {
	_, repos := newTestRepos(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	ids := map[uint]bool{}
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, c, err := repos.Devices.FindOrCreateUSP(ctx, "proto::racer", "mqtt")
			assert.NoError(t, err)
			mu.Lock()
			defer mu.Unlock()
			ids[id] = true
			if c {
				created++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Len(t, ids, 1)
	n, err := repos.Devices.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestFindOrCreateTR069(t *testing.T) {
	_, repos := newTestRepos(t)
	ctx := context.Background()
	ident := DeviceIdentity{Manufacturer: "Acme", OUI: "00259E", ProductClass: "IGD", SerialNumber: "AUTO-REG-001"}

	dev, created, err := repos.Devices.FindOrCreateTR069(ctx, ident, "10.0.0.5")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "00259E-IGD-AUTO-REG-001", dev.EndpointID)
	assert.Equal(t, StatusOnline, dev.Status)
	require.NotNil(t, dev.LastInform)

	again, created, err := repos.Devices.FindOrCreateTR069(ctx, ident, "10.0.0.6")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, dev.ID, again.ID)
	assert.Equal(t, "10.0.0.6", again.IPAddress)

	byEndpoint, err := repos.Devices.GetByEndpointID(ctx, ident.EndpointID())
	require.NoError(t, err)
	assert.Equal(t, dev.ID, byEndpoint.ID)

	_, err = repos.Devices.GetByEndpointID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeviceConnectionRequestSettings(t *testing.T) {
	_, repos := newTestRepos(t)
	ctx := context.Background()
	dev, _, err := repos.Devices.FindOrCreateTR069(ctx, DeviceIdentity{OUI: "A", ProductClass: "B", SerialNumber: "C"}, "")
	require.NoError(t, err)

	require.NoError(t, repos.Devices.UpdateConnectionRequest(ctx, dev.ID, "http://10.0.0.1:7547/cr", "cpe", "secret"))
	require.NoError(t, repos.Devices.SetAuthMethod(ctx, dev.ID, AuthDigest))
	assert.Error(t, repos.Devices.SetAuthMethod(ctx, dev.ID, "ntlm"))

	got, err := repos.Devices.GetByID(ctx, dev.ID)
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.1:7547/cr", got.ConnectionRequestURL)
	assert.Equal(t, "cpe", got.ConnectionRequestUsername)
	assert.Equal(t, "secret", got.ConnectionRequestPassword)
	assert.Equal(t, AuthDigest, got.AuthMethod)
}

func TestParameterUpsertAndLookup(t *testing.T) {
	_, repos := newTestRepos(t)
	ctx := context.Background()
	id, _, err := repos.Devices.FindOrCreateUSP(ctx, "proto::p", "http")
	require.NoError(t, err)

	require.NoError(t, repos.Parameters.Upsert(ctx, id, []Parameter{
		{Path: "Device.DeviceInfo.SoftwareVersion", Value: "v1.0.0", Type: "xsd:string"},
		{Path: "Device.WiFi.Radio.1.Channel", Value: "6", Type: "xsd:unsignedInt"},
	}))
	require.NoError(t, repos.Parameters.SetParameters(ctx, id, map[string]string{
		"Device.WiFi.Radio.1.Channel":  "11",
		"Device.WiFi.Radio.10.Channel": "36",
		"Device.X_ACME_Feature.Enable": "true",
	}))

	got, err := repos.Parameters.GetParameters(ctx, id, []string{"Device.WiFi.Radio.1.", "Device.DeviceInfo.SoftwareVersion"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"Device.WiFi.Radio.1.Channel":       "11",
		"Device.DeviceInfo.SoftwareVersion": "v1.0.0",
	}, got)

	all, err := repos.Parameters.GetByDeviceID(ctx, id)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "xsd:unsignedInt", all[1].Type)

	none, err := repos.Parameters.GetParameters(ctx, id, []string{"Device.X%ACME_"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestTaskLifecycle(t *testing.T) {
	db, repos := newTestRepos(t)
	ctx := context.Background()

	first, err := repos.Tasks.Create(ctx, 7, "get_parameters", map[string][]string{"parameters": {"Device."}})
	require.NoError(t, err)
	second, err := repos.Tasks.Create(ctx, 7, "reboot", nil)
	require.NoError(t, err)
	base := time.Now().Add(-time.Minute)
	require.NoError(t, db.DB.Model(&ProvisioningTask{}).Where("id = ?", first.ID).Update("created_at", base).Error)
	require.NoError(t, db.DB.Model(&ProvisioningTask{}).Where("id = ?", second.ID).Update("created_at", base.Add(time.Second)).Error)

	next, err := repos.Tasks.NextPending(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, first.ID, next.ID)

	require.NoError(t, repos.Tasks.MarkProcessing(ctx, first.ID, "ck-1"))
	assert.ErrorIs(t, repos.Tasks.MarkProcessing(ctx, first.ID, "ck-1"), ErrTaskNotPending)

	processing, err := repos.Tasks.FindProcessing(ctx, 7, "get_parameters")
	require.NoError(t, err)
	assert.Equal(t, first.ID, processing.ID)
	byKey, err := repos.Tasks.FindByCommandKey(ctx, 7, "ck-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, byKey.ID)

	require.NoError(t, repos.Tasks.Complete(ctx, first.ID, map[string]string{"fault_string": "Success"}))
	done, err := repos.Tasks.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, TaskCompleted, done.Status)
	assert.JSONEq(t, `{"fault_string":"Success"}`, done.ResultData)
	assert.NotNil(t, done.CompletedAt)

	next, err = repos.Tasks.NextPending(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, second.ID, next.ID)
	require.NoError(t, repos.Tasks.Fail(ctx, second.ID, map[string]string{"error": "boom"}))

	_, err = repos.Tasks.NextPending(ctx, 7)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repos.Tasks.Complete(ctx, "nope", nil), ErrNotFound)
}

func TestPendingRequestsNeverDeliverExpired(t *testing.T) {
	_, repos := newTestRepos(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repos.Pending.Create(ctx, &PendingRequest{MessageID: "m-1", EndpointID: "proto::a", Payload: []byte{1}, ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, repos.Pending.Create(ctx, &PendingRequest{MessageID: "m-2", EndpointID: "proto::a", Payload: []byte{2}, ExpiresAt: now.Add(-time.Second)}))
	require.NoError(t, repos.Pending.Create(ctx, &PendingRequest{MessageID: "m-3", EndpointID: "proto::b", Payload: []byte{3}, ExpiresAt: now.Add(time.Hour)}))

	got, err := repos.Pending.TakePending(ctx, "proto::a", now)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "m-1", got[0].MessageID)
	assert.Equal(t, []byte{1}, got[0].Payload)

	again, err := repos.Pending.TakePending(ctx, "proto::a", now)
	require.NoError(t, err)
	assert.Empty(t, again)

	expired, err := repos.Pending.GetByMessageID(ctx, "m-2")
	require.NoError(t, err)
	assert.Equal(t, RequestExpired, expired.Status)

	n, err := repos.Pending.ExpireStale(ctx, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSessionSnapshots(t *testing.T) {
	_, repos := newTestRepos(t)
	ctx := context.Background()
	now := time.Now()

	rec := &SessionRecord{Token: "tok", DeviceID: 3, Status: "active", PendingCommands: `[]`, StartedAt: now, LastActivity: now}
	require.NoError(t, repos.Sessions.Save(ctx, rec))

	rec2 := &SessionRecord{Token: "tok", DeviceID: 3, Status: "active", PendingCommands: `[{"type":"Reboot"}]`, MessageCounter: 4, StartedAt: now, LastActivity: now}
	require.NoError(t, repos.Sessions.Save(ctx, rec2))

	got, err := repos.Sessions.GetByToken(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, `[{"type":"Reboot"}]`, got.PendingCommands)
	assert.Equal(t, uint64(4), got.MessageCounter)

	active, err := repos.Sessions.ActiveForDevice(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	require.NoError(t, repos.Sessions.Close(ctx, "tok", "closed"))
	active, err = repos.Sessions.ActiveForDevice(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestConnectionEvents(t *testing.T) {
	_, repos := newTestRepos(t)
	ctx := context.Background()

	require.NoError(t, repos.Connections.Record(ctx, &ConnectionEvent{EndpointID: "proto::ws", MTPType: "websocket", EventType: "connected"}))
	require.NoError(t, repos.Connections.Record(ctx, &ConnectionEvent{EndpointID: "proto::ws", MTPType: "websocket", EventType: "disconnected"}))

	evs, err := repos.Connections.ListByEndpoint(ctx, "proto::ws")
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, "disconnected", evs[1].EventType)
}
