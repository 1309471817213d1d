//go:build integration

package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dexter939/EvoAcs-sub001/internal/store"
	"github.com/dexter939/EvoAcs-sub001/pkg/config"
)

// These tests need a Redis server; REDIS_ADDR defaults to 127.0.0.1:6379.
//
// Run with:
//   go test -tags=integration -v ./pkg/redis/...

func integrationClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "127.0.0.1:6379"
	}
	c, err := NewClient(context.Background(), config.RedisConfig{Addr: addr, DB: 15}, zerolog.Nop())
	if err != nil {
		t.Skipf("redis not reachable: %v", err)
	}
	t.Cleanup(func() {
		_ = c.Raw().FlushDB(context.Background()).Err()
		_ = c.Close()
	})
	return c
}

func TestIntegration_OutboundQueue(t *testing.T) {
	q := NewOutboundQueue(integrationClient(t), time.Minute)
	ctx := context.Background()

	require.NoError(t, q.Push(ctx, "proto::a", []byte{1}))
	require.NoError(t, q.Push(ctx, "proto::a", []byte{2}))

	got, err := q.Drain(ctx, "proto::a")
	require.NoError(t, err)
	assert.Equal(t, [][]byte{{1}, {2}}, got)

	got, err = q.Drain(ctx, "proto::a")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestIntegration_ConnectionRegistry(t *testing.T) {
	r := NewConnectionRegistry(integrationClient(t), time.Minute)
	ctx := context.Background()

	require.NoError(t, r.Record(ctx, &store.ConnectionEvent{EndpointID: "proto::a", MTPType: "websocket", EventType: "connected"}))
	require.NoError(t, r.Record(ctx, &store.ConnectionEvent{EndpointID: "proto::b", MTPType: "mqtt", EventType: "connected"}))

	ws, err := r.List(ctx, "websocket")
	require.NoError(t, err)
	require.Len(t, ws, 1)
	assert.Equal(t, "proto::a", ws[0].EndpointID)

	require.NoError(t, r.Record(ctx, &store.ConnectionEvent{EndpointID: "proto::a", EventType: "disconnected"}))
	conn, err := r.Get(ctx, "proto::a")
	require.NoError(t, err)
	assert.Nil(t, conn)
}
