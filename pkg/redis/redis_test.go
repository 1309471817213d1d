package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dexter939/EvoAcs-sub001/internal/store"
)

func TestOutboundKey(t *testing.T) {
	assert.Equal(t, "usp:outbound:proto::agent", outboundKey("proto::agent"))
}

func TestRegistryRejectsUnknownEvent(t *testing.T) {
	r := NewConnectionRegistry(nil, 0)
	assert.Equal(t, DefaultConnectionTTL, r.ttl)
	err := r.Record(context.Background(), &store.ConnectionEvent{EndpointID: "proto::a", EventType: "renamed"})
	assert.Error(t, err)
	assert.Error(t, r.Store(context.Background(), &AgentConnection{}))
}
