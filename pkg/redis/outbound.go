package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyPrefixOutbound prefixes the per-endpoint outbound record lists.
const KeyPrefixOutbound = "usp:outbound:"

// OutboundQueue keeps records for WebSocket agents in Redis lists so that any ACS
// instance can queue a push and the instance holding the connection delivers it.
type OutboundQueue struct {
	client *Client
	ttl    time.Duration
}

// NewOutboundQueue creates a queue. Lists idle for longer than ttl are dropped by Redis; zero keeps them.
func NewOutboundQueue(client *Client, ttl time.Duration) *OutboundQueue {
	return &OutboundQueue{client: client, ttl: ttl}
}

func outboundKey(endpointID string) string {
	return KeyPrefixOutbound + endpointID
}

// Push appends record to the endpoint's list.
func (q *OutboundQueue) Push(ctx context.Context, endpointID string, record []byte) error {
	key := outboundKey(endpointID)
	_, err := q.client.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.RPush(ctx, key, record)
		if q.ttl > 0 {
			p.Expire(ctx, key, q.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to queue record for %s: %w", endpointID, err)
	}
	return nil
}

// Drain atomically reads and clears the endpoint's list, oldest first.
func (q *OutboundQueue) Drain(ctx context.Context, endpointID string) ([][]byte, error) {
	key := outboundKey(endpointID)
	var lrange *redis.StringSliceCmd
	_, err := q.client.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		lrange = p.LRange(ctx, key, 0, -1)
		p.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to drain records for %s: %w", endpointID, err)
	}
	vals := lrange.Val()
	if len(vals) == 0 {
		return nil, nil
	}
	out := make([][]byte, len(vals))
	for i, v := range vals {
		out[i] = []byte(v)
	}
	return out, nil
}
