package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dexter939/EvoAcs-sub001/internal/store"
)

const (
	// KeyPrefixAgentConnection prefixes the per-agent connection state.
	KeyPrefixAgentConnection = "agent:connection:"

	// DefaultConnectionTTL bounds how long a connection entry outlives its last refresh.
	DefaultConnectionTTL = 24 * time.Hour
)

// AgentConnection represents the connection state of an agent
type AgentConnection struct {
	EndpointID   string `json:"endpoint_id"`
	MTPProtocol  string `json:"mtp_protocol"`
	RemoteAddr   string `json:"remote_addr"`
	ConnectedAt  int64  `json:"connected_at"`
	LastActivity int64  `json:"last_activity"`
	Status       string `json:"status"`
}

// ConnectionRegistry tracks which agents are currently attached to a push MTP.
type ConnectionRegistry struct {
	client *Client
	ttl    time.Duration
	now    func() time.Time
}

// NewConnectionRegistry creates a registry. A zero ttl uses DefaultConnectionTTL.
func NewConnectionRegistry(client *Client, ttl time.Duration) *ConnectionRegistry {
	if ttl <= 0 {
		ttl = DefaultConnectionTTL
	}
	return &ConnectionRegistry{client: client, ttl: ttl, now: time.Now}
}

// Record applies a connect or disconnect event.
func (r *ConnectionRegistry) Record(ctx context.Context, ev *store.ConnectionEvent) error {
	switch ev.EventType {
	case "connected":
		now := r.now().Unix()
		return r.Store(ctx, &AgentConnection{
			EndpointID:   ev.EndpointID,
			MTPProtocol:  ev.MTPType,
			RemoteAddr:   ev.RemoteAddr,
			ConnectedAt:  now,
			LastActivity: now,
			Status:       "connected",
		})
	case "disconnected":
		return r.Remove(ctx, ev.EndpointID)
	default:
		return fmt.Errorf("unknown connection event %q", ev.EventType)
	}
}

// Store saves conn with the registry TTL.
func (r *ConnectionRegistry) Store(ctx context.Context, conn *AgentConnection) error {
	if conn == nil || conn.EndpointID == "" {
		return fmt.Errorf("connection has no endpoint id")
	}
	if err := r.client.Set(ctx, KeyPrefixAgentConnection+conn.EndpointID, conn, r.ttl); err != nil {
		return fmt.Errorf("failed to store agent connection: %w", err)
	}
	return nil
}

// Get returns the connection state of endpointID, or nil when it is not connected.
func (r *ConnectionRegistry) Get(ctx context.Context, endpointID string) (*AgentConnection, error) {
	var conn AgentConnection
	err := r.client.Get(ctx, KeyPrefixAgentConnection+endpointID, &conn)
	if errors.Is(err, ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

// Touch refreshes the last activity time of a connected agent.
func (r *ConnectionRegistry) Touch(ctx context.Context, endpointID string) error {
	conn, err := r.Get(ctx, endpointID)
	if err != nil || conn == nil {
		return err
	}
	conn.LastActivity = r.now().Unix()
	return r.Store(ctx, conn)
}

// Remove deletes the connection state of endpointID.
func (r *ConnectionRegistry) Remove(ctx context.Context, endpointID string) error {
	return r.client.Delete(ctx, KeyPrefixAgentConnection+endpointID)
}

// List returns every registered connection, optionally filtered by MTP.
func (r *ConnectionRegistry) List(ctx context.Context, mtp string) ([]*AgentConnection, error) {
	keys, err := r.client.ScanKeys(ctx, KeyPrefixAgentConnection+"*")
	if err != nil {
		return nil, err
	}
	out := make([]*AgentConnection, 0, len(keys))
	for _, key := range keys {
		var conn AgentConnection
		if err := r.client.Get(ctx, key, &conn); err != nil {
			// expired between scan and get
			continue
		}
		if mtp == "" || conn.MTPProtocol == mtp {
			out = append(out, &conn)
		}
	}
	return out, nil
}
