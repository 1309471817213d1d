package mtp

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dexter939/EvoAcs-sub001/internal/store"
)

// DefaultRequestTTL is how long a polled request stays deliverable.
const DefaultRequestTTL = time.Hour

// PendingRequests persists outbound records for polling agents.
type PendingRequests interface {
	Create(ctx context.Context, req *store.PendingRequest) error
	TakePending(ctx context.Context, endpointID string, now time.Time) ([]store.PendingRequest, error)
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}

// PollStore is the HTTP-poll MTP: records wait in storage until the agent fetches them.
type PollStore struct {
	requests PendingRequests
	ttl      time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

// NewPollStore creates a poll store. A zero ttl uses DefaultRequestTTL.
func NewPollStore(requests PendingRequests, ttl time.Duration, log zerolog.Logger) *PollStore {
	if ttl <= 0 {
		ttl = DefaultRequestTTL
	}
	return &PollStore{requests: requests, ttl: ttl, now: time.Now, log: log}
}

// Enqueue stores record for endpointID under msgID.
func (p *PollStore) Enqueue(ctx context.Context, endpointID, msgID string, record []byte) error {
	req := &store.PendingRequest{
		MessageID:  msgID,
		EndpointID: endpointID,
		Payload:    record,
		Status:     store.RequestPending,
		ExpiresAt:  p.now().Add(p.ttl),
	}
	if err := p.requests.Create(ctx, req); err != nil {
		return err
	}
	p.log.Debug().Str("endpoint_id", endpointID).Str("msg_id", msgID).Time("expires_at", req.ExpiresAt).Msg("📋 USP request queued for polling")
	return nil
}

// Send satisfies the task dispatcher's sender contract.
func (p *PollStore) Send(ctx context.Context, endpointID, msgID string, record []byte) error {
	return p.Enqueue(ctx, endpointID, msgID, record)
}

// Fetch returns the unexpired records waiting for endpointID and marks them delivered.
func (p *PollStore) Fetch(ctx context.Context, endpointID string) ([]store.PendingRequest, error) {
	reqs, err := p.requests.TakePending(ctx, endpointID, p.now())
	if err != nil {
		return nil, err
	}
	if len(reqs) > 0 {
		p.log.Debug().Str("endpoint_id", endpointID).Int("count", len(reqs)).Msg("📤 USP requests delivered by poll")
	}
	return reqs, nil
}

// ExpireStale marks every overdue request expired.
func (p *PollStore) ExpireStale(ctx context.Context) (int64, error) {
	n, err := p.requests.ExpireStale(ctx, p.now())
	if err != nil {
		return 0, fmt.Errorf("failed to expire pending requests: %w", err)
	}
	if n > 0 {
		p.log.Info().Int64("count", n).Msg("⏳ Expired pending USP requests")
	}
	return n, nil
}

// RunSweeper expires stale requests every interval until ctx is done.
func (p *PollStore) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.ExpireStale(ctx); err != nil {
				p.log.Warn().Err(err).Msg("⚠️ Pending request sweep failed")
			}
		}
	}
}
