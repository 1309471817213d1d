package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dexter939/EvoAcs-sub001/internal/store"
)

// RepositorySnapshotter saves snapshots through the gorm session repository.
// The FIFO is written as an ordered JSON list.
type RepositorySnapshotter struct {
	repo *store.SessionRepository
}

// NewRepositorySnapshotter wraps repo.
func NewRepositorySnapshotter(repo *store.SessionRepository) *RepositorySnapshotter {
	return &RepositorySnapshotter{repo: repo}
}

// SaveSnapshot implements Snapshotter.
func (p *RepositorySnapshotter) SaveSnapshot(ctx context.Context, snap Snapshot) error {
	pending, err := json.Marshal(snap.Pending)
	if err != nil {
		return fmt.Errorf("failed to encode pending commands: %w", err)
	}
	var last []byte
	if snap.LastSent != nil {
		if last, err = json.Marshal(snap.LastSent); err != nil {
			return fmt.Errorf("failed to encode last command: %w", err)
		}
	}
	return p.repo.Save(ctx, &store.SessionRecord{
		Token:           snap.Token,
		DeviceID:        snap.DeviceID,
		Status:          string(snap.Status),
		SourceIP:        snap.SourceIP,
		PendingCommands: string(pending),
		LastCommand:     string(last),
		MessageCounter:  snap.MessageCounter,
		StartedAt:       snap.CreatedAt,
		LastActivity:    snap.LastActivity,
		EndedAt:         snap.EndedAt,
	})
}

// DecodePending restores the FIFO stored in a session record.
func DecodePending(rec *store.SessionRecord) (*Queue, error) {
	var cmds []Command
	if rec.PendingCommands != "" {
		if err := json.Unmarshal([]byte(rec.PendingCommands), &cmds); err != nil {
			return nil, fmt.Errorf("failed to decode pending commands of %s: %w", rec.Token, err)
		}
	}
	return NewQueue(cmds...), nil
}
