package mtp

import (
	"context"
	"sync"
)

// OutboundQueue holds records waiting to be pushed to a WebSocket agent.
// Producers run outside the server loop, so implementations must be safe for concurrent use.
type OutboundQueue interface {
	Push(ctx context.Context, endpointID string, record []byte) error
	// Drain removes and returns every queued record for endpointID, oldest first.
	Drain(ctx context.Context, endpointID string) ([][]byte, error)
}

// MemoryQueue is an in-process OutboundQueue.
type MemoryQueue struct {
	mu     sync.Mutex
	queues map[string][][]byte
}

// NewMemoryQueue creates an empty queue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{queues: make(map[string][][]byte)}
}

func (q *MemoryQueue) Push(_ context.Context, endpointID string, record []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.queues[endpointID] = append(q.queues[endpointID], record)
	return nil
}

func (q *MemoryQueue) Drain(_ context.Context, endpointID string) ([][]byte, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.queues[endpointID]
	delete(q.queues, endpointID)
	return out, nil
}

// Len returns the number of records queued for endpointID.
func (q *MemoryQueue) Len(endpointID string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queues[endpointID])
}
