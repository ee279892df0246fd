package sink

import (
	"context"
	"encoding/json"
	"sync"
)

// MemorySink buffers records in memory. It is ideal for development and
// testing; data is lost on restart.
type MemorySink struct {
	mu      sync.RWMutex
	records []json.RawMessage
}

// NewMemorySink creates a new in-memory sink.
func NewMemorySink(config Config) (*MemorySink, error) {
	return &MemorySink{}, nil
}

// InsertMany appends the batch to the buffer.
func (m *MemorySink) InsertMany(ctx context.Context, records []json.RawMessage) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, records...)
	return len(records), nil
}

// Ping always succeeds for the in-memory sink.
func (m *MemorySink) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op for the in-memory sink.
func (m *MemorySink) Close() error {
	return nil
}

// Records returns a copy of everything inserted so far.
func (m *MemorySink) Records() []json.RawMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]json.RawMessage, len(m.records))
	copy(out, m.records)
	return out
}
