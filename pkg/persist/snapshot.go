package persist

import (
	"context"
	"errors"
	"sync"
)

// ErrNoSnapshot is returned by Load when no snapshot has been saved yet.
var ErrNoSnapshot = errors.New("persist: no snapshot")

// Snapshotter reads and writes snapshot bytes.
type Snapshotter interface {
	// Save replaces the stored snapshot.
	Save(ctx context.Context, data []byte) error

	// Load returns the stored snapshot, or ErrNoSnapshot if none exists.
	Load(ctx context.Context) ([]byte, error)
}

// MemorySnapshotter keeps the snapshot in memory. It is safe for
// concurrent use. Useful for tests and single-process tools.
type MemorySnapshotter struct {
	mu   sync.RWMutex
	data []byte
}

// NewMemorySnapshotter creates an empty in-memory snapshotter.
func NewMemorySnapshotter() *MemorySnapshotter {
	return &MemorySnapshotter{}
}

// Save replaces the stored snapshot.
func (m *MemorySnapshotter) Save(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	return nil
}

// Load returns a copy of the stored snapshot.
func (m *MemorySnapshotter) Load(_ context.Context) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.data == nil {
		return nil, ErrNoSnapshot
	}
	return append([]byte(nil), m.data...), nil
}
