// Package store provides Store implementations.
package store

import (
	"context"
	"sync"

	"github.com/oneearth/travel-engine/booking"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	data    []byte
	version int64

	readErr  error
	writeErr error
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Read(_ context.Context) (booking.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.readErr != nil {
		return booking.Snapshot{}, m.readErr
	}
	return booking.Snapshot{Data: clone(m.data), Version: m.version}, nil
}

func (m *Memory) Write(_ context.Context, data []byte, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.writeErr != nil {
		return m.writeErr
	}
	if expectedVersion != m.version {
		return booking.ErrConcurrentModification
	}
	m.data = clone(data)
	m.version++
	return nil
}

// FailReads makes every following Read return err. nil restores normal reads.
func (m *Memory) FailReads(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr = err
}

// FailWrites makes every following Write return err, e.g. to simulate a
// full quota. nil restores normal writes.
func (m *Memory) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

// Raw returns the stored blob as written.
func (m *Memory) Raw() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return clone(m.data)
}

// Put replaces the blob unconditionally, e.g. to seed records written by an
// older version of the application.
func (m *Memory) Put(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = clone(data)
	m.version++
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
