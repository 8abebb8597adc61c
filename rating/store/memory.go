// Package store provides SnapshotProvider implementations.
package store

import (
	"context"
	"errors"
	"sync"

	"github.com/coverline/rating-engine/rating"
)

// =============================================================================
// MEMORY PROVIDER - In-memory implementation (for testing/dev)
// =============================================================================

// ErrNoSnapshot is returned when the memory provider holds nothing.
var ErrNoSnapshot = errors.New("memory provider: no snapshot set")

// Memory serves a pre-built snapshot. Set/Swap make it a convenient stand-in
// for the back-office store in tests and demo scenarios.
type Memory struct {
	mu   sync.RWMutex
	snap *rating.Snapshot
	err  error
}

func NewMemory(snap *rating.Snapshot) *Memory {
	return &Memory{snap: snap}
}

// LoadSnapshot returns the held snapshot, or the configured error.
func (m *Memory) LoadSnapshot(_ context.Context) (*rating.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.snap == nil {
		return nil, ErrNoSnapshot
	}
	return m.snap, nil
}

// Set replaces the held snapshot.
func (m *Memory) Set(snap *rating.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap
	m.err = nil
}

// Fail makes subsequent loads return err, simulating a store outage.
func (m *Memory) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}
