package world

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Stats counts the snapshot operations a Memory world has served.
type Stats struct {
	Snapshots int // successful Snapshot calls
	Reverts   int // successful RevertAndSnapshot calls
}

type memSnapshot struct {
	handle Handle
	state  map[string]int64
}

// Memory is an in-process State backed by a map.
//
// Snapshots form a stack: reverting to a handle pops it and everything
// above it before pushing the replacement.
//
// Thread-safety: all methods are safe for concurrent use.
type Memory struct {
	mu        sync.Mutex
	state     map[string]int64
	snapshots []memSnapshot
	nextID    int
	stats     Stats
}

// NewMemory creates an empty in-memory world.
func NewMemory() *Memory {
	return &Memory{state: make(map[string]int64)}
}

// Get returns the value stored under key, or zero.
func (m *Memory) Get(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state[key], nil
}

// Set stores value under key.
func (m *Memory) Set(_ context.Context, key string, value int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state[key] = value
	return nil
}

// Keys returns the set keys in sorted order.
func (m *Memory) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Sorted(maps.Keys(m.state))
}

// Stats returns the operation counters.
func (m *Memory) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// Depth returns the number of live snapshots.
func (m *Memory) Depth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.snapshots)
}

// Snapshot implements World.
func (m *Memory) Snapshot(ctx context.Context) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.Snapshots++
	return m.push(), nil
}

// RevertAndSnapshot implements World.
func (m *Memory) RevertAndSnapshot(ctx context.Context, h Handle) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	at := slices.IndexFunc(m.snapshots, func(s memSnapshot) bool { return s.handle == h })
	if at < 0 {
		return "", fmt.Errorf("revert to %q: %w", h, ErrUnknownHandle)
	}

	m.state = maps.Clone(m.snapshots[at].state)
	m.snapshots = m.snapshots[:at]
	m.stats.Reverts++
	return m.push(), nil
}

// push records the current state. Caller holds m.mu.
func (m *Memory) push() Handle {
	m.nextID++
	h := Handle(fmt.Sprintf("mem-%d", m.nextID))
	m.snapshots = append(m.snapshots, memSnapshot{handle: h, state: maps.Clone(m.state)})
	return h
}
