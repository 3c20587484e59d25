package noncestore

import (
	"context"
	"sync"
	"time"
)

// DefaultMemoryRetention is used when NewMemory is given a non-positive
// retention.
const DefaultMemoryRetention = time.Hour

type memoryKey struct {
	context string
	nonce   string
}

// Memory is a single-process store. Expired entries are dropped lazily,
// at most once per prune interval.
type Memory struct {
	mu        sync.Mutex
	entries   map[memoryKey]time.Time
	retention time.Duration
	now       func() time.Time
	nextPrune time.Time
}

func NewMemory(retention time.Duration) *Memory {
	return NewMemoryWithClock(retention, time.Now)
}

// NewMemoryWithClock is NewMemory with an injected clock.
func NewMemoryWithClock(retention time.Duration, now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	if retention <= 0 {
		retention = DefaultMemoryRetention
	}
	return &Memory{
		entries:   make(map[memoryKey]time.Time),
		retention: retention,
		now:       now,
	}
}

func (m *Memory) StoreIfAbsent(ctx context.Context, contextKey, nonce string, _ time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	now := m.now()
	k := memoryKey{context: contextKey, nonce: nonce}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !now.Before(m.nextPrune) {
		m.pruneLocked(now)
		m.nextPrune = now.Add(m.retention)
	}

	if exp, ok := m.entries[k]; ok && now.Before(exp) {
		return false, nil
	}
	m.entries[k] = now.Add(m.retention)
	return true, nil
}

func (m *Memory) pruneLocked(now time.Time) {
	for k, exp := range m.entries {
		if !now.Before(exp) {
			delete(m.entries, k)
		}
	}
}

// Len returns the number of recorded nonces, including expired ones not yet
// pruned.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memory) Retention() time.Duration {
	return m.retention
}
