package cache

import (
	"context"
	"sync"
	"time"
)

// Memory is a thread-safe in-memory TTL store. Expired entries are removed
// when read; an optional sweep goroutine purges the rest.
type Memory[T any] struct {
	entries map[string]Entry[T]
	stopCh  chan struct{}
	mu      sync.RWMutex
}

// NewMemory creates an in-memory store. A positive sweepInterval starts a
// background sweep; zero disables it.
func NewMemory[T any](sweepInterval time.Duration) *Memory[T] {
	m := &Memory[T]{
		entries: make(map[string]Entry[T]),
		stopCh:  make(chan struct{}),
	}
	if sweepInterval > 0 {
		go m.sweep(sweepInterval)
	}
	return m
}

// Get returns the cached value if present and unexpired. An expired entry is
// deleted and reported as a miss.
func (m *Memory[T]) Get(_ context.Context, key string) (T, bool, error) {
	var zero T

	m.mu.RLock()
	entry, exists := m.entries[key]
	m.mu.RUnlock()

	if !exists {
		return zero, false, nil
	}
	if entry.Expired(time.Now()) {
		m.mu.Lock()
		// Re-check under the write lock; a writer may have refreshed it.
		if current, ok := m.entries[key]; ok && current.Expired(time.Now()) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return zero, false, nil
	}
	return entry.Value, true, nil
}

// Put stores a value under key. Concurrent writers to the same key are
// last-writer-wins; entries are derived data, so recomputation is idempotent.
func (m *Memory[T]) Put(_ context.Context, key string, value T, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = NewEntry(value, ttl, time.Now())
	return nil
}

// Invalidate removes a key.
func (m *Memory[T]) Invalidate(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// Len returns the number of entries, expired ones included.
func (m *Memory[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Close stops the sweep goroutine.
func (m *Memory[T]) Close() error {
	close(m.stopCh)
	return nil
}

func (m *Memory[T]) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.mu.Lock()
			now := time.Now()
			for key, entry := range m.entries {
				if entry.Expired(now) {
					delete(m.entries, key)
				}
			}
			m.mu.Unlock()
		}
	}
}
