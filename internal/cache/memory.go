package cache

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Cache. Entries live until invalidated, flushed or
// pruned once they are past their grace window.
type Memory struct {
	mu      sync.RWMutex
	grace   time.Duration
	entries map[string]Entry               // key -> entry
	tags    map[string]map[string]struct{} // tag -> keys
}

// NewMemory creates an empty memory cache. grace is how long an expired
// entry is kept around for stale-if-error serving.
func NewMemory(grace time.Duration) *Memory {
	return &Memory{
		grace:   grace,
		entries: make(map[string]Entry),
		tags:    make(map[string]map[string]struct{}),
	}
}

func (m *Memory) Get(_ context.Context, key string) (Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key]
	return e, ok, nil
}

func (m *Memory) Set(_ context.Context, key string, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.entries[key]; ok {
		m.untag(key, old.Tags)
	}

	m.entries[key] = entry
	for _, tag := range entry.Tags {
		keys, ok := m.tags[tag]
		if !ok {
			keys = make(map[string]struct{})
			m.tags[tag] = keys
		}
		keys[key] = struct{}{}
	}
	return nil
}

func (m *Memory) InvalidateTags(_ context.Context, tags ...string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for _, tag := range tags {
		for key := range m.tags[tag] {
			if m.remove(key) {
				removed++
			}
		}
		delete(m.tags, tag)
	}
	return removed, nil
}

func (m *Memory) Flush(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]Entry)
	m.tags = make(map[string]map[string]struct{})
	return nil
}

// Prune removes entries that can no longer be served, even as stale.
// It returns the number of removed entries.
func (m *Memory) Prune(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, e := range m.entries {
		if !e.Usable(now, m.grace) {
			m.remove(key)
			removed++
		}
	}
	return removed
}

// Len returns the number of cached entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries)
}

// remove must be called with m.mu held.
func (m *Memory) remove(key string) bool {
	e, ok := m.entries[key]
	if !ok {
		return false
	}
	delete(m.entries, key)
	m.untag(key, e.Tags)
	return true
}

func (m *Memory) untag(key string, tags []string) {
	for _, tag := range tags {
		keys := m.tags[tag]
		delete(keys, key)
		if len(keys) == 0 {
			delete(m.tags, tag)
		}
	}
}
