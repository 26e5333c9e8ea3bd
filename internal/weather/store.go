package weather

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// ErrCacheMiss is returned by a Store when no entry exists for a key.
var ErrCacheMiss = errors.New("weather cache miss")

// EntryKind distinguishes forecast entries from observation entries.
type EntryKind string

const (
	KindForecast    EntryKind = "forecast"
	KindObservation EntryKind = "current"
)

// Entry is a cached provider response.
type Entry struct {
	Forecast    *Forecast    `json:"forecast,omitempty"`
	Observation *Observation `json:"observation,omitempty"`
	FetchedAt   time.Time    `json:"fetchedAt"`
	ExpiresAt   time.Time    `json:"expiresAt"`
}

// Store persists cache entries. Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, error)

	// Set stores entry; retention bounds how long the store keeps it.
	Set(ctx context.Context, key string, entry *Entry, retention time.Duration) error

	// Purge removes entries fetched before cutoff and returns how many were removed.
	Purge(ctx context.Context, cutoff time.Time) (int, error)
}

type entryCounter interface {
	Count(ctx context.Context, kind EntryKind) (total, fresh int)
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*Entry)}
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, key string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return entry, nil
}

// Set implements Store. Retention is enforced by Purge.
func (m *MemoryStore) Set(_ context.Context, key string, entry *Entry, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry
	return nil
}

// Purge implements Store.
func (m *MemoryStore) Purge(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for key, entry := range m.entries {
		if entry.FetchedAt.Before(cutoff) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Count returns the number of entries of kind and how many are unexpired.
func (m *MemoryStore) Count(_ context.Context, kind EntryKind) (total, fresh int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := time.Now()
	prefix := string(kind) + ":"
	for key, entry := range m.entries {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		total++
		if now.Before(entry.ExpiresAt) {
			fresh++
		}
	}
	return total, fresh
}
