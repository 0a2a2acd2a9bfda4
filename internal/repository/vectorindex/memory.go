package vectorindex

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/kailas-cloud/newsvec/internal/domain"
)

// MemoryIndex is an exhaustive in-process cosine index.
type MemoryIndex struct {
	mu      sync.RWMutex
	dim     int
	entries map[string]Entry
}

// NewMemory creates an empty in-memory index.
func NewMemory(dim int) *MemoryIndex {
	return &MemoryIndex{dim: dim, entries: make(map[string]Entry)}
}

// EnsureIndex is a no-op.
func (m *MemoryIndex) EnsureIndex(context.Context) error { return nil }

// Upsert inserts or replaces an entry. The vector is copied.
func (m *MemoryIndex) Upsert(_ context.Context, e Entry) error {
	if err := checkDim(m.dim, e.Vector); err != nil {
		return err
	}
	e.Vector = slices.Clone(e.Vector)
	e.Metadata = maps.Clone(e.Metadata)

	m.mu.Lock()
	m.entries[e.ID] = e
	m.mu.Unlock()
	return nil
}

// Get returns the entry for id, or domain.ErrNotFound.
func (m *MemoryIndex) Get(_ context.Context, id string) (Entry, error) {
	m.mu.RLock()
	e, ok := m.entries[id]
	m.mu.RUnlock()
	if !ok {
		return Entry{}, fmt.Errorf("vector %s: %w", id, domain.ErrNotFound)
	}
	e.Vector = slices.Clone(e.Vector)
	e.Metadata = maps.Clone(e.Metadata)
	return e, nil
}

// Query scans every entry.
func (m *MemoryIndex) Query(_ context.Context, vector []float32, k int) ([]Neighbor, error) {
	if k <= 0 {
		return nil, nil
	}
	if err := checkDim(m.dim, vector); err != nil {
		return nil, err
	}

	m.mu.RLock()
	out := make([]Neighbor, 0, len(m.entries))
	for id, e := range m.entries {
		out = append(out, Neighbor{
			ID:       id,
			Distance: domain.CosineDistance(vector, e.Vector),
			Metadata: maps.Clone(e.Metadata),
		})
	}
	m.mu.RUnlock()

	return sortNeighbors(out, k), nil
}

// Delete removes an entry.
func (m *MemoryIndex) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()
	return nil
}

// Count returns the number of entries.
func (m *MemoryIndex) Count(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}
