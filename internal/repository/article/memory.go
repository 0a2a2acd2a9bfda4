package article

import (
	"context"
	"fmt"
	"sync"

	"github.com/kailas-cloud/newsvec/internal/domain"
	domart "github.com/kailas-cloud/newsvec/internal/domain/article"
)

// MemoryRepo keeps documents in process memory.
type MemoryRepo struct {
	mu     sync.RWMutex
	docs   map[string]domart.Document
	byGUID map[string]string
	byLink map[string]string
	byVID  map[string]string
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *MemoryRepo {
	return &MemoryRepo{
		docs:   make(map[string]domart.Document),
		byGUID: make(map[string]string),
		byLink: make(map[string]string),
		byVID:  make(map[string]string),
	}
}

// Insert stores a new document; a known guid yields domain.ErrAlreadyExists.
func (m *MemoryRepo) Insert(_ context.Context, doc *domart.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byGUID[doc.GUID()]; ok {
		return fmt.Errorf("guid %q: %w", doc.GUID(), domain.ErrAlreadyExists)
	}
	m.docs[doc.ID()] = *doc
	m.byGUID[doc.GUID()] = doc.ID()
	if l := doc.Link(); l != "" {
		if _, ok := m.byLink[l]; !ok {
			m.byLink[l] = doc.ID()
		}
	}
	if doc.HasVector() {
		m.byVID[doc.VectorID()] = doc.ID()
	}
	return nil
}

// FindByID returns a document or domain.ErrDocumentNotFound.
func (m *MemoryRepo) FindByID(_ context.Context, id string) (domart.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[id]
	if !ok {
		return domart.Document{}, fmt.Errorf("document %s: %w", id, domain.ErrDocumentNotFound)
	}
	return doc, nil
}

// FindByVectorIDs resolves vector ids to documents. Unknown ids are skipped.
func (m *MemoryRepo) FindByVectorIDs(_ context.Context, vectorIDs []string) (map[string]domart.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]domart.Document, len(vectorIDs))
	for _, vid := range vectorIDs {
		if id, ok := m.byVID[vid]; ok {
			out[vid] = m.docs[id]
		}
	}
	return out, nil
}

// ExactMatch returns the document whose guid or link matches, or nil.
func (m *MemoryRepo) ExactMatch(_ context.Context, guid, link string) (*domart.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if guid != "" {
		if id, ok := m.byGUID[guid]; ok {
			doc := m.docs[id]
			return &doc, nil
		}
	}
	if link != "" {
		if id, ok := m.byLink[link]; ok {
			doc := m.docs[id]
			return &doc, nil
		}
	}
	return nil, nil
}

// Stats counts documents per source and category.
func (m *MemoryRepo) Stats(context.Context) (domart.Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := newStats()
	for _, doc := range m.docs {
		addToStats(&stats, &doc)
	}
	return stats, nil
}
