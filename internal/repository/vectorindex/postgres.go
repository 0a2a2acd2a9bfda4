package vectorindex

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/newsvec/internal/db"
	"github.com/kailas-cloud/newsvec/internal/domain"
)

// pgStore is the consumer interface for the pgvector-backed index (ISP).
type pgStore interface {
	Migrate(ctx context.Context, dim int) error
	UpsertVector(ctx context.Context, id string, vec []float32, metadata map[string]string) error
	GetVector(ctx context.Context, id string) ([]float32, map[string]string, error)
	NearestVectors(ctx context.Context, vec []float32, k int) ([]db.SearchEntry, error)
	DeleteVector(ctx context.Context, id string) error
	CountVectors(ctx context.Context) (int, error)
}

// PostgresIndex keeps vectors in a pgvector column with an HNSW cosine index.
type PostgresIndex struct {
	store pgStore
	dim   int
}

// NewPostgres creates a pgvector-backed index of the given dimensionality.
func NewPostgres(s pgStore, dim int) *PostgresIndex {
	return &PostgresIndex{store: s, dim: dim}
}

// EnsureIndex runs the schema migration.
func (p *PostgresIndex) EnsureIndex(ctx context.Context) error {
	if err := p.store.Migrate(ctx, p.dim); err != nil {
		return unavailable("migrate", err)
	}
	return nil
}

// Upsert inserts or replaces an entry.
func (p *PostgresIndex) Upsert(ctx context.Context, e Entry) error {
	if err := checkDim(p.dim, e.Vector); err != nil {
		return err
	}
	if err := p.store.UpsertVector(ctx, e.ID, e.Vector, e.Metadata); err != nil {
		return unavailable("upsert "+e.ID, err)
	}
	return nil
}

// Get returns the entry for id, or domain.ErrNotFound.
func (p *PostgresIndex) Get(ctx context.Context, id string) (Entry, error) {
	vec, meta, err := p.store.GetVector(ctx, id)
	if err != nil {
		if isMissing(err) {
			return Entry{}, fmt.Errorf("vector %s: %w", id, domain.ErrNotFound)
		}
		return Entry{}, unavailable("get "+id, err)
	}
	return Entry{ID: id, Vector: vec, Metadata: meta}, nil
}

// Query returns up to k nearest entries by cosine distance.
func (p *PostgresIndex) Query(ctx context.Context, vector []float32, k int) ([]Neighbor, error) {
	if k <= 0 {
		return nil, nil
	}
	if err := checkDim(p.dim, vector); err != nil {
		return nil, err
	}

	entries, err := p.store.NearestVectors(ctx, vector, k)
	if err != nil {
		return nil, unavailable("query", err)
	}

	out := make([]Neighbor, 0, len(entries))
	for _, e := range entries {
		out = append(out, Neighbor{ID: e.Key, Distance: e.Distance, Metadata: e.Fields})
	}
	return sortNeighbors(out, k), nil
}

// Delete removes an entry.
func (p *PostgresIndex) Delete(ctx context.Context, id string) error {
	if err := p.store.DeleteVector(ctx, id); err != nil {
		return unavailable("delete "+id, err)
	}
	return nil
}

// Count returns the number of stored vectors.
func (p *PostgresIndex) Count(ctx context.Context) (int, error) {
	n, err := p.store.CountVectors(ctx)
	if err != nil {
		return 0, unavailable("count", err)
	}
	return n, nil
}
