package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/kailas-cloud/newsvec/internal/db"
)

// UpsertVector inserts or replaces a vector entry.
func (s *Store) UpsertVector(ctx context.Context, id string, vec []float32, metadata map[string]string) error {
	meta, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	const stmt = `
		INSERT INTO article_vectors (id, embedding, metadata)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			metadata = EXCLUDED.metadata`

	if _, err := s.db.ExecContext(ctx, stmt, id, pgvector.NewVector(vec), meta); err != nil {
		return &db.Error{Op: "UPSERT article_vectors", Err: err}
	}
	return nil
}

// GetVector returns the vector and metadata for id, or db.ErrKeyNotFound.
func (s *Store) GetVector(ctx context.Context, id string) ([]float32, map[string]string, error) {
	const query = `SELECT embedding, metadata FROM article_vectors WHERE id = $1`

	var vec pgvector.Vector
	var meta []byte
	err := s.db.QueryRowContext(ctx, query, id).Scan(&vec, &meta)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, db.ErrKeyNotFound
	}
	if err != nil {
		return nil, nil, &db.Error{Op: "SELECT article_vectors", Err: err}
	}

	fields, err := decodeMetadata(meta)
	if err != nil {
		return nil, nil, err
	}
	return vec.Slice(), fields, nil
}

// NearestVectors returns up to k entries ordered by cosine distance (pgvector <=>).
func (s *Store) NearestVectors(ctx context.Context, vec []float32, k int) ([]db.SearchEntry, error) {
	const query = `
		SELECT id, embedding <=> $1 AS distance, metadata
		FROM article_vectors
		ORDER BY embedding <=> $1, id
		LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, pgvector.NewVector(vec), k)
	if err != nil {
		return nil, &db.Error{Op: "KNN article_vectors", Err: err}
	}
	defer rows.Close()

	var out []db.SearchEntry
	for rows.Next() {
		var e db.SearchEntry
		var meta []byte
		if err := rows.Scan(&e.Key, &e.Distance, &meta); err != nil {
			return nil, fmt.Errorf("scan neighbor: %w", err)
		}
		if e.Fields, err = decodeMetadata(meta); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: "KNN article_vectors", Err: err}
	}
	return out, nil
}

// DeleteVector removes a vector entry. Missing ids are not an error.
func (s *Store) DeleteVector(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM article_vectors WHERE id = $1`, id); err != nil {
		return &db.Error{Op: "DELETE article_vectors", Err: err}
	}
	return nil
}

// CountVectors returns the number of stored vectors.
func (s *Store) CountVectors(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM article_vectors`).Scan(&n); err != nil {
		return 0, &db.Error{Op: "COUNT article_vectors", Err: err}
	}
	return n, nil
}

func decodeMetadata(raw []byte) (map[string]string, error) {
	if len(raw) == 0 {
		return map[string]string{}, nil
	}
	m := make(map[string]string)
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return m, nil
}
