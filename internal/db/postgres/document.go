package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/kailas-cloud/newsvec/internal/db"
)

// DocumentRow is a stored article as the repository layer sees it.
type DocumentRow struct {
	ID       string
	GUID     string
	Link     string
	VectorID string
	Data     []byte
}

// InsertDocument stores a new row. A GUID collision yields db.ErrKeyExists.
func (s *Store) InsertDocument(ctx context.Context, row DocumentRow) error {
	const stmt = `
		INSERT INTO articles (id, guid, link, vector_id, data)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5)`

	_, err := s.db.ExecContext(ctx, stmt, row.ID, row.GUID, row.Link, row.VectorID, row.Data)
	if err != nil {
		if isUniqueViolation(err) {
			return db.ErrKeyExists
		}
		return &db.Error{Op: "INSERT articles", Err: err}
	}
	return nil
}

// GetDocument returns the JSON payload of id, or db.ErrKeyNotFound.
func (s *Store) GetDocument(ctx context.Context, id string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM articles WHERE id = $1`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, db.ErrKeyNotFound
	}
	if err != nil {
		return nil, &db.Error{Op: "SELECT articles", Err: err}
	}
	return data, nil
}

// DocumentsByVectorIDs returns payloads keyed by vector id. Unknown ids are absent.
func (s *Store) DocumentsByVectorIDs(ctx context.Context, vectorIDs []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(vectorIDs))
	if len(vectorIDs) == 0 {
		return out, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT vector_id, data FROM articles WHERE vector_id = ANY($1)`, pq.Array(vectorIDs))
	if err != nil {
		return nil, &db.Error{Op: "SELECT articles", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var vid string
		var data []byte
		if err := rows.Scan(&vid, &data); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		out[vid] = data
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: "SELECT articles", Err: err}
	}
	return out, nil
}

// FindDocumentByGUIDOrLink returns the first row whose guid or link matches.
// Empty arguments never match. A miss yields db.ErrKeyNotFound.
func (s *Store) FindDocumentByGUIDOrLink(ctx context.Context, guid, link string) ([]byte, error) {
	const query = `
		SELECT data FROM articles
		WHERE ($1 <> '' AND guid = $1) OR ($2 <> '' AND link = $2)
		ORDER BY id
		LIMIT 1`

	var data []byte
	err := s.db.QueryRowContext(ctx, query, guid, link).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, db.ErrKeyNotFound
	}
	if err != nil {
		return nil, &db.Error{Op: "SELECT articles", Err: err}
	}
	return data, nil
}

// AllDocuments streams every payload to fn.
func (s *Store) AllDocuments(ctx context.Context, fn func(data []byte) error) error {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM articles`)
	if err != nil {
		return &db.Error{Op: "SELECT articles", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return fmt.Errorf("scan article: %w", err)
		}
		if err := fn(data); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return &db.Error{Op: "SELECT articles", Err: err}
	}
	return nil
}
