package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// uniqueViolation is the SQLSTATE for a unique constraint conflict.
const uniqueViolation = "23505"

// Config holds connection parameters for a PostgreSQL store.
type Config struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// Store is a PostgreSQL + pgvector backend for article vectors and documents.
type Store struct {
	db *sql.DB
}

// NewStore opens a connection pool. It does not verify connectivity.
func NewStore(cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("dsn is required")
	}

	conn, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	conn.SetConnMaxIdleTime(15 * time.Minute)

	return &Store{db: conn}, nil
}

// NewStoreFromDB wraps an existing pool (tests, shared pools).
func NewStoreFromDB(conn *sql.DB) *Store {
	return &Store{db: conn}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close shuts down the pool.
func (s *Store) Close() {
	_ = s.db.Close()
}

// WaitForReady polls Ping until the database responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// Migrate creates the pgvector extension and both tables if they are missing.
func (s *Store) Migrate(ctx context.Context, dim int) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS article_vectors (
			id TEXT PRIMARY KEY,
			embedding vector(%d) NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}'::jsonb
		)`, dim),
		`CREATE INDEX IF NOT EXISTS article_vectors_hnsw
			ON article_vectors USING hnsw (embedding vector_cosine_ops)`,
		`CREATE TABLE IF NOT EXISTS articles (
			id TEXT PRIMARY KEY,
			guid TEXT NOT NULL UNIQUE,
			link TEXT NOT NULL DEFAULT '',
			vector_id TEXT,
			data JSONB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS articles_link ON articles (link)`,
		`CREATE INDEX IF NOT EXISTS articles_vector_id ON articles (vector_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
