package article

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/newsvec/internal/db"
	"github.com/kailas-cloud/newsvec/internal/db/postgres"
	"github.com/kailas-cloud/newsvec/internal/domain"
	domart "github.com/kailas-cloud/newsvec/internal/domain/article"
)

// pgStore is the consumer interface for the relational backend (ISP).
type pgStore interface {
	InsertDocument(ctx context.Context, row postgres.DocumentRow) error
	GetDocument(ctx context.Context, id string) ([]byte, error)
	DocumentsByVectorIDs(ctx context.Context, vectorIDs []string) (map[string][]byte, error)
	FindDocumentByGUIDOrLink(ctx context.Context, guid, link string) ([]byte, error)
	AllDocuments(ctx context.Context, fn func(data []byte) error) error
}

// PostgresRepo stores documents in the articles table; guid uniqueness is
// enforced by the database.
type PostgresRepo struct {
	store pgStore
}

// NewPostgres creates a Postgres-backed document repository.
func NewPostgres(s pgStore) *PostgresRepo {
	return &PostgresRepo{store: s}
}

// Insert stores a new document; a guid collision yields domain.ErrAlreadyExists.
func (p *PostgresRepo) Insert(ctx context.Context, doc *domart.Document) error {
	row, err := toRow(doc)
	if err != nil {
		return err
	}
	if err := p.store.InsertDocument(ctx, row); err != nil {
		if errors.Is(err, db.ErrKeyExists) {
			return fmt.Errorf("guid %q: %w", doc.GUID(), domain.ErrAlreadyExists)
		}
		return fmt.Errorf("insert %s: %w", doc.ID(), err)
	}
	return nil
}

// FindByID returns a document or domain.ErrDocumentNotFound.
func (p *PostgresRepo) FindByID(ctx context.Context, id string) (domart.Document, error) {
	raw, err := p.store.GetDocument(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domart.Document{}, fmt.Errorf("document %s: %w", id, domain.ErrDocumentNotFound)
		}
		return domart.Document{}, fmt.Errorf("get %s: %w", id, err)
	}
	return decodeDocument(raw)
}

// FindByVectorIDs resolves vector ids to documents. Unknown ids are skipped.
func (p *PostgresRepo) FindByVectorIDs(ctx context.Context, vectorIDs []string) (map[string]domart.Document, error) {
	raws, err := p.store.DocumentsByVectorIDs(ctx, vectorIDs)
	if err != nil {
		return nil, fmt.Errorf("documents by vector ids: %w", err)
	}
	out := make(map[string]domart.Document, len(raws))
	for vid, raw := range raws {
		doc, err := decodeDocument(raw)
		if err != nil {
			return nil, err
		}
		out[vid] = doc
	}
	return out, nil
}

// ExactMatch returns the document whose guid or link matches, or nil.
func (p *PostgresRepo) ExactMatch(ctx context.Context, guid, link string) (*domart.Document, error) {
	if guid == "" && link == "" {
		return nil, nil
	}
	raw, err := p.store.FindDocumentByGUIDOrLink(ctx, guid, link)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("exact match: %w", err)
	}
	doc, err := decodeDocument(raw)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// Stats counts documents per source and category.
func (p *PostgresRepo) Stats(ctx context.Context) (domart.Stats, error) {
	stats := newStats()
	err := p.store.AllDocuments(ctx, func(raw []byte) error {
		doc, err := decodeDocument(raw)
		if err != nil {
			return err
		}
		addToStats(&stats, &doc)
		return nil
	})
	if err != nil {
		return domart.Stats{}, fmt.Errorf("stats: %w", err)
	}
	return stats, nil
}

func toRow(doc *domart.Document) (postgres.DocumentRow, error) {
	data, err := encodeDocument(doc)
	if err != nil {
		return postgres.DocumentRow{}, err
	}
	return postgres.DocumentRow{
		ID:       doc.ID(),
		GUID:     doc.GUID(),
		Link:     doc.Link(),
		VectorID: doc.VectorID(),
		Data:     data,
	}, nil
}
