package ingest

import (
	"context"

	"github.com/kailas-cloud/newsvec/internal/domain"
	"github.com/kailas-cloud/newsvec/internal/domain/article"
	"github.com/kailas-cloud/newsvec/internal/domain/dedup"
	"github.com/kailas-cloud/newsvec/internal/repository/vectorindex"
)

// Gate decides whether an item is already stored.
type Gate interface {
	Check(ctx context.Context, c dedup.Candidate, threshold float64) (dedup.Verdict, error)
}

// DocumentWriter persists documents.
type DocumentWriter interface {
	Insert(ctx context.Context, doc *article.Document) error
	ExactMatch(ctx context.Context, guid, link string) (*article.Document, error)
}

// VectorWriter persists index entries.
type VectorWriter interface {
	Upsert(ctx context.Context, e vectorindex.Entry) error
	Delete(ctx context.Context, id string) error
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// BatchEmbedder vectorizes several texts at once, keeping input order.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) ([]domain.EmbeddingResult, error)
}

// FeedReader fetches and parses a feed into raw items.
type FeedReader interface {
	Fetch(ctx context.Context, url, sourceID string) ([]article.Raw, error)
}
