package search

import (
	"context"

	"github.com/kailas-cloud/newsvec/internal/domain"
	"github.com/kailas-cloud/newsvec/internal/domain/article"
	"github.com/kailas-cloud/newsvec/internal/repository/vectorindex"
)

// Index is the vector index contract used by search.
type Index interface {
	Query(ctx context.Context, vector []float32, k int) ([]vectorindex.Neighbor, error)
	Get(ctx context.Context, id string) (vectorindex.Entry, error)
}

// DocumentReader resolves index hits to documents.
type DocumentReader interface {
	FindByID(ctx context.Context, id string) (article.Document, error)
	FindByVectorIDs(ctx context.Context, vectorIDs []string) (map[string]article.Document, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
