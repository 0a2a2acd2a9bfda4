package dedup

import (
	"context"

	"github.com/kailas-cloud/newsvec/internal/domain"
	"github.com/kailas-cloud/newsvec/internal/domain/article"
	"github.com/kailas-cloud/newsvec/internal/repository/vectorindex"
)

// Documents is the document store contract used by the gate.
type Documents interface {
	ExactMatch(ctx context.Context, guid, link string) (*article.Document, error)
	FindByVectorIDs(ctx context.Context, vectorIDs []string) (map[string]article.Document, error)
}

// Index is the nearest-neighbour contract used by the gate.
type Index interface {
	Query(ctx context.Context, vector []float32, k int) ([]vectorindex.Neighbor, error)
}

// Embedder vectorizes candidate text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
