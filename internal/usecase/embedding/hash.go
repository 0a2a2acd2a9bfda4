package embedding

import (
	"context"
	"math"
	"strings"

	"github.com/kailas-cloud/newsvec/internal/domain"
)

// HashEmbedder is the last-resort tier: a deterministic pseudo-embedding
// derived from the text's code points. It never fails. Vectors carry no
// semantics beyond exact-text equality.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder creates a hash embedder of the given dimensionality.
func NewHashEmbedder(dim int) *HashEmbedder {
	return &HashEmbedder{dim: dim}
}

// Embed implements domain.Embedder.
func (h *HashEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: h.Vector(text), Backend: domain.BackendHash}, nil
}

// Vector computes the hash embedding of text.
// seed is the sum of code points of the lower-cased text; component i is the
// fractional part of sin(seed+i)*10000. The result is L2-normalized.
func (h *HashEmbedder) Vector(text string) []float32 {
	var seed float64
	for _, r := range strings.ToLower(text) {
		seed += float64(r)
	}

	v := make([]float32, h.dim)
	for i := range v {
		x := math.Sin(seed) * 10000
		seed++
		v[i] = float32(x - math.Floor(x))
	}
	return domain.Normalize(v)
}
