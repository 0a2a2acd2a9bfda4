package domain

import "context"

// EmbeddingDim is the dimensionality of every vector produced or stored.
const EmbeddingDim = 384

// Backend names the embedding tier that served a request.
type Backend string

const (
	// BackendRemote is the hosted embedding API.
	BackendRemote Backend = "remote"
	// BackendLocalPrimary is the preferred locally hosted model.
	BackendLocalPrimary Backend = "local-primary"
	// BackendLocalSecondary is the smaller locally hosted model.
	BackendLocalSecondary Backend = "local-secondary"
	// BackendHash is the deterministic last-resort embedder.
	BackendHash Backend = "hash"
	// BackendCache marks a vector served from the embedding cache.
	BackendCache Backend = "cache"
)

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector, the serving tier and token usage.
type EmbeddingResult struct {
	Embedding    []float32
	Backend      Backend
	PromptTokens int
	TotalTokens  int
}
