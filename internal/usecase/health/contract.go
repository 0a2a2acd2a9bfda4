package health

import (
	"context"

	"github.com/kailas-cloud/newsvec/internal/domain"
)

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks the embedding chain.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
	Tiers() []domain.Backend
}

// VectorCounter reports how many vectors are indexed.
type VectorCounter interface {
	Count(ctx context.Context) (int, error)
}
