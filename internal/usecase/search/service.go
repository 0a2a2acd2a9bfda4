// Package search answers "articles like this text" and "articles like this
// article" queries over the vector index.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/newsvec/internal/domain"
	"github.com/kailas-cloud/newsvec/internal/domain/search/filter"
	"github.com/kailas-cloud/newsvec/internal/domain/search/result"
	"github.com/kailas-cloud/newsvec/internal/metrics"
	"github.com/kailas-cloud/newsvec/internal/repository/vectorindex"
)

// DefaultCandidateCeiling caps how many neighbours are fetched per query.
const DefaultCandidateCeiling = 50

// Service handles similarity search.
type Service struct {
	index    Index
	docs     DocumentReader
	embed    Embedder
	ceiling  int
	logger   *zap.Logger
	observer func(kind string, start time.Time, n int)
}

// New creates a search service. ceiling <= 0 selects DefaultCandidateCeiling.
func New(index Index, docs DocumentReader, embed Embedder, ceiling int, logger *zap.Logger) *Service {
	if ceiling <= 0 {
		ceiling = DefaultCandidateCeiling
	}
	return &Service{
		index:    index,
		docs:     docs,
		embed:    embed,
		ceiling:  ceiling,
		logger:   logger,
		observer: observe,
	}
}

// SearchByText returns documents semantically similar to query, best first.
func (s *Service) SearchByText(ctx context.Context, query string, f filter.Filter) ([]result.Result, error) {
	start := time.Now()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidQuery)
	}

	emb, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	neighbors, err := s.index.Query(ctx, emb.Embedding, s.candidates(f))
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	results, err := s.rank(ctx, neighbors, f, "", "")
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Text search completed",
		zap.String("backend", string(emb.Backend)),
		zap.Int("candidates", len(neighbors)),
		zap.Int("results", len(results)),
	)
	s.observer("text", start, len(results))
	return results, nil
}

// SearchSimilarTo returns documents similar to the stored document id,
// excluding the document itself.
func (s *Service) SearchSimilarTo(ctx context.Context, documentID string, f filter.Filter) ([]result.Result, error) {
	start := time.Now()

	doc, err := s.docs.FindByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("find document: %w", err)
	}
	if !doc.HasVector() {
		return nil, fmt.Errorf("document %s: %w", documentID, domain.ErrDocumentHasNoVector)
	}

	entry, err := s.index.Get(ctx, doc.VectorID())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("document %s: %w", documentID, domain.ErrDocumentHasNoVector)
		}
		return nil, fmt.Errorf("get vector: %w", err)
	}

	// One extra slot for the source vector, which is always its own nearest neighbour.
	neighbors, err := s.index.Query(ctx, entry.Vector, s.candidates(f)+1)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	results, err := s.rank(ctx, neighbors, f, doc.VectorID(), doc.ID())
	if err != nil {
		return nil, err
	}

	s.observer("similar", start, len(results))
	return results, nil
}

func (s *Service) candidates(f filter.Filter) int {
	return min(f.MaxResults()*2, s.ceiling)
}

// rank joins neighbours to documents, scores, filters, sorts and truncates.
func (s *Service) rank(
	ctx context.Context, neighbors []vectorindex.Neighbor, f filter.Filter,
	excludeVectorID, excludeDocID string,
) ([]result.Result, error) {
	if len(neighbors) == 0 {
		return []result.Result{}, nil
	}

	ids := make([]string, 0, len(neighbors))
	for _, n := range neighbors {
		if n.ID != excludeVectorID {
			ids = append(ids, n.ID)
		}
	}

	docs, err := s.docs.FindByVectorIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve documents: %w", err)
	}

	results := make([]result.Result, 0, len(ids))
	for _, n := range neighbors {
		if n.ID == excludeVectorID {
			continue
		}
		doc, ok := docs[n.ID]
		if !ok || doc.ID() == excludeDocID {
			continue
		}
		score := domain.Similarity(n.Distance)
		if score < f.MinSimilarity() {
			continue
		}
		if !f.Matches(&doc) {
			continue
		}
		results = append(results, result.New(score, doc))
	}

	result.Sort(results)
	if len(results) > f.MaxResults() {
		results = results[:f.MaxResults()]
	}
	return results, nil
}

func observe(kind string, start time.Time, n int) {
	metrics.SearchDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	metrics.SearchResults.WithLabelValues(kind).Observe(float64(n))
}
