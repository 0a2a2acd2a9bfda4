// Package dedup decides whether an incoming article is already stored.
package dedup

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/newsvec/internal/domain"
	"github.com/kailas-cloud/newsvec/internal/domain/article"
	"github.com/kailas-cloud/newsvec/internal/domain/dedup"
	"github.com/kailas-cloud/newsvec/internal/metrics"
)

// Service is the deduplication gate.
type Service struct {
	docs   Documents
	index  Index
	embed  Embedder
	logger *zap.Logger
}

// New creates a deduplication gate.
func New(docs Documents, index Index, embed Embedder, logger *zap.Logger) *Service {
	return &Service{docs: docs, index: index, embed: embed, logger: logger}
}

// Check runs the exact and semantic checks in order.
// threshold <= 0 selects dedup.DefaultThreshold.
func (s *Service) Check(ctx context.Context, c dedup.Candidate, threshold float64) (dedup.Verdict, error) {
	if threshold <= 0 {
		threshold = dedup.DefaultThreshold
	}

	if c.GUID != "" || c.Link != "" {
		doc, err := s.docs.ExactMatch(ctx, c.GUID, c.Link)
		if err != nil {
			return dedup.Verdict{}, fmt.Errorf("exact match: %w", err)
		}
		if doc != nil {
			metrics.DedupVerdictsTotal.WithLabelValues("exact").Inc()
			return dedup.ExactMatch(doc.ID()), nil
		}
	}

	text := article.JoinText(c.Title, c.Body)
	if text == "" {
		metrics.DedupVerdictsTotal.WithLabelValues("unique").Inc()
		return dedup.NotDuplicate(), nil
	}

	v, err := s.semantic(ctx, text, c.Embedding, threshold)
	if err != nil {
		return dedup.Verdict{}, err
	}
	if v.IsDuplicate {
		metrics.DedupVerdictsTotal.WithLabelValues("semantic").Inc()
	} else {
		metrics.DedupVerdictsTotal.WithLabelValues("unique").Inc()
	}
	return v, nil
}

// semantic compares against the single nearest stored vector.
func (s *Service) semantic(ctx context.Context, text string, vec []float32, threshold float64) (dedup.Verdict, error) {
	if len(vec) == 0 {
		emb, err := s.embed.Embed(ctx, text)
		if err != nil {
			return dedup.Verdict{}, fmt.Errorf("%w: embed candidate: %w", dedup.ErrSemanticUnavailable, err)
		}
		vec = emb.Embedding
	}

	neighbors, err := s.index.Query(ctx, vec, 1)
	if err != nil {
		return dedup.Verdict{}, fmt.Errorf("%w: query index: %w", dedup.ErrSemanticUnavailable, err)
	}
	if len(neighbors) == 0 {
		return dedup.NotDuplicate(), nil
	}

	best := neighbors[0]
	score := domain.Similarity(best.Distance)
	if score < threshold {
		return dedup.NotDuplicate(), nil
	}

	docs, err := s.docs.FindByVectorIDs(ctx, []string{best.ID})
	if err != nil {
		return dedup.Verdict{}, fmt.Errorf("resolve document: %w", err)
	}
	doc, ok := docs[best.ID]
	if !ok {
		// Vector without a document: nothing to point the caller at.
		s.logger.Warn("Similar vector has no document", zap.String("vector_id", best.ID))
		return dedup.NotDuplicate(), nil
	}

	s.logger.Debug("Semantic duplicate",
		zap.String("document_id", doc.ID()),
		zap.Float64("score", score),
	)
	return dedup.SemanticMatch(doc.ID(), score), nil
}
