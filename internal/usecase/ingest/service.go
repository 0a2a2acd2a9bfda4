// Package ingest turns raw feed items into stored, indexed documents.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/newsvec/internal/domain"
	"github.com/kailas-cloud/newsvec/internal/domain/article"
	"github.com/kailas-cloud/newsvec/internal/domain/dedup"
	doming "github.com/kailas-cloud/newsvec/internal/domain/ingest"
	"github.com/kailas-cloud/newsvec/internal/metrics"
	"github.com/kailas-cloud/newsvec/internal/repository/vectorindex"
)

var errNoFeedReader = errors.New("no feed reader configured")

const (
	// MaxBatchSize is the maximum number of items per batch request.
	MaxBatchSize = 100
	// DefaultSourceConcurrency bounds how many sources are processed at once.
	DefaultSourceConcurrency = 4
	// VectorIDPrefix prefixes the index id of every article vector.
	VectorIDPrefix = "article-"
)

// Service runs ingestion. Items of one source are processed in order so
// that later items are deduplicated against earlier ones.
type Service struct {
	gate      Gate
	docs      DocumentWriter
	index     VectorWriter
	embed     Embedder
	batch     BatchEmbedder
	feeds     FeedReader
	threshold float64
	sources   int
	logger    *zap.Logger

	newID func() string
	now   func() time.Time

	mu     sync.RWMutex
	status doming.Stats
}

// New creates an ingestion service.
func New(gate Gate, docs DocumentWriter, index VectorWriter, embed Embedder, logger *zap.Logger) *Service {
	return &Service{
		gate:      gate,
		docs:      docs,
		index:     index,
		embed:     embed,
		threshold: dedup.DefaultThreshold,
		sources:   DefaultSourceConcurrency,
		logger:    logger,
		newID:     uuid.NewString,
		now:       time.Now,
		status:    doming.Stats{Status: doming.RunIdle},
	}
}

// WithThreshold sets the semantic duplicate threshold.
func (s *Service) WithThreshold(t float64) *Service {
	if t > 0 {
		s.threshold = t
	}
	return s
}

// WithSourceConcurrency sets how many sources run in parallel.
func (s *Service) WithSourceConcurrency(n int) *Service {
	if n > 0 {
		s.sources = n
	}
	return s
}

// WithBatchEmbedder embeds the items of a batch up front, concurrently.
func (s *Service) WithBatchEmbedder(b BatchEmbedder) *Service {
	s.batch = b
	return s
}

// WithFeedReader enables IngestFeeds.
func (s *Service) WithFeedReader(r FeedReader) *Service {
	s.feeds = r
	return s
}

// Ingest processes a single item.
func (s *Service) Ingest(ctx context.Context, raw article.Raw) doming.Outcome {
	return s.ingestOne(ctx, raw, nil)
}

func (s *Service) ingestOne(ctx context.Context, raw article.Raw, pre *domain.EmbeddingResult) doming.Outcome {
	o := s.ingest(ctx, raw, pre)
	metrics.IngestItemsTotal.WithLabelValues(string(o.Status())).Inc()
	return o
}

// ingest stores one item. pre is the item's embedding when it was computed
// ahead of time.
func (s *Service) ingest(ctx context.Context, raw article.Raw, pre *domain.EmbeddingResult) doming.Outcome {
	r := raw.Normalize(s.now().UTC())
	if r.GUID == "" {
		return doming.Failed(fmt.Errorf("%w: guid or link is required", domain.ErrInvalidArticle))
	}

	c := dedup.Candidate{
		Title: r.Title,
		Body:  article.JoinText("", r.Description, r.Content),
		GUID:  r.GUID,
		Link:  r.Link,
	}
	if pre != nil {
		c.Embedding = pre.Embedding
	}
	verdict, err := s.gate.Check(ctx, c, s.threshold)
	switch {
	case errors.Is(err, dedup.ErrSemanticUnavailable):
		// Exact check passed; only the semantic comparison is missing.
		s.logger.Warn("Semantic dedup unavailable, treating item as new",
			zap.String("guid", r.GUID), zap.Error(err))
		verdict = dedup.NotDuplicate()
	case err != nil:
		return doming.Failed(fmt.Errorf("dedup: %w", err))
	}
	if verdict.IsDuplicate {
		return doming.Duplicate(verdict)
	}

	id := s.newID()
	doc, err := article.New(id, r.SourceID, r.Title, r.Description, r.Content,
		r.Link, r.GUID, r.Author, r.PubDate, r.Categories)
	if err != nil {
		return doming.Failed(fmt.Errorf("%w: %w", domain.ErrInvalidArticle, err))
	}

	vectorID := s.indexVector(ctx, &doc, pre)
	if vectorID != "" {
		doc = doc.WithVectorID(vectorID)
	}

	if err := s.docs.Insert(ctx, &doc); err != nil {
		if vectorID != "" {
			s.dropVector(ctx, vectorID)
		}
		if errors.Is(err, domain.ErrAlreadyExists) {
			return doming.Duplicate(s.raceVerdict(ctx, r))
		}
		return doming.Failed(fmt.Errorf("insert document: %w", err))
	}

	return doming.Stored(doc, vectorID != "")
}

// indexVector embeds and indexes doc. It returns the vector id, or ""
// when the document has to be stored without a vector.
func (s *Service) indexVector(ctx context.Context, doc *article.Document, pre *domain.EmbeddingResult) string {
	text := doc.EmbeddingText()
	if text == "" {
		return ""
	}

	var emb domain.EmbeddingResult
	if pre != nil {
		emb = *pre
	} else {
		var err error
		emb, err = s.embed.Embed(ctx, text)
		if err != nil {
			s.logger.Warn("Embedding failed, storing without vector",
				zap.String("document_id", doc.ID()), zap.Error(err))
			return ""
		}
	}

	vectorID := VectorIDPrefix + doc.ID()
	err := s.index.Upsert(ctx, vectorindex.Entry{
		ID:     vectorID,
		Vector: emb.Embedding,
		Metadata: map[string]string{
			vectorindex.MetaTitle:       doc.Title(),
			vectorindex.MetaSource:      doc.SourceID(),
			vectorindex.MetaPublishedAt: vectorindex.PublishedAtValue(doc.PublishedAt()),
			vectorindex.MetaLink:        doc.Link(),
		},
	})
	if err != nil {
		s.logger.Warn("Index upsert failed, storing without vector",
			zap.String("document_id", doc.ID()), zap.Error(err))
		return ""
	}
	return vectorID
}

func (s *Service) dropVector(ctx context.Context, vectorID string) {
	if err := s.index.Delete(context.WithoutCancel(ctx), vectorID); err != nil {
		s.logger.Warn("Failed to delete orphaned vector",
			zap.String("vector_id", vectorID), zap.Error(err))
	}
}

// raceVerdict reports the document that won a concurrent insert of the same item.
func (s *Service) raceVerdict(ctx context.Context, r article.Raw) dedup.Verdict {
	winner, err := s.docs.ExactMatch(ctx, r.GUID, r.Link)
	if err != nil || winner == nil {
		return dedup.ExactMatch("")
	}
	return dedup.ExactMatch(winner.ID())
}

// IngestBatch processes items in order. Per-item failures never abort the batch;
// a cancelled context fails the remaining items.
func (s *Service) IngestBatch(ctx context.Context, items []article.Raw) (doming.Stats, []doming.Outcome) {
	var stats doming.Stats
	outcomes := make([]doming.Outcome, len(items))
	pre := s.prefetch(ctx, items)
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			outcomes[i] = doming.Failed(err)
		} else {
			outcomes[i] = s.ingestOne(ctx, item, pre[i])
		}
		stats.Record(outcomes[i])
	}
	return stats, outcomes
}

// prefetch embeds every item's text concurrently. Entries stay nil for
// items without text, and all of them when batch embedding fails; those
// items are embedded one by one.
func (s *Service) prefetch(ctx context.Context, items []article.Raw) []*domain.EmbeddingResult {
	pre := make([]*domain.EmbeddingResult, len(items))
	if s.batch == nil || len(items) < 2 {
		return pre
	}

	var texts []string
	var owners []int
	now := s.now().UTC()
	for i, item := range items {
		r := item.Normalize(now)
		text := r.EmbeddingText()
		if text == "" {
			continue
		}
		texts = append(texts, text)
		owners = append(owners, i)
	}
	if len(texts) == 0 {
		return pre
	}

	results, err := s.batch.BatchEmbed(ctx, texts)
	if err != nil {
		s.logger.Warn("Batch embedding failed, embedding items one by one",
			zap.Int("items", len(texts)), zap.Error(err))
		return pre
	}
	for j, i := range owners {
		pre[i] = &results[j]
	}
	return pre
}

// IngestSources processes several sources concurrently and merges their stats.
func (s *Service) IngestSources(ctx context.Context, sources map[string][]article.Raw) (doming.Stats, error) {
	ids := make([]string, 0, len(sources))
	for id := range sources {
		ids = append(ids, id)
	}

	return s.run(ctx, len(ids), func(ctx context.Context, i int) doming.Stats {
		items := slices.Clone(sources[ids[i]])
		for j := range items {
			if items[j].SourceID == "" {
				items[j].SourceID = ids[i]
			}
		}
		stats, _ := s.IngestBatch(ctx, items)
		return stats
	})
}

// IngestFeeds fetches and processes feeds concurrently.
// A feed that cannot be fetched counts as one error.
func (s *Service) IngestFeeds(ctx context.Context, feeds []doming.Feed) (doming.Stats, error) {
	if s.feeds == nil {
		return doming.Stats{}, errNoFeedReader
	}
	return s.run(ctx, len(feeds), s.feedWork(feeds))
}

// StartFeeds claims the run and processes feeds in the background. It returns
// the run as started, or domain.ErrIngestInProgress without starting anything.
func (s *Service) StartFeeds(ctx context.Context, feeds []doming.Feed) (doming.Stats, error) {
	if s.feeds == nil {
		return doming.Stats{}, errNoFeedReader
	}
	started, err := s.begin(len(feeds))
	if err != nil {
		return doming.Stats{}, err
	}

	bg := context.WithoutCancel(ctx)
	go func() {
		if _, err := s.execute(bg, len(feeds), s.feedWork(feeds)); err != nil {
			s.logger.Warn("Background ingestion failed", zap.Error(err))
		}
	}()
	return started, nil
}

func (s *Service) feedWork(feeds []doming.Feed) func(ctx context.Context, i int) doming.Stats {
	return func(ctx context.Context, i int) doming.Stats {
		f := feeds[i]
		items, err := s.feeds.Fetch(ctx, f.URL, f.SourceID)
		if err != nil {
			s.logger.Warn("Feed fetch failed",
				zap.String("source", f.SourceID), zap.String("url", f.URL), zap.Error(err))
			return doming.Stats{Errors: 1}
		}
		stats, _ := s.IngestBatch(ctx, items)
		s.logger.Info("Feed ingested",
			zap.String("source", f.SourceID),
			zap.Int("items", stats.TotalItems),
			zap.Int("new", stats.NewItems),
			zap.Int("duplicates", stats.Duplicates),
		)
		return stats
	}
}

// Status returns the current or last run.
func (s *Service) Status() doming.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// run tracks a multi-source run in Status. Only one run is allowed at a time.
func (s *Service) run(ctx context.Context, n int, work func(ctx context.Context, i int) doming.Stats) (doming.Stats, error) {
	if _, err := s.begin(n); err != nil {
		return doming.Stats{}, err
	}
	return s.execute(ctx, n, work)
}

// begin marks a run of n sources as processing.
func (s *Service) begin(n int) (doming.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Status == doming.RunProcessing {
		return doming.Stats{}, domain.ErrIngestInProgress
	}
	s.status = doming.Stats{
		Status:       doming.RunProcessing,
		StartTime:    s.now().UTC(),
		TotalSources: n,
	}
	return s.status, nil
}

// execute processes the sources of a run claimed by begin.
func (s *Service) execute(ctx context.Context, n int, work func(ctx context.Context, i int) doming.Stats) (doming.Stats, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.sources)
	for i := range n {
		g.Go(func() error {
			stats := work(gctx, i)
			s.mu.Lock()
			s.status.Merge(stats)
			s.status.ProcessedSources++
			s.mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.EndTime = s.now().UTC()
	if err := ctx.Err(); err != nil {
		s.status.Status = doming.RunError
		s.status.Message = err.Error()
		return s.status, fmt.Errorf("ingest: %w", err)
	}
	s.status.Status = doming.RunCompleted
	s.status.Message = fmt.Sprintf("%d new, %d duplicates, %d errors",
		s.status.NewItems, s.status.Duplicates, s.status.Errors)
	return s.status, nil
}
