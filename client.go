// Package newsvec is the vector search core of a news aggregator: text
// embedding with tiered fallback, a vector index over article documents,
// similarity search and a deduplication gate for ingestion.
package newsvec

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	dbPostgres "github.com/kailas-cloud/newsvec/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/newsvec/internal/db/redis"
	"github.com/kailas-cloud/newsvec/internal/domain"
	"github.com/kailas-cloud/newsvec/internal/domain/search/filter"
	"github.com/kailas-cloud/newsvec/internal/metrics"
	articlerepo "github.com/kailas-cloud/newsvec/internal/repository/article"
	"github.com/kailas-cloud/newsvec/internal/repository/embcache"
	quotarepo "github.com/kailas-cloud/newsvec/internal/repository/quota"
	"github.com/kailas-cloud/newsvec/internal/repository/vectorindex"
	httpapi "github.com/kailas-cloud/newsvec/internal/transport/chi"
	"github.com/kailas-cloud/newsvec/internal/transport/openai"
	"github.com/kailas-cloud/newsvec/internal/transport/rss"
	"github.com/kailas-cloud/newsvec/internal/transport/tei"
	dedupuc "github.com/kailas-cloud/newsvec/internal/usecase/dedup"
	embeddinguc "github.com/kailas-cloud/newsvec/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/newsvec/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/newsvec/internal/usecase/ingest"
	searchuc "github.com/kailas-cloud/newsvec/internal/usecase/search"
	usageuc "github.com/kailas-cloud/newsvec/internal/usecase/usage"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultRemoteTimeout    = 10 * time.Second
	quotaDailyTTL           = 48 * time.Hour
	quotaMonthlyTTL         = 62 * 24 * time.Hour
)

// vectorIndex is implemented by every index backend.
type vectorIndex interface {
	EnsureIndex(ctx context.Context) error
	Upsert(ctx context.Context, e vectorindex.Entry) error
	Get(ctx context.Context, id string) (vectorindex.Entry, error)
	Query(ctx context.Context, vector []float32, k int) ([]vectorindex.Neighbor, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// documentStore is implemented by every article repository backend.
type documentStore interface {
	Insert(ctx context.Context, doc *Document) error
	FindByID(ctx context.Context, id string) (Document, error)
	FindByVectorIDs(ctx context.Context, vectorIDs []string) (map[string]Document, error)
	ExactMatch(ctx context.Context, guid, link string) (*Document, error)
	Stats(ctx context.Context) (Stats, error)
}

type backend struct {
	index  vectorIndex
	docs   documentStore
	pinger healthuc.DBPinger // untyped nil for the memory driver
	// kv backs the embedding cache and quota counters; nil outside Redis.
	kv    *dbRedis.Store
	close func()
}

// Client is the newsvec entry point.
type Client struct {
	cfg       *clientConfig
	backend   backend
	provider  *embeddinguc.Provider
	searchSvc *searchuc.Service
	dedupSvc  *dedupuc.Service
	ingestSvc *ingestuc.Service
	healthSvc *healthuc.Service
	usageSvc  *usageuc.Service
	logger    *zap.Logger
}

// New connects to the configured storage, prepares the index and wires the services.
// Without a storage option the client keeps everything in memory.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		driver:           driverMemory,
		readinessTimeout: defaultReadinessTimeout,
	}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	be, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := be.index.EnsureIndex(ctx); err != nil {
		be.close()
		return nil, fmt.Errorf("newsvec: ensure index: %w", err)
	}

	metrics.Register()
	return wireClient(ctx, be, cfg), nil
}

func openBackend(ctx context.Context, cfg *clientConfig) (backend, error) {
	switch cfg.driver {
	case driverRedis:
		if len(cfg.addrs) == 0 {
			return backend{}, errors.New("newsvec: redis address required")
		}
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Username: cfg.username,
			Password: cfg.password,
		})
		if err != nil {
			return backend{}, fmt.Errorf("newsvec: create redis store: %w", err)
		}
		if err := s.WaitForReady(ctx, cfg.readinessTimeout); err != nil {
			s.Close()
			return backend{}, fmt.Errorf("newsvec: database not ready: %w", err)
		}
		idx := vectorindex.NewRedis(s, domain.EmbeddingDim, cfg.logger)
		if cfg.hnswM > 0 || cfg.hnswEFConstruct > 0 {
			idx = idx.WithHNSW(vectorindex.HNSWConfig{M: cfg.hnswM, EFConstruct: cfg.hnswEFConstruct})
		}
		return backend{
			index:  idx,
			docs:   articlerepo.NewRedis(s, cfg.logger),
			pinger: s,
			kv:     s,
			close:  s.Close,
		}, nil

	case driverPostgres:
		s, err := dbPostgres.NewStore(dbPostgres.Config{DSN: cfg.dsn})
		if err != nil {
			return backend{}, fmt.Errorf("newsvec: create postgres store: %w", err)
		}
		if err := s.WaitForReady(ctx, cfg.readinessTimeout); err != nil {
			s.Close()
			return backend{}, fmt.Errorf("newsvec: database not ready: %w", err)
		}
		if err := s.Migrate(ctx, domain.EmbeddingDim); err != nil {
			s.Close()
			return backend{}, fmt.Errorf("newsvec: migrate: %w", err)
		}
		return backend{
			index:  vectorindex.NewPostgres(s, domain.EmbeddingDim),
			docs:   articlerepo.NewPostgres(s),
			pinger: s,
			close:  s.Close,
		}, nil

	case driverMemory:
		return backend{
			index: vectorindex.NewMemory(domain.EmbeddingDim),
			docs:  articlerepo.NewMemory(),
			close: func() {},
		}, nil

	default:
		return backend{}, fmt.Errorf("newsvec: unknown driver %q", cfg.driver)
	}
}

func wireClient(ctx context.Context, be backend, cfg *clientConfig) *Client {
	tiers, quota := buildTiers(ctx, be, cfg)
	provider := embeddinguc.NewProvider(tiers, embeddinguc.Options{
		Dimensions:    domain.EmbeddingDim,
		MaxInputChars: cfg.maxInputChars,
		Concurrency:   cfg.embedConcurrency,
	}, cfg.logger)

	searchSvc := searchuc.New(be.index, be.docs, provider, cfg.candidateCeiling, cfg.logger)
	dedupSvc := dedupuc.New(be.docs, be.index, provider, cfg.logger)

	reader := rss.NewReader(&rss.Config{Timeout: cfg.fetchTimeout, Logger: cfg.logger})
	ingestSvc := ingestuc.New(dedupSvc, be.docs, be.index, provider, cfg.logger).
		WithFeedReader(reader).
		WithBatchEmbedder(provider)
	if cfg.dedupThreshold > 0 {
		ingestSvc = ingestSvc.WithThreshold(cfg.dedupThreshold)
	}
	if cfg.sourceConcurrency > 0 {
		ingestSvc = ingestSvc.WithSourceConcurrency(cfg.sourceConcurrency)
	}

	// Pass nil interface, not a typed nil pointer, when no quota is configured.
	var quotaReader usageuc.QuotaReader
	if quota != nil {
		quotaReader = quota
	}

	return &Client{
		cfg:       cfg,
		backend:   be,
		provider:  provider,
		searchSvc: searchSvc,
		dedupSvc:  dedupSvc,
		ingestSvc: ingestSvc,
		healthSvc: healthuc.New(be.pinger, provider, be.index),
		usageSvc:  usageuc.New(quotaReader),
		logger:    cfg.logger,
	}
}

// buildTiers orders the configured models remote first. The hash tier is
// appended by the provider. The quota tracker is nil unless limits are set.
func buildTiers(ctx context.Context, be backend, cfg *clientConfig) ([]embeddinguc.Tier, *embeddinguc.QuotaTracker) {
	var (
		tiers   []embeddinguc.Tier
		tracker *embeddinguc.QuotaTracker
	)

	if r := cfg.remote; r != nil && r.apiKey != "" {
		var emb domain.Embedder = openai.NewEmbedder(&openai.Config{
			APIKey:     r.apiKey,
			BaseURL:    r.baseURL,
			Model:      r.model,
			Dimensions: domain.EmbeddingDim,
			Logger:     cfg.logger,
		})
		if r.cache && be.kv != nil {
			emb = embcache.New(emb, be.kv, r.model, r.cacheTTL, metrics.EmbeddingCacheTotal, cfg.logger)
		}

		tier := embeddinguc.Tier{Backend: domain.BackendRemote, Embedder: emb, Timeout: r.timeout}
		if tier.Timeout <= 0 {
			tier.Timeout = defaultRemoteTimeout
		}
		if r.dailyQuota > 0 || r.monthlyQuota > 0 {
			action := embeddinguc.QuotaActionSkip
			if r.quotaWarn {
				action = embeddinguc.QuotaActionWarn
			}
			tracker = embeddinguc.NewQuotaTracker(string(domain.BackendRemote), r.dailyQuota, r.monthlyQuota, action, cfg.logger)
			if be.kv != nil {
				tracker = tracker.WithStore(ctx, quotarepo.New(be.kv, quotaDailyTTL, quotaMonthlyTTL))
			}
			tier.Quota = tracker
		}
		tiers = append(tiers, tier)
	}

	local := func(m *Model, b domain.Backend) {
		if m == nil || m.Endpoint == "" {
			return
		}
		tiers = append(tiers, embeddinguc.Tier{
			Backend: b,
			Embedder: tei.NewEmbedder(&tei.Config{
				Endpoint:    m.Endpoint,
				Model:       m.Name,
				Backend:     b,
				Dimensions:  domain.EmbeddingDim,
				InitTimeout: cfg.localInitTimeout,
				Timeout:     cfg.localTimeout,
				Logger:      cfg.logger,
			}),
		})
	}
	local(cfg.primary, domain.BackendLocalPrimary)
	local(cfg.secondary, domain.BackendLocalSecondary)

	return tiers, tracker
}

// SearchByText returns stored articles most similar to query.
func (c *Client) SearchByText(ctx context.Context, query string, opts SearchOptions) ([]Result, error) {
	f, err := filter.New(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
	}
	return c.searchSvc.SearchByText(ctx, query, f)
}

// SearchSimilarTo returns articles similar to a stored one, excluding it.
func (c *Client) SearchSimilarTo(ctx context.Context, documentID string, opts SearchOptions) ([]Result, error) {
	f, err := filter.New(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
	}
	return c.searchSvc.SearchSimilarTo(ctx, documentID, f)
}

// CheckDuplicate reports whether the candidate is already stored.
// A non-positive threshold uses the configured one.
func (c *Client) CheckDuplicate(ctx context.Context, cand Candidate, threshold float64) (Verdict, error) {
	if threshold <= 0 {
		threshold = c.cfg.dedupThreshold
	}
	return c.dedupSvc.Check(ctx, cand, threshold)
}

// Ingest deduplicates, embeds and stores one item.
func (c *Client) Ingest(ctx context.Context, a Article) Outcome {
	return c.ingestSvc.Ingest(ctx, a)
}

// IngestBatch ingests items in order.
func (c *Client) IngestBatch(ctx context.Context, items []Article) (IngestStats, []Outcome) {
	return c.ingestSvc.IngestBatch(ctx, items)
}

// IngestSources ingests already fetched items grouped by source id,
// processing sources concurrently. Items without a source take the map key.
func (c *Client) IngestSources(ctx context.Context, sources map[string][]Article) (IngestStats, error) {
	return c.ingestSvc.IngestSources(ctx, sources)
}

// IngestFeeds downloads and ingests feeds concurrently.
func (c *Client) IngestFeeds(ctx context.Context, feeds []Feed) (IngestStats, error) {
	return c.ingestSvc.IngestFeeds(ctx, feeds)
}

// IngestStatus returns the current or last ingestion run.
func (c *Client) IngestStatus() IngestStats {
	return c.ingestSvc.Status()
}

// Stats reports corpus statistics.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	return c.backend.docs.Stats(ctx)
}

// Health checks storage, embedding tiers and the index.
func (c *Client) Health(ctx context.Context) HealthReport {
	return c.healthSvc.Check(ctx)
}

// Usage reports remote embedding tokens for the current day or month.
func (c *Client) Usage(ctx context.Context, period UsagePeriod) UsageReport {
	return c.usageSvc.Report(ctx, period)
}

// EmbeddingTiers lists the embedding chain in fallback order.
func (c *Client) EmbeddingTiers() []domain.Backend {
	return c.provider.Tiers()
}

// HTTPOptions tune the request defaults of Handler. Zero values keep the
// built-in defaults (cap 20, limit 10, similarity 0.5).
type HTTPOptions struct {
	MaxResultsCap int
	DefaultLimit  int
	MinSimilarity float64
}

// Handler returns the HTTP API.
func (c *Client) Handler(o HTTPOptions) http.Handler {
	srv := httpapi.NewServer(
		c.searchSvc, c.dedupSvc, c.ingestSvc, c.backend.docs, c.healthSvc, c.usageSvc,
		httpapi.Options{
			MaxResultsCap:  o.MaxResultsCap,
			DefaultLimit:   o.DefaultLimit,
			MinSimilarity:  o.MinSimilarity,
			DedupThreshold: c.cfg.dedupThreshold,
		},
		c.logger,
	)
	return srv.Routes()
}

// Close releases the database connection.
func (c *Client) Close() {
	c.backend.close()
}
