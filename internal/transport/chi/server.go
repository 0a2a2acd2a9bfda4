// Package chi exposes the search, deduplication and ingestion core over HTTP.
package chi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/newsvec/internal/domain/article"
	"github.com/kailas-cloud/newsvec/internal/domain/dedup"
	doming "github.com/kailas-cloud/newsvec/internal/domain/ingest"
	"github.com/kailas-cloud/newsvec/internal/domain/search/filter"
	"github.com/kailas-cloud/newsvec/internal/domain/search/result"
	domusage "github.com/kailas-cloud/newsvec/internal/domain/usage"
	"github.com/kailas-cloud/newsvec/internal/metrics"
	healthuc "github.com/kailas-cloud/newsvec/internal/usecase/health"
)

// DefaultMaxResultsCap bounds the limit a client may ask for.
const DefaultMaxResultsCap = 20

// Searcher runs similarity queries.
type Searcher interface {
	SearchByText(ctx context.Context, query string, f filter.Filter) ([]result.Result, error)
	SearchSimilarTo(ctx context.Context, documentID string, f filter.Filter) ([]result.Result, error)
}

// DuplicateChecker runs the deduplication gate.
type DuplicateChecker interface {
	Check(ctx context.Context, c dedup.Candidate, threshold float64) (dedup.Verdict, error)
}

// Ingester stores new articles.
type Ingester interface {
	Ingest(ctx context.Context, raw article.Raw) doming.Outcome
	IngestBatch(ctx context.Context, items []article.Raw) (doming.Stats, []doming.Outcome)
	IngestFeeds(ctx context.Context, feeds []doming.Feed) (doming.Stats, error)
	// StartFeeds claims the run before returning and ingests in the background.
	StartFeeds(ctx context.Context, feeds []doming.Feed) (doming.Stats, error)
	Status() doming.Stats
}

// StatsReader reports corpus statistics.
type StatsReader interface {
	Stats(ctx context.Context) (article.Stats, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// UsageReporter reports remote embedding token usage.
type UsageReporter interface {
	Report(ctx context.Context, period domusage.Period) domusage.Report
}

// Options tune request defaults and limits.
type Options struct {
	MaxResultsCap  int
	DefaultLimit   int
	MinSimilarity  float64 // zero keeps filter.DefaultMinSimilarity
	DedupThreshold float64
}

// Server holds the HTTP handlers.
type Server struct {
	search        Searcher
	dedup         DuplicateChecker
	ingest        Ingester
	stats         StatsReader
	health        HealthChecker
	usage         UsageReporter
	opts          Options
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search Searcher,
	dedupGate DuplicateChecker,
	ingest Ingester,
	stats StatsReader,
	health HealthChecker,
	usage UsageReporter,
	opts Options,
	logger *zap.Logger,
) *Server {
	if opts.MaxResultsCap <= 0 {
		opts.MaxResultsCap = DefaultMaxResultsCap
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = filter.DefaultMaxResults
	}
	opts.DefaultLimit = min(opts.DefaultLimit, opts.MaxResultsCap)
	if opts.DedupThreshold <= 0 {
		opts.DedupThreshold = dedup.DefaultThreshold
	}
	return &Server{
		search:        search,
		dedup:         dedupGate,
		ingest:        ingest,
		stats:         stats,
		health:        health,
		usage:         usage,
		opts:          opts,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// Routes builds the router with the standard middleware stack.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(metrics.Middleware("/metrics"))

	r.Get("/search", s.SearchGet)
	r.Post("/search", s.SearchPost)
	r.Get("/articles/{id}/similar", s.SimilarArticles)
	r.Post("/articles", s.CreateArticle)
	r.Post("/articles/batch", s.CreateArticles)
	r.Post("/duplicates/check", s.CheckDuplicate)
	r.Post("/feeds/ingest", s.IngestFeeds)
	r.Get("/ingest/status", s.IngestStatus)
	r.Get("/stats", s.Stats)
	r.Get("/usage", s.Usage)
	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeBadRequest, "method not allowed")
	})
	return r
}
