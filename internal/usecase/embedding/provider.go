// Package embedding turns text into fixed-size vectors through an ordered
// chain of tiers that always ends with the deterministic hash embedder.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/kailas-cloud/newsvec/internal/domain"
	"github.com/kailas-cloud/newsvec/internal/metrics"
)

// Tier is one model in the fallback chain.
type Tier struct {
	Backend  domain.Backend
	Embedder domain.Embedder
	// Timeout bounds each call; zero leaves only the caller's deadline.
	Timeout time.Duration
	// Quota, when set, is checked before and charged after each call.
	Quota QuotaChecker
}

// Options tunes the provider.
type Options struct {
	Dimensions    int
	MaxInputChars int
	Concurrency   int // BatchEmbed parallelism
}

// Provider implements domain.Embedder over the tier chain. For a live context
// it never fails: when every model tier fails the hash tier answers.
type Provider struct {
	tiers       []Tier
	hash        *HashEmbedder
	dim         int
	maxChars    int
	concurrency int64
	logger      *zap.Logger
}

// NewProvider builds the chain. Tiers are tried in the given order; the hash
// tier is appended automatically.
func NewProvider(tiers []Tier, opts Options, logger *zap.Logger) *Provider {
	if opts.Dimensions <= 0 {
		opts.Dimensions = domain.EmbeddingDim
	}
	if opts.MaxInputChars <= 0 {
		opts.MaxInputChars = DefaultMaxInputChars
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}

	active := make([]Tier, 0, len(tiers))
	for _, t := range tiers {
		if t.Embedder != nil {
			active = append(active, t)
		}
	}

	return &Provider{
		tiers:       active,
		hash:        NewHashEmbedder(opts.Dimensions),
		dim:         opts.Dimensions,
		maxChars:    opts.MaxInputChars,
		concurrency: int64(opts.Concurrency),
		logger:      logger,
	}
}

// Tiers reports the configured chain, hash included.
func (p *Provider) Tiers() []domain.Backend {
	out := make([]domain.Backend, 0, len(p.tiers)+1)
	for _, t := range p.tiers {
		out = append(out, t.Backend)
	}
	return append(out, domain.BackendHash)
}

// Backend reports the preferred tier.
func (p *Provider) Backend() domain.Backend {
	return p.Tiers()[0]
}

// Embed preprocesses text and returns the first tier's successful vector.
// The only error is the context's own.
func (p *Provider) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	text = Preprocess(text, p.maxChars)

	for _, t := range p.tiers {
		if err := ctx.Err(); err != nil {
			return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
		}

		res, err := p.try(ctx, t, text)
		if err == nil {
			return res, nil
		}

		metrics.EmbeddingFallbacksTotal.WithLabelValues(string(t.Backend)).Inc()
		p.logger.Warn("Embedding tier failed, falling back",
			zap.String("backend", string(t.Backend)),
			zap.Error(err),
		)
	}

	if err := ctx.Err(); err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	res, _ := p.hash.Embed(ctx, text)
	metrics.EmbeddingRequestsTotal.WithLabelValues(string(domain.BackendHash), "success").Inc()
	p.logger.Debug("Embedding served", zap.String("backend", string(domain.BackendHash)))
	return res, nil
}

func (p *Provider) try(ctx context.Context, t Tier, text string) (domain.EmbeddingResult, error) {
	if t.Quota != nil {
		if err := t.Quota.Check(ctx); err != nil {
			metrics.EmbeddingRequestsTotal.WithLabelValues(string(t.Backend), "skipped").Inc()
			return domain.EmbeddingResult{}, err
		}
	}

	callCtx := ctx
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := t.Embedder.Embed(callCtx, text)
	metrics.EmbeddingRequestDuration.WithLabelValues(string(t.Backend)).Observe(time.Since(start).Seconds())

	if err == nil && len(res.Embedding) != p.dim {
		err = fmt.Errorf("%w: got %d, want %d", domain.ErrVectorDimMismatch, len(res.Embedding), p.dim)
	}
	if err != nil {
		status := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			status = "timeout"
		}
		metrics.EmbeddingRequestsTotal.WithLabelValues(string(t.Backend), status).Inc()
		return domain.EmbeddingResult{}, err
	}

	if res.Backend == "" {
		res.Backend = t.Backend
	}
	if t.Quota != nil && res.TotalTokens > 0 {
		t.Quota.Record(int64(res.TotalTokens))
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(string(res.Backend), "success").Inc()
	p.logger.Debug("Embedding served",
		zap.String("backend", string(res.Backend)),
		zap.Duration("duration", time.Since(start)),
		zap.Int("total_tokens", res.TotalTokens),
	)
	return res, nil
}

// BatchEmbed embeds texts concurrently, bounded by Options.Concurrency.
// Results keep input order.
func (p *Provider) BatchEmbed(ctx context.Context, texts []string) ([]domain.EmbeddingResult, error) {
	out := make([]domain.EmbeddingResult, len(texts))
	errs := make([]error, len(texts))
	sem := semaphore.NewWeighted(p.concurrency)

	for i, text := range texts {
		if err := sem.Acquire(ctx, 1); err != nil {
			errs[i] = err
			break
		}
		go func() {
			defer sem.Release(1)
			out[i], errs[i] = p.Embed(ctx, text)
		}()
	}

	// Wait for in-flight work.
	if err := sem.Acquire(context.WithoutCancel(ctx), p.concurrency); err != nil {
		return nil, fmt.Errorf("batch embed: %w", err)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("batch embed: %w", err)
	}
	return out, nil
}

// HealthCheck probes the first model tier that supports it.
// A chain with no model tiers is healthy (hash only).
func (p *Provider) HealthCheck(ctx context.Context) error {
	for _, t := range p.tiers {
		hc, ok := t.Embedder.(domain.HealthChecker)
		if !ok {
			continue
		}
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("%s: %w", t.Backend, err)
		}
		return nil
	}
	return nil
}
