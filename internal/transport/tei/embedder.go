// Package tei talks to a locally hosted feature-extraction server that
// follows the text-embeddings-inference HTTP API.
package tei

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/newsvec/internal/domain"
)

// ErrModelUnavailable is returned once a model failed to initialise.
var ErrModelUnavailable = errors.New("local model unavailable")

// Config addresses one model server.
type Config struct {
	Endpoint    string
	Model       string
	Backend     domain.Backend // BackendLocalPrimary or BackendLocalSecondary
	Dimensions  int
	InitTimeout time.Duration
	Timeout     time.Duration
	HTTPClient  *http.Client
	Logger      *zap.Logger
}

// Embedder produces sentence embeddings by mean-pooling token vectors.
// The model is probed lazily on first use, exactly once per process.
type Embedder struct {
	endpoint    string
	model       string
	backend     domain.Backend
	dim         int
	initTimeout time.Duration
	timeout     time.Duration
	client      *http.Client
	logger      *zap.Logger

	group   singleflight.Group
	mu      sync.RWMutex
	done    bool
	initErr error
}

// NewEmbedder creates a lazily initialised local embedder.
func NewEmbedder(cfg *Config) *Embedder {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	initTimeout := cfg.InitTimeout
	if initTimeout <= 0 {
		initTimeout = 30 * time.Second
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Embedder{
		endpoint:    strings.TrimRight(cfg.Endpoint, "/"),
		model:       cfg.Model,
		backend:     cfg.Backend,
		dim:         cfg.Dimensions,
		initTimeout: initTimeout,
		timeout:     timeout,
		client:      client,
		logger:      cfg.Logger,
	}
}

// Backend reports which tier this embedder serves.
func (e *Embedder) Backend() domain.Backend { return e.backend }

// Model returns the configured model id.
func (e *Embedder) Model() string { return e.model }

// Embed implements domain.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := e.ensureInit(ctx); err != nil {
		return domain.EmbeddingResult{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var tokens [][][]float32
	body := embedRequest{Inputs: text, Truncate: true}
	if err := e.do(ctx, http.MethodPost, "/embed_all", body, &tokens); err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("%s embed: %w", e.backend, err)
	}
	if len(tokens) == 0 || len(tokens[0]) == 0 {
		return domain.EmbeddingResult{}, fmt.Errorf("%s embed: empty response", e.backend)
	}

	vec := domain.Normalize(domain.MeanPool(tokens[0]))
	if e.dim > 0 && len(vec) != e.dim {
		return domain.EmbeddingResult{}, fmt.Errorf("%s embed: %w: got %d, want %d",
			e.backend, domain.ErrVectorDimMismatch, len(vec), e.dim)
	}
	return domain.EmbeddingResult{Embedding: vec, Backend: e.backend}, nil
}

// HealthCheck probes the server without touching the cached init state.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	var info infoResponse
	if err := e.do(ctx, http.MethodGet, "/info", nil, &info); err != nil {
		return fmt.Errorf("%s health: %w", e.backend, err)
	}
	return nil
}

// ensureInit runs the /info probe once. Concurrent first callers share one
// probe; a failed probe disables the model for the process lifetime.
func (e *Embedder) ensureInit(ctx context.Context) error {
	e.mu.RLock()
	done, initErr := e.done, e.initErr
	e.mu.RUnlock()
	if done {
		return initErr
	}

	_, err, _ := e.group.Do("init", func() (any, error) {
		e.mu.RLock()
		if e.done {
			defer e.mu.RUnlock()
			return nil, e.initErr
		}
		e.mu.RUnlock()

		// Detached so one caller's cancellation does not fail the shared probe.
		initCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.initTimeout)
		defer cancel()

		err := e.probe(initCtx)

		e.mu.Lock()
		e.done = true
		e.initErr = err
		e.mu.Unlock()
		return nil, err
	})
	return err
}

func (e *Embedder) probe(ctx context.Context) error {
	if e.endpoint == "" {
		return fmt.Errorf("%s: no endpoint configured: %w", e.backend, ErrModelUnavailable)
	}

	var info infoResponse
	if err := e.do(ctx, http.MethodGet, "/info", nil, &info); err != nil {
		e.logger.Warn("Local embedding model failed to initialise",
			zap.String("backend", string(e.backend)),
			zap.String("endpoint", e.endpoint),
			zap.Error(err),
		)
		return fmt.Errorf("%s: %w: %w", e.backend, ErrModelUnavailable, err)
	}
	if e.model != "" && info.ModelID != "" && info.ModelID != e.model {
		e.logger.Warn("Local model id differs from configuration",
			zap.String("backend", string(e.backend)),
			zap.String("configured", e.model),
			zap.String("served", info.ModelID),
		)
	}

	e.logger.Info("Local embedding model ready",
		zap.String("backend", string(e.backend)),
		zap.String("model", info.ModelID),
	)
	return nil
}

func (e *Embedder) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, e.endpoint+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

type embedRequest struct {
	Inputs   string `json:"inputs"`
	Truncate bool   `json:"truncate"`
}

type infoResponse struct {
	ModelID string `json:"model_id"`
}
