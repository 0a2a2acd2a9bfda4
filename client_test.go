package newsvec

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/newsvec/internal/domain"
	"github.com/kailas-cloud/newsvec/internal/domain/ingest"
	healthuc "github.com/kailas-cloud/newsvec/internal/usecase/health"
)

func newMemoryClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	c, err := New(context.Background(), append([]Option{WithMemory()}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func ptr[T any](v T) *T { return &v }

func TestNew_Drivers(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		wantErr string
	}{
		{name: "redis without address", opts: []Option{WithRedis("secret")}, wantErr: "address required"},
		{name: "postgres without dsn", opts: []Option{WithPostgres("")}, wantErr: "dsn is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(context.Background(), tt.opts...)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestOpenBackend_UnknownDriver(t *testing.T) {
	_, err := openBackend(context.Background(), &clientConfig{driver: "sqlite"})
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestNew_DefaultsToMemory(t *testing.T) {
	c, err := New(context.Background())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	if c.cfg.driver != driverMemory {
		t.Errorf("driver = %q, want %q", c.cfg.driver, driverMemory)
	}
	if got := c.EmbeddingTiers(); !slices.Equal(got, []domain.Backend{domain.BackendHash}) {
		t.Errorf("tiers = %v, want [hash]", got)
	}
}

func TestNew_TierOrder(t *testing.T) {
	c := newMemoryClient(t,
		WithLocalModels(
			Model{Endpoint: "http://127.0.0.1:1", Name: "bge-small"},
			&Model{Endpoint: "http://127.0.0.1:2", Name: "minilm"},
		),
		WithOpenAI("sk-test", "text-embedding-3-small", ""),
		WithQuota(1000, 0, false),
		WithEmbeddingCache(time.Hour),
	)

	want := []domain.Backend{
		domain.BackendRemote,
		domain.BackendLocalPrimary,
		domain.BackendLocalSecondary,
		domain.BackendHash,
	}
	if got := c.EmbeddingTiers(); !slices.Equal(got, want) {
		t.Errorf("tiers = %v, want %v", got, want)
	}
}

func TestClient_Usage(t *testing.T) {
	c := newMemoryClient(t)
	r := c.Usage(context.Background(), UsageDay)
	if r.Limit() != 0 || r.Remaining() != -1 {
		t.Errorf("without quota usage must be unlimited, got limit=%d remaining=%d", r.Limit(), r.Remaining())
	}

	c = newMemoryClient(t, WithOpenAI("sk-test", "text-embedding-3-small", ""), WithQuota(5000, 90000, false))
	r = c.Usage(context.Background(), UsageMonth)
	if r.Limit() != 90000 || r.Used() != 0 || r.Exhausted() {
		t.Errorf("month usage = limit %d used %d", r.Limit(), r.Used())
	}
}

func TestNew_RemoteWithoutKeyIsSkipped(t *testing.T) {
	c := newMemoryClient(t, WithOpenAITimeout(time.Second))
	if got := c.EmbeddingTiers(); len(got) != 1 {
		t.Errorf("tiers = %v, want hash only", got)
	}
}

func TestClient_IngestAndSearch(t *testing.T) {
	c := newMemoryClient(t)
	ctx := context.Background()

	items := []Article{
		{SourceID: "wire", Title: "Central bank raises rates", Description: "Quarter point hike", GUID: "g-1", Link: "https://news.test/1"},
		{SourceID: "wire", Title: "Storm hits coast", Description: "Thousands without power", GUID: "g-2", Link: "https://news.test/2"},
	}
	stats, outcomes := c.IngestBatch(ctx, items)
	if stats.NewItems != 2 {
		t.Fatalf("new items = %d, want 2 (%+v)", stats.NewItems, outcomes)
	}
	for i, o := range outcomes {
		if o.Status() != ingest.StatusStored {
			t.Errorf("outcome[%d] = %s, want stored", i, o.Status())
		}
	}

	got, err := c.SearchByText(ctx, "Storm hits coast Thousands without power", SearchOptions{MinSimilarity: ptr(0.99)})
	if err != nil {
		t.Fatalf("SearchByText: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("results = %d, want 1", len(got))
	}
	top := got[0].Document()
	if top.GUID() != "g-2" {
		t.Errorf("top hit guid = %q, want g-2", top.GUID())
	}

	similar, err := c.SearchSimilarTo(ctx, got[0].DocumentID(), SearchOptions{MinSimilarity: ptr(0.0)})
	if err != nil {
		t.Fatalf("SearchSimilarTo: %v", err)
	}
	for _, r := range similar {
		if r.DocumentID() == got[0].DocumentID() {
			t.Error("similar-to results include the source article")
		}
	}

	s, err := c.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if s.Total != 2 || s.WithVector != 2 || s.BySource["wire"] != 2 {
		t.Errorf("stats = %+v", s)
	}
}

func TestClient_Duplicates(t *testing.T) {
	c := newMemoryClient(t, WithDedupThreshold(0.97))
	ctx := context.Background()

	first := c.Ingest(ctx, Article{SourceID: "a", Title: "Election results", Description: "Final count", Link: "https://news.test/e"})
	if first.Status() != ingest.StatusStored {
		t.Fatalf("first ingest = %s (%v)", first.Status(), first.Err())
	}

	again := c.Ingest(ctx, Article{SourceID: "b", Title: "Election results", Description: "Final count", GUID: "other-guid"})
	if again.Status() != ingest.StatusDuplicate {
		t.Fatalf("second ingest = %s, want duplicate", again.Status())
	}
	if again.Verdict().Exact {
		t.Error("same text under another guid should be a semantic match")
	}

	v, err := c.CheckDuplicate(ctx, Candidate{Link: "https://news.test/e"}, 0)
	if err != nil {
		t.Fatalf("CheckDuplicate: %v", err)
	}
	if !v.IsDuplicate || !v.Exact || v.MatchedDocumentID != first.Document().ID() {
		t.Errorf("verdict = %+v", v)
	}
}

func TestClient_IngestSources(t *testing.T) {
	c := newMemoryClient(t)
	ctx := context.Background()

	stats, err := c.IngestSources(ctx, map[string][]Article{
		"bbc": {
			{Title: "Storm hits coast", Description: "Heavy rain", Link: "https://bbc.test/1"},
			{Title: "Storm hits coast", Description: "Heavy rain", Link: "https://bbc.test/1"},
		},
		"cnn": {{Title: "Markets rally on rate cut", Description: "Stocks climb", Link: "https://cnn.test/1"}},
	})
	if err != nil {
		t.Fatalf("IngestSources: %v", err)
	}
	if stats.NewItems != 2 || stats.Duplicates != 1 || stats.ProcessedSources != 2 {
		t.Fatalf("stats = %+v", stats)
	}
	if got := c.IngestStatus(); got.Status != ingest.RunCompleted {
		t.Errorf("status = %s", got.Status)
	}
}

func TestClient_InvalidSearchOptions(t *testing.T) {
	c := newMemoryClient(t)
	ctx := context.Background()

	_, err := c.SearchByText(ctx, "anything", SearchOptions{MinSimilarity: ptr(1.5)})
	if !errors.Is(err, domain.ErrInvalidQuery) {
		t.Errorf("SearchByText err = %v, want ErrInvalidQuery", err)
	}
	_, err = c.SearchSimilarTo(ctx, "missing", SearchOptions{MaxResults: -1})
	if !errors.Is(err, domain.ErrInvalidQuery) {
		t.Errorf("SearchSimilarTo err = %v, want ErrInvalidQuery", err)
	}
	_, err = c.SearchSimilarTo(ctx, "missing", SearchOptions{})
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Errorf("SearchSimilarTo err = %v, want ErrDocumentNotFound", err)
	}
}

func TestClient_Health(t *testing.T) {
	c := newMemoryClient(t)
	ctx := context.Background()
	c.Ingest(ctx, Article{Title: "One", GUID: "1"})

	r := c.Health(ctx)
	if r.Status != healthuc.Healthy {
		t.Errorf("status = %s, want ok", r.Status)
	}
	if _, ok := r.Checks["database"]; ok {
		t.Error("memory driver must not report a database check")
	}
	if r.Vectors != 1 {
		t.Errorf("vectors = %d, want 1", r.Vectors)
	}
}

func TestClient_Handler(t *testing.T) {
	c := newMemoryClient(t)
	srv := httptest.NewServer(c.Handler(HTTPOptions{}))
	defer srv.Close()

	body := strings.NewReader(`{"title":"Markets rally","description":"Stocks close higher","guid":"m-1","source":"biz"}`)
	resp, err := http.Post(srv.URL+"/articles", "application/json", body)
	if err != nil {
		t.Fatalf("POST /articles: %v", err)
	}
	resp.Body.Close() //nolint:errcheck // test
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST /articles status = %d, want 201", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck // test
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /health status = %d, want 200", resp.StatusCode)
	}
	var health map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if health["status"] != "ok" {
		t.Errorf("health status = %v", health["status"])
	}
}
