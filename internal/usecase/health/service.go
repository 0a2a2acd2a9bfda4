package health

import (
	"context"
	"sync"
	"time"

	"github.com/kailas-cloud/newsvec/internal/domain"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure. Search keeps working on the hash tier.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// DefaultCheckTimeout bounds each component check.
const DefaultCheckTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status  Status
	Checks  map[string]CheckResult
	Tiers   []domain.Backend
	Vectors int
}

// Service coordinates health checks.
type Service struct {
	db        DBPinger
	embedding EmbeddingChecker
	index     VectorCounter
	timeout   time.Duration
}

// New creates a Service. Any dependency can be nil to skip its check
// (the in-memory driver has no database to ping).
func New(db DBPinger, embedding EmbeddingChecker, index VectorCounter) *Service {
	return &Service{db: db, embedding: embedding, index: index, timeout: DefaultCheckTimeout}
}

// Check runs the component checks concurrently.
func (s *Service) Check(ctx context.Context) Report {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		report = Report{Status: Healthy, Checks: make(map[string]CheckResult)}
	)
	record := func(name string, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			report.Checks[name] = CheckError
			report.Status = Degraded
			return
		}
		report.Checks[name] = CheckOK
	}
	run := func(name string, fn func(ctx context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			record(name, fn(cctx))
		}()
	}

	if s.db != nil {
		run("database", s.db.Ping)
	}
	if s.embedding != nil {
		report.Tiers = s.embedding.Tiers()
		run("embedding", s.embedding.HealthCheck)
	}
	if s.index != nil {
		run("index", func(ctx context.Context) error {
			n, err := s.index.Count(ctx)
			mu.Lock()
			report.Vectors = n
			mu.Unlock()
			return err
		})
	}
	wg.Wait()

	return report
}
