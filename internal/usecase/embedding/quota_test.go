package embedding

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/newsvec/internal/domain"
)

func TestQuotaTracker_SkipWhenExceeded(t *testing.T) {
	q := NewQuotaTracker("remote", 100, 0, QuotaActionSkip, zap.NewNop())
	q.Record(100)

	if err := q.Check(context.Background()); !errors.Is(err, domain.ErrEmbeddingQuotaExceeded) {
		t.Fatalf("expected ErrEmbeddingQuotaExceeded, got %v", err)
	}
}

func TestQuotaTracker_WarnWhenExceeded(t *testing.T) {
	q := NewQuotaTracker("remote", 100, 0, QuotaActionWarn, zap.NewNop())
	q.Record(200)

	if err := q.Check(context.Background()); err != nil {
		t.Fatalf("expected nil error for warn action, got %v", err)
	}
}

func TestQuotaTracker_MonthlyLimit(t *testing.T) {
	q := NewQuotaTracker("remote", 0, 500, QuotaActionSkip, zap.NewNop())
	q.Record(500)

	if err := q.Check(context.Background()); !errors.Is(err, domain.ErrEmbeddingQuotaExceeded) {
		t.Fatalf("expected ErrEmbeddingQuotaExceeded for monthly limit, got %v", err)
	}
}

func TestQuotaTracker_Unlimited(t *testing.T) {
	q := NewQuotaTracker("remote", 0, 0, QuotaActionSkip, zap.NewNop())
	q.Record(999999999)

	if err := q.Check(context.Background()); err != nil {
		t.Fatalf("expected nil error for unlimited quota, got %v", err)
	}
	if q.RemainingDaily() != -1 || q.RemainingMonthly() != -1 {
		t.Error("expected -1 remaining for unlimited quota")
	}
}

func TestQuotaTracker_Remaining(t *testing.T) {
	q := NewQuotaTracker("remote", 1000, 10000, QuotaActionWarn, zap.NewNop())
	q.Record(300)

	if q.RemainingDaily() != 700 {
		t.Errorf("expected daily remaining 700, got %d", q.RemainingDaily())
	}
	if q.RemainingMonthly() != 9700 {
		t.Errorf("expected monthly remaining 9700, got %d", q.RemainingMonthly())
	}
	if q.DailyUsed() != 300 || q.MonthlyUsed() != 300 {
		t.Errorf("expected 300 used, got daily=%d monthly=%d", q.DailyUsed(), q.MonthlyUsed())
	}
	if q.DailyLimit() != 1000 || q.MonthlyLimit() != 10000 {
		t.Errorf("unexpected limits %d/%d", q.DailyLimit(), q.MonthlyLimit())
	}
	q.Record(5000)
	if q.RemainingDaily() != 0 {
		t.Errorf("remaining must not go negative, got %d", q.RemainingDaily())
	}
}

func TestQuotaTracker_DayRollover(t *testing.T) {
	q := NewQuotaTracker("remote", 100, 0, QuotaActionSkip, zap.NewNop())
	day := time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC)
	q.now = func() time.Time { return day }
	q.lastDayReset = truncateToDay(day)
	q.lastMonthReset = truncateToMonth(day)

	q.Record(100)
	if q.Check(context.Background()) == nil {
		t.Fatal("expected quota exceeded before midnight")
	}

	day = day.Add(2 * time.Hour)
	if err := q.Check(context.Background()); err != nil {
		t.Fatalf("expected quota reset after midnight, got %v", err)
	}
}

type mockQuotaStore struct {
	mu   sync.Mutex
	data map[string]int64
	err  error
}

func (m *mockQuotaStore) IncrBy(_ context.Context, key string, val int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data[key] += val
	return nil
}

func (m *mockQuotaStore) Get(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	return m.data[key], nil
}

func TestQuotaTracker_WithStore(t *testing.T) {
	store := &mockQuotaStore{data: map[string]int64{}}
	q := NewQuotaTracker("remote", 1000, 10000, QuotaActionSkip, zap.NewNop())
	now := q.now()
	store.data[q.dailyKey(now)] = 300

	q.WithStore(context.Background(), store)
	if q.DailyUsed() != 300 {
		t.Fatalf("expected daily_used=300 loaded from store, got %d", q.DailyUsed())
	}

	q.Record(42)
	store.mu.Lock()
	got := store.data[q.dailyKey(now)]
	store.mu.Unlock()
	if got != 342 {
		t.Errorf("expected store daily=342, got %d", got)
	}
}

func TestQuotaTracker_StoreErrorsAreNotFatal(t *testing.T) {
	store := &mockQuotaStore{data: map[string]int64{}, err: errors.New("down")}
	q := NewQuotaTracker("remote", 1000, 0, QuotaActionSkip, zap.NewNop()).
		WithStore(context.Background(), store)

	q.Record(10)
	if q.DailyUsed() != 10 {
		t.Fatalf("in-memory counter must advance, got %d", q.DailyUsed())
	}
}
