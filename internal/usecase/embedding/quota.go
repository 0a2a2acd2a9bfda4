package embedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/newsvec/internal/domain"
	"github.com/kailas-cloud/newsvec/internal/metrics"
)

// QuotaAction defines behavior when the remote token quota is exhausted.
type QuotaAction string

const (
	// QuotaActionSkip skips the remote tier; the chain falls through to local models.
	QuotaActionSkip QuotaAction = "skip"
	// QuotaActionWarn logs a warning and keeps calling the remote tier.
	QuotaActionWarn QuotaAction = "warn"
)

// QuotaStore persists quota counters. IncrBy may be called repeatedly.
type QuotaStore interface {
	IncrBy(ctx context.Context, key string, val int64) error
	Get(ctx context.Context, key string) (int64, error)
}

// QuotaTracker counts remote tokens per day and month.
// Check is in-memory only; Record updates memory first, then writes behind to the store.
type QuotaTracker struct {
	mu             sync.Mutex
	dailyUsed      int64
	monthlyUsed    int64
	dailyLimit     int64
	monthlyLimit   int64
	action         QuotaAction
	name           string
	lastDayReset   time.Time
	lastMonthReset time.Time
	now            func() time.Time
	store          QuotaStore
	logger         *zap.Logger
}

// NewQuotaTracker creates a tracker. Zero limits mean unlimited.
func NewQuotaTracker(
	name string, dailyLimit, monthlyLimit int64,
	action QuotaAction, logger *zap.Logger,
) *QuotaTracker {
	q := &QuotaTracker{
		dailyLimit:   dailyLimit,
		monthlyLimit: monthlyLimit,
		action:       action,
		name:         name,
		now:          func() time.Time { return time.Now().UTC() },
		logger:       logger,
	}
	now := q.now()
	q.lastDayReset = truncateToDay(now)
	q.lastMonthReset = truncateToMonth(now)
	return q
}

// WithStore attaches persistence and loads the current counters.
func (q *QuotaTracker) WithStore(ctx context.Context, store QuotaStore) *QuotaTracker {
	q.store = store
	q.loadFromStore(ctx)
	return q
}

func (q *QuotaTracker) loadFromStore(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	if val, err := q.store.Get(ctx, q.dailyKey(now)); err == nil {
		q.dailyUsed = val
	} else {
		q.logger.Warn("Failed to load daily quota from store", zap.Error(err))
	}
	if val, err := q.store.Get(ctx, q.monthlyKey(now)); err == nil {
		q.monthlyUsed = val
	} else {
		q.logger.Warn("Failed to load monthly quota from store", zap.Error(err))
	}

	q.logger.Info("Embedding quota loaded",
		zap.String("tier", q.name),
		zap.Int64("daily_used", q.dailyUsed),
		zap.Int64("monthly_used", q.monthlyUsed),
	)
}

func (q *QuotaTracker) dailyKey(t time.Time) string {
	return fmt.Sprintf("%squota:%s:daily:%s", domain.KeyPrefix, q.name, t.Format("2006-01-02"))
}

func (q *QuotaTracker) monthlyKey(t time.Time) string {
	return fmt.Sprintf("%squota:%s:monthly:%s", domain.KeyPrefix, q.name, t.Format("2006-01"))
}

// Check returns domain.ErrEmbeddingQuotaExceeded when the quota is spent and
// the action is skip.
func (q *QuotaTracker) Check(_ context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.resetIfNeeded()

	dailyExceeded := q.dailyLimit > 0 && q.dailyUsed >= q.dailyLimit
	monthlyExceeded := q.monthlyLimit > 0 && q.monthlyUsed >= q.monthlyLimit
	if !dailyExceeded && !monthlyExceeded {
		return nil
	}

	if q.action == QuotaActionWarn {
		q.logger.Warn("Embedding token quota exceeded",
			zap.String("tier", q.name),
			zap.Int64("daily_used", q.dailyUsed),
			zap.Int64("daily_limit", q.dailyLimit),
			zap.Int64("monthly_used", q.monthlyUsed),
			zap.Int64("monthly_limit", q.monthlyLimit),
		)
		return nil
	}
	return domain.ErrEmbeddingQuotaExceeded
}

// Record registers consumed tokens.
func (q *QuotaTracker) Record(tokens int64) {
	q.mu.Lock()
	q.resetIfNeeded()
	q.dailyUsed += tokens
	q.monthlyUsed += tokens
	store := q.store
	now := q.now()
	dailyKey, monthlyKey := q.dailyKey(now), q.monthlyKey(now)
	q.mu.Unlock()

	metrics.EmbeddingQuotaTokensRemaining.WithLabelValues("daily").Set(float64(q.RemainingDaily()))
	metrics.EmbeddingQuotaTokensRemaining.WithLabelValues("monthly").Set(float64(q.RemainingMonthly()))

	if store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := store.IncrBy(ctx, dailyKey, tokens); err != nil {
		q.logger.Warn("Failed to persist daily quota", zap.String("key", dailyKey), zap.Error(err))
	}
	if err := store.IncrBy(ctx, monthlyKey, tokens); err != nil {
		q.logger.Warn("Failed to persist monthly quota", zap.String("key", monthlyKey), zap.Error(err))
	}
}

// RemainingDaily returns tokens left today (-1 if unlimited).
func (q *QuotaTracker) RemainingDaily() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.resetIfNeeded()
	return remaining(q.dailyLimit, q.dailyUsed)
}

// RemainingMonthly returns tokens left this month (-1 if unlimited).
func (q *QuotaTracker) RemainingMonthly() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.resetIfNeeded()
	return remaining(q.monthlyLimit, q.monthlyUsed)
}

// DailyUsed returns tokens consumed today.
func (q *QuotaTracker) DailyUsed() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.resetIfNeeded()
	return q.dailyUsed
}

// MonthlyUsed returns tokens consumed this month.
func (q *QuotaTracker) MonthlyUsed() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.resetIfNeeded()
	return q.monthlyUsed
}

// DailyLimit returns the daily cap (0 = unlimited).
func (q *QuotaTracker) DailyLimit() int64 { return q.dailyLimit }

// MonthlyLimit returns the monthly cap (0 = unlimited).
func (q *QuotaTracker) MonthlyLimit() int64 { return q.monthlyLimit }

func remaining(limit, used int64) int64 {
	if limit == 0 {
		return -1
	}
	return max(limit-used, 0)
}

// resetIfNeeded zeroes counters when the day or month rolls over.
func (q *QuotaTracker) resetIfNeeded() {
	now := q.now()
	today := truncateToDay(now)
	thisMonth := truncateToMonth(now)

	if today.After(q.lastDayReset) {
		q.dailyUsed = 0
		q.lastDayReset = today
	}
	if thisMonth.After(q.lastMonthReset) {
		q.monthlyUsed = 0
		q.lastMonthReset = thisMonth
	}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func truncateToMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
