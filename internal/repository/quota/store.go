// Package quota persists remote embedding token counters with period TTLs.
package quota

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/newsvec/internal/db"
)

// store is the consumer interface for quota counters (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Store keeps counters with INCRBY and expires them with EXPIRE NX.
type Store struct {
	store    store
	dailyTTL time.Duration
	monthTTL time.Duration
}

// New creates a quota store. Daily keys live dailyTTL, monthly keys monthTTL.
func New(s store, dailyTTL, monthTTL time.Duration) *Store {
	return &Store{
		store:    s,
		dailyTTL: dailyTTL,
		monthTTL: monthTTL,
	}
}

// IncrBy atomically increments the counter and sets its TTL once.
func (s *Store) IncrBy(ctx context.Context, key string, val int64) error {
	if err := s.store.IncrBy(ctx, key, val); err != nil {
		return fmt.Errorf("quota INCRBY %s: %w", key, err)
	}
	if err := s.store.Expire(ctx, key, s.ttlForKey(key), true); err != nil {
		return fmt.Errorf("quota EXPIRE %s: %w", key, err)
	}
	return nil
}

// Get returns the counter value, 0 when the key does not exist.
func (s *Store) Get(ctx context.Context, key string) (int64, error) {
	data, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("quota GET %s: %w", key, err)
	}

	val, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("quota GET %s parse: %w", key, err)
	}
	return val, nil
}

// Keys look like newsvec:quota:remote:daily:2024-03-01 or :monthly:2024-03.
func (s *Store) ttlForKey(key string) time.Duration {
	if strings.Contains(key, ":daily:") {
		return s.dailyTTL
	}
	return s.monthTTL
}
