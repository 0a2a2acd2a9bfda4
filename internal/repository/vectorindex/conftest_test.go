package vectorindex

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/newsvec/internal/db"
)

const testDim = 4

// mockRedisStore implements the consumer interface for tests.
type mockRedisStore struct {
	hsetFn        func(ctx context.Context, key string, fields map[string]string) error
	hgetallFn     func(ctx context.Context, key string) (map[string]string, error)
	delFn         func(ctx context.Context, keys ...string) error
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	indexExistsFn func(ctx context.Context, name string) (bool, error)
	searchKNNFn   func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	searchCountFn func(ctx context.Context, index, query string) (int, error)
}

func (m *mockRedisStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if m.hsetFn != nil {
		return m.hsetFn(ctx, key, fields)
	}
	return nil
}

func (m *mockRedisStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetallFn != nil {
		return m.hgetallFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockRedisStore) Del(ctx context.Context, keys ...string) error {
	if m.delFn != nil {
		return m.delFn(ctx, keys...)
	}
	return nil
}

func (m *mockRedisStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockRedisStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func (m *mockRedisStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockRedisStore) SearchCount(ctx context.Context, index, query string) (int, error) {
	if m.searchCountFn != nil {
		return m.searchCountFn(ctx, index, query)
	}
	return 0, nil
}

func newTestRedisIndex(t *testing.T) (*RedisIndex, *mockRedisStore) {
	t.Helper()
	ms := &mockRedisStore{}
	return NewRedis(ms, testDim, zap.NewNop()), ms
}

// mockPGStore implements the pgvector consumer interface for tests.
type mockPGStore struct {
	vectors map[string][]float32
	meta    map[string]map[string]string
	err     error
	gotK    int
}

func newMockPGStore() *mockPGStore {
	return &mockPGStore{vectors: map[string][]float32{}, meta: map[string]map[string]string{}}
}

func (m *mockPGStore) Migrate(context.Context, int) error { return m.err }

func (m *mockPGStore) UpsertVector(_ context.Context, id string, vec []float32, md map[string]string) error {
	if m.err != nil {
		return m.err
	}
	m.vectors[id] = vec
	m.meta[id] = md
	return nil
}

func (m *mockPGStore) GetVector(_ context.Context, id string) ([]float32, map[string]string, error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	v, ok := m.vectors[id]
	if !ok {
		return nil, nil, db.ErrKeyNotFound
	}
	return v, m.meta[id], nil
}

func (m *mockPGStore) NearestVectors(_ context.Context, _ []float32, k int) ([]db.SearchEntry, error) {
	m.gotK = k
	if m.err != nil {
		return nil, m.err
	}
	return []db.SearchEntry{
		{Key: "b", Distance: 0.2},
		{Key: "a", Distance: 0.2},
		{Key: "c", Distance: 0.05},
	}, nil
}

func (m *mockPGStore) DeleteVector(_ context.Context, id string) error {
	delete(m.vectors, id)
	return m.err
}

func (m *mockPGStore) CountVectors(context.Context) (int, error) { return len(m.vectors), m.err }

func unit(i int) []float32 {
	v := make([]float32, testDim)
	v[i%testDim] = 1
	return v
}
