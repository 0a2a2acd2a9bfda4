package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/newsvec/internal/db"
	dbRedis "github.com/kailas-cloud/newsvec/internal/db/redis"
	"github.com/kailas-cloud/newsvec/internal/domain"
)

const (
	vectorField = "__vector"
	vectorAlias = "vector"
	idField     = "id"
)

var (
	keyPrefix = domain.KeyPrefix + "vec:"
	indexName = domain.KeyPrefix + "idx:articles"
)

// redisStore is the consumer interface for the Redis-backed index (ISP).
type redisStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, keys ...string) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// HNSWConfig tunes the HNSW graph. Zero values keep server defaults.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// RedisIndex keeps vectors in HASH keys covered by an FT vector index.
type RedisIndex struct {
	store  redisStore
	dim    int
	hnsw   HNSWConfig
	logger *zap.Logger
}

// NewRedis creates a Redis-backed index of the given dimensionality.
func NewRedis(s redisStore, dim int, logger *zap.Logger) *RedisIndex {
	return &RedisIndex{store: s, dim: dim, logger: logger}
}

// WithHNSW sets HNSW graph parameters.
func (r *RedisIndex) WithHNSW(cfg HNSWConfig) *RedisIndex {
	r.hnsw = cfg
	return r
}

// EnsureIndex creates the FT index if it does not exist yet.
func (r *RedisIndex) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, indexName)
	if err != nil {
		return unavailable("index exists", err)
	}
	if exists {
		return nil
	}

	def, err := db.NewIndex(indexName).
		Prefix(keyPrefix).
		Tag(MetaSource).
		Numeric(MetaPublishedAt).
		VectorHNSW(vectorField, vectorAlias, r.dim, db.DistanceCosine, r.hnsw.M, r.hnsw.EFConstruct).
		Build()
	if err != nil {
		return fmt.Errorf("build index definition: %w", err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return unavailable("create index", err)
	}

	r.logger.Info("Vector index created",
		zap.String("index", indexName),
		zap.Int("dim", r.dim),
	)
	return nil
}

// Upsert inserts or replaces an entry.
func (r *RedisIndex) Upsert(ctx context.Context, e Entry) error {
	if err := checkDim(r.dim, e.Vector); err != nil {
		return err
	}

	// A non-numeric value makes the server skip the hash during indexing.
	if v, ok := e.Metadata[MetaPublishedAt]; ok {
		if _, err := strconv.ParseInt(v, 10, 64); err != nil {
			return fmt.Errorf("upsert %s: %s must be unix seconds, got %q", e.ID, MetaPublishedAt, v)
		}
	}

	fields := make(map[string]string, len(e.Metadata)+2)
	for k, v := range e.Metadata {
		fields[k] = v
	}
	fields[idField] = e.ID
	fields[vectorField] = dbRedis.VectorToBytes(e.Vector)

	if err := r.store.HSet(ctx, keyPrefix+e.ID, fields); err != nil {
		return unavailable("upsert "+e.ID, err)
	}
	return nil
}

// Get returns the entry for id, or domain.ErrNotFound.
func (r *RedisIndex) Get(ctx context.Context, id string) (Entry, error) {
	fields, err := r.store.HGetAll(ctx, keyPrefix+id)
	if err != nil {
		if isMissing(err) {
			return Entry{}, fmt.Errorf("vector %s: %w", id, domain.ErrNotFound)
		}
		return Entry{}, unavailable("get "+id, err)
	}

	blob, ok := fields[vectorField]
	if !ok {
		return Entry{}, fmt.Errorf("vector %s: %w", id, domain.ErrNotFound)
	}
	vec, err := dbRedis.BytesToVector([]byte(blob))
	if err != nil {
		return Entry{}, fmt.Errorf("decode vector %s: %w", id, err)
	}

	delete(fields, vectorField)
	delete(fields, idField)
	return Entry{ID: id, Vector: vec, Metadata: fields}, nil
}

// Query returns up to k nearest entries by cosine distance.
func (r *RedisIndex) Query(ctx context.Context, vector []float32, k int) ([]Neighbor, error) {
	if k <= 0 {
		return nil, nil
	}
	if err := checkDim(r.dim, vector); err != nil {
		return nil, err
	}

	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    indexName,
		Vector:       vector,
		K:            k,
		ReturnFields: []string{idField, MetaTitle, MetaSource, MetaPublishedAt, MetaLink},
	})
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, nil
		}
		return nil, unavailable("query", err)
	}

	out := make([]Neighbor, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		id := e.Fields[idField]
		if id == "" {
			id = strings.TrimPrefix(e.Key, keyPrefix)
		}
		delete(e.Fields, idField)
		out = append(out, Neighbor{ID: id, Distance: e.Distance, Metadata: e.Fields})
	}
	return sortNeighbors(out, k), nil
}

// Delete removes an entry. Missing ids are not an error.
func (r *RedisIndex) Delete(ctx context.Context, id string) error {
	if err := r.store.Del(ctx, keyPrefix+id); err != nil {
		return unavailable("delete "+id, err)
	}
	return nil
}

// Count returns the number of indexed vectors.
func (r *RedisIndex) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, indexName, "*")
	if err != nil {
		return 0, unavailable("count", err)
	}
	return n, nil
}
