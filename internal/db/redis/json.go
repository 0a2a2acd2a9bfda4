package redis

import (
	"context"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/newsvec/internal/db"
)

// JSONSet stores a JSON document at the given key and path.
func (s *Store) JSONSet(ctx context.Context, key, path string, data []byte) error {
	cmd := s.b().Arbitrary("JSON.SET").Keys(key).Args(path, string(data)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpJSONSet, Err: err}
	}
	return nil
}

// JSONGet retrieves a JSON document by key and optional paths.
func (s *Store) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	args := make([]string, len(paths))
	copy(args, paths)

	cmd := s.b().Arbitrary("JSON.GET").Keys(key).Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpJSONGet, Err: err}
	}
	if raw == "" {
		return nil, db.ErrKeyNotFound
	}
	return []byte(raw), nil
}

// JSONMGet fetches the same path from several documents in one round-trip.
// The result is aligned with keys; missing documents are nil.
func (s *Store) JSONMGet(ctx context.Context, keys []string, path string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	cmd := s.b().Arbitrary("JSON.MGET").Keys(keys...).Args(path).Build()
	msgs, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpJSONMGet, Err: err}
	}

	out := make([][]byte, len(keys))
	for i := range msgs {
		if i >= len(out) {
			break
		}
		raw, err := msgs[i].ToString()
		if err != nil || raw == "" {
			continue
		}
		out[i] = []byte(raw)
	}
	return out, nil
}
