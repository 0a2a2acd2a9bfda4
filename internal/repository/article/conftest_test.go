package article

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/newsvec/internal/db"
	domart "github.com/kailas-cloud/newsvec/internal/domain/article"
)

// fakeRedis is a map-backed redisStore with SET NX semantics.
type fakeRedis struct {
	mu      sync.Mutex
	kv      map[string][]byte
	json    map[string][]byte
	jsonErr error
	// kvErr fails Set and SetNX for keys starting with kvErrPrefix.
	kvErr       error
	kvErrPrefix string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{kv: map[string][]byte{}, json: map[string][]byte{}}
}

func (f *fakeRedis) JSONSet(_ context.Context, key, _ string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.jsonErr != nil {
		return f.jsonErr
	}
	f.json[key] = append([]byte(nil), data...)
	return nil
}

func (f *fakeRedis) JSONGet(_ context.Context, key string, _ ...string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.json[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (f *fakeRedis) JSONMGet(_ context.Context, keys []string, _ string) ([][]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(keys))
	for i, k := range keys {
		if v, ok := f.json[k]; ok {
			out[i] = append(append([]byte("["), v...), ']')
		}
	}
	return out, nil
}

func (f *fakeRedis) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.kv[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (f *fakeRedis) Set(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.kvErr != nil && strings.HasPrefix(key, f.kvErrPrefix) {
		return f.kvErr
	}
	f.kv[key] = value
	return nil
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.kvErr != nil && strings.HasPrefix(key, f.kvErrPrefix) {
		return f.kvErr
	}
	if _, ok := f.kv[key]; ok {
		return db.ErrKeyExists
	}
	f.kv[key] = value
	return nil
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.kv, k)
		delete(f.json, k)
	}
	return nil
}

func (f *fakeRedis) Scan(_ context.Context, pattern string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	var out []string
	for k := range f.json {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out, nil
}

// repo is the contract shared by all backends.
type repo interface {
	Insert(ctx context.Context, doc *domart.Document) error
	FindByID(ctx context.Context, id string) (domart.Document, error)
	FindByVectorIDs(ctx context.Context, vectorIDs []string) (map[string]domart.Document, error)
	ExactMatch(ctx context.Context, guid, link string) (*domart.Document, error)
	Stats(ctx context.Context) (domart.Stats, error)
}

func backends() map[string]func() repo {
	return map[string]func() repo{
		"memory": func() repo { return NewMemory() },
		"redis":  func() repo { return NewRedis(newFakeRedis(), zap.NewNop()) },
	}
}

var testPublished = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testDoc(t *testing.T, id, guid, link, source string, categories ...string) domart.Document {
	t.Helper()
	d, err := domart.New(id, source, "Title "+id, "Description "+id, "", link, guid, "",
		testPublished, categories)
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	return d
}
