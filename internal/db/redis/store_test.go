package redis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/newsvec/internal/db"
)

// --- client.go tests ---

func TestPing_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	err := s.Ping(context.Background())
	if !isDBError(err) {
		t.Fatalf("expected db.Error, got %v", err)
	}
}

func TestNewStore_RequiresAddrs(t *testing.T) {
	if _, err := NewStore(Config{}); err == nil {
		t.Fatal("expected error for empty addrs")
	}
}

// --- hash.go tests ---

func TestHSet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "HSET" && cmd[1] == "newsvec:vec:a1"
		})).
		Return(mock.Result(mock.RedisInt64(1)))

	s := NewStoreForTest(c)
	err := s.HSet(context.Background(), "newsvec:vec:a1", map[string]string{"title": "t"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHSet_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "HSET" })).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	err := s.HSet(context.Background(), "k", map[string]string{"f": "v"})
	if !isDBError(err) {
		t.Errorf("expected db.Error, got %T", err)
	}
}

func TestHGetAll_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("HGETALL", "k")).
		Return(mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{
			"f1": mock.RedisString("v1"),
		})))

	s := NewStoreForTest(c)
	m, err := s.HGetAll(context.Background(), "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m["f1"] != "v1" {
		t.Errorf("unexpected map: %v", m)
	}
}

func TestHGetAll_Missing(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("HGETALL", "k")).
		Return(mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{})))

	s := NewStoreForTest(c)
	_, err := s.HGetAll(context.Background(), "k")
	if !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestDel_MultipleKeys(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("DEL", "a", "b")).
		Return(mock.Result(mock.RedisInt64(2)))

	s := NewStoreForTest(c)
	if err := s.Del(context.Background(), "a", "b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDel_NoKeys(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	s := NewStoreForTest(c)
	if err := s.Del(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("EXISTS", "k")).
		Return(mock.Result(mock.RedisInt64(1)))

	s := NewStoreForTest(c)
	ok, err := s.Exists(context.Background(), "k")
	if err != nil || !ok {
		t.Fatalf("expected exists, got %v %v", ok, err)
	}
}

func TestScan_MultiPage(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	first := true
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "SCAN" })).
		DoAndReturn(func(_ context.Context, _ rueidis.Completed) rueidis.RedisResult {
			if first {
				first = false
				return mock.Result(mock.RedisArray(
					mock.RedisInt64(42),
					mock.RedisArray(mock.RedisString("key1")),
				))
			}
			return mock.Result(mock.RedisArray(
				mock.RedisInt64(0),
				mock.RedisArray(mock.RedisString("key2")),
			))
		}).
		Times(2)

	s := NewStoreForTest(c)
	keys, err := s.Scan(context.Background(), "newsvec:doc:*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(keys))
	}
}

// --- json.go tests ---

func TestJSONSet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("JSON.SET", "doc", "$", `{"a":1}`)).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c)
	if err := s.JSONSet(context.Background(), "doc", "$", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestJSONGet_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "JSON.GET" })).
		Return(mock.Result(mock.RedisNil()))

	s := NewStoreForTest(c)
	_, err := s.JSONGet(context.Background(), "doc")
	if !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestJSONGet_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "JSON.GET" })).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	_, err := s.JSONGet(context.Background(), "doc")
	if err == nil || errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected transport error, got %v", err)
	}
}

func TestJSONMGet_AlignsMissing(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("JSON.MGET", "d1", "d2", "d3", ".")).
		Return(mock.Result(mock.RedisArray(
			mock.RedisBlobString(`{"id":"d1"}`),
			mock.RedisNil(),
			mock.RedisBlobString(`{"id":"d3"}`),
		)))

	s := NewStoreForTest(c)
	out, err := s.JSONMGet(context.Background(), []string{"d1", "d2", "d3"}, ".")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 3 || out[1] != nil || string(out[2]) != `{"id":"d3"}` {
		t.Fatalf("unexpected result: %q", out)
	}
}

func TestJSONMGet_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	s := NewStoreForTest(c)
	out, err := s.JSONMGet(context.Background(), nil, ".")
	if err != nil || out != nil {
		t.Fatalf("expected nil, nil; got %v, %v", out, err)
	}
}

// --- kv.go tests ---

func TestGet_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "k")).
		Return(mock.Result(mock.RedisNil()))

	s := NewStoreForTest(c)
	_, err := s.Get(context.Background(), "k")
	if !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestSet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "k", "v")).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c)
	if err := s.Set(context.Background(), "k", []byte("v")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSetNX_Claimed(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "newsvec:guid:abc", "doc-1", "NX")).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c)
	if err := s.SetNX(context.Background(), "newsvec:guid:abc", []byte("doc-1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSetNX_AlreadyClaimed(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "k", "v", "NX")).
		Return(mock.Result(mock.RedisNil()))

	s := NewStoreForTest(c)
	err := s.SetNX(context.Background(), "k", []byte("v"))
	if !errors.Is(err, db.ErrKeyExists) {
		t.Errorf("expected ErrKeyExists, got %v", err)
	}
}

func TestExpire_WithNX(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("EXPIRE", "k", "60", "NX")).
		Return(mock.Result(mock.RedisInt64(1)))

	s := NewStoreForTest(c)
	if err := s.Expire(context.Background(), "k", 60e9, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// --- index.go tests ---

func TestCreateIndex_Args(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	var got []string
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			got = cmd
			return cmd[0] == "FT.CREATE"
		})).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c)
	def, err := db.NewIndex("newsvec:idx").
		Prefix("newsvec:vec:").
		Tag("source").
		VectorHNSW("__vector", "vector", 384, db.DistanceCosine, 16, 0).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := s.CreateIndex(context.Background(), def); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "FT.CREATE newsvec:idx ON HASH PREFIX 1 newsvec:vec: SCHEMA source TAG " +
		"__vector AS vector VECTOR HNSW 8 TYPE FLOAT32 DIM 384 DISTANCE_METRIC COSINE M 16"
	if strings.Join(got, " ") != want {
		t.Errorf("unexpected command:\n got %s\nwant %s", strings.Join(got, " "), want)
	}
}

func TestCreateIndex_AlreadyExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "FT.CREATE" })).
		Return(mock.Result(mock.RedisError("Index already exists")))

	s := NewStoreForTest(c)
	idx := &db.IndexDefinition{
		Name:   "test:idx",
		Fields: []db.IndexField{{Name: "f", Type: db.IndexFieldTag}},
	}
	err := s.CreateIndex(context.Background(), idx)
	if !errors.Is(err, db.ErrIndexExists) {
		t.Errorf("expected ErrIndexExists, got %v", err)
	}
}

func TestCreateIndex_InvalidDefinition(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	s := NewStoreForTest(c)
	if err := s.CreateIndex(context.Background(), &db.IndexDefinition{Name: "x"}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestIndexExists(t *testing.T) {
	tests := []struct {
		name   string
		result rueidis.RedisResult
		want   bool
	}{
		{"present", mock.Result(mock.RedisArray()), true},
		{"unknown index", mock.Result(mock.RedisError("Unknown Index name")), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			c := mock.NewClient(ctrl)
			c.EXPECT().
				Do(gomock.Any(), mock.Match("FT.INFO", "idx")).
				Return(tc.result)

			s := NewStoreForTest(c)
			got, err := s.IndexExists(context.Background(), "idx")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("IndexExists = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDropIndex_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.DROPINDEX", "idx")).
		Return(mock.Result(mock.RedisError("Unknown Index name")))

	s := NewStoreForTest(c)
	if err := s.DropIndex(context.Background(), "idx"); !errors.Is(err, db.ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound, got %v", err)
	}
}

// --- search.go tests ---

func TestSearchKNN_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	var got []string
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			got = cmd
			return cmd[0] == "FT.SEARCH"
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(1),
			mock.RedisString("newsvec:vec:article-1"),
			mock.RedisArray(
				mock.RedisString("__vector_score"),
				mock.RedisString("0.1"),
				mock.RedisString("title"),
				mock.RedisString("hello"),
			),
		)))

	s := NewStoreForTest(c)
	result, err := s.SearchKNN(context.Background(), &db.KNNQuery{
		IndexName:    "idx",
		Vector:       []float32{0.1, 0.2},
		K:            20,
		ReturnFields: []string{"title"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(result.Entries))
	}
	e := result.Entries[0]
	if e.Key != "newsvec:vec:article-1" || e.Distance != 0.1 || e.Fields["title"] != "hello" {
		t.Errorf("unexpected entry: %+v", e)
	}
	if _, ok := e.Fields["__vector_score"]; ok {
		t.Error("score field should be stripped from fields")
	}

	joined := strings.Join(got, " ")
	if !strings.Contains(joined, "*=>[KNN 20 @vector $BLOB]") || !strings.Contains(joined, "LIMIT 0 20") {
		t.Errorf("unexpected command: %q", joined)
	}
	if !strings.Contains(joined, "RETURN 2 __vector_score title") {
		t.Errorf("expected RETURN clause with score field, got %q", joined)
	}
}

func TestSearchKNN_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "FT.SEARCH" })).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(0))))

	s := NewStoreForTest(c)
	result, err := s.SearchKNN(context.Background(), &db.KNNQuery{IndexName: "idx", Vector: []float32{1}, K: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Entries) != 0 {
		t.Errorf("expected 0 entries, got %d", len(result.Entries))
	}
}

func TestSearchKNN_Validation(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)
	s := NewStoreForTest(c)

	for _, q := range []*db.KNNQuery{
		{Vector: []float32{1}, K: 1},
		{IndexName: "idx", K: 1},
		{IndexName: "idx", Vector: []float32{1}},
	} {
		if _, err := s.SearchKNN(context.Background(), q); err == nil {
			t.Errorf("expected validation error for %+v", q)
		}
	}
}

func TestSearchKNN_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "FT.SEARCH" })).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	_, err := s.SearchKNN(context.Background(), &db.KNNQuery{IndexName: "idx", Vector: []float32{1}, K: 1})
	if !isDBError(err) {
		t.Errorf("expected db.Error, got %v", err)
	}
}

func TestSearchCount(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.SEARCH", "idx", "*", "LIMIT", "0", "0")).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(42))))

	s := NewStoreForTest(c)
	n, err := s.SearchCount(context.Background(), "idx", "*")
	if err != nil || n != 42 {
		t.Fatalf("expected 42, got %d (%v)", n, err)
	}
}

func TestVectorBytesRoundTrip(t *testing.T) {
	in := []float32{0.5, -1.25, 3}
	out, err := BytesToVector([]byte(VectorToBytes(in)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range in {
		if in[i] != out[i] {
			t.Fatalf("mismatch at %d: %v != %v", i, in[i], out[i])
		}
	}
	if _, err := BytesToVector([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for truncated blob")
	}
}

func isDBError(err error) bool {
	var dbErr *db.Error
	return errors.As(err, &dbErr)
}

func TestSearchKNN_MissingIndex(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "FT.SEARCH" })).
		Return(mock.Result(mock.RedisError("idx: no such index")))

	s := NewStoreForTest(c)
	_, err := s.SearchKNN(context.Background(), &db.KNNQuery{IndexName: "idx", Vector: []float32{1}, K: 1})
	if !errors.Is(err, db.ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound, got %v", err)
	}
}
