package vectorindex

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/newsvec/internal/domain"
)

func TestPostgres_QueryOrdersByDistanceThenID(t *testing.T) {
	ms := newMockPGStore()
	idx := NewPostgres(ms, testDim)

	got, err := idx.Query(context.Background(), unit(0), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ms.gotK != 10 {
		t.Errorf("expected k=10 passed through, got %d", ms.gotK)
	}
	want := []string{"c", "a", "b"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
}

func TestPostgres_UpsertGet(t *testing.T) {
	ctx := context.Background()
	ms := newMockPGStore()
	idx := NewPostgres(ms, testDim)

	if err := idx.Upsert(ctx, Entry{ID: "a", Vector: unit(3), Metadata: map[string]string{MetaLink: "l"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e, err := idx.Get(ctx, "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Vector[3] != 1 || e.Metadata[MetaLink] != "l" {
		t.Errorf("unexpected entry: %+v", e)
	}
	if _, err := idx.Get(ctx, "zzz"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgres_BackendDown(t *testing.T) {
	ms := newMockPGStore()
	ms.err = errors.New("dial tcp: connection refused")
	idx := NewPostgres(ms, testDim)

	if _, err := idx.Query(context.Background(), unit(0), 1); !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Errorf("expected ErrIndexUnavailable, got %v", err)
	}
	if err := idx.EnsureIndex(context.Background()); !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Errorf("expected ErrIndexUnavailable, got %v", err)
	}
}
