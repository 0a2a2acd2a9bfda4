package ingest

import (
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/newsvec/internal/domain/article"
	"github.com/kailas-cloud/newsvec/internal/domain/dedup"
)

func TestStats_Record(t *testing.T) {
	doc := article.Reconstruct("d", "s", "t", "", "", "l", "g", "", time.Now(), nil, "", time.Now())

	var s Stats
	s.Record(Stored(doc, true))
	s.Record(Stored(doc, false))
	s.Record(Duplicate(dedup.ExactMatch("x")))
	s.Record(Failed(errors.New("boom")))

	if s.TotalItems != 4 || s.NewItems != 2 || s.Duplicates != 1 || s.Errors != 1 || s.VectorsGenerated != 1 {
		t.Fatalf("unexpected stats: %+v", s)
	}
}

func TestStats_Merge(t *testing.T) {
	a := Stats{TotalItems: 2, NewItems: 1, Duplicates: 1}
	a.Merge(Stats{TotalItems: 3, NewItems: 3, VectorsGenerated: 3})
	if a.TotalItems != 5 || a.NewItems != 4 || a.VectorsGenerated != 3 || a.Duplicates != 1 {
		t.Fatalf("unexpected merge: %+v", a)
	}
}

func TestOutcome_Accessors(t *testing.T) {
	err := errors.New("boom")
	o := Failed(err)
	if o.Status() != StatusFailed || !errors.Is(o.Err(), err) || o.Document() != nil {
		t.Fatalf("unexpected failed outcome: %+v", o)
	}

	v := dedup.SemanticMatch("d1", 0.99)
	o = Duplicate(v)
	if o.Verdict().MatchedDocumentID != "d1" || *o.Verdict().SimilarityScore != 0.99 {
		t.Fatalf("unexpected verdict: %+v", o.Verdict())
	}
}
