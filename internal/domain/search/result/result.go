package result

import (
	"math"
	"sort"

	"github.com/kailas-cloud/newsvec/internal/domain/article"
)

// Result is a single search hit.
type Result struct {
	score    float64
	document article.Document
}

// New creates a search result.
func New(score float64, doc article.Document) Result {
	return Result{score: score, document: doc}
}

// DocumentID returns the matched document identifier.
func (r *Result) DocumentID() string { return r.document.ID() }

// Score returns the cosine similarity in [0, 1].
func (r *Result) Score() float64 { return r.score }

// Document returns the matched document.
func (r *Result) Document() article.Document { return r.document }

// Sort orders results by score descending, then publication date descending,
// then document id so that equal inputs always produce the same order.
func Sort(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := &results[i], &results[j]
		if a.score != b.score {
			return a.score > b.score
		}
		pa, pb := a.document.PublishedAt(), b.document.PublishedAt()
		if !pa.Equal(pb) {
			return pa.After(pb)
		}
		return a.document.ID() < b.document.ID()
	})
}

// Round rounds a score to 4 decimal places for presentation.
func Round(score float64) float64 {
	return math.Round(score*10000) / 10000
}
