package dedup

import "errors"

// ErrSemanticUnavailable marks a semantic check that could not run because
// embedding or the vector index failed. The exact check has already passed.
var ErrSemanticUnavailable = errors.New("semantic check unavailable")

// DefaultThreshold is the similarity at or above which two articles are the same story.
const DefaultThreshold = 0.98

// Candidate is an incoming item checked against the stored corpus.
type Candidate struct {
	Title string
	Body  string
	GUID  string
	Link  string
	// Embedding, when set, is the vector of Title+Body and is used
	// instead of embedding the text again.
	Embedding []float32
}

// Verdict is the outcome of a duplicate check.
// SimilarityScore is nil when no comparison produced a score.
type Verdict struct {
	IsDuplicate       bool
	Exact             bool
	MatchedDocumentID string
	SimilarityScore   *float64
}

// NotDuplicate is the verdict for a fresh item.
func NotDuplicate() Verdict { return Verdict{} }

// ExactMatch is the verdict for a GUID or link collision.
func ExactMatch(documentID string) Verdict {
	score := 1.0
	return Verdict{IsDuplicate: true, Exact: true, MatchedDocumentID: documentID, SimilarityScore: &score}
}

// SemanticMatch is the verdict for a near-identical embedding.
func SemanticMatch(documentID string, score float64) Verdict {
	return Verdict{IsDuplicate: true, MatchedDocumentID: documentID, SimilarityScore: &score}
}
