package ingest

import (
	"github.com/kailas-cloud/newsvec/internal/domain/article"
	"github.com/kailas-cloud/newsvec/internal/domain/dedup"
)

// Status is the processing outcome of a single ingested item.
type Status string

// Ingestion outcomes.
const (
	// StatusStored means the document and its vector were written.
	StatusStored Status = "stored"
	// StatusStoredWithoutVector means embedding or indexing failed and only the document was written.
	StatusStoredWithoutVector Status = "stored_without_vector"
	// StatusDuplicate means the dedup gate rejected the item.
	StatusDuplicate Status = "duplicate"
	// StatusFailed means nothing was written.
	StatusFailed Status = "failed"
)

// Outcome is the result of ingesting one item.
type Outcome struct {
	status   Status
	document *article.Document
	verdict  dedup.Verdict
	err      error
}

// Stored creates a successful outcome. withVector=false marks a degraded write.
func Stored(doc article.Document, withVector bool) Outcome {
	st := StatusStored
	if !withVector {
		st = StatusStoredWithoutVector
	}
	return Outcome{status: st, document: &doc}
}

// Duplicate creates a rejected outcome.
func Duplicate(v dedup.Verdict) Outcome { return Outcome{status: StatusDuplicate, verdict: v} }

// Failed creates a failed outcome.
func Failed(err error) Outcome { return Outcome{status: StatusFailed, err: err} }

// Status returns the processing outcome.
func (o Outcome) Status() Status { return o.status }

// Document returns the stored document, nil unless stored.
func (o Outcome) Document() *article.Document { return o.document }

// Verdict returns the dedup verdict for duplicates.
func (o Outcome) Verdict() dedup.Verdict { return o.verdict }

// Err returns the failure cause, if any.
func (o Outcome) Err() error { return o.err }
