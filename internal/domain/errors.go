package domain

import "errors"

var (
	// ErrNotFound signals a missing key or entry.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists signals a duplicate resource (e.g. a GUID already claimed by another document).
	ErrAlreadyExists = errors.New("already exists")
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrDocumentHasNoVector signals a document that was stored without an embedding.
	ErrDocumentHasNoVector = errors.New("document has no vector")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrInvalidQuery signals a malformed search request.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrInvalidArticle signals an inbound item that cannot become a document.
	ErrInvalidArticle = errors.New("invalid article")
	// ErrIngestInProgress signals that another ingestion run has not finished.
	ErrIngestInProgress = errors.New("ingestion already in progress")
	// ErrIndexUnavailable signals that the vector index backend cannot be reached.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrEmbeddingProviderError signals a failure of a single embedding backend.
	// The embedding provider absorbs it and moves on to the next tier.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrEmbeddingQuotaExceeded signals that the remote token quota is used up.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
)
