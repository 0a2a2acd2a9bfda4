package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/newsvec/internal/domain"
	logpkg "github.com/kailas-cloud/newsvec/internal/logger"
)

// Error codes returned in the "code" field.
const (
	codeBadRequest        = "bad_request"
	codeInvalidQuery      = "invalid_query"
	codeInvalidArticle    = "invalid_article"
	codeNotFound          = "not_found"
	codeDocumentNotFound  = "document_not_found"
	codeNoVector          = "document_has_no_vector"
	codeDimMismatch       = "vector_dim_mismatch"
	codeIndexUnavailable  = "index_unavailable"
	codeIngestInProgress  = "ingest_in_progress"
	codeEmbeddingProvider = "embedding_provider_error"
	codeInternal          = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, codeInvalidQuery),
		sentinelHandler(domain.ErrInvalidArticle, http.StatusBadRequest, codeInvalidArticle),
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, codeDocumentNotFound),
		sentinelHandler(domain.ErrDocumentHasNoVector, http.StatusUnprocessableEntity, codeNoVector),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, codeDimMismatch),
		sentinelHandler(domain.ErrIngestInProgress, http.StatusConflict, codeIngestInProgress),
		sentinelHandler(domain.ErrIndexUnavailable, http.StatusServiceUnavailable, codeIndexUnavailable),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProvider),
	}
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// The response message is the full error chain for client errors and the
// sentinel text otherwise.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		msg := sentinel.Error()
		if status < http.StatusInternalServerError {
			msg = err.Error()
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context())
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
