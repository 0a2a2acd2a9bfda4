package chi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kailas-cloud/newsvec/internal/domain/article"
	"github.com/kailas-cloud/newsvec/internal/domain/dedup"
	doming "github.com/kailas-cloud/newsvec/internal/domain/ingest"
	ingestuc "github.com/kailas-cloud/newsvec/internal/usecase/ingest"
)

// CreateArticle handles POST /articles.
func (s *Server) CreateArticle(w http.ResponseWriter, r *http.Request) {
	var req articleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	o := s.ingest.Ingest(r.Context(), req.toRaw())
	switch o.Status() {
	case doming.StatusFailed:
		s.handleDomainError(w, r, o.Err())
	case doming.StatusDuplicate:
		writeJSON(w, http.StatusOK, outcomeToResponse(o))
	default:
		writeJSON(w, http.StatusCreated, outcomeToResponse(o))
	}
}

// CreateArticles handles POST /articles/batch.
func (s *Server) CreateArticles(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Articles) == 0 || len(req.Articles) > ingestuc.MaxBatchSize {
		writeError(w, http.StatusBadRequest, codeInvalidArticle,
			fmt.Sprintf("articles count must be between 1 and %d", ingestuc.MaxBatchSize))
		return
	}

	raws := make([]article.Raw, len(req.Articles))
	for i := range req.Articles {
		raws[i] = req.Articles[i].toRaw()
	}

	stats, outcomes := s.ingest.IngestBatch(r.Context(), raws)

	items := make([]ingestResponse, len(outcomes))
	for i, o := range outcomes {
		items[i] = outcomeToResponse(o)
	}
	writeJSON(w, http.StatusOK, batchResponse{Items: items, Stats: countersFromStats(&stats)})
}

// CheckDuplicate handles POST /duplicates/check.
func (s *Server) CheckDuplicate(w http.ResponseWriter, r *http.Request) {
	var req duplicateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Threshold < 0 || req.Threshold > 1 {
		writeError(w, http.StatusBadRequest, codeInvalidQuery, "threshold must be between 0 and 1")
		return
	}

	threshold := req.Threshold
	if threshold == 0 {
		threshold = s.opts.DedupThreshold
	}

	v, err := s.dedup.Check(r.Context(), dedup.Candidate{
		Title: req.Title,
		Body:  req.Body,
		GUID:  req.GUID,
		Link:  req.Link,
	}, threshold)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, verdictToResponse(v))
}

// IngestFeeds handles POST /feeds/ingest. The run continues in the
// background unless the request sets "wait".
func (s *Server) IngestFeeds(w http.ResponseWriter, r *http.Request) {
	var req feedsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	feeds, err := req.toFeeds()
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	if req.Wait {
		stats, err := s.ingest.IngestFeeds(r.Context(), feeds)
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, runStatusToResponse(&stats))
		return
	}

	started, err := s.ingest.StartFeeds(r.Context(), feeds)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, runStatusToResponse(&started))
}

// IngestStatus handles GET /ingest/status.
func (s *Server) IngestStatus(w http.ResponseWriter, _ *http.Request) {
	st := s.ingest.Status()
	writeJSON(w, http.StatusOK, runStatusToResponse(&st))
}
