package chi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// defaultSimilarLimit is the "more like this" page size when no limit is given.
const defaultSimilarLimit = 5

// SearchGet handles GET /search?q=...
func (s *Server) SearchGet(w http.ResponseWriter, r *http.Request) {
	req, err := searchRequestFromQuery(r.URL.Query())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	s.searchByText(w, r, &req)
}

// SearchPost handles POST /search.
func (s *Server) SearchPost(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	s.searchByText(w, r, &req)
}

func (s *Server) searchByText(w http.ResponseWriter, r *http.Request, req *searchRequest) {
	f, err := req.filter(s.opts.DefaultLimit, s.opts.MaxResultsCap, s.opts.MinSimilarity)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	results, err := s.search.SearchByText(r.Context(), req.Query, f)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Query:   req.Query,
		Results: searchResultsToResponse(results),
		Total:   len(results),
		Limit:   f.MaxResults(),
	})
}

// SimilarArticles handles GET /articles/{id}/similar.
func (s *Server) SimilarArticles(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	req, err := searchRequestFromQuery(r.URL.Query())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	f, err := req.filter(defaultSimilarLimit, s.opts.MaxResultsCap, s.opts.MinSimilarity)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	results, err := s.search.SearchSimilarTo(r.Context(), id, f)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		ArticleID: id,
		Results:   searchResultsToResponse(results),
		Total:     len(results),
		Limit:     f.MaxResults(),
	})
}
