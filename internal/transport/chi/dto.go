package chi

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/newsvec/internal/domain"
	"github.com/kailas-cloud/newsvec/internal/domain/article"
	"github.com/kailas-cloud/newsvec/internal/domain/dedup"
	doming "github.com/kailas-cloud/newsvec/internal/domain/ingest"
	"github.com/kailas-cloud/newsvec/internal/domain/search/filter"
	"github.com/kailas-cloud/newsvec/internal/domain/search/result"
)

// --- Search ---

type searchRequest struct {
	Query         string   `json:"query"`
	MinSimilarity *float64 `json:"minSimilarity,omitempty"`
	Limit         int      `json:"limit,omitempty"`
	DateFrom      string   `json:"dateFrom,omitempty"`
	DateTo        string   `json:"dateTo,omitempty"`
	Source        string   `json:"source,omitempty"`
	Category      string   `json:"category,omitempty"`
}

// searchRequestFromQuery reads the GET form of a search request.
func searchRequestFromQuery(q url.Values) (searchRequest, error) {
	req := searchRequest{
		Query:    q.Get("q"),
		DateFrom: q.Get("dateFrom"),
		DateTo:   q.Get("dateTo"),
		Source:   q.Get("source"),
		Category: q.Get("category"),
	}
	if v := q.Get("minSimilarity"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return req, fmt.Errorf("%w: minSimilarity must be a number", domain.ErrInvalidQuery)
		}
		req.MinSimilarity = &f
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, fmt.Errorf("%w: limit must be an integer", domain.ErrInvalidQuery)
		}
		req.Limit = n
	}
	return req, nil
}

// filter validates the request filters. limit above maxCap is clamped,
// limit 0 selects defaultLimit and a missing minSimilarity selects minSim.
func (r *searchRequest) filter(defaultLimit, maxCap int, minSim float64) (filter.Filter, error) {
	from, err := parseDate(r.DateFrom, false)
	if err != nil {
		return filter.Filter{}, fmt.Errorf("%w: dateFrom: %w", domain.ErrInvalidQuery, err)
	}
	to, err := parseDate(r.DateTo, true)
	if err != nil {
		return filter.Filter{}, fmt.Errorf("%w: dateTo: %w", domain.ErrInvalidQuery, err)
	}

	limit := r.Limit
	if limit == 0 {
		limit = defaultLimit
	}
	limit = min(limit, maxCap)

	threshold := r.MinSimilarity
	if threshold == nil && minSim > 0 {
		threshold = &minSim
	}

	f, err := filter.New(filter.Params{
		DateFrom:      from,
		DateTo:        to,
		SourceID:      r.Source,
		Category:      r.Category,
		MinSimilarity: threshold,
		MaxResults:    limit,
	})
	if err != nil {
		return filter.Filter{}, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
	}
	return f, nil
}

// parseDate accepts RFC 3339 timestamps and plain dates. A plain upper
// bound covers the whole day.
func parseDate(s string, endOfDay bool) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, errors.New("expected RFC 3339 timestamp or YYYY-MM-DD")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

type searchResultItem struct {
	ID      string          `json:"id"`
	Score   float64         `json:"score"`
	Article articleResponse `json:"article"`
}

type searchResponse struct {
	Query     string             `json:"query,omitempty"`
	ArticleID string             `json:"articleId,omitempty"`
	Results   []searchResultItem `json:"results"`
	Total     int                `json:"total"`
	Limit     int                `json:"limit"`
}

func searchResultsToResponse(results []result.Result) []searchResultItem {
	items := make([]searchResultItem, len(results))
	for i := range results {
		doc := results[i].Document()
		items[i] = searchResultItem{
			ID:      results[i].DocumentID(),
			Score:   result.Round(results[i].Score()),
			Article: articleToResponse(&doc),
		}
	}
	return items
}

// --- Articles ---

type articleRequest struct {
	Source      string     `json:"source"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Content     string     `json:"content,omitempty"`
	Link        string     `json:"link"`
	GUID        string     `json:"guid,omitempty"`
	Author      string     `json:"author,omitempty"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	Categories  []string   `json:"categories,omitempty"`
}

func (a *articleRequest) toRaw() article.Raw {
	raw := article.Raw{
		SourceID:    a.Source,
		Title:       a.Title,
		Description: a.Description,
		Content:     a.Content,
		Link:        a.Link,
		GUID:        a.GUID,
		Author:      a.Author,
		Categories:  a.Categories,
	}
	if a.PublishedAt != nil {
		raw.PubDate = *a.PublishedAt
	}
	return raw
}

type articleResponse struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Link        string    `json:"link"`
	GUID        string    `json:"guid"`
	Author      string    `json:"author,omitempty"`
	PublishedAt time.Time `json:"publishedAt"`
	Categories  []string  `json:"categories"`
	HasVector   bool      `json:"hasVector"`
	CreatedAt   time.Time `json:"createdAt"`
}

func articleToResponse(d *article.Document) articleResponse {
	cats := d.Categories()
	if cats == nil {
		cats = []string{}
	}
	return articleResponse{
		ID:          d.ID(),
		Source:      d.SourceID(),
		Title:       d.Title(),
		Description: d.Description(),
		Link:        d.Link(),
		GUID:        d.GUID(),
		Author:      d.Author(),
		PublishedAt: d.PublishedAt(),
		Categories:  cats,
		HasVector:   d.HasVector(),
		CreatedAt:   d.CreatedAt(),
	}
}

type batchRequest struct {
	Articles []articleRequest `json:"articles"`
}

type ingestResponse struct {
	Status    string           `json:"status"`
	Article   *articleResponse `json:"article,omitempty"`
	Duplicate *verdictResponse `json:"duplicate,omitempty"`
	Error     string           `json:"error,omitempty"`
}

func outcomeToResponse(o doming.Outcome) ingestResponse {
	resp := ingestResponse{Status: string(o.Status())}
	switch o.Status() {
	case doming.StatusStored, doming.StatusStoredWithoutVector:
		a := articleToResponse(o.Document())
		resp.Article = &a
	case doming.StatusDuplicate:
		v := verdictToResponse(o.Verdict())
		resp.Duplicate = &v
	case doming.StatusFailed:
		resp.Error = itemError(o.Err())
	}
	return resp
}

// itemError is the client-safe message for a failed batch item.
func itemError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrInvalidArticle):
		return err.Error()
	case errors.Is(err, domain.ErrIndexUnavailable):
		return domain.ErrIndexUnavailable.Error()
	default:
		return "internal error"
	}
}

type batchResponse struct {
	Items []ingestResponse `json:"items"`
	Stats statsCounters    `json:"stats"`
}

type statsCounters struct {
	TotalItems       int `json:"totalItems"`
	NewItems         int `json:"newItems"`
	Duplicates       int `json:"duplicates"`
	Errors           int `json:"errors"`
	VectorsGenerated int `json:"vectorsGenerated"`
}

func countersFromStats(s *doming.Stats) statsCounters {
	return statsCounters{
		TotalItems:       s.TotalItems,
		NewItems:         s.NewItems,
		Duplicates:       s.Duplicates,
		Errors:           s.Errors,
		VectorsGenerated: s.VectorsGenerated,
	}
}

// --- Duplicates ---

type duplicateRequest struct {
	Title     string  `json:"title"`
	Body      string  `json:"body"`
	GUID      string  `json:"guid,omitempty"`
	Link      string  `json:"link,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
}

type verdictResponse struct {
	IsDuplicate     bool     `json:"isDuplicate"`
	Exact           bool     `json:"exact"`
	MatchedID       string   `json:"matchedId,omitempty"`
	SimilarityScore *float64 `json:"similarityScore,omitempty"`
}

func verdictToResponse(v dedup.Verdict) verdictResponse {
	resp := verdictResponse{
		IsDuplicate: v.IsDuplicate,
		Exact:       v.Exact,
		MatchedID:   v.MatchedDocumentID,
	}
	if v.SimilarityScore != nil {
		score := result.Round(*v.SimilarityScore)
		resp.SimilarityScore = &score
	}
	return resp
}

// --- Ingestion runs ---

type feedRequest struct {
	Source string `json:"source"`
	URL    string `json:"url"`
}

type feedsRequest struct {
	Feeds []feedRequest `json:"feeds"`
	Wait  bool          `json:"wait,omitempty"`
}

func (r *feedsRequest) toFeeds() ([]doming.Feed, error) {
	if len(r.Feeds) == 0 {
		return nil, errors.New("at least one feed is required")
	}
	feeds := make([]doming.Feed, 0, len(r.Feeds))
	for i, f := range r.Feeds {
		u, err := url.Parse(strings.TrimSpace(f.URL))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("feeds[%d]: url must be an absolute http(s) URL", i)
		}
		source := strings.TrimSpace(f.Source)
		if source == "" {
			source = u.Host
		}
		feeds = append(feeds, doming.Feed{SourceID: source, URL: u.String()})
	}
	return feeds, nil
}

type runStatusResponse struct {
	Status           string     `json:"status"`
	StartTime        *time.Time `json:"startTime,omitempty"`
	EndTime          *time.Time `json:"endTime,omitempty"`
	TotalSources     int        `json:"totalSources"`
	ProcessedSources int        `json:"processedSources"`
	statsCounters
	Message string `json:"message,omitempty"`
}

func runStatusToResponse(s *doming.Stats) runStatusResponse {
	resp := runStatusResponse{
		Status:           string(s.Status),
		TotalSources:     s.TotalSources,
		ProcessedSources: s.ProcessedSources,
		statsCounters:    countersFromStats(s),
		Message:          s.Message,
	}
	if !s.StartTime.IsZero() {
		t := s.StartTime
		resp.StartTime = &t
	}
	if !s.EndTime.IsZero() {
		t := s.EndTime
		resp.EndTime = &t
	}
	return resp
}

// --- System ---

type statsResponse struct {
	Total      int            `json:"total"`
	WithVector int            `json:"withVector"`
	BySource   map[string]int `json:"bySource"`
	ByCategory map[string]int `json:"byCategory"`
}

type usageResponse struct {
	Period    string    `json:"period"`
	Start     time.Time `json:"periodStart"`
	ResetsAt  time.Time `json:"resetsAt"`
	Limit     int64     `json:"tokensLimit"`
	Used      int64     `json:"tokensUsed"`
	Remaining int64     `json:"tokensRemaining"`
	Exhausted bool      `json:"isExhausted"`
}

type healthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Tiers   []string          `json:"tiers,omitempty"`
	Vectors int               `json:"vectors"`
	Version string            `json:"version"`
}
