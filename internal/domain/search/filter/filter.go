package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/newsvec/internal/domain/article"
)

// Search parameter defaults and limits.
const (
	DefaultMinSimilarity = 0.5
	DefaultMaxResults    = 10
)

// Filter restricts and sizes a similarity search (immutable value object).
type Filter struct {
	dateFrom      *time.Time
	dateTo        *time.Time
	sourceID      string
	category      string
	minSimilarity float64
	maxResults    int
}

// Params are the raw, optional filter inputs. Nil and zero values take defaults.
type Params struct {
	DateFrom      *time.Time
	DateTo        *time.Time
	SourceID      string
	Category      string
	MinSimilarity *float64
	MaxResults    int
}

// New validates params and applies defaults (minSimilarity 0.5, maxResults 10).
func New(p Params) (Filter, error) {
	f := Filter{
		dateFrom:      p.DateFrom,
		dateTo:        p.DateTo,
		sourceID:      strings.TrimSpace(p.SourceID),
		category:      strings.ToLower(strings.TrimSpace(p.Category)),
		minSimilarity: DefaultMinSimilarity,
		maxResults:    p.MaxResults,
	}

	if p.MinSimilarity != nil {
		if *p.MinSimilarity < 0 || *p.MinSimilarity > 1 {
			return Filter{}, fmt.Errorf("min similarity must be between 0 and 1, got %g", *p.MinSimilarity)
		}
		f.minSimilarity = *p.MinSimilarity
	}
	if f.maxResults == 0 {
		f.maxResults = DefaultMaxResults
	}
	if f.maxResults < 0 {
		return Filter{}, fmt.Errorf("max results must be positive, got %d", f.maxResults)
	}
	if f.dateFrom != nil && f.dateTo != nil && f.dateFrom.After(*f.dateTo) {
		return Filter{}, fmt.Errorf("dateFrom %s is after dateTo %s",
			f.dateFrom.Format(time.RFC3339), f.dateTo.Format(time.RFC3339))
	}

	return f, nil
}

// Default returns a filter with only the defaults applied.
func Default() Filter {
	return Filter{minSimilarity: DefaultMinSimilarity, maxResults: DefaultMaxResults}
}

// DateFrom returns the inclusive lower publication bound.
func (f *Filter) DateFrom() *time.Time { return f.dateFrom }

// DateTo returns the inclusive upper publication bound.
func (f *Filter) DateTo() *time.Time { return f.dateTo }

// SourceID returns the required source, empty for any.
func (f *Filter) SourceID() string { return f.sourceID }

// Category returns the required category, empty for any.
func (f *Filter) Category() string { return f.category }

// MinSimilarity returns the score floor.
func (f *Filter) MinSimilarity() float64 { return f.minSimilarity }

// MaxResults returns the result cap.
func (f *Filter) MaxResults() int { return f.maxResults }

// WithMaxResults returns a copy with a different cap (used to apply boundary limits).
func (f Filter) WithMaxResults(n int) Filter {
	f.maxResults = n
	return f
}

// Matches evaluates the date, source and category predicates.
// Date bounds are inclusive. Each predicate is skipped when unset.
func (f *Filter) Matches(d *article.Document) bool {
	pub := d.PublishedAt()
	if f.dateFrom != nil && pub.Before(*f.dateFrom) {
		return false
	}
	if f.dateTo != nil && pub.After(*f.dateTo) {
		return false
	}
	if f.sourceID != "" && d.SourceID() != f.sourceID {
		return false
	}
	if f.category != "" && !d.HasCategory(f.category) {
		return false
	}
	return true
}
