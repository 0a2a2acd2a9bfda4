package article

// Stats aggregates stored documents per source and per category.
type Stats struct {
	Total      int
	WithVector int
	BySource   map[string]int
	ByCategory map[string]int
}
