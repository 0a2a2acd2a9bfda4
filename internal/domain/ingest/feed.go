package ingest

// Feed is a source to fetch. SourceID tags every item read from URL.
type Feed struct {
	SourceID string
	URL      string
}
