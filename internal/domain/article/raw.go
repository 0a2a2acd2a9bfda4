package article

import (
	"strings"
	"time"
	"unicode/utf8"
)

// SnippetLength bounds the description derived from the body when a feed item has none.
const SnippetLength = 300

// Raw is an inbound feed item before deduplication and storage.
type Raw struct {
	SourceID    string
	Title       string
	Description string
	Content     string
	Link        string
	GUID        string
	Author      string
	PubDate     time.Time
	Categories  []string
}

// Normalize trims text fields, defaults GUID to link, derives a snippet
// from the body when the description is empty and defaults PubDate to now.
// HTML is expected to be stripped by the feed adapter.
func (r Raw) Normalize(now time.Time) Raw {
	r.Title = CollapseWhitespace(r.Title)
	r.Description = CollapseWhitespace(r.Description)
	r.Content = CollapseWhitespace(r.Content)
	r.Link = strings.TrimSpace(r.Link)
	r.GUID = strings.TrimSpace(r.GUID)
	if r.GUID == "" {
		r.GUID = r.Link
	}
	if r.Description == "" && r.Content != "" {
		r.Description = Truncate(r.Content, SnippetLength)
	}
	if r.PubDate.IsZero() {
		r.PubDate = now
	}
	r.Categories = NormalizeCategories(r.Categories)
	return r
}

// EmbeddingText mirrors Document.EmbeddingText for an unsaved item.
func (r *Raw) EmbeddingText() string {
	return JoinText(r.Title, r.Description, r.Content)
}

// CollapseWhitespace replaces every whitespace run with a single space and trims.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
