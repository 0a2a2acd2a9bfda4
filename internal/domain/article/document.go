package article

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// MaxTitleLength bounds stored titles.
const MaxTitleLength = 1000

// Document is a stored news item (immutable value object).
type Document struct {
	id          string
	sourceID    string
	title       string
	description string
	content     string
	link        string
	guid        string
	author      string
	publishedAt time.Time
	categories  []string
	vectorID    string
	createdAt   time.Time
}

// New validates and creates a Document without a vector.
// GUID defaults to link; at least one of them is required.
func New(
	id, sourceID, title, description, content, link, guid, author string,
	publishedAt time.Time, categories []string,
) (Document, error) {
	if id == "" {
		return Document{}, fmt.Errorf("document ID is required")
	}
	if guid == "" {
		guid = link
	}
	if guid == "" {
		return Document{}, fmt.Errorf("guid or link is required")
	}
	if len(title) > MaxTitleLength {
		return Document{}, fmt.Errorf("title too long (max %d)", MaxTitleLength)
	}
	if publishedAt.IsZero() {
		return Document{}, fmt.Errorf("published date is required")
	}

	return Document{
		id:          id,
		sourceID:    sourceID,
		title:       title,
		description: description,
		content:     content,
		link:        link,
		guid:        guid,
		author:      author,
		publishedAt: publishedAt.UTC(),
		categories:  NormalizeCategories(categories),
		createdAt:   time.Now().UTC(),
	}, nil
}

// Reconstruct creates a Document without validation (storage hydration).
func Reconstruct(
	id, sourceID, title, description, content, link, guid, author string,
	publishedAt time.Time, categories []string, vectorID string, createdAt time.Time,
) Document {
	return Document{
		id: id, sourceID: sourceID, title: title, description: description,
		content: content, link: link, guid: guid, author: author,
		publishedAt: publishedAt, categories: categories,
		vectorID: vectorID, createdAt: createdAt,
	}
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// SourceID returns the feed the document came from.
func (d *Document) SourceID() string { return d.sourceID }

// Title returns the headline.
func (d *Document) Title() string { return d.title }

// Description returns the summary or snippet.
func (d *Document) Description() string { return d.description }

// Content returns the body text.
func (d *Document) Content() string { return d.content }

// Link returns the canonical URL.
func (d *Document) Link() string { return d.link }

// GUID returns the feed-provided unique identifier.
func (d *Document) GUID() string { return d.guid }

// Author returns the author, if any.
func (d *Document) Author() string { return d.author }

// PublishedAt returns the publication instant.
func (d *Document) PublishedAt() time.Time { return d.publishedAt }

// Categories returns the sorted category set.
func (d *Document) Categories() []string { return d.categories }

// VectorID returns the vector index entry id, empty when not embedded.
func (d *Document) VectorID() string { return d.vectorID }

// CreatedAt returns when the document was stored.
func (d *Document) CreatedAt() time.Time { return d.createdAt }

// HasVector reports whether the document has an index entry.
func (d *Document) HasVector() bool { return d.vectorID != "" }

// HasCategory reports whether the document is tagged with category (case-insensitive).
func (d *Document) HasCategory(category string) bool {
	c := strings.ToLower(strings.TrimSpace(category))
	_, found := slices.BinarySearch(d.categories, c)
	return found
}

// WithVectorID returns a copy of the document linked to a vector index entry.
func (d Document) WithVectorID(vectorID string) Document {
	d.vectorID = vectorID
	return d
}

// EmbeddingText is the text embedded for search and deduplication:
// title and description, falling back to the body when there is no description.
func (d *Document) EmbeddingText() string {
	return JoinText(d.title, d.description, d.content)
}

// JoinText builds "title body" from a title and the first non-empty body candidate.
func JoinText(title string, bodies ...string) string {
	body := ""
	for _, b := range bodies {
		if strings.TrimSpace(b) != "" {
			body = b
			break
		}
	}
	return strings.TrimSpace(strings.TrimSpace(title) + " " + strings.TrimSpace(body))
}

// NormalizeCategories lowercases, trims, dedups and sorts category names.
func NormalizeCategories(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, c := range in {
		c = strings.ToLower(strings.TrimSpace(c))
		if c != "" {
			out = append(out, c)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
