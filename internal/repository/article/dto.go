package article

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	domart "github.com/kailas-cloud/newsvec/internal/domain/article"
)

// jsonDoc is the persisted shape of a document.
type jsonDoc struct {
	ID          string    `json:"id"`
	SourceID    string    `json:"source_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Content     string    `json:"content,omitempty"`
	Link        string    `json:"link"`
	GUID        string    `json:"guid"`
	Author      string    `json:"author,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	Categories  []string  `json:"categories,omitempty"`
	VectorID    string    `json:"vector_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toJSONDoc(d *domart.Document) jsonDoc {
	return jsonDoc{
		ID:          d.ID(),
		SourceID:    d.SourceID(),
		Title:       d.Title(),
		Description: d.Description(),
		Content:     d.Content(),
		Link:        d.Link(),
		GUID:        d.GUID(),
		Author:      d.Author(),
		PublishedAt: d.PublishedAt(),
		Categories:  d.Categories(),
		VectorID:    d.VectorID(),
		CreatedAt:   d.CreatedAt(),
	}
}

func (j jsonDoc) toDomain() domart.Document {
	return domart.Reconstruct(
		j.ID, j.SourceID, j.Title, j.Description, j.Content, j.Link, j.GUID, j.Author,
		j.PublishedAt, j.Categories, j.VectorID, j.CreatedAt,
	)
}

func encodeDocument(d *domart.Document) ([]byte, error) {
	data, err := json.Marshal(toJSONDoc(d))
	if err != nil {
		return nil, fmt.Errorf("marshal document %s: %w", d.ID(), err)
	}
	return data, nil
}

// decodeDocument accepts a bare object or a JSONPath result array ("$").
func decodeDocument(raw []byte) (domart.Document, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var arr []jsonDoc
		if err := json.Unmarshal(raw, &arr); err != nil {
			return domart.Document{}, fmt.Errorf("unmarshal document: %w", err)
		}
		if len(arr) == 0 {
			return domart.Document{}, fmt.Errorf("unmarshal document: empty result")
		}
		return arr[0].toDomain(), nil
	}

	var j jsonDoc
	if err := json.Unmarshal(raw, &j); err != nil {
		return domart.Document{}, fmt.Errorf("unmarshal document: %w", err)
	}
	return j.toDomain(), nil
}

// addToStats accumulates one document into s.
func addToStats(s *domart.Stats, d *domart.Document) {
	s.Total++
	if d.HasVector() {
		s.WithVector++
	}
	if d.SourceID() != "" {
		s.BySource[d.SourceID()]++
	}
	for _, c := range d.Categories() {
		s.ByCategory[c]++
	}
}

func newStats() domart.Stats {
	return domart.Stats{BySource: map[string]int{}, ByCategory: map[string]int{}}
}
