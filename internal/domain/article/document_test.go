package article

import (
	"testing"
	"time"
)

var pub = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestNew_Valid(t *testing.T) {
	d, err := New("a1", "src", "Title", "Desc", "Body", "https://x/1", "", "", pub, []string{"World", " tech ", "world"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.GUID() != "https://x/1" {
		t.Errorf("guid should default to link, got %q", d.GUID())
	}
	if got := d.Categories(); len(got) != 2 || got[0] != "tech" || got[1] != "world" {
		t.Errorf("unexpected categories: %v", got)
	}
	if d.HasVector() {
		t.Error("new document must not have a vector")
	}
	if !d.HasCategory("WORLD") {
		t.Error("category match must be case-insensitive")
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name string
		id   string
		link string
		at   time.Time
	}{
		{"empty id", "", "https://x", pub},
		{"no guid or link", "a1", "", pub},
		{"no date", "a1", "https://x", time.Time{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.id, "s", "t", "", "", tc.link, "", "", tc.at, nil); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestWithVectorID(t *testing.T) {
	d, _ := New("a1", "s", "t", "", "", "https://x", "", "", pub, nil)
	d2 := d.WithVectorID("article-1")
	if d.HasVector() {
		t.Error("original must stay unchanged")
	}
	if d2.VectorID() != "article-1" {
		t.Errorf("unexpected vector id %q", d2.VectorID())
	}
}

func TestEmbeddingText(t *testing.T) {
	tests := []struct {
		title, desc, body, want string
	}{
		{"Title", "Desc", "Body", "Title Desc"},
		{"Title", "", "Body", "Title Body"},
		{"", "Desc", "", "Desc"},
		{"  ", " ", "", ""},
	}
	for _, tc := range tests {
		d := Reconstruct("id", "", tc.title, tc.desc, tc.body, "", "g", "", pub, nil, "", pub)
		if got := d.EmbeddingText(); got != tc.want {
			t.Errorf("EmbeddingText(%q,%q,%q) = %q, want %q", tc.title, tc.desc, tc.body, got, tc.want)
		}
	}
}

func TestRawNormalize(t *testing.T) {
	now := time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC)
	r := Raw{
		Title:   "  Breaking \n news  ",
		Content: "word ",
		Link:    " https://x/2 ",
	}.Normalize(now)

	if r.Title != "Breaking news" {
		t.Errorf("unexpected title %q", r.Title)
	}
	if r.GUID != "https://x/2" {
		t.Errorf("guid should default to trimmed link, got %q", r.GUID)
	}
	if r.Description != "word" {
		t.Errorf("description should fall back to body snippet, got %q", r.Description)
	}
	if !r.PubDate.Equal(now) {
		t.Errorf("pub date should default to now, got %v", r.PubDate)
	}
}

func TestTruncate_Runes(t *testing.T) {
	if got := Truncate("héllo", 2); got != "hé" {
		t.Errorf("got %q", got)
	}
	if got := Truncate("abc", 10); got != "abc" {
		t.Errorf("got %q", got)
	}
}
