// Package rss reads RSS and Atom feeds into raw articles.
package rss

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/kailas-cloud/newsvec/internal/domain/article"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "newsvec/1.0"
)

// blockElements get a trailing space so adjacent blocks do not merge into one word.
const blockElements = "p, br, div, li, ul, ol, h1, h2, h3, h4, h5, h6, tr, td, th, blockquote, pre, hr, figure, figcaption, section, article"

// Config configures the feed reader.
type Config struct {
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Reader fetches feeds over HTTP and normalizes their items.
type Reader struct {
	client    *http.Client
	userAgent string
	logger    *zap.Logger
}

// NewReader creates a feed reader.
func NewReader(cfg *Config) *Reader {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{client: client, userAgent: ua, logger: logger}
}

// Fetch downloads and parses the feed at url. Every item is tagged with sourceID.
func (r *Reader) Fetch(ctx context.Context, url, sourceID string) ([]article.Raw, error) {
	p := gofeed.NewParser()
	p.Client = r.client
	p.UserAgent = r.userAgent

	feed, err := p.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", url, err)
	}

	items := Convert(feed, sourceID)
	r.logger.Debug("Feed parsed",
		zap.String("url", url),
		zap.String("source", sourceID),
		zap.Int("items", len(items)),
	)
	return items, nil
}

// Parse reads a feed document from rd.
func Parse(rd io.Reader, sourceID string) ([]article.Raw, error) {
	feed, err := gofeed.NewParser().Parse(rd)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return Convert(feed, sourceID), nil
}

// Convert maps parsed feed items to raw articles with HTML stripped.
func Convert(feed *gofeed.Feed, sourceID string) []article.Raw {
	out := make([]article.Raw, 0, len(feed.Items))
	for _, it := range feed.Items {
		if it == nil {
			continue
		}
		content := it.Content
		if strings.TrimSpace(content) == "" {
			content = it.Description
		}
		guid := strings.TrimSpace(it.GUID)
		if guid == "" {
			guid = strings.TrimSpace(it.Link)
		}
		out = append(out, article.Raw{
			SourceID:    sourceID,
			Title:       StripHTML(it.Title),
			Description: StripHTML(it.Description),
			Content:     StripHTML(content),
			Link:        strings.TrimSpace(it.Link),
			GUID:        guid,
			Author:      author(feed, it),
			PubDate:     published(it),
			Categories:  it.Categories,
		})
	}
	return out
}

// StripHTML returns the visible text of an HTML fragment with whitespace collapsed.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return article.CollapseWhitespace(s)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return article.CollapseWhitespace(s)
	}
	doc.Find("script, style, noscript").Remove()
	doc.Find(blockElements).Each(func(_ int, sel *goquery.Selection) {
		sel.AfterHtml(" ")
	})
	return article.CollapseWhitespace(doc.Text())
}

func author(feed *gofeed.Feed, it *gofeed.Item) string {
	for _, p := range it.Authors {
		if p != nil && p.Name != "" {
			return p.Name
		}
	}
	if it.DublinCoreExt != nil {
		for _, c := range it.DublinCoreExt.Creator {
			if c != "" {
				return c
			}
		}
	}
	for _, p := range feed.Authors {
		if p != nil && p.Name != "" {
			return p.Name
		}
	}
	return ""
}

// published returns the item date, zero when the feed has none.
func published(it *gofeed.Item) time.Time {
	switch {
	case it.PublishedParsed != nil:
		return it.PublishedParsed.UTC()
	case it.UpdatedParsed != nil:
		return it.UpdatedParsed.UTC()
	default:
		return time.Time{}
	}
}
