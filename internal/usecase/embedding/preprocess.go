package embedding

import "github.com/kailas-cloud/newsvec/internal/domain/article"

// DefaultMaxInputChars bounds the text handed to any tier.
const DefaultMaxInputChars = 512

// Preprocess collapses whitespace runs, trims, and truncates to maxChars runes.
func Preprocess(text string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxInputChars
	}
	return article.Truncate(article.CollapseWhitespace(text), maxChars)
}
