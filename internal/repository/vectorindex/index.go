// Package vectorindex stores article embeddings and answers nearest-neighbour
// queries by cosine distance.
package vectorindex

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/kailas-cloud/newsvec/internal/db"
	"github.com/kailas-cloud/newsvec/internal/domain"
)

// Metadata keys written next to each vector.
const (
	MetaTitle       = "title"
	MetaSource      = "source"
	MetaPublishedAt = "published_at"
	MetaLink        = "link"
)

// PublishedAtValue encodes t for the published_at field, which the Redis
// schema declares NUMERIC.
func PublishedAtValue(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}

// Entry is a stored vector with its metadata.
type Entry struct {
	ID       string
	Vector   []float32
	Metadata map[string]string
}

// Neighbor is a query hit. Distance is cosine distance (1 - cos).
type Neighbor struct {
	ID       string
	Distance float64
	Metadata map[string]string
}

func checkDim(dim int, v []float32) error {
	if len(v) != dim {
		return fmt.Errorf("%w: expected %d, got %d", domain.ErrVectorDimMismatch, dim, len(v))
	}
	return nil
}

// sortNeighbors orders by distance, then id, and truncates to k.
func sortNeighbors(ns []Neighbor, k int) []Neighbor {
	sort.SliceStable(ns, func(i, j int) bool {
		if ns[i].Distance != ns[j].Distance {
			return ns[i].Distance < ns[j].Distance
		}
		return ns[i].ID < ns[j].ID
	})
	if len(ns) > k {
		ns = ns[:k]
	}
	return ns
}

// unavailable marks a backend failure as ErrIndexUnavailable, keeping the cause.
func unavailable(op string, err error) error {
	if errors.Is(err, domain.ErrIndexUnavailable) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrIndexUnavailable, err)
}

func isMissing(err error) bool {
	return errors.Is(err, db.ErrKeyNotFound)
}
