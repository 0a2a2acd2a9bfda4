// Package article persists news documents and resolves them by id, vector id,
// guid and link.
package article

import (
	"context"
	"crypto/sha1" //nolint:gosec // key derivation, not security
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/newsvec/internal/db"
	"github.com/kailas-cloud/newsvec/internal/domain"
	domart "github.com/kailas-cloud/newsvec/internal/domain/article"
)

var (
	docPrefix  = domain.KeyPrefix + "doc:"
	guidPrefix = domain.KeyPrefix + "guid:"
	linkPrefix = domain.KeyPrefix + "link:"
	vidPrefix  = domain.KeyPrefix + "vid:"
)

// redisStore is the consumer interface for documents (ISP).
type redisStore interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	JSONMGet(ctx context.Context, keys []string, path string) ([][]byte, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetNX(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, keys ...string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// RedisRepo stores documents as RedisJSON values with lookup keys
// for guid, link and vector id.
type RedisRepo struct {
	store  redisStore
	logger *zap.Logger
}

// NewRedis creates a Redis-backed document repository.
func NewRedis(s redisStore, logger *zap.Logger) *RedisRepo {
	return &RedisRepo{store: s, logger: logger}
}

// Insert stores a new document. The guid key is claimed with SET NX, so of two
// concurrent inserts with the same guid exactly one succeeds; the other gets
// domain.ErrAlreadyExists.
func (r *RedisRepo) Insert(ctx context.Context, doc *domart.Document) error {
	data, err := encodeDocument(doc)
	if err != nil {
		return err
	}

	gk := guidKey(doc.GUID())
	if err := r.store.SetNX(ctx, gk, []byte(doc.ID())); err != nil {
		if errors.Is(err, db.ErrKeyExists) {
			return fmt.Errorf("guid %q: %w", doc.GUID(), domain.ErrAlreadyExists)
		}
		return fmt.Errorf("claim guid %s: %w", gk, err)
	}

	if err := r.store.JSONSet(ctx, docKey(doc.ID()), "$", data); err != nil {
		r.release(ctx, gk)
		return fmt.Errorf("json.set %s: %w", docKey(doc.ID()), err)
	}
	// Keys to undo if a lookup write fails, so a retry is not an exact duplicate.
	written := []string{gk, docKey(doc.ID())}

	// First writer keeps the link lookup.
	if doc.Link() != "" {
		lk := linkKey(doc.Link())
		switch err := r.store.SetNX(ctx, lk, []byte(doc.ID())); {
		case err == nil:
			written = append(written, lk)
		case !errors.Is(err, db.ErrKeyExists):
			r.release(ctx, written...)
			return fmt.Errorf("claim link: %w", err)
		}
	}

	if doc.HasVector() {
		if err := r.store.Set(ctx, vidKey(doc.VectorID()), []byte(doc.ID())); err != nil {
			r.release(ctx, written...)
			return fmt.Errorf("set vector id %s: %w", doc.VectorID(), err)
		}
	}
	return nil
}

// FindByID returns a document or domain.ErrDocumentNotFound.
func (r *RedisRepo) FindByID(ctx context.Context, id string) (domart.Document, error) {
	raw, err := r.store.JSONGet(ctx, docKey(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domart.Document{}, fmt.Errorf("document %s: %w", id, domain.ErrDocumentNotFound)
		}
		return domart.Document{}, fmt.Errorf("json.get %s: %w", docKey(id), err)
	}
	return decodeDocument(raw)
}

// FindByVectorIDs resolves vector ids to documents. Unknown ids are skipped.
func (r *RedisRepo) FindByVectorIDs(ctx context.Context, vectorIDs []string) (map[string]domart.Document, error) {
	out := make(map[string]domart.Document, len(vectorIDs))

	docIDs := make([]string, 0, len(vectorIDs))
	owners := make([]string, 0, len(vectorIDs))
	for _, vid := range vectorIDs {
		raw, err := r.store.Get(ctx, vidKey(vid))
		if err != nil {
			if errors.Is(err, db.ErrKeyNotFound) {
				continue
			}
			return nil, fmt.Errorf("resolve vector id %s: %w", vid, err)
		}
		docIDs = append(docIDs, docKey(string(raw)))
		owners = append(owners, vid)
	}
	if len(docIDs) == 0 {
		return out, nil
	}

	raws, err := r.store.JSONMGet(ctx, docIDs, "$")
	if err != nil {
		return nil, fmt.Errorf("json.mget: %w", err)
	}
	for i, raw := range raws {
		if raw == nil || i >= len(owners) {
			continue
		}
		doc, err := decodeDocument(raw)
		if err != nil {
			r.logger.Warn("Skipping undecodable document",
				zap.String("key", docIDs[i]), zap.Error(err))
			continue
		}
		out[owners[i]] = doc
	}
	return out, nil
}

// ExactMatch returns the document whose guid or link equals the given one,
// or nil. Empty arguments never match.
func (r *RedisRepo) ExactMatch(ctx context.Context, guid, link string) (*domart.Document, error) {
	var keys []string
	if guid != "" {
		keys = append(keys, guidKey(guid))
	}
	if link != "" {
		keys = append(keys, linkKey(link))
	}

	for _, k := range keys {
		raw, err := r.store.Get(ctx, k)
		if err != nil {
			if errors.Is(err, db.ErrKeyNotFound) {
				continue
			}
			return nil, fmt.Errorf("get %s: %w", k, err)
		}
		doc, err := r.FindByID(ctx, string(raw))
		if err != nil {
			if errors.Is(err, domain.ErrDocumentNotFound) {
				continue
			}
			return nil, err
		}
		return &doc, nil
	}
	return nil, nil
}

// Stats counts documents per source and category.
func (r *RedisRepo) Stats(ctx context.Context) (domart.Stats, error) {
	keys, err := r.store.Scan(ctx, docPrefix+"*")
	if err != nil {
		return domart.Stats{}, fmt.Errorf("scan documents: %w", err)
	}

	stats := newStats()
	const batch = 100
	for start := 0; start < len(keys); start += batch {
		end := min(start+batch, len(keys))
		raws, err := r.store.JSONMGet(ctx, keys[start:end], "$")
		if err != nil {
			return domart.Stats{}, fmt.Errorf("json.mget: %w", err)
		}
		for _, raw := range raws {
			if raw == nil {
				continue
			}
			doc, err := decodeDocument(raw)
			if err != nil {
				continue
			}
			addToStats(&stats, &doc)
		}
	}
	return stats, nil
}

func (r *RedisRepo) release(ctx context.Context, keys ...string) {
	if err := r.store.Del(context.WithoutCancel(ctx), keys...); err != nil {
		r.logger.Warn("Failed to release keys", zap.Strings("keys", keys), zap.Error(err))
	}
}

func docKey(id string) string { return docPrefix + id }

func vidKey(vectorID string) string { return vidPrefix + vectorID }

func guidKey(guid string) string { return guidPrefix + digest(guid) }

func linkKey(link string) string { return linkPrefix + digest(link) }

func digest(s string) string {
	sum := sha1.Sum([]byte(strings.TrimSpace(s))) //nolint:gosec // key derivation
	return hex.EncodeToString(sum[:])
}
