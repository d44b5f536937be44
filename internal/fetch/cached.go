package fetch

import (
	"context"
	"strings"

	"github.com/mcncl/editrack/internal/errors"
	"github.com/mcncl/editrack/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CachedFetcher serves responses from a Cache and lets only one request per
// document ID reach the underlying Fetcher at a time. Failed fetches are
// never cached.
type CachedFetcher struct {
	next   Fetcher
	cache  Cache
	group  singleflight.Group
	logger *zap.Logger
}

// NewCachedFetcher wraps next with cache.
func NewCachedFetcher(next Fetcher, cache Cache, logger *zap.Logger) *CachedFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedFetcher{next: next, cache: cache, logger: logger}
}

// Track returns the cached response for documentID or fetches it.
func (f *CachedFetcher) Track(ctx context.Context, documentID string) (models.Value, error) {
	id := strings.TrimSpace(documentID)
	if id == "" {
		return nil, errors.NewInputError("document ID is required", errors.ErrNoDocumentID)
	}

	if value, ok := f.cache.Get(id); ok {
		f.logger.Debug("cache hit", zap.String("document_id", id))
		return value, nil
	}
	f.logger.Debug("cache miss", zap.String("document_id", id))

	// The shared fetch outlives any one caller's cancellation; the client's
	// per-request timeout still bounds it.
	ch := f.group.DoChan(id, func() (any, error) {
		value, err := f.next.Track(context.WithoutCancel(ctx), id)
		if err != nil {
			return nil, err
		}
		f.cache.Put(id, value)
		return value, nil
	})

	select {
	case <-ctx.Done():
		return nil, errors.NewFetchError("document "+id, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			f.logger.Debug("shared in-flight fetch", zap.String("document_id", id))
		}
		value, _ := res.Val.(models.Value)
		return value, nil
	}
}
