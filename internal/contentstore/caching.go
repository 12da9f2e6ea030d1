package contentstore

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"credo/internal/credential/canonical"
)

// CachingFetcher memoizes documents per content identifier in front of
// another Fetcher. Concurrent fetches of one identifier share a single
// upstream request, which runs detached from any one caller's context so a
// caller that gives up does not fail the others.
//
// Only bodies that parse as a JSON object are cached. Failures and junk
// bodies go back to the caller and the next fetch asks upstream again.
type CachingFetcher struct {
	next    Fetcher
	cache   Cache
	group   singleflight.Group
	timeout time.Duration
	logger  *slog.Logger
}

// CachingOption configures a CachingFetcher.
type CachingOption func(*CachingFetcher)

// WithFetchTimeout bounds the shared upstream fetch. Defaults to DefaultTimeout.
func WithFetchTimeout(d time.Duration) CachingOption {
	return func(f *CachingFetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

func NewCachingFetcher(next Fetcher, cache Cache, logger *slog.Logger, opts ...CachingOption) *CachingFetcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	f := &CachingFetcher{next: next, cache: cache, timeout: DefaultTimeout, logger: logger}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *CachingFetcher) Fetch(ctx context.Context, contentID string) ([]byte, error) {
	data, err := f.cache.Get(ctx, contentID)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, ErrNotFound) {
		f.logger.WarnContext(ctx, "content cache read failed", "cid", contentID, "error", err)
	}

	ch := f.group.DoChan(contentID, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
		defer cancel()
		return f.fetch(fetchCtx, contentID)
	})

	select {
	case <-ctx.Done():
		category := ErrorUnavailable
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			category = ErrorTimeout
		}
		return nil, NewFetchError(category, contentID, "fetch abandoned", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return append([]byte(nil), res.Val.([]byte)...), nil
	}
}

func (f *CachingFetcher) fetch(ctx context.Context, contentID string) ([]byte, error) {
	body, err := f.next.Fetch(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if _, err := canonical.ParseObject(body); err != nil {
		f.logger.WarnContext(ctx, "content not cached", "cid", contentID, "error", err)
		return body, nil
	}
	if err := f.cache.Set(ctx, contentID, body); err != nil {
		f.logger.WarnContext(ctx, "content cache write failed", "cid", contentID, "error", err)
	}
	return body, nil
}

var _ Fetcher = (*CachingFetcher)(nil)
