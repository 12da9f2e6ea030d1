package contentstore

import (
	"context"
	"log/slog"

	"credo/pkg/platform/circuit"
)

// FailoverFetcher reads from a primary gateway and switches to a fallback
// gateway while the primary keeps failing with transient errors. Only
// timeouts, unavailability and rate limiting count against the primary;
// a missing document is not a gateway fault.
type FailoverFetcher struct {
	primary  Fetcher
	fallback Fetcher
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

func NewFailoverFetcher(primary, fallback Fetcher, breaker *circuit.Breaker, logger *slog.Logger) *FailoverFetcher {
	if breaker == nil {
		breaker = circuit.New("content_gateway")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FailoverFetcher{primary: primary, fallback: fallback, breaker: breaker, logger: logger}
}

func (f *FailoverFetcher) Fetch(ctx context.Context, contentID string) ([]byte, error) {
	if !f.breaker.AllowPrimary() {
		return f.fallback.Fetch(ctx, contentID)
	}

	data, err := f.primary.Fetch(ctx, contentID)
	if err == nil {
		if _, change := f.breaker.RecordSuccess(); change.Closed {
			f.logger.InfoContext(ctx, "circuit breaker closed", "circuit", f.breaker.Name())
		}
		return data, nil
	}
	if !IsRetryable(err) {
		return nil, err
	}

	useFallback, change := f.breaker.RecordFailure()
	if change.Opened {
		f.logger.ErrorContext(ctx, "circuit breaker opened",
			"circuit", f.breaker.Name(),
			"error", err,
		)
	}
	if !useFallback {
		return nil, err
	}

	f.logger.WarnContext(ctx, "primary gateway failing, using fallback",
		"cid", contentID,
		"circuit", f.breaker.Name(),
	)
	return f.fallback.Fetch(ctx, contentID)
}

var _ Fetcher = (*FailoverFetcher)(nil)
