package contentstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"credo/internal/platform/tracer"
)

const (
	DefaultGatewayURL = "https://gateway.pinata.cloud/ipfs"
	DefaultTimeout    = 10 * time.Second
	DefaultMaxBytes   = 1 << 20
)

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// GatewayConfig configures a GatewayFetcher. Zero values select defaults.
type GatewayConfig struct {
	BaseURL    string
	Timeout    time.Duration
	MaxBytes   int64
	HTTPClient HTTPDoer
	Metrics    *Metrics
	Tracer     tracer.Tracer
	Logger     *slog.Logger
}

// GatewayFetcher reads content over GET <base>/<cid>. It never retries;
// a failed fetch is reported and the caller decides whether to re-trigger.
type GatewayFetcher struct {
	baseURL  string
	timeout  time.Duration
	maxBytes int64
	client   HTTPDoer
	metrics  *Metrics
	tracer   tracer.Tracer
	logger   *slog.Logger
}

func NewGatewayFetcher(cfg GatewayConfig) *GatewayFetcher {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGatewayURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Tracer == nil {
		cfg.Tracer = tracer.NewNoop()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &GatewayFetcher{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		timeout:  cfg.Timeout,
		maxBytes: cfg.MaxBytes,
		client:   cfg.HTTPClient,
		metrics:  cfg.Metrics,
		tracer:   cfg.Tracer,
		logger:   cfg.Logger,
	}
}

// URL returns the gateway address for a content identifier.
func (g *GatewayFetcher) URL(contentID string) string {
	return g.baseURL + "/" + contentID
}

// Fetch returns the raw bytes at contentID. The bytes are returned exactly as
// served; an empty body is not an error here.
func (g *GatewayFetcher) Fetch(ctx context.Context, contentID string) (data []byte, err error) {
	start := time.Now()
	ctx, span := g.tracer.Start(ctx, tracer.SpanContentFetch, tracer.String(tracer.AttrCID, contentID))
	defer func() {
		span.End(err)
		if err != nil {
			category := GetCategory(err)
			g.metrics.recordFetchError(category)
			g.metrics.observeFetch("error", time.Since(start).Seconds())
			g.logger.WarnContext(ctx, "content fetch failed",
				"cid", contentID,
				"category", string(category),
				"error", err,
			)
			return
		}
		g.metrics.observeFetch("ok", time.Since(start).Seconds())
		g.metrics.observeBytes(len(data))
	}()

	canonicalID, err := ValidateCID(contentID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.URL(canonicalID), nil)
	if err != nil {
		return nil, NewFetchError(ErrorInternal, contentID, "failed to create request", err)
	}
	req.Header.Set("Accept", "application/json, */*")

	resp, err := g.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, NewFetchError(ErrorTimeout, contentID, "gateway timeout", err)
		}
		return nil, NewFetchError(ErrorUnavailable, contentID, "failed to execute request", err)
	}
	defer resp.Body.Close()
	span.SetAttributes(tracer.Int64(tracer.AttrStatusCode, int64(resp.StatusCode)))

	if fe := classifyStatus(contentID, resp.StatusCode); fe != nil {
		return nil, fe
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, g.maxBytes+1))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, NewFetchError(ErrorTimeout, contentID, "gateway timeout while reading body", err)
		}
		return nil, NewFetchError(ErrorInternal, contentID, "failed to read response", err)
	}
	if int64(len(body)) > g.maxBytes {
		return nil, NewFetchError(ErrorTooLarge, contentID,
			fmt.Sprintf("document exceeds %d bytes", g.maxBytes), nil)
	}
	span.SetAttributes(tracer.Int64(tracer.AttrBytes, int64(len(body))))
	return body, nil
}

func classifyStatus(contentID string, status int) *FetchError {
	var fe *FetchError
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusNotFound || status == http.StatusGone:
		fe = NewFetchError(ErrorNotFound, contentID, "content not found", nil)
	case status == http.StatusTooManyRequests:
		fe = NewFetchError(ErrorRateLimited, contentID, "gateway rate limit exceeded", nil)
	case status >= 500:
		fe = NewFetchError(ErrorUnavailable, contentID, fmt.Sprintf("gateway unavailable: %d", status), nil)
	default:
		fe = NewFetchError(ErrorRejected, contentID, fmt.Sprintf("gateway rejected request: %d", status), nil)
	}
	fe.StatusCode = status
	return fe
}

var _ Fetcher = (*GatewayFetcher)(nil)
