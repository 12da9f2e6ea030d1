// Package middleware enforces per-client request budgets on HTTP routes.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"credo/internal/ratelimit/config"
	"credo/internal/ratelimit/models"
	"credo/pkg/platform/httputil"
	"credo/pkg/platform/privacy"
	"credo/pkg/requestcontext"
)

// BucketStore records requests in a sliding window.
type BucketStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)
}

type Middleware struct {
	store    BucketStore
	cfg      *config.Config
	logger   *slog.Logger
	rejected *prometheus.CounterVec
}

// New builds the middleware. A nil registerer skips metric registration.
func New(store BucketStore, cfg *config.Config, reg prometheus.Registerer, logger *slog.Logger) *Middleware {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "credo_ratelimit_rejected_total",
		Help: "Requests rejected by the per-IP rate limiter",
	}, []string{"class"})
	if reg != nil {
		reg.MustRegister(rejected)
	}
	return &Middleware{
		store:    store,
		cfg:      cfg,
		logger:   logger,
		rejected: rejected,
	}
}

// RateLimit limits requests per client IP for the class. Store errors let the
// request through.
func (m *Middleware) RateLimit(class models.EndpointClass) func(http.Handler) http.Handler {
	limit, ok := m.cfg.LimitFor(class)
	return func(next http.Handler) http.Handler {
		if !ok {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := requestcontext.ClientIP(ctx)

			result, err := m.store.Allow(ctx, models.NewIPKey(ip, class), limit.RequestsPerWindow, limit.Window)
			if err != nil {
				m.logger.ErrorContext(ctx, "failed to check IP rate limit",
					"error", err,
					"class", class,
					"ip_prefix", privacy.AnonymizeIP(ip),
				)
				next.ServeHTTP(w, r)
				return
			}

			addRateLimitHeaders(w, result)

			if !result.Allowed {
				m.rejected.WithLabelValues(string(class)).Inc()
				m.logger.WarnContext(ctx, "rate limit exceeded",
					"class", class,
					"ip_prefix", privacy.AnonymizeIP(ip),
				)
				writeRateLimitExceeded(w, result)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.RateLimitResult) {
	if result == nil {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.RateLimitResult) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.RateLimitExceededResponse{
		Error:      "rate_limit_exceeded",
		Message:    "Too many requests from this IP address. Please try again later.",
		RetryAfter: result.RetryAfter,
	})
}
