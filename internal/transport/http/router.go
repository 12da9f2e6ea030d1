package httptransport

import (
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	credhandler "credo/internal/credential/handler"
	"credo/internal/extract"
	"credo/internal/issuance"
	"credo/internal/platform/health"
	ratelimit "credo/internal/ratelimit/middleware"
	"credo/internal/ratelimit/models"
	"credo/pkg/platform/middleware/admin"
	"credo/pkg/platform/middleware/auth"
	"credo/pkg/platform/middleware/device"
	"credo/pkg/platform/middleware/metadata"
	"credo/pkg/platform/middleware/request"
	"credo/pkg/platform/middleware/requesttime"
)

// Handlers are the domain handlers mounted by the router.
type Handlers struct {
	Credential *credhandler.Handler
	Issuance   *issuance.Handler
	Extract    *extract.Handler
	Health     *health.Handler
}

// Auth validates issuer tokens on the protected routes.
type Auth struct {
	Validator  auth.JWTValidator
	Revocation auth.TokenRevocationChecker
}

// Options tunes the middleware stack.
type Options struct {
	RequestTimeout time.Duration
	ExtractTimeout time.Duration
	MaxBodyBytes   int64
	TrustedProxies []netip.Prefix
	// AdminToken guards the verification log when set; otherwise the log is public.
	AdminToken  string
	DeviceLabel device.LabelFunc
	Metrics     *request.Metrics
	Gatherer    prometheus.Gatherer
	// RateLimiter applies per-IP budgets by route class; nil disables limiting.
	RateLimiter *ratelimit.Middleware
}

func (o Options) limit(class models.EndpointClass) func(http.Handler) http.Handler {
	if o.RateLimiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return o.RateLimiter.RateLimit(class)
}

// NewRouter wires all endpoints with middleware.
func NewRouter(h Handlers, a Auth, opts Options, logger *slog.Logger) http.Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.ExtractTimeout <= 0 {
		opts.ExtractTimeout = opts.RequestTimeout
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()

	r.Use(request.Recovery(logger))
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.NewMiddleware(&metadata.Config{TrustedProxies: opts.TrustedProxies}).Handler)
	if opts.DeviceLabel != nil {
		r.Use(device.Device(opts.DeviceLabel))
	}
	r.Use(request.Logger(logger))
	if opts.Metrics != nil {
		r.Use(request.LatencyMiddleware(opts.Metrics))
	}
	if opts.MaxBodyBytes > 0 {
		r.Use(request.BodyLimit(opts.MaxBodyBytes))
	}

	if h.Health != nil {
		h.Health.Register(r)
	}
	r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(request.Timeout(opts.RequestTimeout))
		r.Use(request.ContentTypeJSON)

		if h.Credential != nil {
			r.Group(func(r chi.Router) {
				r.Use(opts.limit(models.ClassVerify))
				h.Credential.Register(r)
			})
			r.Group(func(r chi.Router) {
				if opts.AdminToken != "" {
					r.Use(admin.RequireAdminToken(opts.AdminToken, logger))
				}
				h.Credential.RegisterLog(r)
			})
		}

		if h.Issuance != nil {
			r.Group(func(r chi.Router) {
				r.Use(opts.limit(models.ClassVerify))
				h.Issuance.Register(r)
			})
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAuth(a.Validator, a.Revocation, logger))
				r.Use(opts.limit(models.ClassIssue))
				h.Issuance.RegisterProtected(r)
			})
		}
	})

	// Uploads are multipart and wait on the model, so they skip the JSON
	// content-type check and get their own deadline.
	if h.Extract != nil {
		r.Group(func(r chi.Router) {
			r.Use(request.Timeout(opts.ExtractTimeout))
			r.Use(opts.limit(models.ClassExtract))
			h.Extract.Register(r)
		})
	}

	return r
}
