package config

import (
	"time"

	"credo/internal/ratelimit/models"
)

// Config holds per-IP rate limits by endpoint class.
type Config struct {
	IPLimits map[models.EndpointClass]Limit
}

// Limit defines rate limit parameters for an endpoint class.
type Limit struct {
	RequestsPerWindow int
	Window            time.Duration
}

// DefaultConfig returns the limits used when no overrides are supplied.
func DefaultConfig() *Config {
	return &Config{
		IPLimits: map[models.EndpointClass]Limit{
			models.ClassVerify:  {RequestsPerWindow: 120, Window: time.Minute},
			models.ClassIssue:   {RequestsPerWindow: 30, Window: time.Minute},
			models.ClassExtract: {RequestsPerWindow: 10, Window: time.Minute},
		},
	}
}

// WithPerMinute returns a config whose classes allow the given requests per
// minute. Non-positive values keep the default for that class.
func WithPerMinute(verify, issue, extract int) *Config {
	cfg := DefaultConfig()
	for class, n := range map[models.EndpointClass]int{
		models.ClassVerify:  verify,
		models.ClassIssue:   issue,
		models.ClassExtract: extract,
	} {
		if n > 0 {
			cfg.IPLimits[class] = Limit{RequestsPerWindow: n, Window: time.Minute}
		}
	}
	return cfg
}

// LimitFor returns the limit for a class and whether one is configured.
func (c *Config) LimitFor(class models.EndpointClass) (Limit, bool) {
	l, ok := c.IPLimits[class]
	return l, ok && l.RequestsPerWindow > 0
}
