package models

import (
	"strings"
	"time"
)

// EndpointClass groups routes that share a request budget.
type EndpointClass string

const (
	// ClassVerify covers the public verification, disclosure and session routes.
	ClassVerify EndpointClass = "verify"
	// ClassIssue covers the authenticated issuance routes.
	ClassIssue EndpointClass = "issue"
	// ClassExtract covers document uploads sent to the extraction model.
	ClassExtract EndpointClass = "extract"
)

func (c EndpointClass) IsValid() bool {
	switch c {
	case ClassVerify, ClassIssue, ClassExtract:
		return true
	}
	return false
}

type RateLimitResult struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
}

type RateLimitExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}

// NewIPKey builds the bucket key for a client IP within an endpoint class.
// Colons in IPv6 addresses are replaced so the key splits cleanly on ':'.
func NewIPKey(ip string, class EndpointClass) string {
	if ip == "" {
		ip = "unknown"
	}
	return "ratelimit:ip:" + strings.ReplaceAll(ip, ":", "_") + ":" + string(class)
}
