package contentstore

import (
	"errors"
	"fmt"
)

// ErrorCategory is the normalized failure taxonomy for content fetches.
type ErrorCategory string

const (
	// ErrorTimeout: the gateway did not answer within the fetch timeout.
	ErrorTimeout ErrorCategory = "timeout"
	// ErrorUnavailable: transport failure or 5xx from the gateway.
	ErrorUnavailable ErrorCategory = "unavailable"
	// ErrorNotFound: the gateway has no content for the address.
	ErrorNotFound ErrorCategory = "not_found"
	// ErrorRateLimited: the gateway returned 429.
	ErrorRateLimited ErrorCategory = "rate_limited"
	// ErrorRejected: any other non-2xx status.
	ErrorRejected ErrorCategory = "rejected"
	// ErrorTooLarge: body exceeds the configured size limit.
	ErrorTooLarge ErrorCategory = "too_large"
	// ErrorInvalidCID: the content address is not a valid CID.
	ErrorInvalidCID ErrorCategory = "invalid_cid"
	// ErrorInternal: request could not be built or the body could not be read.
	ErrorInternal ErrorCategory = "internal"
)

// FetchError wraps a content fetch failure with its category.
type FetchError struct {
	Category   ErrorCategory
	CID        string
	StatusCode int
	Message    string
	Underlying error
	Retryable  bool // set from Category: timeout, unavailable and rate-limited are transient
}

func (e *FetchError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("fetch %s [%s]: %s: %v", e.CID, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("fetch %s [%s]: %s", e.CID, e.Category, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Underlying
}

// NewFetchError builds a FetchError and classifies retryability from the category.
func NewFetchError(category ErrorCategory, cid, message string, underlying error) *FetchError {
	retryable := category == ErrorTimeout ||
		category == ErrorUnavailable ||
		category == ErrorRateLimited

	return &FetchError{
		Category:   category,
		CID:        cid,
		Message:    message,
		Underlying: underlying,
		Retryable:  retryable,
	}
}

// IsRetryable reports whether re-triggering the fetch may succeed.
func IsRetryable(err error) bool {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Retryable
	}
	return false
}

// GetCategory extracts the category from an error, defaulting to ErrorInternal.
func GetCategory(err error) ErrorCategory {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Category
	}
	return ErrorInternal
}

// ErrNotFound is returned by caches on a miss.
var ErrNotFound = errors.New("content not cached")
