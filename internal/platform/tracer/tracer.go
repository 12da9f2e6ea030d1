// Package tracer is a small tracing abstraction shared by the verification,
// content and ledger paths.
//
// Callers depend on Tracer and Span only. OTelTracer adapts OpenTelemetry for
// production; NoopTracer is used in tests and when tracing is off.
package tracer

import (
	"context"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span. A non-nil err marks it failed.
	// End must be called exactly once, typically via defer.
	End(err error)

	SetAttributes(attrs ...Attribute)

	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	// Start creates a span; the returned context carries it to child operations.
	//
	// Example:
	//   ctx, span := t.Start(ctx, tracer.SpanContentFetch,
	//       tracer.String(tracer.AttrCID, cid),
	//   )
	//   defer span.End(err)
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute is a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

func Float64(key string, value float64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names.
const (
	SpanVerify         = "credential.verify"
	SpanDisclose       = "credential.disclose"
	SpanVerifyAll      = "credential.verify_all"
	SpanContentFetch   = "content.fetch"
	SpanContentPin     = "content.pin"
	SpanLedgerList     = "ledger.list_credentials"
	SpanLedgerTransact = "ledger.transact"
	SpanExtract        = "document.extract"
)

// Attribute keys.
const (
	AttrCID            = "content.cid"
	AttrCredentialHash = "credential.hash"
	AttrAccount        = "ledger.account"
	AttrOutcome        = "verification.outcome"
	AttrFailure        = "verification.failure"
	AttrScheme         = "hash.scheme"
	AttrCacheHit       = "cache.hit"
	AttrBytes          = "content.bytes"
	AttrStatusCode     = "http.status_code"
	AttrRecordCount    = "ledger.record_count"
	AttrModel          = "llm.model"
	AttrMIMEType       = "document.mime_type"
)

// Event names.
const (
	EventDigestComputed = "digest.computed"
	EventStaleDiscarded = "session.stale_discarded"
)
