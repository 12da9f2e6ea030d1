// Package verifier checks a ledger record against the content stored at its address.
//
// The check is fail-fast on revoked records, never retries a fetch, and turns
// every failure into an outcome. Evaluate is the pure step over fetched bytes.
package verifier

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"time"

	"credo/internal/contentstore"
	"credo/internal/credential/canonical"
	"credo/internal/credential/metrics"
	"credo/internal/credential/models"
	"credo/internal/platform/tracer"
)

// Verifier recomputes record digests from stored content.
type Verifier struct {
	fetcher    contentstore.Fetcher
	serializer canonical.Serializer
	metrics    *metrics.Metrics
	tracer     tracer.Tracer
	logger     *slog.Logger
}

type Option func(*Verifier)

// WithSerializer selects the serialization the issuer hashed with. Defaults to ECMAScript.
func WithSerializer(s canonical.Serializer) Option {
	return func(v *Verifier) { v.serializer = s }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(v *Verifier) { v.metrics = m }
}

func WithTracer(t tracer.Tracer) Option {
	return func(v *Verifier) { v.tracer = t }
}

func WithLogger(l *slog.Logger) Option {
	return func(v *Verifier) { v.logger = l }
}

func New(fetcher contentstore.Fetcher, opts ...Option) *Verifier {
	v := &Verifier{
		fetcher:    fetcher,
		serializer: canonical.ECMAScript,
		tracer:     tracer.NewNoop(),
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Scheme names the serializer in use.
func (v *Verifier) Scheme() string { return v.serializer.Name() }

// Verify checks record against its stored content. It always returns a
// result; failures are reported through Outcome and Failure.
func (v *Verifier) Verify(ctx context.Context, record models.CredentialRecord) models.Verification {
	start := time.Now()
	ctx, span := v.tracer.Start(ctx, tracer.SpanVerify,
		tracer.String(tracer.AttrCredentialHash, record.CredentialHash.Hex()),
		tracer.String(tracer.AttrCID, record.IpfsCID),
		tracer.String(tracer.AttrScheme, v.serializer.Name()),
	)

	result := v.verify(ctx, record)

	span.SetAttributes(
		tracer.String(tracer.AttrOutcome, string(result.Outcome)),
		tracer.String(tracer.AttrFailure, string(result.Failure)),
	)
	span.End(nil)
	v.metrics.ObserveVerification(string(result.Outcome), time.Since(start).Seconds())
	return result
}

func (v *Verifier) verify(ctx context.Context, record models.CredentialRecord) models.Verification {
	if !record.IsValid {
		return newResult(record, v.serializer, models.FailureRevokedRecord, "record is revoked on the ledger", nil)
	}

	body, err := v.fetcher.Fetch(ctx, record.IpfsCID)
	if err != nil {
		v.logger.WarnContext(ctx, "credential content unavailable",
			"credential_hash", record.CredentialHash.Hex(),
			"cid", record.IpfsCID,
			"retryable", contentstore.IsRetryable(err),
			"error", err,
		)
		return newResult(record, v.serializer, models.FailureContentFetch, fetchReason(err), nil)
	}

	result := Evaluate(record, body, v.serializer)
	if result.Failure == models.FailureHashMismatch {
		v.logger.WarnContext(ctx, "credential content does not match anchored hash",
			"credential_hash", record.CredentialHash.Hex(),
			"computed", result.Computed.Hex(),
			"cid", record.IpfsCID,
		)
	}
	return result
}

// Evaluate is the pure part of Verify: given the fetched bytes it parses,
// re-serializes and hashes them and compares against the anchored digest.
// The revocation check is included so Evaluate agrees with Verify for every record.
func Evaluate(record models.CredentialRecord, body []byte, s canonical.Serializer) models.Verification {
	if s == nil {
		s = canonical.ECMAScript
	}
	if !record.IsValid {
		return newResult(record, s, models.FailureRevokedRecord, "record is revoked on the ledger", nil)
	}

	doc, err := canonical.Parse(body)
	if err != nil {
		reason := "stored content is not valid JSON"
		if errors.Is(err, canonical.ErrEmptyDocument) {
			reason = "stored content is empty"
		}
		return newResult(record, s, models.FailureContentParse, reason, nil)
	}

	sum, err := canonical.Digest(s, doc)
	if err != nil {
		return newResult(record, s, models.FailureContentParse, "stored content cannot be serialized", nil)
	}
	computed := models.Digest(sum)

	if !bytes.Equal(computed[:], record.CredentialHash[:]) {
		return newResult(record, s, models.FailureHashMismatch, "recomputed hash differs from the anchored hash", &computed)
	}
	return newResult(record, s, models.FailureNone, "", &computed)
}

func newResult(record models.CredentialRecord, s canonical.Serializer, failure models.Failure, reason string, computed *models.Digest) models.Verification {
	return models.Verification{
		Record:   record,
		Outcome:  failure.Outcome(),
		Failure:  failure,
		Reason:   reason,
		Computed: computed,
		Scheme:   s.Name(),
	}
}

func fetchReason(err error) string {
	switch contentstore.GetCategory(err) {
	case contentstore.ErrorTimeout:
		return "content gateway timed out"
	case contentstore.ErrorNotFound:
		return "content not found at address"
	case contentstore.ErrorRateLimited:
		return "content gateway rate limited the request"
	case contentstore.ErrorUnavailable:
		return "content gateway unavailable"
	case contentstore.ErrorTooLarge:
		return "stored content exceeds size limit"
	case contentstore.ErrorInvalidCID:
		return "record has an invalid content address"
	case contentstore.ErrorRejected:
		return "content gateway rejected the request"
	}
	return "content could not be fetched"
}
