// Package issuance creates and revokes credentials: it builds the payload,
// pins the exact serialized bytes, anchors their digest on the registry and
// fronts the trust registry and interaction hub contracts.
package issuance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"credo/internal/contentstore"
	"credo/internal/credential/canonical"
	"credo/internal/credential/models"
	"credo/internal/ledger"
	"credo/internal/platform/tracer"
	id "credo/pkg/domain"
	dErrors "credo/pkg/domain-errors"
	pstrings "credo/pkg/platform/strings"
)

// timestampLayout matches ISO-8601 with milliseconds in UTC.
const timestampLayout = "2006-01-02T15:04:05.000Z"

type Service struct {
	pinner     contentstore.Pinner
	writer     ledger.Writer
	trust      ledger.TrustRegistry
	hub        ledger.InteractionHub
	serializer canonical.Serializer
	metrics    *Metrics
	tracer     tracer.Tracer
	logger     *slog.Logger
	now        func() time.Time
}

type Option func(*Service)

// WithSerializer selects how payloads are serialized before pinning and hashing.
// Verifiers must use the same scheme.
func WithSerializer(s canonical.Serializer) Option {
	return func(svc *Service) { svc.serializer = s }
}

func WithTrustRegistry(t ledger.TrustRegistry) Option {
	return func(svc *Service) { svc.trust = t }
}

func WithInteractionHub(h ledger.InteractionHub) Option {
	return func(svc *Service) { svc.hub = h }
}

func WithMetrics(m *Metrics) Option {
	return func(svc *Service) { svc.metrics = m }
}

func WithTracer(t tracer.Tracer) Option {
	return func(svc *Service) { svc.tracer = t }
}

func WithLogger(logger *slog.Logger) Option {
	return func(svc *Service) { svc.logger = logger }
}

func New(pinner contentstore.Pinner, writer ledger.Writer, opts ...Option) (*Service, error) {
	if pinner == nil || writer == nil {
		return nil, fmt.Errorf("pinner and ledger writer are required")
	}
	svc := &Service{
		pinner:     pinner,
		writer:     writer,
		serializer: canonical.ECMAScript,
		tracer:     tracer.NewNoop(),
		logger:     slog.New(slog.DiscardHandler),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Issuer is the account that signs issuance transactions.
func (s *Service) Issuer() id.Account { return s.writer.Issuer() }

// recipientFor returns the holder for a draft. Anything not 0x-prefixed
// falls back to the issuer's own account.
func (s *Service) recipientFor(raw string) (id.Account, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "0x") {
		return s.writer.Issuer(), nil
	}
	return id.ParseAccount(raw)
}

// BuildPayload lays out a credential payload in its fixed member order.
func BuildPayload(d Draft, issuedTo id.Account, at time.Time) *canonical.Object {
	return canonical.NewObject().
		Set("name", d.Name).
		Set("type", d.Type).
		Set("year", d.Year).
		Set(models.FieldIssuedTo, issuedTo.String()).
		Set(models.FieldTimestamp, at.UTC().Format(timestampLayout))
}

// Issue pins the credential content and anchors its digest for the recipient.
func (s *Service) Issue(ctx context.Context, d Draft) (issued *Issued, err error) {
	recipient, err := s.recipientFor(d.Recipient)
	if err != nil {
		return nil, err
	}

	body, err := s.serializer.Serialize(BuildPayload(d, recipient, s.now()))
	if err != nil {
		s.metrics.incFailure("serialize")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to serialize credential")
	}
	digest := models.Digest(canonical.Keccak256(body))

	ctx, span := s.tracer.Start(ctx, tracer.SpanContentPin,
		tracer.String(tracer.AttrCredentialHash, digest.Hex()),
		tracer.Int64(tracer.AttrBytes, int64(len(body))),
	)
	contentID, err := s.pinner.Pin(ctx, pinName(digest), body)
	span.End(err)
	if err != nil {
		s.metrics.incFailure("pin")
		s.logger.ErrorContext(ctx, "failed to pin credential content",
			"credential_hash", digest.Hex(),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to store credential content")
	}

	ctx, span = s.tracer.Start(ctx, tracer.SpanLedgerTransact,
		tracer.String(tracer.AttrCredentialHash, digest.Hex()),
		tracer.String(tracer.AttrCID, contentID),
		tracer.String(tracer.AttrAccount, recipient.String()),
	)
	receipt, err := s.writer.Issue(ctx, recipient, digest, contentID)
	span.End(err)
	if err != nil {
		s.metrics.incFailure("anchor")
		s.logger.ErrorContext(ctx, "failed to anchor credential",
			"credential_hash", digest.Hex(),
			"cid", contentID,
			"error", err,
		)
		return nil, ledger.DomainError(err, "failed to anchor credential on the ledger")
	}

	s.metrics.incIssued()
	s.logger.InfoContext(ctx, "credential issued",
		"credential_hash", digest.Hex(),
		"cid", contentID,
		"issued_to", recipient,
		"tx_hash", receipt.TxHash,
		"scheme", s.serializer.Name(),
	)
	return &Issued{
		CredentialHash: digest,
		IpfsCID:        contentID,
		IssuedTo:       recipient,
		Receipt:        receipt,
		Payload:        body,
	}, nil
}

func pinName(d models.Digest) string {
	return "credential-" + d.Hex()[2:14] + ".json"
}

// Revoke marks a credential invalid. Revoking twice is a conflict.
func (s *Service) Revoke(ctx context.Context, hash models.Digest) (ledger.Receipt, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanLedgerTransact,
		tracer.String(tracer.AttrCredentialHash, hash.Hex()),
	)
	receipt, err := s.writer.Revoke(ctx, hash)
	span.End(err)
	if err != nil {
		s.metrics.incFailure("revoke")
		s.logger.WarnContext(ctx, "failed to revoke credential",
			"credential_hash", hash.Hex(),
			"error", err,
		)
		return ledger.Receipt{}, ledger.DomainError(err, "failed to revoke credential")
	}
	s.metrics.incRevoked()
	return receipt, nil
}

// IsTrusted reports whether account is on the trust registry.
func (s *Service) IsTrusted(ctx context.Context, account id.Account) (bool, error) {
	if s.trust == nil {
		return false, dErrors.New(dErrors.CodeNotConfigured, "trust registry is not configured")
	}
	ok, err := s.trust.IsTrusted(ctx, account)
	if err != nil {
		return false, ledger.DomainError(err, "failed to query trust registry")
	}
	return ok, nil
}

// RequestClaim asks target to disclose fields. Repeated names are dropped;
// no fields means the defaults.
func (s *Service) RequestClaim(ctx context.Context, target id.Account, fields []string, reason string) (ledger.Receipt, error) {
	if s.hub == nil {
		return ledger.Receipt{}, dErrors.New(dErrors.CodeNotConfigured, "interaction hub is not configured")
	}
	fields = pstrings.DedupeAndTrim(fields)
	if len(fields) == 0 {
		fields = ledger.DefaultClaimFields
	}
	receipt, err := s.hub.CreateClaimRequest(ctx, target, fields, reason)
	if err != nil {
		return ledger.Receipt{}, ledger.DomainError(err, "failed to create claim request")
	}
	return receipt, nil
}

// Attest records a free-text attestation about target.
func (s *Service) Attest(ctx context.Context, target id.Account, text string) (ledger.Receipt, error) {
	if s.hub == nil {
		return ledger.Receipt{}, dErrors.New(dErrors.CodeNotConfigured, "interaction hub is not configured")
	}
	receipt, err := s.hub.CreateAttestation(ctx, target, text)
	if err != nil {
		return ledger.Receipt{}, ledger.DomainError(err, "failed to create attestation")
	}
	return receipt, nil
}
