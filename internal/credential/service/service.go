// Package service coordinates ledger reads, verification, selective
// disclosure and the verification log for the viewer-facing API.
package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Verifier,Discloser,LogStore,EventPublisher

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"credo/internal/credential/device"
	"credo/internal/credential/disclosure"
	"credo/internal/credential/metrics"
	"credo/internal/credential/models"
	"credo/internal/ledger"
	"credo/internal/platform/tracer"
	id "credo/pkg/domain"
	dErrors "credo/pkg/domain-errors"
	"credo/pkg/requestcontext"
)

// Verifier checks one record against its stored content.
type Verifier interface {
	Verify(ctx context.Context, record models.CredentialRecord) models.Verification
}

// Discloser projects one record's content with internal fields removed.
type Discloser interface {
	Disclose(ctx context.Context, record models.CredentialRecord) (disclosure.Disclosure, error)
}

// LogStore persists verification log entries.
// List returns entries newest first.
type LogStore interface {
	Append(ctx context.Context, entry models.VerificationLogEntry) error
	List(ctx context.Context, filter models.LogFilter) ([]models.VerificationLogEntry, error)
}

// EventPublisher emits verification outcomes to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, entry models.VerificationLogEntry) error
}

const defaultConcurrency = 4

type Service struct {
	ledger      ledger.Reader
	verifier    Verifier
	discloser   Discloser
	log         LogStore
	events      EventPublisher
	metrics     *metrics.Metrics
	tracer      tracer.Tracer
	logger      *slog.Logger
	concurrency int
}

type Option func(*Service)

func WithLogStore(store LogStore) Option {
	return func(s *Service) { s.log = store }
}

func WithEvents(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithConcurrency bounds how many records VerifyAll checks at once.
// Values below one keep the default.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func New(reader ledger.Reader, verifier Verifier, discloser Discloser, opts ...Option) *Service {
	s := &Service{
		ledger:      reader,
		verifier:    verifier,
		discloser:   discloser,
		tracer:      tracer.NewNoop(),
		logger:      slog.New(slog.DiscardHandler),
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListCredentials returns the records anchored for account, in ledger order.
func (s *Service) ListCredentials(ctx context.Context, account id.Account) (records []models.CredentialRecord, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanLedgerList, tracer.String(tracer.AttrAccount, account.String()))
	defer func() { span.End(err) }()

	records, err = s.ledger.ListCredentials(ctx, account)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list credentials",
			"account", account,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil, ledger.DomainError(err, "failed to load credentials from the ledger")
	}
	span.SetAttributes(tracer.Int64(tracer.AttrRecordCount, int64(len(records))))
	return records, nil
}

// FindCredential returns the record with the given hash held by account.
func (s *Service) FindCredential(ctx context.Context, account id.Account, hash models.Digest) (models.CredentialRecord, error) {
	records, err := s.ListCredentials(ctx, account)
	if err != nil {
		return models.CredentialRecord{}, err
	}
	if rec, ok := findByHash(records, hash); ok {
		return rec, nil
	}
	return models.CredentialRecord{}, dErrors.New(dErrors.CodeNotFound, "credential not found for account")
}

func findByHash(records []models.CredentialRecord, hash models.Digest) (models.CredentialRecord, bool) {
	for _, r := range records {
		if r.CredentialHash == hash {
			return r, true
		}
	}
	return models.CredentialRecord{}, false
}

// Verify looks up the record and checks it. Lookup failures are errors;
// verification failures are outcomes.
func (s *Service) Verify(ctx context.Context, account id.Account, hash models.Digest) (models.Verification, error) {
	record, err := s.FindCredential(ctx, account, hash)
	if err != nil {
		return models.Verification{}, err
	}
	return s.VerifyRecord(ctx, account, record), nil
}

// VerifyRecord checks an already loaded record and records the outcome.
func (s *Service) VerifyRecord(ctx context.Context, account id.Account, record models.CredentialRecord) models.Verification {
	v := s.verifier.Verify(ctx, record)
	s.record(ctx, account, v)
	return v
}

// VerifyAll checks every record held by account with bounded concurrency.
// Results are in ledger order; one record's failure never affects another.
func (s *Service) VerifyAll(ctx context.Context, account id.Account) (results []models.Verification, err error) {
	records, err := s.ListCredentials(ctx, account)
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, tracer.SpanVerifyAll,
		tracer.String(tracer.AttrAccount, account.String()),
		tracer.Int64(tracer.AttrRecordCount, int64(len(records))),
	)
	defer func() { span.End(err) }()

	results = make([]models.Verification, len(records))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, rec := range records {
		g.Go(func() error {
			results[i] = s.VerifyRecord(ctx, account, rec)
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}

// Disclose looks up the record and projects its content.
func (s *Service) Disclose(ctx context.Context, account id.Account, hash models.Digest) (disclosure.Disclosure, error) {
	record, err := s.FindCredential(ctx, account, hash)
	if err != nil {
		return disclosure.Disclosure{}, err
	}
	return s.DiscloseRecord(ctx, record)
}

// DiscloseRecord projects an already loaded record. Both fetch and parse
// failures surface as unavailable: the content could not be shown.
func (s *Service) DiscloseRecord(ctx context.Context, record models.CredentialRecord) (disclosure.Disclosure, error) {
	d, err := s.discloser.Disclose(ctx, record)
	if err != nil {
		return disclosure.Disclosure{}, dErrors.Wrap(err, dErrors.CodeUnavailable, models.OutcomeFetchFailed.Label())
	}
	return d, nil
}

// ListVerifications reads the verification log.
func (s *Service) ListVerifications(ctx context.Context, filter models.LogFilter) ([]models.VerificationLogEntry, error) {
	if s.log == nil {
		return []models.VerificationLogEntry{}, nil
	}
	entries, err := s.log.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read verification log")
	}
	return entries, nil
}

// EntryResult is what the deep-link entry point resolves to.
type EntryResult struct {
	Account      id.Account
	Records      []models.CredentialRecord
	Verification *models.Verification
}

// Enter resolves a ?user=&hash= deep link: list the holder's records and,
// when hash names one of them, verify it. A malformed or unmatched hash is
// not an error; the listing is returned without a verification. A link with
// no user is an empty entry, as a fresh session is.
func (s *Service) Enter(ctx context.Context, user, hash string) (*EntryResult, error) {
	if user == "" {
		return &EntryResult{}, nil
	}
	account, err := id.ParseAccount(user)
	if err != nil {
		return nil, err
	}
	records, err := s.ListCredentials(ctx, account)
	if err != nil {
		return nil, err
	}
	result := &EntryResult{Account: account, Records: records}
	if hash == "" {
		return result, nil
	}

	digest, err := models.ParseDigest(hash)
	if err != nil {
		s.logger.WarnContext(ctx, "ignoring malformed credential hash in entry link",
			"account", account,
			"hash", hash,
		)
		return result, nil
	}
	record, ok := findByHash(records, digest)
	if !ok {
		s.logger.WarnContext(ctx, "entry link hash matches no credential",
			"account", account,
			"credential_hash", digest.Hex(),
		)
		return result, nil
	}
	v := s.VerifyRecord(ctx, account, record)
	result.Verification = &v
	return result, nil
}

// record writes the verification log entry and publishes the event.
// Neither failure changes the outcome.
func (s *Service) record(ctx context.Context, account id.Account, v models.Verification) {
	label := requestcontext.Device(ctx)
	if label == "" {
		label = device.Label(requestcontext.UserAgent(ctx))
	}
	entry := models.NewVerificationLogEntry(v, account,
		label,
		requestcontext.RequestID(ctx),
		requestcontext.Now(ctx),
	)

	if s.log != nil {
		if err := s.log.Append(ctx, entry); err != nil {
			s.metrics.IncrementLogWriteFailure()
			s.logger.ErrorContext(ctx, "failed to write verification log",
				"credential_hash", entry.CredentialHash.Hex(),
				"outcome", entry.Outcome,
				"error", err,
			)
		}
	}
	if s.events != nil {
		// Detached from request cancellation, bounded by its own timeout.
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.events.Publish(pubCtx, entry); err != nil {
			s.logger.WarnContext(ctx, "failed to publish verification event",
				"credential_hash", entry.CredentialHash.Hex(),
				"error", err,
			)
		}
	}
}
