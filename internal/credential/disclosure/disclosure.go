// Package disclosure projects stored credential payloads into the view shown
// to verifiers: the payload minus its internal fields, in payload order.
package disclosure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"credo/internal/contentstore"
	"credo/internal/credential/canonical"
	"credo/internal/credential/metrics"
	"credo/internal/credential/models"
	"credo/internal/platform/tracer"
)

// Error reports why a disclosure could not be produced.
type Error struct {
	Failure models.Failure
	Cause   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("disclosure failed [%s]: %v", e.Failure, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// FailureOf extracts the failure kind, defaulting to a fetch failure.
func FailureOf(err error) models.Failure {
	var de *Error
	if errors.As(err, &de) {
		return de.Failure
	}
	return models.FailureContentFetch
}

// Disclosure is a successful projection.
type Disclosure struct {
	Record models.CredentialRecord
	Shape  models.Shape
	View   models.DisclosedView
}

// Project parses body, resolves its shape and drops the internal fields.
func Project(body []byte) (models.DisclosedView, models.Shape, error) {
	doc, err := canonical.Parse(body)
	if err != nil {
		return models.DisclosedView{}, models.ShapeFlat, &Error{Failure: models.FailureContentParse, Cause: err}
	}
	payload, err := models.DetectShape(doc)
	if err != nil {
		return models.DisclosedView{}, models.ShapeFlat, &Error{Failure: models.FailureContentParse, Cause: err}
	}
	return models.NewDisclosedView(payload.Fields.Without(models.InternalFields...)), payload.Shape, nil
}

// Projector fetches content and projects it.
type Projector struct {
	fetcher contentstore.Fetcher
	metrics *metrics.Metrics
	tracer  tracer.Tracer
	logger  *slog.Logger
}

type Option func(*Projector)

func WithMetrics(m *metrics.Metrics) Option { return func(p *Projector) { p.metrics = m } }

func WithTracer(t tracer.Tracer) Option { return func(p *Projector) { p.tracer = t } }

func WithLogger(l *slog.Logger) Option { return func(p *Projector) { p.logger = l } }

func New(fetcher contentstore.Fetcher, opts ...Option) *Projector {
	p := &Projector{
		fetcher: fetcher,
		tracer:  tracer.NewNoop(),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Disclose fetches the record's content and projects it. Revocation does not
// hide content; it is reported by verification.
func (p *Projector) Disclose(ctx context.Context, record models.CredentialRecord) (d Disclosure, err error) {
	ctx, span := p.tracer.Start(ctx, tracer.SpanDisclose,
		tracer.String(tracer.AttrCredentialHash, record.CredentialHash.Hex()),
		tracer.String(tracer.AttrCID, record.IpfsCID),
	)
	defer func() {
		span.End(err)
		if err != nil {
			p.metrics.IncrementDisclosure(string(FailureOf(err)))
			p.logger.WarnContext(ctx, "selective disclosure failed",
				"credential_hash", record.CredentialHash.Hex(),
				"cid", record.IpfsCID,
				"error", err,
			)
			return
		}
		p.metrics.IncrementDisclosure("ok")
	}()

	body, err := p.fetcher.Fetch(ctx, record.IpfsCID)
	if err != nil {
		return Disclosure{}, &Error{Failure: models.FailureContentFetch, Cause: err}
	}
	view, shape, err := Project(body)
	if err != nil {
		return Disclosure{}, err
	}
	return Disclosure{Record: record, Shape: shape, View: view}, nil
}
