// Package extract classifies an uploaded document and pulls out the fields
// the issuance form is pre-filled with.
package extract

//go:generate mockgen -source=extract.go -destination=mocks/mocks.go -package=mocks Model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"credo/internal/platform/tracer"
)

// Model sends one document plus instructions to a generative model and
// returns the reply text.
type Model interface {
	Generate(ctx context.Context, prompt string, document []byte, mimeType string) (string, error)
	Name() string
}

// DefaultPrompt instructs the model to classify and extract.
const DefaultPrompt = `
You are a strict document classifier and extractor.
Identify document type: Driving License, Birth Certificate, Death Certificate, Marriage Certificate, School Marksheet, Hospital Bill
Extract: documentType, name, year
Return ONLY valid JSON: { "documentType": "", "name": "", "year": "" }
`

// DefaultMIMEType is assumed when the upload does not declare one.
const DefaultMIMEType = "application/pdf"

// Result is what the model found in the document.
type Result struct {
	DocumentType string `json:"documentType" mapstructure:"documentType"`
	Name         string `json:"name" mapstructure:"name"`
	Year         string `json:"year" mapstructure:"year"`
}

// ErrUnparseable means the model replied with something that is not a JSON object.
var ErrUnparseable = errors.New("model reply is not valid JSON")

type Option func(*Service)

func WithPrompt(prompt string) Option {
	return func(s *Service) {
		if strings.TrimSpace(prompt) != "" {
			s.prompt = prompt
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

type Service struct {
	model   Model
	prompt  string
	metrics *Metrics
	tracer  tracer.Tracer
	logger  *slog.Logger
}

func New(model Model, opts ...Option) *Service {
	s := &Service{
		model:  model,
		prompt: DefaultPrompt,
		tracer: tracer.NewNoop(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Configured reports whether a model is available.
func (s *Service) Configured() bool { return s != nil && s.model != nil }

// Extract sends document to the model and parses its reply.
func (s *Service) Extract(ctx context.Context, document []byte, mimeType string) (result Result, err error) {
	if !s.Configured() {
		return Result{}, fmt.Errorf("document extraction is not configured")
	}
	if mimeType == "" {
		mimeType = DefaultMIMEType
	}

	ctx, span := s.tracer.Start(ctx, tracer.SpanExtract,
		tracer.String(tracer.AttrModel, s.model.Name()),
		tracer.String(tracer.AttrMIMEType, mimeType),
		tracer.Int64(tracer.AttrBytes, int64(len(document))),
	)
	defer func() { span.End(err) }()

	start := time.Now()
	reply, err := s.model.Generate(ctx, s.prompt, document, mimeType)
	if err != nil {
		s.metrics.observe("model_error", time.Since(start).Seconds())
		s.logger.ErrorContext(ctx, "document extraction failed", "model", s.model.Name(), "error", err)
		return Result{}, err
	}

	result, err = ParseReply(reply)
	if err != nil {
		s.metrics.observe("parse_error", time.Since(start).Seconds())
		s.logger.WarnContext(ctx, "model reply could not be parsed", "model", s.model.Name(), "error", err)
		return Result{}, err
	}
	s.metrics.observe("ok", time.Since(start).Seconds())
	return result, nil
}

// ParseReply strips Markdown code fences and decodes the JSON object inside.
// Non-string values such as a numeric year are coerced to strings.
func ParseReply(reply string) (Result, error) {
	text := stripFences(reply)

	var raw map[string]any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}

	var out Result
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return Result{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	return out, nil
}

func stripFences(reply string) string {
	text := strings.TrimSpace(reply)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}
