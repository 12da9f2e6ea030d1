// Package events publishes verification outcomes to the event stream.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"credo/internal/credential/models"
	"credo/internal/platform/kafka/producer"
)

const (
	// DefaultTopic carries one record per verification.
	DefaultTopic = "credential.verifications"

	EventTypeVerification = "credential.verification"
	headerEventType       = "event_type"
	headerOutcome         = "outcome"
	headerRequestID       = "request_id"
)

// VerificationEvent is the wire form of a verification log entry.
type VerificationEvent struct {
	ID             string    `json:"id"`
	EventType      string    `json:"event_type"`
	CredentialHash string    `json:"credential_hash"`
	IpfsCID        string    `json:"ipfs_cid"`
	Account        string    `json:"account,omitempty"`
	Outcome        string    `json:"outcome"`
	Failure        string    `json:"failure,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	Device         string    `json:"device,omitempty"`
	RequestID      string    `json:"request_id,omitempty"`
	VerifiedAt     time.Time `json:"verified_at"`
}

// FromEntry converts a log entry into its event form.
func FromEntry(e models.VerificationLogEntry) VerificationEvent {
	return VerificationEvent{
		ID:             e.ID.String(),
		EventType:      EventTypeVerification,
		CredentialHash: e.CredentialHash.Hex(),
		IpfsCID:        e.IpfsCID,
		Account:        e.Account.String(),
		Outcome:        string(e.Outcome),
		Failure:        string(e.Failure),
		Reason:         e.Reason,
		Device:         e.Device,
		RequestID:      e.RequestID,
		VerifiedAt:     e.VerifiedAt,
	}
}

// Publisher writes verification events keyed by credential hash so that all
// events for one record land on the same partition.
type Publisher struct {
	producer producer.Publisher
	topic    string
	async    bool
	logger   *slog.Logger
}

type Option func(*Publisher)

func WithTopic(topic string) Option {
	return func(p *Publisher) {
		if topic != "" {
			p.topic = topic
		}
	}
}

// WithAsync buffers records in the producer instead of waiting for acks.
func WithAsync() Option {
	return func(p *Publisher) { p.async = true }
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

// NewPublisher wraps prod. A nil producer publishes nothing.
func NewPublisher(prod producer.Publisher, opts ...Option) *Publisher {
	if prod == nil {
		prod = producer.NewNoopProducer()
	}
	p := &Publisher{
		producer: prod,
		topic:    DefaultTopic,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish emits one verification event.
func (p *Publisher) Publish(ctx context.Context, entry models.VerificationLogEntry) error {
	value, err := json.Marshal(FromEntry(entry))
	if err != nil {
		return fmt.Errorf("encode verification event: %w", err)
	}

	headers := map[string]string{
		headerEventType: EventTypeVerification,
		headerOutcome:   string(entry.Outcome),
	}
	if entry.RequestID != "" {
		headers[headerRequestID] = entry.RequestID
	}
	msg := &producer.Message{
		Topic:   p.topic,
		Key:     []byte(entry.CredentialHash.Hex()),
		Value:   value,
		Headers: headers,
	}

	if p.async {
		err = p.producer.ProduceAsync(msg)
	} else {
		err = p.producer.Produce(ctx, msg)
	}
	if err != nil {
		p.logger.WarnContext(ctx, "verification event not published",
			"credential_hash", entry.CredentialHash.Hex(),
			"outcome", entry.Outcome,
			"error", err,
		)
		return fmt.Errorf("publish verification event: %w", err)
	}
	return nil
}
