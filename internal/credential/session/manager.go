package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"credo/internal/credential/disclosure"
	"credo/internal/credential/metrics"
	"credo/internal/credential/models"
	id "credo/pkg/domain"
	dErrors "credo/pkg/domain-errors"
	"credo/pkg/platform/sentinel"
)

// Credentials is the slice of the credential service a session drives.
type Credentials interface {
	ListCredentials(ctx context.Context, account id.Account) ([]models.CredentialRecord, error)
	VerifyRecord(ctx context.Context, account id.Account, record models.CredentialRecord) models.Verification
	DiscloseRecord(ctx context.Context, record models.CredentialRecord) (disclosure.Disclosure, error)
}

// Manager runs credential operations against a session's state.
type Manager struct {
	store       *InMemoryStore
	credentials Credentials
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

type Option func(*Manager)

func WithMetrics(m *metrics.Metrics) Option {
	return func(mgr *Manager) { mgr.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(mgr *Manager) {
		if logger != nil {
			mgr.logger = logger
		}
	}
}

func NewManager(store *InMemoryStore, credentials Credentials, opts ...Option) *Manager {
	m := &Manager{
		store:       store,
		credentials: credentials,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create opens a session. With a user it loads that account and, when hash
// names one of its records, verifies it straight away.
func (m *Manager) Create(ctx context.Context, user, hash string) (id.SessionID, Snapshot, error) {
	var account id.Account
	if user != "" {
		var err error
		if account, err = id.ParseAccount(user); err != nil {
			return id.SessionID{}, Snapshot{}, err
		}
	}

	sess := m.store.Create(ctx)
	if account == "" {
		return sess.ID, sess.State.Snapshot(), nil
	}
	snap, err := m.load(ctx, sess, account, hash)
	return sess.ID, snap, err
}

// Get returns the current state of a session.
func (m *Manager) Get(ctx context.Context, sessionID id.SessionID) (Snapshot, error) {
	sess, err := m.session(ctx, sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	return sess.State.Snapshot(), nil
}

// SetAddress switches the session to another account.
func (m *Manager) SetAddress(ctx context.Context, sessionID id.SessionID, user, hash string) (Snapshot, error) {
	account, err := id.ParseAccount(user)
	if err != nil {
		return Snapshot{}, err
	}
	sess, err := m.session(ctx, sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	return m.load(ctx, sess, account, hash)
}

func (m *Manager) load(ctx context.Context, sess *Session, account id.Account, hash string) (Snapshot, error) {
	tok := sess.State.Begin(account)
	records, err := m.credentials.ListCredentials(ctx, account)
	if err != nil {
		sess.State.FailRecords(tok)
		return sess.State.Snapshot(), err
	}
	if !sess.State.ApplyRecords(tok, records) {
		m.stale(ctx, sess.ID, "list")
		return sess.State.Snapshot(), nil
	}

	if hash != "" {
		index := indexOf(records, hash)
		if index < 0 {
			m.logger.WarnContext(ctx, "session target hash matches no credential",
				"session_id", sess.ID,
				"account", account,
			)
			return sess.State.Snapshot(), nil
		}
		m.verify(ctx, sess, index)
	}
	return sess.State.Snapshot(), nil
}

func indexOf(records []models.CredentialRecord, hash string) int {
	digest, err := models.ParseDigest(hash)
	if err != nil {
		return -1
	}
	for i, r := range records {
		if r.CredentialHash == digest {
			return i
		}
	}
	return -1
}

// Verify checks the record at index.
func (m *Manager) Verify(ctx context.Context, sessionID id.SessionID, index int) (Snapshot, error) {
	sess, err := m.session(ctx, sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	if err := m.verify(ctx, sess, index); err != nil {
		return Snapshot{}, err
	}
	return sess.State.Snapshot(), nil
}

func (m *Manager) verify(ctx context.Context, sess *Session, index int) error {
	record, account, tok, err := sess.State.BeginVerify(index)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeNotFound, "credential not found in session")
	}
	v := m.credentials.VerifyRecord(ctx, account, record)
	if !sess.State.ApplyVerification(tok, v) {
		m.stale(ctx, sess.ID, "verify")
	}
	return nil
}

// Disclose projects the record at index. On failure the previous
// disclosure stays in place and the error is returned.
func (m *Manager) Disclose(ctx context.Context, sessionID id.SessionID, index int) (Snapshot, error) {
	sess, err := m.session(ctx, sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	record, tok, err := sess.State.BeginDisclose(index)
	if err != nil {
		return Snapshot{}, dErrors.Wrap(err, dErrors.CodeNotFound, "credential not found in session")
	}
	d, err := m.credentials.DiscloseRecord(ctx, record)
	if err != nil {
		return sess.State.Snapshot(), err
	}
	if !sess.State.ApplyDisclosure(tok, d) {
		m.stale(ctx, sess.ID, "disclose")
	}
	return sess.State.Snapshot(), nil
}

// Close ends a session. Results still in flight for it are discarded.
func (m *Manager) Close(ctx context.Context, sessionID id.SessionID) error {
	err := m.store.Delete(ctx, sessionID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeNotFound, "session not found")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to close session")
	}
	return nil
}

func (m *Manager) session(ctx context.Context, sessionID id.SessionID) (*Session, error) {
	sess, err := m.store.Get(ctx, sessionID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "session not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
	}
	return sess, nil
}

func (m *Manager) stale(ctx context.Context, sessionID id.SessionID, op string) {
	m.metrics.IncrementStaleDiscarded(op)
	m.logger.DebugContext(ctx, "discarded stale session result",
		"session_id", sessionID,
		"operation", op,
	)
}

// StartSweeper evicts idle sessions every interval until ctx is cancelled.
func (m *Manager) StartSweeper(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n, _ := m.store.DeleteExpired(ctx, time.Now())
			if n > 0 {
				m.logger.InfoContext(ctx, "expired verification sessions", "count", n)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
