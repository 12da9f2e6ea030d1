package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"credo/internal/credential/metrics"
	id "credo/pkg/domain"
	"credo/pkg/platform/sentinel"
)

const DefaultTTL = 30 * time.Minute

// Session is one viewer's state plus bookkeeping for expiry.
type Session struct {
	ID       id.SessionID
	State    *State
	lastSeen time.Time
}

// InMemoryStore keeps sessions in process and expires idle ones.
type InMemoryStore struct {
	mu       sync.Mutex
	sessions map[id.SessionID]*Session
	ttl      time.Duration
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewInMemoryStore(ttl time.Duration, m *metrics.Metrics) *InMemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &InMemoryStore{
		sessions: make(map[id.SessionID]*Session),
		ttl:      ttl,
		metrics:  m,
		now:      time.Now,
	}
}

func (s *InMemoryStore) Create(_ context.Context) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := &Session{
		ID:       id.SessionID(uuid.New()),
		State:    newState(s.now),
		lastSeen: s.now(),
	}
	s.sessions[sess.ID] = sess
	s.metrics.SetSessionsActive(len(s.sessions))
	return sess
}

// Get returns a live session and refreshes its idle timer.
func (s *InMemoryStore) Get(_ context.Context, sessionID id.SessionID) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
	}
	now := s.now()
	if now.Sub(sess.lastSeen) > s.ttl {
		delete(s.sessions, sessionID)
		s.metrics.SetSessionsActive(len(s.sessions))
		return nil, fmt.Errorf("session expired: %w", sentinel.ErrNotFound)
	}
	sess.lastSeen = now
	return sess, nil
}

func (s *InMemoryStore) Delete(_ context.Context, sessionID id.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
	}
	delete(s.sessions, sessionID)
	s.metrics.SetSessionsActive(len(s.sessions))
	return nil
}

// DeleteExpired removes sessions idle for longer than the TTL.
func (s *InMemoryStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for key, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.ttl {
			delete(s.sessions, key)
			deleted++
		}
	}
	s.metrics.SetSessionsActive(len(s.sessions))
	return deleted, nil
}

func (s *InMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
