package store

import (
	"context"
	"slices"
	"sync"

	"credo/internal/credential/models"
)

// InMemoryStore keeps the verification log in process memory.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []models.VerificationLogEntry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, entry models.VerificationLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

// List returns matching entries, newest first.
func (s *InMemoryStore) List(_ context.Context, filter models.LogFilter) ([]models.VerificationLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := effectiveLimit(filter)
	out := make([]models.VerificationLogEntry, 0, min(limit, len(s.entries)))
	for _, e := range slices.Backward(s.entries) {
		if !matches(e, filter) {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	slices.SortStableFunc(out, func(a, b models.VerificationLogEntry) int {
		return b.VerifiedAt.Compare(a.VerifiedAt)
	})
	return out, nil
}

func matches(e models.VerificationLogEntry, f models.LogFilter) bool {
	if f.CredentialHash != nil && e.CredentialHash != *f.CredentialHash {
		return false
	}
	if f.Account != "" && e.Account != f.Account {
		return false
	}
	if f.Outcome != "" && e.Outcome != f.Outcome {
		return false
	}
	return true
}
