package contentstore

import (
	"context"
	"sync"
)

// MemoryStore is an in-process content store used in development and tests.
// Pin computes a real CIDv1 so addresses look and validate like IPFS ones.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	fetches int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (s *MemoryStore) Pin(_ context.Context, _ string, data []byte) (string, error) {
	contentID, err := ComputeCID(data)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[contentID] = append([]byte(nil), data...)
	return contentID, nil
}

func (s *MemoryStore) Fetch(_ context.Context, contentID string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	data, ok := s.objects[contentID]
	if !ok {
		fe := NewFetchError(ErrorNotFound, contentID, "content not found", nil)
		fe.StatusCode = 404
		return nil, fe
	}
	return append([]byte(nil), data...), nil
}

// Replace overwrites the bytes served at contentID without changing the
// address, simulating a gateway that serves altered content.
func (s *MemoryStore) Replace(contentID string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[contentID] = append([]byte(nil), data...)
}

// FetchCount reports how many Fetch calls the store has served.
func (s *MemoryStore) FetchCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetches
}

var (
	_ Fetcher = (*MemoryStore)(nil)
	_ Pinner  = (*MemoryStore)(nil)
)
