package credential

import (
	"context"
	"strings"
	"sync"

	oaerrors "github.com/jrsteele09/oa-client/internal/errors"
)

// InMemoryStore is an in-memory implementation of Store
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[string]string
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates a new in-memory credential store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		entries: make(map[string]string),
	}
}

func (s *InMemoryStore) Get(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.entries[Key]
	if !ok || token == "" {
		return "", oaerrors.ErrNoCredential
	}
	return token, nil
}

func (s *InMemoryStore) Set(_ context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return oaerrors.Wrapf(oaerrors.ErrInvalidInput, "empty token")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[Key] = token
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, Key)
	return nil
}
