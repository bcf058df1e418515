package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/olehkaliuzhnyi/snap-keyring/pkg/models"
)

// MemoryStateStore is an in-memory StateStore. It keeps the encoded form
// so callers never share maps with the stored copy.
type MemoryStateStore struct {
	mu    sync.RWMutex
	state []byte
	saves int
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{}
}

func (s *MemoryStateStore) Load(ctx context.Context) (*models.KeyringState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return nil, nil
	}
	var state models.KeyringState
	if err := json.Unmarshal(s.state, &state); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return &state, nil
}

func (s *MemoryStateStore) Save(ctx context.Context, state *models.KeyringState) error {
	if state == nil {
		return ErrNilState
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = raw
	s.saves++
	return nil
}

// Saves returns how many times Save succeeded.
func (s *MemoryStateStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
