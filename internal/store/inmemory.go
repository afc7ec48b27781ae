package store

import (
	"context"
	"sync"
	"time"

	"github.com/UniNest/NestGuide/internal/models"
)

// InMemoryStore keeps checkpoints in a map. Used in tests and when no DSN is
// configured; everything is lost on restart.
type InMemoryStore struct {
	mu          sync.RWMutex
	checkpoints map[string]Checkpoint
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{checkpoints: make(map[string]Checkpoint)}
}

func (s *InMemoryStore) SaveCheckpoint(ctx context.Context, userKey string, stage models.Stage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkpoints[userKey] = Checkpoint{UserKey: userKey, Stage: stage, UpdatedAt: time.Now()}
	return nil
}

func (s *InMemoryStore) GetCheckpoint(ctx context.Context, userKey string) (*Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp, ok := s.checkpoints[userKey]
	if !ok {
		return nil, nil
	}
	return &cp, nil
}

func (s *InMemoryStore) DeleteCheckpoint(ctx context.Context, userKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.checkpoints, userKey)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}
