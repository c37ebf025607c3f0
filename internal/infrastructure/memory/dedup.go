package memory

import (
	"context"
	"sync"
)

// ProcessedEventStore tracks fully processed webhook event ids. It is the
// single-process fallback when no Redis address is configured.
type ProcessedEventStore struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

func NewProcessedEventStore() *ProcessedEventStore {
	return &ProcessedEventStore{seen: make(map[string]struct{})}
}

func (s *ProcessedEventStore) Seen(ctx context.Context, eventID string) (bool, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.seen[eventID]
	return ok, nil
}

func (s *ProcessedEventStore) MarkProcessed(ctx context.Context, eventID string) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seen[eventID] = struct{}{}
	return nil
}
