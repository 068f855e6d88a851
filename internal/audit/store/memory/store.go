package memory

import (
	"context"
	"slices"
	"sync"

	"kycdesk/internal/audit"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	events map[int64][]audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[int64][]audit.Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.ApplicationID] = append(s.events[event.ApplicationID], event)
	return nil
}

func (s *InMemoryStore) ListByApplication(_ context.Context, applicationID int64) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]audit.Event{}, s.events[applicationID]...)
	slices.SortStableFunc(out, func(a, b audit.Event) int { return a.OccurredAt.Compare(b.OccurredAt) })
	return out, nil
}

// Count returns the total number of stored events.
func (s *InMemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, evs := range s.events {
		n += len(evs)
	}
	return n
}
