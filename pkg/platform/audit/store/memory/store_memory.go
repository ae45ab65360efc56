package memory

import (
	"context"
	"sync"

	id "clubreg/pkg/domain"
	audit "clubreg/pkg/platform/audit"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	events map[id.RegistrationID][]audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[id.RegistrationID][]audit.Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.RegistrationID] = append(s.events[event.RegistrationID], event)
	return nil
}

func (s *InMemoryStore) ListByRegistration(_ context.Context, regID id.RegistrationID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events[regID]...), nil
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[id.RegistrationID][]audit.Event)
}
