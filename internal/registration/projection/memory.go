package projection

import (
	"context"
	"sync"
	"time"

	"clubreg/internal/registration/models"
	id "clubreg/pkg/domain"
)

// InMemory is the default projection store for a single session.
type InMemory struct {
	mu      sync.RWMutex
	entries map[id.RegistrationID]Entry
}

func NewInMemory() *InMemory {
	return &InMemory{entries: make(map[id.RegistrationID]Entry)}
}

func (s *InMemory) Get(_ context.Context, regID id.RegistrationID) (Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[regID]
	if !ok {
		return Entry{}, false, nil
	}
	return cloneEntry(e), true, nil
}

func (s *InMemory) MarkLocallyAhead(_ context.Context, reg *models.Registration) error {
	return s.put(reg, SyncLocallyAhead)
}

func (s *InMemory) MarkConfirmed(_ context.Context, reg *models.Registration) error {
	return s.put(reg, SyncConfirmed)
}

func (s *InMemory) LocallyAhead(_ context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entry
	for _, e := range s.entries {
		if e.SyncState == SyncLocallyAhead {
			out = append(out, cloneEntry(e))
		}
	}
	return out, nil
}

func (s *InMemory) Discard(_ context.Context, regID id.RegistrationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, regID)
	return nil
}

func (s *InMemory) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[id.RegistrationID]Entry)
	return nil
}

func (s *InMemory) put(reg *models.Registration, state SyncState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[reg.ID] = Entry{
		Registration: reg.Clone(),
		SyncState:    state,
		UpdatedAt:    time.Now(),
	}
	return nil
}

func cloneEntry(e Entry) Entry {
	e.Registration = e.Registration.Clone()
	return e
}
