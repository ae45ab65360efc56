// Package registration provides the record store gateway: typed CRUD over a
// single registration record, keyed by identifier. No retry or fallback
// logic lives here; that belongs to the fallback chain.
package registration

import (
	"context"
	"sync"
	"time"

	"clubreg/internal/registration/models"
	id "clubreg/pkg/domain"
	"clubreg/pkg/platform/sentinel"
)

// InMemory is the development and test store. The privileged path is the
// same as the direct one because there is no access control to bypass.
type InMemory struct {
	mu     sync.RWMutex
	nextID id.RegistrationID
	regs   map[id.RegistrationID]*models.Registration
}

func NewInMemory() *InMemory {
	return &InMemory{nextID: 1, regs: make(map[id.RegistrationID]*models.Registration)}
}

func (s *InMemory) Get(_ context.Context, regID id.RegistrationID) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.regs[regID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return r.Clone(), nil
}

func (s *InMemory) Insert(_ context.Context, r *models.Registration) (*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := r.Clone()
	cp.ID = s.nextID
	s.nextID++
	s.regs[cp.ID] = cp
	return cp.Clone(), nil
}

func (s *InMemory) Update(_ context.Context, regID id.RegistrationID, t models.Transition) (*models.Registration, error) {
	return s.apply(regID, t)
}

func (s *InMemory) PrivilegedUpdate(_ context.Context, regID id.RegistrationID, t models.Transition) (*models.Registration, error) {
	return s.apply(regID, t)
}

func (s *InMemory) UpdateStatus(_ context.Context, regID id.RegistrationID, status models.Status, processed bool) (*models.Registration, error) {
	return s.apply(regID, models.Transition{Status: status, Processed: processed})
}

func (s *InMemory) Delete(_ context.Context, regID id.RegistrationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.regs[regID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.regs, regID)
	return nil
}

// apply holds the lock across validation and mutation so concurrent
// transitions cannot interleave between the invariant check and the write.
func (s *InMemory) apply(regID id.RegistrationID, t models.Transition) (*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.regs[regID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := r.CanApply(t); err != nil {
		return nil, err
	}
	r.Apply(t, time.Now())
	return r.Clone(), nil
}
