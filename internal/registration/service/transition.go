package service

import (
	"context"
	"errors"

	"clubreg/internal/payment"
	"clubreg/internal/registration/fallback"
	"clubreg/internal/registration/models"
	"clubreg/internal/registration/projection"
	id "clubreg/pkg/domain"
	dErrors "clubreg/pkg/domain-errors"
	"clubreg/pkg/platform/audit"
	"clubreg/pkg/platform/sentinel"
	"clubreg/pkg/requestcontext"
)

// TransitionResult is what the orchestrator hands back to callers: the
// user-visible record plus whether the backend has confirmed it.
type TransitionResult struct {
	Registration *models.Registration
	SyncState    projection.SyncState
	// Strategy names the fallback strategy that persisted the write; empty
	// when nothing was persisted.
	Strategy string
}

// RequestTransition drives a registration to the target state.
//
// The optimistic projection is advanced first, then the fallback chain runs.
// When the chain is exhausted the caller still gets the target state back:
// administrator decisions are low-stakes and already communicated to the
// user, so a write error at this point would cost more usability than the
// rare inconsistency. The record stays locally-ahead and the background
// sweep keeps retrying; this is never a silent permanent divergence.
//
// Hard failures are limited to validation-class errors and unknown IDs.
func (s *Service) RequestTransition(ctx context.Context, regID id.RegistrationID, t models.Transition) (*TransitionResult, error) {
	ctx, span := s.tracer.Start(ctx, "registration.RequestTransition")
	defer span.End()

	last, err := s.store.Get(ctx, regID)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.Newf(dErrors.CodeNotFound, "registration %d not found", regID)
	case err != nil:
		// The store is unreachable; fall back to the projection's last
		// known view so the user-facing flip still happens.
		last = s.lastKnown(ctx, regID)
	}

	if err := last.CanApply(t); err != nil {
		return nil, err
	}

	optimistic := last.Clone()
	optimistic.Apply(t, requestcontext.Now(ctx))
	if err := s.projection.MarkLocallyAhead(ctx, optimistic); err != nil {
		s.logger.WarnContext(ctx, "projection update failed", "registration_id", regID, "error", err)
	}

	result := s.chain.Apply(ctx, regID, t)
	if result.Succeeded() {
		return s.confirmed(ctx, result, t)
	}

	if dErrors.HasCode(result.Err, dErrors.CodeValidation) || dErrors.HasCode(result.Err, dErrors.CodeInvariantViolation) {
		s.observeTransition("rejected")
		return nil, result.Err
	}
	if errors.Is(result.Err, sentinel.ErrNotFound) {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "registration %d not found", regID)
	}

	// Every strategy failed or the store is away. The user keeps the state
	// they were shown; the sweep owns convergence from here.
	s.logger.ErrorContext(ctx, "write fallback chain failed, keeping optimistic state",
		"registration_id", regID,
		"target_status", t.Status,
		"attempts", len(result.Attempts),
		"error", result.Err,
	)
	s.emit(ctx, audit.Event{
		Action:         audit.EventSyncDegraded,
		RegistrationID: regID,
		Status:         string(t.Status),
		Reason:         result.Err.Error(),
	})
	s.observeTransition("degraded")
	s.refreshAheadGauge(ctx)

	return &TransitionResult{Registration: optimistic, SyncState: projection.SyncLocallyAhead}, nil
}

// confirmed folds a successful chain result back into the projection.
func (s *Service) confirmed(ctx context.Context, result fallback.Result, t models.Transition) (*TransitionResult, error) {
	if err := s.projection.MarkConfirmed(ctx, result.Registration); err != nil {
		s.logger.WarnContext(ctx, "projection confirm failed", "registration_id", result.Registration.ID, "error", err)
	}
	s.observeTransition("persisted")
	s.observeStrategy(result.Strategy)
	s.emitDecision(ctx, result.Registration.ID, t)
	return &TransitionResult{
		Registration: result.Registration,
		SyncState:    projection.SyncConfirmed,
		Strategy:     result.Strategy,
	}, nil
}

func (s *Service) emitDecision(ctx context.Context, regID id.RegistrationID, t models.Transition) {
	switch {
	case t.Processed:
		// member_created is emitted by the conversion path.
	case t.Status == models.StatusAccepted:
		s.emit(ctx, audit.Event{Action: audit.EventAccepted, RegistrationID: regID, Status: string(t.Status)})
	case t.Status == models.StatusRejected:
		s.emit(ctx, audit.Event{Action: audit.EventRejected, RegistrationID: regID, Status: string(t.Status)})
	case t.Status == models.StatusPending:
		s.emit(ctx, audit.Event{Action: audit.EventMarkedPending, RegistrationID: regID, Status: string(t.Status)})
	}
}

// lastKnown returns the projection's view when the store cannot answer, or
// a minimal record as a last resort.
func (s *Service) lastKnown(ctx context.Context, regID id.RegistrationID) *models.Registration {
	if entry, ok, err := s.projection.Get(ctx, regID); err == nil && ok {
		return entry.Registration
	}
	return &models.Registration{ID: regID, Status: models.StatusPending}
}

// Submit is the create path: persist a fresh pending registration and open a
// checkout session for it. Unlike status flips, submission must reach the
// store; there is no meaningful optimistic fallback for a record with no ID.
func (s *Service) Submit(ctx context.Context, firstName, lastName, email, category string, amountCents int64) (*models.Registration, *payment.Session, error) {
	ctx, span := s.tracer.Start(ctx, "registration.Submit")
	defer span.End()

	r, err := models.NewSubmission(firstName, lastName, email, category, requestcontext.Now(ctx))
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid submission")
	}

	stored, err := s.store.Insert(ctx, r)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to create registration")
	}

	if err := s.projection.MarkConfirmed(ctx, stored); err != nil {
		s.logger.WarnContext(ctx, "projection update failed", "registration_id", stored.ID, "error", err)
	}
	s.emit(ctx, audit.Event{Action: audit.EventSubmitted, RegistrationID: stored.ID})

	session, err := s.verifier.CreateSession(ctx, amountCents, map[string]string{
		"registration_id": stored.ID.String(),
		"email":           stored.Email,
	})
	if err != nil {
		// The registration exists; the user can retry checkout later.
		s.logger.ErrorContext(ctx, "checkout session creation failed", "registration_id", stored.ID, "error", err)
		return stored, nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to open checkout session")
	}
	return stored, session, nil
}

// Get returns the user-visible view of a registration. A successful read is
// also the opportunistic trigger for reconciling a locally-ahead entry, so a
// recovered backend converges without waiting for the next sweep.
func (s *Service) Get(ctx context.Context, regID id.RegistrationID) (*TransitionResult, error) {
	persisted, err := s.store.Get(ctx, regID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "registration %d not found", regID)
		}
		// Store down: serve the projection if it has anything.
		if entry, ok, perr := s.projection.Get(ctx, regID); perr == nil && ok {
			return &TransitionResult{Registration: entry.Registration, SyncState: entry.SyncState}, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "registration store unavailable")
	}

	entry, ok, err := s.projection.Get(ctx, regID)
	if err == nil && ok && entry.SyncState == projection.SyncLocallyAhead {
		if res := s.reconcileOne(ctx, entry); res != nil {
			return res, nil
		}
		return &TransitionResult{Registration: entry.Registration, SyncState: projection.SyncLocallyAhead}, nil
	}
	return &TransitionResult{Registration: persisted, SyncState: projection.SyncConfirmed}, nil
}

// Delete removes a registration on explicit administrator command. This is
// irreversible and never optimistic: a delete that did not reach the store
// did not happen.
func (s *Service) Delete(ctx context.Context, regID id.RegistrationID) error {
	if err := s.store.Delete(ctx, regID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeNotFound, "registration %d not found", regID)
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "delete failed")
	}
	if err := s.projection.Discard(ctx, regID); err != nil {
		s.logger.WarnContext(ctx, "projection discard failed", "registration_id", regID, "error", err)
	}
	s.emit(ctx, audit.Event{Action: audit.EventDeleted, RegistrationID: regID})
	return nil
}
