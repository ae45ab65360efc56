package service

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"clubreg/internal/registration/models"
	"clubreg/internal/registration/projection"
	id "clubreg/pkg/domain"
	dErrors "clubreg/pkg/domain-errors"
	"clubreg/pkg/platform/audit"
	"clubreg/pkg/platform/sentinel"
)

// reconcileConcurrency bounds how many locally-ahead records one sweep
// re-persists in parallel.
const reconcileConcurrency = 4

// Reconcile re-persists every locally-ahead projection entry. It is run
// periodically by the background worker and is what turns the "return
// optimistic success on backend failure" policy into eventual convergence
// instead of a silent permanent divergence.
func (s *Service) Reconcile(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "registration.Reconcile")
	defer span.End()

	entries, err := s.projection.LocallyAhead(ctx)
	if err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.ReconcileRunsTotal.Inc()
	}
	if len(entries) == 0 {
		s.refreshAheadGauge(ctx)
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reconcileConcurrency)
	for _, entry := range entries {
		g.Go(func() error {
			s.reconcileOne(gctx, entry)
			return nil
		})
	}
	_ = g.Wait()

	s.refreshAheadGauge(ctx)
	return nil
}

// reconcileOne retries the chain for a single locally-ahead entry. Returns
// the confirmed result on success, nil when the record is still ahead.
func (s *Service) reconcileOne(ctx context.Context, entry projection.Entry) *TransitionResult {
	reg := entry.Registration
	t := models.Transition{
		Status:    reg.Status,
		Processed: reg.Processed,
		Payment:   reg.Payment,
	}
	if reg.Comment != "" {
		comment := reg.Comment
		t.Comment = &comment
	}

	result := s.chain.Apply(ctx, reg.ID, t)
	if !result.Succeeded() {
		// A validation or invariant rejection will not heal with time; the
		// store has moved past what the entry wants. Resolve in the store's
		// favor so the sweep does not retry it forever.
		if permanentlyRejected(result.Err) {
			s.resolveAgainstStore(ctx, reg.ID, result.Err)
			return nil
		}
		s.logger.DebugContext(ctx, "reconciliation attempt still failing",
			"registration_id", reg.ID, "error", result.Err)
		return nil
	}

	if err := s.projection.MarkConfirmed(ctx, result.Registration); err != nil {
		s.logger.WarnContext(ctx, "projection confirm failed", "registration_id", reg.ID, "error", err)
	}
	s.observeTransition("reconciled")
	s.observeStrategy(result.Strategy)
	s.emit(ctx, audit.Event{
		Action:         audit.EventSyncRecovered,
		RegistrationID: reg.ID,
		Strategy:       result.Strategy,
	})

	return &TransitionResult{
		Registration: result.Registration,
		SyncState:    projection.SyncConfirmed,
		Strategy:     result.Strategy,
	}
}

func permanentlyRejected(err error) bool {
	return dErrors.HasCode(err, dErrors.CodeValidation) ||
		dErrors.HasCode(err, dErrors.CodeInvariantViolation) ||
		errors.Is(err, sentinel.ErrNotFound)
}

// resolveAgainstStore replaces an unreconcilable locally-ahead entry with
// the store's current state, or discards it when the record is gone. When
// the store cannot answer, the entry stays for the next sweep.
func (s *Service) resolveAgainstStore(ctx context.Context, regID id.RegistrationID, cause error) {
	s.logger.WarnContext(ctx, "dropping unreconcilable local state",
		"registration_id", regID, "error", cause)

	current, err := s.store.Get(ctx, regID)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		if err := s.projection.Discard(ctx, regID); err != nil {
			s.logger.WarnContext(ctx, "projection discard failed", "registration_id", regID, "error", err)
		}
	case err != nil:
		return
	default:
		if err := s.projection.MarkConfirmed(ctx, current); err != nil {
			s.logger.WarnContext(ctx, "projection confirm failed", "registration_id", regID, "error", err)
		}
	}
	s.observeTransition("abandoned")
}
