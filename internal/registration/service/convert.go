package service

import (
	"context"
	"encoding/json"
	"time"

	"clubreg/internal/payment"
	"clubreg/internal/registration/models"
	"clubreg/internal/registration/projection"
	id "clubreg/pkg/domain"
	"clubreg/pkg/platform/audit"
	"clubreg/pkg/requestcontext"
)

// ConfirmPaymentAndConvert asks the provider about a checkout session and,
// on success, converts the registration into a member.
//
// The provider is consulted exactly once per invocation. Conversion is
// guarded twice: in-process calls for the same registration are serialized,
// and the processed flag is re-read from the store immediately before the
// member-creation side effect. The second guard is the one that matters:
// it is what prevents duplicate member creation when a webhook retry and a
// user-triggered poll race, and it always reads the persisted record, never
// the optimistic projection.
func (s *Service) ConfirmPaymentAndConvert(ctx context.Context, regID id.RegistrationID, sessionRef string) (*TransitionResult, error) {
	ctx, span := s.tracer.Start(ctx, "registration.ConfirmPaymentAndConvert")
	defer span.End()

	lock := s.lockFor(regID)
	lock.Lock()
	defer lock.Unlock()

	result, err := s.verifier.Verify(ctx, sessionRef)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ObserveVerify(string(result.Status))
	}

	switch result.Status {
	case payment.StatusPending:
		// Not an error; the caller polls again later.
		return s.currentView(ctx, regID)
	case payment.StatusFailed:
		return s.RequestTransition(ctx, regID, models.Transition{Status: models.StatusRejected})
	}

	// Already converted: a webhook retry or a second poll for the same
	// session must observe the final state, not re-run the transition.
	if existing, err := s.store.Get(ctx, regID); err == nil && existing.Processed {
		return &TransitionResult{Registration: existing, SyncState: projection.SyncConfirmed}, nil
	}

	pay := paymentFromResult(result, sessionRef, requestcontext.Now(ctx))
	s.emit(ctx, audit.Event{
		Action:         audit.EventPaymentConfirmed,
		RegistrationID: regID,
		SessionRef:     sessionRef,
	})

	accepted, err := s.RequestTransition(ctx, regID, models.Transition{
		Status:  models.StatusAccepted,
		Payment: pay,
	})
	if err != nil {
		return nil, err
	}

	// Fresh read of the persisted record, immediately before the side
	// effect. A cached value or the projection would let two racing
	// confirmations both observe processed=false.
	fresh, err := s.store.Get(ctx, regID)
	if err != nil {
		s.logger.WarnContext(ctx, "cannot verify processed flag, deferring conversion",
			"registration_id", regID, "error", err)
		return accepted, nil
	}
	if fresh.Processed {
		return &TransitionResult{Registration: fresh, SyncState: projection.SyncConfirmed}, nil
	}

	rec, err := s.members.CreateFromRegistration(ctx, fresh.Snapshot(requestcontext.Now(ctx)))
	if err != nil {
		// The payment is confirmed and persisted; only the conversion is
		// missing. The next confirmation attempt finds processed=false and
		// retries member creation.
		s.logger.ErrorContext(ctx, "member creation failed",
			"registration_id", regID, "error", err)
		return accepted, nil
	}

	if s.metrics != nil {
		s.metrics.ConversionsTotal.Inc()
	}
	s.emit(ctx, audit.Event{
		Action:         audit.EventMemberCreated,
		RegistrationID: regID,
		SessionRef:     sessionRef,
		MemberID:       rec.ID,
	})

	return s.RequestTransition(ctx, regID, models.Transition{
		Status:    models.StatusAccepted,
		Processed: true,
	})
}

// currentView returns the registration as the caller should see it, without
// forcing any transition.
func (s *Service) currentView(ctx context.Context, regID id.RegistrationID) (*TransitionResult, error) {
	if entry, ok, err := s.projection.Get(ctx, regID); err == nil && ok {
		return &TransitionResult{Registration: entry.Registration, SyncState: entry.SyncState}, nil
	}
	return s.Get(ctx, regID)
}

type providerPayload struct {
	Method      string `json:"method"`
	AmountCents int64  `json:"amount_cents"`
}

func paymentFromResult(result payment.VerifyResult, sessionRef string, now time.Time) *models.Payment {
	pay := &models.Payment{
		Method:      "online",
		Status:      models.PaymentCompleted,
		PaidAt:      now,
		ProviderRef: sessionRef,
	}
	if len(result.Payload) > 0 {
		var p providerPayload
		if err := json.Unmarshal(result.Payload, &p); err == nil {
			if p.Method != "" {
				pay.Method = p.Method
			}
			pay.AmountCents = p.AmountCents
		}
	}
	return pay
}
