// Package audit defines the lifecycle-event sink. Emission is fire-and-
// forget: a sink failure is logged and swallowed, never propagated as an
// orchestrator error.
package audit

import (
	"context"
	"time"

	id "clubreg/pkg/domain"
)

// Event captures a key action on a registration. Keep it transport-agnostic
// so stores and sinks can fan out.
type Event struct {
	Timestamp      time.Time         `json:"timestamp"`
	RegistrationID id.RegistrationID `json:"registration_id"`
	Action         string            `json:"action"`
	Status         string            `json:"status,omitempty"`
	SessionRef     string            `json:"session_ref,omitempty"`
	Strategy       string            `json:"strategy,omitempty"`
	MemberID       id.MemberID       `json:"member_id,omitempty"`
	Reason         string            `json:"reason,omitempty"`
	RequestID      string            `json:"request_id,omitempty"`
	ClientIP       string            `json:"client_ip,omitempty"`
	UserAgent      string            `json:"user_agent,omitempty"`
}

// Registration lifecycle actions.
const (
	EventSubmitted        = "registration_submitted"
	EventAccepted         = "registration_accepted"
	EventRejected         = "registration_rejected"
	EventMarkedPending    = "registration_marked_pending"
	EventPaymentConfirmed = "payment_confirmed"
	EventMemberCreated    = "member_created"
	EventSyncDegraded     = "sync_degraded"
	EventSyncRecovered    = "sync_recovered"
	EventDeleted          = "registration_deleted"
)

// Publisher delivers events to an external sink.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// Store persists events for inspection; the worker drains into it.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByRegistration(ctx context.Context, regID id.RegistrationID) ([]Event, error)
}
