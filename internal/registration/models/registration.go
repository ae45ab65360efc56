package models

import (
	"strings"
	"time"

	id "clubreg/pkg/domain"
	dErrors "clubreg/pkg/domain-errors"
)

// Status is the lifecycle state of a registration as decided by an
// administrator or by payment confirmation.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// PaymentStatus is the provider-reported outcome attached to a registration.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Payment is the sub-record derived from a confirmed provider event. It is
// owned by the registration and never deleted independently.
type Payment struct {
	Method      string        `json:"method"`
	Status      PaymentStatus `json:"status"`
	AmountCents int64         `json:"amount_cents"`
	PaidAt      time.Time     `json:"paid_at"`
	ProviderRef string        `json:"provider_ref"`
}

// Registration is a club membership application progressing through
// pending/accepted/rejected. Processed flips to true exactly once, when a
// member record has been derived from this registration.
type Registration struct {
	ID        id.RegistrationID `json:"id"`
	FirstName string            `json:"first_name"`
	LastName  string            `json:"last_name"`
	Email     string            `json:"email"`
	Category  string            `json:"category"`
	Comment   string            `json:"comment,omitempty"`
	Status    Status            `json:"status"`
	Processed bool              `json:"processed"`
	Payment   *Payment          `json:"payment,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewSubmission builds a fresh pending registration from user input.
func NewSubmission(firstName, lastName, email, category string, now time.Time) (*Registration, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	email = strings.TrimSpace(email)
	category = strings.TrimSpace(category)

	if firstName == "" || lastName == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "registrant name is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "a valid email is required")
	}
	if category == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "category is required")
	}

	return &Registration{
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Category:  category,
		Status:    StatusPending,
		Processed: false,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Transition is the target of a requested status change. Comment is a
// pointer so informational updates can ride along without being mandatory.
type Transition struct {
	Status    Status
	Processed bool
	Payment   *Payment
	Comment   *string
}

// CanApply validates a transition against the registration's invariants:
// processed never reverts, and a converted registration only accepts
// informational updates.
func (r *Registration) CanApply(t Transition) error {
	if !t.Status.Valid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown status %q", t.Status)
	}
	if r.Processed && !t.Processed {
		return dErrors.New(dErrors.CodeInvariantViolation, "processed cannot be reverted")
	}
	if r.Status == StatusAccepted && r.Processed && t.Status != StatusAccepted {
		return dErrors.New(dErrors.CodeInvariantViolation, "a converted registration cannot change status")
	}
	if t.Processed && t.Status != StatusAccepted {
		return dErrors.New(dErrors.CodeValidation, "only accepted registrations can be processed")
	}
	return nil
}

// Apply mutates the registration to the transition target. Callers validate
// with CanApply first; stores hold their lock across both.
func (r *Registration) Apply(t Transition, now time.Time) {
	r.Status = t.Status
	r.Processed = t.Processed
	if t.Payment != nil {
		p := *t.Payment
		r.Payment = &p
	}
	if t.Comment != nil {
		r.Comment = strings.TrimSpace(*t.Comment)
	}
	r.UpdatedAt = now
}

// Clone returns a deep copy so projections never alias store-owned memory.
func (r *Registration) Clone() *Registration {
	cp := *r
	if r.Payment != nil {
		p := *r.Payment
		cp.Payment = &p
	}
	return &cp
}

// Snapshot is the frozen field set handed to the member service. Members are
// derived from exactly these values; the registration may keep changing
// afterwards without affecting the member record.
type Snapshot struct {
	RegistrationID id.RegistrationID `json:"registration_id"`
	FirstName      string            `json:"first_name"`
	LastName       string            `json:"last_name"`
	Email          string            `json:"email"`
	Category       string            `json:"category"`
	PaidAmount     int64             `json:"paid_amount_cents,omitempty"`
	TakenAt        time.Time         `json:"taken_at"`
}

// Snapshot captures the registration's current field values for conversion.
func (r *Registration) Snapshot(now time.Time) Snapshot {
	s := Snapshot{
		RegistrationID: r.ID,
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		Email:          r.Email,
		Category:       r.Category,
		TakenAt:        now,
	}
	if r.Payment != nil {
		s.PaidAmount = r.Payment.AmountCents
	}
	return s
}
