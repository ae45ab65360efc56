package handler

import (
	"strings"

	"clubreg/internal/registration/models"
	dErrors "clubreg/pkg/domain-errors"
	"clubreg/pkg/email"
)

// SubmitRequest is the HTTP request body for POST /registrations.
type SubmitRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Category    string `json:"category"`
	AmountCents int64  `json:"amount_cents"`
}

// Validate validates the submission fields.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *SubmitRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = strings.TrimSpace(r.Email)
	r.Category = strings.TrimSpace(r.Category)

	if r.Email == "" || !strings.Contains(r.Email, "@") {
		return dErrors.New(dErrors.CodeValidation, "a valid email is required")
	}
	// Names are optional; quick self-service signups only carry an email.
	if r.FirstName == "" && r.LastName == "" {
		r.FirstName, r.LastName = email.DeriveNameFromEmail(r.Email)
	}
	if r.FirstName == "" {
		return dErrors.New(dErrors.CodeValidation, "first_name is required")
	}
	if r.LastName == "" {
		return dErrors.New(dErrors.CodeValidation, "last_name is required")
	}
	if r.Category == "" {
		return dErrors.New(dErrors.CodeValidation, "category is required")
	}
	if r.AmountCents < 0 {
		return dErrors.New(dErrors.CodeValidation, "amount_cents must not be negative")
	}
	return nil
}

// DecisionRequest is the HTTP request body for POST /registrations/{id}/decision.
type DecisionRequest struct {
	Status  string  `json:"status"`
	Comment *string `json:"comment,omitempty"`

	parsedStatus models.Status
}

// Validate validates and parses the requested decision.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *DecisionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	status := models.Status(strings.TrimSpace(r.Status))
	if !status.Valid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown status %q", r.Status)
	}
	r.parsedStatus = status

	if r.Comment != nil && len(*r.Comment) > 1000 {
		return dErrors.New(dErrors.CodeValidation, "comment must be at most 1000 characters")
	}
	return nil
}

// ParsedStatus returns the validated target status.
func (r *DecisionRequest) ParsedStatus() models.Status {
	return r.parsedStatus
}

// ConfirmPaymentRequest is the HTTP request body for
// POST /registrations/{id}/payment/confirm.
type ConfirmPaymentRequest struct {
	SessionRef string `json:"session_ref"`
}

// Validate checks the session reference.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *ConfirmPaymentRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.SessionRef = strings.TrimSpace(r.SessionRef)
	if r.SessionRef == "" {
		return dErrors.New(dErrors.CodeValidation, "session_ref is required")
	}
	if len(r.SessionRef) > 200 {
		return dErrors.New(dErrors.CodeValidation, "session_ref must be at most 200 characters")
	}
	return nil
}
