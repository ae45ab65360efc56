package handler

import (
	"time"

	"clubreg/internal/registration/models"
	"clubreg/internal/registration/projection"
	"clubreg/internal/registration/service"
)

// RegistrationResponse is the HTTP representation of a registration,
// annotated with how well the backing store reflects it.
type RegistrationResponse struct {
	ID        int64            `json:"id"`
	FirstName string           `json:"first_name"`
	LastName  string           `json:"last_name"`
	Email     string           `json:"email"`
	Category  string           `json:"category"`
	Comment   string           `json:"comment,omitempty"`
	Status    string           `json:"status"`
	Processed bool             `json:"processed"`
	Payment   *PaymentResponse `json:"payment,omitempty"`
	SyncState string           `json:"sync_state"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// PaymentResponse is the payment portion of a registration response.
type PaymentResponse struct {
	Method      string    `json:"method"`
	Status      string    `json:"status"`
	AmountCents int64     `json:"amount_cents"`
	PaidAt      time.Time `json:"paid_at"`
	ProviderRef string    `json:"provider_ref,omitempty"`
}

// SubmitResponse is the HTTP response for POST /registrations.
type SubmitResponse struct {
	Registration *RegistrationResponse `json:"registration"`
	SessionID    string                `json:"session_id,omitempty"`
	RedirectURL  string                `json:"redirect_url,omitempty"`
}

// FromResult converts a service transition result to an HTTP response.
func FromResult(result *service.TransitionResult) *RegistrationResponse {
	return fromRegistration(result.Registration, result.SyncState)
}

func fromRegistration(r *models.Registration, state projection.SyncState) *RegistrationResponse {
	resp := &RegistrationResponse{
		ID:        int64(r.ID),
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Category:  r.Category,
		Comment:   r.Comment,
		Status:    string(r.Status),
		Processed: r.Processed,
		SyncState: string(state),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.Payment != nil {
		resp.Payment = &PaymentResponse{
			Method:      r.Payment.Method,
			Status:      string(r.Payment.Status),
			AmountCents: r.Payment.AmountCents,
			PaidAt:      r.Payment.PaidAt,
			ProviderRef: r.Payment.ProviderRef,
		}
	}
	return resp
}
