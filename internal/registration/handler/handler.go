package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"clubreg/internal/payment"
	"clubreg/internal/registration/models"
	"clubreg/internal/registration/projection"
	"clubreg/internal/registration/service"
	id "clubreg/pkg/domain"
	"clubreg/pkg/platform/httputil"
	"clubreg/pkg/requestcontext"
)

// Service defines the interface for registration operations.
type Service interface {
	Submit(ctx context.Context, firstName, lastName, email, category string, amountCents int64) (*models.Registration, *payment.Session, error)
	Get(ctx context.Context, regID id.RegistrationID) (*service.TransitionResult, error)
	RequestTransition(ctx context.Context, regID id.RegistrationID, t models.Transition) (*service.TransitionResult, error)
	ConfirmPaymentAndConvert(ctx context.Context, regID id.RegistrationID, sessionRef string) (*service.TransitionResult, error)
	Delete(ctx context.Context, regID id.RegistrationID) error
}

// Handler wires registration endpoints to the registration service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a registration handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the applicant-facing endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/registrations", func(r chi.Router) {
		r.Post("/", h.HandleSubmit)
		r.Get("/{id}", h.HandleGet)
		r.Post("/{id}/payment/confirm", h.HandleConfirmPayment)
	})
}

// RegisterAdmin mounts the endpoints reserved for club administrators.
// The caller decides which authentication middleware guards them.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/registrations/{id}/decision", h.HandleDecision)
	r.Delete("/registrations/{id}", h.HandleDelete)
}

// HandleSubmit handles POST /registrations requests.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	stored, session, err := h.service.Submit(ctx, req.FirstName, req.LastName, req.Email, req.Category, req.AmountCents)
	if err != nil {
		// The registration may exist even when checkout failed; surface it
		// so the client can retry payment instead of resubmitting.
		if stored != nil {
			h.logger.WarnContext(ctx, "registration created without checkout session",
				"request_id", requestID,
				"registration_id", stored.ID,
				"error", err,
			)
			httputil.WriteJSON(w, http.StatusCreated, &SubmitResponse{
				Registration: fromRegistration(stored, projection.SyncConfirmed),
			})
			return
		}
		h.logger.ErrorContext(ctx, "registration submission failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "registration submitted",
		"request_id", requestID,
		"registration_id", stored.ID,
		"category", stored.Category,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	resp := &SubmitResponse{Registration: fromRegistration(stored, projection.SyncConfirmed)}
	if session != nil {
		resp.SessionID = session.ID
		resp.RedirectURL = session.RedirectURL
	}
	httputil.WriteJSON(w, http.StatusCreated, resp)
}

// HandleGet handles GET /registrations/{id} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	regID, err := id.ParseRegistrationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Get(ctx, regID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromResult(result))
}

// HandleDecision handles POST /registrations/{id}/decision requests.
func (h *Handler) HandleDecision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	regID, err := id.ParseRegistrationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[DecisionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.RequestTransition(ctx, regID, models.Transition{
		Status:  req.ParsedStatus(),
		Comment: req.Comment,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "decision failed",
			"request_id", requestID,
			"registration_id", regID,
			"target_status", req.Status,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "decision applied",
		"request_id", requestID,
		"registration_id", regID,
		"status", result.Registration.Status,
		"sync_state", result.SyncState,
	)
	httputil.WriteJSON(w, http.StatusOK, FromResult(result))
}

// HandleConfirmPayment handles POST /registrations/{id}/payment/confirm requests.
func (h *Handler) HandleConfirmPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	regID, err := id.ParseRegistrationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[ConfirmPaymentRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.ConfirmPaymentAndConvert(ctx, regID, req.SessionRef)
	if err != nil {
		h.logger.ErrorContext(ctx, "payment confirmation failed",
			"request_id", requestID,
			"registration_id", regID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "payment confirmation handled",
		"request_id", requestID,
		"registration_id", regID,
		"status", result.Registration.Status,
		"processed", result.Registration.Processed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromResult(result))
}

// HandleDelete handles DELETE /registrations/{id} requests.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	regID, err := id.ParseRegistrationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Delete(ctx, regID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "registration deleted",
		"request_id", requestID,
		"registration_id", regID,
	)
	w.WriteHeader(http.StatusNoContent)
}
