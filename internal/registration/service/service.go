// Package service implements the reconciliation orchestrator: the single
// place that decides what status transition a registration should make and
// drives it to either durable success or an explicitly degraded state.
package service

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"clubreg/internal/member"
	"clubreg/internal/payment"
	"clubreg/internal/registration/fallback"
	regmetrics "clubreg/internal/registration/metrics"
	"clubreg/internal/registration/models"
	"clubreg/internal/registration/projection"
	id "clubreg/pkg/domain"
	"clubreg/pkg/platform/audit"
	"clubreg/pkg/platform/middleware/metadata"
	"clubreg/pkg/requestcontext"
)

// Store is the orchestrator's read/create/delete view of the record store.
// Writes go through the fallback chain, never directly.
type Store interface {
	Get(ctx context.Context, regID id.RegistrationID) (*models.Registration, error)
	Insert(ctx context.Context, r *models.Registration) (*models.Registration, error)
	Delete(ctx context.Context, regID id.RegistrationID) error
}

// PaymentVerifier talks to the payment provider.
type PaymentVerifier interface {
	CreateSession(ctx context.Context, amountCents int64, metadata map[string]string) (*payment.Session, error)
	Verify(ctx context.Context, sessionRef string) (payment.VerifyResult, error)
}

// MemberCreator derives a member record from a registration snapshot. It is
// not idempotent; the orchestrator enforces at-most-once.
type MemberCreator interface {
	CreateFromRegistration(ctx context.Context, snapshot models.Snapshot) (*member.Record, error)
}

// Service orchestrates registration lifecycle transitions.
type Service struct {
	store      Store
	chain      *fallback.Chain
	verifier   PaymentVerifier
	members    MemberCreator
	projection projection.Store

	logger         *slog.Logger
	metrics        *regmetrics.Metrics
	auditPublisher audit.Publisher
	tracer         trace.Tracer

	// convertLocks serializes ConfirmPaymentAndConvert per registration so
	// a webhook retry and a user-triggered poll cannot interleave between
	// the processed check and member creation.
	mu           sync.Mutex
	convertLocks map[id.RegistrationID]*sync.Mutex
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *regmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

// New constructs the orchestrator.
func New(store Store, chain *fallback.Chain, verifier PaymentVerifier, members MemberCreator, proj projection.Store, opts ...Option) *Service {
	s := &Service{
		store:        store,
		chain:        chain,
		verifier:     verifier,
		members:      members,
		projection:   proj,
		logger:       slog.Default(),
		tracer:       otel.Tracer("clubreg/registration"),
		convertLocks: make(map[id.RegistrationID]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// lockFor returns the per-registration conversion lock. Locks are never
// removed; the map is bounded by the number of registrations that saw a
// payment confirmation during the process lifetime.
func (s *Service) lockFor(regID id.RegistrationID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.convertLocks[regID]
	if !ok {
		l = &sync.Mutex{}
		s.convertLocks[regID] = l
	}
	return l
}

// emit logs and publishes a lifecycle event. The sink contract is
// fire-and-forget: failures here never propagate. Request-scoped context
// (request ID, client metadata) is filled in here so call sites only name
// what happened.
func (s *Service) emit(ctx context.Context, event audit.Event) {
	event.Timestamp = requestcontext.Now(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	event.ClientIP = metadata.GetClientIP(ctx)
	event.UserAgent = metadata.GetUserAgent(ctx)

	args := []any{
		"registration_id", event.RegistrationID,
		"log_type", "audit",
	}
	if event.Status != "" {
		args = append(args, "status", event.Status)
	}
	if event.SessionRef != "" {
		args = append(args, "session_ref", event.SessionRef)
	}
	if event.Strategy != "" {
		args = append(args, "strategy", event.Strategy)
	}
	if event.MemberID != 0 {
		args = append(args, "member_id", int64(event.MemberID))
	}
	if event.Reason != "" {
		args = append(args, "reason", event.Reason)
	}
	if event.RequestID != "" {
		args = append(args, "request_id", event.RequestID)
	}
	if event.ClientIP != "" {
		args = append(args, "client_ip", event.ClientIP)
	}
	s.logger.InfoContext(ctx, event.Action, args...)

	if s.auditPublisher == nil {
		return
	}
	_ = s.auditPublisher.Emit(ctx, event)
}

func (s *Service) observeTransition(outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveTransition(outcome)
	}
}

func (s *Service) observeStrategy(strategy string) {
	if s.metrics != nil {
		s.metrics.ObserveStrategy(strategy)
	}
}

// refreshAheadGauge recounts locally-ahead entries so the gauge never
// drifts from the projection's actual state.
func (s *Service) refreshAheadGauge(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	entries, err := s.projection.LocallyAhead(ctx)
	if err != nil {
		return
	}
	s.metrics.LocallyAhead.Set(float64(len(entries)))
}
