package httpapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"clubreg/internal/registration/fallback"
	"clubreg/internal/registration/handler"
	"clubreg/internal/registration/projection"
	"clubreg/internal/registration/service"
	"clubreg/internal/registration/service/mocks"
	regstore "clubreg/internal/registration/store/registration"
)

const adminToken = "secret-token"

func newRouter(t *testing.T, checkers map[string]HealthChecker) http.Handler {
	t.Helper()
	ctrl := gomock.NewController(t)
	store := regstore.NewInMemory()
	svc := service.New(store, fallback.New(store),
		mocks.NewMockPaymentVerifier(ctrl), mocks.NewMockMemberCreator(ctrl),
		projection.NewInMemory())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewRouter(Deps{
		Registrations: handler.New(svc, logger),
		Logger:        logger,
		AdminToken:    adminToken,
		Checkers:      checkers,
	})
}

func TestHealthz(t *testing.T) {
	router := newRouter(t, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestReadyzReportsDegradedResource(t *testing.T) {
	router := newRouter(t, map[string]HealthChecker{
		"postgres": checkerFunc(func(context.Context) error { return nil }),
		"redis":    checkerFunc(func(context.Context) error { return errors.New("connection refused") }),
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "redis") {
		t.Fatalf("expected failing resource in body, got %s", rec.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newRouter(t, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAdminTokenRequired(t *testing.T) {
	router := newRouter(t, nil)

	req := httptest.NewRequest(http.MethodDelete, "/registrations/1", nil)
	// No admin token header set
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 when admin token missing, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/registrations/1", nil)
	req.Header.Set("X-Admin-Token", adminToken)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	// Token accepted; the registration simply does not exist.
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 with valid token, got %d", rec.Code)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	router := newRouter(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "req-42" {
		t.Fatalf("expected request id echoed, got %q", got)
	}
}

type checkerFunc func(ctx context.Context) error

func (f checkerFunc) Health(ctx context.Context) error { return f(ctx) }
