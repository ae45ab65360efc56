package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientMetadataPrefersForwardedFor(t *testing.T) {
	var gotIP, gotUA string
	h := ClientMetadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIP = GetClientIP(r.Context())
		gotUA = GetUserAgent(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:43210"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	req.Header.Set("User-Agent", "club-app/2.1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if gotIP != "203.0.113.7" {
		t.Fatalf("expected forwarded client IP, got %q", gotIP)
	}
	if gotUA != "club-app/2.1" {
		t.Fatalf("expected user agent, got %q", gotUA)
	}
}

func TestClientMetadataFallsBackToRemoteAddr(t *testing.T) {
	var gotIP string
	h := ClientMetadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIP = GetClientIP(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.4:55555"
	h.ServeHTTP(httptest.NewRecorder(), req)

	if gotIP != "192.0.2.4" {
		t.Fatalf("expected remote addr without port, got %q", gotIP)
	}
}

func TestGetClientIPEmptyContext(t *testing.T) {
	if ip := GetClientIP(context.Background()); ip != "" {
		t.Fatalf("expected empty IP, got %q", ip)
	}
}
