package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "clubreg/pkg/domain-errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, "test-key", time.Second)
}

func TestVerifyReportsProviderStatus(t *testing.T) {
	for _, status := range []string{"succeeded", "pending", "failed"} {
		t.Run(status, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/sessions/sess_abc", r.URL.Path)
				assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"status":"` + status + `"}`))
			})

			result, err := client.Verify(context.Background(), "sess_abc")
			require.NoError(t, err)
			assert.Equal(t, Status(status), result.Status)
		})
	}
}

func TestVerifyIsIdempotent(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"status":"succeeded"}`))
	})

	first, err := client.Verify(context.Background(), "sess_abc")
	require.NoError(t, err)
	second, err := client.Verify(context.Background(), "sess_abc")
	require.NoError(t, err)

	assert.Equal(t, first.Status, second.Status)
	assert.EqualValues(t, 2, calls.Load())
}

func TestVerifyClassifiesTransientFailuresAsPending(t *testing.T) {
	t.Run("provider 5xx", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		result, err := client.Verify(context.Background(), "sess_abc")
		require.NoError(t, err)
		assert.Equal(t, StatusPending, result.Status)
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte(`{"status":"succeeded"}`))
		}))
		t.Cleanup(srv.Close)
		client := New(srv.URL, "", 20*time.Millisecond)

		result, err := client.Verify(context.Background(), "sess_abc")
		require.NoError(t, err)
		assert.Equal(t, StatusPending, result.Status)
	})

	t.Run("connection refused", func(t *testing.T) {
		client := New("http://127.0.0.1:1", "", 100*time.Millisecond)
		result, err := client.Verify(context.Background(), "sess_abc")
		require.NoError(t, err)
		assert.Equal(t, StatusPending, result.Status)
	})

	t.Run("garbage body", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"status":`))
		})
		result, err := client.Verify(context.Background(), "sess_abc")
		require.NoError(t, err)
		assert.Equal(t, StatusPending, result.Status)
	})
}

func TestVerifyUnknownSessionIsHardError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.Verify(context.Background(), "sess_missing")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestCreateSession(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/sessions", r.URL.Path)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"session_id":"sess_new","redirect_url":"https://pay.example.org/sess_new"}`))
	})

	session, err := client.CreateSession(context.Background(), 12500, map[string]string{"registration_id": "42"})
	require.NoError(t, err)
	assert.Equal(t, "sess_new", session.ID)
	assert.NotEmpty(t, session.RedirectURL)
}

func TestCreateSessionProviderDown(t *testing.T) {
	client := New("http://127.0.0.1:1", "", 100*time.Millisecond)
	_, err := client.CreateSession(context.Background(), 12500, nil)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}
