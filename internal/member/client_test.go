package member

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clubreg/internal/registration/models"
	dErrors "clubreg/pkg/domain-errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, time.Second)
}

func snapshot() models.Snapshot {
	return models.Snapshot{
		RegistrationID: 42,
		FirstName:      "Jean",
		LastName:       "Dupont",
		Email:          "jean.dupont@example.org",
		Category:       "senior",
	}
}

func TestCreateFromRegistrationPostsSnapshot(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/members", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var got models.Snapshot
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.EqualValues(t, 42, got.RegistrationID)
		assert.Equal(t, "jean.dupont@example.org", got.Email)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(Record{ID: 7, RegistrationID: got.RegistrationID})
	})

	rec, err := client.CreateFromRegistration(context.Background(), snapshot())
	require.NoError(t, err)
	assert.EqualValues(t, 7, rec.ID)
	assert.EqualValues(t, 42, rec.RegistrationID)
}

func TestCreateFromRegistrationRejectedSnapshotIsValidation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})

	_, err := client.CreateFromRegistration(context.Background(), snapshot())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestCreateFromRegistrationServerErrorIsUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.CreateFromRegistration(context.Background(), snapshot())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func TestCreateFromRegistrationUnreachableIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := New(srv.URL, time.Second)

	_, err := client.CreateFromRegistration(context.Background(), snapshot())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}
