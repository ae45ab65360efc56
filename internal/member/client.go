// Package member calls the member-creation service. The service is NOT
// idempotent; the orchestrator enforces the at-most-once rule before calling
// CreateFromRegistration.
package member

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"clubreg/internal/registration/models"
	id "clubreg/pkg/domain"
	dErrors "clubreg/pkg/domain-errors"
)

// Record is the member created from a registration snapshot.
type Record struct {
	ID             id.MemberID       `json:"id"`
	RegistrationID id.RegistrationID `json:"registration_id"`
	CreatedAt      time.Time         `json:"created_at"`
}

// Client is an HTTP client for the member service.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

// CreateFromRegistration derives a member record from the snapshot.
func (c *Client) CreateFromRegistration(ctx context.Context, snapshot models.Snapshot) (*Record, error) {
	body, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("encode member request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/members", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build member request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "member service unreachable")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		return nil, dErrors.Newf(dErrors.CodeValidation, "member service rejected the snapshot (%d)", resp.StatusCode)
	default:
		return nil, dErrors.Newf(dErrors.CodeUnavailable, "member service returned %d", resp.StatusCode)
	}

	var rec Record
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode member response: %w", err)
	}
	return &rec, nil
}
