// Package payment talks to the external payment provider. The client is
// stateless and safe to call repeatedly: verification has no side effects
// beyond the remote call itself.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	dErrors "clubreg/pkg/domain-errors"
)

// Status is the provider-reported outcome of a checkout session.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusPending   Status = "pending"
	StatusFailed    Status = "failed"
)

// Session is a newly created checkout session.
type Session struct {
	ID          string `json:"session_id"`
	RedirectURL string `json:"redirect_url"`
}

// VerifyResult carries the provider's answer for a session reference.
type VerifyResult struct {
	Status  Status          `json:"status"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client is an HTTP client for the provider's session API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger
}

type Option func(*Client)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

func New(baseURL, apiKey string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type createSessionRequest struct {
	AmountCents int64             `json:"amount_cents"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// CreateSession opens a checkout session for the given amount.
func (c *Client) CreateSession(ctx context.Context, amountCents int64, metadata map[string]string) (*Session, error) {
	body, err := json.Marshal(createSessionRequest{AmountCents: amountCents, Metadata: metadata})
	if err != nil {
		return nil, fmt.Errorf("encode session request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build session request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "payment provider unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, dErrors.Newf(dErrors.CodeUnavailable, "payment provider returned %d", resp.StatusCode)
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("decode session response: %w", err)
	}
	return &session, nil
}

// Verify asks the provider whether the session's payment succeeded.
//
// Network failures, timeouts and provider 5xx all classify as pending: a
// transient client-side failure must never read as the customer's payment
// having failed, since that would reject a paying customer.
func (c *Client) Verify(ctx context.Context, sessionRef string) (VerifyResult, error) {
	if sessionRef == "" {
		return VerifyResult{}, dErrors.New(dErrors.CodeValidation, "session reference is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/sessions/"+sessionRef, nil)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("build verify request: %w", err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		c.warn(ctx, "payment verify unreachable, classifying pending", sessionRef, err)
		return VerifyResult{Status: StatusPending}, nil
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var result VerifyResult
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			c.warn(ctx, "payment verify response undecodable, classifying pending", sessionRef, err)
			return VerifyResult{Status: StatusPending}, nil
		}
		if !validStatus(result.Status) {
			c.warn(ctx, "payment verify returned unknown status, classifying pending", sessionRef, fmt.Errorf("status %q", result.Status))
			return VerifyResult{Status: StatusPending}, nil
		}
		return result, nil
	case resp.StatusCode == http.StatusNotFound:
		return VerifyResult{}, dErrors.New(dErrors.CodeNotFound, "unknown payment session")
	case resp.StatusCode >= 500:
		c.warn(ctx, "payment provider error, classifying pending", sessionRef, fmt.Errorf("status %d", resp.StatusCode))
		return VerifyResult{Status: StatusPending}, nil
	default:
		return VerifyResult{}, dErrors.Newf(dErrors.CodeInternal, "payment provider returned %d", resp.StatusCode)
	}
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func (c *Client) warn(ctx context.Context, msg, sessionRef string, err error) {
	if c.logger != nil {
		c.logger.WarnContext(ctx, msg, "session_ref", sessionRef, "error", err)
	}
}

func validStatus(s Status) bool {
	switch s {
	case StatusSucceeded, StatusPending, StatusFailed:
		return true
	}
	return false
}
