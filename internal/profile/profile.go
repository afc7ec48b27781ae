// Package profile is the adapter for the platform's user-profile backend.
//
// It fetches the profile the returning-user router inspects and applies the
// partial-field updates the stage controller produces. Updates report a bare
// boolean: any transport or server-reported error degrades to false so the
// dialogue never has to branch on failure kinds.
package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/UniNest/NestGuide/internal/models"
)

const (
	// DefaultTimeout bounds every backend call.
	DefaultTimeout = 10 * time.Second

	fetchPath  = "/get-user"
	updatePath = "/user/update"
)

// Service is the contract the flow package depends on.
type Service interface {
	// Fetch retrieves the user's profile for the given bearer token.
	Fetch(ctx context.Context, token string) (*models.Profile, error)

	// Update applies a partial-field update. It returns false on any
	// transport or server-reported error and never panics or propagates.
	Update(ctx context.Context, token string, fields models.ProfileUpdate) bool
}

// Opts holds configuration options for the profile client.
type Opts struct {
	BaseURL string
	Timeout time.Duration
}

// Option defines a configuration option for the profile client.
type Option func(*Opts)

// WithBaseURL sets the backend base URL, overriding $PROFILE_API_URL.
func WithBaseURL(u string) Option {
	return func(o *Opts) { o.BaseURL = u }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Opts) { o.Timeout = d }
}

// Client talks to the profile backend over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a profile client, falling back to the PROFILE_API_URL
// environment variable when no base URL option is provided.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = os.Getenv("PROFILE_API_URL")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("profile backend base URL not set")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	slog.Debug("profile.NewClient: profile client created", "baseURL", cfg.BaseURL, "timeout", cfg.Timeout)
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// fetchResponse is the backend's GET /get-user body.
type fetchResponse struct {
	User models.Profile `json:"user"`
}

// updateResponse is the backend's PATCH /user/update body.
type updateResponse struct {
	Success bool            `json:"success"`
	User    *models.Profile `json:"user,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Fetch retrieves the user's profile record.
func (c *Client) Fetch(ctx context.Context, token string) (*models.Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+fetchPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build profile fetch request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		slog.Error("Client.Fetch: profile fetch failed", "error", err)
		return nil, fmt.Errorf("profile fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Error("Client.Fetch: unexpected status", "status", resp.StatusCode)
		return nil, fmt.Errorf("profile fetch returned status %d", resp.StatusCode)
	}

	var body fetchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		slog.Error("Client.Fetch: failed to decode profile response", "error", err)
		return nil, fmt.Errorf("failed to decode profile response: %w", err)
	}
	slog.Debug("Client.Fetch: profile fetched", "missingFields", len(body.User.MissingFields()))
	return &body.User, nil
}

// Update applies a partial-field update to the user's profile. All failure
// causes collapse to false; the caller re-prompts the user uniformly.
func (c *Client) Update(ctx context.Context, token string, fields models.ProfileUpdate) bool {
	if len(fields) == 0 {
		slog.Warn("Client.Update: called with no fields")
		return false
	}

	payload, err := json.Marshal(fields)
	if err != nil {
		slog.Error("Client.Update: failed to marshal update body", "error", err)
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.baseURL+updatePath, bytes.NewReader(payload))
	if err != nil {
		slog.Error("Client.Update: failed to build update request", "error", err)
		return false
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		slog.Error("Client.Update: profile update failed", "error", err, "fieldCount", len(fields))
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Error("Client.Update: unexpected status", "status", resp.StatusCode)
		return false
	}

	var body updateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		slog.Error("Client.Update: failed to decode update response", "error", err)
		return false
	}
	if !body.Success {
		slog.Warn("Client.Update: backend rejected update", "message", body.Message)
		return false
	}
	slog.Debug("Client.Update: profile updated", "fieldCount", len(fields))
	return true
}
