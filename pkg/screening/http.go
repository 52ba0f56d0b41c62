package screening

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// HTTPConfig configures a screener backed by a remote screening
// service.
type HTTPConfig struct {
	// Endpoint receives the screening request. Required.
	Endpoint string

	// Token, when set, is sent as a bearer token.
	Token string

	// Timeout bounds each attempt. Defaults to 10s.
	Timeout time.Duration

	// RetryMax is the number of retries after a failed attempt.
	// Defaults to 3.
	RetryMax int
}

// HTTPScreener screens parties through a remote service. Transient
// failures are retried with backoff before the call is reported as
// failed.
type HTTPScreener struct {
	endpoint string
	token    string
	client   *retryablehttp.Client
}

// NewHTTPScreener builds a screener for the configured endpoint.
func NewHTTPScreener(cfg HTTPConfig) (*HTTPScreener, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("screening endpoint required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryMax <= 0 {
		cfg.RetryMax = 3
	}

	client := retryablehttp.NewClient()
	client.RetryMax = cfg.RetryMax
	client.HTTPClient.Timeout = cfg.Timeout
	client.Logger = nil

	return &HTTPScreener{
		endpoint: cfg.Endpoint,
		token:    cfg.Token,
		client:   client,
	}, nil
}

type screenRequest struct {
	Parties []string `json:"parties"`
}

// Screen submits the parties and returns the service verdict.
func (h *HTTPScreener) Screen(ctx context.Context, parties ...string) (*Result, error) {
	body, err := json.Marshal(screenRequest{Parties: parties})
	if err != nil {
		return nil, fmt.Errorf("encode screening request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build screening request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("screening call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("screening service returned %s", resp.Status)
	}

	var res Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("decode screening response: %w", err)
	}
	return &res, nil
}
