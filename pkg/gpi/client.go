// Copyright (c) 2025 SWIFT FIN Connector Authors
// SPDX-License-Identifier: BSD-2-Clause

// Package gpi is a client for the payment tracker: querying the
// end-to-end status of a payment by its UETR and initiating recalls.
package gpi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
)

// Tracker status codes, following the ISO payment status vocabulary.
const (
	StatusCompleted  = "ACCC"
	StatusInProgress = "ACSP"
	StatusRejected   = "RJCT"
)

// ErrNotTracked is returned when the tracker holds no payment for a
// UETR.
var ErrNotTracked = errors.New("payment not tracked")

// Config configures the tracker client.
type Config struct {
	// BaseURL of the tracker API. Required.
	BaseURL string

	// Token sent as a bearer token on every call.
	Token string

	// Timeout bounds each attempt. Defaults to 15s.
	Timeout time.Duration

	// RetryMax is the number of retries after a failed attempt.
	// Defaults to 3.
	RetryMax int
}

// Client calls the payment tracker over HTTP. Transient failures are
// retried with backoff.
type Client struct {
	baseURL string
	token   string
	client  *retryablehttp.Client
}

// NewClient builds a tracker client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("tracker base URL required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RetryMax <= 0 {
		cfg.RetryMax = 3
	}

	client := retryablehttp.NewClient()
	client.RetryMax = cfg.RetryMax
	client.HTTPClient.Timeout = cfg.Timeout
	client.Logger = nil

	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		client:  client,
	}, nil
}

// Event is one agent update on a tracked payment.
type Event struct {
	At     time.Time `json:"at"`
	Agent  string    `json:"agent,omitempty"`
	Status string    `json:"status"`
	Detail string    `json:"detail,omitempty"`
}

// TransactionStatus is the tracker view of one payment.
type TransactionStatus struct {
	UETR        string    `json:"uetr"`
	Status      string    `json:"status"`
	Reason      string    `json:"reason,omitempty"`
	LastUpdated time.Time `json:"lastUpdated"`
	Events      []Event   `json:"events,omitempty"`
}

// TrackPayment returns the tracker status for a UETR.
func (c *Client) TrackPayment(ctx context.Context, uetr string) (*TransactionStatus, error) {
	if _, err := uuid.Parse(uetr); err != nil {
		return nil, fmt.Errorf("invalid uetr %q: %w", uetr, err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/payments/"+uetr+"/status", nil)
	if err != nil {
		return nil, fmt.Errorf("build tracker request: %w", err)
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tracker call: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("uetr %s: %w", uetr, ErrNotTracked)
	default:
		return nil, fmt.Errorf("tracker returned %s", resp.Status)
	}

	var status TransactionStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode tracker response: %w", err)
	}
	return &status, nil
}

// RecallResult is the tracker's answer to a recall request.
type RecallResult struct {
	UETR     string `json:"uetr"`
	Accepted bool   `json:"accepted"`
	CaseID   string `json:"caseId,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

type recallRequest struct {
	Reason string `json:"reason"`
}

// RecallPayment asks the tracker to stop and return a payment. The
// counterparty answers asynchronously; the result carries the tracker
// case reference for follow-up.
func (c *Client) RecallPayment(ctx context.Context, uetr, reason string) (*RecallResult, error) {
	if _, err := uuid.Parse(uetr); err != nil {
		return nil, fmt.Errorf("invalid uetr %q: %w", uetr, err)
	}
	if reason == "" {
		return nil, errors.New("recall reason required")
	}

	body, err := json.Marshal(recallRequest{Reason: reason})
	if err != nil {
		return nil, fmt.Errorf("encode recall request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/payments/"+uetr+"/recall", body)
	if err != nil {
		return nil, fmt.Errorf("build recall request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("recall call: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted:
	case http.StatusNotFound:
		return nil, fmt.Errorf("uetr %s: %w", uetr, ErrNotTracked)
	default:
		return nil, fmt.Errorf("tracker returned %s", resp.Status)
	}

	var result RecallResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode recall response: %w", err)
	}
	return &result, nil
}

func (c *Client) authorize(req *retryablehttp.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
