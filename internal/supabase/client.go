// Cactus Performance Dashboard - Analytics Service
// Copyright 2026 rshemet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rshemet/cactus-dashboard

// Package supabase provides the query gateway to the hosted Postgres
// backend. Remote stored procedures are invoked over the PostgREST RPC
// endpoint; the gateway layers a circuit breaker and a TTL result cache
// on top, and degrades every failure to an empty table plus a
// user-visible warning.
package supabase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/rshemet/cactus-dashboard/internal/config"
)

// RPCCaller invokes a named remote procedure and decodes the JSON result.
// Implemented by Client and by the circuit-breaker wrapper.
type RPCCaller interface {
	Call(ctx context.Context, procedure string, params interface{}, result interface{}) error
}

// Client handles communication with the Supabase PostgREST RPC endpoint.
//
// Each stored procedure is exposed as POST {url}/rest/v1/rpc/{procedure}
// with parameters as a JSON object body. The service key is sent both as
// the apikey header and as a bearer token.
//
// HTTP 429 responses are retried with exponential backoff (1s, 2s, 4s,
// 8s, 16s), honoring Retry-After when present.
//
// Thread Safety: safe for concurrent use; each call builds its own request.
type Client struct {
	baseURL        string
	key            string
	client         *http.Client
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewClient creates a Supabase RPC client from configuration.
func NewClient(cfg *config.SupabaseConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: cfg.URL,
		key:     cfg.Key,
		client: &http.Client{
			Timeout: timeout,
		},
		maxRetries:     5,
		retryBaseDelay: 1 * time.Second,
	}
}

// Call invokes procedure with params (nil means no parameters) and decodes
// the JSON response into result.
func (c *Client) Call(ctx context.Context, procedure string, params interface{}, result interface{}) error {
	if params == nil {
		params = map[string]interface{}{}
	}
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to encode params for %s: %w", procedure, err)
	}

	reqURL := fmt.Sprintf("%s/rest/v1/rpc/%s", c.baseURL, procedure)

	resp, err := c.doRequestWithRateLimit(ctx, reqURL, body)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", procedure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := readBodyForError(resp.Body)
		return fmt.Errorf("%s returned status %d: %s", procedure, resp.StatusCode, snippet)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", procedure, err)
	}
	return nil
}

// doRequestWithRateLimit performs the POST with automatic 429 handling.
func (c *Client) doRequestWithRateLimit(ctx context.Context, reqURL string, body []byte) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("apikey", c.key)
		req.Header.Set("Authorization", "Bearer "+c.key)

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("HTTP request failed: %w", err)
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		_ = resp.Body.Close()

		if attempt == c.maxRetries {
			lastErr = fmt.Errorf("rate limit exceeded after %d retries (HTTP 429)", c.maxRetries)
			break
		}

		delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := time.ParseDuration(retryAfter + "s"); err == nil {
				delay = seconds
			}
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

// readBodyForError reads up to 512 bytes of a response body for error
// messages.
func readBodyForError(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 512))
	if err != nil {
		return "<unreadable body>"
	}
	return string(data)
}
