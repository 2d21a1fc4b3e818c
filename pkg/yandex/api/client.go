// Package api provides the shared REST plumbing for Yandex Cloud service
// endpoints: a JSON client with bearer auth, 5xx retry, and typed errors.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// RetryConfig defines retry behavior for transient upstream failures.
type RetryConfig struct {
	Attempts int
	Delay    time.Duration
}

// Client calls Yandex Cloud REST endpoints. Server errors (5xx) and network
// failures are retried; client errors (4xx) are returned immediately.
type Client struct {
	HTTPClient *http.Client
	Retries    RetryConfig

	logger *slog.Logger
}

func NewClient(logger *slog.Logger) *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Retries:    RetryConfig{Attempts: 3, Delay: time.Second},
		logger:     logger.With("module", "yandex_api"),
	}
}

// DoJSON performs a JSON request and decodes the response into out (which
// may be nil when the caller does not need the body). The op name is carried
// into any returned *Error.
func (c *Client) DoJSON(ctx context.Context, op, method, url, token string, body, out any) error {
	var payload []byte

	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: failed to encode request: %w", op, err)
		}

		payload = encoded
	}

	respBody, err := c.do(ctx, op, method, url, token, payload)
	if err != nil {
		return err
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}

	return nil
}

// Stream opens the response body of an endpoint for the caller to consume
// incrementally (the OCR result endpoint streams newline-delimited JSON).
// Non-2xx responses are drained into a typed *Error.
func (c *Client) Stream(ctx context.Context, op, method, url, token string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", op, err)
	}

	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %w", op, err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()

		raw, _ := io.ReadAll(resp.Body)

		return nil, &Error{Op: op, StatusCode: resp.StatusCode, Message: apiMessage(raw)}
	}

	return resp.Body, nil
}

func (c *Client) do(ctx context.Context, op, method, url, token string, payload []byte) ([]byte, error) {
	var lastErr error

	attempts := c.Retries.Attempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			c.logger.DebugContext(ctx, "Retrying request", "op", op, "attempt", attempt)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.Retries.Delay):
			}
		}

		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to create request: %w", op, err)
		}

		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%s: request failed: %w", op, err)

			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()

		if err != nil {
			lastErr = fmt.Errorf("%s: failed to read response: %w", op, err)

			continue
		}

		if resp.StatusCode >= 500 && attempt < attempts {
			lastErr = &Error{Op: op, StatusCode: resp.StatusCode, Message: apiMessage(respBody)}

			continue
		}

		if resp.StatusCode >= 400 {
			return nil, &Error{Op: op, StatusCode: resp.StatusCode, Message: apiMessage(respBody)}
		}

		return respBody, nil
	}

	return nil, lastErr
}

// apiMessage pulls the human-readable message out of a Yandex Cloud error
// body, falling back to the raw payload.
func apiMessage(raw []byte) string {
	var parsed struct {
		Message string `json:"message"`
	}

	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Message != "" {
		return parsed.Message
	}

	return string(raw)
}
