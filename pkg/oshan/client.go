// Package oshan is the Go SDK for the oshan REST API. It handles bearer
// token storage, request retries, and the API's error shape so callers work
// with plain structs.
package oshan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// NetworkErrorMessage is the message attached to errors with Status 0.
const NetworkErrorMessage = "network error - please check your connection"

// APIError is a failed API call. Status 0 means the request never reached
// the server.
type APIError struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Client calls the oshan REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenStore
	maxRetries int
	retryDelay time.Duration
	platform   string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTokenStore replaces the credential store.
func WithTokenStore(ts TokenStore) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithRetry sets the retry budget: maxRetries attempts after the first, with
// delay doubling from baseDelay.
func WithRetry(maxRetries int, baseDelay time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.retryDelay = baseDelay
	}
}

// WithPlatform sets the X-Platform header value.
func WithPlatform(platform string) Option {
	return func(c *Client) { c.platform = platform }
}

// NewClient creates a Client against the given server base URL, e.g.
// "http://localhost:8080".
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tokens:     NewMemoryTokenStore(),
		maxRetries: 3,
		retryDelay: time.Second,
		platform:   "cli",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do issues one API call, retrying transport failures. Only requests that
// never reached the server are retried; any HTTP response, success or error,
// ends the attempt loop.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
	}

	creds, err := c.tokens.Load()
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	delay := c.retryDelay
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		var rd io.Reader
		if payload != nil {
			rd = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
		if err != nil {
			return fmt.Errorf("building request: %w", err)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("X-Platform", c.platform)
		if creds != nil {
			req.Header.Set("Authorization", "Bearer "+creds.Token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		return c.handleResponse(resp, out)
	}
	return &APIError{Status: 0, Message: NetworkErrorMessage, Data: errData(lastErr)}
}

// handleResponse decodes a server response into out or an *APIError. A 401
// clears stored credentials so the next call starts signed out.
func (c *Client) handleResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		if err := c.tokens.Clear(); err != nil {
			return fmt.Errorf("clearing credentials: %w", err)
		}
	}
	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(resp.Body)
		message := "request failed"
		var body struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &body) == nil && body.Error != "" {
			message = body.Error
		}
		return &APIError{Status: resp.StatusCode, Message: message, Data: data}
	}
	if out == nil {
		return nil
	}
	if raw, ok := out.(*[]byte); ok {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}
		*raw = data
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func errData(err error) json.RawMessage {
	if err == nil {
		return nil
	}
	data, _ := json.Marshal(map[string]string{"cause": err.Error()})
	return data
}
