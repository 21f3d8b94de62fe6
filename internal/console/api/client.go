// Package api is the console's client for the inventarioPlus backend. It
// carries no session logic of its own: bearer attachment and the 401
// reaction live in the transport chain the *http.Client is built from.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is the root handle for the backend API. Resource groups hang off
// it so callers write client.Loans().List(ctx) rather than juggling paths.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient builds a Client around the given transport. Pass the console's
// interceptor chain as rt; a nil rt falls back to the default transport,
// which is only appropriate for unauthenticated probes.
func NewClient(baseURL string, rt http.RoundTripper, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Transport: rt,
			Timeout:   timeout,
		},
	}
}

func (c *Client) url(path string) string {
	return c.BaseURL + path
}

// doRequest performs one HTTP round trip and hands back the raw response.
// Callers own the body.
func (c *Client) doRequest(
	ctx context.Context,
	method, path string,
	body io.Reader,
	headers map[string]string,
) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	return resp, nil
}

// postJSON sends body as JSON and returns the raw response bytes on any 2xx
// status. Non-2xx responses come back as *APIError.
func (c *Client) postJSON(ctx context.Context, path string, body any, headers map[string]string) (json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	if headers == nil {
		headers = map[string]string{}
	}
	headers["Content-Type"] = "application/json"

	resp, err := c.doRequest(ctx, http.MethodPost, path, bytes.NewReader(payload), headers)
	if err != nil {
		return nil, err
	}
	return readBody(resp)
}

// getJSON fetches path and returns the raw response bytes on any 2xx
// status.
func (c *Client) getJSON(ctx context.Context, path string) (json.RawMessage, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return readBody(resp)
}

func readBody(resp *http.Response) (json.RawMessage, error) {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseErrorResponse(resp.StatusCode, bodyBytes)
	}

	return bodyBytes, nil
}
