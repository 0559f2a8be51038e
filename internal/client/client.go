// Package client is the front-end side of the bridge transport.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"chatnotifier/internal/bridge"
)

const (
	callPath       = "/v1/call"
	apiKeyHeader   = "X-ChatNotifier-Key"
	defaultTimeout = 30 * time.Second
)

// Caller sends bridge calls to the host
type Caller interface {
	// Call runs method with params and returns the raw JSON result
	Call(ctx context.Context, method string, params bridge.Params) (json.RawMessage, error)
}

type callResponse struct {
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result"`
	Error  *bridge.Failure `json:"error"`
}

// HTTPClient implements Caller over the host's HTTP transport
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPClient creates a new client for the host at baseURL
func NewHTTPClient(baseURL, apiKey string, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger.With("component", "client"),
	}
}

// Call posts one request to the host. Rejected calls come back as *bridge.Failure.
func (c *HTTPClient) Call(ctx context.Context, method string, params bridge.Params) (json.RawMessage, error) {
	// Build URL
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	u = u.JoinPath(callPath)

	payload, err := json.Marshal(bridge.Request{Method: method, Params: params})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	// Create request
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	// Execute request
	c.logger.Debug("calling host", "method", method, "params_kind", params.Kind().String())
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("unauthorized: invalid API key")
	}

	var envelope callResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if !envelope.OK {
		if envelope.Error == nil {
			return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
		}
		c.logger.Debug("call rejected", "method", method, "code", envelope.Error.Code)
		return nil, envelope.Error
	}

	if len(envelope.Result) == 0 {
		return json.RawMessage("null"), nil
	}
	return envelope.Result, nil
}

// Ensure HTTPClient implements Caller
var _ Caller = (*HTTPClient)(nil)
