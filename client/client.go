// Package client talks to the external HTTP APIs a report depends on: the
// SpaceScan block explorer and, through service/price, the price providers.
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

	"github.com/brojonat/chiatax/service/metrics"
)

// ProviderError reports an external API call that answered with a failure:
// a non-success status envelope, an error field, a non-2xx HTTP status or a
// body that could not be decoded. It is never retried.
type ProviderError struct {
	API      string // e.g. "spacescan", "coingecko"
	Endpoint string // e.g. "xch-balance"
	Message  string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s lookup failed: %s", e.API, e.Endpoint, e.Message)
}

// Checker is implemented by response envelopes that can tell a successful
// payload from a failed one. GetJSON calls Check after decoding.
type Checker interface {
	Check() error
}

// Request describes a single GET against an external API.
type Request struct {
	Endpoint string // short name used in errors, logs and metrics
	URL      string
	Query    url.Values
	Header   http.Header
}

// Client is the HTTP plumbing shared by every external API.
// It issues one request at a time and never retries.
type Client struct {
	api        string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewClient creates a client for the named API.
// If httpClient is nil, a client with a 30s timeout is used.
// If logger is nil, logs are discarded. If m is nil, no metrics are recorded.
func NewClient(api string, httpClient *http.Client, m *metrics.Metrics, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Client{
		api:        api,
		httpClient: httpClient,
		logger:     logger,
		metrics:    m,
	}
}

// API returns the name of the API this client talks to.
func (c *Client) API() string { return c.api }

// GetJSON performs the request and decodes the JSON response body into out.
// Numbers decoded into interface values are kept as json.Number.
// Raw request and response payloads are logged at debug level.
func (c *Client) GetJSON(ctx context.Context, r Request, out any) (err error) {
	start := time.Now()
	defer func() {
		if c.metrics != nil {
			c.metrics.RecordAPICall(c.api, r.Endpoint, err, time.Since(start).Seconds())
		}
	}()

	u := r.URL
	if len(r.Query) > 0 {
		u += "?" + r.Query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	c.logger.DebugContext(ctx, "calling API",
		"api", c.api,
		"endpoint", r.Endpoint,
		"url", u,
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s request failed: %w", c.api, r.Endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: failed to read response: %w", c.api, r.Endpoint, err)
	}

	c.logger.DebugContext(ctx, "API returned",
		"api", c.api,
		"endpoint", r.Endpoint,
		"status_code", resp.StatusCode,
		"body", string(body),
	)

	if resp.StatusCode/100 != 2 {
		return c.parseErrorResponse(r.Endpoint, resp.StatusCode, body)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return &ProviderError{API: c.api, Endpoint: r.Endpoint, Message: fmt.Sprintf("failed to decode response: %v", err)}
	}

	if chk, ok := out.(Checker); ok {
		if err := chk.Check(); err != nil {
			c.logger.ErrorContext(ctx, "API reported failure",
				"api", c.api,
				"endpoint", r.Endpoint,
				"error", err,
				"body", string(body),
			)
			return &ProviderError{API: c.api, Endpoint: r.Endpoint, Message: err.Error()}
		}
	}

	return nil
}

// parseErrorResponse builds a ProviderError from a non-2xx response,
// preferring the API's own error message when the body carries one.
func (c *Client) parseErrorResponse(endpoint string, statusCode int, body []byte) error {
	var errResp struct {
		Error   any    `json:"error"`
		Message string `json:"message"`
	}
	msg := fmt.Sprintf("http status %d: %s", statusCode, string(body))
	if err := json.Unmarshal(body, &errResp); err == nil {
		switch {
		case errResp.Error != nil:
			msg = fmt.Sprintf("http status %d: %v", statusCode, errResp.Error)
		case errResp.Message != "":
			msg = fmt.Sprintf("http status %d: %s", statusCode, errResp.Message)
		}
	}
	return &ProviderError{API: c.api, Endpoint: endpoint, Message: msg}
}
