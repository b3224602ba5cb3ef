// Package api provides HTTP client for interacting with the media tracker REST backend
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout is used when no http.Client is supplied
const DefaultTimeout = 30 * time.Second

// Client represents the API client for the media tracker backend
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. nil keeps the default.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the request timeout. It is applied after every other
// option, to a copy of the http.Client, so option order does not matter.
// Zero or negative keeps the client's own timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// NewClient creates a new API client. baseURL is the prefix every collection
// path is appended to, e.g. http://localhost:8080/api.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	normalized, err := NormalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL: normalized,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c, nil
}

// BaseURL returns the normalized base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// NormalizeBaseURL validates a base URL and strips trailing slashes
func NormalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("base URL cannot be empty")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported base URL scheme %q (want http or https)", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("base URL %q has no host", raw)
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// collectionPath builds /{collection}[/{segment}...] with every part escaped
func collectionPath(collection string, segments ...string) string {
	var b strings.Builder
	b.WriteString("/")
	b.WriteString(url.PathEscape(collection))
	for _, s := range segments {
		b.WriteString("/")
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

// doRequest performs an HTTP request with a JSON body
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	reqURL := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}

	return resp, nil
}

// parseResponse reads the response and decodes it into target.
// Any non-2xx status is returned as a *StatusError.
func (c *Client) parseResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(resp.StatusCode, body)
	}

	if target != nil {
		if err := json.Unmarshal(body, target); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

// call runs a request and decodes the result into target
func (c *Client) call(ctx context.Context, method, path string, body, target interface{}) error {
	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	return c.parseResponse(resp, target)
}

// StatusError is returned for any non-success HTTP status. Body holds the
// backend's JSON "message" when the response carries one, and the trimmed
// raw response text otherwise.
type StatusError struct {
	StatusCode int
	Body       string
}

// backendError is the error document the backend's exception handler produces
type backendError struct {
	Message string `json:"message"`
	Details string `json:"details"`
}

func newStatusError(status int, body []byte) *StatusError {
	text := strings.TrimSpace(string(body))

	var be backendError
	if json.Unmarshal(body, &be) == nil && be.Message != "" {
		text = be.Message
	}

	return &StatusError{StatusCode: status, Body: text}
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return e.Body
	}
	return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
}

// NotFound reports whether the backend answered 404
func (e *StatusError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}
