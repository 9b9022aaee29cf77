// Package httpx holds the JSON-over-HTTP plumbing shared by the embedding
// and LLM adapters, including how HTTP failures map to retryable errors.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 4 << 10

// StatusError is a non-2xx response from a provider API.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string

	// RetryAfter is the server's requested wait, if it sent one.
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: API returned status %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s: API returned status %d: %s", e.Service, e.StatusCode, e.Body)
}

// IsRetryableStatus returns true for rate limiting and server-side failures.
func IsRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusRequestTimeout || code >= 500
}

// CheckStatus returns nil for 2xx responses. Otherwise it reads a bounded
// part of the body and returns a StatusError, marked transient for 408,
// 429 and 5xx.
func CheckStatus(service string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	serr := &StatusError{
		Service:    service,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
		RetryAfter: retryAfter(resp.Header.Get("Retry-After")),
	}
	if IsRetryableStatus(resp.StatusCode) {
		return domain.Transient(serr)
	}
	return serr
}

// RequestError classifies an error from http.Client.Do. Context errors are
// left unmarked so the retry policy can tell a cancelled batch from a slow
// attempt; every other transport failure is transient.
func RequestError(service string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: send request: %w", service, err)
	}
	return domain.Transient(fmt.Errorf("%s: send request: %w", service, err))
}

// transientMarkers are substrings that SDK clients put in the messages of
// rate-limit and server-side failures when they do not expose a status code.
var transientMarkers = []string{
	"429", "too many requests", "rate limit",
	"500", "502", "503", "504", "unavailable", "overloaded",
	"connection refused", "connection reset", "timeout",
}

// Classify marks errors from third-party SDK clients. Errors already marked,
// context errors and errors with no recognisable marker are returned as is.
func Classify(err error) error {
	if err == nil || domain.IsTransient(err) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return domain.Transient(err)
	}
	msg := strings.ToLower(err.Error())
	for _, m := range transientMarkers {
		if strings.Contains(msg, m) {
			return domain.Transient(err)
		}
	}
	return err
}

// Client sends JSON requests to one provider.
type Client struct {
	HTTP    *http.Client
	Service string
	Header  http.Header
}

// New creates a client with the given request timeout.
func New(service string, timeout time.Duration) *Client {
	return &Client{
		HTTP:    &http.Client{Timeout: timeout},
		Service: service,
		Header:  make(http.Header),
	}
}

// PostJSON sends body as JSON to url and decodes the response into out.
func (c *Client) PostJSON(ctx context.Context, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", c.Service, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s: create request: %w", c.Service, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// Get sends a GET request to url and decodes the response into out when
// out is non-nil.
func (c *Client) Get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", c.Service, err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	for k, v := range c.Header {
		req.Header[k] = v
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return RequestError(c.Service, err)
	}
	defer resp.Body.Close()

	if err := CheckStatus(c.Service, resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.Service, err)
	}
	return nil
}

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
