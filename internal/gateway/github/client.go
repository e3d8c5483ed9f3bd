// Package github implements the upstream request executor: a thin GitHub
// REST client with bounded retry, rate-limit-aware backoff and response
// metadata parsing. It deliberately does not wrap a generated SDK; the
// gateway needs direct access to status codes and headers to make its retry
// and caching decisions.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultBaseURL   = "https://api.github.com"
	DefaultUserAgent = "reposcope-gateway"

	// DefaultMaxRetries bounds re-attempts for transient failures, so a
	// request makes at most DefaultMaxRetries+1 attempts.
	DefaultMaxRetries = 3

	acceptHeader  = "application/vnd.github+json"
	apiVersion    = "2022-11-28"
	backoffBase   = 300 * time.Millisecond
	jitterPerStep = 100 * time.Millisecond
)

// Request describes one logical upstream call.
type Request struct {
	// Method defaults to GET.
	Method string
	// Path is joined onto the client's base URL, e.g. "/user/repos".
	Path string
	// Token is the bearer credential used for this call.
	Token string
	// Query holds parameters; empty values are not serialized.
	Query url.Values
	// Body, when non-nil, is marshaled as the JSON request body.
	Body any
	// MaxRetries overrides the client default when set.
	MaxRetries *int
}

// Result is the outcome of an executed request. Ordinary upstream error
// statuses are reported here, not as Go errors; only transport-level
// failures surface as errors from Do.
type Result struct {
	StatusCode int
	Success    bool

	// Data is the decoded JSON body, nil when the body was not valid JSON.
	Data json.RawMessage
	// Body is the raw response text, kept for non-JSON error payloads.
	Body string

	RateLimit  RateLimit
	Pagination Pagination
}

// ErrorPayload returns the upstream error body: parsed JSON when possible,
// the raw text otherwise.
func (r *Result) ErrorPayload() any {
	if len(r.Data) > 0 {
		var v any
		if err := json.Unmarshal(r.Data, &v); err == nil {
			return v
		}
	}
	if r.Body != "" {
		return r.Body
	}
	return nil
}

// RateLimited reports whether this response is an upstream quota
// rejection: a 429, or a 403 whose remaining quota header reads zero.
func (r *Result) RateLimited() bool {
	if r.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return r.StatusCode == http.StatusForbidden && r.RateLimit.Remaining == 0 && r.RateLimit.hasRemaining
}

// ErrorMessage extracts GitHub's "message" field when present.
func (r *Result) ErrorMessage() string {
	var payload struct {
		Message string `json:"message"`
	}
	if len(r.Data) > 0 && json.Unmarshal(r.Data, &payload) == nil && payload.Message != "" {
		return payload.Message
	}
	return http.StatusText(r.StatusCode)
}

// Client executes upstream calls. Sleep, Jitter and Now are injectable so
// tests can assert the delay math without waiting on a wall clock.
type Client struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
	MaxRetries int

	Sleep  func(time.Duration)
	Jitter func(attempt int) time.Duration
	Now    func() time.Time
}

// NewClient returns a Client with production defaults.
func NewClient() *Client {
	return &Client{
		BaseURL:    DefaultBaseURL,
		UserAgent:  DefaultUserAgent,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		MaxRetries: DefaultMaxRetries,
		Sleep:      time.Sleep,
		Jitter:     defaultJitter,
		Now:        time.Now,
	}
}

// defaultJitter spreads concurrent retries apart: a random delay scaling
// with the attempt index.
func defaultJitter(attempt int) time.Duration {
	return time.Duration(rand.Float64() * float64(jitterPerStep) * float64(attempt+1))
}

// Do performs one logical upstream call with bounded resilience:
//
//   - 2xx returns success immediately
//   - 429, or 403 with zero remaining quota, waits retry-after plus jitter
//     and retries while attempts remain
//   - 5xx backs off exponentially (300ms * 2^attempt plus jitter) and retries
//   - any other status returns the failure immediately
func (c *Client) Do(ctx context.Context, req Request) (*Result, error) {
	maxRetries := c.MaxRetries
	if req.MaxRetries != nil {
		maxRetries = *req.MaxRetries
	}

	var result *Result
	for attempt := 0; attempt <= maxRetries; attempt++ {
		res, err := c.attempt(ctx, req)
		if err != nil {
			return nil, err
		}
		result = res

		if res.Success {
			return res, nil
		}

		last := attempt == maxRetries

		switch {
		case res.RateLimited():
			if last {
				return res, nil
			}
			delay := time.Duration(res.RateLimit.RetryAfter)*time.Second + c.Jitter(attempt)
			if err := c.sleepCtx(ctx, delay); err != nil {
				return nil, err
			}

		case res.StatusCode >= 500:
			if last {
				return res, nil
			}
			delay := backoffBase*(1<<attempt) + c.Jitter(attempt)
			if err := c.sleepCtx(ctx, delay); err != nil {
				return nil, err
			}

		default:
			// Permanent 4xx: no retry.
			return res, nil
		}
	}

	return result, nil
}

func (c *Client) sleepCtx(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.Sleep(d)
	return nil
}

// attempt issues a single HTTP request and parses the response metadata.
func (c *Client) attempt(ctx context.Context, req Request) (*Result, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	target := c.BaseURL + req.Path
	if q := encodeQuery(req.Query); q != "" {
		target += "?" + q
	}

	var body io.Reader
	if req.Body != nil {
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("github: marshal request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("github: create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	httpReq.Header.Set("Accept", acceptHeader)
	httpReq.Header.Set("User-Agent", c.UserAgent)
	httpReq.Header.Set("X-GitHub-Api-Version", apiVersion)
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("github: %s %s: %w", method, req.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("github: read response body: %w", err)
	}

	res := &Result{
		StatusCode: resp.StatusCode,
		Success:    resp.StatusCode >= 200 && resp.StatusCode < 300,
		Body:       string(raw),
		RateLimit:  parseRateLimit(resp.Header),
		Pagination: parsePagination(resp.Header, req.Query),
	}
	if json.Valid(raw) {
		res.Data = json.RawMessage(raw)
	}

	// A quota rejection without an explicit Retry-After still carries a
	// reset stamp.
	if res.RateLimited() && res.RateLimit.RetryAfter == 0 {
		res.RateLimit.RetryAfter = retryAfterFromReset(res.RateLimit.Reset, c.Now())
	}

	return res, nil
}

// encodeQuery serializes non-empty parameters in sorted key order.
func encodeQuery(q url.Values) string {
	if len(q) == 0 {
		return ""
	}
	filtered := url.Values{}
	for key, vals := range q {
		for _, v := range vals {
			if strings.TrimSpace(v) != "" {
				filtered.Add(key, v)
			}
		}
	}
	return filtered.Encode()
}
