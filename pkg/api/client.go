package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// prefix is the versioned path every resource lives under.
const prefix = "/api/v1"

// Client performs calls against the SuckYear backend. It is safe for
// concurrent use.
type Client struct {
	httpClient *http.Client
	config     Config
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a new API client with the given configuration.
func NewClient(config Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	c := &Client{
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		config: config,
		logger: logger.With("component", "api-client"),
	}
	if config.RateLimit > 0 {
		burst := config.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(config.RateLimit), burst)
	}
	return c
}

// BaseURL returns the backend origin the client talks to.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// Request describes one backend call. Path is relative to /api/v1.
// At most one of JSON and Form is set.
type Request struct {
	Op     string
	Method string
	Path   string
	Query  url.Values
	JSON   any
	Form   url.Values
	Bearer string
}

// Do executes req and decodes a successful response body into out (which may
// be nil). Every failure is returned as *Error.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	op := req.Op
	if op == "" {
		op = req.Method + " " + req.Path
	}
	requestID := uuid.New().String()
	logger := c.logger.With("op", op, "request_id", requestID)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return transportError(op, err)
		}
	}

	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return &Error{Op: op, Status: StatusNoResponse, Message: MsgNetwork, Err: err}
	}
	httpReq.Header.Set("X-Request-ID", requestID)

	logger.Debug("sending request", "method", httpReq.Method, "url", httpReq.URL.Redacted())
	start := time.Now()

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		apiErr := transportError(op, err)
		logger.Debug("request failed", "error", err, "message", apiErr.Message)
		return apiErr
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return transportError(op, fmt.Errorf("reading response: %w", err))
	}

	logger.Debug("response received",
		"status", httpResp.StatusCode,
		"bytes", len(body),
		"duration", time.Since(start),
	)

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return statusError(op, httpResp.StatusCode, body)
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{
			Op:      op,
			Status:  httpResp.StatusCode,
			Message: MsgMalformed,
			Err:     fmt.Errorf("decoding response: %w", err),
		}
	}
	return nil
}

// newRequest builds the HTTP request with the fixed defaults applied.
func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	u := c.config.BaseURL + prefix + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}

	var body io.Reader
	var contentType string
	switch {
	case req.Form != nil:
		body = strings.NewReader(req.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case req.JSON != nil:
		data, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}

	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.config.UserAgent)

	switch {
	case req.Bearer != "":
		httpReq.Header.Set("Authorization", "Bearer "+req.Bearer)
	case c.config.Username != "" || c.config.Password != "":
		httpReq.SetBasicAuth(c.config.Username, c.config.Password)
	}
	return httpReq, nil
}
