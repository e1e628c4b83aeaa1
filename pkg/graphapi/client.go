package graphapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"frienddump/pkg/config"
	errs "frienddump/pkg/errors"
	"frienddump/pkg/logger"
	"frienddump/pkg/ratelimit"
)

// Response is a fully read HTTP response
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the status code is 2xx
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client talks to the graph API and the auxiliary token/login/uid services
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	endpoints  config.APIConfig
	limiter    ratelimit.Limiter
	logger     logger.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLimiter throttles every request through l
func WithLimiter(l ratelimit.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// NewClient creates a client from the api and http sections of cfg
func NewClient(cfg *config.Config, log logger.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: cfg.HTTP.Timeout},
		headers: map[string]string{
			"User-Agent":      cfg.HTTP.UserAgent,
			"Accept-Language": cfg.HTTP.AcceptLanguage,
			"Accept":          "application/json, text/plain, */*",
		},
		endpoints: cfg.API,
		limiter:   ratelimit.PerMinute(cfg.RateLimit.RequestsPerMinute),
		logger:    logger.OrGlobal(log),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoints returns the configured API endpoints
func (c *Client) Endpoints() config.APIConfig {
	return c.endpoints
}

// Do sends req with the client's default headers and reads the whole body.
// Non-2xx statuses are not errors; callers inspect Response.StatusCode.
func (c *Client) Do(req *http.Request) (*Response, error) {
	for key, value := range c.headers {
		if value != "" && req.Header.Get(key) == "" {
			req.Header.Set(key, value)
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, c.transportError(req, err)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.transportError(req, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.transportError(req, err)
	}

	logger.LogRequest(c.logger, req.Method, req.URL.Host+req.URL.Path, resp.StatusCode, time.Since(start))

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

func (c *Client) transportError(req *http.Request, err error) error {
	errType := errs.ErrorTypeNetwork
	if errs.IsTimeout(err) {
		errType = errs.ErrorTypeTimeout
	}

	c.logger.DebugWithFields("HTTP request failed", map[string]interface{}{
		"method":   req.Method,
		"endpoint": req.URL.Host + req.URL.Path,
		"type":     string(errType),
		"error":    err.Error(),
	})

	return &errs.Error{
		Type:    errType,
		Message: fmt.Sprintf("%s %s: %v", req.Method, req.URL.Host+req.URL.Path, err),
		Err:     err,
	}
}

// Get issues a GET with the cookie attached when non-empty
func (c *Client) Get(ctx context.Context, url, cookie string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &errs.Error{Type: errs.ErrorTypeUnknown, Message: fmt.Sprintf("failed to create request: %v", err), Err: err}
	}
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	return c.Do(req)
}

// PostJSON marshals payload and POSTs it to url
func (c *Client) PostJSON(ctx context.Context, url string, payload interface{}) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &errs.Error{Type: errs.ErrorTypeUnknown, Message: fmt.Sprintf("failed to encode request: %v", err), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &errs.Error{Type: errs.ErrorTypeUnknown, Message: fmt.Sprintf("failed to create request: %v", err), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	return c.Do(req)
}

// Decode unmarshals the response body into target
func (r *Response) Decode(target interface{}) error {
	if err := json.Unmarshal(r.Body, target); err != nil {
		preview := string(r.Body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		return &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse JSON: %v (body: %q)", err, preview),
			Code:    r.StatusCode,
			Body:    r.Body,
			Err:     err,
		}
	}
	return nil
}
