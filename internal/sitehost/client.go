package sitehost

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
)

const (
	// DefaultEndpoint is the production API base URL, including version.
	DefaultEndpoint = "https://api.sitehost.nz/1.2"

	defaultTimeout   = 60 * time.Second
	defaultPollLimit = 30
	defaultMaxDelay  = 60 * time.Second

	userAgent = "shcloud"
)

// Config carries the credentials and tuning for one API client. All
// fields except APIKey and ClientID have defaults.
type Config struct {
	Endpoint string
	APIKey   string
	ClientID string

	// Timeout bounds each HTTP exchange.
	Timeout time.Duration

	// JobPollLimit bounds how many times WaitForJob polls before giving
	// up; JobMaxDelay caps the backoff between polls.
	JobPollLimit int
	JobMaxDelay  time.Duration
}

// Client calls the SiteHost REST API. It is safe for use from a single
// goroutine per invocation; it holds no mutable state after New.
type Client struct {
	endpoint  string
	apiKey    string
	clientID  string
	pollLimit int
	maxDelay  time.Duration

	httpClient *http.Client
	sleep      func(context.Context, time.Duration) error
	random     func() float64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithSleep replaces the delay function used between job polls.
func WithSleep(fn func(context.Context, time.Duration) error) Option {
	return func(c *Client) {
		c.sleep = fn
	}
}

// WithRandom replaces the jitter source used by the job poll backoff.
// The function must return values in [0, 1).
func WithRandom(fn func() float64) Option {
	return func(c *Client) {
		c.random = fn
	}
}

// New creates a Client with optional configuration.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key must be configured")
	}
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("client id must be configured")
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	endpoint = strings.TrimRight(endpoint, "/")

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	pollLimit := cfg.JobPollLimit
	if pollLimit <= 0 {
		pollLimit = defaultPollLimit
	}
	maxDelay := cfg.JobMaxDelay
	if maxDelay <= 0 {
		maxDelay = defaultMaxDelay
	}

	httpClient := cleanhttp.DefaultPooledClient()
	httpClient.Timeout = timeout

	c := &Client{
		endpoint:   endpoint,
		apiKey:     cfg.APIKey,
		clientID:   cfg.ClientID,
		pollLimit:  pollLimit,
		maxDelay:   maxDelay,
		httpClient: httpClient,
		sleep:      sleepContext,
		random:     rand.Float64,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Envelope is the provider's standard JSON response wrapper. A false
// Status is a logical failure regardless of the HTTP status code.
type Envelope struct {
	Status bool            `json:"status"`
	Msg    string          `json:"msg"`
	Return json.RawMessage `json:"return"`
}

type queryOptions struct {
	skipStatusCheck bool
}

// QueryOption adjusts a single Query call.
type QueryOption func(*queryOptions)

// SkipStatusCheck suppresses the envelope status check for endpoints
// where status false is an expected outcome, such as existence probes.
func SkipStatusCheck() QueryOption {
	return func(o *queryOptions) {
		o.skipStatusCheck = true
	}
}

// Query performs one authenticated API call. The auth parameters are
// always sent in the query string; when body is non-empty they are also
// serialized as the first two fields of the form body. Query never
// retries; retrying belongs to job polling only.
func (c *Client) Query(ctx context.Context, path, method string, query, body *Params, opts ...QueryOption) (*Envelope, error) {
	if method != http.MethodGet && method != http.MethodPost {
		return nil, fmt.Errorf("unsupported method: %s", method)
	}

	var qo queryOptions
	for _, opt := range opts {
		opt(&qo)
	}

	q := NewParams().Add("apikey", c.apiKey).Add("client_id", c.clientID)
	q = query.appendTo(q)
	url := c.endpoint + path + "?" + q.Encode()

	var bodyReader io.Reader
	if body.Len() > 0 {
		form := NewParams().Add("apikey", c.apiKey).Add("client_id", c.clientID)
		form = body.appendTo(form)
		bodyReader = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}

	if resp.StatusCode == http.StatusInternalServerError {
		return nil, &InternalError{Path: path, Body: body.Encode()}
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
		var env Envelope
		if err := json.Unmarshal(respBody, &env); err != nil {
			return nil, fmt.Errorf("decode response for %s %q: %w", method, path, err)
		}
		if !env.Status && !qo.skipStatusCheck {
			return nil, &APIError{Msg: env.Msg, HTTPStatus: resp.StatusCode}
		}
		return &env, nil
	case http.StatusNoContent, http.StatusNotFound:
		// Provider convention: no content is not an error.
		return &Envelope{Status: true}, nil
	default:
		var env Envelope
		_ = json.Unmarshal(respBody, &env)
		return nil, &UnexpectedStatusError{
			Method:     method,
			Path:       path,
			HTTPStatus: resp.StatusCode,
			Msg:        env.Msg,
		}
	}
}

// get issues a status-checked GET.
func (c *Client) get(ctx context.Context, path string, query *Params, opts ...QueryOption) (*Envelope, error) {
	return c.Query(ctx, path, http.MethodGet, query, nil, opts...)
}

// post issues a status-checked POST with a form body.
func (c *Client) post(ctx context.Context, path string, body *Params, opts ...QueryOption) (*Envelope, error) {
	return c.Query(ctx, path, http.MethodPost, nil, body, opts...)
}

// sleepContext blocks for d or until ctx is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
