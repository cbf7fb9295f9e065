package httpclient

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

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/example/ec-storefront/internal/metrics"
)

const defaultTimeout = 15 * time.Second

// TokenSource supplies the bearer token for outgoing requests.
// Any error is treated as "no token".
type TokenSource interface {
	Load(ctx context.Context) (string, error)
}

// API is what the resource services need from the transport.
type API interface {
	Get(ctx context.Context, path string, query url.Values, out any) (*Envelope, error)
	Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error
	Put(ctx context.Context, path string, body, out any, opts ...RequestOption) error
	Delete(ctx context.Context, path string, out any) error
}

var _ API = (*Client)(nil)

// Client talks JSON to the storefront backend.
type Client struct {
	baseURL         string
	http            *http.Client
	tokens          TokenSource
	breakerSettings *BreakerSettings
	breaker         *gobreaker.CircuitBreaker[*rawResponse]
	metrics         *metrics.Metrics
	log             *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout of the default *http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithTokenSource attaches bearer tokens from ts.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithBreaker wraps every call in a circuit breaker.
func WithBreaker(s BreakerSettings) Option {
	return func(c *Client) { c.breakerSettings = &s }
}

// WithMetrics records request durations.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// New creates a Client for baseURL, e.g. http://localhost:5000/api.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.breakerSettings != nil {
		c.breaker = newBreaker(*c.breakerSettings, c.log)
	}
	return c
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// RequestOption adjusts a single outgoing request.
type RequestOption func(*http.Request)

// WithIdempotencyKey sets the Idempotency-Key header.
func WithIdempotencyKey(key string) RequestOption {
	return func(r *http.Request) {
		if key != "" {
			r.Header.Set("Idempotency-Key", key)
		}
	}
}

// WithHeader sets an arbitrary header.
func WithHeader(key, value string) RequestOption {
	return func(r *http.Request) { r.Header.Set(key, value) }
}

// Get issues a GET and decodes the result into out. The envelope carries pagination, if any.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) (*Envelope, error) {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	_, err := c.Do(ctx, http.MethodPost, path, nil, body, out, opts...)
	return err
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	_, err := c.Do(ctx, http.MethodPut, path, nil, body, out, opts...)
	return err
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	_, err := c.Do(ctx, http.MethodDelete, path, nil, nil, out)
	return err
}

// Do performs one request. Non-2xx responses become *HTTPError, transport
// failures *NetworkError. On success the unwrapped result is decoded into out
// when out is non-nil.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any, opts ...RequestOption) (*Envelope, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		payload = b
	}

	call := func() (*rawResponse, error) {
		return c.roundTrip(ctx, method, target, payload, opts)
	}

	var (
		resp *rawResponse
		err  error
	)
	if c.breaker != nil {
		resp, err = c.breaker.Execute(call)
		if isBreakerRejection(err) {
			return nil, fmt.Errorf("%w: %s %s", ErrCircuitOpen, method, target)
		}
	} else {
		resp, err = call()
	}
	if err != nil {
		return nil, err
	}

	env, result := decodeEnvelope(resp.body)
	if out != nil && !isNull(result) {
		if err := json.Unmarshal(result, out); err != nil {
			return &env, fmt.Errorf("decode %s %s response: %w", method, target, err)
		}
	}
	return &env, nil
}

type rawResponse struct {
	status int
	body   []byte
}

func (c *Client) roundTrip(ctx context.Context, method, target string, payload []byte, opts []RequestOption) (*rawResponse, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, &NetworkError{Method: method, URL: target, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token := c.token(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, opt := range opts {
		opt(req)
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(method, 0, time.Since(start))
		c.log.Warn("api_request_failed",
			zap.String("method", method),
			zap.String("url", target),
			zap.Error(err),
		)
		return nil, &NetworkError{Method: method, URL: target, Err: err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	c.metrics.ObserveRequest(method, res.StatusCode, time.Since(start))
	if err != nil {
		return nil, &NetworkError{Method: method, URL: target, Err: err}
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		message, details := decodeErrorBody(res.StatusCode, body)
		c.log.Debug("api_request_rejected",
			zap.String("method", method),
			zap.String("url", target),
			zap.Int("status", res.StatusCode),
			zap.String("message", message),
		)
		return nil, &HTTPError{
			Method:     method,
			URL:        target,
			StatusCode: res.StatusCode,
			Message:    message,
			Details:    details,
		}
	}
	return &rawResponse{status: res.StatusCode, body: body}, nil
}

func (c *Client) token(ctx context.Context) string {
	if c.tokens == nil {
		return ""
	}
	token, err := c.tokens.Load(ctx)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(token)
}
