// Package wrike is the HTTP client for the Wrike REST API v4: task queries,
// task mutations, comments, workflows and contacts.
package wrike

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/sony/gobreaker/v2"

	"github.com/yukikurage/workload-dashboard/internal/constants"
	apierrors "github.com/yukikurage/workload-dashboard/internal/errors"
)

var ErrMissingAccessToken = errors.New("wrike access token missing; configure WRIKE_ACCESS_TOKEN or WRIKE_TOKEN")

// retryPolicy tracks whether a request may still trigger a credential
// refresh. A retried request always runs with noRefresh.
type retryPolicy int

const (
	mayRefresh retryPolicy = iota
	noRefresh
)

// Client talks to one Wrike account.
type Client struct {
	tokens     *TokenManager
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	breaker    *gobreaker.CircuitBreaker[response]

	// supportsDescription is cleared for the life of the process once the
	// API rejects the description field.
	supportsDescription atomic.Bool
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the https://{host}/api/v4 base, mainly for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithBreaker guards outbound calls with a circuit breaker.
func WithBreaker(settings BreakerSettings) Option {
	return func(c *Client) {
		c.breaker = newBreaker(settings, c.logger)
	}
}

func NewClient(tokens *TokenManager, opts ...Option) *Client {
	c := &Client{
		tokens:     tokens,
		httpClient: &http.Client{Timeout: constants.DefaultHTTPTimeout},
		logger:     slog.Default(),
	}
	c.supportsDescription.Store(true)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tokens exposes the credential manager, used by the health check.
func (c *Client) Tokens() *TokenManager {
	return c.tokens
}

// SupportsDescription reports whether task queries still request the
// description field.
func (c *Client) SupportsDescription() bool {
	return c.supportsDescription.Load()
}

type request struct {
	method string
	path   string
	query  url.Values
	form   url.Values
}

type response struct {
	status int
	body   []byte
}

type errorPayload struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"errorDescription"`
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, request{method: http.MethodGet, path: path, query: query}, out, mayRefresh)
}

func (c *Client) put(ctx context.Context, path string, form url.Values) error {
	return c.do(ctx, request{method: http.MethodPut, path: path, form: form}, nil, mayRefresh)
}

func (c *Client) post(ctx context.Context, path string, form url.Values) error {
	return c.do(ctx, request{method: http.MethodPost, path: path, form: form}, nil, mayRefresh)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: path}, nil, mayRefresh)
}

// do sends req and decodes a successful body into out. A token error under
// mayRefresh triggers one refresh (or a pick-up of a token that changed in
// the credential store) followed by exactly one retry.
func (c *Client) do(ctx context.Context, req request, out any, policy retryPolicy) error {
	if err := c.tokens.Sync(ctx); err != nil {
		c.logger.Warn("credential sync failed", "error", err)
	}

	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return &apierrors.AuthError{Message: "wrike access token unavailable", Err: err}
	}

	resp, err := c.send(ctx, req, token)
	if err != nil {
		return err
	}
	if resp.status >= 200 && resp.status < 300 {
		if out == nil || len(resp.body) == 0 {
			return nil
		}
		if err := json.Unmarshal(resp.body, out); err != nil {
			return fmt.Errorf("decode wrike response for %s %s: %w", req.method, req.path, err)
		}
		return nil
	}

	upstream := toUpstreamError(resp)
	if !isTokenError(upstream) {
		return upstream
	}

	if policy == mayRefresh {
		if _, err := c.tokens.Refresh(ctx); err == nil {
			return c.do(ctx, req, out, noRefresh)
		} else if !errors.Is(err, ErrRefreshUnavailable) {
			c.logger.Warn("token refresh failed", "error", err)
		}
		if err := c.tokens.Sync(ctx); err == nil {
			if latest := c.tokens.Current().AccessToken; latest != "" && latest != token {
				return c.do(ctx, req, out, noRefresh)
			}
		}
	}
	return &apierrors.AuthError{Message: "wrike rejected the access token", Err: upstream}
}

func (c *Client) send(ctx context.Context, req request, token string) (response, error) {
	call := func() (response, error) {
		resp, err := c.roundTrip(ctx, req, token)
		if err != nil {
			return response{}, err
		}
		if resp.status >= http.StatusInternalServerError {
			return resp, &serverStatusError{resp: resp}
		}
		return resp, nil
	}

	var (
		resp response
		err  error
	)
	if c.breaker != nil {
		resp, err = c.breaker.Execute(call)
	} else {
		resp, err = call()
	}

	var statusErr *serverStatusError
	if errors.As(err, &statusErr) {
		return statusErr.resp, nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return response{}, &apierrors.UpstreamError{
			Status:  http.StatusServiceUnavailable,
			Code:    "circuit_open",
			Message: "wrike temporarily unavailable after repeated failures",
		}
	}
	if err != nil {
		return response{}, fmt.Errorf("wrike %s %s: %w", req.method, req.path, err)
	}
	return resp, nil
}

func (c *Client) roundTrip(ctx context.Context, req request, token string) (response, error) {
	endpoint := c.endpoint(req.path)
	if len(req.query) > 0 {
		endpoint += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.form != nil && req.method != http.MethodGet {
		body = strings.NewReader(req.form.Encode())
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint, body)
	if err != nil {
		return response{}, err
	}
	httpReq.Header.Set("Authorization", "bearer "+token)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return response{}, err
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return response{}, err
	}
	return response{status: httpResp.StatusCode, body: data}, nil
}

func (c *Client) endpoint(path string) string {
	if c.baseURL != "" {
		return c.baseURL + path
	}
	host := c.tokens.Host()
	if host == "" {
		host = DefaultHost
	}
	return "https://" + host + "/api/v4" + path
}

type serverStatusError struct {
	resp response
}

func (e *serverStatusError) Error() string {
	return fmt.Sprintf("wrike server error: status=%d", e.resp.status)
}

func toUpstreamError(resp response) *apierrors.UpstreamError {
	var payload errorPayload
	_ = json.Unmarshal(bytes.TrimSpace(resp.body), &payload)

	message := payload.ErrorDescription
	if message == "" {
		message = payload.Error
	}
	if message == "" {
		message = http.StatusText(resp.status)
	}
	return &apierrors.UpstreamError{
		Status:  resp.status,
		Code:    payload.Error,
		Message: message,
	}
}

func isTokenError(err *apierrors.UpstreamError) bool {
	return err.Status == http.StatusUnauthorized || err.Code == "invalid_token"
}

// isUnsupportedDescriptionError detects the 400 answer returned by
// deployments that do not know the description field.
func isUnsupportedDescriptionError(err error) bool {
	var upstream *apierrors.UpstreamError
	if !errors.As(err, &upstream) || upstream.Status != http.StatusBadRequest {
		return false
	}
	return upstream.MentionsField("description", "field", "unknown", "invalid", "unsupported")
}
