// Package http is the retrying JSON transport shared by the installation
// modules and the WAID client.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/webasyst/webasyst-go/internal/constants"
)

// Static errors for err113 compliance.
var (
	// ErrTransport marks failures that happened before any HTTP status was received.
	ErrTransport = errors.New("transport failure")
	// ErrUnexpectedStatus is wrapped by StatusError.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
)

// TokenManager supplies a bearer token for the Authorization header.
type TokenManager interface {
	GetToken(ctx context.Context) (string, error)
}

// Logger mirrors the public logger interface so this package stays free of
// a dependency on pkg/webasyst.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Request describes one outgoing call. Path may be relative to the client's
// base URL or an absolute URL.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    interface{}
	Headers http.Header
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// StatusError is returned together with the response when the server
// answered with a status of 400 or above.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d", ErrUnexpectedStatus.Error(), e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}

// Client wraps a retryablehttp client.
type Client struct {
	baseURL      string
	tokenManager TokenManager
	logger       Logger
	debug        bool
	userAgent    string
	httpClient   *http.Client
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
	retrying     *retryablehttp.Client
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request/response debug lines.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithRetryConfig sets the retry budget and backoff bounds.
func WithRetryConfig(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.retryMax = retryMax
		c.retryWaitMin = waitMin
		c.retryWaitMax = waitMax
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithHTTPClient injects the network engine. Tests pass an httptest client here.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// NewClient creates a transport rooted at baseURL. tokenManager may be nil.
func NewClient(baseURL string, tokenManager TokenManager, opts ...Option) *Client {
	client := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		tokenManager: tokenManager,
		userAgent:    "webasyst-go/1.0",
		httpClient:   &http.Client{Timeout: constants.DefaultHTTPTimeout},
		retryMax:     constants.DefaultRetryMax,
		retryWaitMin: constants.DefaultRetryWaitMin,
		retryWaitMax: constants.DefaultRetryWaitMax,
	}

	for _, opt := range opts {
		opt(client)
	}

	retrying := retryablehttp.NewClient()
	retrying.HTTPClient = client.httpClient
	retrying.RetryMax = client.retryMax
	retrying.RetryWaitMin = client.retryWaitMin
	retrying.RetryWaitMax = client.retryWaitMax
	retrying.CheckRetry = checkRetry
	retrying.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retrying.Logger = nil

	if client.logger != nil {
		retrying.Logger = &leveledLogger{logger: client.logger}
		retrying.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
			if attempt > 0 {
				client.logger.Warn("Retrying HTTP request", map[string]interface{}{
					"method":  req.Method,
					"url":     redact(req.URL),
					"attempt": attempt,
				})
			}
		}
	}

	client.retrying = retrying

	return client
}

// Do sends the request. Transport failures wrap ErrTransport; a status of
// 400 or above returns the response together with a *StatusError.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	target, err := c.buildURL(req)
	if err != nil {
		return nil, err
	}

	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	if c.tokenManager != nil {
		token, err := c.tokenManager.GetToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("getting bearer token: %w", err)
		}

		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	for key, values := range req.Headers {
		httpReq.Header.Del(key)

		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": req.Method,
			"url":    redact(httpReq.URL),
		})
	}

	httpResp, err := c.retrying.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response body: %w", ErrTransport, err)
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"status": httpResp.StatusCode,
			"bytes":  len(respBody),
		})
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       respBody,
	}

	if resp.StatusCode >= constants.HTTPStatusBadRequest {
		return resp, &StatusError{StatusCode: resp.StatusCode, Body: respBody}
	}

	return resp, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body})
}

// Patch performs a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPatch, Path: path, Body: body})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path})
}

// Stream performs a GET and copies a successful body into dst.
func (c *Client) Stream(ctx context.Context, target string, dst io.Writer) (int64, error) {
	resp, err := c.Do(ctx, &Request{Method: http.MethodGet, Path: target})
	if err != nil {
		return 0, err
	}

	written, err := io.Copy(dst, bytes.NewReader(resp.Body))
	if err != nil {
		return written, fmt.Errorf("writing body: %w", err)
	}

	return written, nil
}

func (c *Client) buildURL(req *Request) (string, error) {
	raw := req.Path
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = c.baseURL + "/" + strings.TrimLeft(raw, "/")
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parsing request URL: %w", err)
	}

	if len(req.Query) > 0 {
		query := parsed.Query()
		for key, values := range req.Query {
			for _, value := range values {
				query.Add(key, value)
			}
		}

		parsed.RawQuery = query.Encode()
	}

	return parsed.String(), nil
}

// encodeBody turns a request body into bytes plus a content type. url.Values
// are form encoded, readers and byte slices are sent as-is, anything else is JSON.
func encodeBody(body interface{}) (interface{}, string, error) {
	switch typed := body.(type) {
	case nil:
		return nil, "", nil
	case url.Values:
		return []byte(typed.Encode()), "application/x-www-form-urlencoded", nil
	case []byte:
		return typed, "", nil
	case io.Reader:
		return typed, "", nil
	default:
		encoded, err := json.Marshal(typed)
		if err != nil {
			return nil, "", fmt.Errorf("encoding request body: %w", err)
		}

		return encoded, "application/json", nil
	}
}

// checkRetry applies the default policy to idempotent methods. Other
// methods carry one-shot codes or create resources, so they are retried
// only when no response arrived at all.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	if resp == nil || resp.Request == nil || isIdempotent(resp.Request.Method) {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}

	return false, nil
}

func isIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

// redact hides the access_token query parameter from logs.
func redact(u *url.URL) string {
	if u == nil {
		return ""
	}

	query := u.Query()
	if query.Has("access_token") {
		query.Set("access_token", "***")

		copied := *u
		copied.RawQuery = query.Encode()

		return copied.String()
	}

	return u.String()
}

// leveledLogger adapts Logger to retryablehttp.LeveledLogger. Per-request
// debug lines come from Do, so the library's own debug chatter is dropped.
type leveledLogger struct {
	logger Logger
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, toFields(keysAndValues))
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, toFields(keysAndValues))
}

func (l *leveledLogger) Debug(string, ...interface{}) {}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, toFields(keysAndValues))
}

func toFields(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}

		fields[key] = keysAndValues[i+1]
	}

	return fields
}
