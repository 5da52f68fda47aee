package webasyst

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/webasyst/webasyst-go/internal/constants"
	wahttp "github.com/webasyst/webasyst-go/internal/http"
	"golang.org/x/sync/singleflight"
)

const tokenEndpointPath = "/api.php/token-headless"

// Authenticator obtains authorization codes for installations from WAID.
type Authenticator interface {
	// GetInstallationAPIAuthCodes maps each requested installation id to a
	// one-time authorization code.
	GetInstallationAPIAuthCodes(ctx context.Context, installationIDs []string) Response[map[string]string]
}

// Configuration is the state shared by every module of one APIClient.
type Configuration struct {
	clientID      string
	scope         Scope
	joinedScope   string
	authenticator Authenticator
	cache         TokenCache
	transport     *wahttp.Client
	codec         Codec
	logger        Logger
	interceptors  *InterceptorChain
	tokenFlights  *singleflight.Group
}

// ClientID returns the application client id.
func (c *Configuration) ClientID() string { return c.clientID }

// Scope returns the scope requested for every token.
func (c *Configuration) Scope() Scope { return append(Scope(nil), c.scope...) }

// TokenCache returns the shared cache.
func (c *Configuration) TokenCache() TokenCache { return c.cache }

// Codec returns the shared codec.
func (c *Configuration) Codec() Codec { return c.codec }

// Module sends authenticated requests to one app of one installation.
// Per-app clients embed or hold a *Module.
type Module struct {
	config       *Configuration
	installation Installation
	appName      string
}

// NewModule creates a module for appName on installation.
func NewModule(config *Configuration, installation Installation, appName string) *Module {
	return &Module{
		config:       config,
		installation: installation,
		appName:      appName,
	}
}

// AppName returns the app slug used for error attribution.
func (m *Module) AppName() string { return m.appName }

// URLBase returns the installation origin.
func (m *Module) URLBase() string { return m.installation.URLBase }

// Installation returns the installation the module talks to.
func (m *Module) Installation() Installation { return m.installation }

// Configuration returns the shared configuration.
func (m *Module) Configuration() *Configuration { return m.config }

// Info attributes errors to this module.
func (m *Module) Info() ModuleInfo {
	return ModuleInfo{App: m.appName, Host: m.installation.URLBase}
}

// URL resolves path against the installation origin. Absolute URLs are
// returned unchanged.
func (m *Module) URL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}

	return m.installation.URLBase + "/" + strings.TrimLeft(path, "/")
}

// GetToken returns the access token for this installation and the client
// scope, from cache when possible. Errors are *Error.
func (m *Module) GetToken(ctx context.Context) (*AccessToken, error) {
	if m.config.tokenFlights == nil {
		return m.fetchToken(ctx)
	}

	// The shared fetch outlives any single caller; each caller still stops
	// waiting when its own context ends.
	key := m.installation.URLBase + "\x00" + m.config.joinedScope
	flight := m.config.tokenFlights.DoChan(key, func() (interface{}, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.DefaultHTTPTimeout)
		defer cancel()

		return m.fetchToken(flightCtx)
	})

	select {
	case result := <-flight:
		if result.Err != nil {
			return nil, result.Err
		}

		token, _ := result.Val.(*AccessToken)

		return token, nil
	case <-ctx.Done():
		return nil, WrapError(ctx.Err(), m.Info())
	}
}

func (m *Module) fetchToken(ctx context.Context) (*AccessToken, error) {
	info := m.Info()
	cache := m.config.cache

	token, err := cache.Get(ctx, m.installation.URLBase, m.config.joinedScope)
	if err == nil && token != nil {
		return token, nil
	}

	if err != nil && !errors.Is(err, ErrCacheMiss) {
		m.config.logger.Warn("token cache read failed", m.logFields(err))
	}

	code, fromCache, err := m.authCode(ctx)
	if err != nil {
		return nil, WrapError(err, info)
	}

	token, err = m.exchangeCode(ctx, code)
	if err != nil && fromCache && !IsCode(err, CodeConnectionFailed) {
		// Codes are one-shot; a cached one may already be spent.
		m.config.logger.Debug("cached authorization code rejected", m.logFields(err))

		if clearErr := cache.SetAuthCode(ctx, m.installation.ID, ""); clearErr != nil {
			m.config.logger.Warn("failed to drop authorization code", m.logFields(clearErr))
		}

		code, err = m.authCodeFromWAID(ctx)
		if err != nil {
			return nil, WrapError(err, info)
		}

		token, err = m.exchangeCode(ctx, code)
	}

	if err != nil {
		return nil, WrapError(err, info)
	}

	if err := cache.Set(ctx, m.installation.URLBase, m.config.joinedScope, token); err != nil {
		m.config.logger.Warn("token cache write failed", m.logFields(err))
	}

	return token, nil
}

func (m *Module) authCode(ctx context.Context) (string, bool, error) {
	code, err := m.config.cache.GetAuthCode(ctx, m.installation.ID)
	if err == nil && code != "" {
		return code, true, nil
	}

	if err != nil && !errors.Is(err, ErrCacheMiss) {
		m.config.logger.Warn("authorization code cache read failed", m.logFields(err))
	}

	code, err = m.authCodeFromWAID(ctx)

	return code, false, err
}

func (m *Module) authCodeFromWAID(ctx context.Context) (string, error) {
	codes, err := m.config.authenticator.GetInstallationAPIAuthCodes(ctx, []string{m.installation.ID}).Unwrap()
	if err != nil {
		return "", err
	}

	code := codes[m.installation.ID]
	if code == "" {
		return "", NewErrorBuilder().
			WithModule(m.Info()).
			WithErrorInfo(CodeWAIDError, ErrAuthCodeUnavailable.Error()).
			WithCause(ErrAuthCodeUnavailable).
			Build()
	}

	if err := m.config.cache.SetAuthCode(ctx, m.installation.ID, code); err != nil {
		m.config.logger.Warn("authorization code cache write failed", m.logFields(err))
	}

	return code, nil
}

func (m *Module) exchangeCode(ctx context.Context, code string) (*AccessToken, error) {
	info := m.Info()

	resp, err := m.config.transport.Do(ctx, &wahttp.Request{
		Method: http.MethodPost,
		Path:   m.installation.URLBase + tokenEndpointPath,
		Body: url.Values{
			"code":      []string{code},
			"scope":     []string{m.config.joinedScope},
			"client_id": []string{m.config.clientID},
		},
		Headers: http.Header{"Accept": []string{"application/json"}},
	})
	if err != nil {
		return nil, WrapError(err, info)
	}

	token := &AccessToken{}
	if err := m.config.codec.Unmarshal(resp.Body, token); err != nil {
		return nil, NewErrorBuilder().
			WithModule(info).
			WithHTTPResponse(resp.StatusCode, resp.Body).
			WithCause(err).
			Build()
	}

	if token.HasError() {
		message := *token.Error
		if token.ErrorDescription != nil && *token.ErrorDescription != "" {
			message = *token.ErrorDescription
		}

		return nil, NewErrorBuilder().
			WithModule(info).
			WithHTTPResponse(resp.StatusCode, resp.Body).
			WithErrorInfo(*token.Error, message).
			Build()
	}

	if token.Token == "" {
		return nil, NewErrorBuilder().
			WithModule(info).
			WithHTTPResponse(resp.StatusCode, resp.Body).
			WithErrorInfo(CodeInvalidErrorObject, ErrEmptyAccessToken.Error()).
			WithCause(ErrEmptyAccessToken).
			Build()
	}

	return token, nil
}

// configureRequest attaches the access token. Every authenticated call
// passes through here before anything is sent.
func (m *Module) configureRequest(ctx context.Context, req *APIRequest) error {
	token, err := m.GetToken(ctx)
	if err != nil {
		return err
	}

	if req.Query == nil {
		req.Query = url.Values{}
	}

	if req.Headers == nil {
		req.Headers = http.Header{}
	}

	req.Query.Set("access_token", token.Token)
	req.Headers.Set("Accept", "application/json")

	return nil
}

// RequestOption tweaks a request after the token has been attached.
type RequestOption func(*APIRequest)

// WithQuery adds a query parameter.
func WithQuery(key, value string) RequestOption {
	return func(req *APIRequest) {
		req.Query.Add(key, value)
	}
}

// WithHeader sets a header.
func WithHeader(key, value string) RequestOption {
	return func(req *APIRequest) {
		req.Headers.Set(key, value)
	}
}

// WithJSONBody sends body encoded with the configured codec.
func WithJSONBody(body interface{}) RequestOption {
	return func(req *APIRequest) {
		req.Body = body
		req.Headers.Set("Content-Type", "application/json")
	}
}

// WithFormBody sends a form encoded body.
func WithFormBody(values url.Values) RequestOption {
	return func(req *APIRequest) {
		req.Body = values
		req.Headers.Set("Content-Type", "application/x-www-form-urlencoded")
	}
}

// Do sends an authenticated request and returns the raw response. Any
// failure, including a status of 400 or above, is an *Error.
func (m *Module) Do(ctx context.Context, method, path string, opts ...RequestOption) (*APIResponse, error) {
	info := m.Info()

	req := &APIRequest{
		Method:  method,
		URL:     m.URL(path),
		Query:   url.Values{},
		Headers: http.Header{},
	}

	if method == http.MethodPost {
		req.Headers.Set("Content-Type", "application/json")
	}

	if err := m.configureRequest(ctx, req); err != nil {
		return nil, WrapError(err, info)
	}

	for _, opt := range opts {
		opt(req)
	}

	if err := m.config.interceptors.ExecuteRequestInterceptors(ctx, req); err != nil {
		return nil, WrapError(err, info)
	}

	body, err := m.encodeBody(req.Body)
	if err != nil {
		return nil, WrapError(err, info)
	}

	transportResp, err := m.config.transport.Do(ctx, &wahttp.Request{
		Method:  req.Method,
		Path:    req.URL,
		Query:   req.Query,
		Body:    body,
		Headers: req.Headers.Clone(),
	})

	resp := &APIResponse{Error: err}
	if transportResp != nil {
		resp.StatusCode = transportResp.StatusCode
		resp.Headers = transportResp.Headers
		resp.Body = transportResp.Body
	}

	if interceptErr := m.config.interceptors.ExecuteResponseInterceptors(ctx, req, resp); interceptErr != nil {
		m.config.logger.Warn("response interceptor failed", m.logFields(interceptErr))
	}

	if err != nil {
		return nil, WrapError(err, info)
	}

	return resp, nil
}

// encodeBody runs JSON bodies through the configured codec; forms and raw
// bytes are passed to the transport as they are.
func (m *Module) encodeBody(body interface{}) (interface{}, error) {
	switch body.(type) {
	case nil, url.Values, []byte:
		return body, nil
	default:
		return m.config.codec.Marshal(body)
	}
}

// Get sends an authenticated GET and decodes the body into T.
func Get[T any](ctx context.Context, m *Module, path string, opts ...RequestOption) Response[T] {
	return send[T](ctx, m, http.MethodGet, path, opts)
}

// Post sends an authenticated POST and decodes the body into T. The body
// defaults to JSON; use WithFormBody for forms.
func Post[T any](ctx context.Context, m *Module, path string, opts ...RequestOption) Response[T] {
	return send[T](ctx, m, http.MethodPost, path, opts)
}

func send[T any](ctx context.Context, m *Module, method, path string, opts []RequestOption) Response[T] {
	resp, err := m.Do(ctx, method, path, opts...)
	if err != nil {
		return Failure[T](err)
	}

	var value T
	if err := m.config.codec.Unmarshal(resp.Body, &value); err != nil {
		return Failure[T](NewErrorBuilder().
			WithModule(m.Info()).
			WithHTTPResponse(resp.StatusCode, resp.Body).
			WithCause(err).
			Build())
	}

	return Success(value)
}

func (m *Module) logFields(err error) map[string]interface{} {
	return map[string]interface{}{
		"app":   m.appName,
		"host":  m.installation.URLBase,
		"error": err.Error(),
	}
}
