// Package waid is the client of Webasyst ID, the identity service that
// signs users in and issues authorization codes for their installations.
package waid

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/oklog/ulid/v2"
	"github.com/webasyst/webasyst-go/internal/constants"
	wahttp "github.com/webasyst/webasyst-go/internal/http"
	"github.com/webasyst/webasyst-go/pkg/webasyst"
	"golang.org/x/oauth2"
)

const (
	pathSignOut          = "/id/api/v1/delete/"
	pathCloudExtend      = "/id/api/v1/cloud/extend/"
	pathCloudSignup      = "/id/api/v1/cloud/signup/"
	pathCloudRename      = "/id/api/v1/cloud/rename/"
	pathForceLicense     = "/id/api/v1/licenses/force"
	pathInstallations    = "/id/api/v1/installations/"
	pathConnect          = "/id/api/v1/installations/connect/"
	pathProfile          = "/id/api/v1/profile/"
	pathUserpic          = "/id/api/v1/profile/userpic/"
	pathMergeCode        = "/id/api/v1/profile/mergecode/"
	pathClientTokens     = "/id/api/v1/auth/client/"
	pathQRToken          = "/id/oauth2/auth/qr/token/"
	pathHeadlessCode     = "/id/oauth2/auth/headless/code/"
	pathHeadlessToken    = "/id/oauth2/auth/headless/token/"
	pathTokenRefresh     = "/id/oauth2/auth/token/"
	contentTypeForm      = "application/x-www-form-urlencoded"
	defaultUserAgentWAID = "webasyst-go-waid/1.0"
)

// Config configures a Client.
type Config struct {
	// Host is the WAID origin, constants.DefaultWAIDHost when empty.
	Host string
	// ClientID is the application client id. Required.
	ClientID string
	// Auth supplies the user's access token. Required for every call except
	// the sign-in flows and DownloadUserpic.
	Auth AuthInterface
	// HTTPClient is the network engine, a pooled client when nil.
	HTTPClient *http.Client
	Logger     webasyst.Logger
	Debug      bool
	UserAgent  string
	// RetryMax follows webasyst.Config.RetryMax.
	RetryMax int
	// DeviceID identifies this device to WAID. A ULID is generated when empty.
	DeviceID string
}

// Client talks to WAID. It implements webasyst.Authenticator.
type Client struct {
	host      string
	clientID  string
	deviceID  string
	auth      AuthInterface
	transport *wahttp.Client
	logger    webasyst.Logger
	now       func() time.Time
}

var _ webasyst.Authenticator = (*Client)(nil)

// New creates a WAID client.
func New(cfg *Config) (*Client, error) {
	if cfg == nil || cfg.ClientID == "" {
		return nil, ErrClientIDRequired
	}

	host := strings.TrimRight(cfg.Host, "/")
	if host == "" {
		host = constants.DefaultWAIDHost
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = cleanhttp.DefaultPooledClient()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = webasyst.NopLogger()
	}

	deviceID := cfg.DeviceID
	if deviceID == "" {
		deviceID = ulid.Make().String()
	}

	retryMax := cfg.RetryMax

	switch {
	case retryMax < 0:
		retryMax = 0
	case retryMax == 0:
		retryMax = constants.DefaultRetryMax
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgentWAID
	}

	transport := wahttp.NewClient(host, nil,
		wahttp.WithHTTPClient(httpClient),
		wahttp.WithLogger(logger),
		wahttp.WithDebug(cfg.Debug),
		wahttp.WithUserAgent(userAgent),
		wahttp.WithRetryConfig(retryMax, constants.DefaultRetryWaitMin, constants.DefaultRetryWaitMax),
	)

	return &Client{
		host:      host,
		clientID:  cfg.ClientID,
		deviceID:  deviceID,
		auth:      cfg.Auth,
		transport: transport,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Host returns the WAID origin.
func (c *Client) Host() string { return c.host }

// ClientID returns the application client id.
func (c *Client) ClientID() string { return c.clientID }

// DeviceID returns the device id sent with sign-in requests.
func (c *Client) DeviceID() string { return c.deviceID }

// OAuth2Config describes the WAID token endpoint, for refreshing user tokens.
func (c *Client) OAuth2Config(scope webasyst.Scope) *oauth2.Config {
	return &oauth2.Config{
		ClientID: c.clientID,
		Endpoint: oauth2.Endpoint{
			TokenURL:  c.host + pathTokenRefresh,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		Scopes: scope,
	}
}

func (c *Client) info() webasyst.ModuleInfo {
	return webasyst.ModuleInfo{App: AppName, Host: c.host}
}

// normalize turns any failure into an *Error attributed to WAID. Errors the
// normalizer cannot classify become waid_error.
func (c *Client) normalize(err error) *webasyst.Error {
	if errors.Is(err, ErrFreshTokenUnavailable) || errors.Is(err, ErrAuthRequired) {
		return webasyst.NewErrorBuilder().
			WithModule(c.info()).
			WithCause(err).
			WithErrorInfo(webasyst.CodeWAIDError, err.Error()).
			Build()
	}

	wrapped := webasyst.WrapError(err, c.info())
	if wrapped.Code == webasyst.CodeUnrecognized {
		waidErr := *wrapped
		waidErr.Code = webasyst.CodeWAIDError

		return &waidErr
	}

	return wrapped
}

// do sends req, with the user's bearer token when authenticated is set.
func (c *Client) do(ctx context.Context, req *wahttp.Request, authenticated bool) (*wahttp.Response, error) {
	if !authenticated {
		return c.transport.Do(ctx, req)
	}

	if c.auth == nil {
		return nil, ErrAuthRequired
	}

	var resp *wahttp.Response

	err := c.auth.WithFreshAccessToken(ctx, func(ctx context.Context, accessToken string) error {
		headers := req.Headers.Clone()
		if headers == nil {
			headers = http.Header{}
		}

		headers.Set("Authorization", "Bearer "+accessToken)

		withToken := *req
		withToken.Headers = headers

		var err error

		resp, err = c.transport.Do(ctx, &withToken)

		return err
	})

	return resp, err
}

func call[T any](ctx context.Context, c *Client, req *wahttp.Request, authenticated bool) webasyst.Response[T] {
	resp, err := c.do(ctx, req, authenticated)
	if err != nil {
		return webasyst.Failure[T](c.normalize(err))
	}

	var value T
	if err := json.Unmarshal(resp.Body, &value); err != nil {
		return webasyst.Failure[T](webasyst.NewErrorBuilder().
			WithModule(c.info()).
			WithHTTPResponse(resp.StatusCode, resp.Body).
			WithCause(err).
			Build())
	}

	return webasyst.Success(value)
}

// callNoContent succeeds on any status below 400, or only on want when it is
// not zero. The body is ignored on success.
func callNoContent(ctx context.Context, c *Client, req *wahttp.Request, want int) webasyst.Response[struct{}] {
	resp, err := c.do(ctx, req, true)
	if err != nil {
		return webasyst.Failure[struct{}](c.normalize(err))
	}

	if want != 0 && resp.StatusCode != want {
		return webasyst.Failure[struct{}](webasyst.NewErrorBuilder().
			WithModule(c.info()).
			WithCause(ErrUnexpectedStatus).
			WithHTTPResponse(resp.StatusCode, resp.Body).
			Build())
	}

	return webasyst.Success(struct{}{})
}

// GetInstallationAPIAuthCodes exchanges the user's token for one
// authorization code per installation id. Any failure is an *Error.
func (c *Client) GetInstallationAPIAuthCodes(ctx context.Context, installationIDs []string) webasyst.Response[map[string]string] {
	ids := make([]string, 0, len(installationIDs))
	seen := make(map[string]struct{}, len(installationIDs))

	for _, id := range installationIDs {
		if _, ok := seen[id]; ok {
			continue
		}

		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	return call[map[string]string](ctx, c, &wahttp.Request{
		Method: http.MethodPost,
		Path:   pathClientTokens,
		Body:   clientTokenRequest{ClientID: ids},
	}, true)
}

// GetInstallationList returns the installations the user has access to.
func (c *Client) GetInstallationList(ctx context.Context) webasyst.Response[[]Installation] {
	resp := call[webasyst.FlexList[Installation]](ctx, c, &wahttp.Request{
		Method: http.MethodGet,
		Path:   pathInstallations,
	}, true)

	list, err := resp.Unwrap()
	if err != nil {
		return webasyst.Failure[[]Installation](err)
	}

	return webasyst.Success([]Installation(list))
}

// GetUserInfo returns the user's profile.
func (c *Client) GetUserInfo(ctx context.Context) webasyst.Response[UserInfo] {
	return call[UserInfo](ctx, c, &wahttp.Request{Method: http.MethodGet, Path: pathProfile}, true)
}

// UpdateUserInfo changes the non-nil fields of the profile.
func (c *Client) UpdateUserInfo(ctx context.Context, update UpdateUserInfo) webasyst.Response[UserInfo] {
	return call[UserInfo](ctx, c, &wahttp.Request{
		Method: http.MethodPatch,
		Path:   pathProfile,
		Body:   update,
	}, true)
}

// CloudSignup creates a cloud installation.
func (c *Client) CloudSignup(ctx context.Context, signup CloudSignup) webasyst.Response[CloudSignupResponse] {
	return call[CloudSignupResponse](ctx, c, &wahttp.Request{
		Method: http.MethodPost,
		Path:   pathCloudSignup,
		Body:   signup,
	}, true)
}

// CloudExtend moves the expiry of a cloud installation. WAID answers 204;
// any other status is a failure.
func (c *Client) CloudExtend(ctx context.Context, clientID string, expireDate time.Time) webasyst.Response[struct{}] {
	return callNoContent(ctx, c, &wahttp.Request{
		Method: http.MethodPost,
		Path:   pathCloudExtend,
		Body:   cloudExtendRequest{ClientID: clientID, ExpireDate: webasyst.Date{Time: expireDate}},
	}, http.StatusNoContent)
}

// CloudRename changes the first label of a cloud installation's domain.
func (c *Client) CloudRename(ctx context.Context, clientID, domain string) webasyst.Response[struct{}] {
	return callNoContent(ctx, c, &wahttp.Request{
		Method: http.MethodPost,
		Path:   pathCloudRename,
		Body:   cloudRenameRequest{ClientID: clientID, Domain: domain},
	}, 0)
}

// ForceLicense binds the license of product slug to an installation.
func (c *Client) ForceLicense(ctx context.Context, clientID, slug string) webasyst.Response[struct{}] {
	return callNoContent(ctx, c, &wahttp.Request{
		Method: http.MethodPost,
		Path:   pathForceLicense,
		Body:   forceLicenseRequest{ClientID: clientID, Slug: slug},
	}, 0)
}

// ConnectInstallation attaches an existing installation to the user.
func (c *Client) ConnectInstallation(ctx context.Context, installationID string) webasyst.Response[Installation] {
	return call[Installation](ctx, c, &wahttp.Request{
		Method: http.MethodPost,
		Path:   pathConnect,
		Body:   map[string]string{"client_id": installationID},
	}, true)
}

// SignOut revokes the user's WAID session.
func (c *Client) SignOut(ctx context.Context) webasyst.Response[struct{}] {
	return callNoContent(ctx, c, &wahttp.Request{Method: http.MethodDelete, Path: pathSignOut}, 0)
}

// UploadUserpic replaces the user's picture with the image read from r.
func (c *Client) UploadUserpic(ctx context.Context, contentType string, r io.Reader) webasyst.Response[struct{}] {
	return callNoContent(ctx, c, &wahttp.Request{
		Method:  http.MethodPost,
		Path:    pathUserpic,
		Body:    r,
		Headers: http.Header{"Content-Type": []string{contentType}},
	}, 0)
}

// DeleteUserpic removes the user's picture.
func (c *Client) DeleteUserpic(ctx context.Context) webasyst.Response[struct{}] {
	return callNoContent(ctx, c, &wahttp.Request{Method: http.MethodDelete, Path: pathUserpic}, 0)
}

// GetMergeCode issues a code for merging another account into this one.
func (c *Client) GetMergeCode(ctx context.Context) webasyst.Response[MergeCodeResponse] {
	return call[MergeCodeResponse](ctx, c, &wahttp.Request{Method: http.MethodPost, Path: pathMergeCode}, true)
}

// DownloadUserpic writes the picture at target to w. Nothing is written
// unless the server answers with success.
func (c *Client) DownloadUserpic(ctx context.Context, target string, w io.Writer) error {
	if _, err := c.transport.Stream(ctx, target, w); err != nil {
		return c.normalize(err)
	}

	return nil
}

// RequestHeadlessCode asks WAID to send a sign-in code to an email address
// or phone number. The returned challenge is needed to exchange the code.
func (c *Client) RequestHeadlessCode(ctx context.Context, req HeadlessCodeRequest) webasyst.Response[HeadlessCodeResult] {
	switch {
	case req.Email == "" && req.Phone == "":
		return webasyst.Failure[HeadlessCodeResult](ErrEmailOrPhoneRequired)
	case req.Email != "" && req.Phone != "":
		return webasyst.Failure[HeadlessCodeResult](ErrEmailAndPhoneExclusive)
	}

	challenge, err := NewCodeChallenge(constants.CodeChallengeLength)
	if err != nil {
		return webasyst.Failure[HeadlessCodeResult](c.normalize(err))
	}

	form := url.Values{
		"client_id":             []string{c.clientID},
		"device_id":             []string{c.deviceID},
		"code_challenge":        []string{challenge.Encoded},
		"code_challenge_method": []string{challenge.Method},
		"scope":                 []string{req.Scope.Join()},
	}

	if req.Locale != "" {
		form.Set("locale", req.Locale)
	}

	if req.Email != "" {
		form.Set("email", req.Email)
	} else {
		form.Set("phone", req.Phone)
	}

	resp := call[headlessCodeResponse](ctx, c, &wahttp.Request{
		Method: http.MethodPost,
		Path:   pathHeadlessCode,
		Body:   form,
	}, false)

	body, err := resp.Unwrap()
	if err != nil {
		return webasyst.Failure[HeadlessCodeResult](err)
	}

	result := HeadlessCodeResult{Challenge: challenge}
	if body.NextRequestAllowedAt > 0 {
		result.NextRequestAllowedAt = time.Unix(body.NextRequestAllowedAt, 0)
	}

	return webasyst.Success(result)
}

// ExchangeHeadlessCode trades the code the user received for a WAID token.
func (c *Client) ExchangeHeadlessCode(ctx context.Context, code string, challenge CodeChallenge) webasyst.Response[*oauth2.Token] {
	if code == "" {
		return webasyst.Failure[*oauth2.Token](ErrCodeRequired)
	}

	return c.exchangeToken(ctx, pathHeadlessToken, url.Values{
		"client_id":     []string{c.clientID},
		"device_id":     []string{c.deviceID},
		"code":          []string{code},
		"code_verifier": []string{challenge.Password},
	})
}

// ExchangeQRCode trades a code scanned from a signed-in device for a WAID token.
func (c *Client) ExchangeQRCode(ctx context.Context, code string) webasyst.Response[*oauth2.Token] {
	if code == "" {
		return webasyst.Failure[*oauth2.Token](ErrCodeRequired)
	}

	return c.exchangeToken(ctx, pathQRToken, url.Values{
		"client_id": []string{c.clientID},
		"device_id": []string{c.deviceID},
		"code":      []string{code},
	})
}

func (c *Client) exchangeToken(ctx context.Context, path string, form url.Values) webasyst.Response[*oauth2.Token] {
	resp, err := c.transport.Do(ctx, &wahttp.Request{Method: http.MethodPost, Path: path, Body: form})
	if err != nil {
		return webasyst.Failure[*oauth2.Token](c.normalize(err))
	}

	var body tokenResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil || body.AccessToken == "" {
		builder := webasyst.NewErrorBuilder().WithModule(c.info()).WithHTTPResponse(resp.StatusCode, resp.Body)
		if err != nil {
			builder = builder.WithCause(err)
		}

		return webasyst.Failure[*oauth2.Token](builder.Build())
	}

	token := &oauth2.Token{
		AccessToken:  body.AccessToken,
		TokenType:    body.TokenType,
		RefreshToken: body.RefreshToken,
	}

	if body.ExpiresIn > 0 {
		token.Expiry = c.now().Add(time.Duration(body.ExpiresIn) * time.Second)
	}

	c.logger.Debug("WAID token issued", map[string]interface{}{"path": path, "expires": token.Expiry})

	return webasyst.Success(token)
}
