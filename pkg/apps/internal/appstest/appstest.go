// Package appstest runs per-app clients against a fake installation.
package appstest

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webasyst/webasyst-go/pkg/webasyst"
	"github.com/webasyst/webasyst-go/pkg/webasyst/mock"
	"go.uber.org/mock/gomock"
)

// Fixed values issued by the fake installation.
const (
	InstallationID = "installation-1"
	AuthCode       = "auth-code"
	AccessToken    = "app-access-token"
)

// Installation is an httptest server that answers the token endpoint itself
// and hands every other request, already checked for the access token, to
// the API handler.
type Installation struct {
	Server       *httptest.Server
	Client       *webasyst.APIClient
	Installation webasyst.Installation
}

// New starts a fake installation and an APIClient holding registration.
func New(t *testing.T, registration webasyst.Registration, api http.HandlerFunc) *Installation {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api.php/token-headless" {
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, AuthCode, r.PostForm.Get("code"))
			assert.Equal(t, registration.Scope(), r.PostForm.Get("scope"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"` + AccessToken + `"}`))

			return
		}

		assert.Equal(t, AccessToken, r.URL.Query().Get("access_token"))
		api(w, r)
	}))
	t.Cleanup(server.Close)

	ctrl := gomock.NewController(t)
	authenticator := mock.NewMockAuthenticator(ctrl)
	authenticator.EXPECT().
		GetInstallationAPIAuthCodes(gomock.Any(), []string{InstallationID}).
		Return(webasyst.Success(map[string]string{InstallationID: AuthCode})).
		AnyTimes()

	cfg := webasyst.DefaultConfig()
	cfg.ClientID = "app-client"
	cfg.Authenticator = authenticator
	cfg.HTTPClient = server.Client()
	cfg.RetryMax = -1

	client, err := webasyst.NewAPIClient(cfg, registration)
	require.NoError(t, err)

	return &Installation{
		Server:       server,
		Client:       client,
		Installation: webasyst.NewInstallation(InstallationID, server.URL),
	}
}

// Module returns the registered module of type T for the fake installation.
func Module[T any](i *Installation) T {
	return webasyst.MustGetFactory[T](i.Client).ForInstallation(i.Installation)
}
