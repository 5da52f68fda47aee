// Package webasyst is the core of the Webasyst API client.
//
// An APIClient is built once per embedding application from a Config and
// the Registrations of the per-app modules it uses. The registrations fix
// the token scope. For every installation, a module is obtained from its
// Factory; the module exchanges a WAID authorization code for an
// installation access token on first use, caches it in the configured
// TokenCache and attaches it to every request.
//
//	client, err := webasyst.NewAPIClient(cfg, shop.Register(), blog.Register())
//	if err != nil {
//		return err
//	}
//
//	orders := webasyst.MustGetFactory[*shop.Client](client).
//		ForInstallation(webasyst.NewInstallation(id, "https://example.com"))
//
// Every failure surfaces as an *Error carrying a machine readable code, the
// app and host it came from and, when a response was received, its status
// and body.
package webasyst

//go:generate mockgen -destination=mock/mock_authenticator.go -package=mock github.com/webasyst/webasyst-go/pkg/webasyst Authenticator
