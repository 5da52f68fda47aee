// Package installer is the client of the Installer app, which installs
// apps, plugins and themes from the Webasyst store.
package installer

import (
	"context"
	"net/http"
	"net/url"

	"github.com/webasyst/webasyst-go/internal/constants"
	"github.com/webasyst/webasyst-go/pkg/webasyst"
)

// Scope is the app slug of Installer.
const Scope = "installer"

// Client calls the Installer API of one installation.
type Client struct {
	module *webasyst.Module
}

// New wraps module.
func New(module *webasyst.Module) *Client {
	return &Client{module: module}
}

// Register declares the client to a webasyst.APIClient.
func Register() webasyst.Registration {
	return webasyst.Register(Scope, New)
}

// InstallStatus is the outcome of Install.
type InstallStatus int

const (
	// InstallSucceeded means the product is installed.
	InstallSucceeded InstallStatus = iota
	// InstallRejected means the installation answered with an error.
	InstallRejected
	// InstallNetworkError means no answer was received.
	InstallNetworkError
)

func (s InstallStatus) String() string {
	switch s {
	case InstallSucceeded:
		return "succeeded"
	case InstallRejected:
		return "rejected"
	case InstallNetworkError:
		return "network error"
	default:
		return "unknown"
	}
}

// InstallResult reports the outcome of Install. Err is nil only on success.
type InstallResult struct {
	Status InstallStatus
	Err    *webasyst.Error
}

// Succeeded reports whether the product was installed.
func (r InstallResult) Succeeded() bool {
	return r.Status == InstallSucceeded
}

// Install installs the store product slug. Only 200 and 201 count as
// success. Failures without any HTTP response are network errors.
func (c *Client) Install(ctx context.Context, slug string) InstallResult {
	resp, err := c.module.Do(ctx, http.MethodPost, "api.php/installer.product.install",
		webasyst.WithQuery("format", "json"),
		webasyst.WithFormBody(url.Values{"slug": []string{slug}}),
	)
	if err != nil {
		wsErr := webasyst.WrapError(err, c.module.Info())
		if wsErr.StatusCode == 0 {
			return InstallResult{Status: InstallNetworkError, Err: wsErr}
		}

		return InstallResult{Status: InstallRejected, Err: wsErr}
	}

	if resp.StatusCode == constants.HTTPStatusOK || resp.StatusCode == constants.HTTPStatusCreated {
		return InstallResult{Status: InstallSucceeded}
	}

	return InstallResult{
		Status: InstallRejected,
		Err: webasyst.NewErrorBuilder().
			WithModule(c.module.Info()).
			WithHTTPResponse(resp.StatusCode, resp.Body).
			Build(),
	}
}

// Module returns the underlying request engine.
func (c *Client) Module() *webasyst.Module {
	return c.module
}
