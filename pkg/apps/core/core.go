// Package core is the client of the Webasyst framework itself, the
// "webasyst" app every installation has.
package core

import (
	"context"

	"github.com/webasyst/webasyst-go/pkg/webasyst"
)

// Scope is the app slug of the framework.
const Scope = "webasyst"

// LogoModeGradient is the only logo mode the framework renders as text.
const LogoModeGradient = "gradient"

// Client calls the framework API of one installation.
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

// Module returns the underlying request engine.
func (c *Client) Module() *webasyst.Module {
	return c.module
}

// GetInstallationInfo returns the installation name and logo.
func (c *Client) GetInstallationInfo(ctx context.Context) webasyst.Response[InstallationInfo] {
	return webasyst.Get[InstallationInfo](ctx, c.module, "api.php/webasyst.getInfo")
}
