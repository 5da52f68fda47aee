// Package site is the client of the Site app.
package site

import (
	"context"

	"github.com/webasyst/webasyst-go/pkg/webasyst"
)

// Scope is the app slug of Site.
const Scope = "site"

// Client calls the Site API of one installation.
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

// GetDomainList returns the domains the installation serves.
func (c *Client) GetDomainList(ctx context.Context) webasyst.Response[Domains] {
	return webasyst.Get[Domains](ctx, c.module, "api.php/site.domain.getList")
}

// Domain is a site domain.
type Domain struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Title string `json:"title"`
	Style string `json:"style"`
	URL   string `json:"url"`
}

// Domains is keyed by domain id on the wire; the keys repeat Domain.ID.
type Domains = webasyst.FlexList[Domain]
