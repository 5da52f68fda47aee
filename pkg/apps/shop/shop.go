// Package shop is the client of the Shop-Script app.
package shop

import (
	"context"
	"strconv"

	"github.com/webasyst/webasyst-go/internal/constants"
	"github.com/webasyst/webasyst-go/pkg/webasyst"
)

// Scope is the app slug of Shop-Script.
const Scope = "shop"

// Client calls the Shop-Script API of one installation.
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

// GetOrders returns the most recent orders.
func (c *Client) GetOrders(ctx context.Context) webasyst.Response[OrderList] {
	return webasyst.Get[OrderList](ctx, c.module, "api.php/shop.order.search",
		webasyst.WithQuery("limit", strconv.Itoa(constants.DefaultShopOrderLimit)))
}

// Order is a Shop-Script order. Amounts are decimal strings as sent.
type Order struct {
	ID             string            `json:"id"`
	IDEncoded      string            `json:"id_encoded"`
	Total          string            `json:"total"`
	CreateDatetime webasyst.DateTime `json:"create_datetime"`
	Currency       string            `json:"currency"`
}

// OrderList is one page of shop.order.search.
type OrderList struct {
	Offset int                      `json:"offset"`
	Limit  int                      `json:"limit"`
	Count  int                      `json:"count"`
	Orders webasyst.FlexList[Order] `json:"orders"`
}
