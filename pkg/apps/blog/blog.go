// Package blog is the client of the Blog app.
package blog

import (
	"context"

	"github.com/webasyst/webasyst-go/pkg/webasyst"
)

// Scope is the app slug of Blog.
const Scope = "blog"

// Client calls the Blog API of one installation.
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

// GetPosts returns the latest published posts.
func (c *Client) GetPosts(ctx context.Context) webasyst.Response[PostList] {
	return webasyst.Get[PostList](ctx, c.module, "api.php/blog.post.search")
}

// Post is a blog post.
type Post struct {
	ID       string            `json:"id"`
	DateTime webasyst.DateTime `json:"datetime"`
	Title    string            `json:"title"`
	Text     string            `json:"text"`
	User     User              `json:"user"`
}

// User is the author of a post.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	PhotoURL string `json:"photo_url_20"`
}

// PostList is one page of blog.post.search.
type PostList struct {
	Offset int                     `json:"offset"`
	Limit  int                     `json:"limit"`
	Count  int                     `json:"count"`
	Posts  webasyst.FlexList[Post] `json:"posts"`
}
