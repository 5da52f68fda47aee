package waid

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
)

// AuthInterface supplies the end user's WAID access token. The token is
// fresh for the duration of fn.
type AuthInterface interface {
	WithFreshAccessToken(ctx context.Context, fn func(ctx context.Context, accessToken string) error) error
}

// TokenSourceAuth adapts an oauth2.TokenSource. Wrap the source with
// oauth2.ReuseTokenSource or a Config.TokenSource to get refreshes.
type TokenSourceAuth struct {
	source oauth2.TokenSource
}

// NewTokenSourceAuth creates an AuthInterface backed by source.
func NewTokenSourceAuth(source oauth2.TokenSource) *TokenSourceAuth {
	return &TokenSourceAuth{source: source}
}

// WithFreshAccessToken implements AuthInterface.
func (a *TokenSourceAuth) WithFreshAccessToken(ctx context.Context, fn func(ctx context.Context, accessToken string) error) error {
	if a == nil || a.source == nil {
		return ErrAuthRequired
	}

	token, err := a.source.Token()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFreshTokenUnavailable, err)
	}

	if !token.Valid() {
		return ErrFreshTokenUnavailable
	}

	return fn(ctx, token.AccessToken)
}
