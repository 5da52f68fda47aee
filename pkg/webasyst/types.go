package webasyst

import (
	"strings"
)

// Installation identifies one deployed Webasyst instance.
type Installation struct {
	// ID is the WAID client id of the installation. It keys the cached
	// authorization code.
	ID string `json:"id" yaml:"id"`
	// URLBase is the origin requests are sent to, without a trailing slash.
	URLBase string `json:"url" yaml:"url"`
}

// NewInstallation returns an Installation with a normalized URL base.
func NewInstallation(id, urlBase string) Installation {
	return Installation{
		ID:      id,
		URLBase: strings.TrimRight(urlBase, "/"),
	}
}

// AccessToken is the body of the token-headless endpoint.
type AccessToken struct {
	Token            string  `json:"access_token"                yaml:"access_token"`
	Error            *string `json:"error,omitempty"             yaml:"error,omitempty"`
	ErrorDescription *string `json:"error_description,omitempty" yaml:"error_description,omitempty"`
}

// HasError reports whether the server answered with an error instead of a token.
func (t *AccessToken) HasError() bool {
	return t != nil && t.Error != nil
}

// Equal compares two tokens field by field.
func (t *AccessToken) Equal(other *AccessToken) bool {
	if t == nil || other == nil {
		return t == other
	}

	return t.Token == other.Token &&
		optionalEqual(t.Error, other.Error) &&
		optionalEqual(t.ErrorDescription, other.ErrorDescription)
}

func optionalEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}

	return *a == *b
}

// Scope is the ordered list of app slugs a token grants access to.
type Scope []string

// Join returns the comma separated form used both as cache key and as the
// scope field of the token request.
func (s Scope) Join() string {
	return strings.Join(s, ",")
}

// ModuleInfo attributes an error to the module that produced it.
type ModuleInfo struct {
	App  string
	Host string
}
