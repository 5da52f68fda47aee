package webasyst

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var natsKeyPattern = regexp.MustCompile(`^[-/_=.a-zA-Z0-9]+$`)

func TestNATSKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		key  string
	}{
		{name: "token with url and scope", key: natsTokenKey("https://shop.example.com:8080/path?x=1", "shop,blog,site")},
		{name: "token with empty scope", key: natsTokenKey("https://a.example", "")},
		{name: "code with unicode id", key: natsCodeKey("инсталляция 1")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Regexp(t, natsKeyPattern, tt.key)
		})
	}

	assert.NotEqual(t, natsTokenKey("a", "b,c"), natsTokenKey("a,b", "c"))
	assert.NotEqual(t, natsTokenKey("x", ""), natsCodeKey("x"))
}
