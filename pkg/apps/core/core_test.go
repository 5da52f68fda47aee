package core_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webasyst/webasyst-go/pkg/apps/core"
	"github.com/webasyst/webasyst-go/pkg/apps/internal/appstest"
	"github.com/webasyst/webasyst-go/pkg/webasyst"
)

func TestRegister(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "webasyst", core.Register().Scope())
}

//nolint:funlen
func TestGetInstallationInfo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		body      string
		wantImage *core.LogoImage
		gradient  bool
	}{
		{
			name: "uploaded image",
			body: `{"name":"My shop","logo":{"mode":"image","two_lines":false,
				"text":{"value":"MS","color":"#fff","default_value":"MS","default_color":"#fff","formatted_value":"MS"},
				"gradient":{"from":"#000","to":"#111","angle":"90"},
				"image":{"original":{"url":"https://cdn/logo.png","width":120,"height":40}}}}`,
			wantImage: &core.LogoImage{URL: "https://cdn/logo.png", Width: 120, Height: 40},
		},
		{
			name: "no upload sends an empty array",
			body: `{"name":"My shop","logo":{"mode":"gradient","two_lines":true,
				"text":{"value":"MS"},"gradient":{"from":"#000","to":"#111","angle":"90"},
				"image":{"original":[]}}}`,
			gradient: true,
		},
		{
			name: "no logo",
			body: `{"name":"My shop","logo":null}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			installation := appstest.New(t, core.Register(), func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/api.php/webasyst.getInfo", r.URL.Path)
				_, _ = w.Write([]byte(tt.body))
			})

			client := appstest.Module[*core.Client](installation)
			assert.Equal(t, "webasyst", client.Module().AppName())

			info, err := client.GetInstallationInfo(context.Background()).Unwrap()
			require.NoError(t, err)
			assert.Equal(t, "My shop", info.Name)
			assert.Equal(t, tt.gradient, info.Logo.IsGradient())

			image, ok := info.Logo.OriginalImage()
			if tt.wantImage == nil {
				assert.False(t, ok)

				return
			}

			require.True(t, ok)
			assert.Equal(t, *tt.wantImage, image)
		})
	}
}

func TestGetInstallationInfo_Error(t *testing.T) {
	t.Parallel()

	installation := appstest.New(t, core.Register(), func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"access_denied","error_description":"Access denied"}`))
	})

	err := appstest.Module[*core.Client](installation).GetInstallationInfo(context.Background()).Err()

	wsErr, ok := webasyst.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "access_denied", wsErr.Code)
	assert.Equal(t, "webasyst", wsErr.App)
	assert.Equal(t, installation.Server.URL, wsErr.Host)
	assert.Equal(t, http.StatusForbidden, wsErr.StatusCode)
}
