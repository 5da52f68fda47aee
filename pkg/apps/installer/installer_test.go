package installer_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webasyst/webasyst-go/pkg/apps/installer"
	"github.com/webasyst/webasyst-go/pkg/apps/internal/appstest"
	"github.com/webasyst/webasyst-go/pkg/webasyst"
)

//nolint:funlen
func TestInstall(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus installer.InstallStatus
		wantCode   string
	}{
		{name: "ok", status: http.StatusOK, body: `{}`, wantStatus: installer.InstallSucceeded},
		{name: "created", status: http.StatusCreated, wantStatus: installer.InstallSucceeded},
		{
			name:       "accepted is not success",
			status:     http.StatusAccepted,
			body:       `{"error":"queued","error_description":"Installation queued"}`,
			wantStatus: installer.InstallRejected,
			wantCode:   "queued",
		},
		{
			name:       "license error",
			status:     http.StatusForbidden,
			body:       `{"error":"license_required","error_description":"Buy a license"}`,
			wantStatus: installer.InstallRejected,
			wantCode:   "license_required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			installation := appstest.New(t, installer.Register(), func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/api.php/installer.product.install", r.URL.Path)
				assert.Equal(t, "json", r.URL.Query().Get("format"))
				assert.NoError(t, r.ParseForm())
				assert.Equal(t, "shop", r.PostForm.Get("slug"))

				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			result := appstest.Module[*installer.Client](installation).Install(context.Background(), "shop")
			assert.Equal(t, tt.wantStatus, result.Status, result.Status.String())

			if tt.wantStatus == installer.InstallSucceeded {
				assert.True(t, result.Succeeded())
				assert.Nil(t, result.Err)

				return
			}

			require.NotNil(t, result.Err)
			assert.Equal(t, tt.wantCode, result.Err.Code)
			assert.Equal(t, tt.status, result.Err.StatusCode)
			assert.Equal(t, "installer", result.Err.App)
		})
	}
}

func TestInstall_NetworkError(t *testing.T) {
	t.Parallel()

	installation := appstest.New(t, installer.Register(), func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not arrive")
	})

	client := appstest.Module[*installer.Client](installation)

	_, err := client.Module().GetToken(context.Background())
	require.NoError(t, err)

	installation.Server.Close()

	result := client.Install(context.Background(), "shop")
	assert.Equal(t, installer.InstallNetworkError, result.Status)
	assert.True(t, webasyst.IsCode(result.Err, webasyst.CodeConnectionFailed))
}
