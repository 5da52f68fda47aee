package webasyst_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	wahttp "github.com/webasyst/webasyst-go/internal/http"
	"github.com/webasyst/webasyst-go/pkg/webasyst"
	"pgregory.net/rapid"
)

var shopInfo = webasyst.ModuleInfo{App: "shop", Host: "https://shop.example.com"}

func TestParseErrorBody(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		body        string
		wantCode    string
		wantMessage string
	}{
		{
			name:        "error with message",
			body:        `{"error":"disabled","error_message":"API is disabled"}`,
			wantCode:    "disabled",
			wantMessage: "API is disabled",
		},
		{
			name:        "error with description",
			body:        `{"error":"invalid_client","error_description":"Клиент не найден"}`,
			wantCode:    "invalid_client",
			wantMessage: "Клиент не найден",
		},
		{
			name:        "message preferred over description",
			body:        `{"error":"x","error_message":"m","error_description":"d"}`,
			wantCode:    "x",
			wantMessage: "m",
		},
		{
			name:        "error only",
			body:        `{"error":"app_not_installed"}`,
			wantCode:    "app_not_installed",
			wantMessage: "app_not_installed",
		},
		{
			name:        "unknown code passes through",
			body:        `{"error":"quota_exceeded","error_message":"Too many"}`,
			wantCode:    "quota_exceeded",
			wantMessage: "Too many",
		},
		{name: "empty", body: ``, wantCode: webasyst.CodeInvalidErrorObject, wantMessage: "Malformed error received from server."},
		{name: "html", body: `<html>502</html>`, wantCode: webasyst.CodeInvalidErrorObject, wantMessage: "Malformed error received from server."},
		{name: "array", body: `["error"]`, wantCode: webasyst.CodeInvalidErrorObject, wantMessage: "Malformed error received from server."},
		{name: "numeric error", body: `{"error":42}`, wantCode: webasyst.CodeInvalidErrorObject, wantMessage: "Malformed error received from server."},
		{name: "no error key", body: `{"status":"fail"}`, wantCode: webasyst.CodeInvalidErrorObject, wantMessage: "Malformed error received from server."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			parsed := webasyst.ParseErrorBody([]byte(tt.body))
			assert.Equal(t, tt.wantCode, parsed.Code)
			assert.Equal(t, tt.wantMessage, parsed.Message)
		})
	}
}

func TestParseErrorBody_NeverEmpty(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		body := rapid.SliceOf(rapid.Byte()).Draw(t, "body")

		parsed := webasyst.ParseErrorBody(body)
		if parsed.Code == "" || parsed.Message == "" {
			t.Fatalf("empty classification for %q: %+v", body, parsed)
		}
	})
}

func TestErrorBuilder(t *testing.T) {
	t.Parallel()

	t.Run("empty builder is unrecognized", func(t *testing.T) {
		t.Parallel()

		err := webasyst.NewErrorBuilder().Build()
		assert.Equal(t, webasyst.CodeUnrecognized, err.Code)
		assert.Zero(t, err.StatusCode)
		assert.Nil(t, err.ResponseBody)
	})

	t.Run("http response records status and body", func(t *testing.T) {
		t.Parallel()

		body := []byte(`{"error":"account_suspended","error_message":"Suspended"}`)
		err := webasyst.NewErrorBuilder().WithModule(shopInfo).WithHTTPResponse(403, body).Build()

		assert.Equal(t, webasyst.CodeAccountSuspended, err.Code)
		assert.Equal(t, "Suspended", err.Message)
		assert.Equal(t, 403, err.StatusCode)
		assert.Equal(t, body, err.ResponseBody)
		assert.Equal(t, "shop", err.App)
		assert.Equal(t, "https://shop.example.com", err.Host)
	})

	t.Run("later error info overrides code but keeps status", func(t *testing.T) {
		t.Parallel()

		err := webasyst.NewErrorBuilder().
			WithHTTPResponse(500, []byte(`oops`)).
			WithErrorInfo("custom", "Custom message").
			Build()

		assert.Equal(t, "custom", err.Code)
		assert.Equal(t, "Custom message", err.Message)
		assert.Equal(t, 500, err.StatusCode)
		assert.Equal(t, []byte(`oops`), err.ResponseBody)
	})

	t.Run("transport cause is connection failure", func(t *testing.T) {
		t.Parallel()

		cause := fmt.Errorf("%w: dial tcp: refused", wahttp.ErrTransport)
		err := webasyst.NewErrorBuilder().WithCause(cause).Build()

		assert.Equal(t, webasyst.CodeConnectionFailed, err.Code)
		assert.Equal(t, "Connection failed", err.Message)
		require.ErrorIs(t, err, wahttp.ErrTransport)
	})

	t.Run("plain cause is unrecognized with its text", func(t *testing.T) {
		t.Parallel()

		err := webasyst.NewErrorBuilder().WithCause(errors.New("boom")).Build()

		assert.Equal(t, webasyst.CodeUnrecognized, err.Code)
		assert.Equal(t, "boom", err.Message)
	})
}

func TestWrapError(t *testing.T) {
	t.Parallel()

	t.Run("nil", func(t *testing.T) {
		t.Parallel()

		assert.Nil(t, webasyst.WrapError(nil, shopInfo))
	})

	t.Run("no double wrapping", func(t *testing.T) {
		t.Parallel()

		original := webasyst.NewErrorBuilder().
			WithModule(webasyst.ModuleInfo{App: "waid", Host: "https://id.example"}).
			WithErrorInfo(webasyst.CodeWAIDError, "down").
			Build()

		wrapped := webasyst.WrapError(fmt.Errorf("context: %w", original), shopInfo)

		assert.Same(t, original, wrapped)
		assert.Equal(t, "waid", wrapped.App)
	})

	t.Run("status error", func(t *testing.T) {
		t.Parallel()

		statusErr := &wahttp.StatusError{StatusCode: 404, Body: []byte(`{"error":"disabled","error_message":"Off"}`)}
		wrapped := webasyst.WrapError(statusErr, shopInfo)

		assert.Equal(t, webasyst.CodeDisabled, wrapped.Code)
		assert.Equal(t, "Off", wrapped.Message)
		assert.Equal(t, 404, wrapped.StatusCode)
		assert.Equal(t, "shop", wrapped.App)
	})

	t.Run("deadline is connection failure", func(t *testing.T) {
		t.Parallel()

		wrapped := webasyst.WrapError(context.DeadlineExceeded, shopInfo)

		assert.Equal(t, webasyst.CodeConnectionFailed, wrapped.Code)
		require.ErrorIs(t, wrapped, context.DeadlineExceeded)
	})

	t.Run("arbitrary error", func(t *testing.T) {
		t.Parallel()

		cause := errors.New("weird")
		wrapped := webasyst.WrapError(cause, shopInfo)

		assert.Equal(t, webasyst.CodeUnrecognized, wrapped.Code)
		require.ErrorIs(t, wrapped, cause)
	})
}

func TestWrapError_Idempotent(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		code := rapid.StringMatching(`[a-z_]{1,20}`).Draw(t, "code")
		status := rapid.IntRange(400, 599).Draw(t, "status")

		first := webasyst.WrapError(&wahttp.StatusError{
			StatusCode: status,
			Body:       []byte(`{"error":"` + code + `"}`),
		}, shopInfo)
		second := webasyst.WrapError(first, webasyst.ModuleInfo{App: "blog", Host: "other"})

		if first != second {
			t.Fatalf("error was wrapped twice")
		}

		if first.Code != code || first.StatusCode != status {
			t.Fatalf("unexpected error %+v", first)
		}
	})
}

func TestError_String(t *testing.T) {
	t.Parallel()

	err := webasyst.NewErrorBuilder().
		WithModule(shopInfo).
		WithHTTPResponse(404, []byte(`{"error":"disabled","error_message":"Off"}`)).
		Build()

	assert.Equal(t, "webasyst shop (https://shop.example.com): disabled: Off [HTTP 404]", err.Error())
}

func TestIsCodeAndAsError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("outer: %w", webasyst.NewErrorBuilder().WithErrorInfo(webasyst.CodeDisabled, "x").Build())

	assert.True(t, webasyst.IsCode(err, webasyst.CodeDisabled))
	assert.False(t, webasyst.IsCode(err, webasyst.CodeWAIDError))
	assert.False(t, webasyst.IsCode(errors.New("plain"), webasyst.CodeDisabled))

	found, ok := webasyst.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "x", found.Message)
}

type cyclicError struct {
	next *cyclicError
}

func (e *cyclicError) Error() string { return "cycle" }

func (e *cyclicError) Unwrap() error { return e.next }

func TestRootCause(t *testing.T) {
	t.Parallel()

	root := errors.New("root")

	assert.Nil(t, webasyst.RootCause(nil))
	assert.Equal(t, root, webasyst.RootCause(root))
	assert.Equal(t, root, webasyst.RootCause(fmt.Errorf("a: %w", fmt.Errorf("b: %w", root))))

	wrapped := webasyst.NewErrorBuilder().WithCause(fmt.Errorf("io: %w", root)).Build()
	assert.Equal(t, root, webasyst.RootCause(wrapped))

	first := &cyclicError{}
	second := &cyclicError{next: first}
	first.next = second

	assert.NotNil(t, webasyst.RootCause(first))
}
