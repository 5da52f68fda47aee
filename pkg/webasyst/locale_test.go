package webasyst

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestMessageTemplatesComplete(t *testing.T) {
	t.Parallel()

	for _, tag := range SupportedLocales() {
		templates, ok := messageTemplates[tag]
		require.True(t, ok, "no templates for %s", tag)

		for code, key := range codeMessageKeys {
			template, ok := templates[key]
			assert.True(t, ok, "%s has no %s template for %s", tag, key, code)
			assert.Contains(t, template, "%[1]s", "%s/%s", tag, key)
			assert.Contains(t, template, "%[2]s", "%s/%s", tag, key)
		}
	}
}

func TestLocalizedMessage(t *testing.T) {
	t.Parallel()

	codes := make([]string, 0, len(codeMessageKeys)+1)
	for code := range codeMessageKeys {
		if code != CodeInvalidClient {
			codes = append(codes, code)
		}
	}

	codes = append(codes, "some_server_code")

	for _, tag := range []language.Tag{language.English, language.Russian, language.BritishEnglish, language.German} {
		for _, code := range codes {
			err := &Error{Code: code, Message: "raw", App: "shop", Host: "shop.example.com"}

			message := err.LocalizedMessage(tag)

			assert.NotContains(t, message, "%!", "%s/%s", tag, code)
			assert.Contains(t, message, "shop.example.com", "%s/%s", tag, code)
			assert.False(t, strings.HasPrefix(message, "webasyst_error_"), "%s/%s rendered its key", tag, code)
			assert.False(t, strings.HasPrefix(message, "waid_error_"), "%s/%s rendered its key", tag, code)
		}
	}
}

func TestLocalizedMessage_LocaleSelection(t *testing.T) {
	t.Parallel()

	err := &Error{Code: CodeAppNotInstalled, App: "shop", Host: "example.com"}

	assert.Equal(t, "The shop app is not installed on example.com.", err.LocalizedMessage(language.English))
	assert.Equal(t, "Приложение shop не установлено на example.com.", err.LocalizedMessage(language.Russian))
	assert.Equal(t, "The shop app is not installed on example.com.", err.LocalizedMessage(language.Japanese))
}

func TestLocalizedMessage_InvalidClientVerbatim(t *testing.T) {
	t.Parallel()

	err := &Error{Code: CodeInvalidClient, Message: "Клиент отключён администратором", App: "shop", Host: "example.com"}

	assert.Equal(t, "Клиент отключён администратором", err.LocalizedMessage(language.English))
	assert.Equal(t, "Клиент отключён администратором", err.LocalizedMessage(language.Russian))
}
