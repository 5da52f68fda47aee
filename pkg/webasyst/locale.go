package webasyst

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys. Every template receives the app slug as %[1]s and the host
// as %[2]s.
const (
	keyGeneric            = "webasyst_error_generic"
	keyWAIDGeneric        = "waid_error_generic"
	keyInvalidErrorObject = "webasyst_error_invalid_error_object"
	keyInvalidClient      = "waid_error_invalid_client"
	keyConnectionFailed   = "webasyst_error_connection_failed"
	keyAppNotInstalled    = "webasyst_error_app_not_installed"
	keyAccountSuspended   = "webasyst_error_account_suspended"
	keyDisabled           = "webasyst_error_disabled"
)

var codeMessageKeys = map[string]string{
	CodeUnrecognized:       keyGeneric,
	CodeWAIDError:          keyWAIDGeneric,
	CodeInvalidErrorObject: keyInvalidErrorObject,
	CodeInvalidClient:      keyInvalidClient,
	CodeConnectionFailed:   keyConnectionFailed,
	CodeAppNotInstalled:    keyAppNotInstalled,
	CodeAccountSuspended:   keyAccountSuspended,
	CodeDisabled:           keyDisabled,
}

var messageTemplates = map[language.Tag]map[string]string{
	language.English: {
		keyGeneric:            "Something went wrong in %[1]s on %[2]s.",
		keyWAIDGeneric:        "Webasyst ID could not complete the request for %[1]s on %[2]s.",
		keyInvalidErrorObject: "%[2]s sent an unexpected response to %[1]s.",
		keyInvalidClient:      "This application is not allowed to access %[1]s on %[2]s.",
		keyConnectionFailed:   "Could not connect to %[2]s to reach %[1]s.",
		keyAppNotInstalled:    "The %[1]s app is not installed on %[2]s.",
		keyAccountSuspended:   "The account on %[2]s is suspended and %[1]s is unavailable.",
		keyDisabled:           "API access to %[1]s is disabled on %[2]s.",
	},
	language.Russian: {
		keyGeneric:            "Ошибка при работе с %[1]s на %[2]s.",
		keyWAIDGeneric:        "Webasyst ID не смог выполнить запрос для %[1]s на %[2]s.",
		keyInvalidErrorObject: "%[2]s вернул неожиданный ответ для %[1]s.",
		keyInvalidClient:      "Приложению запрещён доступ к %[1]s на %[2]s.",
		keyConnectionFailed:   "Не удалось подключиться к %[2]s для работы с %[1]s.",
		keyAppNotInstalled:    "Приложение %[1]s не установлено на %[2]s.",
		keyAccountSuspended:   "Аккаунт на %[2]s заблокирован, %[1]s недоступно.",
		keyDisabled:           "Доступ к API %[1]s отключён на %[2]s.",
	},
}

var (
	supportedLocales = []language.Tag{language.English, language.Russian}
	localeMatcher    = language.NewMatcher(supportedLocales)
	messageCatalog   = buildCatalog()
)

func buildCatalog() catalog.Catalog {
	builder := catalog.NewBuilder(catalog.Fallback(language.English))

	for tag, templates := range messageTemplates {
		for key, template := range templates {
			if err := builder.SetString(tag, key, template); err != nil {
				panic(err)
			}
		}
	}

	return builder
}

// SupportedLocales lists the locales that have message templates.
func SupportedLocales() []language.Tag {
	return append([]language.Tag(nil), supportedLocales...)
}

// LocalizedMessage renders a user facing message in the locale closest to
// tag. invalid_client messages come pre-localized from the server and are
// returned verbatim.
func (e *Error) LocalizedMessage(tag language.Tag) string {
	if e.Code == CodeInvalidClient {
		return e.Message
	}

	key, ok := codeMessageKeys[e.Code]
	if !ok {
		key = keyGeneric
	}

	_, index, _ := localeMatcher.Match(tag)
	printer := message.NewPrinter(supportedLocales[index], message.Catalog(messageCatalog))

	return printer.Sprintf(key, e.App, e.Host)
}
