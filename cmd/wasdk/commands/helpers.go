package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/viper"
	"github.com/webasyst/webasyst-go/internal/auth"
	"github.com/webasyst/webasyst-go/internal/constants"
	"github.com/webasyst/webasyst-go/pkg/apps/core"
	"github.com/webasyst/webasyst-go/pkg/waid"
	"github.com/webasyst/webasyst-go/pkg/webasyst"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	OutputFormatJSON  = "json"
	OutputFormatYAML  = "yaml"
	OutputFormatTable = "table"

	NotAvailable      = "N/A"
	defaultJSONIndent = 2
)

// Common static errors used throughout the commands package.
var (
	ErrWAIDHostMismatch      = errors.New("config is for a different WAID host")
	ErrInstallationNotFound  = errors.New("installation not found")
	ErrUnsupportedOutputType = errors.New("unsupported output format")
)

// newLogger returns a zap backed logger, development flavored with --verbose.
func newLogger() webasyst.Logger {
	if !viper.GetBool("verbose") {
		return webasyst.NewZapLogger(zap.NewNop())
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		return webasyst.NewZapLogger(zap.NewNop())
	}

	return webasyst.NewZapLogger(logger)
}

// session bundles the clients a command needs.
type session struct {
	config  *Config
	logger  webasyst.Logger
	waid    *waid.Client
	tokens  *auth.ConfigTokenManager
	persist *ConfigPersister
}

func newSession() (*session, error) {
	config := loadConfig()
	if config.ClientID == "" {
		return nil, constants.ErrClientIDMissing
	}

	logger := newLogger()

	base := &waid.Config{
		Host:     config.WAIDHost,
		ClientID: config.ClientID,
		DeviceID: config.DeviceID,
		Logger:   logger,
		Debug:    viper.GetBool("verbose"),
	}

	unauthenticated, err := waid.New(base)
	if err != nil {
		return nil, fmt.Errorf("failed to create WAID client: %w", err)
	}

	persister := NewConfigPersister()
	tokens := auth.NewConfigTokenManager(
		unauthenticated.OAuth2Config(nil),
		persister,
		unauthenticated.Host(),
		config.userToken(),
		auth.WithLogger(logger),
	)

	withAuth := *base
	withAuth.Auth = tokens
	withAuth.DeviceID = unauthenticated.DeviceID()

	client, err := waid.New(&withAuth)
	if err != nil {
		return nil, fmt.Errorf("failed to create WAID client: %w", err)
	}

	return &session{
		config:  config,
		logger:  logger,
		waid:    client,
		tokens:  tokens,
		persist: persister,
	}, nil
}

// findInstallation looks up id in the user's installation list.
func (s *session) findInstallation(ctx context.Context, id string) (waid.Installation, error) {
	if id == "" {
		return waid.Installation{}, constants.ErrInstallationRequired
	}

	installations, err := s.waid.GetInstallationList(ctx).Unwrap()
	if err != nil {
		return waid.Installation{}, err
	}

	for _, installation := range installations {
		if installation.ID == id {
			return installation, nil
		}
	}

	return waid.Installation{}, fmt.Errorf("%s: %w", id, ErrInstallationNotFound)
}

// coreModule returns the framework client of installation id. The caller
// must call release.
func (s *session) coreModule(ctx context.Context, id string) (*core.Client, func(), error) {
	installation, err := s.findInstallation(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	cache, release, err := s.config.openTokenCache(ctx)
	if err != nil {
		return nil, nil, err
	}

	cfg := webasyst.DefaultConfig()
	cfg.ClientID = s.config.ClientID
	cfg.Authenticator = s.waid
	cfg.TokenCache = cache
	cfg.Logger = s.logger
	cfg.Debug = viper.GetBool("verbose")

	client, err := webasyst.NewAPIClient(cfg, core.Register())
	if err != nil {
		release()

		return nil, nil, err
	}

	module := webasyst.MustGetFactory[*core.Client](client).ForInstallation(installation.APIInstallation())

	return module, release, nil
}

// writeStructured writes value as JSON or YAML. It reports false for the
// table format, which every command renders itself.
func writeStructured(w io.Writer, value interface{}) (bool, error) {
	switch format := viper.GetString("output"); format {
	case OutputFormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")

		return true, encoder.Encode(value)
	case OutputFormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(defaultJSONIndent)

		return true, encoder.Encode(value)
	case "", OutputFormatTable:
		return false, nil
	default:
		return true, fmt.Errorf("%s: %w", format, ErrUnsupportedOutputType)
	}
}

// FormatError renders err for the terminal, in the configured locale when
// it carries an error code.
func FormatError(err error) string {
	wsErr, ok := webasyst.AsError(err)
	if !ok {
		return err.Error()
	}

	tag := language.English

	if locale := viper.GetString("locale"); locale != "" {
		if parsed, parseErr := language.Parse(locale); parseErr == nil {
			tag = parsed
		}
	}

	message := wsErr.LocalizedMessage(tag)
	if wsErr.StatusCode != 0 {
		message = fmt.Sprintf("%s (HTTP %d)", message, wsErr.StatusCode)
	}

	return fmt.Sprintf("%s: %s", wsErr.Code, message)
}

func orNotAvailable(value string) string {
	if value == "" {
		return NotAvailable
	}

	return value
}
