package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/webasyst/webasyst-go/internal/constants"
	"github.com/webasyst/webasyst-go/pkg/waid"
	"github.com/webasyst/webasyst-go/pkg/webasyst"
	"golang.org/x/term"
)

// NewLoginCommand creates the login command.
func NewLoginCommand() *cobra.Command {
	var (
		email  string
		phone  string
		code   string
		scopes []string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to Webasyst ID",
		Long:  "Request a sign-in code by email or SMS and exchange it for a WAID token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" && phone == "" {
				return constants.ErrEmailOrPhoneRequired
			}

			s, err := newSession()
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			sent, err := s.waid.RequestHeadlessCode(ctx, waid.HeadlessCodeRequest{
				Email:  email,
				Phone:  phone,
				Locale: s.config.Locale,
				Scope:  webasyst.Scope(scopes),
			}).Unwrap()
			if err != nil {
				return fmt.Errorf("failed to request sign-in code: %w", err)
			}

			if !sent.NextRequestAllowedAt.IsZero() {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Code sent. A new one can be requested after %s.\n",
					sent.NextRequestAllowedAt.Format(webasyst.DateTimeLayout))
			}

			if code == "" {
				code, err = readCode(cmd)
				if err != nil {
					return err
				}
			}

			token, err := s.waid.ExchangeHeadlessCode(ctx, code, sent.Challenge).Unwrap()
			if err != nil {
				return fmt.Errorf("failed to sign in: %w", err)
			}

			if s.config.DeviceID == "" {
				s.config.DeviceID = s.waid.DeviceID()

				err = saveConfigStruct(s.config)
				if err != nil {
					return err
				}
			}

			s.tokens.SetToken(token)

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Signed in to", s.waid.Host())

			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address to send the code to")
	cmd.Flags().StringVar(&phone, "phone", "", "phone number to send the code to")
	cmd.Flags().StringVar(&code, "code", "", "confirmation code (prompted when omitted)")
	cmd.Flags().StringSliceVar(&scopes, "scope", []string{"webasyst"}, "token scope")
	cmd.MarkFlagsMutuallyExclusive("email", "phone")

	return cmd
}

// readCode prompts for the confirmation code without echo on a terminal.
func readCode(cmd *cobra.Command) (string, error) {
	_, _ = fmt.Fprint(cmd.ErrOrStderr(), "Code: ")

	fd := int(syscall.Stdin)
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)

		_, _ = fmt.Fprintln(cmd.ErrOrStderr())

		if err != nil {
			return "", fmt.Errorf("failed to read code: %w", err)
		}

		return requireCode(string(raw))
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read code: %w", err)
	}

	return requireCode(line)
}

func requireCode(raw string) (string, error) {
	code := strings.TrimSpace(raw)
	if code == "" {
		return "", constants.ErrCodeRequired
	}

	return code, nil
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out of Webasyst ID",
		Long:  "Revoke the WAID session and forget the stored tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession()
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			if s.config.userToken() != nil {
				if signOutErr := s.waid.SignOut(ctx).Err(); signOutErr != nil {
					s.logger.Warn("WAID sign-out failed", map[string]interface{}{"error": signOutErr.Error()})
				}
			}

			cache, release, err := s.config.openTokenCache(ctx)
			if err != nil {
				return err
			}
			defer release()

			err = cache.Clear(ctx)
			if err != nil {
				return fmt.Errorf("failed to clear token cache: %w", err)
			}

			err = s.persist.ClearToken()
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Signed out")

			return nil
		},
	}
}
