package commands

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewTokenCommand creates the token command.
func NewTokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "token INSTALLATION_ID",
		Short: "Print an installation access token",
		Long:  "Obtain an access token for an installation, from the token cache when possible",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession()
			if err != nil {
				return err
			}

			client, release, err := s.coreModule(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer release()

			token, err := client.Module().GetToken(cmd.Context())
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), token.Token)

			return nil
		},
	}
}

// NewInfoCommand creates the info command.
func NewInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info INSTALLATION_ID",
		Short: "Show installation information",
		Long:  "Display the name and logo settings of an installation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession()
			if err != nil {
				return err
			}

			client, release, err := s.coreModule(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer release()

			info, err := client.GetInstallationInfo(cmd.Context()).Unwrap()
			if err != nil {
				return err
			}

			handled, err := writeStructured(cmd.OutOrStdout(), info)
			if handled {
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Property", "Value")
			_ = table.Append("Name", info.Name)
			_ = table.Append("URL", client.Module().URLBase())

			if info.Logo != nil {
				_ = table.Append("Logo Mode", info.Logo.Mode)
				_ = table.Append("Logo Text", orNotAvailable(info.Logo.Text.Value))

				if image, ok := info.Logo.OriginalImage(); ok {
					_ = table.Append("Logo Image", image.URL)
				}
			}

			err = table.Render()
			if err != nil {
				return fmt.Errorf("failed to render table: %w", err)
			}

			return nil
		},
	}
}

// NewCacheCommand creates the cache command.
func NewCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the installation token cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Forget cached installation tokens",
		Long:  "Remove every cached installation access token and authorization code",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, release, err := loadConfig().openTokenCache(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			err = cache.Clear(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to clear token cache: %w", err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Token cache cleared")

			return nil
		},
	})

	return cmd
}
