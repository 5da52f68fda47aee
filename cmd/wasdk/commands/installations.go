package commands

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/webasyst/webasyst-go/pkg/webasyst"
)

// NewInstallationsCommand creates the installations command.
func NewInstallationsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "installations",
		Aliases: []string{"installs", "i"},
		Short:   "List installations",
		Long:    "List the Webasyst installations the signed-in user has access to",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession()
			if err != nil {
				return err
			}

			installations, err := s.waid.GetInstallationList(cmd.Context()).Unwrap()
			if err != nil {
				return err
			}

			handled, err := writeStructured(cmd.OutOrStdout(), installations)
			if handled {
				return err
			}

			if len(installations) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No installations found")

				return nil
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("ID", "Domain", "URL", "Cloud Plan", "Expires", "Trial")

			for _, installation := range installations {
				expires := NotAvailable
				if !installation.CloudExpireDate.IsZero() {
					expires = webasyst.FormatDate(installation.CloudExpireDate.Time)
				}

				_ = table.Append(installation.ID, installation.Domain, installation.URL,
					orNotAvailable(installation.CloudPlanID), expires, strconv.FormatBool(installation.CloudTrial))
			}

			err = table.Render()
			if err != nil {
				return fmt.Errorf("failed to render table: %w", err)
			}

			return nil
		},
	}
}

// NewProfileCommand creates the profile command.
func NewProfileCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show the WAID profile",
		Long:  "Display the profile of the signed-in Webasyst ID user",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession()
			if err != nil {
				return err
			}

			user, err := s.waid.GetUserInfo(cmd.Context()).Unwrap()
			if err != nil {
				return err
			}

			handled, err := writeStructured(cmd.OutOrStdout(), user)
			if handled {
				return err
			}

			phone := NotAvailable
			if len(user.Phone) > 0 {
				phone = user.Phone[0].Value
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Property", "Value")
			_ = table.Append("Name", user.Name)
			_ = table.Append("Email", orNotAvailable(user.PrimaryEmail()))
			_ = table.Append("Phone", phone)
			_ = table.Append("Userpic", orNotAvailable(user.Userpic))

			err = table.Render()
			if err != nil {
				return fmt.Errorf("failed to render table: %w", err)
			}

			return nil
		},
	}
}
