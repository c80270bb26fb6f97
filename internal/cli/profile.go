package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suckyear/suckyear/pkg/model"
)

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit your profile",
	}
	cmd.AddCommand(newProfileShowCmd(), newProfileUpdateCmd())
	return cmd
}

func newProfileShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show your profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := requireToken(cmd.Context())
			if err != nil {
				return err
			}
			p, err := client.GetProfile(cmd.Context(), token)
			if err != nil {
				return fmt.Errorf("load profile: %w", err)
			}
			printProfile(cmd, *p)
			return nil
		},
	}
}

func newProfileUpdateCmd() *cobra.Command {
	var username, email string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change your username or email",
		Long:  "Change your username or email. Fields without a flag keep their current value.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("username") && !cmd.Flags().Changed("email") {
				return fmt.Errorf("nothing to update (use --username or --email)")
			}
			token, err := requireToken(cmd.Context())
			if err != nil {
				return err
			}

			current, err := client.GetProfile(cmd.Context(), token)
			if err != nil {
				return fmt.Errorf("load profile: %w", err)
			}
			next := *current
			if cmd.Flags().Changed("username") {
				next.Username = username
			}
			if cmd.Flags().Changed("email") {
				next.Email = email
			}
			if err := next.Validate(); err != nil {
				return err
			}

			user, err := client.UpdateProfile(cmd.Context(), token, next)
			if err != nil {
				return fmt.Errorf("update profile: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Profile updated")
			printProfile(cmd, model.Profile{Username: user.Username, Email: user.Email})
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "New username")
	cmd.Flags().StringVarP(&email, "email", "e", "", "New email address")
	return cmd
}

func printProfile(cmd *cobra.Command, p model.Profile) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Username: %s\n", p.Username)
	fmt.Fprintf(out, "Email:    %s\n", p.Email)
}
