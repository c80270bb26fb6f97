package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suckyear/suckyear/internal/theme"
)

func newThemeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Show or switch the color theme",
	}
	cmd.AddCommand(newThemeShowCmd(), newThemeToggleCmd())
	return cmd
}

func newThemeShowCmd() *cobra.Command {
	var css bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the current theme",
		RunE: func(cmd *cobra.Command, args []string) error {
			t := theme.For(userPrefs.Dark())
			out := cmd.OutOrStdout()
			if css {
				sheet, err := theme.Stylesheet(t)
				if err != nil {
					return err
				}
				fmt.Fprint(out, sheet)
				return nil
			}
			fmt.Fprintf(out, "Theme: %s\n", t.Name)
			for _, name := range []string{"primary", "secondary", "accent"} {
				v, err := t.Value(theme.GroupColor, name)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "  %-10s %s\n", name, v)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&css, "css", false, "Print the stylesheet with the theme's CSS variables")
	return cmd
}

func newThemeToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle",
		Short: "Switch between the light and dark theme",
		RunE: func(cmd *cobra.Command, args []string) error {
			dark, err := userPrefs.ToggleTheme(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Theme: %s\n", theme.For(dark).Name)
			return nil
		},
	}
}
