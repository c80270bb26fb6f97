package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/suckyear/suckyear/pkg/api"
	"github.com/suckyear/suckyear/pkg/model"
)

func newLoginCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to SuckYear",
		Long:  "Exchange a username and password for an access token and store it locally.",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()

			var err error
			if username == "" {
				if username, err = prompt(in, out, "Username: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = prompt(in, out, "Password: "); err != nil {
					return err
				}
			}
			if username == "" || password == "" {
				return fmt.Errorf("username and password are required")
			}

			result, err := client.Login(cmd.Context(), model.LoginCredentials{
				Username: username,
				Password: password,
			})
			if err != nil {
				return fmt.Errorf("%s: %w", loginMessage(err), err)
			}
			if err := userPrefs.SetToken(cmd.Context(), result.AccessToken); err != nil {
				return err
			}

			fmt.Fprintf(out, "Logged in as %s\n", username)
			if info, err := api.ParseAccessToken(result.AccessToken); err == nil && !info.Expiry.IsZero() {
				fmt.Fprintf(out, "Token expires %s\n", humanize.Time(info.Expiry))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username (prompted if omitted)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted if omitted)")
	return cmd
}

// loginMessage maps a failed login to a short explanation.
func loginMessage(err error) string {
	if api.IsUserNotFound(err) {
		return "user not found"
	}
	return "login failed"
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := userPrefs.ClearToken(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newRegisterCmd() *cobra.Command {
	var req model.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a SuckYear account",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()

			var err error
			if req.Password == "" {
				if req.Password, err = prompt(in, out, "Password: "); err != nil {
					return err
				}
			}
			if err := req.Validate(); err != nil {
				return err
			}

			user, err := client.Register(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("register: %w", err)
			}
			fmt.Fprintf(out, "Registered %s <%s>\n", user.Username, user.Email)
			fmt.Fprintln(out, "Run `suckyear login` to sign in.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&req.Username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&req.Email, "email", "e", "", "Email address")
	cmd.Flags().StringVarP(&req.Password, "password", "p", "", "Password (prompted if omitted)")
	return cmd
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show who the stored token belongs to",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			token := userPrefs.Token()
			if token == "" {
				fmt.Fprintln(out, "Not logged in")
				return nil
			}

			info, err := api.ParseAccessToken(token)
			if err != nil {
				return fmt.Errorf("read token: %w", err)
			}
			fmt.Fprintf(out, "User:    %s\n", info.Subject)
			if !info.Expiry.IsZero() {
				state := "valid"
				if info.Expired() {
					state = "expired"
				}
				fmt.Fprintf(out, "Expires: %s (%s, %s)\n", info.Expiry.Format(time.RFC3339), humanize.Time(info.Expiry), state)
			}
			fmt.Fprintf(out, "Backend: %s\n", client.BaseURL())
			return nil
		},
	}
}

// prompt writes label and reads one trimmed line.
func prompt(in *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
