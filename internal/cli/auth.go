package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/eventsphere/internal/services/auth"
)

func newLoginCmd() *cobra.Command {
	var user, pass string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as the event administrator",
		Long: `Log in as the event administrator and save the session for later commands.

The password is read from --pass, then EVENTSPHERE_PASSWORD, then the first line of stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pass == "" {
				pass = os.Getenv("EVENTSPHERE_PASSWORD")
			}
			if pass == "" {
				line, err := readLine(cmd)
				if err != nil {
					return err
				}
				pass = line
			}

			session, err := client.Login(cmd.Context(), user, pass)
			if err != nil {
				return err
			}

			if err := cfg.SaveSession(session); err != nil {
				return fmt.Errorf("failed to save session: %w", err)
			}

			output(cmd).PrintMessage("Login successful.")
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "admin", "Admin username")
	cmd.Flags().StringVar(&pass, "pass", "", "Admin password")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the admin session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result MessageResult

			if err := client.Post(cmd.Context(), "/logout", nil, &result); err != nil {
				return err
			}

			if err := cfg.ClearSession(); err != nil {
				return fmt.Errorf("failed to remove session file: %w", err)
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newSessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Check whether the saved admin session is valid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result SessionResult

			if err := client.Get(cmd.Context(), "/session", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash for ADMIN_PASSWORD",
		Long:  "Print a bcrypt hash for ADMIN_PASSWORD. Without an argument the password is read from stdin.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				line, err := readLine(cmd)
				if err != nil {
					return err
				}
				password = line
			}
			if password == "" {
				return errors.New("password must not be empty")
			}

			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

// readLine reads one line from the command's stdin without the newline
func readLine(cmd *cobra.Command) (string, error) {
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.New("no password given")
	}
	return strings.TrimRight(line, "\r\n"), nil
}
