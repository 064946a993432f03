package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"geo-elevate/internal/domain"
	"github.com/spf13/cobra"
)

func authCommands(configPath *string) []*cobra.Command {
	return []*cobra.Command{
		newLoginCmd(configPath),
		newSignupCmd(configPath),
		{
			Use:   "logout",
			Short: "Sign out and forget the stored token",
			RunE: func(cmd *cobra.Command, args []string) error {
				d, err := loadDeps(cmd.Context(), *configPath)
				if err != nil {
					return err
				}
				defer d.Close()
				if err := d.auth.Logout(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
				return nil
			},
		},
		{
			Use:   "guest",
			Short: "Continue as guest; scores stay on this machine",
			RunE: func(cmd *cobra.Command, args []string) error {
				d, err := loadDeps(cmd.Context(), *configPath)
				if err != nil {
					return err
				}
				defer d.Close()
				if err := d.auth.ContinueAsGuest(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Playing as guest.")
				return nil
			},
		},
		{
			Use:   "whoami",
			Short: "Show the current sign-in state",
			RunE: func(cmd *cobra.Command, args []string) error {
				d, err := loadDeps(cmd.Context(), *configPath)
				if err != nil {
					return err
				}
				defer d.Close()
				out := cmd.OutOrStdout()
				switch d.auth.Status() {
				case domain.AuthAuthenticated:
					user, _ := d.auth.User()
					fmt.Fprintf(out, "Signed in as %s (%s)\n", user.Username, user.Email)
				case domain.AuthGuest:
					fmt.Fprintln(out, "Guest")
				default:
					fmt.Fprintln(out, "Not signed in")
				}
				return nil
			},
		},
	}
}

func newLoginCmd(configPath *string) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to sync scores and join the leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDeps(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer d.Close()

			in := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()
			username = promptIfEmpty(in, out, "Username: ", username)
			password = promptIfEmpty(in, out, "Password: ", password)

			user, err := d.auth.Login(cmd.Context(), username, password)
			if err != nil {
				return fmt.Errorf("%s", domain.AuthMessage(err))
			}
			fmt.Fprintf(out, "Welcome back, %s.\n", user.Username)
			if n := d.scores.MigrateLocalScores(cmd.Context()); n > 0 {
				fmt.Fprintf(out, "Synced %d local scores to your account.\n", n)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	return cmd
}

func newSignupCmd(configPath *string) *cobra.Command {
	var username, email, password string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDeps(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer d.Close()

			in := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()
			username = promptIfEmpty(in, out, "Username: ", username)
			email = promptIfEmpty(in, out, "Email: ", email)
			password = promptIfEmpty(in, out, "Password: ", password)

			user, err := d.auth.Signup(cmd.Context(), username, email, password)
			if err != nil {
				return fmt.Errorf("%s", domain.AuthMessage(err))
			}
			fmt.Fprintf(out, "Account created. Signed in as %s.\n", user.Username)
			if n := d.scores.MigrateLocalScores(cmd.Context()); n > 0 {
				fmt.Fprintf(out, "Synced %d local scores to your account.\n", n)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username (3-50 characters)")
	cmd.Flags().StringVarP(&email, "email", "e", "", "email address")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (at least 6 characters)")
	return cmd
}

func promptIfEmpty(in *bufio.Reader, out io.Writer, label, value string) string {
	if value != "" {
		return value
	}
	fmt.Fprint(out, label)
	line, _ := in.ReadString('\n')
	return strings.TrimSpace(line)
}
