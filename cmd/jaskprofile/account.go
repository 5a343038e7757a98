package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jask/jaskprofile/internal/account"
)

var (
	flagEmail       string
	flagPassword    string
	flagDisplayName string
)

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account and sign in",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withBackend(cmd, func(b account.Backend) error {
			password, err := readPassword(cmd)
			if err != nil {
				return err
			}
			sess, err := b.SignUp(cmd.Context(), flagEmail, password, flagDisplayName)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "signed up and signed in as %s\n", sess.Email)
			return nil
		})
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and remember the session",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withBackend(cmd, func(b account.Backend) error {
			password, err := readPassword(cmd)
			if err != nil {
				return err
			}
			sess, err := b.SignIn(cmd.Context(), flagEmail, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s (expires %s)\n", sess.Email, sess.ExpiresAt.Local().Format("2006-01-02 15:04"))
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored session",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withBackend(cmd, func(b account.Backend) error {
			if err := b.SignOut(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user and display name",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withBackend(cmd, func(b account.Backend) error {
			sess, err := b.CurrentSession(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if sess == nil {
				fmt.Fprintln(out, "not signed in")
				return nil
			}
			p, err := b.Profile(cmd.Context(), sess.UserID)
			if err != nil && !account.IsNotFound(err) {
				return err
			}
			name := p.DisplayName
			if name == "" {
				name = "(no display name)"
			}
			fmt.Fprintf(out, "%s\t%s\t%s\n", sess.UserID, sess.Email, name)
			return nil
		})
	},
}

func withBackend(cmd *cobra.Command, fn func(account.Backend) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	stderrLogging(cfg)
	b, cleanup, err := openBackend(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(b)
}

// readPassword takes --password, then JASKPROFILE_PASSWORD, then one line of stdin.
func readPassword(cmd *cobra.Command) (string, error) {
	if flagPassword != "" {
		return flagPassword, nil
	}
	if p := os.Getenv("JASKPROFILE_PASSWORD"); p != "" {
		return p, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), "password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("password is required")
	}
	return line, nil
}

func init() {
	for _, c := range []*cobra.Command{signupCmd, loginCmd} {
		c.Flags().StringVar(&flagEmail, "email", "", "account email")
		c.Flags().StringVar(&flagPassword, "password", "", "password (prompted when omitted)")
		_ = c.MarkFlagRequired("email")
	}
	signupCmd.Flags().StringVar(&flagDisplayName, "name", "", "display name")
	rootCmd.AddCommand(signupCmd, loginCmd, logoutCmd, whoamiCmd)
}
