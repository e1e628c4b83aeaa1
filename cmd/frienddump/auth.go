package main

import (
	"errors"
	"fmt"
	"os"

	errs "frienddump/pkg/errors"
	"frienddump/pkg/models"
	"frienddump/pkg/ui"

	"github.com/spf13/cobra"
)

// cookieEnvVar supplies a cookie to "auth cookie" without a prompt
const cookieEnvVar = "FRIENDDUMP_COOKIE"

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Log in, inspect or clear the stored session",
	Long: `Manage the stored session (token and cookie).

The session is kept in the store selected by session.backend:
  - file       plain JSON in ~/.frienddump/session.json (default)
  - encrypted  AES-GCM file keyed by FRIENDDUMP_PASSPHRASE
  - keyring    system keychain
  - memory     nothing is persisted`,
}

var cookieCmd = &cobra.Command{
	Use:   "cookie [cookie]",
	Short: "Log in with a browser cookie",
	Long: `Derive an access token from a browser cookie and store both.

The cookie is taken from the argument, then from the ` + cookieEnvVar + `
environment variable, and is prompted for otherwise. A cookie without an
"sb" field gets one added before the token lookup.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAuthCookie,
}

var credentialsCmd = &cobra.Command{
	Use:   "login [email]",
	Short: "Log in with email and password",
	Long: `Log in through the configured login service, then derive a token
from the returned cookie. Proxy errors and timeouts are retried up to
auth.max_login_retries times.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAuthLogin,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored session with secrets masked",
	Args:  cobra.NoArgs,
	RunE:  runAuthStatus,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the stored session",
	Args:  cobra.NoArgs,
	RunE:  runAuthLogout,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(cookieCmd)
	authCmd.AddCommand(credentialsCmd)
	authCmd.AddCommand(statusCmd)
	authCmd.AddCommand(logoutCmd)
}

func runAuthCookie(cmd *cobra.Command, args []string) error {
	svc, err := newServices()
	if err != nil {
		return err
	}

	cookie := os.Getenv(cookieEnvVar)
	if len(args) > 0 {
		cookie = args[0]
	}
	if cookie == "" {
		cookie, err = readSecret("Cookie: ")
		if err != nil {
			return fmt.Errorf("failed to read cookie: %w", err)
		}
	}

	creds, err := svc.auth.LoginWithCookie(cmd.Context(), cookie)
	if err != nil {
		return describeAuthFailure(err)
	}

	ui.PrintSuccess("Login successful")
	ui.PrintInfo("Token", models.Mask(creds.Token))
	return nil
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	svc, err := newServices()
	if err != nil {
		return err
	}

	var email string
	if len(args) > 0 {
		email = args[0]
	} else {
		email, err = readLine("Email or phone: ")
		if err != nil {
			return fmt.Errorf("failed to read email: %w", err)
		}
	}
	if email == "" {
		return errors.New("email is required")
	}

	password, err := readSecret("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if password == "" {
		return errors.New("password is required")
	}

	ui.PrintHighlight("Logging in...")
	creds, err := svc.auth.LoginWithCredentials(cmd.Context(), email, password)
	if err != nil {
		return describeAuthFailure(err)
	}

	ui.PrintSuccess("Login successful")
	ui.PrintInfo("Token", models.Mask(creds.Token))
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	svc, err := newServices()
	if err != nil {
		return err
	}

	s, err := svc.store.Load()
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	if !s.Credentials().LoggedIn() {
		ui.PrintWarning("Not logged in", "use 'frienddump auth cookie' or 'frienddump auth login'")
		return nil
	}

	ui.PrintHighlight("Stored session")
	ui.PrintInfo("Backend", cfg.Session.Backend)
	ui.PrintInfo("Token", models.Mask(s.Token))
	ui.PrintInfo("Cookie", models.Mask(s.Cookie))
	ui.PrintInfo("Login check", fmt.Sprintf("%d friend ids", len(s.LoginCheck)))
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	svc, err := newServices()
	if err != nil {
		return err
	}
	if err := svc.auth.Logout(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	ui.PrintSuccess("Session cleared")
	return nil
}

// describeAuthFailure turns an auth error into a message with a next step
func describeAuthFailure(err error) error {
	switch errs.StatusOf(err) {
	case errs.StatusCheckpoint:
		return errors.New("account hit a checkpoint or needs two-factor approval; confirm it in a browser and retry")
	case errs.StatusInvalidCredentials:
		return errors.New("invalid email or password")
	case errs.StatusTokenFailed:
		return errors.New("could not derive a token from the cookie; it may be expired")
	case errs.StatusMaxRetries:
		return errors.New("login service kept failing with proxy errors or timeouts; try again later")
	case errs.StatusNotConfigured:
		return fmt.Errorf("%w (set the api endpoints in the config file)", err)
	}
	return err
}
