package commands

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/branchd-dev/adminconsole/internal/cli/auth"
	"github.com/branchd-dev/adminconsole/internal/cli/client"
)

// NewLoginCmd creates the login command
func NewLoginCmd(env *Env) *cobra.Command {
	var email, password string
	var remember bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the admin API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd.Context(), env, email, password, remember)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set ADMIN_EMAIL, defaults to the remembered email)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set ADMIN_PASSWORD, will prompt if not provided)")
	cmd.Flags().BoolVar(&remember, "remember", false, "Remember the email for the next login")

	return cmd
}

func runLogin(ctx context.Context, env *Env, email, password string, remember bool) error {
	// Check for environment variables (useful for CI/CD)
	if email == "" {
		email = os.Getenv("ADMIN_EMAIL")
	}
	if email == "" {
		email = auth.RememberedEmail(env.Store)
	}
	if password == "" {
		password = os.Getenv("ADMIN_PASSWORD")
	}

	if email == "" {
		return fmt.Errorf("email is required (use --email flag or ADMIN_EMAIL env var)")
	}

	// Prompt for password if not provided via flag or env var
	if password == "" {
		if !term.IsTerminal(int(syscall.Stdin)) {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag or ADMIN_PASSWORD env var)")
		}
		fmt.Fprint(env.Out, "Password: ")
		bytePassword, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = string(bytePassword)
		fmt.Fprintln(env.Out)
	}

	fmt.Fprintf(env.Out, "Logging in to %s...\n", env.Client.BaseURL())

	resp, err := env.Client.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("login failed (status %d): %s", resp.Status, resp.ErrorMessage())
	}
	if env.Client.Token() == "" {
		return fmt.Errorf("login failed: server did not return a token")
	}

	if remember {
		err = auth.RememberEmail(env.Store, email)
	} else {
		err = auth.ForgetEmail(env.Store)
	}
	if err != nil {
		env.Logger.Warn().Err(err).Msg("Failed to update remembered email")
	}

	fmt.Fprintln(env.Out, "✓ Login successful!")
	if payload, err := client.Decode[client.LoginResponse](resp); err == nil && payload.User != nil {
		fmt.Fprintf(env.Out, "  User: %s (%s)\n", payload.User.Name, payload.User.Email)
		if payload.User.IsAdmin() {
			fmt.Fprintln(env.Out, "  Role: Admin")
		} else {
			fmt.Fprintf(env.Out, "  Role: %s (the console requires an admin account)\n", payload.User.Role)
		}
	}

	return nil
}

// NewLogoutCmd creates the logout command
func NewLogoutCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env.Client.Logout(); err != nil {
				return fmt.Errorf("failed to log out: %w", err)
			}
			fmt.Fprintln(env.Out, "✓ Logged out")
			return nil
		},
	}
}

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami(cmd.Context(), env)
		},
	}
}

func runWhoami(ctx context.Context, env *Env) error {
	st := auth.LoadState(env.Store)
	if !st.Authenticated() {
		fmt.Fprintln(env.Out, "Not logged in.")
		return nil
	}

	resp, err := env.Client.Me(ctx)
	if err != nil {
		return err
	}
	if err := checkResponse(resp); err != nil {
		return err
	}

	u, err := client.Decode[auth.User](resp)
	if err != nil {
		return err
	}

	fmt.Fprintf(env.Out, "%s <%s>\n", u.Name, u.Email)
	fmt.Fprintf(env.Out, "  Role: %s\n", u.Role)
	if st.User != nil && st.User.Role != u.Role {
		fmt.Fprintf(env.Out, "  Cached role %q is out of date; log in again to refresh it\n", st.User.Role)
	}
	return nil
}
