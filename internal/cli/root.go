package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/branchd-dev/adminconsole/internal/cli/commands"
)

var version = "dev" // Will be set during build

// NewRootCmd builds the command tree around env. Setup runs before every
// command except version.
func NewRootCmd(env *commands.Env) *cobra.Command {
	var opts commands.GlobalOptions

	rootCmd := &cobra.Command{
		Use:   "adminctl",
		Short: "adminctl - Admin console for the customer API",
		Long: `adminctl is a terminal admin console.

Sign in with an admin account, then browse the dashboard and manage
customers. Sessions are kept until 'adminctl logout'.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return env.Setup(opts)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.APIURL, "api-url", "", "API base URL (overrides ADMIN_API_BASE_URL)")
	rootCmd.PersistentFlags().BoolVar(&opts.Insecure, "insecure", false, "Accept self-signed TLS certificates")
	rootCmd.PersistentFlags().StringVar(&opts.Storage, "storage", "", "Session storage backend: file, keyring or memory")
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Log requests and navigation to stderr")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "adminctl version %s\n", version)
		},
	})

	rootCmd.AddCommand(commands.NewLoginCmd(env))
	rootCmd.AddCommand(commands.NewLogoutCmd(env))
	rootCmd.AddCommand(commands.NewWhoamiCmd(env))
	rootCmd.AddCommand(commands.NewOpenCmd(env))
	rootCmd.AddCommand(commands.NewShellCmd(env))
	rootCmd.AddCommand(commands.NewRequestCmd(env))
	rootCmd.AddCommand(commands.NewCustomersCmd(env))

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	if err := NewRootCmd(&commands.Env{}).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
