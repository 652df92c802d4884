package commands

import (
	"github.com/spf13/cobra"

	"github.com/branchd-dev/adminconsole/internal/cli/nav"
	"github.com/branchd-dev/adminconsole/internal/cli/router"
	"github.com/branchd-dev/adminconsole/internal/cli/shell"
)

func newShell(env *Env, opts ...shell.Option) (*shell.Shell, error) {
	sidebar, err := nav.NewSidebar(nav.DefaultItems())
	if err != nil {
		return nil, err
	}
	opts = append([]shell.Option{shell.WithOutput(env.Out), shell.WithLogger(env.Logger)}, opts...)
	return shell.New(env.Router, env.Client, sidebar, opts...), nil
}

// NewOpenCmd creates the open command
func NewOpenCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "open [path]",
		Short: "Render a console page (defaults to the dashboard)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := router.DashboardPath
			if len(args) == 1 {
				path = args[0]
			}

			sh, err := newShell(env)
			if err != nil {
				return err
			}
			_, err = sh.Open(cmd.Context(), path)
			return err
		},
	}
}

// NewShellCmd creates the interactive shell command
func NewShellCmd(env *Env) *cobra.Command {
	var remember bool

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Browse the console interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			sh, err := newShell(env, shell.WithRemember(remember))
			if err != nil {
				return err
			}
			return sh.Run(cmd.Context(), "/")
		},
	}

	cmd.Flags().BoolVar(&remember, "remember", false, "Remember the email of logins made from the shell")

	return cmd
}
