package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/branchd-dev/adminconsole/internal/cli/client"
)

type requestFlags struct {
	params   []string
	headers  []string
	data     string
	skipAuth bool
	timeout  time.Duration
}

// NewRequestCmd creates the request command, a thin wrapper over the API client
func NewRequestCmd(env *Env) *cobra.Command {
	var flags requestFlags

	cmd := &cobra.Command{
		Use:   "request <method> <path>",
		Short: "Send a raw request to the admin API",
		Example: `  adminctl request GET /customers --param status=active
  adminctl request POST /customers --data '{"name":"Ada"}'
  adminctl request PATCH /customers/01J... --data @patch.json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd.Context(), env, args[0], args[1], flags)
		},
	}

	cmd.Flags().StringArrayVar(&flags.params, "param", nil, "Query parameter as key=value (repeatable)")
	cmd.Flags().StringArrayVarP(&flags.headers, "header", "H", nil, "Header as key=value (repeatable)")
	cmd.Flags().StringVarP(&flags.data, "data", "d", "", "JSON body, or @file to read it from a file")
	cmd.Flags().BoolVar(&flags.skipAuth, "skip-auth", false, "Do not send the Authorization header")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "Abort the request after this long")

	return cmd
}

func runRequest(ctx context.Context, env *Env, rawMethod, path string, flags requestFlags) error {
	method, err := client.ParseMethod(rawMethod)
	if err != nil {
		return err
	}

	params, err := parsePairs(flags.params)
	if err != nil {
		return fmt.Errorf("invalid --param: %w", err)
	}
	headers, err := parsePairs(flags.headers)
	if err != nil {
		return fmt.Errorf("invalid --header: %w", err)
	}

	opts := &client.RequestOptions{
		Headers:  headers,
		Params:   make(map[string]any, len(params)),
		Timeout:  flags.timeout,
		SkipAuth: flags.skipAuth,
	}
	for k, v := range params {
		opts.Params[k] = v
	}

	if flags.data != "" {
		body, err := readData(flags.data)
		if err != nil {
			return err
		}
		opts.Body = body
	}

	resp, err := env.Client.Request(ctx, method, path, opts)
	if err != nil {
		return err
	}

	if err := printBody(env, resp); err != nil {
		return err
	}
	if !resp.OK {
		return fmt.Errorf("request failed (status %d)", resp.Status)
	}
	return nil
}

// readData loads a --data value, which must be valid JSON
func readData(data string) (json.RawMessage, error) {
	raw := []byte(data)
	if name, ok := strings.CutPrefix(data, "@"); ok {
		b, err := os.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		raw = b
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("--data is not valid JSON")
	}
	return json.RawMessage(raw), nil
}

func printBody(env *Env, resp *client.Response) error {
	switch data := resp.Data.(type) {
	case nil:
		return nil
	case string:
		if data != "" {
			fmt.Fprintln(env.Out, data)
		}
		return nil
	default:
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format response: %w", err)
		}
		fmt.Fprintln(env.Out, string(out))
		return nil
	}
}
