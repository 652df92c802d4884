package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/branchd-dev/adminconsole/internal/cli/client"
	"github.com/branchd-dev/adminconsole/internal/cli/router"
	"github.com/branchd-dev/adminconsole/internal/cli/shell"
)

// NewCustomersCmd creates the customers command group
func NewCustomersCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "customers",
		Aliases: []string{"customer"},
		Short:   "Manage customers",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if root := cmd.Root(); root.PersistentPreRunE != nil {
				if err := root.PersistentPreRunE(cmd, args); err != nil {
					return err
				}
			}
			return env.authorize(cmd.Context(), router.CustomersPath)
		},
	}

	cmd.AddCommand(
		newCustomersListCmd(env),
		newCustomersGetCmd(env),
		newCustomersAddCmd(env),
		newCustomersUpdateCmd(env),
		newCustomersDeleteCmd(env),
		newCustomersImportCmd(env),
		newCustomersExportCmd(env),
	)

	return cmd
}

func newCustomersListCmd(env *Env) *cobra.Command {
	var search, status string
	var page, limit int

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List customers",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := client.CustomerQuery{Page: page, Limit: limit}
			if search != "" {
				q.Search = &search
			}
			if status != "" {
				q.Status = &status
			}
			return runCustomersList(cmd.Context(), env, q)
		},
	}

	cmd.Flags().StringVarP(&search, "search", "q", "", "Filter by name, email or phone")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status")
	cmd.Flags().IntVar(&page, "page", 0, "Page number (starting at 1)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Page size")

	return cmd
}

func runCustomersList(ctx context.Context, env *Env, q client.CustomerQuery) error {
	resp, err := env.Client.ListCustomers(ctx, q)
	if err != nil {
		return err
	}
	if err := checkResponse(resp); err != nil {
		return err
	}

	list, err := client.Decode[client.CustomerList](resp)
	if err != nil {
		return err
	}

	if len(list.Items) == 0 {
		fmt.Fprintln(env.Out, "No customers found.")
		fmt.Fprintln(env.Out, "\nAdd a customer with: adminctl customers add --name <name>")
		return nil
	}

	fmt.Fprintf(env.Out, "Customers (page %d, %d total):\n\n", list.Page, list.Total)
	return shell.WriteCustomerTable(env.Out, list.Items)
}

func newCustomersGetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one customer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := env.Client.GetCustomer(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printCustomer(env, resp)
		},
	}
}

// customerFlags binds the editable customer fields
type customerFlags struct {
	name, email, phone, status, gender string
}

func (f *customerFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Customer name")
	cmd.Flags().StringVar(&f.email, "email", "", "Email address")
	cmd.Flags().StringVar(&f.phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&f.status, "status", "", "Status (active, inactive)")
	cmd.Flags().StringVar(&f.gender, "gender", "", "Gender (male, female, other)")
}

func (f *customerFlags) input() client.CustomerInput {
	return client.CustomerInput{
		Name:   f.name,
		Email:  optional(f.email),
		Phone:  optional(f.phone),
		Status: f.status,
		Gender: optional(f.gender),
	}
}

// changed returns only the fields whose flags were set; an empty value clears the field
func (f *customerFlags) changed(cmd *cobra.Command) map[string]any {
	values := map[string]string{
		"name":   f.name,
		"email":  f.email,
		"phone":  f.phone,
		"status": f.status,
		"gender": f.gender,
	}

	fields := make(map[string]any)
	for name, value := range values {
		if !cmd.Flags().Changed(name) {
			continue
		}
		if value == "" && name != "name" && name != "status" {
			fields[name] = nil
			continue
		}
		fields[name] = value
	}
	return fields
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func newCustomersAddCmd(env *Env) *cobra.Command {
	var flags customerFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a customer",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := env.Client.CreateCustomer(cmd.Context(), flags.input())
			if err != nil {
				return err
			}
			return printCustomer(env, resp)
		},
	}

	flags.register(cmd)
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newCustomersUpdateCmd(env *Env) *cobra.Command {
	var flags customerFlags
	var replace bool

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a customer",
		Long: `Update a customer.

By default only the fields given as flags are changed. With --replace the
whole record is replaced and omitted fields are cleared.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				resp *client.Response
				err  error
			)
			if replace {
				if flags.name == "" {
					return fmt.Errorf("--name is required with --replace")
				}
				resp, err = env.Client.UpdateCustomer(cmd.Context(), args[0], flags.input())
			} else {
				fields := flags.changed(cmd)
				if len(fields) == 0 {
					return fmt.Errorf("nothing to update: pass at least one field flag")
				}
				resp, err = env.Client.PatchCustomer(cmd.Context(), args[0], fields)
			}
			if err != nil {
				return err
			}
			return printCustomer(env, resp)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&replace, "replace", false, "Replace the whole record")

	return cmd
}

func newCustomersDeleteCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a customer",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := env.Client.DeleteCustomer(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := checkResponse(resp); err != nil {
				return err
			}
			fmt.Fprintf(env.Out, "✓ Deleted customer %s\n", args[0])
			return nil
		},
	}
}

// importResult mirrors the server's import summary
type importResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}

func newCustomersImportCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import customers from a .csv or .xlsx file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := env.Client.ImportCustomers(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := checkResponse(resp); err != nil {
				return err
			}

			result, err := client.Decode[importResult](resp)
			if err != nil {
				return err
			}
			fmt.Fprintf(env.Out, "✓ Imported %d customers (%d skipped)\n", result.Imported, result.Skipped)
			for _, msg := range result.Errors {
				fmt.Fprintf(env.Out, "  %s\n", msg)
			}
			return nil
		},
	}
}

func newCustomersExportCmd(env *Env) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all customers to an .xlsx workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := env.Client.ExportCustomers(cmd.Context())
			if err != nil {
				return err
			}
			if err := checkResponse(resp); err != nil {
				return err
			}
			if err := os.WriteFile(output, resp.Raw, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			fmt.Fprintf(env.Out, "✓ Exported customers to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "customers.xlsx", "Output file")

	return cmd
}

func printCustomer(env *Env, resp *client.Response) error {
	if err := checkResponse(resp); err != nil {
		return err
	}
	c, err := client.Decode[client.Customer](resp)
	if err != nil {
		return err
	}
	return shell.WriteCustomerTable(env.Out, []client.Customer{c})
}
