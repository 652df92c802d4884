// Package shell renders console pages in the terminal. Every page is reached
// through the router so the navigation guard runs exactly as it does for
// one-shot commands.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/branchd-dev/adminconsole/internal/cli/auth"
	"github.com/branchd-dev/adminconsole/internal/cli/client"
	"github.com/branchd-dev/adminconsole/internal/cli/nav"
	"github.com/branchd-dev/adminconsole/internal/cli/router"
)

// dashboardPreview is how many customers the dashboard lists
const dashboardPreview = 5

// Shell ties the router, the API client and the sidebar together
type Shell struct {
	router  *router.Router
	client  *client.Client
	sidebar *nav.Sidebar
	out     io.Writer
	logger  zerolog.Logger
	ui      UI

	remember bool
	query    client.CustomerQuery
}

// Option configures a Shell
type Option func(*Shell)

// WithOutput sets where pages are written (stdout by default)
func WithOutput(w io.Writer) Option {
	return func(s *Shell) {
		s.out = w
	}
}

// WithLogger sets the shell logger
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Shell) {
		s.logger = logger
	}
}

// WithUI sets the interactive prompts used by Run
func WithUI(ui UI) Option {
	return func(s *Shell) {
		s.ui = ui
	}
}

// WithRemember makes logins from the shell remember the email
func WithRemember(remember bool) Option {
	return func(s *Shell) {
		s.remember = remember
	}
}

// WithCustomerQuery sets the filter used by the customers page
func WithCustomerQuery(q client.CustomerQuery) Option {
	return func(s *Shell) {
		s.query = q
	}
}

// New creates a shell
func New(r *router.Router, c *client.Client, sidebar *nav.Sidebar, opts ...Option) *Shell {
	s := &Shell{
		router:  r,
		client:  c,
		sidebar: sidebar,
		out:     os.Stdout,
		logger:  zerolog.Nop(),
		ui:      PromptUI{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sidebar returns the shell's sidebar
func (s *Shell) Sidebar() *nav.Sidebar {
	return s.sidebar
}

// Open navigates to path and renders the page the guard lets through
func (s *Shell) Open(ctx context.Context, path string) (*router.Location, error) {
	loc, err := s.router.Push(ctx, path)
	if err != nil {
		if errors.Is(err, router.ErrRedirectLoop) {
			return nil, fmt.Errorf("%w\nThis account is signed in but is not an admin. Run 'adminctl logout' and sign in with an admin account", err)
		}
		return nil, err
	}

	s.sidebar.SetActive(loc.Path)
	if !loc.Route.Meta.RequiresGuest {
		if err := s.sidebar.Render(s.out); err != nil {
			return nil, err
		}
		fmt.Fprintln(s.out)
	}

	switch loc.Route.Name {
	case router.NameLogin:
		err = s.renderLogin()
	case router.NameDashboard:
		err = s.renderDashboard(ctx)
	case router.NameCustomers:
		err = s.renderCustomers(ctx)
	default:
		fmt.Fprintf(s.out, "%s\n", loc.Path)
	}
	if err != nil {
		return nil, err
	}

	return loc, nil
}

func (s *Shell) renderLogin() error {
	fmt.Fprintln(s.out, "Not signed in.")
	if email := auth.RememberedEmail(s.client.Store()); email != "" {
		fmt.Fprintf(s.out, "Sign in with: adminctl login --email %s\n", email)
		return nil
	}
	fmt.Fprintln(s.out, "Sign in with: adminctl login --email <email>")
	return nil
}

func (s *Shell) renderDashboard(ctx context.Context) error {
	var me, list *client.Response

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		resp, err := s.client.Me(gctx)
		if err != nil {
			return fmt.Errorf("failed to load profile: %w", err)
		}
		me = resp
		return nil
	})
	g.Go(func() error {
		resp, err := s.client.ListCustomers(gctx, client.CustomerQuery{Limit: dashboardPreview})
		if err != nil {
			return fmt.Errorf("failed to load customers: %w", err)
		}
		list = resp
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Fprintln(s.out, "Dashboard")
	fmt.Fprintln(s.out, "─────────")

	if me.OK {
		u, err := client.Decode[auth.User](me)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Signed in as %s <%s> (%s)\n", u.Name, u.Email, u.Role)
	} else {
		s.renderFailure("profile", me)
	}

	if list.OK {
		page, err := client.Decode[client.CustomerList](list)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Customers: %d\n\n", page.Total)
		return s.writeCustomers(page.Items)
	}
	s.renderFailure("customers", list)
	return nil
}

func (s *Shell) renderCustomers(ctx context.Context) error {
	resp, err := s.client.ListCustomers(ctx, s.query)
	if err != nil {
		return fmt.Errorf("failed to load customers: %w", err)
	}
	if !resp.OK {
		s.renderFailure("customers", resp)
		return nil
	}

	page, err := client.Decode[client.CustomerList](resp)
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "Customers (page %d, %d total)\n\n", page.Page, page.Total)
	return s.writeCustomers(page.Items)
}

func (s *Shell) renderFailure(what string, resp *client.Response) {
	if resp.Status == http.StatusUnauthorized {
		fmt.Fprintf(s.out, "✗ %s: session expired, run 'adminctl login'\n", what)
		return
	}
	fmt.Fprintf(s.out, "✗ %s: %s (status %d)\n", what, resp.ErrorMessage(), resp.Status)
}

func (s *Shell) writeCustomers(customers []client.Customer) error {
	if len(customers) == 0 {
		fmt.Fprintln(s.out, "No customers found.")
		return nil
	}
	return WriteCustomerTable(s.out, customers)
}

// WriteCustomerTable writes customers as an aligned table
func WriteCustomerTable(out io.Writer, customers []client.Customer) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tPHONE\tSTATUS\tGENDER")
	fmt.Fprintln(w, "──\t────\t─────\t─────\t──────\t──────")
	for _, c := range customers {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			c.ID,
			c.Name,
			orDash(c.Email),
			orDash(c.Phone),
			c.Status,
			orDash(c.Gender),
		)
	}
	return w.Flush()
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
