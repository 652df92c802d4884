package shell

import (
	"context"
	"errors"
	"fmt"

	"github.com/branchd-dev/adminconsole/internal/cli/auth"
	"github.com/branchd-dev/adminconsole/internal/cli/nav"
	"github.com/branchd-dev/adminconsole/internal/cli/router"
)

type menuAction int

const (
	actionNavigate menuAction = iota
	actionToggle
	actionLogout
	actionQuit
)

type menuEntry struct {
	label  string
	action menuAction
	path   string
}

func (s *Shell) menu() []menuEntry {
	var entries []menuEntry
	for _, item := range s.sidebar.Items() {
		entries = append(entries, menuEntry{
			label:  fmt.Sprintf("%s %s", item.Icon.Glyph(), item.Name),
			action: actionNavigate,
			path:   item.Path,
		})
	}

	toggle := "Collapse sidebar"
	if s.sidebar.Collapsed() {
		toggle = "Expand sidebar"
	}
	return append(entries,
		menuEntry{label: toggle, action: actionToggle},
		menuEntry{label: fmt.Sprintf("%s Logout", nav.IconOut.Glyph()), action: actionLogout},
		menuEntry{label: fmt.Sprintf("%s Quit", nav.IconCross.Glyph()), action: actionQuit},
	)
}

// Run opens start and keeps prompting for the next page until the user quits
// or interrupts. The login page prompts for credentials.
func (s *Shell) Run(ctx context.Context, start string) error {
	path := start
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		loc, err := s.Open(ctx, path)
		if err != nil {
			return err
		}

		if loc.Route.Name == router.NameLogin {
			next, err := s.promptLogin(ctx)
			if errors.Is(err, ErrAborted) {
				return nil
			}
			if err != nil {
				return err
			}
			path = next
			continue
		}

		entries := s.menu()
		labels := make([]string, len(entries))
		for i, e := range entries {
			labels[i] = e.label
		}

		idx, err := s.ui.Select("Go to", labels)
		if errors.Is(err, ErrAborted) {
			return nil
		}
		if err != nil {
			return err
		}

		entry := entries[idx]
		switch entry.action {
		case actionNavigate:
			path = entry.path
		case actionToggle:
			s.sidebar.Toggle()
			path = loc.Path
		case actionLogout:
			if err := s.client.Logout(); err != nil {
				return fmt.Errorf("failed to log out: %w", err)
			}
			fmt.Fprintln(s.out, "✓ Logged out")
			path = router.LoginPath
		case actionQuit:
			return nil
		}
	}
}

// promptLogin asks for credentials and returns the path to open next
func (s *Shell) promptLogin(ctx context.Context) (string, error) {
	store := s.client.Store()

	email, err := s.ui.Input("Email", auth.RememberedEmail(store), false)
	if err != nil {
		return "", err
	}
	password, err := s.ui.Input("Password", "", true)
	if err != nil {
		return "", err
	}

	resp, err := s.client.Login(ctx, email, password)
	if err != nil {
		return "", fmt.Errorf("login failed: %w", err)
	}
	if !resp.OK {
		fmt.Fprintf(s.out, "✗ Login failed: %s\n", resp.ErrorMessage())
		return router.LoginPath, nil
	}

	if s.remember {
		if err := auth.RememberEmail(store, email); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to remember email")
		}
	}

	fmt.Fprintln(s.out, "✓ Login successful!")
	return router.DashboardPath, nil
}
