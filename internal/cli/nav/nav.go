// Package nav holds the console sidebar: its items, their icons and which one
// is active.
package nav

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/branchd-dev/adminconsole/internal/cli/router"
)

// NavItem is one sidebar entry
type NavItem struct {
	ID     int
	Name   string
	Icon   IconName
	Active bool
	Path   string
}

// DefaultItems is the sidebar of the admin console
func DefaultItems() []NavItem {
	return []NavItem{
		{ID: 1, Name: router.NameDashboard, Icon: IconHome, Path: router.DashboardPath},
		{ID: 2, Name: router.NameCustomers, Icon: IconPeople, Path: router.CustomersPath},
	}
}

// Sidebar tracks the navigation items and the collapsed state
type Sidebar struct {
	mu        sync.Mutex
	items     []NavItem
	collapsed bool
}

// NewSidebar creates a sidebar over items. Items with unknown icons are rejected.
func NewSidebar(items []NavItem) (*Sidebar, error) {
	for _, item := range items {
		if !item.Icon.Valid() {
			return nil, fmt.Errorf("nav item %q: unknown icon %q", item.Name, item.Icon)
		}
	}
	return &Sidebar{items: append([]NavItem(nil), items...)}, nil
}

// Items returns a copy of the current items
func (s *Sidebar) Items() []NavItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]NavItem(nil), s.items...)
}

// SetActive marks the item whose path matches path and clears the rest.
// It reports whether any item matched.
func (s *Sidebar) SetActive(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := false
	for i := range s.items {
		s.items[i].Active = s.items[i].Path == path
		matched = matched || s.items[i].Active
	}
	return matched
}

// Active returns the active item, if any
func (s *Sidebar) Active() (NavItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.items {
		if item.Active {
			return item, true
		}
	}
	return NavItem{}, false
}

// Toggle flips between collapsed and expanded and returns the new state
func (s *Sidebar) Toggle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collapsed = !s.collapsed
	return s.collapsed
}

// Collapsed reports whether only icons are shown
func (s *Sidebar) Collapsed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collapsed
}

// Render writes the sidebar to w, one item per line
func (s *Sidebar) Render(w io.Writer) error {
	s.mu.Lock()
	items := append([]NavItem(nil), s.items...)
	collapsed := s.collapsed
	s.mu.Unlock()

	var b strings.Builder
	toggle := IconCollapse
	if collapsed {
		toggle = IconExpand
	}
	fmt.Fprintf(&b, "%s\n", toggle.Glyph())

	for _, item := range items {
		marker := " "
		if item.Active {
			marker = ">"
		}
		if collapsed {
			fmt.Fprintf(&b, "%s%s\n", marker, item.Icon.Glyph())
			continue
		}
		fmt.Fprintf(&b, "%s%s %s\n", marker, item.Icon.Glyph(), item.Name)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
