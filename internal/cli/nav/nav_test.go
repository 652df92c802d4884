package nav

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/branchd-dev/adminconsole/internal/cli/router"
)

func TestIconRegistry(t *testing.T) {
	assert.Len(t, Icons(), 19)

	for _, name := range Icons() {
		assert.True(t, name.Valid(), name)
		assert.NotEqual(t, " ", name.Glyph(), name)
	}

	assert.False(t, IconName("rocket").Valid())
	assert.Equal(t, " ", IconName("rocket").Glyph())

	icon, err := ParseIcon("lock")
	require.NoError(t, err)
	assert.Equal(t, IconLock, icon)

	_, err = ParseIcon("rocket")
	assert.Error(t, err)
}

func TestNewSidebar_RejectsUnknownIcon(t *testing.T) {
	_, err := NewSidebar([]NavItem{{ID: 1, Name: "Bad", Icon: "rocket", Path: "/bad"}})
	assert.Error(t, err)
}

func TestSidebar_SetActive(t *testing.T) {
	s, err := NewSidebar(DefaultItems())
	require.NoError(t, err)

	_, ok := s.Active()
	assert.False(t, ok)

	assert.True(t, s.SetActive(router.CustomersPath))
	active, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, router.NameCustomers, active.Name)

	assert.True(t, s.SetActive(router.DashboardPath))
	active, _ = s.Active()
	assert.Equal(t, router.NameDashboard, active.Name)

	count := 0
	for _, item := range s.Items() {
		if item.Active {
			count++
		}
	}
	assert.Equal(t, 1, count)

	assert.False(t, s.SetActive(router.LoginPath))
	_, ok = s.Active()
	assert.False(t, ok)
}

func TestSidebar_Render(t *testing.T) {
	s, err := NewSidebar(DefaultItems())
	require.NoError(t, err)
	s.SetActive(router.DashboardPath)

	var buf bytes.Buffer
	require.NoError(t, s.Render(&buf))
	assert.Equal(t, "«\n>⌂ Dashboard\n ☺ Customers\n", buf.String())

	assert.True(t, s.Toggle())
	assert.True(t, s.Collapsed())

	buf.Reset()
	require.NoError(t, s.Render(&buf))
	assert.Equal(t, "»\n>⌂\n ☺\n", buf.String())

	assert.False(t, s.Toggle())
}
