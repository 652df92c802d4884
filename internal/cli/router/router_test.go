package router

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/branchd-dev/adminconsole/internal/cli/storage"
)

func newGuardedRouter(store storage.Store) *Router {
	r := New(DefaultRoutes())
	r.BeforeEach(AuthGuard(store, zerolog.Nop()))
	r.BeforeResolve(RememberHook(store, zerolog.Nop()))
	return r
}

func TestResolve(t *testing.T) {
	r := New(DefaultRoutes())

	tests := []struct {
		path     string
		wantPath string
		wantName string
	}{
		{"/login", LoginPath, NameLogin},
		{"login", LoginPath, NameLogin},
		{"/dashboard/", DashboardPath, NameDashboard},
		{"/customers?page=2", CustomersPath, NameCustomers},
		{"/", DashboardPath, NameDashboard},
		{"", DashboardPath, NameDashboard},
		{"/no/such/page", LoginPath, NameLogin},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			loc, err := r.Resolve(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPath, loc.Path)
			assert.Equal(t, tt.wantName, loc.Route.Name)
		})
	}
}

func TestResolve_NoRoute(t *testing.T) {
	r := New([]Route{{Path: "/only", Name: "Only"}})
	_, err := r.Resolve("/other")
	assert.ErrorIs(t, err, ErrNoRoute)
}

func TestResolve_StaticRedirectLoop(t *testing.T) {
	r := New([]Route{{Path: "/a", Redirect: "/b"}, {Path: "/b", Redirect: "/a"}})
	_, err := r.Resolve("/a")
	assert.ErrorIs(t, err, ErrRedirectLoop)
}

func TestPush_AnonymousToDashboardGoesToLogin(t *testing.T) {
	store := storage.NewMemory()
	r := newGuardedRouter(store)

	loc, err := r.Push(context.Background(), "/dashboard")
	require.NoError(t, err)
	assert.Equal(t, LoginPath, loc.Path)
	assert.Equal(t, loc, r.Current())
}

func TestPush_AdminReachesDashboard(t *testing.T) {
	store := storage.NewMemory()
	require.NoError(t, store.Set(storage.KeyToken, "t"))
	require.NoError(t, store.Set(storage.KeyUser, `{"role":"admin"}`))
	r := newGuardedRouter(store)

	loc, err := r.Push(context.Background(), "/dashboard")
	require.NoError(t, err)
	assert.Equal(t, DashboardPath, loc.Path)

	// guest-only login bounces a signed-in user to the dashboard
	loc, err = r.Push(context.Background(), "/login")
	require.NoError(t, err)
	assert.Equal(t, DashboardPath, loc.Path)

	loc, err = r.Push(context.Background(), "/")
	require.NoError(t, err)
	assert.Equal(t, DashboardPath, loc.Path)
}

func TestPush_StaffBouncesBetweenDashboardAndLogin(t *testing.T) {
	store := storage.NewMemory()
	require.NoError(t, store.Set(storage.KeyToken, "t"))
	require.NoError(t, store.Set(storage.KeyUser, `{"role":"staff"}`))
	r := newGuardedRouter(store)

	_, err := r.Push(context.Background(), "/dashboard")
	assert.ErrorIs(t, err, ErrRedirectLoop)
	assert.Nil(t, r.Current())
}

func TestPush_ObservesLoginBetweenNavigations(t *testing.T) {
	store := storage.NewMemory()
	r := newGuardedRouter(store)
	ctx := context.Background()

	loc, err := r.Push(ctx, "/customers")
	require.NoError(t, err)
	assert.Equal(t, LoginPath, loc.Path)

	require.NoError(t, store.Set(storage.KeyToken, "t"))
	require.NoError(t, store.Set(storage.KeyUser, `{"role":"admin"}`))

	loc, err = r.Push(ctx, "/customers")
	require.NoError(t, err)
	assert.Equal(t, CustomersPath, loc.Path)
}

func TestPush_GuardsAndHooksSeeFromAndTo(t *testing.T) {
	r := New(DefaultRoutes())

	var seen []string
	r.BeforeEach(func(ctx context.Context, to, from *Location) Decision {
		fromPath := "<nil>"
		if from != nil {
			fromPath = from.Path
		}
		seen = append(seen, "guard "+fromPath+" -> "+to.Path)
		return Allow
	})
	r.BeforeResolve(func(ctx context.Context, to, from *Location) {
		seen = append(seen, "resolve "+to.Path)
	})

	ctx := context.Background()
	_, err := r.Push(ctx, "/login")
	require.NoError(t, err)
	_, err = r.Push(ctx, "/customers")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"guard <nil> -> /login",
		"resolve /login",
		"guard /login -> /customers",
		"resolve /customers",
	}, seen)
}

func TestPush_FirstRedirectWins(t *testing.T) {
	r := New(DefaultRoutes())
	calls := 0
	r.BeforeEach(func(ctx context.Context, to, from *Location) Decision {
		if to.Path == CustomersPath {
			return RedirectTo(LoginPath)
		}
		return Allow
	})
	r.BeforeEach(func(ctx context.Context, to, from *Location) Decision {
		calls++
		return Allow
	})

	loc, err := r.Push(context.Background(), CustomersPath)
	require.NoError(t, err)
	assert.Equal(t, LoginPath, loc.Path)
	// second guard skipped for /customers, run once for /login
	assert.Equal(t, 1, calls)
}

func TestPush_CancelledContext(t *testing.T) {
	r := New(DefaultRoutes())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Push(ctx, "/login")
	assert.ErrorIs(t, err, context.Canceled)
}
