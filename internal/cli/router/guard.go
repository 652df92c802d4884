package router

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/branchd-dev/adminconsole/internal/cli/auth"
	"github.com/branchd-dev/adminconsole/internal/cli/storage"
)

// Decide applies the access rules for a route given the session state.
// Rules are evaluated in order and the first match wins.
func Decide(meta Meta, st auth.State) Decision {
	switch {
	case meta.RequiresAuth && !st.Authenticated():
		return RedirectTo(LoginPath)
	case meta.RequiresAuth && meta.AdminOnly && !st.IsAdmin():
		return RedirectTo(LoginPath)
	case meta.RequiresAuth:
		return Allow
	case meta.RequiresGuest && st.Authenticated():
		return RedirectTo(DashboardPath)
	default:
		return Allow
	}
}

// AuthGuard re-reads the session from store on every navigation and applies Decide
func AuthGuard(store storage.Store, logger zerolog.Logger) Guard {
	return func(ctx context.Context, to *Location, from *Location) Decision {
		st := auth.LoadState(store)
		if st.UserErr != nil {
			logger.Debug().Err(st.UserErr).Msg("Ignoring unreadable user record")
		}

		meta := to.Route.Meta
		d := Decide(meta, st)
		if meta.RequiresAuth && meta.AdminOnly && st.Authenticated() && !st.IsAdmin() {
			logger.Warn().Str("path", to.Path).Msg("Non-admin user attempted to access admin route")
		}
		return d
	}
}

// RememberHook looks at the remembered login before non-guest routes resolve.
// It only reports; sessions are kept until an explicit logout.
func RememberHook(store storage.Store, logger zerolog.Logger) Hook {
	return func(ctx context.Context, to *Location, from *Location) {
		if to.Route.Meta.RequiresGuest {
			return
		}
		if auth.RememberedEmail(store) == "" {
			logger.Debug().Str("path", to.Path).Msg("No remembered login; session lasts until logout")
		}
	}
}
