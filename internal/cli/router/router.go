// Package router resolves console paths to routes and runs navigation guards
// before every transition.
package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// CatchAll matches any path no other route matches
const CatchAll = "*"

// maxRedirects bounds the redirect chain of a single navigation
const maxRedirects = 10

var (
	ErrNoRoute      = errors.New("no route matches path")
	ErrRedirectLoop = errors.New("too many redirects")
)

// Meta holds the static per-route flags consulted by guards
type Meta struct {
	RequiresAuth  bool
	RequiresGuest bool
	AdminOnly     bool
}

// Route is a static entry in the route table
type Route struct {
	Path     string
	Name     string
	Meta     Meta
	Redirect string // when set, the route only redirects
}

// Location is a resolved navigation target
type Location struct {
	Path  string
	Route Route
}

// Decision is a guard verdict. The zero value allows the navigation.
type Decision struct {
	Redirect string
}

// Allow lets the navigation proceed
var Allow = Decision{}

// RedirectTo sends the navigation to path instead
func RedirectTo(path string) Decision {
	return Decision{Redirect: path}
}

// Guard runs before every navigation. from is nil on the first navigation.
type Guard func(ctx context.Context, to *Location, from *Location) Decision

// Hook runs after all guards allowed a navigation and before it completes.
// Hooks cannot block or redirect.
type Hook func(ctx context.Context, to *Location, from *Location)

// Router owns the route table, the guards and the current location
type Router struct {
	routes []Route
	logger zerolog.Logger

	mu           sync.Mutex
	guards       []Guard
	resolveHooks []Hook
	current      *Location
}

// Option configures a Router
type Option func(*Router)

// WithLogger sets the router logger
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// New creates a router over routes
func New(routes []Route, opts ...Option) *Router {
	r := &Router{
		routes: routes,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// BeforeEach registers a guard; guards run in registration order and the
// first redirect wins
func (r *Router) BeforeEach(g Guard) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.guards = append(r.guards, g)
}

// BeforeResolve registers a hook run once guards have allowed a navigation
func (r *Router) BeforeResolve(h Hook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolveHooks = append(r.resolveHooks, h)
}

// Routes returns the route table
func (r *Router) Routes() []Route {
	return r.routes
}

// Current returns the location of the last completed navigation, or nil
func (r *Router) Current() *Location {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// match finds the route for path; exact matches win over the catch-all
func (r *Router) match(path string) (Route, bool) {
	var fallback *Route
	for i := range r.routes {
		route := r.routes[i]
		if route.Path == path {
			return route, true
		}
		if route.Path == CatchAll && fallback == nil {
			fallback = &r.routes[i]
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return Route{}, false
}

// Resolve matches path and follows static route redirects without running guards
func (r *Router) Resolve(path string) (*Location, error) {
	path = normalize(path)
	for hops := 0; hops <= maxRedirects; hops++ {
		route, ok := r.match(path)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNoRoute, path)
		}
		if route.Redirect == "" {
			return &Location{Path: path, Route: route}, nil
		}
		path = normalize(route.Redirect)
	}
	return nil, fmt.Errorf("%w: resolving %s", ErrRedirectLoop, path)
}

// Push navigates to path. Guards run before the transition completes and may
// redirect it; the final location becomes current.
func (r *Router) Push(ctx context.Context, path string) (*Location, error) {
	r.mu.Lock()
	guards := append([]Guard(nil), r.guards...)
	hooks := append([]Hook(nil), r.resolveHooks...)
	from := r.current
	r.mu.Unlock()

	target := path
	for hops := 0; ; hops++ {
		if hops > maxRedirects {
			r.logger.Error().Str("path", path).Msg("Navigation aborted after too many redirects")
			return nil, fmt.Errorf("%w: navigating to %s", ErrRedirectLoop, path)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		to, err := r.Resolve(target)
		if err != nil {
			return nil, err
		}

		redirect := runGuards(ctx, guards, to, from)
		if redirect != "" {
			r.logger.Debug().Str("from", to.Path).Str("to", redirect).Msg("Navigation redirected")
			target = redirect
			continue
		}

		for _, h := range hooks {
			h(ctx, to, from)
		}

		r.mu.Lock()
		r.current = to
		r.mu.Unlock()

		return to, nil
	}
}

func runGuards(ctx context.Context, guards []Guard, to, from *Location) string {
	for _, g := range guards {
		if d := g(ctx, to, from); d.Redirect != "" {
			return d.Redirect
		}
	}
	return ""
}

func normalize(path string) string {
	path = strings.TrimSpace(path)
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}
