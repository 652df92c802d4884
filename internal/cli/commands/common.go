package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/branchd-dev/adminconsole/internal/cli/client"
	"github.com/branchd-dev/adminconsole/internal/cli/router"
	"github.com/branchd-dev/adminconsole/internal/cli/storage"
	"github.com/branchd-dev/adminconsole/internal/config"
	"github.com/branchd-dev/adminconsole/internal/logger"
)

// GlobalOptions are the persistent flags shared by every command
type GlobalOptions struct {
	APIURL   string
	Insecure bool
	Storage  string
	Verbose  bool
}

// Env is built once per invocation and handed to every command
type Env struct {
	Config *config.Config
	Logger zerolog.Logger
	Store  storage.Store
	Client *client.Client
	Router *router.Router
	Out    io.Writer
}

// Setup loads configuration and wires the store, client and router.
// A Store or Out set beforehand is kept.
func (e *Env) Setup(opts GlobalOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if opts.APIURL != "" {
		cfg.API.BaseURL = strings.TrimRight(opts.APIURL, "/")
	}
	if opts.Storage != "" {
		cfg.Storage.Backend = opts.Storage
	}
	if opts.Verbose {
		cfg.Logging.Level = "debug"
	}
	e.Config = cfg

	e.Logger = logger.Init(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)

	if e.Out == nil {
		e.Out = os.Stdout
	}

	if e.Store == nil {
		store, err := storage.Open(cfg.Storage.Backend, cfg.Storage.Path)
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}
		e.Store = store
	}

	e.Client = client.New(cfg.API.BaseURL,
		client.WithStore(e.Store),
		client.WithLogger(e.Logger),
		client.WithHTTPClient(client.NewHTTPClient(cfg.API.Timeout, opts.Insecure)),
		client.WithBusyHook(func(loading bool) {
			e.Logger.Debug().Bool("loading", loading).Msg("Client busy state changed")
		}),
	)

	e.Router = router.New(router.DefaultRoutes(), router.WithLogger(e.Logger))
	e.Router.BeforeEach(router.AuthGuard(e.Store, e.Logger))
	e.Router.BeforeResolve(router.RememberHook(e.Store, e.Logger))

	return nil
}

// errNotSignedIn is returned when the guard sends a command to the login page
var errNotSignedIn = errors.New("not signed in\nRun 'adminctl login' to sign in")

// authorize runs the navigation guard for path and fails unless the session
// may open it
func (e *Env) authorize(ctx context.Context, path string) error {
	loc, err := e.Router.Push(ctx, path)
	if errors.Is(err, router.ErrRedirectLoop) {
		return fmt.Errorf("this account is not an admin\nRun 'adminctl logout' and sign in with an admin account")
	}
	if err != nil {
		return err
	}
	if loc.Path != path {
		return errNotSignedIn
	}
	return nil
}

// checkResponse turns a non-OK response into an error
func checkResponse(resp *client.Response) error {
	if resp.OK {
		return nil
	}
	if resp.Status == http.StatusUnauthorized {
		return fmt.Errorf("session rejected by server (status 401): %s\nRun 'adminctl login' to sign in again", resp.ErrorMessage())
	}
	return fmt.Errorf("request failed (status %d): %s", resp.Status, resp.ErrorMessage())
}

// parsePairs splits repeated key=value flags
func parsePairs(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("expected key=value, got %q", pair)
		}
		out[strings.TrimSpace(k)] = v
	}
	return out, nil
}
