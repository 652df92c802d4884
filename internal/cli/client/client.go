package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/branchd-dev/adminconsole/internal/cli/storage"
)

// defaultHeaders are sent with every request unless the caller overrides them
var defaultHeaders = map[string]string{
	"Content-Type": "application/json",
	"Accept":       "application/json",
}

// Client represents an HTTP client for the admin API
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      storage.Store
	logger     zerolog.Logger

	mu    sync.RWMutex
	token string

	// busyMu orders hook calls with the counter transitions that trigger them
	busyMu   sync.Mutex
	inflight atomic.Int64
	onBusy   func(loading bool)
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithStore sets the store the token is persisted in
func WithStore(store storage.Store) Option {
	return func(c *Client) {
		c.store = store
	}
}

// WithLogger sets the client logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithBusyHook registers fn to be called when the client goes from idle to
// busy (true) and back to idle (false)
func WithBusyHook(fn func(loading bool)) Option {
	return func(c *Client) {
		c.onBusy = fn
	}
}

// NewHTTPClient returns an http.Client with the given timeout. insecure skips
// TLS verification for servers behind self-signed certificates.
func NewHTTPClient(timeout time.Duration, insecure bool) *http.Client {
	httpClient := &http.Client{Timeout: timeout}
	if insecure {
		httpClient.Transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true,
			},
		}
	}
	return httpClient
}

// New creates a new API client. The persisted token, if any, is loaded from
// the store immediately.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: NewHTTPClient(30*time.Second, false),
		store:      storage.NewMemory(),
		logger:     zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	token, err := c.store.Get(storage.KeyToken)
	switch {
	case err == nil:
		c.token = token
	case !errors.Is(err, storage.ErrNotFound):
		c.logger.Warn().Err(err).Msg("Failed to load persisted token")
	}

	return c
}

// BaseURL returns the URL relative paths are resolved against
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Store returns the store backing the client's session
func (c *Client) Store() storage.Store {
	return c.store
}

// SetToken stores the token in memory and persists it. The in-memory token is
// updated even if persisting fails.
func (c *Client) SetToken(token string) error {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()

	if err := c.store.Set(storage.KeyToken, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// ClearToken removes the token from memory and from persistent storage
func (c *Client) ClearToken() error {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()

	if err := c.store.Delete(storage.KeyToken); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// Token returns the in-memory token; empty means unauthenticated
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Loading reports whether any request is in flight
func (c *Client) Loading() bool {
	return c.inflight.Load() > 0
}

// InFlight returns the number of requests in flight
func (c *Client) InFlight() int {
	return int(c.inflight.Load())
}

func (c *Client) begin() {
	c.busyMu.Lock()
	defer c.busyMu.Unlock()
	if c.inflight.Add(1) == 1 && c.onBusy != nil {
		c.onBusy(true)
	}
}

func (c *Client) end() {
	c.busyMu.Lock()
	defer c.busyMu.Unlock()
	if c.inflight.Add(-1) == 0 && c.onBusy != nil {
		c.onBusy(false)
	}
}

// Request performs one HTTP call. Every completed exchange returns a Response,
// including 4xx and 5xx; callers check Response.OK. A call that never gets a
// usable response returns an *Error with Status 0.
func (c *Client) Request(ctx context.Context, method Method, path string, opts *RequestOptions) (*Response, error) {
	if !method.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
	}
	if opts == nil {
		opts = &RequestOptions{}
	}

	c.begin()
	defer c.end()

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	target := c.buildURL(path, opts.Params)
	log := c.logger.With().Str("method", string(method)).Str("url", target).Logger()

	body, contentType, err := encodeBody(method, opts.Body)
	if err != nil {
		return nil, c.fail(log, err)
	}

	req, err := http.NewRequestWithContext(ctx, string(method), target, body)
	if err != nil {
		return nil, c.fail(log, err)
	}

	for k, v := range defaultHeaders {
		req.Header.Set(k, v)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.Token(); token != "" && !opts.SkipAuth {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.fail(log, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.fail(log, err)
	}

	data, err := decodeBody(resp.Header.Get("Content-Type"), raw)
	if err != nil {
		return nil, c.fail(log, err)
	}

	log.Debug().
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("HTTP request")

	return &Response{
		Data:   data,
		Raw:    raw,
		Status: resp.StatusCode,
		OK:     resp.StatusCode >= 200 && resp.StatusCode < 300,
		Header: resp.Header,
	}, nil
}

func (c *Client) fail(log zerolog.Logger, err error) *Error {
	e := newError(err)
	log.Debug().Err(err).Msg("HTTP request failed")
	return e
}

// Get performs a GET request
func (c *Client) Get(ctx context.Context, path string, opts *RequestOptions) (*Response, error) {
	return c.Request(ctx, MethodGet, path, opts)
}

// Post performs a POST request with body
func (c *Client) Post(ctx context.Context, path string, body any, opts *RequestOptions) (*Response, error) {
	return c.Request(ctx, MethodPost, path, withBody(opts, body))
}

// Put performs a PUT request with body
func (c *Client) Put(ctx context.Context, path string, body any, opts *RequestOptions) (*Response, error) {
	return c.Request(ctx, MethodPut, path, withBody(opts, body))
}

// Patch performs a PATCH request with body
func (c *Client) Patch(ctx context.Context, path string, body any, opts *RequestOptions) (*Response, error) {
	return c.Request(ctx, MethodPatch, path, withBody(opts, body))
}

// Delete performs a DELETE request
func (c *Client) Delete(ctx context.Context, path string, opts *RequestOptions) (*Response, error) {
	return c.Request(ctx, MethodDelete, path, opts)
}

// Upload POSTs form as multipart/form-data
func (c *Client) Upload(ctx context.Context, path string, form *Multipart, opts *RequestOptions) (*Response, error) {
	return c.Request(ctx, MethodPost, path, withBody(opts, form))
}

func withBody(opts *RequestOptions, body any) *RequestOptions {
	var o RequestOptions
	if opts != nil {
		o = *opts
	}
	o.Body = body
	return &o
}

// buildURL resolves path against the base URL and appends non-nil params
func (c *Client) buildURL(path string, params map[string]any) string {
	target := path
	if !isAbsoluteURL(path) {
		target = c.baseURL + path
	}

	q := url.Values{}
	for k, v := range params {
		if s, ok := paramString(v); ok {
			q.Add(k, s)
		}
	}
	encoded := q.Encode()
	if encoded == "" {
		return target
	}

	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	return target + sep + encoded
}

func isAbsoluteURL(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// paramString stringifies a query value; nil values and nil pointers are skipped
func paramString(v any) (string, bool) {
	if v == nil {
		return "", false
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return "", false
		}
		return paramString(rv.Elem().Interface())
	case reflect.Map, reflect.Slice:
		if rv.IsNil() {
			return "", false
		}
	}

	return fmt.Sprint(v), true
}

// encodeBody returns the request body and a Content-Type override ("" keeps the default)
func encodeBody(method Method, body any) (io.Reader, string, error) {
	if !method.hasBody() || body == nil {
		return nil, "", nil
	}

	switch b := body.(type) {
	case *Multipart:
		if b == nil {
			return nil, "", nil
		}
		return b.encode()
	case json.RawMessage:
		return bytes.NewReader(b), "", nil
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal request: %w", err)
	}
	return bytes.NewReader(data), "", nil
}

// decodeBody parses JSON responses and passes anything else through as text
func decodeBody(contentType string, raw []byte) (any, error) {
	if !strings.Contains(strings.ToLower(contentType), "application/json") {
		return string(raw), nil
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return data, nil
}
