package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Method is an HTTP method the client accepts
type Method string

const (
	MethodGet    Method = http.MethodGet
	MethodPost   Method = http.MethodPost
	MethodPut    Method = http.MethodPut
	MethodPatch  Method = http.MethodPatch
	MethodDelete Method = http.MethodDelete
)

// ErrUnsupportedMethod is returned by Request for methods outside the enumeration
var ErrUnsupportedMethod = errors.New("unsupported method")

// ParseMethod converts a method name (any case) into a Method
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMethod, s)
	}
	return m, nil
}

// Valid reports whether m is one of the supported methods
func (m Method) Valid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete:
		return true
	}
	return false
}

// hasBody reports whether a request body is sent for m
func (m Method) hasBody() bool {
	return m == MethodPost || m == MethodPut || m == MethodPatch
}

// RequestOptions describes everything about a call besides method and path
type RequestOptions struct {
	// Headers override the defaults; the caller wins on conflict
	Headers map[string]string
	// Params are appended to the query string; nil values are skipped
	Params map[string]any
	// Body is JSON-encoded unless it is a *Multipart
	Body any
	// Timeout bounds the whole call when > 0
	Timeout time.Duration
	// SkipAuth suppresses the Authorization header
	SkipAuth bool
}

// Response is returned for every completed HTTP exchange, whatever the status
type Response struct {
	// Data is the decoded JSON value, or the body as a string for non-JSON responses
	Data   any
	Raw    []byte
	Status int
	OK     bool
	Header http.Header
}

// Decode unmarshals the raw JSON body into v
func (r *Response) Decode(v any) error {
	if len(r.Raw) == 0 {
		return fmt.Errorf("empty response body")
	}
	if err := json.Unmarshal(r.Raw, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Text returns the body as a string
func (r *Response) Text() string {
	return string(r.Raw)
}

// ErrorMessage extracts the "error" or "message" field of a JSON error body,
// falling back to the raw text
func (r *Response) ErrorMessage() string {
	if m, ok := r.Data.(map[string]any); ok {
		for _, key := range []string{"error", "message"} {
			if s, ok := m[key].(string); ok && s != "" {
				return s
			}
		}
	}
	if s, ok := r.Data.(string); ok && s != "" {
		return s
	}
	return http.StatusText(r.Status)
}

// Decode unmarshals the response into a new T
func Decode[T any](r *Response) (T, error) {
	var v T
	err := r.Decode(&v)
	return v, err
}

// Error is the envelope for calls that never obtained a usable HTTP response.
// Status is always 0; HTTP error statuses are reported through Response.OK instead.
type Error struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("request failed (status %d): %s", e.Status, e.Message)
}

// defaultNetworkMessage is used when the underlying failure carries no message
const defaultNetworkMessage = "Network error"

func newError(err error) *Error {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	if msg == "" {
		msg = defaultNetworkMessage
	}
	return &Error{Status: 0, Message: msg}
}

// IsTransportError reports whether err is a status-0 client error
func IsTransportError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Status == 0
}
