package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/branchd-dev/adminconsole/internal/cli/auth"
	"github.com/branchd-dev/adminconsole/internal/cli/storage"
)

// recordedRequest captures what the test server received
type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

// echoServer records each request and answers with status and a JSON body
func echoServer(t *testing.T, status int, body string) (*httptest.Server, *[]recordedRequest) {
	t.Helper()

	var mu sync.Mutex
	var got []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		got = append(got, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Header: r.Header.Clone(),
			Body:   data,
		})
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return srv, &got
}

func TestToken_SetGetClear(t *testing.T) {
	store := storage.NewMemory()
	c := New("http://example.invalid", WithStore(store))

	assert.Equal(t, "", c.Token())

	require.NoError(t, c.SetToken("abc"))
	assert.Equal(t, "abc", c.Token())
	persisted, err := store.Get(storage.KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "abc", persisted)

	require.NoError(t, c.ClearToken())
	assert.Equal(t, "", c.Token())
	_, err = store.Get(storage.KeyToken)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestNew_LoadsPersistedToken(t *testing.T) {
	store := storage.NewMemory()
	require.NoError(t, store.Set(storage.KeyToken, "persisted"))

	c := New("http://example.invalid", WithStore(store))
	assert.Equal(t, "persisted", c.Token())
}

func TestRequest_AuthorizationHeader(t *testing.T) {
	srv, got := echoServer(t, http.StatusOK, `{}`)
	c := New(srv.URL)
	ctx := context.Background()

	// no token, no header
	_, err := c.Get(ctx, "/a", nil)
	require.NoError(t, err)

	require.NoError(t, c.SetToken("tok-123"))
	_, err = c.Get(ctx, "/b", nil)
	require.NoError(t, err)

	_, err = c.Get(ctx, "/c", &RequestOptions{SkipAuth: true})
	require.NoError(t, err)

	// the token beats a caller-supplied Authorization header
	_, err = c.Get(ctx, "/d", &RequestOptions{Headers: map[string]string{"Authorization": "Basic xyz"}})
	require.NoError(t, err)

	require.Len(t, *got, 4)
	assert.Empty(t, (*got)[0].Header.Get("Authorization"))
	assert.Equal(t, "Bearer tok-123", (*got)[1].Header.Get("Authorization"))
	assert.Empty(t, (*got)[2].Header.Get("Authorization"))
	assert.Equal(t, "Bearer tok-123", (*got)[3].Header.Get("Authorization"))
}

func TestRequest_DefaultHeadersAndOverrides(t *testing.T) {
	srv, got := echoServer(t, http.StatusOK, `{}`)
	c := New(srv.URL)

	_, err := c.Post(context.Background(), "/x", map[string]string{"a": "b"}, &RequestOptions{
		Headers: map[string]string{
			"Accept":   "text/csv",
			"X-Tenant": "acme",
		},
	})
	require.NoError(t, err)

	require.Len(t, *got, 1)
	h := (*got)[0].Header
	assert.Equal(t, "application/json", h.Get("Content-Type"))
	assert.Equal(t, "text/csv", h.Get("Accept"))
	assert.Equal(t, "acme", h.Get("X-Tenant"))
}

func TestRequest_QueryParams(t *testing.T) {
	srv, got := echoServer(t, http.StatusOK, `{}`)
	c := New(srv.URL)

	var nilString *string
	status := "active"
	_, err := c.Get(context.Background(), "/customers", &RequestOptions{
		Params: map[string]any{
			"q":       "a&b c",
			"page":    2,
			"active":  true,
			"status":  &status,
			"missing": nil,
			"nilptr":  nilString,
		},
	})
	require.NoError(t, err)

	require.Len(t, *got, 1)
	assert.Equal(t, "/customers", (*got)[0].Path)
	assert.Equal(t, "active=true&page=2&q=a%26b+c&status=active", (*got)[0].Query)
}

func TestRequest_QueryParamsAllNil(t *testing.T) {
	c := New("http://api.test")
	assert.Equal(t, "http://api.test/x", c.buildURL("/x", map[string]any{"a": nil}))
	assert.Equal(t, "http://api.test/x?a=1&b=2", c.buildURL("/x?a=1", map[string]any{"b": 2}))
}

func TestRequest_AbsoluteURL(t *testing.T) {
	srv, got := echoServer(t, http.StatusOK, `{}`)
	c := New("http://base.invalid/api")

	_, err := c.Get(context.Background(), srv.URL+"/direct", nil)
	require.NoError(t, err)
	require.Len(t, *got, 1)
	assert.Equal(t, "/direct", (*got)[0].Path)

	assert.Equal(t, "http://base.invalid/api/rel", c.buildURL("/rel", nil))
	assert.Equal(t, "HTTPS://elsewhere/x", c.buildURL("HTTPS://elsewhere/x", nil))
}

func TestRequest_BodyOnlyForWriteMethods(t *testing.T) {
	srv, got := echoServer(t, http.StatusOK, `{}`)
	c := New(srv.URL)
	ctx := context.Background()
	body := map[string]any{"name": "Ada"}

	for _, m := range []Method{MethodGet, MethodDelete, MethodPost, MethodPut, MethodPatch} {
		_, err := c.Request(ctx, m, "/x", &RequestOptions{Body: body})
		require.NoError(t, err)
	}

	require.Len(t, *got, 5)
	assert.Empty(t, (*got)[0].Body)
	assert.Empty(t, (*got)[1].Body)
	for _, r := range (*got)[2:] {
		assert.JSONEq(t, `{"name":"Ada"}`, string(r.Body), r.Method)
	}
}

func TestRequest_HTTPErrorIsNotAnError(t *testing.T) {
	srv, _ := echoServer(t, http.StatusUnprocessableEntity, `{"error":"name is required"}`)
	c := New(srv.URL)

	resp, err := c.Post(context.Background(), "/customers", map[string]string{}, nil)
	require.NoError(t, err)
	assert.False(t, resp.OK)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Status)
	assert.Equal(t, "name is required", resp.ErrorMessage())
	assert.Equal(t, map[string]any{"error": "name is required"}, resp.Data)
}

func TestRequest_ResponseDecoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"items":[1,2],"total":2}`))
		case "/text":
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte("pong"))
		case "/empty":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNoContent)
		case "/broken":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"items":`))
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	ctx := context.Background()

	resp, err := c.Get(ctx, "/json", nil)
	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.Equal(t, map[string]any{"items": []any{float64(1), float64(2)}, "total": float64(2)}, resp.Data)

	type page struct {
		Items []int `json:"items"`
		Total int   `json:"total"`
	}
	p, err := Decode[page](resp)
	require.NoError(t, err)
	assert.Equal(t, page{Items: []int{1, 2}, Total: 2}, p)

	resp, err = c.Get(ctx, "/text", nil)
	require.NoError(t, err)
	assert.Equal(t, "pong", resp.Data)

	resp, err = c.Get(ctx, "/empty", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.Status)
	assert.Nil(t, resp.Data)

	_, err = c.Get(ctx, "/broken", nil)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 0, apiErr.Status)
}

func TestRequest_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(url)
	for _, call := range []func() (*Response, error){
		func() (*Response, error) { return c.Get(context.Background(), "/x", nil) },
		func() (*Response, error) { return c.Post(context.Background(), "/x", map[string]int{"a": 1}, nil) },
		func() (*Response, error) { return c.Delete(context.Background(), "/x", nil) },
	} {
		resp, err := call()
		assert.Nil(t, resp)

		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, 0, apiErr.Status)
		assert.NotEmpty(t, apiErr.Message)
		assert.True(t, IsTransportError(err))
	}
	assert.False(t, c.Loading())
}

func TestRequest_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := New(srv.URL)
	_, err := c.Get(context.Background(), "/slow", &RequestOptions{Timeout: 20 * time.Millisecond})

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 0, apiErr.Status)
	assert.Contains(t, apiErr.Message, "deadline exceeded")
}

func TestRequest_UnsupportedMethod(t *testing.T) {
	c := New("http://example.invalid")
	_, err := c.Request(context.Background(), Method("OPTIONS"), "/x", nil)
	assert.ErrorIs(t, err, ErrUnsupportedMethod)
	assert.Equal(t, 0, c.InFlight())
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("patch")
	require.NoError(t, err)
	assert.Equal(t, MethodPatch, m)

	_, err = ParseMethod("TRACE")
	assert.ErrorIs(t, err, ErrUnsupportedMethod)
}

func TestUpload_Multipart(t *testing.T) {
	type received struct {
		contentType string
		field       string
		filename    string
		content     string
	}
	var got received

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.contentType = r.Header.Get("Content-Type")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		got.field = r.FormValue("source")
		f, hdr, err := r.FormFile("file")
		if err == nil {
			data, _ := io.ReadAll(f)
			got.filename = hdr.Filename
			got.content = string(data)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"imported":1}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	form := NewMultipart().
		AddField("source", "cli").
		AddFile("file", "customers.csv", strings.NewReader("name\nAda\n"))

	resp, err := c.Upload(context.Background(), "/customers/import", form, nil)
	require.NoError(t, err)
	assert.True(t, resp.OK)

	assert.True(t, strings.HasPrefix(got.contentType, "multipart/form-data; boundary="), got.contentType)
	assert.Equal(t, "cli", got.field)
	assert.Equal(t, "customers.csv", got.filename)
	assert.Equal(t, "name\nAda\n", got.content)
}

func TestLoading_CounterSemantics(t *testing.T) {
	release := map[string]chan struct{}{
		"/one": make(chan struct{}),
		"/two": make(chan struct{}),
	}
	arrived := make(chan struct{}, 2)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		arrived <- struct{}{}
		<-release[r.URL.Path]
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	var transitions []bool
	var mu sync.Mutex
	c := New(srv.URL, WithBusyHook(func(loading bool) {
		mu.Lock()
		transitions = append(transitions, loading)
		mu.Unlock()
	}))
	assert.False(t, c.Loading())

	done := map[string]chan struct{}{
		"/one": make(chan struct{}),
		"/two": make(chan struct{}),
	}
	for path := range done {
		go func(path string) {
			_, err := c.Get(context.Background(), path, nil)
			assert.NoError(t, err)
			close(done[path])
		}(path)
	}

	<-arrived
	<-arrived
	assert.True(t, c.Loading())
	assert.Equal(t, 2, c.InFlight())

	close(release["/one"])
	<-done["/one"]
	assert.True(t, c.Loading(), "loading must stay true while the second call is in flight")
	assert.Equal(t, 1, c.InFlight())

	close(release["/two"])
	<-done["/two"]
	assert.False(t, c.Loading())
	assert.Equal(t, 0, c.InFlight())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{true, false}, transitions)
}

func TestLoading_HookTransitionsAlternate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	var transitions []bool
	var mu sync.Mutex
	c := New(srv.URL, WithBusyHook(func(loading bool) {
		mu.Lock()
		transitions = append(transitions, loading)
		mu.Unlock()
	}))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Get(context.Background(), "/ping", nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.False(t, c.Loading())

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, transitions)
	for i, loading := range transitions {
		assert.Equal(t, i%2 == 0, loading, "transition %d", i)
	}
	assert.False(t, transitions[len(transitions)-1], "the last transition must report idle")
}

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("Authorization") != "" {
			t.Errorf("login must not send Authorization, got %q", r.Header.Get("Authorization"))
		}

		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if req.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Invalid email or password"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token": "jwt-abc",
			"user":  map[string]any{"id": "u1", "email": req.Email, "name": "Root", "role": "admin"},
		})
	}))
	defer srv.Close()

	store := storage.NewMemory()
	c := New(srv.URL+"/api", WithStore(store))
	require.NoError(t, c.SetToken("stale"))

	resp, err := c.Login(context.Background(), "root@example.com", "wrong")
	require.NoError(t, err)
	assert.False(t, resp.OK)
	assert.Equal(t, http.StatusUnauthorized, resp.Status)
	assert.Equal(t, "stale", c.Token())

	resp, err = c.Login(context.Background(), "root@example.com", "secret")
	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.Equal(t, "jwt-abc", c.Token())

	st := auth.LoadState(store)
	assert.True(t, st.Authenticated())
	assert.True(t, st.IsAdmin())
	assert.Equal(t, "root@example.com", st.User.Email)

	require.NoError(t, c.Logout())
	st = auth.LoadState(store)
	assert.False(t, st.Authenticated())
	assert.Nil(t, st.User)
}

func TestCustomerQuery_Params(t *testing.T) {
	search := "ada"
	params := CustomerQuery{Search: &search, Page: 3}.params()

	c := New("http://api.test")
	assert.Equal(t, "http://api.test/customers?page=3&q=ada", c.buildURL("/customers", params))
	assert.Equal(t, "/customers/a%2Fb", customerPath("a/b"))
}
