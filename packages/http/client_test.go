package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type observedRequest struct {
	Method  string
	Host    string
	URI     string
	Body    string
	Custom  string
	Auth    string
	Content string
}

func recordingServer(t *testing.T) (*httptest.Server, func() []observedRequest) {
	t.Helper()
	var mu sync.Mutex
	var seen []observedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		seen = append(seen, observedRequest{
			Method:  r.Method,
			Host:    r.Host,
			URI:     r.RequestURI,
			Body:    string(body),
			Custom:  r.Header.Get("X-Custom"),
			Auth:    r.Header.Get("Authorization"),
			Content: r.Header.Get("Content-Type"),
		})
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server, func() []observedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]observedRequest(nil), seen...)
	}
}

func TestClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/test", r.URL.Path)
		w.Header().Set("Content-Type", ContentTypeJSON)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"message": "hello"}`))
	}))
	defer server.Close()

	client := NewClient()
	resp, err := client.Get(context.Background(), server.URL+"/test", nil)

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, ContentTypeJSON, resp.Header("content-type"))
	assert.True(t, resp.IsJSON())
	assert.Contains(t, resp.BodyString(), "hello")
}

func TestClient_Post(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 123}`))
	}))
	defer server.Close()

	client := NewClient()
	resp, err := client.Post(context.Background(), server.URL, []byte(`{"name": "test"}`), map[string]string{
		"Content-Type": "application/json",
	})

	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)
	assert.False(t, resp.IsOK())
	assert.Contains(t, resp.BodyString(), "123")
}

func TestClient_MethodDefaulting(t *testing.T) {
	server, seen := recordingServer(t)
	client := NewClient()

	_, err := client.Do(context.Background(), &Request{URL: server.URL + "/nobody"})
	require.NoError(t, err)
	_, err = client.Do(context.Background(), &Request{URL: server.URL + "/body", Body: []byte("payload")})
	require.NoError(t, err)
	_, err = client.Do(context.Background(), &Request{Method: "put", URL: server.URL + "/explicit", Body: []byte("x")})
	require.NoError(t, err)

	got := seen()
	require.Len(t, got, 3)
	assert.Equal(t, "GET", got[0].Method)
	assert.Equal(t, "POST", got[1].Method)
	assert.Equal(t, "payload", got[1].Body)
	assert.Equal(t, "PUT", got[2].Method)
}

func TestClient_StrategiesAreEquivalent(t *testing.T) {
	server, seen := recordingServer(t)
	hostPort := strings.TrimPrefix(server.URL, "http://")

	urls := []string{
		server.URL,
		server.URL + "/",
		server.URL + "/a/b?x=1&y=two",
		server.URL + "/encoded%20path?q=a%26b#fragment",
		"http://user:p%40ss@" + hostPort + "/private",
	}

	for _, u := range urls {
		req := &Request{
			URL:     u,
			Headers: map[string]string{"X-Custom": "value", "Content-Type": "text/plain"},
			Body:    []byte("body"),
		}

		_, err := NewClient(WithStrategy(DirectURL)).Do(context.Background(), req)
		require.NoError(t, err, u)
		_, err = NewClient(WithStrategy(ParsedOptions)).Do(context.Background(), req)
		require.NoError(t, err, u)
	}

	got := seen()
	require.Len(t, got, 2*len(urls))
	for i := 0; i < len(got); i += 2 {
		assert.Equal(t, got[i], got[i+1], "request %d diverged between strategies", i/2)
	}
	assert.NotEmpty(t, got[len(got)-1].Auth, "credentials must survive both strategies")
}

func TestClient_OneConnectionPerCall(t *testing.T) {
	server, _ := recordingServer(t)

	var mu sync.Mutex
	var reused []bool
	client := NewClient(WithConnObserver(func(r bool) {
		mu.Lock()
		reused = append(reused, r)
		mu.Unlock()
	}))

	for i := 0; i < 3; i++ {
		_, err := client.Get(context.Background(), server.URL, nil)
		require.NoError(t, err)
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{false, false, false}, reused)
}

func TestClient_WithDefaultHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "override", r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(WithDefaultHeaders(map[string]string{
		"Authorization": "test-token",
		"User-Agent":    "custom-agent",
	}))
	resp, err := client.Get(context.Background(), server.URL, map[string]string{"User-Agent": "override"})

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestClient_RedirectsNotFollowedByDefault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/final" {
			_, _ = w.Write([]byte(`final`))
			return
		}
		http.Redirect(w, r, "/final", http.StatusFound)
	}))
	defer server.Close()

	resp, err := NewClient().Get(context.Background(), server.URL+"/redirect", nil)
	require.NoError(t, err)
	assert.Equal(t, 302, resp.StatusCode)

	resp, err = NewClient(WithFollowRedirects(true)).Get(context.Background(), server.URL+"/redirect", nil)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "final", resp.BodyString())
}

func TestClient_MaxRedirects(t *testing.T) {
	// /hop/3 -> /hop/2 -> /hop/1 -> /hop/0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n, _ := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/hop/"))
		if n == 0 {
			_, _ = w.Write([]byte(`landed`))
			return
		}
		http.Redirect(w, r, fmt.Sprintf("/hop/%d", n-1), http.StatusFound)
	}))
	defer server.Close()

	resp, err := NewClient(WithFollowRedirects(true), WithMaxRedirects(2)).Get(context.Background(), server.URL+"/hop/3", nil)
	require.NoError(t, err)
	assert.Equal(t, 302, resp.StatusCode)
	assert.Equal(t, "/hop/0", resp.Header("Location"))

	resp, err = NewClient(WithFollowRedirects(true), WithMaxRedirects(3)).Get(context.Background(), server.URL+"/hop/3", nil)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "landed", resp.BodyString())
}

func TestClient_TLSServer(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("secure"))
	}))
	defer server.Close()

	for _, s := range []Strategy{DirectURL, ParsedOptions} {
		client := NewClient(WithStrategy(s), WithTransport(server.Client().Transport))
		resp, err := client.Get(context.Background(), server.URL+"/tls", nil)
		require.NoError(t, err, s.String())
		assert.Equal(t, "secure", resp.BodyString())
	}
}

func TestClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient().Get(context.Background(), url, nil)
	assert.Error(t, err)
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid http URL",
			url:     "http://example.com/path",
			wantErr: false,
		},
		{
			name:    "valid https URL",
			url:     "https://example.com/path",
			wantErr: false,
		},
		{
			name:    "invalid scheme",
			url:     "ftp://example.com",
			wantErr: true,
			errMsg:  "unsupported URL scheme",
		},
		{
			name:    "missing scheme",
			url:     "example.com/path",
			wantErr: true,
			errMsg:  "unsupported URL scheme",
		},
		{
			name:    "missing host",
			url:     "http:///path",
			wantErr: true,
			errMsg:  "URL must have a host",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestResponse_IsOK(t *testing.T) {
	tests := []struct {
		statusCode int
		expected   bool
	}{
		{200, true},
		{201, false},
		{204, false},
		{302, false},
		{404, false},
		{500, false},
	}

	for _, tt := range tests {
		resp := &Response{StatusCode: tt.statusCode}
		assert.Equal(t, tt.expected, resp.IsOK(), "StatusCode: %d", tt.statusCode)
	}
}

func TestResponse_IsJSON(t *testing.T) {
	tests := []struct {
		contentType string
		expected    bool
	}{
		{"application/json; charset=utf-8", true},
		{"application/json", false},
		{"application/json;charset=utf-8", false},
		{"Application/JSON; charset=UTF-8", false},
		{"text/plain", false},
		{"", false},
	}

	for _, tt := range tests {
		resp := &Response{Headers: map[string]string{"Content-Type": tt.contentType}}
		assert.Equal(t, tt.expected, resp.IsJSON(), "Content-Type: %s", tt.contentType)
	}
}
