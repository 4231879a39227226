package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildURL(t *testing.T) {
	tests := []struct {
		name      string
		serverURL string
		path      string
		expected  string
	}{
		{"plain base", "https://h", "/api/sessions", "https://h/api/sessions"},
		{"trailing slash stripped", "https://h/", "/api/sessions", "https://h/api/sessions"},
		{"redundant api prefix stripped", "https://h/api", "/api/sessions", "https://h/api/sessions"},
		{"api path against api base", "https://h/api", "/api", "https://h/api"},
		{"unprefixed path against api base", "https://h/api", "/sessions", "https://h/api/sessions"},
		{"unrelated prefix kept", "https://h/gateway", "/api/sendText", "https://h/gateway/api/sendText"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildURL(tt.serverURL, tt.path))
		})
	}
}

func TestExecuteSetsHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(200)
	}))
	defer srv.Close()

	exec := NewExecutor(srv.Client())
	_, err := exec.Execute(context.Background(), srv.URL, "secret", "/api/sessions", RequestOptions{})
	require.NoError(t, err)

	assert.Equal(t, "secret", got.Get("X-Api-Key"))
	assert.Equal(t, "application/json", got.Get("Content-Type"))
}

func TestExecuteCallerHeadersOverride(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(200)
	}))
	defer srv.Close()

	exec := NewExecutor(srv.Client())
	_, err := exec.Execute(context.Background(), srv.URL, "secret", "/api", RequestOptions{
		Headers: map[string]string{"X-Api-Key": "other", "Content-Type": "text/plain"},
	})
	require.NoError(t, err)

	assert.Equal(t, "other", got.Get("X-Api-Key"))
	assert.Equal(t, "text/plain", got.Get("Content-Type"))
}

func TestExecuteBodyNormalization(t *testing.T) {
	tests := []struct {
		name string
		body string
		kind BodyKind
	}{
		{"empty body", "", BodyEmpty},
		{"json object", `{"ok":true}`, BodyJSON},
		{"json array", `[1,2]`, BodyJSON},
		{"plain text degrades gracefully", "WORKING", BodyText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			exec := NewExecutor(srv.Client())
			resp, err := exec.Execute(context.Background(), srv.URL, "k", "/api", RequestOptions{})
			require.NoError(t, err)
			assert.Equal(t, tt.kind, resp.Kind)
		})
	}
}

func TestExecuteTextBodyWrappedUnderData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("WORKING"))
	}))
	defer srv.Close()

	exec := NewExecutor(srv.Client())
	resp, err := exec.Execute(context.Background(), srv.URL, "k", "/api", RequestOptions{})
	require.NoError(t, err)
	assert.Equal(t, "WORKING", resp.Map()["data"])
}

func TestExecuteErrorMessageExtraction(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected string
	}{
		{"json message field", 500, `{"message":"session is broken"}`, "session is broken"},
		{"json error field", 422, `{"error":"bad chat id"}`, "bad chat id"},
		{"raw text fallback", 500, "internal boom", "internal boom"},
		{"status line fallback", 404, "", "HTTP 404: Not Found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			exec := NewExecutor(srv.Client())
			_, err := exec.Execute(context.Background(), srv.URL, "k", "/api", RequestOptions{})
			require.Error(t, err)

			var reqErr *RequestError
			require.True(t, errors.As(err, &reqErr))
			assert.Equal(t, tt.status, reqErr.Status)
			assert.Equal(t, tt.expected, reqErr.Message)
		})
	}
}

func TestFirstSuccessStopsAtFirstWorkingAttempt(t *testing.T) {
	calls := []string{}
	result, matched, err := firstSuccess([]attempt[string]{
		{endpoint: "a", run: func() (string, error) {
			calls = append(calls, "a")
			return "", errors.New("a failed")
		}},
		{endpoint: "b", run: func() (string, error) {
			calls = append(calls, "b")
			return "from b", nil
		}},
		{endpoint: "c", run: func() (string, error) {
			calls = append(calls, "c")
			return "from c", nil
		}},
	})

	require.NoError(t, err)
	assert.Equal(t, "from b", result)
	assert.Equal(t, "b", matched)
	assert.Equal(t, []string{"a", "b"}, calls)
}

func TestFirstSuccessReturnsPrimaryError(t *testing.T) {
	_, _, err := firstSuccess([]attempt[int]{
		{endpoint: "a", run: func() (int, error) { return 0, errors.New("primary failed") }},
		{endpoint: "b", run: func() (int, error) { return 0, errors.New("fallback failed") }},
	})
	require.EqualError(t, err, "primary failed")
}
