package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wacrm/pkg/constant"
)

func TestChatAddress(t *testing.T) {
	tests := []struct {
		phone    string
		expected string
	}{
		{"+967 770-123456", "967770123456@c.us"},
		{"(90) 555 123 45 67", "905551234567@c.us"},
		{"967770123456", "967770123456@c.us"},
		{"967770123456@c.us", "967770123456@c.us"},
		{"12345@g.us", "12345@g.us"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ChatAddress(tt.phone))
	}
}

func TestProbeConnectivityMatchesThirdCandidate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api" {
			w.Write([]byte(`{"version":"1"}`))
			return
		}
		w.WriteHeader(404)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "k", srv.Client())
	result := client.ProbeConnectivity(context.Background())

	assert.True(t, result.Success)
	assert.Equal(t, "/api", result.MatchedEndpoint)
	assert.Empty(t, result.Error)
}

func TestProbeConnectivityExhaustion(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.WriteHeader(404)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "k", srv.Client())
	result := client.ProbeConnectivity(context.Background())

	assert.False(t, result.Success)
	assert.Equal(t, constant.CONNECTION_FAILED, result.Error)
	assert.NotEmpty(t, result.Details)
	assert.Equal(t, []string{"/api/sessions", "/sessions", "/api"}, paths)
}

func TestProbeConnectivityWithAPISuffixedBase(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/sessions" {
			w.Write([]byte(`{}`))
			return
		}
		w.WriteHeader(404)
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/api", "k", srv.Client())
	result := client.ProbeConnectivity(context.Background())

	require.True(t, result.Success)
	assert.Equal(t, "/api/sessions", result.MatchedEndpoint)
}

func TestSendTextAlwaysUsesDefaultSession(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/sendText", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Write([]byte(`{"id":"msg1"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "k", srv.Client())
	resp, err := client.SendText(context.Background(), "some-other-session", "+967 770-123456", "hello")
	require.NoError(t, err)

	assert.Equal(t, "default", body["session"])
	assert.Equal(t, "967770123456@c.us", body["chatId"])
	assert.Equal(t, "hello", body["text"])
	assert.Equal(t, "msg1", resp.Map()["id"])
}

func TestSendFilePayload(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/sendFile", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "k", srv.Client())
	_, err := client.SendFile(context.Background(), "default", "123", "https://cdn/x.pdf", "x.pdf", "invoice")
	require.NoError(t, err)

	file := body["file"].(map[string]any)
	assert.Equal(t, "https://cdn/x.pdf", file["url"])
	assert.Equal(t, "x.pdf", file["filename"])
	assert.Equal(t, "invoice", body["caption"])
}

func TestMarkMessagesAsReadPayloadShapes(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/sendSeen", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "k", srv.Client())

	_, err := client.MarkMessagesAsRead(context.Background(), "default", "1@c.us", []string{"m1", "m2"})
	require.NoError(t, err)
	assert.Equal(t, []any{"m1", "m2"}, body["messageIds"])

	body = nil
	_, err = client.MarkMessagesAsRead(context.Background(), "default", "1@c.us", nil)
	require.NoError(t, err)
	_, hasIDs := body["messageIds"]
	assert.False(t, hasIDs, "implicit whole-chat marker must omit messageIds")
}

func TestGetSessionSoftFailsToNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(404)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "k", srv.Client())
	info, err := client.GetSession(context.Background())

	assert.NoError(t, err)
	assert.Nil(t, info)
}

func TestGetSessionFallsBackToSecondShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/sessions/default" {
			w.Write([]byte(`{"status":"WORKING"}`))
			return
		}
		w.WriteHeader(404)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "k", srv.Client())
	info, err := client.GetSession(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "WORKING", info["status"])
}

func TestDeleteSessionBestEffortPasses(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		w.WriteHeader(500)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "k", srv.Client())
	client.settleDelay = 0
	client.DeleteSession(context.Background())

	assert.Equal(t, []string{
		"POST /api/sessions/default/stop",
		"DELETE /api/sessions/default",
		"POST /sessions/default/stop",
		"DELETE /sessions/default",
	}, calls)
}

func TestGetQRSurfacesPrimaryError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.WriteHeader(500)
			w.Write([]byte(`{"message":"primary down"}`))
			return
		}
		w.WriteHeader(404)
		w.Write([]byte(`{"message":"secondary down"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "k", srv.Client())
	_, err := client.GetQR(context.Background())
	require.EqualError(t, err, "primary down")
}

func TestGetChatMessagesNormalizesObjectChatID(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "k", srv.Client())
	chatID := map[string]any{"_serialized": "967770123456@c.us"}
	_, err := client.GetChatMessages(context.Background(), "default", chatID, 10)
	require.NoError(t, err)
	assert.Equal(t, "/api/default/chats/967770123456@c.us/messages", path)
}

func allMessagesHandler(t *testing.T, failChat string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/default/chats":
			json.NewEncoder(w).Encode([]any{
				map[string]any{"id": map[string]any{"_serialized": "1@c.us"}, "name": "Alice"},
				map[string]any{"id": "2@c.us", "name": "Bob"},
				map[string]any{"id": "99@g.us", "name": "Team Group"},
			})
		case strings.Contains(r.URL.Path, failChat):
			w.WriteHeader(500)
			w.Write([]byte(`{"message":"chat is broken"}`))
		case strings.Contains(r.URL.Path, "1@c.us"):
			json.NewEncoder(w).Encode([]any{
				map[string]any{"id": "m1", "from": "1@c.us", "fromMe": false, "timestamp": 100, "body": "hi"},
			})
		case strings.Contains(r.URL.Path, "2@c.us"):
			json.NewEncoder(w).Encode([]any{
				map[string]any{"id": "m2", "from": "2@c.us", "fromMe": false, "timestamp": 300, "body": "newer"},
				map[string]any{"id": "m3", "from": "2@c.us", "fromMe": true, "timestamp": 200, "body": "older"},
			})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}
}

func TestGetAllMessagesIsolatesChatFailures(t *testing.T) {
	srv := httptest.NewServer(allMessagesHandler(t, "1@c.us"))
	defer srv.Close()

	client := NewClient(srv.URL, "k", srv.Client())
	messages := client.GetAllMessages(context.Background(), "default", 50)

	require.Len(t, messages, 2)
	assert.Equal(t, "m2", messages[0].ID)
	assert.Equal(t, "m3", messages[1].ID)
	assert.Equal(t, "Bob", messages[0].ChatName)
	assert.Equal(t, "2@c.us", messages[0].ChatID)
}

func TestGetAllMessagesSortsAndTruncates(t *testing.T) {
	srv := httptest.NewServer(allMessagesHandler(t, "none"))
	defer srv.Close()

	client := NewClient(srv.URL, "k", srv.Client())
	messages := client.GetAllMessages(context.Background(), "default", 2)

	require.Len(t, messages, 2)
	assert.Equal(t, int64(300), messages[0].Timestamp)
	assert.Equal(t, int64(200), messages[1].Timestamp)
}

func TestGetAllMessagesSkipsGroupChats(t *testing.T) {
	srv := httptest.NewServer(allMessagesHandler(t, "none"))
	defer srv.Close()

	client := NewClient(srv.URL, "k", srv.Client())
	messages := client.GetAllMessages(context.Background(), "default", 50)

	for _, msg := range messages {
		assert.False(t, strings.HasSuffix(msg.ChatID, "@g.us"))
	}
}

func TestGetAllMessagesNonListChatsYieldsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"unexpected":"shape"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "k", srv.Client())
	messages := client.GetAllMessages(context.Background(), "default", 50)

	assert.NotNil(t, messages)
	assert.Empty(t, messages)
}

func TestGetAllMessagesListingFailureYieldsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "k", srv.Client())
	messages := client.GetAllMessages(context.Background(), "default", 50)

	assert.Empty(t, messages)
}

func TestNormalizeChatID(t *testing.T) {
	assert.Equal(t, "1@c.us", normalizeChatID("1@c.us"))
	assert.Equal(t, "1@c.us", normalizeChatID(map[string]any{"_serialized": "1@c.us"}))
	assert.Equal(t, "1@c.us", normalizeChatID(map[string]any{"id": map[string]any{"_serialized": "1@c.us"}}))
	assert.Equal(t, "", normalizeChatID(nil))
}
