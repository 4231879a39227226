package gateway

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/wacrm/pkg/constant"
)

// Candidate diagnostic paths, in probe order. Different deployments expose
// the same logical API under different prefixes depending on reverse-proxy
// configuration.
var probeEndpoints = []string{"/api/sessions", "/sessions", "/api"}

const (
	maxChatsToAggregate = 30
	messagesPerChat     = 10
)

var nonDigits = regexp.MustCompile(`\D`)

// ProbeResult is the outcome of a connectivity probe against a gateway.
type ProbeResult struct {
	Success         bool   `json:"success"`
	MatchedEndpoint string `json:"matched_endpoint,omitempty"`
	Error           string `json:"error,omitempty"`
	Details         string `json:"details,omitempty"`
}

// RemoteMessage is one message fetched from a gateway chat, annotated with
// its originating chat at aggregation time.
type RemoteMessage struct {
	ID        string `json:"id"`
	ChatID    string `json:"chat_id"`
	ChatName  string `json:"chat_name"`
	From      string `json:"from"`
	FromMe    bool   `json:"from_me"`
	Timestamp int64  `json:"timestamp"`
	Body      string `json:"body"`
}

// Client talks to one gateway deployment, identified by its base URL and API
// key. All calls go through the request executor.
type Client struct {
	serverURL string
	apiKey    string
	exec      *Executor

	// settleDelay is the pause between stopping and deleting a session,
	// giving the upstream service time to release it.
	settleDelay time.Duration
}

func NewClient(serverURL, apiKey string, httpClient *http.Client) *Client {
	return &Client{
		serverURL:   serverURL,
		apiKey:      apiKey,
		exec:        NewExecutor(httpClient),
		settleDelay: 500 * time.Millisecond,
	}
}

func (c *Client) execute(ctx context.Context, path string, opts RequestOptions) (Response, error) {
	return c.exec.Execute(ctx, c.serverURL, c.apiKey, path, opts)
}

// ProbeConnectivity tries each candidate diagnostic path in order and reports
// the first one that answers. Individual failures never propagate; only total
// exhaustion is reported, as a summary with a remediation hint.
func (c *Client) ProbeConnectivity(ctx context.Context) ProbeResult {
	attempts := make([]attempt[Response], 0, len(probeEndpoints))
	for _, endpoint := range probeEndpoints {
		endpoint := endpoint
		attempts = append(attempts, attempt[Response]{
			endpoint: endpoint,
			run: func() (Response, error) {
				return c.execute(ctx, endpoint, RequestOptions{Method: http.MethodGet})
			},
		})
	}

	_, matched, err := firstSuccess(attempts)
	if err != nil {
		return ProbeResult{
			Success: false,
			Error:   constant.CONNECTION_FAILED,
			Details: constant.CONNECTION_HINT,
		}
	}
	return ProbeResult{Success: true, MatchedEndpoint: matched}
}

// CreateSession starts the fixed session on the gateway, falling back to the
// unprefixed path shape when the primary one fails.
func (c *Client) CreateSession(ctx context.Context) (Response, error) {
	body := map[string]any{"name": constant.DefaultSession, "start": true}
	resp, _, err := firstSuccess([]attempt[Response]{
		{endpoint: "/api/sessions", run: func() (Response, error) {
			return c.execute(ctx, "/api/sessions", RequestOptions{Method: http.MethodPost, Body: body})
		}},
		{endpoint: "/sessions", run: func() (Response, error) {
			return c.execute(ctx, "/sessions", RequestOptions{Method: http.MethodPost, Body: body})
		}},
	})
	return resp, err
}

// GetSession fetches the fixed session's state. A session that cannot be
// fetched under either path shape is treated as "no session", not an error.
func (c *Client) GetSession(ctx context.Context) (map[string]any, error) {
	resp, _, err := firstSuccess([]attempt[Response]{
		{endpoint: "/api/sessions/" + constant.DefaultSession, run: func() (Response, error) {
			return c.execute(ctx, "/api/sessions/"+constant.DefaultSession, RequestOptions{Method: http.MethodGet})
		}},
		{endpoint: "/sessions/" + constant.DefaultSession, run: func() (Response, error) {
			return c.execute(ctx, "/sessions/"+constant.DefaultSession, RequestOptions{Method: http.MethodGet})
		}},
	})
	if err != nil {
		return nil, nil
	}
	return resp.Map(), nil
}

// DeleteSession tears the fixed session down best-effort: a stop-then-delete
// pass under each path shape, pausing between stop and delete so the upstream
// session can settle. Failures are swallowed.
func (c *Client) DeleteSession(ctx context.Context) {
	for _, prefix := range []string{"/api", ""} {
		base := prefix + "/sessions/" + constant.DefaultSession
		if _, err := c.execute(ctx, base+"/stop", RequestOptions{Method: http.MethodPost}); err != nil {
			log.Printf("[info] session stop attempt failed on %s: %v", base, err)
		}
		time.Sleep(c.settleDelay)
		if _, err := c.execute(ctx, base, RequestOptions{Method: http.MethodDelete}); err != nil {
			log.Printf("[info] session delete attempt failed on %s: %v", base, err)
		}
	}
}

// GetQR fetches the pairing code for the fixed session. When both path shapes
// fail, the primary shape's error is surfaced.
func (c *Client) GetQR(ctx context.Context) (Response, error) {
	resp, _, err := firstSuccess([]attempt[Response]{
		{endpoint: "/api/" + constant.DefaultSession + "/auth/qr", run: func() (Response, error) {
			return c.execute(ctx, "/api/"+constant.DefaultSession+"/auth/qr", RequestOptions{Method: http.MethodGet})
		}},
		{endpoint: "/" + constant.DefaultSession + "/auth/qr", run: func() (Response, error) {
			return c.execute(ctx, "/"+constant.DefaultSession+"/auth/qr", RequestOptions{Method: http.MethodGet})
		}},
	})
	return resp, err
}

// ChatAddress normalizes a phone number to the gateway's chat address format:
// digits only plus the chat suffix. Inputs that already carry a chat domain
// are passed through untouched.
func ChatAddress(phone string) string {
	if strings.Contains(phone, "@") {
		return phone
	}
	return nonDigits.ReplaceAllString(phone, "") + constant.ChatSuffix
}

// SendText posts a text message. The session parameter is accepted for
// interface symmetry but the upstream service supports a single session per
// deployment, so the fixed session always wins.
func (c *Client) SendText(ctx context.Context, session, phone, text string) (Response, error) {
	return c.execute(ctx, "/api/sendText", RequestOptions{
		Method: http.MethodPost,
		Body: map[string]any{
			"session": constant.DefaultSession,
			"chatId":  ChatAddress(phone),
			"text":    text,
		},
	})
}

// SendImage posts a remote image URL with a caption. No local upload happens
// here; the gateway fetches the URL itself.
func (c *Client) SendImage(ctx context.Context, session, phone, imageURL, caption string) (Response, error) {
	return c.execute(ctx, "/api/sendImage", RequestOptions{
		Method: http.MethodPost,
		Body: map[string]any{
			"session": constant.DefaultSession,
			"chatId":  ChatAddress(phone),
			"file":    map[string]any{"url": imageURL},
			"caption": caption,
		},
	})
}

// SendFile posts a remote document URL with filename metadata.
func (c *Client) SendFile(ctx context.Context, session, phone, fileURL, filename, caption string) (Response, error) {
	return c.execute(ctx, "/api/sendFile", RequestOptions{
		Method: http.MethodPost,
		Body: map[string]any{
			"session": constant.DefaultSession,
			"chatId":  ChatAddress(phone),
			"file":    map[string]any{"url": fileURL, "filename": filename},
			"caption": caption,
		},
	})
}

// MarkMessagesAsRead posts a read receipt for specific message IDs, or for
// the whole chat when none are given. The gateway re-queues unacknowledged
// messages, so callers must invoke this after processing, never before.
func (c *Client) MarkMessagesAsRead(ctx context.Context, session, chatID string, messageIDs []string) (Response, error) {
	body := map[string]any{
		"session": constant.DefaultSession,
		"chatId":  normalizeChatID(chatID),
	}
	if len(messageIDs) > 0 {
		body["messageIds"] = messageIDs
	}
	return c.execute(ctx, "/api/sendSeen", RequestOptions{Method: http.MethodPost, Body: body})
}

// GetChats lists the gateway's chats.
func (c *Client) GetChats(ctx context.Context, session string) ([]any, error) {
	resp, err := c.execute(ctx, "/api/"+constant.DefaultSession+"/chats", RequestOptions{Method: http.MethodGet})
	if err != nil {
		return nil, err
	}
	return resp.List(), nil
}

// GetChatMessages fetches a page of recent messages for one chat. The chat
// identifier may be a plain string or an object carrying a serialized form.
func (c *Client) GetChatMessages(ctx context.Context, session string, chatID any, limit int) ([]any, error) {
	id := normalizeChatID(chatID)
	path := fmt.Sprintf("/api/%s/chats/%s/messages?limit=%d", constant.DefaultSession, url.PathEscape(id), limit)
	resp, err := c.execute(ctx, path, RequestOptions{Method: http.MethodGet})
	if err != nil {
		return nil, err
	}
	return resp.List(), nil
}

// GetAllMessages aggregates recent messages across 1:1 chats. Group chats are
// skipped, the number of chats visited is capped, and chats are visited one
// at a time so a rate-limited gateway is not overwhelmed. A chat whose fetch
// fails is skipped; a failed or non-list chat listing yields an empty result.
// This operation never returns an error.
func (c *Client) GetAllMessages(ctx context.Context, session string, limit int) []RemoteMessage {
	messages := []RemoteMessage{}

	chats, err := c.GetChats(ctx, session)
	if err != nil || chats == nil {
		return messages
	}

	visited := 0
	for _, raw := range chats {
		if visited >= maxChatsToAggregate {
			break
		}
		chat, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		chatID := normalizeChatID(chat["id"])
		if chatID == "" || strings.HasSuffix(chatID, constant.GroupSuffix) {
			continue
		}
		visited++

		page, err := c.GetChatMessages(ctx, session, chatID, messagesPerChat)
		if err != nil {
			log.Printf("[info] skipping chat %s: %v", chatID, err)
			continue
		}

		chatName := stringField(chat, "name")
		if chatName == "" {
			chatName = chatID
		}
		for _, m := range page {
			entry, ok := m.(map[string]any)
			if !ok {
				continue
			}
			msg := parseRemoteMessage(entry)
			msg.ChatID = chatID
			msg.ChatName = chatName
			messages = append(messages, msg)
		}
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Timestamp > messages[j].Timestamp
	})
	if limit > 0 && len(messages) > limit {
		messages = messages[:limit]
	}
	return messages
}

// normalizeChatID flattens the gateway's chat identifier variants (plain
// string, or object with a serialized form) to the plain identifier.
func normalizeChatID(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case map[string]any:
		if s, ok := id["_serialized"].(string); ok {
			return s
		}
		return normalizeChatID(id["id"])
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}

func parseRemoteMessage(entry map[string]any) RemoteMessage {
	msg := RemoteMessage{
		ID:   normalizeChatID(entry["id"]),
		From: stringField(entry, "from"),
		Body: stringField(entry, "body"),
	}
	if msg.Body == "" {
		msg.Body = stringField(entry, "text")
	}
	if fromMe, ok := entry["fromMe"].(bool); ok {
		msg.FromMe = fromMe
	}
	if ts, ok := entry["timestamp"].(float64); ok {
		msg.Timestamp = int64(ts)
	}
	return msg
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
