package gateway

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/wacrm/pkg/constant"
	"github.com/wacrm/pkg/database"
	"github.com/wacrm/pkg/entities"
)

// Manager drives the connection state machine of each configured gateway:
// disconnected -> connecting -> connected|error, with connected returning to
// disconnected on an explicit disconnect. Each gateway's state is independent;
// operations on different gateways never share mutable state.
type Manager struct {
	repo       Repository
	journal    *database.Journal
	httpClient *http.Client

	mutex      sync.RWMutex
	connecting map[uint]bool // gateways with a probe in flight; never persisted
}

func NewManager(repo Repository, journal *database.Journal, httpClient *http.Client) *Manager {
	return &Manager{
		repo:       repo,
		journal:    journal,
		httpClient: httpClient,
		connecting: make(map[uint]bool),
	}
}

func (m *Manager) client(gw entities.Gateway) *Client {
	return NewClient(gw.ServerURL, gw.APIKey, m.httpClient)
}

func (m *Manager) setConnecting(id uint, v bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if v {
		m.connecting[id] = true
	} else {
		delete(m.connecting, id)
	}
}

// IsConnecting reports whether a probe is currently in flight for a gateway.
func (m *Manager) IsConnecting(id uint) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.connecting[id]
}

// Connect probes the gateway and persists the outcome: connected with the
// fixed session on success, error with the probe's message on failure.
// Re-invoking while already connected simply re-probes and re-confirms.
func (m *Manager) Connect(ctx context.Context, id uint) (entities.Gateway, error) {
	gw, err := m.repo.FindGatewayByID(ctx, id)
	if err != nil {
		return entities.Gateway{}, err
	}

	m.setConnecting(id, true)
	defer m.setConnecting(id, false)
	log.Printf("[info] gateway %d (%s): probing %s", gw.ID, gw.Name, gw.ServerURL)

	client := m.client(gw)
	probe := client.ProbeConnectivity(ctx)
	if !probe.Success {
		gw.Status = entities.GatewayStatusError
		gw.ErrorMessage = probe.Error + ": " + probe.Details
		if err := m.repo.UpdateConnection(ctx, id, map[string]any{
			"status":        gw.Status,
			"error_message": gw.ErrorMessage,
		}); err != nil {
			return gw, err
		}
		log.Printf("[error] gateway %d: all probe endpoints failed", gw.ID)
		return gw, nil
	}

	gw.Status = entities.GatewayStatusConnected
	gw.SessionID = constant.DefaultSession
	gw.ErrorMessage = ""

	// Best effort: a live session may already report the authenticated number.
	if info, _ := client.GetSession(ctx); info != nil {
		if me, ok := info["me"].(map[string]any); ok {
			if jid := normalizeChatID(me["id"]); jid != "" {
				gw.PhoneNumber = nonDigits.ReplaceAllString(jid, "")
			}
		}
	}

	if err := m.repo.UpdateConnection(ctx, id, map[string]any{
		"status":        gw.Status,
		"session_id":    gw.SessionID,
		"error_message": "",
		"phone_number":  gw.PhoneNumber,
	}); err != nil {
		return gw, err
	}
	log.Printf("[info] gateway %d: connected via %s", gw.ID, probe.MatchedEndpoint)
	return gw, nil
}

// Disconnect is a local state change only: the upstream session is left alive
// for fast reconnect. Explicit teardown goes through Client.DeleteSession.
func (m *Manager) Disconnect(ctx context.Context, id uint) error {
	if err := m.repo.UpdateConnection(ctx, id, map[string]any{
		"status":     entities.GatewayStatusDisconnected,
		"session_id": "",
	}); err != nil {
		return err
	}
	m.setConnecting(id, false)
	log.Printf("[info] gateway %d: disconnected", id)
	return nil
}

// SendAndCount sends a text message and, on success only, increments the
// gateway's sent counter by exactly one. Failures surface unmodified.
func (m *Manager) SendAndCount(ctx context.Context, id uint, phone, text string) (Response, error) {
	gw, err := m.repo.FindGatewayByID(ctx, id)
	if err != nil {
		return Response{}, err
	}

	resp, err := m.client(gw).SendText(ctx, gw.SessionID, phone, text)
	if err != nil {
		return Response{}, err
	}

	if err := m.repo.IncrementSent(ctx, id, 1); err != nil {
		log.Printf("[error] gateway %d: failed to bump sent counter: %v", id, err)
	}
	m.record(ctx, id, database.DirectionSent, ChatAddress(phone), text)
	return resp, nil
}

// SendImageAndCount mirrors SendAndCount for remote image URLs.
func (m *Manager) SendImageAndCount(ctx context.Context, id uint, phone, imageURL, caption string) (Response, error) {
	gw, err := m.repo.FindGatewayByID(ctx, id)
	if err != nil {
		return Response{}, err
	}
	resp, err := m.client(gw).SendImage(ctx, gw.SessionID, phone, imageURL, caption)
	if err != nil {
		return Response{}, err
	}
	if err := m.repo.IncrementSent(ctx, id, 1); err != nil {
		log.Printf("[error] gateway %d: failed to bump sent counter: %v", id, err)
	}
	m.record(ctx, id, database.DirectionSent, ChatAddress(phone), imageURL)
	return resp, nil
}

// SendFileAndCount mirrors SendAndCount for remote document URLs.
func (m *Manager) SendFileAndCount(ctx context.Context, id uint, phone, fileURL, filename, caption string) (Response, error) {
	gw, err := m.repo.FindGatewayByID(ctx, id)
	if err != nil {
		return Response{}, err
	}
	resp, err := m.client(gw).SendFile(ctx, gw.SessionID, phone, fileURL, filename, caption)
	if err != nil {
		return Response{}, err
	}
	if err := m.repo.IncrementSent(ctx, id, 1); err != nil {
		log.Printf("[error] gateway %d: failed to bump sent counter: %v", id, err)
	}
	m.record(ctx, id, database.DirectionSent, ChatAddress(phone), fileURL)
	return resp, nil
}

// PullMessages aggregates recent incoming messages, records them, bumps the
// received counter, and only then acknowledges them chat by chat. A crash
// before the acknowledgement leaves messages queued upstream rather than
// silently dropped.
func (m *Manager) PullMessages(ctx context.Context, id uint, limit int) ([]RemoteMessage, error) {
	gw, err := m.repo.FindGatewayByID(ctx, id)
	if err != nil {
		return nil, err
	}

	client := m.client(gw)
	messages := client.GetAllMessages(ctx, gw.SessionID, limit)

	received := 0
	chats := make(map[string]bool)
	for _, msg := range messages {
		if msg.FromMe {
			continue
		}
		received++
		chats[msg.ChatID] = true
		m.record(ctx, id, database.DirectionReceived, msg.ChatID, msg.Body)
	}

	if received > 0 {
		if err := m.repo.IncrementReceived(ctx, id, received); err != nil {
			log.Printf("[error] gateway %d: failed to bump received counter: %v", id, err)
		}
	}

	// Acknowledge strictly after processing.
	for chatID := range chats {
		if _, err := client.MarkMessagesAsRead(ctx, gw.SessionID, chatID, nil); err != nil {
			log.Printf("[info] gateway %d: failed to mark chat %s as read: %v", id, chatID, err)
		}
	}

	return messages, nil
}

func (m *Manager) record(ctx context.Context, id uint, direction, chatID, body string) {
	if m.journal == nil {
		return
	}
	if err := m.journal.Record(ctx, id, direction, chatID, body); err != nil {
		log.Printf("[error] gateway %d: journal write failed: %v", id, err)
	}
}
