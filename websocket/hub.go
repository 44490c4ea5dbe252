package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"foodieconnect/models"
)

// Registry tracks which users currently hold live connections.
type Registry interface {
	Register(c *Client) bool
	Unregister(c *Client)
	Lookup(userID string) []*Client
}

type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// ClientMessage is an inbound action from a connected client.
type ClientMessage struct {
	Action     string `json:"action"`
	ReceiverID string `json:"receiverId,omitempty"`
	SenderID   string `json:"senderId,omitempty"`
	Message    string `json:"message,omitempty"`
}

// Hub is the in-process Registry. It is created by the serve command and
// lives until the context given to Run is cancelled.
type Hub struct {
	mu        sync.RWMutex
	userConns map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

var _ Registry = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{
		userConns:  make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes registrations until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case c := <-h.register:
			h.add(c)
		case c := <-h.unregister:
			h.remove(c)
		case <-ctx.Done():
			h.shutdown()
			return
		}
	}
}

// Register adds c. It reports false, closing c's send queue, once the hub
// has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		close(c.send)
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) Lookup(userID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Client, 0, len(h.userConns[userID]))
	for c := range h.userConns[userID] {
		out = append(out, c)
	}
	return out
}

func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userConns[userID]) > 0
}

// Online returns the ids of every connected user.
func (h *Hub) Online() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.userConns))
	for id := range h.userConns {
		out = append(out, id)
	}
	return out
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	first := len(h.userConns[c.UserID]) == 0
	if first {
		h.userConns[c.UserID] = make(map[*Client]struct{})
	}
	h.userConns[c.UserID][c] = struct{}{}
	h.mu.Unlock()

	slog.Debug("websocket client registered", "user_id", c.UserID, "client_id", c.ID)
	if first {
		h.broadcastStatus(c.UserID, "online")
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	conns, ok := h.userConns[c.UserID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := conns[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(conns, c)
	close(c.send)
	last := len(conns) == 0
	if last {
		delete(h.userConns, c.UserID)
	}
	h.mu.Unlock()

	slog.Debug("websocket client unregistered", "user_id", c.UserID, "client_id", c.ID)
	if last {
		h.broadcastStatus(c.UserID, "offline")
	}
}

func (h *Hub) shutdown() {
	close(h.done)
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, conns := range h.userConns {
		for c := range conns {
			close(c.send)
		}
		delete(h.userConns, userID)
	}
}

func (h *Hub) broadcastStatus(userID, status string) {
	others := make([]string, 0)
	for _, id := range h.Online() {
		if id != userID {
			others = append(others, id)
		}
	}
	_ = h.Push(context.Background(), others, models.EventUserStatus, map[string]string{"userId": userID, "status": status})
}

// Push delivers an event to every live connection of userIDs. A client whose
// queue is full misses the event.
func (h *Hub) Push(_ context.Context, userIDs []string, event string, data any) error {
	payload, err := json.Marshal(&Message{Event: event, Data: data})
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event, err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, userID := range userIDs {
		for c := range h.userConns[userID] {
			h.enqueue(c, payload)
		}
	}
	return nil
}

// reply sends an event to a single client if it is still registered.
func (h *Hub) reply(c *Client, event string, data any) {
	payload, err := json.Marshal(&Message{Event: event, Data: data})
	if err != nil {
		slog.Warn("encode websocket reply failed", "error", err, "event", event)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.userConns[c.UserID][c]; ok {
		h.enqueue(c, payload)
	}
}

func (h *Hub) enqueue(c *Client, payload []byte) {
	select {
	case c.send <- payload:
	default:
		slog.Warn("websocket send queue full, dropping event", "user_id", c.UserID, "client_id", c.ID)
	}
}
