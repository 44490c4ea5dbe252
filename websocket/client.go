package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"foodieconnect/apperr"
	"foodieconnect/models"
	"foodieconnect/utils"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024
	sendQueue      = 256
	actionTimeout  = 10 * time.Second
)

// Actions are the chat operations a client may trigger over the socket.
type Actions interface {
	Send(ctx context.Context, senderID, receiverID, text string) (*models.ChatMessage, error)
	MarkRead(ctx context.Context, userID, peerID string) error
	Typing(ctx context.Context, senderID, receiverID string, typing bool)
}

// TokenVerifier resolves an access token to a user id.
type TokenVerifier interface {
	UserID(token string) (string, error)
}

type Client struct {
	ID     string
	UserID string

	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	actions Actions
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("websocket read failed", "error", err, "user_id", c.UserID)
			}
			return
		}
		c.handleMessage(message)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(raw []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()

	switch msg.Action {
	case "ping":
		c.hub.reply(c, "pong", nil)
	case "send_message":
		// The sender is always the authenticated user.
		if _, err := c.actions.Send(ctx, c.UserID, msg.ReceiverID, msg.Message); err != nil {
			c.hub.reply(c, models.EventMessageError, map[string]string{"error": apperr.MessageOf(err)})
		}
	case "typing", "stop_typing":
		if msg.ReceiverID != "" {
			c.actions.Typing(ctx, c.UserID, msg.ReceiverID, msg.Action == "typing")
		}
	case "mark_as_read":
		if msg.SenderID == "" {
			return
		}
		if err := c.actions.MarkRead(ctx, c.UserID, msg.SenderID); err != nil {
			slog.Warn("mark as read failed", "error", err, "user_id", c.UserID)
		}
	}
}

// Handler upgrades authenticated requests to websocket clients.
type Handler struct {
	hub      *Hub
	tokens   TokenVerifier
	actions  Actions
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, tokens TokenVerifier, actions Actions, allowedOrigins []string) *Handler {
	return &Handler{
		hub:     hub,
		tokens:  tokens,
		actions: actions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 || slices.Contains(allowed, "*") {
			return true
		}
		return slices.Contains(allowed, origin)
	}
}

// ServeWS authenticates with ?token= or a bearer header and starts the
// client's pumps.
func (h *Handler) ServeWS(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	}
	if token == "" {
		utils.Unauthorized(c, "Not authorized, no token")
		return
	}
	userID, err := h.tokens.UserID(token)
	if err != nil {
		utils.Unauthorized(c, "Not authorized, token failed")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		ID:      uuid.New().String(),
		UserID:  userID,
		hub:     h.hub,
		conn:    conn,
		send:    make(chan []byte, sendQueue),
		actions: h.actions,
	}
	go client.writePump()
	if !h.hub.Register(client) {
		return
	}
	go client.readPump()
}
