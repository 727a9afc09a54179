package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"Vibe/logger"

	"github.com/gorilla/websocket"
)

const (
	sendBuffer   = 64
	readLimit    = 4096
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	writeWait    = 10 * time.Second
)

// Client is one WebSocket connection acting as a user's audio element.
type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	Send   chan []byte
	UserID string
}

// NewClient wraps conn for userID.
func NewClient(h *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{Hub: h, Conn: conn, Send: make(chan []byte, sendBuffer), UserID: userID}
}

type outbound struct {
	userID  string
	message []byte
}

// Hub fans element commands out to every connection of a user.
type Hub struct {
	users map[string]map[*Client]bool
	mu    sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan outbound
	done       chan struct{}
	stopOnce   sync.Once
}

func NewHub() *Hub {
	return &Hub{
		users:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan outbound, 256),
		done:       make(chan struct{}),
	}
}

// Run is the hub main loop; it returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.mu.Lock()
			h.removeClient(client)
			h.mu.Unlock()
		case out := <-h.broadcast:
			h.deliver(out)
		case <-h.done:
			h.cleanup()
			return
		}
	}
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.users[client.UserID] == nil {
		h.users[client.UserID] = make(map[*Client]bool)
	}
	h.users[client.UserID][client] = true

	logger.Info("player client registered",
		logger.String("userId", client.UserID),
		logger.Int("connections", len(h.users[client.UserID])))
}

// removeClient needs h.mu held.
func (h *Hub) removeClient(client *Client) {
	clients, ok := h.users[client.UserID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.Send)
	if len(clients) == 0 {
		delete(h.users, client.UserID)
	}
	logger.Info("player client unregistered", logger.String("userId", client.UserID))
}

func (h *Hub) deliver(out outbound) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.users[out.userID] {
		select {
		case client.Send <- out.message:
		default:
			// slow consumer
			logger.Warn("player client send buffer full, dropping connection", logger.String("userId", out.userID))
			h.removeClient(client)
		}
	}
}

func (h *Hub) cleanup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.users {
		for client := range clients {
			close(client.Send)
		}
	}
	h.users = make(map[string]map[*Client]bool)
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// SendToUser queues msg for every connection of userID. Messages are
// dropped once the hub is stopped.
func (h *Hub) SendToUser(userID string, msg *WSMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- outbound{userID: userID, message: data}:
	case <-h.done:
	}
	return nil
}

// ClientCount returns the number of live connections of userID.
func (h *Hub) ClientCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

// ReadPump reads frames until the connection fails, answering pings and
// passing every other message to handler.
func (c *Client) ReadPump(ctx context.Context, handler func(ctx context.Context, client *Client, msg *WSMessage)) {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(readLimit)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if ctx.Err() != nil {
			return
		}
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket read error", logger.ErrorField(err), logger.String("userId", c.UserID))
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			logger.Warn("invalid message format", logger.ErrorField(err), logger.String("userId", c.UserID))
			continue
		}

		if msg.Type == MsgTypePing {
			if pong, err := NewMessage(MsgTypePong, nil); err == nil {
				c.SendMessage(pong)
			}
			continue
		}
		handler(ctx, c, &msg)
	}
}

// WritePump drains Send to the connection and keeps it alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage queues msg for this connection only; a full buffer drops it.
func (c *Client) SendMessage(msg *WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	defer func() {
		// Send may already be closed by the hub
		recover()
	}()
	select {
	case c.Send <- data:
	default:
	}
}
