package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lorrc/service-desk-insights/internal/core/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10 // must stay below pongWait
	maxMessageSize = 512
	sendBufferSize = 64
)

// Client is one dashboard connection. The feed is push-only: the only
// message a client may send is a PING.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	operatorID uuid.UUID

	mu     sync.Mutex
	send   chan domain.Event
	closed bool

	logger *slog.Logger
}

// NewClient wraps an upgraded connection for the given operator.
func NewClient(hub *Hub, conn *websocket.Conn, operatorID uuid.UUID, logger *slog.Logger) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		operatorID: operatorID,
		send:       make(chan domain.Event, sendBufferSize),
		logger:     logger.With("operator_id", operatorID.String()),
	}
}

// Serve registers the client with the hub and starts its read and write
// loops. It returns immediately.
func (c *Client) Serve() {
	if !c.hub.Register(c) {
		_ = c.conn.Close()
		return
	}
	go c.writeLoop()
	go c.readLoop()
}

// enqueue offers an event without blocking. It reports false when the
// queue is full or already closed.
func (c *Client) enqueue(event domain.Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- event:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) readLoop() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	extend := func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	}
	if err := extend(""); err != nil {
		c.logger.Error("failed to set read deadline", "error", err)
		return
	}
	c.conn.SetPongHandler(extend)

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", "error", err)
			}
			return
		}
		c.handleIncomingMessage(message)
	}
}

func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			if !ok {
				_ = c.write(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				c.logger.Warn("failed to write event", "event_type", event.Type, "error", err)
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("failed to send ping", "error", err)
				return
			}
		}
	}
}

func (c *Client) write(messageType int, data []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}

// ClientMessage is a message received from a dashboard client.
type ClientMessage struct {
	Type string `json:"type"`
}

func (c *Client) handleIncomingMessage(message []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.Debug("ignoring malformed client message", "error", err)
		return
	}

	if msg.Type != "PING" {
		c.logger.Debug("ignoring client message", "type", msg.Type)
		return
	}
	// Dropped when the queue is full.
	c.enqueue(domain.Event{ID: uuid.NewString(), Type: domain.EventPong})
}
