package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"aklny/internal/auth"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	sendBuffer     = 256
)

// Client represents a single connected WebSocket client. Its identity is bound
// at the handshake and never re-read from messages.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{} // closed by the hub on unregister
	claims *auth.Claims
	rooms  map[string]bool // owned by the hub's Run loop
	logger *zap.Logger

	closeOnce sync.Once
}

func newClient(hub *Hub, conn *websocket.Conn, claims *auth.Claims, logger *zap.Logger) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		claims: claims,
		rooms:  make(map[string]bool),
		logger: logger,
	}
}

func (c *Client) closeConn() {
	c.closeOnce.Do(func() { _ = c.conn.Close() })
}

// reply sends an event to this client only. It never blocks; a full buffer drops
// the reply.
func (c *Client) reply(event string, data interface{}) {
	payload, err := json.Marshal(outbound{Event: event, Data: data})
	if err != nil {
		c.logger.Error("encode reply", zap.String("event", event), zap.Error(err))
		return
	}
	select {
	case c.send <- payload:
	case <-c.done:
	default:
		c.logger.Warn("reply dropped, client buffer full", zap.String("event", event))
	}
}

// writePump handles writing messages from the Hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConn()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			// one JSON event per frame
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads events until the connection fails and hands each one to handle.
func (c *Client) readPump(handle func(*Client, []byte)) {
	defer func() {
		c.hub.Unregister(c)
		c.closeConn()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Info("websocket read failed", zap.Error(err))
			}
			return
		}
		handle(c, message)
	}
}
