package websocket

import (
	"context"

	"aklny/internal/metrics"

	"go.uber.org/zap"
)

type membership struct {
	client *Client
	room   string
}

type delivery struct {
	rooms   []string
	payload []byte
}

// Hub tracks connected clients and the rooms they joined. All state is owned
// by the Run loop.
type Hub struct {
	clients    map[*Client]bool
	rooms      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	join       chan membership
	deliver    chan delivery
	done       chan struct{}
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewHub initializes a new WS Hub instance
func NewHub(logger *zap.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		join:       make(chan membership),
		deliver:    make(chan delivery, 64),
		done:       make(chan struct{}),
		logger:     logger.Named("ws_hub"),
		metrics:    m,
	}
}

// Run starts the core dispatch loop and returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.remove(client)
			}
			return
		case client := <-h.register:
			h.clients[client] = true
			h.metrics.SocketOpened()
			h.logger.Debug("client connected", zap.String("user_id", client.claims.UserID))
		case client := <-h.unregister:
			if h.clients[client] {
				h.remove(client)
				h.logger.Debug("client disconnected", zap.String("user_id", client.claims.UserID))
			}
		case m := <-h.join:
			if !h.clients[m.client] {
				continue
			}
			members, ok := h.rooms[m.room]
			if !ok {
				members = make(map[*Client]bool)
				h.rooms[m.room] = members
			}
			members[m.client] = true
			m.client.rooms[m.room] = true
		case d := <-h.deliver:
			h.fanOut(d)
		}
	}
}

// fanOut sends the payload once to every client in any of the rooms. A client
// whose buffer is full is evicted and its connection closed.
func (h *Hub) fanOut(d delivery) {
	sent := make(map[*Client]bool)
	for _, room := range d.rooms {
		for client := range h.rooms[room] {
			if sent[client] {
				continue
			}
			sent[client] = true
			select {
			case client.send <- d.payload:
			default:
				h.logger.Warn("evicting slow client", zap.String("user_id", client.claims.UserID))
				h.leaveAll(client)
				client.closeConn()
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.leaveAll(client)
	delete(h.clients, client)
	close(client.done)
	h.metrics.SocketClosed()
}

func (h *Hub) leaveAll(client *Client) {
	for room := range client.rooms {
		if members, ok := h.rooms[room]; ok {
			delete(members, client)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
		delete(client.rooms, room)
	}
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

// Join adds the client to room.
func (h *Hub) Join(client *Client, room string) {
	select {
	case h.join <- membership{client: client, room: room}:
	case <-h.done:
	}
}

// Deliver hands a payload to the local members of rooms. Brokers call it for
// every message they receive.
func (h *Hub) Deliver(rooms []string, payload []byte) {
	select {
	case h.deliver <- delivery{rooms: rooms, payload: payload}:
	case <-h.done:
	}
}
