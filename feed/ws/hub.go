package ws

import (
	"net/http"
	"sync"
	"time"

	"chatlog/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	HandshakeTimeout: 10 * time.Second,
	ReadBufferSize:   1024,
	WriteBufferSize:  1024,
}

// Client is one feed subscriber, pinned to a single channel.
type Client struct {
	conn      *websocket.Conn
	send      chan []byte
	channelID string
	hub       *Hub
}

// Hub fans feed-updated notices out to per-channel subscribers.
// Subscribers get a notice after every successful publish and re-fetch
// the feed themselves; the hub never carries message content.
type Hub struct {
	rooms      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan notice
	mu         sync.Mutex
	logger     *logger.Logger
}

type notice struct {
	channelID string
	payload   []byte
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan notice, 16),
		logger:     log,
	}
}

// Run processes hub events until the process exits.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			room, ok := h.rooms[client.channelID]
			if !ok {
				room = make(map[*Client]bool)
				h.rooms[client.channelID] = room
			}
			room[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if room, ok := h.rooms[client.channelID]; ok {
				if _, ok := room[client]; ok {
					delete(room, client)
					close(client.send)
					if len(room) == 0 {
						delete(h.rooms, client.channelID)
					}
				}
			}
			h.mu.Unlock()

		case n := <-h.broadcast:
			h.mu.Lock()
			for client := range h.rooms[n.channelID] {
				select {
				case client.send <- n.payload:
				default:
					// Slow consumer, drop it.
					delete(h.rooms[n.channelID], client)
					close(client.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues a feed-updated notice for a channel's subscribers.
func (h *Hub) Broadcast(channelID string, payload []byte) {
	select {
	case h.broadcast <- notice{channelID: channelID, payload: payload}:
	default:
		h.logger.Warn("feed notice dropped, broadcast queue full", "channel_id", channelID)
	}
}

// ServeWS upgrades a request to a feed subscription for one channel.
func (h *Hub) ServeWS(c *gin.Context) {
	channelID := c.Param("channel")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.LogError(err, "websocket upgrade failed", "channel_id", channelID)
		return
	}

	client := &Client{
		conn:      conn,
		send:      make(chan []byte, 8),
		channelID: channelID,
		hub:       h,
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Subscribers only listen; inbound frames are drained for control
	// handling and otherwise ignored.
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
