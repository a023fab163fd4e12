// Package web provides the live moderation event stream.
package web

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/GeorToxa/moderatorDiscordBot/internal/moderation"
	"github.com/GeorToxa/moderatorDiscordBot/pkg/errors"
	"github.com/GeorToxa/moderatorDiscordBot/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second

	// Outgoing buffer per client; slow consumers get dropped.
	clientBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamHub fans moderation lifecycle events out to connected websocket
// clients. It implements moderation.EventSink.
type StreamHub struct {
	mu      sync.RWMutex
	clients map[*streamClient]struct{}
}

type streamClient struct {
	conn *websocket.Conn
	send chan []byte
}

var hub *StreamHub

// InitStream initializes the global event stream hub
func InitStream() *StreamHub {
	hub = NewStreamHub()
	return hub
}

// GetStream returns the global event stream hub
func GetStream() *StreamHub {
	return hub
}

// NewStreamHub creates a new event stream hub
func NewStreamHub() *StreamHub {
	return &StreamHub{
		clients: make(map[*streamClient]struct{}),
	}
}

// PublishModerationEvent serializes an event and broadcasts it to every
// connected client. Clients whose buffer is full are disconnected.
func (h *StreamHub) PublishModerationEvent(ev moderation.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Error(fmt.Sprintf("Error serializando evento %s: %v", ev.Type, err), "EventStream")
		return
	}

	h.mu.RLock()
	stale := []*streamClient{}
	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
			stale = append(stale, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range stale {
		h.remove(client)
	}
}

// ClientCount returns the number of connected stream clients
func (h *StreamHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *StreamHub) add(client *streamClient) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
}

func (h *StreamHub) remove(client *streamClient) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	h.mu.Unlock()
}

// eventStreamHandler upgrades the connection and attaches it to the hub
func eventStreamHandler(c *gin.Context) {
	if hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Stream Offline",
			"message": "El flujo de eventos no está disponible.",
		})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn(fmt.Sprintf("Error en upgrade de websocket: %v", err), "EventStream")
		return
	}

	client := &streamClient{
		conn: conn,
		send: make(chan []byte, clientBuffer),
	}
	hub.add(client)
	logger.Info(fmt.Sprintf("Cliente conectado al flujo de eventos (%d activos)", hub.ClientCount()), "EventStream")

	go client.writePump()
	go client.readPump()
}

// writePump drains the send buffer onto the connection
func (c *streamClient) writePump() {
	defer errors.RecoverMiddleware()()
	defer c.conn.Close()

	for payload := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump discards inbound frames and detects disconnects
func (c *streamClient) readPump() {
	defer errors.RecoverMiddleware()()
	defer hub.remove(c)

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
