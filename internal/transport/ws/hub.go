package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub fans session events out to every connection watching that session
type Hub struct {
	// session code -> connections
	conns map[string]map[*Connection]struct{}
	mu    sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
	done       chan struct{}
	closeOnce  sync.Once

	logger *slog.Logger
}

// Connection represents a WebSocket connection
type Connection struct {
	SessionCode string
	Send        chan []byte
	Hub         *Hub
}

// BroadcastMessage is a message to broadcast
type BroadcastMessage struct {
	SessionCode string
	Message     *Message
}

// NewHub creates a new WebSocket hub and starts its loop
func NewHub(logger *slog.Logger) *Hub {
	h := &Hub{
		conns:      make(map[string]map[*Connection]struct{}),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
		done:       make(chan struct{}),
		logger:     logger,
	}
	go h.run()
	return h
}

// NewConnection creates a connection bound to this hub
func (h *Hub) NewConnection(sessionCode string) *Connection {
	return &Connection{
		SessionCode: sessionCode,
		Send:        make(chan []byte, 256),
		Hub:         h,
	}
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for code, conns := range h.conns {
				for conn := range conns {
					close(conn.Send)
				}
				delete(h.conns, code)
			}
			h.mu.Unlock()
			return

		case conn := <-h.register:
			h.mu.Lock()
			if h.conns[conn.SessionCode] == nil {
				h.conns[conn.SessionCode] = make(map[*Connection]struct{})
			}
			h.conns[conn.SessionCode][conn] = struct{}{}
			h.mu.Unlock()
			h.logger.Debug("watcher connected", slog.String("session", conn.SessionCode))

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.conns[conn.SessionCode]; ok {
				if _, ok := conns[conn]; ok {
					delete(conns, conn)
					close(conn.Send)
					if len(conns) == 0 {
						delete(h.conns, conn.SessionCode)
					}
					h.logger.Debug("watcher disconnected", slog.String("session", conn.SessionCode))
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg.Message)
			if err != nil {
				h.logger.Error("marshal ws message", slog.Any("error", err))
				continue
			}
			h.mu.RLock()
			for conn := range h.conns[msg.SessionCode] {
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
		close(conn.Send)
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// BroadcastToSession sends a message to everyone watching a session (implements service.Broadcaster)
func (h *Hub) BroadcastToSession(sessionCode string, msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("marshal ws payload", slog.String("type", msgType), slog.Any("error", err))
		return
	}
	select {
	case h.broadcast <- &BroadcastMessage{
		SessionCode: sessionCode,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}:
	case <-h.done:
	}
}

// Watchers returns how many connections follow a session
func (h *Hub) Watchers(sessionCode string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[sessionCode])
}

// Close stops the hub and closes every connection's send channel
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}
