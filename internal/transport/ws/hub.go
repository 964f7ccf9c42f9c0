package ws

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
)

// Message is the wire envelope for both directions.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Hub tracks which connection belongs to which seat and fans broadcasts out
// to every connected member of a room. It implements game.Broadcaster.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]map[string]*Conn // room code -> player id -> conn
	log   zerolog.Logger
}

// NewHub creates an empty hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		conns: make(map[string]map[string]*Conn),
		log:   log,
	}
}

// Register binds a connection to its seat. A second connection for the same
// seat displaces the first, which covers reconnects racing a zombie socket.
func (h *Hub) Register(conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room := h.conns[conn.roomCode]
	if room == nil {
		room = make(map[string]*Conn)
		h.conns[conn.roomCode] = room
	}
	if old, ok := room[conn.playerID]; ok && old != conn {
		close(old.send)
	}
	room[conn.playerID] = conn
}

// Unregister removes a connection and reports whether it was still the
// seat's current one. A displaced zombie returns false: its seat now belongs
// to another connection and must stay registered.
func (h *Hub) Unregister(conn *Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.conns[conn.roomCode]
	if !ok {
		return false
	}
	if current, ok := room[conn.playerID]; ok && current == conn {
		delete(room, conn.playerID)
		close(conn.send)
		if len(room) == 0 {
			delete(h.conns, conn.roomCode)
		}
		return true
	}
	return false
}

// ToRoom broadcasts a message to every connected member of a room.
func (h *Hub) ToRoom(code string, msgType string, payload any) {
	data, err := encode(msgType, payload)
	if err != nil {
		h.log.Error().Err(err).Str("type", msgType).Msg("broadcast encode failed")
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, conn := range h.conns[code] {
		conn.push(data)
	}
}

// ToPlayer sends a message to one player's connection, if any.
func (h *Hub) ToPlayer(code, playerID, msgType string, payload any) {
	data, err := encode(msgType, payload)
	if err != nil {
		h.log.Error().Err(err).Str("type", msgType).Msg("send encode failed")
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if conn, ok := h.conns[code][playerID]; ok {
		conn.push(data)
	}
}

func encode(msgType string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: msgType, Payload: body})
}
