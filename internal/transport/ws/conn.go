package ws

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 256

	// messageRate bounds how fast one client may talk to the engine.
	messageRate  = 10
	messageBurst = 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Conn is one client connection. It starts unbound; the first successful
// create_room, join_room, or reconnect_player binds it to a seat.
type Conn struct {
	ws      *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter

	roomCode string
	playerID string
}

func (c *Conn) bound() bool { return c.playerID != "" }

// push enqueues an outbound frame, dropping it when the client cannot keep
// up. A slow consumer must never stall a room's broadcast.
func (c *Conn) push(data []byte) {
	select {
	case c.send <- data:
	default:
	}
}

// reply sends a message to this connection only.
func (c *Conn) reply(msgType string, payload any) {
	if data, err := encode(msgType, payload); err == nil {
		c.push(data)
	}
}

// Handler upgrades HTTP requests and runs the connection pumps.
type Handler struct {
	gateway *Gateway
	log     zerolog.Logger
}

// NewHandler creates the websocket endpoint handler.
func NewHandler(gateway *Gateway, log zerolog.Logger) *Handler {
	return &Handler{gateway: gateway, log: log}
}

// Serve handles GET /v1/ws.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	conn := &Conn{
		ws:      wsConn,
		send:    make(chan []byte, sendBuffer),
		limiter: rate.NewLimiter(messageRate, messageBurst),
	}
	go h.writePump(conn)
	h.readPump(conn)
}

func (h *Handler) readPump(conn *Conn) {
	defer func() {
		h.gateway.ConnectionClosed(conn)
		conn.ws.Close()
	}()

	conn.ws.SetReadLimit(maxMessageSize)
	conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	conn.ws.SetPongHandler(func(string) error {
		conn.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Debug().Err(err).Msg("websocket read error")
			}
			return
		}
		if !conn.limiter.Allow() {
			h.log.Warn().Str("player", conn.playerID).Msg("rate limit exceeded, dropping message")
			continue
		}
		h.gateway.Dispatch(conn, data)
	}
}

func (h *Handler) writePump(conn *Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.ws.Close()
	}()

	for {
		select {
		case message, ok := <-conn.send:
			conn.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			conn.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
