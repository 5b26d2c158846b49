package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Meet7773/ChronoStox/internal/metrics"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	writeWait  = 10 * time.Second
)

// Event is a JSON message pushed to a session's WebSocket clients.
type Event struct {
	Type     string `json:"type"` // trade_executed, cursor_moved, series_loaded
	Surface  string `json:"surface"`
	Ticker   string `json:"ticker"`
	Scenario string `json:"scenario,omitempty"`
	Side     string `json:"side,omitempty"`
	Quantity int64  `json:"quantity,omitempty"`
	Price    string `json:"price,omitempty"`
	Cursor   *int   `json:"cursor,omitempty"`
	Date     string `json:"date,omitempty"`
	Cash     string `json:"cash,omitempty"`
}

type envelope struct {
	session string
	data    []byte
}

type client struct {
	session string
	conn    *websocket.Conn
}

// WSHub fans session events out to the WebSocket connections opened by
// that session. Other sessions never see them.
type WSHub struct {
	clients    map[string]map[*websocket.Conn]bool
	broadcast  chan envelope
	register   chan client
	unregister chan client
	mu         sync.RWMutex
	upgrader   websocket.Upgrader
	log        zerolog.Logger
}

// NewWSHub creates a hub. checkOrigin nil allows every origin.
func NewWSHub(log zerolog.Logger, checkOrigin func(*http.Request) bool) *WSHub {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &WSHub{
		clients:    make(map[string]map[*websocket.Conn]bool),
		broadcast:  make(chan envelope, 256),
		register:   make(chan client),
		unregister: make(chan client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		log: log.With().Str("component", "ws").Logger(),
	}
}

// Run is the hub's event loop. It returns when ctx is done, closing every
// connection.
func (h *WSHub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, conns := range h.clients {
				for conn := range conns {
					conn.Close()
				}
				delete(h.clients, id)
			}
			h.mu.Unlock()
			metrics.WebSocketClients.Set(0)
			return

		case c := <-h.register:
			h.mu.Lock()
			if h.clients[c.session] == nil {
				h.clients[c.session] = make(map[*websocket.Conn]bool)
			}
			h.clients[c.session][c.conn] = true
			total := h.countLocked()
			h.mu.Unlock()
			metrics.WebSocketClients.Set(float64(total))
			h.log.Info().Str("session", c.session).Int("total", total).Msg("ws client connected")

		case c := <-h.unregister:
			h.mu.Lock()
			h.dropLocked(c.session, c.conn)
			total := h.countLocked()
			h.mu.Unlock()
			metrics.WebSocketClients.Set(float64(total))

		case msg := <-h.broadcast:
			h.mu.Lock()
			for conn := range h.clients[msg.session] {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, msg.data); err != nil {
					h.dropLocked(msg.session, conn)
				}
			}
			total := h.countLocked()
			h.mu.Unlock()
			metrics.WebSocketClients.Set(float64(total))
		}
	}
}

// Send queues ev for the connections of session. Events are dropped when
// the buffer is full so trading never blocks on slow clients.
func (h *WSHub) Send(session string, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	select {
	case h.broadcast <- envelope{session: session, data: data}:
	default:
		h.log.Warn().Str("session", session).Str("type", ev.Type).Msg("ws buffer full, event dropped")
	}
}

// Clients returns the number of open connections for session.
func (h *WSHub) Clients(session string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[session])
}

// HandleWS upgrades the request and subscribes it to the request session.
func (h *WSHub) HandleWS(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("ws upgrade failed")
		return
	}

	c := client{session: sess.ID, conn: conn}
	h.register <- c

	// Read pump: keep connection alive and detect disconnects.
	go func() {
		defer func() { h.unregister <- c }()
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()

	// Ping ticker to keep connection alive through proxies.
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for range ticker.C {
			h.mu.RLock()
			_, ok := h.clients[c.session][conn]
			h.mu.RUnlock()
			if !ok {
				return
			}
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}()
}

func (h *WSHub) dropLocked(session string, conn *websocket.Conn) {
	conns, ok := h.clients[session]
	if !ok || !conns[conn] {
		return
	}
	delete(conns, conn)
	conn.Close()
	if len(conns) == 0 {
		delete(h.clients, session)
	}
}

func (h *WSHub) countLocked() int {
	n := 0
	for _, conns := range h.clients {
		n += len(conns)
	}
	return n
}
