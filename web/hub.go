// Package web serves odometry to websocket clients and exposes the session
// statistics over HTTP.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/Bucknalla/truck-telemetry-bridge/telemetry"
)

// Message types sent to websocket clients
const (
	MessageOdometry = "odometry"
	MessageStatus   = "status"
)

// defaultWriteTimeout bounds each write to one client
const defaultWriteTimeout = 5 * time.Second

// Message is the envelope written to every websocket client
type Message struct {
	Type    string      `json:"type"`
	Session string      `json:"session,omitempty"`
	Data    interface{} `json:"data"`
}

// StatsSource provides the statistics of the running session
type StatsSource interface {
	Stats() telemetry.Stats
}

// Status is the body of GET /api/status
type Status struct {
	Running bool             `json:"running"`
	Clients int              `json:"clients"`
	Dropped uint64           `json:"dropped"`
	Stats   *telemetry.Stats `json:"stats,omitempty"`
}

// Hub is a telemetry.Publisher broadcasting odometry to websocket clients.
// SendOdometry and SpinSome are called from the host goroutine; delivery to
// clients happens in Run.
type Hub struct {
	source       StatsSource
	logger       *slog.Logger
	upgrader     websocket.Upgrader
	writeTimeout time.Duration

	mu      sync.Mutex
	clients map[*websocket.Conn]bool

	broadcast chan Message
	pending   []Message
	dropped   atomic.Uint64
}

// Option configures a Hub
type Option func(*Hub)

// WithLogger sets the diagnostic logger
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hub) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithBuffer sets how many messages may wait for delivery before new ones are dropped
func WithBuffer(size int) Option {
	return func(h *Hub) {
		if size > 0 {
			h.broadcast = make(chan Message, size)
		}
	}
}

// WithWriteTimeout sets how long a single client write may block before the
// client is disconnected
func WithWriteTimeout(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.writeTimeout = d
		}
	}
}

// NewHub creates a hub with no clients
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		logger: slog.Default(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins
			},
		},
		writeTimeout: defaultWriteTimeout,
		clients:      make(map[*websocket.Conn]bool),
		broadcast:    make(chan Message, 64),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SetSource attaches the session whose statistics the hub serves. Call it
// before serving requests.
func (h *Hub) SetSource(source StatsSource) {
	h.source = source
}

// SendOdometry queues one message for the next SpinSome
func (h *Hub) SendOdometry(o telemetry.Odometry) error {
	h.pending = append(h.pending, Message{Type: MessageOdometry, Session: h.sessionID(), Data: o})
	return nil
}

// SpinSome hands queued messages to the broadcaster without blocking. Messages
// that do not fit are dropped.
func (h *Hub) SpinSome() {
	for _, msg := range h.pending {
		select {
		case h.broadcast <- msg:
		default:
			// Channel full, skip this update
			h.dropped.Add(1)
		}
	}
	h.pending = h.pending[:0]
}

// Dropped reports how many messages were discarded because the broadcaster fell behind
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// ClientCount reports the number of connected websocket clients
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) sessionID() string {
	if h.source == nil {
		return ""
	}
	return h.source.Stats().SessionID
}

// Run delivers broadcast messages to every client until ctx is done, then
// disconnects all clients.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case msg := <-h.broadcast:
			h.send(msg)
		}
	}
}

func (h *Hub) send(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		if err := h.write(client, msg); err != nil {
			h.logger.Warn("websocket write failed", "remote", client.RemoteAddr().String(), "error", err)
			client.Close()
			delete(h.clients, client)
		}
	}
}

// write sends one message, giving up after the write timeout. Callers hold mu.
func (h *Hub) write(conn *websocket.Conn, msg Message) error {
	if err := conn.SetWriteDeadline(time.Now().Add(h.writeTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		client.Close()
		delete(h.clients, client)
	}
}

// Router returns the HTTP routes of the hub
func (h *Hub) Router() *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", h.handleStatus).Methods("GET")
	api.HandleFunc("/ws", h.handleWebSocket)

	r.HandleFunc("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return r
}

func (h *Hub) status() Status {
	return h.statusFor(h.ClientCount())
}

func (h *Hub) statusFor(clients int) Status {
	status := Status{Clients: clients, Dropped: h.Dropped()}
	if h.source != nil {
		stats := h.source.Stats()
		status.Running = true
		status.Stats = &stats
	}
	return status
}

func (h *Hub) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.status()); err != nil {
		h.logger.Warn("failed to encode status", "error", err)
	}
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// Register the client after the status message so Run never writes concurrently
	h.mu.Lock()
	greeting := Message{Type: MessageStatus, Session: h.sessionID(), Data: h.statusFor(len(h.clients))}
	if err := h.write(conn, greeting); err != nil {
		h.mu.Unlock()
		h.logger.Warn("failed to send status", "remote", conn.RemoteAddr().String(), "error", err)
		return
	}
	h.clients[conn] = true
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("client connected", "remote", conn.RemoteAddr().String(), "clients", total)

	// Clients only listen; reading detects the disconnect
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, conn)
	total = len(h.clients)
	h.mu.Unlock()
	h.logger.Info("client disconnected", "remote", conn.RemoteAddr().String(), "clients", total)
}
