package stream

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Hub maintains the set of active clients and broadcasts refresh events to them
type Hub struct {
	clients   map[*Client]bool
	clientsMu sync.RWMutex

	broadcast  chan RefreshEvent
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	log      logrus.FieldLogger
	upgrader websocket.Upgrader

	metricsMu        sync.Mutex
	totalConnections int64
	totalMessages    int64
	droppedMessages  int64
}

// NewHub creates a new Hub. allowedOrigins restricts websocket upgrades;
// empty or "*" accepts any origin.
func NewHub(log logrus.FieldLogger, allowedOrigins []string) *Hub {
	if log == nil {
		log = logrus.StandardLogger()
	}
	h := &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan RefreshEvent, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log.WithField("component", "stream"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || len(set) == 0 || set[origin]
	}
}

// Run processes registrations and broadcasts until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	h.log.Info("Refresh hub started")
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case c := <-h.register:
			h.registerClient(c)

		case c := <-h.unregister:
			h.unregisterClient(c)

		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish queues a refresh event; it is dropped when the buffer is full
func (h *Hub) Publish(event RefreshEvent) {
	select {
	case h.broadcast <- event:
	default:
		h.log.WithField("sport", event.Sport).Warn("Broadcast buffer full, dropping refresh event")
	}
}

// ServeHTTP upgrades the request to a websocket subscription
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.Serve(context.Background(), w, r)
}

// Serve upgrades the request and runs the client pumps until ctx is cancelled
func (h *Hub) Serve(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	c := NewClient(uuid.NewString(), conn, h)
	if sports := r.URL.Query()["sport"]; len(sports) > 0 {
		c.SetSports(sports)
	}
	h.Register(c)

	go c.WritePump(ctx)
	go c.ReadPump(ctx)
}

func (h *Hub) registerClient(c *Client) {
	h.clientsMu.Lock()
	h.clients[c] = true
	count := len(h.clients)
	h.clientsMu.Unlock()

	h.metricsMu.Lock()
	h.totalConnections++
	h.metricsMu.Unlock()

	h.log.WithFields(logrus.Fields{"client_id": c.ID, "clients": count}).Info("Client connected")
}

func (h *Hub) unregisterClient(c *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.closeSend()
		h.log.WithFields(logrus.Fields{"client_id": c.ID, "clients": len(h.clients)}).Info("Client disconnected")
	}
}

func (h *Hub) broadcastEvent(event RefreshEvent) {
	h.clientsMu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	message := ServerMessage{
		Type:      MessageTypeRefresh,
		Payload:   event,
		Timestamp: time.Now(),
	}

	var sent, dropped int64
	for _, c := range clients {
		if !c.Matches(event) {
			continue
		}
		if c.TrySend(message) {
			sent++
			continue
		}
		// Slow client: drop it rather than block the hub
		dropped++
		h.unregisterClient(c)
	}

	h.metricsMu.Lock()
	h.totalMessages += sent
	h.droppedMessages += dropped
	h.metricsMu.Unlock()
}

// ClientCount returns the number of active clients
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// Metrics returns hub counters
func (h *Hub) Metrics() map[string]interface{} {
	h.metricsMu.Lock()
	defer h.metricsMu.Unlock()

	return map[string]interface{}{
		"active_clients":    h.ClientCount(),
		"total_connections": h.totalConnections,
		"total_messages":    h.totalMessages,
		"dropped_messages":  h.droppedMessages,
		"broadcast_usage":   len(h.broadcast),
	}
}

func (h *Hub) shutdown() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.log.WithField("clients", len(h.clients)).Info("Shutting down refresh hub")
	for c := range h.clients {
		c.closeSend()
		delete(h.clients, c)
	}
}
