package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Event type names pushed over the subscriber channel.
const (
	TypeConnected        = "connected"
	TypeProgress         = "progress"
	TypeDownloadStarted  = "download_started"
	TypeDownloadProgress = "download_progress"
	TypeDownloadComplete = "download_complete"
	TypeDownloadError    = "download_error"
)

// Event is one message pushed to a subscriber.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Sink delivers events to a subscriber, best-effort and non-blocking.
// The Hub is the production implementation.
type Sink interface {
	Publish(subscriberID string, event Event) bool
}

// Hub tracks connected subscribers and routes events to exactly the
// subscriber named at publish time. Delivery is fire-and-forget: a
// slow or disconnected subscriber never stalls a publisher.
type Hub struct {
	bufferSize   int
	pingInterval time.Duration
	logger       *zap.Logger

	mu      sync.RWMutex
	clients map[string]*Client
}

// NewHub creates an event hub. bufferSize is the per-subscriber send
// queue depth; events beyond it are dropped.
func NewHub(bufferSize int, pingInterval time.Duration, logger *zap.Logger) *Hub {
	return &Hub{
		bufferSize:   bufferSize,
		pingInterval: pingInterval,
		logger:       logger,
		clients:      make(map[string]*Client),
	}
}

// Register attaches a websocket connection as a new subscriber and
// assigns it an identifier. The caller must run the client and
// unregister it when the connection ends.
func (h *Hub) Register(conn *websocket.Conn) *Client {
	client := &Client{
		ID:           uuid.New().String(),
		conn:         conn,
		send:         make(chan Event, h.bufferSize),
		done:         make(chan struct{}),
		pingInterval: h.pingInterval,
		logger:       h.logger,
	}

	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()

	// Hello frame tells the subscriber which id to quote in download
	// requests.
	client.enqueue(Event{
		Type: TypeConnected,
		Data: map[string]string{"subscriberId": client.ID},
	})

	h.logger.Info("Subscriber connected", zap.String("subscriber_id", client.ID))
	return client
}

// Unregister detaches and closes a subscriber.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	client, ok := h.clients[id]
	if ok {
		delete(h.clients, id)
	}
	h.mu.Unlock()

	if ok {
		client.close()
		h.logger.Info("Subscriber disconnected", zap.String("subscriber_id", id))
	}
}

// Publish queues an event for the given subscriber. Returns false when
// the subscriber is unknown or its queue is full; the event is dropped
// rather than blocking the caller.
func (h *Hub) Publish(subscriberID string, event Event) bool {
	h.mu.RLock()
	client, ok := h.clients[subscriberID]
	h.mu.RUnlock()

	if !ok {
		return false
	}
	if !client.enqueue(event) {
		h.logger.Warn("Event dropped, subscriber queue full",
			zap.String("subscriber_id", subscriberID),
			zap.String("type", event.Type))
		return false
	}
	return true
}

// Count returns the number of connected subscribers
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects all subscribers
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[string]*Client)
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

// Client is one connected subscriber. A single writer goroutine owns
// the connection, which keeps per-subscriber event order intact.
type Client struct {
	ID string

	conn         *websocket.Conn
	send         chan Event
	done         chan struct{}
	closeOnce    sync.Once
	pingInterval time.Duration
	logger       *zap.Logger
}

// enqueue attempts a non-blocking put onto the send queue.
func (c *Client) enqueue(event Event) bool {
	select {
	case c.send <- event:
		return true
	case <-c.done:
		return false
	default:
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// Run pumps queued events to the connection until it breaks or the
// client is closed. It blocks; callers run it from the connection's
// handler goroutine.
func (c *Client) Run() {
	// Reader only watches for the peer going away (and services
	// control frames).
	go func() {
		for {
			if _, _, err := c.conn.ReadMessage(); err != nil {
				c.close()
				return
			}
		}
	}()

	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case event := <-c.send:
			if err := c.conn.WriteJSON(event); err != nil {
				c.logger.Debug("Failed to send event",
					zap.String("subscriber_id", c.ID),
					zap.Error(err))
				c.close()
				return
			}
		case <-ticker.C:
			// Keep the connection alive through idle stretches.
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}
