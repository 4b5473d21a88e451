package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/yourusername/vidstream-go/pkg/events"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS policy is enforced by the outer proxy
	},
}

// EventSocketHandler upgrades client connections into hub subscribers.
// Each connection gets its own subscriber id, announced in the hello
// frame; clients quote it in download requests to receive that
// session's events.
type EventSocketHandler struct {
	hub    *events.Hub
	logger *zap.Logger
}

// NewEventSocketHandler creates a new websocket handler
func NewEventSocketHandler(hub *events.Hub, logger *zap.Logger) *EventSocketHandler {
	return &EventSocketHandler{hub: hub, logger: logger}
}

// Handle handles GET /ws
func (h *EventSocketHandler) Handle(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket", zap.Error(err))
		return
	}

	client := h.hub.Register(conn)
	defer h.hub.Unregister(client.ID)

	client.Run()
}
