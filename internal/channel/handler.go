package channel

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"curtainbe/internal/domain"
)

// Handler upgrades HTTP requests to websocket connections subscribed to a
// broadcast channel.
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewHandler creates a websocket handler backed by hub. Origin checking is
// left to the CORS middleware in front of the router.
func NewHandler(hub *Hub) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// ServeWS handles GET /ws/{channelID}/{personalID}. The connection receives
// every message published to the channel. Messages sent by the client are
// re-broadcast to the whole channel, so browser tabs sharing a session link
// can signal each other.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")
	personalID := chi.URLParam(r, "personalID")
	if channelID == "" || personalID == "" {
		http.Error(w, "channel and personal IDs are required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.hub.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := h.hub.subscribe(channelID, personalID)
	defer func() {
		h.hub.unsubscribe(channelID, c)
		conn.Close()
	}()

	go h.writeLoop(conn, c)
	h.readLoop(conn, channelID)
}

func (h *Handler) writeLoop(conn *websocket.Conn, c *client) {
	for msg := range c.send {
		if err := conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func (h *Handler) readLoop(conn *websocket.Conn, channelID string) {
	for {
		var msg domain.JobMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		h.hub.Publish(channelID, msg)
	}
}
