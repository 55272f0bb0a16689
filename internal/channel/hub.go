// Package channel implements the in-process broadcast hub behind the
// /ws/{channelID}/{personalID} endpoint. Comparison jobs publish progress
// messages to a named channel; every websocket client subscribed to that
// channel receives them.
package channel

import (
	"log/slog"
	"sync"
	"time"

	"curtainbe/internal/domain"
)

var _ domain.Publisher = (*Hub)(nil)

const clientBufferSize = 32

type client struct {
	personalID string
	send       chan domain.JobMessage
}

// Hub fans job messages out to subscribed clients grouped by channel name.
// Publish never blocks: a client that cannot keep up has messages dropped.
type Hub struct {
	logger *slog.Logger

	mu       sync.RWMutex
	channels map[string]map[*client]struct{}
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:   logger,
		channels: make(map[string]map[*client]struct{}),
	}
}

// Publish sends msg to every client subscribed to channel. Messages missing a
// timestamp get one here so every delivered frame carries a time.
func (h *Hub) Publish(channelName string, msg domain.JobMessage) {
	if msg.Time == "" {
		msg.Time = time.Now().Format(time.RFC3339)
	}
	if msg.Data == nil {
		msg.Data = ""
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.channels[channelName] {
		select {
		case c.send <- msg:
		default:
			h.logger.Warn("dropping message for slow client",
				"channel", channelName, "personal_id", c.personalID)
		}
	}
}

// Subscribers returns the number of clients on a channel.
func (h *Hub) Subscribers(channelName string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channelName])
}

func (h *Hub) subscribe(channelName, personalID string) *client {
	c := &client{
		personalID: personalID,
		send:       make(chan domain.JobMessage, clientBufferSize),
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.channels[channelName] == nil {
		h.channels[channelName] = make(map[*client]struct{})
	}
	h.channels[channelName][c] = struct{}{}
	return c
}

func (h *Hub) unsubscribe(channelName string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.channels[channelName]
	if !ok {
		return
	}
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	// Safe to close here: Publish sends only under the read lock, and the
	// client is no longer in the map once we release the write lock.
	close(c.send)
	if len(clients) == 0 {
		delete(h.channels, channelName)
	}
}
