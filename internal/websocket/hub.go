// Package websocket streams live list snapshots to connected viewers.
package websocket

import (
	"log/slog"
	"sync"
)

// Viewer identifies one authenticated connection watching one list.
type Viewer struct {
	UID     string
	GroupID string
	ListID  string
}

// Hub tracks the set of active viewers.
type Hub struct {
	mu      sync.RWMutex
	viewers map[*Client]Viewer
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		viewers: make(map[*Client]Viewer),
		logger:  logger,
	}
}

// Register adds a viewer to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.viewers[c] = c.viewer
	h.mu.Unlock()
}

// Unregister removes a viewer from the hub.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	delete(h.viewers, c)
	h.mu.Unlock()
}

// ViewerCount returns the number of connected viewers.
func (h *Hub) ViewerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.viewers)
}

// ViewerCountForList returns how many connections are watching one list.
func (h *Hub) ViewerCountForList(groupID, listID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, v := range h.viewers {
		if v.GroupID == groupID && v.ListID == listID {
			n++
		}
	}
	return n
}
