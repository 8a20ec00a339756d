package websocket

import (
	"context"
	"encoding/json"
	"time"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/ladle/internal/rtdb"
)

const pingInterval = 30 * time.Second

// Client represents a single WebSocket connection watching one list.
// The client receives the full list snapshot on connect and again after
// every change, with no diffing.
type Client struct {
	hub    *Hub
	conn   *ws.Conn
	store  *rtdb.Store
	viewer Viewer
}

// NewClient creates a Client tied to the given hub and connection.
func NewClient(hub *Hub, conn *ws.Conn, store *rtdb.Store, viewer Viewer) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		store:  store,
		viewer: viewer,
	}
}

// Run registers the client, subscribes to the list, starts the write
// pump, and runs the read pump. It blocks until the connection closes,
// then tears the subscription down before returning.
func (c *Client) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	path := "lists/" + c.viewer.GroupID + "/" + c.viewer.ListID
	snapshots, stop, err := c.store.Watch(ctx, path)
	if err != nil {
		return err
	}
	defer stop()

	c.hub.Register(c)
	defer c.hub.Unregister(c)

	go func() {
		defer cancel()
		c.writePump(ctx, snapshots)
	}()
	c.readPump(ctx)
	return nil
}

// readPump reads and discards all incoming messages. It returns on error
// (connection close), which triggers cleanup.
func (c *Client) readPump(ctx context.Context) {
	for {
		_, _, err := c.conn.Read(ctx)
		if err != nil {
			return
		}
	}
}

// writePump forwards snapshots to the WebSocket as they arrive and
// sends periodic pings to detect stale connections.
func (c *Client) writePump(ctx context.Context, snapshots <-chan json.RawMessage) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			if err := c.conn.Write(ctx, ws.MessageText, snap); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
