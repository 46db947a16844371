package ws

import (
	"context"
	"encoding/json"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/commonapp/common-backend/internal/logger"
	"github.com/commonapp/common-backend/internal/realtime"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// threadSnapshotLimit caps the messages seeded into a new watch.
	threadSnapshotLimit = 200
	threadWatchBuffer   = 32

	eventThreadWatch    = "thread.watch"
	eventThreadUnwatch  = "thread.unwatch"
	eventThreadSnapshot = "thread.snapshot"
	eventError          = "error"
)

// clientCommand is the only inbound frame shape the server accepts.
type clientCommand struct {
	Type     string    `json:"type"`
	ThreadID uuid.UUID `json:"thread_id"`
}

// threadWatch pairs a live subscription with its feed handle so both
// can be torn down together.
type threadWatch struct {
	sub    *realtime.MessageSubscription
	handle *realtime.Handle
}

// Client is one WebSocket connection.
type Client struct {
	conn   *websocket.Conn
	hub    *Hub
	userID uuid.UUID
	send   chan []byte

	watchMu sync.Mutex
	closed  bool
	watches map[uuid.UUID]threadWatch
}

func NewClient(conn *websocket.Conn, hub *Hub, userID uuid.UUID) *Client {
	return &Client{
		conn:    conn,
		hub:     hub,
		userID:  userID,
		send:    make(chan []byte, 16),
		watches: make(map[uuid.UUID]threadWatch),
	}
}

// Run pumps the connection until it drops.
func (c *Client) Run(ctx context.Context) {
	go c.writePumpSafe()
	c.readPump(ctx)
}

func (c *Client) writePumpSafe() {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Errorf("ws: writePump panic recovered: %v\n%s", r, debug.Stack())
			c.Close()
		}
	}()
	c.writePump()
}

// Close tears down the connection and every live thread watch.
func (c *Client) Close() {
	c.watchMu.Lock()
	c.closed = true
	watches := c.watches
	c.watches = nil
	c.watchMu.Unlock()

	for _, w := range watches {
		w.sub.Cancel()
		w.handle.Cancel()
	}

	c.hub.Unregister(c)
	c.conn.Close()
}

// storeWatch records a watch unless one already exists for the thread
// or the client is closing. Returns false when the caller must tear
// the watch down itself.
func (c *Client) storeWatch(threadID uuid.UUID, sub *realtime.MessageSubscription, handle *realtime.Handle) bool {
	c.watchMu.Lock()
	defer c.watchMu.Unlock()
	if c.closed {
		return false
	}
	if _, exists := c.watches[threadID]; exists {
		return false
	}
	c.watches[threadID] = threadWatch{sub: sub, handle: handle}
	return true
}

func (c *Client) dropWatch(threadID uuid.UUID) {
	c.watchMu.Lock()
	w, ok := c.watches[threadID]
	if ok {
		delete(c.watches, threadID)
	}
	c.watchMu.Unlock()

	if ok {
		w.sub.Cancel()
		w.handle.Cancel()
	}
}

// enqueueEvent marshals a typed frame onto the send queue without
// blocking. A full queue drops the frame; the slow-consumer path in
// the hub will close the connection soon after.
func (c *Client) enqueueEvent(event string, data any) {
	payload, err := json.Marshal(map[string]any{
		"type": event,
		"data": data,
	})
	if err != nil {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Errorf("ws: readPump panic recovered: %v\n%s", r, debug.Stack())
		}
		c.Close()
	}()

	c.conn.SetReadLimit(64 * 1024)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, raw, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logger.Log.WithError(err).Debug("ws: connection dropped")
				}
				return
			}
			c.handleCommand(raw)
		}
	}
}

func (c *Client) handleCommand(raw []byte) {
	var cmd clientCommand
	if err := json.Unmarshal(raw, &cmd); err != nil {
		c.enqueueEvent(eventError, map[string]string{"message": "malformed frame"})
		return
	}

	switch cmd.Type {
	case eventThreadWatch:
		if cmd.ThreadID == uuid.Nil {
			c.enqueueEvent(eventError, map[string]string{"message": "thread_id required"})
			return
		}
		if err := c.hub.openThreadWatch(c, cmd.ThreadID); err != nil {
			logger.Log.WithError(err).WithField("thread_id", cmd.ThreadID).
				Debug("ws: thread watch refused")
			c.enqueueEvent(eventError, map[string]string{"message": "cannot watch thread"})
		}
	case eventThreadUnwatch:
		c.dropWatch(cmd.ThreadID)
	default:
		c.enqueueEvent(eventError, map[string]string{"message": "unknown command"})
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
