package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/commonapp/common-backend/internal/goroutine"
	"github.com/commonapp/common-backend/internal/logger"
	"github.com/commonapp/common-backend/internal/models"
	"github.com/commonapp/common-backend/internal/realtime"
)

// NotificationSaver persists events delivered over the socket so they
// survive a disconnect.
type NotificationSaver interface {
	CreateNotification(ctx context.Context, userID uuid.UUID, event string, data interface{}) error
}

// ThreadStreamOpener authorizes a live thread watch and returns the
// messages already in the thread. *service.ThreadService implements it.
type ThreadStreamOpener interface {
	ListMessages(ctx context.Context, threadID, userID uuid.UUID, limit, offset int) ([]models.Message, error)
}

// Hub tracks every connected client keyed by user.
type Hub struct {
	mu                sync.RWMutex
	clients           map[uuid.UUID]map[*Client]struct{}
	register          chan *Client
	unregister        chan *Client
	broadcast         chan message
	notificationSaver NotificationSaver
	feed              *realtime.Feed
	opener            ThreadStreamOpener
	resolver          realtime.SenderResolver
	ctx               context.Context
}

type message struct {
	userID  uuid.UUID
	payload []byte
}

func NewHub(ctx context.Context) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, 32),
		ctx:        ctx,
	}
}

// SetNotificationSaver wires the service that persists delivered
// events.
func (h *Hub) SetNotificationSaver(saver NotificationSaver) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notificationSaver = saver
}

// SetThreadStream wires the pieces that back live thread watches: the
// change feed, the access-checked message fetch and the sender
// profile resolver.
func (h *Hub) SetThreadStream(feed *realtime.Feed, opener ThreadStreamOpener, resolver realtime.SenderResolver) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.feed = feed
	h.opener = opener
	h.resolver = resolver
}

// Run drives the hub's main loop until the process exits.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case msg := <-h.broadcast:
			h.send(msg.userID, msg.payload)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// BroadcastToUser delivers an event to every connection of one user
// and persists it as a notification. The frame contract: "type" names
// the event, "data" carries the payload.
func (h *Hub) BroadcastToUser(userID uuid.UUID, event string, data any) error {
	payload := map[string]any{
		"type": event,
		"data": data,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("ws: marshal event: %w", err)
	}

	h.mu.RLock()
	saver := h.notificationSaver
	ctx := h.ctx
	h.mu.RUnlock()

	if saver != nil {
		// Persist off the hot path; a failed save must not block the
		// socket delivery.
		goroutine.SafeGo(func() {
			if err := saver.CreateNotification(ctx, userID, event, data); err != nil && logger.Log != nil {
				logger.Log.WithError(err).WithField("event", event).
					Warn("ws: notification not persisted")
			}
		})
	}

	h.broadcast <- message{userID: userID, payload: raw}
	return nil
}

// openThreadWatch starts a live message stream for one client. The
// opener both authorizes the watch and returns the current messages,
// which seed the subscription so echoed inserts deduplicate.
func (h *Hub) openThreadWatch(c *Client, threadID uuid.UUID) error {
	h.mu.RLock()
	feed, opener, resolver := h.feed, h.opener, h.resolver
	ctx := h.ctx
	h.mu.RUnlock()

	if feed == nil || opener == nil || resolver == nil {
		return fmt.Errorf("ws: thread streaming not configured")
	}

	// Subscribe before reading the snapshot so an insert landing in
	// between is buffered on the handle; the seeded dedup set absorbs
	// the overlap.
	handle := feed.Subscribe(threadWatchBuffer)

	msgs, err := opener.ListMessages(ctx, threadID, c.userID, threadSnapshotLimit, 0)
	if err != nil {
		handle.Cancel()
		return err
	}
	initial := realtime.BuildMessageViews(ctx, msgs, resolver)

	sub := realtime.NewMessageSubscription(threadID, initial, resolver, func(view realtime.MessageView) {
		c.enqueueEvent(models.EventNewMessage, view)
	})

	if !c.storeWatch(threadID, sub, handle) {
		// Already watching this thread or the client is shutting down.
		sub.Cancel()
		handle.Cancel()
		return nil
	}

	goroutine.SafeGo(func() {
		sub.Run(ctx, handle)
	})

	c.enqueueEvent(eventThreadSnapshot, map[string]any{
		"thread_id": threadID,
		"messages":  sub.Snapshot(),
	})
	return nil
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.userID]; !ok {
		h.clients[client.userID] = make(map[*Client]struct{})
	}
	h.clients[client.userID][client] = struct{}{}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.userID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.clients, client.userID)
		}
	}
}

func (h *Hub) send(userID uuid.UUID, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[userID] {
		select {
		case client.send <- payload:
		default:
			// Slow consumer: drop the connection rather than the hub.
			goroutine.SafeGo(client.Close)
		}
	}
}
