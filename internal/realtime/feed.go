// Package realtime keeps live, de-duplicated views of thread state in
// sync with row-insert notifications.
package realtime

import (
	"sync"
)

// Event types carried by the feed.
const (
	EventInsert = "INSERT"

	TableThreads  = "threads"
	TableMessages = "messages"
)

// Event is one change notification: a new row in a table.
type Event struct {
	Type  string
	Table string
	Row   any
}

// Feed is an in-process change-notification stream. Publishers push
// row inserts, subscribers receive them on buffered channels.
type Feed struct {
	mu     sync.Mutex
	nextID int64
	subs   map[int64]*Handle
}

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{subs: make(map[int64]*Handle)}
}

// Subscribe attaches a new consumer. The returned handle owns a
// buffered event channel; a consumer that falls behind loses events
// rather than blocking publishers, and must refetch to recover.
func (f *Feed) Subscribe(buffer int) *Handle {
	if buffer <= 0 {
		buffer = 32
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	h := &Handle{
		id:   f.nextID,
		feed: f,
		ch:   make(chan Event, buffer),
	}
	f.subs[h.id] = h
	return h
}

// PublishInsert notifies all subscribers about a new row.
func (f *Feed) PublishInsert(table string, row any) {
	ev := Event{Type: EventInsert, Table: table, Row: row}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, h := range f.subs {
		select {
		case h.ch <- ev:
		default:
			// Slow consumer: drop. The subscription owner recovers
			// with a full refetch, not by replay.
		}
	}
}

func (f *Feed) unsubscribe(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if h, ok := f.subs[id]; ok {
		delete(f.subs, id)
		close(h.ch)
	}
}

// Handle is one subscription to the feed.
type Handle struct {
	id       int64
	feed     *Feed
	ch       chan Event
	cancelMu sync.Mutex
	done     bool
}

// Events returns the receive side of the subscription. The channel is
// closed by Cancel.
func (h *Handle) Events() <-chan Event {
	return h.ch
}

// Cancel detaches from the feed. Safe to call more than once and
// after the feed delivered its last event.
func (h *Handle) Cancel() {
	h.cancelMu.Lock()
	defer h.cancelMu.Unlock()

	if h.done {
		return
	}
	h.done = true
	h.feed.unsubscribe(h.id)
}
