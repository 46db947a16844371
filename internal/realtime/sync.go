package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/commonapp/common-backend/internal/models"
	"github.com/commonapp/common-backend/internal/profile"
)

// SenderResolver fetches the profile facts a raw message-insert event
// does not carry.
type SenderResolver interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
}

// MessageView is a message enriched with sender facts for display.
type MessageView struct {
	models.Message
	SenderName string  `json:"sender_name"`
	SenderAge  *int    `json:"sender_age,omitempty"`
	AvatarPath *string `json:"avatar_path,omitempty"`
}

// MessageSubscription folds message-insert events for one thread into
// an ordered, de-duplicated view. Sender profiles are resolved through
// a memoizing cache scoped to the subscription, so the cache dies with
// the view it serves.
type MessageSubscription struct {
	threadID uuid.UUID
	resolver SenderResolver

	mu        sync.Mutex
	cancelled bool
	seen      map[uuid.UUID]struct{}
	messages  []MessageView
	profiles  map[uuid.UUID]*models.Profile
	deliver   func(MessageView)
}

// NewMessageSubscription seeds a subscription with the initially
// fetched messages. deliver, when non-nil, is invoked for every newly
// applied event; it is never invoked after Cancel.
func NewMessageSubscription(threadID uuid.UUID, initial []MessageView, resolver SenderResolver, deliver func(MessageView)) *MessageSubscription {
	seen := make(map[uuid.UUID]struct{}, len(initial))
	for _, m := range initial {
		seen[m.ID] = struct{}{}
	}

	return &MessageSubscription{
		threadID: threadID,
		resolver: resolver,
		seen:     seen,
		messages: append([]MessageView(nil), initial...),
		profiles: make(map[uuid.UUID]*models.Profile),
		deliver:  deliver,
	}
}

// Apply folds one inserted message into the view. Returns true when
// the event produced a new entry. Events for other threads and events
// echoing an already-present message (the sender's own optimistic
// insert) are discarded.
//
// The profile fetch in the middle is the slow part; a Cancel that
// lands while it runs wins, and the resolved result is discarded.
func (s *MessageSubscription) Apply(ctx context.Context, msg models.Message) bool {
	if msg.ThreadID != s.threadID {
		return false
	}

	s.mu.Lock()
	if s.cancelled {
		s.mu.Unlock()
		return false
	}
	if _, dup := s.seen[msg.ID]; dup {
		s.mu.Unlock()
		return false
	}
	prof, cached := s.profiles[msg.SenderID]
	s.mu.Unlock()

	if !cached {
		fetched, err := s.resolver.GetProfile(ctx, msg.SenderID)
		if err == nil {
			prof = fetched
		}
		// A failed fetch still appends the message; the view just
		// misses the sender facts until a refetch.
	}

	view := MessageView{Message: msg}
	if prof != nil {
		now := time.Now()
		view.SenderName = prof.DisplayName
		view.SenderAge = profile.AgeFromBirthdate(prof.DateOfBirth, now)
		view.AvatarPath = prof.AvatarPath
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-check after the blocking fetch: teardown or a duplicate
	// arrival may have won the race.
	if s.cancelled {
		return false
	}
	if _, dup := s.seen[msg.ID]; dup {
		return false
	}
	if prof != nil && !cached {
		s.profiles[msg.SenderID] = prof
	}

	s.seen[msg.ID] = struct{}{}
	s.messages = append(s.messages, view)
	if s.deliver != nil {
		s.deliver(view)
	}
	return true
}

// BuildMessageViews enriches an initial message fetch with sender
// facts, memoizing profile lookups within the call. A failed lookup
// leaves that view's sender fields empty rather than failing the
// whole snapshot.
func BuildMessageViews(ctx context.Context, msgs []models.Message, resolver SenderResolver) []MessageView {
	now := time.Now()
	cache := make(map[uuid.UUID]*models.Profile)
	views := make([]MessageView, len(msgs))
	for i, msg := range msgs {
		prof, ok := cache[msg.SenderID]
		if !ok {
			prof, _ = resolver.GetProfile(ctx, msg.SenderID)
			cache[msg.SenderID] = prof
		}
		view := MessageView{Message: msg}
		if prof != nil {
			view.SenderName = prof.DisplayName
			view.SenderAge = profile.AgeFromBirthdate(prof.DateOfBirth, now)
			view.AvatarPath = prof.AvatarPath
		}
		views[i] = view
	}
	return views
}

// Run consumes a feed handle until it is closed, applying message
// inserts. Intended to run on its own goroutine; returns when the
// handle is cancelled.
func (s *MessageSubscription) Run(ctx context.Context, h *Handle) {
	for ev := range h.Events() {
		if ev.Type != EventInsert || ev.Table != TableMessages {
			continue
		}
		msg, ok := ev.Row.(models.Message)
		if !ok {
			continue
		}
		s.Apply(ctx, msg)
	}
}

// Snapshot returns the current view in arrival order.
func (s *MessageSubscription) Snapshot() []MessageView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]MessageView(nil), s.messages...)
}

// Cancel stops delivery. Idempotent; events applied afterwards no-op.
func (s *MessageSubscription) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled = true
}
