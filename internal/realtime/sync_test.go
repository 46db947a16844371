package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/commonapp/common-backend/internal/models"
)

type countingResolver struct {
	calls    int
	profiles map[uuid.UUID]*models.Profile
}

func (r *countingResolver) GetProfile(_ context.Context, userID uuid.UUID) (*models.Profile, error) {
	r.calls++
	if p, ok := r.profiles[userID]; ok {
		return p, nil
	}
	return &models.Profile{UserID: userID, DisplayName: "User"}, nil
}

func newMessage(threadID, senderID uuid.UUID, content string) models.Message {
	return models.Message{
		ID:        uuid.New(),
		ThreadID:  threadID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

func TestMessageSubscription_AppliesInArrivalOrder(t *testing.T) {
	threadID := uuid.New()
	sender := uuid.New()
	resolver := &countingResolver{profiles: map[uuid.UUID]*models.Profile{}}
	sub := NewMessageSubscription(threadID, nil, resolver, nil)

	m1 := newMessage(threadID, sender, "one")
	m2 := newMessage(threadID, sender, "two")

	assert.True(t, sub.Apply(context.Background(), m1))
	assert.True(t, sub.Apply(context.Background(), m2))

	snap := sub.Snapshot()
	assert.Len(t, snap, 2)
	assert.Equal(t, "one", snap[0].Content)
	assert.Equal(t, "two", snap[1].Content)
}

func TestMessageSubscription_DiscardsForeignThread(t *testing.T) {
	threadID := uuid.New()
	resolver := &countingResolver{}
	sub := NewMessageSubscription(threadID, nil, resolver, nil)

	foreign := newMessage(uuid.New(), uuid.New(), "leak")

	assert.False(t, sub.Apply(context.Background(), foreign))
	assert.Empty(t, sub.Snapshot())
	assert.Zero(t, resolver.calls)
}

func TestMessageSubscription_DeduplicatesByID(t *testing.T) {
	threadID := uuid.New()
	sender := uuid.New()
	resolver := &countingResolver{}
	sub := NewMessageSubscription(threadID, nil, resolver, nil)

	msg := newMessage(threadID, sender, "hello")

	assert.True(t, sub.Apply(context.Background(), msg))
	// The sender's own optimistic insert echoes back from the feed.
	assert.False(t, sub.Apply(context.Background(), msg))
	assert.Len(t, sub.Snapshot(), 1)
}

func TestMessageSubscription_SeededMessagesAreNotDuplicated(t *testing.T) {
	threadID := uuid.New()
	msg := newMessage(threadID, uuid.New(), "seeded")
	initial := []MessageView{{Message: msg}}
	sub := NewMessageSubscription(threadID, initial, &countingResolver{}, nil)

	assert.False(t, sub.Apply(context.Background(), msg))
	assert.Len(t, sub.Snapshot(), 1)
}

func TestMessageSubscription_MemoizesProfileFetches(t *testing.T) {
	threadID := uuid.New()
	sender := uuid.New()
	resolver := &countingResolver{}
	sub := NewMessageSubscription(threadID, nil, resolver, nil)

	sub.Apply(context.Background(), newMessage(threadID, sender, "a"))
	sub.Apply(context.Background(), newMessage(threadID, sender, "b"))
	sub.Apply(context.Background(), newMessage(threadID, sender, "c"))

	assert.Equal(t, 1, resolver.calls)
}

func TestMessageSubscription_CancelStopsDelivery(t *testing.T) {
	threadID := uuid.New()
	var delivered []MessageView
	sub := NewMessageSubscription(threadID, nil, &countingResolver{}, func(v MessageView) {
		delivered = append(delivered, v)
	})

	sub.Apply(context.Background(), newMessage(threadID, uuid.New(), "before"))
	sub.Cancel()
	sub.Cancel() // idempotent
	assert.False(t, sub.Apply(context.Background(), newMessage(threadID, uuid.New(), "after")))

	assert.Len(t, delivered, 1)
	assert.Len(t, sub.Snapshot(), 1)
}

func TestFeed_PublishReachesSubscribers(t *testing.T) {
	feed := NewFeed()
	h := feed.Subscribe(4)

	msg := newMessage(uuid.New(), uuid.New(), "hi")
	feed.PublishInsert(TableMessages, msg)

	ev := <-h.Events()
	assert.Equal(t, EventInsert, ev.Type)
	assert.Equal(t, TableMessages, ev.Table)
	assert.Equal(t, msg, ev.Row)

	h.Cancel()
	h.Cancel() // idempotent, must not panic after the channel closed

	_, open := <-h.Events()
	assert.False(t, open)
}

func TestFeed_CancelledSubscriberGetsNothing(t *testing.T) {
	feed := NewFeed()
	h := feed.Subscribe(4)
	h.Cancel()

	feed.PublishInsert(TableMessages, newMessage(uuid.New(), uuid.New(), "hi"))

	_, open := <-h.Events()
	assert.False(t, open)
}
