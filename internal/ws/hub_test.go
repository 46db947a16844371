package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/commonapp/common-backend/internal/models"
	"github.com/commonapp/common-backend/internal/realtime"
)

type staticResolver struct{}

func (staticResolver) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	return &models.Profile{UserID: userID, DisplayName: "Sam"}, nil
}

// racingOpener publishes an insert while the snapshot query is still
// in flight, so the event can only reach the client through the feed.
type racingOpener struct {
	feed *realtime.Feed
	msg  models.Message
}

func (o *racingOpener) ListMessages(ctx context.Context, threadID, userID uuid.UUID, limit, offset int) ([]models.Message, error) {
	o.feed.PublishInsert(realtime.TableMessages, o.msg)
	return nil, nil
}

func TestHub_OpenThreadWatch_DeliversInsertDuringSnapshotFetch(t *testing.T) {
	threadID := uuid.New()
	feed := realtime.NewFeed()
	msg := models.Message{ID: uuid.New(), ThreadID: threadID, SenderID: uuid.New(), Content: "hi"}

	hub := NewHub(context.Background())
	hub.SetThreadStream(feed, &racingOpener{feed: feed, msg: msg}, staticResolver{})

	client := &Client{
		userID:  uuid.New(),
		send:    make(chan []byte, 16),
		watches: make(map[uuid.UUID]threadWatch),
	}

	assert.NoError(t, hub.openThreadWatch(client, threadID))

	frames := map[string]json.RawMessage{}
	deadline := time.After(2 * time.Second)
	for len(frames) < 2 {
		select {
		case raw := <-client.send:
			var frame struct {
				Type string          `json:"type"`
				Data json.RawMessage `json:"data"`
			}
			assert.NoError(t, json.Unmarshal(raw, &frame))
			frames[frame.Type] = frame.Data
		case <-deadline:
			t.Fatal("timed out waiting for frames")
		}
	}

	assert.Contains(t, frames, eventThreadSnapshot)
	assert.Contains(t, frames, models.EventNewMessage)

	var view realtime.MessageView
	assert.NoError(t, json.Unmarshal(frames[models.EventNewMessage], &view))
	assert.Equal(t, msg.ID, view.ID)
}

func TestHub_OpenThreadWatch_NotConfigured(t *testing.T) {
	hub := NewHub(context.Background())
	client := &Client{
		userID:  uuid.New(),
		send:    make(chan []byte, 16),
		watches: make(map[uuid.UUID]threadWatch),
	}

	assert.Error(t, hub.openThreadWatch(client, uuid.New()))
}
