package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event names pushed over the websocket hub and stored in the payload.
const (
	EventNewMessage   = "message.new"
	EventNewThread    = "thread.new"
	EventPostApproved = "post.approved"
	EventPostRejected = "post.rejected"
	EventPostHidden   = "post.hidden"
)

// Notification is a persisted per-user event.
type Notification struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	UserID    uuid.UUID       `db:"user_id" json:"user_id"`
	Payload   json.RawMessage `db:"payload" json:"payload"`
	IsRead    bool            `db:"is_read" json:"is_read"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}
