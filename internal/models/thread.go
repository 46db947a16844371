package models

import (
	"time"

	"github.com/google/uuid"
)

// Thread is a conversation scoped to one post between the post owner
// and exactly one respondent. At most one thread may exist per
// (post, respondent) pair; the database enforces that with a unique
// index.
type Thread struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	PostID       uuid.UUID  `db:"post_id" json:"post_id"`
	OwnerID      uuid.UUID  `db:"owner_id" json:"owner_id"`
	RespondentID uuid.UUID  `db:"respondent_id" json:"respondent_id"`
	CreatedBy    uuid.UUID  `db:"created_by" json:"created_by"`
	ClosedAt     *time.Time `db:"closed_at" json:"closed_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// HasParticipant reports whether the user is one of the two parties.
func (t *Thread) HasParticipant(userID uuid.UUID) bool {
	return t.OwnerID == userID || t.RespondentID == userID
}

// OtherParticipant returns the counterpart of the given participant.
func (t *Thread) OtherParticipant(userID uuid.UUID) uuid.UUID {
	if t.OwnerID == userID {
		return t.RespondentID
	}
	return t.OwnerID
}

// Message is one immutable utterance within a thread. Seq is a
// database-assigned insertion counter used only to break
// same-timestamp ordering ties.
type Message struct {
	ID        uuid.UUID `db:"id" json:"id"`
	ThreadID  uuid.UUID `db:"thread_id" json:"thread_id"`
	SenderID  uuid.UUID `db:"sender_id" json:"sender_id"`
	Content   string    `db:"content" json:"content"`
	Seq       int64     `db:"seq" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ThreadView is a thread annotated for listings.
type ThreadView struct {
	Thread
	Closed    bool   `json:"closed"`
	PostTitle string `json:"post_title"`
}
