package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/commonapp/common-backend/internal/models"
)

var (
	// ErrThreadNotFound is returned when no thread row matches.
	ErrThreadNotFound = errors.New("thread not found")
	// ErrMessageNotFound is returned when no message row matches.
	ErrMessageNotFound = errors.New("message not found")
)

// ThreadRepository works with the threads and messages tables.
type ThreadRepository struct {
	db *sqlx.DB
}

// NewThreadRepository creates the repository.
func NewThreadRepository(db *sqlx.DB) *ThreadRepository {
	return &ThreadRepository{db: db}
}

// InsertIfAbsent atomically creates a thread unless one already exists
// for the (post, respondent) pair. The unique index on
// (post_id, respondent_id) makes this race-free: exactly one of two
// concurrent inserts wins, the loser sees created=false. No separate
// existence check is done first.
func (r *ThreadRepository) InsertIfAbsent(ctx context.Context, thread *models.Thread) (bool, error) {
	query := `
		INSERT INTO threads (post_id, owner_id, respondent_id, created_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (post_id, respondent_id) DO NOTHING
		RETURNING id, created_at
	`

	err := r.db.QueryRowxContext(
		ctx, query,
		thread.PostID, thread.OwnerID, thread.RespondentID, thread.CreatedBy,
	).Scan(&thread.ID, &thread.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		// Conflict path: a thread for this pair already exists.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("thread repository: insert %w", err)
	}

	return true, nil
}

// GetByPostAndRespondent returns the unique thread of a pair.
func (r *ThreadRepository) GetByPostAndRespondent(ctx context.Context, postID, respondentID uuid.UUID) (*models.Thread, error) {
	var thread models.Thread
	query := `SELECT * FROM threads WHERE post_id = $1 AND respondent_id = $2`
	if err := r.db.GetContext(ctx, &thread, query, postID, respondentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrThreadNotFound
		}
		return nil, fmt.Errorf("thread repository: get by post and respondent %w", err)
	}

	return &thread, nil
}

// GetByID returns a thread by id.
func (r *ThreadRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Thread, error) {
	var thread models.Thread
	if err := r.db.GetContext(ctx, &thread, `SELECT * FROM threads WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrThreadNotFound
		}
		return nil, fmt.Errorf("thread repository: get by id %w", err)
	}

	return &thread, nil
}

// threadWithPostRow joins the owning post's fields a listing needs.
type threadWithPostRow struct {
	models.Thread
	PostTitle     string       `db:"post_title"`
	PostExpiresAt sql.NullTime `db:"post_expires_at"`
}

// ThreadWithPost pairs a thread with the post facts needed to derive
// the closed state.
type ThreadWithPost struct {
	Thread        models.Thread
	PostTitle     string
	PostExpiresAt *time.Time
}

// ListByParticipant returns all threads a user takes part in,
// newest-created first, with the owning post joined in.
func (r *ThreadRepository) ListByParticipant(ctx context.Context, userID uuid.UUID) ([]ThreadWithPost, error) {
	var rows []threadWithPostRow
	query := `
		SELECT t.*, p.title AS post_title, p.expires_at AS post_expires_at
		FROM threads t
		JOIN posts p ON p.id = t.post_id
		WHERE t.owner_id = $1 OR t.respondent_id = $1
		ORDER BY t.created_at DESC
	`
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("thread repository: list by participant %w", err)
	}

	result := make([]ThreadWithPost, len(rows))
	for i, row := range rows {
		result[i] = ThreadWithPost{
			Thread:    row.Thread,
			PostTitle: row.PostTitle,
		}
		if row.PostExpiresAt.Valid {
			expires := row.PostExpiresAt.Time
			result[i].PostExpiresAt = &expires
		}
	}
	return result, nil
}

// CreateMessage appends a message; the creation timestamp is assigned
// by the database so ordering is server-side.
func (r *ThreadRepository) CreateMessage(ctx context.Context, msg *models.Message) error {
	query := `
		INSERT INTO messages (thread_id, sender_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		msg.ThreadID, msg.SenderID, msg.Content,
	).Scan(&msg.ID, &msg.CreatedAt); err != nil {
		return fmt.Errorf("thread repository: create message %w", err)
	}

	return nil
}

// ListMessages returns a thread's messages ordered by creation time,
// ties broken by insertion order (id is assigned monotonically enough
// for same-timestamp rows via the secondary sort on id).
func (r *ThreadRepository) ListMessages(ctx context.Context, threadID uuid.UUID, limit, offset int) ([]models.Message, error) {
	var messages []models.Message
	query := `
		SELECT * FROM messages
		WHERE thread_id = $1
		ORDER BY created_at ASC, seq ASC
		LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &messages, query, threadID, limit, offset); err != nil {
		return nil, fmt.Errorf("thread repository: list messages %w", err)
	}
	return messages, nil
}

// SetClosedAt records an explicit close override on a thread.
func (r *ThreadRepository) SetClosedAt(ctx context.Context, threadID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE threads SET closed_at = NOW() WHERE id = $1 AND closed_at IS NULL`, threadID)
	if err != nil {
		return fmt.Errorf("thread repository: set closed %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrThreadNotFound
	}
	return nil
}
