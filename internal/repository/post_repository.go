package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/commonapp/common-backend/internal/models"
)

// ErrPostNotFound is returned when no post row matches.
var ErrPostNotFound = errors.New("post not found")

// PostRepository works with the posts table.
type PostRepository struct {
	db *sqlx.DB
}

// NewPostRepository creates the repository.
func NewPostRepository(db *sqlx.DB) *PostRepository {
	return &PostRepository{db: db}
}

// Create inserts a post in pending status.
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	query := `
		INSERT INTO posts (owner_id, title, location, latitude, longitude, time_text, notes, posted_by, responder, status, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, people_interested, created_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		post.OwnerID, post.Title, post.Location, post.Latitude, post.Longitude,
		post.TimeText, post.Notes, post.PostedBy, post.Responder, post.Status, post.ExpiresAt,
	).Scan(&post.ID, &post.PeopleInterested, &post.CreatedAt); err != nil {
		return fmt.Errorf("post repository: create %w", err)
	}

	return nil
}

// GetByID returns a post by id.
func (r *PostRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	var post models.Post
	if err := r.db.GetContext(ctx, &post, `SELECT * FROM posts WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("post repository: get by id %w", err)
	}

	return &post, nil
}

// ListApproved returns non-expired approved posts, newest first.
func (r *PostRepository) ListApproved(ctx context.Context, limit, offset int) ([]models.Post, error) {
	var posts []models.Post
	query := `
		SELECT * FROM posts
		WHERE status = 'approved' AND (expires_at IS NULL OR expires_at > NOW())
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	if err := r.db.SelectContext(ctx, &posts, query, limit, offset); err != nil {
		return nil, fmt.Errorf("post repository: list approved %w", err)
	}
	return posts, nil
}

// ListByOwner returns all posts of one owner including pending ones,
// excluding deleted.
func (r *PostRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]models.Post, error) {
	var posts []models.Post
	query := `
		SELECT * FROM posts
		WHERE owner_id = $1 AND status <> 'deleted'
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &posts, query, ownerID, limit, offset); err != nil {
		return nil, fmt.Errorf("post repository: list by owner %w", err)
	}
	return posts, nil
}

// ListByStatus returns posts in one status, oldest first (moderation
// queue order).
func (r *PostRepository) ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.Post, error) {
	var posts []models.Post
	query := `
		SELECT * FROM posts
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &posts, query, status, limit, offset); err != nil {
		return nil, fmt.Errorf("post repository: list by status %w", err)
	}
	return posts, nil
}

// Update rewrites the editable fields of a post.
func (r *PostRepository) Update(ctx context.Context, post *models.Post) error {
	query := `
		UPDATE posts
		SET title = $2, location = $3, latitude = $4, longitude = $5,
			time_text = $6, notes = $7, responder = $8, expires_at = $9
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		post.ID, post.Title, post.Location, post.Latitude, post.Longitude,
		post.TimeText, post.Notes, post.Responder, post.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("post repository: update %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPostNotFound
	}
	return nil
}

// UpdateStatus moves a post between lifecycle states, guarded by the
// expected current status so concurrent transitions are last-write-wins
// on the row, never resurrecting a terminal state.
func (r *PostRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE posts SET status = $3 WHERE id = $1 AND status = $2`, id, from, to)
	if err != nil {
		return false, fmt.Errorf("post repository: update status %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("post repository: update status %w", err)
	}
	return n > 0, nil
}

// IncrementInterested atomically bumps the interested counter.
func (r *PostRepository) IncrementInterested(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE posts SET people_interested = people_interested + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("post repository: increment interested %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPostNotFound
	}
	return nil
}

// CountByStatus returns how many posts sit in a status.
func (r *PostRepository) CountByStatus(ctx context.Context, status string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM posts WHERE status = $1`, status); err != nil {
		return 0, fmt.Errorf("post repository: count by status %w", err)
	}
	return count, nil
}
