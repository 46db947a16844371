package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/commonapp/common-backend/internal/geo"
	"github.com/commonapp/common-backend/internal/models"
	"github.com/commonapp/common-backend/internal/pkg/apperror"
	"github.com/commonapp/common-backend/internal/validation"
)

// PostRepositoryFull is the storage surface PostService needs.
type PostRepositoryFull interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	ListApproved(ctx context.Context, limit, offset int) ([]models.Post, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error)
}

// PostInput carries the editable fields of a post.
type PostInput struct {
	Title     string
	Location  string
	Latitude  *float64
	Longitude *float64
	TimeText  string
	Notes     *string
	Responder string
	ExpiresAt *time.Time
}

// PostService owns the post lifecycle on the user side; moderation
// transitions live in ModerationService.
type PostService struct {
	posts PostRepositoryFull
}

// NewPostService creates the service.
func NewPostService(posts PostRepositoryFull) *PostService {
	return &PostService{posts: posts}
}

func (in *PostInput) validate() error {
	if err := validation.ValidatePostTitle(in.Title); err != nil {
		return apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidatePostLocation(in.Location); err != nil {
		return apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidatePostTime(in.TimeText); err != nil {
		return apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateCoordinates(in.Latitude, in.Longitude); err != nil {
		return apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	return nil
}

// CreatePost stores a new post in pending status.
func (s *PostService) CreatePost(ctx context.Context, ownerID uuid.UUID, postedBy string, in PostInput) (*models.Post, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	responder := strings.TrimSpace(in.Responder)
	if responder == "" {
		responder = models.ResponderAnyone
	}

	post := &models.Post{
		OwnerID:   ownerID,
		Title:     strings.TrimSpace(in.Title),
		Location:  strings.TrimSpace(in.Location),
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		TimeText:  strings.TrimSpace(in.TimeText),
		Notes:     in.Notes,
		PostedBy:  postedBy,
		Responder: responder,
		Status:    models.PostStatusPending,
		ExpiresAt: in.ExpiresAt,
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "post not created")
	}

	return post, nil
}

// GetPost returns a post visible to the caller: approved posts are
// public, anything else only to its owner.
func (s *PostService) GetPost(ctx context.Context, id uuid.UUID, viewerID *uuid.UUID) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, mapStorageErr(err)
	}

	if post.Status == models.PostStatusApproved {
		return post, nil
	}
	if viewerID != nil && post.OwnerID == *viewerID {
		return post, nil
	}
	return nil, apperror.ErrPostNotFound
}

// Feed returns the approved listing, distance-ranked when the viewer
// supplied coordinates.
func (s *PostService) Feed(ctx context.Context, limit, offset int, viewerLat, viewerLon *float64) ([]models.RankedPost, error) {
	posts, err := s.posts.ListApproved(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	if viewerLat != nil && viewerLon != nil {
		return geo.RankByDistance(posts, *viewerLat, *viewerLon), nil
	}

	ranked := make([]models.RankedPost, len(posts))
	for i, p := range posts {
		ranked[i] = models.RankedPost{Post: p}
	}
	return ranked, nil
}

// ListOwn returns the caller's posts including pending ones.
func (s *PostService) ListOwn(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]models.Post, error) {
	return s.posts.ListByOwner(ctx, ownerID, limit, offset)
}

// UpdatePost rewrites a pending post; approved and terminal posts are
// immutable for their owner.
func (s *PostService) UpdatePost(ctx context.Context, id, ownerID uuid.UUID, in PostInput) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, mapStorageErr(err)
	}
	if post.OwnerID != ownerID {
		return nil, apperror.ErrForbidden
	}
	if post.Status != models.PostStatusPending {
		return nil, apperror.New(apperror.ErrCodeConflict, "only pending posts can be edited")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	post.Title = strings.TrimSpace(in.Title)
	post.Location = strings.TrimSpace(in.Location)
	post.Latitude = in.Latitude
	post.Longitude = in.Longitude
	post.TimeText = strings.TrimSpace(in.TimeText)
	post.Notes = in.Notes
	if responder := strings.TrimSpace(in.Responder); responder != "" {
		post.Responder = responder
	}
	post.ExpiresAt = in.ExpiresAt

	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// ClosePost is the owner-initiated terminal close.
func (s *PostService) ClosePost(ctx context.Context, id, ownerID uuid.UUID) error {
	return s.ownerTransition(ctx, id, ownerID, models.PostStatusApproved, models.PostStatusClosed)
}

// DeletePost is the owner-initiated terminal delete; allowed from any
// non-terminal state.
func (s *PostService) DeletePost(ctx context.Context, id, ownerID uuid.UUID) error {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return mapStorageErr(err)
	}
	if post.OwnerID != ownerID {
		return apperror.ErrForbidden
	}
	switch post.Status {
	case models.PostStatusClosed, models.PostStatusDeleted:
		return apperror.New(apperror.ErrCodeConflict, "post is already finalized")
	}

	ok, err := s.posts.UpdateStatus(ctx, id, post.Status, models.PostStatusDeleted)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.New(apperror.ErrCodeConflict, "post state changed, retry")
	}
	return nil
}

func (s *PostService) ownerTransition(ctx context.Context, id, ownerID uuid.UUID, from, to string) error {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return mapStorageErr(err)
	}
	if post.OwnerID != ownerID {
		return apperror.ErrForbidden
	}
	if post.Status != from {
		return apperror.New(apperror.ErrCodeConflict, "post is not in a state that allows this action")
	}

	ok, err := s.posts.UpdateStatus(ctx, id, from, to)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.New(apperror.ErrCodeConflict, "post state changed, retry")
	}
	return nil
}
