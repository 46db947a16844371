package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/commonapp/common-backend/internal/dto"
	"github.com/commonapp/common-backend/internal/http/handlers/common"
	"github.com/commonapp/common-backend/internal/http/middleware"
	"github.com/commonapp/common-backend/internal/service"
)

// PostHandler serves the public feed and the owner-side post
// lifecycle.
type PostHandler struct {
	posts    *service.PostService
	profiles *service.ProfileService
}

func NewPostHandler(posts *service.PostService, profiles *service.ProfileService) *PostHandler {
	return &PostHandler{posts: posts, profiles: profiles}
}

// Feed handles GET /posts. When lat and lon are both present the feed
// is ranked by distance to the viewer; otherwise it stays in
// recency order.
func (h *PostHandler) Feed(c *gin.Context) {
	limit, offset := common.GetPagination(c)
	lat := common.ParseFloatQuery(c, "lat")
	lon := common.ParseFloatQuery(c, "lon")

	posts, err := h.posts.Feed(c.Request.Context(), limit, offset, lat, lon)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.FeedResponse{
		Posts: posts,
		Pagination: dto.Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: len(posts) == limit,
		},
	})
}

// Create handles POST /posts. New posts enter moderation as pending.
func (h *PostHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.CreatePostRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	expiresAt, err := req.ParseExpiresAt()
	if err != nil {
		common.RespondBadRequest(c, "expires_at must be RFC3339")
		return
	}

	// The display name is stamped on the post at creation time so the
	// feed can render it without a join.
	postedBy := ""
	if prof, perr := h.profiles.GetOwnProfile(c.Request.Context(), userID); perr == nil {
		postedBy = prof.DisplayName
	}

	post, err := h.posts.CreatePost(c.Request.Context(), userID, postedBy, service.PostInput{
		Title:     req.Title,
		Location:  req.Location,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		TimeText:  req.TimeText,
		Notes:     req.Notes,
		Responder: req.Responder,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, post)
}

// Get handles GET /posts/:id. Non-approved posts are visible only to
// their owner.
func (h *PostHandler) Get(c *gin.Context) {
	postID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var viewerID *uuid.UUID
	if raw, exists := c.Get(middleware.ContextUserIDKey); exists {
		if id, ok := raw.(uuid.UUID); ok {
			viewerID = &id
		}
	}

	post, err := h.posts.GetPost(c.Request.Context(), postID, viewerID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, post)
}

// ListOwn handles GET /posts/mine.
func (h *PostHandler) ListOwn(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	limit, offset := common.GetPagination(c)
	posts, err := h.posts.ListOwn(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, gin.H{"posts": posts})
}

// Update handles PUT /posts/:id. Only pending posts can be edited.
func (h *PostHandler) Update(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	postID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.UpdatePostRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	expiresAt, err := req.ParseExpiresAt()
	if err != nil {
		common.RespondBadRequest(c, "expires_at must be RFC3339")
		return
	}

	post, err := h.posts.UpdatePost(c.Request.Context(), postID, userID, service.PostInput{
		Title:     req.Title,
		Location:  req.Location,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		TimeText:  req.TimeText,
		Notes:     req.Notes,
		Responder: req.Responder,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, post)
}

// Close handles POST /posts/:id/close.
func (h *PostHandler) Close(c *gin.Context) {
	h.ownerAction(c, h.posts.ClosePost, "post closed")
}

// Delete handles DELETE /posts/:id.
func (h *PostHandler) Delete(c *gin.Context) {
	h.ownerAction(c, h.posts.DeletePost, "post deleted")
}

func (h *PostHandler) ownerAction(c *gin.Context, action func(ctx context.Context, id, ownerID uuid.UUID) error, message string) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	postID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := action(c.Request.Context(), postID, userID); err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccess(c, http.StatusOK, message, nil)
}
