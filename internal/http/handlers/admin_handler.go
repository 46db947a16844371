package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/commonapp/common-backend/internal/dto"
	"github.com/commonapp/common-backend/internal/http/handlers/common"
	"github.com/commonapp/common-backend/internal/service"
)

// AdminHandler is the moderation surface. Every operation re-verifies
// the caller's admin flag server-side; the route-level claim check is
// only a shortcut.
type AdminHandler struct {
	moderation *service.ModerationService
}

func NewAdminHandler(moderation *service.ModerationService) *AdminHandler {
	return &AdminHandler{moderation: moderation}
}

// PendingPosts handles GET /admin/posts/pending, oldest first.
func (h *AdminHandler) PendingPosts(c *gin.Context) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	limit, offset := common.GetPagination(c)
	posts, err := h.moderation.ListPendingPosts(c.Request.Context(), adminID, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, gin.H{"posts": posts})
}

// PendingReports handles GET /admin/reports/pending, oldest first.
func (h *AdminHandler) PendingReports(c *gin.Context) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	limit, offset := common.GetPagination(c)
	reports, err := h.moderation.ListPendingReports(c.Request.Context(), adminID, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, gin.H{"reports": reports})
}

// Counts handles GET /admin/counts.
func (h *AdminHandler) Counts(c *gin.Context) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	counts, err := h.moderation.Counts(c.Request.Context(), adminID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.ModerationCountsResponse{
		PendingPosts:   counts.Posts,
		PendingReports: counts.Reports,
	})
}

// ApprovePost handles POST /admin/posts/:id/approve.
func (h *AdminHandler) ApprovePost(c *gin.Context) {
	h.action(c, h.moderation.ApprovePost, "post approved")
}

// RejectPost handles POST /admin/posts/:id/reject.
func (h *AdminHandler) RejectPost(c *gin.Context) {
	h.action(c, h.moderation.RejectPost, "post rejected")
}

// HidePost handles POST /admin/posts/:id/hide.
func (h *AdminHandler) HidePost(c *gin.Context) {
	h.action(c, h.moderation.HidePost, "post hidden")
}

// DismissReport handles POST /admin/reports/:id/dismiss.
func (h *AdminHandler) DismissReport(c *gin.Context) {
	h.action(c, h.moderation.DismissReport, "report dismissed")
}

// ReviewReport handles POST /admin/reports/:id/review: the report is
// marked reviewed and a reported post is hidden.
func (h *AdminHandler) ReviewReport(c *gin.Context) {
	h.action(c, h.moderation.ReviewReportWithAction, "report reviewed")
}

func (h *AdminHandler) action(c *gin.Context, op func(ctx context.Context, adminID, targetID uuid.UUID) error, message string) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	targetID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := op(c.Request.Context(), adminID, targetID); err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccess(c, http.StatusOK, message, nil)
}
