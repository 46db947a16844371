package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/commonapp/common-backend/internal/dto"
	"github.com/commonapp/common-backend/internal/http/handlers/common"
	"github.com/commonapp/common-backend/internal/service"
)

// ThreadHandler serves the interest and messaging surface.
type ThreadHandler struct {
	threads *service.ThreadService
}

func NewThreadHandler(threads *service.ThreadService) *ThreadHandler {
	return &ThreadHandler{threads: threads}
}

// ExpressInterest handles POST /posts/:id/interest. The operation is
// idempotent: tapping twice lands in the same thread, and the
// interested counter moves only when a thread is actually created.
func (h *ThreadHandler) ExpressInterest(c *gin.Context) {
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

	thread, created, err := h.threads.FindOrCreateThread(c.Request.Context(), postID, userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	common.RespondJSON(c, status, dto.InterestResponse{Thread: thread, Created: created})
}

// List handles GET /threads: the caller's threads, open before closed.
func (h *ThreadHandler) List(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	threads, err := h.threads.ListThreadsForUser(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.ThreadListResponse{Threads: threads})
}

// Get handles GET /threads/:id.
func (h *ThreadHandler) Get(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	threadID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	thread, err := h.threads.GetThread(c.Request.Context(), threadID, userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, thread)
}

// ListMessages handles GET /threads/:id/messages.
func (h *ThreadHandler) ListMessages(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	threadID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)
	messages, err := h.threads.ListMessages(c.Request.Context(), threadID, userID, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	closed, err := h.threads.ThreadClosed(c.Request.Context(), threadID, userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.MessageListResponse{
		Messages: messages,
		Closed:   closed,
	})
}

// SendMessage handles POST /threads/:id/messages.
func (h *ThreadHandler) SendMessage(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	threadID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.SendMessageRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	msg, err := h.threads.AppendMessage(c.Request.Context(), threadID, userID, req.Content)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, msg)
}

// Close handles POST /threads/:id/close.
func (h *ThreadHandler) Close(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	threadID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.threads.CloseThread(c.Request.Context(), threadID, userID); err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccess(c, http.StatusOK, "thread closed", nil)
}
