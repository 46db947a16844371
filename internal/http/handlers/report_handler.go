package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/commonapp/common-backend/internal/dto"
	"github.com/commonapp/common-backend/internal/http/handlers/common"
	"github.com/commonapp/common-backend/internal/models"
	"github.com/commonapp/common-backend/internal/service"
)

// ReportHandler lets users flag posts and threads for review.
type ReportHandler struct {
	reports *service.ReportService
}

func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Reasons handles GET /reports/reasons.
func (h *ReportHandler) Reasons(c *gin.Context) {
	common.RespondJSON(c, http.StatusOK, gin.H{"reasons": models.ReportReasons})
}

// Create handles POST /reports.
func (h *ReportHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.CreateReportRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	targetID, err := req.ParseTargetID()
	if err != nil {
		common.RespondBadRequest(c, "target_id must be a valid UUID")
		return
	}

	report, err := h.reports.CreateReport(c.Request.Context(), userID, req.TargetType, targetID, req.Reason, req.Description)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, report)
}

// ListMine handles GET /reports/mine.
func (h *ReportHandler) ListMine(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	limit, offset := common.GetPagination(c)
	reports, err := h.reports.ListMyReports(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, gin.H{"reports": reports})
}
