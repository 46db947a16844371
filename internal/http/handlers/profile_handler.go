package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/commonapp/common-backend/internal/dto"
	"github.com/commonapp/common-backend/internal/http/handlers/common"
	"github.com/commonapp/common-backend/internal/service"
)

// ProfileHandler serves own-profile editing and the public profile
// view other users see.
type ProfileHandler struct {
	profiles *service.ProfileService
}

func NewProfileHandler(profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// GetOwn handles GET /profile.
func (h *ProfileHandler) GetOwn(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	prof, err := h.profiles.GetOwnProfile(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, prof)
}

// Update handles PUT /profile.
func (h *ProfileHandler) Update(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.UpdateProfileRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	dob, err := req.ParseDateOfBirth()
	if err != nil {
		common.RespondBadRequest(c, "date_of_birth must be YYYY-MM-DD")
		return
	}

	prof, err := h.profiles.UpdateProfile(c.Request.Context(), userID, service.ProfileUpdate{
		DisplayName:   req.DisplayName,
		DateOfBirth:   dob,
		EmailOnEvents: req.EmailOnEvents,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, prof)
}

// GetPublic handles GET /users/:id/profile. The response carries
// derived facts only; the raw birthdate never leaves the server.
func (h *ProfileHandler) GetPublic(c *gin.Context) {
	targetID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	view, err := h.profiles.GetPublicProfile(c.Request.Context(), targetID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, view)
}
