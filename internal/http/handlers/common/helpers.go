package common

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/commonapp/common-backend/internal/dto"
	"github.com/commonapp/common-backend/internal/http/middleware"
	"github.com/commonapp/common-backend/internal/pkg/apperror"
)

var (
	// ErrNoUserInContext is returned when the auth middleware did not run.
	ErrNoUserInContext = errors.New("no user in request context")

	// ErrInvalidUUID is returned when UUID parsing fails.
	ErrInvalidUUID = errors.New("invalid UUID format")
)

// CurrentUserID extracts the authenticated user's id from the context.
func CurrentUserID(c *gin.Context) (uuid.UUID, error) {
	raw, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return uuid.Nil, ErrNoUserInContext
	}

	userID, ok := raw.(uuid.UUID)
	if !ok {
		return uuid.Nil, ErrNoUserInContext
	}

	return userID, nil
}

// ParseUUIDParam parses a UUID from a URL parameter.
func ParseUUIDParam(c *gin.Context, paramName string) (uuid.UUID, error) {
	param := c.Param(paramName)
	if param == "" {
		return uuid.Nil, fmt.Errorf("parameter %s is missing", paramName)
	}

	parsed, err := uuid.Parse(param)
	if err != nil {
		return uuid.Nil, ErrInvalidUUID
	}

	return parsed, nil
}

// BindAndValidate binds the JSON body and wraps binding failures.
func BindAndValidate(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return fmt.Errorf("request validation failed: %w", err)
	}
	return nil
}

// RespondError sends a standardized error response.
func RespondError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, dto.ErrorResponse{Error: message})
}

// RespondAppError maps an error through apperror to a JSON response.
// Unknown errors are masked as internal.
func RespondAppError(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		RespondError(c, appErr.HTTPStatus, appErr.Message)
		return
	}
	RespondError(c, http.StatusInternalServerError, "internal server error")
}

// RespondSuccess sends a standardized success response.
func RespondSuccess(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, dto.SuccessResponse{
		Message: message,
		Data:    data,
	})
}

// RespondJSON sends a JSON response with the given status code and data.
func RespondJSON(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// RespondUnauthorized sends a 401 response.
func RespondUnauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "authorization required"
	}
	RespondError(c, http.StatusUnauthorized, message)
}

// RespondBadRequest sends a 400 response.
func RespondBadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "bad request"
	}
	RespondError(c, http.StatusBadRequest, message)
}

// ParseIntQuery safely reads an integer query parameter with a fallback.
func ParseIntQuery(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

// ParseFloatQuery reads an optional float query parameter; nil when
// absent or malformed.
func ParseFloatQuery(c *gin.Context, key string) *float64 {
	v := c.Query(key)
	if v == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &parsed
}

// GetPagination extracts limit and offset from query parameters.
func GetPagination(c *gin.Context) (limit, offset int) {
	limit = ParseIntQuery(c, "limit", 20)
	offset = ParseIntQuery(c, "offset", 0)
	if limit > 100 {
		limit = 100
	}
	if limit < 1 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return
}
