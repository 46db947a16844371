package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/commonapp/common-backend/internal/logger"
	"github.com/commonapp/common-backend/internal/pkg/apperror"
)

// ErrorHandler turns errors attached to the gin context into JSON
// responses. Application errors map through their own status; anything
// else is masked as an internal error.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		if logger.Log != nil {
			logger.Log.WithFields(logrus.Fields{
				"error":  err.Error(),
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			}).Error("request error")
		}

		statusCode := http.StatusInternalServerError
		message := "internal server error"

		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			statusCode = appErr.HTTPStatus
			message = appErr.Message
		}

		c.JSON(statusCode, gin.H{"error": message})
	}
}
