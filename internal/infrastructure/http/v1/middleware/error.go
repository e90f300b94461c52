package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"posada/internal/core/apperror"
	"posada/pkg/logger"
)

// errorResponse is the wire shape of every error body.
type errorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorHandler renders gin errors accumulated by handlers as a single
// JSON body. AppError carries its own status code and details; anything
// else becomes an opaque 500 with the request id for correlation.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		if c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err

		if appErr, ok := apperror.AsAppError(err); ok {
			if appErr.HTTPStatus >= 500 {
				logger.Error(c.Request.Context(), "internal error",
					"code", appErr.Code,
					"error", appErr.Error(),
				)
			}
			c.JSON(appErr.HTTPStatus, errorResponse{
				Code:    appErr.Code,
				Message: appErr.Message,
				Details: appErr.Details,
			})
			return
		}

		logger.Error(c.Request.Context(), "unhandled error", "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{
			Code:    apperror.CodeInternal,
			Message: "internal server error",
			Details: map[string]any{"request_id": c.GetString("request_id")},
		})
	}
}
