// Package handlers implements the HTTP API endpoints.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"posada/internal/core/apperror"
	"posada/internal/core/id"
)

// BaseHandler provides request binding and error reporting shared by
// all handlers. Errors are registered on the gin context and rendered
// by the ErrorHandler middleware.
type BaseHandler struct{}

// BindJSON binds the request body, registering a validation error on
// failure. Returns false when the handler should stop.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithCause(err))
		return false
	}
	return true
}

// BindQuery binds query parameters.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid query parameters").WithCause(err))
		return false
	}
	return true
}

// ParamID parses a path parameter as a UUID.
func (h *BaseHandler) ParamID(c *gin.Context, name string) (id.ID, bool) {
	raw := c.Param(name)
	parsed, err := id.Parse(raw)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid identifier").WithDetail(name, raw))
		return id.Nil(), false
	}
	return parsed, true
}

// Error registers an error for the ErrorHandler middleware and aborts.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// OK writes a 200 response with the given payload.
func (h *BaseHandler) OK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
