package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"posada/internal/core/tenant"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	BaseHandler
	tenants *tenant.Manager
	version string
}

func NewHealthHandler(tenants *tenant.Manager, version string) *HealthHandler {
	return &HealthHandler{tenants: tenants, version: version}
}

// Live reports process liveness. Always 200 while the process runs.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports whether every tenant database is reachable.
func (h *HealthHandler) Ready(c *gin.Context) {
	if err := h.tenants.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "degraded",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Info returns build and tenant information.
func (h *HealthHandler) Info(c *gin.Context) {
	tenants := h.tenants.Tenants()
	names := make([]string, 0, len(tenants))
	for _, t := range tenants {
		names = append(names, t.Name)
	}
	c.JSON(http.StatusOK, gin.H{
		"service": "posada",
		"version": h.version,
		"tenants": names,
	})
}
