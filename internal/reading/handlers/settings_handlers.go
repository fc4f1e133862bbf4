package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ilawngbayan/storybooks/internal/common/middleware"
	"github.com/ilawngbayan/storybooks/internal/reading/models"
)

// GetMaintenance reports whether maintenance mode is on
// GET /api/settings/maintenance
func (h *Handler) GetMaintenance(c *gin.Context) {
	on, err := h.settings.MaintenanceMode(c.Request.Context())
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MaintenanceResponse{MaintenanceMode: on})
}

// SetMaintenance switches maintenance mode on or off
// PUT /api/settings/maintenance
func (h *Handler) SetMaintenance(c *gin.Context) {
	var req models.MaintenanceRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.settings.SetMaintenanceMode(c.Request.Context(), *req.Enabled, middleware.UserID(c)); err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MaintenanceResponse{MaintenanceMode: *req.Enabled})
}
