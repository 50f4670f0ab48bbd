package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/SscSPs/property_fines_app/internal/core/ports/services"
	"github.com/SscSPs/property_fines_app/internal/dto"
	"github.com/SscSPs/property_fines_app/internal/middleware"
)

type bulkHandler struct {
	bulkService portssvc.BulkActionSvc
}

// RegisterBulkRoutes registers the admin bulk action endpoint.
func RegisterBulkRoutes(rg *gin.RouterGroup, bulkService portssvc.BulkActionSvc) {
	h := &bulkHandler{bulkService: bulkService}
	rg.POST("/bulk-actions", middleware.RequireRole(middleware.RoleAdmin), h.performBulkAction)
}

// performBulkAction godoc
// @Summary Apply one action to many violations or fines
// @Description Items are processed independently. A failing item does not stop the others.
// @Tags bulk
// @Accept  json
// @Produce  json
// @Param   action body dto.BulkActionRequest true "Action and targets"
// @Success 200 {object} domain.BulkResult
// @Failure 400 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse "Too many targets"
// @Security BearerAuth
// @Router /bulk-actions [post]
func (h *bulkHandler) performBulkAction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.BulkActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, logger, err)
		return
	}
	actorID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}

	result, err := h.bulkService.PerformBulkAction(c.Request.Context(), req.Action, req.TargetType, req.TargetIDs, req.Reason, actorID)
	if err != nil {
		respondError(c, logger, err, "Failed to perform bulk action")
		return
	}
	logger.Info("Bulk action performed",
		slog.String("action", string(req.Action)),
		slog.Int("successful", result.Successful),
		slog.Int("failed", result.Failed))
	c.JSON(http.StatusOK, result)
}
