package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/SscSPs/property_fines_app/internal/core/ports/services"
	"github.com/SscSPs/property_fines_app/internal/dto"
	"github.com/SscSPs/property_fines_app/internal/middleware"
)

// violationHandler handles HTTP requests related to violations.
type violationHandler struct {
	violationService portssvc.ViolationSvcFacade
}

func newViolationHandler(vs portssvc.ViolationSvcFacade) *violationHandler {
	return &violationHandler{violationService: vs}
}

// RegisterViolationRoutes registers routes related to violations. Residents only see violations through their fines.
func RegisterViolationRoutes(rg *gin.RouterGroup, violationService portssvc.ViolationSvcFacade) {
	h := newViolationHandler(violationService)

	violations := rg.Group("/violations", middleware.RequireRole(middleware.RoleAdmin, middleware.RoleGuard))
	{
		violations.POST("", h.reportViolation)
		violations.GET("", h.listViolations)
		violations.GET("/:violationID", h.getViolation)
		violations.POST("/:violationID/review", middleware.RequireRole(middleware.RoleAdmin), h.reviewViolation)
		violations.DELETE("/:violationID", middleware.RequireRole(middleware.RoleAdmin), h.deleteViolation)
	}
}

// reportViolation godoc
// @Summary Report a violation
// @Tags violations
// @Accept  json
// @Produce  json
// @Param   violation body dto.ReportViolationRequest true "Incident details"
// @Success 201 {object} domain.Violation
// @Failure 400 {object} ErrorResponse "Invalid input or inactive category"
// @Security BearerAuth
// @Router /violations [post]
func (h *violationHandler) reportViolation(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ReportViolationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, logger, err)
		return
	}
	reporterID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}

	violation, err := h.violationService.ReportViolation(c.Request.Context(), req, reporterID)
	if err != nil {
		respondError(c, logger, err, "Failed to report violation")
		return
	}
	logger.Info("Violation reported", slog.String("violation_id", violation.ViolationID), slog.String("category_id", violation.CategoryID))
	c.JSON(http.StatusCreated, violation)
}

// listViolations godoc
// @Summary List violations
// @Tags violations
// @Produce  json
// @Param   status query string false "Status filter"
// @Param   categoryID query string false "Category filter"
// @Param   residentID query string false "Resident filter"
// @Param   limit query int false "Page size (max 100)"
// @Param   nextToken query string false "Token of the next page"
// @Success 200 {object} dto.ListViolationsResponse
// @Security BearerAuth
// @Router /violations [get]
func (h *violationHandler) listViolations(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ListViolationsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, logger, err)
		return
	}
	resp, err := h.violationService.ListViolations(c.Request.Context(), params)
	if err != nil {
		respondError(c, logger, err, "Failed to list violations")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// getViolation godoc
// @Summary Get a violation
// @Tags violations
// @Produce  json
// @Param   violationID path string true "Violation ID"
// @Success 200 {object} domain.Violation
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /violations/{violationID} [get]
func (h *violationHandler) getViolation(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	violation, err := h.violationService.GetViolation(c.Request.Context(), c.Param("violationID"))
	if err != nil {
		respondError(c, logger, err, "Failed to get violation")
		return
	}
	c.JSON(http.StatusOK, violation)
}

// reviewViolation godoc
// @Summary Review a violation
// @Description Applies an admin decision. Approving issues the fine when auto-issue is enabled.
// @Tags violations
// @Accept  json
// @Produce  json
// @Param   violationID path string true "Violation ID"
// @Param   review body dto.ReviewViolationRequest true "Decision"
// @Success 200 {object} domain.Violation
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Transition not allowed"
// @Security BearerAuth
// @Router /violations/{violationID}/review [post]
func (h *violationHandler) reviewViolation(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ReviewViolationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, logger, err)
		return
	}
	actorID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}

	violationID := c.Param("violationID")
	violation, err := h.violationService.ReviewViolation(c.Request.Context(), violationID, req.Decision, req.FineAmount, req.Reason, actorID)
	if err != nil {
		respondError(c, logger, err, "Failed to review violation")
		return
	}
	logger.Info("Violation reviewed", slog.String("violation_id", violationID), slog.String("status", string(violation.Status)))
	c.JSON(http.StatusOK, violation)
}

// deleteViolation godoc
// @Summary Delete a violation that has no fine
// @Tags violations
// @Param   violationID path string true "Violation ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "A fine exists for the violation"
// @Security BearerAuth
// @Router /violations/{violationID} [delete]
func (h *violationHandler) deleteViolation(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actorID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}
	if err := h.violationService.DeleteViolation(c.Request.Context(), c.Param("violationID"), actorID); err != nil {
		respondError(c, logger, err, "Failed to delete violation")
		return
	}
	c.Status(http.StatusNoContent)
}
