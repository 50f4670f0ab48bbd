package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SscSPs/property_fines_app/internal/core/domain"
	portssvc "github.com/SscSPs/property_fines_app/internal/core/ports/services"
	"github.com/SscSPs/property_fines_app/internal/dto"
	"github.com/SscSPs/property_fines_app/internal/middleware"
	"github.com/SscSPs/property_fines_app/internal/utils"
)

// fineHandler handles HTTP requests related to fines and their waiver, dispute and billing sub-flows.
type fineHandler struct {
	fineService    portssvc.FineSvcFacade
	billingService portssvc.BillingBridgeSvc
	posthog        *utils.PosthogClientWrapper
	now            func() time.Time
}

func newFineHandler(fs portssvc.FineSvcFacade, bs portssvc.BillingBridgeSvc, ph *utils.PosthogClientWrapper) *fineHandler {
	return &fineHandler{fineService: fs, billingService: bs, posthog: ph, now: time.Now}
}

// RegisterFineRoutes registers routes related to fines.
func RegisterFineRoutes(rg *gin.RouterGroup, fineService portssvc.FineSvcFacade, billingService portssvc.BillingBridgeSvc, ph *utils.PosthogClientWrapper) {
	h := newFineHandler(fineService, billingService, ph)
	adminOnly := middleware.RequireRole(middleware.RoleAdmin)

	fines := rg.Group("/fines")
	{
		fines.POST("", adminOnly, h.issueFine)
		fines.GET("", h.listFines)
		fines.GET("/analytics", adminOnly, h.getFineAnalytics)
		fines.GET("/:fineID", h.getFine)
		fines.GET("/:fineID/history", h.getFineHistory)
		fines.POST("/:fineID/waiver", h.requestWaiver)
		fines.POST("/:fineID/waiver/resolve", adminOnly, h.resolveWaiver)
		fines.POST("/:fineID/waive", adminOnly, h.waiveFine)
		fines.POST("/:fineID/dispute", h.raiseDispute)
		fines.POST("/:fineID/dispute/resolve", adminOnly, h.resolveDispute)
		fines.POST("/:fineID/reminders", adminOnly, h.sendReminder)
		fines.POST("/:fineID/billing", adminOnly, h.integrateToBilling)
	}
}

func isResident(c *gin.Context) bool {
	role, _ := middleware.GetRoleFromContext(c)
	return role == middleware.RoleResident
}

// authorizeFine loads the fine and, for residents, checks that it is theirs.
// It writes the error response and returns nil when access is denied.
func authorizeFine(c *gin.Context, fineService portssvc.FineReaderSvc, logger *slog.Logger, fineID string) *domain.Fine {
	fine, err := fineService.GetFine(c.Request.Context(), fineID)
	if err != nil {
		respondError(c, logger, err, "Failed to get fine")
		return nil
	}
	if isResident(c) {
		userID, _ := middleware.GetUserIDFromContext(c)
		if fine.ResidentID != userID {
			logger.Warn("Resident accessed another resident's fine", slog.String("fine_id", fineID))
			// other residents' fines look missing
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "fine not found", Kind: "not_found"})
			return nil
		}
	}
	return fine
}

// issueFine godoc
// @Summary Issue a fine for an approved violation
// @Tags fines
// @Accept  json
// @Produce  json
// @Param   fine body dto.IssueFineRequest true "Fine details"
// @Success 201 {object} dto.FineResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Violation not approved or already fined"
// @Security BearerAuth
// @Router /fines [post]
func (h *fineHandler) issueFine(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.IssueFineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, logger, err)
		return
	}
	actorID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}

	fine, err := h.fineService.IssueFine(c.Request.Context(), req.ViolationID, req.FineAmount, req.DueDate, actorID)
	if err != nil {
		respondError(c, logger, err, "Failed to issue fine")
		return
	}
	logger.Info("Fine issued", slog.String("fine_id", fine.FineID), slog.String("violation_id", fine.ViolationID))
	c.JSON(http.StatusCreated, dto.ToFineResponse(fine, h.now()))
}

// listFines godoc
// @Summary List fines
// @Description Residents only see their own fines.
// @Tags fines
// @Produce  json
// @Param   status query []string false "Status filter" collectionFormat(multi)
// @Param   residentID query string false "Resident filter"
// @Param   violationID query string false "Violation filter"
// @Param   issuedFrom query string false "Issued on or after (YYYY-MM-DD)"
// @Param   issuedTo query string false "Issued before (YYYY-MM-DD)"
// @Param   limit query int false "Page size (max 100)"
// @Param   nextToken query string false "Token of the next page"
// @Success 200 {object} dto.ListFinesResponse
// @Security BearerAuth
// @Router /fines [get]
func (h *fineHandler) listFines(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ListFinesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, logger, err)
		return
	}
	if isResident(c) {
		params.ResidentID, _ = middleware.GetUserIDFromContext(c)
	}

	resp, err := h.fineService.ListFines(c.Request.Context(), params)
	if err != nil {
		respondError(c, logger, err, "Failed to list fines")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// getFine godoc
// @Summary Get a fine
// @Description Late fees are brought up to date before the fine is returned.
// @Tags fines
// @Produce  json
// @Param   fineID path string true "Fine ID"
// @Success 200 {object} dto.FineResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /fines/{fineID} [get]
func (h *fineHandler) getFine(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	fine := authorizeFine(c, h.fineService, logger, c.Param("fineID"))
	if fine == nil {
		return
	}
	c.JSON(http.StatusOK, dto.ToFineResponse(fine, h.now()))
}

// getFineHistory godoc
// @Summary Get the status history of a fine
// @Tags fines
// @Produce  json
// @Param   fineID path string true "Fine ID"
// @Success 200 {array} domain.FineStatusChange
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /fines/{fineID}/history [get]
func (h *fineHandler) getFineHistory(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	fineID := c.Param("fineID")
	if authorizeFine(c, h.fineService, logger, fineID) == nil {
		return
	}
	history, err := h.fineService.GetFineHistory(c.Request.Context(), fineID)
	if err != nil {
		respondError(c, logger, err, "Failed to get fine history")
		return
	}
	c.JSON(http.StatusOK, history)
}

// getFineAnalytics godoc
// @Summary Aggregate fines issued in a date window
// @Tags fines
// @Produce  json
// @Param   from query string true "Issued on or after (YYYY-MM-DD)"
// @Param   to query string true "Issued before (YYYY-MM-DD)"
// @Success 200 {object} domain.FineAnalytics
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /fines/analytics [get]
func (h *fineHandler) getFineAnalytics(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.FineAnalyticsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, logger, err)
		return
	}
	analytics, err := h.fineService.GetFineAnalytics(c.Request.Context(), params.From, params.To)
	if err != nil {
		respondError(c, logger, err, "Failed to compute fine analytics")
		return
	}
	c.JSON(http.StatusOK, analytics)
}

// requestWaiver godoc
// @Summary Request a waiver of a fine
// @Tags fines
// @Accept  json
// @Produce  json
// @Param   fineID path string true "Fine ID"
// @Param   waiver body dto.WaiverRequest true "Reason"
// @Success 200 {object} dto.FineResponse
// @Failure 409 {object} ErrorResponse "A waiver is already pending or the fine is settled"
// @Security BearerAuth
// @Router /fines/{fineID}/waiver [post]
func (h *fineHandler) requestWaiver(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.WaiverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, logger, err)
		return
	}
	actorID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}
	fineID := c.Param("fineID")
	if authorizeFine(c, h.fineService, logger, fineID) == nil {
		return
	}

	fine, err := h.fineService.RequestWaiver(c.Request.Context(), fineID, req.Reason, actorID)
	if err != nil {
		respondError(c, logger, err, "Failed to request waiver")
		return
	}
	c.JSON(http.StatusOK, dto.ToFineResponse(fine, h.now()))
}

// resolveWaiver godoc
// @Summary Approve or reject a pending waiver
// @Tags fines
// @Accept  json
// @Produce  json
// @Param   fineID path string true "Fine ID"
// @Param   decision body dto.ResolveWaiverRequest true "Decision"
// @Success 200 {object} dto.FineResponse
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /fines/{fineID}/waiver/resolve [post]
func (h *fineHandler) resolveWaiver(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ResolveWaiverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, logger, err)
		return
	}
	actorID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}

	fine, err := h.fineService.ResolveWaiver(c.Request.Context(), c.Param("fineID"), *req.Approve, req.AdminNotes, actorID)
	if err != nil {
		respondError(c, logger, err, "Failed to resolve waiver")
		return
	}
	c.JSON(http.StatusOK, dto.ToFineResponse(fine, h.now()))
}

// waiveFine godoc
// @Summary Waive a fine directly
// @Tags fines
// @Accept  json
// @Produce  json
// @Param   fineID path string true "Fine ID"
// @Param   waiver body dto.WaiverRequest true "Reason"
// @Success 200 {object} dto.FineResponse
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /fines/{fineID}/waive [post]
func (h *fineHandler) waiveFine(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.WaiverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, logger, err)
		return
	}
	actorID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}

	fine, err := h.fineService.WaiveFine(c.Request.Context(), c.Param("fineID"), req.Reason, actorID)
	if err != nil {
		respondError(c, logger, err, "Failed to waive fine")
		return
	}
	middleware.PosthogEvent(c, h.posthog, "fine_waived", map[string]any{"fine_id": fine.FineID})
	c.JSON(http.StatusOK, dto.ToFineResponse(fine, h.now()))
}

// raiseDispute godoc
// @Summary Dispute a fine
// @Description Late fees stop accruing while the dispute is open.
// @Tags fines
// @Accept  json
// @Produce  json
// @Param   fineID path string true "Fine ID"
// @Param   dispute body dto.DisputeRequest true "Reason and evidence"
// @Success 200 {object} dto.FineResponse
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /fines/{fineID}/dispute [post]
func (h *fineHandler) raiseDispute(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.DisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, logger, err)
		return
	}
	actorID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}
	fineID := c.Param("fineID")
	if authorizeFine(c, h.fineService, logger, fineID) == nil {
		return
	}

	fine, err := h.fineService.RaiseDispute(c.Request.Context(), fineID, req.Reason, dto.ToDomainEvidence(req.Evidence), actorID)
	if err != nil {
		respondError(c, logger, err, "Failed to raise dispute")
		return
	}
	middleware.PosthogEvent(c, h.posthog, "fine_disputed", map[string]any{"fine_id": fine.FineID})
	c.JSON(http.StatusOK, dto.ToFineResponse(fine, h.now()))
}

// resolveDispute godoc
// @Summary Resolve an open dispute
// @Tags fines
// @Accept  json
// @Produce  json
// @Param   fineID path string true "Fine ID"
// @Param   resolution body dto.ResolveDisputeRequest true "Outcome"
// @Success 200 {object} dto.FineResponse
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /fines/{fineID}/dispute/resolve [post]
func (h *fineHandler) resolveDispute(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ResolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, logger, err)
		return
	}
	actorID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}

	fine, err := h.fineService.ResolveDispute(c.Request.Context(), c.Param("fineID"), req.Outcome, req.ResolutionNotes, actorID)
	if err != nil {
		respondError(c, logger, err, "Failed to resolve dispute")
		return
	}
	c.JSON(http.StatusOK, dto.ToFineResponse(fine, h.now()))
}

// sendReminder godoc
// @Summary Send a payment reminder
// @Tags fines
// @Produce  json
// @Param   fineID path string true "Fine ID"
// @Success 200 {object} dto.FineResponse
// @Failure 409 {object} ErrorResponse "Fine is settled or disputed"
// @Security BearerAuth
// @Router /fines/{fineID}/reminders [post]
func (h *fineHandler) sendReminder(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actorID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}
	fine, err := h.fineService.SendReminder(c.Request.Context(), c.Param("fineID"), actorID)
	if err != nil {
		respondError(c, logger, err, "Failed to send reminder")
		return
	}
	c.JSON(http.StatusOK, dto.ToFineResponse(fine, h.now()))
}

// integrateToBilling godoc
// @Summary Export a fine to the billing ledger
// @Tags fines
// @Accept  json
// @Produce  json
// @Param   fineID path string true "Fine ID"
// @Param   bill body dto.IntegrateBillingRequest false "Bill options"
// @Success 200 {object} domain.BillReference
// @Failure 409 {object} ErrorResponse "Already integrated or fine not billable"
// @Failure 502 {object} ErrorResponse "Billing ledger failed"
// @Security BearerAuth
// @Router /fines/{fineID}/billing [post]
func (h *fineHandler) integrateToBilling(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.IntegrateBillingRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, logger, err)
			return
		}
	}
	actorID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}

	bill, err := h.billingService.IntegrateToBilling(c.Request.Context(), c.Param("fineID"), req, actorID)
	if err != nil {
		respondError(c, logger, err, "Failed to integrate fine to billing")
		return
	}
	logger.Info("Fine integrated to billing", slog.String("fine_id", c.Param("fineID")), slog.String("bill_id", bill.BillID))
	c.JSON(http.StatusOK, bill)
}
