package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	portssvc "github.com/SscSPs/property_fines_app/internal/core/ports/services"
	"github.com/SscSPs/property_fines_app/internal/dto"
	"github.com/SscSPs/property_fines_app/internal/middleware"
	"github.com/SscSPs/property_fines_app/internal/utils"
)

// paymentHandler handles HTTP requests that move money on fines.
type paymentHandler struct {
	paymentService portssvc.PaymentSvcFacade
	fineService    portssvc.FineReaderSvc
	posthog        *utils.PosthogClientWrapper
	now            func() time.Time
}

func newPaymentHandler(ps portssvc.PaymentSvcFacade, fs portssvc.FineReaderSvc, ph *utils.PosthogClientWrapper) *paymentHandler {
	return &paymentHandler{paymentService: ps, fineService: fs, posthog: ph, now: time.Now}
}

// RegisterPaymentRoutes registers payment routes, nested under fines where a fine is the subject.
func RegisterPaymentRoutes(rg *gin.RouterGroup, paymentService portssvc.PaymentSvcFacade, fineService portssvc.FineReaderSvc, ph *utils.PosthogClientWrapper) {
	h := newPaymentHandler(paymentService, fineService, ph)
	adminOnly := middleware.RequireRole(middleware.RoleAdmin)

	finePayments := rg.Group("/fines/:fineID/payments")
	{
		finePayments.GET("", h.listPayments)
		finePayments.POST("", adminOnly, h.recordPayment)
		finePayments.POST("/order", h.createPaymentOrder)
	}

	payments := rg.Group("/payments")
	{
		payments.POST("/verify", h.verifyPayment)
		payments.POST("/:paymentID/refund", adminOnly, h.refundPayment)
	}
}

// recordPayment godoc
// @Summary Record a manual payment
// @Tags payments
// @Accept  json
// @Produce  json
// @Param   fineID path string true "Fine ID"
// @Param   payment body dto.RecordPaymentRequest true "Payment details"
// @Success 201 {object} dto.FineResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Fine does not accept payments"
// @Failure 422 {object} ErrorResponse "Payment exceeds the outstanding balance"
// @Security BearerAuth
// @Router /fines/{fineID}/payments [post]
func (h *paymentHandler) recordPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, logger, err)
		return
	}
	actorID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}

	fineID := c.Param("fineID")
	fine, err := h.paymentService.RecordPayment(c.Request.Context(), fineID, req.Amount, req.Method, req.Reference, req.PaidAt, actorID)
	if err != nil {
		respondError(c, logger, err, "Failed to record payment")
		return
	}
	logger.Info("Payment recorded",
		slog.String("fine_id", fineID),
		slog.String("amount", req.Amount.String()),
		slog.String("status", string(fine.Status)))
	c.JSON(http.StatusCreated, dto.ToFineResponse(fine, h.now()))
}

// listPayments godoc
// @Summary List the payments of a fine
// @Tags payments
// @Produce  json
// @Param   fineID path string true "Fine ID"
// @Success 200 {array} domain.Payment
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /fines/{fineID}/payments [get]
func (h *paymentHandler) listPayments(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	fineID := c.Param("fineID")
	if authorizeFine(c, h.fineService, logger, fineID) == nil {
		return
	}
	payments, err := h.paymentService.ListPayments(c.Request.Context(), fineID)
	if err != nil {
		respondError(c, logger, err, "Failed to list payments")
		return
	}
	c.JSON(http.StatusOK, payments)
}

// createPaymentOrder godoc
// @Summary Open a gateway checkout order for the outstanding balance
// @Tags payments
// @Produce  json
// @Param   fineID path string true "Fine ID"
// @Success 201 {object} domain.OrderHandle
// @Failure 409 {object} ErrorResponse "Nothing to pay"
// @Failure 502 {object} ErrorResponse "Gateway unavailable"
// @Security BearerAuth
// @Router /fines/{fineID}/payments/order [post]
func (h *paymentHandler) createPaymentOrder(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actorID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}
	fineID := c.Param("fineID")
	if authorizeFine(c, h.fineService, logger, fineID) == nil {
		return
	}

	order, err := h.paymentService.CreatePaymentOrder(c.Request.Context(), fineID, actorID)
	if err != nil {
		respondError(c, logger, err, "Failed to create payment order")
		return
	}
	logger.Info("Payment order created", slog.String("fine_id", fineID), slog.String("order_id", order.OrderID))
	c.JSON(http.StatusCreated, order)
}

// verifyPayment godoc
// @Summary Verify a gateway checkout callback
// @Description Replaying a verified callback returns the fine unchanged.
// @Tags payments
// @Accept  json
// @Produce  json
// @Param   callback body dto.VerifyPaymentRequest true "Gateway callback"
// @Success 200 {object} dto.FineResponse
// @Failure 402 {object} ErrorResponse "Verification failed"
// @Failure 404 {object} ErrorResponse "Unknown order"
// @Security BearerAuth
// @Router /payments/verify [post]
func (h *paymentHandler) verifyPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, logger, err)
		return
	}
	actorID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}

	fine, err := h.paymentService.VerifyPayment(c.Request.Context(), req.OrderID, req.Signature, req.GatewayPaymentID, actorID)
	if err != nil {
		respondError(c, logger, err, "Failed to verify payment")
		return
	}
	middleware.PosthogEvent(c, h.posthog, "fine_payment_verified", map[string]any{
		"fine_id":  fine.FineID,
		"order_id": req.OrderID,
		"status":   string(fine.Status),
	})
	c.JSON(http.StatusOK, dto.ToFineResponse(fine, h.now()))
}

// refundPayment godoc
// @Summary Refund part or all of a payment on a disputed fine
// @Tags payments
// @Accept  json
// @Produce  json
// @Param   paymentID path string true "Payment ID"
// @Param   refund body dto.RefundPaymentRequest true "Refund"
// @Success 200 {object} dto.FineResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Fine is not disputed"
// @Security BearerAuth
// @Router /payments/{paymentID}/refund [post]
func (h *paymentHandler) refundPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.RefundPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, logger, err)
		return
	}
	actorID, ok := actorFromContext(c, logger)
	if !ok {
		return
	}

	paymentID := c.Param("paymentID")
	fine, err := h.paymentService.RefundPayment(c.Request.Context(), paymentID, req.Amount, req.Reason, actorID)
	if err != nil {
		respondError(c, logger, err, "Failed to refund payment")
		return
	}
	logger.Info("Payment refunded", slog.String("payment_id", paymentID), slog.String("amount", req.Amount.String()))
	c.JSON(http.StatusOK, dto.ToFineResponse(fine, h.now()))
}
