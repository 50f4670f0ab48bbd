package dto

import (
	"time"

	"github.com/SscSPs/property_fines_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// RecordPaymentRequest records a manual payment.
type RecordPaymentRequest struct {
	Amount    decimal.Decimal      `json:"amount" binding:"decimal_gt0"`
	Method    domain.PaymentMethod `json:"method" binding:"required,oneof=cash cheque bank_transfer upi card"`
	Reference string               `json:"reference" binding:"max=200"`
	PaidAt    *time.Time           `json:"paidAt"`
}

// VerifyPaymentRequest is the gateway checkout callback relayed by the client.
type VerifyPaymentRequest struct {
	OrderID          string `json:"orderID" binding:"required"`
	GatewayPaymentID string `json:"gatewayPaymentID" binding:"required"`
	Signature        string `json:"signature" binding:"required"`
}

// RefundPaymentRequest issues a refund adjustment against a payment.
type RefundPaymentRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"decimal_gt0"`
	Reason string          `json:"reason" binding:"required,max=1000"`
}
