package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is a row of fine_payments.
type Payment struct {
	PaymentID        string          `db:"payment_id"`
	FineID           string          `db:"fine_id"`
	Amount           decimal.Decimal `db:"amount"`
	Method           string          `db:"method"`
	Reference        string          `db:"reference"`
	PaidAt           time.Time       `db:"paid_at"`
	Status           string          `db:"status"`
	GatewayOrderID   *string         `db:"gateway_order_id"`
	GatewayPaymentID *string         `db:"gateway_payment_id"`
	RefundOf         *string         `db:"refund_of"`
	FailureReason    string          `db:"failure_reason"`
	AuditFields
}
