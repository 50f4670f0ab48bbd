package domain

import (
	"fmt"
	"time"

	"github.com/SscSPs/property_fines_app/internal/apperrors"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how a payment was made.
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "cash"
	MethodCheque       PaymentMethod = "cheque"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodUPI          PaymentMethod = "upi"
	MethodCard         PaymentMethod = "card"
	MethodOnline       PaymentMethod = "online" // gateway checkout
	MethodRefund       PaymentMethod = "refund" // negative adjustment
)

// IsManual reports whether m may be recorded directly by an admin.
func (m PaymentMethod) IsManual() bool {
	switch m {
	case MethodCash, MethodCheque, MethodBankTransfer, MethodUPI, MethodCard:
		return true
	}
	return false
}

// PaymentStatus is the state of a payment record.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentSuccess  PaymentStatus = "success"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// Payment is an append-only record against a fine. Success rows are never edited;
// a refund is a separate negative success row pointing at the original.
type Payment struct {
	PaymentID        string          `json:"paymentID"`
	FineID           string          `json:"fineID"`
	Amount           decimal.Decimal `json:"amount"`
	Method           PaymentMethod   `json:"method"`
	Reference        string          `json:"reference,omitempty"`
	PaidAt           time.Time       `json:"paidAt"`
	Status           PaymentStatus   `json:"status"`
	GatewayOrderID   *string         `json:"gatewayOrderID,omitempty"`
	GatewayPaymentID *string         `json:"gatewayPaymentID,omitempty"`
	RefundOf         *string         `json:"refundOf,omitempty"`
	FailureReason    string          `json:"failureReason,omitempty"`
	AuditFields
}

// MarkSucceeded confirms a pending gateway payment.
func (p *Payment) MarkSucceeded(gatewayPaymentID, actorID string, now time.Time) error {
	if p.Status != PaymentPending {
		return fmt.Errorf("%w: payment is %s, not pending", apperrors.ErrInvalidTransition, p.Status)
	}
	id := gatewayPaymentID
	p.Status = PaymentSuccess
	p.GatewayPaymentID = &id
	p.PaidAt = now
	p.Touch(actorID, now)
	return nil
}

// MarkFailed records a failed or tampered verification.
func (p *Payment) MarkFailed(reason, actorID string, now time.Time) error {
	if p.Status != PaymentPending {
		return fmt.Errorf("%w: payment is %s, not pending", apperrors.ErrInvalidTransition, p.Status)
	}
	p.Status = PaymentFailed
	p.FailureReason = reason
	p.Touch(actorID, now)
	return nil
}

// OrderHandle is returned to the client to open the gateway checkout.
type OrderHandle struct {
	OrderID      string          `json:"orderID"`
	PaymentID    string          `json:"paymentID"`
	FineID       string          `json:"fineID"`
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currencyCode"`
	KeyID        string          `json:"keyID"`
}

// SumSuccessfulPayments is the reconciliation total that must equal a fine's paid amount.
func SumSuccessfulPayments(payments []Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		if p.Status == PaymentSuccess {
			total = total.Add(p.Amount)
		}
	}
	return total
}

// RefundableAmount is what remains refundable on original given the refunds already issued against it.
func RefundableAmount(original Payment, payments []Payment) decimal.Decimal {
	remaining := original.Amount
	for _, p := range payments {
		if p.RefundOf != nil && *p.RefundOf == original.PaymentID && p.Status == PaymentSuccess {
			remaining = remaining.Add(p.Amount) // refund rows are negative
		}
	}
	return remaining
}
