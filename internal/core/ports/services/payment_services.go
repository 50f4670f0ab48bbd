package services

import (
	"context"
	"time"

	"github.com/SscSPs/property_fines_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// PaymentRecorderSvc applies money to fines.
type PaymentRecorderSvc interface {
	// RecordPayment appends a trusted manual payment. paidAt defaults to now.
	RecordPayment(ctx context.Context, fineID string, amount decimal.Decimal, method domain.PaymentMethod, reference string, paidAt *time.Time, actorID string) (*domain.Fine, error)

	// SettleFine records a manual payment for the whole outstanding balance.
	SettleFine(ctx context.Context, fineID string, method domain.PaymentMethod, reference string, actorID string) (*domain.Fine, error)

	// RefundPayment appends a negative adjustment against a successful payment of a disputed fine.
	RefundPayment(ctx context.Context, paymentID string, amount decimal.Decimal, reason string, actorID string) (*domain.Fine, error)
}

// PaymentGatewaySvc runs the two-phase gateway checkout.
type PaymentGatewaySvc interface {
	CreatePaymentOrder(ctx context.Context, fineID string, actorID string) (*domain.OrderHandle, error)

	// VerifyPayment confirms a checkout callback. Replaying a verified callback returns the fine unchanged.
	VerifyPayment(ctx context.Context, orderID, signature, gatewayPaymentID string, actorID string) (*domain.Fine, error)
}

// PaymentReaderSvc defines read operations for payments
type PaymentReaderSvc interface {
	ListPayments(ctx context.Context, fineID string) ([]domain.Payment, error)
}

// PaymentSvcFacade combines all payment service interfaces
type PaymentSvcFacade interface {
	PaymentRecorderSvc
	PaymentGatewaySvc
	PaymentReaderSvc
}
