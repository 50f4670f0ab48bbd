package external

import (
	"context"

	"github.com/shopspring/decimal"
)

// GatewayOrder is a checkout order opened with the payment gateway.
type GatewayOrder struct {
	OrderID string
	KeyID   string // public key the client checkout needs
}

// GatewayVerification is the client-side callback to verify.
type GatewayVerification struct {
	OrderID          string
	GatewayPaymentID string
	Signature        string
	Amount           decimal.Decimal
	CurrencyCode     string
}

// PaymentGateway creates checkout orders and verifies their callbacks.
type PaymentGateway interface {
	// CreateOrder opens an order for amount. receipt is our payment id.
	CreateOrder(ctx context.Context, amount decimal.Decimal, currencyCode, receipt string) (*GatewayOrder, error)

	// VerifyPayment checks the callback signature and, where the gateway can be queried, the captured amount.
	// Any mismatch or an unreachable gateway returns apperrors.ErrGatewayVerificationFailed.
	VerifyPayment(ctx context.Context, v GatewayVerification) error
}
