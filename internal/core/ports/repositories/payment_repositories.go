package repositories

import (
	"context"

	"github.com/SscSPs/property_fines_app/internal/core/domain"
)

// PaymentReader defines read operations for payments
type PaymentReader interface {
	// FindPaymentByID retrieves a payment by its ID. Returns apperrors.ErrNotFound when missing.
	FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error)

	// FindPaymentByGatewayOrderID retrieves the payment created for a gateway order.
	FindPaymentByGatewayOrderID(ctx context.Context, orderID string) (*domain.Payment, error)

	// ListPaymentsByFineID retrieves all payments of a fine, oldest first.
	ListPaymentsByFineID(ctx context.Context, fineID string) ([]domain.Payment, error)
}

// PaymentWriter defines write operations for payments. Every method that touches a fine does so in the
// same database transaction as the payment write.
type PaymentWriter interface {
	// SavePayment inserts a payment that does not move money yet (a pending gateway order).
	SavePayment(ctx context.Context, payment domain.Payment) error

	// UpdatePayment writes the status of a payment with an optimistic version check.
	UpdatePayment(ctx context.Context, payment *domain.Payment) error

	// SavePaymentWithFine inserts a success payment and writes the fine it was applied to.
	SavePaymentWithFine(ctx context.Context, payment domain.Payment, fine *domain.Fine, changes []domain.FineStatusChange) error

	// CompletePaymentWithFine marks a pending payment successful and writes the fine it was applied to.
	// Returns apperrors.ErrDuplicate when the gateway payment id was already used.
	CompletePaymentWithFine(ctx context.Context, payment *domain.Payment, fine *domain.Fine, changes []domain.FineStatusChange) error
}

// PaymentRepositoryFacade combines all payment repository interfaces
type PaymentRepositoryFacade interface {
	PaymentReader
	PaymentWriter
}
