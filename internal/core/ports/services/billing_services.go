package services

import (
	"context"

	"github.com/SscSPs/property_fines_app/internal/core/domain"
	"github.com/SscSPs/property_fines_app/internal/dto"
)

// BillingBridgeSvc exports fines to the external billing ledger.
type BillingBridgeSvc interface {
	IntegrateToBilling(ctx context.Context, fineID string, req dto.IntegrateBillingRequest, actorID string) (*domain.BillReference, error)
}
