package services

import (
	"context"

	"github.com/SscSPs/property_fines_app/internal/core/domain"
)

// BulkActionSvc fans one decision out over many records, best effort per item.
type BulkActionSvc interface {
	PerformBulkAction(ctx context.Context, action domain.BulkAction, targetType domain.BulkTargetType, targetIDs []string, reason string, actorID string) (*domain.BulkResult, error)
}
