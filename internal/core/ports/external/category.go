package external

import (
	"context"

	"github.com/SscSPs/property_fines_app/internal/core/domain"
)

// CategoryProvider is the reference-data lookup used when reporting and approving violations.
type CategoryProvider interface {
	GetCategory(ctx context.Context, categoryID string) (*domain.ViolationCategory, error)
}
