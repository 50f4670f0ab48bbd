package repositories

import (
	"context"

	"github.com/SscSPs/property_fines_app/internal/core/domain"
)

// CategoryReader defines read operations for violation categories
type CategoryReader interface {
	// FindCategoryByID retrieves a category by its ID. Returns apperrors.ErrNotFound when missing.
	FindCategoryByID(ctx context.Context, categoryID string) (*domain.ViolationCategory, error)

	// ListCategories retrieves categories ordered by name, optionally including inactive ones.
	ListCategories(ctx context.Context, includeInactive bool) ([]domain.ViolationCategory, error)

	// GetCategoryStats recomputes the aggregate counters of a category from its violations and fines.
	GetCategoryStats(ctx context.Context, categoryID string) (*domain.CategoryStats, error)
}

// CategoryWriter defines write operations for violation categories
type CategoryWriter interface {
	SaveCategory(ctx context.Context, category domain.ViolationCategory) error

	// UpdateCategory writes the mutable fields if the stored version still matches category.Version,
	// then bumps category.Version.
	UpdateCategory(ctx context.Context, category *domain.ViolationCategory) error
}

// CategoryRepositoryFacade combines all category repository interfaces
type CategoryRepositoryFacade interface {
	CategoryReader
	CategoryWriter
}
