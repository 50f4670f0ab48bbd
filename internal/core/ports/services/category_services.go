package services

import (
	"context"

	"github.com/SscSPs/property_fines_app/internal/core/domain"
	"github.com/SscSPs/property_fines_app/internal/dto"
)

// CategoryReaderSvc defines read operations for violation categories
type CategoryReaderSvc interface {
	// GetCategory retrieves a category by ID. It also satisfies external.CategoryProvider.
	GetCategory(ctx context.Context, categoryID string) (*domain.ViolationCategory, error)

	ListCategories(ctx context.Context, includeInactive bool) ([]domain.ViolationCategory, error)

	// GetCategoryStats returns the recomputed counters of a category.
	GetCategoryStats(ctx context.Context, categoryID string) (*domain.CategoryStats, error)
}

// CategoryWriterSvc defines write operations for violation categories
type CategoryWriterSvc interface {
	CreateCategory(ctx context.Context, req dto.CreateCategoryRequest, actorID string) (*domain.ViolationCategory, error)
	UpdateCategory(ctx context.Context, categoryID string, req dto.UpdateCategoryRequest, actorID string) (*domain.ViolationCategory, error)

	// DeactivateCategory hides a category from new reports. Existing violations and fines are untouched.
	DeactivateCategory(ctx context.Context, categoryID string, actorID string) error
}

// CategorySvcFacade combines all category service interfaces
type CategorySvcFacade interface {
	CategoryReaderSvc
	CategoryWriterSvc
}
