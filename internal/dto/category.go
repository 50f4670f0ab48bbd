package dto

import (
	"time"

	"github.com/SscSPs/property_fines_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateCategoryRequest defines the data needed to create a violation category.
type CreateCategoryRequest struct {
	Name           string          `json:"name" binding:"required,max=100"`
	Description    string          `json:"description"`
	BaseFineAmount decimal.Decimal `json:"baseFineAmount" binding:"decimal_gte0"`
	Severity       domain.Severity `json:"severity" binding:"required,oneof=low medium high critical"`
}

// UpdateCategoryRequest defines the data allowed for updating a category.
// Use pointers to distinguish between zero-value updates and fields not provided.
type UpdateCategoryRequest struct {
	Name           *string          `json:"name" binding:"omitempty,max=100"`
	Description    *string          `json:"description"`
	BaseFineAmount *decimal.Decimal `json:"baseFineAmount" binding:"omitempty,decimal_gte0"`
	Severity       *domain.Severity `json:"severity" binding:"omitempty,oneof=low medium high critical"`
	IsActive       *bool            `json:"isActive"`
}

// CategoryResponse defines the data returned for a category.
type CategoryResponse struct {
	CategoryID     string          `json:"categoryID"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	BaseFineAmount decimal.Decimal `json:"baseFineAmount"`
	Severity       domain.Severity `json:"severity"`
	IsActive       bool            `json:"isActive"`
	CreatedAt      time.Time       `json:"createdAt"`
	CreatedBy      string          `json:"createdBy"`
	LastUpdatedAt  time.Time       `json:"lastUpdatedAt"`
	LastUpdatedBy  string          `json:"lastUpdatedBy"`
}

// ToCategoryResponse converts a domain.ViolationCategory to CategoryResponse DTO
func ToCategoryResponse(c *domain.ViolationCategory) CategoryResponse {
	return CategoryResponse{
		CategoryID:     c.CategoryID,
		Name:           c.Name,
		Description:    c.Description,
		BaseFineAmount: c.BaseFineAmount,
		Severity:       c.Severity,
		IsActive:       c.IsActive,
		CreatedAt:      c.CreatedAt,
		CreatedBy:      c.CreatedBy,
		LastUpdatedAt:  c.LastUpdatedAt,
		LastUpdatedBy:  c.LastUpdatedBy,
	}
}

// ToListCategoryResponse converts a slice of categories.
func ToListCategoryResponse(categories []domain.ViolationCategory) []CategoryResponse {
	out := make([]CategoryResponse, len(categories))
	for i := range categories {
		out[i] = ToCategoryResponse(&categories[i])
	}
	return out
}
