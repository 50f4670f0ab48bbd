package repositories

import (
	"context"

	"github.com/SscSPs/property_fines_app/internal/core/domain"
)

// ViolationFilter narrows ListViolations. Empty fields match everything.
type ViolationFilter struct {
	Status     domain.ViolationStatus
	CategoryID string
	ResidentID string
}

// ViolationReader defines read operations for violations
type ViolationReader interface {
	// FindViolationByID retrieves a violation by its ID. Returns apperrors.ErrNotFound when missing.
	FindViolationByID(ctx context.Context, violationID string) (*domain.Violation, error)

	// ListViolations retrieves violations newest first using token-based pagination.
	ListViolations(ctx context.Context, filter ViolationFilter, limit int, nextToken *string) ([]domain.Violation, *string, error)
}

// ViolationWriter defines write operations for violations
type ViolationWriter interface {
	SaveViolation(ctx context.Context, violation domain.Violation) error

	// UpdateViolation writes the review sub-record and status with an optimistic version check.
	// Returns apperrors.ErrConcurrentModification when the stored version moved on.
	UpdateViolation(ctx context.Context, violation *domain.Violation) error

	// DeleteViolation hard-deletes a violation. Returns apperrors.ErrConflict when a fine references it.
	DeleteViolation(ctx context.Context, violationID string) error
}

// ViolationRepositoryFacade combines all violation repository interfaces
type ViolationRepositoryFacade interface {
	ViolationReader
	ViolationWriter
}
