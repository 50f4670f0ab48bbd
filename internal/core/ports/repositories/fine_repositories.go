package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/property_fines_app/internal/core/domain"
)

// FineFilter narrows ListFines. Empty fields match everything.
type FineFilter struct {
	Statuses []domain.FineStatus
	// StatusAsOf matches Statuses against Fine.StatusAsOf at this time instead of the stored status.
	StatusAsOf  *time.Time
	ResidentID  string
	ViolationID string
	IssuedFrom  *time.Time
	IssuedTo    *time.Time
}

// FineReader defines read operations for fines
type FineReader interface {
	// FindFineByID retrieves a fine by its ID. Returns apperrors.ErrNotFound when missing.
	FindFineByID(ctx context.Context, fineID string) (*domain.Fine, error)

	// FindFineByViolationID retrieves the fine issued for a violation. Returns apperrors.ErrNotFound when none exists.
	FindFineByViolationID(ctx context.Context, violationID string) (*domain.Fine, error)

	// ListFines retrieves fines newest first using token-based pagination.
	ListFines(ctx context.Context, filter FineFilter, limit int, nextToken *string) ([]domain.Fine, *string, error)

	// ListFinesIssuedBetween retrieves every fine issued in [from, to).
	ListFinesIssuedBetween(ctx context.Context, from, to time.Time) ([]domain.Fine, error)

	// ListOpenFinesDueBefore retrieves pending, partially paid and overdue fines whose due date is before cutoff,
	// oldest due date first, using token-based pagination.
	ListOpenFinesDueBefore(ctx context.Context, cutoff time.Time, limit int, nextToken *string) ([]domain.Fine, *string, error)

	// ListFineStatusChanges retrieves the status history of a fine, oldest first.
	ListFineStatusChanges(ctx context.Context, fineID string) ([]domain.FineStatusChange, error)
}

// FineWriter defines write operations for fines
type FineWriter interface {
	// SaveFine inserts a fine and its first status log entry.
	// Returns apperrors.ErrDuplicate when the violation already has a fine.
	SaveFine(ctx context.Context, fine domain.Fine, change domain.FineStatusChange) error

	// UpdateFine writes the fine with an optimistic version check and appends changes to the status log,
	// all in one transaction. A fine reaching paid or waived resolves its approved violation.
	// Returns apperrors.ErrConcurrentModification when the stored version moved on.
	UpdateFine(ctx context.Context, fine *domain.Fine, changes []domain.FineStatusChange) error
}

// FineRepositoryFacade combines all fine repository interfaces
type FineRepositoryFacade interface {
	FineReader
	FineWriter
}
