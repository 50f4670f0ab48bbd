package domain

import (
	"fmt"
	"strings"

	"github.com/SscSPs/property_fines_app/internal/apperrors"
	"github.com/shopspring/decimal"
)

// ViolationCategory is reference data describing a kind of violation and its suggested fine.
type ViolationCategory struct {
	CategoryID     string          `json:"categoryID"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	BaseFineAmount decimal.Decimal `json:"baseFineAmount"`
	Severity       Severity        `json:"severity"`
	IsActive       bool            `json:"isActive"`
	AuditFields
}

// Validate checks the category invariants.
func (c ViolationCategory) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: category name is required", apperrors.ErrValidation)
	}
	if c.BaseFineAmount.IsNegative() {
		return fmt.Errorf("%w: base fine amount must not be negative", apperrors.ErrValidation)
	}
	if !c.Severity.IsValid() {
		return fmt.Errorf("%w: invalid severity %q", apperrors.ErrValidation, c.Severity)
	}
	return nil
}

// CategoryStats are recomputed aggregates, never hand-edited.
type CategoryStats struct {
	CategoryID              string          `json:"categoryID"`
	TotalViolations         int64           `json:"totalViolations"`
	AverageFinePerViolation decimal.Decimal `json:"averageFinePerViolation"`
}
