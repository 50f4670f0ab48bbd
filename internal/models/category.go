package models

import "github.com/shopspring/decimal"

// ViolationCategory is a row of violation_categories.
type ViolationCategory struct {
	CategoryID     string          `db:"category_id"`
	Name           string          `db:"name"`
	Description    string          `db:"description"`
	BaseFineAmount decimal.Decimal `db:"base_fine_amount"`
	Severity       string          `db:"severity"`
	IsActive       bool            `db:"is_active"`
	AuditFields
}
