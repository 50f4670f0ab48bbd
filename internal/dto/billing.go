package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// IntegrateBillingRequest exports a fine to the billing ledger. All fields are optional.
type IntegrateBillingRequest struct {
	DueDate           *time.Time       `json:"dueDate"`
	Description       string           `json:"description" binding:"max=500"`
	AdditionalCharges *decimal.Decimal `json:"additionalCharges" binding:"omitempty,decimal_gte0"`
}
