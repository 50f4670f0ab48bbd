package external

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// BillLineItem is what the billing bridge exports for one fine.
type BillLineItem struct {
	FineID            string          `json:"fineID"`
	ViolationID       string          `json:"violationID"`
	ResidentID        string          `json:"residentID"`
	Description       string          `json:"description"`
	Amount            decimal.Decimal `json:"amount"`
	AdditionalCharges decimal.Decimal `json:"additionalCharges"`
	CurrencyCode      string          `json:"currencyCode"`
	DueDate           time.Time       `json:"dueDate"`
}

// BillReceipt identifies the bill created in the external ledger.
type BillReceipt struct {
	BillID     string `json:"billID"`
	BillNumber string `json:"billNumber"`
}

// BillingLedger is the external billing system.
type BillingLedger interface {
	CreateBillLineItem(ctx context.Context, item BillLineItem) (*BillReceipt, error)
}
