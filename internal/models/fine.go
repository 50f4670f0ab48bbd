package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Fine is a row of fines. The waiver, dispute and bill sub-records are JSONB and nullable.
type Fine struct {
	FineID               string          `db:"fine_id"`
	ViolationID          string          `db:"violation_id"`
	ResidentID           string          `db:"resident_id"`
	FineAmount           decimal.Decimal `db:"fine_amount"`
	LateFee              decimal.Decimal `db:"late_fee"`
	TotalAmount          decimal.Decimal `db:"total_amount"`
	PaidAmount           decimal.Decimal `db:"paid_amount"`
	CurrencyCode         string          `db:"currency_code"`
	IssuedDate           time.Time       `db:"issued_date"`
	DueDate              time.Time       `db:"due_date"`
	PaidDate             *time.Time      `db:"paid_date"`
	LastPaymentAt        *time.Time      `db:"last_payment_at"`
	Status               string          `db:"status"`
	AccrualPausedSeconds int64           `db:"accrual_paused_seconds"`
	ReminderCount        int             `db:"reminder_count"`
	LastReminderAt       *time.Time      `db:"last_reminder_at"`
	Waiver               []byte          `db:"waiver"`
	Dispute              []byte          `db:"dispute"`
	Bill                 []byte          `db:"bill"`
	AuditFields
}

// FineStatusChange is a row of fine_status_log.
type FineStatusChange struct {
	FineID    string    `db:"fine_id"`
	OldStatus string    `db:"old_status"`
	NewStatus string    `db:"new_status"`
	Note      string    `db:"note"`
	ChangedBy string    `db:"changed_by"`
	ChangedAt time.Time `db:"changed_at"`
}
