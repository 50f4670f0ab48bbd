package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Violation is a row of violations. Evidence is stored as JSONB.
type Violation struct {
	ViolationID        string           `db:"violation_id"`
	CategoryID         string           `db:"category_id"`
	Severity           string           `db:"severity"`
	IncidentAt         time.Time        `db:"incident_at"`
	Location           string           `db:"location"`
	ReportedBy         string           `db:"reported_by"`
	ResidentID         string           `db:"resident_id"`
	UnitNumber         string           `db:"unit_number"`
	VehicleNumber      string           `db:"vehicle_number"`
	Evidence           []byte           `db:"evidence"`
	Description        string           `db:"description"`
	Status             string           `db:"status"`
	ReviewedBy         *string          `db:"reviewed_by"`
	ReviewedAt         *time.Time       `db:"reviewed_at"`
	ReviewNotes        string           `db:"review_notes"`
	AssignedFineAmount *decimal.Decimal `db:"assigned_fine_amount"`
	Priority           string           `db:"priority"`
	AuditFields
}
