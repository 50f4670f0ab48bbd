package dto

import (
	"time"

	"github.com/SscSPs/property_fines_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// EvidenceDTO references a stored photo, video or document.
type EvidenceDTO struct {
	Type      string `json:"type" binding:"required,oneof=photo video document"`
	Reference string `json:"reference" binding:"required"`
}

// ReportViolationRequest defines the data needed to report a violation.
type ReportViolationRequest struct {
	CategoryID    string          `json:"categoryID" binding:"required"`
	Severity      domain.Severity `json:"severity" binding:"omitempty,oneof=low medium high critical"` // defaults to the category's
	IncidentAt    time.Time       `json:"incidentAt" binding:"required"`
	Location      string          `json:"location" binding:"required"`
	ResidentID    string          `json:"residentID"`
	UnitNumber    string          `json:"unitNumber"`
	VehicleNumber string          `json:"vehicleNumber"`
	Evidence      []EvidenceDTO   `json:"evidence" binding:"omitempty,dive"`
	Description   string          `json:"description"`
	Priority      domain.Priority `json:"priority" binding:"omitempty,oneof=low normal high urgent"`
}

// ReviewViolationRequest is an admin decision on a violation.
type ReviewViolationRequest struct {
	Decision   domain.ReviewDecision `json:"decision" binding:"required,oneof=start_review approve reject dismiss"`
	FineAmount *decimal.Decimal      `json:"fineAmount" binding:"omitempty,decimal_gte0"`
	Reason     string                `json:"reason"`
}

// ListViolationsParams defines the query parameters for listing violations.
type ListViolationsParams struct {
	Status     string  `form:"status" binding:"omitempty,oneof=pending under_review approved rejected dismissed resolved"`
	CategoryID string  `form:"categoryID"`
	ResidentID string  `form:"residentID"`
	Limit      int     `form:"limit" binding:"omitempty,min=1,max=100"`
	NextToken  *string `form:"nextToken"`
}

// ListViolationsResponse is one page of violations.
type ListViolationsResponse struct {
	Violations []domain.Violation `json:"violations"`
	NextToken  *string            `json:"nextToken,omitempty"`
}

// ToDomainEvidence converts request evidence to domain evidence.
func ToDomainEvidence(in []EvidenceDTO) []domain.Evidence {
	out := make([]domain.Evidence, len(in))
	for i, e := range in {
		out[i] = domain.Evidence{Type: e.Type, Reference: e.Reference}
	}
	return out
}
