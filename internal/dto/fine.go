package dto

import (
	"time"

	"github.com/SscSPs/property_fines_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// IssueFineRequest issues a fine for an approved violation.
type IssueFineRequest struct {
	ViolationID string          `json:"violationID" binding:"required"`
	FineAmount  decimal.Decimal `json:"fineAmount" binding:"decimal_gte0"`
	DueDate     time.Time       `json:"dueDate" binding:"required"`
}

// ListFinesParams defines the query parameters for listing fines.
type ListFinesParams struct {
	Status      []string   `form:"status" binding:"omitempty,dive,oneof=pending partially_paid paid overdue waived disputed"`
	ResidentID  string     `form:"residentID"`
	ViolationID string     `form:"violationID"`
	IssuedFrom  *time.Time `form:"issuedFrom" time_format:"2006-01-02"`
	IssuedTo    *time.Time `form:"issuedTo" time_format:"2006-01-02"`
	Limit       int        `form:"limit" binding:"omitempty,min=1,max=100"`
	NextToken   *string    `form:"nextToken"`
}

// ListFinesResponse is one page of fines, refreshed to the time of the request.
type ListFinesResponse struct {
	Fines     []FineResponse `json:"fines"`
	NextToken *string        `json:"nextToken,omitempty"`
}

// FineAnalyticsParams selects the issue-date window of the analytics.
type FineAnalyticsParams struct {
	From time.Time `form:"from" time_format:"2006-01-02" binding:"required"`
	To   time.Time `form:"to" time_format:"2006-01-02" binding:"required"`
}

// WaiverRequest asks for a fine to be waived.
type WaiverRequest struct {
	Reason string `json:"reason" binding:"required,max=1000"`
}

// ResolveWaiverRequest approves or rejects a pending waiver.
type ResolveWaiverRequest struct {
	Approve    *bool  `json:"approve" binding:"required"`
	AdminNotes string `json:"adminNotes"`
}

// DisputeRequest raises a dispute on a fine.
type DisputeRequest struct {
	Reason   string        `json:"reason" binding:"required,max=1000"`
	Evidence []EvidenceDTO `json:"evidence" binding:"omitempty,dive"`
}

// ResolveDisputeRequest closes an open dispute.
type ResolveDisputeRequest struct {
	Outcome         domain.DisputeOutcome `json:"outcome" binding:"required,oneof=uphold waive"`
	ResolutionNotes string                `json:"resolutionNotes"`
}

// FineResponse is a fine plus the values derived at read time.
type FineResponse struct {
	domain.Fine
	Outstanding decimal.Decimal `json:"outstanding"`
	IsOverdue   bool            `json:"isOverdue"`
	DaysOverdue int             `json:"daysOverdue"`
}

// ToFineResponse converts a domain.Fine to FineResponse DTO, deriving overdue fields at now.
func ToFineResponse(f *domain.Fine, now time.Time) FineResponse {
	return FineResponse{
		Fine:        *f,
		Outstanding: f.Outstanding(),
		IsOverdue:   f.IsOverdue(now),
		DaysOverdue: f.DaysOverdue(now),
	}
}

// ToFineResponses converts a slice of fines.
func ToFineResponses(fines []domain.Fine, now time.Time) []FineResponse {
	out := make([]FineResponse, len(fines))
	for i := range fines {
		out[i] = ToFineResponse(&fines[i], now)
	}
	return out
}
