package services

import (
	"context"

	"github.com/SscSPs/property_fines_app/internal/core/domain"
	"github.com/SscSPs/property_fines_app/internal/dto"
	"github.com/shopspring/decimal"
)

// ViolationReaderSvc defines read operations for violations
type ViolationReaderSvc interface {
	GetViolation(ctx context.Context, violationID string) (*domain.Violation, error)
	ListViolations(ctx context.Context, params dto.ListViolationsParams) (*dto.ListViolationsResponse, error)
}

// ViolationWriterSvc defines write operations for violations
type ViolationWriterSvc interface {
	// ReportViolation records a new incident in pending status.
	ReportViolation(ctx context.Context, req dto.ReportViolationRequest, reporterID string) (*domain.Violation, error)

	// ReviewViolation applies an admin decision. Approval issues the fine when the policy says so.
	// Repeating the decision a violation already carries is a no-op.
	ReviewViolation(ctx context.Context, violationID string, decision domain.ReviewDecision, fineAmount *decimal.Decimal, reason string, actorID string) (*domain.Violation, error)

	// DeleteViolation hard-deletes a violation that has no fine.
	DeleteViolation(ctx context.Context, violationID string, actorID string) error
}

// ViolationSvcFacade combines all violation service interfaces
type ViolationSvcFacade interface {
	ViolationReaderSvc
	ViolationWriterSvc
}
