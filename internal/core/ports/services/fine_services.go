package services

import (
	"context"
	"time"

	"github.com/SscSPs/property_fines_app/internal/core/domain"
	"github.com/SscSPs/property_fines_app/internal/dto"
	"github.com/shopspring/decimal"
)

// FineReaderSvc defines read operations for fines. Every read refreshes late fees first.
type FineReaderSvc interface {
	GetFine(ctx context.Context, fineID string) (*domain.Fine, error)
	ListFines(ctx context.Context, params dto.ListFinesParams) (*dto.ListFinesResponse, error)
	GetFineAnalytics(ctx context.Context, from, to time.Time) (*domain.FineAnalytics, error)
	GetFineHistory(ctx context.Context, fineID string) ([]domain.FineStatusChange, error)
}

// FineIssuerSvc creates fines from approved violations.
type FineIssuerSvc interface {
	IssueFine(ctx context.Context, violationID string, fineAmount decimal.Decimal, dueDate time.Time, actorID string) (*domain.Fine, error)
}

// FineWaiverSvc defines the waiver sub-flow
type FineWaiverSvc interface {
	RequestWaiver(ctx context.Context, fineID, reason, actorID string) (*domain.Fine, error)
	ResolveWaiver(ctx context.Context, fineID string, approve bool, adminNotes, actorID string) (*domain.Fine, error)

	// WaiveFine requests and approves a waiver in one step.
	WaiveFine(ctx context.Context, fineID, reason, actorID string) (*domain.Fine, error)
}

// FineDisputeSvc defines the dispute sub-flow
type FineDisputeSvc interface {
	RaiseDispute(ctx context.Context, fineID, reason string, evidence []domain.Evidence, actorID string) (*domain.Fine, error)
	ResolveDispute(ctx context.Context, fineID string, outcome domain.DisputeOutcome, notes, actorID string) (*domain.Fine, error)
}

// FineMaintenanceSvc defines scheduled and reminder operations
type FineMaintenanceSvc interface {
	SendReminder(ctx context.Context, fineID, actorID string) (*domain.Fine, error)

	// RefreshOverdueFines writes back late fees and overdue status for open fines past due.
	// It returns how many fines were updated.
	RefreshOverdueFines(ctx context.Context) (int, error)
}

// FineSvcFacade combines all fine service interfaces
type FineSvcFacade interface {
	FineReaderSvc
	FineIssuerSvc
	FineWaiverSvc
	FineDisputeSvc
	FineMaintenanceSvc
}
