package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/SscSPs/property_fines_app/internal/apperrors"
	"github.com/SscSPs/property_fines_app/internal/core/domain"
	"github.com/SscSPs/property_fines_app/internal/core/ports/external"
	portsrepo "github.com/SscSPs/property_fines_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/property_fines_app/internal/core/ports/services"
	"github.com/SscSPs/property_fines_app/internal/dto"
	"github.com/SscSPs/property_fines_app/internal/utils/pagination"
)

// violationService handles reporting and admin review of violations.
type violationService struct {
	BaseService
	violationRepo portsrepo.ViolationRepositoryFacade
	categories    external.CategoryProvider
	fineReader    portsrepo.FineReader
	fineIssuer    portssvc.FineIssuerSvc
	policy        domain.FinePolicy
	locks         *KeyedLocker
}

// NewViolationService creates a new ViolationService.
func NewViolationService(
	violationRepo portsrepo.ViolationRepositoryFacade,
	categories external.CategoryProvider,
	fineReader portsrepo.FineReader,
	fineIssuer portssvc.FineIssuerSvc,
	policy domain.FinePolicy,
	locks *KeyedLocker,
	opts ...ServiceOption,
) portssvc.ViolationSvcFacade {
	return &violationService{
		BaseService:   newBaseService(opts...),
		violationRepo: violationRepo,
		categories:    categories,
		fineReader:    fineReader,
		fineIssuer:    fineIssuer,
		policy:        policy,
		locks:         locks,
	}
}

var _ portssvc.ViolationSvcFacade = (*violationService)(nil)

func (s *violationService) GetViolation(ctx context.Context, violationID string) (*domain.Violation, error) {
	return s.violationRepo.FindViolationByID(ctx, violationID)
}

func (s *violationService) ListViolations(ctx context.Context, params dto.ListViolationsParams) (*dto.ListViolationsResponse, error) {
	filter := portsrepo.ViolationFilter{
		Status:     domain.ViolationStatus(params.Status),
		CategoryID: params.CategoryID,
		ResidentID: params.ResidentID,
	}
	violations, next, err := s.violationRepo.ListViolations(ctx, filter, pagination.NormalizeLimit(params.Limit), params.NextToken)
	if err != nil {
		s.LogError(ctx, err, "Failed to list violations")
		return nil, err
	}
	if violations == nil {
		violations = []domain.Violation{}
	}
	return &dto.ListViolationsResponse{Violations: violations, NextToken: next}, nil
}

func (s *violationService) ReportViolation(ctx context.Context, req dto.ReportViolationRequest, reporterID string) (*domain.Violation, error) {
	logger := s.GetLogger(ctx)

	category, err := s.categories.GetCategory(ctx, req.CategoryID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: category %s does not exist", apperrors.ErrValidation, req.CategoryID)
		}
		return nil, err
	}
	if !category.IsActive {
		return nil, fmt.Errorf("%w: category %s is inactive", apperrors.ErrValidation, category.Name)
	}

	now := s.Now()
	if req.IncidentAt.After(now) {
		return nil, fmt.Errorf("%w: incident time is in the future", apperrors.ErrValidation)
	}

	severity := req.Severity
	if severity == "" {
		severity = category.Severity
	}
	priority := req.Priority
	if priority == "" {
		priority = domain.PriorityNormal
	}

	violation := domain.Violation{
		ViolationID:   uuid.NewString(),
		CategoryID:    category.CategoryID,
		Severity:      severity,
		IncidentAt:    req.IncidentAt.UTC(),
		Location:      strings.TrimSpace(req.Location),
		ReportedBy:    reporterID,
		ResidentID:    req.ResidentID,
		UnitNumber:    req.UnitNumber,
		VehicleNumber: req.VehicleNumber,
		Evidence:      dto.ToDomainEvidence(req.Evidence),
		Description:   req.Description,
		Status:        domain.ViolationPending,
		Review:        domain.ViolationReview{Priority: priority},
		AuditFields:   domain.NewAuditFields(reporterID, now),
	}
	if err := violation.Validate(); err != nil {
		return nil, err
	}

	if err := s.violationRepo.SaveViolation(ctx, violation); err != nil {
		s.LogError(ctx, err, "Failed to save violation", slog.String("category_id", category.CategoryID))
		return nil, err
	}
	logger.Info("Violation reported",
		slog.String("violation_id", violation.ViolationID),
		slog.String("category_id", violation.CategoryID),
		slog.String("reported_by", reporterID))
	return &violation, nil
}

// ReviewViolation applies decision and, on approval, issues the fine when auto issuance is on.
// Issuance failures after a successful review are logged; the review itself stands.
func (s *violationService) ReviewViolation(ctx context.Context, violationID string, decision domain.ReviewDecision, fineAmount *decimal.Decimal, reason string, actorID string) (*domain.Violation, error) {
	target, err := decision.TargetStatus()
	if err != nil {
		return nil, err
	}
	logger := s.GetLogger(ctx).With(slog.String("violation_id", violationID), slog.String("decision", string(decision)))

	unlock := s.locks.Lock(violationKey(violationID))
	defer unlock()

	violation, err := s.violationRepo.FindViolationByID(ctx, violationID)
	if err != nil {
		return nil, err
	}
	if violation.Status == target {
		logger.Debug("Violation already carries this decision")
		return violation, nil
	}

	var category *domain.ViolationCategory
	if decision == domain.DecisionApprove {
		if category, err = s.categories.GetCategory(ctx, violation.CategoryID); err != nil {
			return nil, err
		}
	}

	now := s.Now()
	if err := violation.ApplyReview(decision, fineAmount, reason, actorID, now); err != nil {
		return nil, err
	}
	if err := s.violationRepo.UpdateViolation(ctx, violation); err != nil {
		if !errors.Is(err, apperrors.ErrConcurrentModification) {
			s.LogError(ctx, err, "Failed to update violation", slog.String("violation_id", violationID))
		}
		return nil, err
	}
	logger.Info("Violation reviewed", slog.String("status", string(violation.Status)))

	s.Notify(ctx, external.EventViolationReviewed, violation.ResidentID, map[string]any{
		"violationID": violation.ViolationID,
		"status":      string(violation.Status),
		"notes":       violation.Review.Notes,
	})

	if decision == domain.DecisionApprove && s.policy.AutoIssueOnApproval {
		s.autoIssue(ctx, violation, category, actorID, now)
	}
	return violation, nil
}

func (s *violationService) autoIssue(ctx context.Context, violation *domain.Violation, category *domain.ViolationCategory, actorID string, now time.Time) {
	logger := s.GetLogger(ctx).With(slog.String("violation_id", violation.ViolationID))

	amount := category.BaseFineAmount
	if violation.Review.AssignedFineAmount != nil {
		amount = *violation.Review.AssignedFineAmount
	}
	if !amount.IsPositive() {
		logger.Info("Skipping fine issuance for zero amount")
		return
	}

	dueDate := domain.AddDays(now, s.policy.DefaultDueDays)
	if _, err := s.fineIssuer.IssueFine(ctx, violation.ViolationID, amount, dueDate, actorID); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			logger.Debug("Fine already issued for violation")
			return
		}
		s.LogError(ctx, err, "Failed to auto-issue fine", slog.String("violation_id", violation.ViolationID))
	}
}

func (s *violationService) DeleteViolation(ctx context.Context, violationID string, actorID string) error {
	unlock := s.locks.Lock(violationKey(violationID))
	defer unlock()

	if _, err := s.violationRepo.FindViolationByID(ctx, violationID); err != nil {
		return err
	}
	if fine, err := s.fineReader.FindFineByViolationID(ctx, violationID); err == nil {
		return fmt.Errorf("%w: violation %s has fine %s", apperrors.ErrConflict, violationID, fine.FineID)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return err
	}

	if err := s.violationRepo.DeleteViolation(ctx, violationID); err != nil {
		if !errors.Is(err, apperrors.ErrConflict) {
			s.LogError(ctx, err, "Failed to delete violation", slog.String("violation_id", violationID))
		}
		return err
	}
	s.LogInfo(ctx, "Violation deleted", slog.String("violation_id", violationID), slog.String("deleted_by", actorID))
	return nil
}
