package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
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

const sweepBatchSize = 200

// fineService owns the fine lifecycle apart from money movement.
type fineService struct {
	BaseService
	fineRepo      portsrepo.FineRepositoryFacade
	violationRepo portsrepo.ViolationReader
	policy        domain.FinePolicy
	locks         *KeyedLocker
}

// NewFineService creates a new FineService.
func NewFineService(fineRepo portsrepo.FineRepositoryFacade, violationRepo portsrepo.ViolationReader, policy domain.FinePolicy, locks *KeyedLocker, opts ...ServiceOption) portssvc.FineSvcFacade {
	return &fineService{
		BaseService:   newBaseService(opts...),
		fineRepo:      fineRepo,
		violationRepo: violationRepo,
		policy:        policy,
		locks:         locks,
	}
}

var _ portssvc.FineSvcFacade = (*fineService)(nil)

// IssueFine creates the single fine of an approved violation.
func (s *fineService) IssueFine(ctx context.Context, violationID string, fineAmount decimal.Decimal, dueDate time.Time, actorID string) (*domain.Fine, error) {
	logger := s.GetLogger(ctx).With(slog.String("violation_id", violationID))

	violation, err := s.violationRepo.FindViolationByID(ctx, violationID)
	if err != nil {
		return nil, err
	}
	if violation.Status != domain.ViolationApproved {
		return nil, fmt.Errorf("%w: violation is %s, only approved violations are fined", apperrors.ErrInvalidTransition, violation.Status)
	}

	if existing, err := s.fineRepo.FindFineByViolationID(ctx, violationID); err == nil {
		return nil, fmt.Errorf("%w: violation %s already has fine %s", apperrors.ErrDuplicate, violationID, existing.FineID)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	now := s.Now()
	fine, err := domain.NewFine(uuid.NewString(), *violation, fineAmount, dueDate, s.policy, actorID, now)
	if err != nil {
		return nil, err
	}
	change := domain.FineStatusChange{
		FineID:    fine.FineID,
		NewStatus: fine.Status,
		Note:      "fine issued",
		ChangedBy: actorID,
		ChangedAt: now,
	}
	// the unique index on violation_id catches a concurrent issuance
	if err := s.fineRepo.SaveFine(ctx, fine, change); err != nil {
		if !errors.Is(err, apperrors.ErrDuplicate) {
			s.LogError(ctx, err, "Failed to save fine", slog.String("violation_id", violationID))
		}
		return nil, err
	}

	finesIssuedTotal.Inc()
	logger.Info("Fine issued", slog.String("fine_id", fine.FineID), slog.String("amount", fine.FineAmount.String()))
	s.Notify(ctx, external.EventFineIssued, fine.ResidentID, finePayload(&fine))
	return &fine, nil
}

// mutate runs apply on a freshly loaded and refreshed fine under the fine's lock and persists the result.
// A nil apply only writes back what the refresh changed.
func (s *fineService) mutate(ctx context.Context, fineID, actorID, note string, apply func(fine *domain.Fine, now time.Time) error) (*domain.Fine, error) {
	unlock := s.locks.Lock(fineKey(fineID))
	defer unlock()

	fine, err := s.fineRepo.FindFineByID(ctx, fineID)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	refreshed, changes := refreshFine(fine, now, s.policy, actorID)
	if apply == nil && !refreshed {
		return fine, nil
	}
	if apply != nil {
		before := fine.Status
		if err := apply(fine, now); err != nil {
			return nil, err
		}
		changes = appendStatusChange(changes, fine, before, note, actorID, now)
	}
	if err := fine.Validate(); err != nil {
		return nil, fmt.Errorf("fine %s failed invariant check: %w", fineID, err)
	}

	fine.Touch(actorID, now)
	if err := s.fineRepo.UpdateFine(ctx, fine, changes); err != nil {
		if !errors.Is(err, apperrors.ErrConcurrentModification) {
			s.LogError(ctx, err, "Failed to update fine", slog.String("fine_id", fineID))
		}
		return nil, err
	}
	if becameOverdue(changes) {
		s.Notify(ctx, external.EventFineOverdue, fine.ResidentID, finePayload(fine))
	}
	return fine, nil
}

// GetFine returns the fine with its late fee brought up to date, writing the refresh back when it changed anything.
func (s *fineService) GetFine(ctx context.Context, fineID string) (*domain.Fine, error) {
	fine, err := s.fineRepo.FindFineByID(ctx, fineID)
	if err != nil {
		return nil, err
	}
	peek := *fine
	if !peek.Refresh(s.Now(), s.policy) {
		return fine, nil
	}

	persisted, err := s.mutate(ctx, fineID, "system", "", nil)
	if err != nil {
		// serve the computed state; the sweep will persist it
		s.GetLogger(ctx).Warn("Failed to write back refreshed fine", slog.String("fine_id", fineID), slog.String("error", err.Error()))
		return &peek, nil
	}
	return persisted, nil
}

// ListFines returns one page of fines matched and served as of now. Fines the refresh changed are
// written back so the stored status catches up before the next sweep.
func (s *fineService) ListFines(ctx context.Context, params dto.ListFinesParams) (*dto.ListFinesResponse, error) {
	now := s.Now()
	filter := portsrepo.FineFilter{
		StatusAsOf:  &now,
		ResidentID:  params.ResidentID,
		ViolationID: params.ViolationID,
		IssuedFrom:  params.IssuedFrom,
		IssuedTo:    params.IssuedTo,
	}
	for _, st := range params.Status {
		status := domain.FineStatus(st)
		if !status.IsValid() {
			return nil, fmt.Errorf("%w: unknown fine status %q", apperrors.ErrValidation, st)
		}
		filter.Statuses = append(filter.Statuses, status)
	}

	fines, next, err := s.fineRepo.ListFines(ctx, filter, pagination.NormalizeLimit(params.Limit), params.NextToken)
	if err != nil {
		s.LogError(ctx, err, "Failed to list fines")
		return nil, err
	}

	for i := range fines {
		if !fines[i].Refresh(now, s.policy) {
			continue
		}
		persisted, err := s.mutate(ctx, fines[i].FineID, "system", "", nil)
		if err != nil {
			s.GetLogger(ctx).Warn("Failed to write back refreshed fine", slog.String("fine_id", fines[i].FineID), slog.String("error", err.Error()))
			continue
		}
		fines[i] = *persisted
	}
	return &dto.ListFinesResponse{Fines: dto.ToFineResponses(fines, now), NextToken: next}, nil
}

// GetFineAnalytics aggregates fines issued in [from, to) after refreshing their late fees.
func (s *fineService) GetFineAnalytics(ctx context.Context, from, to time.Time) (*domain.FineAnalytics, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("%w: analytics period end must be after its start", apperrors.ErrValidation)
	}
	fines, err := s.fineRepo.ListFinesIssuedBetween(ctx, from, to)
	if err != nil {
		s.LogError(ctx, err, "Failed to load fines for analytics")
		return nil, err
	}
	now := s.Now()
	for i := range fines {
		fines[i].Refresh(now, s.policy)
	}
	analytics := domain.BuildFineAnalytics(fines, from, to, now)
	return &analytics, nil
}

func (s *fineService) GetFineHistory(ctx context.Context, fineID string) ([]domain.FineStatusChange, error) {
	if _, err := s.fineRepo.FindFineByID(ctx, fineID); err != nil {
		return nil, err
	}
	return s.fineRepo.ListFineStatusChanges(ctx, fineID)
}

func (s *fineService) RequestWaiver(ctx context.Context, fineID, reason, actorID string) (*domain.Fine, error) {
	return s.mutate(ctx, fineID, actorID, "waiver requested", func(f *domain.Fine, now time.Time) error {
		return f.RequestWaiver(reason, actorID, now)
	})
}

func (s *fineService) ResolveWaiver(ctx context.Context, fineID string, approve bool, adminNotes, actorID string) (*domain.Fine, error) {
	fine, err := s.mutate(ctx, fineID, actorID, "waiver approved", func(f *domain.Fine, now time.Time) error {
		return f.ResolveWaiver(approve, adminNotes, actorID, now)
	})
	if err != nil {
		return nil, err
	}
	payload := finePayload(fine)
	payload["approved"] = approve
	s.Notify(ctx, external.EventWaiverResolved, fine.ResidentID, payload)
	return fine, nil
}

func (s *fineService) WaiveFine(ctx context.Context, fineID, reason, actorID string) (*domain.Fine, error) {
	fine, err := s.mutate(ctx, fineID, actorID, "waived: "+reason, func(f *domain.Fine, now time.Time) error {
		return f.Waive(reason, actorID, now)
	})
	if err != nil {
		return nil, err
	}
	s.Notify(ctx, external.EventFineWaived, fine.ResidentID, finePayload(fine))
	return fine, nil
}

func (s *fineService) RaiseDispute(ctx context.Context, fineID, reason string, evidence []domain.Evidence, actorID string) (*domain.Fine, error) {
	fine, err := s.mutate(ctx, fineID, actorID, "dispute raised", func(f *domain.Fine, now time.Time) error {
		return f.RaiseDispute(reason, evidence, actorID, now)
	})
	if err != nil {
		return nil, err
	}
	s.Notify(ctx, external.EventDisputeRaised, fine.ResidentID, finePayload(fine))
	return fine, nil
}

func (s *fineService) ResolveDispute(ctx context.Context, fineID string, outcome domain.DisputeOutcome, notes, actorID string) (*domain.Fine, error) {
	fine, err := s.mutate(ctx, fineID, actorID, "dispute resolved: "+string(outcome), func(f *domain.Fine, now time.Time) error {
		return f.ResolveDispute(outcome, notes, actorID, now, s.policy)
	})
	if err != nil {
		return nil, err
	}
	payload := finePayload(fine)
	payload["outcome"] = string(outcome)
	s.Notify(ctx, external.EventDisputeResolved, fine.ResidentID, payload)
	return fine, nil
}

// SendReminder notifies the resident of the outstanding balance and counts the reminder.
func (s *fineService) SendReminder(ctx context.Context, fineID, actorID string) (*domain.Fine, error) {
	fine, err := s.mutate(ctx, fineID, actorID, "", func(f *domain.Fine, now time.Time) error {
		return f.RecordReminder(now)
	})
	if err != nil {
		return nil, err
	}
	payload := finePayload(fine)
	payload["reminderCount"] = fine.ReminderCount
	s.Notify(ctx, external.EventFineReminder, fine.ResidentID, payload)
	return fine, nil
}

// RefreshOverdueFines persists late fees and overdue status for every open fine past due.
func (s *fineService) RefreshOverdueFines(ctx context.Context) (int, error) {
	cutoff := s.Now()
	updated := 0
	var nextToken *string

	for {
		if err := ctx.Err(); err != nil {
			return updated, err
		}
		fines, next, err := s.fineRepo.ListOpenFinesDueBefore(ctx, cutoff, sweepBatchSize, nextToken)
		if err != nil {
			s.LogError(ctx, err, "Failed to list fines for overdue sweep")
			return updated, err
		}

		for _, candidate := range fines {
			peek := candidate
			if !peek.Refresh(s.Now(), s.policy) {
				continue
			}
			if _, err := s.mutate(ctx, candidate.FineID, "system", "", nil); err != nil {
				s.GetLogger(ctx).Warn("Overdue sweep skipped fine", slog.String("fine_id", candidate.FineID), slog.String("error", err.Error()))
				continue
			}
			updated++
		}

		if next == nil {
			break
		}
		nextToken = next
	}

	overdueSweepUpdatedTotal.Add(float64(updated))
	s.LogInfo(ctx, "Overdue sweep finished", slog.Int("updated", updated))
	return updated, nil
}
