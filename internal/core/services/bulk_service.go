package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/SscSPs/property_fines_app/internal/apperrors"
	"github.com/SscSPs/property_fines_app/internal/core/domain"
	portssvc "github.com/SscSPs/property_fines_app/internal/core/ports/services"
)

// BulkLimits bounds a bulk request.
type BulkLimits struct {
	MaxBatchSize int
	Concurrency  int
}

// bulkService fans one action out over many records. Items never share a transaction.
type bulkService struct {
	BaseService
	violations portssvc.ViolationWriterSvc
	fines      portssvc.FineSvcFacade
	payments   portssvc.PaymentRecorderSvc
	limits     BulkLimits
}

// NewBulkService creates a new BulkActionSvc.
func NewBulkService(violations portssvc.ViolationWriterSvc, fines portssvc.FineSvcFacade, payments portssvc.PaymentRecorderSvc, limits BulkLimits, opts ...ServiceOption) portssvc.BulkActionSvc {
	if limits.Concurrency <= 0 {
		limits.Concurrency = 1
	}
	return &bulkService{
		BaseService: newBaseService(opts...),
		violations:  violations,
		fines:       fines,
		payments:    payments,
		limits:      limits,
	}
}

// PerformBulkAction applies action to every id and reports each outcome in request order.
// Only request-level problems return an error; item failures land in the result.
func (s *bulkService) PerformBulkAction(ctx context.Context, action domain.BulkAction, targetType domain.BulkTargetType, targetIDs []string, reason string, actorID string) (*domain.BulkResult, error) {
	if err := domain.ValidateBulkAction(action, targetType); err != nil {
		return nil, err
	}
	if len(targetIDs) == 0 {
		return nil, fmt.Errorf("%w: no target ids given", apperrors.ErrValidation)
	}
	if s.limits.MaxBatchSize > 0 && len(targetIDs) > s.limits.MaxBatchSize {
		return nil, fmt.Errorf("%w: %d ids given, at most %d allowed", apperrors.ErrBatchTooLarge, len(targetIDs), s.limits.MaxBatchSize)
	}
	if action == domain.BulkWaive && strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%w: waiving requires a reason", apperrors.ErrValidation)
	}

	apply := s.itemFunc(action, reason, actorID)
	results := make([]domain.BulkItemResult, len(targetIDs))

	var g errgroup.Group
	g.SetLimit(s.limits.Concurrency)
	for i, id := range targetIDs {
		g.Go(func() error {
			err := apply(ctx, id)
			results[i] = domain.BulkItemResult{TargetID: id, Success: err == nil}
			if err != nil {
				results[i].Error = err.Error()
				results[i].ErrorKind = apperrors.Kind(err)
			}
			bulkItemsTotal.WithLabelValues(string(action), resultLabel(err)).Inc()
			// item errors are reported, not propagated
			return nil
		})
	}
	_ = g.Wait()

	result := domain.NewBulkResult(action, targetType, results)
	s.LogInfo(ctx, "Bulk action completed",
		slog.String("action", string(action)),
		slog.Int("total", result.Total),
		slog.Int("successful", result.Successful),
		slog.Int("failed", result.Failed))
	return &result, nil
}

func (s *bulkService) itemFunc(action domain.BulkAction, reason, actorID string) func(ctx context.Context, id string) error {
	review := func(decision domain.ReviewDecision) func(context.Context, string) error {
		return func(ctx context.Context, id string) error {
			_, err := s.violations.ReviewViolation(ctx, id, decision, nil, reason, actorID)
			return err
		}
	}

	switch action {
	case domain.BulkApprove:
		return review(domain.DecisionApprove)
	case domain.BulkReject:
		return review(domain.DecisionReject)
	case domain.BulkDismiss:
		return review(domain.DecisionDismiss)
	case domain.BulkWaive:
		return func(ctx context.Context, id string) error {
			_, err := s.fines.WaiveFine(ctx, id, reason, actorID)
			return err
		}
	case domain.BulkRemind:
		return func(ctx context.Context, id string) error {
			_, err := s.fines.SendReminder(ctx, id, actorID)
			return err
		}
	default: // domain.BulkMarkPaid
		return func(ctx context.Context, id string) error {
			_, err := s.payments.SettleFine(ctx, id, domain.MethodCash, "bulk:mark_paid", actorID)
			return err
		}
	}
}
