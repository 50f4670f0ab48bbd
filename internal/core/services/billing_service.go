package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/property_fines_app/internal/apperrors"
	"github.com/SscSPs/property_fines_app/internal/core/domain"
	"github.com/SscSPs/property_fines_app/internal/core/ports/external"
	portsrepo "github.com/SscSPs/property_fines_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/property_fines_app/internal/core/ports/services"
	"github.com/SscSPs/property_fines_app/internal/dto"
)

// billingService exports fines to the external billing ledger.
type billingService struct {
	BaseService
	fineRepo portsrepo.FineRepositoryFacade
	ledger   external.BillingLedger
	policy   domain.FinePolicy
	locks    *KeyedLocker
}

// NewBillingService creates a new BillingBridgeSvc.
func NewBillingService(fineRepo portsrepo.FineRepositoryFacade, ledger external.BillingLedger, policy domain.FinePolicy, locks *KeyedLocker, opts ...ServiceOption) portssvc.BillingBridgeSvc {
	return &billingService{
		BaseService: newBaseService(opts...),
		fineRepo:    fineRepo,
		ledger:      ledger,
		policy:      policy,
		locks:       locks,
	}
}

// IntegrateToBilling creates a bill line item for the fine's outstanding balance plus any extra charges.
// The pending state is persisted before the ledger call so an interrupted export can be retried.
func (s *billingService) IntegrateToBilling(ctx context.Context, fineID string, req dto.IntegrateBillingRequest, actorID string) (*domain.BillReference, error) {
	logger := s.GetLogger(ctx).With(slog.String("fine_id", fineID))

	unlock := s.locks.Lock(fineKey(fineID))
	defer unlock()

	fine, err := s.fineRepo.FindFineByID(ctx, fineID)
	if err != nil {
		return nil, err
	}
	now := s.Now()
	_, changes := refreshFine(fine, now, s.policy, actorID)

	charges := decimal.Zero
	if req.AdditionalCharges != nil {
		if req.AdditionalCharges.IsNegative() {
			return nil, fmt.Errorf("%w: additional charges must not be negative", apperrors.ErrValidation)
		}
		charges = domain.RoundMoney(*req.AdditionalCharges, s.policy.CurrencyPrecision)
	}
	dueDate := domain.AddDays(now, s.policy.DefaultDueDays)
	if req.DueDate != nil {
		dueDate = req.DueDate.UTC()
	}
	description := req.Description
	if description == "" {
		description = fmt.Sprintf("Fine %s for violation %s", fine.FineID, fine.ViolationID)
	}

	amount := fine.Outstanding().Add(charges)
	if err := fine.StartBillIntegration(amount, dueDate, description); err != nil {
		return nil, err
	}
	fine.Touch(actorID, now)
	if err := s.fineRepo.UpdateFine(ctx, fine, changes); err != nil {
		return nil, err
	}

	receipt, ledgerErr := s.ledger.CreateBillLineItem(ctx, external.BillLineItem{
		FineID:            fine.FineID,
		ViolationID:       fine.ViolationID,
		ResidentID:        fine.ResidentID,
		Description:       description,
		Amount:            fine.Outstanding(),
		AdditionalCharges: charges,
		CurrencyCode:      fine.CurrencyCode,
		DueDate:           dueDate,
	})
	if ledgerErr != nil {
		s.LogError(ctx, ledgerErr, "Billing ledger rejected line item", slog.String("fine_id", fineID))
		if err := fine.FailBillIntegration(ledgerErr.Error()); err != nil {
			return nil, err
		}
	} else if err := fine.CompleteBillIntegration(receipt.BillID, receipt.BillNumber, now); err != nil {
		return nil, err
	}

	fine.Touch(actorID, now)
	if err := s.fineRepo.UpdateFine(ctx, fine, nil); err != nil {
		if !errors.Is(err, apperrors.ErrConcurrentModification) {
			s.LogError(ctx, err, "Failed to persist billing result", slog.String("fine_id", fineID))
		}
		return nil, err
	}

	if ledgerErr != nil {
		return nil, apperrors.NewAppError(http.StatusBadGateway, "billing ledger unavailable", ledgerErr)
	}
	logger.Info("Fine exported to billing", slog.String("bill_id", fine.Bill.BillID), slog.String("bill_number", fine.Bill.BillNumber))
	bill := *fine.Bill
	return &bill, nil
}
