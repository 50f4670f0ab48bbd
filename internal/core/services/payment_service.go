package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/SscSPs/property_fines_app/internal/apperrors"
	"github.com/SscSPs/property_fines_app/internal/core/domain"
	"github.com/SscSPs/property_fines_app/internal/core/ports/external"
	portsrepo "github.com/SscSPs/property_fines_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/property_fines_app/internal/core/ports/services"
)

// paymentService applies money to fines. Every payment write and the fine update it causes commit together.
type paymentService struct {
	BaseService
	paymentRepo portsrepo.PaymentRepositoryFacade
	fineRepo    portsrepo.FineReader
	gateway     external.PaymentGateway
	policy      domain.FinePolicy
	locks       *KeyedLocker
}

// NewPaymentService creates a new PaymentService. locks must be shared with the fine service.
func NewPaymentService(paymentRepo portsrepo.PaymentRepositoryFacade, fineRepo portsrepo.FineReader, gateway external.PaymentGateway, policy domain.FinePolicy, locks *KeyedLocker, opts ...ServiceOption) portssvc.PaymentSvcFacade {
	return &paymentService{
		BaseService: newBaseService(opts...),
		paymentRepo: paymentRepo,
		fineRepo:    fineRepo,
		gateway:     gateway,
		policy:      policy,
		locks:       locks,
	}
}

var _ portssvc.PaymentSvcFacade = (*paymentService)(nil)

func (s *paymentService) RecordPayment(ctx context.Context, fineID string, amount decimal.Decimal, method domain.PaymentMethod, reference string, paidAt *time.Time, actorID string) (*domain.Fine, error) {
	if paidAt != nil && paidAt.After(s.Now()) {
		return nil, fmt.Errorf("%w: payment time is in the future", apperrors.ErrValidation)
	}
	return s.recordManual(ctx, fineID, method, reference, paidAt, actorID, func(*domain.Fine) (decimal.Decimal, error) {
		return amount, nil
	})
}

func (s *paymentService) SettleFine(ctx context.Context, fineID string, method domain.PaymentMethod, reference string, actorID string) (*domain.Fine, error) {
	return s.recordManual(ctx, fineID, method, reference, nil, actorID, func(f *domain.Fine) (decimal.Decimal, error) {
		if f.Status.IsTerminal() {
			return decimal.Zero, fmt.Errorf("%w: fine is already %s", apperrors.ErrInvalidTransition, f.Status)
		}
		return f.Outstanding(), nil
	})
}

func (s *paymentService) recordManual(ctx context.Context, fineID string, method domain.PaymentMethod, reference string, paidAt *time.Time, actorID string, amountFor func(*domain.Fine) (decimal.Decimal, error)) (*domain.Fine, error) {
	if !method.IsManual() {
		return nil, fmt.Errorf("%w: %q cannot be recorded manually", apperrors.ErrValidation, method)
	}

	unlock := s.locks.Lock(fineKey(fineID))
	defer unlock()

	fine, err := s.fineRepo.FindFineByID(ctx, fineID)
	if err != nil {
		return nil, err
	}
	now := s.Now()
	_, changes := refreshFine(fine, now, s.policy, actorID)

	amount, err := amountFor(fine)
	if err != nil {
		return nil, err
	}
	if !amount.Equal(domain.RoundMoney(amount, s.policy.CurrencyPrecision)) {
		return nil, fmt.Errorf("%w: amount %s has more than %d decimal places", apperrors.ErrValidation, amount, s.policy.CurrencyPrecision)
	}
	at := now
	if paidAt != nil {
		at = paidAt.UTC()
	}

	before := fine.Status
	if err := fine.ApplyPayment(amount, at, now); err != nil {
		return nil, err
	}
	changes = appendStatusChange(changes, fine, before, "payment recorded", actorID, now)
	fine.Touch(actorID, now)

	payment := domain.Payment{
		PaymentID:   uuid.NewString(),
		FineID:      fine.FineID,
		Amount:      amount,
		Method:      method,
		Reference:   reference,
		PaidAt:      at,
		Status:      domain.PaymentSuccess,
		AuditFields: domain.NewAuditFields(actorID, now),
	}
	if err := s.paymentRepo.SavePaymentWithFine(ctx, payment, fine, changes); err != nil {
		if !errors.Is(err, apperrors.ErrConcurrentModification) {
			s.LogError(ctx, err, "Failed to record payment", slog.String("fine_id", fineID))
		}
		return nil, err
	}

	paymentsRecordedTotal.WithLabelValues(string(method)).Inc()
	s.LogInfo(ctx, "Payment recorded",
		slog.String("fine_id", fineID),
		slog.String("payment_id", payment.PaymentID),
		slog.String("amount", amount.String()),
		slog.String("status", string(fine.Status)))
	s.notifyPayment(ctx, fine, payment)
	return fine, nil
}

// CreatePaymentOrder opens a gateway order for the outstanding balance and records it as a pending payment.
func (s *paymentService) CreatePaymentOrder(ctx context.Context, fineID string, actorID string) (*domain.OrderHandle, error) {
	unlock := s.locks.Lock(fineKey(fineID))
	defer unlock()

	fine, err := s.fineRepo.FindFineByID(ctx, fineID)
	if err != nil {
		return nil, err
	}
	now := s.Now()
	fine.Refresh(now, s.policy)
	if fine.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: fine is already %s", apperrors.ErrInvalidTransition, fine.Status)
	}
	amount := fine.Outstanding()
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: nothing outstanding on fine %s", apperrors.ErrInvalidTransition, fineID)
	}

	paymentID := uuid.NewString()
	order, err := s.gateway.CreateOrder(ctx, amount, fine.CurrencyCode, paymentID)
	if err != nil {
		s.LogError(ctx, err, "Failed to create gateway order", slog.String("fine_id", fineID))
		return nil, apperrors.NewAppError(http.StatusBadGateway, "failed to create gateway order", err)
	}

	orderID := order.OrderID
	payment := domain.Payment{
		PaymentID:      paymentID,
		FineID:         fineID,
		Amount:         amount,
		Method:         domain.MethodOnline,
		PaidAt:         now,
		Status:         domain.PaymentPending,
		GatewayOrderID: &orderID,
		AuditFields:    domain.NewAuditFields(actorID, now),
	}
	if err := s.paymentRepo.SavePayment(ctx, payment); err != nil {
		s.LogError(ctx, err, "Failed to save pending payment", slog.String("fine_id", fineID), slog.String("order_id", orderID))
		return nil, err
	}

	s.LogInfo(ctx, "Gateway order created", slog.String("fine_id", fineID), slog.String("order_id", orderID), slog.String("amount", amount.String()))
	return &domain.OrderHandle{
		OrderID:      orderID,
		PaymentID:    paymentID,
		FineID:       fineID,
		Amount:       amount,
		CurrencyCode: fine.CurrencyCode,
		KeyID:        order.KeyID,
	}, nil
}

// VerifyPayment confirms a gateway callback and applies the payment. The gateway payment id makes replays no-ops.
func (s *paymentService) VerifyPayment(ctx context.Context, orderID, signature, gatewayPaymentID string, actorID string) (*domain.Fine, error) {
	logger := s.GetLogger(ctx).With(slog.String("order_id", orderID))

	pending, err := s.paymentRepo.FindPaymentByGatewayOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(fineKey(pending.FineID))
	defer unlock()

	// re-read under the lock; a concurrent callback may have settled it
	payment, err := s.paymentRepo.FindPaymentByID(ctx, pending.PaymentID)
	if err != nil {
		return nil, err
	}
	switch payment.Status {
	case domain.PaymentSuccess:
		if payment.GatewayPaymentID != nil && *payment.GatewayPaymentID == gatewayPaymentID {
			logger.Info("Gateway callback replayed, payment already applied", slog.String("payment_id", payment.PaymentID))
			gatewayVerificationsTotal.WithLabelValues("replayed").Inc()
			return s.fineRepo.FindFineByID(ctx, payment.FineID)
		}
		return nil, fmt.Errorf("%w: order %s was settled by another gateway payment", apperrors.ErrConflict, orderID)
	case domain.PaymentPending:
	default:
		return nil, fmt.Errorf("%w: order %s is %s, create a new order", apperrors.ErrGatewayVerificationFailed, orderID, payment.Status)
	}

	now := s.Now()
	err = s.gateway.VerifyPayment(ctx, external.GatewayVerification{
		OrderID:          orderID,
		GatewayPaymentID: gatewayPaymentID,
		Signature:        signature,
		Amount:           payment.Amount,
		CurrencyCode:     s.policy.CurrencyCode,
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrGatewayVerificationFailed) {
			err = fmt.Errorf("%w: %v", apperrors.ErrGatewayVerificationFailed, err)
		}
		return nil, s.failPayment(ctx, payment, err, actorID, now)
	}

	fine, err := s.fineRepo.FindFineByID(ctx, payment.FineID)
	if err != nil {
		return nil, err
	}
	_, changes := refreshFine(fine, now, s.policy, actorID)
	before := fine.Status
	if err := fine.ApplyPayment(payment.Amount, now, now); err != nil {
		// the balance moved since the order was opened
		return nil, s.failPayment(ctx, payment, err, actorID, now)
	}
	changes = appendStatusChange(changes, fine, before, "gateway payment verified", actorID, now)
	fine.Touch(actorID, now)

	if err := payment.MarkSucceeded(gatewayPaymentID, actorID, now); err != nil {
		return nil, err
	}
	if err := s.paymentRepo.CompletePaymentWithFine(ctx, payment, fine, changes); err != nil {
		if !errors.Is(err, apperrors.ErrDuplicate) && !errors.Is(err, apperrors.ErrConcurrentModification) {
			s.LogError(ctx, err, "Failed to complete gateway payment", slog.String("order_id", orderID))
		}
		return nil, err
	}

	gatewayVerificationsTotal.WithLabelValues("success").Inc()
	paymentsRecordedTotal.WithLabelValues(string(domain.MethodOnline)).Inc()
	logger.Info("Gateway payment verified",
		slog.String("fine_id", fine.FineID),
		slog.String("payment_id", payment.PaymentID),
		slog.String("status", string(fine.Status)))
	s.notifyPayment(ctx, fine, *payment)
	return fine, nil
}

// failPayment leaves the payment failed, logs why and returns cause.
func (s *paymentService) failPayment(ctx context.Context, payment *domain.Payment, cause error, actorID string, now time.Time) error {
	orderID := ""
	if payment.GatewayOrderID != nil {
		orderID = *payment.GatewayOrderID
	}
	s.GetLogger(ctx).Warn("Gateway payment verification failed",
		slog.String("order_id", orderID),
		slog.String("payment_id", payment.PaymentID),
		slog.String("reason", cause.Error()))
	gatewayVerificationsTotal.WithLabelValues("failed").Inc()

	if err := payment.MarkFailed(cause.Error(), actorID, now); err != nil {
		return err
	}
	if err := s.paymentRepo.UpdatePayment(ctx, payment); err != nil {
		s.LogError(ctx, err, "Failed to mark payment failed", slog.String("payment_id", payment.PaymentID))
		return err
	}
	s.Notify(ctx, external.EventPaymentFailed, payment.CreatedBy, map[string]any{
		"fineID":    payment.FineID,
		"paymentID": payment.PaymentID,
		"orderID":   orderID,
	})
	return cause
}

// RefundPayment appends a negative adjustment. The original payment is never edited.
func (s *paymentService) RefundPayment(ctx context.Context, paymentID string, amount decimal.Decimal, reason string, actorID string) (*domain.Fine, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%w: refund reason is required", apperrors.ErrValidation)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: refund amount must be positive", apperrors.ErrValidation)
	}

	original, err := s.paymentRepo.FindPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if original.Status != domain.PaymentSuccess || original.Method == domain.MethodRefund {
		return nil, fmt.Errorf("%w: only successful payments can be refunded", apperrors.ErrInvalidTransition)
	}

	unlock := s.locks.Lock(fineKey(original.FineID))
	defer unlock()

	payments, err := s.paymentRepo.ListPaymentsByFineID(ctx, original.FineID)
	if err != nil {
		return nil, err
	}
	if refundable := domain.RefundableAmount(*original, payments); amount.GreaterThan(refundable) {
		return nil, fmt.Errorf("%w: refund %s exceeds refundable %s", apperrors.ErrValidation, amount, refundable)
	}

	fine, err := s.fineRepo.FindFineByID(ctx, original.FineID)
	if err != nil {
		return nil, err
	}
	now := s.Now()
	if err := fine.ApplyRefund(amount); err != nil {
		return nil, err
	}
	fine.Touch(actorID, now)

	refundOf := original.PaymentID
	refund := domain.Payment{
		PaymentID:   uuid.NewString(),
		FineID:      fine.FineID,
		Amount:      amount.Neg(),
		Method:      domain.MethodRefund,
		Reference:   reason,
		PaidAt:      now,
		Status:      domain.PaymentSuccess,
		RefundOf:    &refundOf,
		AuditFields: domain.NewAuditFields(actorID, now),
	}
	if err := s.paymentRepo.SavePaymentWithFine(ctx, refund, fine, nil); err != nil {
		s.LogError(ctx, err, "Failed to record refund", slog.String("payment_id", paymentID))
		return nil, err
	}

	paymentsRecordedTotal.WithLabelValues(string(domain.MethodRefund)).Inc()
	s.LogInfo(ctx, "Refund recorded", slog.String("fine_id", fine.FineID), slog.String("refund_of", paymentID), slog.String("amount", amount.String()))
	return fine, nil
}

func (s *paymentService) ListPayments(ctx context.Context, fineID string) ([]domain.Payment, error) {
	if _, err := s.fineRepo.FindFineByID(ctx, fineID); err != nil {
		return nil, err
	}
	payments, err := s.paymentRepo.ListPaymentsByFineID(ctx, fineID)
	if err != nil {
		return nil, err
	}
	if payments == nil {
		return []domain.Payment{}, nil
	}
	return payments, nil
}

func (s *paymentService) notifyPayment(ctx context.Context, fine *domain.Fine, payment domain.Payment) {
	payload := finePayload(fine)
	payload["paymentID"] = payment.PaymentID
	payload["amount"] = payment.Amount.String()
	payload["method"] = string(payment.Method)
	s.Notify(ctx, external.EventPaymentConfirmed, fine.ResidentID, payload)
}
