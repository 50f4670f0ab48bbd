package handlers_test

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/SscSPs/property_fines_app/internal/core/domain"
	portssvc "github.com/SscSPs/property_fines_app/internal/core/ports/services"
	"github.com/SscSPs/property_fines_app/internal/dto"
)

// --- Mock FineService ---
type MockFineService struct {
	mock.Mock
}

func (m *MockFineService) fine(args mock.Arguments) (*domain.Fine, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Fine), args.Error(1)
}

func (m *MockFineService) GetFine(ctx context.Context, fineID string) (*domain.Fine, error) {
	return m.fine(m.Called(ctx, fineID))
}

func (m *MockFineService) ListFines(ctx context.Context, params dto.ListFinesParams) (*dto.ListFinesResponse, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListFinesResponse), args.Error(1)
}

func (m *MockFineService) GetFineAnalytics(ctx context.Context, from, to time.Time) (*domain.FineAnalytics, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FineAnalytics), args.Error(1)
}

func (m *MockFineService) GetFineHistory(ctx context.Context, fineID string) ([]domain.FineStatusChange, error) {
	args := m.Called(ctx, fineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FineStatusChange), args.Error(1)
}

func (m *MockFineService) IssueFine(ctx context.Context, violationID string, fineAmount decimal.Decimal, dueDate time.Time, actorID string) (*domain.Fine, error) {
	return m.fine(m.Called(ctx, violationID, fineAmount, dueDate, actorID))
}

func (m *MockFineService) RequestWaiver(ctx context.Context, fineID, reason, actorID string) (*domain.Fine, error) {
	return m.fine(m.Called(ctx, fineID, reason, actorID))
}

func (m *MockFineService) ResolveWaiver(ctx context.Context, fineID string, approve bool, adminNotes, actorID string) (*domain.Fine, error) {
	return m.fine(m.Called(ctx, fineID, approve, adminNotes, actorID))
}

func (m *MockFineService) WaiveFine(ctx context.Context, fineID, reason, actorID string) (*domain.Fine, error) {
	return m.fine(m.Called(ctx, fineID, reason, actorID))
}

func (m *MockFineService) RaiseDispute(ctx context.Context, fineID, reason string, evidence []domain.Evidence, actorID string) (*domain.Fine, error) {
	return m.fine(m.Called(ctx, fineID, reason, evidence, actorID))
}

func (m *MockFineService) ResolveDispute(ctx context.Context, fineID string, outcome domain.DisputeOutcome, notes, actorID string) (*domain.Fine, error) {
	return m.fine(m.Called(ctx, fineID, outcome, notes, actorID))
}

func (m *MockFineService) SendReminder(ctx context.Context, fineID, actorID string) (*domain.Fine, error) {
	return m.fine(m.Called(ctx, fineID, actorID))
}

func (m *MockFineService) RefreshOverdueFines(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

var _ portssvc.FineSvcFacade = (*MockFineService)(nil)

// --- Mock PaymentService ---
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) fine(args mock.Arguments) (*domain.Fine, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Fine), args.Error(1)
}

func (m *MockPaymentService) RecordPayment(ctx context.Context, fineID string, amount decimal.Decimal, method domain.PaymentMethod, reference string, paidAt *time.Time, actorID string) (*domain.Fine, error) {
	return m.fine(m.Called(ctx, fineID, amount, method, reference, paidAt, actorID))
}

func (m *MockPaymentService) SettleFine(ctx context.Context, fineID string, method domain.PaymentMethod, reference string, actorID string) (*domain.Fine, error) {
	return m.fine(m.Called(ctx, fineID, method, reference, actorID))
}

func (m *MockPaymentService) RefundPayment(ctx context.Context, paymentID string, amount decimal.Decimal, reason string, actorID string) (*domain.Fine, error) {
	return m.fine(m.Called(ctx, paymentID, amount, reason, actorID))
}

func (m *MockPaymentService) CreatePaymentOrder(ctx context.Context, fineID string, actorID string) (*domain.OrderHandle, error) {
	args := m.Called(ctx, fineID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrderHandle), args.Error(1)
}

func (m *MockPaymentService) VerifyPayment(ctx context.Context, orderID, signature, gatewayPaymentID string, actorID string) (*domain.Fine, error) {
	return m.fine(m.Called(ctx, orderID, signature, gatewayPaymentID, actorID))
}

func (m *MockPaymentService) ListPayments(ctx context.Context, fineID string) ([]domain.Payment, error) {
	args := m.Called(ctx, fineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Payment), args.Error(1)
}

var _ portssvc.PaymentSvcFacade = (*MockPaymentService)(nil)

// --- Mock BillingService ---
type MockBillingService struct {
	mock.Mock
}

func (m *MockBillingService) IntegrateToBilling(ctx context.Context, fineID string, req dto.IntegrateBillingRequest, actorID string) (*domain.BillReference, error) {
	args := m.Called(ctx, fineID, req, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BillReference), args.Error(1)
}

// --- Mock BulkService ---
type MockBulkService struct {
	mock.Mock
}

func (m *MockBulkService) PerformBulkAction(ctx context.Context, action domain.BulkAction, targetType domain.BulkTargetType, targetIDs []string, reason string, actorID string) (*domain.BulkResult, error) {
	args := m.Called(ctx, action, targetType, targetIDs, reason, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BulkResult), args.Error(1)
}

// --- Mock ViolationService ---
type MockViolationService struct {
	mock.Mock
}

func (m *MockViolationService) violation(args mock.Arguments) (*domain.Violation, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Violation), args.Error(1)
}

func (m *MockViolationService) GetViolation(ctx context.Context, violationID string) (*domain.Violation, error) {
	return m.violation(m.Called(ctx, violationID))
}

func (m *MockViolationService) ListViolations(ctx context.Context, params dto.ListViolationsParams) (*dto.ListViolationsResponse, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListViolationsResponse), args.Error(1)
}

func (m *MockViolationService) ReportViolation(ctx context.Context, req dto.ReportViolationRequest, reporterID string) (*domain.Violation, error) {
	return m.violation(m.Called(ctx, req, reporterID))
}

func (m *MockViolationService) ReviewViolation(ctx context.Context, violationID string, decision domain.ReviewDecision, fineAmount *decimal.Decimal, reason string, actorID string) (*domain.Violation, error) {
	return m.violation(m.Called(ctx, violationID, decision, fineAmount, reason, actorID))
}

func (m *MockViolationService) DeleteViolation(ctx context.Context, violationID string, actorID string) error {
	return m.Called(ctx, violationID, actorID).Error(0)
}

var _ portssvc.ViolationSvcFacade = (*MockViolationService)(nil)
