package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/SscSPs/property_fines_app/internal/apperrors"
	"github.com/SscSPs/property_fines_app/internal/core/domain"
	"github.com/SscSPs/property_fines_app/internal/core/ports/external"
	portssvc "github.com/SscSPs/property_fines_app/internal/core/ports/services"
	"github.com/SscSPs/property_fines_app/internal/core/services"
	"github.com/SscSPs/property_fines_app/internal/dto"
	"github.com/SscSPs/property_fines_app/internal/platform/config"
)

const (
	adminID    = "admin-1"
	residentID = "resident-7"
	day        = 24 * time.Hour
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testConfig() *config.Config {
	return &config.Config{
		CurrencyCode:            "INR",
		CurrencyPrecision:       2,
		LateFeePercentage:       decimal.NewFromInt(2),
		LateFeeGraceDays:        15,
		LateFeeMaxAmount:        decimal.Zero,
		LateFeeAccrualPeriod:    30 * day,
		DefaultFineDueDays:      30,
		AutoIssueFineOnApproval: true,
		SendNotifications:       true,
		BulkMaxBatchSize:        5,
		BulkConcurrency:         3,
	}
}

// LifecycleTestSuite runs the services against the in-memory store.
type LifecycleTestSuite struct {
	suite.Suite
	ctx      context.Context
	clock    *testClock
	store    *memStore
	notifier *MockNotifier
	gateway  *MockGateway
	ledger   *MockLedger
	svc      *portssvc.ServiceContainer
	category *domain.ViolationCategory
}

func (s *LifecycleTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = &testClock{now: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
	s.store = newMemStore()
	s.notifier = new(MockNotifier)
	s.notifier.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	s.gateway = new(MockGateway)
	s.ledger = new(MockLedger)

	s.svc = services.NewServiceContainer(testConfig(), s.store.repos(), services.Collaborators{
		Notifier: s.notifier,
		Ledger:   s.ledger,
		Gateway:  s.gateway,
	}, services.WithClock(s.clock.Now))

	category, err := s.svc.Category.CreateCategory(s.ctx, dto.CreateCategoryRequest{
		Name:           "Unauthorized parking",
		BaseFineAmount: decimal.NewFromInt(1000),
		Severity:       domain.SeverityMedium,
	}, adminID)
	s.Require().NoError(err)
	s.category = category
}

func TestLifecycleTestSuite(t *testing.T) {
	suite.Run(t, new(LifecycleTestSuite))
}

func (s *LifecycleTestSuite) reportViolation() *domain.Violation {
	v, err := s.svc.Violation.ReportViolation(s.ctx, dto.ReportViolationRequest{
		CategoryID: s.category.CategoryID,
		IncidentAt: s.clock.Now().Add(-time.Hour),
		Location:   "Visitor lot B",
		ResidentID: residentID,
		UnitNumber: "B-204",
	}, "guard-3")
	s.Require().NoError(err)
	return v
}

// issuedFine reports a violation, approves it and returns the auto-issued fine.
func (s *LifecycleTestSuite) issuedFine() *domain.Fine {
	v := s.reportViolation()
	_, err := s.svc.Violation.ReviewViolation(s.ctx, v.ViolationID, domain.DecisionApprove, nil, "photo confirms", adminID)
	s.Require().NoError(err)
	fine, err := s.store.FindFineByViolationID(s.ctx, v.ViolationID)
	s.Require().NoError(err)
	return fine
}

func (s *LifecycleTestSuite) assertAmount(expected string, actual decimal.Decimal) {
	s.T().Helper()
	s.True(decimal.RequireFromString(expected).Equal(actual), "expected %s, got %s", expected, actual)
}

func (s *LifecycleTestSuite) TestReportViolation_RejectsInactiveCategory() {
	s.Require().NoError(s.svc.Category.DeactivateCategory(s.ctx, s.category.CategoryID, adminID))

	_, err := s.svc.Violation.ReportViolation(s.ctx, dto.ReportViolationRequest{
		CategoryID: s.category.CategoryID,
		IncidentAt: s.clock.Now(),
		Location:   "Gate",
	}, "guard-3")
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *LifecycleTestSuite) TestReportViolation_DefaultsSeverityFromCategory() {
	v := s.reportViolation()
	s.Equal(domain.SeverityMedium, v.Severity)
	s.Equal(domain.ViolationPending, v.Status)
	s.Equal(domain.PriorityNormal, v.Review.Priority)
}

func (s *LifecycleTestSuite) TestReportViolation_RejectsFutureIncident() {
	_, err := s.svc.Violation.ReportViolation(s.ctx, dto.ReportViolationRequest{
		CategoryID: s.category.CategoryID,
		IncidentAt: s.clock.Now().Add(time.Hour),
		Location:   "Gate",
	}, "guard-3")
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *LifecycleTestSuite) TestApproveIssuesFineWithDefaultDueDate() {
	fine := s.issuedFine()

	s.Equal(domain.FinePending, fine.Status)
	s.Equal(residentID, fine.ResidentID)
	s.assertAmount("1000", fine.FineAmount)
	s.WithinDuration(s.clock.Now().Add(30*day), fine.DueDate, 0)

	history, err := s.svc.Fine.GetFineHistory(s.ctx, fine.FineID)
	s.Require().NoError(err)
	s.Require().Len(history, 1)
	s.Equal(domain.FinePending, history[0].NewStatus)
	s.notifier.AssertCalled(s.T(), "Send", mock.Anything, external.EventFineIssued, residentID, mock.Anything)
}

func (s *LifecycleTestSuite) TestApproveWithOverrideAmount() {
	v := s.reportViolation()
	amount := decimal.NewFromInt(250)
	_, err := s.svc.Violation.ReviewViolation(s.ctx, v.ViolationID, domain.DecisionApprove, &amount, "", adminID)
	s.Require().NoError(err)

	fine, err := s.store.FindFineByViolationID(s.ctx, v.ViolationID)
	s.Require().NoError(err)
	s.assertAmount("250", fine.FineAmount)
}

func (s *LifecycleTestSuite) TestReviewViolation_RepeatedDecisionIsNoOp() {
	v := s.reportViolation()
	first, err := s.svc.Violation.ReviewViolation(s.ctx, v.ViolationID, domain.DecisionReject, nil, "blurry photo", adminID)
	s.Require().NoError(err)

	again, err := s.svc.Violation.ReviewViolation(s.ctx, v.ViolationID, domain.DecisionReject, nil, "", adminID)
	s.Require().NoError(err)
	s.Equal(first.Version, again.Version)

	_, err = s.svc.Violation.ReviewViolation(s.ctx, v.ViolationID, domain.DecisionApprove, nil, "", adminID)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)
}

func (s *LifecycleTestSuite) TestIssueFine_Duplicate() {
	fine := s.issuedFine()
	_, err := s.svc.Fine.IssueFine(s.ctx, fine.ViolationID, decimal.NewFromInt(10), s.clock.Now().Add(day), adminID)
	s.ErrorIs(err, apperrors.ErrDuplicate)
}

func (s *LifecycleTestSuite) TestIssueFine_RequiresApprovedViolation() {
	v := s.reportViolation()
	_, err := s.svc.Fine.IssueFine(s.ctx, v.ViolationID, decimal.NewFromInt(10), s.clock.Now().Add(day), adminID)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)
}

func (s *LifecycleTestSuite) TestDeleteViolation_ConflictsWithFine() {
	fine := s.issuedFine()
	err := s.svc.Violation.DeleteViolation(s.ctx, fine.ViolationID, adminID)
	s.ErrorIs(err, apperrors.ErrConflict)

	v := s.reportViolation()
	s.NoError(s.svc.Violation.DeleteViolation(s.ctx, v.ViolationID, adminID))
	_, err = s.svc.Violation.GetViolation(s.ctx, v.ViolationID)
	s.ErrorIs(err, apperrors.ErrNotFound)
}

// A 1000 fine paid 40 days late accrues one 2% period, then two payments settle it.
func (s *LifecycleTestSuite) TestLatePartialPaymentsSettleFine() {
	fine := s.issuedFine()
	s.clock.Advance(70 * day) // 40 days past due, 25 past grace

	got, err := s.svc.Fine.GetFine(s.ctx, fine.FineID)
	s.Require().NoError(err)
	s.Equal(domain.FineOverdue, got.Status)
	s.assertAmount("20", got.LateFee)
	s.assertAmount("1020", got.TotalAmount)

	got, err = s.svc.Payment.RecordPayment(s.ctx, fine.FineID, decimal.NewFromInt(600), domain.MethodUPI, "UPI-1", nil, adminID)
	s.Require().NoError(err)
	s.Equal(domain.FinePartiallyPaid, got.Status)
	s.assertAmount("420", got.Outstanding())

	// the balance is still past due, so the sweep stores overdue again
	updated, err := s.svc.Fine.RefreshOverdueFines(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, updated)
	overdue, err := s.svc.Fine.ListFines(s.ctx, dto.ListFinesParams{Status: []string{string(domain.FineOverdue)}})
	s.Require().NoError(err)
	s.Require().Len(overdue.Fines, 1)
	s.Equal(fine.FineID, overdue.Fines[0].FineID)

	got, err = s.svc.Payment.RecordPayment(s.ctx, fine.FineID, decimal.NewFromInt(420), domain.MethodCash, "", nil, adminID)
	s.Require().NoError(err)
	s.Equal(domain.FinePaid, got.Status)
	s.Require().NotNil(got.PaidDate)

	violation, err := s.svc.Violation.GetViolation(s.ctx, fine.ViolationID)
	s.Require().NoError(err)
	s.Equal(domain.ViolationResolved, violation.Status)

	_, err = s.svc.Payment.RecordPayment(s.ctx, fine.FineID, decimal.NewFromInt(50), domain.MethodCash, "", nil, adminID)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)

	payments, err := s.svc.Payment.ListPayments(s.ctx, fine.FineID)
	s.Require().NoError(err)
	s.assertAmount("1020", domain.SumSuccessfulPayments(payments))

	history, err := s.svc.Fine.GetFineHistory(s.ctx, fine.FineID)
	s.Require().NoError(err)
	var statuses []domain.FineStatus
	for _, h := range history {
		statuses = append(statuses, h.NewStatus)
	}
	s.Equal([]domain.FineStatus{domain.FinePending, domain.FineOverdue, domain.FinePartiallyPaid, domain.FineOverdue, domain.FinePaid}, statuses)
}

func (s *LifecycleTestSuite) TestRecordPayment_StaleVersionIsRejected() {
	fine := s.issuedFine()
	s.store.concurrentFineWrite = true

	_, err := s.svc.Payment.RecordPayment(s.ctx, fine.FineID, decimal.NewFromInt(500), domain.MethodCash, "", nil, adminID)
	s.ErrorIs(err, apperrors.ErrConcurrentModification)

	payments, err := s.svc.Payment.ListPayments(s.ctx, fine.FineID)
	s.Require().NoError(err)
	s.Empty(payments)
	stored, err := s.store.FindFineByID(s.ctx, fine.FineID)
	s.Require().NoError(err)
	s.True(stored.PaidAmount.IsZero())
	s.Equal(domain.FinePending, stored.Status)

	// a retry reads the new version and goes through
	got, err := s.svc.Payment.RecordPayment(s.ctx, fine.FineID, decimal.NewFromInt(500), domain.MethodCash, "", nil, adminID)
	s.Require().NoError(err)
	s.assertAmount("500", got.PaidAmount)
	s.Equal(domain.FinePartiallyPaid, got.Status)
}

func (s *LifecycleTestSuite) TestWaiveFine_StaleVersionIsRejected() {
	fine := s.issuedFine()
	s.store.concurrentFineWrite = true

	_, err := s.svc.Fine.WaiveFine(s.ctx, fine.FineID, "goodwill", adminID)
	s.ErrorIs(err, apperrors.ErrConcurrentModification)

	stored, err := s.store.FindFineByID(s.ctx, fine.FineID)
	s.Require().NoError(err)
	s.Equal(domain.FinePending, stored.Status)
	s.Nil(stored.Waiver)
}

func (s *LifecycleTestSuite) TestRecordPayment_Overpayment() {
	fine := s.issuedFine()
	_, err := s.svc.Payment.RecordPayment(s.ctx, fine.FineID, decimal.NewFromInt(1001), domain.MethodCash, "", nil, adminID)
	s.ErrorIs(err, apperrors.ErrOverpayment)

	stored, err := s.store.FindFineByID(s.ctx, fine.FineID)
	s.Require().NoError(err)
	s.True(stored.PaidAmount.IsZero())
}

func (s *LifecycleTestSuite) TestRecordPayment_RejectsBadInput() {
	fine := s.issuedFine()

	_, err := s.svc.Payment.RecordPayment(s.ctx, fine.FineID, decimal.RequireFromString("10.001"), domain.MethodCash, "", nil, adminID)
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.svc.Payment.RecordPayment(s.ctx, fine.FineID, decimal.NewFromInt(10), domain.MethodOnline, "", nil, adminID)
	s.ErrorIs(err, apperrors.ErrValidation)

	future := s.clock.Now().Add(time.Hour)
	_, err = s.svc.Payment.RecordPayment(s.ctx, fine.FineID, decimal.NewFromInt(10), domain.MethodCash, "", &future, adminID)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *LifecycleTestSuite) TestConcurrentPaymentsNeverOverpay() {
	fine := s.issuedFine()

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.svc.Payment.RecordPayment(s.ctx, fine.FineID, decimal.NewFromInt(400), domain.MethodCash, "", nil, adminID)
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		s.ErrorIs(err, apperrors.ErrOverpayment)
	}
	s.Equal(2, succeeded)

	stored, err := s.store.FindFineByID(s.ctx, fine.FineID)
	s.Require().NoError(err)
	s.assertAmount("800", stored.PaidAmount)
}

func (s *LifecycleTestSuite) TestWaiverFlow() {
	fine := s.issuedFine()

	got, err := s.svc.Fine.RequestWaiver(s.ctx, fine.FineID, "first offence", residentID)
	s.Require().NoError(err)
	s.Equal(domain.FinePending, got.Status)
	s.Require().NotNil(got.Waiver)

	got, err = s.svc.Fine.ResolveWaiver(s.ctx, fine.FineID, true, "ok once", adminID)
	s.Require().NoError(err)
	s.Equal(domain.FineWaived, got.Status)
	s.assertAmount("1000", got.Waiver.WaivedAmount)

	violation, err := s.svc.Violation.GetViolation(s.ctx, fine.ViolationID)
	s.Require().NoError(err)
	s.Equal(domain.ViolationResolved, violation.Status)

	_, err = s.svc.Fine.WaiveFine(s.ctx, fine.FineID, "again", adminID)
	s.ErrorIs(err, apperrors.ErrAlreadyInState)
}

func (s *LifecycleTestSuite) TestPaidFineRejectsDisputeAndRefund() {
	fine := s.issuedFine()
	_, err := s.svc.Payment.RecordPayment(s.ctx, fine.FineID, decimal.NewFromInt(1000), domain.MethodCash, "", nil, adminID)
	s.Require().NoError(err)
	payments, err := s.svc.Payment.ListPayments(s.ctx, fine.FineID)
	s.Require().NoError(err)
	s.Require().Len(payments, 1)

	// paid fines cannot be disputed
	_, err = s.svc.Fine.RaiseDispute(s.ctx, fine.FineID, "never parked there", nil, residentID)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)
	_, err = s.svc.Payment.RefundPayment(s.ctx, payments[0].PaymentID, decimal.NewFromInt(100), "overcharged", adminID)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)
}

func (s *LifecycleTestSuite) TestDisputeUpheldExcludesDisputedTime() {
	fine := s.issuedFine()
	_, err := s.svc.Payment.RecordPayment(s.ctx, fine.FineID, decimal.NewFromInt(300), domain.MethodCash, "", nil, adminID)
	s.Require().NoError(err)

	disputed, err := s.svc.Fine.RaiseDispute(s.ctx, fine.FineID, "wrong unit", []domain.Evidence{{Type: "photo", Reference: "s3://e/1"}}, residentID)
	s.Require().NoError(err)
	s.Equal(domain.FineDisputed, disputed.Status)

	_, err = s.svc.Fine.SendReminder(s.ctx, fine.FineID, adminID)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)

	payments, err := s.svc.Payment.ListPayments(s.ctx, fine.FineID)
	s.Require().NoError(err)
	refunded, err := s.svc.Payment.RefundPayment(s.ctx, payments[0].PaymentID, decimal.NewFromInt(100), "duplicate charge", adminID)
	s.Require().NoError(err)
	s.assertAmount("200", refunded.PaidAmount)

	_, err = s.svc.Payment.RefundPayment(s.ctx, payments[0].PaymentID, decimal.NewFromInt(250), "more", adminID)
	s.ErrorIs(err, apperrors.ErrValidation)

	// sixty days in dispute do not count towards the late fee
	s.clock.Advance(60 * day)
	got, err := s.svc.Fine.GetFine(s.ctx, fine.FineID)
	s.Require().NoError(err)
	s.True(got.LateFee.IsZero())

	// the due date itself has passed, only the fee clock was paused
	got, err = s.svc.Fine.ResolveDispute(s.ctx, fine.FineID, domain.OutcomeUphold, "evidence is clear", adminID)
	s.Require().NoError(err)
	s.Equal(domain.FineOverdue, got.Status)
	s.True(got.LateFee.IsZero())
	s.assertAmount("800", got.Outstanding())
}

func (s *LifecycleTestSuite) TestRefreshOverdueFines() {
	open := s.issuedFine()
	settled := s.issuedFine()
	_, err := s.svc.Payment.SettleFine(s.ctx, settled.FineID, domain.MethodCash, "", adminID)
	s.Require().NoError(err)

	s.clock.Advance(31 * day)
	updated, err := s.svc.Fine.RefreshOverdueFines(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, updated)

	stored, err := s.store.FindFineByID(s.ctx, open.FineID)
	s.Require().NoError(err)
	s.Equal(domain.FineOverdue, stored.Status)
	s.notifier.AssertCalled(s.T(), "Send", mock.Anything, external.EventFineOverdue, residentID, mock.Anything)

	// a second sweep has nothing left to write
	updated, err = s.svc.Fine.RefreshOverdueFines(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, updated)
}

func (s *LifecycleTestSuite) TestListFines_MatchesStatusAsOfNow() {
	fine := s.issuedFine()
	s.clock.Advance(31 * day) // past due, not yet swept

	pending, err := s.svc.Fine.ListFines(s.ctx, dto.ListFinesParams{Status: []string{string(domain.FinePending)}})
	s.Require().NoError(err)
	s.Empty(pending.Fines)

	overdue, err := s.svc.Fine.ListFines(s.ctx, dto.ListFinesParams{Status: []string{string(domain.FineOverdue)}})
	s.Require().NoError(err)
	s.Require().Len(overdue.Fines, 1)
	s.Equal(fine.FineID, overdue.Fines[0].FineID)
	s.Equal(domain.FineOverdue, overdue.Fines[0].Status)
	s.True(overdue.Fines[0].IsOverdue)

	stored, err := s.store.FindFineByID(s.ctx, fine.FineID)
	s.Require().NoError(err)
	s.Equal(domain.FineOverdue, stored.Status)
}

func (s *LifecycleTestSuite) TestGetFine_ServesComputedStateWhenWriteBackFails() {
	fine := s.issuedFine()
	s.clock.Advance(31 * day)
	s.store.failUpdateFine = errors.New("db down")

	got, err := s.svc.Fine.GetFine(s.ctx, fine.FineID)
	s.Require().NoError(err)
	s.Equal(domain.FineOverdue, got.Status)
}

func (s *LifecycleTestSuite) TestFineAnalytics() {
	paid := s.issuedFine()
	s.issuedFine()
	_, err := s.svc.Payment.SettleFine(s.ctx, paid.FineID, domain.MethodCheque, "CHQ-1", adminID)
	s.Require().NoError(err)

	from := s.clock.Now().Add(-day)
	analytics, err := s.svc.Fine.GetFineAnalytics(s.ctx, from, s.clock.Now().Add(day))
	s.Require().NoError(err)
	s.Equal(2, analytics.TotalFines)
	s.assertAmount("2000", analytics.TotalFined)
	s.assertAmount("1000", analytics.TotalCollected)
	s.assertAmount("50", analytics.CollectionRate)

	_, err = s.svc.Fine.GetFineAnalytics(s.ctx, from, from)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *LifecycleTestSuite) TestCategoryStats() {
	s.issuedFine()
	s.reportViolation()

	stats, err := s.svc.Category.GetCategoryStats(s.ctx, s.category.CategoryID)
	s.Require().NoError(err)
	s.EqualValues(2, stats.TotalViolations)
	s.assertAmount("500", stats.AverageFinePerViolation)
}
