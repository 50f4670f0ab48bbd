package services_test

import (
	"errors"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/SscSPs/property_fines_app/internal/apperrors"
	"github.com/SscSPs/property_fines_app/internal/core/domain"
	"github.com/SscSPs/property_fines_app/internal/core/ports/external"
	"github.com/SscSPs/property_fines_app/internal/dto"
)

func (s *LifecycleTestSuite) TestBulkApprove_ReportsEachItem() {
	v1 := s.reportViolation()
	v2 := s.reportViolation()
	v3 := s.reportViolation()
	_, err := s.svc.Violation.ReviewViolation(s.ctx, v2.ViolationID, domain.DecisionReject, nil, "duplicate report", adminID)
	s.Require().NoError(err)

	ids := []string{v1.ViolationID, v2.ViolationID, v3.ViolationID}
	result, err := s.svc.Bulk.PerformBulkAction(s.ctx, domain.BulkApprove, domain.TargetViolation, ids, "", adminID)
	s.Require().NoError(err)

	s.Equal(3, result.Total)
	s.Equal(2, result.Successful)
	s.Equal(1, result.Failed)
	s.Require().Len(result.Results, 3)
	for i, id := range ids {
		s.Equal(id, result.Results[i].TargetID)
	}
	s.False(result.Results[1].Success)
	s.Equal("invalid_transition", result.Results[1].ErrorKind)

	for _, id := range []string{v1.ViolationID, v3.ViolationID} {
		_, err := s.store.FindFineByViolationID(s.ctx, id)
		s.NoError(err, "approved violation %s should have a fine", id)
	}
	rejected, err := s.svc.Violation.GetViolation(s.ctx, v2.ViolationID)
	s.Require().NoError(err)
	s.Equal(domain.ViolationRejected, rejected.Status)
}

func (s *LifecycleTestSuite) TestBulk_RequestLevelErrors() {
	ids := []string{"a", "b", "c", "d", "e", "f"}
	_, err := s.svc.Bulk.PerformBulkAction(s.ctx, domain.BulkRemind, domain.TargetFine, ids, "", adminID)
	s.ErrorIs(err, apperrors.ErrBatchTooLarge)

	_, err = s.svc.Bulk.PerformBulkAction(s.ctx, domain.BulkWaive, domain.TargetFine, ids[:2], " ", adminID)
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.svc.Bulk.PerformBulkAction(s.ctx, domain.BulkApprove, domain.TargetFine, ids[:2], "", adminID)
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.svc.Bulk.PerformBulkAction(s.ctx, domain.BulkApprove, domain.TargetViolation, nil, "", adminID)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *LifecycleTestSuite) TestBulkFineActions() {
	f1 := s.issuedFine()
	f2 := s.issuedFine()

	result, err := s.svc.Bulk.PerformBulkAction(s.ctx, domain.BulkRemind, domain.TargetFine, []string{f1.FineID, "missing"}, "", adminID)
	s.Require().NoError(err)
	s.Equal(1, result.Successful)
	s.Equal("not_found", result.Results[1].ErrorKind)

	result, err = s.svc.Bulk.PerformBulkAction(s.ctx, domain.BulkMarkPaid, domain.TargetFine, []string{f1.FineID}, "", adminID)
	s.Require().NoError(err)
	s.Equal(1, result.Successful)

	result, err = s.svc.Bulk.PerformBulkAction(s.ctx, domain.BulkWaive, domain.TargetFine, []string{f1.FineID, f2.FineID}, "amnesty", adminID)
	s.Require().NoError(err)
	s.Equal(1, result.Successful)
	s.Equal("invalid_transition", result.Results[0].ErrorKind)

	paid, err := s.store.FindFineByID(s.ctx, f1.FineID)
	s.Require().NoError(err)
	s.Equal(domain.FinePaid, paid.Status)
	s.Equal(1, paid.ReminderCount)

	waived, err := s.store.FindFineByID(s.ctx, f2.FineID)
	s.Require().NoError(err)
	s.Equal(domain.FineWaived, waived.Status)
}

func (s *LifecycleTestSuite) TestIntegrateToBilling() {
	fine := s.issuedFine()
	charges := decimal.NewFromInt(50)

	s.ledger.On("CreateBillLineItem", mock.Anything, mock.MatchedBy(func(item external.BillLineItem) bool {
		return item.FineID == fine.FineID && item.Amount.Equal(decimal.NewFromInt(1000)) && item.AdditionalCharges.Equal(charges)
	})).Return(&external.BillReceipt{BillID: "bill-1", BillNumber: "INV-0001"}, nil).Once()

	bill, err := s.svc.Billing.IntegrateToBilling(s.ctx, fine.FineID, dto.IntegrateBillingRequest{AdditionalCharges: &charges}, adminID)
	s.Require().NoError(err)
	s.Equal(domain.IntegrationIntegrated, bill.IntegrationStatus)
	s.Equal("INV-0001", bill.BillNumber)
	s.assertAmount("1050", bill.Amount)

	_, err = s.svc.Billing.IntegrateToBilling(s.ctx, fine.FineID, dto.IntegrateBillingRequest{}, adminID)
	s.ErrorIs(err, apperrors.ErrIntegrationAlreadyCompleted)
	s.ledger.AssertNumberOfCalls(s.T(), "CreateBillLineItem", 1)
}

func (s *LifecycleTestSuite) TestIntegrateToBilling_LedgerFailureCanBeRetried() {
	fine := s.issuedFine()
	s.ledger.On("CreateBillLineItem", mock.Anything, mock.Anything).Return(nil, errors.New("503 from ledger")).Once()
	s.ledger.On("CreateBillLineItem", mock.Anything, mock.Anything).Return(&external.BillReceipt{BillID: "bill-2", BillNumber: "INV-0002"}, nil).Once()

	_, err := s.svc.Billing.IntegrateToBilling(s.ctx, fine.FineID, dto.IntegrateBillingRequest{}, adminID)
	s.Require().Error(err)
	s.Equal(http.StatusBadGateway, apperrors.HTTPStatus(err))

	stored, err := s.store.FindFineByID(s.ctx, fine.FineID)
	s.Require().NoError(err)
	s.Require().NotNil(stored.Bill)
	s.Equal(domain.IntegrationFailed, stored.Bill.IntegrationStatus)

	bill, err := s.svc.Billing.IntegrateToBilling(s.ctx, fine.FineID, dto.IntegrateBillingRequest{}, adminID)
	s.Require().NoError(err)
	s.Equal("bill-2", bill.BillID)
}

func (s *LifecycleTestSuite) TestIntegrateToBilling_WaivedFine() {
	fine := s.issuedFine()
	_, err := s.svc.Fine.WaiveFine(s.ctx, fine.FineID, "goodwill", adminID)
	s.Require().NoError(err)

	_, err = s.svc.Billing.IntegrateToBilling(s.ctx, fine.FineID, dto.IntegrateBillingRequest{}, adminID)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)
	s.ledger.AssertNotCalled(s.T(), "CreateBillLineItem", mock.Anything, mock.Anything)
}
