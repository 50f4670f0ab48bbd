package services_test

import (
	"errors"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/SscSPs/property_fines_app/internal/apperrors"
	"github.com/SscSPs/property_fines_app/internal/core/domain"
	"github.com/SscSPs/property_fines_app/internal/core/ports/external"
)

func (s *LifecycleTestSuite) expectOrder(orderID string) {
	s.gateway.On("CreateOrder", mock.Anything, mock.MatchedBy(func(d decimal.Decimal) bool { return d.IsPositive() }), "INR", mock.Anything).
		Return(&external.GatewayOrder{OrderID: orderID, KeyID: "rzp_test_key"}, nil).Once()
}

func (s *LifecycleTestSuite) expectSignatures() {
	s.gateway.On("VerifyPayment", mock.Anything, mock.MatchedBy(func(v external.GatewayVerification) bool { return v.Signature == "good" })).
		Return(nil)
	s.gateway.On("VerifyPayment", mock.Anything, mock.MatchedBy(func(v external.GatewayVerification) bool { return v.Signature != "good" })).
		Return(apperrors.ErrGatewayVerificationFailed)
}

func (s *LifecycleTestSuite) TestGatewayCheckout_VerifyIsIdempotent() {
	fine := s.issuedFine()
	s.expectOrder("order_1")
	s.expectSignatures()

	handle, err := s.svc.Payment.CreatePaymentOrder(s.ctx, fine.FineID, residentID)
	s.Require().NoError(err)
	s.Equal("order_1", handle.OrderID)
	s.Equal("rzp_test_key", handle.KeyID)
	s.assertAmount("1000", handle.Amount)

	got, err := s.svc.Payment.VerifyPayment(s.ctx, "order_1", "good", "pay_1", residentID)
	s.Require().NoError(err)
	s.Equal(domain.FinePaid, got.Status)

	replayed, err := s.svc.Payment.VerifyPayment(s.ctx, "order_1", "good", "pay_1", residentID)
	s.Require().NoError(err)
	s.Equal(domain.FinePaid, replayed.Status)
	s.assertAmount("1000", replayed.PaidAmount)

	_, err = s.svc.Payment.VerifyPayment(s.ctx, "order_1", "good", "pay_2", residentID)
	s.ErrorIs(err, apperrors.ErrConflict)

	payments, err := s.svc.Payment.ListPayments(s.ctx, fine.FineID)
	s.Require().NoError(err)
	s.Require().Len(payments, 1)
	s.Equal(domain.PaymentSuccess, payments[0].Status)
	s.Require().NotNil(payments[0].GatewayPaymentID)
	s.Equal("pay_1", *payments[0].GatewayPaymentID)
	s.gateway.AssertNumberOfCalls(s.T(), "VerifyPayment", 1)
}

func (s *LifecycleTestSuite) TestGatewayCheckout_TamperedSignature() {
	fine := s.issuedFine()
	s.expectOrder("order_2")
	s.expectSignatures()

	_, err := s.svc.Payment.CreatePaymentOrder(s.ctx, fine.FineID, residentID)
	s.Require().NoError(err)

	_, err = s.svc.Payment.VerifyPayment(s.ctx, "order_2", "forged", "pay_9", residentID)
	s.ErrorIs(err, apperrors.ErrGatewayVerificationFailed)

	stored, err := s.store.FindFineByID(s.ctx, fine.FineID)
	s.Require().NoError(err)
	s.True(stored.PaidAmount.IsZero())
	s.Equal(domain.FinePending, stored.Status)

	payment, err := s.store.FindPaymentByGatewayOrderID(s.ctx, "order_2")
	s.Require().NoError(err)
	s.Equal(domain.PaymentFailed, payment.Status)
	s.notifier.AssertCalled(s.T(), "Send", mock.Anything, external.EventPaymentFailed, residentID, mock.Anything)

	// a failed order stays failed even if a valid callback shows up later
	_, err = s.svc.Payment.VerifyPayment(s.ctx, "order_2", "good", "pay_9", residentID)
	s.ErrorIs(err, apperrors.ErrGatewayVerificationFailed)
}

func (s *LifecycleTestSuite) TestGatewayCheckout_BalanceShrankBeforeVerify() {
	fine := s.issuedFine()
	s.expectOrder("order_3")
	s.expectSignatures()

	_, err := s.svc.Payment.CreatePaymentOrder(s.ctx, fine.FineID, residentID)
	s.Require().NoError(err)
	_, err = s.svc.Payment.RecordPayment(s.ctx, fine.FineID, decimal.NewFromInt(500), domain.MethodCash, "counter", nil, adminID)
	s.Require().NoError(err)

	_, err = s.svc.Payment.VerifyPayment(s.ctx, "order_3", "good", "pay_3", residentID)
	s.ErrorIs(err, apperrors.ErrOverpayment)

	stored, err := s.store.FindFineByID(s.ctx, fine.FineID)
	s.Require().NoError(err)
	s.assertAmount("500", stored.PaidAmount)

	payments, err := s.svc.Payment.ListPayments(s.ctx, fine.FineID)
	s.Require().NoError(err)
	s.assertAmount("500", domain.SumSuccessfulPayments(payments))
}

func (s *LifecycleTestSuite) TestVerifyPayment_StaleVersionIsRejected() {
	fine := s.issuedFine()
	s.expectOrder("order_4")
	s.expectSignatures()

	_, err := s.svc.Payment.CreatePaymentOrder(s.ctx, fine.FineID, residentID)
	s.Require().NoError(err)

	s.store.concurrentFineWrite = true
	_, err = s.svc.Payment.VerifyPayment(s.ctx, "order_4", "good", "pay_4", residentID)
	s.ErrorIs(err, apperrors.ErrConcurrentModification)

	stored, err := s.store.FindFineByID(s.ctx, fine.FineID)
	s.Require().NoError(err)
	s.True(stored.PaidAmount.IsZero())
	payment, err := s.store.FindPaymentByGatewayOrderID(s.ctx, "order_4")
	s.Require().NoError(err)
	s.Equal(domain.PaymentPending, payment.Status)
	s.Nil(payment.GatewayPaymentID)

	// the order is still open, so the gateway's retry settles it
	got, err := s.svc.Payment.VerifyPayment(s.ctx, "order_4", "good", "pay_4", residentID)
	s.Require().NoError(err)
	s.Equal(domain.FinePaid, got.Status)
}

func (s *LifecycleTestSuite) TestCreatePaymentOrder_Errors() {
	fine := s.issuedFine()
	s.gateway.On("CreateOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused")).Once()

	_, err := s.svc.Payment.CreatePaymentOrder(s.ctx, fine.FineID, residentID)
	s.Require().Error(err)
	s.Equal(http.StatusBadGateway, apperrors.HTTPStatus(err))

	_, err = s.svc.Payment.SettleFine(s.ctx, fine.FineID, domain.MethodBankTransfer, "NEFT-1", adminID)
	s.Require().NoError(err)
	_, err = s.svc.Payment.CreatePaymentOrder(s.ctx, fine.FineID, residentID)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)

	_, err = s.svc.Payment.VerifyPayment(s.ctx, "missing", "good", "pay_x", residentID)
	s.ErrorIs(err, apperrors.ErrNotFound)
}
