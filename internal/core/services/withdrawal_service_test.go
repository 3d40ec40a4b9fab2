package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/partner_settlement_app/internal/apperrors"
	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
	"github.com/SscSPs/partner_settlement_app/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

var flowStart = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type WithdrawalServiceTestSuite struct {
	suite.Suite
	ctx context.Context
	f   *fixture
}

func TestWithdrawalServiceTestSuite(t *testing.T) {
	suite.Run(t, new(WithdrawalServiceTestSuite))
}

func (suite *WithdrawalServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.f = newFixture(flowStart)
}

// completeOrder records and completes an API order. With the default 2%
// platform markup a 1200.00 supplier cost at 10% markup earns 122.40.
func (suite *WithdrawalServiceTestSuite) completeOrder(orderID, partnerID string) *domain.Order {
	_, err := suite.f.container.Order.RecordOrder(suite.ctx, dto.RecordOrderRequest{
		OrderID:        orderID,
		PartnerID:      partnerID,
		SupplierName:   "Grand Hotel Supply",
		SupplierCost:   120000,
		AccessMode:     string(domain.AccessModeAPI),
		MarkupRate:     decimal.RequireFromString("0.10"),
		PaymentChannel: "alipay",
		PaidAt:         flowStart,
	}, operator)
	suite.Require().NoError(err)

	order, err := suite.f.container.Order.TransitionOrderStatus(suite.ctx, orderID, domain.OrderCompleted, operator)
	suite.Require().NoError(err)
	suite.Require().Equal(domain.Money(12240), order.Economics.Commission)
	return order
}

func (suite *WithdrawalServiceTestSuite) submit(partnerID string, amount int64) *domain.Withdrawal {
	w, err := suite.f.container.Withdrawal.SubmitWithdrawal(suite.ctx, dto.SubmitWithdrawalRequest{
		PartnerID:   partnerID,
		Amount:      amount,
		AccountType: string(domain.AccountPersonal),
	}, operator)
	suite.Require().NoError(err)
	return w
}

func (suite *WithdrawalServiceTestSuite) payable(partnerID string) dto.PartnerBalance {
	balance, err := suite.f.container.Ledger.GetPartnerPayable(suite.ctx, partnerID)
	suite.Require().NoError(err)
	return balance
}

func (suite *WithdrawalServiceTestSuite) TestCommissionPaidThenFailedRestoresPayable() {
	svc := suite.f.container.Withdrawal
	suite.completeOrder("ORD-1", "P1")
	suite.Equal(dto.PartnerBalance{PartnerID: "P1", Payable: 12240, Available: 12240}, suite.payable("P1"))

	w := suite.submit("P1", 10000)
	suite.Equal(domain.WithdrawalPendingReview, w.Status)
	suite.Equal(domain.Money(12240), w.AvailableBalanceAtRequest)
	suite.Equal(dto.PartnerBalance{PartnerID: "P1", Payable: 12240, InFlight: 10000, Available: 2240}, suite.payable("P1"))

	_, err := svc.StartReview(suite.ctx, w.WithdrawalID, operator)
	suite.Require().NoError(err)
	_, err = svc.ReviewWithdrawal(suite.ctx, w.WithdrawalID, dto.ReviewWithdrawalRequest{Decision: dto.DecisionApprove, Comment: "ok"}, operator)
	suite.Require().NoError(err)
	_, err = svc.InitiatePayment(suite.ctx, w.WithdrawalID, operator)
	suite.Require().NoError(err)

	paid, err := svc.MarkPaymentSucceeded(suite.ctx, w.WithdrawalID, operator)
	suite.Require().NoError(err)
	suite.Equal(domain.WithdrawalSuccess, paid.Status)
	suite.True(paid.Deducted)
	suite.Require().NotNil(paid.TransferredAt)
	suite.Equal(dto.PartnerBalance{PartnerID: "P1", Payable: 2240, Available: 2240}, suite.payable("P1"))

	failed, err := svc.MarkPaymentFailed(suite.ctx, w.WithdrawalID, "bank returned the transfer", operator)
	suite.Require().NoError(err)
	suite.Equal(domain.WithdrawalFailed, failed.Status)
	suite.False(failed.Deducted)
	suite.Equal(dto.PartnerBalance{PartnerID: "P1", Payable: 12240, InFlight: 10000, Available: 2240}, suite.payable("P1"))

	// Marking it failed again posts nothing: it is no longer processing or paid.
	_, err = svc.MarkPaymentFailed(suite.ctx, w.WithdrawalID, "bank returned the transfer", operator)
	suite.ErrorIs(err, apperrors.ErrInvalidState)

	snapshot, err := suite.f.container.Ledger.GetLedgerSnapshot(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal(domain.Money(12240), snapshot.PayableDistribution)
	suite.Equal(domain.Money(120000), snapshot.PayableSupplier)
	suite.Equal(domain.Money(134640), snapshot.ActualRevenue)
	suite.Equal(domain.Money(134640-12240-120000), snapshot.AvailableFunds)
	suite.Equal(5, snapshot.TransactionCount)

	// Replaying up to the payout sees the deduction but not its reversal.
	atPayout, err := suite.f.container.Ledger.ReplaySnapshot(suite.ctx, *paid.TransferredAt)
	suite.Require().NoError(err)
	suite.Equal(domain.Money(2240), atPayout.PayableDistribution)
	suite.Equal(4, atPayout.TransactionCount)

	retried, err := svc.RetryWithdrawalPayment(suite.ctx, w.WithdrawalID, operator)
	suite.Require().NoError(err)
	suite.Equal(domain.WithdrawalProcessing, retried.Status)
	suite.Empty(retried.FailureReason)
}

func (suite *WithdrawalServiceTestSuite) TestPaymentOutcomeHoldsPartnerLock() {
	svc := suite.f.container.Withdrawal
	suite.completeOrder("ORD-1", "P1")
	w := suite.submit("P1", 10000)
	_, err := svc.StartReview(suite.ctx, w.WithdrawalID, operator)
	suite.Require().NoError(err)
	_, err = svc.ReviewWithdrawal(suite.ctx, w.WithdrawalID, dto.ReviewWithdrawalRequest{Decision: dto.DecisionApprove, Comment: "ok"}, operator)
	suite.Require().NoError(err)
	_, err = svc.InitiatePayment(suite.ctx, w.WithdrawalID, operator)
	suite.Require().NoError(err)

	// A submission for P1 is reading its balance.
	unlock, err := suite.f.locker.Lock(suite.ctx, "partner-withdrawal:P1")
	suite.Require().NoError(err)

	done := make(chan error, 1)
	go func() {
		_, err := svc.MarkPaymentSucceeded(suite.ctx, w.WithdrawalID, operator)
		done <- err
	}()

	select {
	case err := <-done:
		unlock()
		suite.FailNow("payment outcome recorded while the partner balance was being read", "err: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
	suite.Equal(domain.WithdrawalProcessing, suite.status(w.WithdrawalID))

	unlock()
	suite.Require().NoError(<-done)
	suite.Equal(domain.WithdrawalSuccess, suite.status(w.WithdrawalID))
	suite.Equal(dto.PartnerBalance{PartnerID: "P1", Payable: 2240, Available: 2240}, suite.payable("P1"))
}

func (suite *WithdrawalServiceTestSuite) status(withdrawalID string) domain.WithdrawalStatus {
	w, err := suite.f.container.Withdrawal.GetWithdrawal(suite.ctx, withdrawalID)
	suite.Require().NoError(err)
	return w.Status
}

func (suite *WithdrawalServiceTestSuite) TestSubmitWithdrawal_InsufficientBalance() {
	suite.completeOrder("ORD-1", "P1")
	suite.submit("P1", 10000)

	// Only 22.40 is left once the first request is reserved.
	_, err := suite.f.container.Withdrawal.SubmitWithdrawal(suite.ctx, dto.SubmitWithdrawalRequest{
		PartnerID:   "P1",
		Amount:      2241,
		AccountType: string(domain.AccountPersonal),
	}, operator)
	suite.ErrorIs(err, apperrors.ErrInsufficientBalance)

	_, err = suite.f.container.Withdrawal.SubmitWithdrawal(suite.ctx, dto.SubmitWithdrawalRequest{
		PartnerID:   "P2",
		Amount:      1,
		AccountType: string(domain.AccountPersonal),
	}, operator)
	suite.ErrorIs(err, apperrors.ErrInsufficientBalance)
}

func (suite *WithdrawalServiceTestSuite) TestSubmitWithdrawal_EnterpriseNeedsInvoice() {
	suite.completeOrder("ORD-1", "P1")
	_, err := suite.f.container.Withdrawal.SubmitWithdrawal(suite.ctx, dto.SubmitWithdrawalRequest{
		PartnerID:   "P1",
		Amount:      5000,
		AccountType: string(domain.AccountEnterprise),
	}, operator)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.Equal("required", apperrors.Code(err))

	w, err := suite.f.container.Withdrawal.SubmitWithdrawal(suite.ctx, dto.SubmitWithdrawalRequest{
		PartnerID:   "P1",
		Amount:      5000,
		AccountType: string(domain.AccountEnterprise),
		Invoice:     &dto.WithdrawalInvoiceRequest{InvoiceNumber: "INV-77", Amount: 5000, IssuedAt: flowStart},
	}, operator)
	suite.Require().NoError(err)
	suite.Require().NotNil(w.Invoice)
	suite.Equal("INV-77", w.Invoice.InvoiceNumber)
}

func (suite *WithdrawalServiceTestSuite) TestReasonLength() {
	suite.completeOrder("ORD-1", "P1")
	tests := []struct {
		name    string
		reason  string
		wantErr bool
	}{
		{name: "nine characters", reason: "too short", wantErr: true},
		{name: "ten characters", reason: "not enough", wantErr: false},
		{name: "padded nine characters", reason: "  too short  ", wantErr: true},
	}

	for _, tc := range tests {
		suite.Run("reject "+tc.name, func() {
			w := suite.submit("P1", 100)
			got, err := suite.f.container.Withdrawal.ReviewWithdrawal(suite.ctx, w.WithdrawalID,
				dto.ReviewWithdrawalRequest{Decision: dto.DecisionReject, Reason: tc.reason}, operator)
			if tc.wantErr {
				suite.ErrorIs(err, apperrors.ErrValidation)
				suite.Equal(apperrors.CodeReasonTooShort, apperrors.Code(err))
				return
			}
			suite.Require().NoError(err)
			suite.Equal(domain.WithdrawalRejected, got.Status)
		})
		suite.Run("close "+tc.name, func() {
			w := suite.submit("P1", 100)
			got, err := suite.f.container.Withdrawal.CloseWithdrawal(suite.ctx, w.WithdrawalID, tc.reason, operator)
			if tc.wantErr {
				suite.Equal(apperrors.CodeReasonTooShort, apperrors.Code(err))
				return
			}
			suite.Require().NoError(err)
			suite.Equal(domain.WithdrawalClosed, got.Status)
		})
	}
}

func (suite *WithdrawalServiceTestSuite) TestRejectedRequestReleasesReservation() {
	suite.completeOrder("ORD-1", "P1")
	w := suite.submit("P1", 12240)
	suite.Equal(int64(0), suite.payable("P1").Available)

	_, err := suite.f.container.Withdrawal.ReviewWithdrawal(suite.ctx, w.WithdrawalID,
		dto.ReviewWithdrawalRequest{Decision: dto.DecisionReject, Comment: "bank details do not match"}, operator)
	suite.Require().NoError(err)
	suite.Equal(int64(12240), suite.payable("P1").Available)
}

func (suite *WithdrawalServiceTestSuite) TestInvalidTransitions() {
	suite.completeOrder("ORD-1", "P1")
	w := suite.submit("P1", 100)
	svc := suite.f.container.Withdrawal

	_, err := svc.InitiatePayment(suite.ctx, w.WithdrawalID, operator)
	suite.ErrorIs(err, apperrors.ErrInvalidState)
	_, err = svc.MarkPaymentSucceeded(suite.ctx, w.WithdrawalID, operator)
	suite.ErrorIs(err, apperrors.ErrInvalidState)
	_, err = svc.RetryWithdrawalPayment(suite.ctx, w.WithdrawalID, operator)
	suite.ErrorIs(err, apperrors.ErrInvalidState)
	_, err = svc.StartReview(suite.ctx, "missing", operator)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *WithdrawalServiceTestSuite) TestBatchReview_KeepsRequestOrder() {
	suite.completeOrder("ORD-1", "P1")
	first := suite.submit("P1", 100)
	second := suite.submit("P1", 200)
	_, err := suite.f.container.Withdrawal.CloseWithdrawal(suite.ctx, second.WithdrawalID, "partner asked to cancel", operator)
	suite.Require().NoError(err)
	third := suite.submit("P1", 300)

	ids := []string{first.WithdrawalID, "does-not-exist", second.WithdrawalID, third.WithdrawalID}
	result, err := suite.f.container.Withdrawal.BatchReview(suite.ctx, dto.BatchReviewRequest{
		WithdrawalIDs:           ids,
		ReviewWithdrawalRequest: dto.ReviewWithdrawalRequest{Decision: dto.DecisionApprove},
	}, operator)
	suite.Require().NoError(err)
	suite.Require().Len(result.Results, len(ids))
	for i, id := range ids {
		suite.Equal(id, result.Results[i].WithdrawalID)
	}
	suite.True(result.Results[0].Success)
	suite.Equal(string(domain.WithdrawalApproved), result.Results[0].Status)
	suite.Equal("not_found", result.Results[1].Code)
	suite.Equal("invalid_state", result.Results[2].Code)
	suite.True(result.Results[3].Success)
	suite.Equal(2, result.Succeeded)
	suite.Equal(2, result.Failed)
}

func (suite *WithdrawalServiceTestSuite) TestBatchReview_RejectNeedsReasonUpFront() {
	_, err := suite.f.container.Withdrawal.BatchReview(suite.ctx, dto.BatchReviewRequest{
		WithdrawalIDs:           []string{"a", "b"},
		ReviewWithdrawalRequest: dto.ReviewWithdrawalRequest{Decision: dto.DecisionReject, Reason: "nope"},
	}, operator)
	suite.Equal(apperrors.CodeReasonTooShort, apperrors.Code(err))
}

func (suite *WithdrawalServiceTestSuite) TestBatchInitiatePaymentAndRetry() {
	suite.completeOrder("ORD-1", "P1")
	svc := suite.f.container.Withdrawal
	var ids []string
	for _, amount := range []int64{100, 200} {
		w := suite.submit("P1", amount)
		_, err := svc.ReviewWithdrawal(suite.ctx, w.WithdrawalID, dto.ReviewWithdrawalRequest{Decision: dto.DecisionApprove}, operator)
		suite.Require().NoError(err)
		ids = append(ids, w.WithdrawalID)
	}

	result, err := svc.BatchInitiatePayment(suite.ctx, ids, operator)
	suite.Require().NoError(err)
	suite.Equal(2, result.Succeeded)

	_, err = svc.MarkPaymentFailed(suite.ctx, ids[0], "account frozen", operator)
	suite.Require().NoError(err)

	result, err = svc.BatchRetry(suite.ctx, ids, operator)
	suite.Require().NoError(err)
	suite.True(result.Results[0].Success)
	suite.Equal(string(domain.WithdrawalProcessing), result.Results[0].Status)
	suite.False(result.Results[1].Success)
	suite.Equal("invalid_state", result.Results[1].Code)
}

func (suite *WithdrawalServiceTestSuite) TestListWithdrawals() {
	suite.completeOrder("ORD-1", "P1")
	suite.submit("P1", 100)
	suite.submit("P1", 200)

	all, err := suite.f.container.Withdrawal.ListWithdrawals(suite.ctx, dto.ListWithdrawalsParams{PartnerID: "P1"})
	suite.Require().NoError(err)
	suite.Len(all, 2)
	// Newest first.
	suite.Equal(domain.Money(200), all[0].Amount)

	_, err = suite.f.container.Withdrawal.ListWithdrawals(suite.ctx, dto.ListWithdrawalsParams{Status: "paid"})
	suite.ErrorIs(err, apperrors.ErrValidation)
}
