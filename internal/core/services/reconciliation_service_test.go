package services_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/SscSPs/partner_settlement_app/internal/apperrors"
	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
	portsrepo "github.com/SscSPs/partner_settlement_app/internal/core/ports/repositories"
	"github.com/SscSPs/partner_settlement_app/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

var reconStart = time.Date(2025, 4, 2, 8, 0, 0, 0, time.UTC)

type ReconciliationServiceTestSuite struct {
	suite.Suite
	ctx context.Context
	f   *fixture
}

func TestReconciliationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReconciliationServiceTestSuite))
}

func (suite *ReconciliationServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.f = newFixture(reconStart)
}

func (suite *ReconciliationServiceTestSuite) recordOrder(orderID, channel string, paidAt time.Time, supplierCost int64) {
	_, err := suite.f.container.Order.RecordOrder(suite.ctx, dto.RecordOrderRequest{
		OrderID:        orderID,
		PartnerID:      "P1",
		SupplierName:   "Grand Hotel Supply",
		SupplierCost:   supplierCost,
		AccessMode:     string(domain.AccessModeAPI),
		MarkupRate:     decimal.RequireFromString("0.10"),
		PaymentChannel: channel,
		PaidAt:         paidAt,
	}, operator)
	suite.Require().NoError(err)
}

func (suite *ReconciliationServiceTestSuite) TestSupplierCost_RerunIsIdempotent() {
	svc := suite.f.container.Reconciliation
	suite.recordOrder("ORD-1", "alipay", reconStart, 120000)
	suite.f.source.SetSupplierBill("ORD-1", 120500)

	first, err := svc.RunSupplierCost(suite.ctx, "ORD-1")
	suite.Require().NoError(err)
	suite.Equal(domain.StatusDifference, first.Header().Status)
	suite.Equal(domain.Money(500), first.Difference())
	suite.Equal(int64(0), first.Header().Version)

	second, err := svc.RunSupplierCost(suite.ctx, "ORD-1")
	suite.Require().NoError(err)
	suite.Equal(first.Header().ID, second.Header().ID)
	suite.Equal(first.Difference(), second.Difference())
	suite.Equal(first.Header().Status, second.Header().Status)
	suite.Equal(int64(1), second.Header().Version)

	stored, err := svc.GetReconciliation(suite.ctx, first.Header().ID)
	suite.Require().NoError(err)
	suite.Equal(second.Header().Version, stored.Header().Version)
}

func (suite *ReconciliationServiceTestSuite) TestSupplierCost_Balanced() {
	suite.recordOrder("ORD-1", "alipay", reconStart, 120000)
	suite.f.source.SetSupplierBill("ORD-1", 120000)

	rec, err := suite.f.container.Reconciliation.RunSupplierCost(suite.ctx, "ORD-1")
	suite.Require().NoError(err)
	suite.Equal(domain.StatusReconciled, rec.Header().Status)
	suite.Zero(rec.Difference())
	suite.NotNil(rec.Header().ReconciledAt)

	// Only difference states can be resolved.
	_, err = suite.f.container.Reconciliation.ResolveDifference(suite.ctx, rec.Header().ID, "nothing to explain", operator)
	suite.ErrorIs(err, apperrors.ErrInvalidState)
}

func (suite *ReconciliationServiceTestSuite) TestResolveDifference() {
	svc := suite.f.container.Reconciliation
	suite.recordOrder("ORD-1", "alipay", reconStart, 120000)
	suite.f.source.SetSupplierBill("ORD-1", 120500)
	rec, err := svc.RunSupplierCost(suite.ctx, "ORD-1")
	suite.Require().NoError(err)

	_, err = svc.ResolveDifference(suite.ctx, rec.Header().ID, "   ", operator)
	suite.ErrorIs(err, apperrors.ErrValidation)

	resolved, err := svc.ResolveDifference(suite.ctx, rec.Header().ID, "late-night surcharge agreed with supplier", operator)
	suite.Require().NoError(err)
	h := resolved.Header()
	suite.Equal(domain.StatusResolved, h.Status)
	suite.Require().NotNil(h.Resolution)
	suite.Equal(operator, h.Resolution.ResolvedBy)
	suite.Equal(domain.Money(500), resolved.Difference())

	adjustments, err := suite.f.repos.Ledger.ListTransactions(suite.ctx, portsrepo.LedgerFilter{RelatedEntityID: h.ID})
	suite.Require().NoError(err)
	suite.Require().Len(adjustments, 1)
	suite.Equal(domain.LedgerPayableSupplier, adjustments[0].Account)
	suite.Equal(domain.DirectionIncrease, adjustments[0].Direction)
	suite.Equal(domain.Money(500), adjustments[0].Amount)

	_, err = svc.ResolveDifference(suite.ctx, h.ID, "second attempt", operator)
	suite.ErrorIs(err, apperrors.ErrAlreadyResolved)

	// A resolved unit is final; re-running it is refused.
	_, err = svc.RunSupplierCost(suite.ctx, "ORD-1")
	suite.ErrorIs(err, apperrors.ErrInvalidState)

	_, err = svc.ResolveDifference(suite.ctx, "missing", "text", operator)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *ReconciliationServiceTestSuite) TestSourceUnavailable() {
	svc := suite.f.container.Reconciliation
	suite.recordOrder("ORD-1", "alipay", reconStart, 120000)
	suite.f.source.SetUnavailable(domain.KindSupplierCost, true)

	_, err := svc.RunSupplierCost(suite.ctx, "ORD-1")
	suite.ErrorIs(err, apperrors.ErrSourceUnavailable)

	pending, err := suite.f.repos.Reconciliations.FindReconciliationByUnitKey(suite.ctx, domain.SupplierCostUnitKey("ORD-1"))
	suite.Require().NoError(err)
	suite.Equal(domain.StatusReconciling, pending.Header().Status)
	suite.Nil(pending.Header().ReconciledAt)

	suite.f.source.SetUnavailable(domain.KindSupplierCost, false)
	suite.f.source.SetSupplierBill("ORD-1", 119000)
	rec, err := svc.RunSupplierCost(suite.ctx, "ORD-1")
	suite.Require().NoError(err)
	suite.Equal(pending.Header().ID, rec.Header().ID)
	suite.Equal(domain.Money(-1000), rec.Difference())
}

func (suite *ReconciliationServiceTestSuite) TestPaymentChannel() {
	day := domain.DayPeriod(reconStart)
	suite.recordOrder("ORD-1", "alipay", day.Start.Add(time.Hour), 100000)
	suite.recordOrder("ORD-2", "alipay", day.Start.Add(2*time.Hour), 50000)
	suite.recordOrder("ORD-3", "wechat", day.Start.Add(2*time.Hour), 50000)
	suite.recordOrder("ORD-4", "alipay", day.End.Add(time.Hour), 50000)

	// 1000.00 -> 1020.00 -> 1122.00; 500.00 -> 510.00 -> 561.00
	suite.f.source.SetChannelOrders("alipay", day, []domain.OrderAmount{
		{OrderID: "ORD-1", Amount: 112200},
		{OrderID: "ORD-9", Amount: 1000},
	})

	rec, err := suite.f.container.Reconciliation.RunPaymentChannel(suite.ctx, "alipay", day)
	suite.Require().NoError(err)
	channelRec, ok := rec.(domain.PaymentChannelReconciliation)
	suite.Require().True(ok)
	suite.Equal(domain.Money(112200+56100), channelRec.PlatformOrderAmount)
	suite.Equal(domain.Money(113200), channelRec.ChannelOrderAmount)
	suite.Equal(domain.StatusPlatformMore, channelRec.Status)
	suite.Require().Len(channelRec.DifferenceOrders, 2)
	suite.Equal("ORD-2", channelRec.DifferenceOrders[0].OrderID)
	suite.Equal(domain.DifferencePlatformOnly, channelRec.DifferenceOrders[0].Type)
	suite.Equal("ORD-9", channelRec.DifferenceOrders[1].OrderID)
	suite.Equal(domain.DifferenceChannelOnly, channelRec.DifferenceOrders[1].Type)
}

func (suite *ReconciliationServiceTestSuite) TestInvoice() {
	month := domain.MonthPeriod(reconStart)
	suite.recordOrder("ORD-1", "alipay", reconStart, 120000)
	_, err := suite.f.container.Order.TransitionOrderStatus(suite.ctx, "ORD-1", domain.OrderCompleted, operator)
	suite.Require().NoError(err)
	// cost 1200.00 + partner 122.40 + platform 24.00
	suite.f.source.SetCustomerInvoice(month, 134640)

	rec, err := suite.f.container.Reconciliation.RunInvoice(suite.ctx, month)
	suite.Require().NoError(err)
	suite.Equal(domain.StatusBalanced, rec.Header().Status)

	suite.f.source.SetCustomerInvoice(month, 134000)
	rec, err = suite.f.container.Reconciliation.RunInvoice(suite.ctx, month)
	suite.Require().NoError(err)
	suite.Equal(domain.StatusCostMore, rec.Header().Status)
	suite.Equal(domain.Money(-640), rec.Difference())
}

func (suite *ReconciliationServiceTestSuite) TestRunDispatchesByKind() {
	_, err := suite.f.container.Reconciliation.Run(suite.ctx, dto.RunReconciliationRequest{Kind: "bogus"})
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.f.container.Reconciliation.Run(suite.ctx, dto.RunReconciliationRequest{Kind: string(domain.KindSupplierCost), OrderID: "nope"})
	suite.ErrorIs(err, apperrors.ErrNotFound)

	rec, err := suite.f.container.Reconciliation.Run(suite.ctx, dto.RunReconciliationRequest{
		Kind:      string(domain.KindWithdrawal),
		PartnerID: "P1",
		Date:      reconStart,
	})
	suite.Require().NoError(err)
	suite.Equal(domain.WithdrawalUnitKey("P1", domain.MonthPeriod(reconStart)), rec.Header().UnitKey)
	suite.Equal(domain.StatusBalanced, rec.Header().Status)
}

func (suite *ReconciliationServiceTestSuite) TestListReconciliations_Pages() {
	svc := suite.f.container.Reconciliation
	for i := 0; i < 3; i++ {
		_, err := svc.RunPaymentChannel(suite.ctx, "alipay", domain.DayPeriod(reconStart.AddDate(0, 0, -i)))
		suite.Require().NoError(err)
	}

	page, err := svc.ListReconciliations(suite.ctx, dto.ListReconciliationsParams{Kind: string(domain.KindPaymentChannel), Limit: 2})
	suite.Require().NoError(err)
	suite.Len(page.Items, 2)
	suite.Require().NotNil(page.NextToken)

	rest, err := svc.ListReconciliations(suite.ctx, dto.ListReconciliationsParams{
		Kind:      string(domain.KindPaymentChannel),
		Limit:     2,
		NextToken: *page.NextToken,
	})
	suite.Require().NoError(err)
	suite.Len(rest.Items, 1)
	suite.Nil(rest.NextToken)

	seen := map[string]bool{}
	for _, item := range append(page.Items, rest.Items...) {
		seen[item.Record.Header().ID] = true
	}
	suite.Len(seen, 3)

	_, err = svc.ListReconciliations(suite.ctx, dto.ListReconciliationsParams{Kind: string(domain.KindPaymentChannel), Status: string(domain.StatusDifference)})
	suite.ErrorIs(err, apperrors.ErrValidation)
	_, err = svc.ListReconciliations(suite.ctx, dto.ListReconciliationsParams{NextToken: "%%%"})
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *ReconciliationServiceTestSuite) TestExportWithoutExporter() {
	var buf bytes.Buffer
	_, _, err := suite.f.container.Reconciliation.ExportReconciliations(suite.ctx, dto.ListReconciliationsParams{}, &buf)
	suite.Error(err)
}
