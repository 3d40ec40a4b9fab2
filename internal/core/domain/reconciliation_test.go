package domain_test

import (
	"testing"
	"time"

	"github.com/SscSPs/partner_settlement_app/internal/apperrors"
	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func moneyPtr(m domain.Money) *domain.Money {
	return &m
}

func TestSupplierCostReconciliation_Recompute(t *testing.T) {
	tests := []struct {
		name       string
		systemP0   domain.Money
		bill       domain.Money
		wantDiff   domain.Money
		wantStatus domain.ReconciliationStatus
	}{
		{name: "matching bill", systemP0: 120000, bill: 120000, wantDiff: 0, wantStatus: domain.StatusReconciled},
		{name: "supplier billed more", systemP0: 120000, bill: 121000, wantDiff: 1000, wantStatus: domain.StatusDifference},
		{name: "supplier billed less", systemP0: 120000, bill: 119500, wantDiff: -500, wantStatus: domain.StatusDifference},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := domain.NewSupplierCostReconciliation("rec-1", "ORD-1", "HotelBeds", testNow)
			assert.Equal(t, domain.StatusPending, r.Status)

			r, err := r.Recompute(tt.systemP0, tt.bill, testNow)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDiff, r.Difference())
			assert.Equal(t, tt.wantStatus, r.Status)
			require.NoError(t, domain.CheckBalanceInvariant(r))

			again, err := r.Recompute(tt.systemP0, tt.bill, testNow.Add(time.Hour))
			require.NoError(t, err)
			assert.Equal(t, r.Difference(), again.Difference())
			assert.Equal(t, r.Status, again.Status)
		})
	}
}

func TestDiffOrderSets(t *testing.T) {
	platform := []domain.OrderAmount{
		{OrderID: "ORD-3", Amount: 30000},
		{OrderID: "ORD-1", Amount: 10000},
		{OrderID: "ORD-2", Amount: 20000},
	}
	channel := []domain.OrderAmount{
		{OrderID: "ORD-2", Amount: 19000},
		{OrderID: "ORD-1", Amount: 10000},
		{OrderID: "ORD-4", Amount: 5000},
	}

	platformTotal, channelTotal, diffs := domain.DiffOrderSets(platform, channel)

	assert.Equal(t, domain.Money(60000), platformTotal)
	assert.Equal(t, domain.Money(34000), channelTotal)
	assert.Equal(t, []domain.DifferenceOrder{
		{OrderID: "ORD-2", PlatformAmount: moneyPtr(20000), ChannelAmount: moneyPtr(19000), Type: domain.DifferenceAmount},
		{OrderID: "ORD-3", PlatformAmount: moneyPtr(30000), Type: domain.DifferencePlatformOnly},
		{OrderID: "ORD-4", ChannelAmount: moneyPtr(5000), Type: domain.DifferenceChannelOnly},
	}, diffs)
}

func TestPaymentChannelReconciliation_Statuses(t *testing.T) {
	day := domain.DayPeriod(testNow)
	tests := []struct {
		name       string
		platform   []domain.OrderAmount
		channel    []domain.OrderAmount
		wantStatus domain.ReconciliationStatus
	}{
		{
			name:       "balanced",
			platform:   []domain.OrderAmount{{OrderID: "A", Amount: 100}},
			channel:    []domain.OrderAmount{{OrderID: "A", Amount: 100}},
			wantStatus: domain.StatusBalanced,
		},
		{
			name:       "platform more",
			platform:   []domain.OrderAmount{{OrderID: "A", Amount: 100}, {OrderID: "B", Amount: 50}},
			channel:    []domain.OrderAmount{{OrderID: "A", Amount: 100}},
			wantStatus: domain.StatusPlatformMore,
		},
		{
			name:       "channel more",
			platform:   []domain.OrderAmount{{OrderID: "A", Amount: 100}},
			channel:    []domain.OrderAmount{{OrderID: "A", Amount: 120}},
			wantStatus: domain.StatusChannelMore,
		},
		{
			name:       "empty day",
			wantStatus: domain.StatusBalanced,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := domain.NewPaymentChannelReconciliation("rec-2", "alipay", day, testNow)
			assert.Equal(t, "payment_channel:alipay:2025-03-14", r.UnitKey)

			r, err := r.Recompute(tt.platform, tt.channel, testNow)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, r.Status)
			require.NoError(t, domain.CheckBalanceInvariant(r))
		})
	}
}

func TestWithdrawalReconciliation_Recompute(t *testing.T) {
	month := domain.MonthPeriod(testNow)
	r := domain.NewWithdrawalReconciliation("rec-3", "P001", month, testNow)
	assert.Equal(t, "withdrawal:P001:2025-03", r.UnitKey)

	r, err := r.Recompute(
		[]domain.WithdrawalRecord{{WithdrawalID: "W1", Amount: 5000}, {WithdrawalID: "W2", Amount: 3000}},
		[]domain.DeductionRecord{{DeductionID: "D1", WithdrawalID: "W1", Amount: 5000}},
		testNow,
	)
	require.NoError(t, err)
	assert.Equal(t, domain.Money(8000), r.WithdrawalAmount)
	assert.Equal(t, domain.Money(5000), r.AccountDeductionAmount)
	assert.Equal(t, domain.Money(3000), r.Difference())
	assert.Equal(t, domain.StatusWithdrawalMore, r.Status)
}

func TestInvoiceReconciliation_Recompute(t *testing.T) {
	month := domain.MonthPeriod(testNow)
	r := domain.NewInvoiceReconciliation("rec-4", month, testNow)

	r, err := r.Recompute(134640, domain.CostProfitBreakdown{SupplierCost: 120000, PartnerProfit: 12240, PlatformProfit: 2400}, testNow)
	require.NoError(t, err)
	assert.Equal(t, domain.Money(134640), r.TotalCostProfit)
	assert.Equal(t, domain.StatusBalanced, r.Status)

	r, err = r.Recompute(134000, domain.CostProfitBreakdown{SupplierCost: 120000, PartnerProfit: 12240, PlatformProfit: 2400}, testNow)
	require.NoError(t, err)
	assert.Equal(t, domain.Money(-640), r.Difference())
	assert.Equal(t, domain.StatusCostMore, r.Status)
}

func TestResolve(t *testing.T) {
	r := domain.NewSupplierCostReconciliation("rec-1", "ORD-1", "HotelBeds", testNow)
	r, err := r.Recompute(120000, 121000, testNow)
	require.NoError(t, err)

	_, err = domain.Resolve(r, "   ", "ops", testNow)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	resolved, err := domain.Resolve(r, "supplier added a city tax", "ops", testNow)
	require.NoError(t, err)
	h := resolved.Header()
	assert.Equal(t, domain.StatusResolved, h.Status)
	require.NotNil(t, h.Resolution)
	assert.Equal(t, "ops", h.Resolution.ResolvedBy)
	assert.Equal(t, domain.Money(1000), resolved.Difference(), "resolution keeps the difference")

	_, err = domain.Resolve(resolved, "again", "ops", testNow)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyResolved)

	_, err = resolved.(domain.SupplierCostReconciliation).Recompute(120000, 120000, testNow)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestResolve_BalancedIsInvalidState(t *testing.T) {
	r := domain.NewSupplierCostReconciliation("rec-1", "ORD-1", "HotelBeds", testNow)
	_, err := domain.Resolve(r, "nothing to explain", "ops", testNow)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)

	r, err = r.Recompute(100, 100, testNow)
	require.NoError(t, err)
	_, err = domain.Resolve(r, "nothing to explain", "ops", testNow)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestResolutionAdjustments(t *testing.T) {
	day := domain.DayPeriod(testNow)
	month := domain.MonthPeriod(testNow)

	supplier, err := domain.NewSupplierCostReconciliation("r1", "ORD-1", "HotelBeds", testNow).Recompute(1000, 1500, testNow)
	require.NoError(t, err)
	channel, err := domain.NewPaymentChannelReconciliation("r2", "alipay", day, testNow).Recompute(
		[]domain.OrderAmount{{OrderID: "A", Amount: 1000}}, []domain.OrderAmount{{OrderID: "A", Amount: 800}}, testNow)
	require.NoError(t, err)
	withdrawal, err := domain.NewWithdrawalReconciliation("r3", "P001", month, testNow).Recompute(
		[]domain.WithdrawalRecord{{WithdrawalID: "W1", Amount: 300}}, nil, testNow)
	require.NoError(t, err)
	invoice, err := domain.NewInvoiceReconciliation("r4", month, testNow).Recompute(100, domain.CostProfitBreakdown{SupplierCost: 50}, testNow)
	require.NoError(t, err)

	tests := []struct {
		name        string
		r           domain.Reconciliation
		wantAccount domain.LedgerAccount
		wantSigned  domain.Money
	}{
		{name: "supplier cost", r: supplier, wantAccount: domain.LedgerPayableSupplier, wantSigned: 500},
		{name: "payment channel", r: channel, wantAccount: domain.LedgerActualRevenue, wantSigned: -200},
		{name: "withdrawal", r: withdrawal, wantAccount: domain.LedgerPlatformFunds, wantSigned: 300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := domain.ResolutionAdjustments(tt.r, "ops", testNow)
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, tt.wantAccount, entries[0].Account)
			assert.Equal(t, tt.wantSigned, entries[0].Signed())
			assert.Equal(t, domain.EntryReconciliationAdjustment, entries[0].Kind)
			assert.Equal(t, tt.r.Header().ID, entries[0].RelatedEntityID)
		})
	}

	entries, err := domain.ResolutionAdjustments(invoice, "ops", testNow)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNewReconciliation_CreatedAtAtMicrosecondPrecision(t *testing.T) {
	now := time.Date(2025, 4, 2, 8, 0, 0, 123456789, time.UTC)
	want := time.Date(2025, 4, 2, 8, 0, 0, 123456000, time.UTC)

	records := []domain.Reconciliation{
		domain.NewSupplierCostReconciliation("rec-1", "ORD-1", "HotelBeds", now),
		domain.NewPaymentChannelReconciliation("rec-2", "alipay", domain.DayPeriod(now), now),
		domain.NewWithdrawalReconciliation("rec-3", "P1", domain.MonthPeriod(now), now),
		domain.NewInvoiceReconciliation("rec-4", domain.MonthPeriod(now), now),
	}
	for _, r := range records {
		assert.True(t, want.Equal(r.Header().CreatedAt), "%s created at %s", r.Header().ID, r.Header().CreatedAt)
		assert.True(t, want.Equal(r.Header().UpdatedAt))
	}
}

func TestPeriod(t *testing.T) {
	month := domain.MonthPeriod(time.Date(2025, 12, 31, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, "2025-12", month.MonthKey())
	assert.True(t, month.Contains(time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, month.Contains(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
}
