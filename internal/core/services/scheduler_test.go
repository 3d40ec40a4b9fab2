package services_test

import (
	"context"
	"testing"

	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
	"github.com/SscSPs/partner_settlement_app/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(f *fixture, channels ...string) *services.ReconciliationScheduler {
	return services.NewReconciliationScheduler(f.container.Reconciliation, f.repos.Orders, f.repos.Withdrawals,
		f.repos.Reconciliations, channels, 0, 2, services.WithClock(f.clock.Now))
}

func TestScheduler_CountsUnavailableSources(t *testing.T) {
	ctx := context.Background()
	f := newFixture(reconStart)
	f.source.SetUnavailable(domain.KindPaymentChannel, true)

	summary, err := newTestScheduler(f, "alipay").RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, services.RunSummary{Attempted: 2, Succeeded: 1, Unavailable: 1}, summary)

	// The unreachable unit is still listed, in progress.
	yesterday := domain.DayPeriod(reconStart.AddDate(0, 0, -1))
	pending, err := f.repos.Reconciliations.FindReconciliationByUnitKey(ctx, domain.PaymentChannelUnitKey("alipay", yesterday))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReconciling, pending.Header().Status)
}

func TestScheduler_SkipsSettledSupplierCosts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(reconStart)
	scheduler := newTestScheduler(f)

	order := completedOrder(t, f, "ORD-1", 120000)
	f.source.SetSupplierBill(order.OrderID, 120000)

	first, err := scheduler.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, services.RunSummary{Attempted: 2, Succeeded: 2}, first)

	rec, err := f.repos.Reconciliations.FindReconciliationByUnitKey(ctx, domain.SupplierCostUnitKey("ORD-1"))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReconciled, rec.Header().Status)

	// Only the invoice is due once the supplier cost has a final result.
	second, err := scheduler.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, services.RunSummary{Attempted: 1, Succeeded: 1}, second)
}

func TestScheduler_SkipsResolvedUnits(t *testing.T) {
	ctx := context.Background()
	f := newFixture(reconStart)
	scheduler := newTestScheduler(f, "alipay")

	yesterday := domain.DayPeriod(reconStart.AddDate(0, 0, -1))
	lastMonth := domain.MonthPeriod(domain.MonthPeriod(reconStart).Start.AddDate(0, 0, -1))
	f.source.SetChannelOrders("alipay", yesterday, []domain.OrderAmount{{OrderID: "ORD-9", Amount: 5000}})
	f.source.SetCustomerInvoice(lastMonth, 500)

	first, err := scheduler.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, services.RunSummary{Attempted: 2, Succeeded: 2}, first)

	for _, unitKey := range []string{domain.PaymentChannelUnitKey("alipay", yesterday), domain.InvoiceUnitKey(lastMonth)} {
		rec, err := f.repos.Reconciliations.FindReconciliationByUnitKey(ctx, unitKey)
		require.NoError(t, err)
		require.NotZero(t, rec.Difference(), unitKey)
		_, err = f.container.Reconciliation.ResolveDifference(ctx, rec.Header().ID, "confirmed with finance", operator)
		require.NoError(t, err)
	}

	second, err := scheduler.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, services.RunSummary{}, second)
}
