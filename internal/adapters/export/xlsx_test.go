package export_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/SscSPs/partner_settlement_app/internal/adapters/export"
	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestXLSXExporterWritesOneSheetPerKind(t *testing.T) {
	now := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	supplier, err := domain.NewSupplierCostReconciliation("r1", "ORD-1", "S1", now).Recompute(10000, 10500, now)
	require.NoError(t, err)
	invoice, err := domain.NewInvoiceReconciliation("r2", domain.MonthPeriod(now), now).
		Recompute(12000, domain.CostProfitBreakdown{SupplierCost: 10000, PartnerProfit: 1000, PlatformProfit: 1000}, now)
	require.NoError(t, err)

	exporter := export.NewXLSXExporter()
	var buf bytes.Buffer
	require.NoError(t, exporter.Export(context.Background(), &buf, []domain.Reconciliation{supplier, invoice}))
	assert.Equal(t, "xlsx", exporter.FileExtension())

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Supplier Cost", "Payment Channel", "Withdrawal", "Invoice"}, f.GetSheetList())

	rows, err := f.GetRows("Supplier Cost")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, "r1", rows[1][0])
	assert.Equal(t, string(domain.StatusDifference), rows[1][1])

	rows, err = f.GetRows("Payment Channel")
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	rows, err = f.GetRows("Invoice")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, string(domain.StatusBalanced), rows[1][1])
}
