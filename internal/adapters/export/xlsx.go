// Package export renders reconciliation records into files finance staff open
// in a spreadsheet.
package export

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
	"github.com/SscSPs/partner_settlement_app/internal/core/ports/gateways"
	"github.com/xuri/excelize/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var sheetNames = map[domain.ReconciliationKind]string{
	domain.KindSupplierCost:   "Supplier Cost",
	domain.KindPaymentChannel: "Payment Channel",
	domain.KindWithdrawal:     "Withdrawal",
	domain.KindInvoice:        "Invoice",
}

var commonHeadings = []string{"ID", "Status", "Created At", "Reconciled At", "Resolution", "Resolved By"}

var kindHeadings = map[domain.ReconciliationKind][]string{
	domain.KindSupplierCost:   {"Order ID", "Supplier", "System P0", "Supplier Bill", "Difference"},
	domain.KindPaymentChannel: {"Date", "Channel", "Platform Amount", "Channel Amount", "Difference", "Difference Orders"},
	domain.KindWithdrawal:     {"Month", "Partner", "Withdrawal Amount", "Account Deductions", "Difference"},
	domain.KindInvoice:        {"Month", "Customer Invoices", "Supplier Cost", "Partner Profit", "Platform Profit", "Cost + Profit", "Difference"},
}

// XLSXExporter writes one sheet per reconciliation kind.
type XLSXExporter struct{}

// NewXLSXExporter creates an exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

var _ gateways.ReconciliationExporter = (*XLSXExporter)(nil)

func (e *XLSXExporter) ContentType() string   { return xlsxContentType }
func (e *XLSXExporter) FileExtension() string { return "xlsx" }

// rowVisitor turns a record into its variant-specific cells.
type rowVisitor struct {
	cells []any
}

func (v *rowVisitor) VisitSupplierCost(r domain.SupplierCostReconciliation) error {
	v.cells = []any{r.OrderID, r.SupplierName, r.SystemP0.String(), r.SupplierBillAmount.String(), r.DifferenceAmount.String()}
	return nil
}

func (v *rowVisitor) VisitPaymentChannel(r domain.PaymentChannelReconciliation) error {
	v.cells = []any{r.ReconciliationDate.Format("2006-01-02"), r.Channel, r.PlatformOrderAmount.String(),
		r.ChannelOrderAmount.String(), r.DifferenceAmount.String(), len(r.DifferenceOrders)}
	return nil
}

func (v *rowVisitor) VisitWithdrawal(r domain.WithdrawalReconciliation) error {
	v.cells = []any{r.ReconciliationMonth, r.PartnerID, r.WithdrawalAmount.String(),
		r.AccountDeductionAmount.String(), r.DifferenceAmount.String()}
	return nil
}

func (v *rowVisitor) VisitInvoice(r domain.InvoiceReconciliation) error {
	v.cells = []any{r.ReconciliationMonth, r.CustomerInvoiceAmount.String(), r.SupplierCostAmount.String(),
		r.PartnerProfitAmount.String(), r.PlatformProfitAmount.String(), r.TotalCostProfit.String(), r.DifferenceAmount.String()}
	return nil
}

func headerCells(h domain.ReconciliationHeader) []any {
	reconciledAt, resolution, resolvedBy := "", "", ""
	if h.ReconciledAt != nil {
		reconciledAt = h.ReconciledAt.Format(time.RFC3339)
	}
	if h.Resolution != nil {
		resolution = h.Resolution.Text
		resolvedBy = h.Resolution.ResolvedBy
	}
	return []any{h.ID, string(h.Status), h.CreatedAt.Format(time.RFC3339), reconciledAt, resolution, resolvedBy}
}

func (e *XLSXExporter) Export(ctx context.Context, w io.Writer, records []domain.Reconciliation) error {
	f := excelize.NewFile()
	defer f.Close()

	rows := make(map[domain.ReconciliationKind]int)
	for _, kind := range domain.ReconciliationKinds {
		sheet := sheetNames[kind]
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}
		headings := append(append([]string{}, commonHeadings...), kindHeadings[kind]...)
		if err := f.SetSheetRow(sheet, "A1", &headings); err != nil {
			return fmt.Errorf("failed to write headings of %s: %w", sheet, err)
		}
		rows[kind] = 1
	}
	// NewFile starts with a default sheet we do not use.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		v := &rowVisitor{}
		if err := r.Accept(v); err != nil {
			return err
		}
		kind := r.Kind()
		rows[kind]++
		cells := append(headerCells(r.Header()), v.cells...)
		cell, err := excelize.CoordinatesToCellName(1, rows[kind])
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetNames[kind], cell, &cells); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", rows[kind], sheetNames[kind], err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
