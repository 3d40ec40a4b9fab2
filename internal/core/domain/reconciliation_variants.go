package domain

import (
	"sort"
	"time"
)

// Unit keys.

func SupplierCostUnitKey(orderID string) string {
	return string(KindSupplierCost) + ":" + orderID
}

func PaymentChannelUnitKey(channel string, day Period) string {
	return string(KindPaymentChannel) + ":" + channel + ":" + day.DayKey()
}

func WithdrawalUnitKey(partnerID string, month Period) string {
	return string(KindWithdrawal) + ":" + partnerID + ":" + month.MonthKey()
}

func InvoiceUnitKey(month Period) string {
	return string(KindInvoice) + ":" + month.MonthKey()
}

// SupplierCostReconciliation compares the system's P0 for one order with the
// supplier's bill.
type SupplierCostReconciliation struct {
	ReconciliationHeader
	OrderID            string `json:"orderID"`
	SupplierName       string `json:"supplierName"`
	SystemP0           Money  `json:"systemP0"`
	SupplierBillAmount Money  `json:"supplierBillAmount"`
	// DifferenceAmount is supplierBillAmount - systemP0.
	DifferenceAmount Money `json:"differenceAmount"`
}

// NewSupplierCostReconciliation opens a pending record for one order.
func NewSupplierCostReconciliation(id, orderID, supplierName string, now time.Time) SupplierCostReconciliation {
	return SupplierCostReconciliation{
		ReconciliationHeader: newHeader(id, SupplierCostUnitKey(orderID), KindSupplierCost, now),
		OrderID:              orderID,
		SupplierName:         supplierName,
	}
}

func (r SupplierCostReconciliation) Kind() ReconciliationKind     { return KindSupplierCost }
func (r SupplierCostReconciliation) Header() ReconciliationHeader { return r.ReconciliationHeader }
func (r SupplierCostReconciliation) Difference() Money            { return r.DifferenceAmount }
func (r SupplierCostReconciliation) Accept(v ReconciliationVisitor) error {
	return v.VisitSupplierCost(r)
}
func (r SupplierCostReconciliation) withHeader(h ReconciliationHeader) Reconciliation {
	r.ReconciliationHeader = h
	return r
}

// Recompute applies a fresh pair of sides. Running it twice with the same
// sides yields the same difference and status.
func (r SupplierCostReconciliation) Recompute(systemP0, supplierBill Money, now time.Time) (SupplierCostReconciliation, error) {
	difference := supplierBill - systemP0
	h, err := settle(r.ReconciliationHeader, KindSupplierCost, difference, now)
	if err != nil {
		return r, err
	}
	r.ReconciliationHeader = h
	r.SystemP0 = systemP0
	r.SupplierBillAmount = supplierBill
	r.DifferenceAmount = difference
	return r, nil
}

// DifferenceOrderType classifies an order-level mismatch.
type DifferenceOrderType string

const (
	DifferencePlatformOnly DifferenceOrderType = "platform_only"
	DifferenceChannelOnly  DifferenceOrderType = "channel_only"
	DifferenceAmount       DifferenceOrderType = "amount_diff"
)

// DifferenceOrder is one order that does not match between platform and channel.
type DifferenceOrder struct {
	OrderID        string              `json:"orderID"`
	PlatformAmount *Money              `json:"platformAmount,omitempty"`
	ChannelAmount  *Money              `json:"channelAmount,omitempty"`
	Type           DifferenceOrderType `json:"type"`
}

// OrderAmount is one order-level amount on either side of a channel comparison.
type OrderAmount struct {
	OrderID string `json:"orderID"`
	Amount  Money  `json:"amount"`
}

// DiffOrderSets joins both sides on orderId. Orders present on one side only
// are platform_only or channel_only; orders on both sides with different
// amounts are amount_diff. Output is sorted by orderId.
func DiffOrderSets(platform, channel []OrderAmount) (platformTotal, channelTotal Money, diffs []DifferenceOrder) {
	platformByID := make(map[string]Money, len(platform))
	for _, p := range platform {
		platformByID[p.OrderID] += p.Amount
		platformTotal += p.Amount
	}
	channelByID := make(map[string]Money, len(channel))
	for _, c := range channel {
		channelByID[c.OrderID] += c.Amount
		channelTotal += c.Amount
	}

	diffs = []DifferenceOrder{}
	for id, pAmount := range platformByID {
		pa := pAmount
		cAmount, ok := channelByID[id]
		if !ok {
			diffs = append(diffs, DifferenceOrder{OrderID: id, PlatformAmount: &pa, Type: DifferencePlatformOnly})
			continue
		}
		if cAmount != pAmount {
			ca := cAmount
			diffs = append(diffs, DifferenceOrder{OrderID: id, PlatformAmount: &pa, ChannelAmount: &ca, Type: DifferenceAmount})
		}
	}
	for id, cAmount := range channelByID {
		if _, ok := platformByID[id]; ok {
			continue
		}
		ca := cAmount
		diffs = append(diffs, DifferenceOrder{OrderID: id, ChannelAmount: &ca, Type: DifferenceChannelOnly})
	}
	sort.Slice(diffs, func(i, j int) bool { return diffs[i].OrderID < diffs[j].OrderID })
	return platformTotal, channelTotal, diffs
}

// PaymentChannelReconciliation compares a day's platform orders for one
// payment channel with the channel's settlement.
type PaymentChannelReconciliation struct {
	ReconciliationHeader
	ReconciliationDate  time.Time         `json:"reconciliationDate"`
	Channel             string            `json:"channel"`
	PlatformOrderAmount Money             `json:"platformOrderAmount"`
	ChannelOrderAmount  Money             `json:"channelOrderAmount"`
	DifferenceAmount    Money             `json:"differenceAmount"`
	DifferenceOrders    []DifferenceOrder `json:"differenceOrders"`
}

// NewPaymentChannelReconciliation opens a record for a channel and day.
func NewPaymentChannelReconciliation(id, channel string, day Period, now time.Time) PaymentChannelReconciliation {
	return PaymentChannelReconciliation{
		ReconciliationHeader: newHeader(id, PaymentChannelUnitKey(channel, day), KindPaymentChannel, now),
		ReconciliationDate:   day.Start,
		Channel:              channel,
		DifferenceOrders:     []DifferenceOrder{},
	}
}

func (r PaymentChannelReconciliation) Kind() ReconciliationKind     { return KindPaymentChannel }
func (r PaymentChannelReconciliation) Header() ReconciliationHeader { return r.ReconciliationHeader }
func (r PaymentChannelReconciliation) Difference() Money            { return r.DifferenceAmount }
func (r PaymentChannelReconciliation) Accept(v ReconciliationVisitor) error {
	return v.VisitPaymentChannel(r)
}
func (r PaymentChannelReconciliation) withHeader(h ReconciliationHeader) Reconciliation {
	r.ReconciliationHeader = h
	return r
}

// Recompute diffs the platform and channel order sets.
func (r PaymentChannelReconciliation) Recompute(platform, channel []OrderAmount, now time.Time) (PaymentChannelReconciliation, error) {
	platformTotal, channelTotal, diffs := DiffOrderSets(platform, channel)
	difference := platformTotal - channelTotal
	h, err := settle(r.ReconciliationHeader, KindPaymentChannel, difference, now)
	if err != nil {
		return r, err
	}
	r.ReconciliationHeader = h
	r.PlatformOrderAmount = platformTotal
	r.ChannelOrderAmount = channelTotal
	r.DifferenceAmount = difference
	r.DifferenceOrders = diffs
	return r, nil
}

// WithdrawalRecord is a paid withdrawal on the platform side.
type WithdrawalRecord struct {
	WithdrawalID string    `json:"withdrawalID"`
	Amount       Money     `json:"amount"`
	PaidAt       time.Time `json:"paidAt"`
}

// DeductionRecord is a debit seen on the payout account.
type DeductionRecord struct {
	DeductionID  string    `json:"deductionID"`
	WithdrawalID string    `json:"withdrawalID,omitempty"`
	Amount       Money     `json:"amount"`
	DeductedAt   time.Time `json:"deductedAt"`
}

// WithdrawalReconciliation compares a partner's paid withdrawals for a month
// with the deductions on the payout account.
type WithdrawalReconciliation struct {
	ReconciliationHeader
	ReconciliationMonth    string             `json:"reconciliationMonth"`
	PartnerID              string             `json:"partnerID"`
	WithdrawalAmount       Money              `json:"withdrawalAmount"`
	AccountDeductionAmount Money              `json:"accountDeductionAmount"`
	DifferenceAmount       Money              `json:"differenceAmount"`
	WithdrawalRecords      []WithdrawalRecord `json:"withdrawalRecords"`
	DeductionRecords       []DeductionRecord  `json:"deductionRecords"`
}

// NewWithdrawalReconciliation opens a record for a partner and month.
func NewWithdrawalReconciliation(id, partnerID string, month Period, now time.Time) WithdrawalReconciliation {
	return WithdrawalReconciliation{
		ReconciliationHeader: newHeader(id, WithdrawalUnitKey(partnerID, month), KindWithdrawal, now),
		ReconciliationMonth:  month.MonthKey(),
		PartnerID:            partnerID,
		WithdrawalRecords:    []WithdrawalRecord{},
		DeductionRecords:     []DeductionRecord{},
	}
}

func (r WithdrawalReconciliation) Kind() ReconciliationKind     { return KindWithdrawal }
func (r WithdrawalReconciliation) Header() ReconciliationHeader { return r.ReconciliationHeader }
func (r WithdrawalReconciliation) Difference() Money            { return r.DifferenceAmount }
func (r WithdrawalReconciliation) Accept(v ReconciliationVisitor) error {
	return v.VisitWithdrawal(r)
}
func (r WithdrawalReconciliation) withHeader(h ReconciliationHeader) Reconciliation {
	r.ReconciliationHeader = h
	return r
}

// Recompute totals both record lists and diffs them.
func (r WithdrawalReconciliation) Recompute(withdrawals []WithdrawalRecord, deductions []DeductionRecord, now time.Time) (WithdrawalReconciliation, error) {
	var withdrawn, deducted Money
	for _, w := range withdrawals {
		withdrawn += w.Amount
	}
	for _, d := range deductions {
		deducted += d.Amount
	}
	difference := withdrawn - deducted
	h, err := settle(r.ReconciliationHeader, KindWithdrawal, difference, now)
	if err != nil {
		return r, err
	}
	r.ReconciliationHeader = h
	r.WithdrawalAmount = withdrawn
	r.AccountDeductionAmount = deducted
	r.DifferenceAmount = difference
	r.WithdrawalRecords = append([]WithdrawalRecord{}, withdrawals...)
	r.DeductionRecords = append([]DeductionRecord{}, deductions...)
	return r, nil
}

// InvoiceReconciliation compares invoices issued to customers in a month with
// the cost and profit that make up those orders.
type InvoiceReconciliation struct {
	ReconciliationHeader
	ReconciliationMonth   string `json:"reconciliationMonth"`
	CustomerInvoiceAmount Money  `json:"customerInvoiceAmount"`
	SupplierCostAmount    Money  `json:"supplierCostAmount"`
	PartnerProfitAmount   Money  `json:"partnerProfitAmount"`
	PlatformProfitAmount  Money  `json:"platformProfitAmount"`
	TotalCostProfit       Money  `json:"totalCostProfit"`
	DifferenceAmount      Money  `json:"differenceAmount"`
}

// NewInvoiceReconciliation opens a record for a month.
func NewInvoiceReconciliation(id string, month Period, now time.Time) InvoiceReconciliation {
	return InvoiceReconciliation{
		ReconciliationHeader: newHeader(id, InvoiceUnitKey(month), KindInvoice, now),
		ReconciliationMonth:  month.MonthKey(),
	}
}

func (r InvoiceReconciliation) Kind() ReconciliationKind     { return KindInvoice }
func (r InvoiceReconciliation) Header() ReconciliationHeader { return r.ReconciliationHeader }
func (r InvoiceReconciliation) Difference() Money            { return r.DifferenceAmount }
func (r InvoiceReconciliation) Accept(v ReconciliationVisitor) error {
	return v.VisitInvoice(r)
}
func (r InvoiceReconciliation) withHeader(h ReconciliationHeader) Reconciliation {
	r.ReconciliationHeader = h
	return r
}

// CostProfitBreakdown is the internal side of an invoice reconciliation.
type CostProfitBreakdown struct {
	SupplierCost   Money `json:"supplierCost"`
	PartnerProfit  Money `json:"partnerProfit"`
	PlatformProfit Money `json:"platformProfit"`
}

// Total is supplier cost plus both profits.
func (b CostProfitBreakdown) Total() Money {
	return b.SupplierCost + b.PartnerProfit + b.PlatformProfit
}

// Recompute diffs the invoiced amount against cost plus profit.
func (r InvoiceReconciliation) Recompute(customerInvoiceAmount Money, breakdown CostProfitBreakdown, now time.Time) (InvoiceReconciliation, error) {
	total := breakdown.Total()
	difference := customerInvoiceAmount - total
	h, err := settle(r.ReconciliationHeader, KindInvoice, difference, now)
	if err != nil {
		return r, err
	}
	r.ReconciliationHeader = h
	r.CustomerInvoiceAmount = customerInvoiceAmount
	r.SupplierCostAmount = breakdown.SupplierCost
	r.PartnerProfitAmount = breakdown.PartnerProfit
	r.PlatformProfitAmount = breakdown.PlatformProfit
	r.TotalCostProfit = total
	r.DifferenceAmount = difference
	return r, nil
}

// adjustmentVisitor collects the ledger correction a resolution posts.
type adjustmentVisitor struct {
	operator string
	now      time.Time
	entries  []LedgerTransaction
}

func (v *adjustmentVisitor) post(account LedgerAccount, delta Money, description, relatedID string) error {
	entries, err := signedEntry(account, EntryReconciliationAdjustment, delta, description, "", relatedID, v.operator, v.now)
	if err != nil {
		return err
	}
	v.entries = append(v.entries, entries...)
	return nil
}

// A supplier billing more than P0 means more is owed to the supplier.
func (v *adjustmentVisitor) VisitSupplierCost(r SupplierCostReconciliation) error {
	return v.post(LedgerPayableSupplier, r.DifferenceAmount, "supplier bill adjustment for order "+r.OrderID, r.ID)
}

// Revenue follows what the channel actually settled.
func (v *adjustmentVisitor) VisitPaymentChannel(r PaymentChannelReconciliation) error {
	return v.post(LedgerActualRevenue, -r.DifferenceAmount, "channel settlement adjustment "+r.Channel+" "+r.ReconciliationDate.Format("2006-01-02"), r.ID)
}

// Withdrawals recorded but never deducted are still held by the platform.
func (v *adjustmentVisitor) VisitWithdrawal(r WithdrawalReconciliation) error {
	return v.post(LedgerPlatformFunds, r.DifferenceAmount, "payout account adjustment "+r.PartnerID+" "+r.ReconciliationMonth, r.ID)
}

// Invoice gaps are document corrections and move no money.
func (v *adjustmentVisitor) VisitInvoice(InvoiceReconciliation) error {
	return nil
}

// ResolutionAdjustments returns the ledger entries posted when r is resolved.
func ResolutionAdjustments(r Reconciliation, operator string, now time.Time) ([]LedgerTransaction, error) {
	v := &adjustmentVisitor{operator: operator, now: now}
	if err := r.Accept(v); err != nil {
		return nil, err
	}
	return v.entries, nil
}
