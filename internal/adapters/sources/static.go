// Package sources holds ExternalSource implementations: an HTTP feed client
// for production and a static source for local runs and tests.
package sources

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/SscSPs/partner_settlement_app/internal/apperrors"
	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
	"github.com/SscSPs/partner_settlement_app/internal/core/ports/gateways"
)

// StaticSource serves external totals held in memory. Units never set are
// reported as zero totals.
type StaticSource struct {
	mu               sync.RWMutex
	supplierBills    map[string]domain.Money
	channelOrders    map[string][]domain.OrderAmount
	deductions       map[string][]domain.DeductionRecord
	customerInvoices map[string]domain.Money
	unavailable      map[domain.ReconciliationKind]bool
}

// NewStaticSource creates an empty static source.
func NewStaticSource() *StaticSource {
	return &StaticSource{
		supplierBills:    make(map[string]domain.Money),
		channelOrders:    make(map[string][]domain.OrderAmount),
		deductions:       make(map[string][]domain.DeductionRecord),
		customerInvoices: make(map[string]domain.Money),
		unavailable:      make(map[domain.ReconciliationKind]bool),
	}
}

var _ gateways.ExternalSource = (*StaticSource)(nil)

// SetSupplierBill sets the supplier's billed amount for an order.
func (s *StaticSource) SetSupplierBill(orderID string, amount domain.Money) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.supplierBills[orderID] = amount
}

// SetChannelOrders sets the orders a channel reports for a day.
func (s *StaticSource) SetChannelOrders(channel string, day domain.Period, orders []domain.OrderAmount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channelOrders[channel+"|"+day.DayKey()] = slices.Clone(orders)
}

// SetDeductions sets the account deductions reported for a partner's month.
func (s *StaticSource) SetDeductions(partnerID string, month domain.Period, deductions []domain.DeductionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deductions[partnerID+"|"+month.MonthKey()] = slices.Clone(deductions)
}

// SetCustomerInvoice sets the customer invoice total for a month.
func (s *StaticSource) SetCustomerInvoice(month domain.Period, amount domain.Money) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customerInvoices[month.MonthKey()] = amount
}

// SetUnavailable makes every fetch of kind fail until cleared.
func (s *StaticSource) SetUnavailable(kind domain.ReconciliationKind, unavailable bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unavailable[kind] = unavailable
}

func (s *StaticSource) FetchExternalTotals(ctx context.Context, query gateways.ExternalQuery) (gateways.ExternalTotals, error) {
	if err := ctx.Err(); err != nil {
		return gateways.ExternalTotals{}, fmt.Errorf("%w: %v", apperrors.ErrSourceUnavailable, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.unavailable[query.Kind] {
		return gateways.ExternalTotals{}, fmt.Errorf("%w: %s feed is down", apperrors.ErrSourceUnavailable, query.Kind)
	}

	var totals gateways.ExternalTotals
	switch query.Kind {
	case domain.KindSupplierCost:
		totals.SupplierBillAmount = s.supplierBills[query.OrderID]
	case domain.KindPaymentChannel:
		totals.ChannelOrders = slices.Clone(s.channelOrders[query.Channel+"|"+query.Period.DayKey()])
	case domain.KindWithdrawal:
		totals.Deductions = slices.Clone(s.deductions[query.PartnerID+"|"+query.Period.MonthKey()])
	case domain.KindInvoice:
		totals.CustomerInvoiceAmount = s.customerInvoices[query.Period.MonthKey()]
	default:
		return totals, apperrors.NewValidationError("kind", apperrors.CodeInvalidValue, fmt.Sprintf("unknown reconciliation kind %q", query.Kind))
	}
	return totals, nil
}
