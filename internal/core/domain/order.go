package domain

import (
	"fmt"
	"time"

	"github.com/SscSPs/partner_settlement_app/internal/apperrors"
	"github.com/shopspring/decimal"
)

// AccessMode is how a partner integrates with the platform.
type AccessMode string

const (
	AccessModeAPI  AccessMode = "API"
	AccessModePAAS AccessMode = "PAAS"
	AccessModeLink AccessMode = "LINK"
)

// IsValid reports whether the mode is a known access mode.
func (m AccessMode) IsValid() bool {
	switch m {
	case AccessModeAPI, AccessModePAAS, AccessModeLink:
		return true
	}
	return false
}

// OrderStatus is the booking lifecycle status.
type OrderStatus string

const (
	OrderPendingCheckin   OrderStatus = "pending_checkin"
	OrderCompleted        OrderStatus = "completed"
	OrderCancelledFree    OrderStatus = "cancelled_free"
	OrderCancelledPartial OrderStatus = "cancelled_partial"
)

// IsValid reports whether the status is known.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderPendingCheckin, OrderCompleted, OrderCancelledFree, OrderCancelledPartial:
		return true
	}
	return false
}

// OrderEconomics are the amounts derived from supplier cost and access mode.
// Balance is only non-zero for LINK orders.
type OrderEconomics struct {
	DistributionPrice Money `json:"distributionPrice"`
	OrderAmount       Money `json:"orderAmount"`
	Commission        Money `json:"commission"`
	Balance           Money `json:"balance"`
	Profit            Money `json:"profit"`
}

// Order is a hotel booking placed through a partner.
type Order struct {
	OrderID            string          `json:"orderID"`
	PartnerID          string          `json:"partnerID"`
	SupplierName       string          `json:"supplierName"`
	SupplierCost       Money           `json:"supplierCost"`
	AccessMode         AccessMode      `json:"accessMode"`
	MarkupRate         decimal.Decimal `json:"markupRate"`
	LinkCommissionRate decimal.Decimal `json:"linkCommissionRate"`
	PaymentChannel     string          `json:"paymentChannel"`
	PaidAt             time.Time       `json:"paidAt"`
	Status             OrderStatus     `json:"status"`
	Economics          OrderEconomics  `json:"economics"`
	CompletedAt        *time.Time      `json:"completedAt,omitempty"`
	AuditFields
}

// Transition moves a pending order to a settled status. Only pending orders
// may move; the caller is expected to recompute economics afterwards.
func (o Order) Transition(to OrderStatus, operator string, now time.Time) (Order, error) {
	if !to.IsValid() {
		return o, apperrors.NewValidationError("status", apperrors.CodeInvalidValue, fmt.Sprintf("unknown order status %q", to))
	}
	if o.Status != OrderPendingCheckin || to == OrderPendingCheckin {
		return o, fmt.Errorf("%w: order %s cannot move from %s to %s", apperrors.ErrInvalidState, o.OrderID, o.Status, to)
	}
	o.Status = to
	if to == OrderCompleted {
		completedAt := now
		o.CompletedAt = &completedAt
	}
	o.AuditFields = o.AuditFields.touch(operator, now)
	return o, nil
}
