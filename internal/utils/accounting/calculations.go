package accounting

import (
	"fmt"

	"github.com/SscSPs/partner_settlement_app/internal/apperrors"
	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// EconomicsInput carries what the economics of one order depend on.
type EconomicsInput struct {
	SupplierCost       domain.Money
	AccessMode         domain.AccessMode
	MarkupRate         decimal.Decimal
	LinkCommissionRate decimal.Decimal
	Status             domain.OrderStatus
}

// Rules are the business parameters the formulas read.
type Rules struct {
	PlatformMarkupRate  decimal.Decimal
	EligibleAccessModes []domain.AccessMode
}

// ValidateEconomicsInput rejects inputs the formulas cannot price.
func ValidateEconomicsInput(in EconomicsInput, rules Rules) error {
	if in.SupplierCost < 0 {
		return apperrors.NewValidationError("supplierCost", apperrors.CodeOutOfRange, "supplier cost must not be negative")
	}
	if in.MarkupRate.IsNegative() {
		return apperrors.NewValidationError("markupRate", apperrors.CodeOutOfRange, "markup rate must not be negative")
	}
	if !in.AccessMode.IsValid() {
		return apperrors.NewValidationError("accessMode", apperrors.CodeInvalidValue, fmt.Sprintf("unknown access mode %q", in.AccessMode))
	}
	if !eligible(in.AccessMode, rules.EligibleAccessModes) {
		return apperrors.NewValidationError("accessMode", apperrors.CodeInvalidValue, fmt.Sprintf("access mode %s is not eligible for distribution", in.AccessMode))
	}
	if in.AccessMode == domain.AccessModeLink {
		if in.LinkCommissionRate.IsNegative() || in.LinkCommissionRate.GreaterThan(one) {
			return apperrors.NewValidationError("linkCommissionRate", apperrors.CodeOutOfRange, "link commission rate must be between 0 and 1")
		}
	}
	if in.Status != "" && !in.Status.IsValid() {
		return apperrors.NewValidationError("status", apperrors.CodeInvalidValue, fmt.Sprintf("unknown order status %q", in.Status))
	}
	return nil
}

func eligible(mode domain.AccessMode, modes []domain.AccessMode) bool {
	for _, m := range modes {
		if m == mode {
			return true
		}
	}
	return false
}

// ComputeEconomics prices an order. Every step is rounded to minor units
// before the next one reads it.
//
//	distributionPrice = supplierCost * (1 + platformMarkupRate)
//	orderAmount       = distributionPrice * (1 + markupRate)
//
// API and PAAS partners keep the whole markup as commission. LINK partners
// earn a fixed share of the order amount and the platform keeps the rest as
// balance, which may be negative.
func ComputeEconomics(in EconomicsInput, rules Rules) (domain.OrderEconomics, error) {
	if err := ValidateEconomicsInput(in, rules); err != nil {
		return domain.OrderEconomics{}, err
	}

	distributionPrice := in.SupplierCost.MulRate(one.Add(rules.PlatformMarkupRate))
	orderAmount := distributionPrice.MulRate(one.Add(in.MarkupRate))
	platformMargin := distributionPrice - in.SupplierCost

	e := domain.OrderEconomics{
		DistributionPrice: distributionPrice,
		OrderAmount:       orderAmount,
	}
	switch in.AccessMode {
	case domain.AccessModeLink:
		e.Commission = orderAmount.MulRate(in.LinkCommissionRate)
		e.Balance = orderAmount - distributionPrice - e.Commission
		e.Profit = platformMargin + e.Balance
	default:
		e.Commission = orderAmount - distributionPrice
		e.Profit = platformMargin
	}

	// A free cancellation earns nothing; a partial one keeps the formula
	// result even when profit goes negative.
	if in.Status == domain.OrderCancelledFree {
		e.OrderAmount = 0
		e.Commission = 0
		e.Balance = 0
		e.Profit = 0
	}
	return e, nil
}

// OrderInput builds the calculator input from a stored order.
func OrderInput(o domain.Order) EconomicsInput {
	return EconomicsInput{
		SupplierCost:       o.SupplierCost,
		AccessMode:         o.AccessMode,
		MarkupRate:         o.MarkupRate,
		LinkCommissionRate: o.LinkCommissionRate,
		Status:             o.Status,
	}
}
