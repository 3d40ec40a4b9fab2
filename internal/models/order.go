package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a row of the orders table. Amounts are minor units.
type Order struct {
	OrderID            string          `db:"order_id"`
	PartnerID          string          `db:"partner_id"`
	SupplierName       string          `db:"supplier_name"`
	SupplierCost       int64           `db:"supplier_cost"`
	AccessMode         string          `db:"access_mode"`
	MarkupRate         decimal.Decimal `db:"markup_rate"`
	LinkCommissionRate decimal.Decimal `db:"link_commission_rate"`
	PaymentChannel     string          `db:"payment_channel"`
	PaidAt             time.Time       `db:"paid_at"`
	Status             string          `db:"status"`
	DistributionPrice  int64           `db:"distribution_price"`
	OrderAmount        int64           `db:"order_amount"`
	Commission         int64           `db:"commission"`
	Balance            int64           `db:"balance"`
	Profit             int64           `db:"profit"`
	CompletedAt        *time.Time      `db:"completed_at"` // Nullable
	AuditFields
}
