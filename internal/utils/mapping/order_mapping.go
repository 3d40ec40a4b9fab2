package mapping

import (
	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
	"github.com/SscSPs/partner_settlement_app/internal/models"
)

// ToModelOrder converts a domain Order to a model Order
func ToModelOrder(d domain.Order) models.Order {
	return models.Order{
		OrderID:            d.OrderID,
		PartnerID:          d.PartnerID,
		SupplierName:       d.SupplierName,
		SupplierCost:       int64(d.SupplierCost),
		AccessMode:         string(d.AccessMode),
		MarkupRate:         d.MarkupRate,
		LinkCommissionRate: d.LinkCommissionRate,
		PaymentChannel:     d.PaymentChannel,
		PaidAt:             d.PaidAt,
		Status:             string(d.Status),
		DistributionPrice:  int64(d.Economics.DistributionPrice),
		OrderAmount:        int64(d.Economics.OrderAmount),
		Commission:         int64(d.Economics.Commission),
		Balance:            int64(d.Economics.Balance),
		Profit:             int64(d.Economics.Profit),
		CompletedAt:        d.CompletedAt,
		AuditFields:        ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainOrder converts a model Order to a domain Order
func ToDomainOrder(m models.Order) domain.Order {
	return domain.Order{
		OrderID:            m.OrderID,
		PartnerID:          m.PartnerID,
		SupplierName:       m.SupplierName,
		SupplierCost:       domain.Money(m.SupplierCost),
		AccessMode:         domain.AccessMode(m.AccessMode),
		MarkupRate:         m.MarkupRate,
		LinkCommissionRate: m.LinkCommissionRate,
		PaymentChannel:     m.PaymentChannel,
		PaidAt:             m.PaidAt.UTC(),
		Status:             domain.OrderStatus(m.Status),
		Economics: domain.OrderEconomics{
			DistributionPrice: domain.Money(m.DistributionPrice),
			OrderAmount:       domain.Money(m.OrderAmount),
			Commission:        domain.Money(m.Commission),
			Balance:           domain.Money(m.Balance),
			Profit:            domain.Money(m.Profit),
		},
		CompletedAt: utcPtr(m.CompletedAt),
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}
