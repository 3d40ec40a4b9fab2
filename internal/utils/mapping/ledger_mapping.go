package mapping

import (
	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
	"github.com/SscSPs/partner_settlement_app/internal/models"
)

// ToModelLedgerTransaction converts a domain LedgerTransaction to a model row
func ToModelLedgerTransaction(d domain.LedgerTransaction) models.LedgerTransaction {
	return models.LedgerTransaction{
		TransactionID:   d.ID,
		Timestamp:       d.Timestamp,
		Account:         string(d.Account),
		Kind:            string(d.Kind),
		Direction:       string(d.Direction),
		Amount:          int64(d.Amount),
		Description:     d.Description,
		PartnerID:       d.PartnerID,
		RelatedEntityID: d.RelatedEntityID,
		Operator:        d.Operator,
	}
}

// ToDomainLedgerTransaction converts a model row to a domain LedgerTransaction
func ToDomainLedgerTransaction(m models.LedgerTransaction) domain.LedgerTransaction {
	return domain.LedgerTransaction{
		ID:              m.TransactionID,
		Timestamp:       m.Timestamp.UTC(),
		Account:         domain.LedgerAccount(m.Account),
		Kind:            domain.LedgerEntryKind(m.Kind),
		Direction:       domain.Direction(m.Direction),
		Amount:          domain.Money(m.Amount),
		Description:     m.Description,
		PartnerID:       m.PartnerID,
		RelatedEntityID: m.RelatedEntityID,
		Operator:        m.Operator,
	}
}

// ToModelSupplierSettlement converts a domain SupplierSettlement to a model row
func ToModelSupplierSettlement(d domain.SupplierSettlement) models.SupplierSettlement {
	return models.SupplierSettlement{
		SettlementID: d.SettlementID,
		SupplierName: d.SupplierName,
		Amount:       int64(d.Amount),
		Reference:    d.Reference,
		Operator:     d.Operator,
		PaidAt:       d.PaidAt,
	}
}

// ToDomainSupplierSettlement converts a model row to a domain SupplierSettlement
func ToDomainSupplierSettlement(m models.SupplierSettlement) domain.SupplierSettlement {
	return domain.SupplierSettlement{
		SettlementID: m.SettlementID,
		SupplierName: m.SupplierName,
		Amount:       domain.Money(m.Amount),
		Reference:    m.Reference,
		Operator:     m.Operator,
		PaidAt:       m.PaidAt.UTC(),
	}
}
