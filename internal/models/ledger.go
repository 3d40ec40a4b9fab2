package models

import "time"

// LedgerTransaction is a row of the append-only ledger_transactions table.
// Seq preserves append order.
type LedgerTransaction struct {
	Seq             int64     `db:"seq"`
	TransactionID   string    `db:"transaction_id"`
	Timestamp       time.Time `db:"occurred_at"`
	Account         string    `db:"account"`
	Kind            string    `db:"kind"`
	Direction       string    `db:"direction"`
	Amount          int64     `db:"amount"`
	Description     string    `db:"description"`
	PartnerID       string    `db:"partner_id"`
	RelatedEntityID string    `db:"related_entity_id"`
	Operator        string    `db:"operator"`
}

// SupplierSettlement is a row of the supplier_settlements table.
type SupplierSettlement struct {
	SettlementID string    `db:"settlement_id"`
	SupplierName string    `db:"supplier_name"`
	Amount       int64     `db:"amount"`
	Reference    string    `db:"reference"`
	Operator     string    `db:"operator"`
	PaidAt       time.Time `db:"paid_at"`
}
