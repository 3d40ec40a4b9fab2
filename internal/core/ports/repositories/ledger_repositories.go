package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
)

// LedgerFilter narrows a ledger listing. Zero values are ignored.
type LedgerFilter struct {
	Account         domain.LedgerAccount
	Kind            domain.LedgerEntryKind
	PartnerID       string
	RelatedEntityID string
	From            time.Time
	// To is inclusive so a snapshot "as of" a time sees entries stamped at it.
	To     time.Time
	Limit  int
	Offset int
}

// LedgerReader defines read operations for the ledger.
type LedgerReader interface {
	// ListTransactions returns entries in append order.
	ListTransactions(ctx context.Context, filter LedgerFilter) ([]domain.LedgerTransaction, error)
}

// LedgerWriter defines write operations for the ledger. The ledger is
// append-only: there is no update or delete.
type LedgerWriter interface {
	AppendTransactions(ctx context.Context, txns []domain.LedgerTransaction) error
}

// LedgerRepositoryFacade combines all ledger-related repository interfaces
type LedgerRepositoryFacade interface {
	LedgerReader
	LedgerWriter
}

// SupplierSettlementReader defines read operations for supplier settlements.
type SupplierSettlementReader interface {
	// ListSupplierSettlements returns newest first. An empty name matches all.
	ListSupplierSettlements(ctx context.Context, supplierName string) ([]domain.SupplierSettlement, error)
}

// SupplierSettlementWriter defines write operations for supplier settlements.
type SupplierSettlementWriter interface {
	SaveSupplierSettlement(ctx context.Context, settlement domain.SupplierSettlement) error
}

// SupplierSettlementRepositoryFacade combines supplier settlement interfaces
type SupplierSettlementRepositoryFacade interface {
	SupplierSettlementReader
	SupplierSettlementWriter
}
