package services

import (
	"context"
	"time"

	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
	"github.com/SscSPs/partner_settlement_app/internal/dto"
)

// LedgerReaderSvc defines read operations on the ledger
type LedgerReaderSvc interface {
	// GetLedgerSnapshot folds the whole log.
	GetLedgerSnapshot(ctx context.Context) (domain.LedgerSnapshot, error)

	// ReplaySnapshot folds the log from zero up to and including asOf.
	ReplaySnapshot(ctx context.Context, asOf time.Time) (domain.LedgerSnapshot, error)

	// GetPartnerPayable returns a partner's payable balance and the part of it
	// still reserved by in-flight withdrawals.
	GetPartnerPayable(ctx context.Context, partnerID string) (dto.PartnerBalance, error)

	ListLedgerTransactions(ctx context.Context, params dto.ListLedgerTransactionsParams) ([]domain.LedgerTransaction, error)

	// ListSupplierSettlements returns settlements, newest first. An empty
	// supplier name lists every supplier.
	ListSupplierSettlements(ctx context.Context, supplierName string) ([]domain.SupplierSettlement, error)
}

// LedgerWriterSvc defines operator-initiated ledger postings
type LedgerWriterSvc interface {
	RechargeFunds(ctx context.Context, req dto.RechargeRequest, operator string) (*domain.LedgerTransaction, error)

	RecordManualLedgerEntry(ctx context.Context, req dto.ManualLedgerEntryRequest, operator string) (*domain.LedgerTransaction, error)

	RecordSupplierSettlement(ctx context.Context, req dto.SupplierSettlementRequest, operator string) (*domain.SupplierSettlement, error)
}

// LedgerSvcFacade combines all ledger-related service interfaces
type LedgerSvcFacade interface {
	LedgerReaderSvc
	LedgerWriterSvc
}
