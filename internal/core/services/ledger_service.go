package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/partner_settlement_app/internal/apperrors"
	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
	portsrepo "github.com/SscSPs/partner_settlement_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/partner_settlement_app/internal/core/ports/services"
	"github.com/SscSPs/partner_settlement_app/internal/dto"
	"github.com/google/uuid"
)

// ledgerService implements the LedgerSvcFacade interface
type ledgerService struct {
	BaseService
	tx          portsrepo.TransactionManager
	ledger      portsrepo.LedgerReader
	withdrawals portsrepo.WithdrawalReader
	settlements portsrepo.SupplierSettlementReader
}

// NewLedgerService creates a new ledger service.
func NewLedgerService(tx portsrepo.TransactionManager, ledger portsrepo.LedgerReader, withdrawals portsrepo.WithdrawalReader, settlements portsrepo.SupplierSettlementReader, options ...ServiceOption) portssvc.LedgerSvcFacade {
	return &ledgerService{
		BaseService: newBaseService(options...),
		tx:          tx,
		ledger:      ledger,
		withdrawals: withdrawals,
		settlements: settlements,
	}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// partnerBalance returns what a partner is owed and how much of it is
// reserved by withdrawals that have not reached a final state.
func partnerBalance(ctx context.Context, ledger portsrepo.LedgerReader, withdrawals portsrepo.WithdrawalReader, partnerID string) (payable, inFlight domain.Money, err error) {
	txns, err := ledger.ListTransactions(ctx, portsrepo.LedgerFilter{
		Account:   domain.LedgerPayableDistribution,
		PartnerID: partnerID,
	})
	if err != nil {
		return 0, 0, err
	}
	payable = domain.PartnerPayable(txns, partnerID)

	requests, err := withdrawals.ListWithdrawals(ctx, portsrepo.WithdrawalFilter{PartnerID: partnerID})
	if err != nil {
		return 0, 0, err
	}
	for _, w := range requests {
		if w.Status.InFlight() {
			inFlight += w.Amount
		}
	}
	return payable, inFlight, nil
}

func (s *ledgerService) append(ctx context.Context, txn domain.LedgerTransaction) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context, store portsrepo.Store) error {
		return store.Ledger.AppendTransactions(ctx, []domain.LedgerTransaction{txn})
	})
}

func (s *ledgerService) RechargeFunds(ctx context.Context, req dto.RechargeRequest, operator string) (*domain.LedgerTransaction, error) {
	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = "advance payment recharge"
	}
	txn, err := domain.NewLedgerTransaction(domain.LedgerAdvancePayment, domain.EntryRecharge, domain.DirectionIncrease,
		domain.Money(req.Amount), description, "", "", operator, s.Now())
	if err != nil {
		return nil, err
	}
	if err := s.append(ctx, txn); err != nil {
		s.LogError(ctx, err, "Failed to record recharge", slog.Int64("amount", req.Amount))
		return nil, err
	}
	s.LogInfo(ctx, "Funds recharged", slog.String("transaction_id", txn.ID), slog.Int64("amount", req.Amount))
	return &txn, nil
}

func (s *ledgerService) RecordManualLedgerEntry(ctx context.Context, req dto.ManualLedgerEntryRequest, operator string) (*domain.LedgerTransaction, error) {
	entryType := domain.ManualEntryType(req.Type)
	kind, err := entryType.Kind()
	if err != nil {
		return nil, err
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = string(entryType)
	}
	txn, err := domain.NewLedgerTransaction(domain.LedgerPlatformFunds, kind, domain.DirectionDecrease,
		domain.Money(req.Amount), description, "", req.RelatedEntityID, operator, s.Now())
	if err != nil {
		return nil, err
	}
	if err := s.append(ctx, txn); err != nil {
		s.LogError(ctx, err, "Failed to record manual ledger entry", slog.String("type", req.Type))
		return nil, err
	}
	s.LogInfo(ctx, "Manual ledger entry recorded",
		slog.String("transaction_id", txn.ID),
		slog.String("type", req.Type),
		slog.Int64("amount", req.Amount))
	return &txn, nil
}

func (s *ledgerService) RecordSupplierSettlement(ctx context.Context, req dto.SupplierSettlementRequest, operator string) (*domain.SupplierSettlement, error) {
	paidAt := req.PaidAt.UTC()
	if req.PaidAt.IsZero() {
		paidAt = s.Now()
	}
	settlement := domain.SupplierSettlement{
		SettlementID: uuid.NewString(),
		SupplierName: req.SupplierName,
		Amount:       domain.Money(req.Amount),
		Reference:    req.Reference,
		Operator:     operator,
		PaidAt:       paidAt,
	}
	entries, err := settlement.LedgerEntries()
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, store portsrepo.Store) error {
		if err := store.SupplierSettlements.SaveSupplierSettlement(ctx, settlement); err != nil {
			return err
		}
		return store.Ledger.AppendTransactions(ctx, entries)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to record supplier settlement", slog.String("supplier", req.SupplierName))
		return nil, err
	}
	s.LogInfo(ctx, "Supplier settlement recorded",
		slog.String("settlement_id", settlement.SettlementID),
		slog.String("supplier", settlement.SupplierName))
	return &settlement, nil
}

func (s *ledgerService) GetLedgerSnapshot(ctx context.Context) (domain.LedgerSnapshot, error) {
	txns, err := s.ledger.ListTransactions(ctx, portsrepo.LedgerFilter{})
	if err != nil {
		s.LogError(ctx, err, "Failed to load ledger")
		return domain.LedgerSnapshot{}, err
	}
	return domain.ReplayLedger(txns, s.Now()), nil
}

func (s *ledgerService) ReplaySnapshot(ctx context.Context, asOf time.Time) (domain.LedgerSnapshot, error) {
	if asOf.IsZero() {
		return domain.LedgerSnapshot{}, apperrors.NewValidationError("asOf", apperrors.CodeRequired, "asOf is required")
	}
	txns, err := s.ledger.ListTransactions(ctx, portsrepo.LedgerFilter{To: asOf})
	if err != nil {
		s.LogError(ctx, err, "Failed to load ledger for replay", slog.Time("as_of", asOf))
		return domain.LedgerSnapshot{}, err
	}
	return domain.ReplayLedger(txns, asOf), nil
}

func (s *ledgerService) GetPartnerPayable(ctx context.Context, partnerID string) (dto.PartnerBalance, error) {
	if partnerID == "" {
		return dto.PartnerBalance{}, apperrors.NewValidationError("partnerID", apperrors.CodeRequired, "partner is required")
	}
	payable, inFlight, err := partnerBalance(ctx, s.ledger, s.withdrawals, partnerID)
	if err != nil {
		s.LogError(ctx, err, "Failed to compute partner balance", slog.String("partner_id", partnerID))
		return dto.PartnerBalance{}, err
	}
	return dto.PartnerBalance{
		PartnerID: partnerID,
		Payable:   int64(payable),
		InFlight:  int64(inFlight),
		Available: int64(payable - inFlight),
	}, nil
}

func (s *ledgerService) ListLedgerTransactions(ctx context.Context, params dto.ListLedgerTransactionsParams) ([]domain.LedgerTransaction, error) {
	filter := portsrepo.LedgerFilter{
		Account:         domain.LedgerAccount(params.Account),
		Kind:            domain.LedgerEntryKind(params.Kind),
		PartnerID:       params.PartnerID,
		RelatedEntityID: params.RelatedEntityID,
		From:            params.From,
		To:              params.To,
		Limit:           params.Limit,
		Offset:          params.Offset,
	}
	if filter.Account != "" && !filter.Account.IsValid() {
		return nil, apperrors.NewValidationError("account", apperrors.CodeInvalidValue, "unknown ledger account")
	}
	if filter.Limit == 0 {
		filter.Limit = defaultListLimit
	}
	txns, err := s.ledger.ListTransactions(ctx, filter)
	if err != nil {
		s.LogError(ctx, err, "Failed to list ledger transactions")
		return nil, err
	}
	if txns == nil {
		return []domain.LedgerTransaction{}, nil
	}
	return txns, nil
}

func (s *ledgerService) ListSupplierSettlements(ctx context.Context, supplierName string) ([]domain.SupplierSettlement, error) {
	settlements, err := s.settlements.ListSupplierSettlements(ctx, strings.TrimSpace(supplierName))
	if err != nil {
		s.LogError(ctx, err, "Failed to list supplier settlements", slog.String("supplier", supplierName))
		return nil, err
	}
	if settlements == nil {
		return []domain.SupplierSettlement{}, nil
	}
	return settlements, nil
}
