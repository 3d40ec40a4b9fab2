package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/SscSPs/partner_settlement_app/internal/apperrors"
	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
	portsrepo "github.com/SscSPs/partner_settlement_app/internal/core/ports/repositories"
)

type ledgerRepository struct{ repository }

var _ portsrepo.LedgerRepositoryFacade = (*ledgerRepository)(nil)

func matchesLedger(t domain.LedgerTransaction, f portsrepo.LedgerFilter) bool {
	switch {
	case f.Account != "" && t.Account != f.Account:
		return false
	case f.Kind != "" && t.Kind != f.Kind:
		return false
	case f.PartnerID != "" && t.PartnerID != f.PartnerID:
		return false
	case f.RelatedEntityID != "" && t.RelatedEntityID != f.RelatedEntityID:
		return false
	case !f.From.IsZero() && t.Timestamp.Before(f.From):
		return false
	case !f.To.IsZero() && t.Timestamp.After(f.To):
		return false
	}
	return true
}

func (r *ledgerRepository) ListTransactions(ctx context.Context, filter portsrepo.LedgerFilter) ([]domain.LedgerTransaction, error) {
	var out []domain.LedgerTransaction
	err := r.read(func(st *state) error {
		for _, t := range st.ledger {
			if matchesLedger(t, filter) {
				out = append(out, t)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page(out, filter.Offset, filter.Limit), nil
}

func (r *ledgerRepository) AppendTransactions(ctx context.Context, txns []domain.LedgerTransaction) error {
	for _, t := range txns {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	return r.write(func(st *state) error {
		for _, t := range txns {
			if slices.ContainsFunc(st.ledger, func(existing domain.LedgerTransaction) bool { return existing.ID == t.ID }) {
				return fmt.Errorf("ledger transaction %s: %w", t.ID, apperrors.ErrDuplicate)
			}
		}
		st.ledger = append(st.ledger, txns...)
		return nil
	})
}

type settlementRepository struct{ repository }

var _ portsrepo.SupplierSettlementRepositoryFacade = (*settlementRepository)(nil)

func (r *settlementRepository) ListSupplierSettlements(ctx context.Context, supplierName string) ([]domain.SupplierSettlement, error) {
	var out []domain.SupplierSettlement
	err := r.read(func(st *state) error {
		for _, s := range st.settlements {
			if supplierName == "" || s.SupplierName == supplierName {
				out = append(out, s)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PaidAt.After(out[j].PaidAt) })
	return out, nil
}

func (r *settlementRepository) SaveSupplierSettlement(ctx context.Context, settlement domain.SupplierSettlement) error {
	return r.write(func(st *state) error {
		for _, s := range st.settlements {
			if s.SettlementID == settlement.SettlementID {
				return fmt.Errorf("supplier settlement %s: %w", settlement.SettlementID, apperrors.ErrDuplicate)
			}
		}
		st.settlements = append(st.settlements, settlement)
		return nil
	})
}
