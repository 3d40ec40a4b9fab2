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

type withdrawalRepository struct{ repository }

var _ portsrepo.WithdrawalRepositoryFacade = (*withdrawalRepository)(nil)

func (r *withdrawalRepository) FindWithdrawalByID(ctx context.Context, withdrawalID string) (*domain.Withdrawal, error) {
	var found domain.Withdrawal
	err := r.read(func(st *state) error {
		w, ok := st.withdrawals[withdrawalID]
		if !ok {
			return fmt.Errorf("withdrawal %s: %w", withdrawalID, apperrors.ErrNotFound)
		}
		found = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func matchesWithdrawal(w domain.Withdrawal, f portsrepo.WithdrawalFilter) bool {
	if f.PartnerID != "" && w.PartnerID != f.PartnerID {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, w.Status) {
		return false
	}
	if !f.TransferredFrom.IsZero() || !f.TransferredTo.IsZero() {
		if w.TransferredAt == nil {
			return false
		}
		if !f.TransferredFrom.IsZero() && w.TransferredAt.Before(f.TransferredFrom) {
			return false
		}
		if !f.TransferredTo.IsZero() && !w.TransferredAt.Before(f.TransferredTo) {
			return false
		}
	}
	return true
}

func (r *withdrawalRepository) ListWithdrawals(ctx context.Context, filter portsrepo.WithdrawalFilter) ([]domain.Withdrawal, error) {
	var out []domain.Withdrawal
	err := r.read(func(st *state) error {
		for _, w := range st.withdrawals {
			if matchesWithdrawal(w, filter) {
				out = append(out, w)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].WithdrawalID > out[j].WithdrawalID
	})
	return page(out, filter.Offset, filter.Limit), nil
}

func (r *withdrawalRepository) SaveWithdrawal(ctx context.Context, withdrawal domain.Withdrawal) error {
	return r.write(func(st *state) error {
		if _, ok := st.withdrawals[withdrawal.WithdrawalID]; ok {
			return fmt.Errorf("withdrawal %s: %w", withdrawal.WithdrawalID, apperrors.ErrDuplicate)
		}
		st.withdrawals[withdrawal.WithdrawalID] = withdrawal
		return nil
	})
}

func (r *withdrawalRepository) UpdateWithdrawal(ctx context.Context, withdrawal domain.Withdrawal) error {
	return r.write(func(st *state) error {
		stored, ok := st.withdrawals[withdrawal.WithdrawalID]
		if !ok {
			return fmt.Errorf("withdrawal %s: %w", withdrawal.WithdrawalID, apperrors.ErrNotFound)
		}
		if stored.Version != withdrawal.Version {
			return fmt.Errorf("withdrawal %s: %w", withdrawal.WithdrawalID, apperrors.ErrConcurrentUpdate)
		}
		withdrawal.Version++
		st.withdrawals[withdrawal.WithdrawalID] = withdrawal
		return nil
	})
}
