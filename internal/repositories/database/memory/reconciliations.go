package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/SscSPs/partner_settlement_app/internal/apperrors"
	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
	portsrepo "github.com/SscSPs/partner_settlement_app/internal/core/ports/repositories"
)

type reconciliationRepository struct{ repository }

var _ portsrepo.ReconciliationRepositoryFacade = (*reconciliationRepository)(nil)

func (r *reconciliationRepository) FindReconciliationByID(ctx context.Context, id string) (domain.Reconciliation, error) {
	var found domain.Reconciliation
	err := r.read(func(st *state) error {
		rec, ok := st.reconciliations[id]
		if !ok {
			return fmt.Errorf("reconciliation %s: %w", id, apperrors.ErrNotFound)
		}
		found = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (r *reconciliationRepository) FindReconciliationByUnitKey(ctx context.Context, unitKey string) (domain.Reconciliation, error) {
	var found domain.Reconciliation
	err := r.read(func(st *state) error {
		id, ok := st.unitKeys[unitKey]
		if !ok {
			return fmt.Errorf("reconciliation unit %s: %w", unitKey, apperrors.ErrNotFound)
		}
		found = st.reconciliations[id]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func matchesReconciliation(rec domain.Reconciliation, f portsrepo.ReconciliationFilter) bool {
	h := rec.Header()
	switch {
	case f.Kind != "" && rec.Kind() != f.Kind:
		return false
	case f.Status != "" && h.Status != f.Status:
		return false
	case !f.From.IsZero() && h.CreatedAt.Before(f.From):
		return false
	case !f.To.IsZero() && !h.CreatedAt.Before(f.To):
		return false
	}
	return true
}

// newerFirst orders by CreatedAt DESC, ID DESC.
func newerFirst(a, b domain.ReconciliationHeader) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func (r *reconciliationRepository) ListReconciliations(ctx context.Context, filter portsrepo.ReconciliationFilter, limit int, after *portsrepo.ReconciliationCursor) ([]domain.Reconciliation, error) {
	var out []domain.Reconciliation
	err := r.read(func(st *state) error {
		for _, rec := range st.reconciliations {
			if !matchesReconciliation(rec, filter) {
				continue
			}
			if after != nil && !newerFirst(domain.ReconciliationHeader{CreatedAt: after.CreatedAt, ID: after.ID}, rec.Header()) {
				continue
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return newerFirst(out[i].Header(), out[j].Header()) })
	return page(out, 0, limit), nil
}

func (r *reconciliationRepository) SaveReconciliation(ctx context.Context, rec domain.Reconciliation) error {
	h := rec.Header()
	return r.write(func(st *state) error {
		if _, ok := st.unitKeys[h.UnitKey]; ok {
			return fmt.Errorf("reconciliation unit %s: %w", h.UnitKey, apperrors.ErrDuplicate)
		}
		if _, ok := st.reconciliations[h.ID]; ok {
			return fmt.Errorf("reconciliation %s: %w", h.ID, apperrors.ErrDuplicate)
		}
		st.reconciliations[h.ID] = rec
		st.unitKeys[h.UnitKey] = h.ID
		return nil
	})
}

func (r *reconciliationRepository) UpdateReconciliation(ctx context.Context, rec domain.Reconciliation) error {
	h := rec.Header()
	return r.write(func(st *state) error {
		stored, ok := st.reconciliations[h.ID]
		if !ok {
			return fmt.Errorf("reconciliation %s: %w", h.ID, apperrors.ErrNotFound)
		}
		if stored.Header().Version != h.Version {
			return fmt.Errorf("reconciliation %s: %w", h.ID, apperrors.ErrConcurrentUpdate)
		}
		st.reconciliations[h.ID] = domain.BumpVersion(rec)
		return nil
	})
}
