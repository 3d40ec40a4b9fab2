package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
)

// ReconciliationFilter narrows a reconciliation listing. Zero values are ignored.
// From and To bound CreatedAt, From inclusive and To exclusive.
type ReconciliationFilter struct {
	Kind   domain.ReconciliationKind
	Status domain.ReconciliationStatus
	From   time.Time
	To     time.Time
}

// ReconciliationCursor is the position after the last record of a page.
type ReconciliationCursor struct {
	CreatedAt time.Time
	ID        string
}

// ReconciliationReader defines read operations for reconciliation records
type ReconciliationReader interface {
	FindReconciliationByID(ctx context.Context, id string) (domain.Reconciliation, error)

	// FindReconciliationByUnitKey returns apperrors.ErrNotFound if no record
	// covers the unit yet.
	FindReconciliationByUnitKey(ctx context.Context, unitKey string) (domain.Reconciliation, error)

	// ListReconciliations returns at most limit records ordered by
	// CreatedAt DESC, ID DESC, starting after the cursor when one is given.
	ListReconciliations(ctx context.Context, filter ReconciliationFilter, limit int, after *ReconciliationCursor) ([]domain.Reconciliation, error)
}

// ReconciliationWriter defines write operations for reconciliation records
type ReconciliationWriter interface {
	// SaveReconciliation inserts a record. Returns apperrors.ErrDuplicate when
	// the unit key is taken.
	SaveReconciliation(ctx context.Context, r domain.Reconciliation) error

	// UpdateReconciliation uses the header Version for optimistic locking.
	UpdateReconciliation(ctx context.Context, r domain.Reconciliation) error
}

// ReconciliationRepositoryFacade combines all reconciliation repository interfaces
type ReconciliationRepositoryFacade interface {
	ReconciliationReader
	ReconciliationWriter
}
