package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
)

// WithdrawalFilter narrows a withdrawal listing. Zero values are ignored.
// TransferredFrom is inclusive and TransferredTo exclusive.
type WithdrawalFilter struct {
	PartnerID       string
	Statuses        []domain.WithdrawalStatus
	TransferredFrom time.Time
	TransferredTo   time.Time
	Limit           int
	Offset          int
}

// WithdrawalReader defines read operations for withdrawal data
type WithdrawalReader interface {
	FindWithdrawalByID(ctx context.Context, withdrawalID string) (*domain.Withdrawal, error)

	// ListWithdrawals returns newest first.
	ListWithdrawals(ctx context.Context, filter WithdrawalFilter) ([]domain.Withdrawal, error)
}

// WithdrawalWriter defines write operations for withdrawal data
type WithdrawalWriter interface {
	SaveWithdrawal(ctx context.Context, withdrawal domain.Withdrawal) error

	// UpdateWithdrawal uses the same optimistic version check as UpdateOrder.
	UpdateWithdrawal(ctx context.Context, withdrawal domain.Withdrawal) error
}

// WithdrawalRepositoryFacade combines all withdrawal-related repository interfaces
type WithdrawalRepositoryFacade interface {
	WithdrawalReader
	WithdrawalWriter
}
