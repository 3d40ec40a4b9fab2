package repositories

import (
	"context"
)

// Store bundles the repositories a unit of work may touch. Inside
// TransactionManager.WithinTx every repository in the Store shares the
// same transaction.
type Store struct {
	Orders              OrderRepositoryFacade
	Ledger              LedgerRepositoryFacade
	Withdrawals         WithdrawalRepositoryFacade
	Reconciliations     ReconciliationRepositoryFacade
	SupplierSettlements SupplierSettlementRepositoryFacade
}

// TransactionManager runs a function inside one unit of work. If fn returns
// an error nothing it wrote is kept.
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error
}
