package pgsql

import (
	"context"

	portsrepo "github.com/SscSPs/partner_settlement_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func newStore(db querier) portsrepo.Store {
	return portsrepo.Store{
		Orders:              newPgxOrderRepository(db),
		Ledger:              newPgxLedgerRepository(db),
		Withdrawals:         newPgxWithdrawalRepository(db),
		Reconciliations:     newPgxReconciliationRepository(db),
		SupplierSettlements: newPgxSupplierSettlementRepository(db),
	}
}

// TxManager runs units of work in PostgreSQL transactions.
type TxManager struct {
	pool *pgxpool.Pool
}

var _ portsrepo.TransactionManager = (*TxManager)(nil)

func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, store portsrepo.Store) error) error {
	tx, err := Begin(ctx, m.pool)
	if err != nil {
		return err
	}
	// Ignored once the transaction is committed.
	defer Rollback(ctx, tx)

	if err := fn(ctx, newStore(tx)); err != nil {
		return err
	}
	return Commit(ctx, tx)
}

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		Store:     newStore(dbPool),
		TxManager: &TxManager{pool: dbPool},
	}
}
