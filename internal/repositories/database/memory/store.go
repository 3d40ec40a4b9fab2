// Package memory is an in-process implementation of every repository port.
// It backs tests and single-instance deployments without PostgreSQL.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
	portsrepo "github.com/SscSPs/partner_settlement_app/internal/core/ports/repositories"
)

// state is everything the store holds. A transaction works on a copy and
// swaps it in on success.
type state struct {
	orders          map[string]domain.Order
	ledger          []domain.LedgerTransaction
	withdrawals     map[string]domain.Withdrawal
	reconciliations map[string]domain.Reconciliation
	unitKeys        map[string]string
	settlements     []domain.SupplierSettlement
}

func newState() *state {
	return &state{
		orders:          make(map[string]domain.Order),
		withdrawals:     make(map[string]domain.Withdrawal),
		reconciliations: make(map[string]domain.Reconciliation),
		unitKeys:        make(map[string]string),
	}
}

func (s *state) clone() *state {
	return &state{
		orders:          maps.Clone(s.orders),
		ledger:          slices.Clone(s.ledger),
		withdrawals:     maps.Clone(s.withdrawals),
		reconciliations: maps.Clone(s.reconciliations),
		unitKeys:        maps.Clone(s.unitKeys),
		settlements:     slices.Clone(s.settlements),
	}
}

// DB is a mutex-guarded in-memory database. Transactions are serialized.
type DB struct {
	mu    sync.RWMutex
	state *state
}

// NewDB creates an empty in-memory database.
func NewDB() *DB {
	return &DB{state: newState()}
}

// repository gives every port access to the state, either directly under the
// DB lock or to a transaction's private copy.
type repository struct {
	db *DB
	tx *state
}

func (r repository) read(fn func(st *state) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return fn(r.db.state)
}

func (r repository) write(fn func(st *state) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	st := r.db.state.clone()
	if err := fn(st); err != nil {
		return err
	}
	r.db.state = st
	return nil
}

func (r repository) store() portsrepo.Store {
	return portsrepo.Store{
		Orders:              &orderRepository{r},
		Ledger:              &ledgerRepository{r},
		Withdrawals:         &withdrawalRepository{r},
		Reconciliations:     &reconciliationRepository{r},
		SupplierSettlements: &settlementRepository{r},
	}
}

// WithinTx runs fn against a private copy of the state. Nothing fn writes is
// visible to others until it returns nil.
func (db *DB) WithinTx(ctx context.Context, fn func(ctx context.Context, store portsrepo.Store) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	st := db.state.clone()
	if err := fn(ctx, repository{db: db, tx: st}.store()); err != nil {
		return err
	}
	db.state = st
	return nil
}

var _ portsrepo.TransactionManager = (*DB)(nil)

// NewRepositoryProvider exposes the database through the repository ports.
func NewRepositoryProvider(db *DB) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		Store:     repository{db: db}.store(),
		TxManager: db,
	}
}

// page applies offset and limit to an already ordered slice.
func page[T any](items []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return []T{}
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
