package pgsql

import (
	"context"

	"github.com/SscSPs/partner_settlement_app/internal/apperrors"
	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
	portsrepo "github.com/SscSPs/partner_settlement_app/internal/core/ports/repositories"
	"github.com/SscSPs/partner_settlement_app/internal/models"
	"github.com/SscSPs/partner_settlement_app/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
)

type PgxLedgerRepository struct {
	BaseRepository
}

// batchSender is implemented by both the pool and a transaction.
type batchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

func newPgxLedgerRepository(db querier) portsrepo.LedgerRepositoryFacade {
	return &PgxLedgerRepository{BaseRepository: BaseRepository{DB: db}}
}

var _ portsrepo.LedgerRepositoryFacade = (*PgxLedgerRepository)(nil)

func (r *PgxLedgerRepository) ListTransactions(ctx context.Context, filter portsrepo.LedgerFilter) ([]domain.LedgerTransaction, error) {
	var where whereClause
	if filter.Account != "" {
		where.add("account = ?", string(filter.Account))
	}
	if filter.Kind != "" {
		where.add("kind = ?", string(filter.Kind))
	}
	if filter.PartnerID != "" {
		where.add("partner_id = ?", filter.PartnerID)
	}
	if filter.RelatedEntityID != "" {
		where.add("related_entity_id = ?", filter.RelatedEntityID)
	}
	if !filter.From.IsZero() {
		where.add("occurred_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		where.add("occurred_at <= ?", filter.To)
	}
	query := `
		SELECT seq, transaction_id, occurred_at, account, kind, direction, amount,
		       description, partner_id, related_entity_id, operator
		FROM ledger_transactions` + where.String() + ` ORDER BY seq` + where.paginate(filter.Limit, filter.Offset)

	rows, err := r.DB.Query(ctx, query, where.args...)
	if err != nil {
		return nil, mapError(err, "ledger transactions")
	}
	defer rows.Close()

	var txns []domain.LedgerTransaction
	for rows.Next() {
		var m models.LedgerTransaction
		if err := rows.Scan(
			&m.Seq,
			&m.TransactionID,
			&m.Timestamp,
			&m.Account,
			&m.Kind,
			&m.Direction,
			&m.Amount,
			&m.Description,
			&m.PartnerID,
			&m.RelatedEntityID,
			&m.Operator,
		); err != nil {
			return nil, mapError(err, "ledger transactions")
		}
		txns = append(txns, mapping.ToDomainLedgerTransaction(m))
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "ledger transactions")
	}
	return txns, nil
}

// AppendTransactions inserts the entries in order. Callers wanting them all
// or none run it inside WithinTx.
func (r *PgxLedgerRepository) AppendTransactions(ctx context.Context, txns []domain.LedgerTransaction) error {
	if len(txns) == 0 {
		return nil
	}
	for _, t := range txns {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	sender, ok := r.DB.(batchSender)
	if !ok {
		return apperrors.NewAppError(500, "ledger connection cannot send batches", nil)
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO ledger_transactions (transaction_id, occurred_at, account, kind, direction, amount,
			description, partner_id, related_entity_id, operator)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);`
	for _, t := range txns {
		m := mapping.ToModelLedgerTransaction(t)
		batch.Queue(query,
			m.TransactionID,
			m.Timestamp,
			m.Account,
			m.Kind,
			m.Direction,
			m.Amount,
			m.Description,
			m.PartnerID,
			m.RelatedEntityID,
			m.Operator,
		)
	}
	// Close reports the first failing statement.
	if err := sender.SendBatch(ctx, batch).Close(); err != nil {
		return mapError(err, "ledger transactions")
	}
	return nil
}

type PgxSupplierSettlementRepository struct {
	BaseRepository
}

func newPgxSupplierSettlementRepository(db querier) portsrepo.SupplierSettlementRepositoryFacade {
	return &PgxSupplierSettlementRepository{BaseRepository: BaseRepository{DB: db}}
}

var _ portsrepo.SupplierSettlementRepositoryFacade = (*PgxSupplierSettlementRepository)(nil)

func (r *PgxSupplierSettlementRepository) ListSupplierSettlements(ctx context.Context, supplierName string) ([]domain.SupplierSettlement, error) {
	var where whereClause
	if supplierName != "" {
		where.add("supplier_name = ?", supplierName)
	}
	query := `
		SELECT settlement_id, supplier_name, amount, reference, operator, paid_at
		FROM supplier_settlements` + where.String() + ` ORDER BY paid_at DESC, settlement_id`

	rows, err := r.DB.Query(ctx, query, where.args...)
	if err != nil {
		return nil, mapError(err, "supplier settlements")
	}
	defer rows.Close()

	var settlements []domain.SupplierSettlement
	for rows.Next() {
		var m models.SupplierSettlement
		if err := rows.Scan(&m.SettlementID, &m.SupplierName, &m.Amount, &m.Reference, &m.Operator, &m.PaidAt); err != nil {
			return nil, mapError(err, "supplier settlements")
		}
		settlements = append(settlements, mapping.ToDomainSupplierSettlement(m))
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "supplier settlements")
	}
	return settlements, nil
}

func (r *PgxSupplierSettlementRepository) SaveSupplierSettlement(ctx context.Context, settlement domain.SupplierSettlement) error {
	m := mapping.ToModelSupplierSettlement(settlement)
	query := `
		INSERT INTO supplier_settlements (settlement_id, supplier_name, amount, reference, operator, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6);`
	_, err := r.DB.Exec(ctx, query, m.SettlementID, m.SupplierName, m.Amount, m.Reference, m.Operator, m.PaidAt)
	return mapError(err, "supplier settlement "+settlement.SettlementID)
}
