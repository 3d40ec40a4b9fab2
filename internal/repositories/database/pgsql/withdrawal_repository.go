package pgsql

import (
	"context"

	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
	portsrepo "github.com/SscSPs/partner_settlement_app/internal/core/ports/repositories"
	"github.com/SscSPs/partner_settlement_app/internal/models"
	"github.com/SscSPs/partner_settlement_app/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
)

const withdrawalColumns = `withdrawal_id, partner_id, amount, available_balance_at_request, account_type,
	status, reviewed_at, transferred_at, review_comment, reject_reason, close_reason, failure_reason,
	deducted, invoice, created_at, created_by, last_updated_at, last_updated_by, version`

type PgxWithdrawalRepository struct {
	BaseRepository
}

func newPgxWithdrawalRepository(db querier) portsrepo.WithdrawalRepositoryFacade {
	return &PgxWithdrawalRepository{BaseRepository: BaseRepository{DB: db}}
}

var _ portsrepo.WithdrawalRepositoryFacade = (*PgxWithdrawalRepository)(nil)

func scanWithdrawal(row pgx.Row) (models.Withdrawal, error) {
	var m models.Withdrawal
	err := row.Scan(
		&m.WithdrawalID,
		&m.PartnerID,
		&m.Amount,
		&m.AvailableBalanceAtRequest,
		&m.AccountType,
		&m.Status,
		&m.ReviewedAt,
		&m.TransferredAt,
		&m.ReviewComment,
		&m.RejectReason,
		&m.CloseReason,
		&m.FailureReason,
		&m.Deducted,
		&m.Invoice, // JSONB decodes into the struct pointer; NULL leaves it nil
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
		&m.Version,
	)
	return m, err
}

func (r *PgxWithdrawalRepository) FindWithdrawalByID(ctx context.Context, withdrawalID string) (*domain.Withdrawal, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawals WHERE withdrawal_id = $1;`
	m, err := scanWithdrawal(r.DB.QueryRow(ctx, query, withdrawalID))
	if err != nil {
		return nil, mapError(err, "withdrawal "+withdrawalID)
	}
	w := mapping.ToDomainWithdrawal(m)
	return &w, nil
}

func (r *PgxWithdrawalRepository) ListWithdrawals(ctx context.Context, filter portsrepo.WithdrawalFilter) ([]domain.Withdrawal, error) {
	var where whereClause
	if filter.PartnerID != "" {
		where.add("partner_id = ?", filter.PartnerID)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		where.add("status = ANY(?)", statuses)
	}
	if !filter.TransferredFrom.IsZero() {
		where.add("transferred_at >= ?", filter.TransferredFrom)
	}
	if !filter.TransferredTo.IsZero() {
		where.add("transferred_at < ?", filter.TransferredTo)
	}
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawals` + where.String() +
		` ORDER BY created_at DESC, withdrawal_id DESC` + where.paginate(filter.Limit, filter.Offset)

	rows, err := r.DB.Query(ctx, query, where.args...)
	if err != nil {
		return nil, mapError(err, "withdrawals")
	}
	defer rows.Close()

	var withdrawals []domain.Withdrawal
	for rows.Next() {
		m, err := scanWithdrawal(rows)
		if err != nil {
			return nil, mapError(err, "withdrawals")
		}
		withdrawals = append(withdrawals, mapping.ToDomainWithdrawal(m))
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "withdrawals")
	}
	return withdrawals, nil
}

func (r *PgxWithdrawalRepository) SaveWithdrawal(ctx context.Context, withdrawal domain.Withdrawal) error {
	m := mapping.ToModelWithdrawal(withdrawal)
	query := `INSERT INTO withdrawals (` + withdrawalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19);`
	_, err := r.DB.Exec(ctx, query,
		m.WithdrawalID,
		m.PartnerID,
		m.Amount,
		m.AvailableBalanceAtRequest,
		m.AccountType,
		m.Status,
		m.ReviewedAt,
		m.TransferredAt,
		m.ReviewComment,
		m.RejectReason,
		m.CloseReason,
		m.FailureReason,
		m.Deducted,
		m.Invoice,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
		m.Version,
	)
	return mapError(err, "withdrawal "+withdrawal.WithdrawalID)
}

func (r *PgxWithdrawalRepository) UpdateWithdrawal(ctx context.Context, withdrawal domain.Withdrawal) error {
	m := mapping.ToModelWithdrawal(withdrawal)
	query := `
		UPDATE withdrawals SET
			status = $2, reviewed_at = $3, transferred_at = $4, review_comment = $5,
			reject_reason = $6, close_reason = $7, failure_reason = $8, deducted = $9,
			last_updated_at = $10, last_updated_by = $11, version = version + 1
		WHERE withdrawal_id = $1 AND version = $12;`
	tag, err := r.DB.Exec(ctx, query,
		m.WithdrawalID,
		m.Status,
		m.ReviewedAt,
		m.TransferredAt,
		m.ReviewComment,
		m.RejectReason,
		m.CloseReason,
		m.FailureReason,
		m.Deducted,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
		m.Version,
	)
	if err != nil {
		return mapError(err, "withdrawal "+withdrawal.WithdrawalID)
	}
	if tag.RowsAffected() == 0 {
		return r.missingOrStale(ctx, "withdrawals", "withdrawal_id", withdrawal.WithdrawalID)
	}
	return nil
}
