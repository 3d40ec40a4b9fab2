package pgsql

import (
	"context"
	"time"

	"github.com/SscSPs/partner_settlement_app/internal/apperrors"
	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
	portsrepo "github.com/SscSPs/partner_settlement_app/internal/core/ports/repositories"
	"github.com/SscSPs/partner_settlement_app/internal/models"
	"github.com/SscSPs/partner_settlement_app/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
)

const reconciliationColumns = `id, unit_key, kind, status, created_at, updated_at, payload, version`

type PgxReconciliationRepository struct {
	BaseRepository
}

func newPgxReconciliationRepository(db querier) portsrepo.ReconciliationRepositoryFacade {
	return &PgxReconciliationRepository{BaseRepository: BaseRepository{DB: db}}
}

var _ portsrepo.ReconciliationRepositoryFacade = (*PgxReconciliationRepository)(nil)

func scanReconciliation(row pgx.Row) (domain.Reconciliation, error) {
	var m models.Reconciliation
	if err := row.Scan(
		&m.ID,
		&m.UnitKey,
		&m.Kind,
		&m.Status,
		&m.CreatedAt,
		&m.UpdatedAt,
		&m.Payload,
		&m.Version,
	); err != nil {
		return nil, err
	}
	r, err := mapping.ToDomainReconciliation(m)
	if err != nil {
		return nil, apperrors.NewAppError(500, "corrupt reconciliation row", err)
	}
	return r, nil
}

func (r *PgxReconciliationRepository) FindReconciliationByID(ctx context.Context, id string) (domain.Reconciliation, error) {
	query := `SELECT ` + reconciliationColumns + ` FROM reconciliations WHERE id = $1;`
	rec, err := scanReconciliation(r.DB.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "reconciliation "+id)
	}
	return rec, nil
}

func (r *PgxReconciliationRepository) FindReconciliationByUnitKey(ctx context.Context, unitKey string) (domain.Reconciliation, error) {
	query := `SELECT ` + reconciliationColumns + ` FROM reconciliations WHERE unit_key = $1;`
	rec, err := scanReconciliation(r.DB.QueryRow(ctx, query, unitKey))
	if err != nil {
		return nil, mapError(err, "reconciliation unit "+unitKey)
	}
	return rec, nil
}

func (r *PgxReconciliationRepository) ListReconciliations(ctx context.Context, filter portsrepo.ReconciliationFilter, limit int, after *portsrepo.ReconciliationCursor) ([]domain.Reconciliation, error) {
	var where whereClause
	if filter.Kind != "" {
		where.add("kind = ?", string(filter.Kind))
	}
	if filter.Status != "" {
		where.add("status = ?", string(filter.Status))
	}
	if !filter.From.IsZero() {
		where.add("created_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		where.add("created_at < ?", filter.To)
	}
	if after != nil {
		where.add("(created_at, id) < (?, ?)", after.CreatedAt.Truncate(time.Microsecond), after.ID)
	}
	query := `SELECT ` + reconciliationColumns + ` FROM reconciliations` + where.String() +
		` ORDER BY created_at DESC, id DESC` + where.paginate(limit, 0)

	rows, err := r.DB.Query(ctx, query, where.args...)
	if err != nil {
		return nil, mapError(err, "reconciliations")
	}
	defer rows.Close()

	var recs []domain.Reconciliation
	for rows.Next() {
		rec, err := scanReconciliation(rows)
		if err != nil {
			return nil, mapError(err, "reconciliations")
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "reconciliations")
	}
	return recs, nil
}

func (r *PgxReconciliationRepository) SaveReconciliation(ctx context.Context, rec domain.Reconciliation) error {
	m, err := mapping.ToModelReconciliation(rec)
	if err != nil {
		return err
	}
	query := `INSERT INTO reconciliations (` + reconciliationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`
	_, err = r.DB.Exec(ctx, query, m.ID, m.UnitKey, m.Kind, m.Status, m.CreatedAt, m.UpdatedAt, m.Payload, m.Version)
	return mapError(err, "reconciliation unit "+m.UnitKey)
}

// UpdateReconciliation stores the payload at the next version so a later
// read finds payload and row in agreement.
func (r *PgxReconciliationRepository) UpdateReconciliation(ctx context.Context, rec domain.Reconciliation) error {
	expected := rec.Header().Version
	m, err := mapping.ToModelReconciliation(domain.BumpVersion(rec))
	if err != nil {
		return err
	}
	query := `
		UPDATE reconciliations SET
			status = $2, updated_at = $3, payload = $4, version = $5
		WHERE id = $1 AND version = $6;`
	tag, err := r.DB.Exec(ctx, query, m.ID, m.Status, m.UpdatedAt, m.Payload, m.Version, expected)
	if err != nil {
		return mapError(err, "reconciliation "+m.ID)
	}
	if tag.RowsAffected() == 0 {
		return r.missingOrStale(ctx, "reconciliations", "id", m.ID)
	}
	return nil
}
