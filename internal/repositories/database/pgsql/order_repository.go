package pgsql

import (
	"context"

	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
	portsrepo "github.com/SscSPs/partner_settlement_app/internal/core/ports/repositories"
	"github.com/SscSPs/partner_settlement_app/internal/models"
	"github.com/SscSPs/partner_settlement_app/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
)

const orderColumns = `order_id, partner_id, supplier_name, supplier_cost, access_mode, markup_rate,
	link_commission_rate, payment_channel, paid_at, status, distribution_price, order_amount,
	commission, balance, profit, completed_at, created_at, created_by, last_updated_at,
	last_updated_by, version`

type PgxOrderRepository struct {
	BaseRepository
}

func newPgxOrderRepository(db querier) portsrepo.OrderRepositoryFacade {
	return &PgxOrderRepository{BaseRepository: BaseRepository{DB: db}}
}

var _ portsrepo.OrderRepositoryFacade = (*PgxOrderRepository)(nil)

func scanOrder(row pgx.Row) (models.Order, error) {
	var m models.Order
	err := row.Scan(
		&m.OrderID,
		&m.PartnerID,
		&m.SupplierName,
		&m.SupplierCost,
		&m.AccessMode,
		&m.MarkupRate,
		&m.LinkCommissionRate,
		&m.PaymentChannel,
		&m.PaidAt,
		&m.Status,
		&m.DistributionPrice,
		&m.OrderAmount,
		&m.Commission,
		&m.Balance,
		&m.Profit,
		&m.CompletedAt,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
		&m.Version,
	)
	return m, err
}

func (r *PgxOrderRepository) FindOrderByID(ctx context.Context, orderID string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_id = $1;`
	m, err := scanOrder(r.DB.QueryRow(ctx, query, orderID))
	if err != nil {
		return nil, mapError(err, "order "+orderID)
	}
	order := mapping.ToDomainOrder(m)
	return &order, nil
}

func (r *PgxOrderRepository) ListOrders(ctx context.Context, filter portsrepo.OrderFilter) ([]domain.Order, error) {
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
	if filter.PaymentChannel != "" {
		where.add("payment_channel = ?", filter.PaymentChannel)
	}
	if !filter.PaidFrom.IsZero() {
		where.add("paid_at >= ?", filter.PaidFrom)
	}
	if !filter.PaidTo.IsZero() {
		where.add("paid_at < ?", filter.PaidTo)
	}
	if !filter.CompletedFrom.IsZero() {
		where.add("completed_at >= ?", filter.CompletedFrom)
	}
	if !filter.CompletedTo.IsZero() {
		where.add("completed_at < ?", filter.CompletedTo)
	}
	query := `SELECT ` + orderColumns + ` FROM orders` + where.String() +
		` ORDER BY paid_at, order_id` + where.paginate(filter.Limit, filter.Offset)

	rows, err := r.DB.Query(ctx, query, where.args...)
	if err != nil {
		return nil, mapError(err, "orders")
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		m, err := scanOrder(rows)
		if err != nil {
			return nil, mapError(err, "orders")
		}
		orders = append(orders, mapping.ToDomainOrder(m))
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "orders")
	}
	return orders, nil
}

func (r *PgxOrderRepository) SaveOrder(ctx context.Context, order domain.Order) error {
	m := mapping.ToModelOrder(order)
	query := `INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21);`
	_, err := r.DB.Exec(ctx, query,
		m.OrderID,
		m.PartnerID,
		m.SupplierName,
		m.SupplierCost,
		m.AccessMode,
		m.MarkupRate,
		m.LinkCommissionRate,
		m.PaymentChannel,
		m.PaidAt,
		m.Status,
		m.DistributionPrice,
		m.OrderAmount,
		m.Commission,
		m.Balance,
		m.Profit,
		m.CompletedAt,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
		m.Version,
	)
	return mapError(err, "order "+order.OrderID)
}

func (r *PgxOrderRepository) UpdateOrder(ctx context.Context, order domain.Order) error {
	m := mapping.ToModelOrder(order)
	query := `
		UPDATE orders SET
			status = $2, distribution_price = $3, order_amount = $4, commission = $5,
			balance = $6, profit = $7, completed_at = $8, last_updated_at = $9,
			last_updated_by = $10, version = version + 1
		WHERE order_id = $1 AND version = $11;`
	tag, err := r.DB.Exec(ctx, query,
		m.OrderID,
		m.Status,
		m.DistributionPrice,
		m.OrderAmount,
		m.Commission,
		m.Balance,
		m.Profit,
		m.CompletedAt,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
		m.Version,
	)
	if err != nil {
		return mapError(err, "order "+order.OrderID)
	}
	if tag.RowsAffected() == 0 {
		return r.missingOrStale(ctx, "orders", "order_id", order.OrderID)
	}
	return nil
}
