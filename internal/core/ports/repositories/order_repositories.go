package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
)

// OrderFilter narrows an order listing. Zero values are ignored.
// The From bounds are inclusive and the To bounds exclusive.
type OrderFilter struct {
	PartnerID      string
	Statuses       []domain.OrderStatus
	PaymentChannel string
	PaidFrom       time.Time
	PaidTo         time.Time
	CompletedFrom  time.Time
	CompletedTo    time.Time
	Limit          int
	Offset         int
}

// OrderReader defines read operations for order data
type OrderReader interface {
	// FindOrderByID returns apperrors.ErrNotFound when the order does not exist.
	FindOrderByID(ctx context.Context, orderID string) (*domain.Order, error)

	// ListOrders returns orders ordered by paid time, then ID.
	ListOrders(ctx context.Context, filter OrderFilter) ([]domain.Order, error)
}

// OrderWriter defines write operations for order data
type OrderWriter interface {
	// SaveOrder inserts a new order. Returns apperrors.ErrDuplicate if the ID exists.
	SaveOrder(ctx context.Context, order domain.Order) error

	// UpdateOrder stores the order if its Version still matches the stored
	// one, and bumps the stored version. Returns apperrors.ErrConcurrentUpdate otherwise.
	UpdateOrder(ctx context.Context, order domain.Order) error
}

// OrderRepositoryFacade combines all order-related repository interfaces
type OrderRepositoryFacade interface {
	OrderReader
	OrderWriter
}
