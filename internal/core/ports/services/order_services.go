package services

import (
	"context"

	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
	"github.com/SscSPs/partner_settlement_app/internal/dto"
)

// OrderReaderSvc defines read operations for orders
type OrderReaderSvc interface {
	// ComputeOrderEconomics prices an order without storing anything.
	ComputeOrderEconomics(ctx context.Context, req dto.ComputeEconomicsRequest) (domain.OrderEconomics, error)

	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)

	ListOrders(ctx context.Context, params dto.ListOrdersParams) ([]domain.Order, error)
}

// OrderWriterSvc defines write operations for orders
type OrderWriterSvc interface {
	// RecordOrder stores a new pending order with its economics.
	RecordOrder(ctx context.Context, req dto.RecordOrderRequest, operator string) (*domain.Order, error)

	// TransitionOrderStatus settles a pending order, recomputes its economics
	// and, on completion, posts the order's ledger entries in the same unit of work.
	TransitionOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus, operator string) (*domain.Order, error)
}

// OrderSvcFacade combines all order-related service interfaces
type OrderSvcFacade interface {
	OrderReaderSvc
	OrderWriterSvc
}
