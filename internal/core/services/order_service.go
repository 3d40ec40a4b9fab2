package services

import (
	"context"
	"log/slog"

	"github.com/SscSPs/partner_settlement_app/internal/apperrors"
	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
	portsrepo "github.com/SscSPs/partner_settlement_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/partner_settlement_app/internal/core/ports/services"
	"github.com/SscSPs/partner_settlement_app/internal/dto"
	"github.com/SscSPs/partner_settlement_app/internal/platform/config"
	"github.com/SscSPs/partner_settlement_app/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

const defaultListLimit = 100

// orderService implements the OrderSvcFacade interface
type orderService struct {
	BaseService
	tx     portsrepo.TransactionManager
	orders portsrepo.OrderReader
	rules  accounting.Rules
}

// NewOrderService creates a new order service.
func NewOrderService(tx portsrepo.TransactionManager, orders portsrepo.OrderReader, rules config.BusinessRules, options ...ServiceOption) portssvc.OrderSvcFacade {
	return &orderService{
		BaseService: newBaseService(options...),
		tx:          tx,
		orders:      orders,
		rules:       accountingRules(rules),
	}
}

var _ portssvc.OrderSvcFacade = (*orderService)(nil)

func accountingRules(rules config.BusinessRules) accounting.Rules {
	return accounting.Rules{
		PlatformMarkupRate:  rules.PlatformMarkupRate,
		EligibleAccessModes: rules.EligibleAccessModes,
	}
}

func economicsInput(supplierCost int64, mode string, markup decimal.Decimal, linkRate *decimal.Decimal, status domain.OrderStatus) (accounting.EconomicsInput, error) {
	in := accounting.EconomicsInput{
		SupplierCost: domain.Money(supplierCost),
		AccessMode:   domain.AccessMode(mode),
		MarkupRate:   markup,
		Status:       status,
	}
	if in.AccessMode == domain.AccessModeLink {
		if linkRate == nil {
			return in, apperrors.NewValidationError("linkCommissionRate", apperrors.CodeRequired, "link commission rate is required for LINK orders")
		}
		in.LinkCommissionRate = *linkRate
	}
	return in, nil
}

func (s *orderService) ComputeOrderEconomics(ctx context.Context, req dto.ComputeEconomicsRequest) (domain.OrderEconomics, error) {
	in, err := economicsInput(req.SupplierCost, req.AccessMode, req.MarkupRate, req.LinkCommissionRate, domain.OrderStatus(req.Status))
	if err != nil {
		return domain.OrderEconomics{}, err
	}
	economics, err := accounting.ComputeEconomics(in, s.rules)
	if err != nil {
		s.LogWarn(ctx, err, "Rejected economics input", slog.String("access_mode", req.AccessMode))
		return domain.OrderEconomics{}, err
	}
	return economics, nil
}

func (s *orderService) RecordOrder(ctx context.Context, req dto.RecordOrderRequest, operator string) (*domain.Order, error) {
	in, err := economicsInput(req.SupplierCost, req.AccessMode, req.MarkupRate, req.LinkCommissionRate, domain.OrderPendingCheckin)
	if err != nil {
		return nil, err
	}
	economics, err := accounting.ComputeEconomics(in, s.rules)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	order := domain.Order{
		OrderID:            req.OrderID,
		PartnerID:          req.PartnerID,
		SupplierName:       req.SupplierName,
		SupplierCost:       in.SupplierCost,
		AccessMode:         in.AccessMode,
		MarkupRate:         in.MarkupRate,
		LinkCommissionRate: in.LinkCommissionRate,
		PaymentChannel:     req.PaymentChannel,
		PaidAt:             req.PaidAt.UTC(),
		Status:             domain.OrderPendingCheckin,
		Economics:          economics,
		AuditFields:        domain.NewAuditFields(operator, now),
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, store portsrepo.Store) error {
		return store.Orders.SaveOrder(ctx, order)
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to record order", slog.String("order_id", req.OrderID))
		return nil, err
	}

	s.LogInfo(ctx, "Order recorded", slog.String("order_id", order.OrderID), slog.String("partner_id", order.PartnerID))
	return &order, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.orders.FindOrderByID(ctx, orderID)
}

func (s *orderService) ListOrders(ctx context.Context, params dto.ListOrdersParams) ([]domain.Order, error) {
	filter := portsrepo.OrderFilter{
		PartnerID:      params.PartnerID,
		PaymentChannel: params.PaymentChannel,
		Limit:          params.Limit,
		Offset:         params.Offset,
	}
	if params.Status != "" {
		filter.Statuses = []domain.OrderStatus{domain.OrderStatus(params.Status)}
	}
	if filter.Limit == 0 {
		filter.Limit = defaultListLimit
	}
	orders, err := s.orders.ListOrders(ctx, filter)
	if err != nil {
		s.LogError(ctx, err, "Failed to list orders")
		return nil, err
	}
	if orders == nil {
		return []domain.Order{}, nil
	}
	return orders, nil
}

func (s *orderService) TransitionOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus, operator string) (*domain.Order, error) {
	var result domain.Order
	err := s.WithLock(ctx, "order:"+orderID, func() error {
		return s.tx.WithinTx(ctx, func(ctx context.Context, store portsrepo.Store) error {
			current, err := store.Orders.FindOrderByID(ctx, orderID)
			if err != nil {
				return err
			}
			now := s.Now()
			next, err := current.Transition(status, operator, now)
			if err != nil {
				return err
			}
			next.Economics, err = accounting.ComputeEconomics(accounting.OrderInput(next), s.rules)
			if err != nil {
				return err
			}
			if err := store.Orders.UpdateOrder(ctx, next); err != nil {
				return err
			}
			if next.Status == domain.OrderCompleted {
				entries, err := domain.OrderCompletionEntries(next, operator, now)
				if err != nil {
					return err
				}
				if err := store.Ledger.AppendTransactions(ctx, entries); err != nil {
					return err
				}
			}
			next.Version++
			result = next
			return nil
		})
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to transition order",
			slog.String("order_id", orderID),
			slog.String("to_status", string(status)))
		return nil, err
	}

	s.LogInfo(ctx, "Order status changed", slog.String("order_id", orderID), slog.String("status", string(status)))
	return &result, nil
}
