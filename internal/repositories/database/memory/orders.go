package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/SscSPs/partner_settlement_app/internal/apperrors"
	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
	portsrepo "github.com/SscSPs/partner_settlement_app/internal/core/ports/repositories"
)

type orderRepository struct{ repository }

var _ portsrepo.OrderRepositoryFacade = (*orderRepository)(nil)

func (r *orderRepository) FindOrderByID(ctx context.Context, orderID string) (*domain.Order, error) {
	var found domain.Order
	err := r.read(func(st *state) error {
		o, ok := st.orders[orderID]
		if !ok {
			return fmt.Errorf("order %s: %w", orderID, apperrors.ErrNotFound)
		}
		found = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func matchesOrder(o domain.Order, f portsrepo.OrderFilter) bool {
	if f.PartnerID != "" && o.PartnerID != f.PartnerID {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, o.Status) {
		return false
	}
	if f.PaymentChannel != "" && o.PaymentChannel != f.PaymentChannel {
		return false
	}
	if !f.PaidFrom.IsZero() && o.PaidAt.Before(f.PaidFrom) {
		return false
	}
	if !f.PaidTo.IsZero() && !o.PaidAt.Before(f.PaidTo) {
		return false
	}
	if !f.CompletedFrom.IsZero() || !f.CompletedTo.IsZero() {
		if o.CompletedAt == nil {
			return false
		}
		if !f.CompletedFrom.IsZero() && o.CompletedAt.Before(f.CompletedFrom) {
			return false
		}
		if !f.CompletedTo.IsZero() && !o.CompletedAt.Before(f.CompletedTo) {
			return false
		}
	}
	return true
}

func (r *orderRepository) ListOrders(ctx context.Context, filter portsrepo.OrderFilter) ([]domain.Order, error) {
	var out []domain.Order
	err := r.read(func(st *state) error {
		for _, o := range st.orders {
			if matchesOrder(o, filter) {
				out = append(out, o)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PaidAt.Equal(out[j].PaidAt) {
			return out[i].PaidAt.Before(out[j].PaidAt)
		}
		return out[i].OrderID < out[j].OrderID
	})
	return page(out, filter.Offset, filter.Limit), nil
}

func (r *orderRepository) SaveOrder(ctx context.Context, order domain.Order) error {
	return r.write(func(st *state) error {
		if _, ok := st.orders[order.OrderID]; ok {
			return fmt.Errorf("order %s: %w", order.OrderID, apperrors.ErrDuplicate)
		}
		st.orders[order.OrderID] = order
		return nil
	})
}

func (r *orderRepository) UpdateOrder(ctx context.Context, order domain.Order) error {
	return r.write(func(st *state) error {
		stored, ok := st.orders[order.OrderID]
		if !ok {
			return fmt.Errorf("order %s: %w", order.OrderID, apperrors.ErrNotFound)
		}
		if stored.Version != order.Version {
			return fmt.Errorf("order %s: %w", order.OrderID, apperrors.ErrConcurrentUpdate)
		}
		order.Version++
		st.orders[order.OrderID] = order
		return nil
	})
}
