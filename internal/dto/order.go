package dto

import (
	"time"

	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ComputeEconomicsRequest prices an order without storing it.
type ComputeEconomicsRequest struct {
	SupplierCost       int64            `json:"supplierCost" binding:"min=0"`
	AccessMode         string           `json:"accessMode" binding:"required,accessmode"`
	MarkupRate         decimal.Decimal  `json:"markupRate"`
	LinkCommissionRate *decimal.Decimal `json:"linkCommissionRate,omitempty"`
	Status             string           `json:"status,omitempty"`
}

// RecordOrderRequest registers a paid order awaiting check-in.
type RecordOrderRequest struct {
	OrderID            string           `json:"orderID" binding:"required"`
	PartnerID          string           `json:"partnerID" binding:"required"`
	SupplierName       string           `json:"supplierName" binding:"required"`
	SupplierCost       int64            `json:"supplierCost" binding:"min=0"`
	AccessMode         string           `json:"accessMode" binding:"required,accessmode"`
	MarkupRate         decimal.Decimal  `json:"markupRate"`
	LinkCommissionRate *decimal.Decimal `json:"linkCommissionRate,omitempty"`
	PaymentChannel     string           `json:"paymentChannel" binding:"required"`
	PaidAt             time.Time        `json:"paidAt" binding:"required"`
}

// TransitionOrderRequest moves an order out of pending_checkin.
type TransitionOrderRequest struct {
	Status string `json:"status" binding:"required,oneof=completed cancelled_free cancelled_partial"`
}

// ListOrdersParams are the query parameters of an order listing.
type ListOrdersParams struct {
	PartnerID      string `form:"partnerID"`
	Status         string `form:"status"`
	PaymentChannel string `form:"paymentChannel"`
	Limit          int    `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset         int    `form:"offset" binding:"omitempty,min=0"`
}

// OrderEconomicsResponse is the priced breakdown of an order, in minor units.
type OrderEconomicsResponse struct {
	DistributionPrice int64 `json:"distributionPrice"`
	OrderAmount       int64 `json:"orderAmount"`
	Commission        int64 `json:"commission"`
	Balance           int64 `json:"balance"`
	Profit            int64 `json:"profit"`
}

// OrderResponse defines the data returned for an order.
type OrderResponse struct {
	OrderID            string                 `json:"orderID"`
	PartnerID          string                 `json:"partnerID"`
	SupplierName       string                 `json:"supplierName"`
	SupplierCost       int64                  `json:"supplierCost"`
	AccessMode         string                 `json:"accessMode"`
	MarkupRate         decimal.Decimal        `json:"markupRate"`
	LinkCommissionRate decimal.Decimal        `json:"linkCommissionRate"`
	PaymentChannel     string                 `json:"paymentChannel"`
	PaidAt             time.Time              `json:"paidAt"`
	Status             string                 `json:"status"`
	Economics          OrderEconomicsResponse `json:"economics"`
	CompletedAt        *time.Time             `json:"completedAt,omitempty"`
	CreatedAt          time.Time              `json:"createdAt"`
	CreatedBy          string                 `json:"createdBy"`
	LastUpdatedAt      time.Time              `json:"lastUpdatedAt"`
	LastUpdatedBy      string                 `json:"lastUpdatedBy"`
	Version            int64                  `json:"version"`
}

// ToOrderEconomicsResponse converts domain economics to the response DTO.
func ToOrderEconomicsResponse(e domain.OrderEconomics) OrderEconomicsResponse {
	return OrderEconomicsResponse{
		DistributionPrice: int64(e.DistributionPrice),
		OrderAmount:       int64(e.OrderAmount),
		Commission:        int64(e.Commission),
		Balance:           int64(e.Balance),
		Profit:            int64(e.Profit),
	}
}

// ToOrderResponse converts a domain.Order to OrderResponse DTO.
func ToOrderResponse(o *domain.Order) OrderResponse {
	return OrderResponse{
		OrderID:            o.OrderID,
		PartnerID:          o.PartnerID,
		SupplierName:       o.SupplierName,
		SupplierCost:       int64(o.SupplierCost),
		AccessMode:         string(o.AccessMode),
		MarkupRate:         o.MarkupRate,
		LinkCommissionRate: o.LinkCommissionRate,
		PaymentChannel:     o.PaymentChannel,
		PaidAt:             o.PaidAt,
		Status:             string(o.Status),
		Economics:          ToOrderEconomicsResponse(o.Economics),
		CompletedAt:        o.CompletedAt,
		CreatedAt:          o.CreatedAt,
		CreatedBy:          o.CreatedBy,
		LastUpdatedAt:      o.LastUpdatedAt,
		LastUpdatedBy:      o.LastUpdatedBy,
		Version:            o.Version,
	}
}

// ToOrderResponses converts a slice of domain.Order to []OrderResponse.
func ToOrderResponses(orders []domain.Order) []OrderResponse {
	responses := make([]OrderResponse, len(orders))
	for i := range orders {
		responses[i] = ToOrderResponse(&orders[i])
	}
	return responses
}
