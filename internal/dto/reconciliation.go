package dto

import (
	"time"

	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
)

// ListReconciliationsParams are the query parameters of a reconciliation listing.
type ListReconciliationsParams struct {
	Kind      string    `form:"kind" binding:"omitempty,oneof=supplier_cost payment_channel withdrawal invoice"`
	Status    string    `form:"status"`
	From      time.Time `form:"from" time_format:"2006-01-02"`
	To        time.Time `form:"to" time_format:"2006-01-02"`
	Limit     int       `form:"limit" binding:"omitempty,min=1,max=200"`
	NextToken string    `form:"nextToken"`
}

// ReconciliationResponse wraps one record with its kind so clients can
// decode the variant.
type ReconciliationResponse struct {
	Kind   string                `json:"kind"`
	Record domain.Reconciliation `json:"record"`
}

// ListReconciliationsResponse is one page of reconciliation records.
type ListReconciliationsResponse struct {
	Items     []ReconciliationResponse `json:"items"`
	NextToken *string                  `json:"nextToken,omitempty"`
}

// ResolveDifferenceRequest closes a difference with an explanation.
type ResolveDifferenceRequest struct {
	ResolutionText string `json:"resolutionText" binding:"required"`
}

// RunReconciliationRequest runs one reconciliation unit on demand.
// Date picks the day for payment_channel and the month for withdrawal and invoice.
type RunReconciliationRequest struct {
	Kind      string    `json:"kind" binding:"required,oneof=supplier_cost payment_channel withdrawal invoice"`
	OrderID   string    `json:"orderID" binding:"required_if=Kind supplier_cost"`
	Channel   string    `json:"channel" binding:"required_if=Kind payment_channel"`
	PartnerID string    `json:"partnerID" binding:"required_if=Kind withdrawal"`
	Date      time.Time `json:"date"`
}

// ToReconciliationResponse wraps a record.
func ToReconciliationResponse(r domain.Reconciliation) ReconciliationResponse {
	return ReconciliationResponse{Kind: string(r.Kind()), Record: r}
}

// ToReconciliationResponses wraps a slice of records.
func ToReconciliationResponses(rs []domain.Reconciliation) []ReconciliationResponse {
	responses := make([]ReconciliationResponse, len(rs))
	for i, r := range rs {
		responses[i] = ToReconciliationResponse(r)
	}
	return responses
}
