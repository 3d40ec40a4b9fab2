package dto

import (
	"time"

	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
)

// Review decisions.
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// WithdrawalInvoiceRequest is the invoice an enterprise partner attaches.
type WithdrawalInvoiceRequest struct {
	InvoiceNumber string    `json:"invoiceNumber" binding:"required"`
	Amount        int64     `json:"amount" binding:"required,gt=0"`
	IssuedAt      time.Time `json:"issuedAt" binding:"required"`
}

// SubmitWithdrawalRequest asks for part of a partner's payable balance.
type SubmitWithdrawalRequest struct {
	PartnerID   string                    `json:"partnerID" binding:"required"`
	Amount      int64                     `json:"amount" binding:"required,gt=0"`
	AccountType string                    `json:"accountType" binding:"required,oneof=personal enterprise"`
	Invoice     *WithdrawalInvoiceRequest `json:"invoice,omitempty"`
}

// ReviewWithdrawalRequest approves or rejects a request under review.
// Reason is checked against the minimum reason length when rejecting.
type ReviewWithdrawalRequest struct {
	Decision string `json:"decision" binding:"required,oneof=approve reject"`
	Comment  string `json:"comment"`
	Reason   string `json:"reason"`
}

// CloseWithdrawalRequest withdraws a request before a decision.
type CloseWithdrawalRequest struct {
	Reason string `json:"reason" binding:"required,reasonlen"`
}

// MarkFailedRequest records why a payout failed.
type MarkFailedRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// BatchReviewRequest applies one decision to many requests.
type BatchReviewRequest struct {
	WithdrawalIDs []string `json:"withdrawalIDs" binding:"required,min=1,max=200,dive,required"`
	ReviewWithdrawalRequest
}

// BatchIDsRequest lists the requests a batch action applies to.
type BatchIDsRequest struct {
	WithdrawalIDs []string `json:"withdrawalIDs" binding:"required,min=1,max=200,dive,required"`
}

// BatchItemResult is the outcome of one item in a batch.
type BatchItemResult struct {
	WithdrawalID string `json:"withdrawalID"`
	Success      bool   `json:"success"`
	Status       string `json:"status,omitempty"`
	Error        string `json:"error,omitempty"`
	Code         string `json:"code,omitempty"`
}

// BatchResult is returned by every batch withdrawal action, in request order.
type BatchResult struct {
	Results   []BatchItemResult `json:"results"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
}

// ListWithdrawalsParams are the query parameters of a withdrawal listing.
type ListWithdrawalsParams struct {
	PartnerID string `form:"partnerID"`
	Status    string `form:"status"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset    int    `form:"offset" binding:"omitempty,min=0"`
}

// WithdrawalResponse defines the data returned for a withdrawal.
type WithdrawalResponse struct {
	WithdrawalID              string                    `json:"withdrawalID"`
	PartnerID                 string                    `json:"partnerID"`
	Amount                    int64                     `json:"amount"`
	AvailableBalanceAtRequest int64                     `json:"availableBalanceAtRequest"`
	AccountType               string                    `json:"accountType"`
	Status                    string                    `json:"status"`
	CreatedAt                 time.Time                 `json:"createdAt"`
	ReviewedAt                *time.Time                `json:"reviewedAt,omitempty"`
	TransferredAt             *time.Time                `json:"transferredAt,omitempty"`
	ReviewComment             string                    `json:"reviewComment,omitempty"`
	RejectReason              string                    `json:"rejectReason,omitempty"`
	CloseReason               string                    `json:"closeReason,omitempty"`
	FailureReason             string                    `json:"failureReason,omitempty"`
	Invoice                   *WithdrawalInvoiceRequest `json:"invoice,omitempty"`
	LastUpdatedBy             string                    `json:"lastUpdatedBy"`
	Version                   int64                     `json:"version"`
}

// ToWithdrawalResponse converts a domain.Withdrawal to its DTO.
func ToWithdrawalResponse(w *domain.Withdrawal) WithdrawalResponse {
	resp := WithdrawalResponse{
		WithdrawalID:              w.WithdrawalID,
		PartnerID:                 w.PartnerID,
		Amount:                    int64(w.Amount),
		AvailableBalanceAtRequest: int64(w.AvailableBalanceAtRequest),
		AccountType:               string(w.AccountType),
		Status:                    string(w.Status),
		CreatedAt:                 w.CreatedAt,
		ReviewedAt:                w.ReviewedAt,
		TransferredAt:             w.TransferredAt,
		ReviewComment:             w.ReviewComment,
		RejectReason:              w.RejectReason,
		CloseReason:               w.CloseReason,
		FailureReason:             w.FailureReason,
		LastUpdatedBy:             w.LastUpdatedBy,
		Version:                   w.Version,
	}
	if w.Invoice != nil {
		resp.Invoice = &WithdrawalInvoiceRequest{
			InvoiceNumber: w.Invoice.InvoiceNumber,
			Amount:        int64(w.Invoice.Amount),
			IssuedAt:      w.Invoice.IssuedAt,
		}
	}
	return resp
}

// ToWithdrawalResponses converts a slice of withdrawals.
func ToWithdrawalResponses(ws []domain.Withdrawal) []WithdrawalResponse {
	responses := make([]WithdrawalResponse, len(ws))
	for i := range ws {
		responses[i] = ToWithdrawalResponse(&ws[i])
	}
	return responses
}
