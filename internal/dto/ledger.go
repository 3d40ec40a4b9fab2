package dto

import (
	"time"

	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
)

// RechargeRequest tops up the platform's advance payment.
type RechargeRequest struct {
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	Description string `json:"description"`
}

// ManualLedgerEntryRequest records a compensation or company withdrawal.
type ManualLedgerEntryRequest struct {
	Type            string `json:"type" binding:"required,oneof=compensation company_withdrawal"`
	Amount          int64  `json:"amount" binding:"required,gt=0"`
	RelatedEntityID string `json:"relatedEntityID"`
	Description     string `json:"description"`
}

// SupplierSettlementRequest records a payment made to a supplier.
type SupplierSettlementRequest struct {
	SupplierName string    `json:"supplierName" binding:"required"`
	Amount       int64     `json:"amount" binding:"required,gt=0"`
	Reference    string    `json:"reference"`
	PaidAt       time.Time `json:"paidAt"`
}

// ListLedgerTransactionsParams are the query parameters of a ledger listing.
type ListLedgerTransactionsParams struct {
	Account         string    `form:"account"`
	Kind            string    `form:"kind"`
	PartnerID       string    `form:"partnerID"`
	RelatedEntityID string    `form:"relatedEntityID"`
	From            time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To              time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Limit           int       `form:"limit" binding:"omitempty,min=1,max=1000"`
	Offset          int       `form:"offset" binding:"omitempty,min=0"`
}

// LedgerTransactionResponse defines the data returned for a ledger entry.
type LedgerTransactionResponse struct {
	ID              string    `json:"id"`
	Timestamp       time.Time `json:"timestamp"`
	Account         string    `json:"account"`
	Kind            string    `json:"kind"`
	Direction       string    `json:"direction"`
	Amount          int64     `json:"amount"`
	Description     string    `json:"description"`
	PartnerID       string    `json:"partnerID,omitempty"`
	RelatedEntityID string    `json:"relatedEntityID,omitempty"`
	Operator        string    `json:"operator"`
}

// LedgerSnapshotResponse is the folded ledger, in minor units.
type LedgerSnapshotResponse struct {
	PayableDistribution int64     `json:"payableDistribution"`
	PayableSupplier     int64     `json:"payableSupplier"`
	AvailableFunds      int64     `json:"availableFunds"`
	AdvancePayment      int64     `json:"advancePayment"`
	ActualRevenue       int64     `json:"actualRevenue"`
	PlatformFunds       int64     `json:"platformFunds"`
	TransactionCount    int       `json:"transactionCount"`
	AsOf                time.Time `json:"asOf"`
}

// PartnerBalance is what a partner is owed and what it can still withdraw.
type PartnerBalance struct {
	PartnerID string `json:"partnerID"`
	Payable   int64  `json:"payable"`
	InFlight  int64  `json:"inFlight"`
	Available int64  `json:"available"`
}

// ToLedgerTransactionResponse converts a domain.LedgerTransaction to its DTO.
func ToLedgerTransactionResponse(t domain.LedgerTransaction) LedgerTransactionResponse {
	return LedgerTransactionResponse{
		ID:              t.ID,
		Timestamp:       t.Timestamp,
		Account:         string(t.Account),
		Kind:            string(t.Kind),
		Direction:       string(t.Direction),
		Amount:          int64(t.Amount),
		Description:     t.Description,
		PartnerID:       t.PartnerID,
		RelatedEntityID: t.RelatedEntityID,
		Operator:        t.Operator,
	}
}

// ToLedgerTransactionResponses converts a slice of ledger entries.
func ToLedgerTransactionResponses(txns []domain.LedgerTransaction) []LedgerTransactionResponse {
	responses := make([]LedgerTransactionResponse, len(txns))
	for i, t := range txns {
		responses[i] = ToLedgerTransactionResponse(t)
	}
	return responses
}

// ToLedgerSnapshotResponse converts a domain.LedgerSnapshot to its DTO.
func ToLedgerSnapshotResponse(s domain.LedgerSnapshot) LedgerSnapshotResponse {
	return LedgerSnapshotResponse{
		PayableDistribution: int64(s.PayableDistribution),
		PayableSupplier:     int64(s.PayableSupplier),
		AvailableFunds:      int64(s.AvailableFunds),
		AdvancePayment:      int64(s.AdvancePayment),
		ActualRevenue:       int64(s.ActualRevenue),
		PlatformFunds:       int64(s.PlatformFunds),
		TransactionCount:    s.TransactionCount,
		AsOf:                s.AsOf,
	}
}

// LedgerSnapshotParams selects a point in time; zero means now.
type LedgerSnapshotParams struct {
	AsOf time.Time `form:"asOf" time_format:"2006-01-02T15:04:05Z07:00"`
}

// SupplierSettlementResponse defines the data returned for a supplier payment.
type SupplierSettlementResponse struct {
	SettlementID string    `json:"settlementID"`
	SupplierName string    `json:"supplierName"`
	Amount       int64     `json:"amount"`
	Reference    string    `json:"reference,omitempty"`
	Operator     string    `json:"operator"`
	PaidAt       time.Time `json:"paidAt"`
}

// ToSupplierSettlementResponse converts a domain.SupplierSettlement to its DTO.
func ToSupplierSettlementResponse(s domain.SupplierSettlement) SupplierSettlementResponse {
	return SupplierSettlementResponse{
		SettlementID: s.SettlementID,
		SupplierName: s.SupplierName,
		Amount:       int64(s.Amount),
		Reference:    s.Reference,
		Operator:     s.Operator,
		PaidAt:       s.PaidAt,
	}
}

// ToSupplierSettlementResponses converts a slice of settlements.
func ToSupplierSettlementResponses(ss []domain.SupplierSettlement) []SupplierSettlementResponse {
	responses := make([]SupplierSettlementResponse, len(ss))
	for i, s := range ss {
		responses[i] = ToSupplierSettlementResponse(s)
	}
	return responses
}
