package models

import "time"

// WithdrawalInvoice is stored as JSONB on the withdrawal row.
type WithdrawalInvoice struct {
	InvoiceNumber string    `json:"invoiceNumber"`
	Amount        int64     `json:"amount"`
	IssuedAt      time.Time `json:"issuedAt"`
}

// Withdrawal is a row of the withdrawals table.
type Withdrawal struct {
	WithdrawalID              string             `db:"withdrawal_id"`
	PartnerID                 string             `db:"partner_id"`
	Amount                    int64              `db:"amount"`
	AvailableBalanceAtRequest int64              `db:"available_balance_at_request"`
	AccountType               string             `db:"account_type"`
	Status                    string             `db:"status"`
	ReviewedAt                *time.Time         `db:"reviewed_at"`
	TransferredAt             *time.Time         `db:"transferred_at"`
	ReviewComment             string             `db:"review_comment"`
	RejectReason              string             `db:"reject_reason"`
	CloseReason               string             `db:"close_reason"`
	FailureReason             string             `db:"failure_reason"`
	Deducted                  bool               `db:"deducted"`
	Invoice                   *WithdrawalInvoice `db:"invoice"` // JSONB, nullable
	AuditFields
}
