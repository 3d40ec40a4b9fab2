package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/SscSPs/partner_settlement_app/internal/apperrors"
	"github.com/google/uuid"
)

// WithdrawalStatus is the state of a partner cash-out request.
type WithdrawalStatus string

const (
	WithdrawalPendingReview WithdrawalStatus = "pending_review"
	WithdrawalReviewing     WithdrawalStatus = "reviewing"
	WithdrawalApproved      WithdrawalStatus = "approved"
	WithdrawalProcessing    WithdrawalStatus = "processing"
	WithdrawalSuccess       WithdrawalStatus = "success"
	WithdrawalFailed        WithdrawalStatus = "failed"
	WithdrawalRejected      WithdrawalStatus = "rejected"
	WithdrawalClosed        WithdrawalStatus = "closed"
)

// IsValid reports whether the status is known.
func (s WithdrawalStatus) IsValid() bool {
	switch s {
	case WithdrawalPendingReview, WithdrawalReviewing, WithdrawalApproved, WithdrawalProcessing,
		WithdrawalSuccess, WithdrawalFailed, WithdrawalRejected, WithdrawalClosed:
		return true
	}
	return false
}

// InFlight reports whether the requested amount is still reserved against
// the partner's payable balance.
func (s WithdrawalStatus) InFlight() bool {
	switch s {
	case WithdrawalPendingReview, WithdrawalReviewing, WithdrawalApproved, WithdrawalProcessing, WithdrawalFailed:
		return true
	}
	return false
}

// underReview is the set of states a reviewer may act on.
func (s WithdrawalStatus) underReview() bool {
	return s == WithdrawalPendingReview || s == WithdrawalReviewing
}

// PartnerAccountType is the kind of account a partner withdraws to.
type PartnerAccountType string

const (
	AccountPersonal   PartnerAccountType = "personal"
	AccountEnterprise PartnerAccountType = "enterprise"
)

// WithdrawalInvoice is the invoice an enterprise partner attaches to a withdrawal.
type WithdrawalInvoice struct {
	InvoiceNumber string    `json:"invoiceNumber"`
	Amount        Money     `json:"amount"`
	IssuedAt      time.Time `json:"issuedAt"`
}

// Withdrawal is a partner's request to be paid part of its payable balance.
// Deducted is true while a payable decrease for this request is in effect.
type Withdrawal struct {
	WithdrawalID              string             `json:"withdrawalID"`
	PartnerID                 string             `json:"partnerID"`
	Amount                    Money              `json:"amount"`
	AvailableBalanceAtRequest Money              `json:"availableBalanceAtRequest"`
	AccountType               PartnerAccountType `json:"accountType"`
	Status                    WithdrawalStatus   `json:"status"`
	ReviewedAt                *time.Time         `json:"reviewedAt,omitempty"`
	TransferredAt             *time.Time         `json:"transferredAt,omitempty"`
	ReviewComment             string             `json:"reviewComment,omitempty"`
	RejectReason              string             `json:"rejectReason,omitempty"`
	CloseReason               string             `json:"closeReason,omitempty"`
	FailureReason             string             `json:"failureReason,omitempty"`
	Deducted                  bool               `json:"deducted"`
	Invoice                   *WithdrawalInvoice `json:"invoice,omitempty"`
	AuditFields
}

// NewWithdrawal validates a submission against the partner's available balance
// at this moment; that balance is kept as a snapshot on the request.
func NewWithdrawal(partnerID string, amount, available Money, accountType PartnerAccountType, invoice *WithdrawalInvoice, operator string, now time.Time) (Withdrawal, error) {
	if partnerID == "" {
		return Withdrawal{}, apperrors.NewValidationError("partnerID", apperrors.CodeRequired, "partner is required")
	}
	if amount <= 0 {
		return Withdrawal{}, apperrors.NewValidationError("amount", apperrors.CodeOutOfRange, "withdrawal amount must be positive")
	}
	switch accountType {
	case AccountPersonal:
	case AccountEnterprise:
		if invoice == nil || strings.TrimSpace(invoice.InvoiceNumber) == "" {
			return Withdrawal{}, apperrors.NewValidationError("invoice", apperrors.CodeRequired, "enterprise partners must attach an invoice")
		}
		if invoice.Amount < amount {
			return Withdrawal{}, apperrors.NewValidationError("invoice.amount", apperrors.CodeOutOfRange, "invoice amount must cover the withdrawal amount")
		}
	default:
		return Withdrawal{}, apperrors.NewValidationError("accountType", apperrors.CodeInvalidValue, fmt.Sprintf("unknown account type %q", accountType))
	}
	if amount > available {
		return Withdrawal{}, fmt.Errorf("%w: requested %s, available %s", apperrors.ErrInsufficientBalance, amount, available)
	}
	return Withdrawal{
		WithdrawalID:              uuid.NewString(),
		PartnerID:                 partnerID,
		Amount:                    amount,
		AvailableBalanceAtRequest: available,
		AccountType:               accountType,
		Status:                    WithdrawalPendingReview,
		Invoice:                   invoice,
		AuditFields:               NewAuditFields(operator, now),
	}, nil
}

func (w Withdrawal) invalidTransition(action string) error {
	return fmt.Errorf("%w: cannot %s withdrawal %s in status %s", apperrors.ErrInvalidState, action, w.WithdrawalID, w.Status)
}

// ValidateReason enforces the minimum reason length for reject and close.
func ValidateReason(field, reason string, minLength int) error {
	if utf8.RuneCountInString(strings.TrimSpace(reason)) < minLength {
		return apperrors.NewValidationError(field, apperrors.CodeReasonTooShort,
			fmt.Sprintf("reason must be at least %d characters", minLength))
	}
	return nil
}

// StartReview marks a pending request as picked up by a reviewer.
func (w Withdrawal) StartReview(operator string, now time.Time) (Withdrawal, error) {
	if w.Status != WithdrawalPendingReview {
		return w, w.invalidTransition("start review of")
	}
	w.Status = WithdrawalReviewing
	w.AuditFields = w.AuditFields.touch(operator, now)
	return w, nil
}

// Approve accepts the request for payment.
func (w Withdrawal) Approve(comment, operator string, now time.Time) (Withdrawal, error) {
	if !w.Status.underReview() {
		return w, w.invalidTransition("approve")
	}
	w.Status = WithdrawalApproved
	w.ReviewComment = strings.TrimSpace(comment)
	w.ReviewedAt = &now
	w.AuditFields = w.AuditFields.touch(operator, now)
	return w, nil
}

// Reject refuses the request. The reason is shown to the partner.
func (w Withdrawal) Reject(reason string, minReasonLength int, operator string, now time.Time) (Withdrawal, error) {
	if err := ValidateReason("reason", reason, minReasonLength); err != nil {
		return w, err
	}
	if !w.Status.underReview() {
		return w, w.invalidTransition("reject")
	}
	w.Status = WithdrawalRejected
	w.RejectReason = strings.TrimSpace(reason)
	w.ReviewComment = w.RejectReason
	w.ReviewedAt = &now
	w.AuditFields = w.AuditFields.touch(operator, now)
	return w, nil
}

// Close withdraws the request before a review decision.
func (w Withdrawal) Close(reason string, minReasonLength int, operator string, now time.Time) (Withdrawal, error) {
	if err := ValidateReason("reason", reason, minReasonLength); err != nil {
		return w, err
	}
	if !w.Status.underReview() {
		return w, w.invalidTransition("close")
	}
	w.Status = WithdrawalClosed
	w.CloseReason = strings.TrimSpace(reason)
	w.AuditFields = w.AuditFields.touch(operator, now)
	return w, nil
}

// checkSnapshot re-asserts the submission guard against the stored snapshot.
// The live balance is deliberately not consulted.
func (w Withdrawal) checkSnapshot() error {
	if w.Amount > w.AvailableBalanceAtRequest {
		return fmt.Errorf("%w: withdrawal %s amount %s exceeds balance %s at request",
			apperrors.ErrInsufficientBalance, w.WithdrawalID, w.Amount, w.AvailableBalanceAtRequest)
	}
	return nil
}

// InitiatePayment hands an approved request to the payout process.
func (w Withdrawal) InitiatePayment(operator string, now time.Time) (Withdrawal, error) {
	if w.Status != WithdrawalApproved {
		return w, w.invalidTransition("pay")
	}
	if err := w.checkSnapshot(); err != nil {
		return w, err
	}
	w.Status = WithdrawalProcessing
	w.AuditFields = w.AuditFields.touch(operator, now)
	return w, nil
}

// MarkSucceeded records the payout and emits the payable decrease.
func (w Withdrawal) MarkSucceeded(operator string, now time.Time) (Withdrawal, []LedgerTransaction, error) {
	if w.Status != WithdrawalProcessing {
		return w, nil, w.invalidTransition("mark paid")
	}
	if err := w.checkSnapshot(); err != nil {
		return w, nil, err
	}
	var entries []LedgerTransaction
	if !w.Deducted {
		txn, err := NewLedgerTransaction(LedgerPayableDistribution, EntryWithdrawalPaid, DirectionDecrease, w.Amount,
			"withdrawal paid "+w.WithdrawalID, w.PartnerID, w.WithdrawalID, operator, now)
		if err != nil {
			return w, nil, err
		}
		entries = append(entries, txn)
		w.Deducted = true
	}
	w.Status = WithdrawalSuccess
	w.TransferredAt = &now
	w.AuditFields = w.AuditFields.touch(operator, now)
	return w, entries, nil
}

// MarkFailed records a failed payout. From success it is the compensating
// action: the earlier deduction is added back exactly once.
func (w Withdrawal) MarkFailed(reason, operator string, now time.Time) (Withdrawal, []LedgerTransaction, error) {
	if strings.TrimSpace(reason) == "" {
		return w, nil, apperrors.NewValidationError("reason", apperrors.CodeRequired, "failure reason is required")
	}
	if w.Status != WithdrawalProcessing && w.Status != WithdrawalSuccess {
		return w, nil, w.invalidTransition("mark failed")
	}
	var entries []LedgerTransaction
	if w.Deducted {
		txn, err := NewLedgerTransaction(LedgerPayableDistribution, EntryWithdrawalReversed, DirectionIncrease, w.Amount,
			"withdrawal payment reversed "+w.WithdrawalID, w.PartnerID, w.WithdrawalID, operator, now)
		if err != nil {
			return w, nil, err
		}
		entries = append(entries, txn)
		w.Deducted = false
	}
	w.Status = WithdrawalFailed
	w.FailureReason = strings.TrimSpace(reason)
	w.AuditFields = w.AuditFields.touch(operator, now)
	return w, entries, nil
}

// Retry re-initiates payment of a failed request.
func (w Withdrawal) Retry(operator string, now time.Time) (Withdrawal, error) {
	if w.Status != WithdrawalFailed {
		return w, w.invalidTransition("retry")
	}
	if err := w.checkSnapshot(); err != nil {
		return w, err
	}
	w.Status = WithdrawalProcessing
	w.FailureReason = ""
	w.AuditFields = w.AuditFields.touch(operator, now)
	return w, nil
}
