package domain

import (
	"fmt"
	"time"

	"github.com/SscSPs/partner_settlement_app/internal/apperrors"
	"github.com/google/uuid"
)

// LedgerAccount is the balance bucket a ledger transaction moves.
type LedgerAccount string

const (
	LedgerPayableDistribution LedgerAccount = "payable_distribution"
	LedgerPayableSupplier     LedgerAccount = "payable_supplier"
	LedgerActualRevenue       LedgerAccount = "actual_revenue"
	LedgerAdvancePayment      LedgerAccount = "advance_payment"
	LedgerPlatformFunds       LedgerAccount = "platform_funds"
)

// IsValid reports whether the account is a known bucket.
func (a LedgerAccount) IsValid() bool {
	switch a {
	case LedgerPayableDistribution, LedgerPayableSupplier, LedgerActualRevenue, LedgerAdvancePayment, LedgerPlatformFunds:
		return true
	}
	return false
}

// clamped accounts never fold below zero.
func (a LedgerAccount) clamped() bool {
	return a == LedgerPayableDistribution || a == LedgerPayableSupplier
}

// Direction is the sign of a ledger transaction.
type Direction string

const (
	DirectionIncrease Direction = "increase"
	DirectionDecrease Direction = "decrease"
)

// LedgerEntryKind records which business event produced a transaction.
type LedgerEntryKind string

const (
	EntryOrderCompleted           LedgerEntryKind = "order_completed"
	EntryWithdrawalPaid           LedgerEntryKind = "withdrawal_paid"
	EntryWithdrawalReversed       LedgerEntryKind = "withdrawal_reversed"
	EntrySupplierSettlement       LedgerEntryKind = "supplier_settlement"
	EntryRecharge                 LedgerEntryKind = "recharge"
	EntryCompensation             LedgerEntryKind = "compensation"
	EntryCompanyWithdrawal        LedgerEntryKind = "company_withdrawal"
	EntryReconciliationAdjustment LedgerEntryKind = "reconciliation_adjustment"
)

// LedgerTransaction is an append-only signed balance change. Balances are
// always derived by folding these; they are never stored on their own.
type LedgerTransaction struct {
	ID              string          `json:"id"`
	Timestamp       time.Time       `json:"timestamp"`
	Account         LedgerAccount   `json:"account"`
	Kind            LedgerEntryKind `json:"kind"`
	Direction       Direction       `json:"direction"`
	Amount          Money           `json:"amount"`
	Description     string          `json:"description"`
	PartnerID       string          `json:"partnerID,omitempty"`
	RelatedEntityID string          `json:"relatedEntityID,omitempty"`
	Operator        string          `json:"operator"`
}

// NewLedgerTransaction builds and validates a transaction with a fresh ID.
func NewLedgerTransaction(account LedgerAccount, kind LedgerEntryKind, direction Direction, amount Money, description, partnerID, relatedID, operator string, now time.Time) (LedgerTransaction, error) {
	txn := LedgerTransaction{
		ID:              uuid.NewString(),
		Timestamp:       now,
		Account:         account,
		Kind:            kind,
		Direction:       direction,
		Amount:          amount,
		Description:     description,
		PartnerID:       partnerID,
		RelatedEntityID: relatedID,
		Operator:        operator,
	}
	if err := txn.Validate(); err != nil {
		return LedgerTransaction{}, err
	}
	return txn, nil
}

// Validate checks the invariants every appended transaction must hold.
func (t LedgerTransaction) Validate() error {
	if !t.Account.IsValid() {
		return apperrors.NewValidationError("account", apperrors.CodeInvalidValue, fmt.Sprintf("unknown ledger account %q", t.Account))
	}
	if t.Direction != DirectionIncrease && t.Direction != DirectionDecrease {
		return apperrors.NewValidationError("direction", apperrors.CodeInvalidValue, fmt.Sprintf("unknown direction %q", t.Direction))
	}
	if t.Amount <= 0 {
		return apperrors.NewValidationError("amount", apperrors.CodeOutOfRange, "ledger amount must be positive")
	}
	if t.Operator == "" {
		return apperrors.NewValidationError("operator", apperrors.CodeRequired, "operator is required")
	}
	return nil
}

// Signed returns the amount with the direction applied.
func (t LedgerTransaction) Signed() Money {
	if t.Direction == DirectionDecrease {
		return -t.Amount
	}
	return t.Amount
}

// signedEntry builds a transaction whose direction follows the sign of delta.
// A zero delta yields no transaction.
func signedEntry(account LedgerAccount, kind LedgerEntryKind, delta Money, description, partnerID, relatedID, operator string, now time.Time) ([]LedgerTransaction, error) {
	if delta == 0 {
		return nil, nil
	}
	direction := DirectionIncrease
	if delta < 0 {
		direction = DirectionDecrease
	}
	txn, err := NewLedgerTransaction(account, kind, direction, delta.Abs(), description, partnerID, relatedID, operator, now)
	if err != nil {
		return nil, err
	}
	return []LedgerTransaction{txn}, nil
}

// Balances is the folded state of the ledger per account.
type Balances map[LedgerAccount]Money

// Apply folds one transaction into the balances. Decreases on payable
// accounts stop at zero.
func (b Balances) Apply(t LedgerTransaction) {
	next := b[t.Account] + t.Signed()
	if t.Account.clamped() && next < 0 {
		next = 0
	}
	b[t.Account] = next
}

// LedgerSnapshot is the platform-wide view derived from the transaction log.
type LedgerSnapshot struct {
	PayableDistribution Money     `json:"payableDistribution"`
	PayableSupplier     Money     `json:"payableSupplier"`
	AvailableFunds      Money     `json:"availableFunds"`
	AdvancePayment      Money     `json:"advancePayment"`
	ActualRevenue       Money     `json:"actualRevenue"`
	PlatformFunds       Money     `json:"platformFunds"`
	TransactionCount    int       `json:"transactionCount"`
	AsOf                time.Time `json:"asOf"`
}

// ReplayLedger folds the full log from zero, in order.
func ReplayLedger(txns []LedgerTransaction, asOf time.Time) LedgerSnapshot {
	balances := Balances{}
	for _, t := range txns {
		balances.Apply(t)
	}
	snapshot := LedgerSnapshot{
		PayableDistribution: balances[LedgerPayableDistribution],
		PayableSupplier:     balances[LedgerPayableSupplier],
		AdvancePayment:      balances[LedgerAdvancePayment],
		ActualRevenue:       balances[LedgerActualRevenue],
		PlatformFunds:       balances[LedgerPlatformFunds],
		TransactionCount:    len(txns),
		AsOf:                asOf,
	}
	snapshot.AvailableFunds = snapshot.ActualRevenue - snapshot.PayableDistribution - snapshot.PayableSupplier +
		snapshot.AdvancePayment + snapshot.PlatformFunds
	return snapshot
}

// PartnerPayable folds the distribution payable owed to one partner.
func PartnerPayable(txns []LedgerTransaction, partnerID string) Money {
	balances := Balances{}
	for _, t := range txns {
		if t.Account == LedgerPayableDistribution && t.PartnerID == partnerID {
			balances.Apply(t)
		}
	}
	return balances[LedgerPayableDistribution]
}

// OrderCompletionEntries are posted when an order completes: revenue, the
// partner's commission and the supplier's cost all become owed or earned.
func OrderCompletionEntries(o Order, operator string, now time.Time) ([]LedgerTransaction, error) {
	if o.Status != OrderCompleted {
		return nil, fmt.Errorf("%w: order %s is %s, not completed", apperrors.ErrInvalidState, o.OrderID, o.Status)
	}
	var entries []LedgerTransaction
	add := func(account LedgerAccount, amount Money, description, partnerID string) error {
		e, err := signedEntry(account, EntryOrderCompleted, amount, description, partnerID, o.OrderID, operator, now)
		if err != nil {
			return err
		}
		entries = append(entries, e...)
		return nil
	}
	if err := add(LedgerActualRevenue, o.Economics.OrderAmount, "order revenue "+o.OrderID, ""); err != nil {
		return nil, err
	}
	if err := add(LedgerPayableDistribution, o.Economics.Commission, "partner commission for order "+o.OrderID, o.PartnerID); err != nil {
		return nil, err
	}
	if err := add(LedgerPayableSupplier, o.SupplierCost, "supplier cost for order "+o.OrderID, ""); err != nil {
		return nil, err
	}
	return entries, nil
}

// ManualEntryType is an operator-entered debit of platform funds.
type ManualEntryType string

const (
	ManualCompensation      ManualEntryType = "compensation"
	ManualCompanyWithdrawal ManualEntryType = "company_withdrawal"
)

// Kind maps the manual entry type to its ledger entry kind.
func (m ManualEntryType) Kind() (LedgerEntryKind, error) {
	switch m {
	case ManualCompensation:
		return EntryCompensation, nil
	case ManualCompanyWithdrawal:
		return EntryCompanyWithdrawal, nil
	}
	return "", apperrors.NewValidationError("type", apperrors.CodeInvalidValue, fmt.Sprintf("unknown manual entry type %q", m))
}

// SupplierSettlement is a payment of money owed to a supplier.
type SupplierSettlement struct {
	SettlementID string    `json:"settlementID"`
	SupplierName string    `json:"supplierName"`
	Amount       Money     `json:"amount"`
	Reference    string    `json:"reference"`
	Operator     string    `json:"operator"`
	PaidAt       time.Time `json:"paidAt"`
}

// LedgerEntries returns the payable decrease a settlement posts.
func (s SupplierSettlement) LedgerEntries() ([]LedgerTransaction, error) {
	if s.Amount <= 0 {
		return nil, apperrors.NewValidationError("amount", apperrors.CodeOutOfRange, "settlement amount must be positive")
	}
	txn, err := NewLedgerTransaction(LedgerPayableSupplier, EntrySupplierSettlement, DirectionDecrease, s.Amount,
		"supplier settlement to "+s.SupplierName, "", s.SettlementID, s.Operator, s.PaidAt)
	if err != nil {
		return nil, err
	}
	return []LedgerTransaction{txn}, nil
}
