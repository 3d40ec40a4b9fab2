package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/partner_settlement_app/internal/apperrors"
)

// ReconciliationKind identifies one of the reconciliation variants.
type ReconciliationKind string

const (
	KindSupplierCost   ReconciliationKind = "supplier_cost"
	KindPaymentChannel ReconciliationKind = "payment_channel"
	KindWithdrawal     ReconciliationKind = "withdrawal"
	KindInvoice        ReconciliationKind = "invoice"
)

// ReconciliationKinds lists every variant.
var ReconciliationKinds = []ReconciliationKind{KindSupplierCost, KindPaymentChannel, KindWithdrawal, KindInvoice}

// IsValid reports whether the kind is known.
func (k ReconciliationKind) IsValid() bool {
	switch k {
	case KindSupplierCost, KindPaymentChannel, KindWithdrawal, KindInvoice:
		return true
	}
	return false
}

// ReconciliationStatus is a status from one variant's vocabulary.
type ReconciliationStatus string

const (
	StatusPending        ReconciliationStatus = "pending"
	StatusReconciling    ReconciliationStatus = "reconciling"
	StatusReconciled     ReconciliationStatus = "reconciled"
	StatusDifference     ReconciliationStatus = "difference"
	StatusBalanced       ReconciliationStatus = "balanced"
	StatusPlatformMore   ReconciliationStatus = "platform_more"
	StatusChannelMore    ReconciliationStatus = "channel_more"
	StatusWithdrawalMore ReconciliationStatus = "withdrawal_more"
	StatusAccountMore    ReconciliationStatus = "account_more"
	StatusInvoiceMore    ReconciliationStatus = "invoice_more"
	StatusCostMore       ReconciliationStatus = "cost_more"
	StatusResolved       ReconciliationStatus = "resolved"
)

// StatusModel is the state vocabulary of one variant.
// Positive and Negative are the difference states for a gap above or below zero.
type StatusModel struct {
	Initial    ReconciliationStatus
	InProgress ReconciliationStatus
	Balanced   ReconciliationStatus
	Positive   ReconciliationStatus
	Negative   ReconciliationStatus
}

var statusModels = map[ReconciliationKind]StatusModel{
	KindSupplierCost: {
		Initial: StatusPending, InProgress: StatusReconciling, Balanced: StatusReconciled,
		Positive: StatusDifference, Negative: StatusDifference,
	},
	KindPaymentChannel: {
		Initial: StatusReconciling, InProgress: StatusReconciling, Balanced: StatusBalanced,
		Positive: StatusPlatformMore, Negative: StatusChannelMore,
	},
	KindWithdrawal: {
		Initial: StatusReconciling, InProgress: StatusReconciling, Balanced: StatusBalanced,
		Positive: StatusWithdrawalMore, Negative: StatusAccountMore,
	},
	KindInvoice: {
		Initial: StatusReconciling, InProgress: StatusReconciling, Balanced: StatusBalanced,
		Positive: StatusInvoiceMore, Negative: StatusCostMore,
	},
}

// ModelFor returns the status model of a kind.
func ModelFor(kind ReconciliationKind) StatusModel {
	return statusModels[kind]
}

// Classify maps a signed difference to the terminal status.
func (m StatusModel) Classify(difference Money) ReconciliationStatus {
	switch difference.Sign() {
	case 1:
		return m.Positive
	case -1:
		return m.Negative
	}
	return m.Balanced
}

// IsDifference reports whether s is one of the difference terminal states.
func (m StatusModel) IsDifference(s ReconciliationStatus) bool {
	return s == m.Positive || s == m.Negative
}

// IsInProgress reports whether s is a pre-terminal state.
func (m StatusModel) IsInProgress(s ReconciliationStatus) bool {
	return s == m.Initial || s == m.InProgress
}

// Allows reports whether s belongs to the vocabulary.
func (m StatusModel) Allows(s ReconciliationStatus) bool {
	return m.IsInProgress(s) || s == m.Balanced || m.IsDifference(s) || s == StatusResolved
}

// Resolution is the human explanation recorded when a difference is closed.
type Resolution struct {
	Text       string    `json:"text"`
	ResolvedBy string    `json:"resolvedBy"`
	ResolvedAt time.Time `json:"resolvedAt"`
}

// ReconciliationHeader holds the fields every variant shares. UnitKey is the
// natural key of the compared unit, so a re-run finds the same record.
type ReconciliationHeader struct {
	ID           string               `json:"id"`
	UnitKey      string               `json:"unitKey"`
	CreatedAt    time.Time            `json:"createdAt"`
	UpdatedAt    time.Time            `json:"updatedAt"`
	ReconciledAt *time.Time           `json:"reconciledAt,omitempty"`
	Status       ReconciliationStatus `json:"status"`
	Resolution   *Resolution          `json:"resolution,omitempty"`
	Version      int64                `json:"version"`
}

// Reconciliation is the sealed sum of the four reconciliation variants.
// Handle it exhaustively with a ReconciliationVisitor.
type Reconciliation interface {
	Kind() ReconciliationKind
	Header() ReconciliationHeader
	// Difference is the signed gap between the two compared sides.
	Difference() Money
	Accept(v ReconciliationVisitor) error
	withHeader(h ReconciliationHeader) Reconciliation
}

// ReconciliationVisitor has one method per variant. Adding a variant adds a
// method here, which every visitor must then implement.
type ReconciliationVisitor interface {
	VisitSupplierCost(r SupplierCostReconciliation) error
	VisitPaymentChannel(r PaymentChannelReconciliation) error
	VisitWithdrawal(r WithdrawalReconciliation) error
	VisitInvoice(r InvoiceReconciliation) error
}

func newHeader(id, unitKey string, kind ReconciliationKind, now time.Time) ReconciliationHeader {
	// created_at is also the page cursor; keep it at the precision Postgres stores.
	now = now.Truncate(time.Microsecond)
	return ReconciliationHeader{
		ID:        id,
		UnitKey:   unitKey,
		CreatedAt: now,
		UpdatedAt: now,
		Status:    ModelFor(kind).Initial,
	}
}

// MarkInProgress moves a record into its in-progress state before a run.
func MarkInProgress(r Reconciliation, now time.Time) (Reconciliation, error) {
	h := r.Header()
	if h.Status == StatusResolved {
		return r, fmt.Errorf("%w: reconciliation %s is resolved", apperrors.ErrInvalidState, h.ID)
	}
	h.Status = ModelFor(r.Kind()).InProgress
	h.UpdatedAt = now
	return r.withHeader(h), nil
}

// settle stamps the diff result on a header.
func settle(h ReconciliationHeader, kind ReconciliationKind, difference Money, now time.Time) (ReconciliationHeader, error) {
	if h.Status == StatusResolved {
		return h, fmt.Errorf("%w: reconciliation %s is resolved", apperrors.ErrInvalidState, h.ID)
	}
	h.Status = ModelFor(kind).Classify(difference)
	h.ReconciledAt = &now
	h.UpdatedAt = now
	return h, nil
}

// Resolve closes a difference with an operator's explanation. It is at most
// once: a second call fails with ErrAlreadyResolved.
func Resolve(r Reconciliation, text, operator string, now time.Time) (Reconciliation, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return r, apperrors.NewValidationError("resolutionText", apperrors.CodeRequired, "resolution text is required")
	}
	if operator == "" {
		return r, apperrors.NewValidationError("operator", apperrors.CodeRequired, "operator is required")
	}
	h := r.Header()
	if h.Status == StatusResolved {
		return r, fmt.Errorf("%w: reconciliation %s", apperrors.ErrAlreadyResolved, h.ID)
	}
	if !ModelFor(r.Kind()).IsDifference(h.Status) {
		return r, fmt.Errorf("%w: reconciliation %s is %s, not a difference state", apperrors.ErrInvalidState, h.ID, h.Status)
	}
	h.Status = StatusResolved
	h.Resolution = &Resolution{Text: text, ResolvedBy: operator, ResolvedAt: now}
	h.UpdatedAt = now
	return r.withHeader(h), nil
}

// CheckBalanceInvariant verifies that a zero difference and the balanced
// status always go together. Resolved and in-progress records are exempt.
func CheckBalanceInvariant(r Reconciliation) error {
	h := r.Header()
	m := ModelFor(r.Kind())
	if h.Status == StatusResolved || m.IsInProgress(h.Status) {
		return nil
	}
	if (r.Difference() == 0) != (h.Status == m.Balanced) {
		return fmt.Errorf("reconciliation %s has difference %s with status %s", h.ID, r.Difference(), h.Status)
	}
	return nil
}

// Period is a half-open time range [Start, End).
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// DayPeriod is the UTC calendar day containing t.
func DayPeriod(t time.Time) Period {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(0, 0, 1)}
}

// MonthPeriod is the UTC calendar month containing t.
func MonthPeriod(t time.Time) Period {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(0, 1, 0)}
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// DayKey formats the period start as YYYY-MM-DD.
func (p Period) DayKey() string {
	return p.Start.Format("2006-01-02")
}

// MonthKey formats the period start as YYYY-MM.
func (p Period) MonthKey() string {
	return p.Start.Format("2006-01")
}

// BumpVersion returns r with its header version incremented, matching what
// an update stores.
func BumpVersion(r Reconciliation) Reconciliation {
	h := r.Header()
	h.Version++
	return r.withHeader(h)
}
