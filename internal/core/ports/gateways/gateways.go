package gateways

import (
	"context"
	"io"

	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
)

// ExternalQuery identifies the unit whose external side is requested. Only
// the fields relevant to Kind are set.
type ExternalQuery struct {
	Kind         domain.ReconciliationKind
	OrderID      string
	SupplierName string
	Channel      string
	PartnerID    string
	Period       domain.Period
}

// ExternalTotals is the external side of one reconciliation unit. Only the
// fields relevant to the query kind are filled.
type ExternalTotals struct {
	SupplierBillAmount    domain.Money             `json:"supplierBillAmount"`
	ChannelOrders         []domain.OrderAmount     `json:"channelOrders"`
	Deductions            []domain.DeductionRecord `json:"deductions"`
	CustomerInvoiceAmount domain.Money             `json:"customerInvoiceAmount"`
}

// ExternalSource fetches the external side of a reconciliation. A failure or
// timeout must be reported as apperrors.ErrSourceUnavailable.
type ExternalSource interface {
	FetchExternalTotals(ctx context.Context, query ExternalQuery) (ExternalTotals, error)
}

// EntityLocker serializes work on one entity key across goroutines or
// instances. The returned function releases the lock.
type EntityLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// ReconciliationExporter renders reconciliation records for finance staff.
type ReconciliationExporter interface {
	ContentType() string
	FileExtension() string
	Export(ctx context.Context, w io.Writer, records []domain.Reconciliation) error
}
