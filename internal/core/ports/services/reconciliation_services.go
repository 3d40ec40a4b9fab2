package services

import (
	"context"
	"io"

	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
	"github.com/SscSPs/partner_settlement_app/internal/dto"
)

// ReconciliationRunnerSvc runs one reconciliation unit. Re-running an
// unchanged unit updates the same record to the same result.
type ReconciliationRunnerSvc interface {
	RunSupplierCost(ctx context.Context, orderID string) (domain.Reconciliation, error)
	RunPaymentChannel(ctx context.Context, channel string, day domain.Period) (domain.Reconciliation, error)
	RunWithdrawal(ctx context.Context, partnerID string, month domain.Period) (domain.Reconciliation, error)
	RunInvoice(ctx context.Context, month domain.Period) (domain.Reconciliation, error)
	Run(ctx context.Context, req dto.RunReconciliationRequest) (domain.Reconciliation, error)
}

// ReconciliationReaderSvc defines read operations on reconciliation records
type ReconciliationReaderSvc interface {
	GetReconciliation(ctx context.Context, id string) (domain.Reconciliation, error)
	ListReconciliations(ctx context.Context, params dto.ListReconciliationsParams) (*dto.ListReconciliationsResponse, error)

	// ExportReconciliations writes every record matching the filter to w.
	// It returns the content type and file extension of the export.
	ExportReconciliations(ctx context.Context, params dto.ListReconciliationsParams, w io.Writer) (contentType, extension string, err error)
}

// DifferenceResolutionSvc closes differences
type DifferenceResolutionSvc interface {
	ResolveDifference(ctx context.Context, id, resolutionText, operator string) (domain.Reconciliation, error)
}

// ReconciliationSvcFacade combines all reconciliation-related service interfaces
type ReconciliationSvcFacade interface {
	ReconciliationRunnerSvc
	ReconciliationReaderSvc
	DifferenceResolutionSvc
}
