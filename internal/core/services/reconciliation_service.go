package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/SscSPs/partner_settlement_app/internal/apperrors"
	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
	"github.com/SscSPs/partner_settlement_app/internal/core/ports/gateways"
	portsrepo "github.com/SscSPs/partner_settlement_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/partner_settlement_app/internal/core/ports/services"
	"github.com/SscSPs/partner_settlement_app/internal/dto"
	"github.com/SscSPs/partner_settlement_app/internal/utils/pagination"
	"github.com/google/uuid"
)

const (
	defaultReconciliationPageSize = 50
	defaultFetchTimeout           = 10 * time.Second
	exportPageSize                = 500
)

// reconciliationService implements the ReconciliationSvcFacade interface
type reconciliationService struct {
	BaseService
	tx              portsrepo.TransactionManager
	orders          portsrepo.OrderReader
	reconciliations portsrepo.ReconciliationReader
	source          gateways.ExternalSource
	exporter        gateways.ReconciliationExporter
	fetchTimeout    time.Duration
}

// ReconciliationServiceOption configures the reconciliation service.
type ReconciliationServiceOption func(*reconciliationService)

// WithFetchTimeout bounds every external fetch.
func WithFetchTimeout(d time.Duration) ReconciliationServiceOption {
	return func(s *reconciliationService) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

// WithExporter sets the renderer used by ExportReconciliations.
func WithExporter(exporter gateways.ReconciliationExporter) ReconciliationServiceOption {
	return func(s *reconciliationService) {
		s.exporter = exporter
	}
}

// WithBaseOptions passes shared service options through.
func WithBaseOptions(options ...ServiceOption) ReconciliationServiceOption {
	return func(s *reconciliationService) {
		for _, option := range options {
			option(&s.BaseService)
		}
	}
}

// NewReconciliationService creates a new reconciliation service.
func NewReconciliationService(tx portsrepo.TransactionManager, orders portsrepo.OrderReader, reconciliations portsrepo.ReconciliationReader, source gateways.ExternalSource, options ...ReconciliationServiceOption) portssvc.ReconciliationSvcFacade {
	s := &reconciliationService{
		BaseService:     newBaseService(),
		tx:              tx,
		orders:          orders,
		reconciliations: reconciliations,
		source:          source,
		fetchTimeout:    defaultFetchTimeout,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

var _ portssvc.ReconciliationSvcFacade = (*reconciliationService)(nil)

// unitRun describes one reconciliation unit.
type unitRun struct {
	kind    domain.ReconciliationKind
	unitKey string
	query   gateways.ExternalQuery
	// open creates the record for a unit that has never been run.
	open func(id string, now time.Time) domain.Reconciliation
	// apply loads the internal side and recomputes the record.
	apply func(ctx context.Context, store portsrepo.Store, r domain.Reconciliation, ext gateways.ExternalTotals, now time.Time) (domain.Reconciliation, error)
}

func unexpectedVariant(unitKey string, r domain.Reconciliation) error {
	return fmt.Errorf("unit %s holds a %s record", unitKey, r.Kind())
}

// fetch calls the external source with the configured timeout. Any failure
// is reported as ErrSourceUnavailable.
func (s *reconciliationService) fetch(ctx context.Context, query gateways.ExternalQuery) (gateways.ExternalTotals, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()
	ext, err := s.source.FetchExternalTotals(fetchCtx, query)
	if err != nil {
		if errors.Is(err, apperrors.ErrSourceUnavailable) {
			return ext, err
		}
		return ext, fmt.Errorf("%w: %v", apperrors.ErrSourceUnavailable, err)
	}
	return ext, nil
}

// runUnit finds or opens the record for a unit, fetches the external side and
// stores the recomputed record. Runs of the same unit are serialized on its key.
func (s *reconciliationService) runUnit(ctx context.Context, run unitRun) (domain.Reconciliation, error) {
	var result domain.Reconciliation
	err := s.WithLock(ctx, "reconciliation:"+run.unitKey, func() error {
		existing, err := s.reconciliations.FindReconciliationByUnitKey(ctx, run.unitKey)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		isNew := existing == nil

		now := s.Now()
		record := existing
		if isNew {
			record = run.open(uuid.NewString(), now)
		}
		record, err = domain.MarkInProgress(record, now)
		if err != nil {
			return err
		}

		ext, fetchErr := s.fetch(ctx, run.query)
		if fetchErr != nil {
			// A unit seen for the first time is still recorded, in progress,
			// so it shows up in listings. An existing record keeps its last result.
			if isNew {
				if err := s.tx.WithinTx(ctx, func(ctx context.Context, store portsrepo.Store) error {
					return store.Reconciliations.SaveReconciliation(ctx, record)
				}); err != nil {
					return err
				}
			}
			return fetchErr
		}

		return s.tx.WithinTx(ctx, func(ctx context.Context, store portsrepo.Store) error {
			updated, err := run.apply(ctx, store, record, ext, s.Now())
			if err != nil {
				return err
			}
			if err := domain.CheckBalanceInvariant(updated); err != nil {
				return err
			}
			if isNew {
				if err := store.Reconciliations.SaveReconciliation(ctx, updated); err != nil {
					return err
				}
				result = updated
				return nil
			}
			if err := store.Reconciliations.UpdateReconciliation(ctx, updated); err != nil {
				return err
			}
			result = domain.BumpVersion(updated)
			return nil
		})
	})
	if err != nil {
		s.LogFailure(ctx, err, "Reconciliation run failed",
			slog.String("kind", string(run.kind)),
			slog.String("unit_key", run.unitKey))
		return nil, err
	}

	h := result.Header()
	s.LogInfo(ctx, "Reconciliation run finished",
		slog.String("kind", string(run.kind)),
		slog.String("unit_key", run.unitKey),
		slog.String("status", string(h.Status)),
		slog.Int64("difference", int64(result.Difference())))
	return result, nil
}

func (s *reconciliationService) RunSupplierCost(ctx context.Context, orderID string) (domain.Reconciliation, error) {
	if orderID == "" {
		return nil, apperrors.NewValidationError("orderID", apperrors.CodeRequired, "order is required")
	}
	order, err := s.orders.FindOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	unitKey := domain.SupplierCostUnitKey(orderID)
	return s.runUnit(ctx, unitRun{
		kind:    domain.KindSupplierCost,
		unitKey: unitKey,
		query: gateways.ExternalQuery{
			Kind:         domain.KindSupplierCost,
			OrderID:      orderID,
			SupplierName: order.SupplierName,
		},
		open: func(id string, now time.Time) domain.Reconciliation {
			return domain.NewSupplierCostReconciliation(id, orderID, order.SupplierName, now)
		},
		apply: func(ctx context.Context, store portsrepo.Store, r domain.Reconciliation, ext gateways.ExternalTotals, now time.Time) (domain.Reconciliation, error) {
			rec, ok := r.(domain.SupplierCostReconciliation)
			if !ok {
				return nil, unexpectedVariant(unitKey, r)
			}
			current, err := store.Orders.FindOrderByID(ctx, orderID)
			if err != nil {
				return nil, err
			}
			return rec.Recompute(current.SupplierCost, ext.SupplierBillAmount, now)
		},
	})
}

func (s *reconciliationService) RunPaymentChannel(ctx context.Context, channel string, day domain.Period) (domain.Reconciliation, error) {
	if channel == "" {
		return nil, apperrors.NewValidationError("channel", apperrors.CodeRequired, "payment channel is required")
	}
	unitKey := domain.PaymentChannelUnitKey(channel, day)
	return s.runUnit(ctx, unitRun{
		kind:    domain.KindPaymentChannel,
		unitKey: unitKey,
		query: gateways.ExternalQuery{
			Kind:    domain.KindPaymentChannel,
			Channel: channel,
			Period:  day,
		},
		open: func(id string, now time.Time) domain.Reconciliation {
			return domain.NewPaymentChannelReconciliation(id, channel, day, now)
		},
		apply: func(ctx context.Context, store portsrepo.Store, r domain.Reconciliation, ext gateways.ExternalTotals, now time.Time) (domain.Reconciliation, error) {
			rec, ok := r.(domain.PaymentChannelReconciliation)
			if !ok {
				return nil, unexpectedVariant(unitKey, r)
			}
			orders, err := store.Orders.ListOrders(ctx, portsrepo.OrderFilter{
				PaymentChannel: channel,
				Statuses:       []domain.OrderStatus{domain.OrderPendingCheckin, domain.OrderCompleted, domain.OrderCancelledPartial},
				PaidFrom:       day.Start,
				PaidTo:         day.End,
			})
			if err != nil {
				return nil, err
			}
			platform := make([]domain.OrderAmount, 0, len(orders))
			for _, o := range orders {
				platform = append(platform, domain.OrderAmount{OrderID: o.OrderID, Amount: o.Economics.OrderAmount})
			}
			return rec.Recompute(platform, ext.ChannelOrders, now)
		},
	})
}

func (s *reconciliationService) RunWithdrawal(ctx context.Context, partnerID string, month domain.Period) (domain.Reconciliation, error) {
	if partnerID == "" {
		return nil, apperrors.NewValidationError("partnerID", apperrors.CodeRequired, "partner is required")
	}
	unitKey := domain.WithdrawalUnitKey(partnerID, month)
	return s.runUnit(ctx, unitRun{
		kind:    domain.KindWithdrawal,
		unitKey: unitKey,
		query: gateways.ExternalQuery{
			Kind:      domain.KindWithdrawal,
			PartnerID: partnerID,
			Period:    month,
		},
		open: func(id string, now time.Time) domain.Reconciliation {
			return domain.NewWithdrawalReconciliation(id, partnerID, month, now)
		},
		apply: func(ctx context.Context, store portsrepo.Store, r domain.Reconciliation, ext gateways.ExternalTotals, now time.Time) (domain.Reconciliation, error) {
			rec, ok := r.(domain.WithdrawalReconciliation)
			if !ok {
				return nil, unexpectedVariant(unitKey, r)
			}
			paid, err := store.Withdrawals.ListWithdrawals(ctx, portsrepo.WithdrawalFilter{
				PartnerID:       partnerID,
				Statuses:        []domain.WithdrawalStatus{domain.WithdrawalSuccess},
				TransferredFrom: month.Start,
				TransferredTo:   month.End,
			})
			if err != nil {
				return nil, err
			}
			records := make([]domain.WithdrawalRecord, 0, len(paid))
			for _, w := range paid {
				record := domain.WithdrawalRecord{WithdrawalID: w.WithdrawalID, Amount: w.Amount}
				if w.TransferredAt != nil {
					record.PaidAt = *w.TransferredAt
				}
				records = append(records, record)
			}
			return rec.Recompute(records, ext.Deductions, now)
		},
	})
}

func (s *reconciliationService) RunInvoice(ctx context.Context, month domain.Period) (domain.Reconciliation, error) {
	unitKey := domain.InvoiceUnitKey(month)
	return s.runUnit(ctx, unitRun{
		kind:    domain.KindInvoice,
		unitKey: unitKey,
		query: gateways.ExternalQuery{
			Kind:   domain.KindInvoice,
			Period: month,
		},
		open: func(id string, now time.Time) domain.Reconciliation {
			return domain.NewInvoiceReconciliation(id, month, now)
		},
		apply: func(ctx context.Context, store portsrepo.Store, r domain.Reconciliation, ext gateways.ExternalTotals, now time.Time) (domain.Reconciliation, error) {
			rec, ok := r.(domain.InvoiceReconciliation)
			if !ok {
				return nil, unexpectedVariant(unitKey, r)
			}
			completed, err := store.Orders.ListOrders(ctx, portsrepo.OrderFilter{
				Statuses:      []domain.OrderStatus{domain.OrderCompleted},
				CompletedFrom: month.Start,
				CompletedTo:   month.End,
			})
			if err != nil {
				return nil, err
			}
			var breakdown domain.CostProfitBreakdown
			for _, o := range completed {
				breakdown.SupplierCost += o.SupplierCost
				breakdown.PartnerProfit += o.Economics.Commission
				breakdown.PlatformProfit += o.Economics.Profit
			}
			return rec.Recompute(ext.CustomerInvoiceAmount, breakdown, now)
		},
	})
}

// Run dispatches an on-demand run. A zero Date means today.
func (s *reconciliationService) Run(ctx context.Context, req dto.RunReconciliationRequest) (domain.Reconciliation, error) {
	date := req.Date
	if date.IsZero() {
		date = s.Now()
	}
	switch domain.ReconciliationKind(req.Kind) {
	case domain.KindSupplierCost:
		return s.RunSupplierCost(ctx, req.OrderID)
	case domain.KindPaymentChannel:
		return s.RunPaymentChannel(ctx, req.Channel, domain.DayPeriod(date))
	case domain.KindWithdrawal:
		return s.RunWithdrawal(ctx, req.PartnerID, domain.MonthPeriod(date))
	case domain.KindInvoice:
		return s.RunInvoice(ctx, domain.MonthPeriod(date))
	}
	return nil, apperrors.NewValidationError("kind", apperrors.CodeInvalidValue, fmt.Sprintf("unknown reconciliation kind %q", req.Kind))
}

func (s *reconciliationService) GetReconciliation(ctx context.Context, id string) (domain.Reconciliation, error) {
	return s.reconciliations.FindReconciliationByID(ctx, id)
}

func reconciliationFilter(params dto.ListReconciliationsParams) (portsrepo.ReconciliationFilter, error) {
	filter := portsrepo.ReconciliationFilter{
		Kind:   domain.ReconciliationKind(params.Kind),
		Status: domain.ReconciliationStatus(params.Status),
		From:   params.From,
	}
	if filter.Kind != "" && !filter.Kind.IsValid() {
		return filter, apperrors.NewValidationError("kind", apperrors.CodeInvalidValue, fmt.Sprintf("unknown reconciliation kind %q", params.Kind))
	}
	if filter.Kind != "" && filter.Status != "" && !domain.ModelFor(filter.Kind).Allows(filter.Status) {
		return filter, apperrors.NewValidationError("status", apperrors.CodeInvalidValue,
			fmt.Sprintf("status %q does not apply to %s reconciliations", params.Status, params.Kind))
	}
	// To is a calendar date and includes the whole day.
	if !params.To.IsZero() {
		filter.To = domain.DayPeriod(params.To).End
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && !filter.From.Before(filter.To) {
		return filter, apperrors.NewValidationError("from", apperrors.CodeOutOfRange, "from must not be after to")
	}
	return filter, nil
}

func (s *reconciliationService) ListReconciliations(ctx context.Context, params dto.ListReconciliationsParams) (*dto.ListReconciliationsResponse, error) {
	filter, err := reconciliationFilter(params)
	if err != nil {
		return nil, err
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultReconciliationPageSize
	}

	var after *portsrepo.ReconciliationCursor
	if params.NextToken != "" {
		createdAt, id, err := pagination.DecodeTimeIDToken(params.NextToken)
		if err != nil {
			return nil, apperrors.NewValidationError("nextToken", apperrors.CodeInvalidValue, err.Error())
		}
		after = &portsrepo.ReconciliationCursor{CreatedAt: createdAt, ID: id}
	}

	// One extra record tells whether another page exists.
	records, err := s.reconciliations.ListReconciliations(ctx, filter, limit+1, after)
	if err != nil {
		s.LogError(ctx, err, "Failed to list reconciliations")
		return nil, err
	}

	resp := &dto.ListReconciliationsResponse{}
	if len(records) > limit {
		records = records[:limit]
		last := records[len(records)-1].Header()
		token := pagination.EncodeTimeIDToken(last.CreatedAt, last.ID)
		resp.NextToken = &token
	}
	resp.Items = dto.ToReconciliationResponses(records)
	return resp, nil
}

func (s *reconciliationService) ExportReconciliations(ctx context.Context, params dto.ListReconciliationsParams, w io.Writer) (string, string, error) {
	if s.exporter == nil {
		return "", "", fmt.Errorf("no reconciliation exporter configured")
	}
	filter, err := reconciliationFilter(params)
	if err != nil {
		return "", "", err
	}

	var all []domain.Reconciliation
	var after *portsrepo.ReconciliationCursor
	for {
		page, err := s.reconciliations.ListReconciliations(ctx, filter, exportPageSize, after)
		if err != nil {
			s.LogError(ctx, err, "Failed to load reconciliations for export")
			return "", "", err
		}
		all = append(all, page...)
		if len(page) < exportPageSize {
			break
		}
		last := page[len(page)-1].Header()
		after = &portsrepo.ReconciliationCursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}

	if err := s.exporter.Export(ctx, w, all); err != nil {
		s.LogError(ctx, err, "Failed to export reconciliations", slog.Int("records", len(all)))
		return "", "", err
	}
	s.LogInfo(ctx, "Reconciliations exported", slog.Int("records", len(all)))
	return s.exporter.ContentType(), s.exporter.FileExtension(), nil
}

func (s *reconciliationService) ResolveDifference(ctx context.Context, id, resolutionText, operator string) (domain.Reconciliation, error) {
	current, err := s.reconciliations.FindReconciliationByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var result domain.Reconciliation
	// Same lock as runs of the unit.
	err = s.WithLock(ctx, "reconciliation:"+current.Header().UnitKey, func() error {
		return s.tx.WithinTx(ctx, func(ctx context.Context, store portsrepo.Store) error {
			record, err := store.Reconciliations.FindReconciliationByID(ctx, id)
			if err != nil {
				return err
			}
			now := s.Now()
			resolved, err := domain.Resolve(record, resolutionText, operator, now)
			if err != nil {
				return err
			}
			adjustments, err := domain.ResolutionAdjustments(resolved, operator, now)
			if err != nil {
				return err
			}
			if err := store.Reconciliations.UpdateReconciliation(ctx, resolved); err != nil {
				return err
			}
			if len(adjustments) > 0 {
				if err := store.Ledger.AppendTransactions(ctx, adjustments); err != nil {
					return err
				}
			}
			result = domain.BumpVersion(resolved)
			return nil
		})
	})
	if err != nil {
		s.LogFailure(ctx, err, "Failed to resolve reconciliation difference", slog.String("reconciliation_id", id))
		return nil, err
	}

	s.LogInfo(ctx, "Reconciliation difference resolved",
		slog.String("reconciliation_id", id),
		slog.String("kind", string(result.Kind())),
		slog.Int64("difference", int64(result.Difference())))
	return result, nil
}
