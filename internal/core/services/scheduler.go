package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/SscSPs/partner_settlement_app/internal/apperrors"
	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
	portsrepo "github.com/SscSPs/partner_settlement_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/partner_settlement_app/internal/core/ports/services"
	"golang.org/x/sync/errgroup"
)

// RunSummary counts the outcomes of one scheduler pass.
type RunSummary struct {
	Attempted   int `json:"attempted"`
	Succeeded   int `json:"succeeded"`
	Unavailable int `json:"unavailable"`
	Failed      int `json:"failed"`
}

func (s *RunSummary) record(err error) {
	s.Attempted++
	switch {
	case err == nil:
		s.Succeeded++
	case errors.Is(err, apperrors.ErrSourceUnavailable):
		s.Unavailable++
	default:
		s.Failed++
	}
}

// ReconciliationScheduler periodically runs every reconciliation unit that is
// due: yesterday per payment channel, last month per partner with paid
// withdrawals, last month's invoice and every recently completed order
// without a settled supplier cost record.
type ReconciliationScheduler struct {
	BaseService
	reconciliation  portssvc.ReconciliationSvcFacade
	orders          portsrepo.OrderReader
	withdrawals     portsrepo.WithdrawalReader
	reconciliations portsrepo.ReconciliationReader
	channels        []string
	interval        time.Duration
	concurrency     int
}

// NewReconciliationScheduler creates a scheduler. A non-positive interval
// disables Start; RunOnce still works.
func NewReconciliationScheduler(
	reconciliation portssvc.ReconciliationSvcFacade,
	orders portsrepo.OrderReader,
	withdrawals portsrepo.WithdrawalReader,
	reconciliations portsrepo.ReconciliationReader,
	channels []string,
	interval time.Duration,
	concurrency int,
	options ...ServiceOption,
) *ReconciliationScheduler {
	if concurrency <= 0 {
		concurrency = defaultBatchConcurrency
	}
	return &ReconciliationScheduler{
		BaseService:     newBaseService(options...),
		reconciliation:  reconciliation,
		orders:          orders,
		withdrawals:     withdrawals,
		reconciliations: reconciliations,
		channels:        channels,
		interval:        interval,
		concurrency:     concurrency,
	}
}

type scheduledUnit struct {
	name string
	run  func(ctx context.Context) error
}

// dueUnits lists the units one pass should run, relative to now.
func (s *ReconciliationScheduler) dueUnits(ctx context.Context, now time.Time) ([]scheduledUnit, error) {
	yesterday := domain.DayPeriod(now.AddDate(0, 0, -1))
	thisMonth := domain.MonthPeriod(now)
	lastMonth := domain.MonthPeriod(thisMonth.Start.AddDate(0, 0, -1))

	var units []scheduledUnit
	// A resolved record is final; running its unit again only fails.
	addUnlessResolved := func(unit scheduledUnit) error {
		resolved, err := s.unitResolved(ctx, unit.name)
		if err != nil {
			return err
		}
		if !resolved {
			units = append(units, unit)
		}
		return nil
	}

	for _, channel := range s.channels {
		channel := channel
		err := addUnlessResolved(scheduledUnit{
			name: domain.PaymentChannelUnitKey(channel, yesterday),
			run: func(ctx context.Context) error {
				_, err := s.reconciliation.RunPaymentChannel(ctx, channel, yesterday)
				return err
			},
		})
		if err != nil {
			return nil, err
		}
	}

	paid, err := s.withdrawals.ListWithdrawals(ctx, portsrepo.WithdrawalFilter{
		Statuses:        []domain.WithdrawalStatus{domain.WithdrawalSuccess},
		TransferredFrom: lastMonth.Start,
		TransferredTo:   lastMonth.End,
	})
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	for _, w := range paid {
		if seen[w.PartnerID] {
			continue
		}
		seen[w.PartnerID] = true
		partnerID := w.PartnerID
		err := addUnlessResolved(scheduledUnit{
			name: domain.WithdrawalUnitKey(partnerID, lastMonth),
			run: func(ctx context.Context) error {
				_, err := s.reconciliation.RunWithdrawal(ctx, partnerID, lastMonth)
				return err
			},
		})
		if err != nil {
			return nil, err
		}
	}

	err = addUnlessResolved(scheduledUnit{
		name: domain.InvoiceUnitKey(lastMonth),
		run: func(ctx context.Context) error {
			_, err := s.reconciliation.RunInvoice(ctx, lastMonth)
			return err
		},
	})
	if err != nil {
		return nil, err
	}

	completed, err := s.orders.ListOrders(ctx, portsrepo.OrderFilter{
		Statuses:      []domain.OrderStatus{domain.OrderCompleted},
		CompletedFrom: lastMonth.Start,
	})
	if err != nil {
		return nil, err
	}
	for _, o := range completed {
		settled, err := s.supplierCostSettled(ctx, o.OrderID)
		if err != nil {
			return nil, err
		}
		if settled {
			continue
		}
		orderID := o.OrderID
		units = append(units, scheduledUnit{
			name: domain.SupplierCostUnitKey(orderID),
			run: func(ctx context.Context) error {
				_, err := s.reconciliation.RunSupplierCost(ctx, orderID)
				return err
			},
		})
	}
	return units, nil
}

// supplierCostSettled reports whether an order's supplier cost record has a
// final result already.
func (s *ReconciliationScheduler) supplierCostSettled(ctx context.Context, orderID string) (bool, error) {
	r, err := s.findUnit(ctx, domain.SupplierCostUnitKey(orderID))
	if err != nil || r == nil {
		return false, err
	}
	return !domain.ModelFor(r.Kind()).IsInProgress(r.Header().Status), nil
}

// unitResolved reports whether the record of unitKey has been resolved.
func (s *ReconciliationScheduler) unitResolved(ctx context.Context, unitKey string) (bool, error) {
	r, err := s.findUnit(ctx, unitKey)
	if err != nil || r == nil {
		return false, err
	}
	return r.Header().Status == domain.StatusResolved, nil
}

// findUnit returns the record of unitKey, or nil if the unit never ran.
func (s *ReconciliationScheduler) findUnit(ctx context.Context, unitKey string) (domain.Reconciliation, error) {
	r, err := s.reconciliations.FindReconciliationByUnitKey(ctx, unitKey)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	return r, err
}

// RunOnce runs every due unit. Unit failures are counted, not returned; the
// error is only set when the due units could not be determined.
func (s *ReconciliationScheduler) RunOnce(ctx context.Context) (RunSummary, error) {
	units, err := s.dueUnits(ctx, s.Now())
	if err != nil {
		s.LogError(ctx, err, "Failed to determine due reconciliation units")
		return RunSummary{}, err
	}

	var (
		mu      sync.Mutex
		summary RunSummary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, unit := range units {
		unit := unit
		g.Go(func() error {
			err := unit.run(gctx)
			if err != nil {
				s.LogDebug(ctx, "Scheduled reconciliation unit did not finish",
					slog.String("unit_key", unit.name),
					slog.String("error", err.Error()))
			}
			mu.Lock()
			summary.record(err)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	s.LogInfo(ctx, "Reconciliation pass finished",
		slog.Int("attempted", summary.Attempted),
		slog.Int("succeeded", summary.Succeeded),
		slog.Int("unavailable", summary.Unavailable),
		slog.Int("failed", summary.Failed))
	return summary, nil
}

// Start runs a pass every interval until ctx is done.
func (s *ReconciliationScheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.LogInfo(ctx, "Reconciliation scheduler disabled")
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	s.LogInfo(ctx, "Reconciliation scheduler started", slog.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.LogInfo(ctx, "Reconciliation scheduler stopped")
			return
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
				s.LogWarn(ctx, err, "Reconciliation pass skipped")
			}
		}
	}
}
