package services

import (
	"github.com/SscSPs/partner_settlement_app/internal/core/ports/gateways"
	portsrepo "github.com/SscSPs/partner_settlement_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/partner_settlement_app/internal/core/ports/services"
	"github.com/SscSPs/partner_settlement_app/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(
	cfg *config.Config,
	rules config.BusinessRules,
	repos portsrepo.RepositoryProvider,
	source gateways.ExternalSource,
	exporter gateways.ReconciliationExporter,
	locker gateways.EntityLocker,
) *portssvc.ServiceContainer {
	shared := []ServiceOption{WithEntityLocker(locker)}

	reconciliation := NewReconciliationService(repos.TxManager, repos.Orders, repos.Reconciliations, source,
		WithFetchTimeout(cfg.ReconcileFetchTimeout),
		WithExporter(exporter),
		WithBaseOptions(shared...),
	)

	return &portssvc.ServiceContainer{
		Order:          NewOrderService(repos.TxManager, repos.Orders, rules, shared...),
		Ledger:         NewLedgerService(repos.TxManager, repos.Ledger, repos.Withdrawals, repos.SupplierSettlements, shared...),
		Withdrawal:     NewWithdrawalService(repos.TxManager, repos.Withdrawals, rules.MinReasonLength, cfg.BatchConcurrency, shared...),
		Reconciliation: reconciliation,
	}
}

// NewScheduler wires the reconciliation scheduler from configuration.
func NewScheduler(cfg *config.Config, container *portssvc.ServiceContainer, repos portsrepo.RepositoryProvider) *ReconciliationScheduler {
	return NewReconciliationScheduler(
		container.Reconciliation,
		repos.Orders,
		repos.Withdrawals,
		repos.Reconciliations,
		cfg.ReconcileChannels,
		cfg.ReconcileInterval,
		cfg.BatchConcurrency,
	)
}
