package services_test

import (
	"sync"
	"time"

	"github.com/SscSPs/partner_settlement_app/internal/adapters/lock"
	"github.com/SscSPs/partner_settlement_app/internal/adapters/sources"
	portsrepo "github.com/SscSPs/partner_settlement_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/partner_settlement_app/internal/core/ports/services"
	"github.com/SscSPs/partner_settlement_app/internal/core/services"
	"github.com/SscSPs/partner_settlement_app/internal/platform/config"
	"github.com/SscSPs/partner_settlement_app/internal/repositories/database/memory"
)

const operator = "finance-1"

// stepClock advances by one second on every read so that consecutive
// ledger entries get distinct timestamps.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock(start time.Time) *stepClock {
	return &stepClock{now: start}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

// fixture is a fully wired set of services over the in-memory adapter.
type fixture struct {
	clock     *stepClock
	locker    *lock.LocalLocker
	repos     portsrepo.RepositoryProvider
	source    *sources.StaticSource
	container *portssvc.ServiceContainer
}

func newFixture(start time.Time) *fixture {
	clock := newStepClock(start)
	repos := memory.NewRepositoryProvider(memory.NewDB())
	source := sources.NewStaticSource()
	rules := config.DefaultBusinessRules()
	locker := lock.NewLocalLocker()
	shared := []services.ServiceOption{
		services.WithClock(clock.Now),
		services.WithEntityLocker(locker),
	}

	reconciliation := services.NewReconciliationService(repos.TxManager, repos.Orders, repos.Reconciliations, source,
		services.WithFetchTimeout(time.Second),
		services.WithBaseOptions(shared...),
	)

	return &fixture{
		clock:  clock,
		locker: locker,
		repos:  repos,
		source: source,
		container: &portssvc.ServiceContainer{
			Order:          services.NewOrderService(repos.TxManager, repos.Orders, rules, shared...),
			Ledger:         services.NewLedgerService(repos.TxManager, repos.Ledger, repos.Withdrawals, repos.SupplierSettlements, shared...),
			Withdrawal:     services.NewWithdrawalService(repos.TxManager, repos.Withdrawals, rules.MinReasonLength, 4, shared...),
			Reconciliation: reconciliation,
		},
	}
}
