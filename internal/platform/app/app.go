// Package app assembles the settlement back office from configuration. Both
// the HTTP server and the operator CLI start from here.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/partner_settlement_app/internal/adapters/export"
	"github.com/SscSPs/partner_settlement_app/internal/adapters/lock"
	"github.com/SscSPs/partner_settlement_app/internal/adapters/sources"
	"github.com/SscSPs/partner_settlement_app/internal/core/ports/gateways"
	portsrepo "github.com/SscSPs/partner_settlement_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/partner_settlement_app/internal/core/ports/services"
	"github.com/SscSPs/partner_settlement_app/internal/core/services"
	"github.com/SscSPs/partner_settlement_app/internal/platform/config"
	"github.com/SscSPs/partner_settlement_app/internal/repositories/database/memory"
	"github.com/SscSPs/partner_settlement_app/internal/repositories/database/pgsql"
	"github.com/SscSPs/partner_settlement_app/pkg/database"
)

// MigrationsPath is where the server and CLI look for schema migrations.
const MigrationsPath = "file://migrations"

// App holds the wired services and the resources they depend on.
type App struct {
	Config    *config.Config
	Rules     config.BusinessRules
	Repos     portsrepo.RepositoryProvider
	Services  *portssvc.ServiceContainer
	Scheduler *services.ReconciliationScheduler

	closers []func()
}

// Close releases pools and clients in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// LoadRules reads the business rules file. A missing file falls back to the
// defaults; an older version is migrated and written back.
func LoadRules(path string, logger *slog.Logger) (config.BusinessRules, error) {
	rules, migrated, err := config.LoadBusinessRules(path)
	if errors.Is(err, config.ErrRulesNotFound) {
		logger.Warn("Business rules file not found, using defaults", slog.String("path", path))
		return config.DefaultBusinessRules(), nil
	}
	if err != nil {
		return config.BusinessRules{}, err
	}
	if migrated {
		if err := config.SaveBusinessRules(path, rules); err != nil {
			return config.BusinessRules{}, err
		}
		logger.Info("Business rules migrated", slog.String("path", path), slog.Int("version", rules.Version))
	}
	return rules, nil
}

// New wires storage, locking, external sources and services per cfg.
// migrate controls whether pending schema migrations run on a postgres store.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, migrate bool) (*App, error) {
	a := &App{Config: cfg}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	rules, err := LoadRules(cfg.BusinessRulesPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load business rules: %w", err)
	}
	a.Rules = rules

	switch cfg.StorageDriver {
	case config.StoragePostgres:
		if migrate {
			logger.Info("Running database migrations...")
			if err := database.RunMigrations(cfg.DatabaseURL, MigrationsPath, database.MigrateUp); err != nil {
				return nil, err
			}
		}
		pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database pool: %w", err)
		}
		a.closers = append(a.closers, func() { database.ClosePgxPool(pool) })
		a.Repos = pgsql.NewRepositoryProvider(pool)
	default:
		logger.Warn("Using in-memory storage; data is lost on restart")
		a.Repos = memory.NewRepositoryProvider(memory.NewDB())
	}

	var locker gateways.EntityLocker = lock.NewLocalLocker()
	if cfg.RedisURL != "" {
		client, err := lock.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		locker = lock.NewRedisLocker(client, 0, logger)
		logger.Info("Using redis entity locks")
	}

	var source gateways.ExternalSource
	feeds := sources.FeedURLs{
		SupplierCost:   cfg.SupplierFeedURL,
		PaymentChannel: cfg.ChannelFeedURL,
		Withdrawal:     cfg.DeductionFeedURL,
		Invoice:        cfg.InvoiceFeedURL,
	}
	if feeds.Configured() {
		source = sources.NewHTTPFeedSource(feeds, cfg.ReconcileFetchTimeout)
	} else {
		logger.Warn("No external feeds configured, reconciling against empty totals")
		source = sources.NewStaticSource()
	}

	a.Services = services.NewServiceContainer(cfg, rules, a.Repos, source, export.NewXLSXExporter(), locker)
	a.Scheduler = services.NewScheduler(cfg, a.Services, a.Repos)
	ok = true
	return a, nil
}
