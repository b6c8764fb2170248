package services

import (
	portsrepo "github.com/SscSPs/billing_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/billing_ledger/internal/core/ports/services"
	"github.com/SscSPs/billing_ledger/internal/platform/config"
	"github.com/SscSPs/billing_ledger/pkg/rabbitmq"
)

// NewServiceContainer creates a new service container with properly initialized dependencies.
// claims may be nil when no Redis is configured.
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, publisher rabbitmq.Publisher, claims portsrepo.EventClaimStore) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.User = NewUserService(repos.UserRepo)
	container.Resolver = NewAccountResolver(repos.UserRepo)
	container.Guard = NewBalanceGuard(container.Resolver, repos.BalanceRepo)
	container.Ledger = NewLedgerService(repos.LedgerRepo, repos.BalanceRepo)
	container.Price = NewPriceService(repos.PriceRepo)
	container.Lifecycle = NewLifecycleHook(repos.UserRepo, repos.BalanceRepo, repos.PriceRepo, container.Ledger, cfg.FirstGrantBusinessType)
	container.Reconciliation = NewReconciliationService(repos.BalanceRepo, repos.LedgerRepo)

	container.Publisher = NewChargePublisher(publisher, ChargePublisherConfig{
		Enabled:    cfg.BillingEnabled,
		Exchange:   cfg.BillingExchange,
		RoutingKey: cfg.ChargeRoutingKey,
	})
	container.Processor = NewChargeProcessor(container.Resolver, container.Ledger, claims, ChargeProcessorConfig{
		MaxRetries: cfg.ChargeMaxRetries,
		ClaimTTL:   cfg.EventClaimTTL,
	})
	container.DeadLetter = NewDeadLetterService(repos.DeadLetterRepo, container.Publisher)

	return container
}
