package services

// ServiceContainer holds instances of all the application services.
// This is the main entry point for accessing service functionality and
// is used throughout the application, particularly in the handlers and consumers.
type ServiceContainer struct {
	User           UserSvc
	Resolver       AccountResolverSvc
	Guard          BalanceGuardSvc
	Ledger         LedgerSvcFacade
	Lifecycle      LifecycleHookSvc
	Publisher      ChargePublisherSvc
	Processor      ChargeProcessorSvc
	DeadLetter     DeadLetterSvcFacade
	Reconciliation ReconciliationSvc
	Price          PriceSvcFacade
}
