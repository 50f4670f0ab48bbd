package services

import (
	"github.com/SscSPs/property_fines_app/internal/core/ports/external"
	portsrepo "github.com/SscSPs/property_fines_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/property_fines_app/internal/core/ports/services"
	"github.com/SscSPs/property_fines_app/internal/platform/config"
)

// Collaborators are the external systems the services talk to.
type Collaborators struct {
	Notifier external.Notifier
	Ledger   external.BillingLedger
	Gateway  external.PaymentGateway
}

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, ext Collaborators, opts ...ServiceOption) *portssvc.ServiceContainer {
	policy := cfg.FinePolicy()
	// fine, payment and billing writes share one lock table so they serialize per fine
	locks := NewKeyedLocker()
	opts = append([]ServiceOption{WithNotifier(ext.Notifier, policy.SendNotifications)}, opts...)

	container := &portssvc.ServiceContainer{}

	category := NewCategoryService(repos.CategoryRepo, opts...)
	container.Category = category

	container.Fine = NewFineService(repos.FineRepo, repos.ViolationRepo, policy, locks, opts...)
	container.Payment = NewPaymentService(repos.PaymentRepo, repos.FineRepo, ext.Gateway, policy, locks, opts...)
	container.Violation = NewViolationService(repos.ViolationRepo, category, repos.FineRepo, container.Fine, policy, locks, opts...)
	container.Billing = NewBillingService(repos.FineRepo, ext.Ledger, policy, locks, opts...)
	container.Bulk = NewBulkService(container.Violation, container.Fine, container.Payment, BulkLimits{
		MaxBatchSize: cfg.BulkMaxBatchSize,
		Concurrency:  cfg.BulkConcurrency,
	}, opts...)

	return container
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.BulkActionSvc    = (*bulkService)(nil)
	_ portssvc.BillingBridgeSvc = (*billingService)(nil)
)
