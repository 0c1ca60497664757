package handler

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"procurement-service/internal/allocation"
	"procurement-service/internal/ledger"
	"procurement-service/internal/planning"
	"procurement-service/internal/repository"
	"procurement-service/pkg/config"
)

// Package-level engine services, wired once at startup. Handlers stay plain
// functions the way the rest of the service is written.
var (
	suppliers    *repository.SupplierRepository
	orders       *repository.OrderStore
	audits       *repository.AuditRepository
	capacity     *ledger.Ledger
	planner      *planning.Planner
	validator    *planning.DistributionValidator
	factory      *planning.PurchaseOrderFactory
	confirmation *planning.ConfirmationWorkflow
	lifecycle    *planning.Lifecycle
)

// Init wires the planning engine and its repositories onto the database.
func Init(db *gorm.DB, cfg *config.Config, log *zap.Logger) {
	suppliers = repository.NewSupplierRepository(db)
	orders = repository.NewOrderStore(db)
	audits = repository.NewAuditRepository(db)
	sequences := repository.NewSequenceRepository(db)
	notifier := repository.NewLogNotifier(log)

	capacity = ledger.New(repository.NewCapabilityStore(db))

	filter := planning.NewEligibilityFilter(suppliers, cfg.Planning.MinOnTimeRate, cfg.Planning.MinQualityScore)
	allocator := allocation.NewWithAlpha(cfg.Planning.BalancedAlpha)

	planner = planning.NewPlanner(filter, allocator, orders, log)
	validator = planning.NewDistributionValidator(capacity, suppliers, orders)
	factory = planning.NewPurchaseOrderFactory(capacity, validator, suppliers, orders, sequences, audits, notifier, log)
	confirmation = planning.NewConfirmationWorkflow(capacity, orders, audits, log)
	lifecycle = planning.NewLifecycle(capacity, orders, audits, log)
}
