package planning

import (
	"context"
	"time"

	"procurement-service/internal/model"
)

// SupplierRecord is one supplier as the planning engine sees it: the
// supplier row, its capability for the product type in question, and its
// performance metrics when any exist.
type SupplierRecord struct {
	Supplier   model.Supplier
	Capability model.SupplierCapability
	Metrics    *model.SupplierPerformanceMetrics
}

// PerformanceScore returns the blended score, or zero when the supplier has
// no metrics yet.
func (r *SupplierRecord) PerformanceScore() float64 {
	if r.Metrics == nil {
		return 0
	}
	return r.Metrics.OverallPerformanceScore()
}

// SupplierDirectory resolves suppliers and their capabilities. Implemented
// over the database in internal/repository, in memory in tests.
type SupplierDirectory interface {
	// ActiveSuppliers returns every active supplier holding an active
	// capability for the product type, metrics attached where present.
	ActiveSuppliers(ctx context.Context, productType model.ProductType) ([]SupplierRecord, error)
}

// OrderStore persists both order families. CreatePurchaseOrders is
// transactional: the purchase orders, the parent order's status change, and
// the transition record all land together or not at all.
type OrderStore interface {
	OrderWithItems(ctx context.Context, id uint) (*model.CustomerOrder, error)
	PurchaseOrder(ctx context.Context, id uint) (*model.PurchaseOrder, error)
	PurchaseOrdersForOrder(ctx context.Context, orderID uint) ([]model.PurchaseOrder, error)
	CreatePurchaseOrders(ctx context.Context, order *model.CustomerOrder, pos []*model.PurchaseOrder, targetStatus model.OrderStatus, actorID uint) error
	UpdateOrderStatus(ctx context.Context, orderID uint, from, to model.OrderStatus, actorID uint, notes string) error
	UpdatePurchaseOrder(ctx context.Context, po *model.PurchaseOrder, from, to model.PurchaseOrderStatus, actorID uint, notes string) error
}

// SequenceSource hands out the per-supplier per-day sequence behind PO
// numbers. Implementations guarantee uniqueness.
type SequenceSource interface {
	Next(ctx context.Context, supplierCode string, day time.Time) (int, error)
}

// AuditSink appends immutable audit entries. Fire-and-forget from the
// engine's perspective, but never skipped on success paths.
type AuditSink interface {
	Append(ctx context.Context, entry model.AuditEntry) error
}

// NotificationSink tells a supplier about a new purchase order. Delivery
// failure is logged by the caller and never rolls back a commit.
type NotificationSink interface {
	NotifySupplierOfNewOrder(ctx context.Context, poID uint) error
}
