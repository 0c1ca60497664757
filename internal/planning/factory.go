package planning

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"procurement-service/internal/ledger"
	"procurement-service/internal/model"
	"procurement-service/internal/status"
)

// PurchaseOrderFactory turns a validated distribution plan into purchase
// orders. The commit is all-or-nothing: capacity is reserved for every
// allocation or none, and the purchase orders plus the parent order's
// transition land in one store transaction. A failure at any step leaves
// ledger and store exactly as they were.
type PurchaseOrderFactory struct {
	ledger    *ledger.Ledger
	validator *DistributionValidator
	directory SupplierDirectory
	orders    OrderStore
	sequences SequenceSource
	audit     AuditSink
	notifier  NotificationSink
	log       *zap.Logger
	now       func() time.Time
}

// NewPurchaseOrderFactory wires a factory from its collaborators.
func NewPurchaseOrderFactory(
	l *ledger.Ledger,
	validator *DistributionValidator,
	directory SupplierDirectory,
	orders OrderStore,
	sequences SequenceSource,
	audit AuditSink,
	notifier NotificationSink,
	log *zap.Logger,
) *PurchaseOrderFactory {
	return &PurchaseOrderFactory{
		ledger:    l,
		validator: validator,
		directory: directory,
		orders:    orders,
		sequences: sequences,
		audit:     audit,
		notifier:  notifier,
		log:       log,
		now:       time.Now,
	}
}

// CreateFromPlan commits plan as purchase orders. On success every supplier
// in the plan has one purchase order, capacity is reserved for each, the
// parent order has advanced, and one audit entry exists per purchase order.
// Suppliers are notified after the commit; notification failures are logged
// and never undo anything.
func (f *PurchaseOrderFactory) CreateFromPlan(ctx context.Context, plan *DistributionPlan, actorID uint) ([]*model.PurchaseOrder, error) {
	order, err := f.orders.OrderWithItems(ctx, plan.CustomerOrderID)
	if err != nil {
		return nil, err
	}

	targetStatus, err := f.targetStatus(order)
	if err != nil {
		return nil, err
	}

	// Re-validate against the live ledger: the plan may be stale by the
	// time the planner commits it.
	result := f.validator.Validate(ctx, order, plan)
	if !result.IsValid {
		return nil, &PlanInvalidError{Result: result}
	}

	reservations := make(map[uint]int64, len(plan.Allocations))
	for _, sa := range plan.Allocations {
		reservations[sa.SupplierID] = sa.Quantity
	}
	if err := f.ledger.ReserveAll(ctx, order.ProductType, reservations); err != nil {
		return nil, err
	}

	pos, err := f.buildPurchaseOrders(ctx, order, plan, actorID)
	if err == nil {
		err = f.orders.CreatePurchaseOrders(ctx, order, pos, targetStatus, actorID)
	}
	if err != nil {
		// Undo this commit's reservations before surfacing.
		for supplierID, qty := range reservations {
			if relErr := f.ledger.Release(ctx, supplierID, order.ProductType, qty); relErr != nil {
				f.log.Error("failed to release reservation during rollback",
					zap.Uint("supplier_id", supplierID),
					zap.Error(relErr))
			}
		}
		return nil, err
	}

	for _, po := range pos {
		f.appendAudit(ctx, po, actorID)
		if notifyErr := f.notifier.NotifySupplierOfNewOrder(ctx, po.ID); notifyErr != nil {
			f.log.Warn("supplier notification failed",
				zap.String("po_number", po.PONumber),
				zap.Uint("supplier_id", po.SupplierID),
				zap.Error(notifyErr))
		}
	}

	f.log.Info("purchase orders created",
		zap.Uint("order_id", order.ID),
		zap.Int("purchase_orders", len(pos)),
		zap.Uint("actor_id", actorID))
	return pos, nil
}

// targetStatus checks that the parent order can advance to
// PurchaseOrdersCreated, or is already past it for a re-plan commit.
func (f *PurchaseOrderFactory) targetStatus(order *model.CustomerOrder) (model.OrderStatus, error) {
	if order.Status == model.OrderPurchaseOrdersCreated || order.Status == model.OrderAwaitingConfirmation {
		// Supplemental commit from a re-plan; the order stays where it is.
		return order.Status, nil
	}
	if err := status.CustomerOrder.Transition(order.Status, model.OrderPurchaseOrdersCreated); err != nil {
		return "", err
	}
	return model.OrderPurchaseOrdersCreated, nil
}

func (f *PurchaseOrderFactory) buildPurchaseOrders(ctx context.Context, order *model.CustomerOrder, plan *DistributionPlan, actorID uint) ([]*model.PurchaseOrder, error) {
	records, err := f.directory.ActiveSuppliers(ctx, order.ProductType)
	if err != nil {
		return nil, err
	}
	codes := make(map[uint]string, len(records))
	for _, r := range records {
		codes[r.Supplier.ID] = r.Supplier.Code
	}

	day := f.now()
	pos := make([]*model.PurchaseOrder, 0, len(plan.Allocations))
	for _, sa := range plan.Allocations {
		code, ok := codes[sa.SupplierID]
		if !ok {
			return nil, &InactiveSupplierError{SupplierID: sa.SupplierID}
		}
		seq, err := f.sequences.Next(ctx, code, day)
		if err != nil {
			return nil, fmt.Errorf("po number sequence for %s: %w", code, err)
		}

		po := &model.PurchaseOrder{
			PONumber:             FormatPONumber(code, day, seq),
			CustomerOrderID:      order.ID,
			SupplierID:           sa.SupplierID,
			ProductType:          order.ProductType,
			Status:               model.POCreated,
			RequiredDeliveryDate: order.RequestedDeliveryDate,
			CreatedBy:            actorID,
			UpdatedBy:            actorID,
		}
		for _, ia := range sa.Items {
			po.Items = append(po.Items, model.PurchaseOrderItem{
				OrderItemID:       ia.OrderItemID,
				ProductCode:       ia.ProductCode,
				AllocatedQuantity: ia.Quantity,
				Unit:              ia.Unit,
			})
		}
		pos = append(pos, po)
	}
	return pos, nil
}

// FormatPONumber renders PO-{supplierCode}-{yyyyMMdd}-{0000-padded seq}.
func FormatPONumber(supplierCode string, day time.Time, sequence int) string {
	return fmt.Sprintf("PO-%s-%s-%04d", supplierCode, day.Format("20060102"), sequence)
}

func (f *PurchaseOrderFactory) appendAudit(ctx context.Context, po *model.PurchaseOrder, actorID uint) {
	after, _ := json.Marshal(po)
	entry := model.AuditEntry{
		EntityType: "purchase_order",
		EntityID:   po.ID,
		Action:     "created",
		ActorID:    actorID,
		AfterState: string(after),
	}
	if err := f.audit.Append(ctx, entry); err != nil {
		f.log.Warn("audit append failed",
			zap.String("po_number", po.PONumber),
			zap.Error(err))
	}
}
