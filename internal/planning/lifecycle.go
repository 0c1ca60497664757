package planning

import (
	"context"

	"go.uber.org/zap"

	"procurement-service/internal/ledger"
	"procurement-service/internal/model"
	"procurement-service/internal/status"
)

// Lifecycle drives the day-to-day status transitions of both order families
// and keeps them mutually consistent: sending purchase orders moves the
// parent order into awaiting-confirmation, production starts cascade
// upward, and cancellations release ledger capacity.
type Lifecycle struct {
	ledger *ledger.Ledger
	orders OrderStore
	audit  AuditSink
	log    *zap.Logger
}

// NewLifecycle wires the lifecycle service.
func NewLifecycle(l *ledger.Ledger, orders OrderStore, audit AuditSink, log *zap.Logger) *Lifecycle {
	return &Lifecycle{ledger: l, orders: orders, audit: audit, log: log}
}

// SendToSupplier marks a purchase order as sent. The first send advances
// the parent order to awaiting supplier confirmation.
func (s *Lifecycle) SendToSupplier(ctx context.Context, poID uint, actorID uint) (*model.PurchaseOrder, error) {
	po, err := s.orders.PurchaseOrder(ctx, poID)
	if err != nil {
		return nil, err
	}
	if err := status.PurchaseOrder.Transition(po.Status, model.POSentToSupplier); err != nil {
		return nil, err
	}

	from := po.Status
	po.Status = model.POSentToSupplier
	po.UpdatedBy = actorID
	if err := s.orders.UpdatePurchaseOrder(ctx, po, from, model.POSentToSupplier, actorID, "sent to supplier"); err != nil {
		return nil, err
	}

	order, err := s.orders.OrderWithItems(ctx, po.CustomerOrderID)
	if err == nil && order.Status == model.OrderPurchaseOrdersCreated {
		if err := s.orders.UpdateOrderStatus(ctx, order.ID, order.Status, model.OrderAwaitingConfirmation, actorID, "purchase orders sent"); err != nil {
			s.log.Error("failed to cascade order status after send",
				zap.Uint("order_id", order.ID), zap.Error(err))
		}
	}

	s.log.Info("purchase order sent to supplier",
		zap.String("po_number", po.PONumber),
		zap.Uint("supplier_id", po.SupplierID))
	return po, nil
}

// AdvancePurchaseOrder moves a purchase order along its production path.
// Supplier responses and cancellations have their own entry points and are
// refused here so their side effects cannot be skipped.
func (s *Lifecycle) AdvancePurchaseOrder(ctx context.Context, poID uint, to model.PurchaseOrderStatus, actorID uint, notes string) (*model.PurchaseOrder, error) {
	switch to {
	case model.POConfirmed, model.PORejected:
		return nil, &ValidationError{Field: "status", Reason: "use the confirmation endpoints for supplier responses"}
	case model.POCancelled:
		return nil, &ValidationError{Field: "status", Reason: "use the cancel endpoint"}
	}

	po, err := s.orders.PurchaseOrder(ctx, poID)
	if err != nil {
		return nil, err
	}
	if err := status.PurchaseOrder.Transition(po.Status, to); err != nil {
		return nil, err
	}

	from := po.Status
	po.Status = to
	po.UpdatedBy = actorID
	if err := s.orders.UpdatePurchaseOrder(ctx, po, from, to, actorID, notes); err != nil {
		return nil, err
	}

	// First supplier entering production pulls the customer order along.
	if to == model.POInProduction {
		order, err := s.orders.OrderWithItems(ctx, po.CustomerOrderID)
		if err == nil && order.Status == model.OrderAwaitingConfirmation {
			if err := s.orders.UpdateOrderStatus(ctx, order.ID, order.Status, model.OrderInProduction, actorID, "supplier production started"); err != nil {
				s.log.Error("failed to cascade order status into production",
					zap.Uint("order_id", order.ID), zap.Error(err))
			}
		}
	}
	return po, nil
}

// CancelPurchaseOrder cancels a purchase order and releases its capacity
// reservation. Rejected orders already released theirs and are terminal, so
// the transition table refuses them; releasing is clamp-at-zero idempotent
// either way.
func (s *Lifecycle) CancelPurchaseOrder(ctx context.Context, poID uint, actorID uint, reason string) (*model.PurchaseOrder, error) {
	po, err := s.orders.PurchaseOrder(ctx, poID)
	if err != nil {
		return nil, err
	}
	if err := status.PurchaseOrder.Transition(po.Status, model.POCancelled); err != nil {
		return nil, err
	}

	from := po.Status
	po.Status = model.POCancelled
	po.UpdatedBy = actorID
	if err := s.orders.UpdatePurchaseOrder(ctx, po, from, model.POCancelled, actorID, "cancelled: "+reason); err != nil {
		return nil, err
	}
	if err := s.ledger.Release(ctx, po.SupplierID, po.ProductType, po.AllocatedQuantity()); err != nil {
		s.log.Error("failed to release capacity on cancellation",
			zap.String("po_number", po.PONumber), zap.Error(err))
		return nil, err
	}

	s.log.Info("purchase order cancelled",
		zap.String("po_number", po.PONumber),
		zap.String("reason", reason))
	return po, nil
}

// AdvanceOrder moves a customer order one step along its path. Cancellation
// and the planning commit have their own entry points.
func (s *Lifecycle) AdvanceOrder(ctx context.Context, orderID uint, to model.OrderStatus, actorID uint, notes string) (*model.CustomerOrder, error) {
	switch to {
	case model.OrderCancelled:
		return nil, &ValidationError{Field: "status", Reason: "use the cancel endpoint"}
	case model.OrderPurchaseOrdersCreated:
		return nil, &ValidationError{Field: "status", Reason: "purchase orders are created by committing a distribution plan"}
	}

	order, err := s.orders.OrderWithItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := status.CustomerOrder.Transition(order.Status, to); err != nil {
		return nil, err
	}
	if err := s.orders.UpdateOrderStatus(ctx, orderID, order.Status, to, actorID, notes); err != nil {
		return nil, err
	}
	order.Status = to
	return order, nil
}

// CancelOrder cancels a customer order and every non-terminal purchase
// order under it, releasing each reservation. Safe to repeat: releases
// clamp at zero and already-terminal purchase orders are skipped.
func (s *Lifecycle) CancelOrder(ctx context.Context, orderID uint, actorID uint, reason string) (*model.CustomerOrder, error) {
	order, err := s.orders.OrderWithItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := status.CustomerOrder.Transition(order.Status, model.OrderCancelled); err != nil {
		return nil, err
	}

	pos, err := s.orders.PurchaseOrdersForOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	for i := range pos {
		po := &pos[i]
		if po.Status.Terminal() {
			continue
		}
		from := po.Status
		po.Status = model.POCancelled
		po.UpdatedBy = actorID
		if err := s.orders.UpdatePurchaseOrder(ctx, po, from, model.POCancelled, actorID, "customer order cancelled"); err != nil {
			return nil, err
		}
		if err := s.ledger.Release(ctx, po.SupplierID, po.ProductType, po.AllocatedQuantity()); err != nil {
			s.log.Error("failed to release capacity while cancelling order",
				zap.String("po_number", po.PONumber), zap.Error(err))
			return nil, err
		}
	}

	if err := s.orders.UpdateOrderStatus(ctx, orderID, order.Status, model.OrderCancelled, actorID, "cancelled: "+reason); err != nil {
		return nil, err
	}
	order.Status = model.OrderCancelled

	s.log.Info("customer order cancelled",
		zap.Uint("order_id", orderID),
		zap.Int("purchase_orders_cancelled", len(pos)),
		zap.String("reason", reason))
	return order, nil
}
