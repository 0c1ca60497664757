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

// deliveryWarningWindow is how close to the required date an estimate may
// land before the confirmation carries a warning.
const deliveryWarningWindow = 48 * time.Hour

// ItemPackaging carries the packaging details a supplier provides for one
// purchase-order item at confirmation time.
type ItemPackaging struct {
	PurchaseOrderItemID uint   `json:"purchase_order_item_id"`
	PackagingType       string `json:"packaging_type"`
	PackageCount        int    `json:"package_count"`
}

// ConfirmationInput is everything a supplier submits when accepting a
// purchase order.
type ConfirmationInput struct {
	EstimatedDeliveryDate time.Time       `json:"estimated_delivery_date"`
	Items                 []ItemPackaging `json:"items"`
}

// ConfirmationWorkflow handles supplier accept/reject and the ledger and
// status consequences of each.
type ConfirmationWorkflow struct {
	ledger *ledger.Ledger
	orders OrderStore
	audit  AuditSink
	log    *zap.Logger
}

// NewConfirmationWorkflow wires the workflow from its collaborators.
func NewConfirmationWorkflow(l *ledger.Ledger, orders OrderStore, audit AuditSink, log *zap.Logger) *ConfirmationWorkflow {
	return &ConfirmationWorkflow{ledger: l, orders: orders, audit: audit, log: log}
}

// Confirm accepts a purchase order on the supplier's behalf. Every item
// needs packaging details, and the estimated delivery date must not fall
// after the required date; an estimate within two days of it yields a
// non-blocking warning. The capacity reservation simply stays in place.
func (w *ConfirmationWorkflow) Confirm(ctx context.Context, poID uint, input ConfirmationInput, actorID uint) (*model.PurchaseOrder, []string, error) {
	po, err := w.orders.PurchaseOrder(ctx, poID)
	if err != nil {
		return nil, nil, err
	}
	if err := status.PurchaseOrder.Transition(po.Status, model.POConfirmed); err != nil {
		return nil, nil, err
	}

	if input.EstimatedDeliveryDate.IsZero() {
		return nil, nil, &ValidationError{Field: "estimated_delivery_date", Reason: "required"}
	}
	if input.EstimatedDeliveryDate.After(po.RequiredDeliveryDate) {
		return nil, nil, &ValidationError{
			Field: "estimated_delivery_date",
			Reason: fmt.Sprintf("estimate %s is after the required delivery date %s",
				input.EstimatedDeliveryDate.Format("2006-01-02"),
				po.RequiredDeliveryDate.Format("2006-01-02")),
		}
	}

	packaging := make(map[uint]ItemPackaging, len(input.Items))
	for _, p := range input.Items {
		if p.PackagingType == "" || p.PackageCount <= 0 {
			return nil, nil, &ValidationError{
				Field:  "items",
				Reason: fmt.Sprintf("item %d needs a packaging type and a positive package count", p.PurchaseOrderItemID),
			}
		}
		packaging[p.PurchaseOrderItemID] = p
	}
	for i := range po.Items {
		p, ok := packaging[po.Items[i].ID]
		if !ok {
			return nil, nil, &ValidationError{
				Field:  "items",
				Reason: fmt.Sprintf("missing packaging details for item %d", po.Items[i].ID),
			}
		}
		po.Items[i].PackagingType = p.PackagingType
		po.Items[i].PackageCount = p.PackageCount
	}

	var warnings []string
	if po.RequiredDeliveryDate.Sub(input.EstimatedDeliveryDate) <= deliveryWarningWindow {
		warnings = append(warnings, fmt.Sprintf(
			"estimated delivery %s is within 2 days of the required date %s",
			input.EstimatedDeliveryDate.Format("2006-01-02"),
			po.RequiredDeliveryDate.Format("2006-01-02")))
	}

	before := snapshot(po)
	from := po.Status
	po.Status = model.POConfirmed
	po.EstimatedDeliveryDate = &input.EstimatedDeliveryDate
	po.UpdatedBy = actorID
	if err := w.orders.UpdatePurchaseOrder(ctx, po, from, model.POConfirmed, actorID, "supplier confirmed"); err != nil {
		return nil, nil, err
	}

	w.appendAudit(ctx, po, "confirmed", actorID, before)
	w.log.Info("purchase order confirmed",
		zap.String("po_number", po.PONumber),
		zap.Uint("supplier_id", po.SupplierID),
		zap.Strings("warnings", warnings))
	return po, warnings, nil
}

// Reject declines a purchase order with a mandatory reason and returns the
// reserved quantity to the supplier's available capacity. The parent order
// is left untouched: re-covering the rejected quantity is an explicit
// planner action through Planner.Replan.
func (w *ConfirmationWorkflow) Reject(ctx context.Context, poID uint, reason string, actorID uint) (*model.PurchaseOrder, error) {
	if reason == "" {
		return nil, &ValidationError{Field: "reason", Reason: "a rejection reason is required"}
	}

	po, err := w.orders.PurchaseOrder(ctx, poID)
	if err != nil {
		return nil, err
	}
	if err := status.PurchaseOrder.Transition(po.Status, model.PORejected); err != nil {
		return nil, err
	}

	before := snapshot(po)
	from := po.Status
	po.Status = model.PORejected
	po.RejectionReason = reason
	po.UpdatedBy = actorID
	if err := w.orders.UpdatePurchaseOrder(ctx, po, from, model.PORejected, actorID, "supplier rejected: "+reason); err != nil {
		return nil, err
	}

	released := po.AllocatedQuantity()
	if err := w.ledger.Release(ctx, po.SupplierID, po.ProductType, released); err != nil {
		// The status change stands; a stuck reservation is recoverable by
		// a later release, losing it silently is not.
		w.log.Error("failed to release capacity after rejection",
			zap.String("po_number", po.PONumber),
			zap.Int64("quantity", released),
			zap.Error(err))
		return nil, err
	}

	w.appendAudit(ctx, po, "rejected", actorID, before)
	w.log.Info("purchase order rejected",
		zap.String("po_number", po.PONumber),
		zap.Uint("supplier_id", po.SupplierID),
		zap.Int64("released_quantity", released),
		zap.String("reason", reason))
	return po, nil
}

func snapshot(po *model.PurchaseOrder) string {
	b, _ := json.Marshal(po)
	return string(b)
}

func (w *ConfirmationWorkflow) appendAudit(ctx context.Context, po *model.PurchaseOrder, action string, actorID uint, before string) {
	entry := model.AuditEntry{
		EntityType:  "purchase_order",
		EntityID:    po.ID,
		Action:      action,
		ActorID:     actorID,
		BeforeState: before,
		AfterState:  snapshot(po),
	}
	if err := w.audit.Append(ctx, entry); err != nil {
		w.log.Warn("audit append failed",
			zap.String("po_number", po.PONumber),
			zap.Error(err))
	}
}
