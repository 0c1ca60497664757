package handler

import (
	"net/http"
	"strconv"
	"time"

	"procurement-service/internal/model"
	"procurement-service/internal/planning"
	"procurement-service/pkg/logger"
	"procurement-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ConfirmRequest is a supplier's acceptance of a purchase order
type ConfirmRequest struct {
	EstimatedDeliveryDate time.Time                `json:"estimated_delivery_date" validate:"required"`
	Items                 []planning.ItemPackaging `json:"items" validate:"required"`
}

// RejectRequest is a supplier's refusal with the mandatory reason
type RejectRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// GetPurchaseOrder retrieves one purchase order with items
func GetPurchaseOrder(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordPlanningOperation("po_get")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid purchase order ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	po, err := orders.PurchaseOrder(c.Request().Context(), uint(id))
	if err != nil {
		log.Warn("Purchase order not found", zap.Uint64("po_id", id), zap.Error(err))
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, po)
}

// ListPurchaseOrders lists purchase orders, optionally filtered by status
func ListPurchaseOrders(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordPlanningOperation("po_list")

	defer prometheus.TrackDBOperation("query")(time.Now())

	pos, err := orders.PurchaseOrders(c.Request().Context(),
		model.PurchaseOrderStatus(c.QueryParam("status")))
	if err != nil {
		log.Error("Failed to retrieve purchase orders", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve purchase orders"})
	}
	return c.JSON(http.StatusOK, echo.Map{"purchase_orders": pos})
}

// ListSupplierPurchaseOrders lists one supplier's purchase orders
func ListSupplierPurchaseOrders(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordPlanningOperation("po_list")

	supplierID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid supplier ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	pos, err := orders.PurchaseOrdersForSupplier(c.Request().Context(), uint(supplierID),
		model.PurchaseOrderStatus(c.QueryParam("status")))
	if err != nil {
		log.Error("Failed to retrieve purchase orders",
			zap.Uint64("supplier_id", supplierID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve purchase orders"})
	}
	return c.JSON(http.StatusOK, echo.Map{"purchase_orders": pos})
}

// SendPurchaseOrder marks a purchase order as sent to its supplier
func SendPurchaseOrder(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordPlanningOperation("po_send")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid purchase order ID"})
	}

	po, err := lifecycle.SendToSupplier(c.Request().Context(), uint(id), actorID(c))
	if err != nil {
		log.Warn("Send to supplier refused", zap.Uint64("po_id", id), zap.Error(err))
		return respondError(c, err)
	}

	log.Info("Purchase order sent",
		zap.String("po_number", po.PONumber),
		zap.Uint("supplier_id", po.SupplierID))
	return c.JSON(http.StatusOK, po)
}

// ConfirmPurchaseOrder records a supplier's acceptance with delivery estimate
// and packaging details
func ConfirmPurchaseOrder(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordPlanningOperation("po_confirm")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid purchase order ID"})
	}

	var req ConfirmRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	po, warnings, err := confirmation.Confirm(c.Request().Context(), uint(id), planning.ConfirmationInput{
		EstimatedDeliveryDate: req.EstimatedDeliveryDate,
		Items:                 req.Items,
	}, actorID(c))
	if err != nil {
		log.Warn("Confirmation refused", zap.Uint64("po_id", id), zap.Error(err))
		return respondError(c, err)
	}

	log.Info("Purchase order confirmed",
		zap.String("po_number", po.PONumber),
		zap.Int("warnings", len(warnings)))
	return c.JSON(http.StatusOK, echo.Map{
		"purchase_order": po,
		"warnings":       warnings,
	})
}

// RejectPurchaseOrder records a supplier's refusal and returns the reserved
// capacity to the ledger
func RejectPurchaseOrder(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordPlanningOperation("po_reject")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid purchase order ID"})
	}

	var req RejectRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	po, err := confirmation.Reject(c.Request().Context(), uint(id), req.Reason, actorID(c))
	if err != nil {
		log.Warn("Rejection refused", zap.Uint64("po_id", id), zap.Error(err))
		return respondError(c, err)
	}

	log.Info("Purchase order rejected",
		zap.String("po_number", po.PONumber),
		zap.String("reason", req.Reason))
	return c.JSON(http.StatusOK, po)
}

// AdvancePurchaseOrderStatus moves a purchase order along its production path
func AdvancePurchaseOrderStatus(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordPlanningOperation("po_advance")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid purchase order ID"})
	}

	var req StatusRequest
	if err := c.Bind(&req); err != nil || req.Status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status is required"})
	}

	po, err := lifecycle.AdvancePurchaseOrder(c.Request().Context(), uint(id),
		model.PurchaseOrderStatus(req.Status), actorID(c), req.Notes)
	if err != nil {
		log.Warn("Purchase order status change refused",
			zap.Uint64("po_id", id),
			zap.String("target", req.Status),
			zap.Error(err))
		return respondError(c, err)
	}

	log.Info("Purchase order status advanced",
		zap.String("po_number", po.PONumber),
		zap.String("status", string(po.Status)))
	return c.JSON(http.StatusOK, po)
}

// CancelPurchaseOrder cancels one purchase order and releases its capacity
func CancelPurchaseOrder(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordPlanningOperation("po_cancel")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid purchase order ID"})
	}

	var req CancelRequest
	if err := c.Bind(&req); err != nil || req.Reason == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reason is required"})
	}

	po, err := lifecycle.CancelPurchaseOrder(c.Request().Context(), uint(id), actorID(c), req.Reason)
	if err != nil {
		log.Warn("Purchase order cancellation refused", zap.Uint64("po_id", id), zap.Error(err))
		return respondError(c, err)
	}

	log.Info("Purchase order cancelled",
		zap.String("po_number", po.PONumber),
		zap.String("reason", req.Reason))
	return c.JSON(http.StatusOK, po)
}

// PurchaseOrderHistory lists the persisted status transitions of one
// purchase order
func PurchaseOrderHistory(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordPlanningOperation("po_history")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid purchase order ID"})
	}
	ctx := c.Request().Context()

	if _, err := orders.PurchaseOrder(ctx, uint(id)); err != nil {
		return respondError(c, err)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	transitions, err := orders.Transitions(ctx, "purchase_order", uint(id))
	if err != nil {
		log.Error("Failed to load purchase order history", zap.Uint64("po_id", id), zap.Error(err))
		return respondError(c, err)
	}
	auditTrail, err := audits.ForEntity(ctx, "purchase_order", uint(id))
	if err != nil {
		log.Error("Failed to load audit trail", zap.Uint64("po_id", id), zap.Error(err))
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"transitions": transitions,
		"audit":       auditTrail,
	})
}
