package handler

import (
	"net/http"
	"strconv"
	"time"

	"procurement-service/internal/model"
	"procurement-service/pkg/logger"
	"procurement-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// OrderItemRequest is one ordered line in an order intake request
type OrderItemRequest struct {
	ProductCode string `json:"product_code" validate:"required"`
	Quantity    int64  `json:"quantity" validate:"required"`
	Unit        string `json:"unit" validate:"required"`
}

// OrderRequest defines the structure for customer order intake
type OrderRequest struct {
	OrderNumber           string             `json:"order_number" validate:"required"`
	CustomerID            string             `json:"customer_id" validate:"required"`
	ProductType           model.ProductType  `json:"product_type" validate:"required"`
	RequestedDeliveryDate time.Time          `json:"requested_delivery_date" validate:"required"`
	Notes                 string             `json:"notes"`
	Items                 []OrderItemRequest `json:"items" validate:"required"`
}

// StatusRequest carries a requested status change with optional notes
type StatusRequest struct {
	Status string `json:"status" validate:"required"`
	Notes  string `json:"notes"`
}

// CancelRequest carries the mandatory reason for a cancellation
type CancelRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// CreateOrder takes in a new customer order
func CreateOrder(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Creating customer order")
	prometheus.RecordPlanningOperation("order_create")

	var req OrderRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if req.OrderNumber == "" || req.CustomerID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "order_number and customer_id are required"})
	}
	if !req.ProductType.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "product_type must be LMR or FFV"})
	}
	if len(req.Items) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "at least one item is required"})
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "item quantities must be positive"})
		}
		if item.ProductCode == "" || item.Unit == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "every item needs a product_code and a unit"})
		}
	}

	userID := actorID(c)
	order := model.CustomerOrder{
		OrderNumber:           req.OrderNumber,
		CustomerID:            req.CustomerID,
		ProductType:           req.ProductType,
		Status:                model.OrderSubmitted,
		RequestedDeliveryDate: req.RequestedDeliveryDate,
		Notes:                 req.Notes,
		CreatedBy:             userID,
		UpdatedBy:             userID,
	}
	for _, item := range req.Items {
		order.Items = append(order.Items, model.OrderItem{
			ProductCode: item.ProductCode,
			Quantity:    item.Quantity,
			Unit:        item.Unit,
		})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	if err := orders.CreateOrder(c.Request().Context(), &order); err != nil {
		log.Error("Failed to create order",
			zap.String("order_number", req.OrderNumber),
			zap.Error(err))
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "Failed to create order; order_number may already exist",
		})
	}

	log.Info("Customer order created",
		zap.Uint("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.Int64("total_quantity", order.TotalQuantity()))
	return c.JSON(http.StatusCreated, order)
}

// GetOrder retrieves one order with items and its purchase orders
func GetOrder(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordPlanningOperation("order_get")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid order ID"})
	}
	ctx := c.Request().Context()

	defer prometheus.TrackDBOperation("query")(time.Now())

	order, err := orders.OrderWithItems(ctx, uint(id))
	if err != nil {
		log.Warn("Order not found", zap.Uint64("order_id", id), zap.Error(err))
		return respondError(c, err)
	}
	pos, err := orders.PurchaseOrdersForOrder(ctx, order.ID)
	if err != nil {
		log.Error("Failed to load purchase orders", zap.Uint64("order_id", id), zap.Error(err))
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"order":           order,
		"purchase_orders": pos,
	})
}

// ListOrders lists customer orders, optionally filtered by status
func ListOrders(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordPlanningOperation("order_list")

	ctx := c.Request().Context()

	defer prometheus.TrackDBOperation("query")(time.Now())

	list, err := orders.Orders(ctx, model.OrderStatus(c.QueryParam("status")))
	if err != nil {
		log.Error("Failed to retrieve orders", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve orders"})
	}

	return c.JSON(http.StatusOK, echo.Map{"orders": list})
}

// AdvanceOrderStatus moves an order one step along its lifecycle
func AdvanceOrderStatus(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordPlanningOperation("order_advance")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid order ID"})
	}

	var req StatusRequest
	if err := c.Bind(&req); err != nil || req.Status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status is required"})
	}

	order, err := lifecycle.AdvanceOrder(c.Request().Context(), uint(id), model.OrderStatus(req.Status), actorID(c), req.Notes)
	if err != nil {
		log.Warn("Order status change refused",
			zap.Uint64("order_id", id),
			zap.String("target", req.Status),
			zap.Error(err))
		return respondError(c, err)
	}

	log.Info("Order status advanced",
		zap.Uint("order_id", order.ID),
		zap.String("status", string(order.Status)))
	return c.JSON(http.StatusOK, order)
}

// CancelOrder cancels an order and every open purchase order under it
func CancelOrder(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordPlanningOperation("order_cancel")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid order ID"})
	}

	var req CancelRequest
	if err := c.Bind(&req); err != nil || req.Reason == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reason is required"})
	}

	order, err := lifecycle.CancelOrder(c.Request().Context(), uint(id), actorID(c), req.Reason)
	if err != nil {
		log.Warn("Order cancellation refused", zap.Uint64("order_id", id), zap.Error(err))
		return respondError(c, err)
	}

	log.Info("Order cancelled",
		zap.Uint("order_id", order.ID),
		zap.String("reason", req.Reason))
	return c.JSON(http.StatusOK, order)
}

// OrderHistory lists the persisted status transitions of one order
func OrderHistory(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordPlanningOperation("order_history")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid order ID"})
	}
	ctx := c.Request().Context()

	if _, err := orders.OrderWithItems(ctx, uint(id)); err != nil {
		return respondError(c, err)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	transitions, err := orders.Transitions(ctx, "customer_order", uint(id))
	if err != nil {
		log.Error("Failed to load order history", zap.Uint64("order_id", id), zap.Error(err))
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"transitions": transitions})
}
