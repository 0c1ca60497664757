package handler

import (
	"net/http"
	"strconv"
	"time"

	"procurement-service/internal/allocation"
	"procurement-service/internal/planning"
	"procurement-service/pkg/logger"
	"procurement-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// SuggestRequest selects the allocation strategy for a suggestion
type SuggestRequest struct {
	Strategy string `json:"strategy"`
}

// CommitRequest carries the plan a planner wants committed. The allocations
// usually come from a suggestion, possibly hand-edited.
type CommitRequest struct {
	Strategy    allocation.Strategy           `json:"strategy"`
	Allocations []planning.SupplierAllocation `json:"allocations" validate:"required"`
}

// SuggestDistribution computes a distribution suggestion for an order.
// Nothing is reserved or persisted.
func SuggestDistribution(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordPlanningOperation("suggest")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid order ID"})
	}

	var req SuggestRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	strategy, err := allocation.ParseStrategy(req.Strategy)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	start := time.Now()
	suggestion, err := planner.Suggest(c.Request().Context(), uint(id), strategy)
	prometheus.AllocationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		log.Warn("Distribution suggestion failed",
			zap.Uint64("order_id", id),
			zap.String("strategy", string(strategy)),
			zap.Error(err))
		return respondError(c, err)
	}

	log.Info("Distribution suggested",
		zap.Uint64("order_id", id),
		zap.String("strategy", string(suggestion.Strategy)),
		zap.Int64("unallocated", suggestion.UnallocatedQuantity))
	return c.JSON(http.StatusOK, suggestion)
}

// CommitDistribution validates a plan and creates its purchase orders
// all-or-nothing: capacity reservation, purchase-order rows and the order's
// status move either all land or none do.
func CommitDistribution(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordPlanningOperation("commit")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid order ID"})
	}

	var req CommitRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if len(req.Allocations) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "allocations are required"})
	}

	plan := &planning.DistributionPlan{
		CustomerOrderID: uint(id),
		Strategy:        req.Strategy,
		Allocations:     req.Allocations,
	}

	defer prometheus.TrackDBOperation("transaction")(time.Now())

	pos, err := factory.CreateFromPlan(c.Request().Context(), plan, actorID(c))
	if err != nil {
		log.Warn("Distribution commit refused",
			zap.Uint64("order_id", id),
			zap.Error(err))
		return respondError(c, err)
	}

	log.Info("Distribution committed",
		zap.Uint64("order_id", id),
		zap.Int("purchase_orders", len(pos)))
	return c.JSON(http.StatusCreated, echo.Map{"purchase_orders": pos})
}

// ValidateDistribution dry-runs a plan through the validator without
// reserving or persisting anything.
func ValidateDistribution(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordPlanningOperation("validate")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid order ID"})
	}

	var req CommitRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	ctx := c.Request().Context()

	order, err := orders.OrderWithItems(ctx, uint(id))
	if err != nil {
		return respondError(c, err)
	}

	plan := &planning.DistributionPlan{
		CustomerOrderID: uint(id),
		Strategy:        req.Strategy,
		Allocations:     req.Allocations,
	}
	result := validator.Validate(ctx, order, plan)

	log.Info("Distribution plan validated",
		zap.Uint64("order_id", id),
		zap.Bool("is_valid", result.IsValid),
		zap.Int("errors", len(result.Errors)),
		zap.Int("warnings", len(result.Warnings)))
	return c.JSON(http.StatusOK, echo.Map{
		"is_valid": result.IsValid,
		"errors":   result.ErrorMessages(),
		"warnings": result.Warnings,
	})
}

// ReplanDistribution suggests a supplemental split covering only quantities
// not carried by any live purchase order, typically after a rejection.
func ReplanDistribution(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordPlanningOperation("replan")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid order ID"})
	}

	var req SuggestRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	strategy, err := allocation.ParseStrategy(req.Strategy)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	start := time.Now()
	suggestion, err := planner.Replan(c.Request().Context(), uint(id), strategy)
	prometheus.AllocationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		log.Warn("Re-planning failed", zap.Uint64("order_id", id), zap.Error(err))
		return respondError(c, err)
	}

	log.Info("Re-plan suggested",
		zap.Uint64("order_id", id),
		zap.Int64("uncovered", suggestion.TotalRequested))
	return c.JSON(http.StatusOK, suggestion)
}
