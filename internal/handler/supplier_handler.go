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

// SupplierRequest defines the structure for supplier creation/update requests
type SupplierRequest struct {
	Name          string `json:"name" validate:"required"`
	Code          string `json:"code" validate:"required"`
	ContactPerson string `json:"contact_person"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Notes         string `json:"notes"`
	IsActive      bool   `json:"is_active"`
}

// CapabilityRequest defines the structure for capability upserts
type CapabilityRequest struct {
	ProductType        model.ProductType `json:"product_type" validate:"required"`
	MaxMonthlyCapacity int64             `json:"max_monthly_capacity" validate:"required"`
	QualityRating      float64           `json:"quality_rating"`
	IsActive           bool              `json:"is_active"`
}

// MetricsRequest defines the structure for performance metrics upserts
type MetricsRequest struct {
	OnTimeRate           float64  `json:"on_time_rate"`
	QualityScore         float64  `json:"quality_score"`
	CustomerSatisfaction *float64 `json:"customer_satisfaction,omitempty"`
	CompletedOrders      int      `json:"completed_orders"`
	LateDeliveries       int      `json:"late_deliveries"`
	CancelledOrders      int      `json:"cancelled_orders"`
}

// CreateSupplier creates a new supplier
func CreateSupplier(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Creating new supplier")
	prometheus.RecordPlanningOperation("supplier_create")

	var req SupplierRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}
	if req.Name == "" || req.Code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "name and code are required",
		})
	}

	userID := actorID(c)
	ctx := c.Request().Context()

	supplier := model.Supplier{
		Name:          req.Name,
		Code:          req.Code,
		ContactPerson: req.ContactPerson,
		Email:         req.Email,
		Phone:         req.Phone,
		Notes:         req.Notes,
		IsActive:      req.IsActive,
		CreatedBy:     userID,
		UpdatedBy:     userID,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	if err := suppliers.Create(ctx, &supplier); err != nil {
		log.Error("Failed to create supplier",
			zap.String("name", req.Name),
			zap.String("code", req.Code),
			zap.Error(err))
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "Failed to create supplier; code may already exist",
		})
	}

	log.Info("Supplier created successfully",
		zap.Uint("id", supplier.ID),
		zap.String("name", supplier.Name),
		zap.String("code", supplier.Code))
	return c.JSON(http.StatusCreated, supplier)
}

// GetSupplier retrieves a supplier by ID with capabilities attached
func GetSupplier(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordPlanningOperation("supplier_get")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid supplier ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid supplier ID",
		})
	}
	ctx := c.Request().Context()

	defer prometheus.TrackDBOperation("query")(time.Now())

	supplier, err := suppliers.ByID(ctx, uint(id))
	if err != nil {
		log.Warn("Supplier not found", zap.Uint64("supplier_id", id), zap.Error(err))
		return respondError(c, err)
	}
	capabilities, err := suppliers.Capabilities(ctx, supplier.ID)
	if err != nil {
		log.Error("Failed to load capabilities", zap.Uint64("supplier_id", id), zap.Error(err))
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"supplier":     supplier,
		"capabilities": capabilities,
	})
}

// ListSuppliers retrieves suppliers, optionally only active ones
func ListSuppliers(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordPlanningOperation("supplier_list")

	activeOnly := false
	if v := c.QueryParam("active"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			activeOnly = parsed
		} else {
			log.Warn("Invalid active parameter", zap.String("value", v), zap.Error(err))
		}
	}
	ctx := c.Request().Context()

	defer prometheus.TrackDBOperation("query")(time.Now())

	list, err := suppliers.List(ctx, activeOnly)
	if err != nil {
		log.Error("Failed to retrieve suppliers", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve suppliers",
		})
	}

	log.Info("Suppliers retrieved successfully", zap.Int("count", len(list)))
	return c.JSON(http.StatusOK, echo.Map{"suppliers": list})
}

// UpdateSupplier updates an existing supplier
func UpdateSupplier(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordPlanningOperation("supplier_update")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid supplier ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid supplier ID",
		})
	}

	var req SupplierRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Uint64("supplier_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}
	ctx := c.Request().Context()

	supplier, err := suppliers.ByID(ctx, uint(id))
	if err != nil {
		return respondError(c, err)
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	supplier.Name = req.Name
	supplier.Code = req.Code
	supplier.ContactPerson = req.ContactPerson
	supplier.Email = req.Email
	supplier.Phone = req.Phone
	supplier.Notes = req.Notes
	supplier.IsActive = req.IsActive
	supplier.UpdatedBy = actorID(c)

	if err := suppliers.Update(ctx, supplier); err != nil {
		log.Error("Failed to update supplier", zap.Uint64("supplier_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update supplier",
		})
	}

	log.Info("Supplier updated successfully",
		zap.Uint64("supplier_id", id),
		zap.String("name", supplier.Name),
		zap.String("code", supplier.Code))
	return c.JSON(http.StatusOK, supplier)
}

// SaveCapability creates or updates one supplier capability. Commitments are
// ledger-owned and never set through this endpoint.
func SaveCapability(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordPlanningOperation("capability_save")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid supplier ID"})
	}

	var req CapabilityRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if !req.ProductType.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "product_type must be LMR or FFV"})
	}
	if req.MaxMonthlyCapacity <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "max_monthly_capacity must be positive"})
	}
	ctx := c.Request().Context()

	if _, err := suppliers.ByID(ctx, uint(id)); err != nil {
		return respondError(c, err)
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	capability := model.SupplierCapability{
		SupplierID:         uint(id),
		ProductType:        req.ProductType,
		MaxMonthlyCapacity: req.MaxMonthlyCapacity,
		QualityRating:      req.QualityRating,
		IsActive:           req.IsActive,
	}
	if err := suppliers.SaveCapability(ctx, &capability); err != nil {
		log.Error("Failed to save capability",
			zap.Uint64("supplier_id", id),
			zap.String("product_type", string(req.ProductType)),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to save capability"})
	}

	log.Info("Capability saved",
		zap.Uint64("supplier_id", id),
		zap.String("product_type", string(req.ProductType)),
		zap.Int64("max_monthly_capacity", req.MaxMonthlyCapacity))
	return c.JSON(http.StatusOK, capability)
}

// SaveMetrics upserts a supplier's performance metrics
func SaveMetrics(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordPlanningOperation("metrics_save")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid supplier ID"})
	}

	var req MetricsRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if req.OnTimeRate < 0 || req.OnTimeRate > 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "on_time_rate must be between 0 and 1"})
	}
	if req.QualityScore < 0 || req.QualityScore > 5 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "quality_score must be between 0 and 5"})
	}
	ctx := c.Request().Context()

	if _, err := suppliers.ByID(ctx, uint(id)); err != nil {
		return respondError(c, err)
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	metrics := model.SupplierPerformanceMetrics{
		SupplierID:           uint(id),
		OnTimeRate:           req.OnTimeRate,
		QualityScore:         req.QualityScore,
		CustomerSatisfaction: req.CustomerSatisfaction,
		CompletedOrders:      req.CompletedOrders,
		LateDeliveries:       req.LateDeliveries,
		CancelledOrders:      req.CancelledOrders,
	}
	if err := suppliers.SaveMetrics(ctx, &metrics); err != nil {
		log.Error("Failed to save metrics", zap.Uint64("supplier_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to save metrics"})
	}

	log.Info("Performance metrics saved", zap.Uint64("supplier_id", id))
	return c.JSON(http.StatusOK, metrics)
}
