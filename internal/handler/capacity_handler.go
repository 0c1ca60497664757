package handler

import (
	"net/http"
	"time"

	"procurement-service/internal/model"
	"procurement-service/pkg/logger"
	"procurement-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// capacityRow is one line of the utilization report
type capacityRow struct {
	SupplierID         uint              `json:"supplier_id"`
	ProductType        model.ProductType `json:"product_type"`
	MaxMonthlyCapacity int64             `json:"max_monthly_capacity"`
	CurrentCommitments int64             `json:"current_commitments"`
	AvailableCapacity  int64             `json:"available_capacity"`
	Utilization        float64           `json:"utilization"`
	IsActive           bool              `json:"is_active"`
}

// CapacityReport returns the live utilization of every capability for one
// product type and refreshes the capacity gauges.
func CapacityReport(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordPlanningOperation("capacity_report")

	productType := model.ProductType(c.QueryParam("product_type"))
	if !productType.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "product_type must be LMR or FFV"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	capabilities, err := suppliers.CapabilitiesForProduct(c.Request().Context(), productType)
	if err != nil {
		log.Error("Failed to load capabilities",
			zap.String("product_type", string(productType)),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load capacity report"})
	}

	rows := make([]capacityRow, 0, len(capabilities))
	var totalMax, totalCommitted int64
	for _, capability := range capabilities {
		rows = append(rows, capacityRow{
			SupplierID:         capability.SupplierID,
			ProductType:        capability.ProductType,
			MaxMonthlyCapacity: capability.MaxMonthlyCapacity,
			CurrentCommitments: capability.CurrentCommitments,
			AvailableCapacity:  capability.AvailableCapacity(),
			Utilization:        capability.Utilization(),
			IsActive:           capability.IsActive,
		})
		totalMax += capability.MaxMonthlyCapacity
		totalCommitted += capability.CurrentCommitments
		prometheus.UpdateCapacityUtilization(capability.SupplierID, string(capability.ProductType), capability.Utilization())
	}

	var overall float64
	if totalMax > 0 {
		overall = float64(totalCommitted) / float64(totalMax)
	}

	log.Info("Capacity report generated",
		zap.String("product_type", string(productType)),
		zap.Int("suppliers", len(rows)),
		zap.Float64("overall_utilization", overall))
	return c.JSON(http.StatusOK, echo.Map{
		"product_type":        productType,
		"suppliers":           rows,
		"total_capacity":      totalMax,
		"total_commitments":   totalCommitted,
		"overall_utilization": overall,
	})
}
