package model

import (
	"time"

	"gorm.io/gorm"
)

// ProductType identifies one of the two supported procurement product lines.
type ProductType string

const (
	ProductTypeLMR ProductType = "LMR"
	ProductTypeFFV ProductType = "FFV"
)

// Valid reports whether pt is one of the supported product types.
func (pt ProductType) Valid() bool {
	return pt == ProductTypeLMR || pt == ProductTypeFFV
}

// Supplier represents a supplier that can receive purchase orders
type Supplier struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	Code          string         `json:"code" gorm:"type:varchar(50);uniqueIndex;not null"`
	Name          string         `json:"name" gorm:"type:varchar(100);index;not null"`
	ContactPerson string         `json:"contact_person" gorm:"type:varchar(100)"`
	Email         string         `json:"email" gorm:"type:varchar(100)"`
	Phone         string         `json:"phone" gorm:"type:varchar(20)"`
	Notes         string         `json:"notes" gorm:"type:text"`
	IsActive      bool           `json:"is_active" gorm:"default:true"`
	CreatedBy     uint           `json:"created_by" gorm:"index"`
	UpdatedBy     uint           `json:"updated_by"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// SupplierCapability is the capacity-ledger row for one supplier and one
// product type: how much the supplier can take per month vs. how much is
// already committed to open purchase orders. CurrentCommitments mutates only
// through ledger Reserve/Release; Version backs the optimistic update check.
type SupplierCapability struct {
	ID                 uint        `json:"id" gorm:"primaryKey"`
	SupplierID         uint        `json:"supplier_id" gorm:"uniqueIndex:idx_supplier_product;not null"`
	ProductType        ProductType `json:"product_type" gorm:"type:varchar(10);uniqueIndex:idx_supplier_product;not null"`
	MaxMonthlyCapacity int64       `json:"max_monthly_capacity" gorm:"not null"`
	CurrentCommitments int64       `json:"current_commitments" gorm:"not null;default:0"`
	QualityRating      float64     `json:"quality_rating" gorm:"default:0"`
	IsActive           bool        `json:"is_active" gorm:"default:true"`
	Version            int64       `json:"-" gorm:"not null;default:0"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// AvailableCapacity returns the uncommitted remainder. Commitments can
// transiently exceed capacity when capacity is lowered after reservations
// were made; that reads as zero available, never negative.
func (c *SupplierCapability) AvailableCapacity() int64 {
	avail := c.MaxMonthlyCapacity - c.CurrentCommitments
	if avail < 0 {
		return 0
	}
	return avail
}

// Utilization returns committed/max as a ratio.
func (c *SupplierCapability) Utilization() float64 {
	if c.MaxMonthlyCapacity <= 0 {
		return 0
	}
	return float64(c.CurrentCommitments) / float64(c.MaxMonthlyCapacity)
}

// SupplierPerformanceMetrics tracks delivery performance per supplier.
// CustomerSatisfaction is optional; suppliers without any metrics row are
// still eligible for distribution but rank last.
type SupplierPerformanceMetrics struct {
	ID                   uint      `json:"id" gorm:"primaryKey"`
	SupplierID           uint      `json:"supplier_id" gorm:"uniqueIndex;not null"`
	OnTimeRate           float64   `json:"on_time_rate" gorm:"default:0"`
	QualityScore         float64   `json:"quality_score" gorm:"default:0"`
	CustomerSatisfaction *float64  `json:"customer_satisfaction,omitempty"`
	CompletedOrders      int       `json:"completed_orders" gorm:"default:0"`
	LateDeliveries       int       `json:"late_deliveries" gorm:"default:0"`
	CancelledOrders      int       `json:"cancelled_orders" gorm:"default:0"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// OverallPerformanceScore blends the individual metrics into one comparable
// score on the 1-5 scale the quality score uses; the on-time rate is scaled
// up to match. With customer satisfaction present the blend is 45/45/10,
// without it 50/50.
func (m *SupplierPerformanceMetrics) OverallPerformanceScore() float64 {
	onTime := m.OnTimeRate * 5
	if m.CustomerSatisfaction != nil {
		return 0.45*onTime + 0.45*m.QualityScore + 0.10**m.CustomerSatisfaction
	}
	return 0.5*onTime + 0.5*m.QualityScore
}
