package model

import (
	"time"

	"gorm.io/gorm"
)

// PurchaseOrderStatus is the supplier-facing order lifecycle state. It is a
// separate enum from OrderStatus; the two machines cascade but never share
// states.
type PurchaseOrderStatus string

const (
	POCreated          PurchaseOrderStatus = "CREATED"
	POSentToSupplier   PurchaseOrderStatus = "SENT_TO_SUPPLIER"
	POConfirmed        PurchaseOrderStatus = "CONFIRMED"
	PORejected         PurchaseOrderStatus = "REJECTED"
	POInProduction     PurchaseOrderStatus = "IN_PRODUCTION"
	POReadyForShipment PurchaseOrderStatus = "READY_FOR_SHIPMENT"
	POShipped          PurchaseOrderStatus = "SHIPPED"
	PODelivered        PurchaseOrderStatus = "DELIVERED"
	POCancelled        PurchaseOrderStatus = "CANCELLED"
)

// Terminal reports whether no further transition can leave s.
func (s PurchaseOrderStatus) Terminal() bool {
	return s == PODelivered || s == POCancelled || s == PORejected
}

// PurchaseOrder is the supplier-facing commitment carved out of a customer
// order by a committed distribution plan. At most one live purchase order
// per supplier per customer order; a rejected or cancelled one frees the
// slot so a re-plan can allocate to the same supplier again. The summed
// item quantities never exceed the ledger capacity that was reserved at
// creation.
type PurchaseOrder struct {
	ID                    uint                `json:"id" gorm:"primaryKey"`
	PONumber              string              `json:"po_number" gorm:"type:varchar(40);uniqueIndex;not null"`
	CustomerOrderID       uint                `json:"customer_order_id" gorm:"index:idx_order_supplier,unique,where:status <> 'REJECTED' AND status <> 'CANCELLED';not null"`
	SupplierID            uint                `json:"supplier_id" gorm:"index:idx_order_supplier,unique,where:status <> 'REJECTED' AND status <> 'CANCELLED';not null"`
	ProductType           ProductType         `json:"product_type" gorm:"type:varchar(10);not null"`
	Status                PurchaseOrderStatus `json:"status" gorm:"type:varchar(30);not null;default:'CREATED'"`
	RequiredDeliveryDate  time.Time           `json:"required_delivery_date" gorm:"type:date;not null"`
	EstimatedDeliveryDate *time.Time          `json:"estimated_delivery_date,omitempty" gorm:"type:date"`
	RejectionReason       string              `json:"rejection_reason,omitempty" gorm:"type:text"`
	Items                 []PurchaseOrderItem `json:"items" gorm:"foreignKey:PurchaseOrderID"`
	CreatedBy             uint                `json:"created_by" gorm:"index"`
	UpdatedBy             uint                `json:"updated_by"`
	CreatedAt             time.Time           `json:"created_at"`
	UpdatedAt             time.Time           `json:"updated_at"`
	DeletedAt             gorm.DeletedAt      `json:"deleted_at,omitempty" gorm:"index"`
}

// AllocatedQuantity sums the allocated item quantities.
func (po *PurchaseOrder) AllocatedQuantity() int64 {
	var total int64
	for _, item := range po.Items {
		total += item.AllocatedQuantity
	}
	return total
}

// PurchaseOrderItem allocates part of one customer order item to the
// purchase order's supplier. Packaging fields stay empty until the supplier
// confirms.
type PurchaseOrderItem struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	PurchaseOrderID   uint      `json:"purchase_order_id" gorm:"index;not null"`
	OrderItemID       uint      `json:"order_item_id" gorm:"index;not null"`
	ProductCode       string    `json:"product_code" gorm:"type:varchar(50);not null"`
	AllocatedQuantity int64     `json:"allocated_quantity" gorm:"not null;check:allocated_quantity > 0"`
	Unit              string    `json:"unit" gorm:"type:varchar(20);not null"`
	PackagingType     string    `json:"packaging_type,omitempty" gorm:"type:varchar(50)"`
	PackageCount      int       `json:"package_count,omitempty" gorm:"default:0"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
