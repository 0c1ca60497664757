package model

import (
	"time"

	"gorm.io/gorm"
)

// OrderStatus is the customer-order lifecycle state.
type OrderStatus string

const (
	OrderSubmitted             OrderStatus = "SUBMITTED"
	OrderUnderReview           OrderStatus = "UNDER_REVIEW"
	OrderPlanningInProgress    OrderStatus = "PLANNING_IN_PROGRESS"
	OrderPurchaseOrdersCreated OrderStatus = "PURCHASE_ORDERS_CREATED"
	OrderAwaitingConfirmation  OrderStatus = "AWAITING_SUPPLIER_CONFIRMATION"
	OrderInProduction          OrderStatus = "IN_PRODUCTION"
	OrderReadyForDelivery      OrderStatus = "READY_FOR_DELIVERY"
	OrderDelivered             OrderStatus = "DELIVERED"
	OrderCancelled             OrderStatus = "CANCELLED"
)

// CustomerOrder is a customer's procurement demand. Items are fixed at
// creation; the order only changes through status transitions and the
// purchase orders derived from it.
type CustomerOrder struct {
	ID                    uint           `json:"id" gorm:"primaryKey"`
	OrderNumber           string         `json:"order_number" gorm:"type:varchar(30);uniqueIndex;not null"`
	CustomerID            string         `json:"customer_id" gorm:"type:varchar(20);index;not null;comment:'DODAAC of the ordering unit'"`
	ProductType           ProductType    `json:"product_type" gorm:"type:varchar(10);not null"`
	Status                OrderStatus    `json:"status" gorm:"type:varchar(40);not null;default:'SUBMITTED'"`
	RequestedDeliveryDate time.Time      `json:"requested_delivery_date" gorm:"type:date;not null"`
	Notes                 string         `json:"notes" gorm:"type:text"`
	Items                 []OrderItem    `json:"items" gorm:"foreignKey:CustomerOrderID"`
	CreatedBy             uint           `json:"created_by" gorm:"index"`
	UpdatedBy             uint           `json:"updated_by"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
	DeletedAt             gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// TotalQuantity sums the ordered item quantities.
func (o *CustomerOrder) TotalQuantity() int64 {
	var total int64
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// OrderItem is one ordered line on a customer order.
type OrderItem struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	CustomerOrderID uint      `json:"customer_order_id" gorm:"index;not null"`
	ProductCode     string    `json:"product_code" gorm:"type:varchar(50);not null"`
	Quantity        int64     `json:"quantity" gorm:"not null;check:quantity > 0"`
	Unit            string    `json:"unit" gorm:"type:varchar(20);not null"`
	CreatedAt       time.Time `json:"created_at"`
}

// StatusTransition records one persisted status change on either order
// family, with the actor who made it.
type StatusTransition struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	EntityType string    `json:"entity_type" gorm:"type:varchar(30);index:idx_transition_entity;not null"`
	EntityID   uint      `json:"entity_id" gorm:"index:idx_transition_entity;not null"`
	FromStatus string    `json:"from_status" gorm:"type:varchar(40);not null"`
	ToStatus   string    `json:"to_status" gorm:"type:varchar(40);not null"`
	ActorID    uint      `json:"actor_id"`
	Notes      string    `json:"notes" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at"`
}
