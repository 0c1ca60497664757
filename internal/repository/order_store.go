package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"procurement-service/internal/model"
	"procurement-service/internal/planning"
)

// OrderStore persists customer orders and purchase orders and is the
// planning.OrderStore behind the engine. Status changes always land together
// with a StatusTransition row.
type OrderStore struct {
	db *gorm.DB
}

func NewOrderStore(db *gorm.DB) *OrderStore {
	return &OrderStore{db: db}
}

func (s *OrderStore) CreateOrder(ctx context.Context, order *model.CustomerOrder) error {
	return s.db.WithContext(ctx).Create(order).Error
}

func (s *OrderStore) Orders(ctx context.Context, status model.OrderStatus) ([]model.CustomerOrder, error) {
	var orders []model.CustomerOrder
	q := s.db.WithContext(ctx).Preload("Items").Order("id")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *OrderStore) OrderWithItems(ctx context.Context, id uint) (*model.CustomerOrder, error) {
	var order model.CustomerOrder
	err := s.db.WithContext(ctx).Preload("Items").First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &planning.NotFoundError{Entity: "customer order", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *OrderStore) PurchaseOrder(ctx context.Context, id uint) (*model.PurchaseOrder, error) {
	var po model.PurchaseOrder
	err := s.db.WithContext(ctx).Preload("Items").First(&po, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &planning.NotFoundError{Entity: "purchase order", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &po, nil
}

func (s *OrderStore) PurchaseOrdersForOrder(ctx context.Context, orderID uint) ([]model.PurchaseOrder, error) {
	var pos []model.PurchaseOrder
	if err := s.db.WithContext(ctx).
		Preload("Items").
		Where("customer_order_id = ?", orderID).
		Order("supplier_id").
		Find(&pos).Error; err != nil {
		return nil, err
	}
	return pos, nil
}

// PurchaseOrders lists purchase orders, optionally narrowed to one status.
func (s *OrderStore) PurchaseOrders(ctx context.Context, status model.PurchaseOrderStatus) ([]model.PurchaseOrder, error) {
	var pos []model.PurchaseOrder
	q := s.db.WithContext(ctx).Preload("Items").Order("id")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Find(&pos).Error; err != nil {
		return nil, err
	}
	return pos, nil
}

// PurchaseOrdersForSupplier lists a supplier's purchase orders, optionally
// narrowed to one status.
func (s *OrderStore) PurchaseOrdersForSupplier(ctx context.Context, supplierID uint, status model.PurchaseOrderStatus) ([]model.PurchaseOrder, error) {
	var pos []model.PurchaseOrder
	q := s.db.WithContext(ctx).
		Preload("Items").
		Where("supplier_id = ?", supplierID).
		Order("id")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Find(&pos).Error; err != nil {
		return nil, err
	}
	return pos, nil
}

// CreatePurchaseOrders persists the purchase orders and the order's status
// move in one transaction. Either everything lands or nothing does; the
// ledger reservation around this call is rolled back by the caller on error.
func (s *OrderStore) CreatePurchaseOrders(ctx context.Context, order *model.CustomerOrder, pos []*model.PurchaseOrder, targetStatus model.OrderStatus, actorID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, po := range pos {
			if err := tx.Create(po).Error; err != nil {
				return err
			}
		}
		if order.Status != targetStatus {
			if err := tx.Model(&model.CustomerOrder{}).
				Where("id = ?", order.ID).
				Updates(map[string]interface{}{
					"status":     targetStatus,
					"updated_by": actorID,
				}).Error; err != nil {
				return err
			}
			if err := tx.Create(&model.StatusTransition{
				EntityType: "customer_order",
				EntityID:   order.ID,
				FromStatus: string(order.Status),
				ToStatus:   string(targetStatus),
				ActorID:    actorID,
				Notes:      "purchase orders created",
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *OrderStore) UpdateOrderStatus(ctx context.Context, orderID uint, from, to model.OrderStatus, actorID uint, notes string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.CustomerOrder{}).
			Where("id = ? AND status = ?", orderID, from).
			Updates(map[string]interface{}{
				"status":     to,
				"updated_by": actorID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &planning.NotFoundError{Entity: "customer order", ID: orderID}
		}
		return tx.Create(&model.StatusTransition{
			EntityType: "customer_order",
			EntityID:   orderID,
			FromStatus: string(from),
			ToStatus:   string(to),
			ActorID:    actorID,
			Notes:      notes,
		}).Error
	})
}

func (s *OrderStore) UpdatePurchaseOrder(ctx context.Context, po *model.PurchaseOrder, from, to model.PurchaseOrderStatus, actorID uint, notes string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Guard on the status we read so a concurrent transition loses
		// cleanly instead of silently overwriting.
		res := tx.Model(&model.PurchaseOrder{}).
			Where("id = ? AND status = ?", po.ID, from).
			Updates(map[string]interface{}{
				"status":                  po.Status,
				"estimated_delivery_date": po.EstimatedDeliveryDate,
				"rejection_reason":        po.RejectionReason,
				"updated_by":              actorID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &planning.NotFoundError{Entity: "purchase order", ID: po.ID}
		}
		for i := range po.Items {
			if err := tx.Model(&model.PurchaseOrderItem{}).
				Where("id = ?", po.Items[i].ID).
				Updates(map[string]interface{}{
					"packaging_type": po.Items[i].PackagingType,
					"package_count":  po.Items[i].PackageCount,
				}).Error; err != nil {
				return err
			}
		}
		return tx.Create(&model.StatusTransition{
			EntityType: "purchase_order",
			EntityID:   po.ID,
			FromStatus: string(from),
			ToStatus:   string(to),
			ActorID:    actorID,
			Notes:      notes,
		}).Error
	})
}

// Transitions lists the persisted status history of one entity.
func (s *OrderStore) Transitions(ctx context.Context, entityType string, entityID uint) ([]model.StatusTransition, error) {
	var transitions []model.StatusTransition
	if err := s.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("id").
		Find(&transitions).Error; err != nil {
		return nil, err
	}
	return transitions, nil
}
