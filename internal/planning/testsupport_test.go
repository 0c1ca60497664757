package planning

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"procurement-service/internal/model"
)

// In-memory collaborators mirroring the database-backed implementations in
// internal/repository.

type memDirectory struct {
	records []SupplierRecord
}

func (d *memDirectory) ActiveSuppliers(ctx context.Context, productType model.ProductType) ([]SupplierRecord, error) {
	var out []SupplierRecord
	for _, r := range d.records {
		if r.Capability.ProductType == productType && r.Supplier.IsActive && r.Capability.IsActive {
			out = append(out, r)
		}
	}
	return out, nil
}

type recordedTransition struct {
	entity string
	id     uint
	from   string
	to     string
}

type memOrderStore struct {
	mu          sync.Mutex
	orders      map[uint]*model.CustomerOrder
	pos         map[uint]*model.PurchaseOrder
	nextPOID    uint
	transitions []recordedTransition
	failCreate  error
}

func newMemOrderStore() *memOrderStore {
	return &memOrderStore{
		orders:   make(map[uint]*model.CustomerOrder),
		pos:      make(map[uint]*model.PurchaseOrder),
		nextPOID: 1,
	}
}

func (s *memOrderStore) putOrder(order model.CustomerOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := order
	s.orders[order.ID] = &copied
}

func (s *memOrderStore) putPurchaseOrder(po model.PurchaseOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := po
	copied.Items = append([]model.PurchaseOrderItem(nil), po.Items...)
	s.pos[po.ID] = &copied
	if po.ID >= s.nextPOID {
		s.nextPOID = po.ID + 1
	}
}

func (s *memOrderStore) OrderWithItems(ctx context.Context, id uint) (*model.CustomerOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, &NotFoundError{Entity: "customer order", ID: id}
	}
	copied := *order
	return &copied, nil
}

func (s *memOrderStore) PurchaseOrder(ctx context.Context, id uint) (*model.PurchaseOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	po, ok := s.pos[id]
	if !ok {
		return nil, &NotFoundError{Entity: "purchase order", ID: id}
	}
	copied := *po
	copied.Items = append([]model.PurchaseOrderItem(nil), po.Items...)
	return &copied, nil
}

func (s *memOrderStore) PurchaseOrdersForOrder(ctx context.Context, orderID uint) ([]model.PurchaseOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.PurchaseOrder
	for _, po := range s.pos {
		if po.CustomerOrderID == orderID {
			copied := *po
			copied.Items = append([]model.PurchaseOrderItem(nil), po.Items...)
			out = append(out, copied)
		}
	}
	return out, nil
}

func (s *memOrderStore) CreatePurchaseOrders(ctx context.Context, order *model.CustomerOrder, pos []*model.PurchaseOrder, targetStatus model.OrderStatus, actorID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate != nil {
		return s.failCreate
	}
	for _, po := range pos {
		po.ID = s.nextPOID
		s.nextPOID++
		for i := range po.Items {
			po.Items[i].ID = po.ID*100 + uint(i)
			po.Items[i].PurchaseOrderID = po.ID
		}
		copied := *po
		copied.Items = append([]model.PurchaseOrderItem(nil), po.Items...)
		s.pos[po.ID] = &copied
	}
	stored := s.orders[order.ID]
	if stored.Status != targetStatus {
		s.transitions = append(s.transitions, recordedTransition{
			entity: "customer_order", id: order.ID,
			from: string(stored.Status), to: string(targetStatus),
		})
		stored.Status = targetStatus
	}
	return nil
}

func (s *memOrderStore) UpdateOrderStatus(ctx context.Context, orderID uint, from, to model.OrderStatus, actorID uint, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return &NotFoundError{Entity: "customer order", ID: orderID}
	}
	order.Status = to
	s.transitions = append(s.transitions, recordedTransition{
		entity: "customer_order", id: orderID, from: string(from), to: string(to),
	})
	return nil
}

func (s *memOrderStore) UpdatePurchaseOrder(ctx context.Context, po *model.PurchaseOrder, from, to model.PurchaseOrderStatus, actorID uint, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pos[po.ID]; !ok {
		return &NotFoundError{Entity: "purchase order", ID: po.ID}
	}
	copied := *po
	copied.Items = append([]model.PurchaseOrderItem(nil), po.Items...)
	s.pos[po.ID] = &copied
	s.transitions = append(s.transitions, recordedTransition{
		entity: "purchase_order", id: po.ID, from: string(from), to: string(to),
	})
	return nil
}

type memSequence struct {
	mu   sync.Mutex
	next map[string]int
}

func newMemSequence() *memSequence {
	return &memSequence{next: make(map[string]int)}
}

func (s *memSequence) Next(ctx context.Context, supplierCode string, day time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := supplierCode + "|" + day.Format("20060102")
	s.next[k]++
	return s.next[k], nil
}

type memAudit struct {
	mu      sync.Mutex
	entries []model.AuditEntry
}

func (a *memAudit) Append(ctx context.Context, entry model.AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
	return nil
}

type memNotifier struct {
	mu       sync.Mutex
	notified []uint
	fail     bool
}

func (n *memNotifier) NotifySupplierOfNewOrder(ctx context.Context, poID uint) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return fmt.Errorf("notification channel down")
	}
	n.notified = append(n.notified, poID)
	return nil
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func metricsPtr(onTime, quality float64) *model.SupplierPerformanceMetrics {
	return &model.SupplierPerformanceMetrics{OnTimeRate: onTime, QualityScore: quality}
}

func supplierRecord(id uint, code string, pt model.ProductType, maxCapacity, committed int64, metrics *model.SupplierPerformanceMetrics) SupplierRecord {
	if metrics != nil {
		metrics.SupplierID = id
	}
	return SupplierRecord{
		Supplier: model.Supplier{ID: id, Code: code, Name: "Supplier " + code, IsActive: true},
		Capability: model.SupplierCapability{
			SupplierID:         id,
			ProductType:        pt,
			MaxMonthlyCapacity: maxCapacity,
			CurrentCommitments: committed,
			IsActive:           true,
		},
		Metrics: metrics,
	}
}
