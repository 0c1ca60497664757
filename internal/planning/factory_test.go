package planning

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurement-service/internal/allocation"
	"procurement-service/internal/ledger"
	"procurement-service/internal/model"
)

type factoryFixture struct {
	factory  *PurchaseOrderFactory
	ledger   *ledger.Ledger
	store    *memOrderStore
	audit    *memAudit
	notifier *memNotifier
}

func newFactoryFixture(t *testing.T, records []SupplierRecord, ledgerStore ledger.Store) *factoryFixture {
	t.Helper()
	if ledgerStore == nil {
		mem := ledger.NewMemoryStore()
		for _, r := range records {
			mem.Put(r.Capability)
		}
		ledgerStore = mem
	}
	l := ledger.New(ledgerStore)
	dir := &memDirectory{records: records}
	store := newMemOrderStore()
	audit := &memAudit{}
	notifier := &memNotifier{}

	f := NewPurchaseOrderFactory(l, NewDistributionValidator(l, dir, store), dir, store,
		newMemSequence(), audit, notifier, testLogger())
	f.now = func() time.Time { return time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC) }

	return &factoryFixture{factory: f, ledger: l, store: store, audit: audit, notifier: notifier}
}

func (fx *factoryFixture) committed(t *testing.T, supplierID uint, pt model.ProductType) int64 {
	t.Helper()
	row, err := fx.ledger.Entry(context.Background(), supplierID, pt)
	require.NoError(t, err)
	return row.CurrentCommitments
}

func TestCreateFromPlanHappyPath(t *testing.T) {
	ctx := context.Background()
	records := []SupplierRecord{
		supplierRecord(1, "ALPHA", model.ProductTypeLMR, 100, 0, nil),
		supplierRecord(2, "BRAVO", model.ProductTypeLMR, 100, 0, nil),
	}
	fx := newFactoryFixture(t, records, nil)

	order := testOrder(1, model.ProductTypeLMR, 60, 40)
	order.RequestedDeliveryDate = time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	fx.store.putOrder(*order)

	plan := planFor(order, map[uint]int64{1: 55, 2: 45})
	pos, err := fx.factory.CreateFromPlan(ctx, plan, 7)
	require.NoError(t, err)
	require.Len(t, pos, 2)

	// One PO per supplier with the reserved quantities.
	assert.Equal(t, "PO-ALPHA-20250314-0001", pos[0].PONumber)
	assert.Equal(t, "PO-BRAVO-20250314-0001", pos[1].PONumber)
	assert.EqualValues(t, 55, pos[0].AllocatedQuantity())
	assert.EqualValues(t, 45, pos[1].AllocatedQuantity())
	assert.Equal(t, model.POCreated, pos[0].Status)
	assert.Equal(t, order.RequestedDeliveryDate, pos[0].RequiredDeliveryDate)

	// Packaging stays empty until confirmation.
	for _, po := range pos {
		for _, item := range po.Items {
			assert.Empty(t, item.PackagingType)
			assert.Zero(t, item.PackageCount)
		}
	}

	// Ledger reserved, order advanced, audit and notifications emitted.
	assert.EqualValues(t, 55, fx.committed(t, 1, model.ProductTypeLMR))
	assert.EqualValues(t, 45, fx.committed(t, 2, model.ProductTypeLMR))
	stored, err := fx.store.OrderWithItems(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderPurchaseOrdersCreated, stored.Status)
	assert.Len(t, fx.audit.entries, 2)
	assert.Len(t, fx.notifier.notified, 2)
}

func TestCreateFromPlanItemConservation(t *testing.T) {
	ctx := context.Background()
	records := []SupplierRecord{
		supplierRecord(1, "ALPHA", model.ProductTypeLMR, 100, 0, nil),
		supplierRecord(2, "BRAVO", model.ProductTypeLMR, 100, 0, nil),
	}
	fx := newFactoryFixture(t, records, nil)

	order := testOrder(1, model.ProductTypeLMR, 60, 40)
	fx.store.putOrder(*order)

	pos, err := fx.factory.CreateFromPlan(ctx, planFor(order, map[uint]int64{1: 55, 2: 45}), 7)
	require.NoError(t, err)

	// Across purchase orders, portions of each order item sum exactly to
	// the ordered quantity.
	perItem := make(map[uint]int64)
	for _, po := range pos {
		for _, item := range po.Items {
			perItem[item.OrderItemID] += item.AllocatedQuantity
		}
	}
	for _, item := range order.Items {
		assert.Equal(t, item.Quantity, perItem[item.ID], "item %d", item.ID)
	}
}

// A rejected purchase order leaves part of the order uncovered; the
// supplemental plan for exactly that remainder commits alongside the
// surviving purchase order.
func TestCreateFromPlanSupplementalCommitAfterRejection(t *testing.T) {
	ctx := context.Background()
	records := []SupplierRecord{
		supplierRecord(1, "ALPHA", model.ProductTypeLMR, 100, 0, nil),
		supplierRecord(2, "BRAVO", model.ProductTypeLMR, 100, 0, nil),
	}
	fx := newFactoryFixture(t, records, nil)

	order := testOrder(1, model.ProductTypeLMR, 60, 40)
	fx.store.putOrder(*order)

	pos, err := fx.factory.CreateFromPlan(ctx, planFor(order, map[uint]int64{1: 60, 2: 40}), 7)
	require.NoError(t, err)
	require.Len(t, pos, 2)

	// Both go out; supplier 2 walks away from its 40.
	lifecycle := NewLifecycle(fx.ledger, fx.store, fx.audit, testLogger())
	confirmation := NewConfirmationWorkflow(fx.ledger, fx.store, fx.audit, testLogger())
	for _, po := range pos {
		_, err := lifecycle.SendToSupplier(ctx, po.ID, 7)
		require.NoError(t, err)
	}
	_, err = confirmation.Reject(ctx, pos[1].ID, "capacity conflict", 7)
	require.NoError(t, err)
	assert.EqualValues(t, 0, fx.committed(t, 2, model.ProductTypeLMR))

	planner := NewPlanner(
		NewEligibilityFilter(&memDirectory{records: records}, 0, 0),
		allocation.New(), fx.store, testLogger())
	suggestion, err := planner.Replan(ctx, order.ID, allocation.StrategyEven)
	require.NoError(t, err)

	// Supplier 1 still holds a live purchase order, so the whole remainder
	// lands on supplier 2 again.
	require.Len(t, suggestion.Allocations, 1)
	assert.EqualValues(t, 2, suggestion.Allocations[0].SupplierID)
	assert.EqualValues(t, 40, suggestion.Allocations[0].Quantity)

	more, err := fx.factory.CreateFromPlan(ctx, suggestion.Plan(), 7)
	require.NoError(t, err)
	require.Len(t, more, 1)
	assert.Equal(t, "PO-BRAVO-20250314-0002", more[0].PONumber)

	// Ledger holds the full order again, split across the live purchase
	// orders, and each item is covered exactly once.
	assert.EqualValues(t, 60, fx.committed(t, 1, model.ProductTypeLMR))
	assert.EqualValues(t, 40, fx.committed(t, 2, model.ProductTypeLMR))
	all, err := fx.store.PurchaseOrdersForOrder(ctx, order.ID)
	require.NoError(t, err)
	perItem := make(map[uint]int64)
	for _, po := range all {
		if po.Status == model.PORejected || po.Status == model.POCancelled {
			continue
		}
		for _, item := range po.Items {
			perItem[item.OrderItemID] += item.AllocatedQuantity
		}
	}
	for _, item := range order.Items {
		assert.Equal(t, item.Quantity, perItem[item.ID], "item %d", item.ID)
	}
	stored, _ := fx.store.OrderWithItems(ctx, order.ID)
	assert.Equal(t, model.OrderAwaitingConfirmation, stored.Status)
}

func TestCreateFromPlanRefusesDoubleCoverage(t *testing.T) {
	ctx := context.Background()
	records := []SupplierRecord{
		supplierRecord(1, "ALPHA", model.ProductTypeLMR, 200, 0, nil),
		supplierRecord(2, "BRAVO", model.ProductTypeLMR, 200, 0, nil),
	}
	fx := newFactoryFixture(t, records, nil)

	order := testOrder(1, model.ProductTypeLMR, 100)
	fx.store.putOrder(*order)

	_, err := fx.factory.CreateFromPlan(ctx, planFor(order, map[uint]int64{1: 100}), 7)
	require.NoError(t, err)

	// The order is fully covered; a second full plan to another supplier
	// must not double-cover the items.
	_, err = fx.factory.CreateFromPlan(ctx, planFor(order, map[uint]int64{2: 100}), 7)
	var pie *PlanInvalidError
	require.ErrorAs(t, err, &pie)
	assert.EqualValues(t, 0, fx.committed(t, 2, model.ProductTypeLMR))
}

// failingSecondStore wraps the memory store and keeps failing updates for
// one supplier, simulating a competing writer that never backs off.
type failingSecondStore struct {
	*ledger.MemoryStore
	failSupplier uint
}

func (s *failingSecondStore) Update(ctx context.Context, capability *model.SupplierCapability) error {
	if capability.SupplierID == s.failSupplier {
		return ledger.ErrVersionConflict
	}
	return s.MemoryStore.Update(ctx, capability)
}

// The all-or-nothing property: a reservation failure on the second of three
// suppliers leaves ledger and order store exactly as they were.
func TestCreateFromPlanAllOrNothing(t *testing.T) {
	ctx := context.Background()
	records := []SupplierRecord{
		supplierRecord(1, "ALPHA", model.ProductTypeLMR, 100, 0, nil),
		supplierRecord(2, "BRAVO", model.ProductTypeLMR, 100, 0, nil),
		supplierRecord(3, "CHARLIE", model.ProductTypeLMR, 100, 0, nil),
	}
	mem := ledger.NewMemoryStore()
	for _, r := range records {
		mem.Put(r.Capability)
	}
	fx := newFactoryFixture(t, records, &failingSecondStore{MemoryStore: mem, failSupplier: 2})

	order := testOrder(1, model.ProductTypeLMR, 90)
	fx.store.putOrder(*order)

	_, err := fx.factory.CreateFromPlan(ctx, planFor(order, map[uint]int64{1: 30, 2: 30, 3: 30}), 7)
	var cce *ledger.ConcurrencyConflictError
	require.ErrorAs(t, err, &cce)
	assert.EqualValues(t, 2, cce.SupplierID)

	// Ledger rolled back completely.
	for _, id := range []uint{1, 2, 3} {
		assert.EqualValues(t, 0, fx.committed(t, id, model.ProductTypeLMR), "supplier %d", id)
	}
	// No purchase orders, order status untouched.
	pos, err := fx.store.PurchaseOrdersForOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Empty(t, pos)
	stored, _ := fx.store.OrderWithItems(ctx, order.ID)
	assert.Equal(t, model.OrderPlanningInProgress, stored.Status)
	assert.Empty(t, fx.audit.entries)
	assert.Empty(t, fx.notifier.notified)
}

func TestCreateFromPlanStoreFailureReleasesReservations(t *testing.T) {
	ctx := context.Background()
	records := []SupplierRecord{
		supplierRecord(1, "ALPHA", model.ProductTypeLMR, 100, 0, nil),
	}
	fx := newFactoryFixture(t, records, nil)

	order := testOrder(1, model.ProductTypeLMR, 50)
	fx.store.putOrder(*order)
	fx.store.failCreate = fmt.Errorf("connection reset")

	_, err := fx.factory.CreateFromPlan(ctx, planFor(order, map[uint]int64{1: 50}), 7)
	require.Error(t, err)
	assert.EqualValues(t, 0, fx.committed(t, 1, model.ProductTypeLMR))
}

func TestCreateFromPlanRejectsInvalidPlan(t *testing.T) {
	ctx := context.Background()
	records := []SupplierRecord{
		supplierRecord(1, "ALPHA", model.ProductTypeLMR, 100, 0, nil),
	}
	fx := newFactoryFixture(t, records, nil)

	order := testOrder(1, model.ProductTypeLMR, 500)
	fx.store.putOrder(*order)

	// Short plan: conservation refused at commit, nothing reserved.
	plan := planFor(order, map[uint]int64{1: 100})
	_, err := fx.factory.CreateFromPlan(ctx, plan, 7)
	var pie *PlanInvalidError
	require.ErrorAs(t, err, &pie)
	assert.EqualValues(t, 0, fx.committed(t, 1, model.ProductTypeLMR))
}

func TestCreateFromPlanWrongOrderStatus(t *testing.T) {
	ctx := context.Background()
	records := []SupplierRecord{
		supplierRecord(1, "ALPHA", model.ProductTypeLMR, 100, 0, nil),
	}
	fx := newFactoryFixture(t, records, nil)

	order := testOrder(1, model.ProductTypeLMR, 50)
	order.Status = model.OrderSubmitted
	fx.store.putOrder(*order)

	_, err := fx.factory.CreateFromPlan(ctx, planFor(order, map[uint]int64{1: 50}), 7)
	require.Error(t, err)
}

func TestCreateFromPlanNotificationFailureDoesNotRollBack(t *testing.T) {
	ctx := context.Background()
	records := []SupplierRecord{
		supplierRecord(1, "ALPHA", model.ProductTypeLMR, 100, 0, nil),
	}
	fx := newFactoryFixture(t, records, nil)
	fx.notifier.fail = true

	order := testOrder(1, model.ProductTypeLMR, 50)
	fx.store.putOrder(*order)

	pos, err := fx.factory.CreateFromPlan(ctx, planFor(order, map[uint]int64{1: 50}), 7)
	require.NoError(t, err)
	assert.Len(t, pos, 1)
	assert.EqualValues(t, 50, fx.committed(t, 1, model.ProductTypeLMR))
}

func TestFormatPONumber(t *testing.T) {
	day := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "PO-ALPHA-20250105-0007", FormatPONumber("ALPHA", day, 7))
}

func TestSequencePerSupplierPerDay(t *testing.T) {
	ctx := context.Background()
	records := []SupplierRecord{
		supplierRecord(1, "ALPHA", model.ProductTypeLMR, 1000, 0, nil),
	}
	fx := newFactoryFixture(t, records, nil)

	for i := uint(1); i <= 2; i++ {
		order := testOrder(i, model.ProductTypeLMR, 10)
		fx.store.putOrder(*order)
		pos, err := fx.factory.CreateFromPlan(ctx, planFor(order, map[uint]int64{1: 10}), 7)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("PO-ALPHA-20250314-%04d", i), pos[0].PONumber)
	}
}
