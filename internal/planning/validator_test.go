package planning

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurement-service/internal/ledger"
	"procurement-service/internal/model"
)

// newValidator wires a validator over an order store, or an empty one when
// the test has no existing purchase orders.
func newValidator(l *ledger.Ledger, dir SupplierDirectory, store *memOrderStore) *DistributionValidator {
	if store == nil {
		store = newMemOrderStore()
	}
	return NewDistributionValidator(l, dir, store)
}

func ledgerFor(records ...SupplierRecord) (*ledger.Ledger, *ledger.MemoryStore) {
	store := ledger.NewMemoryStore()
	for _, r := range records {
		store.Put(r.Capability)
	}
	return ledger.New(store), store
}

func testOrder(id uint, pt model.ProductType, quantities ...int64) *model.CustomerOrder {
	order := &model.CustomerOrder{
		ID:          id,
		OrderNumber: "ORD-0001",
		CustomerID:  "W25G1U",
		ProductType: pt,
		Status:      model.OrderPlanningInProgress,
	}
	for i, q := range quantities {
		order.Items = append(order.Items, model.OrderItem{
			ID:              id*10 + uint(i) + 1,
			CustomerOrderID: id,
			ProductCode:     "PRD-" + string(rune('A'+i)),
			Quantity:        q,
			Unit:            "EA",
		})
	}
	return order
}

// planFor builds a plan whose per-item breakdown fills items in order.
func planFor(order *model.CustomerOrder, quantities map[uint]int64) *DistributionPlan {
	demands := make([]itemDemand, 0, len(order.Items))
	for _, item := range order.Items {
		demands = append(demands, itemDemand{item: item, needed: item.Quantity})
	}
	plan := &DistributionPlan{CustomerOrderID: order.ID}
	remaining := make([]int64, len(demands))
	for i, d := range demands {
		remaining[i] = d.needed
	}
	ids := make([]uint, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if ids[j] < ids[i] {
				ids[i], ids[j] = ids[j], ids[i]
			}
		}
	}
	cursor := 0
	for _, supplierID := range ids {
		sa := SupplierAllocation{SupplierID: supplierID, Quantity: quantities[supplierID]}
		left := sa.Quantity
		for left > 0 && cursor < len(demands) {
			if remaining[cursor] == 0 {
				cursor++
				continue
			}
			take := left
			if take > remaining[cursor] {
				take = remaining[cursor]
			}
			sa.Items = append(sa.Items, ItemAllocation{
				OrderItemID: demands[cursor].item.ID,
				ProductCode: demands[cursor].item.ProductCode,
				Quantity:    take,
				Unit:        demands[cursor].item.Unit,
			})
			remaining[cursor] -= take
			left -= take
		}
		plan.Allocations = append(plan.Allocations, sa)
	}
	return plan
}

func TestValidateAcceptsSoundPlan(t *testing.T) {
	ctx := context.Background()
	records := []SupplierRecord{
		supplierRecord(1, "ALPHA", model.ProductTypeLMR, 100, 0, nil),
		supplierRecord(2, "BRAVO", model.ProductTypeLMR, 100, 0, nil),
	}
	l, _ := ledgerFor(records...)
	dir := &memDirectory{records: records}

	order := testOrder(1, model.ProductTypeLMR, 60, 40)
	plan := planFor(order, map[uint]int64{1: 50, 2: 50})

	result := newValidator(l, dir, nil).Validate(ctx, order, plan)
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestValidateCapacityExceeded(t *testing.T) {
	ctx := context.Background()
	records := []SupplierRecord{
		supplierRecord(1, "ALPHA", model.ProductTypeLMR, 100, 80, nil),
	}
	l, _ := ledgerFor(records...)
	dir := &memDirectory{records: records}

	order := testOrder(1, model.ProductTypeLMR, 50)
	plan := planFor(order, map[uint]int64{1: 50})

	result := newValidator(l, dir, nil).Validate(ctx, order, plan)
	require.False(t, result.IsValid)
	var cee *ledger.CapacityExceededError
	require.ErrorAs(t, result.Errors[0], &cee)
	assert.EqualValues(t, 50, cee.Requested)
	assert.EqualValues(t, 20, cee.Available)
	assert.EqualValues(t, 30, cee.Shortfall())
}

func TestValidateQuantityMismatch(t *testing.T) {
	ctx := context.Background()
	records := []SupplierRecord{
		supplierRecord(1, "ALPHA", model.ProductTypeLMR, 1000, 0, nil),
	}
	l, _ := ledgerFor(records...)
	dir := &memDirectory{records: records}

	// Requested 500, market only supports a 300-unit plan: the validator
	// refuses to commit the short plan.
	order := testOrder(1, model.ProductTypeLMR, 500)
	plan := planFor(order, map[uint]int64{1: 300})
	plan.Allocations[0].Items[0].Quantity = 300

	result := newValidator(l, dir, nil).Validate(ctx, order, plan)
	require.False(t, result.IsValid)
	var qme *QuantityMismatchError
	require.ErrorAs(t, result.Errors[len(result.Errors)-1], &qme)
	assert.EqualValues(t, 500, qme.Open)
	assert.EqualValues(t, 300, qme.Allocated)
}

// livePO60 seeds a confirmed purchase order carrying 60 of the order's
// first item for supplier 1.
func livePO60(order *model.CustomerOrder) *memOrderStore {
	store := newMemOrderStore()
	store.putOrder(*order)
	store.putPurchaseOrder(model.PurchaseOrder{
		ID: 1, CustomerOrderID: order.ID, SupplierID: 1,
		ProductType: order.ProductType, Status: model.POConfirmed,
		Items: []model.PurchaseOrderItem{{ID: 101, OrderItemID: order.Items[0].ID, AllocatedQuantity: 60}},
	})
	return store
}

func TestValidateSupplementalPlanCoversOpenQuantity(t *testing.T) {
	ctx := context.Background()
	records := []SupplierRecord{
		supplierRecord(1, "ALPHA", model.ProductTypeLMR, 200, 60, nil),
		supplierRecord(2, "BRAVO", model.ProductTypeLMR, 200, 0, nil),
	}
	l, _ := ledgerFor(records...)
	dir := &memDirectory{records: records}

	order := testOrder(1, model.ProductTypeLMR, 100)
	order.Status = model.OrderAwaitingConfirmation
	store := livePO60(order)

	// 60 of 100 is live with supplier 1: a 40-unit plan for supplier 2 is
	// exactly the open remainder.
	plan := &DistributionPlan{
		CustomerOrderID: order.ID,
		Allocations: []SupplierAllocation{{
			SupplierID: 2, Quantity: 40,
			Items: []ItemAllocation{{OrderItemID: order.Items[0].ID, ProductCode: "PRD-A", Quantity: 40, Unit: "EA"}},
		}},
	}
	result := newValidator(l, dir, store).Validate(ctx, order, plan)
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
}

func TestValidateSupplementalPlanOverOpenQuantity(t *testing.T) {
	ctx := context.Background()
	records := []SupplierRecord{
		supplierRecord(1, "ALPHA", model.ProductTypeLMR, 200, 60, nil),
		supplierRecord(2, "BRAVO", model.ProductTypeLMR, 200, 0, nil),
	}
	l, _ := ledgerFor(records...)
	dir := &memDirectory{records: records}

	order := testOrder(1, model.ProductTypeLMR, 100)
	order.Status = model.OrderAwaitingConfirmation
	store := livePO60(order)

	// A second full plan would double-cover the 60 units that are already
	// live with supplier 1.
	plan := &DistributionPlan{
		CustomerOrderID: order.ID,
		Allocations: []SupplierAllocation{{
			SupplierID: 2, Quantity: 100,
			Items: []ItemAllocation{{OrderItemID: order.Items[0].ID, ProductCode: "PRD-A", Quantity: 100, Unit: "EA"}},
		}},
	}
	result := newValidator(l, dir, store).Validate(ctx, order, plan)
	require.False(t, result.IsValid)
	var qme *QuantityMismatchError
	require.ErrorAs(t, result.Errors[len(result.Errors)-1], &qme)
	assert.EqualValues(t, 40, qme.Open)
	assert.EqualValues(t, 100, qme.Allocated)
}

func TestValidateRefusesLivePurchaseOrderHolder(t *testing.T) {
	ctx := context.Background()
	records := []SupplierRecord{
		supplierRecord(1, "ALPHA", model.ProductTypeLMR, 200, 60, nil),
	}
	l, _ := ledgerFor(records...)
	dir := &memDirectory{records: records}

	order := testOrder(1, model.ProductTypeLMR, 100)
	order.Status = model.OrderAwaitingConfirmation
	store := livePO60(order)

	plan := &DistributionPlan{
		CustomerOrderID: order.ID,
		Allocations: []SupplierAllocation{{
			SupplierID: 1, Quantity: 40,
			Items: []ItemAllocation{{OrderItemID: order.Items[0].ID, ProductCode: "PRD-A", Quantity: 40, Unit: "EA"}},
		}},
	}
	result := newValidator(l, dir, store).Validate(ctx, order, plan)
	require.False(t, result.IsValid)
	var ve *ValidationError
	require.ErrorAs(t, result.Errors[0], &ve)
	assert.Contains(t, ve.Reason, "already holds a live purchase order")
}

func TestValidateInactiveSupplier(t *testing.T) {
	ctx := context.Background()
	active := supplierRecord(1, "ALPHA", model.ProductTypeLMR, 100, 0, nil)
	gone := supplierRecord(2, "BRAVO", model.ProductTypeLMR, 100, 0, nil)
	gone.Supplier.IsActive = false
	l, _ := ledgerFor(active, gone)
	dir := &memDirectory{records: []SupplierRecord{active, gone}}

	order := testOrder(1, model.ProductTypeLMR, 100)
	plan := planFor(order, map[uint]int64{1: 50, 2: 50})

	result := newValidator(l, dir, nil).Validate(ctx, order, plan)
	require.False(t, result.IsValid)
	var ise *InactiveSupplierError
	require.ErrorAs(t, result.Errors[0], &ise)
	assert.EqualValues(t, 2, ise.SupplierID)
}

func TestValidateWarnsNearCapacity(t *testing.T) {
	ctx := context.Background()
	records := []SupplierRecord{
		supplierRecord(1, "ALPHA", model.ProductTypeLMR, 100, 0, nil),
	}
	l, _ := ledgerFor(records...)
	dir := &memDirectory{records: records}

	// 95 of 100 is above the 90% warning line but still commits.
	order := testOrder(1, model.ProductTypeLMR, 95)
	plan := planFor(order, map[uint]int64{1: 95})

	result := newValidator(l, dir, nil).Validate(ctx, order, plan)
	assert.True(t, result.IsValid)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "95%")
}

func TestValidateItemBreakdownMismatch(t *testing.T) {
	ctx := context.Background()
	records := []SupplierRecord{
		supplierRecord(1, "ALPHA", model.ProductTypeLMR, 100, 0, nil),
	}
	l, _ := ledgerFor(records...)
	dir := &memDirectory{records: records}

	order := testOrder(1, model.ProductTypeLMR, 50)
	plan := planFor(order, map[uint]int64{1: 50})
	plan.Allocations[0].Items[0].Quantity = 40 // breakdown no longer sums

	result := newValidator(l, dir, nil).Validate(ctx, order, plan)
	assert.False(t, result.IsValid)
}

func TestValidateUnknownOrderItem(t *testing.T) {
	ctx := context.Background()
	records := []SupplierRecord{
		supplierRecord(1, "ALPHA", model.ProductTypeLMR, 100, 0, nil),
	}
	l, _ := ledgerFor(records...)
	dir := &memDirectory{records: records}

	order := testOrder(1, model.ProductTypeLMR, 50)
	plan := planFor(order, map[uint]int64{1: 50})
	plan.Allocations[0].Items[0].OrderItemID = 999

	result := newValidator(l, dir, nil).Validate(ctx, order, plan)
	assert.False(t, result.IsValid)
}

func TestValidateEmptyPlan(t *testing.T) {
	ctx := context.Background()
	l, _ := ledgerFor()
	dir := &memDirectory{}

	order := testOrder(1, model.ProductTypeLMR, 50)
	result := newValidator(l, dir, nil).Validate(ctx, order, &DistributionPlan{CustomerOrderID: 1})
	assert.False(t, result.IsValid)
}
