package planning

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"procurement-service/internal/allocation"
	"procurement-service/internal/model"
)

// Planner produces distribution suggestions: eligibility filtering, the
// water-filling split, and the per-item breakdown that purchase orders are
// later built from.
type Planner struct {
	filter    *EligibilityFilter
	allocator *allocation.Allocator
	orders    OrderStore
	log       *zap.Logger
}

// NewPlanner wires a Planner from its collaborators.
func NewPlanner(filter *EligibilityFilter, allocator *allocation.Allocator, orders OrderStore, log *zap.Logger) *Planner {
	return &Planner{filter: filter, allocator: allocator, orders: orders, log: log}
}

// Suggest computes a distribution suggestion for the whole order. The order
// must be in planning; the suggestion itself changes nothing.
func (p *Planner) Suggest(ctx context.Context, orderID uint, strategy allocation.Strategy) (*DistributionSuggestion, error) {
	order, err := p.orders.OrderWithItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != model.OrderPlanningInProgress {
		return nil, &ValidationError{Field: "status",
			Reason: "distribution can only be suggested while planning is in progress, order is " + string(order.Status)}
	}

	demands := make([]itemDemand, 0, len(order.Items))
	for _, item := range order.Items {
		demands = append(demands, itemDemand{item: item, needed: item.Quantity})
	}
	return p.suggest(ctx, order, demands, strategy, nil)
}

// Replan computes a supplemental suggestion covering only the quantities not
// carried by any live purchase order, which is how rejected quantities get
// re-covered. Suppliers still holding a live purchase order for the order
// are left out of the split, since each supplier carries at most one live
// purchase order per order. The order keeps its current status; committing
// the result creates additional purchase orders alongside the surviving
// ones.
func (p *Planner) Replan(ctx context.Context, orderID uint, strategy allocation.Strategy) (*DistributionSuggestion, error) {
	order, err := p.orders.OrderWithItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	switch order.Status {
	case model.OrderPurchaseOrdersCreated, model.OrderAwaitingConfirmation:
	default:
		return nil, &ValidationError{Field: "status",
			Reason: "re-planning requires open purchase orders, order is " + string(order.Status)}
	}

	pos, err := p.orders.PurchaseOrdersForOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	covered, liveHolders := liveCoverage(pos)

	demands := make([]itemDemand, 0, len(order.Items))
	var uncovered int64
	for _, item := range order.Items {
		remaining := item.Quantity - covered[item.ID]
		if remaining < 0 {
			remaining = 0
		}
		if remaining > 0 {
			demands = append(demands, itemDemand{item: item, needed: remaining})
			uncovered += remaining
		}
	}
	if uncovered == 0 {
		return nil, &ValidationError{Reason: "order is fully covered by live purchase orders, nothing to re-plan"}
	}

	p.log.Info("re-planning uncovered quantity",
		zap.Uint("order_id", orderID),
		zap.Int64("uncovered", uncovered))
	return p.suggest(ctx, order, demands, strategy, liveHolders)
}

type itemDemand struct {
	item   model.OrderItem
	needed int64
}

// liveCoverage sums the allocated quantity per order item across purchase
// orders that still hold their reservation, and reports which suppliers
// hold them. Rejected and cancelled purchase orders count for neither.
func liveCoverage(pos []model.PurchaseOrder) (map[uint]int64, map[uint]bool) {
	covered := make(map[uint]int64)
	holders := make(map[uint]bool)
	for _, po := range pos {
		if po.Status == model.PORejected || po.Status == model.POCancelled {
			continue
		}
		holders[po.SupplierID] = true
		for _, item := range po.Items {
			covered[item.OrderItemID] += item.AllocatedQuantity
		}
	}
	return covered, holders
}

func (p *Planner) suggest(ctx context.Context, order *model.CustomerOrder, demands []itemDemand, strategy allocation.Strategy, exclude map[uint]bool) (*DistributionSuggestion, error) {
	var total int64
	for _, d := range demands {
		total += d.needed
	}
	if total <= 0 {
		return nil, &ValidationError{Field: "items", Reason: "order has no quantity to distribute"}
	}

	records, err := p.filter.EligibleSuppliers(ctx, order.ProductType)
	if err != nil {
		return nil, err
	}

	candidates := make([]allocation.Candidate, 0, len(records))
	for _, r := range records {
		if exclude[r.Supplier.ID] {
			continue
		}
		candidates = append(candidates, allocation.Candidate{
			SupplierID:        r.Supplier.ID,
			AvailableCapacity: r.Capability.AvailableCapacity(),
			PerformanceScore:  r.PerformanceScore(),
			HasMetrics:        r.Metrics != nil,
		})
	}
	if len(candidates) == 0 {
		return nil, &NotEligibleError{ProductType: order.ProductType}
	}

	split, err := p.allocator.Distribute(candidates, total, strategy)
	if err != nil {
		return nil, err
	}

	suggestion := &DistributionSuggestion{
		CustomerOrderID:     order.ID,
		ProductType:         order.ProductType,
		Strategy:            split.Strategy,
		Allocations:         breakdown(split.Allocations, demands),
		TotalRequested:      split.TotalRequested,
		TotalAllocated:      split.TotalAllocated,
		UnallocatedQuantity: split.UnallocatedQuantity,
		IsFullyAllocated:    split.IsFullyAllocated,
	}
	p.log.Info("distribution suggested",
		zap.Uint("order_id", order.ID),
		zap.String("strategy", string(split.Strategy)),
		zap.Int("suppliers", len(suggestion.Allocations)),
		zap.Int64("unallocated", split.UnallocatedQuantity))
	return suggestion, nil
}

// breakdown spreads per-supplier quantities over the order items. Suppliers
// are walked in ascending id and items in order-item order, so the split is
// deterministic and every item's portions sum to what was allocated for it.
func breakdown(allocs []allocation.Allocation, demands []itemDemand) []SupplierAllocation {
	sorted := make([]allocation.Allocation, len(allocs))
	copy(sorted, allocs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].SupplierID < sorted[j].SupplierID })

	remaining := make([]int64, len(demands))
	for i, d := range demands {
		remaining[i] = d.needed
	}

	result := make([]SupplierAllocation, 0, len(sorted))
	cursor := 0
	for _, a := range sorted {
		sa := SupplierAllocation{SupplierID: a.SupplierID, Quantity: a.Quantity}
		left := a.Quantity
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
		result = append(result, sa)
	}
	return result
}
