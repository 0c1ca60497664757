package planning

import (
	"context"
	"fmt"

	"procurement-service/internal/ledger"
	"procurement-service/internal/model"
)

// nearCapacityThreshold is the post-commit utilization above which the
// validator warns without blocking.
const nearCapacityThreshold = 0.9

// DistributionValidator re-checks a plan against the live ledger just
// before commit. It validates shape (item references, per-supplier sums),
// supplier liveness, capacity, and the conservation law: a committed plan
// allocates exactly the quantity not already carried by live purchase
// orders, so a first commit covers the whole order and a supplemental
// commit after a rejection covers exactly the uncovered remainder.
type DistributionValidator struct {
	ledger    *ledger.Ledger
	directory SupplierDirectory
	orders    OrderStore
}

// NewDistributionValidator builds a validator over the live ledger, the
// supplier directory, and the order store it reads existing purchase
// orders from.
func NewDistributionValidator(l *ledger.Ledger, directory SupplierDirectory, orders OrderStore) *DistributionValidator {
	return &DistributionValidator{ledger: l, directory: directory, orders: orders}
}

// Validate checks plan against order, the order's live purchase orders,
// and the live ledger state. All findings are collected; the first error
// does not stop the scan.
func (v *DistributionValidator) Validate(ctx context.Context, order *model.CustomerOrder, plan *DistributionPlan) *ValidationResult {
	result := &ValidationResult{}

	if len(plan.Allocations) == 0 {
		result.Errors = append(result.Errors, &ValidationError{Field: "allocations", Reason: "plan has no allocations"})
		result.IsValid = false
		return result
	}

	active := make(map[uint]bool)
	if records, err := v.directory.ActiveSuppliers(ctx, order.ProductType); err == nil {
		for _, r := range records {
			active[r.Supplier.ID] = true
		}
	} else {
		result.Errors = append(result.Errors, err)
	}

	itemQuantity := make(map[uint]int64, len(order.Items))
	open := make(map[uint]int64, len(order.Items))
	for _, item := range order.Items {
		itemQuantity[item.ID] = item.Quantity
		open[item.ID] = item.Quantity
	}

	liveHolders := make(map[uint]bool)
	if pos, err := v.orders.PurchaseOrdersForOrder(ctx, order.ID); err != nil {
		result.Errors = append(result.Errors, err)
	} else {
		covered, holders := liveCoverage(pos)
		liveHolders = holders
		for itemID, qty := range covered {
			open[itemID] -= qty
			if open[itemID] < 0 {
				open[itemID] = 0
			}
		}
	}

	allocatedPerItem := make(map[uint]int64)

	seen := make(map[uint]bool)
	for _, sa := range plan.Allocations {
		if seen[sa.SupplierID] {
			result.Errors = append(result.Errors, &ValidationError{
				Field:  "allocations",
				Reason: fmt.Sprintf("supplier %d appears more than once", sa.SupplierID),
			})
			continue
		}
		seen[sa.SupplierID] = true

		if sa.Quantity <= 0 {
			result.Errors = append(result.Errors, &ValidationError{
				Field:  "allocations",
				Reason: fmt.Sprintf("supplier %d has non-positive quantity %d", sa.SupplierID, sa.Quantity),
			})
			continue
		}

		// At most one live purchase order per supplier per order; rejected
		// and cancelled ones free the slot for a re-plan.
		if liveHolders[sa.SupplierID] {
			result.Errors = append(result.Errors, &ValidationError{
				Field:  "allocations",
				Reason: fmt.Sprintf("supplier %d already holds a live purchase order for order %d", sa.SupplierID, order.ID),
			})
			continue
		}

		var itemSum int64
		for _, ia := range sa.Items {
			if _, ok := itemQuantity[ia.OrderItemID]; !ok {
				result.Errors = append(result.Errors, &ValidationError{
					Field:  "allocations",
					Reason: fmt.Sprintf("order item %d does not belong to order %d", ia.OrderItemID, order.ID),
				})
				continue
			}
			allocatedPerItem[ia.OrderItemID] += ia.Quantity
			itemSum += ia.Quantity
		}
		if itemSum != sa.Quantity {
			result.Errors = append(result.Errors, &ValidationError{
				Field:  "allocations",
				Reason: fmt.Sprintf("supplier %d item breakdown sums to %d, allocation says %d", sa.SupplierID, itemSum, sa.Quantity),
			})
		}

		if !active[sa.SupplierID] {
			result.Errors = append(result.Errors, &InactiveSupplierError{SupplierID: sa.SupplierID})
			continue
		}
		v.checkLedger(ctx, order.ProductType, &sa, result)
	}

	for itemID, allocated := range allocatedPerItem {
		if allocated > open[itemID] {
			result.Errors = append(result.Errors, &ValidationError{
				Field:  "allocations",
				Reason: fmt.Sprintf("order item %d over-allocated: %d against %d open", itemID, allocated, open[itemID]),
			})
		}
	}

	// Conservation: committed plans cover exactly the open quantity.
	var openTotal int64
	for _, item := range order.Items {
		openTotal += open[item.ID]
	}
	if allocated := plan.TotalAllocated(); allocated != openTotal {
		result.Errors = append(result.Errors, &QuantityMismatchError{Open: openTotal, Allocated: allocated})
	}

	result.IsValid = len(result.Errors) == 0
	return result
}

func (v *DistributionValidator) checkLedger(ctx context.Context, productType model.ProductType, sa *SupplierAllocation, result *ValidationResult) {
	capability, err := v.ledger.Entry(ctx, sa.SupplierID, productType)
	if err != nil {
		result.Errors = append(result.Errors, err)
		return
	}
	if !capability.IsActive {
		result.Errors = append(result.Errors, &InactiveSupplierError{SupplierID: sa.SupplierID})
		return
	}
	available := capability.AvailableCapacity()
	if sa.Quantity > available {
		result.Errors = append(result.Errors, &ledger.CapacityExceededError{
			SupplierID:  sa.SupplierID,
			ProductType: productType,
			Requested:   sa.Quantity,
			Available:   available,
		})
		return
	}
	if capability.MaxMonthlyCapacity > 0 {
		utilization := float64(capability.CurrentCommitments+sa.Quantity) / float64(capability.MaxMonthlyCapacity)
		if utilization > nearCapacityThreshold {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"supplier %d will be at %.0f%% of %s capacity after commit",
				sa.SupplierID, utilization*100, productType))
		}
	}
}
