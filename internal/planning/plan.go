package planning

import (
	"procurement-service/internal/allocation"
	"procurement-service/internal/model"
)

// ItemAllocation assigns part of one order item to a supplier.
type ItemAllocation struct {
	OrderItemID uint   `json:"order_item_id"`
	ProductCode string `json:"product_code"`
	Quantity    int64  `json:"quantity"`
	Unit        string `json:"unit"`
}

// SupplierAllocation is one supplier's share of a distribution, with its
// per-item breakdown.
type SupplierAllocation struct {
	SupplierID uint             `json:"supplier_id"`
	Quantity   int64            `json:"quantity"`
	Items      []ItemAllocation `json:"items"`
}

// DistributionSuggestion is the engine's proposed split for an order. A
// suggestion may be partially unallocated; a plan committed from it may not.
type DistributionSuggestion struct {
	CustomerOrderID     uint                 `json:"customer_order_id"`
	ProductType         model.ProductType    `json:"product_type"`
	Strategy            allocation.Strategy  `json:"strategy"`
	Allocations         []SupplierAllocation `json:"allocations"`
	TotalRequested      int64                `json:"total_requested"`
	TotalAllocated      int64                `json:"total_allocated"`
	UnallocatedQuantity int64                `json:"unallocated_quantity"`
	IsFullyAllocated    bool                 `json:"is_fully_allocated"`
}

// Plan converts the suggestion into a committable plan.
func (s *DistributionSuggestion) Plan() *DistributionPlan {
	return &DistributionPlan{
		CustomerOrderID: s.CustomerOrderID,
		Strategy:        s.Strategy,
		Allocations:     s.Allocations,
	}
}

// DistributionPlan is what a planner commits: the (possibly hand-edited)
// allocation list for one customer order.
type DistributionPlan struct {
	CustomerOrderID uint                 `json:"customer_order_id"`
	Strategy        allocation.Strategy  `json:"strategy"`
	Allocations     []SupplierAllocation `json:"allocations"`
}

// TotalAllocated sums the planned supplier quantities.
func (p *DistributionPlan) TotalAllocated() int64 {
	var total int64
	for _, a := range p.Allocations {
		total += a.Quantity
	}
	return total
}

// ValidationResult aggregates validator findings. Warnings never block a
// commit.
type ValidationResult struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []error  `json:"-"`
	Warnings []string `json:"warnings,omitempty"`
}

// ErrorMessages renders the errors for transport.
func (r *ValidationResult) ErrorMessages() []string {
	msgs := make([]string, 0, len(r.Errors))
	for _, err := range r.Errors {
		msgs = append(msgs, err.Error())
	}
	return msgs
}
