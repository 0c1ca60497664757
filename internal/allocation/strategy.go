// Package allocation implements the capacity-constrained water-filling
// procedure that splits a requested quantity across eligible suppliers. The
// package is pure: it never touches the ledger or any store, so the same
// inputs always produce the same split.
package allocation

import (
	"fmt"
	"math"
	"sort"
)

// Strategy selects the weighting used by the water-filling procedure.
type Strategy string

const (
	StrategyEven        Strategy = "EVEN"
	StrategyCapacity    Strategy = "CAPACITY"
	StrategyPerformance Strategy = "PERFORMANCE"
	StrategyBalanced    Strategy = "BALANCED"
)

// DefaultBalancedAlpha is the performance share of the Balanced blend.
const DefaultBalancedAlpha = 0.5

// ParseStrategy maps a request string to a Strategy, defaulting to Balanced
// for the empty string.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyEven, StrategyCapacity, StrategyPerformance, StrategyBalanced:
		return Strategy(s), nil
	case "":
		return StrategyBalanced, nil
	}
	return "", fmt.Errorf("unknown allocation strategy %q", s)
}

// Candidate is one eligible supplier as seen by the allocator.
type Candidate struct {
	SupplierID        uint
	AvailableCapacity int64
	PerformanceScore  float64
	HasMetrics        bool
}

// Allocation is the quantity assigned to one supplier.
type Allocation struct {
	SupplierID uint  `json:"supplier_id"`
	Quantity   int64 `json:"quantity"`
}

// Suggestion is the allocator's output. UnallocatedQuantity is reported, not
// dropped: the caller decides whether a short market is an error.
type Suggestion struct {
	Strategy            Strategy     `json:"strategy"`
	Allocations         []Allocation `json:"allocations"`
	TotalRequested      int64        `json:"total_requested"`
	TotalAllocated      int64        `json:"total_allocated"`
	UnallocatedQuantity int64        `json:"unallocated_quantity"`
	IsFullyAllocated    bool         `json:"is_fully_allocated"`
}

// Allocator runs the water-filling distribution. The only tunable is the
// Balanced blend's performance share.
type Allocator struct {
	alpha float64
}

// New returns an Allocator with the default Balanced blend.
func New() *Allocator {
	return &Allocator{alpha: DefaultBalancedAlpha}
}

// NewWithAlpha returns an Allocator with a custom performance share for the
// Balanced strategy. Values outside (0, 1) fall back to the default.
func NewWithAlpha(alpha float64) *Allocator {
	if alpha <= 0 || alpha >= 1 {
		alpha = DefaultBalancedAlpha
	}
	return &Allocator{alpha: alpha}
}

// candidate tracks mutable per-supplier state during one distribution run.
type candidate struct {
	Candidate
	allocated int64
	weight    float64
}

func (c *candidate) residualCapacity() int64 {
	return c.AvailableCapacity - c.allocated
}

// Distribute splits quantity across the candidates under the given
// strategy. Each round assigns floor(weight * remaining) per open supplier,
// clamps at residual capacity, closes full suppliers, and redistributes any
// clamped residual among the still-open set with freshly normalized weights.
// A round that clamps nobody carries only flooring loss, which is assigned
// one unit at a time in descending weight order, ties to the lower supplier
// id. Terminates in at most one round per supplier.
func (a *Allocator) Distribute(candidates []Candidate, quantity int64, strategy Strategy) (*Suggestion, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %d", quantity)
	}
	switch strategy {
	case StrategyEven, StrategyCapacity, StrategyPerformance, StrategyBalanced:
	default:
		return nil, fmt.Errorf("unknown allocation strategy %q", strategy)
	}

	open := make([]*candidate, 0, len(candidates))
	all := make([]*candidate, 0, len(candidates))
	for _, c := range candidates {
		cand := &candidate{Candidate: c}
		all = append(all, cand)
		if c.AvailableCapacity > 0 {
			open = append(open, cand)
		}
	}
	// Deterministic processing order regardless of caller ordering.
	sort.Slice(open, func(i, j int) bool { return open[i].SupplierID < open[j].SupplierID })

	remaining := quantity
	for remaining > 0 && len(open) > 0 {
		a.assignWeights(open, strategy)

		clamped := false
		var committed int64
		for _, c := range open {
			give := int64(math.Floor(c.weight * float64(remaining)))
			if resid := c.residualCapacity(); give >= resid {
				give = resid
				clamped = true
			}
			c.allocated += give
			committed += give
		}
		remaining -= committed
		open = closeFull(open)

		if remaining > 0 && len(open) > 0 && !clamped {
			// Pure flooring loss: hand out single units, best weight first.
			remaining = a.assignUnits(open, remaining)
			open = closeFull(open)
			break
		}
	}

	suggestion := &Suggestion{
		Strategy:            strategy,
		TotalRequested:      quantity,
		UnallocatedQuantity: remaining,
		IsFullyAllocated:    remaining == 0,
	}
	for _, c := range all {
		if c.allocated > 0 {
			suggestion.Allocations = append(suggestion.Allocations, Allocation{
				SupplierID: c.SupplierID,
				Quantity:   c.allocated,
			})
			suggestion.TotalAllocated += c.allocated
		}
	}
	sort.Slice(suggestion.Allocations, func(i, j int) bool {
		return suggestion.Allocations[i].SupplierID < suggestion.Allocations[j].SupplierID
	})
	return suggestion, nil
}

// assignWeights computes normalized weights over the open set. A degenerate
// weighting (all zero) falls back to even so the run still terminates with a
// deterministic split.
func (a *Allocator) assignWeights(open []*candidate, strategy Strategy) {
	var perfSum, capSum float64
	for _, c := range open {
		perfSum += c.PerformanceScore
		capSum += float64(c.residualCapacity())
	}

	var total float64
	for _, c := range open {
		switch strategy {
		case StrategyEven:
			c.weight = 1
		case StrategyCapacity:
			c.weight = float64(c.residualCapacity())
		case StrategyPerformance:
			c.weight = c.PerformanceScore
		case StrategyBalanced:
			var perf, capacity float64
			if perfSum > 0 {
				perf = c.PerformanceScore / perfSum
			}
			if capSum > 0 {
				capacity = float64(c.residualCapacity()) / capSum
			}
			c.weight = a.alpha*perf + (1-a.alpha)*capacity
		}
		total += c.weight
	}
	if total <= 0 {
		for _, c := range open {
			c.weight = 1
		}
		total = float64(len(open))
	}
	for _, c := range open {
		c.weight /= total
	}
}

// assignUnits distributes remaining one unit at a time in descending weight
// order, ties broken by ascending supplier id, skipping suppliers at
// capacity. Returns what could not be placed.
func (a *Allocator) assignUnits(open []*candidate, remaining int64) int64 {
	order := make([]*candidate, len(open))
	copy(order, open)
	sort.Slice(order, func(i, j int) bool {
		if order[i].weight != order[j].weight {
			return order[i].weight > order[j].weight
		}
		return order[i].SupplierID < order[j].SupplierID
	})

	for remaining > 0 {
		progressed := false
		for _, c := range order {
			if remaining == 0 {
				break
			}
			if c.residualCapacity() > 0 {
				c.allocated++
				remaining--
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}
	return remaining
}

func closeFull(open []*candidate) []*candidate {
	kept := open[:0]
	for _, c := range open {
		if c.residualCapacity() > 0 {
			kept = append(kept, c)
		}
	}
	return kept
}
