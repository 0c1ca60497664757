package planning

import (
	"context"
	"sort"

	"procurement-service/internal/model"
)

// Default eligibility thresholds, overridable through config.
const (
	DefaultMinOnTimeRate   = 0.8
	DefaultMinQualityScore = 3.0
)

// EligibilityFilter selects the suppliers a distribution may use: active,
// active capability for the product type, spare capacity, and performance at
// or above the thresholds. Suppliers without metrics pass the performance
// gate but rank last. The filter has no side effects.
type EligibilityFilter struct {
	directory       SupplierDirectory
	minOnTimeRate   float64
	minQualityScore float64
}

// NewEligibilityFilter builds a filter with the given thresholds; zero
// values fall back to the defaults.
func NewEligibilityFilter(directory SupplierDirectory, minOnTimeRate, minQualityScore float64) *EligibilityFilter {
	if minOnTimeRate <= 0 {
		minOnTimeRate = DefaultMinOnTimeRate
	}
	if minQualityScore <= 0 {
		minQualityScore = DefaultMinQualityScore
	}
	return &EligibilityFilter{
		directory:       directory,
		minOnTimeRate:   minOnTimeRate,
		minQualityScore: minQualityScore,
	}
}

// EligibleSuppliers returns qualifying suppliers ordered best-first:
// descending performance score, metrics-less suppliers last, ties broken by
// ascending supplier id. Returns *NotEligibleError when none qualify.
func (f *EligibilityFilter) EligibleSuppliers(ctx context.Context, productType model.ProductType) ([]SupplierRecord, error) {
	records, err := f.directory.ActiveSuppliers(ctx, productType)
	if err != nil {
		return nil, err
	}

	eligible := make([]SupplierRecord, 0, len(records))
	for _, r := range records {
		if !r.Supplier.IsActive || !r.Capability.IsActive {
			continue
		}
		if r.Capability.AvailableCapacity() <= 0 {
			continue
		}
		if r.Metrics != nil {
			if r.Metrics.OnTimeRate < f.minOnTimeRate || r.Metrics.QualityScore < f.minQualityScore {
				continue
			}
		}
		eligible = append(eligible, r)
	}
	if len(eligible) == 0 {
		return nil, &NotEligibleError{ProductType: productType}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		a, b := &eligible[i], &eligible[j]
		if (a.Metrics != nil) != (b.Metrics != nil) {
			return a.Metrics != nil
		}
		if sa, sb := a.PerformanceScore(), b.PerformanceScore(); sa != sb {
			return sa > sb
		}
		return a.Supplier.ID < b.Supplier.ID
	})
	return eligible, nil
}
