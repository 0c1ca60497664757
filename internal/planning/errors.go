package planning

import (
	"fmt"
	"strings"

	"procurement-service/internal/model"
)

// ValidationError reports a malformed request or plan field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NotEligibleError is returned when no supplier qualifies for a product
// type. Callers surface it; they must not silently retry.
type NotEligibleError struct {
	ProductType model.ProductType
}

func (e *NotEligibleError) Error() string {
	return fmt.Sprintf("no eligible supplier for product type %s", e.ProductType)
}

// InactiveSupplierError reports an allocation against a supplier or
// capability that is no longer active.
type InactiveSupplierError struct {
	SupplierID uint
}

func (e *InactiveSupplierError) Error() string {
	return fmt.Sprintf("supplier %d is not active for this product type", e.SupplierID)
}

// QuantityMismatchError reports a violated conservation law: a committed
// plan must allocate exactly the open quantity, the ordered units not
// already carried by live purchase orders.
type QuantityMismatchError struct {
	Open      int64
	Allocated int64
}

func (e *QuantityMismatchError) Error() string {
	return fmt.Sprintf("plan allocates %d of %d open units", e.Allocated, e.Open)
}

// NotFoundError reports a missing order-family entity.
type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// PlanInvalidError wraps a failed validation so the factory can refuse a
// commit with the full error list attached.
type PlanInvalidError struct {
	Result *ValidationResult
}

func (e *PlanInvalidError) Error() string {
	msgs := make([]string, 0, len(e.Result.Errors))
	for _, err := range e.Result.Errors {
		msgs = append(msgs, err.Error())
	}
	return "distribution plan is invalid: " + strings.Join(msgs, "; ")
}
