package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurement-service/internal/model"
)

var allOrderStatuses = []model.OrderStatus{
	model.OrderSubmitted,
	model.OrderUnderReview,
	model.OrderPlanningInProgress,
	model.OrderPurchaseOrdersCreated,
	model.OrderAwaitingConfirmation,
	model.OrderInProduction,
	model.OrderReadyForDelivery,
	model.OrderDelivered,
	model.OrderCancelled,
}

var allPOStatuses = []model.PurchaseOrderStatus{
	model.POCreated,
	model.POSentToSupplier,
	model.POConfirmed,
	model.PORejected,
	model.POInProduction,
	model.POReadyForShipment,
	model.POShipped,
	model.PODelivered,
	model.POCancelled,
}

func TestCustomerOrderHappyPath(t *testing.T) {
	path := allOrderStatuses[:8] // Submitted .. Delivered
	for i := 0; i < len(path)-1; i++ {
		require.NoError(t, CustomerOrder.Transition(path[i], path[i+1]),
			"%s -> %s must be allowed", path[i], path[i+1])
	}
}

func TestCustomerOrderCancellable(t *testing.T) {
	for _, from := range allOrderStatuses {
		ok := CustomerOrder.CanTransition(from, model.OrderCancelled)
		if from == model.OrderDelivered || from == model.OrderCancelled {
			assert.False(t, ok, "cancel must not be allowed from %s", from)
		} else {
			assert.True(t, ok, "cancel must be allowed from %s", from)
		}
	}
}

// Every pair not explicitly listed in the table must be rejected. The
// allowed set is rebuilt here independently of the table so a table edit
// that loosens the rules fails the test.
func TestCustomerOrderRejectsUnlistedPairs(t *testing.T) {
	allowed := map[[2]model.OrderStatus]bool{}
	for i := 0; i < 7; i++ {
		allowed[[2]model.OrderStatus{allOrderStatuses[i], allOrderStatuses[i+1]}] = true
	}
	for _, from := range allOrderStatuses {
		if from == model.OrderDelivered || from == model.OrderCancelled {
			continue
		}
		allowed[[2]model.OrderStatus{from, model.OrderCancelled}] = true
	}

	for _, from := range allOrderStatuses {
		for _, to := range allOrderStatuses {
			err := CustomerOrder.Transition(from, to)
			if allowed[[2]model.OrderStatus{from, to}] {
				assert.NoError(t, err, "%s -> %s", from, to)
			} else {
				assert.Error(t, err, "%s -> %s must be rejected", from, to)
			}
		}
	}
}

func TestPurchaseOrderRejectsUnlistedPairs(t *testing.T) {
	allowed := map[[2]model.PurchaseOrderStatus]bool{
		{model.POCreated, model.POSentToSupplier}:        true,
		{model.POSentToSupplier, model.POConfirmed}:      true,
		{model.POSentToSupplier, model.PORejected}:       true,
		{model.POConfirmed, model.POInProduction}:        true,
		{model.POInProduction, model.POReadyForShipment}: true,
		{model.POReadyForShipment, model.POShipped}:      true,
		{model.POShipped, model.PODelivered}:             true,
	}
	for _, from := range allPOStatuses {
		if from == model.PODelivered || from == model.POCancelled || from == model.PORejected {
			continue
		}
		allowed[[2]model.PurchaseOrderStatus{from, model.POCancelled}] = true
	}

	for _, from := range allPOStatuses {
		for _, to := range allPOStatuses {
			err := PurchaseOrder.Transition(from, to)
			if allowed[[2]model.PurchaseOrderStatus{from, to}] {
				assert.NoError(t, err, "%s -> %s", from, to)
			} else {
				assert.Error(t, err, "%s -> %s must be rejected", from, to)
			}
		}
	}
}

func TestRejectedIsTerminal(t *testing.T) {
	for _, to := range allPOStatuses {
		assert.False(t, PurchaseOrder.CanTransition(model.PORejected, to),
			"REJECTED -> %s must be rejected", to)
	}
}

func TestInvalidTransitionErrorDetail(t *testing.T) {
	err := PurchaseOrder.Transition(model.POCreated, model.PODelivered)
	require.Error(t, err)
	var ite *InvalidTransitionError
	require.ErrorAs(t, err, &ite)
	assert.Equal(t, "purchase_order", ite.Entity)
	assert.Equal(t, string(model.POCreated), ite.From)
	assert.Equal(t, string(model.PODelivered), ite.To)
}

func TestStatesCoversWholeEnum(t *testing.T) {
	assert.ElementsMatch(t, allOrderStatuses, CustomerOrder.States())
	assert.ElementsMatch(t, allPOStatuses, PurchaseOrder.States())
}
