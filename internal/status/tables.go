package status

import "procurement-service/internal/model"

// customerOrderTable is the single linear path a customer order follows,
// with Cancelled reachable from everywhere except Delivered. No skips, no
// backward moves.
var customerOrderTable = map[model.OrderStatus][]model.OrderStatus{
	model.OrderSubmitted:             {model.OrderUnderReview, model.OrderCancelled},
	model.OrderUnderReview:           {model.OrderPlanningInProgress, model.OrderCancelled},
	model.OrderPlanningInProgress:    {model.OrderPurchaseOrdersCreated, model.OrderCancelled},
	model.OrderPurchaseOrdersCreated: {model.OrderAwaitingConfirmation, model.OrderCancelled},
	model.OrderAwaitingConfirmation:  {model.OrderInProduction, model.OrderCancelled},
	model.OrderInProduction:          {model.OrderReadyForDelivery, model.OrderCancelled},
	model.OrderReadyForDelivery:      {model.OrderDelivered, model.OrderCancelled},
	model.OrderDelivered:             {},
	model.OrderCancelled:             {},
}

// purchaseOrderTable branches at supplier response: SentToSupplier goes to
// Confirmed or Rejected, and only a confirmed order proceeds toward
// delivery. Cancelled reachable from everywhere except Delivered.
var purchaseOrderTable = map[model.PurchaseOrderStatus][]model.PurchaseOrderStatus{
	model.POCreated:          {model.POSentToSupplier, model.POCancelled},
	model.POSentToSupplier:   {model.POConfirmed, model.PORejected, model.POCancelled},
	model.POConfirmed:        {model.POInProduction, model.POCancelled},
	model.POInProduction:     {model.POReadyForShipment, model.POCancelled},
	model.POReadyForShipment: {model.POShipped, model.POCancelled},
	model.POShipped:          {model.PODelivered, model.POCancelled},
	model.PORejected:         {},
	model.PODelivered:        {},
	model.POCancelled:        {},
}

// CustomerOrder is the customer-order status machine.
var CustomerOrder = NewMachine("customer_order", customerOrderTable)

// PurchaseOrder is the purchase-order status machine.
var PurchaseOrder = NewMachine("purchase_order", purchaseOrderTable)
