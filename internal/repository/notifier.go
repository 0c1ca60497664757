package repository

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier is the planning.NotificationSink used until a real supplier
// channel (email, EDI) is wired; it records the event in the service log.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) NotifySupplierOfNewOrder(ctx context.Context, poID uint) error {
	n.log.Info("supplier notification queued",
		zap.String("event", "purchase_order_created"),
		zap.Uint("purchase_order_id", poID))
	return nil
}
