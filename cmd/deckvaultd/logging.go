package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/deckvault/deckvault/pkg/collection"
)

type zapOperationLogger struct {
	logger *zap.Logger
}

func newZapOperationLogger(logger *zap.Logger) *zapOperationLogger {
	return &zapOperationLogger{logger: logger.Named("collection")}
}

func (adapter *zapOperationLogger) LogOperation(ctx context.Context, entry collection.OperationLog) {
	fields := []zap.Field{
		zap.String("operation", entry.Operation),
		zap.String("owner_id", entry.OwnerID.String()),
		zap.String("status", entry.Status),
	}
	if entry.DeckID != "" {
		fields = append(fields, zap.String("deck_id", entry.DeckID))
	}
	if entry.InventoryRowID != "" {
		fields = append(fields, zap.String("inventory_item_id", entry.InventoryRowID))
	}
	if entry.ReservationID != "" {
		fields = append(fields, zap.String("reservation_id", entry.ReservationID))
	}
	if entry.Quantity != 0 {
		fields = append(fields, zap.Int("quantity", entry.Quantity))
	}
	if entry.AmountCents != 0 {
		fields = append(fields, zap.Int64("amount_cents", entry.AmountCents.Int64()))
	}
	if entry.Error != nil {
		fields = append(fields, zap.Error(entry.Error))
		adapter.logger.Warn("operation failed", fields...)
		return
	}
	adapter.logger.Info("operation completed", fields...)
}
