package event

import (
	"github.com/batchline/backend/internal/domain/ledger"
	"github.com/batchline/backend/internal/domain/production"
	"github.com/batchline/backend/internal/domain/warehouse"
)

// RegisterAllEvents registers all domain event types with the serializer
// This is required for the OutboxProcessor to deserialize events from the outbox table
func RegisterAllEvents(serializer Serializer) {
	// Ledger domain events
	serializer.Register("StockRecordCreated", &ledger.StockRecordCreatedEvent{})
	serializer.Register("StockAdded", &ledger.StockAddedEvent{})
	serializer.Register("StockDeducted", &ledger.StockDeductedEvent{})
	serializer.Register("StockReserved", &ledger.StockReservedEvent{})
	serializer.Register("StockUnreserved", &ledger.StockUnreservedEvent{})
	serializer.Register("LowStockDetected", &ledger.LowStockDetectedEvent{})

	// Warehouse domain events
	serializer.Register("WarehouseBatchCreated", &warehouse.WarehouseBatchCreatedEvent{})
	serializer.Register("WarehouseItemsAdded", &warehouse.WarehouseItemsAddedEvent{})
	serializer.Register("WarehouseBatchDeleted", &warehouse.WarehouseBatchDeletedEvent{})

	// Production domain events
	serializer.Register("ProductionBatchCreated", &production.ProductionBatchCreatedEvent{})
	serializer.Register("ProductionItemsAdded", &production.ProductionItemsAddedEvent{})
	serializer.Register("ProductionBatchStatusChanged", &production.ProductionBatchStatusChangedEvent{})
	serializer.Register("ProductionBatchCompleted", &production.ProductionBatchCompletedEvent{})
	serializer.Register("ProductionBatchDeleted", &production.ProductionBatchDeletedEvent{})
}
