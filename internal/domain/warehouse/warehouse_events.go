package warehouse

import (
	"github.com/batchline/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeWarehouseBatch = "WarehouseBatch"

// Event type constants
const (
	EventTypeWarehouseBatchCreated = "WarehouseBatchCreated"
	EventTypeWarehouseItemsAdded   = "WarehouseItemsAdded"
	EventTypeWarehouseBatchDeleted = "WarehouseBatchDeleted"
)

// WarehouseBatchCreatedEvent is raised when an intake batch is created
type WarehouseBatchCreatedEvent struct {
	shared.BaseDomainEvent
	BatchID     uuid.UUID `json:"batch_id"`
	BatchNumber int       `json:"batch_number"`
}

// NewWarehouseBatchCreatedEvent creates a new WarehouseBatchCreatedEvent
func NewWarehouseBatchCreatedEvent(batch *WarehouseBatch) *WarehouseBatchCreatedEvent {
	return &WarehouseBatchCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeWarehouseBatchCreated, AggregateTypeWarehouseBatch, batch.ID, batch.TenantID),
		BatchID:         batch.ID,
		BatchNumber:     batch.BatchNumber,
	}
}

// EventType returns the event type name
func (e *WarehouseBatchCreatedEvent) EventType() string {
	return EventTypeWarehouseBatchCreated
}

// WarehouseItemsAddedEvent is raised when line items are posted to a batch
// along with their ledger additions
type WarehouseItemsAddedEvent struct {
	shared.BaseDomainEvent
	BatchID     uuid.UUID       `json:"batch_id"`
	BatchNumber int             `json:"batch_number"`
	ItemCount   int             `json:"item_count"`
	TotalValue  decimal.Decimal `json:"total_value"`
}

// NewWarehouseItemsAddedEvent creates a new WarehouseItemsAddedEvent
func NewWarehouseItemsAddedEvent(batch *WarehouseBatch, itemCount int) *WarehouseItemsAddedEvent {
	return &WarehouseItemsAddedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeWarehouseItemsAdded, AggregateTypeWarehouseBatch, batch.ID, batch.TenantID),
		BatchID:         batch.ID,
		BatchNumber:     batch.BatchNumber,
		ItemCount:       itemCount,
		TotalValue:      batch.TotalValue(),
	}
}

// EventType returns the event type name
func (e *WarehouseItemsAddedEvent) EventType() string {
	return EventTypeWarehouseItemsAdded
}

// WarehouseBatchDeletedEvent is raised when a batch's administrative record is
// removed. Ledger additions already posted for the batch are not reversed.
type WarehouseBatchDeletedEvent struct {
	shared.BaseDomainEvent
	BatchID     uuid.UUID `json:"batch_id"`
	BatchNumber int       `json:"batch_number"`
}

// NewWarehouseBatchDeletedEvent creates a new WarehouseBatchDeletedEvent
func NewWarehouseBatchDeletedEvent(batch *WarehouseBatch) *WarehouseBatchDeletedEvent {
	return &WarehouseBatchDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeWarehouseBatchDeleted, AggregateTypeWarehouseBatch, batch.ID, batch.TenantID),
		BatchID:         batch.ID,
		BatchNumber:     batch.BatchNumber,
	}
}

// EventType returns the event type name
func (e *WarehouseBatchDeletedEvent) EventType() string {
	return EventTypeWarehouseBatchDeleted
}
