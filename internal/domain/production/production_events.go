package production

import (
	"github.com/batchline/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeProductionBatch = "ProductionBatch"

// Event type constants
const (
	EventTypeProductionBatchCreated       = "ProductionBatchCreated"
	EventTypeProductionItemsAdded         = "ProductionItemsAdded"
	EventTypeProductionBatchStatusChanged = "ProductionBatchStatusChanged"
	EventTypeProductionBatchCompleted     = "ProductionBatchCompleted"
	EventTypeProductionBatchDeleted       = "ProductionBatchDeleted"
)

// ProductionBatchCreatedEvent is raised when a production batch is created
type ProductionBatchCreatedEvent struct {
	shared.BaseDomainEvent
	BatchID     uuid.UUID `json:"batch_id"`
	BatchNumber int       `json:"batch_number"`
	Status      string    `json:"status"`
}

// NewProductionBatchCreatedEvent creates a new ProductionBatchCreatedEvent
func NewProductionBatchCreatedEvent(batch *ProductionBatch) *ProductionBatchCreatedEvent {
	return &ProductionBatchCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductionBatchCreated, AggregateTypeProductionBatch, batch.ID, batch.TenantID),
		BatchID:         batch.ID,
		BatchNumber:     batch.BatchNumber,
		Status:          batch.Status.String(),
	}
}

// EventType returns the event type name
func (e *ProductionBatchCreatedEvent) EventType() string {
	return EventTypeProductionBatchCreated
}

// ProductionItemsAddedEvent is raised when ingredient allocations are added
// and their quantities reserved in the ledger
type ProductionItemsAddedEvent struct {
	shared.BaseDomainEvent
	BatchID     uuid.UUID `json:"batch_id"`
	BatchNumber int       `json:"batch_number"`
	ItemCount   int       `json:"item_count"`
}

// NewProductionItemsAddedEvent creates a new ProductionItemsAddedEvent
func NewProductionItemsAddedEvent(batch *ProductionBatch, itemCount int) *ProductionItemsAddedEvent {
	return &ProductionItemsAddedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductionItemsAdded, AggregateTypeProductionBatch, batch.ID, batch.TenantID),
		BatchID:         batch.ID,
		BatchNumber:     batch.BatchNumber,
		ItemCount:       itemCount,
	}
}

// EventType returns the event type name
func (e *ProductionItemsAddedEvent) EventType() string {
	return EventTypeProductionItemsAdded
}

// ProductionBatchStatusChangedEvent is raised on every status transition
type ProductionBatchStatusChangedEvent struct {
	shared.BaseDomainEvent
	BatchID     uuid.UUID `json:"batch_id"`
	BatchNumber int       `json:"batch_number"`
	OldStatus   string    `json:"old_status"`
	NewStatus   string    `json:"new_status"`
}

// NewProductionBatchStatusChangedEvent creates a new ProductionBatchStatusChangedEvent
func NewProductionBatchStatusChangedEvent(batch *ProductionBatch, oldStatus, newStatus ProductionStatus) *ProductionBatchStatusChangedEvent {
	return &ProductionBatchStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductionBatchStatusChanged, AggregateTypeProductionBatch, batch.ID, batch.TenantID),
		BatchID:         batch.ID,
		BatchNumber:     batch.BatchNumber,
		OldStatus:       oldStatus.String(),
		NewStatus:       newStatus.String(),
	}
}

// EventType returns the event type name
func (e *ProductionBatchStatusChangedEvent) EventType() string {
	return EventTypeProductionBatchStatusChanged
}

// ProductionBatchCompletedEvent is raised when a batch reaches Completed and
// its reservations are converted into permanent deductions
type ProductionBatchCompletedEvent struct {
	shared.BaseDomainEvent
	BatchID        uuid.UUID        `json:"batch_id"`
	BatchNumber    int              `json:"batch_number"`
	ProductName    string           `json:"product_name,omitempty"`
	OutputQuantity *decimal.Decimal `json:"output_quantity,omitempty"`
	OutputUnit     string           `json:"output_unit,omitempty"`
}

// NewProductionBatchCompletedEvent creates a new ProductionBatchCompletedEvent
func NewProductionBatchCompletedEvent(batch *ProductionBatch) *ProductionBatchCompletedEvent {
	e := &ProductionBatchCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductionBatchCompleted, AggregateTypeProductionBatch, batch.ID, batch.TenantID),
		BatchID:         batch.ID,
		BatchNumber:     batch.BatchNumber,
		OutputQuantity:  batch.OutputQuantity,
	}
	if batch.ProductName != nil {
		e.ProductName = *batch.ProductName
	}
	if batch.OutputUnit != nil {
		e.OutputUnit = *batch.OutputUnit
	}
	return e
}

// EventType returns the event type name
func (e *ProductionBatchCompletedEvent) EventType() string {
	return EventTypeProductionBatchCompleted
}

// ProductionBatchDeletedEvent is raised when a batch is removed. For
// non-completed batches the reservations were released; for completed
// batches the deductions stay final.
type ProductionBatchDeletedEvent struct {
	shared.BaseDomainEvent
	BatchID              uuid.UUID `json:"batch_id"`
	BatchNumber          int       `json:"batch_number"`
	ReservationsReleased bool      `json:"reservations_released"`
}

// NewProductionBatchDeletedEvent creates a new ProductionBatchDeletedEvent
func NewProductionBatchDeletedEvent(batch *ProductionBatch, reservationsReleased bool) *ProductionBatchDeletedEvent {
	return &ProductionBatchDeletedEvent{
		BaseDomainEvent:      shared.NewBaseDomainEvent(EventTypeProductionBatchDeleted, AggregateTypeProductionBatch, batch.ID, batch.TenantID),
		BatchID:              batch.ID,
		BatchNumber:          batch.BatchNumber,
		ReservationsReleased: reservationsReleased,
	}
}

// EventType returns the event type name
func (e *ProductionBatchDeletedEvent) EventType() string {
	return EventTypeProductionBatchDeleted
}
