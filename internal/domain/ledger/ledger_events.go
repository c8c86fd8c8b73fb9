package ledger

import (
	"github.com/batchline/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeStockRecord = "StockRecord"

// Event type constants
const (
	EventTypeStockRecordCreated = "StockRecordCreated"
	EventTypeStockAdded         = "StockAdded"
	EventTypeStockDeducted      = "StockDeducted"
	EventTypeStockReserved      = "StockReserved"
	EventTypeStockUnreserved    = "StockUnreserved"
	EventTypeLowStockDetected   = "LowStockDetected"
)

// StockRecordCreatedEvent is raised when a record is created for a new
// ingredient-unit combination
type StockRecordCreatedEvent struct {
	shared.BaseDomainEvent
	StockRecordID  uuid.UUID `json:"stock_record_id"`
	IngredientName string    `json:"ingredient_name"`
	Unit           string    `json:"unit"`
}

// NewStockRecordCreatedEvent creates a new StockRecordCreatedEvent
func NewStockRecordCreatedEvent(record *StockRecord) *StockRecordCreatedEvent {
	return &StockRecordCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockRecordCreated, AggregateTypeStockRecord, record.ID, record.TenantID),
		StockRecordID:   record.ID,
		IngredientName:  record.IngredientName,
		Unit:            record.Unit,
	}
}

// EventType returns the event type name
func (e *StockRecordCreatedEvent) EventType() string {
	return EventTypeStockRecordCreated
}

// StockAddedEvent is raised when on-hand stock increases
type StockAddedEvent struct {
	shared.BaseDomainEvent
	StockRecordID  uuid.UUID       `json:"stock_record_id"`
	IngredientName string          `json:"ingredient_name"`
	Unit           string          `json:"unit"`
	Quantity       decimal.Decimal `json:"quantity"`
	CurrentStock   decimal.Decimal `json:"current_stock"`
	Reason         string          `json:"reason"`
	BatchRef       string          `json:"batch_ref,omitempty"`
}

// NewStockAddedEvent creates a new StockAddedEvent
func NewStockAddedEvent(record *StockRecord, quantity decimal.Decimal, reason string, batchRef *string) *StockAddedEvent {
	ref := ""
	if batchRef != nil {
		ref = *batchRef
	}
	return &StockAddedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockAdded, AggregateTypeStockRecord, record.ID, record.TenantID),
		StockRecordID:   record.ID,
		IngredientName:  record.IngredientName,
		Unit:            record.Unit,
		Quantity:        quantity,
		CurrentStock:    record.CurrentStock,
		Reason:          reason,
		BatchRef:        ref,
	}
}

// EventType returns the event type name
func (e *StockAddedEvent) EventType() string {
	return EventTypeStockAdded
}

// StockDeductedEvent is raised when on-hand stock is permanently decreased
type StockDeductedEvent struct {
	shared.BaseDomainEvent
	StockRecordID  uuid.UUID       `json:"stock_record_id"`
	IngredientName string          `json:"ingredient_name"`
	Unit           string          `json:"unit"`
	Quantity       decimal.Decimal `json:"quantity"`
	CurrentStock   decimal.Decimal `json:"current_stock"`
	Reason         string          `json:"reason"`
}

// NewStockDeductedEvent creates a new StockDeductedEvent
func NewStockDeductedEvent(record *StockRecord, quantity decimal.Decimal, reason string) *StockDeductedEvent {
	return &StockDeductedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockDeducted, AggregateTypeStockRecord, record.ID, record.TenantID),
		StockRecordID:   record.ID,
		IngredientName:  record.IngredientName,
		Unit:            record.Unit,
		Quantity:        quantity,
		CurrentStock:    record.CurrentStock,
		Reason:          reason,
	}
}

// EventType returns the event type name
func (e *StockDeductedEvent) EventType() string {
	return EventTypeStockDeducted
}

// StockReservedEvent is raised when a soft hold is placed for a production batch
type StockReservedEvent struct {
	shared.BaseDomainEvent
	StockRecordID  uuid.UUID       `json:"stock_record_id"`
	IngredientName string          `json:"ingredient_name"`
	Unit           string          `json:"unit"`
	Quantity       decimal.Decimal `json:"quantity"`
	ReservedStock  decimal.Decimal `json:"reserved_stock"`
	BatchRef       string          `json:"batch_ref"`
}

// NewStockReservedEvent creates a new StockReservedEvent
func NewStockReservedEvent(record *StockRecord, quantity decimal.Decimal, batchRef string) *StockReservedEvent {
	return &StockReservedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockReserved, AggregateTypeStockRecord, record.ID, record.TenantID),
		StockRecordID:   record.ID,
		IngredientName:  record.IngredientName,
		Unit:            record.Unit,
		Quantity:        quantity,
		ReservedStock:   record.ReservedStock,
		BatchRef:        batchRef,
	}
}

// EventType returns the event type name
func (e *StockReservedEvent) EventType() string {
	return EventTypeStockReserved
}

// StockUnreservedEvent is raised when a soft hold is released
type StockUnreservedEvent struct {
	shared.BaseDomainEvent
	StockRecordID  uuid.UUID       `json:"stock_record_id"`
	IngredientName string          `json:"ingredient_name"`
	Unit           string          `json:"unit"`
	Quantity       decimal.Decimal `json:"quantity"`
	ReservedStock  decimal.Decimal `json:"reserved_stock"`
	BatchRef       string          `json:"batch_ref"`
}

// NewStockUnreservedEvent creates a new StockUnreservedEvent
func NewStockUnreservedEvent(record *StockRecord, quantity decimal.Decimal, batchRef string) *StockUnreservedEvent {
	return &StockUnreservedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockUnreserved, AggregateTypeStockRecord, record.ID, record.TenantID),
		StockRecordID:   record.ID,
		IngredientName:  record.IngredientName,
		Unit:            record.Unit,
		Quantity:        quantity,
		ReservedStock:   record.ReservedStock,
		BatchRef:        batchRef,
	}
}

// EventType returns the event type name
func (e *StockUnreservedEvent) EventType() string {
	return EventTypeStockUnreserved
}

// LowStockDetectedEvent is raised when a mutation leaves the on-hand quantity
// at or below the configured threshold
type LowStockDetectedEvent struct {
	shared.BaseDomainEvent
	StockRecordID     uuid.UUID       `json:"stock_record_id"`
	IngredientName    string          `json:"ingredient_name"`
	Unit              string          `json:"unit"`
	CurrentStock      decimal.Decimal `json:"current_stock"`
	LowStockThreshold decimal.Decimal `json:"low_stock_threshold"`
}

// NewLowStockDetectedEvent creates a new LowStockDetectedEvent
func NewLowStockDetectedEvent(record *StockRecord) *LowStockDetectedEvent {
	return &LowStockDetectedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeLowStockDetected, AggregateTypeStockRecord, record.ID, record.TenantID),
		StockRecordID:     record.ID,
		IngredientName:    record.IngredientName,
		Unit:              record.Unit,
		CurrentStock:      record.CurrentStock,
		LowStockThreshold: record.LowStockThreshold,
	}
}

// EventType returns the event type name
func (e *LowStockDetectedEvent) EventType() string {
	return EventTypeLowStockDetected
}
