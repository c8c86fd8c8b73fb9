package production

import (
	"fmt"
	"strings"
	"time"

	"github.com/batchline/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductionStatus represents the lifecycle status of a production batch
type ProductionStatus string

const (
	ProductionStatusPending    ProductionStatus = "Pending"
	ProductionStatusInProgress ProductionStatus = "In Progress"
	ProductionStatusCompleted  ProductionStatus = "Completed"
)

// IsValid checks if the status is a valid ProductionStatus
func (s ProductionStatus) IsValid() bool {
	switch s {
	case ProductionStatusPending, ProductionStatusInProgress, ProductionStatusCompleted:
		return true
	}
	return false
}

// String returns the string representation of ProductionStatus
func (s ProductionStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status.
// Completed is the only terminal state; a batch may complete directly from
// Pending without passing through In Progress.
func (s ProductionStatus) CanTransitionTo(target ProductionStatus) bool {
	switch s {
	case ProductionStatusPending:
		return target == ProductionStatusInProgress || target == ProductionStatusCompleted
	case ProductionStatusInProgress:
		return target == ProductionStatusCompleted
	case ProductionStatusCompleted:
		return false
	}
	return false
}

// IsTerminal returns true for statuses that allow no further transition
func (s ProductionStatus) IsTerminal() bool {
	return s == ProductionStatusCompleted
}

// ProductionItem is an ingredient allocation on a production batch. Its
// quantity is reserved in the stock ledger when the item is added.
type ProductionItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key"`
	BatchID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	IngredientName string          `gorm:"type:varchar(200);not null"`
	Quantity       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Unit           string          `gorm:"type:varchar(20);not null"`
	Note           string          `gorm:"type:varchar(500)"`
	CreatedAt      time.Time       `gorm:"not null"`
	UpdatedAt      time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductionItem) TableName() string {
	return "production_items"
}

// NewProductionItem creates a new production item
func NewProductionItem(batchID uuid.UUID, ingredientName string, quantity decimal.Decimal, unit, note string) (*ProductionItem, error) {
	ingredientName = strings.TrimSpace(ingredientName)
	unit = strings.TrimSpace(unit)
	if ingredientName == "" {
		return nil, shared.NewDomainError("INVALID_INGREDIENT", "Ingredient name cannot be empty")
	}
	if unit == "" {
		return nil, shared.NewDomainError("INVALID_UNIT", "Unit cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}

	now := time.Now()
	return &ProductionItem{
		ID:             uuid.New(),
		BatchID:        batchID,
		IngredientName: ingredientName,
		Quantity:       quantity,
		Unit:           unit,
		Note:           note,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// ProductionOutput describes what a completed batch produced
type ProductionOutput struct {
	ProductName    string
	OutputQuantity decimal.Decimal
	OutputUnit     string
}

// ProductionBatch is a numbered production run. Its items hold reservations
// in the stock ledger until the batch completes (converting them to
// deductions) or is deleted (releasing them).
type ProductionBatch struct {
	shared.TenantAggregateRoot
	BatchNumber    int              `gorm:"not null;uniqueIndex:idx_production_batch_tenant_number,priority:2"`
	DateCreated    time.Time        `gorm:"type:timestamptz;not null;index"`
	Status         ProductionStatus `gorm:"type:varchar(20);not null;default:'Pending';index"`
	Note           string           `gorm:"type:varchar(500)"`
	ProductName    *string          `gorm:"type:varchar(200)"` // Output descriptor, set on completion only
	OutputQuantity *decimal.Decimal `gorm:"type:decimal(18,4)"`
	OutputUnit     *string          `gorm:"type:varchar(20)"`
	CompletedAt    *time.Time
	Items          []ProductionItem `gorm:"foreignKey:BatchID;references:ID"`
}

// TableName returns the table name for GORM
func (ProductionBatch) TableName() string {
	return "production_batches"
}

// NewProductionBatch creates a new production batch with the given number.
// Status defaults to Pending; a caller-specified initial status must be valid
// and non-terminal.
func NewProductionBatch(tenantID uuid.UUID, batchNumber int, dateCreated time.Time, status ProductionStatus, note string) (*ProductionBatch, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if batchNumber <= 0 {
		return nil, shared.NewDomainError("INVALID_BATCH_NUMBER", "Batch number must be positive")
	}
	if status == "" {
		status = ProductionStatusPending
	}
	if !status.IsValid() {
		return nil, shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Invalid production status: %s", status))
	}
	if status.IsTerminal() {
		return nil, shared.NewDomainError("INVALID_STATUS", "A batch cannot be created in Completed status")
	}
	if dateCreated.IsZero() {
		dateCreated = time.Now()
	}

	batch := &ProductionBatch{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		BatchNumber:         batchNumber,
		DateCreated:         dateCreated,
		Status:              status,
		Note:                note,
		Items:               make([]ProductionItem, 0),
	}

	batch.AddDomainEvent(NewProductionBatchCreatedEvent(batch))

	return batch, nil
}

// BatchRef returns the ledger batch reference for this batch ("PB-<number>")
func (b *ProductionBatch) BatchRef() string {
	return fmt.Sprintf("PB-%d", b.BatchNumber)
}

// IsCompleted returns true if the batch has reached its terminal status
func (b *ProductionBatch) IsCompleted() bool {
	return b.Status == ProductionStatusCompleted
}

// AddItem appends an ingredient allocation. Not allowed once completed:
// the batch's reservations have already been converted to deductions.
func (b *ProductionBatch) AddItem(ingredientName string, quantity decimal.Decimal, unit, note string) (*ProductionItem, error) {
	if b.IsCompleted() {
		return nil, shared.NewDomainError("BATCH_COMPLETED", "Cannot add items to a completed batch")
	}

	item, err := NewProductionItem(b.ID, ingredientName, quantity, unit, note)
	if err != nil {
		return nil, err
	}

	b.Items = append(b.Items, *item)
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	return item, nil
}

// UpdateStatus transitions the batch to a new status. Completion stamps the
// optional output descriptor and CompletedAt; the caller is responsible for
// converting the batch's reservations in the same transaction.
func (b *ProductionBatch) UpdateStatus(newStatus ProductionStatus, output *ProductionOutput) error {
	if !newStatus.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Invalid production status: %s", newStatus))
	}
	if !b.Status.CanTransitionTo(newStatus) {
		return shared.NewDomainError("INVALID_STATE_TRANSITION",
			fmt.Sprintf("Cannot transition from %s to %s", b.Status, newStatus))
	}

	oldStatus := b.Status
	b.Status = newStatus
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	if newStatus == ProductionStatusCompleted {
		now := time.Now()
		b.CompletedAt = &now
		if output != nil {
			if output.ProductName != "" {
				name := output.ProductName
				b.ProductName = &name
			}
			if output.OutputQuantity.GreaterThan(decimal.Zero) {
				qty := output.OutputQuantity
				b.OutputQuantity = &qty
			}
			if output.OutputUnit != "" {
				unit := output.OutputUnit
				b.OutputUnit = &unit
			}
		}
		b.AddDomainEvent(NewProductionBatchCompletedEvent(b))
	}

	b.AddDomainEvent(NewProductionBatchStatusChangedEvent(b, oldStatus, newStatus))

	return nil
}

// TotalReservedQuantityByIngredient aggregates item quantities per
// (ingredient, unit) key, the shape the ledger operates on.
func (b *ProductionBatch) TotalReservedQuantityByIngredient() map[IngredientKey]decimal.Decimal {
	totals := make(map[IngredientKey]decimal.Decimal)
	for _, item := range b.Items {
		key := IngredientKey{Name: item.IngredientName, Unit: item.Unit}
		totals[key] = totals[key].Add(item.Quantity)
	}
	return totals
}

// IngredientKey identifies a stock ledger record
type IngredientKey struct {
	Name string
	Unit string
}
