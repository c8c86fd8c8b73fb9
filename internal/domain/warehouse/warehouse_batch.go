package warehouse

import (
	"strings"
	"time"

	"github.com/batchline/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WarehouseItem is a line item on an intake batch: one purchased ingredient
// with its quantity and cost.
type WarehouseItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key"`
	BatchID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	IngredientName string          `gorm:"type:varchar(200);not null"`
	Quantity       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Unit           string          `gorm:"type:varchar(20);not null"`
	CostPerUnit    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalCost      decimal.Decimal `gorm:"type:decimal(18,4);not null"` // Quantity * CostPerUnit
	CreatedAt      time.Time       `gorm:"not null"`
	UpdatedAt      time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (WarehouseItem) TableName() string {
	return "warehouse_items"
}

// NewWarehouseItem creates a new warehouse item
func NewWarehouseItem(batchID uuid.UUID, ingredientName string, quantity decimal.Decimal, unit string, costPerUnit decimal.Decimal) (*WarehouseItem, error) {
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
	if costPerUnit.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Cost per unit cannot be negative")
	}

	now := time.Now()
	return &WarehouseItem{
		ID:             uuid.New(),
		BatchID:        batchID,
		IngredientName: ingredientName,
		Quantity:       quantity,
		Unit:           unit,
		CostPerUnit:    costPerUnit,
		TotalCost:      quantity.Mul(costPerUnit),
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// WarehouseBatch is a dated intake event: a numbered grouping of purchased
// ingredients received into stock. A batch with no items is valid and inert.
type WarehouseBatch struct {
	shared.TenantAggregateRoot
	BatchNumber int             `gorm:"not null;uniqueIndex:idx_warehouse_batch_tenant_number,priority:2"`
	DateAdded   time.Time       `gorm:"type:timestamptz;not null;index"`
	Note        string          `gorm:"type:varchar(500)"`
	Items       []WarehouseItem `gorm:"foreignKey:BatchID;references:ID"`
}

// TableName returns the table name for GORM
func (WarehouseBatch) TableName() string {
	return "warehouse_batches"
}

// NewWarehouseBatch creates a new warehouse batch with the given number.
// Numbers are allocated per tenant by the repository and are never reused,
// even after a batch is deleted.
func NewWarehouseBatch(tenantID uuid.UUID, batchNumber int, dateAdded time.Time, note string) (*WarehouseBatch, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if batchNumber <= 0 {
		return nil, shared.NewDomainError("INVALID_BATCH_NUMBER", "Batch number must be positive")
	}
	if dateAdded.IsZero() {
		dateAdded = time.Now()
	}

	batch := &WarehouseBatch{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		BatchNumber:         batchNumber,
		DateAdded:           dateAdded,
		Note:                note,
		Items:               make([]WarehouseItem, 0),
	}

	batch.AddDomainEvent(NewWarehouseBatchCreatedEvent(batch))

	return batch, nil
}

// AddItem appends a line item to the batch
func (b *WarehouseBatch) AddItem(ingredientName string, quantity decimal.Decimal, unit string, costPerUnit decimal.Decimal) (*WarehouseItem, error) {
	item, err := NewWarehouseItem(b.ID, ingredientName, quantity, unit, costPerUnit)
	if err != nil {
		return nil, err
	}

	b.Items = append(b.Items, *item)
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	return item, nil
}

// TotalValue returns the summed cost of all items on the batch
func (b *WarehouseBatch) TotalValue() decimal.Decimal {
	total := decimal.Zero
	for _, item := range b.Items {
		total = total.Add(item.TotalCost)
	}
	return total
}

// ItemCount returns the number of line items on the batch
func (b *WarehouseBatch) ItemCount() int {
	return len(b.Items)
}

// SetNote updates the batch note
func (b *WarehouseBatch) SetNote(note string) {
	b.Note = note
	b.UpdatedAt = time.Now()
}
