package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/batchline/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultLowStockThreshold is applied when a record is created implicitly
// by a first stock addition.
var DefaultLowStockThreshold = decimal.NewFromInt(10)

// StockRecord tracks the on-hand and reserved quantity of a single ingredient.
// It is the aggregate root for all ledger operations.
// The composite identifier is IngredientName + Unit within a tenant.
type StockRecord struct {
	shared.TenantAggregateRoot
	IngredientName    string          `gorm:"type:varchar(200);not null;uniqueIndex:idx_stock_record_tenant_ingredient_unit,priority:2"`
	Unit              string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_stock_record_tenant_ingredient_unit,priority:3"`
	CurrentStock      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // On-hand quantity, reserved included
	ReservedStock     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // Soft holds for open production batches
	LowStockThreshold decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	LastUpdated       time.Time       `gorm:"type:timestamptz;not null"`
}

// TableName returns the table name for GORM
func (StockRecord) TableName() string {
	return "stock_records"
}

// NewStockRecord creates a new stock record for an ingredient-unit combination.
// The record starts empty with the default low-stock threshold.
func NewStockRecord(tenantID uuid.UUID, ingredientName, unit string) (*StockRecord, error) {
	ingredientName = strings.TrimSpace(ingredientName)
	unit = strings.TrimSpace(unit)
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if ingredientName == "" {
		return nil, shared.NewDomainError("INVALID_INGREDIENT", "Ingredient name cannot be empty")
	}
	if unit == "" {
		return nil, shared.NewDomainError("INVALID_UNIT", "Unit cannot be empty")
	}

	record := &StockRecord{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		IngredientName:      ingredientName,
		Unit:                unit,
		CurrentStock:        decimal.Zero,
		ReservedStock:       decimal.Zero,
		LowStockThreshold:   DefaultLowStockThreshold,
		LastUpdated:         time.Now(),
	}

	record.AddDomainEvent(NewStockRecordCreatedEvent(record))

	return record, nil
}

// AvailableStock returns the quantity eligible for new reservations or
// direct deduction: on-hand minus reserved. Never negative.
func (r *StockRecord) AvailableStock() decimal.Decimal {
	available := r.CurrentStock.Sub(r.ReservedStock)
	if available.IsNegative() {
		return decimal.Zero
	}
	return available
}

// AddStock increases the on-hand quantity.
func (r *StockRecord) AddStock(quantity decimal.Decimal, reason string, batchRef *string) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}

	r.CurrentStock = r.CurrentStock.Add(quantity)
	r.touch()

	r.AddDomainEvent(NewStockAddedEvent(r, quantity, reason, batchRef))
	r.checkLowStock()

	return nil
}

// DeductStock permanently decreases the on-hand quantity. Only the available
// portion (on-hand minus reserved) is eligible; reserved stock can never be
// consumed by a direct deduction.
func (r *StockRecord) DeductStock(quantity decimal.Decimal, reason string) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if r.AvailableStock().LessThan(quantity) {
		return shared.NewDomainError("INSUFFICIENT_STOCK",
			fmt.Sprintf("Insufficient available stock: requested %s, available %s", quantity.String(), r.AvailableStock().String()))
	}

	r.CurrentStock = r.CurrentStock.Sub(quantity)
	r.touch()

	r.AddDomainEvent(NewStockDeductedEvent(r, quantity, reason))
	r.checkLowStock()

	return nil
}

// ReserveStock places a soft hold against the on-hand quantity for a production
// batch. The reservation bound (reserved <= current) is the hard backstop:
// a reservation can never exceed the available quantity.
func (r *StockRecord) ReserveStock(quantity decimal.Decimal, batchRef string) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if r.AvailableStock().LessThan(quantity) {
		return shared.NewDomainError("INSUFFICIENT_AVAILABLE_STOCK",
			fmt.Sprintf("Cannot reserve %s %s of %s: only %s available", quantity.String(), r.Unit, r.IngredientName, r.AvailableStock().String()))
	}

	r.ReservedStock = r.ReservedStock.Add(quantity)
	r.touch()

	r.AddDomainEvent(NewStockReservedEvent(r, quantity, batchRef))

	return nil
}

// UnreserveStock releases a previously held quantity back to available.
// The reserved quantity can never drop below zero; releasing more than is
// held is an error, not a silent clamp.
func (r *StockRecord) UnreserveStock(quantity decimal.Decimal, batchRef string) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if r.ReservedStock.LessThan(quantity) {
		return shared.NewDomainError("RESERVATION_UNDERFLOW",
			fmt.Sprintf("Cannot release %s %s of %s: only %s reserved", quantity.String(), r.Unit, r.IngredientName, r.ReservedStock.String()))
	}

	r.ReservedStock = r.ReservedStock.Sub(quantity)
	r.touch()

	r.AddDomainEvent(NewStockUnreservedEvent(r, quantity, batchRef))

	return nil
}

// SetLowStockThreshold updates the alerting threshold.
func (r *StockRecord) SetLowStockThreshold(threshold decimal.Decimal) error {
	if threshold.IsNegative() {
		return shared.NewDomainError("INVALID_THRESHOLD", "Low stock threshold cannot be negative")
	}

	r.LowStockThreshold = threshold
	r.touch()
	r.checkLowStock()

	return nil
}

// IsLowStock returns true if the on-hand quantity has reached the threshold.
func (r *StockRecord) IsLowStock() bool {
	return r.CurrentStock.LessThanOrEqual(r.LowStockThreshold)
}

// CanDeduct returns true if the available quantity covers the requested deduction.
func (r *StockRecord) CanDeduct(quantity decimal.Decimal) bool {
	return r.AvailableStock().GreaterThanOrEqual(quantity)
}

// CanReserve returns true if the available quantity covers the requested reservation.
func (r *StockRecord) CanReserve(quantity decimal.Decimal) bool {
	return r.AvailableStock().GreaterThanOrEqual(quantity)
}

func (r *StockRecord) touch() {
	now := time.Now()
	r.LastUpdated = now
	r.UpdatedAt = now
	r.IncrementVersion()
}

func (r *StockRecord) checkLowStock() {
	if r.IsLowStock() {
		r.AddDomainEvent(NewLowStockDetectedEvent(r))
	}
}
