package ledger

import (
	"time"

	"github.com/batchline/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the type of a ledger transaction
type TransactionType string

const (
	// TransactionTypeAdd represents stock coming in (warehouse intake, manual correction)
	TransactionTypeAdd TransactionType = "ADD"
	// TransactionTypeDeduct represents a permanent stock decrease (sale, production completion)
	TransactionTypeDeduct TransactionType = "DEDUCT"
	// TransactionTypeReserve represents a soft hold placed for a production batch
	TransactionTypeReserve TransactionType = "RESERVE"
	// TransactionTypeUnreserve represents a soft hold being released
	TransactionTypeUnreserve TransactionType = "UNRESERVE"
)

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// IsValid returns true if the transaction type is valid
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeAdd, TransactionTypeDeduct, TransactionTypeReserve, TransactionTypeUnreserve:
		return true
	}
	return false
}

// MovesOnHand returns true if the transaction type changes the on-hand balance.
// RESERVE and UNRESERVE only shift quantity between available and reserved.
func (t TransactionType) MovesOnHand() bool {
	return t == TransactionTypeAdd || t == TransactionTypeDeduct
}

// IsNegative returns true if the signed quantity of this type is negative
func (t TransactionType) IsNegative() bool {
	return t == TransactionTypeDeduct || t == TransactionTypeUnreserve
}

// StockTransaction is an immutable audit record of a single ledger mutation.
// Once created, transactions are never updated; the only sanctioned deletion
// is the cascading cleanup of a removed production batch's reservation trail.
type StockTransaction struct {
	shared.BaseEntity
	TenantID        uuid.UUID       `gorm:"type:uuid;not null;index:idx_stock_tx_tenant_time,priority:1"`
	StockRecordID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_stock_tx_record"`
	IngredientName  string          `gorm:"type:varchar(200);not null;index:idx_stock_tx_ingredient"`
	Unit            string          `gorm:"type:varchar(20);not null"`
	TransactionType TransactionType `gorm:"type:varchar(20);not null;index:idx_stock_tx_type"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null"` // Always positive, direction determined by type
	BalanceBefore   decimal.Decimal `gorm:"type:decimal(18,4);not null"` // On-hand balance before the mutation
	BalanceAfter    decimal.Decimal `gorm:"type:decimal(18,4);not null"` // On-hand balance after the mutation
	Reason          string          `gorm:"type:varchar(255);not null"`
	BatchRef        *string         `gorm:"type:varchar(50);index:idx_stock_tx_batch_ref"` // Originating warehouse/production batch
	TransactionDate time.Time       `gorm:"type:timestamptz;not null;index:idx_stock_tx_tenant_time,priority:2"`
}

// TableName returns the table name for GORM
func (StockTransaction) TableName() string {
	return "stock_transactions"
}

// NewStockTransaction creates a new stock transaction
func NewStockTransaction(
	tenantID uuid.UUID,
	stockRecordID uuid.UUID,
	ingredientName string,
	unit string,
	txType TransactionType,
	quantity decimal.Decimal,
	balanceBefore decimal.Decimal,
	balanceAfter decimal.Decimal,
	reason string,
) (*StockTransaction, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if stockRecordID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_STOCK_RECORD", "Stock record ID cannot be empty")
	}
	if ingredientName == "" {
		return nil, shared.NewDomainError("INVALID_INGREDIENT", "Ingredient name cannot be empty")
	}
	if unit == "" {
		return nil, shared.NewDomainError("INVALID_UNIT", "Unit cannot be empty")
	}
	if !txType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Invalid transaction type")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if reason == "" {
		return nil, shared.NewDomainError("INVALID_REASON", "Transaction reason cannot be empty")
	}

	tx := &StockTransaction{
		BaseEntity:      shared.NewBaseEntity(),
		TenantID:        tenantID,
		StockRecordID:   stockRecordID,
		IngredientName:  ingredientName,
		Unit:            unit,
		TransactionType: txType,
		Quantity:        quantity,
		BalanceBefore:   balanceBefore,
		BalanceAfter:    balanceAfter,
		Reason:          reason,
		TransactionDate: time.Now(),
	}

	return tx, nil
}

// WithBatchRef sets the originating batch reference
func (t *StockTransaction) WithBatchRef(batchRef string) *StockTransaction {
	t.BatchRef = &batchRef
	return t
}

// WithTransactionDate sets the transaction date
func (t *StockTransaction) WithTransactionDate(date time.Time) *StockTransaction {
	t.TransactionDate = date
	return t
}

// SignedQuantity returns the quantity with sign based on transaction type.
// ADD and RESERVE are positive; DEDUCT and UNRESERVE are negative.
func (t *StockTransaction) SignedQuantity() decimal.Decimal {
	if t.TransactionType.IsNegative() {
		return t.Quantity.Neg()
	}
	return t.Quantity
}

// OnHandChange returns the net change to the on-hand balance
func (t *StockTransaction) OnHandChange() decimal.Decimal {
	return t.BalanceAfter.Sub(t.BalanceBefore)
}
