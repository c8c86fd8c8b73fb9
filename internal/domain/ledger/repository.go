package ledger

import (
	"context"
	"time"

	"github.com/batchline/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockRecordRepository defines the interface for stock record persistence
type StockRecordRepository interface {
	// FindByID finds a stock record by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*StockRecord, error)

	// FindByIDForTenant finds a stock record by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*StockRecord, error)

	// FindByIngredient finds the record for an ingredient-unit combination
	FindByIngredient(ctx context.Context, tenantID uuid.UUID, ingredientName, unit string) (*StockRecord, error)

	// FindAllForTenant finds all stock records for a tenant
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]StockRecord, error)

	// FindLowStock finds records at or below their low stock threshold
	FindLowStock(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]StockRecord, error)

	// Save creates or updates a stock record
	Save(ctx context.Context, record *StockRecord) error

	// SaveWithLock saves with optimistic locking (checks version)
	SaveWithLock(ctx context.Context, record *StockRecord) error

	// GetOrCreate gets the existing record or creates a new one for the key
	GetOrCreate(ctx context.Context, tenantID uuid.UUID, ingredientName, unit string) (*StockRecord, error)

	// CountForTenant counts stock records matching the filter
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// CountLowStock counts records at or below their threshold
	CountLowStock(ctx context.Context, tenantID uuid.UUID) (int64, error)

	// CountReserved counts records with a non-zero reserved quantity
	CountReserved(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

// StockTransactionRepository defines the interface for the append-only
// transaction log. Transactions are never updated; the only deletion is the
// reservation-trail cleanup when a non-completed production batch is removed.
type StockTransactionRepository interface {
	// FindByID finds a transaction by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*StockTransaction, error)

	// FindForTenant finds all transactions for a tenant
	FindForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]StockTransaction, error)

	// FindByIngredient finds transactions for an ingredient-unit combination
	FindByIngredient(ctx context.Context, tenantID uuid.UUID, ingredientName, unit string, filter shared.Filter) ([]StockTransaction, error)

	// FindByBatchRef finds transactions referencing a batch
	FindByBatchRef(ctx context.Context, tenantID uuid.UUID, batchRef string) ([]StockTransaction, error)

	// FindByDateRange finds transactions within a date range
	FindByDateRange(ctx context.Context, tenantID uuid.UUID, start, end time.Time, filter shared.Filter) ([]StockTransaction, error)

	// Create creates a new transaction (append-only, no update allowed)
	Create(ctx context.Context, tx *StockTransaction) error

	// CreateBatch creates multiple transactions
	CreateBatch(ctx context.Context, txs []*StockTransaction) error

	// DeleteReservationTrail removes the RESERVE/UNRESERVE rows for a batch.
	// Sanctioned only when a non-completed production batch is deleted.
	DeleteReservationTrail(ctx context.Context, tenantID uuid.UUID, batchRef string) error

	// CountForTenant counts transactions matching the filter
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// SumSignedOnHand sums the signed ADD/DEDUCT quantities for a key.
	// Used for reconciliation against the record's current stock.
	SumSignedOnHand(ctx context.Context, tenantID uuid.UUID, ingredientName, unit string) (decimal.Decimal, error)
}
