package warehouse

import (
	"context"
	"time"

	"github.com/batchline/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WarehouseBatchRepository defines the interface for warehouse batch persistence
type WarehouseBatchRepository interface {
	// FindByID finds a batch by its ID, items preloaded
	FindByID(ctx context.Context, id uuid.UUID) (*WarehouseBatch, error)

	// FindByIDForTenant finds a batch by ID within a tenant, items preloaded
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*WarehouseBatch, error)

	// FindAllForTenant finds all batches for a tenant, items preloaded
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]WarehouseBatch, error)

	// FindByDateRange finds batches whose DateAdded falls within the range
	FindByDateRange(ctx context.Context, tenantID uuid.UUID, start, end time.Time, filter shared.Filter) ([]WarehouseBatch, error)

	// NextBatchNumber previews the number the next batch will receive
	// without claiming it.
	NextBatchNumber(ctx context.Context, tenantID uuid.UUID) (int, error)

	// AllocateBatchNumber claims the next sequential batch number for the
	// tenant. Numbers strictly increase and are never reused, even after
	// the highest-numbered batch is deleted.
	AllocateBatchNumber(ctx context.Context, tenantID uuid.UUID) (int, error)

	// Save creates or updates a batch together with its items
	Save(ctx context.Context, batch *WarehouseBatch) error

	// DeleteForTenant removes a batch and its items within a tenant
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error

	// CountForTenant counts batches matching the filter
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// CountItemsForTenant counts line items across all batches of a tenant
	CountItemsForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)

	// SumTotalValueForTenant sums the TotalCost of all items of a tenant
	SumTotalValueForTenant(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error)

	// LastIntakeDate returns the most recent DateAdded, nil if no batches exist
	LastIntakeDate(ctx context.Context, tenantID uuid.UUID) (*time.Time, error)
}
