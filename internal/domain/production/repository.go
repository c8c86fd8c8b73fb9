package production

import (
	"context"
	"time"

	"github.com/batchline/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductionBatchRepository defines the interface for production batch persistence
type ProductionBatchRepository interface {
	// FindByID finds a batch by its ID, items preloaded
	FindByID(ctx context.Context, id uuid.UUID) (*ProductionBatch, error)

	// FindByIDForTenant finds a batch by ID within a tenant, items preloaded
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ProductionBatch, error)

	// FindAllForTenant finds all batches for a tenant, items preloaded
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]ProductionBatch, error)

	// FindByStatus finds batches with a specific status
	FindByStatus(ctx context.Context, tenantID uuid.UUID, status ProductionStatus, filter shared.Filter) ([]ProductionBatch, error)

	// FindByDateRange finds batches whose DateCreated falls within the range
	FindByDateRange(ctx context.Context, tenantID uuid.UUID, start, end time.Time, filter shared.Filter) ([]ProductionBatch, error)

	// NextBatchNumber previews the number the next batch will receive
	// without claiming it.
	NextBatchNumber(ctx context.Context, tenantID uuid.UUID) (int, error)

	// AllocateBatchNumber claims the next sequential batch number for the
	// tenant. Numbers strictly increase and are never reused, even after
	// the highest-numbered batch is deleted.
	AllocateBatchNumber(ctx context.Context, tenantID uuid.UUID) (int, error)

	// Save creates or updates a batch together with its items
	Save(ctx context.Context, batch *ProductionBatch) error

	// SaveWithLock saves the batch row with optimistic locking (checks version)
	SaveWithLock(ctx context.Context, batch *ProductionBatch) error

	// DeleteForTenant removes a batch and its items within a tenant
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error

	// CountForTenant counts batches matching the filter
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// CountByStatus counts batches by status
	CountByStatus(ctx context.Context, tenantID uuid.UUID, status ProductionStatus) (int64, error)

	// CountOpenItems counts ingredient allocations across non-completed batches
	CountOpenItems(ctx context.Context, tenantID uuid.UUID) (int64, error)
}
