package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/batchline/backend/internal/domain/shared"
	"github.com/batchline/backend/internal/domain/warehouse"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormWarehouseBatchRepository implements WarehouseBatchRepository using GORM
type GormWarehouseBatchRepository struct {
	db *gorm.DB
}

// NewGormWarehouseBatchRepository creates a new GormWarehouseBatchRepository
func NewGormWarehouseBatchRepository(db *gorm.DB) *GormWarehouseBatchRepository {
	return &GormWarehouseBatchRepository{db: db}
}

// FindByID finds a batch by its ID, items preloaded
func (r *GormWarehouseBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*warehouse.WarehouseBatch, error) {
	var batch warehouse.WarehouseBatch
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&batch, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}

// FindByIDForTenant finds a batch by ID within a tenant, items preloaded
func (r *GormWarehouseBatchRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*warehouse.WarehouseBatch, error) {
	var batch warehouse.WarehouseBatch
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&batch).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}

// FindAllForTenant finds all batches for a tenant, items preloaded
func (r *GormWarehouseBatchRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]warehouse.WarehouseBatch, error) {
	var batches []warehouse.WarehouseBatch
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&warehouse.WarehouseBatch{}).
			Preload("Items").
			Where("tenant_id = ?", tenantID),
		filter,
	)

	if err := query.Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// FindByDateRange finds batches whose DateAdded falls within the range
func (r *GormWarehouseBatchRepository) FindByDateRange(ctx context.Context, tenantID uuid.UUID, start, end time.Time, filter shared.Filter) ([]warehouse.WarehouseBatch, error) {
	var batches []warehouse.WarehouseBatch
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&warehouse.WarehouseBatch{}).
			Preload("Items").
			Where("tenant_id = ? AND date_added >= ? AND date_added < ?", tenantID, start, end),
		filter,
	)

	if err := query.Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// NextBatchNumber previews the number the next allocation will produce. The
// preview claims nothing; creation allocates inside its own transaction.
func (r *GormWarehouseBatchRepository) NextBatchNumber(ctx context.Context, tenantID uuid.UUID) (int, error) {
	return peekBatchNumber(ctx, r.db, tenantID, warehouseSequenceScope)
}

// AllocateBatchNumber claims the next batch number from the tenant's counter.
// The counter never moves backward, so a deleted batch's number is not
// reissued; the unique index on (tenant_id, batch_number) backstops it.
func (r *GormWarehouseBatchRepository) AllocateBatchNumber(ctx context.Context, tenantID uuid.UUID) (int, error) {
	return allocateBatchNumber(ctx, r.db, tenantID, warehouseSequenceScope)
}

// Save creates or updates a batch together with its items
func (r *GormWarehouseBatchRepository) Save(ctx context.Context, batch *warehouse.WarehouseBatch) error {
	return r.db.WithContext(ctx).Save(batch).Error
}

// DeleteForTenant removes a batch and its items within a tenant
func (r *GormWarehouseBatchRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&warehouse.WarehouseItem{}, "batch_id = ?", id).Error; err != nil {
			return err
		}

		result := tx.Delete(&warehouse.WarehouseBatch{}, "tenant_id = ? AND id = ?", tenantID, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// CountForTenant counts batches matching the filter
func (r *GormWarehouseBatchRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&warehouse.WarehouseBatch{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountItemsForTenant counts line items across all batches of a tenant
func (r *GormWarehouseBatchRepository) CountItemsForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&warehouse.WarehouseItem{}).
		Joins("JOIN warehouse_batches ON warehouse_batches.id = warehouse_items.batch_id").
		Where("warehouse_batches.tenant_id = ?", tenantID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumTotalValueForTenant sums the TotalCost of all items of a tenant
func (r *GormWarehouseBatchRepository) SumTotalValueForTenant(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&warehouse.WarehouseItem{}).
		Select("COALESCE(SUM(warehouse_items.total_cost), 0) as total").
		Joins("JOIN warehouse_batches ON warehouse_batches.id = warehouse_items.batch_id").
		Where("warehouse_batches.tenant_id = ?", tenantID).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// LastIntakeDate returns the most recent DateAdded, nil if no batches exist
func (r *GormWarehouseBatchRepository) LastIntakeDate(ctx context.Context, tenantID uuid.UUID) (*time.Time, error) {
	var result struct {
		Last *time.Time
	}
	if err := r.db.WithContext(ctx).
		Model(&warehouse.WarehouseBatch{}).
		Select("MAX(date_added) as last").
		Where("tenant_id = ?", tenantID).
		Scan(&result).Error; err != nil {
		return nil, err
	}
	return result.Last, nil
}

// warehouseBatchSortFields contains allowed sort fields for intake batches
var warehouseBatchSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"batch_number": true,
	"date_added":   true,
}

// applyFilter applies filter options to the query
func (r *GormWarehouseBatchRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, warehouseBatchSortFields, "batch_number")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderBy + " " + orderDir)
}

// Ensure GormWarehouseBatchRepository implements WarehouseBatchRepository
var _ warehouse.WarehouseBatchRepository = (*GormWarehouseBatchRepository)(nil)
