package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/batchline/backend/internal/domain/production"
	"github.com/batchline/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProductionBatchRepository implements ProductionBatchRepository using GORM
type GormProductionBatchRepository struct {
	db *gorm.DB
}

// NewGormProductionBatchRepository creates a new GormProductionBatchRepository
func NewGormProductionBatchRepository(db *gorm.DB) *GormProductionBatchRepository {
	return &GormProductionBatchRepository{db: db}
}

// FindByID finds a batch by its ID, items preloaded
func (r *GormProductionBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*production.ProductionBatch, error) {
	var batch production.ProductionBatch
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
func (r *GormProductionBatchRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*production.ProductionBatch, error) {
	var batch production.ProductionBatch
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
func (r *GormProductionBatchRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]production.ProductionBatch, error) {
	var batches []production.ProductionBatch
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&production.ProductionBatch{}).
			Preload("Items").
			Where("tenant_id = ?", tenantID),
		filter,
	)

	if err := query.Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// FindByStatus finds batches with a specific status
func (r *GormProductionBatchRepository) FindByStatus(ctx context.Context, tenantID uuid.UUID, status production.ProductionStatus, filter shared.Filter) ([]production.ProductionBatch, error) {
	var batches []production.ProductionBatch
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&production.ProductionBatch{}).
			Preload("Items").
			Where("tenant_id = ? AND status = ?", tenantID, status),
		filter,
	)

	if err := query.Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// FindByDateRange finds batches whose DateCreated falls within the range
func (r *GormProductionBatchRepository) FindByDateRange(ctx context.Context, tenantID uuid.UUID, start, end time.Time, filter shared.Filter) ([]production.ProductionBatch, error) {
	var batches []production.ProductionBatch
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&production.ProductionBatch{}).
			Preload("Items").
			Where("tenant_id = ? AND date_created >= ? AND date_created < ?", tenantID, start, end),
		filter,
	)

	if err := query.Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// NextBatchNumber previews the number the next allocation will produce. The
// preview claims nothing; creation allocates inside its own transaction.
func (r *GormProductionBatchRepository) NextBatchNumber(ctx context.Context, tenantID uuid.UUID) (int, error) {
	return peekBatchNumber(ctx, r.db, tenantID, productionSequenceScope)
}

// AllocateBatchNumber claims the next batch number from the tenant's counter.
// The counter never moves backward, so a deleted batch's number is not
// reissued; the unique index on (tenant_id, batch_number) backstops it.
func (r *GormProductionBatchRepository) AllocateBatchNumber(ctx context.Context, tenantID uuid.UUID) (int, error) {
	return allocateBatchNumber(ctx, r.db, tenantID, productionSequenceScope)
}

// Save creates or updates a batch together with its items
func (r *GormProductionBatchRepository) Save(ctx context.Context, batch *production.ProductionBatch) error {
	return r.db.WithContext(ctx).Save(batch).Error
}

// SaveWithLock saves the batch row with optimistic locking (checks version)
func (r *GormProductionBatchRepository) SaveWithLock(ctx context.Context, batch *production.ProductionBatch) error {
	result := r.db.WithContext(ctx).
		Model(batch).
		Where("id = ? AND version = ?", batch.ID, batch.Version-1).
		Updates(map[string]interface{}{
			"status":          batch.Status,
			"note":            batch.Note,
			"product_name":    batch.ProductName,
			"output_quantity": batch.OutputQuantity,
			"output_unit":     batch.OutputUnit,
			"completed_at":    batch.CompletedAt,
			"version":         batch.Version,
			"updated_at":      batch.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_FAILED", "Production batch was modified by another transaction")
	}
	return nil
}

// DeleteForTenant removes a batch and its items within a tenant
func (r *GormProductionBatchRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&production.ProductionItem{}, "batch_id = ?", id).Error; err != nil {
			return err
		}

		result := tx.Delete(&production.ProductionBatch{}, "tenant_id = ? AND id = ?", tenantID, id)
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
func (r *GormProductionBatchRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).
		Model(&production.ProductionBatch{}).
		Where("tenant_id = ?", tenantID)

	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByStatus counts batches by status
func (r *GormProductionBatchRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID, status production.ProductionStatus) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&production.ProductionBatch{}).
		Where("tenant_id = ? AND status = ?", tenantID, status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountOpenItems counts ingredient allocations across non-completed batches
func (r *GormProductionBatchRepository) CountOpenItems(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&production.ProductionItem{}).
		Joins("JOIN production_batches ON production_batches.id = production_items.batch_id").
		Where("production_batches.tenant_id = ? AND production_batches.status <> ?",
			tenantID, production.ProductionStatusCompleted).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// productionBatchSortFields contains allowed sort fields for production batches
var productionBatchSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"batch_number": true,
	"date_created": true,
	"status":       true,
	"completed_at": true,
}

// applyFilter applies filter options to the query
func (r *GormProductionBatchRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, productionBatchSortFields, "batch_number")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderBy + " " + orderDir)
}

// Ensure GormProductionBatchRepository implements ProductionBatchRepository
var _ production.ProductionBatchRepository = (*GormProductionBatchRepository)(nil)
