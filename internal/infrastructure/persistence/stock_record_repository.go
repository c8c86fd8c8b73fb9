package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/batchline/backend/internal/domain/ledger"
	"github.com/batchline/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStockRecordRepository implements StockRecordRepository using GORM
type GormStockRecordRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver // optional, for transactional outbox pattern
}

// NewGormStockRecordRepository creates a new GormStockRecordRepository
func NewGormStockRecordRepository(db *gorm.DB) *GormStockRecordRepository {
	return &GormStockRecordRepository{db: db}
}

// SetOutboxEventSaver sets the outbox event saver for transactional event publishing
func (r *GormStockRecordRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outboxSaver = saver
}

// saveEventsToOutbox persists the record's pending domain events alongside the
// row mutation. Events stay on the record so the in-process bus still gets
// them after commit; the idempotent handler side dedupes the second delivery.
func (r *GormStockRecordRepository) saveEventsToOutbox(ctx context.Context, record *ledger.StockRecord) error {
	if r.outboxSaver == nil {
		return nil
	}
	events := record.GetDomainEvents()
	if len(events) == 0 {
		return nil
	}
	if err := r.outboxSaver.SaveEvents(ctx, r.db, events...); err != nil {
		return fmt.Errorf("failed to save events to outbox: %w", err)
	}
	return nil
}

// FindByID finds a stock record by its ID
func (r *GormStockRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.StockRecord, error) {
	var record ledger.StockRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindByIDForTenant finds a stock record by ID within a tenant
func (r *GormStockRecordRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.StockRecord, error) {
	var record ledger.StockRecord
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindByIngredient finds the record for an ingredient-unit combination
func (r *GormStockRecordRepository) FindByIngredient(ctx context.Context, tenantID uuid.UUID, ingredientName, unit string) (*ledger.StockRecord, error) {
	var record ledger.StockRecord
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND ingredient_name = ? AND unit = ?", tenantID, ingredientName, unit).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindAllForTenant finds all stock records for a tenant
func (r *GormStockRecordRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]ledger.StockRecord, error) {
	var records []ledger.StockRecord
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&ledger.StockRecord{}).
			Where("tenant_id = ?", tenantID),
		filter,
	)

	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// FindLowStock finds records at or below their low stock threshold
func (r *GormStockRecordRepository) FindLowStock(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]ledger.StockRecord, error) {
	var records []ledger.StockRecord
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&ledger.StockRecord{}).
			Where("tenant_id = ? AND current_stock <= low_stock_threshold", tenantID),
		filter,
	)

	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Save creates or updates a stock record
func (r *GormStockRecordRepository) Save(ctx context.Context, record *ledger.StockRecord) error {
	if err := r.db.WithContext(ctx).Save(record).Error; err != nil {
		return err
	}
	return r.saveEventsToOutbox(ctx, record)
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormStockRecordRepository) SaveWithLock(ctx context.Context, record *ledger.StockRecord) error {
	result := r.db.WithContext(ctx).
		Model(record).
		Where("id = ? AND version = ?", record.ID, record.Version-1).
		Updates(map[string]interface{}{
			"current_stock":       record.CurrentStock,
			"reserved_stock":      record.ReservedStock,
			"low_stock_threshold": record.LowStockThreshold,
			"last_updated":        record.LastUpdated,
			"version":             record.Version,
			"updated_at":          record.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_FAILED", "Stock record was modified by another transaction")
	}
	return r.saveEventsToOutbox(ctx, record)
}

// GetOrCreate gets the existing record or creates a new one for the key
func (r *GormStockRecordRepository) GetOrCreate(ctx context.Context, tenantID uuid.UUID, ingredientName, unit string) (*ledger.StockRecord, error) {
	record, err := r.FindByIngredient(ctx, tenantID, ingredientName, unit)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	record, err = ledger.NewStockRecord(tenantID, ingredientName, unit)
	if err != nil {
		return nil, err
	}

	// ON CONFLICT handles the race with a concurrent creator
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "ingredient_name"}, {Name: "unit"}},
			DoNothing: true,
		}).
		Create(record)
	if result.Error != nil {
		return nil, result.Error
	}

	// Nothing inserted means a concurrent creator won; fetch their row.
	if result.RowsAffected == 0 {
		return r.FindByIngredient(ctx, tenantID, ingredientName, unit)
	}

	return record, nil
}

// CountForTenant counts stock records matching the filter
func (r *GormStockRecordRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&ledger.StockRecord{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountLowStock counts records at or below their threshold
func (r *GormStockRecordRepository) CountLowStock(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&ledger.StockRecord{}).
		Where("tenant_id = ? AND current_stock <= low_stock_threshold", tenantID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountReserved counts records with a non-zero reserved quantity
func (r *GormStockRecordRepository) CountReserved(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&ledger.StockRecord{}).
		Where("tenant_id = ? AND reserved_stock > 0", tenantID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// stockRecordSortFields contains allowed sort fields for stock records
var stockRecordSortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"ingredient_name": true,
	"unit":            true,
	"current_stock":   true,
	"reserved_stock":  true,
	"last_updated":    true,
}

// applyFilter applies filter options to the query
func (r *GormStockRecordRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, stockRecordSortFields, "ingredient_name")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderBy + " " + orderDir)
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormStockRecordRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("ingredient_name ILIKE ?", "%"+filter.Search+"%")
	}

	for key, value := range filter.Filters {
		switch key {
		case "low_stock":
			if value == true {
				query = query.Where("current_stock <= low_stock_threshold")
			}
		case "has_stock":
			if value == true {
				query = query.Where("current_stock - reserved_stock > 0")
			}
		case "no_stock":
			if value == true {
				query = query.Where("current_stock = 0")
			}
		case "unit":
			query = query.Where("unit = ?", value)
		}
	}

	return query
}

// Ensure GormStockRecordRepository implements StockRecordRepository
var _ ledger.StockRecordRepository = (*GormStockRecordRepository)(nil)
