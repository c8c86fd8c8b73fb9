package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/batchline/backend/internal/domain/ledger"
	"github.com/batchline/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormStockTransactionRepository implements StockTransactionRepository using
// GORM. The table is append-only: no update path exists, and the only delete
// is the reservation-trail cleanup for a removed production batch.
type GormStockTransactionRepository struct {
	db *gorm.DB
}

// NewGormStockTransactionRepository creates a new GormStockTransactionRepository
func NewGormStockTransactionRepository(db *gorm.DB) *GormStockTransactionRepository {
	return &GormStockTransactionRepository{db: db}
}

// FindByID finds a transaction by its ID
func (r *GormStockTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.StockTransaction, error) {
	var tx ledger.StockTransaction
	if err := r.db.WithContext(ctx).First(&tx, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &tx, nil
}

// FindForTenant finds all transactions for a tenant
func (r *GormStockTransactionRepository) FindForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]ledger.StockTransaction, error) {
	var txs []ledger.StockTransaction
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&ledger.StockTransaction{}).
			Where("tenant_id = ?", tenantID),
		filter,
	)

	if err := query.Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// FindByIngredient finds transactions for an ingredient-unit combination
func (r *GormStockTransactionRepository) FindByIngredient(ctx context.Context, tenantID uuid.UUID, ingredientName, unit string, filter shared.Filter) ([]ledger.StockTransaction, error) {
	var txs []ledger.StockTransaction
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&ledger.StockTransaction{}).
			Where("tenant_id = ? AND ingredient_name = ? AND unit = ?", tenantID, ingredientName, unit),
		filter,
	)

	if err := query.Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// FindByBatchRef finds transactions referencing a batch
func (r *GormStockTransactionRepository) FindByBatchRef(ctx context.Context, tenantID uuid.UUID, batchRef string) ([]ledger.StockTransaction, error) {
	var txs []ledger.StockTransaction
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND batch_ref = ?", tenantID, batchRef).
		Order("transaction_date ASC").
		Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// FindByDateRange finds transactions within a date range
func (r *GormStockTransactionRepository) FindByDateRange(ctx context.Context, tenantID uuid.UUID, start, end time.Time, filter shared.Filter) ([]ledger.StockTransaction, error) {
	var txs []ledger.StockTransaction
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&ledger.StockTransaction{}).
			Where("tenant_id = ? AND transaction_date >= ? AND transaction_date < ?", tenantID, start, end),
		filter,
	)

	if err := query.Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// Create creates a new transaction
func (r *GormStockTransactionRepository) Create(ctx context.Context, tx *ledger.StockTransaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

// CreateBatch creates multiple transactions
func (r *GormStockTransactionRepository) CreateBatch(ctx context.Context, txs []*ledger.StockTransaction) error {
	if len(txs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(txs).Error
}

// DeleteReservationTrail removes the RESERVE/UNRESERVE rows for a batch
func (r *GormStockTransactionRepository) DeleteReservationTrail(ctx context.Context, tenantID uuid.UUID, batchRef string) error {
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND batch_ref = ? AND transaction_type IN ?",
			tenantID, batchRef,
			[]ledger.TransactionType{ledger.TransactionTypeReserve, ledger.TransactionTypeUnreserve}).
		Delete(&ledger.StockTransaction{}).Error
}

// CountForTenant counts transactions matching the filter
func (r *GormStockTransactionRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&ledger.StockTransaction{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumSignedOnHand sums the signed ADD/DEDUCT quantities for a key
func (r *GormStockTransactionRepository) SumSignedOnHand(ctx context.Context, tenantID uuid.UUID, ingredientName, unit string) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&ledger.StockTransaction{}).
		Select("COALESCE(SUM(CASE WHEN transaction_type = ? THEN quantity ELSE -quantity END), 0) as total",
			ledger.TransactionTypeAdd).
		Where("tenant_id = ? AND ingredient_name = ? AND unit = ? AND transaction_type IN ?",
			tenantID, ingredientName, unit,
			[]ledger.TransactionType{ledger.TransactionTypeAdd, ledger.TransactionTypeDeduct}).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// stockTransactionSortFields contains allowed sort fields for the transaction log
var stockTransactionSortFields = map[string]bool{
	"id":               true,
	"created_at":       true,
	"ingredient_name":  true,
	"transaction_type": true,
	"quantity":         true,
	"transaction_date": true,
}

// applyFilter applies filter options to the query
func (r *GormStockTransactionRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, stockTransactionSortFields, "transaction_date")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderBy + " " + orderDir)
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormStockTransactionRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "ingredient_name":
			query = query.Where("ingredient_name = ?", value)
		case "unit":
			query = query.Where("unit = ?", value)
		case "transaction_type":
			query = query.Where("transaction_type = ?", value)
		case "batch_ref":
			query = query.Where("batch_ref = ?", value)
		case "start_date":
			query = query.Where("transaction_date >= ?", value)
		case "end_date":
			query = query.Where("transaction_date < ?", value)
		}
	}

	return query
}

// Ensure GormStockTransactionRepository implements StockTransactionRepository
var _ ledger.StockTransactionRepository = (*GormStockTransactionRepository)(nil)
