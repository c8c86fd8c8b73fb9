package ledger

import (
	"time"

	"github.com/batchline/backend/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockRecordResponse represents a stock record in API responses
type StockRecordResponse struct {
	ID                uuid.UUID       `json:"id"`
	TenantID          uuid.UUID       `json:"tenant_id"`
	IngredientName    string          `json:"ingredient_name"`
	Unit              string          `json:"unit"`
	CurrentStock      decimal.Decimal `json:"current_stock"`
	ReservedStock     decimal.Decimal `json:"reserved_stock"`
	AvailableStock    decimal.Decimal `json:"available_stock"`
	LowStockThreshold decimal.Decimal `json:"low_stock_threshold"`
	IsLowStock        bool            `json:"is_low_stock"`
	LastUpdated       time.Time       `json:"last_updated"`
	CreatedAt         time.Time       `json:"created_at"`
	Version           int             `json:"version"`
}

// ToStockRecordResponse converts a stock record to its response DTO
func ToStockRecordResponse(record *ledger.StockRecord) StockRecordResponse {
	return StockRecordResponse{
		ID:                record.ID,
		TenantID:          record.TenantID,
		IngredientName:    record.IngredientName,
		Unit:              record.Unit,
		CurrentStock:      record.CurrentStock,
		ReservedStock:     record.ReservedStock,
		AvailableStock:    record.AvailableStock(),
		LowStockThreshold: record.LowStockThreshold,
		IsLowStock:        record.IsLowStock(),
		LastUpdated:       record.LastUpdated,
		CreatedAt:         record.CreatedAt,
		Version:           record.GetVersion(),
	}
}

// ToStockRecordResponses converts a slice of stock records
func ToStockRecordResponses(records []ledger.StockRecord) []StockRecordResponse {
	responses := make([]StockRecordResponse, 0, len(records))
	for i := range records {
		responses = append(responses, ToStockRecordResponse(&records[i]))
	}
	return responses
}

// TransactionResponse represents a ledger transaction in API responses
type TransactionResponse struct {
	ID              uuid.UUID       `json:"id"`
	TenantID        uuid.UUID       `json:"tenant_id"`
	StockRecordID   uuid.UUID       `json:"stock_record_id"`
	IngredientName  string          `json:"ingredient_name"`
	Unit            string          `json:"unit"`
	TransactionType string          `json:"transaction_type"`
	Quantity        decimal.Decimal `json:"quantity"`
	SignedQuantity  decimal.Decimal `json:"signed_quantity"`
	BalanceBefore   decimal.Decimal `json:"balance_before"`
	BalanceAfter    decimal.Decimal `json:"balance_after"`
	Reason          string          `json:"reason"`
	BatchRef        string          `json:"batch_ref,omitempty"`
	TransactionDate time.Time       `json:"transaction_date"`
}

// ToTransactionResponse converts a stock transaction to its response DTO
func ToTransactionResponse(tx *ledger.StockTransaction) TransactionResponse {
	resp := TransactionResponse{
		ID:              tx.ID,
		TenantID:        tx.TenantID,
		StockRecordID:   tx.StockRecordID,
		IngredientName:  tx.IngredientName,
		Unit:            tx.Unit,
		TransactionType: tx.TransactionType.String(),
		Quantity:        tx.Quantity,
		SignedQuantity:  tx.SignedQuantity(),
		BalanceBefore:   tx.BalanceBefore,
		BalanceAfter:    tx.BalanceAfter,
		Reason:          tx.Reason,
		TransactionDate: tx.TransactionDate,
	}
	if tx.BatchRef != nil {
		resp.BatchRef = *tx.BatchRef
	}
	return resp
}

// ToTransactionResponses converts a slice of stock transactions
func ToTransactionResponses(txs []ledger.StockTransaction) []TransactionResponse {
	responses := make([]TransactionResponse, 0, len(txs))
	for i := range txs {
		responses = append(responses, ToTransactionResponse(&txs[i]))
	}
	return responses
}

// StockListFilter represents filter options for the stock level list
type StockListFilter struct {
	Search   string `form:"search"`
	LowStock *bool  `form:"low_stock"`
	HasStock *bool  `form:"has_stock"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// TransactionListFilter represents filter options for the transaction log
type TransactionListFilter struct {
	IngredientName  string     `form:"ingredient_name"`
	Unit            string     `form:"unit"`
	TransactionType string     `form:"transaction_type"`
	BatchRef        string     `form:"batch_ref"`
	StartDate       *time.Time `form:"start_date" time_format:"2006-01-02"`
	EndDate         *time.Time `form:"end_date" time_format:"2006-01-02"`
	Page            int        `form:"page" binding:"omitempty,min=1"`
	PageSize        int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy         string     `form:"order_by"`
	OrderDir        string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// AddStockRequest represents a request to add stock
type AddStockRequest struct {
	IngredientName string          `json:"ingredient_name" binding:"required"`
	Unit           string          `json:"unit" binding:"required"`
	Quantity       decimal.Decimal `json:"quantity" binding:"required"`
	Reason         string          `json:"reason" binding:"required,min=1,max=255"`
	BatchRef       *string         `json:"batch_ref"`
}

// DeductStockRequest represents a request to deduct available stock
type DeductStockRequest struct {
	IngredientName string          `json:"ingredient_name" binding:"required"`
	Unit           string          `json:"unit" binding:"required"`
	Quantity       decimal.Decimal `json:"quantity" binding:"required"`
	Reason         string          `json:"reason" binding:"required,min=1,max=255"`
}

// DeductResult is the structured outcome of a deduction attempt.
// Insufficient available stock is a business result, not an error: Success is
// false, ShortBy carries the shortfall, and nothing was mutated.
type DeductResult struct {
	Success             bool             `json:"success"`
	IngredientName      string           `json:"ingredient_name"`
	Unit                string           `json:"unit"`
	Requested           decimal.Decimal  `json:"requested"`
	AvailableStockAfter decimal.Decimal  `json:"available_stock_after"`
	ShortBy             *decimal.Decimal `json:"short_by,omitempty"`
}

// ReserveStockRequest represents a request to reserve stock for a production batch
type ReserveStockRequest struct {
	IngredientName string          `json:"ingredient_name" binding:"required"`
	Unit           string          `json:"unit" binding:"required"`
	Quantity       decimal.Decimal `json:"quantity" binding:"required"`
	BatchRef       string          `json:"batch_ref" binding:"required"`
}

// UnreserveStockRequest represents a request to release a reservation
type UnreserveStockRequest struct {
	IngredientName string          `json:"ingredient_name" binding:"required"`
	Unit           string          `json:"unit" binding:"required"`
	Quantity       decimal.Decimal `json:"quantity" binding:"required"`
	BatchRef       string          `json:"batch_ref" binding:"required"`
}

// SetThresholdRequest represents a request to update the low-stock threshold
type SetThresholdRequest struct {
	IngredientName string          `json:"ingredient_name" binding:"required"`
	Unit           string          `json:"unit" binding:"required"`
	Threshold      decimal.Decimal `json:"threshold"`
}

// IngredientUsage describes how much of an ingredient one sold unit consumes
type IngredientUsage struct {
	IngredientName string          `json:"ingredient_name" binding:"required"`
	Unit           string          `json:"unit" binding:"required"`
	UsagePerUnit   decimal.Decimal `json:"usage_per_unit" binding:"required"`
}

// ProcessSaleRequest represents a request to record a sale
type ProcessSaleRequest struct {
	UnitsSold int               `json:"units_sold" binding:"required,gt=0"`
	Usage     []IngredientUsage `json:"usage" binding:"required,min=1,dive"`
	Reason    string            `json:"reason"`
}

// SaleShortfall describes one ingredient that could not cover the sale
type SaleShortfall struct {
	IngredientName string          `json:"ingredient_name"`
	Unit           string          `json:"unit"`
	Required       decimal.Decimal `json:"required"`
	Available      decimal.Decimal `json:"available"`
	ShortBy        decimal.Decimal `json:"short_by"`
}

// SaleDeduction describes one applied per-ingredient deduction
type SaleDeduction struct {
	IngredientName string          `json:"ingredient_name"`
	Unit           string          `json:"unit"`
	Deducted       decimal.Decimal `json:"deducted"`
	Remaining      decimal.Decimal `json:"remaining"`
}

// SaleResult is the structured outcome of a sale. Any shortfall fails the
// whole sale with zero mutations; Shortfalls then lists every short ingredient.
type SaleResult struct {
	Success    bool            `json:"success"`
	UnitsSold  int             `json:"units_sold"`
	Deductions []SaleDeduction `json:"deductions,omitempty"`
	Shortfalls []SaleShortfall `json:"shortfalls,omitempty"`
}

// StockStatisticsResponse carries the dashboard counters for the ledger
type StockStatisticsResponse struct {
	TotalRecords  int64 `json:"total_records"`
	ReservedKeys  int64 `json:"reserved_keys"`
	LowStockCount int64 `json:"low_stock_count"`
}

// ReconciliationResponse compares a record's running stock against the sum
// of its signed ledger rows
type ReconciliationResponse struct {
	IngredientName string          `json:"ingredient_name"`
	Unit           string          `json:"unit"`
	CurrentStock   decimal.Decimal `json:"current_stock"`
	LedgerOnHand   decimal.Decimal `json:"ledger_on_hand"`
	Drift          decimal.Decimal `json:"drift"`
	Consistent     bool            `json:"consistent"`
}
