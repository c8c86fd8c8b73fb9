package warehouse

import (
	"time"

	"github.com/batchline/backend/internal/domain/warehouse"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WarehouseItemResponse represents a batch line item in API responses
type WarehouseItemResponse struct {
	ID             uuid.UUID       `json:"id"`
	BatchID        uuid.UUID       `json:"batch_id"`
	IngredientName string          `json:"ingredient_name"`
	Quantity       decimal.Decimal `json:"quantity"`
	Unit           string          `json:"unit"`
	CostPerUnit    decimal.Decimal `json:"cost_per_unit"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	CreatedAt      time.Time       `json:"created_at"`
}

// WarehouseBatchResponse represents an intake batch in API responses
type WarehouseBatchResponse struct {
	ID          uuid.UUID               `json:"id"`
	TenantID    uuid.UUID               `json:"tenant_id"`
	BatchNumber int                     `json:"batch_number"`
	DateAdded   time.Time               `json:"date_added"`
	Note        string                  `json:"note,omitempty"`
	Items       []WarehouseItemResponse `json:"items"`
	TotalValue  decimal.Decimal         `json:"total_value"`
	ItemCount   int                     `json:"item_count"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

// ToWarehouseItemResponse converts a warehouse item to its response DTO
func ToWarehouseItemResponse(item *warehouse.WarehouseItem) WarehouseItemResponse {
	return WarehouseItemResponse{
		ID:             item.ID,
		BatchID:        item.BatchID,
		IngredientName: item.IngredientName,
		Quantity:       item.Quantity,
		Unit:           item.Unit,
		CostPerUnit:    item.CostPerUnit,
		TotalCost:      item.TotalCost,
		CreatedAt:      item.CreatedAt,
	}
}

// ToWarehouseBatchResponse converts a warehouse batch to its response DTO
func ToWarehouseBatchResponse(batch *warehouse.WarehouseBatch) WarehouseBatchResponse {
	items := make([]WarehouseItemResponse, 0, len(batch.Items))
	for i := range batch.Items {
		items = append(items, ToWarehouseItemResponse(&batch.Items[i]))
	}

	return WarehouseBatchResponse{
		ID:          batch.ID,
		TenantID:    batch.TenantID,
		BatchNumber: batch.BatchNumber,
		DateAdded:   batch.DateAdded,
		Note:        batch.Note,
		Items:       items,
		TotalValue:  batch.TotalValue(),
		ItemCount:   batch.ItemCount(),
		CreatedAt:   batch.CreatedAt,
		UpdatedAt:   batch.UpdatedAt,
	}
}

// ToWarehouseBatchResponses converts a slice of warehouse batches
func ToWarehouseBatchResponses(batches []warehouse.WarehouseBatch) []WarehouseBatchResponse {
	responses := make([]WarehouseBatchResponse, 0, len(batches))
	for i := range batches {
		responses = append(responses, ToWarehouseBatchResponse(&batches[i]))
	}
	return responses
}

// CreateBatchRequest represents a request to create an intake batch
type CreateBatchRequest struct {
	DateAdded *time.Time `json:"date_added"`
	Note      string     `json:"note" binding:"omitempty,max=500"`
}

// ItemInput represents one purchased ingredient line on an intake request
type ItemInput struct {
	IngredientName string          `json:"ingredient_name" binding:"required"`
	Quantity       decimal.Decimal `json:"quantity" binding:"required"`
	Unit           string          `json:"unit" binding:"required"`
	CostPerUnit    decimal.Decimal `json:"cost_per_unit"`
}

// AddItemsRequest represents a request to add items to an intake batch
type AddItemsRequest struct {
	Items []ItemInput `json:"items" binding:"required,min=1,dive"`
}

// BatchListFilter represents filter options for the batch list
type BatchListFilter struct {
	StartDate *time.Time `form:"start_date" time_format:"2006-01-02"`
	EndDate   *time.Time `form:"end_date" time_format:"2006-01-02"`
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy   string     `form:"order_by"`
	OrderDir  string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// StatisticsResponse represents warehouse dashboard statistics
type StatisticsResponse struct {
	TotalBatches   int64           `json:"total_batches"`
	TotalItems     int64           `json:"total_items"`
	TotalValue     decimal.Decimal `json:"total_value"`
	LastIntakeDate *time.Time      `json:"last_intake_date,omitempty"`
}
