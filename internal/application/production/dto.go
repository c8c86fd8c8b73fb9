package production

import (
	"time"

	"github.com/batchline/backend/internal/domain/production"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductionItemResponse represents a batch ingredient allocation in API responses
type ProductionItemResponse struct {
	ID             uuid.UUID       `json:"id"`
	BatchID        uuid.UUID       `json:"batch_id"`
	IngredientName string          `json:"ingredient_name"`
	Quantity       decimal.Decimal `json:"quantity"`
	Unit           string          `json:"unit"`
	Note           string          `json:"note,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ProductionBatchResponse represents a production batch in API responses
type ProductionBatchResponse struct {
	ID             uuid.UUID                `json:"id"`
	TenantID       uuid.UUID                `json:"tenant_id"`
	BatchNumber    int                      `json:"batch_number"`
	BatchRef       string                   `json:"batch_ref"`
	DateCreated    time.Time                `json:"date_created"`
	Status         string                   `json:"status"`
	Note           string                   `json:"note,omitempty"`
	ProductName    *string                  `json:"product_name,omitempty"`
	OutputQuantity *decimal.Decimal         `json:"output_quantity,omitempty"`
	OutputUnit     *string                  `json:"output_unit,omitempty"`
	CompletedAt    *time.Time               `json:"completed_at,omitempty"`
	Items          []ProductionItemResponse `json:"items"`
	CreatedAt      time.Time                `json:"created_at"`
	UpdatedAt      time.Time                `json:"updated_at"`
}

// ToProductionItemResponse converts a production item to its response DTO
func ToProductionItemResponse(item *production.ProductionItem) ProductionItemResponse {
	return ProductionItemResponse{
		ID:             item.ID,
		BatchID:        item.BatchID,
		IngredientName: item.IngredientName,
		Quantity:       item.Quantity,
		Unit:           item.Unit,
		Note:           item.Note,
		CreatedAt:      item.CreatedAt,
	}
}

// ToProductionBatchResponse converts a production batch to its response DTO
func ToProductionBatchResponse(batch *production.ProductionBatch) ProductionBatchResponse {
	items := make([]ProductionItemResponse, 0, len(batch.Items))
	for i := range batch.Items {
		items = append(items, ToProductionItemResponse(&batch.Items[i]))
	}

	return ProductionBatchResponse{
		ID:             batch.ID,
		TenantID:       batch.TenantID,
		BatchNumber:    batch.BatchNumber,
		BatchRef:       batch.BatchRef(),
		DateCreated:    batch.DateCreated,
		Status:         batch.Status.String(),
		Note:           batch.Note,
		ProductName:    batch.ProductName,
		OutputQuantity: batch.OutputQuantity,
		OutputUnit:     batch.OutputUnit,
		CompletedAt:    batch.CompletedAt,
		Items:          items,
		CreatedAt:      batch.CreatedAt,
		UpdatedAt:      batch.UpdatedAt,
	}
}

// ToProductionBatchResponses converts a slice of production batches
func ToProductionBatchResponses(batches []production.ProductionBatch) []ProductionBatchResponse {
	responses := make([]ProductionBatchResponse, 0, len(batches))
	for i := range batches {
		responses = append(responses, ToProductionBatchResponse(&batches[i]))
	}
	return responses
}

// CreateBatchRequest represents a request to create a production batch
type CreateBatchRequest struct {
	DateCreated *time.Time `json:"date_created"`
	Status      string     `json:"status" binding:"omitempty,oneof=Pending 'In Progress'"`
	Note        string     `json:"note" binding:"omitempty,max=500"`
}

// ItemInput represents one ingredient allocation on a production request
type ItemInput struct {
	IngredientName string          `json:"ingredient_name" binding:"required"`
	Quantity       decimal.Decimal `json:"quantity" binding:"required"`
	Unit           string          `json:"unit" binding:"required"`
	Note           string          `json:"note" binding:"omitempty,max=500"`
}

// AddItemsRequest represents a request to add items to a production batch
type AddItemsRequest struct {
	Items []ItemInput `json:"items" binding:"required,min=1,dive"`
}

// UpdateStatusRequest represents a request to transition a batch's status
type UpdateStatusRequest struct {
	Status         string           `json:"status" binding:"required,oneof=Pending 'In Progress' Completed"`
	ProductName    string           `json:"product_name" binding:"omitempty,max=200"`
	OutputQuantity *decimal.Decimal `json:"output_quantity"`
	OutputUnit     string           `json:"output_unit" binding:"omitempty,max=20"`
}

// BatchListFilter represents filter options for the batch list
type BatchListFilter struct {
	Status    string     `form:"status" binding:"omitempty,oneof=Pending 'In Progress' Completed"`
	StartDate *time.Time `form:"start_date" time_format:"2006-01-02"`
	EndDate   *time.Time `form:"end_date" time_format:"2006-01-02"`
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy   string     `form:"order_by"`
	OrderDir  string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// StatisticsResponse represents production dashboard statistics
type StatisticsResponse struct {
	TotalBatches    int64 `json:"total_batches"`
	PendingCount    int64 `json:"pending_count"`
	InProgressCount int64 `json:"in_progress_count"`
	CompletedCount  int64 `json:"completed_count"`
	OpenItemsCount  int64 `json:"open_items_count"`
}
