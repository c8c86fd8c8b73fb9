package warehouse

import (
	"context"
	"fmt"
	"time"

	ledgerapp "github.com/batchline/backend/internal/application/ledger"
	"github.com/batchline/backend/internal/domain/ledger"
	"github.com/batchline/backend/internal/domain/shared"
	"github.com/batchline/backend/internal/domain/warehouse"
	"github.com/google/uuid"
)

// WarehouseService handles intake batch operations. Posting items to a batch
// is the only write path into the ledger from this service; deleting a batch
// never reverses what it posted.
type WarehouseService struct {
	scope          ledgerapp.TransactionScope
	batchRepo      warehouse.WarehouseBatchRepository
	eventPublisher shared.EventPublisher
}

// NewWarehouseService creates a new WarehouseService
func NewWarehouseService(scope ledgerapp.TransactionScope, batchRepo warehouse.WarehouseBatchRepository) *WarehouseService {
	return &WarehouseService{
		scope:     scope,
		batchRepo: batchRepo,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *WarehouseService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *WarehouseService) publishDomainEvents(ctx context.Context, batch *warehouse.WarehouseBatch) {
	if s.eventPublisher == nil {
		return
	}
	events := batch.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	batch.ClearDomainEvents()
}

// GetNextBatchNumber previews the number the next batch will receive. The
// actual allocation claims from the counter inside the create transaction,
// so a concurrent create can invalidate the preview.
func (s *WarehouseService) GetNextBatchNumber(ctx context.Context, tenantID uuid.UUID) (int, error) {
	return s.batchRepo.NextBatchNumber(ctx, tenantID)
}

// CreateBatch persists an empty intake batch under the next sequential number
func (s *WarehouseService) CreateBatch(ctx context.Context, tenantID uuid.UUID, req CreateBatchRequest) (*WarehouseBatchResponse, error) {
	dateAdded := time.Now()
	if req.DateAdded != nil {
		dateAdded = *req.DateAdded
	}

	var batch *warehouse.WarehouseBatch

	err := s.scope.Execute(ctx, func(repos ledgerapp.TransactionalRepositories) error {
		number, err := repos.WarehouseBatches().AllocateBatchNumber(ctx, tenantID)
		if err != nil {
			return err
		}

		batch, err = warehouse.NewWarehouseBatch(tenantID, number, dateAdded, req.Note)
		if err != nil {
			return err
		}

		return repos.WarehouseBatches().Save(ctx, batch)
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, batch)

	response := ToWarehouseBatchResponse(batch)
	return &response, nil
}

// AddItemsToBatch appends line items to a batch and posts the matching
// ledger additions. Item rows, record deltas, and ADD transaction rows commit
// or roll back as one unit.
func (s *WarehouseService) AddItemsToBatch(ctx context.Context, tenantID, batchID uuid.UUID, req AddItemsRequest) (*WarehouseBatchResponse, error) {
	if len(req.Items) == 0 {
		return nil, shared.NewDomainError("INVALID_ITEMS", "At least one item is required")
	}

	var batch *warehouse.WarehouseBatch
	var records []*ledger.StockRecord

	err := s.scope.Execute(ctx, func(repos ledgerapp.TransactionalRepositories) error {
		records = records[:0]

		var err error
		batch, err = repos.WarehouseBatches().FindByIDForTenant(ctx, tenantID, batchID)
		if err != nil {
			return err
		}

		reason := fmt.Sprintf("Warehouse batch #%d intake", batch.BatchNumber)
		batchRef := fmt.Sprintf("WB-%d", batch.BatchNumber)

		for _, input := range req.Items {
			if _, err := batch.AddItem(input.IngredientName, input.Quantity, input.Unit, input.CostPerUnit); err != nil {
				return err
			}

			record, err := ledgerapp.PostAdd(ctx, repos, tenantID, input.IngredientName, input.Unit, input.Quantity, reason, &batchRef)
			if err != nil {
				return err
			}
			records = append(records, record)
		}

		batch.AddDomainEvent(warehouse.NewWarehouseItemsAddedEvent(batch, len(req.Items)))

		return repos.WarehouseBatches().Save(ctx, batch)
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, batch)
	if s.eventPublisher != nil {
		for _, record := range records {
			events := record.GetDomainEvents()
			if len(events) > 0 {
				_ = s.eventPublisher.Publish(ctx, events...)
				record.ClearDomainEvents()
			}
		}
	}

	response := ToWarehouseBatchResponse(batch)
	return &response, nil
}

// DeleteBatch removes a batch and its items. Posted ledger additions stay;
// the audit trail is final.
func (s *WarehouseService) DeleteBatch(ctx context.Context, tenantID, batchID uuid.UUID) error {
	var batch *warehouse.WarehouseBatch

	err := s.scope.Execute(ctx, func(repos ledgerapp.TransactionalRepositories) error {
		var err error
		batch, err = repos.WarehouseBatches().FindByIDForTenant(ctx, tenantID, batchID)
		if err != nil {
			return err
		}

		return repos.WarehouseBatches().DeleteForTenant(ctx, tenantID, batchID)
	})
	if err != nil {
		return err
	}

	if s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx, warehouse.NewWarehouseBatchDeletedEvent(batch))
	}

	return nil
}

// GetBatch retrieves a batch with its items
func (s *WarehouseService) GetBatch(ctx context.Context, tenantID, batchID uuid.UUID) (*WarehouseBatchResponse, error) {
	batch, err := s.batchRepo.FindByIDForTenant(ctx, tenantID, batchID)
	if err != nil {
		return nil, err
	}

	response := ToWarehouseBatchResponse(batch)
	return &response, nil
}

// ListBatches retrieves a paginated list of batches
func (s *WarehouseService) ListBatches(ctx context.Context, tenantID uuid.UUID, filter BatchListFilter) ([]WarehouseBatchResponse, int64, error) {
	domainFilter := buildBatchFilter(filter)

	var batches []warehouse.WarehouseBatch
	var err error
	if filter.StartDate != nil && filter.EndDate != nil {
		batches, err = s.batchRepo.FindByDateRange(ctx, tenantID, *filter.StartDate, *filter.EndDate, domainFilter)
	} else {
		batches, err = s.batchRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	}
	if err != nil {
		return nil, 0, err
	}

	total, err := s.batchRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToWarehouseBatchResponses(batches), total, nil
}

// GetStatistics returns the warehouse dashboard counters
func (s *WarehouseService) GetStatistics(ctx context.Context, tenantID uuid.UUID) (*StatisticsResponse, error) {
	total, err := s.batchRepo.CountForTenant(ctx, tenantID, shared.Filter{})
	if err != nil {
		return nil, err
	}
	items, err := s.batchRepo.CountItemsForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	value, err := s.batchRepo.SumTotalValueForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	lastIntake, err := s.batchRepo.LastIntakeDate(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	return &StatisticsResponse{
		TotalBatches:   total,
		TotalItems:     items,
		TotalValue:     value,
		LastIntakeDate: lastIntake,
	}, nil
}

// buildBatchFilter maps the API filter onto the shared repository filter
func buildBatchFilter(filter BatchListFilter) shared.Filter {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "batch_number"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	return shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
	}
}
