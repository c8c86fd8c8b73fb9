package production

import (
	"context"
	"fmt"
	"time"

	ledgerapp "github.com/batchline/backend/internal/application/ledger"
	"github.com/batchline/backend/internal/domain/ledger"
	"github.com/batchline/backend/internal/domain/production"
	"github.com/batchline/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductionService handles production batch lifecycle operations. Items hold
// ledger reservations from the moment they are added; completion converts
// them to deductions and deletion of a non-completed batch releases them.
type ProductionService struct {
	scope          ledgerapp.TransactionScope
	batchRepo      production.ProductionBatchRepository
	eventPublisher shared.EventPublisher
}

// NewProductionService creates a new ProductionService
func NewProductionService(scope ledgerapp.TransactionScope, batchRepo production.ProductionBatchRepository) *ProductionService {
	return &ProductionService{
		scope:     scope,
		batchRepo: batchRepo,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *ProductionService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *ProductionService) publishDomainEvents(ctx context.Context, batch *production.ProductionBatch) {
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

func (s *ProductionService) publishRecordEvents(ctx context.Context, records []*ledger.StockRecord) {
	if s.eventPublisher == nil {
		return
	}
	for _, record := range records {
		events := record.GetDomainEvents()
		if len(events) > 0 {
			_ = s.eventPublisher.Publish(ctx, events...)
			record.ClearDomainEvents()
		}
	}
}

// GetNextBatchNumber previews the number the next batch will receive
func (s *ProductionService) GetNextBatchNumber(ctx context.Context, tenantID uuid.UUID) (int, error) {
	return s.batchRepo.NextBatchNumber(ctx, tenantID)
}

// CreateBatch persists a new batch under the next sequential number
func (s *ProductionService) CreateBatch(ctx context.Context, tenantID uuid.UUID, req CreateBatchRequest) (*ProductionBatchResponse, error) {
	dateCreated := time.Now()
	if req.DateCreated != nil {
		dateCreated = *req.DateCreated
	}

	var batch *production.ProductionBatch

	err := s.scope.Execute(ctx, func(repos ledgerapp.TransactionalRepositories) error {
		number, err := repos.ProductionBatches().AllocateBatchNumber(ctx, tenantID)
		if err != nil {
			return err
		}

		batch, err = production.NewProductionBatch(tenantID, number, dateCreated, production.ProductionStatus(req.Status), req.Note)
		if err != nil {
			return err
		}

		return repos.ProductionBatches().Save(ctx, batch)
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, batch)

	response := ToProductionBatchResponse(batch)
	return &response, nil
}

// AddItemsToBatch persists ingredient allocations and reserves each quantity
// in the ledger. A reservation exceeding available stock aborts the whole
// call; item rows and reservations commit or roll back together.
func (s *ProductionService) AddItemsToBatch(ctx context.Context, tenantID, batchID uuid.UUID, req AddItemsRequest) (*ProductionBatchResponse, error) {
	if len(req.Items) == 0 {
		return nil, shared.NewDomainError("INVALID_ITEMS", "At least one item is required")
	}

	var batch *production.ProductionBatch
	var records []*ledger.StockRecord

	err := s.scope.Execute(ctx, func(repos ledgerapp.TransactionalRepositories) error {
		records = records[:0]

		var err error
		batch, err = repos.ProductionBatches().FindByIDForTenant(ctx, tenantID, batchID)
		if err != nil {
			return err
		}

		batchRef := batch.BatchRef()

		for _, input := range req.Items {
			if _, err := batch.AddItem(input.IngredientName, input.Quantity, input.Unit, input.Note); err != nil {
				return err
			}

			record, err := ledgerapp.PostReserve(ctx, repos, tenantID, input.IngredientName, input.Unit, input.Quantity, batchRef)
			if err != nil {
				return err
			}
			records = append(records, record)
		}

		batch.AddDomainEvent(production.NewProductionItemsAddedEvent(batch, len(req.Items)))

		return repos.ProductionBatches().Save(ctx, batch)
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, batch)
	s.publishRecordEvents(ctx, records)

	response := ToProductionBatchResponse(batch)
	return &response, nil
}

// UpdateBatchStatus transitions the batch. On completion every item's
// reservation is converted to a deduction in the same grouped transaction;
// a conversion failure rolls back the status change and every ledger row.
func (s *ProductionService) UpdateBatchStatus(ctx context.Context, tenantID, batchID uuid.UUID, req UpdateStatusRequest) (*ProductionBatchResponse, error) {
	newStatus := production.ProductionStatus(req.Status)
	if !newStatus.IsValid() {
		return nil, shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Invalid production status: %s", req.Status))
	}

	var output *production.ProductionOutput
	if req.ProductName != "" || req.OutputQuantity != nil || req.OutputUnit != "" {
		output = &production.ProductionOutput{
			ProductName: req.ProductName,
			OutputUnit:  req.OutputUnit,
		}
		if req.OutputQuantity != nil {
			output.OutputQuantity = *req.OutputQuantity
		}
	}

	var batch *production.ProductionBatch
	var records []*ledger.StockRecord

	err := s.scope.Execute(ctx, func(repos ledgerapp.TransactionalRepositories) error {
		records = records[:0]

		var err error
		batch, err = repos.ProductionBatches().FindByIDForTenant(ctx, tenantID, batchID)
		if err != nil {
			return err
		}

		if err := batch.UpdateStatus(newStatus, output); err != nil {
			return err
		}

		if newStatus == production.ProductionStatusCompleted {
			reason := fmt.Sprintf("Production batch #%d completed", batch.BatchNumber)
			batchRef := batch.BatchRef()

			for key, quantity := range batch.TotalReservedQuantityByIngredient() {
				record, err := ledgerapp.PostConversion(ctx, repos, tenantID, key.Name, key.Unit, quantity, reason, batchRef)
				if err != nil {
					return err
				}
				records = append(records, record)
			}
		}

		return repos.ProductionBatches().SaveWithLock(ctx, batch)
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, batch)
	s.publishRecordEvents(ctx, records)

	response := ToProductionBatchResponse(batch)
	return &response, nil
}

// DeleteBatch removes a batch and its items. A non-completed batch releases
// every reservation and deletes its RESERVE/UNRESERVE trail; a completed
// batch keeps its ledger rows because the deductions are final.
func (s *ProductionService) DeleteBatch(ctx context.Context, tenantID, batchID uuid.UUID) error {
	var batch *production.ProductionBatch
	var records []*ledger.StockRecord
	var reservationsReleased bool

	err := s.scope.Execute(ctx, func(repos ledgerapp.TransactionalRepositories) error {
		records = records[:0]
		reservationsReleased = false

		var err error
		batch, err = repos.ProductionBatches().FindByIDForTenant(ctx, tenantID, batchID)
		if err != nil {
			return err
		}

		if !batch.IsCompleted() {
			batchRef := batch.BatchRef()

			for key, quantity := range batch.TotalReservedQuantityByIngredient() {
				record, err := ledgerapp.PostUnreserve(ctx, repos, tenantID, key.Name, key.Unit, quantity, batchRef)
				if err != nil {
					return err
				}
				records = append(records, record)
			}

			if err := repos.StockTransactions().DeleteReservationTrail(ctx, tenantID, batchRef); err != nil {
				return err
			}
			reservationsReleased = len(batch.Items) > 0
		}

		return repos.ProductionBatches().DeleteForTenant(ctx, tenantID, batchID)
	})
	if err != nil {
		return err
	}

	s.publishRecordEvents(ctx, records)
	if s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx, production.NewProductionBatchDeletedEvent(batch, reservationsReleased))
	}

	return nil
}

// GetBatch retrieves a batch with its items
func (s *ProductionService) GetBatch(ctx context.Context, tenantID, batchID uuid.UUID) (*ProductionBatchResponse, error) {
	batch, err := s.batchRepo.FindByIDForTenant(ctx, tenantID, batchID)
	if err != nil {
		return nil, err
	}

	response := ToProductionBatchResponse(batch)
	return &response, nil
}

// ListBatches retrieves a paginated list of batches
func (s *ProductionService) ListBatches(ctx context.Context, tenantID uuid.UUID, filter BatchListFilter) ([]ProductionBatchResponse, int64, error) {
	domainFilter := buildBatchFilter(filter)

	var batches []production.ProductionBatch
	var err error
	switch {
	case filter.Status != "":
		batches, err = s.batchRepo.FindByStatus(ctx, tenantID, production.ProductionStatus(filter.Status), domainFilter)
	case filter.StartDate != nil && filter.EndDate != nil:
		batches, err = s.batchRepo.FindByDateRange(ctx, tenantID, *filter.StartDate, *filter.EndDate, domainFilter)
	default:
		batches, err = s.batchRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	}
	if err != nil {
		return nil, 0, err
	}

	total, err := s.batchRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToProductionBatchResponses(batches), total, nil
}

// GetStatistics returns the production dashboard counters
func (s *ProductionService) GetStatistics(ctx context.Context, tenantID uuid.UUID) (*StatisticsResponse, error) {
	total, err := s.batchRepo.CountForTenant(ctx, tenantID, shared.Filter{})
	if err != nil {
		return nil, err
	}
	pending, err := s.batchRepo.CountByStatus(ctx, tenantID, production.ProductionStatusPending)
	if err != nil {
		return nil, err
	}
	inProgress, err := s.batchRepo.CountByStatus(ctx, tenantID, production.ProductionStatusInProgress)
	if err != nil {
		return nil, err
	}
	completed, err := s.batchRepo.CountByStatus(ctx, tenantID, production.ProductionStatusCompleted)
	if err != nil {
		return nil, err
	}
	openItems, err := s.batchRepo.CountOpenItems(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	return &StatisticsResponse{
		TotalBatches:    total,
		PendingCount:    pending,
		InProgressCount: inProgress,
		CompletedCount:  completed,
		OpenItemsCount:  openItems,
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

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Filters:  make(map[string]interface{}),
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	return domainFilter
}
