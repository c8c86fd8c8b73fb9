package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/batchline/backend/internal/domain/ledger"
	"github.com/batchline/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// lockRetryAttempts is the number of compare-and-retry rounds on an
	// optimistic lock conflict before the error is propagated.
	lockRetryAttempts = 3
)

// LedgerService handles stock ledger business operations: additions,
// deductions, reservations, sales, alerts, and the audit log.
type LedgerService struct {
	scope          TransactionScope
	recordRepo     ledger.StockRecordRepository
	txRepo         ledger.StockTransactionRepository
	eventPublisher shared.EventPublisher
}

// NewLedgerService creates a new LedgerService. The plain repositories serve
// read paths; every mutation runs through the transaction scope.
func NewLedgerService(
	scope TransactionScope,
	recordRepo ledger.StockRecordRepository,
	txRepo ledger.StockTransactionRepository,
) *LedgerService {
	return &LedgerService{
		scope:      scope,
		recordRepo: recordRepo,
		txRepo:     txRepo,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *LedgerService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// publishDomainEvents publishes all domain events from the stock record
func (s *LedgerService) publishDomainEvents(ctx context.Context, record *ledger.StockRecord) {
	if s.eventPublisher == nil {
		return
	}
	events := record.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	record.ClearDomainEvents()
}

// isLockConflict reports whether err is an optimistic lock failure
func isLockConflict(err error) bool {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == "OPTIMISTIC_LOCK_FAILED"
	}
	return false
}

// withLockRetry re-reads and re-applies a read-modify-write closure when the
// optimistic version check fails. Per-key serialization for concurrent writers
// per the shared-resource policy.
func withLockRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < lockRetryAttempts; attempt++ {
		err = fn()
		if err == nil || !isLockConflict(err) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return err
}

// ===================== Query Methods =====================

// GetStockLevel retrieves the record for an ingredient-unit combination
func (s *LedgerService) GetStockLevel(ctx context.Context, tenantID uuid.UUID, ingredientName, unit string) (*StockRecordResponse, error) {
	record, err := s.recordRepo.FindByIngredient(ctx, tenantID, ingredientName, unit)
	if err != nil {
		return nil, err
	}
	response := ToStockRecordResponse(record)
	return &response, nil
}

// ReconcileStock compares a record's running stock against the sum of its
// signed ADD/DEDUCT transactions. Drift means the record and its append-only
// trail disagree; the trail is the audit source of truth.
func (s *LedgerService) ReconcileStock(ctx context.Context, tenantID uuid.UUID, ingredientName, unit string) (*ReconciliationResponse, error) {
	record, err := s.recordRepo.FindByIngredient(ctx, tenantID, ingredientName, unit)
	if err != nil {
		return nil, err
	}

	onHand, err := s.txRepo.SumSignedOnHand(ctx, tenantID, ingredientName, unit)
	if err != nil {
		return nil, err
	}

	drift := record.CurrentStock.Sub(onHand)
	return &ReconciliationResponse{
		IngredientName: record.IngredientName,
		Unit:           record.Unit,
		CurrentStock:   record.CurrentStock,
		LedgerOnHand:   onHand,
		Drift:          drift,
		Consistent:     drift.IsZero(),
	}, nil
}

// GetAllStockLevels retrieves a paginated list of stock records
func (s *LedgerService) GetAllStockLevels(ctx context.Context, tenantID uuid.UUID, filter StockListFilter) ([]StockRecordResponse, int64, error) {
	domainFilter := buildStockFilter(filter)

	records, err := s.recordRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.recordRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToStockRecordResponses(records), total, nil
}

// GetLowStockAlerts retrieves all records at or below their threshold
func (s *LedgerService) GetLowStockAlerts(ctx context.Context, tenantID uuid.UUID) ([]StockRecordResponse, error) {
	records, err := s.recordRepo.FindLowStock(ctx, tenantID, shared.DefaultFilter())
	if err != nil {
		return nil, err
	}
	return ToStockRecordResponses(records), nil
}

// ListTransactions retrieves ledger transactions with filtering
func (s *LedgerService) ListTransactions(ctx context.Context, tenantID uuid.UUID, filter TransactionListFilter) ([]TransactionResponse, int64, error) {
	domainFilter := buildTransactionFilter(filter)

	txs, err := s.txRepo.FindForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.txRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToTransactionResponses(txs), total, nil
}

// GetStockStatistics returns the dashboard counters for the ledger
func (s *LedgerService) GetStockStatistics(ctx context.Context, tenantID uuid.UUID) (*StockStatisticsResponse, error) {
	total, err := s.recordRepo.CountForTenant(ctx, tenantID, shared.Filter{})
	if err != nil {
		return nil, err
	}
	reserved, err := s.recordRepo.CountReserved(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	lowStock, err := s.recordRepo.CountLowStock(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	return &StockStatisticsResponse{
		TotalRecords:  total,
		ReservedKeys:  reserved,
		LowStockCount: lowStock,
	}, nil
}

// ===================== Command Methods =====================

// AddStock increases the on-hand quantity for an ingredient, creating the
// record with the default threshold if absent. Record delta and ADD
// transaction row commit as one unit.
func (s *LedgerService) AddStock(ctx context.Context, tenantID uuid.UUID, req AddStockRequest) (*StockRecordResponse, error) {
	var record *ledger.StockRecord

	err := withLockRetry(ctx, func() error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			var err error
			record, err = PostAdd(ctx, repos, tenantID, req.IngredientName, req.Unit, req.Quantity, req.Reason, req.BatchRef)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, record)

	response := ToStockRecordResponse(record)
	return &response, nil
}

// DeductStock permanently decreases available stock. Insufficient available
// stock yields Success=false with the shortfall and zero mutations.
func (s *LedgerService) DeductStock(ctx context.Context, tenantID uuid.UUID, req DeductStockRequest) (*DeductResult, error) {
	if req.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}

	var record *ledger.StockRecord
	var result *DeductResult

	err := withLockRetry(ctx, func() error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			var err error
			record, err = repos.StockRecords().FindByIngredient(ctx, tenantID, req.IngredientName, req.Unit)
			if err != nil {
				return err
			}

			if !record.CanDeduct(req.Quantity) {
				shortBy := req.Quantity.Sub(record.AvailableStock())
				result = &DeductResult{
					Success:             false,
					IngredientName:      record.IngredientName,
					Unit:                record.Unit,
					Requested:           req.Quantity,
					AvailableStockAfter: record.AvailableStock(),
					ShortBy:             &shortBy,
				}
				return nil
			}

			if err := postDeduct(ctx, repos, record, req.Quantity, req.Reason, nil); err != nil {
				return err
			}

			result = &DeductResult{
				Success:             true,
				IngredientName:      record.IngredientName,
				Unit:                record.Unit,
				Requested:           req.Quantity,
				AvailableStockAfter: record.AvailableStock(),
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if result.Success {
		s.publishDomainEvents(ctx, record)
	}

	return result, nil
}

// ReserveStock places a soft hold for a production batch. A quantity that
// exceeds the available stock fails with INSUFFICIENT_AVAILABLE_STOCK; the
// reserve bound is the hard backstop.
func (s *LedgerService) ReserveStock(ctx context.Context, tenantID uuid.UUID, req ReserveStockRequest) error {
	var record *ledger.StockRecord

	err := withLockRetry(ctx, func() error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			var err error
			record, err = PostReserve(ctx, repos, tenantID, req.IngredientName, req.Unit, req.Quantity, req.BatchRef)
			return err
		})
	})
	if err != nil {
		return err
	}

	s.publishDomainEvents(ctx, record)
	return nil
}

// UnreserveStock releases a previously held quantity back to available
func (s *LedgerService) UnreserveStock(ctx context.Context, tenantID uuid.UUID, req UnreserveStockRequest) error {
	var record *ledger.StockRecord

	err := withLockRetry(ctx, func() error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			var err error
			record, err = PostUnreserve(ctx, repos, tenantID, req.IngredientName, req.Unit, req.Quantity, req.BatchRef)
			return err
		})
	})
	if err != nil {
		return err
	}

	s.publishDomainEvents(ctx, record)
	return nil
}

// SetLowStockThreshold updates the alerting threshold for a record
func (s *LedgerService) SetLowStockThreshold(ctx context.Context, tenantID uuid.UUID, req SetThresholdRequest) (*StockRecordResponse, error) {
	var record *ledger.StockRecord

	err := withLockRetry(ctx, func() error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			var err error
			record, err = repos.StockRecords().FindByIngredient(ctx, tenantID, req.IngredientName, req.Unit)
			if err != nil {
				return err
			}
			if err := record.SetLowStockThreshold(req.Threshold); err != nil {
				return err
			}
			return repos.StockRecords().SaveWithLock(ctx, record)
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, record)

	response := ToStockRecordResponse(record)
	return &response, nil
}

// ProcessSale validates every ingredient requirement against available stock
// before mutating anything. Any shortfall fails the whole sale with the full
// shortfall list and zero side effects; otherwise all deductions apply inside
// one grouped transaction.
func (s *LedgerService) ProcessSale(ctx context.Context, tenantID uuid.UUID, req ProcessSaleRequest) (*SaleResult, error) {
	if req.UnitsSold <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Units sold must be positive")
	}
	if len(req.Usage) == 0 {
		return nil, shared.NewDomainError("INVALID_USAGE", "At least one ingredient usage is required")
	}

	reason := req.Reason
	if reason == "" {
		reason = fmt.Sprintf("Sale of %d units", req.UnitsSold)
	}

	// Duplicate lines for the same ingredient and unit are merged up front so
	// each stock record is loaded and deducted exactly once, and the
	// sufficiency check sees the combined demand.
	usages := make([]IngredientUsage, 0, len(req.Usage))
	byKey := make(map[string]int, len(req.Usage))
	for _, usage := range req.Usage {
		if usage.UsagePerUnit.LessThanOrEqual(decimal.Zero) {
			return nil, shared.NewDomainError("INVALID_QUANTITY",
				fmt.Sprintf("Usage per unit for %s must be positive", usage.IngredientName))
		}
		key := usage.IngredientName + "\x00" + usage.Unit
		if i, ok := byKey[key]; ok {
			usages[i].UsagePerUnit = usages[i].UsagePerUnit.Add(usage.UsagePerUnit)
			continue
		}
		byKey[key] = len(usages)
		usages = append(usages, usage)
	}

	var result *SaleResult
	var mutated []*ledger.StockRecord

	err := withLockRetry(ctx, func() error {
		mutated = mutated[:0]
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			units := decimal.NewFromInt(int64(req.UnitsSold))

			// Phase 1: validate every requirement, collecting all shortfalls.
			records := make([]*ledger.StockRecord, 0, len(usages))
			required := make([]decimal.Decimal, 0, len(usages))
			shortfalls := make([]SaleShortfall, 0)

			for _, usage := range usages {
				need := usage.UsagePerUnit.Mul(units)

				record, err := repos.StockRecords().FindByIngredient(ctx, tenantID, usage.IngredientName, usage.Unit)
				if err != nil {
					if errors.Is(err, shared.ErrNotFound) {
						shortfalls = append(shortfalls, SaleShortfall{
							IngredientName: usage.IngredientName,
							Unit:           usage.Unit,
							Required:       need,
							Available:      decimal.Zero,
							ShortBy:        need,
						})
						continue
					}
					return err
				}

				if record.AvailableStock().LessThan(need) {
					shortfalls = append(shortfalls, SaleShortfall{
						IngredientName: record.IngredientName,
						Unit:           record.Unit,
						Required:       need,
						Available:      record.AvailableStock(),
						ShortBy:        need.Sub(record.AvailableStock()),
					})
					continue
				}

				records = append(records, record)
				required = append(required, need)
			}

			if len(shortfalls) > 0 {
				result = &SaleResult{
					Success:    false,
					UnitsSold:  req.UnitsSold,
					Shortfalls: shortfalls,
				}
				return nil
			}

			// Phase 2: apply every deduction in the grouped transaction.
			deductions := make([]SaleDeduction, 0, len(records))
			for i, record := range records {
				if err := postDeduct(ctx, repos, record, required[i], reason, nil); err != nil {
					return err
				}
				deductions = append(deductions, SaleDeduction{
					IngredientName: record.IngredientName,
					Unit:           record.Unit,
					Deducted:       required[i],
					Remaining:      record.AvailableStock(),
				})
				mutated = append(mutated, record)
			}

			result = &SaleResult{
				Success:    true,
				UnitsSold:  req.UnitsSold,
				Deductions: deductions,
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	for _, record := range mutated {
		s.publishDomainEvents(ctx, record)
	}

	return result, nil
}

// ===================== Shared Posting Primitives =====================
//
// PostAdd/PostReserve/PostUnreserve/PostConversion are the ledger mutations
// shared with the warehouse and production services, which invoke them inside
// their own grouped transactions so batch rows and ledger rows commit together.

// PostAdd increases the on-hand quantity for a key, creating the record if
// absent, and appends the ADD transaction row.
func PostAdd(ctx context.Context, repos TransactionalRepositories, tenantID uuid.UUID, ingredientName, unit string, quantity decimal.Decimal, reason string, batchRef *string) (*ledger.StockRecord, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}

	record, err := repos.StockRecords().GetOrCreate(ctx, tenantID, ingredientName, unit)
	if err != nil {
		return nil, err
	}

	balanceBefore := record.CurrentStock
	if err := record.AddStock(quantity, reason, batchRef); err != nil {
		return nil, err
	}
	if err := repos.StockRecords().SaveWithLock(ctx, record); err != nil {
		return nil, err
	}

	tx, err := ledger.NewStockTransaction(
		tenantID, record.ID, record.IngredientName, record.Unit,
		ledger.TransactionTypeAdd,
		quantity, balanceBefore, record.CurrentStock,
		reason,
	)
	if err != nil {
		return nil, err
	}
	if batchRef != nil {
		tx.WithBatchRef(*batchRef)
	}
	if err := repos.StockTransactions().Create(ctx, tx); err != nil {
		return nil, err
	}

	return record, nil
}

// PostReserve places a soft hold on an existing record and appends the
// RESERVE transaction row. Reserving an unknown key is ErrNotFound.
func PostReserve(ctx context.Context, repos TransactionalRepositories, tenantID uuid.UUID, ingredientName, unit string, quantity decimal.Decimal, batchRef string) (*ledger.StockRecord, error) {
	record, err := repos.StockRecords().FindByIngredient(ctx, tenantID, ingredientName, unit)
	if err != nil {
		return nil, err
	}

	balanceBefore := record.CurrentStock
	if err := record.ReserveStock(quantity, batchRef); err != nil {
		return nil, err
	}
	if err := repos.StockRecords().SaveWithLock(ctx, record); err != nil {
		return nil, err
	}

	tx, err := ledger.NewStockTransaction(
		tenantID, record.ID, record.IngredientName, record.Unit,
		ledger.TransactionTypeReserve,
		quantity, balanceBefore, record.CurrentStock,
		fmt.Sprintf("Reserved for %s", batchRef),
	)
	if err != nil {
		return nil, err
	}
	tx.WithBatchRef(batchRef)
	if err := repos.StockTransactions().Create(ctx, tx); err != nil {
		return nil, err
	}

	return record, nil
}

// PostUnreserve releases a held quantity and appends the UNRESERVE
// transaction row.
func PostUnreserve(ctx context.Context, repos TransactionalRepositories, tenantID uuid.UUID, ingredientName, unit string, quantity decimal.Decimal, batchRef string) (*ledger.StockRecord, error) {
	record, err := repos.StockRecords().FindByIngredient(ctx, tenantID, ingredientName, unit)
	if err != nil {
		return nil, err
	}

	balanceBefore := record.CurrentStock
	if err := record.UnreserveStock(quantity, batchRef); err != nil {
		return nil, err
	}
	if err := repos.StockRecords().SaveWithLock(ctx, record); err != nil {
		return nil, err
	}

	tx, err := ledger.NewStockTransaction(
		tenantID, record.ID, record.IngredientName, record.Unit,
		ledger.TransactionTypeUnreserve,
		quantity, balanceBefore, record.CurrentStock,
		fmt.Sprintf("Released reservation for %s", batchRef),
	)
	if err != nil {
		return nil, err
	}
	tx.WithBatchRef(batchRef)
	if err := repos.StockTransactions().Create(ctx, tx); err != nil {
		return nil, err
	}

	return record, nil
}

// PostConversion turns a reservation into a permanent deduction: the held
// quantity is released and the same quantity deducted, with UNRESERVE and
// DEDUCT rows referencing the batch. The only path that converts a hold into
// a stock decrease.
func PostConversion(ctx context.Context, repos TransactionalRepositories, tenantID uuid.UUID, ingredientName, unit string, quantity decimal.Decimal, reason, batchRef string) (*ledger.StockRecord, error) {
	record, err := repos.StockRecords().FindByIngredient(ctx, tenantID, ingredientName, unit)
	if err != nil {
		return nil, err
	}

	balanceBefore := record.CurrentStock
	if err := record.UnreserveStock(quantity, batchRef); err != nil {
		return nil, err
	}

	unreserveTx, err := ledger.NewStockTransaction(
		tenantID, record.ID, record.IngredientName, record.Unit,
		ledger.TransactionTypeUnreserve,
		quantity, balanceBefore, record.CurrentStock,
		reason,
	)
	if err != nil {
		return nil, err
	}
	unreserveTx.WithBatchRef(batchRef)

	if err := postDeduct(ctx, repos, record, quantity, reason, &batchRef); err != nil {
		return nil, err
	}

	// postDeduct saved the record; the unreserve row joins the same transaction.
	if err := repos.StockTransactions().Create(ctx, unreserveTx); err != nil {
		return nil, err
	}

	return record, nil
}

// postDeduct applies a deduction to an already-loaded record, saves it with
// the version check, and appends the DEDUCT transaction row.
func postDeduct(ctx context.Context, repos TransactionalRepositories, record *ledger.StockRecord, quantity decimal.Decimal, reason string, batchRef *string) error {
	balanceBefore := record.CurrentStock
	if err := record.DeductStock(quantity, reason); err != nil {
		return err
	}
	if err := repos.StockRecords().SaveWithLock(ctx, record); err != nil {
		return err
	}

	tx, err := ledger.NewStockTransaction(
		record.TenantID, record.ID, record.IngredientName, record.Unit,
		ledger.TransactionTypeDeduct,
		quantity, balanceBefore, record.CurrentStock,
		reason,
	)
	if err != nil {
		return err
	}
	if batchRef != nil {
		tx.WithBatchRef(*batchRef)
	}
	return repos.StockTransactions().Create(ctx, tx)
}

// buildStockFilter maps the API filter onto the shared repository filter
func buildStockFilter(filter StockListFilter) shared.Filter {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "ingredient_name"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "asc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
	if filter.LowStock != nil && *filter.LowStock {
		domainFilter.Filters["low_stock"] = true
	}
	if filter.HasStock != nil {
		if *filter.HasStock {
			domainFilter.Filters["has_stock"] = true
		} else {
			domainFilter.Filters["no_stock"] = true
		}
	}
	return domainFilter
}

// buildTransactionFilter maps the API filter onto the shared repository filter
func buildTransactionFilter(filter TransactionListFilter) shared.Filter {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "transaction_date"
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
	if filter.IngredientName != "" {
		domainFilter.Filters["ingredient_name"] = filter.IngredientName
	}
	if filter.Unit != "" {
		domainFilter.Filters["unit"] = filter.Unit
	}
	if filter.TransactionType != "" {
		domainFilter.Filters["transaction_type"] = filter.TransactionType
	}
	if filter.BatchRef != "" {
		domainFilter.Filters["batch_ref"] = filter.BatchRef
	}
	if filter.StartDate != nil {
		domainFilter.Filters["start_date"] = *filter.StartDate
	}
	if filter.EndDate != nil {
		domainFilter.Filters["end_date"] = *filter.EndDate
	}
	return domainFilter
}
