package ledger

import (
	"context"

	"github.com/batchline/backend/internal/domain/ledger"
	"github.com/batchline/backend/internal/domain/production"
	"github.com/batchline/backend/internal/domain/warehouse"
)

// TransactionScope provides transactional access to the ledger repositories.
// Every multi-write business operation (posting intake items plus their
// ledger additions, converting a batch's reservations on completion) runs
// inside Execute so all rows commit or roll back as one unit.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories that
// participate in a grouped ledger operation. All repositories returned share
// the same underlying database transaction.
//
// Aggregate boundary notes:
//   - StockRecords: the StockRecord aggregate root; every on-hand/reserved
//     mutation goes through it.
//   - StockTransactions: append-only audit rows, written in the same
//     transaction as the record mutation they describe.
//   - WarehouseBatches / ProductionBatches: the batch aggregates whose
//     operations post to the ledger.
type TransactionalRepositories interface {
	// StockRecords returns the stock record repository scoped to the current transaction
	StockRecords() ledger.StockRecordRepository
	// StockTransactions returns the transaction log repository scoped to the current transaction
	StockTransactions() ledger.StockTransactionRepository
	// WarehouseBatches returns the warehouse batch repository scoped to the current transaction
	WarehouseBatches() warehouse.WarehouseBatchRepository
	// ProductionBatches returns the production batch repository scoped to the current transaction
	ProductionBatches() production.ProductionBatchRepository
}

// NoOpTransactionScope is a transaction scope that doesn't use real
// transactions. Useful for unit tests with mock repositories.
type NoOpTransactionScope struct {
	recordRepo     ledger.StockRecordRepository
	txRepo         ledger.StockTransactionRepository
	warehouseRepo  warehouse.WarehouseBatchRepository
	productionRepo production.ProductionBatchRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	recordRepo ledger.StockRecordRepository,
	txRepo ledger.StockTransactionRepository,
	warehouseRepo warehouse.WarehouseBatchRepository,
	productionRepo production.ProductionBatchRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		recordRepo:     recordRepo,
		txRepo:         txRepo,
		warehouseRepo:  warehouseRepo,
		productionRepo: productionRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// StockRecords returns the stock record repository.
func (s *NoOpTransactionScope) StockRecords() ledger.StockRecordRepository {
	return s.recordRepo
}

// StockTransactions returns the transaction log repository.
func (s *NoOpTransactionScope) StockTransactions() ledger.StockTransactionRepository {
	return s.txRepo
}

// WarehouseBatches returns the warehouse batch repository.
func (s *NoOpTransactionScope) WarehouseBatches() warehouse.WarehouseBatchRepository {
	return s.warehouseRepo
}

// ProductionBatches returns the production batch repository.
func (s *NoOpTransactionScope) ProductionBatches() production.ProductionBatchRepository {
	return s.productionRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
