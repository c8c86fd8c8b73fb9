package persistence

import (
	"context"

	ledgerapp "github.com/batchline/backend/internal/application/ledger"
	"github.com/batchline/backend/internal/domain/ledger"
	"github.com/batchline/backend/internal/domain/production"
	"github.com/batchline/backend/internal/domain/shared"
	"github.com/batchline/backend/internal/domain/warehouse"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// SetOutboxEventSaver propagates an outbox saver to the stock record
// repositories handed out inside each transaction, so outbox rows commit
// or roll back together with the stock mutations.
func (s *GormTransactionScope) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	s.outboxSaver = saver
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos ledgerapp.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx, outboxSaver: s.outboxSaver}
		return fn(repos)
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx          *gorm.DB
	outboxSaver shared.OutboxEventSaver
}

// StockRecords returns the stock record repository scoped to the current transaction.
func (r *gormTransactionalRepositories) StockRecords() ledger.StockRecordRepository {
	repo := NewGormStockRecordRepository(r.tx)
	if r.outboxSaver != nil {
		repo.SetOutboxEventSaver(r.outboxSaver)
	}
	return repo
}

// StockTransactions returns the transaction log repository scoped to the current transaction.
func (r *gormTransactionalRepositories) StockTransactions() ledger.StockTransactionRepository {
	return NewGormStockTransactionRepository(r.tx)
}

// WarehouseBatches returns the warehouse batch repository scoped to the current transaction.
func (r *gormTransactionalRepositories) WarehouseBatches() warehouse.WarehouseBatchRepository {
	return NewGormWarehouseBatchRepository(r.tx)
}

// ProductionBatches returns the production batch repository scoped to the current transaction.
func (r *gormTransactionalRepositories) ProductionBatches() production.ProductionBatchRepository {
	return NewGormProductionBatchRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ ledgerapp.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ ledgerapp.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
