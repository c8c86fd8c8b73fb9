package scheduler

import (
	"context"
	"fmt"
	"testing"
	"time"

	archiveapp "github.com/batchline/backend/internal/application/archive"
	"github.com/batchline/backend/internal/domain/ledger"
	"github.com/batchline/backend/internal/domain/shared"
	"github.com/batchline/backend/internal/infrastructure/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStockRecordRepo serves a fixed low-stock result set page by page.
type fakeStockRecordRepo struct {
	lowStock []ledger.StockRecord
	findErr  error
}

func (f *fakeStockRecordRepo) FindByID(ctx context.Context, id uuid.UUID) (*ledger.StockRecord, error) {
	return nil, shared.ErrNotFound
}

func (f *fakeStockRecordRepo) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.StockRecord, error) {
	return nil, shared.ErrNotFound
}

func (f *fakeStockRecordRepo) FindByIngredient(ctx context.Context, tenantID uuid.UUID, ingredientName, unit string) (*ledger.StockRecord, error) {
	return nil, shared.ErrNotFound
}

func (f *fakeStockRecordRepo) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]ledger.StockRecord, error) {
	return nil, nil
}

func (f *fakeStockRecordRepo) FindLowStock(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]ledger.StockRecord, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	start := (filter.Page - 1) * filter.PageSize
	if start >= len(f.lowStock) {
		return nil, nil
	}
	end := start + filter.PageSize
	if end > len(f.lowStock) {
		end = len(f.lowStock)
	}
	return f.lowStock[start:end], nil
}

func (f *fakeStockRecordRepo) Save(ctx context.Context, record *ledger.StockRecord) error {
	return nil
}

func (f *fakeStockRecordRepo) SaveWithLock(ctx context.Context, record *ledger.StockRecord) error {
	return nil
}

func (f *fakeStockRecordRepo) GetOrCreate(ctx context.Context, tenantID uuid.UUID, ingredientName, unit string) (*ledger.StockRecord, error) {
	return ledger.NewStockRecord(tenantID, ingredientName, unit)
}

func (f *fakeStockRecordRepo) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	return 0, nil
}

func (f *fakeStockRecordRepo) CountLowStock(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return int64(len(f.lowStock)), nil
}

func (f *fakeStockRecordRepo) CountReserved(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return 0, nil
}

// fakeStockTxRepo serves a fixed transaction window for archive tests.
type fakeStockTxRepo struct {
	txs []ledger.StockTransaction
}

func (f *fakeStockTxRepo) FindByID(ctx context.Context, id uuid.UUID) (*ledger.StockTransaction, error) {
	return nil, shared.ErrNotFound
}

func (f *fakeStockTxRepo) FindForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]ledger.StockTransaction, error) {
	return f.txs, nil
}

func (f *fakeStockTxRepo) FindByIngredient(ctx context.Context, tenantID uuid.UUID, ingredientName, unit string, filter shared.Filter) ([]ledger.StockTransaction, error) {
	return nil, nil
}

func (f *fakeStockTxRepo) FindByBatchRef(ctx context.Context, tenantID uuid.UUID, batchRef string) ([]ledger.StockTransaction, error) {
	return nil, nil
}

func (f *fakeStockTxRepo) FindByDateRange(ctx context.Context, tenantID uuid.UUID, start, end time.Time, filter shared.Filter) ([]ledger.StockTransaction, error) {
	if filter.Page > 1 {
		return nil, nil
	}
	return f.txs, nil
}

func (f *fakeStockTxRepo) Create(ctx context.Context, tx *ledger.StockTransaction) error {
	return nil
}

func (f *fakeStockTxRepo) CreateBatch(ctx context.Context, txs []*ledger.StockTransaction) error {
	return nil
}

func (f *fakeStockTxRepo) DeleteReservationTrail(ctx context.Context, tenantID uuid.UUID, batchRef string) error {
	return nil
}

func (f *fakeStockTxRepo) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	return int64(len(f.txs)), nil
}

func (f *fakeStockTxRepo) SumSignedOnHand(ctx context.Context, tenantID uuid.UUID, ingredientName, unit string) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

// capturePublisher records every published event.
type capturePublisher struct {
	events []shared.DomainEvent
}

func (p *capturePublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

// captureGauge records the last low-stock count per tenant.
type captureGauge struct {
	counts map[uuid.UUID]int64
}

func (g *captureGauge) RecordLowStockCount(ctx context.Context, tenantID uuid.UUID, count int64) {
	if g.counts == nil {
		g.counts = make(map[uuid.UUID]int64)
	}
	g.counts[tenantID] = count
}

func lowStockRecord(t *testing.T, tenantID uuid.UUID, name string) ledger.StockRecord {
	t.Helper()
	record, err := ledger.NewStockRecord(tenantID, name, "kg")
	require.NoError(t, err)
	require.NoError(t, record.AddStock(decimal.NewFromInt(2), "intake", nil))
	require.NoError(t, record.SetLowStockThreshold(decimal.NewFromInt(5)))
	record.ClearDomainEvents()
	return *record
}

func TestLedgerJobExecutor_LowStockScan(t *testing.T) {
	tenantID := uuid.New()

	t.Run("publishes one event per low stock record", func(t *testing.T) {
		repo := &fakeStockRecordRepo{lowStock: []ledger.StockRecord{
			lowStockRecord(t, tenantID, "Arabica Beans"),
			lowStockRecord(t, tenantID, "Whole Milk"),
		}}
		publisher := &capturePublisher{}
		gauge := &captureGauge{}
		executor := NewLedgerJobExecutor(repo, nil, publisher, zap.NewNop()).WithGauge(gauge)

		job := NewJob(&tenantID, JobTypeLowStockScan, time.Now(), time.Now(), 0)
		err := executor.Execute(context.Background(), job)
		require.NoError(t, err)

		require.Len(t, publisher.events, 2)
		event, ok := publisher.events[0].(*ledger.LowStockDetectedEvent)
		require.True(t, ok)
		assert.Equal(t, "Arabica Beans", event.IngredientName)
		assert.Equal(t, tenantID, event.TenantID())
		assert.Equal(t, int64(2), gauge.counts[tenantID])
	})

	t.Run("no events when nothing is low", func(t *testing.T) {
		repo := &fakeStockRecordRepo{}
		publisher := &capturePublisher{}
		gauge := &captureGauge{}
		executor := NewLedgerJobExecutor(repo, nil, publisher, zap.NewNop()).WithGauge(gauge)

		job := NewJob(&tenantID, JobTypeLowStockScan, time.Now(), time.Now(), 0)
		require.NoError(t, executor.Execute(context.Background(), job))

		assert.Empty(t, publisher.events)
		assert.Equal(t, int64(0), gauge.counts[tenantID])
	})

	t.Run("requires a tenant", func(t *testing.T) {
		executor := NewLedgerJobExecutor(&fakeStockRecordRepo{}, nil, &capturePublisher{}, zap.NewNop())

		job := NewJob(nil, JobTypeLowStockScan, time.Now(), time.Now(), 0)
		err := executor.Execute(context.Background(), job)
		assert.Error(t, err)
	})
}

func TestLedgerJobExecutor_LedgerArchive(t *testing.T) {
	tenantID := uuid.New()

	newArchiveService := func(txs []ledger.StockTransaction) (*archiveapp.ArchiveService, *storage.StubObjectStorage) {
		stub := storage.NewStubObjectStorage()
		svc := archiveapp.NewArchiveService(&fakeStockTxRepo{txs: txs}, stub, zap.NewNop())
		return svc, stub
	}

	t.Run("exports the window to storage", func(t *testing.T) {
		recordID := uuid.New()
		tx, err := ledger.NewStockTransaction(
			tenantID, recordID, "Arabica Beans", "kg",
			ledger.TransactionTypeAdd,
			decimal.NewFromInt(10), decimal.Zero, decimal.NewFromInt(10),
			"warehouse intake",
		)
		require.NoError(t, err)

		svc, stub := newArchiveService([]ledger.StockTransaction{*tx})
		executor := NewLedgerJobExecutor(&fakeStockRecordRepo{}, svc, &capturePublisher{}, zap.NewNop())

		from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
		job := NewJob(&tenantID, JobTypeLedgerArchive, from, from.AddDate(0, 0, 1), 0)
		require.NoError(t, executor.Execute(context.Background(), job))

		key := fmt.Sprintf("archives/%s/stock-transactions_2025-03-01_2025-03-02.csv", tenantID)
		data, ok := stub.Object(key)
		require.True(t, ok)
		assert.Contains(t, string(data), "Arabica Beans")
	})

	t.Run("requires a tenant", func(t *testing.T) {
		svc, _ := newArchiveService(nil)
		executor := NewLedgerJobExecutor(&fakeStockRecordRepo{}, svc, &capturePublisher{}, zap.NewNop())

		job := NewJob(nil, JobTypeLedgerArchive, time.Now().Add(-time.Hour), time.Now(), 0)
		assert.Error(t, executor.Execute(context.Background(), job))
	})
}

func TestLedgerJobExecutor_UnknownJobType(t *testing.T) {
	executor := NewLedgerJobExecutor(&fakeStockRecordRepo{}, nil, &capturePublisher{}, zap.NewNop())
	tenantID := uuid.New()

	job := NewJob(&tenantID, JobType("NOT_A_JOB"), time.Now(), time.Now(), 0)
	err := executor.Execute(context.Background(), job)
	assert.ErrorIs(t, err, ErrInvalidJobType)
}
