package scheduler

import (
	"context"
	"fmt"

	archiveapp "github.com/batchline/backend/internal/application/archive"
	"github.com/batchline/backend/internal/domain/ledger"
	"github.com/batchline/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// scanPageSize is how many low-stock records each scan page reads.
const scanPageSize = 500

// LowStockGauge receives the low-stock count observed by each scan.
type LowStockGauge interface {
	RecordLowStockCount(ctx context.Context, tenantID uuid.UUID, count int64)
}

// LedgerJobExecutor executes the ledger background jobs: the low-stock scan
// and the daily transaction archive.
type LedgerJobExecutor struct {
	recordRepo     ledger.StockRecordRepository
	archiveService *archiveapp.ArchiveService
	publisher      shared.EventPublisher
	gauge          LowStockGauge
	logger         *zap.Logger
}

// NewLedgerJobExecutor creates a new LedgerJobExecutor
func NewLedgerJobExecutor(
	recordRepo ledger.StockRecordRepository,
	archiveService *archiveapp.ArchiveService,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *LedgerJobExecutor {
	return &LedgerJobExecutor{
		recordRepo:     recordRepo,
		archiveService: archiveService,
		publisher:      publisher,
		logger:         logger,
	}
}

// WithGauge attaches a low-stock gauge updated by each scan
func (e *LedgerJobExecutor) WithGauge(gauge LowStockGauge) *LedgerJobExecutor {
	e.gauge = gauge
	return e
}

// Execute runs a single job
func (e *LedgerJobExecutor) Execute(ctx context.Context, job *Job) error {
	switch job.JobType {
	case JobTypeLowStockScan:
		return e.runLowStockScan(ctx, job)
	case JobTypeLedgerArchive:
		return e.runLedgerArchive(ctx, job)
	default:
		return fmt.Errorf("%w: %s", ErrInvalidJobType, job.JobType)
	}
}

// runLowStockScan publishes a LowStockDetected event for every record at or
// below its threshold. The handler side dedupes, so re-publishing on each
// scan is safe.
func (e *LedgerJobExecutor) runLowStockScan(ctx context.Context, job *Job) error {
	if job.TenantID == nil {
		return fmt.Errorf("low-stock scan requires a tenant")
	}
	tenantID := *job.TenantID

	var total int64
	page := 1
	for {
		filter := shared.Filter{
			Page:     page,
			PageSize: scanPageSize,
			OrderBy:  "ingredient_name",
			OrderDir: "asc",
		}
		records, err := e.recordRepo.FindLowStock(ctx, tenantID, filter)
		if err != nil {
			return fmt.Errorf("low-stock scan failed: %w", err)
		}
		if len(records) == 0 {
			break
		}

		for i := range records {
			event := ledger.NewLowStockDetectedEvent(&records[i])
			if err := e.publisher.Publish(ctx, event); err != nil {
				e.logger.Error("Failed to publish low stock event",
					zap.String("tenant_id", tenantID.String()),
					zap.String("ingredient_name", records[i].IngredientName),
					zap.Error(err),
				)
			}
		}

		total += int64(len(records))
		if len(records) < scanPageSize {
			break
		}
		page++
	}

	if e.gauge != nil {
		e.gauge.RecordLowStockCount(ctx, tenantID, total)
	}

	e.logger.Info("Low-stock scan completed",
		zap.String("tenant_id", tenantID.String()),
		zap.Int64("low_stock_records", total),
	)
	return nil
}

// runLedgerArchive exports the job's transaction window to object storage
func (e *LedgerJobExecutor) runLedgerArchive(ctx context.Context, job *Job) error {
	if job.TenantID == nil {
		return fmt.Errorf("ledger archive requires a tenant")
	}

	result, err := e.archiveService.ExportTransactions(ctx, *job.TenantID, job.PeriodStart, job.PeriodEnd)
	if err != nil {
		return fmt.Errorf("ledger archive failed: %w", err)
	}

	e.logger.Info("Ledger archive completed",
		zap.String("tenant_id", job.TenantID.String()),
		zap.String("storage_key", result.StorageKey),
		zap.Int("row_count", result.RowCount),
	)
	return nil
}

// Ensure LedgerJobExecutor implements JobExecutor
var _ JobExecutor = (*LedgerJobExecutor)(nil)
