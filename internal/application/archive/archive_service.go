package archive

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/batchline/backend/internal/domain/ledger"
	"github.com/batchline/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ObjectStorage is the subset of object storage operations the archiver
// needs. Implemented by the S3 storage and the local stub.
type ObjectStorage interface {
	// Upload writes an object to storage
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error
	// GenerateDownloadURL generates a presigned URL for downloading an object
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
}

// ArchiveResult describes a completed export
type ArchiveResult struct {
	StorageKey  string    `json:"storage_key"`
	RowCount    int       `json:"row_count"`
	From        time.Time `json:"from"`
	To          time.Time `json:"to"`
	GeneratedAt time.Time `json:"generated_at"`
}

// ArchiveService exports windows of the append-only transaction log as CSV
// to object storage. It reads the ledger and never mutates it.
type ArchiveService struct {
	txRepo  ledger.StockTransactionRepository
	storage ObjectStorage
	logger  *zap.Logger
}

// NewArchiveService creates a new ArchiveService
func NewArchiveService(txRepo ledger.StockTransactionRepository, storage ObjectStorage, logger *zap.Logger) *ArchiveService {
	return &ArchiveService{
		txRepo:  txRepo,
		storage: storage,
		logger:  logger,
	}
}

// csvHeader is the column layout of an exported ledger window
var csvHeader = []string{
	"transaction_id", "ingredient_name", "unit", "transaction_type",
	"quantity", "signed_quantity", "balance_before", "balance_after",
	"reason", "batch_ref", "transaction_date",
}

// ExportTransactions streams the transactions of a date window as CSV to
// object storage and returns the storage key and row count. An empty window
// still produces a file with only the header row.
func (s *ArchiveService) ExportTransactions(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (*ArchiveResult, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if !to.After(from) {
		return nil, shared.NewDomainError("INVALID_DATE_RANGE", "End of the export window must be after its start")
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	rowCount := 0
	page := 1
	for {
		filter := shared.Filter{
			Page:     page,
			PageSize: exportPageSize,
			OrderBy:  "transaction_date",
			OrderDir: "asc",
		}

		txs, err := s.txRepo.FindByDateRange(ctx, tenantID, from, to, filter)
		if err != nil {
			return nil, fmt.Errorf("read ledger window: %w", err)
		}
		if len(txs) == 0 {
			break
		}

		for i := range txs {
			if err := writer.Write(csvRow(&txs[i])); err != nil {
				return nil, fmt.Errorf("write csv row: %w", err)
			}
			rowCount++
		}

		if len(txs) < exportPageSize {
			break
		}
		page++
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}

	key := storageKey(tenantID, from, to)
	if err := s.storage.Upload(ctx, key, buf.Bytes(), "text/csv"); err != nil {
		return nil, fmt.Errorf("upload archive: %w", err)
	}

	s.logger.Info("ledger window archived",
		zap.String("tenant_id", tenantID.String()),
		zap.String("storage_key", key),
		zap.Int("row_count", rowCount),
		zap.Time("from", from),
		zap.Time("to", to),
	)

	return &ArchiveResult{
		StorageKey:  key,
		RowCount:    rowCount,
		From:        from,
		To:          to,
		GeneratedAt: time.Now(),
	}, nil
}

// GetDownloadURL returns a presigned URL for a previously exported archive
func (s *ArchiveService) GetDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	return s.storage.GenerateDownloadURL(ctx, storageKey, expiresIn)
}

const exportPageSize = 1000

func storageKey(tenantID uuid.UUID, from, to time.Time) string {
	return fmt.Sprintf("archives/%s/stock-transactions_%s_%s.csv",
		tenantID, from.Format("2006-01-02"), to.Format("2006-01-02"))
}

func csvRow(tx *ledger.StockTransaction) []string {
	batchRef := ""
	if tx.BatchRef != nil {
		batchRef = *tx.BatchRef
	}
	return []string{
		tx.ID.String(),
		tx.IngredientName,
		tx.Unit,
		tx.TransactionType.String(),
		tx.Quantity.String(),
		tx.SignedQuantity().String(),
		tx.BalanceBefore.String(),
		tx.BalanceAfter.String(),
		tx.Reason,
		batchRef,
		tx.TransactionDate.Format(time.RFC3339),
	}
}
