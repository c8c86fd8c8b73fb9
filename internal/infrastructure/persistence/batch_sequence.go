package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BatchSequence is a per-tenant counter backing batch numbering. Counters only
// move forward, so a number stays retired even after the highest-numbered
// batch is deleted.
type BatchSequence struct {
	TenantID   uuid.UUID `gorm:"primaryKey;type:uuid"`
	Scope      string    `gorm:"primaryKey;size:20"`
	LastNumber int
}

// TableName specifies the table name for GORM
func (BatchSequence) TableName() string {
	return "batch_sequences"
}

const (
	warehouseSequenceScope  = "warehouse"
	productionSequenceScope = "production"
)

// allocateBatchNumber claims the next number for the tenant and scope. The
// counter upsert serializes concurrent claims on the row lock.
func allocateBatchNumber(ctx context.Context, db *gorm.DB, tenantID uuid.UUID, scope string) (int, error) {
	var allocated int
	err := db.WithContext(ctx).Raw(
		`INSERT INTO batch_sequences (tenant_id, scope, last_number)
		 VALUES (?, ?, 1)
		 ON CONFLICT (tenant_id, scope)
		 DO UPDATE SET last_number = batch_sequences.last_number + 1
		 RETURNING last_number`,
		tenantID, scope,
	).Scan(&allocated).Error
	if err != nil {
		return 0, err
	}
	return allocated, nil
}

// peekBatchNumber reports the number the next allocation will produce without
// claiming it.
func peekBatchNumber(ctx context.Context, db *gorm.DB, tenantID uuid.UUID, scope string) (int, error) {
	var result struct {
		Last int
	}
	if err := db.WithContext(ctx).
		Model(&BatchSequence{}).
		Select("COALESCE(MAX(last_number), 0) as last").
		Where("tenant_id = ? AND scope = ?", tenantID, scope).
		Scan(&result).Error; err != nil {
		return 0, err
	}
	return result.Last + 1, nil
}
